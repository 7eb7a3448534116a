package pipeline

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/molino/molino/internal/model"
	"github.com/molino/molino/internal/rules"
	"github.com/molino/molino/internal/testutil"
)

func TestPipeline_CardPurchaseResolved(t *testing.T) {
	ctx := context.Background()
	store := testutil.SetupTestDB(t)
	testutil.SeedEntity(t, store, model.RegistryEntity{
		RegistryKey:   model.EntityMerchant,
		CanonicalName: "Starbucks",
		Category:      "cafe",
	})

	p, err := New(store, rules.DefaultSet(), rules.DefaultPolicy())
	require.NoError(t, err)

	got, err := p.Enrich(ctx, model.Transaction{
		ID:          "txn-1",
		Date:        time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC),
		Description: "CARGO TARJETA STARBUCKS #1234 SEATTLE WA",
		Amount:      -85.50,
		SourceFile:  "bbva-2024-03.pdf",
	})
	require.NoError(t, err)

	// Stage 1: card purchase at 0.90.
	require.NotNil(t, got.TypeDetection)
	assert.Equal(t, model.TypeCardPurchase, got.TypeDetection.Type)
	assert.Equal(t, model.DirectionOut, got.TypeDetection.Direction)

	// Stage 3: the store number is noise.
	require.NotNil(t, got.Extraction)
	assert.NotContains(t, got.Extraction.CleanMerchant, "#1234")
	assert.True(t, got.Extraction.IsClean)

	// Stage 4: substring hit against the seeded registry.
	merchant := got.Resolutions[model.EntityMerchant]
	assert.Equal(t, model.ResolutionResolved, merchant.Status)
	assert.Equal(t, "Starbucks", merchant.Canonical)
	assert.Equal(t, model.TierSubstring, merchant.Tier)
	assert.InDelta(t, 0.90*0.70, got.Confidence, 0.001)
	assert.False(t, got.NeedsManualClassification)

	// Stage 5: cafe budget envelope.
	require.NotNil(t, got.Dimensions)
	assert.Equal(t, model.FlowExpense, got.Dimensions.FlowType)
	assert.Equal(t, "cafe", got.Dimensions.MerchantCategory)
	assert.Equal(t, "Food & Dining", got.Dimensions.BudgetCategory)

	// Every stage ran.
	assert.Equal(t, model.StageApplied, got.Trace.TypeDetect)
	assert.Equal(t, model.StageApplied, got.Trace.Counterparty)
	assert.Equal(t, model.StageApplied, got.Trace.Extract)
	assert.Equal(t, model.StageApplied, got.Trace.Resolve)
	assert.Equal(t, model.StageApplied, got.Trace.Categorize)
	assert.NotEmpty(t, got.Hash)

	// Nothing queued for review.
	pending, err := store.GetPending(ctx, model.PendingOpen)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestPipeline_DomiciliacionRFCGoesPending(t *testing.T) {
	ctx := context.Background()
	store := testutil.SetupTestDB(t)
	p, err := New(store, rules.DefaultSet(), rules.DefaultPolicy())
	require.NoError(t, err)

	got, err := p.Enrich(ctx, model.Transaction{
		ID:           "txn-2",
		Date:         time.Date(2024, 3, 16, 0, 0, 0, 0, time.UTC),
		Description:  "COBRANZA DOMICILIACION",
		ContextLines: []string{"RFC EMISOR: SAT8410245V8"},
		Amount:       -399.00,
	})
	require.NoError(t, err)

	assert.Equal(t, model.TypeDomiciliacion, got.TypeDetection.Type)

	// Stage 2 recovered the RFC as the merchant identity.
	require.NotNil(t, got.Counterparty)
	assert.True(t, got.Counterparty.RFCExtracted)
	assert.Equal(t, "SAT8410245V8", got.Counterparty.RFC)
	assert.Equal(t, "SAT8410245V8", got.Counterparty.ActualMerchantHint)

	// Stage 3 keeps the RFC intact.
	assert.Equal(t, "SAT8410245V8", got.Extraction.CleanMerchant)

	// Stage 4: empty registry, so the RFC queues for manual review.
	merchant := got.Resolutions[model.EntityMerchant]
	assert.Equal(t, model.ResolutionPending, merchant.Status)
	assert.True(t, got.NeedsManualClassification)
	assert.InDelta(t, 0.90*0.30, got.Confidence, 0.001)

	pending, err := store.GetPending(ctx, model.PendingOpen)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "sat8410245v8", pending[0].NormalizedText)
	assert.Equal(t, "SAT8410245V8", pending[0].OriginalText)
	assert.Contains(t, pending[0].Provenance, "COBRANZA DOMICILIACION")
}

func TestPipeline_FeeSkipsMerchantStages(t *testing.T) {
	ctx := context.Background()
	store := testutil.SetupTestDB(t)
	p, err := New(store, rules.DefaultSet(), rules.DefaultPolicy())
	require.NoError(t, err)

	got, err := p.Enrich(ctx, model.Transaction{
		ID:          "txn-3",
		Date:        time.Date(2024, 3, 17, 0, 0, 0, 0, time.UTC),
		Description: "COMISION MEMBRESIA COBRO MENSUAL",
		Amount:      -150.00,
	})
	require.NoError(t, err)

	assert.Equal(t, model.TypeFee, got.TypeDetection.Type)
	assert.False(t, got.MerchantExpected())

	// Stages 2-4 are stamped skipped, never run.
	assert.Equal(t, model.StageSkipped, got.Trace.Counterparty)
	assert.Equal(t, model.StageSkipped, got.Trace.Extract)
	assert.Equal(t, model.StageSkipped, got.Trace.Resolve)
	assert.Nil(t, got.Counterparty)
	assert.Nil(t, got.Extraction)

	// Stage 5 still runs on what Stage 1 produced.
	assert.Equal(t, model.StageApplied, got.Trace.Categorize)
	require.NotNil(t, got.Dimensions)
	assert.Equal(t, model.FlowFee, got.Dimensions.FlowType)
	assert.Equal(t, "Expenses", got.Dimensions.AccountCategory)
	assert.Equal(t, "Bank Fees", got.Dimensions.AccountSubcategory)
	assert.Equal(t, "Business Expense", got.Dimensions.TaxCategory)

	// Skipping does not dent Stage 1's confidence.
	assert.InDelta(t, 0.90, got.Confidence, 0.001)
}

func TestPipeline_UnknownTypeStillEnriches(t *testing.T) {
	ctx := context.Background()
	store := testutil.SetupTestDB(t)
	p, err := New(store, rules.DefaultSet(), rules.DefaultPolicy())
	require.NoError(t, err)

	got, err := p.Enrich(ctx, model.Transaction{
		ID:          "txn-4",
		Date:        time.Date(2024, 3, 18, 0, 0, 0, 0, time.UTC),
		Description: "MOVIMIENTO RARO",
		Amount:      -42.00,
	})
	require.NoError(t, err)

	// Unknown type still expects a merchant so the record gets a chance.
	assert.Equal(t, model.TypeUnknown, got.TypeDetection.Type)
	assert.True(t, got.MerchantExpected())

	assert.Equal(t, "MOVIMIENTO RARO", got.Extraction.CleanMerchant)
	assert.True(t, got.NeedsManualClassification)
	assert.InDelta(t, 0.30*0.30, got.Confidence, 0.001)

	require.NotNil(t, got.Dimensions)
	assert.Equal(t, model.FlowUnknown, got.Dimensions.FlowType)
	assert.Equal(t, model.Debit, got.Dimensions.DebitCredit, "negative amount decides the ledger side")
}

func TestPipeline_EnrichAll(t *testing.T) {
	ctx := context.Background()
	store := testutil.SetupTestDB(t)
	testutil.SeedEntity(t, store, model.RegistryEntity{
		RegistryKey:   model.EntityMerchant,
		CanonicalName: "Starbucks",
		Category:      "cafe",
	})

	p, err := New(store, rules.DefaultSet(), rules.DefaultPolicy())
	require.NoError(t, err)

	batch := []model.Transaction{
		{ID: "a", Date: time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC), Description: "CARGO TARJETA STARBUCKS #1234", Amount: -85.50},
		{ID: "b", Date: time.Date(2024, 3, 16, 0, 0, 0, 0, time.UTC), Description: "COMISION COBRO ANUALIDAD", Amount: -150.00},
		{ID: "c", Date: time.Date(2024, 3, 17, 0, 0, 0, 0, time.UTC), Description: "COBRANZA DOMICILIACION", ContextLines: []string{"TEL721214GK4"}, Amount: -399.00},
	}

	enriched, stats, err := p.EnrichAll(ctx, batch, false)
	require.NoError(t, err)
	require.Len(t, enriched, 3)

	assert.Equal(t, 3, stats.Total)
	assert.Equal(t, 1, stats.MerchantsFound)
	assert.Equal(t, 1, stats.Skipped)
	assert.Equal(t, 1, stats.Pending)

	// Re-running the same batch must not duplicate pending entries.
	_, _, err = p.EnrichAll(ctx, batch, false)
	require.NoError(t, err)

	pending, err := store.GetPending(ctx, model.PendingOpen)
	require.NoError(t, err)
	assert.Len(t, pending, 1)
}

func TestPipeline_EnrichAllCancellation(t *testing.T) {
	store := testutil.SetupTestDB(t)
	p, err := New(store, rules.DefaultSet(), rules.DefaultPolicy())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err = p.EnrichAll(ctx, []model.Transaction{{ID: "a", Description: "X"}}, false)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPipeline_InvalidRulesRejected(t *testing.T) {
	store := testutil.SetupTestDB(t)

	set := rules.DefaultSet()
	set.TypeRules = append(set.TypeRules, rules.TypeRule{
		Name:     "broken",
		Patterns: []string{`[unclosed`},
		Type:     model.TypeExpense,
	})

	_, err := New(store, set, rules.DefaultPolicy())
	assert.Error(t, err)
}
