package counterparty

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/molino/molino/internal/model"
	"github.com/molino/molino/internal/rules"
)

func typedTxn(desc string, txnType model.TransactionType, confidence float64, contextLines ...string) model.Transaction {
	return model.Transaction{
		Description:  desc,
		ContextLines: contextLines,
		TypeDetection: &model.TypeDetection{
			Type:             txnType,
			MerchantExpected: true,
			Confidence:       confidence,
		},
		Confidence: confidence,
	}
}

func TestDetector_AggregatorMatch(t *testing.T) {
	ctx := context.Background()
	detector := New(rules.DefaultCounterpartyRules(), rules.DefaultCollectionTerms())

	tests := []struct {
		name           string
		txn            model.Transaction
		wantID         string
		wantHint       string
		wantDetected   bool
		wantConfidence float64
	}{
		{
			name:           "mercado pago with trailing merchant",
			txn:            typedTxn("MERCADOPAGO*TIENDA DONA ROSA", model.TypeCardPurchase, 0.95),
			wantID:         "mercadopago",
			wantDetected:   true,
			wantHint:       "TIENDA DONA ROSA",
			wantConfidence: 0.90,
		},
		{
			name:           "paypal star prefix",
			txn:            typedTxn("PAYPAL *SPOTIFY", model.TypeCardPurchase, 0.95),
			wantID:         "paypal",
			wantDetected:   true,
			wantHint:       "SPOTIFY",
			wantConfidence: 0.90,
		},
		{
			name:           "no aggregator",
			txn:            typedTxn("COMPRA TARJETA OXXO SUR", model.TypeCardPurchase, 0.90),
			wantDetected:   false,
			wantConfidence: 0.90,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := detector.Detect(ctx, tt.txn)

			require.NotNil(t, got.Counterparty)
			assert.Equal(t, tt.wantDetected, got.Counterparty.Detected)
			assert.Equal(t, tt.wantID, got.Counterparty.CounterpartyID)
			assert.Equal(t, tt.wantHint, got.Counterparty.ActualMerchantHint)
			assert.InDelta(t, tt.wantConfidence, got.Confidence, 0.001)
			assert.Equal(t, model.StageApplied, got.Trace.Counterparty)
		})
	}
}

func TestDetector_ConfidenceNeverIncreases(t *testing.T) {
	ctx := context.Background()
	detector := New(rules.DefaultCounterpartyRules(), rules.DefaultCollectionTerms())

	// Incoming confidence is lower than the rule's own; it must stay.
	txn := typedTxn("MERCADOPAGO*ABARROTES LUPITA", model.TypeCardPurchase, 0.40)
	got := detector.Detect(ctx, txn)
	assert.InDelta(t, 0.40, got.Confidence, 0.001)

	// Incoming confidence is higher; it must drop to the rule's.
	txn = typedTxn("MERCADOPAGO*ABARROTES LUPITA", model.TypeCardPurchase, 0.99)
	got = detector.Detect(ctx, txn)
	assert.InDelta(t, 0.90, got.Confidence, 0.001)
}

func TestDetector_RFCExtraction(t *testing.T) {
	ctx := context.Background()
	detector := New(rules.DefaultCounterpartyRules(), rules.DefaultCollectionTerms())

	tests := []struct {
		name     string
		txn      model.Transaction
		wantRFC  string
		wantHint string
	}{
		{
			name:     "rfc recovered from context lines",
			txn:      typedTxn("COBRANZA DOMICILIACION", model.TypeDomiciliacion, 0.90, "RFC/CURP: SAT8410245V8"),
			wantRFC:  "SAT8410245V8",
			wantHint: "SAT8410245V8",
		},
		{
			name:     "four letter rfc",
			txn:      typedTxn("COBRANZA DOMICILIACION", model.TypeDomiciliacion, 0.90, "TITULAR: TELM840101AB9"),
			wantRFC:  "TELM840101AB9",
			wantHint: "TELM840101AB9",
		},
		{
			name:    "no rfc in context",
			txn:     typedTxn("COBRANZA DOMICILIACION", model.TypeDomiciliacion, 0.90, "SIN DETALLE"),
			wantRFC: "",
		},
		{
			name:    "generic label on non-domiciliacion type is ignored",
			txn:     typedTxn("COBRANZA DOMICILIACION", model.TypeCardPurchase, 0.90, "RFC/CURP: SAT8410245V8"),
			wantRFC: "",
		},
		{
			name:    "domiciliacion without generic label keeps description",
			txn:     typedTxn("NETFLIX MENSUAL", model.TypeDomiciliacion, 0.90, "RFC/CURP: SAT8410245V8"),
			wantRFC: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := detector.Detect(ctx, tt.txn)

			require.NotNil(t, got.Counterparty)
			assert.Equal(t, tt.wantRFC, got.Counterparty.RFC)
			assert.Equal(t, tt.wantRFC != "", got.Counterparty.RFCExtracted)
			if tt.wantHint != "" {
				assert.Equal(t, tt.wantHint, got.Counterparty.ActualMerchantHint)
			}
		})
	}
}

func TestDetector_RFCOverridesAggregatorHint(t *testing.T) {
	ctx := context.Background()

	// An aggregator rule that also matches the collection label.
	detector := New([]rules.CounterpartyRule{
		{
			Name:           "Collection Agent",
			CounterpartyID: "collector",
			Category:       "collection-agent",
			Patterns:       []string{`COBRANZA`},
			HintAnchor:     `COBRANZA\s*`,
			Confidence:     0.85,
			Priority:       100,
		},
	}, rules.DefaultCollectionTerms())

	txn := typedTxn("COBRANZA DOMICILIACION", model.TypeDomiciliacion, 0.90, "RFC/CURP: SAT8410245V8")
	got := detector.Detect(ctx, txn)

	require.NotNil(t, got.Counterparty)
	assert.True(t, got.Counterparty.Detected)
	// The tax ID carries identity; the aggregator's trailing text does not.
	assert.Equal(t, "SAT8410245V8", got.Counterparty.ActualMerchantHint)
	assert.True(t, got.Counterparty.RFCExtracted)
}
