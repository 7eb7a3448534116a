// Package pipeline wires the five enrichment stages into the sequential
// fold every transaction moves through: typed, counterparty-annotated,
// clean-merchant, entity-resolved, categorized.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/schollz/progressbar/v3"

	"github.com/molino/molino/internal/categorize"
	"github.com/molino/molino/internal/common"
	"github.com/molino/molino/internal/counterparty"
	"github.com/molino/molino/internal/extract"
	"github.com/molino/molino/internal/model"
	"github.com/molino/molino/internal/registry"
	"github.com/molino/molino/internal/resolve"
	"github.com/molino/molino/internal/rules"
	"github.com/molino/molino/internal/service"
	"github.com/molino/molino/internal/typedetect"
)

// Pipeline enriches raw statement transactions through all five stages.
// Stages 1-3 and 5 are pure; Stage 4 reads registries and writes the
// pending queue through storage.
type Pipeline struct {
	detector     *typedetect.Detector
	counterparty *counterparty.Detector
	extractor    *extract.Extractor
	resolver     *resolve.Engine
	categorizer  *categorize.Resolver
	storage      service.Storage
}

// Stats summarizes an enrichment run.
type Stats struct {
	Duration       time.Duration
	Total          int
	MerchantsFound int
	Pending        int
	Skipped        int
}

// New builds a pipeline from a validated rule set.
func New(storage service.Storage, set *rules.Set, policy rules.Policy) (*Pipeline, error) {
	detector, err := typedetect.New(set.TypeRules, policy)
	if err != nil {
		return nil, fmt.Errorf("failed to build type detector: %w", err)
	}

	return &Pipeline{
		detector:     detector,
		counterparty: counterparty.New(set.CounterpartyRules, set.CollectionTerms),
		extractor:    extract.New(set.NoisePatterns, set.Limits, policy),
		resolver:     resolve.New(storage, registry.NewMatcher(policy), set.Definitions, policy),
		categorizer:  categorize.New(policy),
		storage:      storage,
	}, nil
}

// Enrich runs one transaction through the fold. When Stage 1 decides no
// merchant is expected, Stages 2-4 are skipped but still stamped, and
// Stage 5 runs regardless, substituting Unknown defaults.
func (p *Pipeline) Enrich(ctx context.Context, txn model.Transaction) (model.Transaction, error) {
	if txn.Hash == "" {
		txn.Hash = txn.GenerateHash()
	}

	txn = p.detector.Detect(ctx, txn)

	if txn.MerchantExpected() {
		txn = p.counterparty.Detect(ctx, txn)
		txn = p.extractor.Extract(ctx, txn)

		var err error
		txn, err = p.resolver.Resolve(ctx, txn)
		if err != nil {
			common.LogError(err, "Entity resolution failed", common.Fields{"transaction": txn.ID})
			return txn, fmt.Errorf("entity resolution failed for %s: %w", txn.ID, err)
		}
	} else {
		txn.Trace.Counterparty = model.StageSkipped
		txn.Trace.Extract = model.StageSkipped
		txn.Trace.Resolve = model.StageSkipped
	}

	txn = p.categorizer.Categorize(ctx, txn)
	return txn, nil
}

// EnrichAll maps Enrich over a batch, optionally rendering a progress bar,
// and persists the finished records as immutable facts.
func (p *Pipeline) EnrichAll(ctx context.Context, txns []model.Transaction, showProgress bool) ([]model.Transaction, *Stats, error) {
	start := time.Now()
	stats := &Stats{Total: len(txns)}

	var bar *progressbar.ProgressBar
	if showProgress {
		bar = progressbar.NewOptions(len(txns),
			progressbar.OptionSetDescription("Enriching transactions"),
			progressbar.OptionShowCount(),
			progressbar.OptionClearOnFinish(),
		)
	}

	enriched := make([]model.Transaction, 0, len(txns))
	for _, txn := range txns {
		select {
		case <-ctx.Done():
			return nil, nil, ctx.Err()
		default:
		}

		result, err := p.Enrich(ctx, txn)
		if err != nil {
			return nil, nil, err
		}

		switch {
		case !result.MerchantExpected():
			stats.Skipped++
		case result.NeedsManualClassification:
			stats.Pending++
		default:
			stats.MerchantsFound++
		}

		enriched = append(enriched, result)
		if bar != nil {
			_ = bar.Add(1)
		}
	}

	if len(enriched) > 0 {
		if err := p.storage.SaveEnriched(ctx, enriched); err != nil {
			return nil, nil, fmt.Errorf("failed to persist enriched transactions: %w", err)
		}
	}

	stats.Duration = time.Since(start)
	common.LogInfo("Enrichment run complete", common.Fields{
		"total":    stats.Total,
		"resolved": stats.MerchantsFound,
		"pending":  stats.Pending,
		"skipped":  stats.Skipped,
		"duration": stats.Duration,
	})

	return enriched, stats, nil
}
