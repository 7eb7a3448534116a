// Package resolve implements Stage 4: the generic, definition-driven entity
// resolution engine. One engine instance serves every configured entity type
// (merchant, bank, account, category); the definitions decide how lookup
// text is derived and which registry it is resolved against.
package resolve

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/molino/molino/internal/common"
	"github.com/molino/molino/internal/model"
	"github.com/molino/molino/internal/registry"
	"github.com/molino/molino/internal/rules"
	"github.com/molino/molino/internal/service"
)

// Engine resolves entities against their registries and queues unresolved
// merchants for manual classification.
type Engine struct {
	storage     service.Storage
	matcher     *registry.Matcher
	definitions []model.EntityDefinition
	policy      rules.Policy
}

// New creates an engine. Definitions are consulted in priority order
// (highest first); disabled definitions are dropped here.
func New(storage service.Storage, matcher *registry.Matcher, definitions []model.EntityDefinition, policy rules.Policy) *Engine {
	enabled := make([]model.EntityDefinition, 0, len(definitions))
	for _, d := range definitions {
		if d.Enabled {
			enabled = append(enabled, d)
		}
	}
	for i := 0; i < len(enabled)-1; i++ {
		for j := i + 1; j < len(enabled); j++ {
			if enabled[j].Priority > enabled[i].Priority {
				enabled[i], enabled[j] = enabled[j], enabled[i]
			}
		}
	}

	return &Engine{
		storage:     storage,
		matcher:     matcher,
		definitions: enabled,
		policy:      policy,
	}
}

// Resolve fills the transaction's Resolutions map, one entry per enabled
// entity definition. A registry hit merges the canonical entity and
// multiplies confidence by the match tier's confidence; a merchant miss
// enqueues the text for manual classification and applies the pending
// penalty instead of zeroing confidence. No derivable search text means the
// entity type is skipped, not an error.
func (e *Engine) Resolve(ctx context.Context, txn model.Transaction) (model.Transaction, error) {
	txn.Resolutions = make(map[model.EntityType]model.Resolution, len(e.definitions))

	for _, def := range e.definitions {
		text := searchText(def.Extraction, &txn)
		if text == "" {
			txn.Resolutions[def.RegistryKey] = model.Resolution{
				Status: model.ResolutionSkipped,
				Tier:   model.TierNone,
			}
			continue
		}

		entities, err := e.storage.GetEntities(ctx, def.RegistryKey)
		if err != nil {
			return txn, fmt.Errorf("failed to load %s registry: %w", def.RegistryKey, err)
		}

		if match := e.matcher.Lookup(text, entities); match != nil {
			txn.Resolutions[def.RegistryKey] = model.Resolution{
				Status:     model.ResolutionResolved,
				Canonical:  match.Entity.CanonicalName,
				SearchText: text,
				Tier:       match.Tier,
				Entity:     match.Entity,
				Confidence: match.Confidence,
			}
			txn.Confidence *= match.Confidence
			continue
		}

		resolution := model.Resolution{
			Status:     model.ResolutionFallback,
			SearchText: text,
			Tier:       model.TierNone,
		}

		if def.RegistryKey == model.EntityMerchant {
			if err := e.enqueueMerchant(ctx, &txn, text); err != nil {
				return txn, err
			}
			resolution.Status = model.ResolutionPending
			txn.NeedsManualClassification = true
			txn.Confidence *= e.policy.PendingPenalty
		}

		txn.Resolutions[def.RegistryKey] = resolution
	}

	txn.Trace.Resolve = model.StageApplied
	return txn, nil
}

// enqueueMerchant records an unresolved merchant text with full transaction
// provenance. The storage layer deduplicates on the normalized text.
func (e *Engine) enqueueMerchant(ctx context.Context, txn *model.Transaction, text string) error {
	provenance, err := json.Marshal(txn)
	if err != nil {
		return fmt.Errorf("failed to serialize provenance: %w", err)
	}

	created, err := e.storage.EnqueuePending(ctx, &model.PendingClassification{
		NormalizedText: model.NormalizeLookup(text),
		OriginalText:   text,
		Provenance:     string(provenance),
		Status:         model.PendingOpen,
	})
	if err != nil {
		return fmt.Errorf("failed to enqueue pending classification: %w", err)
	}

	if created {
		common.LogDebug("Queued merchant for manual classification", common.Fields{"merchant": text})
	}
	return nil
}
