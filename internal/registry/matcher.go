// Package registry implements the tiered lookup used to resolve statement
// text against registry entities.
package registry

import (
	"strings"

	"github.com/molino/molino/internal/model"
	"github.com/molino/molino/internal/rules"
)

// Match is the result of a registry lookup.
type Match struct {
	Entity     *model.RegistryEntity
	Tier       model.MatchTier
	Confidence float64
}

// Matcher resolves lookup text against entities in three tiers: exact
// canonical name, exact variation, then substring. Confidence is a strict
// function of the tier.
type Matcher struct {
	policy rules.Policy
}

// NewMatcher creates a matcher with the given tier confidences.
func NewMatcher(policy rules.Policy) *Matcher {
	return &Matcher{policy: policy}
}

// Lookup finds the best match for text among entities. All comparison is
// case-insensitive and whitespace-normalized. A nil result means no tier
// matched.
func (m *Matcher) Lookup(text string, entities []model.RegistryEntity) *Match {
	needle := model.NormalizeLookup(text)
	if needle == "" {
		return nil
	}

	// Tier 1: exact canonical name.
	for i := range entities {
		if model.NormalizeLookup(entities[i].CanonicalName) == needle {
			return &Match{
				Entity:     &entities[i],
				Tier:       model.TierCanonical,
				Confidence: m.policy.TierCanonical,
			}
		}
	}

	// Tier 2: exact variation.
	for i := range entities {
		for _, variation := range entities[i].Variations {
			if model.NormalizeLookup(variation) == needle {
				return &Match{
					Entity:     &entities[i],
					Tier:       model.TierVariation,
					Confidence: m.policy.TierVariation,
				}
			}
		}
	}

	// Tier 3: substring, either direction, against canonical and variations.
	for i := range entities {
		candidates := append([]string{entities[i].CanonicalName}, entities[i].Variations...)
		for _, candidate := range candidates {
			normalized := model.NormalizeLookup(candidate)
			if normalized == "" {
				continue
			}
			if strings.Contains(needle, normalized) || strings.Contains(normalized, needle) {
				return &Match{
					Entity:     &entities[i],
					Tier:       model.TierSubstring,
					Confidence: m.policy.TierSubstring,
				}
			}
		}
	}

	return nil
}
