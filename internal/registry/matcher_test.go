package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/molino/molino/internal/model"
	"github.com/molino/molino/internal/rules"
)

func testEntities() []model.RegistryEntity {
	return []model.RegistryEntity{
		{
			ID:            1,
			RegistryKey:   model.EntityMerchant,
			CanonicalName: "Starbucks",
			Category:      "cafe",
			Variations:    []string{"STARBUCKS COFFEE", "SBUX"},
		},
		{
			ID:            2,
			RegistryKey:   model.EntityMerchant,
			CanonicalName: "Walmart",
			Category:      "groceries",
		},
	}
}

func TestMatcher_Lookup(t *testing.T) {
	matcher := NewMatcher(rules.DefaultPolicy())
	entities := testEntities()

	tests := []struct {
		name           string
		text           string
		wantEntity     string
		wantTier       model.MatchTier
		wantConfidence float64
	}{
		{
			name:           "exact canonical",
			text:           "Starbucks",
			wantEntity:     "Starbucks",
			wantTier:       model.TierCanonical,
			wantConfidence: 1.0,
		},
		{
			name:           "canonical is case and whitespace insensitive",
			text:           "  STARBUCKS  ",
			wantEntity:     "Starbucks",
			wantTier:       model.TierCanonical,
			wantConfidence: 1.0,
		},
		{
			name:           "exact variation",
			text:           "sbux",
			wantEntity:     "Starbucks",
			wantTier:       model.TierVariation,
			wantConfidence: 0.95,
		},
		{
			name:           "substring of lookup text",
			text:           "STARBUCKS SEATTLE WA",
			wantEntity:     "Starbucks",
			wantTier:       model.TierSubstring,
			wantConfidence: 0.70,
		},
		{
			name:           "lookup text inside variation",
			text:           "COFFEE",
			wantEntity:     "Starbucks",
			wantTier:       model.TierSubstring,
			wantConfidence: 0.70,
		},
		{
			name:           "second entity reachable",
			text:           "WALMART CENTRO",
			wantEntity:     "Walmart",
			wantTier:       model.TierSubstring,
			wantConfidence: 0.70,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := matcher.Lookup(tt.text, entities)

			require.NotNil(t, got)
			assert.Equal(t, tt.wantEntity, got.Entity.CanonicalName)
			assert.Equal(t, tt.wantTier, got.Tier)
			assert.InDelta(t, tt.wantConfidence, got.Confidence, 0.001)
		})
	}
}

func TestMatcher_NoMatch(t *testing.T) {
	matcher := NewMatcher(rules.DefaultPolicy())

	assert.Nil(t, matcher.Lookup("TAQUERIA EL PASTOR", testEntities()))
	assert.Nil(t, matcher.Lookup("", testEntities()))
	assert.Nil(t, matcher.Lookup("   ", testEntities()))
	assert.Nil(t, matcher.Lookup("STARBUCKS", nil))
}

func TestMatcher_TierOrdering(t *testing.T) {
	// An exact canonical hit must win even when a variation on another
	// entity would also match the same text.
	entities := []model.RegistryEntity{
		{ID: 1, RegistryKey: model.EntityMerchant, CanonicalName: "Oxxo Pay", Variations: []string{"OXXO"}},
		{ID: 2, RegistryKey: model.EntityMerchant, CanonicalName: "Oxxo"},
	}

	matcher := NewMatcher(rules.DefaultPolicy())
	got := matcher.Lookup("OXXO", entities)

	require.NotNil(t, got)
	assert.Equal(t, int64(2), got.Entity.ID)
	assert.Equal(t, model.TierCanonical, got.Tier)

	policy := rules.DefaultPolicy()
	assert.GreaterOrEqual(t, policy.TierCanonical, policy.TierVariation)
	assert.GreaterOrEqual(t, policy.TierVariation, policy.TierSubstring)
}
