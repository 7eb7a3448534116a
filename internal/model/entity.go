package model

import (
	"strings"
	"time"
)

// EntityType identifies which registry an entity belongs to.
type EntityType string

// Entity type constants. Each has a corresponding registry.
const (
	EntityMerchant EntityType = "merchant"
	EntityBank     EntityType = "bank"
	EntityAccount  EntityType = "account"
	EntityCategory EntityType = "category"
)

// MatchTier describes how a lookup text matched a registry entity.
type MatchTier string

// Match tiers in decreasing confidence order.
const (
	TierCanonical MatchTier = "exact-canonical"
	TierVariation MatchTier = "exact-variation"
	TierSubstring MatchTier = "substring"
	TierNone      MatchTier = "none"
)

// RegistryEntity is one entry in a registry: a canonical name plus the
// textual variations it is known by on statements.
type RegistryEntity struct {
	CreatedAt          time.Time
	UpdatedAt          time.Time
	RegistryKey        EntityType
	CanonicalName      string
	Category           string
	MCCCode            string
	PaymentNetwork     string
	Variations         []string
	BusinessDeductible *bool
	PersonalDeductible *bool
	ID                 int64
}

// ResolutionStatus is the tagged outcome of resolving one entity type.
type ResolutionStatus string

// Resolution status constants.
const (
	ResolutionResolved ResolutionStatus = "resolved"
	ResolutionFallback ResolutionStatus = "fallback"
	ResolutionPending  ResolutionStatus = "pending"
	ResolutionSkipped  ResolutionStatus = "skipped"
)

// Resolution is the Stage 4 output for a single entity type.
type Resolution struct {
	Status     ResolutionStatus
	Canonical  string
	SearchText string
	Tier       MatchTier
	Entity     *RegistryEntity
	Confidence float64
}

// Resolved reports whether the entity matched a registry entry.
func (r Resolution) Resolved() bool {
	return r.Status == ResolutionResolved
}

// NormalizeLookup canonicalizes text for registry comparison: lowercase with
// runs of whitespace collapsed to single spaces. Canonical names, variations,
// pending-queue keys, and lookup texts all go through this.
func NormalizeLookup(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
