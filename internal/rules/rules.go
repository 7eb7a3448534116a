// Package rules defines the declarative rule sets that drive the enrichment
// stages. Rules are data: external YAML files (or the in-code defaults)
// loaded once at startup, compiled, and consulted read-only afterwards.
package rules

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/molino/molino/internal/model"
)

// TypeRule classifies a transaction in Stage 1. Patterns are matched against
// the description concatenated with all context lines; if RequireAll is set
// every pattern must match, otherwise any one suffices. RequiredField, when
// set, names a transaction field that must be non-empty for the rule to fire.
type TypeRule struct {
	Name             string                `mapstructure:"name"`
	Patterns         []string              `mapstructure:"patterns"`
	RequireAll       bool                  `mapstructure:"require_all"`
	RequiredField    string                `mapstructure:"required_field"`
	Type             model.TransactionType `mapstructure:"type"`
	Direction        model.Direction       `mapstructure:"direction"`
	MerchantExpected bool                  `mapstructure:"merchant_expected"`
	Confidence       float64               `mapstructure:"confidence"`
	Priority         int                   `mapstructure:"priority"`
}

// CounterpartyRule recognizes a payment aggregator or marketplace in Stage 2.
// HintAnchor is a regex; the text following its match becomes the actual
// merchant hint.
type CounterpartyRule struct {
	Name           string   `mapstructure:"name"`
	CounterpartyID string   `mapstructure:"counterparty_id"`
	Category       string   `mapstructure:"category"`
	Patterns       []string `mapstructure:"patterns"`
	HintAnchor     string   `mapstructure:"hint_anchor"`
	Confidence     float64  `mapstructure:"confidence"`
	Priority       int      `mapstructure:"priority"`
}

// NoisePattern is one removal rule for Stage 3. Patterns flagged
// KeepAsContext move their matches into the kept-context list instead of
// discarding them.
type NoisePattern struct {
	Name          string `mapstructure:"name"`
	Pattern       string `mapstructure:"pattern"`
	KeepAsContext bool   `mapstructure:"keep_as_context"`
	Priority      int    `mapstructure:"priority"`
}

// ExtractionLimits bounds the cleaned merchant text.
type ExtractionLimits struct {
	MinLength int `mapstructure:"min_length"`
	MaxLength int `mapstructure:"max_length"`
}

// Set is the full rule configuration for a pipeline instance.
type Set struct {
	TypeRules         []TypeRule
	CounterpartyRules []CounterpartyRule
	NoisePatterns     []NoisePattern
	Limits            ExtractionLimits
	Definitions       []model.EntityDefinition

	// CollectionTerms are the generic labels that trigger the RFC search
	// on domiciliacion transactions.
	CollectionTerms []string
}

// Validate compiles every regex in the set and checks definition sanity.
// Any failure here is a startup-fatal configuration error.
func (s *Set) Validate() error {
	for _, r := range s.TypeRules {
		if len(r.Patterns) == 0 {
			return fmt.Errorf("type rule %q: no patterns", r.Name)
		}
		for _, p := range r.Patterns {
			if _, err := compileInsensitive(p); err != nil {
				return fmt.Errorf("type rule %q: %w", r.Name, err)
			}
		}
	}
	for _, r := range s.CounterpartyRules {
		for _, p := range r.Patterns {
			if _, err := compileInsensitive(p); err != nil {
				return fmt.Errorf("counterparty rule %q: %w", r.Name, err)
			}
		}
		if r.HintAnchor != "" {
			if _, err := compileInsensitive(r.HintAnchor); err != nil {
				return fmt.Errorf("counterparty rule %q anchor: %w", r.Name, err)
			}
		}
	}
	for _, np := range s.NoisePatterns {
		if _, err := compileInsensitive(np.Pattern); err != nil {
			return fmt.Errorf("noise pattern %q: %w", np.Name, err)
		}
	}
	seen := make(map[model.EntityType]bool, len(s.Definitions))
	for _, d := range s.Definitions {
		if d.RegistryKey == "" {
			return fmt.Errorf("entity definition %q: missing registry key", d.ID)
		}
		if seen[d.RegistryKey] {
			return fmt.Errorf("entity definition %q: duplicate registry key %s", d.ID, d.RegistryKey)
		}
		seen[d.RegistryKey] = true
	}
	return nil
}

// compileInsensitive compiles a pattern, defaulting it to case-insensitive
// the way the rule files expect.
func compileInsensitive(pattern string) (*regexp.Regexp, error) {
	if !strings.HasPrefix(pattern, "(?i)") {
		pattern = "(?i)" + pattern
	}
	return regexp.Compile(pattern)
}

// MustCompile is compileInsensitive for patterns already validated by
// Validate.
func MustCompile(pattern string) *regexp.Regexp {
	re, err := compileInsensitive(pattern)
	if err != nil {
		panic(err)
	}
	return re
}
