// Package extract implements Stage 3: stripping statement noise from
// merchant text. The stage never fails: every merchant-bearing transaction
// leaves here with a non-empty clean merchant string.
package extract

import (
	"context"
	"regexp"
	"strings"

	"github.com/molino/molino/internal/model"
	"github.com/molino/molino/internal/rules"
)

var leadingDigits = regexp.MustCompile(`^\d+\s+`)

type compiledPattern struct {
	re *regexp.Regexp
	rules.NoisePattern
}

// Extractor cleans merchant text with an ordered noise-pattern list.
type Extractor struct {
	patterns []compiledPattern
	limits   rules.ExtractionLimits
	policy   rules.Policy
}

// New creates an extractor from validated noise patterns.
func New(patterns []rules.NoisePattern, limits rules.ExtractionLimits, policy rules.Policy) *Extractor {
	compiled := make([]compiledPattern, 0, len(patterns))
	for _, p := range patterns {
		compiled = append(compiled, compiledPattern{
			NoisePattern: p,
			re:           rules.MustCompile(p.Pattern),
		})
	}

	for i := 0; i < len(compiled)-1; i++ {
		for j := i + 1; j < len(compiled); j++ {
			if compiled[j].Priority > compiled[i].Priority {
				compiled[i], compiled[j] = compiled[j], compiled[i]
			}
		}
	}

	return &Extractor{patterns: compiled, limits: limits, policy: policy}
}

// Extract fills in the transaction's Extraction block. Source text priority:
// aggregator/RFC hint, then the parsed beneficiary name, then the raw
// description, then the first non-blank context line. If cleanup eats the
// whole string the original source text is kept as the merchant with
// IsClean=false and the confidence dropped low enough to force manual review.
// A record with no text at all skips the stage instead of producing an empty
// merchant.
func (e *Extractor) Extract(_ context.Context, txn model.Transaction) model.Transaction {
	source := e.sourceText(&txn)
	if source == "" {
		txn.Confidence = e.policy.DirtyExtractionConfidence
		txn.Trace.Extract = model.StageSkipped
		return txn
	}

	result := &model.Extraction{}
	cleaned := source
	for _, p := range e.patterns {
		matches := p.re.FindAllString(cleaned, -1)
		if len(matches) == 0 {
			continue
		}
		if p.KeepAsContext {
			result.KeptContext = append(result.KeptContext, matches...)
		} else {
			result.RemovedNoise = append(result.RemovedNoise, matches...)
		}
		cleaned = p.re.ReplaceAllString(cleaned, " ")
	}

	cleaned = strings.Join(strings.Fields(cleaned), " ")
	cleaned = leadingDigits.ReplaceAllString(cleaned, "")
	if e.limits.MaxLength > 0 && len(cleaned) > e.limits.MaxLength {
		cleaned = strings.TrimSpace(cleaned[:e.limits.MaxLength])
	}

	if len(cleaned) < e.limits.MinLength {
		// Total-coverage fallback: better a noisy merchant string flagged
		// for review than no merchant at all.
		result.CleanMerchant = source
		result.IsClean = false
		txn.Confidence = e.policy.DirtyExtractionConfidence
	} else {
		result.CleanMerchant = cleaned
		result.IsClean = true
	}

	txn.Extraction = result
	txn.Trace.Extract = model.StageApplied
	return txn
}

func (e *Extractor) sourceText(txn *model.Transaction) string {
	if txn.Counterparty != nil && txn.Counterparty.ActualMerchantHint != "" {
		return txn.Counterparty.ActualMerchantHint
	}
	if name := strings.TrimSpace(txn.BeneficiaryName); name != "" {
		return name
	}
	if desc := strings.TrimSpace(txn.Description); desc != "" {
		return desc
	}
	for _, line := range txn.ContextLines {
		if line = strings.TrimSpace(line); line != "" {
			return line
		}
	}
	return ""
}
