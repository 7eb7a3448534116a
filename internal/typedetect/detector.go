// Package typedetect implements Stage 1: rule-driven transaction typing.
package typedetect

import (
	"context"
	"fmt"
	"regexp"
	"sync"

	"github.com/molino/molino/internal/model"
	"github.com/molino/molino/internal/rules"
)

// compiledRule holds a type rule with its patterns pre-compiled.
type compiledRule struct {
	regexes []*regexp.Regexp
	rules.TypeRule
}

// Detector classifies transactions against a priority-ordered rule set.
type Detector struct {
	rules  []compiledRule
	policy rules.Policy
	mu     sync.RWMutex
}

// New creates a detector from the given rules. Patterns must already be
// validated; compilation failures here are reported as errors anyway so a
// caller bypassing rules.Load still gets a clean failure.
func New(typeRules []rules.TypeRule, policy rules.Policy) (*Detector, error) {
	compiled, err := compile(typeRules)
	if err != nil {
		return nil, err
	}
	return &Detector{rules: compiled, policy: policy}, nil
}

func compile(typeRules []rules.TypeRule) ([]compiledRule, error) {
	compiled := make([]compiledRule, 0, len(typeRules))
	for _, r := range typeRules {
		cr := compiledRule{TypeRule: r}
		for _, p := range r.Patterns {
			re, err := regexp.Compile("(?i)" + p)
			if err != nil {
				return nil, fmt.Errorf("failed to compile pattern for rule %s: %w", r.Name, err)
			}
			cr.regexes = append(cr.regexes, re)
		}
		compiled = append(compiled, cr)
	}

	// Sort by priority (highest first)
	for i := 0; i < len(compiled)-1; i++ {
		for j := i + 1; j < len(compiled); j++ {
			if compiled[j].Priority > compiled[i].Priority {
				compiled[i], compiled[j] = compiled[j], compiled[i]
			}
		}
	}

	return compiled, nil
}

// Detect returns the transaction with its TypeDetection block filled in.
// The first rule (in priority order) whose patterns and field requirement
// are satisfied wins. When nothing matches the transaction is typed unknown
// with merchant extraction forced on: skipping a legitimate merchant costs
// more than a low-confidence extraction attempt.
func (d *Detector) Detect(_ context.Context, txn model.Transaction) model.Transaction {
	d.mu.RLock()
	defer d.mu.RUnlock()

	searchText := txn.SearchText()

	for _, rule := range d.rules {
		if !d.matches(rule, searchText, &txn) {
			continue
		}
		txn.TypeDetection = &model.TypeDetection{
			Type:             rule.Type,
			Direction:        rule.Direction,
			MatchedRule:      rule.Name,
			MerchantExpected: rule.MerchantExpected,
			Confidence:       rule.Confidence,
		}
		txn.Confidence = rule.Confidence
		txn.Trace.TypeDetect = model.StageApplied
		return txn
	}

	txn.TypeDetection = &model.TypeDetection{
		Type:             model.TypeUnknown,
		Direction:        model.DirectionUnknown,
		MerchantExpected: true,
		Confidence:       d.policy.UnknownTypeConfidence,
	}
	txn.Confidence = d.policy.UnknownTypeConfidence
	txn.Trace.TypeDetect = model.StageApplied
	return txn
}

func (d *Detector) matches(rule compiledRule, searchText string, txn *model.Transaction) bool {
	if rule.RequiredField != "" {
		if _, ok := txn.Field(rule.RequiredField); !ok {
			return false
		}
	}

	if rule.RequireAll {
		for _, re := range rule.regexes {
			if !re.MatchString(searchText) {
				return false
			}
		}
		return true
	}

	for _, re := range rule.regexes {
		if re.MatchString(searchText) {
			return true
		}
	}
	return false
}

// UpdateRules swaps in a new rule set, e.g. after a configuration reload.
func (d *Detector) UpdateRules(typeRules []rules.TypeRule) error {
	compiled, err := compile(typeRules)
	if err != nil {
		return err
	}

	d.mu.Lock()
	d.rules = compiled
	d.mu.Unlock()
	return nil
}

// RuleCount returns the number of loaded rules.
func (d *Detector) RuleCount() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.rules)
}
