// Package counterparty implements Stage 2: recognizing payment aggregators
// and recovering merchant identity from generic collection labels.
package counterparty

import (
	"context"
	"regexp"
	"strings"
	"sync"

	"github.com/molino/molino/internal/model"
	"github.com/molino/molino/internal/rules"
)

// rfcRegex matches the Mexican RFC format: 3-4 letters, a 6-digit date,
// and a 3-character homoclave.
var rfcRegex = regexp.MustCompile(`\b[A-ZÑ&]{3,4}\d{6}[A-Z0-9]{3}\b`)

type compiledRule struct {
	regexes []*regexp.Regexp
	anchor  *regexp.Regexp
	rules.CounterpartyRule
}

// Detector recognizes aggregators/marketplaces and extracts merchant hints.
type Detector struct {
	rules           []compiledRule
	collectionTerms []string
	mu              sync.RWMutex
}

// New creates a detector from the given rules and generic collection terms.
func New(cpRules []rules.CounterpartyRule, collectionTerms []string) *Detector {
	compiled := make([]compiledRule, 0, len(cpRules))
	for _, r := range cpRules {
		cr := compiledRule{CounterpartyRule: r}
		for _, p := range r.Patterns {
			cr.regexes = append(cr.regexes, rules.MustCompile(p))
		}
		if r.HintAnchor != "" {
			cr.anchor = rules.MustCompile(r.HintAnchor)
		}
		compiled = append(compiled, cr)
	}

	for i := 0; i < len(compiled)-1; i++ {
		for j := i + 1; j < len(compiled); j++ {
			if compiled[j].Priority > compiled[i].Priority {
				compiled[i], compiled[j] = compiled[j], compiled[i]
			}
		}
	}

	return &Detector{rules: compiled, collectionTerms: collectionTerms}
}

// Detect annotates the transaction with counterparty information. It assumes
// the caller has already checked MerchantExpected. Confidence can only
// decrease here: the result is min(incoming, match confidence).
func (d *Detector) Detect(_ context.Context, txn model.Transaction) model.Transaction {
	d.mu.RLock()
	defer d.mu.RUnlock()

	searchText := txn.SearchText()
	info := &model.CounterpartyInfo{}

	for _, rule := range d.rules {
		if !matchesAny(rule.regexes, searchText) {
			continue
		}
		info.Detected = true
		info.CounterpartyID = rule.CounterpartyID
		info.Category = rule.Category
		info.ActualMerchantHint = extractHint(rule.anchor, searchText)
		if rule.Confidence < txn.Confidence {
			txn.Confidence = rule.Confidence
		}
		break
	}

	// A generic collection label on a domiciliacion carries no merchant
	// identity; an RFC in the context lines does. When both this and an
	// aggregator rule fire, the RFC wins.
	if d.isGenericCollection(txn) {
		if rfc := findRFC(txn.ContextLines); rfc != "" {
			info.RFC = rfc
			info.RFCExtracted = true
			info.ActualMerchantHint = rfc
		}
	}

	txn.Counterparty = info
	txn.Trace.Counterparty = model.StageApplied
	return txn
}

func (d *Detector) isGenericCollection(txn model.Transaction) bool {
	if txn.TypeDetection == nil || txn.TypeDetection.Type != model.TypeDomiciliacion {
		return false
	}
	desc := strings.ToUpper(txn.Description)
	for _, term := range d.collectionTerms {
		if strings.Contains(desc, strings.ToUpper(term)) {
			return true
		}
	}
	return false
}

func matchesAny(regexes []*regexp.Regexp, text string) bool {
	for _, re := range regexes {
		if re.MatchString(text) {
			return true
		}
	}
	return false
}

// extractHint returns the text following the anchor match, trimmed. Without
// an anchor (or with nothing after it) there is no hint.
func extractHint(anchor *regexp.Regexp, text string) string {
	if anchor == nil {
		return ""
	}
	loc := anchor.FindStringIndex(text)
	if loc == nil {
		return ""
	}
	return strings.TrimSpace(text[loc[1]:])
}

// findRFC scans context lines for an RFC token.
func findRFC(lines []string) string {
	for _, line := range lines {
		if rfc := rfcRegex.FindString(strings.ToUpper(line)); rfc != "" {
			return rfc
		}
	}
	return ""
}
