// Package model defines the core domain models used throughout the application.
package model

import (
	"crypto/sha256"
	"fmt"
	"strings"
	"time"
)

// TransactionType classifies what kind of movement a statement line represents.
type TransactionType string

// Transaction type constants. The Mexican banking vocabulary (domiciliacion,
// SPEI, SWEB) is preserved as-is because the rule files use it.
const (
	TypeExpense        TransactionType = "expense"
	TypeIncome         TransactionType = "income"
	TypeTransfer       TransactionType = "transfer"
	TypeDomiciliacion  TransactionType = "domiciliacion"
	TypeSPEI           TransactionType = "spei"
	TypeSWEB           TransactionType = "sweb"
	TypeCardPurchase   TransactionType = "card-purchase"
	TypeCardWithdrawal TransactionType = "card-withdrawal"
	TypePOSPurchase    TransactionType = "pos-purchase"
	TypeFee            TransactionType = "fee"
	TypeInterest       TransactionType = "interest"
	TypeDeposit        TransactionType = "deposit"
	TypeUnknown        TransactionType = "unknown"
)

// Direction indicates which way money moved.
type Direction string

// Direction constants.
const (
	DirectionOut     Direction = "out"
	DirectionIn      Direction = "in"
	DirectionNeutral Direction = "neutral"
	DirectionUnknown Direction = "unknown"
)

// Transaction is a single statement line as it moves through the enrichment
// pipeline. The raw fields come from the upstream statement parser; each
// stage fills in its own block and never clears a block written earlier.
type Transaction struct {
	Date            time.Time
	ID              string
	Description     string
	BeneficiaryName string
	SourceFile      string
	Hash            string
	ContextLines    []string
	Amount          float64

	// Stage outputs. Nil means the stage has not run (or was skipped;
	// see Trace).
	TypeDetection *TypeDetection
	Counterparty  *CounterpartyInfo
	Extraction    *Extraction
	Resolutions   map[EntityType]Resolution
	Dimensions    *Dimensions

	// NeedsManualClassification is set when the merchant could not be
	// resolved and was queued for review.
	NeedsManualClassification bool

	// Confidence is the running pipeline confidence through Stage 4.
	Confidence float64

	// Trace records which stages were applied or skipped.
	Trace StageTrace
}

// TypeDetection is the Stage 1 output.
type TypeDetection struct {
	Type             TransactionType
	Direction        Direction
	MatchedRule      string
	MerchantExpected bool
	Confidence       float64
}

// CounterpartyInfo is the Stage 2 output.
type CounterpartyInfo struct {
	CounterpartyID     string
	Category           string
	ActualMerchantHint string
	RFC                string
	Detected           bool
	RFCExtracted       bool
}

// Extraction is the Stage 3 output. CleanMerchant is never empty when the
// transaction expects a merchant; a failed cleanup falls back to the raw
// source text with IsClean=false.
type Extraction struct {
	CleanMerchant string
	RemovedNoise  []string
	KeptContext   []string
	IsClean       bool
}

// StageStatus records whether a stage ran.
type StageStatus string

// Stage status constants.
const (
	StageApplied StageStatus = "applied"
	StageSkipped StageStatus = "skipped"
)

// StageTrace stamps each stage's status for auditability. Skipped stages
// still appear here so a downstream reader can tell "not needed" from
// "not run yet".
type StageTrace struct {
	TypeDetect   StageStatus
	Counterparty StageStatus
	Extract      StageStatus
	Resolve      StageStatus
	Categorize   StageStatus
}

// GenerateHash creates a stable hash for duplicate detection.
func (t *Transaction) GenerateHash() string {
	data := fmt.Sprintf("%s:%.2f:%s:%s",
		t.Date.Format("2006-01-02"),
		t.Amount,
		t.Description,
		t.SourceFile)
	hash := sha256.Sum256([]byte(data))
	return fmt.Sprintf("%x", hash)
}

// SearchText concatenates the description and context lines, the text every
// pattern stage matches against.
func (t *Transaction) SearchText() string {
	if len(t.ContextLines) == 0 {
		return t.Description
	}
	parts := make([]string, 0, len(t.ContextLines)+1)
	parts = append(parts, t.Description)
	parts = append(parts, t.ContextLines...)
	return strings.Join(parts, " ")
}

// MerchantExpected reports whether merchant extraction applies to this
// transaction. Before Stage 1 runs it defaults to true.
func (t *Transaction) MerchantExpected() bool {
	if t.TypeDetection == nil {
		return true
	}
	return t.TypeDetection.MerchantExpected
}

// Field exposes named views of the record for the generic entity engine's
// extraction strategies. Unknown or empty fields return ok=false.
func (t *Transaction) Field(name string) (string, bool) {
	var v string
	switch name {
	case "description":
		v = t.Description
	case "beneficiaryName":
		v = t.BeneficiaryName
	case "sourceFile":
		v = t.SourceFile
	case "type":
		if t.TypeDetection != nil {
			v = string(t.TypeDetection.Type)
		}
	case "merchantHint":
		if t.Counterparty != nil {
			v = t.Counterparty.ActualMerchantHint
		}
	case "rfc":
		if t.Counterparty != nil {
			v = t.Counterparty.RFC
		}
	case "cleanMerchant":
		if t.Extraction != nil {
			v = t.Extraction.CleanMerchant
		}
	case "counterpartyCategory":
		if t.Counterparty != nil {
			v = t.Counterparty.Category
		}
	case "bank", "account", "merchant", "category":
		// Canonical names become addressable once resolved, so later
		// definitions can derive from earlier ones.
		if res, ok := t.Resolutions[EntityType(name)]; ok && res.Resolved() {
			v = res.Canonical
		}
	default:
		return "", false
	}
	v = strings.TrimSpace(v)
	return v, v != ""
}
