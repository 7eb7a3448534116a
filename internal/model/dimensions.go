package model

// FlowType is the accounting-level classification of a transaction.
type FlowType string

// Flow type constants.
const (
	FlowExpense     FlowType = "expense"
	FlowIncome      FlowType = "income"
	FlowCardPayment FlowType = "card-payment"
	FlowTransfer    FlowType = "transfer"
	FlowWithdrawal  FlowType = "withdrawal"
	FlowDeposit     FlowType = "deposit"
	FlowFee         FlowType = "fee"
	FlowInterest    FlowType = "interest"
	FlowAdjustment  FlowType = "adjustment"
	FlowUnknown     FlowType = "unknown"
)

// DebitCredit marks which side of the ledger a flow lands on.
type DebitCredit string

// Debit/credit constants.
const (
	Debit   DebitCredit = "debit"
	Credit  DebitCredit = "credit"
	Neither DebitCredit = "none"
)

// Dimensions is the Stage 5 output: six independent classification
// dimensions derived from everything upstream. Missing inputs surface as
// explicit "Unknown" values, never as absent fields.
type Dimensions struct {
	FlowType           FlowType
	AccountCategory    string
	AccountSubcategory string
	DebitCredit        DebitCredit

	MerchantCategory  string
	MCCCode           string
	BudgetCategory    string
	BudgetSubcategory string

	TaxCategory        string
	BusinessDeductible bool
	PersonalDeductible bool

	PaymentMethod  string
	PaymentNetwork string

	// CategoryResolutionConfidence is the mean of the merchant/budget, tax,
	// and payment-method confidences. The flow table is deterministic and
	// does not participate.
	CategoryResolutionConfidence float64
}
