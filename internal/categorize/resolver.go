// Package categorize implements Stage 5: deriving the six classification
// dimensions from everything the earlier stages produced. The resolver is a
// pure function; missing upstream inputs surface as explicit "Unknown"
// values, never as errors.
package categorize

import (
	"context"

	"github.com/molino/molino/internal/model"
	"github.com/molino/molino/internal/rules"
)

// Unknown sentinel values for dimensions that could not be derived.
const (
	UnknownCategory = "Unknown"
	Uncategorized   = "Uncategorized"
	UnknownMethod   = "Unknown"
)

// accountTuple is one row of the flow/accounting lookup table.
type accountTuple struct {
	category    string
	subcategory string
	debitCredit model.DebitCredit
}

// flowTable maps every flow type to its accounting tuple. The table is
// total: unknown flows get the explicit Unknown row, never a panic.
var flowTable = map[model.FlowType]accountTuple{
	model.FlowExpense:     {"Expenses", "Operating", model.Debit},
	model.FlowIncome:      {"Income", "Revenue", model.Credit},
	model.FlowCardPayment: {"Liabilities", "Credit Card", model.Debit},
	model.FlowTransfer:    {"Transfers", "Internal", model.Neither},
	model.FlowWithdrawal:  {"Assets", "Cash", model.Debit},
	model.FlowDeposit:     {"Assets", "Bank", model.Credit},
	model.FlowFee:         {"Expenses", "Bank Fees", model.Debit},
	model.FlowInterest:    {"Income", "Interest", model.Credit},
	model.FlowAdjustment:  {"Equity", "Adjustments", model.Neither},
	model.FlowUnknown:     {UnknownCategory, Uncategorized, model.Neither},
}

// budgetCategories maps a merchant category to its budget envelope.
var budgetCategories = map[string]struct{ category, subcategory string }{
	"cafe":           {"Food & Dining", "Coffee"},
	"dining":         {"Food & Dining", "Restaurants"},
	"groceries":      {"Food & Dining", "Groceries"},
	"shopping":       {"Shopping", "General"},
	"marketplace":    {"Shopping", "Online"},
	"transportation": {"Transport", "General"},
	"utilities":      {"Bills", "Utilities"},
	"entertainment":  {"Leisure", "Entertainment"},
	"healthcare":     {"Health", "Medical"},
	"other":          {"Other", "General"},
}

// Resolver derives the Stage 5 dimensions.
type Resolver struct {
	policy rules.Policy
}

// New creates a resolver with the given policy constants.
func New(policy rules.Policy) *Resolver {
	return &Resolver{policy: policy}
}

// Categorize fills the transaction's Dimensions block. It always runs to
// completion, whatever subset of upstream fields is present.
func (r *Resolver) Categorize(_ context.Context, txn model.Transaction) model.Transaction {
	dims := &model.Dimensions{}

	dims.FlowType = flowType(&txn)
	r.resolveAccounting(dims, &txn)
	merchantConf := r.resolveMerchantAndBudget(dims, &txn)
	taxConf := r.resolveTax(dims, &txn)
	paymentConf := r.resolvePaymentMethod(dims, &txn)

	// Flow/accounting is rule-deterministic and deliberately excluded
	// from the aggregate.
	dims.CategoryResolutionConfidence = (merchantConf + taxConf + paymentConf) / 3

	txn.Dimensions = dims
	txn.Trace.Categorize = model.StageApplied
	return txn
}

// flowType maps the detected transaction type onto the accounting flow.
func flowType(txn *model.Transaction) model.FlowType {
	if txn.TypeDetection == nil {
		return model.FlowUnknown
	}
	switch txn.TypeDetection.Type {
	case model.TypeExpense, model.TypeDomiciliacion, model.TypeCardPurchase, model.TypePOSPurchase:
		return model.FlowExpense
	case model.TypeIncome:
		return model.FlowIncome
	case model.TypeTransfer, model.TypeSPEI, model.TypeSWEB:
		return model.FlowTransfer
	case model.TypeCardWithdrawal:
		return model.FlowWithdrawal
	case model.TypeDeposit:
		return model.FlowDeposit
	case model.TypeFee:
		return model.FlowFee
	case model.TypeInterest:
		return model.FlowInterest
	case model.TypeUnknown:
		return model.FlowUnknown
	}

	// Rule files may type transactions directly with a flow name
	// (e.g. "card-payment"); pass those through when they are valid.
	if _, ok := flowTable[model.FlowType(txn.TypeDetection.Type)]; ok {
		return model.FlowType(txn.TypeDetection.Type)
	}
	return model.FlowUnknown
}

func (r *Resolver) resolveAccounting(dims *model.Dimensions, txn *model.Transaction) {
	tuple, ok := flowTable[dims.FlowType]
	if !ok {
		tuple = flowTable[model.FlowUnknown]
	}
	dims.AccountCategory = tuple.category
	dims.AccountSubcategory = tuple.subcategory
	dims.DebitCredit = tuple.debitCredit

	// The Unknown row cannot know the ledger side; the amount sign can.
	if dims.FlowType == model.FlowUnknown {
		if txn.Amount < 0 {
			dims.DebitCredit = model.Debit
		} else if txn.Amount > 0 {
			dims.DebitCredit = model.Credit
		}
	}
}

// resolveMerchantAndBudget walks the category ladder: resolved category
// entity, then the merchant entity's MCC, then Unknown.
func (r *Resolver) resolveMerchantAndBudget(dims *model.Dimensions, txn *model.Transaction) float64 {
	merchant := resolution(txn, model.EntityMerchant)
	if merchant != nil && merchant.Entity != nil {
		dims.MCCCode = merchant.Entity.MCCCode
	}

	if cat := resolution(txn, model.EntityCategory); cat != nil {
		dims.MerchantCategory = cat.Canonical
		r.assignBudget(dims, cat.Canonical)
		return r.policy.ResolvedCategoryConfidence
	}

	if merchant != nil && merchant.Entity != nil {
		if merchant.Entity.Category != "" {
			dims.MerchantCategory = merchant.Entity.Category
			r.assignBudget(dims, merchant.Entity.Category)
			return r.policy.ResolvedCategoryConfidence
		}
		if category, ok := mccCategories[merchant.Entity.MCCCode]; ok {
			dims.MerchantCategory = category
			r.assignBudget(dims, category)
			return r.policy.MCCCategoryConfidence
		}
	}

	dims.MerchantCategory = UnknownCategory
	dims.BudgetCategory = UnknownCategory
	dims.BudgetSubcategory = Uncategorized
	return r.policy.UnknownCategoryConfidence
}

func (r *Resolver) assignBudget(dims *model.Dimensions, merchantCategory string) {
	if budget, ok := budgetCategories[merchantCategory]; ok {
		dims.BudgetCategory = budget.category
		dims.BudgetSubcategory = budget.subcategory
		return
	}
	dims.BudgetCategory = merchantCategory
	dims.BudgetSubcategory = "General"
}

// resolveTax applies the ordered tax decision rules. Each branch carries its
// own fixed confidence: the number reflects how certain the rule is, not how
// good the data was.
func (r *Resolver) resolveTax(dims *model.Dimensions, txn *model.Transaction) float64 {
	merchant := resolution(txn, model.EntityMerchant)

	switch {
	case dims.FlowType == model.FlowIncome || dims.FlowType == model.FlowInterest:
		dims.TaxCategory = "Taxable Income"
		return r.policy.TaxIncomeConfidence

	case merchant != nil && merchant.Entity != nil &&
		(merchant.Entity.BusinessDeductible != nil || merchant.Entity.PersonalDeductible != nil):
		dims.TaxCategory = "Deductible per Merchant"
		if merchant.Entity.BusinessDeductible != nil {
			dims.BusinessDeductible = *merchant.Entity.BusinessDeductible
		}
		if merchant.Entity.PersonalDeductible != nil {
			dims.PersonalDeductible = *merchant.Entity.PersonalDeductible
		}
		return r.policy.TaxMerchantHintConfidence

	case merchant != nil && merchant.Entity != nil &&
		(healthcareMCC(merchant.Entity.MCCCode) || merchant.Entity.Category == "healthcare"):
		dims.TaxCategory = "Medical Expense"
		dims.PersonalDeductible = true
		return r.policy.TaxHealthcareConfidence

	case dims.FlowType == model.FlowFee:
		dims.TaxCategory = "Business Expense"
		dims.BusinessDeductible = true
		return r.policy.TaxBankFeeConfidence

	case dims.FlowType == model.FlowCardPayment || dims.FlowType == model.FlowTransfer:
		// Liability or equity movement, not expense.
		dims.TaxCategory = "Non-Deductible"
		return r.policy.TaxNonExpenseConfidence

	default:
		dims.TaxCategory = "Non-Deductible"
		return r.policy.TaxDefaultConfidence
	}
}

// resolvePaymentMethod walks the payment-method priority: account entity,
// bank entity, flow-derived fallback, Unknown.
func (r *Resolver) resolvePaymentMethod(dims *model.Dimensions, txn *model.Transaction) float64 {
	if account := resolution(txn, model.EntityAccount); account != nil {
		dims.PaymentMethod = account.Canonical
		if account.Entity != nil {
			dims.PaymentNetwork = account.Entity.PaymentNetwork
		}
		return r.policy.PaymentAccountConfidence
	}

	if bank := resolution(txn, model.EntityBank); bank != nil {
		dims.PaymentMethod = bank.Canonical
		if bank.Entity != nil {
			dims.PaymentNetwork = bank.Entity.PaymentNetwork
		}
		return r.policy.PaymentBankConfidence
	}

	switch dims.FlowType {
	case model.FlowWithdrawal:
		dims.PaymentMethod = "Cash / ATM"
	case model.FlowTransfer, model.FlowDeposit:
		dims.PaymentMethod = "Bank Transfer"
	case model.FlowExpense:
		if txn.TypeDetection != nil &&
			(txn.TypeDetection.Type == model.TypeCardPurchase || txn.TypeDetection.Type == model.TypePOSPurchase) {
			dims.PaymentMethod = "Card"
		}
	}
	if dims.PaymentMethod != "" {
		return r.policy.PaymentFlowConfidence
	}

	dims.PaymentMethod = UnknownMethod
	return r.policy.PaymentUnknownConfidence
}

// resolution returns the resolved entry for an entity type, or nil.
func resolution(txn *model.Transaction, key model.EntityType) *model.Resolution {
	if txn.Resolutions == nil {
		return nil
	}
	res, ok := txn.Resolutions[key]
	if !ok || !res.Resolved() {
		return nil
	}
	return &res
}
