package rules

import "github.com/spf13/viper"

// Policy collects the hand-tuned confidence constants used across the
// pipeline. The values mirror the production tuning; they are policy, not
// derived quantities, and can be overridden under the `policy.*` config keys.
type Policy struct {
	// UnknownTypeConfidence is assigned when no Stage 1 rule matches.
	UnknownTypeConfidence float64

	// PendingPenalty multiplies the prior confidence when a merchant
	// misses the registry and is queued for review.
	PendingPenalty float64

	// DirtyExtractionConfidence is the floor applied when Stage 3 falls
	// back to the uncleaned source text.
	DirtyExtractionConfidence float64

	// Registry match-tier confidences.
	TierCanonical float64
	TierVariation float64
	TierSubstring float64

	// Stage 5 fixed confidences.
	UnknownCategoryConfidence  float64
	MCCCategoryConfidence      float64
	TaxIncomeConfidence        float64
	TaxMerchantHintConfidence  float64
	TaxHealthcareConfidence    float64
	TaxBankFeeConfidence       float64
	TaxNonExpenseConfidence    float64
	TaxDefaultConfidence       float64
	PaymentAccountConfidence   float64
	PaymentBankConfidence      float64
	PaymentFlowConfidence      float64
	PaymentUnknownConfidence   float64
	ResolvedCategoryConfidence float64
}

// DefaultPolicy returns the production constants.
func DefaultPolicy() Policy {
	return Policy{
		UnknownTypeConfidence:      0.30,
		PendingPenalty:             0.30,
		DirtyExtractionConfidence:  0.10,
		TierCanonical:              1.0,
		TierVariation:              0.95,
		TierSubstring:              0.70,
		UnknownCategoryConfidence:  0.30,
		MCCCategoryConfidence:      0.80,
		TaxIncomeConfidence:        0.95,
		TaxMerchantHintConfidence:  0.90,
		TaxHealthcareConfidence:    0.85,
		TaxBankFeeConfidence:       0.90,
		TaxNonExpenseConfidence:    0.95,
		TaxDefaultConfidence:       0.70,
		PaymentAccountConfidence:   0.95,
		PaymentBankConfidence:      0.85,
		PaymentFlowConfidence:      0.60,
		PaymentUnknownConfidence:   0.30,
		ResolvedCategoryConfidence: 0.95,
	}
}

// PolicyFromViper overlays configured overrides onto the defaults.
func PolicyFromViper(v *viper.Viper) Policy {
	p := DefaultPolicy()
	overlay := map[string]*float64{
		"policy.unknown_type_confidence":      &p.UnknownTypeConfidence,
		"policy.pending_penalty":              &p.PendingPenalty,
		"policy.dirty_extraction_confidence":  &p.DirtyExtractionConfidence,
		"policy.tier_canonical":               &p.TierCanonical,
		"policy.tier_variation":               &p.TierVariation,
		"policy.tier_substring":               &p.TierSubstring,
		"policy.unknown_category_confidence":  &p.UnknownCategoryConfidence,
		"policy.mcc_category_confidence":      &p.MCCCategoryConfidence,
		"policy.tax_income_confidence":        &p.TaxIncomeConfidence,
		"policy.tax_merchant_hint_confidence": &p.TaxMerchantHintConfidence,
		"policy.tax_healthcare_confidence":    &p.TaxHealthcareConfidence,
		"policy.tax_bank_fee_confidence":      &p.TaxBankFeeConfidence,
		"policy.tax_non_expense_confidence":   &p.TaxNonExpenseConfidence,
		"policy.tax_default_confidence":       &p.TaxDefaultConfidence,
		"policy.payment_account_confidence":   &p.PaymentAccountConfidence,
		"policy.payment_bank_confidence":      &p.PaymentBankConfidence,
		"policy.payment_flow_confidence":      &p.PaymentFlowConfidence,
		"policy.payment_unknown_confidence":   &p.PaymentUnknownConfidence,
		"policy.resolved_category_confidence": &p.ResolvedCategoryConfidence,
	}
	for key, dst := range overlay {
		if v.IsSet(key) {
			*dst = v.GetFloat64(key)
		}
	}
	return p
}
