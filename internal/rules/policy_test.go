package rules

import (
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
)

func TestPolicyFromViper(t *testing.T) {
	t.Run("defaults when nothing set", func(t *testing.T) {
		p := PolicyFromViper(viper.New())
		assert.Equal(t, DefaultPolicy(), p)
	})

	t.Run("overrides apply", func(t *testing.T) {
		v := viper.New()
		v.Set("policy.pending_penalty", 0.50)
		v.Set("policy.tier_substring", 0.65)

		p := PolicyFromViper(v)
		assert.InDelta(t, 0.50, p.PendingPenalty, 0.001)
		assert.InDelta(t, 0.65, p.TierSubstring, 0.001)

		// Untouched constants keep their defaults.
		assert.InDelta(t, 0.30, p.UnknownTypeConfidence, 0.001)
		assert.InDelta(t, 1.0, p.TierCanonical, 0.001)
	})

	t.Run("every constant is bindable", func(t *testing.T) {
		keys := []string{
			"policy.unknown_type_confidence",
			"policy.pending_penalty",
			"policy.dirty_extraction_confidence",
			"policy.tier_canonical",
			"policy.tier_variation",
			"policy.tier_substring",
			"policy.unknown_category_confidence",
			"policy.mcc_category_confidence",
			"policy.tax_income_confidence",
			"policy.tax_merchant_hint_confidence",
			"policy.tax_healthcare_confidence",
			"policy.tax_bank_fee_confidence",
			"policy.tax_non_expense_confidence",
			"policy.tax_default_confidence",
			"policy.payment_account_confidence",
			"policy.payment_bank_confidence",
			"policy.payment_flow_confidence",
			"policy.payment_unknown_confidence",
			"policy.resolved_category_confidence",
		}

		v := viper.New()
		for _, key := range keys {
			v.Set(key, 0.42)
		}

		p := PolicyFromViper(v)
		for _, got := range []float64{
			p.UnknownTypeConfidence, p.PendingPenalty, p.DirtyExtractionConfidence,
			p.TierCanonical, p.TierVariation, p.TierSubstring,
			p.UnknownCategoryConfidence, p.MCCCategoryConfidence,
			p.TaxIncomeConfidence, p.TaxMerchantHintConfidence,
			p.TaxHealthcareConfidence, p.TaxBankFeeConfidence,
			p.TaxNonExpenseConfidence, p.TaxDefaultConfidence,
			p.PaymentAccountConfidence, p.PaymentBankConfidence,
			p.PaymentFlowConfidence, p.PaymentUnknownConfidence,
			p.ResolvedCategoryConfidence,
		} {
			assert.InDelta(t, 0.42, got, 0.001)
		}
	})
}
