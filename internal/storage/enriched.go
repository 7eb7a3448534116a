package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/molino/molino/internal/model"
)

// SaveEnriched appends fully categorized transactions to the fact log.
// Records are immutable once written; re-running a statement is a no-op for
// already-seen hashes.
func (s *SQLiteStorage) SaveEnriched(ctx context.Context, txns []model.Transaction) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if len(txns) == 0 {
		return nil
	}

	return s.withTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT OR IGNORE INTO enriched_transactions (
				id, hash, date, description, beneficiary_name, source_file, amount,
				txn_type, direction, clean_merchant, is_clean, merchant_canonical,
				needs_manual_classification,
				flow_type, account_category, account_subcategory, debit_credit,
				merchant_category, mcc_code, budget_category, budget_subcategory,
				tax_category, business_deductible, personal_deductible,
				payment_method, payment_network, confidence, category_confidence
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`)
		if err != nil {
			return fmt.Errorf("failed to prepare insert: %w", err)
		}
		defer func() { _ = stmt.Close() }()

		for i := range txns {
			t := &txns[i]
			if t.Hash == "" {
				t.Hash = t.GenerateHash()
			}
			id := t.ID
			if id == "" {
				id = t.Hash
			}

			var txnType, direction string
			if t.TypeDetection != nil {
				txnType = string(t.TypeDetection.Type)
				direction = string(t.TypeDetection.Direction)
			}

			var cleanMerchant string
			var isClean bool
			if t.Extraction != nil {
				cleanMerchant = t.Extraction.CleanMerchant
				isClean = t.Extraction.IsClean
			}

			var merchantCanonical string
			if res, ok := t.Resolutions[model.EntityMerchant]; ok && res.Resolved() {
				merchantCanonical = res.Canonical
			}

			dims := t.Dimensions
			if dims == nil {
				dims = &model.Dimensions{}
			}

			if _, err := stmt.ExecContext(ctx,
				id, t.Hash, t.Date, t.Description, t.BeneficiaryName, t.SourceFile, t.Amount,
				txnType, direction, cleanMerchant, isClean, merchantCanonical,
				t.NeedsManualClassification,
				string(dims.FlowType), dims.AccountCategory, dims.AccountSubcategory,
				string(dims.DebitCredit),
				dims.MerchantCategory, dims.MCCCode, dims.BudgetCategory, dims.BudgetSubcategory,
				dims.TaxCategory, dims.BusinessDeductible, dims.PersonalDeductible,
				dims.PaymentMethod, dims.PaymentNetwork, t.Confidence,
				dims.CategoryResolutionConfidence,
			); err != nil {
				return fmt.Errorf("failed to insert enriched transaction %s: %w", id, err)
			}
		}
		return nil
	})
}
