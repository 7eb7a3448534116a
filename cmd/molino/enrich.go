package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/molino/molino/internal/cli"
	"github.com/molino/molino/internal/common"
	"github.com/molino/molino/internal/model"
	"github.com/molino/molino/internal/pipeline"
	"github.com/molino/molino/internal/rules"
)

// inputRecord is the upstream statement parser's output: one JSON object per
// line.
type inputRecord struct {
	Date            string   `json:"date"`
	Description     string   `json:"description"`
	ContextLines    []string `json:"contextLines"`
	BeneficiaryName string   `json:"beneficiaryName,omitempty"`
	SourceFile      string   `json:"sourceFile,omitempty"`
	ID              string   `json:"id,omitempty"`
	Amount          float64  `json:"amount"`
}

func enrichCmd() *cobra.Command {
	var noProgress bool

	cmd := &cobra.Command{
		Use:   "enrich <records.jsonl>",
		Short: "Run extracted transactions through the enrichment pipeline",
		Long: `Read extracted transaction records (one JSON object per line), run them
through all five enrichment stages, and persist the categorized results.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			txns, err := readRecords(args[0])
			if err != nil {
				return err
			}

			store, err := openStorage()
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			if err := store.Migrate(ctx); err != nil {
				return fmt.Errorf("failed to migrate database: %w", err)
			}

			set, err := loadRules()
			if err != nil {
				return err
			}

			p, err := pipeline.New(store, set, rules.PolicyFromViper(viper.GetViper()))
			if err != nil {
				return err
			}

			_, stats, err := p.EnrichAll(ctx, txns, !noProgress)
			if err != nil {
				return err
			}

			fmt.Println(cli.FormatEnrichSummary(stats))
			return nil
		},
	}

	cmd.Flags().BoolVar(&noProgress, "no-progress", false, "disable the progress bar")
	return cmd
}

// readRecords parses a JSON-lines file of extracted transactions.
func readRecords(path string) ([]model.Transaction, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	var txns []model.Transaction
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	line := 0
	for scanner.Scan() {
		line++
		raw := scanner.Bytes()
		if len(raw) == 0 {
			continue
		}

		var rec inputRecord
		if err := json.Unmarshal(raw, &rec); err != nil {
			return nil, fmt.Errorf("%s:%d: invalid record: %w", path, line, err)
		}

		date, err := time.Parse("2006-01-02", rec.Date)
		if err != nil {
			return nil, fmt.Errorf("%s:%d: invalid date %q: %w", path, line, rec.Date, err)
		}

		txns = append(txns, model.Transaction{
			ID:              rec.ID,
			Date:            date,
			Description:     rec.Description,
			ContextLines:    rec.ContextLines,
			BeneficiaryName: rec.BeneficiaryName,
			SourceFile:      rec.SourceFile,
			Amount:          rec.Amount,
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	if len(txns) == 0 {
		return nil, common.NewUserError(
			fmt.Sprintf("no transaction records in %s", path), common.ErrNoTransactions)
	}

	return txns, nil
}
