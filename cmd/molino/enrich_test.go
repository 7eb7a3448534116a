package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/molino/molino/internal/common"
)

func writeRecords(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "records.jsonl")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestReadRecords(t *testing.T) {
	path := writeRecords(t, `{"date":"2024-03-15","description":"CARGO TARJETA STARBUCKS","amount":-85.5,"contextLines":["AUT 123"],"sourceFile":"bbva-2024-03.pdf"}

{"date":"2024-03-16","description":"SPEI ENVIADO","beneficiaryName":"JUAN PEREZ","amount":-1200,"id":"txn-2"}
`)

	txns, err := readRecords(path)
	require.NoError(t, err)
	require.Len(t, txns, 2, "blank lines are skipped")

	assert.Equal(t, time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC), txns[0].Date)
	assert.Equal(t, "CARGO TARJETA STARBUCKS", txns[0].Description)
	assert.InDelta(t, -85.5, txns[0].Amount, 0.001)
	assert.Equal(t, []string{"AUT 123"}, txns[0].ContextLines)
	assert.Equal(t, "bbva-2024-03.pdf", txns[0].SourceFile)

	assert.Equal(t, "txn-2", txns[1].ID)
	assert.Equal(t, "JUAN PEREZ", txns[1].BeneficiaryName)
}

func TestReadRecords_EmptyFile(t *testing.T) {
	path := writeRecords(t, "")

	_, err := readRecords(path)
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrNoTransactions)

	var userErr *common.UserError
	assert.ErrorAs(t, err, &userErr)
}

func TestReadRecords_InvalidInput(t *testing.T) {
	t.Run("malformed json", func(t *testing.T) {
		path := writeRecords(t, `{"date":"2024-03-15","description":`)
		_, err := readRecords(path)
		assert.Error(t, err)
	})

	t.Run("bad date", func(t *testing.T) {
		path := writeRecords(t, `{"date":"15/03/2024","description":"X","amount":-1}`)
		_, err := readRecords(path)
		assert.Error(t, err)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := readRecords(filepath.Join(t.TempDir(), "absent.jsonl"))
		assert.Error(t, err)
	})
}
