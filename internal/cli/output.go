package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/molino/molino/internal/model"
	"github.com/molino/molino/internal/pipeline"
)

// FormatEnrichSummary renders the closing summary of an enrichment run.
func FormatEnrichSummary(stats *pipeline.Stats) string {
	var b strings.Builder

	b.WriteString(TitleStyle.Render("Enrichment complete"))
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("  %s %d transactions in %s\n",
		SubtleStyle.Render("Processed"), stats.Total, stats.Duration.Round(time.Millisecond)))
	b.WriteString(SuccessStyle.Render(fmt.Sprintf("  ✓ %d merchants resolved\n", stats.MerchantsFound)))
	if stats.Pending > 0 {
		b.WriteString(WarningStyle.Render(fmt.Sprintf("  ? %d queued for manual classification\n", stats.Pending)))
	}
	if stats.Skipped > 0 {
		b.WriteString(SubtleStyle.Render(fmt.Sprintf("  - %d without merchant extraction\n", stats.Skipped)))
	}

	return b.String()
}

// FormatPendingTable renders the pending classification queue.
func FormatPendingTable(items []model.PendingClassification) string {
	if len(items) == 0 {
		return SubtleStyle.Render("No pending classifications.")
	}

	var b strings.Builder
	b.WriteString(HeaderStyle.Render(fmt.Sprintf("%-6s %-40s %-12s", "ID", "Merchant text", "Since")))
	b.WriteString("\n")

	for _, item := range items {
		text := item.OriginalText
		if len(text) > 40 {
			text = text[:37] + "..."
		}
		b.WriteString(fmt.Sprintf("%-6d %-40s %-12s\n",
			item.ID, text, item.CreatedAt.Format("2006-01-02")))
	}

	b.WriteString(SubtleStyle.Render(fmt.Sprintf("%d pending", len(items))))
	return b.String()
}
