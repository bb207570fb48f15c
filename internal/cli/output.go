// Package cli provides terminal output and the interactive prompt for synopsis.
package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/hyperjump/synopsis/internal/models"
	"github.com/hyperjump/synopsis/pkg/utils"
)

// OutputFormat is the format for summary output.
type OutputFormat string

const (
	// OutputText is human-readable text with a header (default).
	OutputText OutputFormat = "text"
	// OutputCompact is the summary text alone.
	OutputCompact OutputFormat = "compact"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

// ParseOutputFormat returns the format named s. Empty means text.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch OutputFormat(s) {
	case "", OutputText:
		return OutputText, nil
	case OutputCompact, OutputJSON:
		return OutputFormat(s), nil
	}
	return "", fmt.Errorf("unknown output format %q (want text, compact or json)", s)
}

// WriteSummary writes summary to w in the given format.
func WriteSummary(w io.Writer, summary *models.Summary, format OutputFormat) error {
	switch format {
	case OutputJSON:
		return writeJSON(w, summary)
	case OutputCompact:
		_, err := fmt.Fprintln(w, summary.Text)
		return err
	default:
		writeSummaryText(w, summary)
		return nil
	}
}

func writeSummaryText(w io.Writer, summary *models.Summary) {
	source := summary.Source
	if source == "" {
		source = "input"
	}
	fmt.Fprintf(w, "\nSummary of %s: %d of %d sentences (ratio %.2f)\n",
		source, len(summary.Sentences), summary.SentenceCount, summary.Ratio)
	if summary.ID != "" {
		fmt.Fprintf(w, "ID: %s\n", summary.ID)
	}
	fmt.Fprintln(w, "─────────────────────────────────────────────────────────")
	fmt.Fprintf(w, "%s\n\n", summary.Text)
}

// WriteSummaryList writes a page of stored summaries to w.
func WriteSummaryList(w io.Writer, list *models.SummaryList, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, list)
	}
	if len(list.Summaries) == 0 {
		fmt.Fprintln(w, "No summaries stored.")
		return nil
	}
	for _, s := range list.Summaries {
		if format == OutputCompact {
			fmt.Fprintln(w, s.ID)
			continue
		}
		fmt.Fprintf(w, "%s  %s  %-30s  %s\n",
			s.ID, s.CreatedAt.Local().Format("2006-01-02 15:04"), utils.Truncate(s.Source, 30), utils.Truncate(s.Text, 60))
	}
	if format != OutputCompact {
		fmt.Fprintf(w, "\nShowing %d of %d (offset %d)\n", len(list.Summaries), list.Total, list.Offset)
	}
	return nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
