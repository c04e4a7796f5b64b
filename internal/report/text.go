package report

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/nao1215/netscout/internal/model"
)

// TextWriter renders a run as aligned plain text for terminals.
type TextWriter struct {
	baseWriter
}

// NewTextWriter creates a TextWriter that outputs to the given writer.
func NewTextWriter(output io.Writer) *TextWriter {
	return &TextWriter{baseWriter: newBaseWriter(output)}
}

// Write implements Writer.
func (w *TextWriter) Write(summary *model.RunSummary, records []model.ResultRecord) (int, error) {
	var b strings.Builder

	fmt.Fprintf(&b, "run %s\n", summary.RunID)
	fmt.Fprintf(&b, "started:  %s\n", summary.StartedAt.Format(time.RFC3339))
	if !summary.FinishedAt.IsZero() {
		fmt.Fprintf(&b, "finished: %s (%.1fs)\n",
			summary.FinishedAt.Format(time.RFC3339),
			summary.Duration(summary.FinishedAt).Seconds())
	}
	fmt.Fprintf(&b, "hosts: %d  probes: %d  attempts: %d  errors: %d  qps: %.1f\n",
		summary.HostCount, summary.ProbeCount, summary.AttemptCount,
		summary.ErrorCount, summary.AchievedQPS)
	if summary.Cancelled {
		b.WriteString("note: run was cancelled before the task stream finished\n")
	}
	b.WriteString("\n")

	open := openRecords(records)
	if len(open) == 0 {
		b.WriteString("no open ports found\n")
	} else {
		tw := tabwriter.NewWriter(&b, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "HOST\tPORT\tSTATE\tPROTOCOL\tBANNER")
		for _, r := range open {
			host := r.Address
			if r.Hostname != "" {
				host = fmt.Sprintf("%s (%s)", r.Hostname, r.Address)
			}
			fmt.Fprintf(tw, "%s\t%d/%s\t%s\t%s\t%s\n",
				host, r.Port, r.Transport, r.State, r.Protocol,
				truncate(r.Banner, 60))
		}
		if err := tw.Flush(); err != nil {
			return 0, fmt.Errorf("report: render text table: %w", err)
		}
	}

	n, err := io.WriteString(w.output, b.String())
	if err != nil {
		return n, fmt.Errorf("report: write text report: %w", err)
	}
	return n, nil
}
