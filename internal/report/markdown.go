package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/nao1215/markdown"

	"github.com/nao1215/netscout/internal/model"
)

// MarkdownWriter renders a run as Markdown for documentation and
// sharing.
//
// Design decision: We use the nao1215/markdown library for fluent
// markdown generation which provides:
//  1. Type-safe markdown generation
//  2. Support for tables, lists, and code blocks
//  3. GitHub-flavored markdown alerts
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given
// writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{baseWriter: newBaseWriter(output)}
}

// Write implements Writer.
func (w *MarkdownWriter) Write(summary *model.RunSummary, records []model.ResultRecord) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, summary)
	w.writeResults(md, records)
	w.writeFooter(md)

	if err := md.Build(); err != nil {
		return 0, fmt.Errorf("report: build markdown: %w", err)
	}
	return len(md.String()), nil
}

// writeHeader writes the run summary table.
func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, summary *model.RunSummary) {
	md.H1("Scan Report")
	md.PlainText("")

	status := "✅ Complete"
	if summary.Cancelled {
		status = "⚠️ Cancelled (partial results)"
	}

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Run ID", "`" + summary.RunID + "`"},
			{"Started", summary.StartedAt.Format("2006-01-02 15:04:05 MST")},
			{"Duration", fmt.Sprintf("%.1fs", summary.Duration(time.Now()).Seconds())},
			{"Hosts", strconv.Itoa(summary.HostCount)},
			{"Probes", strconv.Itoa(summary.ProbeCount)},
			{"Attempts", strconv.Itoa(summary.AttemptCount)},
			{"Errors", strconv.Itoa(summary.ErrorCount)},
			{"Achieved QPS", fmt.Sprintf("%.1f", summary.AchievedQPS)},
			{"Status", status},
		},
	})
	md.PlainText("")

	if summary.ErrorCount > 0 {
		md.Warningf("%d probe(s) ended in a permanent failure; see the sink output for reasons.", summary.ErrorCount)
		md.PlainText("")
	}
}

// writeResults writes the open-port table.
func (w *MarkdownWriter) writeResults(md *markdown.Markdown, records []model.ResultRecord) {
	md.H2("Open Ports")
	md.PlainText("")

	open := openRecords(records)
	if len(open) == 0 {
		md.PlainText("No open ports found.")
		md.PlainText("")
		return
	}

	rows := make([][]string, len(open))
	for i, r := range open {
		banner := r.Banner
		if banner == "" {
			banner = "-"
		}
		protocol := r.Protocol
		if protocol == "" {
			protocol = "-"
		}
		// The pipe in open|filtered would split the table cell.
		state := strings.ReplaceAll(string(r.State), "|", "\\|")
		rows[i] = []string{
			r.Address,
			fmt.Sprintf("%d/%s", r.Port, r.Transport),
			state,
			protocol,
			truncate(banner, 60),
		}
	}
	md.Table(markdown.TableSet{
		Header: []string{"Host", "Port", "State", "Protocol", "Banner"},
		Rows:   rows,
	})
	md.PlainText("")
}

// writeFooter writes the report footer.
func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainText("*Report generated by netscout*")
}
