package report

import (
	"io"

	"github.com/nao1215/netscout/internal/model"
)

// Writer renders a finalized run. Implementations write in different
// formats to the destination they were constructed with.
//
// Design decision: We use an interface rather than format flags on one
// writer because writing to terminal and file simultaneously (see
// MultiWriter) composes naturally over an interface.
type Writer interface {
	// Write renders the summary and its result records.
	// Returns the number of bytes written and any error encountered.
	Write(summary *model.RunSummary, records []model.ResultRecord) (int, error)
}

// MultiWriter renders a run through several Writers, e.g. text to the
// terminal and markdown to a file.
type MultiWriter struct {
	writers []Writer
}

// NewMultiWriter creates a Writer that writes to all provided Writers.
func NewMultiWriter(writers ...Writer) *MultiWriter {
	return &MultiWriter{writers: writers}
}

// Write renders the run through every writer, stopping on the first
// error. Returns the total bytes written.
func (m *MultiWriter) Write(summary *model.RunSummary, records []model.ResultRecord) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.Write(summary, records)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// baseWriter provides the output destination shared by writers.
type baseWriter struct {
	output io.Writer
}

func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}

// openRecords filters records down to open and open|filtered ports,
// the rows worth showing in a report body.
func openRecords(records []model.ResultRecord) []model.ResultRecord {
	var open []model.ResultRecord
	for _, r := range records {
		if r.State == model.StateOpen || r.State == model.StateOpenFiltered {
			open = append(open, r)
		}
	}
	return open
}

// truncate shortens a string to maxLen characters with an ellipsis.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
