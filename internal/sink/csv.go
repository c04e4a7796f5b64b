package sink

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/nao1215/netscout/internal/model"
)

// csvHeader is the fixed column order. Detail is omitted: free-form
// key/value pairs do not fit a rectangular format.
var csvHeader = []string{
	"run_id", "address", "hostname", "port", "transport", "state",
	"reason", "protocol", "banner", "confidence", "attempts",
	"first_seen_ms", "last_seen_ms", "failed",
}

// CSV writes records as comma-separated rows with a header line.
type CSV struct {
	w           *csv.Writer
	wroteHeader bool
}

// NewCSV creates a CSV sink writing to w.
func NewCSV(w io.Writer) *CSV {
	return &CSV{w: csv.NewWriter(w)}
}

// Write implements the engine's Sink. The header is written lazily so
// an empty run produces an empty file rather than a lone header.
func (s *CSV) Write(_ context.Context, record model.ResultRecord) error {
	if !s.wroteHeader {
		if err := s.w.Write(csvHeader); err != nil {
			return fmt.Errorf("sink: write csv header: %w", err)
		}
		s.wroteHeader = true
	}

	row := []string{
		record.RunID,
		record.Address,
		record.Hostname,
		strconv.Itoa(int(record.Port)),
		string(record.Transport),
		string(record.State),
		record.Reason,
		record.Protocol,
		record.Banner,
		strconv.FormatFloat(record.Confidence, 'f', 2, 64),
		strconv.Itoa(record.Attempts),
		strconv.FormatInt(record.FirstSeenMS, 10),
		strconv.FormatInt(record.LastSeenMS, 10),
		strconv.FormatBool(record.Failed),
	}
	if err := s.w.Write(row); err != nil {
		return fmt.Errorf("sink: write csv row: %w", err)
	}
	return nil
}

// Flush implements the engine's Sink.
func (s *CSV) Flush(context.Context) error {
	s.w.Flush()
	if err := s.w.Error(); err != nil {
		return fmt.Errorf("sink: flush csv: %w", err)
	}
	return nil
}
