package sink

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/nao1215/netscout/internal/model"
)

// JSONL streams one JSON object per line. The format is append-only and
// survives a crashed run up to the last flushed line, which makes it
// the default sink for piping into jq or other tooling.
type JSONL struct {
	w   *bufio.Writer
	enc *json.Encoder
}

// NewJSONL creates a JSONL sink writing to w.
func NewJSONL(w io.Writer) *JSONL {
	bw := bufio.NewWriter(w)
	return &JSONL{
		w:   bw,
		enc: json.NewEncoder(bw),
	}
}

// Write implements the engine's Sink.
func (s *JSONL) Write(_ context.Context, record model.ResultRecord) error {
	if err := s.enc.Encode(record); err != nil {
		return fmt.Errorf("sink: encode record: %w", err)
	}
	return nil
}

// Flush implements the engine's Sink.
func (s *JSONL) Flush(context.Context) error {
	if err := s.w.Flush(); err != nil {
		return fmt.Errorf("sink: flush jsonl: %w", err)
	}
	return nil
}
