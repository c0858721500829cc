package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/warequery/warequery/internal/core/port"
)

// auditLine is the wire form of one audit record, one JSON object per line.
// Error is a pointer so successful queries serialize an explicit null.
type auditLine struct {
	Timestamp    string  `json:"ts"`
	QueryID      string  `json:"query_id"`
	Tool         string  `json:"tool,omitempty"`
	Question     string  `json:"question"`
	SQL          string  `json:"sql,omitempty"`
	RowsReturned int     `json:"rows_returned"`
	DurationMS   int64   `json:"duration_ms"`
	Fallback     string  `json:"fallback,omitempty"`
	Rejected     bool    `json:"rejected,omitempty"`
	Error        *string `json:"error"`
}

// FileAuditor appends NDJSON audit records to a file. Writes are serialized
// under a mutex so concurrent queries never interleave lines.
type FileAuditor struct {
	mu sync.Mutex
	f  *os.File
}

// NewFileAuditor opens path for append-only writing, creating it if needed.
func NewFileAuditor(path string) (*FileAuditor, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("opening audit log: %w", err)
	}
	return &FileAuditor{f: f}, nil
}

// Record writes one line. Audit I/O is best-effort: a failed write must not
// fail the query it describes, so errors are swallowed.
func (a *FileAuditor) Record(_ context.Context, entry port.AuditEntry) {
	line := auditLine{
		Timestamp:    time.Now().UTC().Format(time.RFC3339),
		QueryID:      entry.QueryID,
		Tool:         entry.Tool,
		Question:     entry.Question,
		SQL:          entry.SQL,
		RowsReturned: entry.RowsReturned,
		DurationMS:   entry.DurationMS,
		Fallback:     entry.Fallback,
		Rejected:     entry.Rejected,
	}
	if entry.Err != nil {
		msg := entry.Err.Error()
		line.Error = &msg
	}

	buf, err := json.Marshal(line)
	if err != nil {
		return
	}
	buf = append(buf, '\n')

	a.mu.Lock()
	defer a.mu.Unlock()
	_, _ = a.f.Write(buf)
}

func (a *FileAuditor) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.f.Close()
}

// NoopAuditor discards all audit entries.
type NoopAuditor struct{}

func (NoopAuditor) Record(context.Context, port.AuditEntry) {}
func (NoopAuditor) Close() error                            { return nil }
