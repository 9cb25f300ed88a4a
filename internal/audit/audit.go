// Package audit records every API-key-authenticated call and exposes a
// filtered query surface over the append-only log.
package audit

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"warden.dev/internal/ids"
	"warden.dev/internal/obs"
)

const (
	// DefaultLimit applies when a query does not specify one.
	DefaultLimit = 50
	maxLimit     = 1000
)

// Entry is one immutable record of an API-key-authenticated call. Entries are
// appended once and never mutated.
type Entry struct {
	ID         string    `json:"id"`
	CompanyID  string    `json:"company_id,omitempty"`
	Endpoint   string    `json:"endpoint"`
	Method     string    `json:"method"`
	StatusCode int       `json:"status_code"`
	IPAddress  string    `json:"ip_address,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

// StatusClass selects entries by response status family.
type StatusClass string

const (
	StatusAll     StatusClass = "all"
	StatusSuccess StatusClass = "success" // 2xx
	StatusError   StatusClass = "error"   // 4xx and 5xx
)

// Filter narrows a query. All supplied fields combine conjunctively.
type Filter struct {
	CompanyID string
	Endpoint  string // substring match
	Method    string // exact match
	Status    StatusClass
	IPAddress string // substring match
	StartDate *time.Time
	EndDate   *time.Time
	Limit     int
	Offset    int
}

// Normalize fills defaults and clamps bounds: limit defaults to DefaultLimit
// and must be at least 1, offset at least 0.
func (f Filter) Normalize() Filter {
	f.Method = strings.ToUpper(strings.TrimSpace(f.Method))
	f.Endpoint = strings.TrimSpace(f.Endpoint)
	f.IPAddress = strings.TrimSpace(f.IPAddress)
	if f.Status == "" {
		f.Status = StatusAll
	}
	if f.Limit < 1 {
		f.Limit = DefaultLimit
	}
	if f.Limit > maxLimit {
		f.Limit = maxLimit
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	return f
}

// Sink is the persistent append-only store behind the logger.
type Sink interface {
	Append(ctx context.Context, entry *Entry) error
	Query(ctx context.Context, filter Filter) ([]Entry, error)
}

// Logger records API-key traffic. Record never fails the caller's request: a
// sink failure is reported to the operational log and dropped-entry counter
// and then swallowed.
type Logger struct {
	sink Sink
	log  *zap.SugaredLogger
	now  func() time.Time
}

// NewLogger constructs the audit logger over a sink.
func NewLogger(sink Sink) *Logger {
	return &Logger{sink: sink, log: obs.Logger(), now: time.Now}
}

// Record appends one entry, filling id and timestamp when absent. It is
// invoked exactly once per API-key-authenticated request, whatever the
// authentication or authorization outcome.
func (l *Logger) Record(ctx context.Context, entry Entry) {
	if entry.ID == "" {
		entry.ID = ids.New()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = l.now().UTC()
	}
	if l.sink == nil {
		return
	}
	if err := l.sink.Append(ctx, &entry); err != nil {
		obs.AuditDropped()
		l.log.Warnw("audit sink unavailable, entry dropped",
			"error", err,
			"endpoint", entry.Endpoint,
			"company_id", entry.CompanyID,
		)
	}
}

// Query returns matching entries ordered by timestamp descending.
func (l *Logger) Query(ctx context.Context, filter Filter) ([]Entry, error) {
	if l.sink == nil {
		return nil, nil
	}
	return l.sink.Query(ctx, filter.Normalize())
}
