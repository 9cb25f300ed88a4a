package audit

import (
	"context"
	"errors"
	"testing"
	"time"
)

type captureSink struct {
	entries []Entry
	filters []Filter
	err     error
}

func (s *captureSink) Append(_ context.Context, entry *Entry) error {
	if s.err != nil {
		return s.err
	}
	s.entries = append(s.entries, *entry)
	return nil
}

func (s *captureSink) Query(_ context.Context, filter Filter) ([]Entry, error) {
	s.filters = append(s.filters, filter)
	return s.entries, nil
}

func TestRecordFillsIdentityAndTimestamp(t *testing.T) {
	sink := &captureSink{}
	logger := NewLogger(sink)
	fixed := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	logger.now = func() time.Time { return fixed }

	logger.Record(context.Background(), Entry{
		CompanyID:  "company-1",
		Endpoint:   "/v1/company/profile",
		Method:     "GET",
		StatusCode: 200,
		IPAddress:  "10.0.0.7",
	})

	if len(sink.entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(sink.entries))
	}
	got := sink.entries[0]
	if got.ID == "" {
		t.Fatal("entry id not assigned")
	}
	if !got.Timestamp.Equal(fixed) {
		t.Fatalf("timestamp = %v, want %v", got.Timestamp, fixed)
	}
	if got.CompanyID != "company-1" || got.StatusCode != 200 {
		t.Fatalf("unexpected entry: %+v", got)
	}
}

func TestRecordSwallowsSinkFailure(t *testing.T) {
	sink := &captureSink{err: errors.New("connection refused")}
	logger := NewLogger(sink)

	// Must not panic and must not surface the error to the caller.
	logger.Record(context.Background(), Entry{Endpoint: "/v1/company/keys", Method: "GET"})

	if len(sink.entries) != 0 {
		t.Fatalf("expected no stored entries, got %d", len(sink.entries))
	}
}

func TestRecordWithoutSink(t *testing.T) {
	logger := NewLogger(nil)
	logger.Record(context.Background(), Entry{Endpoint: "/v1/company/profile"})
}

func TestQueryNormalizesFilter(t *testing.T) {
	sink := &captureSink{}
	logger := NewLogger(sink)

	if _, err := logger.Query(context.Background(), Filter{Method: " get ", Offset: -3}); err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(sink.filters) != 1 {
		t.Fatalf("expected 1 sink query, got %d", len(sink.filters))
	}
	got := sink.filters[0]
	if got.Method != "GET" {
		t.Fatalf("method = %q, want GET", got.Method)
	}
	if got.Limit != DefaultLimit {
		t.Fatalf("limit = %d, want %d", got.Limit, DefaultLimit)
	}
	if got.Offset != 0 {
		t.Fatalf("offset = %d, want 0", got.Offset)
	}
	if got.Status != StatusAll {
		t.Fatalf("status = %q, want %q", got.Status, StatusAll)
	}
}

func TestFilterNormalizeBounds(t *testing.T) {
	tests := []struct {
		name string
		in   Filter
		want Filter
	}{
		{
			name: "zero value gets defaults",
			in:   Filter{},
			want: Filter{Status: StatusAll, Limit: DefaultLimit},
		},
		{
			name: "oversized limit clamps",
			in:   Filter{Limit: 5000, Status: StatusError},
			want: Filter{Status: StatusError, Limit: 1000},
		},
		{
			name: "fields are trimmed",
			in:   Filter{Endpoint: " /v1/company ", IPAddress: " 10.0.0.1 ", Limit: 10},
			want: Filter{Endpoint: "/v1/company", IPAddress: "10.0.0.1", Status: StatusAll, Limit: 10},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.in.Normalize(); got != tc.want {
				t.Fatalf("Normalize() = %+v, want %+v", got, tc.want)
			}
		})
	}
}
