package audit

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

func newMockSink(t *testing.T) (*PGSink, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	return NewPGSink(db), mock, func() { _ = db.Close() }
}

func TestPGAppend(t *testing.T) {
	sink, mock, done := newMockSink(t)
	defer done()

	ts := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	mock.ExpectExec("insert into api_logs").
		WithArgs("log-1", "company-1", "/v1/company/profile", "GET", 200, "10.0.0.7", ts).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := sink.Append(context.Background(), &Entry{
		ID:         "log-1",
		CompanyID:  "company-1",
		Endpoint:   "/v1/company/profile",
		Method:     "GET",
		StatusCode: 200,
		IPAddress:  "10.0.0.7",
		Timestamp:  ts,
	})
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPGAppendNullsEmptyFields(t *testing.T) {
	sink, mock, done := newMockSink(t)
	defer done()

	ts := time.Now()
	mock.ExpectExec("insert into api_logs").
		WithArgs("log-2", nil, "/v1/company/keys", "GET", 401, nil, ts).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := sink.Append(context.Background(), &Entry{
		ID:         "log-2",
		Endpoint:   "/v1/company/keys",
		Method:     "GET",
		StatusCode: 401,
		Timestamp:  ts,
	})
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
}

func TestPGQueryUnfiltered(t *testing.T) {
	sink, mock, done := newMockSink(t)
	defer done()

	ts := time.Now()
	mock.ExpectQuery("select .* from api_logs order by occurred_at desc limit \\$1 offset \\$2").
		WithArgs(50, 0).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "company_id", "endpoint", "method", "status_code", "ip_address", "occurred_at",
		}).AddRow("log-1", "company-1", "/v1/company/profile", "GET", 200, "10.0.0.7", ts).
			AddRow("log-2", nil, "/v1/company/keys", "GET", 401, nil, ts))

	entries, err := sink.Query(context.Background(), Filter{}.Normalize())
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[1].CompanyID != "" || entries[1].IPAddress != "" {
		t.Fatalf("null columns should map to empty strings: %+v", entries[1])
	}
}

func TestPGQueryConjunctiveFilters(t *testing.T) {
	sink, mock, done := newMockSink(t)
	defer done()

	start := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery("select .* from api_logs where company_id = \\$1 and endpoint like \\$2 and method = \\$3 and status_code >= 400 and occurred_at >= \\$4 order by occurred_at desc limit \\$5 offset \\$6").
		WithArgs("company-1", "%/profile%", "GET", start, 20, 40).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "company_id", "endpoint", "method", "status_code", "ip_address", "occurred_at",
		}))

	_, err := sink.Query(context.Background(), Filter{
		CompanyID: "company-1",
		Endpoint:  "/profile",
		Method:    "GET",
		Status:    StatusError,
		StartDate: &start,
		Limit:     20,
		Offset:    40,
	})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPGQuerySuccessClass(t *testing.T) {
	sink, mock, done := newMockSink(t)
	defer done()

	mock.ExpectQuery("status_code between 200 and 299").
		WithArgs(50, 0).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "company_id", "endpoint", "method", "status_code", "ip_address", "occurred_at",
		}))

	if _, err := sink.Query(context.Background(), Filter{Status: StatusSuccess, Limit: 50}); err != nil {
		t.Fatalf("Query: %v", err)
	}
}
