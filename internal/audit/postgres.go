package audit

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

var _ Sink = (*PGSink)(nil)

// PGSink persists audit entries in PostgreSQL.
type PGSink struct {
	db *sql.DB
}

func NewPGSink(db *sql.DB) *PGSink {
	return &PGSink{db: db}
}

func (s *PGSink) Append(ctx context.Context, entry *Entry) error {
	_, err := s.db.ExecContext(ctx, `
		insert into api_logs (id, company_id, endpoint, method, status_code, ip_address, occurred_at)
		values ($1, $2, $3, $4, $5, $6, $7)
	`, entry.ID, nullable(entry.CompanyID), entry.Endpoint, entry.Method,
		entry.StatusCode, nullable(entry.IPAddress), entry.Timestamp)
	return err
}

// Query builds a conjunctive WHERE clause from the supplied filter fields and
// returns entries newest-first.
func (s *PGSink) Query(ctx context.Context, filter Filter) ([]Entry, error) {
	var (
		where []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.CompanyID != "" {
		where = append(where, "company_id = "+arg(filter.CompanyID))
	}
	if filter.Endpoint != "" {
		where = append(where, "endpoint like "+arg("%"+filter.Endpoint+"%"))
	}
	if filter.Method != "" {
		where = append(where, "method = "+arg(filter.Method))
	}
	switch filter.Status {
	case StatusSuccess:
		where = append(where, "status_code between 200 and 299")
	case StatusError:
		where = append(where, "status_code >= 400")
	}
	if filter.IPAddress != "" {
		where = append(where, "ip_address like "+arg("%"+filter.IPAddress+"%"))
	}
	if filter.StartDate != nil {
		where = append(where, "occurred_at >= "+arg(*filter.StartDate))
	}
	if filter.EndDate != nil {
		where = append(where, "occurred_at <= "+arg(*filter.EndDate))
	}

	query := `select id, company_id, endpoint, method, status_code, ip_address, occurred_at from api_logs`
	if len(where) > 0 {
		query += " where " + strings.Join(where, " and ")
	}
	query += " order by occurred_at desc limit " + arg(filter.Limit) + " offset " + arg(filter.Offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e         Entry
			companyID sql.NullString
			ip        sql.NullString
		)
		if err := rows.Scan(&e.ID, &companyID, &e.Endpoint, &e.Method, &e.StatusCode, &ip, &e.Timestamp); err != nil {
			return nil, err
		}
		e.CompanyID = companyID.String
		e.IPAddress = ip.String
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
