// internal/appointments/postgres.go
package appointments

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"
	"strings"

	"hms-analytics/internal/common/database"
	"hms-analytics/internal/common/errors"
	"hms-analytics/internal/models"

	"github.com/lib/pq"
)

// PostgresSource reads appointments from a table whose columns use the Field names of
// Columns. Every column is read as text and cleaned like a CSV cell.
type PostgresSource struct {
	client *database.PostgresClient
	table  string
	query  string
}

func NewPostgresSource(client *database.PostgresClient, table string) *PostgresSource {
	return &PostgresSource{
		client: client,
		table:  table,
		query:  buildSelect(table),
	}
}

func (s *PostgresSource) Name() string { return "postgres" }

func quoteTable(table string) string {
	parts := strings.Split(table, ".")
	for i, p := range parts {
		parts[i] = pq.QuoteIdentifier(p)
	}
	return strings.Join(parts, ".")
}

func buildSelect(table string) string {
	cols := make([]string, len(Columns))
	for i, c := range Columns {
		cols[i] = pq.QuoteIdentifier(c.Field) + "::text"
	}
	return fmt.Sprintf("SELECT %s FROM %s", strings.Join(cols, ", "), quoteTable(table))
}

func (s *PostgresSource) Fetch(ctx context.Context) ([]models.Appointment, error) {
	rows, err := s.client.Query(ctx, s.query)
	if err != nil {
		if stderrors.Is(err, context.DeadlineExceeded) {
			return nil, errors.NewQueryTimeoutError(s.table)
		}
		return nil, errors.NewQueryExecutionFailedError(s.table, err)
	}
	defer rows.Close()

	var raw []RawRecord
	for rows.Next() {
		vals := make([]sql.NullString, len(Columns))
		dest := make([]interface{}, len(Columns))
		for i := range vals {
			dest[i] = &vals[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, errors.NewQueryExecutionFailedError(s.table, fmt.Errorf("scan: %w", err))
		}
		rec := make(RawRecord, len(Columns))
		for i, c := range Columns {
			if vals[i].Valid {
				rec[c.Header] = vals[i].String
			}
		}
		raw = append(raw, rec)
	}
	if err := rows.Err(); err != nil {
		if stderrors.Is(err, context.DeadlineExceeded) {
			return nil, errors.NewQueryTimeoutError(s.table)
		}
		return nil, errors.NewQueryExecutionFailedError(s.table, err)
	}

	return Clean(raw), nil
}
