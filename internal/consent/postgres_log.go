package consent

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const consentTable = "consent_records"

var psq = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

var consentColumns = []string{"recorded_at", "name", "email", "marketing_consent", "requested_time"}

type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// PostgresLog stores records in the consent_records table (see migrations).
type PostgresLog struct {
	db querier
}

func NewPostgresLog(pool *pgxpool.Pool) *PostgresLog {
	if pool == nil {
		panic("consent: pgx pool required")
	}
	return &PostgresLog{db: pool}
}

func newPostgresLogWithQuerier(db querier) *PostgresLog {
	if db == nil {
		panic("consent: querier required")
	}
	return &PostgresLog{db: db}
}

func (l *PostgresLog) Append(ctx context.Context, rec Record) error {
	query, args, err := psq.Insert(consentTable).
		Columns(consentColumns...).
		Values(rec.Timestamp, rec.Name, rec.Email, rec.MarketingConsent, rec.RequestedTime).
		ToSql()
	if err != nil {
		return fmt.Errorf("consent: build insert: %w", err)
	}
	if _, err := l.db.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("consent: insert record: %w", err)
	}
	return nil
}

func (l *PostgresLog) List(ctx context.Context) ([]Record, error) {
	query, args, err := psq.Select(consentColumns...).
		From(consentTable).
		OrderBy("recorded_at DESC", "id DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("consent: build select: %w", err)
	}
	rows, err := l.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("consent: list records: %w", err)
	}
	defer rows.Close()

	records := []Record{}
	for rows.Next() {
		var rec Record
		if err := rows.Scan(&rec.Timestamp, &rec.Name, &rec.Email, &rec.MarketingConsent, &rec.RequestedTime); err != nil {
			return nil, fmt.Errorf("consent: scan record: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("consent: iterate records: %w", err)
	}
	return records, nil
}
