package store

import (
	"context"
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"bakehouse/internal/domain"
)

const (
	historyTable = "compressed_order_history"
	stagingTable = "compressed_order_history_staging"
)

// columnByField maps record field names (the sync key vocabulary) to
// table columns. Key fields are validated against this map, so no caller
// input ever reaches the SQL text unchecked.
var columnByField = map[string]string{
	"ID":              "id",
	"Email":           "email",
	"DeliveryDate":    "delivery_date",
	"Lineitems":       "lineitems",
	"BillingAddress":  "billing_address",
	"ShippingAddress": "shipping_address",
	"Total":           "total",
	"DeliveryNotes":   "delivery_notes",
}

var historyColumns = []string{
	"id", "email", "delivery_date", "lineitems",
	"billing_address", "shipping_address", "total", "delivery_notes",
}

type postgresHistory struct {
	pool   *pgxpool.Pool
	logger *log.Logger
}

// NewPostgres returns a History backed by the local Postgres table.
func NewPostgres(pool *pgxpool.Pool, logger *log.Logger) History {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &postgresHistory{pool: pool, logger: logger}
}

func (s *postgresHistory) MaxDeliveryDate(ctx context.Context) (time.Time, bool, error) {
	const q = `SELECT MAX(delivery_date) FROM compressed_order_history`

	var max *time.Time
	if err := s.pool.QueryRow(ctx, q).Scan(&max); err != nil {
		s.logger.Printf("store: max delivery date error=%v", err)
		return time.Time{}, false, err
	}
	if max == nil {
		return time.Time{}, false, nil
	}
	return *max, true, nil
}

func (s *postgresHistory) MostRecentByEmail(ctx context.Context, deliveryDate time.Time, lookbackDays int) (map[string]domain.CompressedOrder, error) {
	const q = `
SELECT DISTINCT ON (email) id, email, delivery_date, lineitems
FROM compressed_order_history
WHERE delivery_date < $1 AND delivery_date >= $2
ORDER BY email, delivery_date DESC
`
	cutoff := deliveryDate.AddDate(0, 0, -lookbackDays)
	rows, err := s.pool.Query(ctx, q, deliveryDate, cutoff)
	if err != nil {
		s.logger.Printf("store: most recent by email error=%v", err)
		return nil, err
	}
	defer rows.Close()

	result := make(map[string]domain.CompressedOrder)
	for rows.Next() {
		var rec domain.CompressedOrder
		if err := rows.Scan(&rec.ID, &rec.Email, &rec.DeliveryDate, &rec.Lineitems); err != nil {
			return nil, err
		}
		result[rec.Email] = rec
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	s.logger.Printf("store: most recent by email date=%s lookback=%dd count=%d",
		deliveryDate.Format("2006-01-02"), lookbackDays, len(result))
	return result, nil
}

func (s *postgresHistory) SelectByDeliveryDate(ctx context.Context, start, end time.Time) ([]domain.CompressedOrder, error) {
	const q = `
SELECT id, email, delivery_date, lineitems, billing_address, shipping_address, total, delivery_notes
FROM compressed_order_history
WHERE delivery_date >= $1 AND delivery_date < $2
ORDER BY id
`
	rows, err := s.pool.Query(ctx, q, start, end)
	if err != nil {
		s.logger.Printf("store: select by delivery date error=%v", err)
		return nil, err
	}
	defer rows.Close()

	return scanRecords(rows)
}

func (s *postgresHistory) GetByIDs(ctx context.Context, ids []int) ([]domain.CompressedOrder, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	const q = `
SELECT id, email, delivery_date, lineitems, billing_address, shipping_address, total, delivery_notes
FROM compressed_order_history
WHERE id = ANY($1)
ORDER BY id
`
	rows, err := s.pool.Query(ctx, q, ids)
	if err != nil {
		s.logger.Printf("store: get by ids error=%v", err)
		return nil, err
	}
	defer rows.Close()

	return scanRecords(rows)
}

func scanRecords(rows pgx.Rows) ([]domain.CompressedOrder, error) {
	var result []domain.CompressedOrder
	for rows.Next() {
		var rec domain.CompressedOrder
		if err := rows.Scan(&rec.ID, &rec.Email, &rec.DeliveryDate, &rec.Lineitems,
			&rec.BillingAddress, &rec.ShippingAddress, &rec.Total, &rec.DeliveryNotes); err != nil {
			return nil, err
		}
		result = append(result, rec)
	}
	return result, rows.Err()
}

// Sync merges records into the history table through an ephemeral
// staging table. Everything runs in one transaction: the staging table
// is ON COMMIT DROP, so both the success and the failure path discard
// it, and a failed call leaves the destination untouched.
func (s *postgresHistory) Sync(ctx context.Context, records []domain.CompressedOrder, key []string) error {
	keyCols, err := keyColumns(key)
	if err != nil {
		return err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin sync: %w", err)
	}
	defer tx.Rollback(ctx)

	createStaging := fmt.Sprintf(
		`CREATE TEMP TABLE %s (LIKE %s INCLUDING DEFAULTS) ON COMMIT DROP`,
		stagingTable, historyTable,
	)
	if _, err := tx.Exec(ctx, createStaging); err != nil {
		s.logger.Printf("store: create staging error=%v", err)
		return fmt.Errorf("create staging table: %w", err)
	}

	copied, err := tx.CopyFrom(ctx,
		pgx.Identifier{stagingTable},
		historyColumns,
		pgx.CopyFromSlice(len(records), func(i int) ([]any, error) {
			r := records[i]
			return []any{
				r.ID, r.Email, r.DeliveryDate, r.Lineitems,
				r.BillingAddress, r.ShippingAddress, r.Total, r.DeliveryNotes,
			}, nil
		}),
	)
	if err != nil {
		s.logger.Printf("store: stage records error=%v", err)
		return fmt.Errorf("stage records: %w", err)
	}

	var updated, inserted int64

	if set := updateAssignments(keyCols); set != "" {
		updateSQL := fmt.Sprintf(
			`UPDATE %s AS dst SET %s FROM %s AS stg WHERE %s`,
			historyTable, set, stagingTable, keyJoin("dst", "stg", keyCols),
		)
		tag, err := tx.Exec(ctx, updateSQL)
		if err != nil {
			s.logger.Printf("store: sync update error=%v", err)
			return fmt.Errorf("replace existing rows: %w", err)
		}
		updated = tag.RowsAffected()
	}

	insertSQL := fmt.Sprintf(
		`INSERT INTO %s (%s)
SELECT %s FROM %s AS stg
WHERE NOT EXISTS (SELECT 1 FROM %s AS dst WHERE %s)`,
		historyTable, strings.Join(historyColumns, ", "),
		qualified("stg", historyColumns), stagingTable,
		historyTable, keyJoin("dst", "stg", keyCols),
	)
	tag, err := tx.Exec(ctx, insertSQL)
	if err != nil {
		s.logger.Printf("store: sync insert error=%v", err)
		return fmt.Errorf("insert new rows: %w", err)
	}
	inserted = tag.RowsAffected()

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit sync: %w", err)
	}

	s.logger.Printf("store: sync staged=%d updated=%d inserted=%d", copied, updated, inserted)
	return nil
}

func keyColumns(key []string) (map[string]bool, error) {
	if len(key) == 0 {
		return nil, fmt.Errorf("sync requires at least one key field")
	}
	cols := make(map[string]bool, len(key))
	for _, field := range key {
		col, ok := columnByField[field]
		if !ok {
			return nil, fmt.Errorf("unknown sync key field %q", field)
		}
		cols[col] = true
	}
	return cols, nil
}

func updateAssignments(keyCols map[string]bool) string {
	var parts []string
	for _, col := range historyColumns {
		if keyCols[col] {
			continue
		}
		parts = append(parts, fmt.Sprintf("%s = stg.%s", col, col))
	}
	return strings.Join(parts, ", ")
}

func keyJoin(left, right string, keyCols map[string]bool) string {
	var parts []string
	for _, col := range historyColumns {
		if keyCols[col] {
			parts = append(parts, fmt.Sprintf("%s.%s = %s.%s", left, col, right, col))
		}
	}
	return strings.Join(parts, " AND ")
}

func qualified(alias string, cols []string) string {
	parts := make([]string, len(cols))
	for i, col := range cols {
		parts[i] = alias + "." + col
	}
	return strings.Join(parts, ", ")
}
