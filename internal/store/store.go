// Package store persists compressed order history. Two backends share
// one contract: a local Postgres table and a hosted Airtable base. The
// compression pipeline is backend-agnostic.
//
// The store expects single-writer discipline: at most one compression
// job may sync at a time, and readers should not overlap an in-flight
// sync unless the backend provides snapshot isolation (Postgres does,
// Airtable does not).
package store

import (
	"context"
	"time"

	"bakehouse/internal/domain"
)

// History is the CompressedOrderHistory table.
type History interface {
	// MaxDeliveryDate returns the latest delivery date on record.
	// ok is false when the table is empty.
	MaxDeliveryDate(ctx context.Context) (date time.Time, ok bool, err error)

	// MostRecentByEmail returns each customer's most recent order
	// delivered before deliveryDate and within lookbackDays of it,
	// keyed by exact email. At most one record per email.
	MostRecentByEmail(ctx context.Context, deliveryDate time.Time, lookbackDays int) (map[string]domain.CompressedOrder, error)

	// SelectByDeliveryDate returns orders with start <= DeliveryDate < end.
	SelectByDeliveryDate(ctx context.Context, start, end time.Time) ([]domain.CompressedOrder, error)

	// GetByIDs returns the records matching the given order IDs.
	GetByIDs(ctx context.Context, ids []int) ([]domain.CompressedOrder, error)

	// Sync merges records into the table: rows whose key fields match
	// an existing row replace it whole, the rest are inserted. The
	// operation is idempotent, never duplicates the key, and on
	// failure leaves the table exactly as it was.
	Sync(ctx context.Context, records []domain.CompressedOrder, key []string) error
}
