package store

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"bakehouse/internal/domain"
	"bakehouse/internal/migrate"
)

func testPool(ctx context.Context, t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv("TEST_DB_DSN")
	if dsn == "" {
		t.Skip("TEST_DB_DSN not set")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("connect db: %v", err)
	}
	return pool
}

func resetTables(ctx context.Context, t *testing.T, pool *pgxpool.Pool) {
	t.Helper()
	if _, err := pool.Exec(ctx, `TRUNCATE compressed_order_history`); err != nil {
		t.Fatalf("truncate tables: %v", err)
	}
}

func testHistory(ctx context.Context, t *testing.T) (History, *pgxpool.Pool) {
	t.Helper()
	pool := testPool(ctx, t)
	t.Cleanup(pool.Close)
	if err := migrate.Apply(ctx, pool); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}
	resetTables(ctx, t, pool)
	return NewPostgres(pool, nil), pool
}

func date(s string) time.Time {
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return d
}

func record(id int, email, day, lineitems string) domain.CompressedOrder {
	return domain.CompressedOrder{
		ID:              id,
		Email:           email,
		DeliveryDate:    date(day),
		Lineitems:       lineitems,
		BillingAddress:  "Billing " + email,
		ShippingAddress: "Shipping " + email,
		Total:           12.50,
		DeliveryNotes:   "",
	}
}

func TestPostgres_SyncInsertsAndRereads(t *testing.T) {
	ctx := context.Background()
	h, _ := testHistory(ctx, t)

	records := []domain.CompressedOrder{
		record(1001, "alice@example.com", "2021-01-23", "Extra Loaf|Extra Loaf"),
		record(1002, "bob@example.com", "2021-01-23", "Granola"),
	}
	if err := h.Sync(ctx, records, []string{"ID"}); err != nil {
		t.Fatalf("sync: %v", err)
	}

	got, err := h.GetByIDs(ctx, []int{1001, 1002})
	if err != nil {
		t.Fatalf("get by ids: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 records, got %d", len(got))
	}
	if got[0].ID != 1001 || got[0].Lineitems != "Extra Loaf|Extra Loaf" {
		t.Fatalf("unexpected first record %+v", got[0])
	}
	if got[1].Email != "bob@example.com" {
		t.Fatalf("unexpected second record %+v", got[1])
	}
}

func TestPostgres_SyncIsIdempotent(t *testing.T) {
	ctx := context.Background()
	h, pool := testHistory(ctx, t)

	records := []domain.CompressedOrder{
		record(1001, "alice@example.com", "2021-01-23", "Extra Loaf"),
	}
	for i := 0; i < 3; i++ {
		if err := h.Sync(ctx, records, []string{"ID"}); err != nil {
			t.Fatalf("sync %d: %v", i, err)
		}
	}

	var count int
	if err := pool.QueryRow(ctx, `SELECT COUNT(*) FROM compressed_order_history`).Scan(&count); err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected a single row after repeated syncs, got %d", count)
	}
}

func TestPostgres_SyncReplacesMatchedRows(t *testing.T) {
	ctx := context.Background()
	h, _ := testHistory(ctx, t)

	first := record(1001, "alice@example.com", "2021-01-23", "Extra Loaf")
	first.DeliveryNotes = "ring the bell"
	if err := h.Sync(ctx, []domain.CompressedOrder{first}, []string{"ID"}); err != nil {
		t.Fatalf("initial sync: %v", err)
	}

	// A re-run of the same export replaces the whole row, clearing
	// fields the new version leaves blank.
	second := record(1001, "alice@example.com", "2021-01-23", "Extra Loaf|Granola")
	if err := h.Sync(ctx, []domain.CompressedOrder{second}, []string{"ID"}); err != nil {
		t.Fatalf("second sync: %v", err)
	}

	got, err := h.GetByIDs(ctx, []int{1001})
	if err != nil {
		t.Fatalf("get by ids: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 record, got %d", len(got))
	}
	if got[0].Lineitems != "Extra Loaf|Granola" {
		t.Fatalf("lineitems not replaced: %q", got[0].Lineitems)
	}
	if got[0].DeliveryNotes != "" {
		t.Fatalf("stale notes survived the replace: %q", got[0].DeliveryNotes)
	}
}

func TestPostgres_SyncRejectsUnknownKey(t *testing.T) {
	ctx := context.Background()
	h, _ := testHistory(ctx, t)

	err := h.Sync(ctx, nil, []string{"Bogus"})
	if err == nil {
		t.Fatal("expected error for unknown key field")
	}
	if err := h.Sync(ctx, nil, nil); err == nil {
		t.Fatal("expected error for empty key")
	}
}

func TestPostgres_MaxDeliveryDate(t *testing.T) {
	ctx := context.Background()
	h, _ := testHistory(ctx, t)

	if _, ok, err := h.MaxDeliveryDate(ctx); err != nil {
		t.Fatalf("max on empty table: %v", err)
	} else if ok {
		t.Fatal("expected no max on empty table")
	}

	records := []domain.CompressedOrder{
		record(1001, "alice@example.com", "2021-01-16", "Granola"),
		record(1002, "bob@example.com", "2021-01-23", "Granola"),
	}
	if err := h.Sync(ctx, records, []string{"ID"}); err != nil {
		t.Fatalf("sync: %v", err)
	}

	max, ok, err := h.MaxDeliveryDate(ctx)
	if err != nil {
		t.Fatalf("max: %v", err)
	}
	if !ok || !max.Equal(date("2021-01-23")) {
		t.Fatalf("unexpected max %v ok=%v", max, ok)
	}
}

func TestPostgres_MostRecentByEmail(t *testing.T) {
	ctx := context.Background()
	h, _ := testHistory(ctx, t)

	records := []domain.CompressedOrder{
		// Two prior orders for alice; only the newer one should win.
		record(900, "alice@example.com", "2021-01-09", "Granola"),
		record(950, "alice@example.com", "2021-01-16", "Extra Loaf"),
		// Outside the lookback window.
		record(800, "bob@example.com", "2020-12-01", "Granola"),
		// On the delivery date itself: excluded, the window is strictly
		// in the past.
		record(1000, "carol@example.com", "2021-01-23", "Granola"),
	}
	if err := h.Sync(ctx, records, []string{"ID"}); err != nil {
		t.Fatalf("sync: %v", err)
	}

	prev, err := h.MostRecentByEmail(ctx, date("2021-01-23"), 28)
	if err != nil {
		t.Fatalf("most recent: %v", err)
	}
	if len(prev) != 1 {
		t.Fatalf("expected 1 prior customer, got %d: %v", len(prev), prev)
	}
	alice, ok := prev["alice@example.com"]
	if !ok {
		t.Fatalf("alice missing from %v", prev)
	}
	if alice.ID != 950 {
		t.Fatalf("expected newest order 950, got %d", alice.ID)
	}
}

func TestPostgres_SelectByDeliveryDate(t *testing.T) {
	ctx := context.Background()
	h, _ := testHistory(ctx, t)

	records := []domain.CompressedOrder{
		record(900, "alice@example.com", "2021-01-09", "Granola"),
		record(950, "bob@example.com", "2021-01-16", "Extra Loaf"),
		record(1000, "carol@example.com", "2021-01-23", "Granola"),
	}
	if err := h.Sync(ctx, records, []string{"ID"}); err != nil {
		t.Fatalf("sync: %v", err)
	}

	got, err := h.SelectByDeliveryDate(ctx, date("2021-01-09"), date("2021-01-23"))
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 records, got %d", len(got))
	}
	if got[0].ID != 900 || got[1].ID != 950 {
		t.Fatalf("unexpected order %v", got)
	}
}
