// Package compress folds the weekly order export into compressed order
// records and syncs them to the order history store. It owns the
// fortnightly-coffee suppression rule and the chronology guard.
package compress

import (
	"context"
	"fmt"
	"io"
	"log"
	"sort"
	"strconv"
	"strings"
	"time"

	"bakehouse/internal/catalog"
	"bakehouse/internal/domain"
	"bakehouse/internal/orderfile"
)

// DefaultLookbackDays is how far back a previous order counts as current
// for fortnightly suppression: two delivery cycles.
const DefaultLookbackDays = 28

// SyncKey is the uniqueness key compressed records are merged on.
var SyncKey = []string{"ID"}

type historyStore interface {
	MaxDeliveryDate(ctx context.Context) (time.Time, bool, error)
	MostRecentByEmail(ctx context.Context, deliveryDate time.Time, lookbackDays int) (map[string]domain.CompressedOrder, error)
	Sync(ctx context.Context, records []domain.CompressedOrder, key []string) error
}

// Processor runs one compression batch: one delivery date's rows, folded
// and synced to completion. It is not safe for concurrent use; run one
// batch at a time.
type Processor struct {
	store        historyStore
	policy       Policy
	lookbackDays int
	logger       *log.Logger
}

func NewProcessor(store historyStore, policy Policy, lookbackDays int, logger *log.Logger) *Processor {
	if lookbackDays <= 0 {
		lookbackDays = DefaultLookbackDays
	}
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Processor{
		store:        store,
		policy:       policy,
		lookbackDays: lookbackDays,
		logger:       logger,
	}
}

// Run compresses rows for one delivery date, syncs the records to the
// store, and returns them together with the store-wide stock tally.
// Parse errors abort before anything reaches the store; an aborted run
// is safe to repeat because sync is idempotent.
func (p *Processor) Run(ctx context.Context, rows []orderfile.RawOrderRow, deliveryDate time.Time) ([]domain.CompressedOrder, map[string]int, error) {
	advisories, err := p.chronologyAdvisories(ctx, deliveryDate)
	if err != nil {
		return nil, nil, err
	}
	if err := p.applyPolicy(advisories); err != nil {
		return nil, nil, err
	}

	prev, err := p.store.MostRecentByEmail(ctx, deliveryDate, p.lookbackDays)
	if err != nil {
		return nil, nil, fmt.Errorf("load previous orders: %w", err)
	}

	orders, err := Fold(rows, deliveryDate, prev)
	if err != nil {
		return nil, nil, err
	}

	records, tally := Flatten(orders)

	if err := p.store.Sync(ctx, records, SyncKey); err != nil {
		return nil, nil, fmt.Errorf("sync compressed orders: %w", err)
	}

	p.logger.Printf("compress: run date=%s rows=%d orders=%d items=%d",
		deliveryDate.Format("2006-01-02"), len(rows), len(records), len(tally))
	return records, tally, nil
}

// Fold collapses the export's one-row-per-item shape into one Order
// aggregate per order ID, applying fortnightly suppression against each
// customer's most recent prior order.
func Fold(rows []orderfile.RawOrderRow, deliveryDate time.Time, prevOrders map[string]domain.CompressedOrder) (map[int]*domain.Order, error) {
	orders := make(map[int]*domain.Order)

	for _, row := range rows {
		id, err := ParseOrderRef(row.OrderRef)
		if err != nil {
			return nil, err
		}

		order, ok := orders[id]
		if !ok {
			// Email is fixed by the first row; divergent emails on later
			// rows are a data-quality concern, not an error.
			order = domain.NewOrder(id, row.Email)
			orders[id] = order
		}

		order.DeliveryDate = deliveryDate

		if !isBlank(row.Total) {
			total, err := strconv.ParseFloat(strings.TrimSpace(row.Total), 64)
			if err != nil {
				return nil, fmt.Errorf("order %s: total %q: %w", row.OrderRef, row.Total, domain.ErrMalformedInput)
			}
			order.AddTotal(total)
		}

		order.SetNotes(row.Notes)

		qty, err := parseIntField(row.LineitemQty)
		if err != nil {
			return nil, fmt.Errorf("order %s: quantity %q: %w", row.OrderRef, row.LineitemQty, domain.ErrMalformedInput)
		}
		price, err := parseFloatField(row.LineitemPrice)
		if err != nil {
			return nil, fmt.Errorf("order %s: price %q: %w", row.OrderRef, row.LineitemPrice, domain.ErrMalformedInput)
		}

		item := catalog.Lookup(row.LineitemName)
		prev, hasPrev := prevOrders[order.Email]
		if !suppressFortnightly(item, prev, hasPrev) {
			order.AddLineitem(item.Description, price, qty)
		}

		order.MergeBilling(row.Billing)
		order.MergeShipping(row.Shipping)
	}

	return orders, nil
}

// suppressFortnightly reports whether a fortnightly coffee item must be
// left off the new order because the customer's previous order within
// the lookback window already contained one.
func suppressFortnightly(item catalog.Item, prev domain.CompressedOrder, hasPrev bool) bool {
	if !item.FortnightlyCoffee || !hasPrev {
		return false
	}
	for _, token := range prev.LineitemTokens() {
		if catalog.IsFortnightlyCoffee(token) {
			return true
		}
	}
	return false
}

// Flatten projects each Order aggregate into its persisted record and
// accumulates the store-wide stock tally. Line items are encoded with
// one pipe-separated token per unit so that downstream consumers only
// ever split on the separator.
func Flatten(orders map[int]*domain.Order) ([]domain.CompressedOrder, map[string]int) {
	records := make([]domain.CompressedOrder, 0, len(orders))
	tally := make(map[string]int)

	for _, order := range orders {
		descriptions := make([]string, 0, len(order.Lineitems))
		for desc := range order.Lineitems {
			descriptions = append(descriptions, desc)
		}
		sort.Strings(descriptions)

		var tokens []string
		for _, desc := range descriptions {
			qty := order.Lineitems[desc].Quantity
			tally[desc] += qty
			for i := 0; i < qty; i++ {
				tokens = append(tokens, desc)
			}
		}

		records = append(records, domain.CompressedOrder{
			ID:              order.ID,
			Email:           order.Email,
			DeliveryDate:    order.DeliveryDate,
			Lineitems:       strings.Join(tokens, domain.LineitemSeparator),
			BillingAddress:  order.Billing.Render(),
			ShippingAddress: order.Shipping.Render(),
			Total:           order.Total,
			DeliveryNotes:   order.Notes,
		})
	}

	sort.Slice(records, func(i, j int) bool { return records[i].ID < records[j].ID })
	return records, tally
}

// ParseOrderRef strips the export's one-character prefix (e.g. "#1001")
// and parses the rest as the numeric order ID.
func ParseOrderRef(ref string) (int, error) {
	if len(ref) < 2 {
		return 0, fmt.Errorf("order reference %q: %w", ref, domain.ErrMalformedInput)
	}
	id, err := strconv.Atoi(ref[1:])
	if err != nil {
		return 0, fmt.Errorf("order reference %q: %w", ref, domain.ErrMalformedInput)
	}
	return id, nil
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}

func parseIntField(s string) (int, error) {
	if isBlank(s) {
		return 0, nil
	}
	return strconv.Atoi(strings.TrimSpace(s))
}

func parseFloatField(s string) (float64, error) {
	if isBlank(s) {
		return 0, nil
	}
	return strconv.ParseFloat(strings.TrimSpace(s), 64)
}
