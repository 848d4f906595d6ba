package domain

import (
	"strings"
	"time"
)

// LineItem is one entry of an order's line-item multiset.
type LineItem struct {
	Quantity  int
	UnitPrice float64
}

// Order is the mutable aggregate that folds the export's one-row-per-item
// shape back into one logical order. It is keyed by the numeric order ID
// and local to a single compression run.
type Order struct {
	ID           int
	Email        string
	DeliveryDate time.Time
	Notes        string
	Total        float64
	Billing      Address
	Shipping     Address
	Lineitems    map[string]LineItem
}

func NewOrder(id int, email string) *Order {
	return &Order{
		ID:        id,
		Email:     email,
		Lineitems: make(map[string]LineItem),
	}
}

// AddLineitem adds an item by description, incrementing the quantity if
// the description is already present rather than duplicating the entry.
func (o *Order) AddLineitem(description string, unitPrice float64, qty int) {
	item, ok := o.Lineitems[description]
	if !ok {
		o.Lineitems[description] = LineItem{Quantity: qty, UnitPrice: unitPrice}
		return
	}
	item.Quantity += qty
	o.Lineitems[description] = item
}

// AddTotal accumulates the row's total onto the order. The export splits
// the order total across rows, so per-row totals sum to the order total.
func (o *Order) AddTotal(amount float64) {
	o.Total += amount
}

// SetNotes overwrites the notes when the candidate is non-blank.
func (o *Order) SetNotes(notes string) {
	if strings.TrimSpace(notes) != "" {
		o.Notes = notes
	}
}

// MergeBilling folds a row's billing address onto the order.
func (o *Order) MergeBilling(a Address) {
	o.Billing.Merge(a)
}

// MergeShipping folds a row's shipping address onto the order.
func (o *Order) MergeShipping(a Address) {
	o.Shipping.Merge(a)
}
