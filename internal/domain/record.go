package domain

import (
	"strings"
	"time"
)

// LineitemSeparator joins the repeated line-item tokens of a compressed
// order. It is part of the storage contract: packing-slip generation
// splits on it at read time.
const LineitemSeparator = "|"

// CompressedOrder is the flattened, persisted projection of one order.
// Lineitems carries one token per unit of quantity, so an item bought
// three times appears three times.
type CompressedOrder struct {
	ID              int
	Email           string
	DeliveryDate    time.Time
	Lineitems       string
	BillingAddress  string
	ShippingAddress string
	Total           float64
	DeliveryNotes   string
}

// LineitemTokens splits the stored line-item string back into its
// repeated tokens. An empty string yields no tokens.
func (c CompressedOrder) LineitemTokens() []string {
	if c.Lineitems == "" {
		return nil
	}
	return strings.Split(c.Lineitems, LineitemSeparator)
}
