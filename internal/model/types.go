package model

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Side identifies which side of the book an order rests on.
type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

// Opposite returns the mirrored side.
func (s Side) Opposite() Side {
	if s == SideBuy {
		return SideSell
	}
	return SideBuy
}

// Pair is a trading pair in "BASE_QUOTE" form.
type Pair string

// Base returns the base asset symbol (what sell orders pay).
func (p Pair) Base() string {
	base, _, _ := strings.Cut(string(p), "_")
	return strings.ToUpper(base)
}

// Quote returns the quote asset symbol (what buy orders pay).
func (p Pair) Quote() string {
	_, quote, _ := strings.Cut(string(p), "_")
	return strings.ToUpper(quote)
}

// Valid reports whether the pair has both legs.
func (p Pair) Valid() bool {
	base, quote, ok := strings.Cut(string(p), "_")
	return ok && base != "" && quote != ""
}

// Order is an immutable record of a resting order, as reported by the venue.
type Order struct {
	VenueOrderID string          // assigned by the venue on acceptance
	Pair         Pair            //
	Side         Side            //
	Price        decimal.Decimal // quote per base
	BaseAmount   decimal.Decimal //
	QuoteAmount  decimal.Decimal // Price * BaseAmount up to venue rounding
	CreatedAt    time.Time       //
}

// OrderIntent is a proposed order that has not been submitted yet.
// It carries no identity; a VenueOrderID exists only once the venue accepts it.
type OrderIntent struct {
	Side        Side
	Price       decimal.Decimal
	BaseAmount  decimal.Decimal
	QuoteAmount decimal.Decimal
}

// Balance is a single asset balance on the venue.
type Balance struct {
	Asset  string
	Free   decimal.Decimal
	Locked decimal.Decimal
}

// RemoteSnapshot is the order book cache's latest pull of the venue's open
// orders. Placing/Cancelling report asynchronous operations still outstanding
// at the time the snapshot was read. The snapshot is read-only for consumers.
type RemoteSnapshot struct {
	Orders     []Order
	Balances   []Balance
	Placing    bool
	Cancelling bool
	Taken      time.Time
}

// SellOrders returns the orders resting on the sell side.
func SellOrders(orders []Order) []Order {
	return filterSide(orders, SideSell)
}

// BuyOrders returns the orders resting on the buy side.
func BuyOrders(orders []Order) []Order {
	return filterSide(orders, SideBuy)
}

// CountSide returns how many orders rest on the given side.
func CountSide(orders []Order, side Side) int {
	n := 0
	for _, o := range orders {
		if o.Side == side {
			n++
		}
	}
	return n
}

func filterSide(orders []Order, side Side) []Order {
	out := make([]Order, 0, len(orders))
	for _, o := range orders {
		if o.Side == side {
			out = append(out, o)
		}
	}
	return out
}
