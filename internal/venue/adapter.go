package venue

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/driftline/market-surfer/internal/model"
)

// Adapter is the capability interface a venue integration must provide.
//
// All calls may fail transiently; adapters own retry/backoff, callers never
// retry themselves. Amount semantics are normalized: intents carry both the
// base and the quote amount and the adapter submits whichever fields the
// venue denominates as "pay" vs "buy".
type Adapter interface {
	// Name identifies the venue ("bibox", "okex").
	Name() string

	// OpenOrders lists our currently resting orders for the pair.
	OpenOrders(ctx context.Context, pair model.Pair) ([]model.Order, error)

	// Balances lists all asset balances on the account.
	Balances(ctx context.Context) ([]model.Balance, error)

	// PlaceOrder submits a limit order and returns the venue-assigned id.
	PlaceOrder(ctx context.Context, pair model.Pair, intent model.OrderIntent) (string, error)

	// CancelOrder cancels a resting order by venue id.
	CancelOrder(ctx context.Context, pair model.Pair, venueOrderID string) error

	// LastPrice returns the last traded price for the pair.
	LastPrice(ctx context.Context, pair model.Pair) (decimal.Decimal, error)
}

// PriceSource is the slice of Adapter the engine uses when re-fetching the
// reference price for replenishment rungs.
type PriceSource interface {
	LastPrice(ctx context.Context, pair model.Pair) (decimal.Decimal, error)
}
