package okex

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/driftline/market-surfer/internal/model"
)

// order_info.do with order_id=-1 returns all unfilled orders for the symbol.
const unfilledOrders = "-1"

func okexSymbol(pair model.Pair) string {
	return strings.ToLower(string(pair))
}

// orderEntry is one item of order_info.do.
type orderEntry struct {
	OrderID    json.Number     `json:"order_id"`
	Symbol     string          `json:"symbol"`
	Type       string          `json:"type"` // "buy" or "sell"
	Price      decimal.Decimal `json:"price"`
	Amount     decimal.Decimal `json:"amount"` // base asset
	CreateDate int64           `json:"create_date"`
}

func (o orderEntry) toModel() model.Order {
	side := model.SideBuy
	if o.Type == "sell" {
		side = model.SideSell
	}
	return model.Order{
		VenueOrderID: o.OrderID.String(),
		Pair:         model.Pair(strings.ToUpper(o.Symbol)),
		Side:         side,
		Price:        o.Price,
		BaseAmount:   o.Amount,
		QuoteAmount:  o.Price.Mul(o.Amount),
		CreatedAt:    time.UnixMilli(o.CreateDate),
	}
}

// OpenOrders lists our resting orders for the pair.
func (c *Client) OpenOrders(ctx context.Context, pair model.Pair) ([]model.Order, error) {
	params := url.Values{}
	params.Set("symbol", okexSymbol(pair))
	params.Set("order_id", unfilledOrders)

	var result struct {
		Result bool         `json:"result"`
		Orders []orderEntry `json:"orders"`
	}
	if err := c.doSigned(ctx, "/order_info.do", params, &result); err != nil {
		return nil, fmt.Errorf("list open orders: %w", err)
	}

	orders := make([]model.Order, 0, len(result.Orders))
	for _, o := range result.Orders {
		orders = append(orders, o.toModel())
	}
	return orders, nil
}

// Balances lists all non-zero asset balances.
func (c *Client) Balances(ctx context.Context) ([]model.Balance, error) {
	var result struct {
		Result bool `json:"result"`
		Info   struct {
			Funds struct {
				Free    map[string]decimal.Decimal `json:"free"`
				Freezed map[string]decimal.Decimal `json:"freezed"`
			} `json:"funds"`
		} `json:"info"`
	}
	if err := c.doSigned(ctx, "/userinfo.do", url.Values{}, &result); err != nil {
		return nil, fmt.Errorf("list balances: %w", err)
	}

	balances := make([]model.Balance, 0, len(result.Info.Funds.Free))
	for asset, free := range result.Info.Funds.Free {
		locked := result.Info.Funds.Freezed[asset]
		if free.IsZero() && locked.IsZero() {
			continue
		}
		balances = append(balances, model.Balance{
			Asset:  strings.ToUpper(asset),
			Free:   free,
			Locked: locked,
		})
	}
	return balances, nil
}

// PlaceOrder submits a limit order. OKEx takes the base-asset amount for
// limit orders on both sides; the quote leg is implied by the price.
func (c *Client) PlaceOrder(ctx context.Context, pair model.Pair, intent model.OrderIntent) (string, error) {
	params := url.Values{}
	params.Set("symbol", okexSymbol(pair))
	params.Set("type", string(intent.Side))
	params.Set("price", intent.Price.String())
	params.Set("amount", intent.BaseAmount.String())

	var result struct {
		Result  bool        `json:"result"`
		OrderID json.Number `json:"order_id"`
	}
	if err := c.doSigned(ctx, "/trade.do", params, &result); err != nil {
		return "", fmt.Errorf("place order: %w", err)
	}
	if !result.Result {
		return "", fmt.Errorf("place order: venue rejected without error code")
	}

	c.logger.Debug("order placed",
		"venue", "okex",
		"symbol", okexSymbol(pair),
		"side", intent.Side,
		"price", intent.Price,
		"order_id", result.OrderID.String(),
	)
	return result.OrderID.String(), nil
}

// CancelOrder cancels a resting order by venue id.
func (c *Client) CancelOrder(ctx context.Context, pair model.Pair, venueOrderID string) error {
	params := url.Values{}
	params.Set("symbol", okexSymbol(pair))
	params.Set("order_id", venueOrderID)

	if err := c.doSigned(ctx, "/cancel_order.do", params, nil); err != nil {
		return fmt.Errorf("cancel order %s: %w", venueOrderID, err)
	}
	return nil
}

// LastPrice returns the last traded price from the public ticker endpoint.
func (c *Client) LastPrice(ctx context.Context, pair model.Pair) (decimal.Decimal, error) {
	query := url.Values{}
	query.Set("symbol", okexSymbol(pair))

	var result struct {
		Ticker struct {
			Last decimal.Decimal `json:"last"`
		} `json:"ticker"`
	}
	if err := c.doPublic(ctx, "/ticker.do", query, &result); err != nil {
		return decimal.Zero, fmt.Errorf("last price: %w", err)
	}
	if result.Ticker.Last.Sign() <= 0 {
		return decimal.Zero, fmt.Errorf("last price: venue returned %s", result.Ticker.Last)
	}
	return result.Ticker.Last, nil
}
