package bibox

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/driftline/market-surfer/internal/model"
)

// pagination for the pending order list; the surfer never rests anywhere
// near this many orders on one pair.
const pendingPageSize = 50

func biboxPair(pair model.Pair) string {
	return strings.ToUpper(string(pair))
}

// OpenOrders lists our resting orders for the pair.
func (c *Client) OpenOrders(ctx context.Context, pair model.Pair) ([]model.Order, error) {
	cmds := []command{{
		Cmd: "orderpending/orderPendingList",
		Body: map[string]any{
			"pair":         biboxPair(pair),
			"account_type": accountTypeSpot,
			"page":         1,
			"size":         pendingPageSize,
		},
	}}

	var result struct {
		Count int            `json:"count"`
		Items []pendingOrder `json:"items"`
	}
	if err := c.doSigned(ctx, "/v1/orderpending", cmds, &result); err != nil {
		return nil, fmt.Errorf("list pending orders: %w", err)
	}

	orders := make([]model.Order, 0, len(result.Items))
	for _, item := range result.Items {
		orders = append(orders, item.toModel())
	}
	return orders, nil
}

// Balances lists all asset balances.
func (c *Client) Balances(ctx context.Context) ([]model.Balance, error) {
	cmds := []command{{
		Cmd:  "transfer/assets",
		Body: map[string]any{"select": 1},
	}}

	var result struct {
		AssetsList []assetEntry `json:"assets_list"`
	}
	if err := c.doSigned(ctx, "/v1/transfer", cmds, &result); err != nil {
		return nil, fmt.Errorf("list balances: %w", err)
	}

	balances := make([]model.Balance, 0, len(result.AssetsList))
	for _, a := range result.AssetsList {
		balances = append(balances, model.Balance{
			Asset:  strings.ToUpper(a.CoinSymbol),
			Free:   a.Balance,
			Locked: a.Freeze,
		})
	}
	return balances, nil
}

// PlaceOrder submits a limit order. Bibox denominates "amount" as the base
// asset and "money" as the quote asset for both sides.
func (c *Client) PlaceOrder(ctx context.Context, pair model.Pair, intent model.OrderIntent) (string, error) {
	side := orderSideBuy
	if intent.Side == model.SideSell {
		side = orderSideSell
	}

	cmds := []command{{
		Cmd: "orderpending/trade",
		Body: map[string]any{
			"pair":         biboxPair(pair),
			"account_type": accountTypeSpot,
			"order_type":   orderTypeLimit,
			"order_side":   side,
			"pay_bix":      0,
			"price":        intent.Price.String(),
			"amount":       intent.BaseAmount.String(),
			"money":        intent.QuoteAmount.String(),
		},
	}}

	var orderID json.Number
	if err := c.doSigned(ctx, "/v1/orderpending", cmds, &orderID); err != nil {
		return "", fmt.Errorf("place order: %w", err)
	}

	c.logger.Debug("order placed",
		"venue", "bibox",
		"pair", biboxPair(pair),
		"side", intent.Side,
		"price", intent.Price,
		"order_id", orderID.String(),
	)
	return orderID.String(), nil
}

// CancelOrder cancels a resting order by venue id.
func (c *Client) CancelOrder(ctx context.Context, pair model.Pair, venueOrderID string) error {
	cmds := []command{{
		Cmd:  "orderpending/cancelTrade",
		Body: map[string]any{"orders_id": venueOrderID},
	}}

	if err := c.doSigned(ctx, "/v1/orderpending", cmds, nil); err != nil {
		return fmt.Errorf("cancel order %s: %w", venueOrderID, err)
	}
	return nil
}

// LastPrice returns the last traded price from the public market endpoint.
func (c *Client) LastPrice(ctx context.Context, pair model.Pair) (decimal.Decimal, error) {
	query := url.Values{}
	query.Set("cmd", "market")
	query.Set("pair", biboxPair(pair))

	var ticker marketTicker
	if err := c.doPublic(ctx, "/v1/mdata", query, &ticker); err != nil {
		return decimal.Zero, fmt.Errorf("last price: %w", err)
	}
	if ticker.Last.Sign() <= 0 {
		return decimal.Zero, fmt.Errorf("last price: venue returned %s", ticker.Last)
	}
	return ticker.Last, nil
}
