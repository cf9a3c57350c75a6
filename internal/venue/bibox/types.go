package bibox

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	"github.com/driftline/market-surfer/internal/model"
)

// Bibox order_side values.
const (
	orderSideBuy  = 1
	orderSideSell = 2
)

// Bibox order_type / account_type for plain limit orders on the spot account.
const (
	accountTypeSpot = 0
	orderTypeLimit  = 2
)

// apiError is the venue-level error payload.
type apiError struct {
	Code string `json:"code"`
	Msg  string `json:"msg"`
}

// pendingOrder is one item of orderpending/orderPendingList.
type pendingOrder struct {
	ID             json.Number     `json:"id"`
	CreatedAt      int64           `json:"createdAt"` // ms since epoch
	Pair           string          `json:"pair"`
	CoinSymbol     string          `json:"coin_symbol"`
	CurrencySymbol string          `json:"currency_symbol"`
	OrderSide      int             `json:"order_side"`
	Price          decimal.Decimal `json:"price"`
	Amount         decimal.Decimal `json:"amount"`
	Money          decimal.Decimal `json:"money"`
}

// toModel converts a pending order to the shared order type.
func (o pendingOrder) toModel() model.Order {
	side := model.SideBuy
	if o.OrderSide == orderSideSell {
		side = model.SideSell
	}
	return model.Order{
		VenueOrderID: o.ID.String(),
		Pair:         model.Pair(o.Pair),
		Side:         side,
		Price:        o.Price,
		BaseAmount:   o.Amount,
		QuoteAmount:  o.Money,
		CreatedAt:    time.UnixMilli(o.CreatedAt),
	}
}

// assetEntry is one item of transfer/assets.
type assetEntry struct {
	CoinSymbol string          `json:"coin_symbol"`
	Balance    decimal.Decimal `json:"balance"`
	Freeze     decimal.Decimal `json:"freeze"`
}

// marketTicker is the payload of the public mdata market command.
type marketTicker struct {
	Pair string          `json:"pair"`
	Last decimal.Decimal `json:"last"`
	Buy  decimal.Decimal `json:"buy"`
	Sell decimal.Decimal `json:"sell"`
}
