package ladder

import (
	"github.com/shopspring/decimal"

	"github.com/driftline/market-surfer/internal/model"
)

// InitialLadder builds the symmetric starting ladder around basePrice: for
// each rung i in 1..bandLimit, a sell at basePrice*(1+r*i) and a buy at
// basePrice*(1-r*i), each sized by the jittered order amount.
func InitialLadder(basePrice, arbitragePercent, orderAmount decimal.Decimal, bandLimit int, jit *Jitter) []model.OrderIntent {
	intents := make([]model.OrderIntent, 0, 2*bandLimit)

	for i := 1; i <= bandLimit; i++ {
		offset := arbitragePercent.Mul(decimal.NewFromInt(int64(i)))

		sellPrice := basePrice.Mul(one.Add(offset))
		sellBase := jit.Amount(orderAmount)
		intents = append(intents, model.OrderIntent{
			Side:        model.SideSell,
			Price:       sellPrice,
			BaseAmount:  sellBase,
			QuoteAmount: sellBase.Mul(sellPrice),
		})

		buyPrice := basePrice.Mul(one.Sub(offset))
		buyBase := jit.Amount(orderAmount)
		intents = append(intents, model.OrderIntent{
			Side:        model.SideBuy,
			Price:       buyPrice,
			BaseAmount:  buyBase,
			QuoteAmount: buyBase.Mul(buyPrice),
		})
	}

	return intents
}
