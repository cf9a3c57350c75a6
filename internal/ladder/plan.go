package ladder

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/driftline/market-surfer/internal/model"
)

var one = decimal.NewFromInt(1)

// PlanConfig holds the band parameters the replenishment policy works from.
type PlanConfig struct {
	// ArbitragePercent is the fractional price step between adjacent rungs.
	ArbitragePercent decimal.Decimal

	// BandOrderLimit caps resting orders per side.
	BandOrderLimit int

	// OrderAmount is the unperturbed base amount of one rung
	// (totalCapital * perOrderFraction).
	OrderAmount decimal.Decimal

	// EnforceBandLimit additionally cancels the furthest-from-market rung
	// when a mirror order would push a side past the limit.
	EnforceBandLimit bool
}

// Plan is the outcome of one reconciliation fold: the orders to submit and
// the resting orders to cancel. Cancels are applied before placements.
type Plan struct {
	NewOrders []model.OrderIntent
	Cancels   []model.Order
}

// counters is the explicit state threaded through the fold over fills.
// step fans successive replenishments out to more distant rungs; the side
// counts keep a burst of same-side fills from over-replenishing past the
// band limit within a single cycle.
type counters struct {
	step          int
	sellCount     int
	buyCount      int
	buyCancelIdx  int
	sellCancelIdx int
}

// BuildPlan folds over the filled orders and computes the cycle's order
// intents and cancellations.
//
// For every filled order the plan mirrors it on the opposite side at the
// arbitrage offset from the fill price, then replenishes the filled side at
// a rung priced from a freshly fetched reference price. lastPrice is
// invoked per replenishment decision so a burst of fills during a fast move
// prices each replacement from the latest trade, not a stale read.
func BuildPlan(fills, resting []model.Order, lastPrice func() (decimal.Decimal, error), cfg PlanConfig, jit *Jitter) (Plan, error) {
	buys := model.BuyOrders(resting)
	sells := model.SellOrders(resting)

	// Furthest-from-market rung first: lowest-priced buy, highest-priced sell.
	sort.Slice(buys, func(i, j int) bool { return buys[i].Price.LessThan(buys[j].Price) })
	sort.Slice(sells, func(i, j int) bool { return sells[i].Price.GreaterThan(sells[j].Price) })

	var plan Plan
	ctr := counters{
		step:      1,
		sellCount: len(sells),
		buyCount:  len(buys),
	}

	for _, fill := range fills {
		var err error
		if fill.Side == model.SideSell {
			ctr, err = planSellFill(&plan, fill, buys, ctr, lastPrice, cfg, jit)
		} else {
			ctr, err = planBuyFill(&plan, fill, sells, ctr, lastPrice, cfg, jit)
		}
		if err != nil {
			return Plan{}, err
		}
		ctr.step++
	}

	return plan, nil
}

// planSellFill handles one filled sell: mirror buy below the fill price,
// optional furthest-buy cancellation, optional sell replenishment above the
// reference price.
func planSellFill(plan *Plan, fill model.Order, buys []model.Order, ctr counters, lastPrice func() (decimal.Decimal, error), cfg PlanConfig, jit *Jitter) (counters, error) {
	// Mirror: buy back the same base amount below the matched fill.
	price := fill.Price.Mul(one.Sub(cfg.ArbitragePercent))
	plan.NewOrders = append(plan.NewOrders, model.OrderIntent{
		Side:        model.SideBuy,
		Price:       price,
		BaseAmount:  fill.BaseAmount,
		QuoteAmount: fill.BaseAmount.Mul(price),
	})

	if cfg.EnforceBandLimit {
		// The mirror buy pushes the buy side past the limit: drop the
		// furthest (lowest-priced) resting buy instead of growing the band.
		// The index guard matters when buys were also eaten this cycle and
		// fewer resting orders remain than fills being processed.
		if ctr.buyCount+1-cfg.BandOrderLimit > 0 && ctr.buyCancelIdx < len(buys) {
			plan.Cancels = append(plan.Cancels, buys[ctr.buyCancelIdx])
			ctr.buyCancelIdx++
		} else {
			ctr.buyCount++
		}
	}

	// Replenish the sell side if it is short of the band limit.
	if cfg.BandOrderLimit-ctr.sellCount > 0 {
		current, err := lastPrice()
		if err != nil {
			return ctr, fmt.Errorf("fetch reference price: %w", err)
		}
		offset := cfg.ArbitragePercent.Mul(decimal.NewFromInt(int64(ctr.step + ctr.sellCount)))
		rungPrice := current.Mul(one.Add(offset))
		base := jit.Amount(cfg.OrderAmount)
		plan.NewOrders = append(plan.NewOrders, model.OrderIntent{
			Side:        model.SideSell,
			Price:       rungPrice,
			BaseAmount:  base,
			QuoteAmount: base.Mul(rungPrice),
		})
		ctr.sellCount++
	}

	return ctr, nil
}

// planBuyFill is the symmetric mirror of planSellFill.
func planBuyFill(plan *Plan, fill model.Order, sells []model.Order, ctr counters, lastPrice func() (decimal.Decimal, error), cfg PlanConfig, jit *Jitter) (counters, error) {
	price := fill.Price.Mul(one.Add(cfg.ArbitragePercent))
	plan.NewOrders = append(plan.NewOrders, model.OrderIntent{
		Side:        model.SideSell,
		Price:       price,
		BaseAmount:  fill.BaseAmount,
		QuoteAmount: fill.BaseAmount.Mul(price),
	})

	if cfg.EnforceBandLimit {
		if ctr.sellCount+1-cfg.BandOrderLimit > 0 && ctr.sellCancelIdx < len(sells) {
			plan.Cancels = append(plan.Cancels, sells[ctr.sellCancelIdx])
			ctr.sellCancelIdx++
		} else {
			ctr.sellCount++
		}
	}

	if cfg.BandOrderLimit-ctr.buyCount > 0 {
		current, err := lastPrice()
		if err != nil {
			return ctr, fmt.Errorf("fetch reference price: %w", err)
		}
		offset := cfg.ArbitragePercent.Mul(decimal.NewFromInt(int64(ctr.step + ctr.buyCount)))
		rungPrice := current.Mul(one.Sub(offset))
		base := jit.Amount(cfg.OrderAmount)
		plan.NewOrders = append(plan.NewOrders, model.OrderIntent{
			Side:        model.SideBuy,
			Price:       rungPrice,
			BaseAmount:  base,
			QuoteAmount: base.Mul(rungPrice),
		})
		ctr.buyCount++
	}

	return ctr, nil
}
