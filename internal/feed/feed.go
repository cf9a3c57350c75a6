package feed

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/driftline/market-surfer/internal/model"
	"github.com/driftline/market-surfer/internal/venue"
)

// Feed is a reference price source. ok is false when the feed has no price
// or the price is older than the configured expiry.
type Feed interface {
	Price() (price decimal.Decimal, ok bool)
}

// Fixed always reports the same price, used for quoting against a pegged
// reference instead of the live market.
type Fixed struct {
	price decimal.Decimal
}

// NewFixed creates a fixed-price feed.
func NewFixed(price decimal.Decimal) *Fixed {
	return &Fixed{price: price}
}

// Price returns the configured price, always fresh.
func (f *Fixed) Price() (decimal.Decimal, bool) {
	return f.price, true
}

// VenueLast polls the venue's REST ticker in the background and caches the
// result. Consumers read the cache without paying network latency.
type VenueLast struct {
	source   venue.PriceSource
	pair     model.Pair
	interval time.Duration
	expiry   time.Duration
	logger   *slog.Logger

	mu      sync.RWMutex
	price   decimal.Decimal
	updated time.Time

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewVenueLast creates a polling feed over the venue's ticker.
func NewVenueLast(source venue.PriceSource, pair model.Pair, interval, expiry time.Duration, logger *slog.Logger) *VenueLast {
	if logger == nil {
		logger = slog.Default()
	}
	return &VenueLast{
		source:   source,
		pair:     pair,
		interval: interval,
		expiry:   expiry,
		logger:   logger,
	}
}

// Start begins the polling loop with a blocking first fetch. A failing
// first fetch is not fatal: Price reports not-ok until a poll succeeds.
func (v *VenueLast) Start(ctx context.Context) error {
	v.ctx, v.cancel = context.WithCancel(ctx)

	if err := v.poll(v.ctx); err != nil {
		v.logger.Warn("initial ticker fetch failed", "err", err)
	}

	v.wg.Add(1)
	go v.run()

	v.logger.Info("ticker feed started", "pair", v.pair, "interval", v.interval)
	return nil
}

// Stop halts the polling loop.
func (v *VenueLast) Stop(ctx context.Context) error {
	if v.cancel != nil {
		v.cancel()
	}

	done := make(chan struct{})
	go func() {
		v.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Price returns the cached ticker price if it is within the expiry window.
func (v *VenueLast) Price() (decimal.Decimal, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()

	if v.updated.IsZero() || time.Since(v.updated) > v.expiry {
		return decimal.Decimal{}, false
	}
	return v.price, true
}

func (v *VenueLast) run() {
	defer v.wg.Done()

	ticker := time.NewTicker(v.interval)
	defer ticker.Stop()

	for {
		select {
		case <-v.ctx.Done():
			return
		case <-ticker.C:
			if err := v.poll(v.ctx); err != nil {
				// Stale prices expire on their own; consumers fall back.
				v.logger.Warn("ticker fetch failed", "err", err)
			}
		}
	}
}

func (v *VenueLast) poll(ctx context.Context) error {
	price, err := v.source.LastPrice(ctx, v.pair)
	if err != nil {
		return err
	}

	v.mu.Lock()
	v.price = price
	v.updated = time.Now()
	v.mu.Unlock()
	return nil
}
