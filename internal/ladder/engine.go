package ladder

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/driftline/market-surfer/internal/metrics"
	"github.com/driftline/market-surfer/internal/model"
	"github.com/driftline/market-surfer/internal/report"
	"github.com/driftline/market-surfer/internal/venue"
)

// BookCache is the engine's view of the order book cache.
type BookCache interface {
	Snapshot() model.RemoteSnapshot
	Refresh(ctx context.Context) error
	EnqueuePlace(intent model.OrderIntent)
	EnqueueCancel(venueOrderID string)
	WaitIdle(ctx context.Context) error
	CancelAll(ctx context.Context, timeout time.Duration) error
}

// PriceFeed supplies an optional push-based reference price. ok is false
// when no fresh price is available, in which case the engine falls back to
// the venue's REST ticker.
type PriceFeed interface {
	Price() (price decimal.Decimal, ok bool)
}

// Config holds reconciliation engine configuration for one pair.
type Config struct {
	Pair model.Pair

	SyncInterval     time.Duration // reconciliation period
	InitialDelay     time.Duration // pause after ladder initialization
	SettleDelay      time.Duration // pause after the initial placement batch
	FlagPollInterval time.Duration // pause before polling in-flight flags
	FlagPollTimeout  time.Duration // bound on waiting for flags to clear
	ShutdownTimeout  time.Duration // bound on cancel-all at shutdown

	ArbitragePercent decimal.Decimal
	BandOrderLimit   int
	OrderAmount      decimal.Decimal

	// BasePrice anchors the initial ladder when positive; otherwise the
	// reference price is fetched at startup.
	BasePrice decimal.Decimal

	// EnforceBandLimit cancels the furthest rung when a mirror order would
	// push a side past BandOrderLimit.
	EnforceBandLimit bool
}

// Engine drives the reconciliation loop for one pair: snapshot, diff, infer
// fills, mirror, replenish, resync.
type Engine struct {
	cfg      Config
	cache    BookCache
	prices   venue.PriceSource
	gateway  *Gateway
	feed     PriceFeed
	reporter report.Reporter
	jitter   *Jitter
	logger   *slog.Logger

	// state is touched only by the engine goroutine after Start returns.
	state State

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// WithFeed attaches a push-based price feed, preferred over the REST ticker
// when it has a fresh price.
func WithFeed(feed PriceFeed) Option {
	return func(e *Engine) { e.feed = feed }
}

// WithReporter attaches a fill reporter.
func WithReporter(r report.Reporter) Option {
	return func(e *Engine) { e.reporter = r }
}

// WithJitter overrides the amount jitter source, used by tests for
// determinism.
func WithJitter(j *Jitter) Option {
	return func(e *Engine) { e.jitter = j }
}

// New creates a reconciliation engine.
func New(cfg Config, cache BookCache, prices venue.PriceSource, opts ...Option) *Engine {
	e := &Engine{
		cfg:    cfg,
		cache:  cache,
		prices: prices,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.jitter == nil {
		e.jitter = NewJitter(nil)
	}
	e.gateway = NewGateway(cache, e.logger)
	return e
}

// Start initializes the ladder (blocking) and begins the reconciliation
// loop. Initialization failure is fatal; the loop itself only logs.
func (e *Engine) Start(ctx context.Context) error {
	e.ctx, e.cancel = context.WithCancel(ctx)

	if err := e.initialize(e.ctx); err != nil {
		e.cancel()
		return fmt.Errorf("initialize ladder: %w", err)
	}

	e.wg.Add(1)
	go e.run()

	e.logger.Info("reconciliation engine started",
		"pair", e.cfg.Pair,
		"sync_interval", e.cfg.SyncInterval,
		"band_order_limit", e.cfg.BandOrderLimit,
		"enforce_band_limit", e.cfg.EnforceBandLimit,
	)
	return nil
}

// Stop halts the loop, then cancels every resting order. Call the book
// cache's Stop only after this returns: cancel-all needs its worker.
func (e *Engine) Stop(ctx context.Context) error {
	if e.cancel != nil {
		e.cancel()
	}
	e.wg.Wait()

	if err := e.cache.CancelAll(ctx, e.cfg.ShutdownTimeout); err != nil {
		return fmt.Errorf("cancel resting orders: %w", err)
	}
	e.logger.Info("reconciliation engine stopped", "pair", e.cfg.Pair)
	return nil
}

// initialize establishes the starting ladder. If orders are already resting
// on the venue (restart mid-session) they are adopted as-is; otherwise a
// fresh symmetric ladder is placed around the resolved base price.
func (e *Engine) initialize(ctx context.Context) error {
	snap := e.cache.Snapshot()
	if len(snap.Orders) > 0 {
		e.state = NewState(snap.Orders)
		e.logger.Info("adopted resting orders", "count", e.state.Len())
		return nil
	}

	base, err := e.basePrice(ctx)
	if err != nil {
		return err
	}

	intents := InitialLadder(base, e.cfg.ArbitragePercent, e.cfg.OrderAmount, e.cfg.BandOrderLimit, e.jitter)
	if err := e.gateway.Place(intents); err != nil {
		return err
	}
	e.logger.Info("initial ladder placed", "base_price", base, "orders", len(intents))

	if err := sleepCtx(ctx, e.cfg.SettleDelay); err != nil {
		return err
	}
	if err := e.cache.Refresh(ctx); err != nil {
		return err
	}
	e.state = NewState(e.cache.Snapshot().Orders)
	e.observeDepth()
	return nil
}

// basePrice resolves the anchor for the initial ladder: configured value,
// then feed, then REST ticker.
func (e *Engine) basePrice(ctx context.Context) (decimal.Decimal, error) {
	if e.cfg.BasePrice.IsPositive() {
		return e.cfg.BasePrice, nil
	}
	if e.feed != nil {
		if p, ok := e.feed.Price(); ok {
			return p, nil
		}
	}
	return e.prices.LastPrice(ctx, e.cfg.Pair)
}

// run ticks the reconciliation cycle. A cycle that overruns the interval
// simply delays the next one; the ticker drops missed ticks, so cycles
// never pile up or run concurrently.
func (e *Engine) run() {
	defer e.wg.Done()

	if err := sleepCtx(e.ctx, e.cfg.InitialDelay); err != nil {
		return
	}

	ticker := time.NewTicker(e.cfg.SyncInterval)
	defer ticker.Stop()

	for {
		select {
		case <-e.ctx.Done():
			return
		case <-ticker.C:
			e.syncOrders(e.ctx)
		}
	}
}

// syncOrders is one reconciliation cycle.
func (e *Engine) syncOrders(ctx context.Context) {
	started := time.Now()
	snap := e.cache.Snapshot()

	fills := e.state.Filled(snap.Orders)
	if len(fills) == 0 {
		// Nothing disappeared. New orders may still have landed (our own
		// replenishments confirming), so adopt the snapshot if it differs.
		if e.state.Len() != len(snap.Orders) {
			e.state = NewState(snap.Orders)
			e.observeDepth()
		}
		return
	}

	if snap.Placing || snap.Cancelling {
		// A disappeared id while operations are in flight is as likely a
		// half-registered placement as a fill. Defer the whole cycle; the
		// diff is recomputed from scratch next tick.
		metrics.DeferralsTotal.Inc()
		e.logger.Debug("cycle deferred, operations in flight",
			"fills", len(fills),
			"placing", snap.Placing,
			"cancelling", snap.Cancelling,
		)
		return
	}

	e.recordFills(ctx, fills)

	plan, err := BuildPlan(fills, snap.Orders, func() (decimal.Decimal, error) {
		return e.referencePrice(ctx)
	}, PlanConfig{
		ArbitragePercent: e.cfg.ArbitragePercent,
		BandOrderLimit:   e.cfg.BandOrderLimit,
		OrderAmount:      e.cfg.OrderAmount,
		EnforceBandLimit: e.cfg.EnforceBandLimit,
	}, e.jitter)
	if err != nil {
		// State is untouched: the same fills are reprocessed next cycle.
		e.logger.Warn("cycle skipped", "err", err)
		return
	}

	if len(plan.Cancels) > 0 {
		e.gateway.Cancel(plan.Cancels)
		e.settle(ctx)
	}
	if err := e.gateway.Place(plan.NewOrders); err != nil {
		e.logger.Warn("placement batch rejected", "err", err)
		return
	}
	if e.cfg.EnforceBandLimit {
		e.settle(ctx)
	}

	// Unconditional end-of-cycle resync. Orders still in flight at this
	// refresh are absent from the adopted snapshot; they are picked up by a
	// later cycle's cardinality check once the venue registers them. An
	// order placed and fully taken inside that window is never observed and
	// its fill is not mirrored.
	if err := e.cache.Refresh(ctx); err != nil {
		e.logger.Warn("end-of-cycle refresh failed, keeping cached snapshot", "err", err)
	}
	e.state = NewState(e.cache.Snapshot().Orders)
	e.observeDepth()

	metrics.CyclesTotal.Inc()
	metrics.CycleDuration.Observe(time.Since(started).Seconds())
	e.logger.Info("cycle complete",
		"fills", len(fills),
		"placed", len(plan.NewOrders),
		"cancelled", len(plan.Cancels),
		"resting", e.state.Len(),
		"took", time.Since(started),
	)
}

// referencePrice returns the freshest reference price available: the push
// feed when it has one, the venue REST ticker otherwise.
func (e *Engine) referencePrice(ctx context.Context) (decimal.Decimal, error) {
	if e.feed != nil {
		if p, ok := e.feed.Price(); ok {
			return p, nil
		}
	}
	return e.prices.LastPrice(ctx, e.cfg.Pair)
}

// recordFills reports inferred fills. Reporting is best-effort and never
// blocks the cycle on failure.
func (e *Engine) recordFills(ctx context.Context, fills []model.Order) {
	for _, fill := range fills {
		e.logger.Info("fill inferred",
			"order_id", fill.VenueOrderID,
			"side", fill.Side,
			"price", fill.Price,
			"base_amount", fill.BaseAmount,
		)
		metrics.FillsTotal.WithLabelValues(string(fill.Side)).Inc()

		if e.reporter == nil {
			continue
		}
		err := e.reporter.RecordFill(ctx, report.Fill{
			Pair:       fill.Pair,
			Side:       fill.Side,
			Price:      fill.Price,
			BaseAmount: fill.BaseAmount,
			QuoteValue: fill.QuoteAmount,
			FilledAt:   time.Now(),
		})
		if err != nil {
			e.logger.Warn("fill report failed", "order_id", fill.VenueOrderID, "err", err)
		}
	}
}

// settle gives in-flight operations time to land: a short pause, then a
// bounded poll of the cache's flags.
func (e *Engine) settle(ctx context.Context) {
	if err := sleepCtx(ctx, e.cfg.FlagPollInterval); err != nil {
		return
	}
	waitCtx, cancel := context.WithTimeout(ctx, e.cfg.FlagPollTimeout)
	defer cancel()
	if err := e.cache.WaitIdle(waitCtx); err != nil {
		e.logger.Warn("operations still in flight after settle window", "err", err)
	}
}

// observeDepth publishes per-side resting order counts.
func (e *Engine) observeDepth() {
	orders := e.state.Orders()
	metrics.LadderDepth.WithLabelValues(string(model.SideSell)).Set(float64(len(model.SellOrders(orders))))
	metrics.LadderDepth.WithLabelValues(string(model.SideBuy)).Set(float64(len(model.BuyOrders(orders))))
}

// sleepCtx sleeps for d unless the context ends first.
func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
