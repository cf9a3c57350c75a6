package book

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/driftline/market-surfer/internal/model"
	"github.com/driftline/market-surfer/internal/venue"
)

// Config holds order book cache configuration.
type Config struct {
	RefreshInterval  time.Duration // snapshot refresh period (default: 3s)
	QueueSize        int           // place/cancel queue capacity (default: 64)
	CallTimeout      time.Duration // per venue call (default: 30s)
	IdlePollInterval time.Duration // WaitIdle poll period (default: 1s)
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		RefreshInterval:  3 * time.Second,
		QueueSize:        64,
		CallTimeout:      30 * time.Second,
		IdlePollInterval: time.Second,
	}
}

type placeRequest struct {
	id     uuid.UUID
	intent model.OrderIntent
}

type cancelRequest struct {
	id           uuid.UUID
	venueOrderID string
}

// Manager periodically refreshes the remote snapshot and runs the
// asynchronous place/cancel queue against the venue adapter.
type Manager struct {
	cfg     Config
	adapter venue.Adapter
	pair    model.Pair
	logger  *slog.Logger

	mu       sync.RWMutex
	orders   []model.Order
	balances []model.Balance
	taken    time.Time

	placing    atomic.Int64
	cancelling atomic.Int64

	placeCh  chan placeRequest
	cancelCh chan cancelRequest

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a new order book cache for one pair.
func New(cfg Config, adapter venue.Adapter, pair model.Pair, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		cfg:      cfg,
		adapter:  adapter,
		pair:     pair,
		logger:   logger,
		placeCh:  make(chan placeRequest, cfg.QueueSize),
		cancelCh: make(chan cancelRequest, cfg.QueueSize),
	}
}

// Start primes the snapshot with a blocking first refresh, then begins the
// background refresh loop and the submission worker. A failing first
// refresh is fatal: it means credentials or connectivity are broken.
func (m *Manager) Start(ctx context.Context) error {
	m.ctx, m.cancel = context.WithCancel(ctx)

	if err := m.Refresh(m.ctx); err != nil {
		m.cancel()
		return err
	}

	m.wg.Add(2)
	go m.refreshLoop()
	go m.submitLoop()

	m.logger.Info("order book cache started",
		"pair", m.pair,
		"refresh_interval", m.cfg.RefreshInterval,
	)
	return nil
}

// Stop shuts down the background loops.
func (m *Manager) Stop(ctx context.Context) error {
	if m.cancel != nil {
		m.cancel()
	}

	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		m.logger.Info("order book cache stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Snapshot returns the latest snapshot without touching the network.
func (m *Manager) Snapshot() model.RemoteSnapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	orders := make([]model.Order, len(m.orders))
	copy(orders, m.orders)
	balances := make([]model.Balance, len(m.balances))
	copy(balances, m.balances)

	return model.RemoteSnapshot{
		Orders:     orders,
		Balances:   balances,
		Placing:    m.placing.Load() > 0,
		Cancelling: m.cancelling.Load() > 0,
		Taken:      m.taken,
	}
}

// Refresh pulls open orders and balances from the venue and swaps the
// snapshot. Used by the background loop and by callers that need a fresh
// pull right now (end-of-cycle resync, shutdown).
func (m *Manager) Refresh(ctx context.Context) error {
	callCtx, cancel := context.WithTimeout(ctx, m.cfg.CallTimeout)
	defer cancel()

	orders, err := m.adapter.OpenOrders(callCtx, m.pair)
	if err != nil {
		return err
	}
	balances, err := m.adapter.Balances(callCtx)
	if err != nil {
		return err
	}

	m.mu.Lock()
	m.orders = orders
	m.balances = balances
	m.taken = time.Now()
	m.mu.Unlock()

	return nil
}

// EnqueuePlace queues an order for asynchronous placement. The Placing flag
// is raised before this returns so a snapshot read immediately afterwards
// already reports the in-flight operation.
func (m *Manager) EnqueuePlace(intent model.OrderIntent) {
	m.placing.Add(1)
	m.placeCh <- placeRequest{id: uuid.New(), intent: intent}
}

// EnqueueCancel queues a cancellation by venue order id.
func (m *Manager) EnqueueCancel(venueOrderID string) {
	m.cancelling.Add(1)
	m.cancelCh <- cancelRequest{id: uuid.New(), venueOrderID: venueOrderID}
}

// WaitIdle blocks until no place/cancel operations are outstanding, polling
// on the configured interval. Returns ctx.Err() if the deadline passes first.
func (m *Manager) WaitIdle(ctx context.Context) error {
	for {
		if m.placing.Load() == 0 && m.cancelling.Load() == 0 {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(m.cfg.IdlePollInterval):
		}
	}
}

// CancelAll cancels every resting order for the pair, waiting up to the
// given timeout for the venue to confirm. Cancellations still unconfirmed
// at the deadline are abandoned, not retried.
func (m *Manager) CancelAll(ctx context.Context, timeout time.Duration) error {
	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := m.Refresh(waitCtx); err != nil {
		m.logger.Warn("cancel all: refresh failed, using cached snapshot", "err", err)
	}

	snap := m.Snapshot()
	for _, o := range snap.Orders {
		m.EnqueueCancel(o.VenueOrderID)
	}
	m.logger.Info("cancelling all resting orders", "count", len(snap.Orders))

	if err := m.WaitIdle(waitCtx); err != nil {
		abandoned := m.placing.Load() + m.cancelling.Load()
		m.logger.Warn("cancel all: deadline passed, abandoning unconfirmed operations",
			"abandoned", abandoned,
		)
		return err
	}
	return nil
}

// refreshLoop keeps the snapshot fresh in the background.
func (m *Manager) refreshLoop() {
	defer m.wg.Done()

	ticker := time.NewTicker(m.cfg.RefreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-m.ctx.Done():
			return
		case <-ticker.C:
			if err := m.Refresh(m.ctx); err != nil {
				// Stale snapshots are tolerated; consumers see the old one.
				m.logger.Warn("snapshot refresh failed", "err", err)
			}
		}
	}
}

// submitLoop drains the place/cancel queues one operation at a time. The
// adapter owns retry, so a returned error here is final for that operation.
func (m *Manager) submitLoop() {
	defer m.wg.Done()

	for {
		select {
		case <-m.ctx.Done():
			return
		case req := <-m.placeCh:
			m.doPlace(req)
		case req := <-m.cancelCh:
			m.doCancel(req)
		}
	}
}

func (m *Manager) doPlace(req placeRequest) {
	defer m.placing.Add(-1)

	callCtx, cancel := context.WithTimeout(m.ctx, m.cfg.CallTimeout)
	defer cancel()

	orderID, err := m.adapter.PlaceOrder(callCtx, m.pair, req.intent)
	if err != nil {
		m.logger.Warn("order placement failed",
			"intent_id", req.id,
			"side", req.intent.Side,
			"price", req.intent.Price,
			"err", err,
		)
		return
	}

	m.logger.Info("order placed",
		"intent_id", req.id,
		"order_id", orderID,
		"side", req.intent.Side,
		"price", req.intent.Price,
		"base_amount", req.intent.BaseAmount,
	)
}

func (m *Manager) doCancel(req cancelRequest) {
	defer m.cancelling.Add(-1)

	callCtx, cancel := context.WithTimeout(m.ctx, m.cfg.CallTimeout)
	defer cancel()

	if err := m.adapter.CancelOrder(callCtx, m.pair, req.venueOrderID); err != nil {
		m.logger.Warn("order cancellation failed",
			"intent_id", req.id,
			"order_id", req.venueOrderID,
			"err", err,
		)
		return
	}

	m.logger.Info("order cancelled",
		"intent_id", req.id,
		"order_id", req.venueOrderID,
	)
}
