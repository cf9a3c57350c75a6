package book

import (
	"context"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/driftline/market-surfer/internal/model"
)

// fakeAdapter is an in-memory venue: placed orders rest until cancelled.
type fakeAdapter struct {
	mu      sync.Mutex
	orders  map[string]model.Order
	nextID  int
	release chan struct{} // when set, PlaceOrder blocks until signalled
}

func newFakeAdapter() *fakeAdapter {
	return &fakeAdapter{orders: make(map[string]model.Order)}
}

func (f *fakeAdapter) Name() string { return "fake" }

func (f *fakeAdapter) OpenOrders(ctx context.Context, pair model.Pair) ([]model.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]model.Order, 0, len(f.orders))
	for _, o := range f.orders {
		out = append(out, o)
	}
	return out, nil
}

func (f *fakeAdapter) Balances(ctx context.Context) ([]model.Balance, error) {
	return []model.Balance{{Asset: "ETH", Free: decimal.NewFromInt(1)}}, nil
}

func (f *fakeAdapter) PlaceOrder(ctx context.Context, pair model.Pair, intent model.OrderIntent) (string, error) {
	if f.release != nil {
		select {
		case <-f.release:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	id := strconv.Itoa(f.nextID)
	f.orders[id] = model.Order{
		VenueOrderID: id,
		Pair:         pair,
		Side:         intent.Side,
		Price:        intent.Price,
		BaseAmount:   intent.BaseAmount,
		QuoteAmount:  intent.QuoteAmount,
		CreatedAt:    time.Now(),
	}
	return id, nil
}

func (f *fakeAdapter) CancelOrder(ctx context.Context, pair model.Pair, venueOrderID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.orders, venueOrderID)
	return nil
}

func (f *fakeAdapter) LastPrice(ctx context.Context, pair model.Pair) (decimal.Decimal, error) {
	return decimal.NewFromInt(100), nil
}

func testConfig() Config {
	return Config{
		RefreshInterval:  10 * time.Millisecond,
		QueueSize:        16,
		CallTimeout:      time.Second,
		IdlePollInterval: 5 * time.Millisecond,
	}
}

func startManager(t *testing.T, adapter *fakeAdapter) *Manager {
	t.Helper()
	m := New(testConfig(), adapter, "BIX_ETH", nil)
	if err := m.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		m.Stop(ctx)
	})
	return m
}

func intent(side model.Side, price int64) model.OrderIntent {
	p := decimal.NewFromInt(price)
	amt := decimal.NewFromInt(2)
	return model.OrderIntent{Side: side, Price: p, BaseAmount: amt, QuoteAmount: p.Mul(amt)}
}

func TestStartPrimesSnapshot(t *testing.T) {
	adapter := newFakeAdapter()
	adapter.orders["7"] = model.Order{VenueOrderID: "7", Side: model.SideSell}

	m := startManager(t, adapter)

	snap := m.Snapshot()
	if len(snap.Orders) != 1 || snap.Orders[0].VenueOrderID != "7" {
		t.Errorf("snapshot orders = %+v, want the pre-existing order", snap.Orders)
	}
	if snap.Taken.IsZero() {
		t.Error("snapshot Taken should be set after first refresh")
	}
	if snap.Placing || snap.Cancelling {
		t.Error("no operations in flight, flags must be clear")
	}
}

func TestPlacingFlagLifecycle(t *testing.T) {
	adapter := newFakeAdapter()
	adapter.release = make(chan struct{})

	m := startManager(t, adapter)

	m.EnqueuePlace(intent(model.SideSell, 101))

	if snap := m.Snapshot(); !snap.Placing {
		t.Error("Placing flag must be up immediately after enqueue")
	}

	close(adapter.release)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := m.WaitIdle(ctx); err != nil {
		t.Fatalf("WaitIdle: %v", err)
	}
	if snap := m.Snapshot(); snap.Placing {
		t.Error("Placing flag must clear once the worker is done")
	}

	if err := m.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if snap := m.Snapshot(); len(snap.Orders) != 1 {
		t.Errorf("orders = %d, want 1 after placement", len(snap.Orders))
	}
}

func TestWaitIdleDeadline(t *testing.T) {
	adapter := newFakeAdapter()
	adapter.release = make(chan struct{}) // never released

	m := startManager(t, adapter)
	m.EnqueuePlace(intent(model.SideBuy, 99))

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	if err := m.WaitIdle(ctx); err == nil {
		t.Error("WaitIdle should report the deadline while an operation is stuck")
	}
	close(adapter.release)
}

func TestCancelAll(t *testing.T) {
	adapter := newFakeAdapter()
	for i := 0; i < 3; i++ {
		id := strconv.Itoa(100 + i)
		adapter.orders[id] = model.Order{VenueOrderID: id, Side: model.SideSell}
	}

	m := startManager(t, adapter)

	if err := m.CancelAll(context.Background(), time.Second); err != nil {
		t.Fatalf("CancelAll: %v", err)
	}

	adapter.mu.Lock()
	remaining := len(adapter.orders)
	adapter.mu.Unlock()
	if remaining != 0 {
		t.Errorf("venue still has %d orders after CancelAll", remaining)
	}
}

func TestSnapshotIsACopy(t *testing.T) {
	adapter := newFakeAdapter()
	adapter.orders["1"] = model.Order{VenueOrderID: "1", Side: model.SideSell}

	m := startManager(t, adapter)

	snap := m.Snapshot()
	snap.Orders[0].VenueOrderID = "mutated"

	if got := m.Snapshot().Orders[0].VenueOrderID; got != "1" {
		t.Errorf("cache order id = %q, snapshot must be a copy", got)
	}
}
