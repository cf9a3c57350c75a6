package ladder

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/driftline/market-surfer/internal/model"
)

// fakeCache is an in-memory BookCache. Refresh materializes enqueued
// placements into snapshot orders, mimicking the venue registering them.
type fakeCache struct {
	mu           sync.Mutex
	orders       []model.Order
	placing      bool
	cancelling   bool
	placed       []model.OrderIntent
	cancelled    []string
	materialized int
	cancelledAll bool
}

func (f *fakeCache) Snapshot() model.RemoteSnapshot {
	f.mu.Lock()
	defer f.mu.Unlock()

	orders := make([]model.Order, len(f.orders))
	copy(orders, f.orders)
	return model.RemoteSnapshot{
		Orders:     orders,
		Placing:    f.placing,
		Cancelling: f.cancelling,
		Taken:      time.Now(),
	}
}

func (f *fakeCache) Refresh(_ context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	for ; f.materialized < len(f.placed); f.materialized++ {
		intent := f.placed[f.materialized]
		f.orders = append(f.orders, model.Order{
			VenueOrderID: fmt.Sprintf("p%d", f.materialized+1),
			Pair:         "ETH_BTC",
			Side:         intent.Side,
			Price:        intent.Price,
			BaseAmount:   intent.BaseAmount,
			QuoteAmount:  intent.QuoteAmount,
		})
	}
	return nil
}

func (f *fakeCache) EnqueuePlace(intent model.OrderIntent) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.placed = append(f.placed, intent)
}

func (f *fakeCache) EnqueueCancel(venueOrderID string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.cancelled = append(f.cancelled, venueOrderID)
	kept := f.orders[:0]
	for _, o := range f.orders {
		if o.VenueOrderID != venueOrderID {
			kept = append(kept, o)
		}
	}
	f.orders = kept
}

func (f *fakeCache) WaitIdle(_ context.Context) error { return nil }

func (f *fakeCache) CancelAll(_ context.Context, _ time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cancelledAll = true
	f.orders = nil
	return nil
}

type fakePrices struct {
	price decimal.Decimal
	err   error
}

func (p *fakePrices) LastPrice(_ context.Context, _ model.Pair) (decimal.Decimal, error) {
	return p.price, p.err
}

func testEngineConfig() Config {
	return Config{
		Pair:             "ETH_BTC",
		SyncInterval:     10 * time.Second,
		InitialDelay:     time.Hour, // loop stays quiet during the test
		SettleDelay:      0,
		FlagPollInterval: 0,
		FlagPollTimeout:  time.Second,
		ShutdownTimeout:  time.Second,
		ArbitragePercent: decimal.RequireFromString("0.01"),
		BandOrderLimit:   3,
		OrderAmount:      decimal.RequireFromString("1"),
		BasePrice:        decimal.RequireFromString("100"),
	}
}

func TestEngineInitializesSymmetricLadder(t *testing.T) {
	cache := &fakeCache{}
	eng := New(testEngineConfig(), cache, &fakePrices{}, WithJitter(testJitter()))

	if err := eng.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer eng.Stop(context.Background())

	if len(cache.placed) != 6 {
		t.Fatalf("placed %d orders, want 6", len(cache.placed))
	}

	wantSells := map[string]bool{"101": false, "102": false, "103": false}
	wantBuys := map[string]bool{"99": false, "98": false, "97": false}
	for _, intent := range cache.placed {
		price := intent.Price.String()
		switch intent.Side {
		case model.SideSell:
			if _, ok := wantSells[price]; !ok {
				t.Errorf("unexpected sell rung at %s", price)
			}
			wantSells[price] = true
		case model.SideBuy:
			if _, ok := wantBuys[price]; !ok {
				t.Errorf("unexpected buy rung at %s", price)
			}
			wantBuys[price] = true
		}
	}
	for price, seen := range wantSells {
		if !seen {
			t.Errorf("missing sell rung at %s", price)
		}
	}
	for price, seen := range wantBuys {
		if !seen {
			t.Errorf("missing buy rung at %s", price)
		}
	}

	if eng.state.Len() != 6 {
		t.Errorf("state tracks %d orders, want 6", eng.state.Len())
	}
}

func TestEngineAdoptsRestingOrdersOnStart(t *testing.T) {
	cache := &fakeCache{orders: []model.Order{
		order("id1", model.SideSell, "101"),
		order("id2", model.SideBuy, "99"),
	}}
	eng := New(testEngineConfig(), cache, &fakePrices{}, WithJitter(testJitter()))

	if err := eng.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer eng.Stop(context.Background())

	if len(cache.placed) != 0 {
		t.Errorf("placed %d orders on restart, want 0", len(cache.placed))
	}
	if eng.state.Len() != 2 {
		t.Errorf("state tracks %d orders, want 2", eng.state.Len())
	}
}

func TestEngineSyncNoFillsIsNoop(t *testing.T) {
	orders := []model.Order{
		order("id1", model.SideSell, "101"),
		order("id2", model.SideBuy, "99"),
	}
	cache := &fakeCache{orders: orders}
	eng := New(testEngineConfig(), cache, &fakePrices{}, WithJitter(testJitter()))
	eng.state = NewState(orders)

	eng.syncOrders(context.Background())

	if len(cache.placed) != 0 || len(cache.cancelled) != 0 {
		t.Errorf("steady state produced activity: placed=%d cancelled=%d",
			len(cache.placed), len(cache.cancelled))
	}
}

func TestEngineSyncAdoptsNewRemoteOrders(t *testing.T) {
	known := order("id1", model.SideSell, "101")
	cache := &fakeCache{orders: []model.Order{
		known,
		order("id2", model.SideBuy, "99"), // landed since the last resync
	}}
	eng := New(testEngineConfig(), cache, &fakePrices{}, WithJitter(testJitter()))
	eng.state = NewState([]model.Order{known})

	eng.syncOrders(context.Background())

	if len(cache.placed) != 0 {
		t.Errorf("placed %d orders, want 0", len(cache.placed))
	}
	if eng.state.Len() != 2 {
		t.Errorf("state tracks %d orders after adoption, want 2", eng.state.Len())
	}
}

func TestEngineSyncDefersWhileInFlight(t *testing.T) {
	cache := &fakeCache{
		orders:  []model.Order{order("id2", model.SideSell, "102")},
		placing: true,
	}
	eng := New(testEngineConfig(), cache, &fakePrices{}, WithJitter(testJitter()))
	eng.state = NewState([]model.Order{
		order("id1", model.SideSell, "101"), // looks filled, but ops in flight
		order("id2", model.SideSell, "102"),
	})

	eng.syncOrders(context.Background())

	if len(cache.placed) != 0 {
		t.Errorf("placed %d orders during deferral, want 0", len(cache.placed))
	}
	if eng.state.Len() != 2 {
		t.Errorf("state changed during deferral: %d orders, want 2", eng.state.Len())
	}
}

func TestEngineSyncFillCycle(t *testing.T) {
	cache := &fakeCache{orders: []model.Order{
		order("id2", model.SideSell, "102"),
		order("id3", model.SideBuy, "99"),
	}}
	eng := New(testEngineConfig(), cache, &fakePrices{price: decimal.RequireFromString("100")},
		WithJitter(testJitter()))
	eng.state = NewState([]model.Order{
		order("id1", model.SideSell, "101"),
		order("id2", model.SideSell, "102"),
		order("id3", model.SideBuy, "99"),
	})

	eng.syncOrders(context.Background())

	if len(cache.placed) != 2 {
		t.Fatalf("placed %d orders, want 2", len(cache.placed))
	}

	mirror := cache.placed[0]
	if mirror.Side != model.SideBuy {
		t.Errorf("mirror side = %s, want buy", mirror.Side)
	}
	if want := decimal.RequireFromString("99.99"); !mirror.Price.Equal(want) {
		t.Errorf("mirror price = %s, want %s", mirror.Price, want)
	}

	repl := cache.placed[1]
	if repl.Side != model.SideSell {
		t.Errorf("replenishment side = %s, want sell", repl.Side)
	}
	if want := decimal.RequireFromString("102"); !repl.Price.Equal(want) {
		t.Errorf("replenishment price = %s, want %s", repl.Price, want)
	}

	// End-of-cycle resync adopted both placements.
	if eng.state.Len() != 4 {
		t.Errorf("state tracks %d orders after resync, want 4", eng.state.Len())
	}
}

func TestEngineSyncSkipsCycleOnPriceError(t *testing.T) {
	cache := &fakeCache{orders: []model.Order{order("id2", model.SideSell, "102")}}
	eng := New(testEngineConfig(), cache,
		&fakePrices{err: fmt.Errorf("ticker down")}, WithJitter(testJitter()))
	eng.state = NewState([]model.Order{
		order("id1", model.SideSell, "101"),
		order("id2", model.SideSell, "102"),
	})

	eng.syncOrders(context.Background())

	if len(cache.placed) != 0 {
		t.Errorf("placed %d orders on a skipped cycle, want 0", len(cache.placed))
	}
	// The fill stays pending in local state for the next cycle.
	if eng.state.Len() != 2 {
		t.Errorf("state changed on a skipped cycle: %d orders, want 2", eng.state.Len())
	}
}

func TestEngineStopCancelsRestingOrders(t *testing.T) {
	cache := &fakeCache{orders: []model.Order{order("id1", model.SideSell, "101")}}
	eng := New(testEngineConfig(), cache, &fakePrices{}, WithJitter(testJitter()))

	if err := eng.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if err := eng.Stop(context.Background()); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}

	if !cache.cancelledAll {
		t.Error("Stop() did not cancel resting orders")
	}
}
