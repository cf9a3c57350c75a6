package feed

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/driftline/market-surfer/internal/model"
)

type stubSource struct {
	price decimal.Decimal
	err   error
	calls int
}

func (s *stubSource) LastPrice(_ context.Context, _ model.Pair) (decimal.Decimal, error) {
	s.calls++
	return s.price, s.err
}

func TestFixedPrice(t *testing.T) {
	f := NewFixed(decimal.RequireFromString("0.035"))

	price, ok := f.Price()
	if !ok {
		t.Fatal("Price() ok = false, want true")
	}
	if want := decimal.RequireFromString("0.035"); !price.Equal(want) {
		t.Errorf("Price() = %s, want %s", price, want)
	}
}

func TestVenueLastPriceAfterPoll(t *testing.T) {
	src := &stubSource{price: decimal.RequireFromString("100")}
	v := NewVenueLast(src, "ETH_BTC", time.Second, time.Minute, nil)

	if _, ok := v.Price(); ok {
		t.Fatal("Price() ok = true before any poll")
	}

	if err := v.poll(context.Background()); err != nil {
		t.Fatalf("poll() error = %v", err)
	}

	price, ok := v.Price()
	if !ok {
		t.Fatal("Price() ok = false after poll")
	}
	if want := decimal.RequireFromString("100"); !price.Equal(want) {
		t.Errorf("Price() = %s, want %s", price, want)
	}
}

func TestVenueLastPriceExpires(t *testing.T) {
	src := &stubSource{price: decimal.RequireFromString("100")}
	v := NewVenueLast(src, "ETH_BTC", time.Second, 50*time.Millisecond, nil)

	if err := v.poll(context.Background()); err != nil {
		t.Fatalf("poll() error = %v", err)
	}

	v.mu.Lock()
	v.updated = time.Now().Add(-time.Second)
	v.mu.Unlock()

	if _, ok := v.Price(); ok {
		t.Error("Price() ok = true for an expired price")
	}
}

func TestVenueLastPollError(t *testing.T) {
	src := &stubSource{err: errors.New("ticker down")}
	v := NewVenueLast(src, "ETH_BTC", time.Second, time.Minute, nil)

	if err := v.poll(context.Background()); err == nil {
		t.Fatal("poll() error = nil, want error")
	}
	if _, ok := v.Price(); ok {
		t.Error("Price() ok = true after a failed poll")
	}
}

func TestVenueLastStartSurvivesFailedFirstFetch(t *testing.T) {
	src := &stubSource{err: errors.New("ticker down")}
	v := NewVenueLast(src, "ETH_BTC", time.Hour, time.Minute, nil)

	if err := v.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer v.Stop(context.Background())

	if _, ok := v.Price(); ok {
		t.Error("Price() ok = true with no successful fetch")
	}
}
