package model

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestPair(t *testing.T) {
	tests := []struct {
		pair  Pair
		base  string
		quote string
		valid bool
	}{
		{"BIX_ETH", "BIX", "ETH", true},
		{"bix_eth", "BIX", "ETH", true},
		{"ltc_btc", "LTC", "BTC", true},
		{"BIXETH", "BIXETH", "", false},
		{"_ETH", "", "ETH", false},
		{"", "", "", false},
	}

	for _, tt := range tests {
		if got := tt.pair.Base(); got != tt.base {
			t.Errorf("Pair(%q).Base() = %q, want %q", tt.pair, got, tt.base)
		}
		if got := tt.pair.Quote(); got != tt.quote {
			t.Errorf("Pair(%q).Quote() = %q, want %q", tt.pair, got, tt.quote)
		}
		if got := tt.pair.Valid(); got != tt.valid {
			t.Errorf("Pair(%q).Valid() = %v, want %v", tt.pair, got, tt.valid)
		}
	}
}

func TestSideOpposite(t *testing.T) {
	if got := SideBuy.Opposite(); got != SideSell {
		t.Errorf("SideBuy.Opposite() = %v, want sell", got)
	}
	if got := SideSell.Opposite(); got != SideBuy {
		t.Errorf("SideSell.Opposite() = %v, want buy", got)
	}
}

func TestSideFilters(t *testing.T) {
	orders := []Order{
		{VenueOrderID: "1", Side: SideSell, Price: decimal.NewFromInt(101)},
		{VenueOrderID: "2", Side: SideSell, Price: decimal.NewFromInt(102)},
		{VenueOrderID: "3", Side: SideBuy, Price: decimal.NewFromInt(99)},
	}

	if got := len(SellOrders(orders)); got != 2 {
		t.Errorf("SellOrders len = %d, want 2", got)
	}
	if got := len(BuyOrders(orders)); got != 1 {
		t.Errorf("BuyOrders len = %d, want 1", got)
	}
	if got := CountSide(orders, SideSell); got != 2 {
		t.Errorf("CountSide(sell) = %d, want 2", got)
	}
	if got := CountSide(nil, SideBuy); got != 0 {
		t.Errorf("CountSide(nil) = %d, want 0", got)
	}
}
