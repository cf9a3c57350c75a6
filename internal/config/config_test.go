package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/driftline/market-surfer/internal/model"
)

const testConfig = `
instance:
  id: surfer-test

venue:
  name: okex
  rest_url: https://www.okex.com/api/v1
  api_key: ${SURFER_TEST_API_KEY}
  secret: test-secret

pairs:
  - pair: BIX_ETH
    total_capital: "2000"
    per_order_fraction: "0.1"
    arbitrage_percent: "0.01"
    band_order_limit: 3
  - pair: BADPAIR
    total_capital: "100"
    per_order_fraction: "0.1"
    arbitrage_percent: "0.01"
    band_order_limit: 3
  - pair: LTC_BTC
    total_capital: "-5"
    per_order_fraction: "0.1"
    arbitrage_percent: "0.01"
    band_order_limit: 3
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "surfer.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadAndValidate(t *testing.T) {
	t.Setenv("SURFER_TEST_API_KEY", "key-from-env")

	cfg, err := LoadAndValidate(writeConfig(t, testConfig))
	if err != nil {
		t.Fatalf("LoadAndValidate: %v", err)
	}

	if cfg.Venue.APIKey != "key-from-env" {
		t.Errorf("APIKey = %q, want env-expanded value", cfg.Venue.APIKey)
	}
	if cfg.Venue.Timeout != DefaultVenueTimeout {
		t.Errorf("Timeout = %v, want default %v", cfg.Venue.Timeout, DefaultVenueTimeout)
	}
	if cfg.Engine.SyncInterval != DefaultSyncInterval {
		t.Errorf("SyncInterval = %v, want default %v", cfg.Engine.SyncInterval, DefaultSyncInterval)
	}
	if cfg.Engine.EnforceBandLimit == nil || !*cfg.Engine.EnforceBandLimit {
		t.Error("EnforceBandLimit should default to true for okex")
	}
	if cfg.Metrics.Port != DefaultMetricsPort {
		t.Errorf("Metrics.Port = %d, want %d", cfg.Metrics.Port, DefaultMetricsPort)
	}
}

func TestBands(t *testing.T) {
	t.Setenv("SURFER_TEST_API_KEY", "k")

	cfg, err := LoadAndValidate(writeConfig(t, testConfig))
	if err != nil {
		t.Fatalf("LoadAndValidate: %v", err)
	}

	bands, err := cfg.Bands(model.Pair("BIX_ETH"))
	if err != nil {
		t.Fatalf("Bands(BIX_ETH): %v", err)
	}
	if bands.BandOrderLimit != 3 {
		t.Errorf("BandOrderLimit = %d, want 3", bands.BandOrderLimit)
	}
	want := decimal.NewFromInt(200)
	if !bands.OrderAmount().Equal(want) {
		t.Errorf("OrderAmount = %s, want %s", bands.OrderAmount(), want)
	}

	// Unknown pair degrades, it is not fatal.
	if _, err := cfg.Bands(model.Pair("XRP_BTC")); !errors.Is(err, ErrNoBands) {
		t.Errorf("Bands(XRP_BTC) err = %v, want ErrNoBands", err)
	}

	// Malformed band sections surface an error on lookup only.
	if _, err := cfg.Bands(model.Pair("BADPAIR")); err == nil {
		t.Error("Bands(BADPAIR) should fail: pair not in BASE_QUOTE form")
	}
	if _, err := cfg.Bands(model.Pair("LTC_BTC")); err == nil {
		t.Error("Bands(LTC_BTC) should fail: negative total_capital")
	}
}

func TestValidateErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*SurferConfig)
	}{
		{"missing instance id", func(c *SurferConfig) { c.Instance.ID = "" }},
		{"unknown venue", func(c *SurferConfig) { c.Venue.Name = "bitfinex" }},
		{"missing api key", func(c *SurferConfig) { c.Venue.APIKey = "" }},
		{"missing secret", func(c *SurferConfig) { c.Venue.Secret = "" }},
		{"bad metrics port", func(c *SurferConfig) { c.Metrics.Port = 70000 }},
		{"ws feed without url", func(c *SurferConfig) { c.PriceFeed.Source = "ws" }},
		{"fixed feed without price", func(c *SurferConfig) { c.PriceFeed.Source = "fixed" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &SurferConfig{
				Instance: InstanceConfig{ID: "x"},
				Venue: VenueConfig{
					Name:    "bibox",
					RestURL: "https://api.bibox.com",
					APIKey:  "k",
					Secret:  "s",
				},
			}
			cfg.applyDefaults()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("Validate() = nil, want error")
			}
		})
	}
}
