package config

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/driftline/market-surfer/internal/model"
)

// SurferConfig is the root configuration for a surfer instance.
type SurferConfig struct {
	Instance  InstanceConfig  `yaml:"instance"`
	Venue     VenueConfig     `yaml:"venue"`
	Book      BookConfig      `yaml:"book"`
	Engine    EngineConfig    `yaml:"engine"`
	PriceFeed PriceFeedConfig `yaml:"price_feed"`
	Reporting ReportingConfig `yaml:"reporting"`
	Metrics   MetricsConfig   `yaml:"metrics"`
	Pairs     []PairConfig    `yaml:"pairs"`
}

// InstanceConfig identifies this surfer.
type InstanceConfig struct {
	ID string `yaml:"id"`
}

// VenueConfig holds venue API settings.
type VenueConfig struct {
	Name       string        `yaml:"name"` // "bibox" or "okex"
	RestURL    string        `yaml:"rest_url"`
	APIKey     string        `yaml:"api_key"`
	Secret     string        `yaml:"secret"`
	Timeout    time.Duration `yaml:"timeout"`
	MaxRetries int           `yaml:"max_retries"`
}

// BookConfig holds order book cache settings.
type BookConfig struct {
	RefreshInterval time.Duration `yaml:"refresh_interval"`
	QueueSize       int           `yaml:"queue_size"`
}

// EngineConfig holds reconciliation engine settings.
type EngineConfig struct {
	SyncInterval     time.Duration `yaml:"sync_interval"`
	InitialDelay     time.Duration `yaml:"initial_delay"`
	SettleDelay      time.Duration `yaml:"settle_delay"`
	FlagPollInterval time.Duration `yaml:"flag_poll_interval"`
	FlagPollTimeout  time.Duration `yaml:"flag_poll_timeout"`
	ShutdownTimeout  time.Duration `yaml:"shutdown_timeout"`

	// EnforceBandLimit enables cancellation of rungs beyond the band limit
	// before replenishing. Defaults per venue when unset (okex: on).
	EnforceBandLimit *bool `yaml:"enforce_band_limit"`
}

// PriceFeedConfig holds the reference price feed settings.
type PriceFeedConfig struct {
	Source     string          `yaml:"source"` // "venue", "fixed" or "ws"
	URL        string          `yaml:"url"`
	FixedPrice decimal.Decimal `yaml:"fixed_price"`
	Expiry     time.Duration   `yaml:"expiry"`
}

// ReportingConfig holds the order history reporting settings.
type ReportingConfig struct {
	Endpoint string        `yaml:"endpoint"`
	Every    time.Duration `yaml:"every"`
}

// MetricsConfig holds Prometheus metrics settings.
type MetricsConfig struct {
	Port int    `yaml:"port"`
	Path string `yaml:"path"`
}

// PairConfig holds the band settings for one trading pair.
// Immutable for the process lifetime once loaded.
type PairConfig struct {
	Pair             string          `yaml:"pair"`
	TotalCapital     decimal.Decimal `yaml:"total_capital"`
	PerOrderFraction decimal.Decimal `yaml:"per_order_fraction"`
	ArbitragePercent decimal.Decimal `yaml:"arbitrage_percent"`
	BandOrderLimit   int             `yaml:"band_order_limit"`

	// BasePrice seeds the initial ladder. Zero means "use the venue's
	// last traded price".
	BasePrice decimal.Decimal `yaml:"base_price"`
}

// OrderAmount returns the unperturbed base amount of a single rung.
func (p PairConfig) OrderAmount() decimal.Decimal {
	return p.TotalCapital.Mul(p.PerOrderFraction)
}

// Bands returns the band configuration for the given pair, validated.
// A missing or invalid band section is an error the caller is expected to
// treat as "no bands configured" rather than fatal.
func (c *SurferConfig) Bands(pair model.Pair) (PairConfig, error) {
	for _, p := range c.Pairs {
		if model.Pair(p.Pair) == pair {
			if err := p.validate(); err != nil {
				return PairConfig{}, err
			}
			return p, nil
		}
	}
	return PairConfig{}, ErrNoBands
}
