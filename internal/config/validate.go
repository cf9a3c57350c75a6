package config

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/driftline/market-surfer/internal/model"
)

// ErrNoBands is returned when a pair has no band configuration.
var ErrNoBands = errors.New("no bands configured for pair")

var one = decimal.NewFromInt(1)

var knownVenues = map[string]bool{
	"bibox": true,
	"okex":  true,
}

// Validate checks that all required fields are set and values are valid.
// Per-pair band sections are deliberately not validated here; Bands()
// validates on lookup so a bad pair degrades instead of aborting startup.
func (c *SurferConfig) Validate() error {
	if c.Instance.ID == "" {
		return errors.New("instance.id is required")
	}

	if !knownVenues[c.Venue.Name] {
		return fmt.Errorf("venue.name must be one of bibox, okex; got %q", c.Venue.Name)
	}
	if c.Venue.RestURL == "" {
		return errors.New("venue.rest_url is required")
	}
	if c.Venue.APIKey == "" {
		return errors.New("venue.api_key is required")
	}
	if c.Venue.Secret == "" {
		return errors.New("venue.secret is required")
	}

	if c.Book.QueueSize < 1 {
		return errors.New("book.queue_size must be >= 1")
	}

	switch c.PriceFeed.Source {
	case "venue":
	case "fixed":
		if c.PriceFeed.FixedPrice.Sign() <= 0 {
			return errors.New("price_feed.fixed_price must be positive for source=fixed")
		}
	case "ws":
		if c.PriceFeed.URL == "" {
			return errors.New("price_feed.url is required for source=ws")
		}
	default:
		return fmt.Errorf("price_feed.source must be one of venue, fixed, ws; got %q", c.PriceFeed.Source)
	}

	if c.Metrics.Port < 1 || c.Metrics.Port > 65535 {
		return fmt.Errorf("metrics.port must be between 1 and 65535, got %d", c.Metrics.Port)
	}

	return nil
}

func (p PairConfig) validate() error {
	if !model.Pair(p.Pair).Valid() {
		return fmt.Errorf("pair %q is not in BASE_QUOTE form", p.Pair)
	}
	if p.TotalCapital.Sign() <= 0 {
		return fmt.Errorf("pair %s: total_capital must be positive", p.Pair)
	}
	if p.PerOrderFraction.Sign() <= 0 || p.PerOrderFraction.GreaterThan(one) {
		return fmt.Errorf("pair %s: per_order_fraction must be in (0, 1]", p.Pair)
	}
	if p.ArbitragePercent.Sign() <= 0 || !p.ArbitragePercent.LessThan(one) {
		return fmt.Errorf("pair %s: arbitrage_percent must be in (0, 1)", p.Pair)
	}
	if p.BandOrderLimit < 1 {
		return fmt.Errorf("pair %s: band_order_limit must be >= 1", p.Pair)
	}
	if p.BasePrice.Sign() < 0 {
		return fmt.Errorf("pair %s: base_price cannot be negative", p.Pair)
	}
	return nil
}
