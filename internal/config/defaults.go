package config

import "time"

// Default values for optional configuration fields.
const (
	DefaultVenueTimeout     = 10 * time.Second
	DefaultMaxRetries       = 3
	DefaultRefreshInterval  = 3 * time.Second
	DefaultQueueSize        = 64
	DefaultSyncInterval     = 10 * time.Second
	DefaultInitialDelay     = 10 * time.Second
	DefaultSettleDelay      = 5 * time.Second
	DefaultFlagPollInterval = 1 * time.Second
	DefaultFlagPollTimeout  = 30 * time.Second
	DefaultShutdownTimeout  = 30 * time.Second
	DefaultFeedSource       = "venue"
	DefaultFeedExpiry       = 120 * time.Second
	DefaultReportEvery      = 30 * time.Second
	DefaultMetricsPort      = 9090
	DefaultMetricsPath      = "/metrics"
)

func (c *SurferConfig) applyDefaults() {
	// Venue defaults
	if c.Venue.Timeout == 0 {
		c.Venue.Timeout = DefaultVenueTimeout
	}
	if c.Venue.MaxRetries == 0 {
		c.Venue.MaxRetries = DefaultMaxRetries
	}

	// Book defaults
	if c.Book.RefreshInterval == 0 {
		c.Book.RefreshInterval = DefaultRefreshInterval
	}
	if c.Book.QueueSize == 0 {
		c.Book.QueueSize = DefaultQueueSize
	}

	// Engine defaults
	if c.Engine.SyncInterval == 0 {
		c.Engine.SyncInterval = DefaultSyncInterval
	}
	if c.Engine.InitialDelay == 0 {
		c.Engine.InitialDelay = DefaultInitialDelay
	}
	if c.Engine.SettleDelay == 0 {
		c.Engine.SettleDelay = DefaultSettleDelay
	}
	if c.Engine.FlagPollInterval == 0 {
		c.Engine.FlagPollInterval = DefaultFlagPollInterval
	}
	if c.Engine.FlagPollTimeout == 0 {
		c.Engine.FlagPollTimeout = DefaultFlagPollTimeout
	}
	if c.Engine.ShutdownTimeout == 0 {
		c.Engine.ShutdownTimeout = DefaultShutdownTimeout
	}
	if c.Engine.EnforceBandLimit == nil {
		// The okex integration historically enforced the band limit by
		// cancelling the furthest rung; bibox did not.
		strict := c.Venue.Name == "okex"
		c.Engine.EnforceBandLimit = &strict
	}

	// Price feed defaults
	if c.PriceFeed.Source == "" {
		c.PriceFeed.Source = DefaultFeedSource
	}
	if c.PriceFeed.Expiry == 0 {
		c.PriceFeed.Expiry = DefaultFeedExpiry
	}

	// Reporting defaults
	if c.Reporting.Every == 0 {
		c.Reporting.Every = DefaultReportEvery
	}

	// Metrics defaults
	if c.Metrics.Port == 0 {
		c.Metrics.Port = DefaultMetricsPort
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = DefaultMetricsPath
	}
}
