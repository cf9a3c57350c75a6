package report

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/driftline/market-surfer/internal/model"
)

// OrderSource supplies the current resting orders for publishing.
type OrderSource func() []model.Order

// Publisher periodically posts the resting ladder to an HTTP reporter.
type Publisher struct {
	reporter *HTTPReporter
	pair     model.Pair
	source   OrderSource
	interval time.Duration
	logger   *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewPublisher creates a publisher reporting every interval.
func NewPublisher(reporter *HTTPReporter, pair model.Pair, source OrderSource, interval time.Duration, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{
		reporter: reporter,
		pair:     pair,
		source:   source,
		interval: interval,
		logger:   logger,
	}
}

// Start begins the publishing loop.
func (p *Publisher) Start(ctx context.Context) error {
	p.ctx, p.cancel = context.WithCancel(ctx)
	p.wg.Add(1)
	go p.run()
	p.logger.Info("ladder publisher started", "pair", p.pair, "interval", p.interval)
	return nil
}

// Stop halts the publishing loop.
func (p *Publisher) Stop(ctx context.Context) error {
	if p.cancel != nil {
		p.cancel()
	}

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *Publisher) run() {
	defer p.wg.Done()

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-p.ctx.Done():
			return
		case <-ticker.C:
			if err := p.reporter.ReportOrders(p.ctx, p.pair, p.source()); err != nil {
				p.logger.Warn("ladder report failed", "err", err)
			}
		}
	}
}
