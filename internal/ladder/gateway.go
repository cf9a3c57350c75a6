package ladder

import (
	"fmt"
	"log/slog"

	"github.com/driftline/market-surfer/internal/metrics"
	"github.com/driftline/market-surfer/internal/model"
)

// submitter is the slice of the book cache the gateway needs: asynchronous
// order submission with in-flight accounting.
type submitter interface {
	EnqueuePlace(intent model.OrderIntent)
	EnqueueCancel(venueOrderID string)
}

// Gateway is the single path through which the engine submits orders. It
// validates intents, hands them to the book cache's submit queue, and keeps
// the placement metrics.
type Gateway struct {
	cache  submitter
	logger *slog.Logger
}

// NewGateway creates a gateway over the given book cache.
func NewGateway(cache submitter, logger *slog.Logger) *Gateway {
	if logger == nil {
		logger = slog.Default()
	}
	return &Gateway{cache: cache, logger: logger}
}

// Place enqueues every intent in the batch. Intents with a non-positive
// price or amount are rejected before they reach the venue.
func (g *Gateway) Place(intents []model.OrderIntent) error {
	for _, intent := range intents {
		if !intent.Price.IsPositive() || !intent.BaseAmount.IsPositive() {
			return fmt.Errorf("invalid order intent: side=%s price=%s amount=%s",
				intent.Side, intent.Price, intent.BaseAmount)
		}
		g.cache.EnqueuePlace(intent)
		g.logger.Info("order submitted",
			"side", intent.Side,
			"price", intent.Price,
			"amount", intent.BaseAmount)
		metrics.OrdersPlacedTotal.WithLabelValues(string(intent.Side)).Inc()
	}
	return nil
}

// Cancel enqueues cancellation of every order in the batch.
func (g *Gateway) Cancel(orders []model.Order) {
	for _, order := range orders {
		g.cache.EnqueueCancel(order.VenueOrderID)
		g.logger.Info("order cancellation submitted",
			"order_id", order.VenueOrderID,
			"side", order.Side,
			"price", order.Price)
		metrics.OrdersCancelledTotal.Inc()
	}
}
