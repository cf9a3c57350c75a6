package feed

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"

	"github.com/driftline/market-surfer/internal/model"
)

const (
	wsHandshakeTimeout = 10 * time.Second
	wsWriteTimeout     = 5 * time.Second
	wsMaxBackoff       = 30 * time.Second
)

// tickerMessage is the wire form of one streamed price update.
type tickerMessage struct {
	Pair string          `json:"pair"`
	Last decimal.Decimal `json:"last"`
}

// WS streams ticker updates over a websocket and caches the latest price.
// The connection is re-dialed with exponential backoff on any failure; while
// disconnected the cached price ages out through the expiry window.
type WS struct {
	url    string
	pair   model.Pair
	expiry time.Duration
	logger *slog.Logger

	mu      sync.RWMutex
	price   decimal.Decimal
	updated time.Time

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewWS creates a websocket ticker feed.
func NewWS(url string, pair model.Pair, expiry time.Duration, logger *slog.Logger) *WS {
	if logger == nil {
		logger = slog.Default()
	}
	return &WS{
		url:    url,
		pair:   pair,
		expiry: expiry,
		logger: logger,
	}
}

// Start begins the connect/read loop.
func (w *WS) Start(ctx context.Context) error {
	w.ctx, w.cancel = context.WithCancel(ctx)

	w.wg.Add(1)
	go w.run()

	w.logger.Info("websocket feed started", "url", w.url, "pair", w.pair)
	return nil
}

// Stop halts the connect/read loop.
func (w *WS) Stop(ctx context.Context) error {
	if w.cancel != nil {
		w.cancel()
	}

	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Price returns the latest streamed price if it is within the expiry window.
func (w *WS) Price() (decimal.Decimal, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	if w.updated.IsZero() || time.Since(w.updated) > w.expiry {
		return decimal.Decimal{}, false
	}
	return w.price, true
}

// run dials and reads until the context ends, backing off between attempts.
func (w *WS) run() {
	defer w.wg.Done()

	backoff := time.Second
	for {
		if w.ctx.Err() != nil {
			return
		}

		if err := w.connectAndRead(); err != nil {
			w.logger.Warn("websocket feed disconnected", "err", err, "retry_in", backoff)
		}

		select {
		case <-w.ctx.Done():
			return
		case <-time.After(backoff):
		}
		backoff = min(backoff*2, wsMaxBackoff)
	}
}

// connectAndRead runs one connection's lifetime: dial, read messages into
// the cache, return on any error.
func (w *WS) connectAndRead() error {
	dialer := websocket.Dialer{HandshakeTimeout: wsHandshakeTimeout}

	conn, _, err := dialer.DialContext(w.ctx, w.url, nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	// Unblock ReadMessage when the context ends.
	stop := context.AfterFunc(w.ctx, func() {
		conn.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(wsWriteTimeout),
		)
		conn.Close()
	})
	defer stop()

	w.logger.Debug("websocket feed connected", "url", w.url)

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if w.ctx.Err() != nil {
				return nil
			}
			return err
		}

		var msg tickerMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			w.logger.Warn("malformed ticker message", "err", err)
			continue
		}
		if msg.Pair != "" && msg.Pair != string(w.pair) {
			continue
		}
		if !msg.Last.IsPositive() {
			continue
		}

		w.mu.Lock()
		w.price = msg.Last
		w.updated = time.Now()
		w.mu.Unlock()
	}
}
