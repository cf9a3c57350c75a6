package report

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/driftline/market-surfer/internal/model"
)

// Fill describes one inferred fill.
type Fill struct {
	Pair       model.Pair      `json:"pair"`
	Side       model.Side      `json:"side"`
	Price      decimal.Decimal `json:"price"`
	BaseAmount decimal.Decimal `json:"base_amount"`
	QuoteValue decimal.Decimal `json:"quote_value"`
	FilledAt   time.Time       `json:"filled_at"`
}

// Reporter receives fills inferred by the reconciliation engine.
type Reporter interface {
	RecordFill(ctx context.Context, fill Fill) error
}

// LogReporter writes each fill as a structured log line.
type LogReporter struct {
	logger *slog.Logger
}

// NewLogReporter creates a log-backed reporter.
func NewLogReporter(logger *slog.Logger) *LogReporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogReporter{logger: logger}
}

// RecordFill logs the fill. It never fails.
func (r *LogReporter) RecordFill(_ context.Context, fill Fill) error {
	r.logger.Info("fill",
		"pair", fill.Pair,
		"side", fill.Side,
		"price", fill.Price,
		"base_amount", fill.BaseAmount,
		"quote_value", fill.QuoteValue,
	)
	return nil
}

// HTTPReporter posts fills and ladder summaries to an external endpoint as
// JSON.
type HTTPReporter struct {
	endpoint string
	client   *http.Client
	logger   *slog.Logger
}

// HTTPOption configures an HTTPReporter.
type HTTPOption func(*HTTPReporter)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) HTTPOption {
	return func(r *HTTPReporter) { r.client = client }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) HTTPOption {
	return func(r *HTTPReporter) { r.logger = logger }
}

// NewHTTPReporter creates a reporter posting to the given endpoint.
func NewHTTPReporter(endpoint string, opts ...HTTPOption) *HTTPReporter {
	r := &HTTPReporter{
		endpoint: endpoint,
		client:   &http.Client{Timeout: 10 * time.Second},
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// RecordFill posts one fill.
func (r *HTTPReporter) RecordFill(ctx context.Context, fill Fill) error {
	return r.post(ctx, "fill", fill)
}

// ladderReport is the periodic resting-order summary payload.
type ladderReport struct {
	Pair   model.Pair    `json:"pair"`
	Orders []model.Order `json:"orders"`
	SentAt time.Time     `json:"sent_at"`
}

// ReportOrders posts the current resting order set.
func (r *HTTPReporter) ReportOrders(ctx context.Context, pair model.Pair, orders []model.Order) error {
	return r.post(ctx, "ladder", ladderReport{Pair: pair, Orders: orders, SentAt: time.Now()})
}

func (r *HTTPReporter) post(ctx context.Context, kind string, payload any) error {
	body, err := json.Marshal(map[string]any{"type": kind, "data": payload})
	if err != nil {
		return fmt.Errorf("marshal %s report: %w", kind, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create %s report request: %w", kind, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return fmt.Errorf("send %s report: %w", kind, err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%s report rejected: status %d", kind, resp.StatusCode)
	}
	return nil
}

// MultiReporter fans a fill out to several reporters. Errors are joined so
// one failing sink doesn't hide the others.
type MultiReporter []Reporter

// RecordFill delivers the fill to every reporter.
func (m MultiReporter) RecordFill(ctx context.Context, fill Fill) error {
	var errs []error
	for _, r := range m {
		if err := r.RecordFill(ctx, fill); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
