package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"SignalBoard/internal/domain/models"
	drepo "SignalBoard/internal/domain/repository"
	applogger "SignalBoard/pkg/logger"
)

// Sink backends.
const (
	BackendNone       = "none"
	BackendKafka      = "kafka"
	BackendClickHouse = "clickhouse"
)

// TradeProcessor routes newly ledgered trades to the configured backend.
type TradeProcessor struct {
	pub     drepo.Publisher
	store   drepo.Storage
	metrics drepo.Metrics
	log     *applogger.Logger
	backend string
}

// NewTradeProcessor creates a new TradeProcessor instance.
func NewTradeProcessor(
	pub drepo.Publisher,
	store drepo.Storage,
	metrics drepo.Metrics,
	log *applogger.Logger,
	backend string,
) *TradeProcessor {
	if backend == "" {
		backend = BackendNone
	}
	if log == nil {
		log = applogger.Nop()
	}
	return &TradeProcessor{
		pub:     pub,
		store:   store,
		metrics: metrics,
		log:     log.Component("trade_processor"),
		backend: backend,
	}
}

// Backend names the configured sink.
func (p *TradeProcessor) Backend() string { return p.backend }

// Health reports whether the archive backend is reachable. Only ClickHouse
// is checked; Kafka writers connect lazily.
func (p *TradeProcessor) Health(ctx context.Context) error {
	if p.backend != BackendClickHouse {
		return nil
	}
	if p.store == nil {
		return errors.New("clickhouse storage not configured")
	}
	return p.store.Health(ctx)
}

// ProcessBatch forwards trades in one call to the backend. Failures are
// logged and counted; the caller's state is never affected.
func (p *TradeProcessor) ProcessBatch(ctx context.Context, trades []models.Trade) error {
	if len(trades) == 0 || p.backend == BackendNone {
		return nil
	}

	batch := make([]*models.Trade, len(trades))
	for i := range trades {
		batch[i] = &trades[i]
	}

	start := time.Now()
	var err error

	switch p.backend {
	case BackendKafka:
		if p.pub == nil {
			err = errors.New("kafka publisher not configured")
			break
		}
		err = p.pub.PublishBatch(ctx, batch)
	case BackendClickHouse:
		if p.store == nil {
			err = errors.New("clickhouse storage not configured")
			break
		}
		err = p.store.StoreBatch(ctx, batch)
	default:
		err = fmt.Errorf("unknown backend: %s", p.backend)
	}

	if err != nil {
		p.metrics.RecordSinkError(p.backend)
		p.log.Error("forward trades failed",
			applogger.String("backend", p.backend),
			applogger.Int("count", len(trades)),
			applogger.Error(err),
		)
		return fmt.Errorf("process batch: %w", err)
	}

	for _, t := range trades {
		p.metrics.RecordMessageSent(p.backend, t.Symbol)
	}
	p.metrics.RecordLatency("sink_"+p.backend, time.Since(start).Seconds())
	p.log.Debug("trades forwarded",
		applogger.String("backend", p.backend),
		applogger.Int("count", len(trades)),
	)
	return nil
}

// Close closes underlying resources if available.
func (p *TradeProcessor) Close() {
	if p.pub != nil {
		_ = p.pub.Close()
	}
	if p.store != nil {
		_ = p.store.Close()
	}
}
