package middleware

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"SignalBoard/internal/domain/models"
	applogger "SignalBoard/pkg/logger"
)

// Proc is the minimal processor interface the pipeline needs.
type Proc interface {
	ProcessBatch(ctx context.Context, trades []models.Trade) error
}

// SinkPipeline sits between the refresher and the trade sink. It validates
// trades, forwards them, and keeps failed batches in a bounded buffer that a
// background loop retries with backoff.
type SinkPipeline struct {
	proc       Proc
	log        *applogger.Logger
	bufSize    int
	bufCh      chan []models.Trade
	stopCh     chan struct{}
	doneCh     chan struct{}
	started    bool
	mu         sync.Mutex
	minBackoff time.Duration
	maxBackoff time.Duration
}

type PipelineOption func(*SinkPipeline)

// WithBufferSize sets how many failed batches are kept for retry.
func WithBufferSize(n int) PipelineOption {
	return func(p *SinkPipeline) {
		if n > 0 {
			p.bufSize = n
		}
	}
}

// WithBackoff bounds the retry delay.
func WithBackoff(lo, hi time.Duration) PipelineOption {
	return func(p *SinkPipeline) {
		if lo > 0 && hi >= lo {
			p.minBackoff, p.maxBackoff = lo, hi
		}
	}
}

// WithLogger sets the pipeline logger.
func WithLogger(l *applogger.Logger) PipelineOption {
	return func(p *SinkPipeline) {
		if l != nil {
			p.log = l
		}
	}
}

// NewSinkPipeline creates a new pipeline.
func NewSinkPipeline(proc Proc, opts ...PipelineOption) *SinkPipeline {
	p := &SinkPipeline{
		proc:       proc,
		log:        applogger.Nop(),
		bufSize:    64,
		stopCh:     make(chan struct{}),
		doneCh:     make(chan struct{}),
		minBackoff: 50 * time.Millisecond,
		maxBackoff: 5 * time.Second,
	}
	for _, opt := range opts {
		opt(p)
	}
	p.bufCh = make(chan []models.Trade, p.bufSize)
	p.log = p.log.Component("sink_pipeline")
	return p
}

// Start launches the background retry loop.
func (p *SinkPipeline) Start(ctx context.Context) {
	p.mu.Lock()
	if p.started {
		p.mu.Unlock()
		return
	}
	p.started = true
	p.mu.Unlock()

	go func() {
		defer close(p.doneCh)
		backoff := p.minBackoff
		for {
			select {
			case <-p.stopCh:
				return
			case <-ctx.Done():
				return
			case batch := <-p.bufCh:
				if err := p.proc.ProcessBatch(ctx, batch); err == nil {
					backoff = p.minBackoff
					p.log.Info("buffered trades delivered", applogger.Int("count", len(batch)))
					continue
				}
				p.requeue(batch)
				select {
				case <-time.After(backoff):
				case <-p.stopCh:
					return
				case <-ctx.Done():
					return
				}
				if backoff *= 2; backoff > p.maxBackoff {
					backoff = p.maxBackoff
				}
			}
		}
	}()
}

// Stop stops the retry loop and reports how many batches were left undelivered.
func (p *SinkPipeline) Stop() int {
	p.mu.Lock()
	if !p.started {
		p.mu.Unlock()
		return len(p.bufCh)
	}
	p.started = false
	p.mu.Unlock()
	close(p.stopCh)
	<-p.doneCh
	if n := len(p.bufCh); n > 0 {
		p.log.Warn("undelivered trade batches dropped", applogger.Int("batches", n))
		return n
	}
	return 0
}

// Pending is the number of batches waiting for retry.
func (p *SinkPipeline) Pending() int { return len(p.bufCh) }

// ProcessBatch validates and forwards trades, buffering them when the
// downstream fails.
func (p *SinkPipeline) ProcessBatch(ctx context.Context, trades []models.Trade) error {
	valid := make([]models.Trade, 0, len(trades))
	for _, t := range trades {
		if err := validateTrade(t); err != nil {
			p.log.Warn("trade rejected", applogger.String("symbol", t.Symbol), applogger.Error(err))
			continue
		}
		valid = append(valid, t)
	}
	if len(valid) == 0 {
		return nil
	}

	if err := p.proc.ProcessBatch(ctx, valid); err != nil {
		p.requeue(valid)
		return fmt.Errorf("pipeline downstream: %w", err)
	}
	return nil
}

func (p *SinkPipeline) requeue(batch []models.Trade) {
	select {
	case p.bufCh <- batch:
	default:
		p.log.Error("retry buffer full, dropping trades", applogger.Int("count", len(batch)))
	}
}

func validateTrade(t models.Trade) error {
	if t.Symbol == "" {
		return errors.New("symbol empty")
	}
	if t.ExitTime.IsZero() {
		return errors.New("exit time missing")
	}
	if t.EntryPrice < 0 || t.ExitPrice < 0 {
		return errors.New("negative price")
	}
	return nil
}
