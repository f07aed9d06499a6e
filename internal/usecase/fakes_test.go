package usecase

import (
	"context"
	"sync"

	"SignalBoard/internal/domain/models"
	drepo "SignalBoard/internal/domain/repository"
)

type fakePublisher struct {
	mu      sync.Mutex
	batches [][]models.Trade
	err     error
}

func (f *fakePublisher) PublishBatch(_ context.Context, trades []*models.Trade) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	batch := make([]models.Trade, 0, len(trades))
	for _, t := range trades {
		batch = append(batch, *t)
	}
	f.batches = append(f.batches, batch)
	return nil
}

func (f *fakePublisher) Close() error { return nil }

func (f *fakePublisher) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.batches)
}

type fakeStorage struct {
	stored    []*models.Trade
	healthErr error
}

func (f *fakeStorage) Init(context.Context) error { return nil }
func (f *fakeStorage) StoreBatch(_ context.Context, trades []*models.Trade) error {
	f.stored = append(f.stored, trades...)
	return nil
}
func (f *fakeStorage) Health(context.Context) error { return f.healthErr }
func (f *fakeStorage) Close() error                 { return nil }

type recMetrics struct {
	mu         sync.Mutex
	cycles     []string
	blobErrors map[string]string
	sinkErrors int
	sent       int
	connected  *bool
	prices     map[string]float64
}

func newRecMetrics() *recMetrics {
	return &recMetrics{blobErrors: map[string]string{}, prices: map[string]float64{}}
}

func (m *recMetrics) RecordPollCycle(result string) {
	m.mu.Lock()
	m.cycles = append(m.cycles, result)
	m.mu.Unlock()
}

func (m *recMetrics) RecordBlobError(blob, kind string) {
	m.mu.Lock()
	m.blobErrors[blob] = kind
	m.mu.Unlock()
}

func (m *recMetrics) RecordTrade(string)          {}
func (m *recMetrics) RecordDuplicateTrade(string) {}

func (m *recMetrics) RecordSinkError(string) {
	m.mu.Lock()
	m.sinkErrors++
	m.mu.Unlock()
}

func (m *recMetrics) RecordMessageSent(string, string) {
	m.mu.Lock()
	m.sent++
	m.mu.Unlock()
}

func (m *recMetrics) RecordLastPrice(symbol string, price float64) {
	m.mu.Lock()
	m.prices[symbol] = price
	m.mu.Unlock()
}

func (m *recMetrics) RecordProducerConnected(c bool) {
	m.mu.Lock()
	m.connected = &c
	m.mu.Unlock()
}

func (m *recMetrics) RecordLatency(string, float64) {}

var (
	_ drepo.Publisher = (*fakePublisher)(nil)
	_ drepo.Storage   = (*fakeStorage)(nil)
	_ drepo.Metrics   = (*recMetrics)(nil)
)
