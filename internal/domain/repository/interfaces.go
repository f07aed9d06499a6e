package repository

import (
	"context"
	"errors"

	"SignalBoard/internal/domain/models"
)

var (
	// ErrBlobNotFound is returned when a blob does not exist at the given path.
	ErrBlobNotFound = errors.New("blob not found")
	// ErrReadOnly is returned by backends that cannot be written to.
	ErrReadOnly = errors.New("blob store is read-only")
	// ErrMalformedBlob wraps decode failures of an existing blob.
	ErrMalformedBlob = errors.New("malformed blob")
)

// BlobStore addresses opaque documents by slash-separated path.
type BlobStore interface {
	Read(ctx context.Context, path string) ([]byte, error)
	Write(ctx context.Context, path string, data []byte) error
}

// SignalSource reads the producer's per-cycle inputs.
type SignalSource interface {
	Signals(ctx context.Context, dateKey string) ([]models.Signal, error)
	Status(ctx context.Context) (*models.Status, error)
	RealtimePrices(ctx context.Context) (*models.RealtimePrices, error)
}

// TradeLedger is the deduplicated collection of realized trades.
type TradeLedger interface {
	LoadAll(ctx context.Context) ([]models.Trade, error)
	Append(ctx context.Context, t models.Trade) (bool, error)
	AppendAll(ctx context.Context, trades []models.Trade) ([]models.Trade, error)
}

// PositionSnapshotStore persists the carry-over positions between days.
type PositionSnapshotStore interface {
	Load(ctx context.Context) (models.PositionSnapshot, error)
	Save(ctx context.Context, snap models.PositionSnapshot) error
}

type Publisher interface {
	PublishBatch(ctx context.Context, trades []*models.Trade) error
	Close() error
}

type Storage interface {
	Init(ctx context.Context) error // ensure tables, health checks
	StoreBatch(ctx context.Context, trades []*models.Trade) error
	Health(ctx context.Context) error // ping
	Close() error
}

type Metrics interface {
	RecordPollCycle(result string)
	RecordBlobError(blob, kind string)
	RecordTrade(symbol string)
	RecordDuplicateTrade(symbol string)
	RecordSinkError(backend string)
	RecordMessageSent(backend, symbol string)
	RecordLastPrice(symbol string, price float64)
	RecordProducerConnected(connected bool)
	RecordLatency(op string, seconds float64)
}
