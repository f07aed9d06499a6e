package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/tidwall/gjson"

	"SignalBoard/internal/domain/models"
	drepo "SignalBoard/internal/domain/repository"
	"SignalBoard/pkg/util"
)

// ErrLedgerLocked is returned when another writer holds the ledger lock.
var ErrLedgerLocked = errors.New("ledger is locked by another writer")

// Locker is a lease shared between processes writing the same ledger.
type Locker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Unlock(ctx context.Context, key string) error
}

const ledgerLockTTL = 10 * time.Second

// BlobTradeLedger keeps the whole trade history as one JSON array blob.
// Appends are read-modify-write under a mutex, plus an optional shared lock
// when the blob lives on a shared backend.
type BlobTradeLedger struct {
	mu      sync.Mutex
	store   drepo.BlobStore
	path    string
	metrics drepo.Metrics
	locker  Locker
}

type LedgerOption func(*BlobTradeLedger)

// WithLocker guards appends with a shared lock.
func WithLocker(l Locker) LedgerOption {
	return func(b *BlobTradeLedger) { b.locker = l }
}

func NewBlobTradeLedger(store drepo.BlobStore, path string, metrics drepo.Metrics, opts ...LedgerOption) *BlobTradeLedger {
	l := &BlobTradeLedger{store: store, path: path, metrics: metrics}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// LoadAll returns every stored trade. A missing blob is an empty ledger.
// Rows that do not decode are skipped and reported as ErrMalformedBlob
// alongside the rows that did.
func (l *BlobTradeLedger) LoadAll(ctx context.Context) ([]models.Trade, error) {
	rows, err := l.loadRows(ctx)
	if err != nil {
		return nil, err
	}
	trades := make([]models.Trade, 0, len(rows))
	skipped := 0
	for _, raw := range rows {
		var t models.Trade
		if err := json.Unmarshal(raw, &t); err != nil {
			skipped++
			continue
		}
		trades = append(trades, t)
	}
	if skipped > 0 {
		return trades, fmt.Errorf("%s: %w: skipped %d unreadable trades", l.path, drepo.ErrMalformedBlob, skipped)
	}
	return trades, nil
}

// loadRows returns the stored rows undecoded. Only a document that is not a
// JSON array fails.
func (l *BlobTradeLedger) loadRows(ctx context.Context) ([]json.RawMessage, error) {
	b, err := l.store.Read(ctx, l.path)
	if errors.Is(err, drepo.ErrBlobNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(b)) == 0 {
		return nil, nil
	}
	var rows []json.RawMessage
	if err := json.Unmarshal(b, &rows); err != nil {
		return nil, fmt.Errorf("%s: %w: %v", l.path, drepo.ErrMalformedBlob, err)
	}
	return rows, nil
}

// rowKey reads the dedup key straight from a stored row.
func rowKey(raw json.RawMessage) (models.TradeKey, bool) {
	res := gjson.GetManyBytes(raw, "symbol", "exit_time")
	exit, ok := util.ParseTime(res[1].String())
	if res[0].String() == "" || !ok {
		return models.TradeKey{}, false
	}
	return models.TradeKey{Symbol: res[0].String(), Exit: exit.UnixNano()}, true
}

func (l *BlobTradeLedger) Append(ctx context.Context, t models.Trade) (bool, error) {
	added, err := l.AppendAll(ctx, []models.Trade{t})
	if err != nil {
		return false, err
	}
	return len(added) == 1, nil
}

// AppendAll adds the trades whose (symbol, exit_time) is not yet stored and
// writes the ledger back once. Stored rows keep their fields and values.
// It never writes after a failed read.
func (l *BlobTradeLedger) AppendAll(ctx context.Context, trades []models.Trade) ([]models.Trade, error) {
	if len(trades) == 0 {
		return nil, nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.locker != nil {
		ok, err := l.locker.TryLock(ctx, l.path, ledgerLockTTL)
		if err != nil {
			return nil, fmt.Errorf("lock ledger: %w", err)
		}
		if !ok {
			return nil, ErrLedgerLocked
		}
		defer func() { _ = l.locker.Unlock(context.WithoutCancel(ctx), l.path) }()
	}

	rows, err := l.loadRows(ctx)
	if err != nil {
		return nil, fmt.Errorf("load ledger: %w", err)
	}

	seen := make(map[models.TradeKey]struct{}, len(rows)+len(trades))
	for _, raw := range rows {
		if k, ok := rowKey(raw); ok {
			seen[k] = struct{}{}
		}
	}

	var added []models.Trade
	for _, t := range trades {
		k := t.Key()
		if _, dup := seen[k]; dup {
			if l.metrics != nil {
				l.metrics.RecordDuplicateTrade(t.Symbol)
			}
			continue
		}
		raw, err := json.Marshal(t)
		if err != nil {
			return nil, fmt.Errorf("encode trade: %w", err)
		}
		seen[k] = struct{}{}
		added = append(added, t)
		rows = append(rows, raw)
	}
	if len(added) == 0 {
		return nil, nil
	}

	b, err := json.MarshalIndent(rows, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode ledger: %w", err)
	}
	if err := l.store.Write(ctx, l.path, b); err != nil {
		return nil, fmt.Errorf("write ledger: %w", err)
	}

	if l.metrics != nil {
		for _, t := range added {
			l.metrics.RecordTrade(t.Symbol)
		}
	}
	return added, nil
}

var _ drepo.TradeLedger = (*BlobTradeLedger)(nil)
