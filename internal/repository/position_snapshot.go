package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/tidwall/gjson"

	"SignalBoard/internal/domain/models"
	drepo "SignalBoard/internal/domain/repository"
)

// BlobPositionSnapshotStore reads and writes the carry-over positions blob.
// It accepts both the wrapped {"as_of","positions"} form and a bare symbol map.
type BlobPositionSnapshotStore struct {
	store     drepo.BlobStore
	carryOver drepo.BlobStore
	path      string
}

type SnapshotOption func(*BlobPositionSnapshotStore)

// WithCarryOver sends saves to w instead of the source store, which is then
// only read. Load prefers the carry-over copy when it is newer.
func WithCarryOver(w drepo.BlobStore) SnapshotOption {
	return func(s *BlobPositionSnapshotStore) { s.carryOver = w }
}

func NewBlobPositionSnapshotStore(store drepo.BlobStore, path string, opts ...SnapshotOption) *BlobPositionSnapshotStore {
	s := &BlobPositionSnapshotStore{store: store, path: path}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load returns the source snapshot. With a carry-over store, the local copy
// is used when the source has none, fails to decode, or both carry as_of and
// the local one is later.
func (s *BlobPositionSnapshotStore) Load(ctx context.Context) (models.PositionSnapshot, error) {
	snap, found, err := s.load(ctx, s.store)
	if s.carryOver == nil {
		return snap, err
	}

	local, localFound, localErr := s.load(ctx, s.carryOver)
	if localErr != nil || !localFound {
		return snap, err
	}
	switch {
	case !found, err != nil:
		return local, err
	case snap.AsOf != "" && local.AsOf > snap.AsOf:
		return local, nil
	default:
		return snap, nil
	}
}

func (s *BlobPositionSnapshotStore) load(ctx context.Context, store drepo.BlobStore) (models.PositionSnapshot, bool, error) {
	snap, err := s.decode(ctx, store)
	if errors.Is(err, drepo.ErrBlobNotFound) {
		return snap, false, nil
	}
	return snap, true, err
}

func (s *BlobPositionSnapshotStore) decode(ctx context.Context, store drepo.BlobStore) (models.PositionSnapshot, error) {
	empty := models.PositionSnapshot{Positions: map[string]models.PriorPosition{}}

	b, err := store.Read(ctx, s.path)
	if err != nil {
		return empty, err
	}
	if len(bytes.TrimSpace(b)) == 0 {
		return empty, nil
	}
	if !gjson.ValidBytes(b) {
		return empty, fmt.Errorf("%s: %w: invalid json", s.path, drepo.ErrMalformedBlob)
	}

	root := gjson.ParseBytes(b)
	if !root.IsObject() {
		return empty, fmt.Errorf("%s: %w: expected object", s.path, drepo.ErrMalformedBlob)
	}

	if pos := root.Get("positions"); pos.IsObject() {
		var snap models.PositionSnapshot
		if err := json.Unmarshal(b, &snap); err != nil {
			return empty, fmt.Errorf("%s: %w: %v", s.path, drepo.ErrMalformedBlob, err)
		}
		if snap.Positions == nil {
			snap.Positions = map[string]models.PriorPosition{}
		}
		return snap, nil
	}

	bare := map[string]models.PriorPosition{}
	var firstErr error
	root.ForEach(func(key, value gjson.Result) bool {
		if !value.IsObject() {
			return true
		}
		var p models.PriorPosition
		if err := json.Unmarshal([]byte(value.Raw), &p); err != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("%s: %w: %s: %v", s.path, drepo.ErrMalformedBlob, key.String(), err)
			}
			return true
		}
		bare[key.String()] = p
		return true
	})
	return models.PositionSnapshot{Positions: bare}, firstErr
}

func (s *BlobPositionSnapshotStore) Save(ctx context.Context, snap models.PositionSnapshot) error {
	b, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	w := s.store
	if s.carryOver != nil {
		w = s.carryOver
	}
	if err := w.Write(ctx, s.path, b); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	return nil
}

var _ drepo.PositionSnapshotStore = (*BlobPositionSnapshotStore)(nil)
