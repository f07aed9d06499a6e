package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"SignalBoard/internal/domain/models"
	drepo "SignalBoard/internal/domain/repository"
)

func TestSnapshotWrappedForm(t *testing.T) {
	ctx := context.Background()
	store := NewFileBlobStore(t.TempDir())
	s := NewBlobPositionSnapshotStore(store, PositionStatesPath)

	entry := time.Date(2024, 10, 9, 14, 0, 0, 0, time.UTC)
	want := models.PositionSnapshot{
		AsOf: "20241009",
		Positions: map[string]models.PriorPosition{
			"TSLA": {IsOpen: true, EntryPrice: 250.5, EntryTime: models.NewTimestamp(entry), LastConfidence: 0.8},
		},
	}
	require.NoError(t, s.Save(ctx, want))

	got, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "20241009", got.AsOf)
	require.Contains(t, got.Positions, "TSLA")
	assert.True(t, got.Positions["TSLA"].IsOpen)
	assert.True(t, got.Positions["TSLA"].EntryTime.Equal(models.NewTimestamp(entry)))
}

func TestSnapshotBareForm(t *testing.T) {
	ctx := context.Background()
	store := NewFileBlobStore(t.TempDir())
	require.NoError(t, store.Write(ctx, PositionStatesPath, []byte(`{
		"TSLA": {"is_open": true, "entry_price": 250, "entry_time": "2024-10-09T14:00:00"},
		"HOOD": {"is_open": false, "entry_price": 0},
		"note": "ignored",
		"COIN": {"is_open": "yes"}
	}`)))

	got, err := NewBlobPositionSnapshotStore(store, PositionStatesPath).Load(ctx)
	assert.ErrorIs(t, err, drepo.ErrMalformedBlob)
	assert.Empty(t, got.AsOf)
	assert.Len(t, got.Positions, 2)
	assert.Equal(t, 250.0, got.Positions["TSLA"].EntryPrice)
	assert.NotContains(t, got.Positions, "COIN")
}

func TestSnapshotMissingAndInvalid(t *testing.T) {
	ctx := context.Background()
	store := NewFileBlobStore(t.TempDir())
	s := NewBlobPositionSnapshotStore(store, PositionStatesPath)

	got, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, got.Positions)

	require.NoError(t, store.Write(ctx, PositionStatesPath, []byte(`[1,2]`)))
	_, err = s.Load(ctx)
	assert.ErrorIs(t, err, drepo.ErrMalformedBlob)
}

func TestSnapshotCarryOver(t *testing.T) {
	ctx := context.Background()
	source := NewFileBlobStore(t.TempDir())
	local := NewFileBlobStore(t.TempDir())
	s := NewBlobPositionSnapshotStore(source, PositionStatesPath, WithCarryOver(local))

	// Nothing anywhere yet.
	got, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, got.Positions)

	rolled := models.PositionSnapshot{
		AsOf:      "20241010",
		Positions: map[string]models.PriorPosition{"TSLA": {IsOpen: true, EntryPrice: 250}},
	}
	require.NoError(t, s.Save(ctx, rolled))
	_, err = source.Read(ctx, PositionStatesPath)
	assert.ErrorIs(t, err, drepo.ErrBlobNotFound)

	got, err = s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "20241010", got.AsOf)

	// An older source snapshot loses to the local rollover.
	require.NoError(t, source.Write(ctx, PositionStatesPath, []byte(`{"as_of":"20241009","positions":{"HOOD":{"is_open":true,"entry_price":20}}}`)))
	got, err = s.Load(ctx)
	require.NoError(t, err)
	assert.Contains(t, got.Positions, "TSLA")

	// A newer one wins.
	require.NoError(t, source.Write(ctx, PositionStatesPath, []byte(`{"as_of":"20241011","positions":{"HOOD":{"is_open":true,"entry_price":20}}}`)))
	got, err = s.Load(ctx)
	require.NoError(t, err)
	assert.Contains(t, got.Positions, "HOOD")
	assert.NotContains(t, got.Positions, "TSLA")

	// Without as_of the source is authoritative.
	require.NoError(t, source.Write(ctx, PositionStatesPath, []byte(`{"COIN":{"is_open":true,"entry_price":180}}`)))
	got, err = s.Load(ctx)
	require.NoError(t, err)
	assert.Contains(t, got.Positions, "COIN")
}

func TestSnapshotCarryOverCoversBrokenSource(t *testing.T) {
	ctx := context.Background()
	source := NewFileBlobStore(t.TempDir())
	local := NewFileBlobStore(t.TempDir())
	require.NoError(t, source.Write(ctx, PositionStatesPath, []byte(`{not json`)))
	require.NoError(t, local.Write(ctx, PositionStatesPath, []byte(`{"as_of":"20241010","positions":{"TSLA":{"is_open":true,"entry_price":250}}}`)))

	got, err := NewBlobPositionSnapshotStore(source, PositionStatesPath, WithCarryOver(local)).Load(ctx)
	assert.ErrorIs(t, err, drepo.ErrMalformedBlob)
	assert.Contains(t, got.Positions, "TSLA")
}
