package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/tidwall/gjson"

	"SignalBoard/internal/domain/models"
	drepo "SignalBoard/internal/domain/repository"
	"SignalBoard/pkg/util"
)

// Blob paths written by the upstream producer.
const (
	StatusPath         = "status.json"
	RealtimePricesPath = "realtime_prices.json"
	PositionStatesPath = "data/position_states.json"
)

// SignalsPath is the daily signal file for a YYYYMMDD date key.
func SignalsPath(dateKey string) string {
	return "signals/signals_" + dateKey + ".json"
}

// SourceRepository decodes the producer's blobs. Decoding is lenient: a
// partially readable blob yields what could be read plus an ErrMalformedBlob.
type SourceRepository struct {
	store drepo.BlobStore
}

func NewSourceRepository(store drepo.BlobStore) *SourceRepository {
	return &SourceRepository{store: store}
}

// Signals returns the day's signals. Elements that fail to decode are skipped.
func (r *SourceRepository) Signals(ctx context.Context, dateKey string) ([]models.Signal, error) {
	path := SignalsPath(dateKey)
	b, err := r.store.Read(ctx, path)
	if err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(b)) == 0 {
		return nil, nil
	}

	var all []models.Signal
	if err := json.Unmarshal(b, &all); err == nil {
		return all, nil
	}

	// A failed Unmarshal leaves all partly filled, so rows are decoded afresh.
	root := gjson.ParseBytes(b)
	if !gjson.ValidBytes(b) || !root.IsArray() {
		return nil, fmt.Errorf("%s: %w: expected a JSON array", path, drepo.ErrMalformedBlob)
	}
	var out []models.Signal
	skipped := 0
	root.ForEach(func(_, value gjson.Result) bool {
		var s models.Signal
		if err := json.Unmarshal([]byte(value.Raw), &s); err != nil || s.Symbol == "" {
			skipped++
			return true
		}
		out = append(out, s)
		return true
	})
	return out, fmt.Errorf("%s: %w: skipped %d unreadable signals", path, drepo.ErrMalformedBlob, skipped)
}

// Status returns status.json. When the document does not decode, the
// timestamp alone is read so the connection indicator still works.
func (r *SourceRepository) Status(ctx context.Context) (*models.Status, error) {
	b, err := r.store.Read(ctx, StatusPath)
	if err != nil {
		return nil, err
	}
	var st models.Status
	decodeErr := json.Unmarshal(b, &st)
	if decodeErr == nil {
		return &st, nil
	}
	malformed := fmt.Errorf("%s: %w: %v", StatusPath, drepo.ErrMalformedBlob, decodeErr)
	if !gjson.ValidBytes(b) {
		return nil, malformed
	}

	partial := &models.Status{}
	if ts, ok := util.ParseTime(gjson.GetBytes(b, "timestamp").String()); ok {
		partial.Timestamp = models.NewTimestamp(ts)
	}
	return partial, malformed
}

func (r *SourceRepository) RealtimePrices(ctx context.Context) (*models.RealtimePrices, error) {
	b, err := r.store.Read(ctx, RealtimePricesPath)
	if err != nil {
		return nil, err
	}
	var rt models.RealtimePrices
	if err := json.Unmarshal(b, &rt); err != nil {
		return nil, fmt.Errorf("%s: %w: %v", RealtimePricesPath, drepo.ErrMalformedBlob, err)
	}
	return &rt, nil
}

var _ drepo.SignalSource = (*SourceRepository)(nil)
