package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimestampDecodesProducerFormats(t *testing.T) {
	cases := map[string]time.Time{
		`"2024-10-10T10:30:00"`:        time.Date(2024, 10, 10, 10, 30, 0, 0, time.UTC),
		`"2024-10-10T10:30:00.250000"`: time.Date(2024, 10, 10, 10, 30, 0, 250000000, time.UTC),
		`"2024-10-10T10:30:00-04:00"`:  time.Date(2024, 10, 10, 14, 30, 0, 0, time.UTC),
		`"2024-10-10 10:30:00+00:00"`:  time.Date(2024, 10, 10, 10, 30, 0, 0, time.UTC),
		`1728556200`:                   time.Date(2024, 10, 10, 10, 30, 0, 0, time.UTC),
	}
	for raw, want := range cases {
		var ts Timestamp
		require.NoError(t, json.Unmarshal([]byte(raw), &ts), raw)
		assert.True(t, ts.Time.Equal(want), "%s decoded to %s", raw, ts.Time)
	}
}

func TestTimestampNullAndEmpty(t *testing.T) {
	for _, raw := range []string{`null`, `""`} {
		var ts Timestamp
		require.NoError(t, json.Unmarshal([]byte(raw), &ts))
		assert.True(t, ts.IsZero())
	}

	out, err := json.Marshal(Timestamp{})
	require.NoError(t, err)
	assert.Equal(t, "null", string(out))
}

func TestTimestampRejectsGarbage(t *testing.T) {
	var ts Timestamp
	assert.Error(t, json.Unmarshal([]byte(`"yesterday"`), &ts))
}

func TestUnknownActionIsHold(t *testing.T) {
	var sigs []Signal
	raw := `[{"symbol":"X","action":"long","price":1},{"symbol":"X","action":"SHORT","price":1},{"symbol":"X","action":7,"price":1}]`
	require.NoError(t, json.Unmarshal([]byte(raw), &sigs))
	assert.Equal(t, ActionLong, sigs[0].Action)
	assert.Equal(t, ActionHold, sigs[1].Action)
	assert.Equal(t, ActionHold, sigs[2].Action)
}

func TestSignalPassesThroughOpaquePayloads(t *testing.T) {
	raw := `{"symbol":"TSLA","action":"LONG","price":250.5,"timestamp":"2024-10-10T10:30:00","confidence":0.8,"ml_scores":{"xgb":0.71,"lgbm":[1,2]}}`
	var s Signal
	require.NoError(t, json.Unmarshal([]byte(raw), &s))
	assert.JSONEq(t, `{"xgb":0.71,"lgbm":[1,2]}`, string(s.MLScores))
	assert.Nil(t, s.FeaturesSnapshot)
}

func TestTradePnL(t *testing.T) {
	tr := NewTrade("X", time.Time{}, time.Now(), 100, 110)
	assert.InDelta(t, 10.0, tr.PnLPercent, 1e-9)
	assert.InDelta(t, 1000.0, tr.PnLDollar, 1e-9)

	zero := NewTrade("X", time.Time{}, time.Now(), 0, 110)
	assert.Equal(t, 0.0, zero.PnLPercent)
	assert.InDelta(t, 11000.0, zero.PnLDollar, 1e-9)

	loss := NewTrade("X", time.Time{}, time.Now(), 200, 190)
	assert.InDelta(t, -5.0, loss.PnLPercent, 1e-9)
	assert.InDelta(t, -1000.0, loss.PnLDollar, 1e-9)
}

func TestTradeKeyIgnoresLocation(t *testing.T) {
	utc := time.Date(2024, 10, 10, 14, 30, 0, 0, time.UTC)
	ny := utc.In(time.FixedZone("EDT", -4*3600))
	a := NewTrade("X", time.Time{}, utc, 1, 2)
	b := NewTrade("X", time.Time{}, ny, 1, 2)
	assert.Equal(t, a.Key(), b.Key())
}
