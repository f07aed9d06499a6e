package market

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"SignalBoard/internal/domain/models"
)

func newClock(t *testing.T) *Clock {
	t.Helper()
	c, err := NewClock(-4, "09:30", "16:00")
	require.NoError(t, err)
	return c
}

func TestClockStatus(t *testing.T) {
	c := newClock(t)
	// 2024-10-10 is a Thursday.
	cases := map[string]models.MarketStatus{
		"2024-10-10T13:29:00Z": models.MarketPreMarket,
		"2024-10-10T13:30:00Z": models.MarketOpen,
		"2024-10-10T19:59:59Z": models.MarketOpen,
		"2024-10-10T20:00:00Z": models.MarketAfterHours,
		"2024-10-12T15:00:00Z": models.MarketWeekend,
		"2024-10-14T12:00:00Z": models.MarketPreMarket,
		"2024-10-12T02:00:00Z": models.MarketAfterHours,
	}
	for raw, want := range cases {
		now, err := time.Parse(time.RFC3339, raw)
		require.NoError(t, err)
		assert.Equal(t, want, c.Status(now), raw)
	}
}

func TestNewClockRejectsBadHours(t *testing.T) {
	_, err := NewClock(-4, "9h30", "16:00")
	assert.Error(t, err)
	_, err = NewClock(-4, "16:00", "09:30")
	assert.Error(t, err)
}

func TestIsConnected(t *testing.T) {
	now := time.Date(2024, 10, 10, 15, 0, 0, 0, time.UTC)
	assert.False(t, IsConnected(models.Timestamp{}, now, 2*time.Minute))
	assert.True(t, IsConnected(models.NewTimestamp(now.Add(-119*time.Second)), now, 2*time.Minute))
	assert.False(t, IsConnected(models.NewTimestamp(now.Add(-120*time.Second)), now, 2*time.Minute))
}

func TestMarkOpenPositions(t *testing.T) {
	now := time.Date(2024, 10, 10, 15, 0, 0, 0, time.UTC)
	status := &models.Status{
		Positions: map[string]models.StatusPosition{
			"TSLA": {IsOpen: true, EntryPrice: 200},
			"AAPL": {IsOpen: true, EntryPrice: 100},
			"HOOD": {IsOpen: false, EntryPrice: 0},
			"ZZZ":  {IsOpen: true, EntryPrice: 10},
		},
		LatestPrices: map[string]float64{"TSLA": 210, "AAPL": 95},
	}

	exp := MarkOpenPositions(status, nil, []string{"TSLA", "HOOD", "AAPL"}, now, 2*time.Minute)
	assert.Equal(t, 3, exp.Active)
	require.Len(t, exp.Positions, 3)
	assert.Equal(t, "TSLA", exp.Positions[0].Symbol)
	assert.Equal(t, "AAPL", exp.Positions[1].Symbol)
	assert.Equal(t, "ZZZ", exp.Positions[2].Symbol)
	assert.Equal(t, SourceNone, exp.Positions[2].PriceSource)
	assert.InDelta(t, 5.0, exp.Positions[0].PnLPercent, 1e-9)
	assert.InDelta(t, 1000.0, exp.Positions[0].PnLDollar, 1e-9)
	assert.InDelta(t, 0.0, exp.OpenPnLPercent, 1e-9)

	rt := &models.RealtimePrices{
		LastUpdate: models.NewTimestamp(now.Add(-10 * time.Second)),
		Prices:     map[string]float64{"TSLA": 220},
	}
	exp = MarkOpenPositions(status, rt, []string{"TSLA", "AAPL"}, now, 2*time.Minute)
	assert.Equal(t, SourceRealtime, exp.Positions[0].PriceSource)
	assert.Equal(t, SourceStatus, exp.Positions[1].PriceSource)
	assert.InDelta(t, 5.0, exp.OpenPnLPercent, 1e-9)

	rt.LastUpdate = models.NewTimestamp(now.Add(-time.Hour))
	exp = MarkOpenPositions(status, rt, []string{"TSLA", "AAPL"}, now, 2*time.Minute)
	assert.Equal(t, SourceStatus, exp.Positions[0].PriceSource)
}

func TestMarkOpenPositionsNilStatus(t *testing.T) {
	exp := MarkOpenPositions(nil, nil, nil, time.Now(), time.Minute)
	assert.Zero(t, exp.Active)
	assert.Empty(t, exp.Positions)
}
