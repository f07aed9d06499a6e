package market

import (
	"fmt"
	"time"

	"SignalBoard/internal/domain/models"
	"SignalBoard/pkg/util"
)

// Clock evaluates the trading session at a fixed UTC offset. It knows nothing
// about holidays or DST.
type Clock struct {
	loc   *time.Location
	open  int
	close int
}

func NewClock(utcOffsetHours float64, open, close string) (*Clock, error) {
	o, ok := util.ParseClock(open)
	if !ok {
		return nil, fmt.Errorf("invalid market open %q", open)
	}
	c, ok := util.ParseClock(close)
	if !ok {
		return nil, fmt.Errorf("invalid market close %q", close)
	}
	if c <= o {
		return nil, fmt.Errorf("market close %s must be after open %s", close, open)
	}
	offset := int(utcOffsetHours * 3600)
	return &Clock{
		loc:   time.FixedZone(fmt.Sprintf("UTC%+g", utcOffsetHours), offset),
		open:  o,
		close: c,
	}, nil
}

func (c *Clock) Status(now time.Time) models.MarketStatus {
	local := now.In(c.loc)
	if wd := local.Weekday(); wd == time.Saturday || wd == time.Sunday {
		return models.MarketWeekend
	}
	minute := local.Hour()*60 + local.Minute()
	switch {
	case minute < c.open:
		return models.MarketPreMarket
	case minute >= c.close:
		return models.MarketAfterHours
	default:
		return models.MarketOpen
	}
}

// IsConnected reports whether the producer wrote its status within threshold.
func IsConnected(ts models.Timestamp, now time.Time, threshold time.Duration) bool {
	if ts.IsZero() {
		return false
	}
	return now.Sub(ts.Time) < threshold
}
