package market

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"SignalBoard/internal/domain/models"
)

const (
	SourceRealtime = "realtime"
	SourceStatus   = "status"
	SourceNone     = "none"
)

// Exposure is the producer's open book marked to the freshest prices.
type Exposure struct {
	Positions      []models.OpenPosition
	Active         int
	OpenPnLPercent float64
}

// MarkOpenPositions prices every open status position. Realtime prices win
// when that blob is younger than staleness; otherwise status.latest_prices is used.
func MarkOpenPositions(status *models.Status, rt *models.RealtimePrices, assets []string, now time.Time, staleness time.Duration) Exposure {
	var out Exposure
	if status == nil {
		return out
	}

	fresh := rt != nil && IsConnected(rt.LastUpdate, now, staleness)
	total := decimal.Zero

	for _, sym := range orderedSymbols(status.Positions, assets) {
		pos := status.Positions[sym]
		if !pos.IsOpen {
			continue
		}
		out.Active++

		row := models.OpenPosition{
			Symbol:      sym,
			EntryPrice:  pos.EntryPrice,
			EntryTime:   pos.EntryTime.Ptr(),
			PriceSource: SourceNone,
		}
		if p, ok := rt.Price(sym); fresh && ok {
			row.CurrentPrice, row.PriceSource = p, SourceRealtime
		} else if p, ok := status.LatestPrices[sym]; ok && p > 0 {
			row.CurrentPrice, row.PriceSource = p, SourceStatus
		}

		if row.EntryPrice > 0 && row.CurrentPrice > 0 {
			row.PnLPercent = models.PnLPercent(row.EntryPrice, row.CurrentPrice)
			row.PnLDollar = models.PnLDollar(row.EntryPrice, row.CurrentPrice)
			total = total.Add(decimal.NewFromFloat(row.PnLPercent))
		}
		out.Positions = append(out.Positions, row)
	}

	out.OpenPnLPercent = total.InexactFloat64()
	return out
}

func orderedSymbols(positions map[string]models.StatusPosition, assets []string) []string {
	seen := make(map[string]bool, len(positions))
	out := make([]string, 0, len(positions))
	for _, a := range assets {
		if _, ok := positions[a]; ok && !seen[a] {
			seen[a] = true
			out = append(out, a)
		}
	}
	rest := make([]string, 0)
	for sym := range positions {
		if !seen[sym] {
			rest = append(rest, sym)
		}
	}
	sort.Strings(rest)
	return append(out, rest...)
}
