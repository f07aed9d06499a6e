package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// SharesPerTrade is the fixed notional size used for dollar P&L.
const SharesPerTrade = 100

// Trade is a realized round trip, created once per LONG -> FLAT transition.
type Trade struct {
	Symbol     string    `json:"symbol"`
	EntryTime  Timestamp `json:"entry_time"`
	ExitTime   Timestamp `json:"exit_time"`
	EntryPrice float64   `json:"entry_price"`
	ExitPrice  float64   `json:"exit_price"`
	PnLPercent float64   `json:"pnl_percent"`
	PnLDollar  float64   `json:"pnl_dollar"`
}

func NewTrade(symbol string, entryTime, exitTime time.Time, entryPrice, exitPrice float64) Trade {
	return Trade{
		Symbol:     symbol,
		EntryTime:  NewTimestamp(entryTime),
		ExitTime:   NewTimestamp(exitTime),
		EntryPrice: entryPrice,
		ExitPrice:  exitPrice,
		PnLPercent: PnLPercent(entryPrice, exitPrice),
		PnLDollar:  PnLDollar(entryPrice, exitPrice),
	}
}

// PnLPercent is (exit-entry)/entry*100, or 0 without a positive entry.
func PnLPercent(entry, exit float64) float64 {
	if entry <= 0 {
		return 0
	}
	e := decimal.NewFromFloat(entry)
	return decimal.NewFromFloat(exit).Sub(e).Div(e).Mul(decimal.NewFromInt(100)).InexactFloat64()
}

func PnLDollar(entry, exit float64) float64 {
	return decimal.NewFromFloat(exit).
		Sub(decimal.NewFromFloat(entry)).
		Mul(decimal.NewFromInt(SharesPerTrade)).
		InexactFloat64()
}

// TradeKey identifies a trade in the ledger.
type TradeKey struct {
	Symbol string
	Exit   int64
}

func (t Trade) Key() TradeKey {
	return TradeKey{Symbol: t.Symbol, Exit: t.ExitTime.UnixNano()}
}
