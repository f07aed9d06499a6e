package performance

import (
	"strings"

	"github.com/shopspring/decimal"

	"SignalBoard/internal/domain/models"
)

// AllSymbols disables the symbol filter.
const AllSymbols = "ALL"

// Aggregate summarises realized trades, optionally for a single symbol.
// Winners have pnl > 0 and losers pnl < 0; flat trades count toward the total only.
func Aggregate(trades []models.Trade, symbol string) models.Performance {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		symbol = AllSymbols
	}
	out := models.Performance{Symbol: symbol}

	total, wins, losses := decimal.Zero, decimal.Zero, decimal.Zero
	for _, t := range trades {
		if symbol != AllSymbols && !strings.EqualFold(t.Symbol, symbol) {
			continue
		}
		p := decimal.NewFromFloat(t.PnLPercent)
		out.TotalTrades++
		total = total.Add(p)
		switch p.Sign() {
		case 1:
			out.WinningTrades++
			wins = wins.Add(p)
		case -1:
			out.LosingTrades++
			losses = losses.Add(p.Abs())
		}
	}
	if out.TotalTrades == 0 {
		return out
	}

	out.TotalPnLPercent = total.InexactFloat64()
	out.WinRate = float64(out.WinningTrades) / float64(out.TotalTrades) * 100
	if losses.IsPositive() {
		out.ProfitFactor = wins.Div(losses).InexactFloat64()
	} else {
		out.ProfitFactor = wins.InexactFloat64()
	}
	if out.WinningTrades > 0 {
		out.AvgWin = wins.Div(decimal.NewFromInt(int64(out.WinningTrades))).InexactFloat64()
	}
	if out.LosingTrades > 0 {
		out.AvgLoss = losses.Div(decimal.NewFromInt(int64(out.LosingTrades))).InexactFloat64()
	}
	return out
}

// BySymbol aggregates each symbol separately plus the ALL bucket.
func BySymbol(trades []models.Trade, symbols []string) map[string]models.Performance {
	out := make(map[string]models.Performance, len(symbols)+1)
	out[AllSymbols] = Aggregate(trades, AllSymbols)
	for _, s := range symbols {
		out[s] = Aggregate(trades, s)
	}
	return out
}
