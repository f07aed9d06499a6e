package signals

import (
	"sort"
	"strings"

	"SignalBoard/internal/domain/models"
)

// Result is everything derived from one day's signal stream.
type Result struct {
	// Ordered holds every folded signal in timestamp order.
	Ordered   []models.SignalView
	Latest    map[string]models.SignalView
	NewTrades []models.Trade
	Positions map[string]models.PositionState

	UniqueLongCount int
	UniqueExitCount int
	LastSignalTime  *models.Timestamp
}

// Reduce folds signals over the prior positions. The input slice is not modified.
func Reduce(signals []models.Signal, prior map[string]models.PriorPosition) Result {
	sorted := make([]models.Signal, len(signals))
	copy(sorted, signals)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.Before(sorted[j].Timestamp.Time)
	})

	res := Result{
		Ordered:   make([]models.SignalView, 0, len(sorted)),
		Latest:    make(map[string]models.SignalView),
		Positions: SeedPositions(prior),
	}

	for _, sig := range sorted {
		state, ok := res.Positions[sig.Symbol]
		if !ok {
			state = models.FlatPosition()
		}
		tr := Step(state, sig)
		res.Positions[sig.Symbol] = tr.Next

		view := models.SignalView{Signal: sig, IsNewPosition: tr.IsNewPosition}
		switch {
		case tr.Opened:
			res.UniqueLongCount++
			view.ConsecutiveCount = 1
		case sig.Action == models.ActionLong:
			view.ConsecutiveCount = tr.Next.ConsecutiveCount
			view.FirstSignalTime = tr.Next.FirstSignalTime.Ptr()
		case tr.Closed:
			res.UniqueExitCount++
		}
		if tr.Trade != nil {
			res.NewTrades = append(res.NewTrades, *tr.Trade)
		}

		res.Ordered = append(res.Ordered, view)
		res.Latest[sig.Symbol] = view
	}

	if n := len(sorted); n > 0 {
		res.LastSignalTime = sorted[n-1].Timestamp.Ptr()
	}

	for sym, p := range prior {
		if _, seen := res.Latest[sym]; seen || !p.IsOpen || p.EntryPrice <= 0 {
			continue
		}
		res.Latest[sym] = models.SignalView{
			Signal: models.Signal{
				Symbol:     sym,
				Action:     models.ActionLong,
				Price:      p.EntryPrice,
				Timestamp:  p.EntryTime,
				Confidence: p.LastConfidence,
			},
			ConsecutiveCount: 1,
			Synthetic:        true,
		}
	}

	return res
}

// NewPositionsOnly keeps entries and exits, newest first, capped at limit (<=0 means no cap).
func NewPositionsOnly(ordered []models.SignalView, symbol string, limit int) []models.SignalView {
	out := make([]models.SignalView, 0)
	for i := len(ordered) - 1; i >= 0; i-- {
		v := ordered[i]
		if !v.IsNewPosition || (symbol != "" && !strings.EqualFold(v.Symbol, symbol)) {
			continue
		}
		out = append(out, v)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out
}
