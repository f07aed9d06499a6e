package signals

import "SignalBoard/internal/domain/models"

// Transition is the outcome of applying one signal to a position.
type Transition struct {
	Next          models.PositionState
	IsNewPosition bool
	Opened        bool
	Closed        bool
	Trade         *models.Trade
}

// Step applies sig to state. It never mutates state.
//
//	FLAT + LONG -> LONG (new, count=1)
//	LONG + LONG -> LONG (count++)
//	LONG + EXIT -> FLAT (new, trade)
//	anything else is a no-op
func Step(state models.PositionState, sig models.Signal) Transition {
	switch {
	case sig.Action == models.ActionLong && !state.IsOpen():
		return Transition{
			Next: models.PositionState{
				Side:             models.Long,
				EntryPrice:       sig.Price,
				EntryTime:        sig.Timestamp,
				FirstSignalTime:  sig.Timestamp,
				ConsecutiveCount: 1,
			},
			IsNewPosition: true,
			Opened:        true,
		}

	case sig.Action == models.ActionLong:
		next := state
		next.ConsecutiveCount++
		return Transition{Next: next}

	case sig.Action == models.ActionExit && state.IsOpen():
		trade := models.NewTrade(sig.Symbol, state.EntryTime.Time, sig.Timestamp.Time, state.EntryPrice, sig.Price)
		return Transition{
			Next:          models.FlatPosition(),
			IsNewPosition: true,
			Closed:        true,
			Trade:         &trade,
		}

	default:
		if state.Side == "" {
			state = models.FlatPosition()
		}
		return Transition{Next: state}
	}
}

// SeedPositions turns a carry-over snapshot into reducer state. Only open
// positions with a usable entry price are seeded.
func SeedPositions(prior map[string]models.PriorPosition) map[string]models.PositionState {
	out := make(map[string]models.PositionState, len(prior))
	for sym, p := range prior {
		if !p.IsOpen || p.EntryPrice <= 0 {
			continue
		}
		out[sym] = models.PositionState{
			Side:             models.Long,
			EntryPrice:       p.EntryPrice,
			EntryTime:        p.EntryTime,
			FirstSignalTime:  p.EntryTime,
			ConsecutiveCount: 1,
		}
	}
	return out
}
