package models

type PositionSide string

const (
	Flat PositionSide = "FLAT"
	Long PositionSide = "LONG"
)

// PositionState is the per-symbol state machine. EntryPrice > 0 iff Side is Long.
type PositionState struct {
	Side             PositionSide `json:"position"`
	EntryPrice       float64      `json:"entry_price"`
	EntryTime        Timestamp    `json:"entry_time"`
	FirstSignalTime  Timestamp    `json:"first_signal_time"`
	ConsecutiveCount int          `json:"consecutive_count"`
}

func FlatPosition() PositionState { return PositionState{Side: Flat} }

func (p PositionState) IsOpen() bool { return p.Side == Long }

// PriorPosition is the carried-over state of a symbol at the start of a day.
type PriorPosition struct {
	IsOpen         bool      `json:"is_open"`
	EntryPrice     float64   `json:"entry_price"`
	EntryTime      Timestamp `json:"entry_time"`
	LastConfidence float64   `json:"last_confidence"`
}

// PositionSnapshot is the persisted carry-over document.
type PositionSnapshot struct {
	AsOf      string                   `json:"as_of,omitempty"`
	Positions map[string]PriorPosition `json:"positions"`
}

// SnapshotFromStates converts end-of-day reducer state to a carry-over snapshot.
func SnapshotFromStates(asOf string, states map[string]PositionState, confidence map[string]float64) PositionSnapshot {
	out := PositionSnapshot{AsOf: asOf, Positions: make(map[string]PriorPosition, len(states))}
	for sym, st := range states {
		out.Positions[sym] = PriorPosition{
			IsOpen:         st.IsOpen(),
			EntryPrice:     st.EntryPrice,
			EntryTime:      st.EntryTime,
			LastConfidence: confidence[sym],
		}
	}
	return out
}
