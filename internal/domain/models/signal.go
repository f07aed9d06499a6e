package models

import (
	"encoding/json"
	"strings"
)

type Action string

const (
	ActionLong Action = "LONG"
	ActionExit Action = "EXIT"
	ActionHold Action = "HOLD"
)

// ParseAction normalises an action; anything unknown is a HOLD.
func ParseAction(s string) Action {
	switch Action(strings.ToUpper(strings.TrimSpace(s))) {
	case ActionLong:
		return ActionLong
	case ActionExit:
		return ActionExit
	default:
		return ActionHold
	}
}

func (a *Action) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		*a = ActionHold
		return nil
	}
	*a = ParseAction(s)
	return nil
}

// Signal is one event emitted by the upstream strategy.
type Signal struct {
	Symbol     string    `json:"symbol"`
	Action     Action    `json:"action"`
	Price      float64   `json:"price"`
	Timestamp  Timestamp `json:"timestamp"`
	Confidence float64   `json:"confidence"`

	// Opaque producer payloads, passed through untouched.
	FeaturesSnapshot json.RawMessage `json:"features_snapshot,omitempty"`
	MLScores         json.RawMessage `json:"ml_scores,omitempty"`
}

// SignalView is a folded signal annotated with its position transition.
type SignalView struct {
	Signal
	IsNewPosition    bool       `json:"is_new_position"`
	ConsecutiveCount int        `json:"consecutive_count"`
	FirstSignalTime  *Timestamp `json:"first_signal_time,omitempty"`
	Synthetic        bool       `json:"synthetic,omitempty"`
}
