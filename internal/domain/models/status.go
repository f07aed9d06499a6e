package models

// StatusPosition is the producer's live view of one symbol.
type StatusPosition struct {
	IsOpen         bool      `json:"is_open"`
	EntryPrice     float64   `json:"entry_price"`
	EntryTime      Timestamp `json:"entry_time,omitempty"`
	LastConfidence float64   `json:"last_confidence"`
}

// Status mirrors status.json.
type Status struct {
	Timestamp    Timestamp                 `json:"timestamp"`
	Positions    map[string]StatusPosition `json:"positions"`
	LatestPrices map[string]float64        `json:"latest_prices"`
}

type PricePoint struct {
	Timestamp Timestamp `json:"timestamp"`
	Price     float64   `json:"price"`
}

// RealtimePrices mirrors realtime_prices.json.
type RealtimePrices struct {
	LastUpdate   Timestamp               `json:"last_update"`
	Prices       map[string]float64      `json:"prices"`
	PriceHistory map[string][]PricePoint `json:"price_history,omitempty"`
}

// Price returns a positive realtime price for sym.
func (r *RealtimePrices) Price(sym string) (float64, bool) {
	if r == nil {
		return 0, false
	}
	p, ok := r.Prices[sym]
	return p, ok && p > 0
}
