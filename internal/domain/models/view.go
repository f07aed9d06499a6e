package models

type MarketStatus string

const (
	MarketOpen       MarketStatus = "MARKET OPEN"
	MarketPreMarket  MarketStatus = "PRE-MARKET"
	MarketAfterHours MarketStatus = "AFTER-HOURS"
	MarketWeekend    MarketStatus = "WEEKEND"
)

// Performance summarises realized trades. Percent fields are in percent units.
type Performance struct {
	Symbol          string  `json:"symbol"`
	TotalPnLPercent float64 `json:"total_pnl_percent"`
	WinRate         float64 `json:"win_rate"`
	ProfitFactor    float64 `json:"profit_factor"`
	TotalTrades     int     `json:"total_trades"`
	WinningTrades   int     `json:"winning_trades"`
	LosingTrades    int     `json:"losing_trades"`
	AvgWin          float64 `json:"avg_win"`
	AvgLoss         float64 `json:"avg_loss"`
}

// OpenPosition is an unrealized position marked to the freshest price.
type OpenPosition struct {
	Symbol       string     `json:"symbol"`
	EntryPrice   float64    `json:"entry_price"`
	EntryTime    *Timestamp `json:"entry_time,omitempty"`
	CurrentPrice float64    `json:"current_price"`
	PriceSource  string     `json:"price_source"`
	PnLPercent   float64    `json:"pnl_percent"`
	PnLDollar    float64    `json:"pnl_dollar"`
}

// AssetSignal pairs a configured asset with its latest signal, if any.
type AssetSignal struct {
	Symbol string      `json:"symbol"`
	Signal *SignalView `json:"signal"`
}

type MarketView struct {
	Status          MarketStatus `json:"status"`
	Connected       bool         `json:"connected"`
	StatusTimestamp *Timestamp   `json:"status_timestamp,omitempty"`
	StatusAgeSec    *float64     `json:"status_age_seconds,omitempty"`
}

// DashboardView is the immutable result of one refresh cycle.
type DashboardView struct {
	GeneratedAt     Timestamp         `json:"generated_at"`
	Date            string            `json:"date"`
	Market          MarketView        `json:"market"`
	LastSignalTime  *Timestamp        `json:"last_signal_time"`
	SignalsToday    int               `json:"signals_today"`
	UniqueLongs     int               `json:"unique_longs"`
	ClosedToday     int               `json:"closed_today"`
	ActivePositions int               `json:"active_positions"`
	TotalAssets     int               `json:"total_assets"`
	OpenPnLPercent  float64           `json:"open_pnl_percent"`
	Latest          []AssetSignal     `json:"latest"`
	Positions       []OpenPosition    `json:"positions"`
	Signals         []SignalView      `json:"signals"`
	History         []SignalView      `json:"history"`
	Trades          []Trade           `json:"trades"`
	NewTrades       []Trade           `json:"new_trades,omitempty"`
	Performance     Performance       `json:"performance"`
	Errors          map[string]string `json:"errors,omitempty"`

	// AllTrades is the full ledger, newest exit first.
	AllTrades []Trade `json:"-"`
}
