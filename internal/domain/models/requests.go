package models

// Query parameters for the dashboard HTTP endpoints.

type SignalsRequest struct {
	Symbol  string `query:"symbol" json:"symbol" validate:"omitempty,max=16"`
	NewOnly bool   `query:"new_only" json:"new_only"`
}

type TradesRequest struct {
	Symbol string `query:"symbol" json:"symbol" validate:"omitempty,max=16"`
	Limit  int    `query:"limit" json:"limit" default:"50" validate:"gte=1,lte=500"`
}

type PerformanceRequest struct {
	Symbol string `query:"symbol" json:"symbol" default:"ALL" validate:"max=16"`
}
