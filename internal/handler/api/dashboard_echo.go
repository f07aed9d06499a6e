package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"SignalBoard/internal/domain/models"
	"SignalBoard/internal/services/performance"
	"SignalBoard/internal/services/signals"
	"SignalBoard/internal/usecase"
	xhttp "SignalBoard/pkg/http"
	xlogger "SignalBoard/pkg/logger"
)

// ViewSource exposes the latest published dashboard view.
type ViewSource interface {
	View() *models.DashboardView
}

// HealthChecker is a dependency checked by /healthz.
type HealthChecker interface {
	Health(ctx context.Context) error
}

// DashboardEchoHandler serves read-only projections of the current view.
type DashboardEchoHandler struct {
	logger    *xlogger.Logger
	views     ViewSource
	sink      string
	sinkCheck HealthChecker
}

type HandlerOption func(*DashboardEchoHandler)

// WithSinkHealth reports the named trade sink in /healthz.
func WithSinkHealth(name string, check HealthChecker) HandlerOption {
	return func(h *DashboardEchoHandler) {
		h.sink, h.sinkCheck = name, check
	}
}

func NewDashboardEchoHandler(logger *xlogger.Logger, views ViewSource, opts ...HandlerOption) *DashboardEchoHandler {
	if logger == nil {
		logger = xlogger.Nop()
	}
	h := &DashboardEchoHandler{logger: logger.Component("api"), views: views}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *DashboardEchoHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", h.Health)

	g := e.Group("/api")
	g.GET("/dashboard", h.Dashboard)
	g.GET("/signals", h.Signals)
	g.GET("/latest", h.Latest)
	g.GET("/trades", h.Trades)
	g.GET("/performance", h.Performance)
	g.GET("/positions", h.Positions)
	g.GET("/market", h.Market)
}

// PositionsResponse is the open book with its summary counters.
type PositionsResponse struct {
	Active         int                   `json:"active"`
	TotalAssets    int                   `json:"total_assets"`
	OpenPnLPercent float64               `json:"open_pnl_percent"`
	Positions      []models.OpenPosition `json:"positions"`
}

type HealthResponse struct {
	Status      string            `json:"status"`
	Ready       bool              `json:"ready"`
	GeneratedAt *models.Timestamp `json:"generated_at,omitempty"`
	Connected   bool              `json:"connected"`
	Sink        string            `json:"sink,omitempty"`
	SinkError   string            `json:"sink_error,omitempty"`
}

// current returns the view, or a 503 until the first cycle has completed.
func (h *DashboardEchoHandler) current() (*models.DashboardView, error) {
	v := h.views.View()
	if v == nil {
		return nil, xhttp.ServiceUnavailableError("dashboard is warming up")
	}
	return v, nil
}

func (h *DashboardEchoHandler) Health(c echo.Context) error {
	res := HealthResponse{Status: "ok"}
	if v := h.views.View(); v != nil {
		res.Ready = true
		res.GeneratedAt = v.GeneratedAt.Ptr()
		res.Connected = v.Market.Connected
	}
	if h.sinkCheck != nil {
		res.Sink = h.sink
		if err := h.sinkCheck.Health(c.Request().Context()); err != nil {
			h.logger.Warn("sink health check failed", xlogger.String("sink", h.sink), xlogger.Error(err))
			res.Status = "degraded"
			res.SinkError = err.Error()
		}
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *DashboardEchoHandler) Dashboard(c echo.Context) error {
	v, err := h.current()
	if err != nil {
		return err
	}
	c.Response().Header().Set(echo.HeaderCacheControl, "no-store")
	return xhttp.SuccessResponse(c, v)
}

func (h *DashboardEchoHandler) Signals(c echo.Context) error {
	req := &models.SignalsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	v, err := h.current()
	if err != nil {
		return err
	}

	sym := normalizeSymbol(req.Symbol)
	var rows []models.SignalView
	if req.NewOnly {
		rows = signals.NewPositionsOnly(v.Signals, sym, 0)
	} else {
		rows = make([]models.SignalView, 0, len(v.Signals))
		for _, s := range v.Signals {
			if sym == "" || strings.EqualFold(s.Symbol, sym) {
				rows = append(rows, s)
			}
		}
	}
	return xhttp.ListResponse(c, rows, int64(len(rows)))
}

func (h *DashboardEchoHandler) Latest(c echo.Context) error {
	v, err := h.current()
	if err != nil {
		return err
	}
	return xhttp.SuccessResponse(c, v.Latest)
}

func (h *DashboardEchoHandler) Trades(c echo.Context) error {
	req := &models.TradesRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	v, err := h.current()
	if err != nil {
		return err
	}

	sym := normalizeSymbol(req.Symbol)
	total := len(v.AllTrades)
	if sym != "" {
		total = len(usecase.FilterTrades(v.AllTrades, sym, 0))
	}
	return xhttp.ListResponse(c, usecase.FilterTrades(v.AllTrades, sym, req.Limit), int64(total))
}

func (h *DashboardEchoHandler) Performance(c echo.Context) error {
	req := &models.PerformanceRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	v, err := h.current()
	if err != nil {
		return err
	}

	sym := normalizeSymbol(req.Symbol)
	if sym == "" || sym == performance.AllSymbols {
		return xhttp.SuccessResponse(c, v.Performance)
	}
	return xhttp.SuccessResponse(c, performance.Aggregate(v.AllTrades, sym))
}

func (h *DashboardEchoHandler) Positions(c echo.Context) error {
	v, err := h.current()
	if err != nil {
		return err
	}
	return xhttp.SuccessResponse(c, PositionsResponse{
		Active:         v.ActivePositions,
		TotalAssets:    v.TotalAssets,
		OpenPnLPercent: v.OpenPnLPercent,
		Positions:      v.Positions,
	})
}

func (h *DashboardEchoHandler) Market(c echo.Context) error {
	v, err := h.current()
	if err != nil {
		return err
	}
	return xhttp.DataResponse(c, http.StatusOK, v.Market)
}

func normalizeSymbol(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

var _ xhttp.Handler = (*DashboardEchoHandler)(nil)
