package usecase

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"SignalBoard/internal/domain/models"
	drepo "SignalBoard/internal/domain/repository"
	"SignalBoard/internal/services/market"
	"SignalBoard/internal/services/performance"
	"SignalBoard/internal/services/signals"
	applogger "SignalBoard/pkg/logger"
	"SignalBoard/pkg/util"
)

// Blob names used in the view's errors map and in metrics labels.
const (
	BlobSignals   = "signals"
	BlobStatus    = "status"
	BlobRealtime  = "realtime_prices"
	BlobPositions = "position_states"
	BlobLedger    = "ledger"
)

const (
	DefaultHistoryLimit = 100
	DefaultTradesLimit  = 50
)

type RefresherConfig struct {
	Assets       []string
	FetchTimeout time.Duration
	Staleness    time.Duration
	HistoryLimit int
	TradesLimit  int
}

// TradeSink receives the trades newly accepted by the ledger.
type TradeSink interface {
	ProcessBatch(ctx context.Context, trades []models.Trade) error
}

type RefresherOption func(*Refresher)

// WithNow replaces the wall clock.
func WithNow(now func() time.Time) RefresherOption {
	return func(r *Refresher) { r.now = now }
}

// WithLocation sets the zone used to pick the daily signal file.
func WithLocation(loc *time.Location) RefresherOption {
	return func(r *Refresher) { r.loc = loc }
}

// Refresher runs one dashboard cycle at a time and keeps the last view.
type Refresher struct {
	source    drepo.SignalSource
	snapshots drepo.PositionSnapshotStore
	ledger    drepo.TradeLedger
	sink      TradeSink
	clock     *market.Clock
	metrics   drepo.Metrics
	log       *applogger.Logger
	cfg       RefresherConfig
	now       func() time.Time
	loc       *time.Location

	cycleMu sync.Mutex
	// carried between cycles for the day rollover
	lastDate       string
	lastPositions  map[string]models.PositionState
	lastConfidence map[string]float64

	mu        sync.RWMutex
	view      *models.DashboardView
	listeners []func(*models.DashboardView)
}

func NewRefresher(
	source drepo.SignalSource,
	snapshots drepo.PositionSnapshotStore,
	ledger drepo.TradeLedger,
	sink TradeSink,
	clock *market.Clock,
	metrics drepo.Metrics,
	log *applogger.Logger,
	cfg RefresherConfig,
	opts ...RefresherOption,
) *Refresher {
	if cfg.HistoryLimit <= 0 {
		cfg.HistoryLimit = DefaultHistoryLimit
	}
	if cfg.TradesLimit <= 0 {
		cfg.TradesLimit = DefaultTradesLimit
	}
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = 5 * time.Second
	}
	if cfg.Staleness <= 0 {
		cfg.Staleness = 120 * time.Second
	}
	if log == nil {
		log = applogger.Nop()
	}
	r := &Refresher{
		source:    source,
		snapshots: snapshots,
		ledger:    ledger,
		sink:      sink,
		clock:     clock,
		metrics:   metrics,
		log:       log.Component("refresher"),
		cfg:       cfg,
		now:       time.Now,
		loc:       time.Local,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// View returns the last published view, or nil before the first cycle.
func (r *Refresher) View() *models.DashboardView {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.view
}

// Subscribe registers fn to receive every published view.
func (r *Refresher) Subscribe(fn func(*models.DashboardView)) {
	r.mu.Lock()
	r.listeners = append(r.listeners, fn)
	r.mu.Unlock()
}

type cycleInputs struct {
	signals  []models.Signal
	status   *models.Status
	realtime *models.RealtimePrices
	snapshot models.PositionSnapshot
	ledger   []models.Trade
	ledgerOK bool

	mu     sync.Mutex
	errors map[string]string
}

func (in *cycleInputs) fail(blob string, err error) {
	in.mu.Lock()
	in.errors[blob] = err.Error()
	in.mu.Unlock()
}

// Refresh runs one cycle and publishes the resulting view. Blob failures
// degrade the view; only cancellation of ctx is returned as an error.
func (r *Refresher) Refresh(ctx context.Context) (*models.DashboardView, error) {
	r.cycleMu.Lock()
	defer r.cycleMu.Unlock()

	start := time.Now()
	now := r.now()
	today := util.DateKey(now.In(r.loc))

	r.rollover(ctx, today)

	in := r.fetch(ctx, today)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var prior map[string]models.PriorPosition
	if in.snapshot.AsOf != today {
		prior = in.snapshot.Positions
	}
	res := signals.Reduce(in.signals, prior)

	trades := in.ledger
	var added []models.Trade
	if len(res.NewTrades) > 0 && r.ledger != nil {
		added = r.appendTrades(ctx, res.NewTrades, in)
		if len(added) > 0 {
			trades = append(append([]models.Trade{}, trades...), added...)
			if r.sink != nil {
				_ = r.sink.ProcessBatch(ctx, added)
			}
		}
	}
	sortTradesDesc(trades)

	view := r.buildView(now, today, res, in, trades, added)
	r.recordCycle(view, in, now, start)

	r.lastDate = today
	r.lastPositions = res.Positions
	r.lastConfidence = confidenceOf(res, prior)

	r.publish(view)
	return view, nil
}

func (r *Refresher) fetch(ctx context.Context, today string) *cycleInputs {
	in := &cycleInputs{errors: map[string]string{}}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		v, err := withTimeout(gctx, r.cfg.FetchTimeout, func(c context.Context) ([]models.Signal, error) {
			return r.source.Signals(c, today)
		})
		in.signals = v
		r.blobError(in, BlobSignals, err)
		return nil
	})
	g.Go(func() error {
		v, err := withTimeout(gctx, r.cfg.FetchTimeout, r.source.Status)
		in.status = v
		r.blobError(in, BlobStatus, err)
		return nil
	})
	g.Go(func() error {
		v, err := withTimeout(gctx, r.cfg.FetchTimeout, r.source.RealtimePrices)
		in.realtime = v
		r.blobError(in, BlobRealtime, err)
		return nil
	})
	if r.snapshots != nil {
		g.Go(func() error {
			v, err := withTimeout(gctx, r.cfg.FetchTimeout, r.snapshots.Load)
			in.snapshot = v
			r.blobError(in, BlobPositions, err)
			return nil
		})
	}
	if r.ledger != nil {
		g.Go(func() error {
			v, err := withTimeout(gctx, r.cfg.FetchTimeout, r.ledger.LoadAll)
			// Skipped rows still leave the rest of the ledger writable.
			in.ledger, in.ledgerOK = v, err == nil || (v != nil && errors.Is(err, drepo.ErrMalformedBlob))
			r.blobError(in, BlobLedger, err)
			return nil
		})
	}
	_ = g.Wait()

	if in.ledger == nil {
		in.ledger = []models.Trade{}
	}
	return in
}

func withTimeout[T any](ctx context.Context, d time.Duration, fn func(context.Context) (T, error)) (T, error) {
	ctx, cancel := context.WithTimeout(ctx, d)
	defer cancel()
	return fn(ctx)
}

// blobError classifies a fetch failure. A missing blob is normal and only
// counted; anything else is also surfaced in the view.
func (r *Refresher) blobError(in *cycleInputs, blob string, err error) {
	if err == nil {
		return
	}
	kind := errorKind(err)
	r.metrics.RecordBlobError(blob, kind)
	if kind == "not_found" {
		r.log.Debug("blob missing", applogger.String("blob", blob))
		return
	}
	r.log.Warn("blob read failed",
		applogger.String("blob", blob),
		applogger.String("kind", kind),
		applogger.Error(err),
	)
	in.fail(blob, err)
}

func errorKind(err error) string {
	switch {
	case errors.Is(err, drepo.ErrBlobNotFound):
		return "not_found"
	case errors.Is(err, drepo.ErrMalformedBlob):
		return "malformed"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, drepo.ErrReadOnly):
		return "read_only"
	default:
		return "fetch"
	}
}

func (r *Refresher) appendTrades(ctx context.Context, realized []models.Trade, in *cycleInputs) []models.Trade {
	if !in.ledgerOK {
		// An unreadable ledger is never overwritten.
		return nil
	}
	added, err := withTimeout(ctx, r.cfg.FetchTimeout, func(c context.Context) ([]models.Trade, error) {
		return r.ledger.AppendAll(c, realized)
	})
	if err != nil {
		r.metrics.RecordBlobError(BlobLedger, errorKind(err))
		r.log.Error("append trades failed", applogger.Int("count", len(realized)), applogger.Error(err))
		in.fail(BlobLedger, err)
		return nil
	}
	for _, t := range added {
		r.log.Info("trade recorded",
			applogger.String("symbol", t.Symbol),
			applogger.Float64("entry_price", t.EntryPrice),
			applogger.Float64("exit_price", t.ExitPrice),
			applogger.Float64("pnl_percent", t.PnLPercent),
		)
	}
	return added
}

// rollover saves yesterday's closing positions once the local date changes.
func (r *Refresher) rollover(ctx context.Context, today string) {
	if r.snapshots == nil || r.lastDate == "" || r.lastDate == today || r.lastPositions == nil {
		return
	}
	snap := models.SnapshotFromStates(r.lastDate, r.lastPositions, r.lastConfidence)
	err := func() error {
		ctx, cancel := context.WithTimeout(ctx, r.cfg.FetchTimeout)
		defer cancel()
		return r.snapshots.Save(ctx, snap)
	}()
	if err != nil {
		r.log.Error("save position snapshot failed", applogger.String("as_of", r.lastDate), applogger.Error(err))
		return
	}
	r.log.Info("position snapshot saved",
		applogger.String("as_of", r.lastDate),
		applogger.Int("positions", len(snap.Positions)),
	)
}

func (r *Refresher) buildView(now time.Time, today string, res signals.Result, in *cycleInputs, trades, added []models.Trade) *models.DashboardView {
	exposure := market.MarkOpenPositions(in.status, in.realtime, r.cfg.Assets, now, r.cfg.Staleness)

	view := &models.DashboardView{
		GeneratedAt:     models.NewTimestamp(now),
		Date:            today,
		Market:          r.marketView(in.status, now),
		LastSignalTime:  res.LastSignalTime,
		SignalsToday:    len(res.Ordered),
		UniqueLongs:     res.UniqueLongCount,
		ClosedToday:     res.UniqueExitCount,
		ActivePositions: exposure.Active,
		TotalAssets:     len(r.cfg.Assets),
		OpenPnLPercent:  exposure.OpenPnLPercent,
		Latest:          latestByAsset(res.Latest, r.cfg.Assets),
		Positions:       exposure.Positions,
		Signals:         res.Ordered,
		History:         signals.NewPositionsOnly(res.Ordered, "", r.cfg.HistoryLimit),
		Trades:          headTrades(trades, r.cfg.TradesLimit),
		NewTrades:       added,
		Performance:     performance.Aggregate(trades, performance.AllSymbols),
		AllTrades:       trades,
	}
	if view.Positions == nil {
		view.Positions = []models.OpenPosition{}
	}
	if len(in.errors) > 0 {
		view.Errors = in.errors
	}
	return view
}

func (r *Refresher) marketView(st *models.Status, now time.Time) models.MarketView {
	mv := models.MarketView{}
	if r.clock != nil {
		mv.Status = r.clock.Status(now)
	}
	if st == nil || st.Timestamp.IsZero() {
		return mv
	}
	age := now.Sub(st.Timestamp.Time).Seconds()
	mv.StatusTimestamp = st.Timestamp.Ptr()
	mv.StatusAgeSec = &age
	mv.Connected = market.IsConnected(st.Timestamp, now, r.cfg.Staleness)
	return mv
}

func (r *Refresher) recordCycle(view *models.DashboardView, in *cycleInputs, now, start time.Time) {
	r.metrics.RecordProducerConnected(view.Market.Connected)

	prices := map[string]float64{}
	if in.status != nil {
		for sym, p := range in.status.LatestPrices {
			prices[sym] = p
		}
	}
	if in.realtime != nil && market.IsConnected(in.realtime.LastUpdate, now, r.cfg.Staleness) {
		for sym := range in.realtime.Prices {
			if p, ok := in.realtime.Price(sym); ok {
				prices[sym] = p
			}
		}
	}
	for sym, p := range prices {
		if p > 0 {
			r.metrics.RecordLastPrice(sym, p)
		}
	}

	result := "ok"
	if len(view.Errors) > 0 {
		result = "partial"
	}
	r.metrics.RecordPollCycle(result)
	r.metrics.RecordLatency("refresh", time.Since(start).Seconds())

	r.log.Debug("refresh complete",
		applogger.String("result", result),
		applogger.Int("signals", view.SignalsToday),
		applogger.Int("new_trades", len(view.NewTrades)),
		applogger.Bool("connected", view.Market.Connected),
		applogger.Duration("took", time.Since(start)),
	)
}

func (r *Refresher) publish(view *models.DashboardView) {
	r.mu.Lock()
	r.view = view
	listeners := make([]func(*models.DashboardView), len(r.listeners))
	copy(listeners, r.listeners)
	r.mu.Unlock()

	for _, fn := range listeners {
		fn(view)
	}
}

func latestByAsset(latest map[string]models.SignalView, assets []string) []models.AssetSignal {
	out := make([]models.AssetSignal, 0, len(assets))
	for _, sym := range assets {
		row := models.AssetSignal{Symbol: sym}
		if v, ok := latest[sym]; ok {
			row.Signal = &v
		}
		out = append(out, row)
	}
	return out
}

func confidenceOf(res signals.Result, prior map[string]models.PriorPosition) map[string]float64 {
	out := make(map[string]float64, len(res.Latest)+len(prior))
	for sym, p := range prior {
		out[sym] = p.LastConfidence
	}
	for sym, v := range res.Latest {
		out[sym] = v.Confidence
	}
	return out
}

func sortTradesDesc(trades []models.Trade) {
	sort.SliceStable(trades, func(i, j int) bool {
		return trades[i].ExitTime.After(trades[j].ExitTime.Time)
	})
}

func headTrades(trades []models.Trade, limit int) []models.Trade {
	if limit > 0 && len(trades) > limit {
		return trades[:limit]
	}
	return trades
}

// FilterTrades returns trades for symbol (all when empty), capped at limit.
func FilterTrades(trades []models.Trade, symbol string, limit int) []models.Trade {
	out := make([]models.Trade, 0)
	for _, t := range trades {
		if symbol != "" && !strings.EqualFold(t.Symbol, symbol) {
			continue
		}
		out = append(out, t)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out
}
