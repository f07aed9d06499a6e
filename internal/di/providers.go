package di

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"SignalBoard/internal/domain/repository"
	"SignalBoard/internal/handler/api"
	"SignalBoard/internal/handler/ws"
	mid "SignalBoard/internal/middleware"
	internalrepo "SignalBoard/internal/repository"
	"SignalBoard/internal/services/market"
	"SignalBoard/internal/usecase"
	"SignalBoard/pkg/cache"
	pkgch "SignalBoard/pkg/clickhouse"
	"SignalBoard/pkg/config"
	xhttp "SignalBoard/pkg/http"
	pkgkafka "SignalBoard/pkg/kafka"
	applogger "SignalBoard/pkg/logger"
	"SignalBoard/pkg/metrics"
	"SignalBoard/pkg/server"
)

// BlobStores holds the backends selected by configuration.
type BlobStores struct {
	Source repository.BlobStore
	Ledger repository.BlobStore

	// CarryOver receives snapshot rollovers when the source is read-only.
	CarryOver repository.BlobStore

	// WatchDir is set when the source is a local directory.
	WatchDir string
}

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	l, err := applogger.New(&applogger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return l, nil
}

// ProvideRegistry returns the Prometheus registry, or nil when metrics are disabled.
func ProvideRegistry(cfg *config.Config) *prometheus.Registry {
	if cfg.Metrics.Disabled {
		return nil
	}
	return metrics.NewRegistry()
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics(reg *prometheus.Registry) repository.Metrics {
	if reg == nil {
		return metrics.Nop{}
	}
	return metrics.New(reg)
}

// ProvideRedisCache connects to Redis when the source or the ledger lives there.
func ProvideRedisCache(cfg *config.Config) (*cache.RedisCache, error) {
	if cfg.Source.Type != "redis" && cfg.Ledger.Backend != "redis" {
		return nil, nil
	}
	c, err := cache.NewRedisCache(
		cache.WithRedisAddr(cfg.Redis.Addr),
		cache.WithRedisPassword(cfg.Redis.Password),
		cache.WithRedisDB(cfg.Redis.DB),
		cache.WithRedisPrefix(cfg.Redis.KeyPrefix),
	)
	if err != nil {
		return nil, fmt.Errorf("redis: %w", err)
	}
	return c, nil
}

// ProvideBlobStores selects the source and ledger backends.
func ProvideBlobStores(cfg *config.Config, rc *cache.RedisCache) (*BlobStores, error) {
	var out BlobStores

	switch cfg.Source.Type {
	case "file":
		fs := internalrepo.NewFileBlobStore(cfg.Source.BaseDir)
		out.Source, out.WatchDir = fs, fs.Root()
	case "http":
		client := xhttp.NewClient(xhttp.WithTimeout(cfg.Poll.FetchTimeout))
		out.Source = internalrepo.NewHTTPBlobStore(cfg.Source.BaseURL, client, cache.NewTTLCache(), cfg.Source.CacheTTL)
	case "redis":
		out.Source = internalrepo.NewRedisBlobStore(rc)
	default:
		return nil, fmt.Errorf("unknown source type %q", cfg.Source.Type)
	}

	switch cfg.Ledger.Backend {
	case "file":
		out.Ledger = internalrepo.NewFileBlobStore(cfg.Source.BaseDir)
	case "redis":
		out.Ledger = internalrepo.NewRedisBlobStore(rc)
	default:
		return nil, fmt.Errorf("unknown ledger backend %q", cfg.Ledger.Backend)
	}

	if cfg.Source.Type == "http" {
		out.CarryOver = out.Ledger
	}
	return &out, nil
}

// ProvideSourceRepository decodes producer blobs.
func ProvideSourceRepository(stores *BlobStores) repository.SignalSource {
	return internalrepo.NewSourceRepository(stores.Source)
}

// ProvideSnapshotStore reads carry-over positions from the source.
func ProvideSnapshotStore(stores *BlobStores) repository.PositionSnapshotStore {
	var opts []internalrepo.SnapshotOption
	if stores.CarryOver != nil {
		opts = append(opts, internalrepo.WithCarryOver(stores.CarryOver))
	}
	return internalrepo.NewBlobPositionSnapshotStore(stores.Source, internalrepo.PositionStatesPath, opts...)
}

// ProvideTradeLedger creates the deduplicating trade ledger.
func ProvideTradeLedger(cfg *config.Config, stores *BlobStores, rc *cache.RedisCache, m repository.Metrics) repository.TradeLedger {
	var opts []internalrepo.LedgerOption
	if cfg.Ledger.Backend == "redis" && rc != nil {
		opts = append(opts, internalrepo.WithLocker(rc))
	}
	return internalrepo.NewBlobTradeLedger(stores.Ledger, cfg.Ledger.Path, m, opts...)
}

// ProvideClickHouseClient creates a ClickHouse client when trades are archived there.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	if cfg.Sink.Type != usecase.BackendClickHouse {
		return nil, nil
	}
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithAsyncInsert(cfg.ClickHouse.AsyncInsert, cfg.ClickHouse.WaitForAsync),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout, cfg.ClickHouse.WriteTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}
	return client, nil
}

// ProvideTradeStorage creates ClickHouse storage and ensures its schema.
func ProvideTradeStorage(chClient *pkgch.Client, cfg *config.Config) (repository.Storage, error) {
	if chClient == nil {
		return nil, nil
	}
	store := internalrepo.NewClickHouseTradeStore(chClient.DB(), cfg.ClickHouse.Database, cfg.ClickHouse.Table)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := store.Init(ctx); err != nil {
		_ = chClient.Close()
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}
	return store, nil
}

// ProvideKafkaProducer creates a Kafka producer when trades are published there.
func ProvideKafkaProducer(cfg *config.Config, reg *prometheus.Registry) (*pkgkafka.Producer, error) {
	if cfg.Sink.Type != usecase.BackendKafka {
		return nil, nil
	}
	opts := []pkgkafka.ProducerOption{
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatchSize(cfg.Kafka.Producer.BatchSize),
		pkgkafka.WithBatchBytes(cfg.Kafka.Producer.BatchBytes),
		pkgkafka.WithBatchTimeout(cfg.Kafka.Producer.Linger),
		pkgkafka.WithTimeouts(cfg.Kafka.Producer.WriteTimeout, cfg.Kafka.Producer.ReadTimeout),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithAsync(cfg.Kafka.Producer.Async),
		pkgkafka.WithHashByKey(true),
		pkgkafka.WithAutoCreateTopic(true),
	}
	if reg != nil {
		opts = append(opts, pkgkafka.WithRegisterer(reg))
	}
	producer, err := pkgkafka.NewProducer(opts...)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, nil
}

// ProvideTradePublisher creates Kafka publisher repository.
func ProvideTradePublisher(producer *pkgkafka.Producer, cfg *config.Config) repository.Publisher {
	if producer == nil {
		return nil
	}
	return internalrepo.NewKafkaTradePublisher(producer, cfg.Kafka.Topic)
}

// ProvideTradeProcessor creates trade processor use case.
func ProvideTradeProcessor(
	pub repository.Publisher,
	store repository.Storage,
	m repository.Metrics,
	l *applogger.Logger,
	cfg *config.Config,
) *usecase.TradeProcessor {
	return usecase.NewTradeProcessor(pub, store, m, l, cfg.Sink.Type)
}

// ProvideSinkPipeline buffers sink deliveries that fail.
func ProvideSinkPipeline(proc *usecase.TradeProcessor, l *applogger.Logger) *mid.SinkPipeline {
	return mid.NewSinkPipeline(proc,
		mid.WithBufferSize(256),
		mid.WithBackoff(100*time.Millisecond, 10*time.Second),
		mid.WithLogger(l),
	)
}

// ProvideMarketClock creates the session clock.
func ProvideMarketClock(cfg *config.Config) (*market.Clock, error) {
	return market.NewClock(cfg.Market.UTCOffset(), cfg.Market.Open, cfg.Market.Close)
}

// ProvideRefresher creates the dashboard refresh cycle.
func ProvideRefresher(
	cfg *config.Config,
	source repository.SignalSource,
	snapshots repository.PositionSnapshotStore,
	ledger repository.TradeLedger,
	pipeline *mid.SinkPipeline,
	clock *market.Clock,
	m repository.Metrics,
	l *applogger.Logger,
) *usecase.Refresher {
	return usecase.NewRefresher(source, snapshots, ledger, pipeline, clock, m, l, usecase.RefresherConfig{
		Assets:       cfg.Assets,
		FetchTimeout: cfg.Poll.FetchTimeout,
		Staleness:    cfg.Poll.StalenessThreshold,
	})
}

// ProvideHub creates the websocket hub and subscribes it to new views.
func ProvideHub(l *applogger.Logger, refresher *usecase.Refresher) *ws.Hub {
	hub := ws.NewHub(l)
	refresher.Subscribe(hub.Broadcast)
	return hub
}

// ProvidePoller schedules refresh cycles.
func ProvidePoller(cfg *config.Config, refresher *usecase.Refresher, stores *BlobStores, l *applogger.Logger) *usecase.Poller {
	var opts []usecase.PollerOption
	if cfg.Poll.Watch && stores.WatchDir != "" {
		opts = append(opts, usecase.WithWatchDir(stores.WatchDir))
	}
	return usecase.NewPoller(refresher, cfg.Poll.Interval, l, opts...)
}

// ProvideDashboardHandler creates the REST handler. A ClickHouse sink is
// pinged from /healthz.
func ProvideDashboardHandler(l *applogger.Logger, refresher *usecase.Refresher, proc *usecase.TradeProcessor) *api.DashboardEchoHandler {
	var opts []api.HandlerOption
	if proc.Backend() == usecase.BackendClickHouse {
		opts = append(opts, api.WithSinkHealth(proc.Backend(), proc))
	}
	return api.NewDashboardEchoHandler(l, refresher, opts...)
}

// ProvideHTTPServer creates the Echo server with every route registered.
func ProvideHTTPServer(
	cfg *config.Config,
	l *applogger.Logger,
	reg *prometheus.Registry,
	dashboard *api.DashboardEchoHandler,
	hub *ws.Hub,
) *xhttp.Server {
	opts := []xhttp.ServerOption{
		xhttp.WithPort(cfg.Server.Port),
		xhttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
		xhttp.WithRateLimit(cfg.Server.RateLimit.Burst, cfg.Server.RateLimit.PerSec),
		xhttp.WithHandlers(dashboard, hub),
	}
	if reg != nil {
		opts = append(opts, xhttp.WithMetrics(reg, cfg.Metrics.Path))
	}
	return xhttp.NewServer(l, opts...)
}

// ProvideClosers collects clients to release on shutdown.
func ProvideClosers(rc *cache.RedisCache, chClient *pkgch.Client) server.Closers {
	var out server.Closers
	if rc != nil {
		out = append(out, rc)
	}
	if chClient != nil {
		out = append(out, chClient)
	}
	return out
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	l *applogger.Logger,
	poller *usecase.Poller,
	httpServer *xhttp.Server,
	hub *ws.Hub,
	pipeline *mid.SinkPipeline,
	proc *usecase.TradeProcessor,
	closers server.Closers,
) *server.App {
	return server.New(cfg, l, poller, httpServer, hub, pipeline, proc, closers)
}
