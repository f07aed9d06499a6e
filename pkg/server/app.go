package server

import (
	"context"
	"errors"
	"io"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"SignalBoard/internal/handler/ws"
	mid "SignalBoard/internal/middleware"
	"SignalBoard/internal/usecase"
	"SignalBoard/pkg/config"
	xhttp "SignalBoard/pkg/http"
	applogger "SignalBoard/pkg/logger"
)

// Closers are infrastructure clients released after everything else stops.
type Closers []io.Closer

// App encapsulates the entire application lifecycle.
type App struct {
	cfg        *config.Config
	log        *applogger.Logger
	poller     *usecase.Poller
	httpServer *xhttp.Server
	hub        *ws.Hub
	pipeline   *mid.SinkPipeline
	proc       *usecase.TradeProcessor
	closers    Closers
}

// New creates a new App instance with all dependencies.
func New(
	cfg *config.Config,
	log *applogger.Logger,
	poller *usecase.Poller,
	httpServer *xhttp.Server,
	hub *ws.Hub,
	pipeline *mid.SinkPipeline,
	proc *usecase.TradeProcessor,
	closers Closers,
) *App {
	if log == nil {
		log = applogger.Nop()
	}
	return &App{
		cfg:        cfg,
		log:        log.Component("app"),
		poller:     poller,
		httpServer: httpServer,
		hub:        hub,
		pipeline:   pipeline,
		proc:       proc,
		closers:    closers,
	}
}

// Run starts the application and blocks until SIGINT or SIGTERM.
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return a.RunContext(ctx)
}

// RunContext runs the poller and the HTTP server until ctx is cancelled or
// either of them fails, then releases every resource.
func (a *App) RunContext(ctx context.Context) error {
	a.log.Info("starting",
		applogger.String("env", a.cfg.Environment),
		applogger.String("source", a.cfg.Source.Type),
		applogger.String("ledger", a.cfg.Ledger.Backend),
		applogger.String("sink", a.cfg.Sink.Type),
		applogger.Strings("assets", a.cfg.Assets),
	)

	g, gctx := errgroup.WithContext(ctx)
	if a.pipeline != nil {
		a.pipeline.Start(gctx)
	}
	g.Go(func() error { return a.poller.Run(gctx) })
	g.Go(func() error { return a.httpServer.Run(gctx) })

	err := g.Wait()
	if err != nil && !errors.Is(err, context.Canceled) {
		a.log.Error("service failed", applogger.Error(err))
	} else {
		err = nil
		a.log.Info("shutdown signal received")
	}

	a.shutdown()
	return err
}

// shutdown releases resources in reverse order of their use.
func (a *App) shutdown() {
	if a.hub != nil {
		a.hub.Close()
	}
	if a.pipeline != nil {
		a.pipeline.Stop()
	}
	if a.proc != nil {
		a.proc.Close()
	}
	for _, c := range a.closers {
		if err := c.Close(); err != nil {
			a.log.Warn("close error", applogger.Error(err))
		}
	}
	a.log.Info("shutdown complete")
}
