package usecase

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"SignalBoard/internal/domain/models"
	applogger "SignalBoard/pkg/logger"
)

// Cycle is one unit of scheduled work.
type Cycle interface {
	Refresh(ctx context.Context) (*models.DashboardView, error)
}

type PollerOption func(*Poller)

// WithWatchDir wakes the poller early when JSON files under dir change.
func WithWatchDir(dir string) PollerOption {
	return func(p *Poller) { p.watchDir = dir }
}

// Poller runs a Cycle on a fixed interval. The first cycle runs
// immediately; cycles never overlap.
type Poller struct {
	cycle    Cycle
	interval time.Duration
	watchDir string
	log      *applogger.Logger
}

func NewPoller(cycle Cycle, interval time.Duration, log *applogger.Logger, opts ...PollerOption) *Poller {
	if log == nil {
		log = applogger.Nop()
	}
	p := &Poller{cycle: cycle, interval: interval, log: log.Component("poller")}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run blocks until ctx is cancelled.
func (p *Poller) Run(ctx context.Context) error {
	wake := make(chan struct{}, 1)
	if p.watchDir != "" {
		stop, err := p.watch(ctx, wake)
		if err != nil {
			p.log.Warn("file watch disabled", applogger.String("dir", p.watchDir), applogger.Error(err))
		} else {
			defer stop()
		}
	}

	p.log.Info("poller started", applogger.Duration("interval", p.interval))
	p.runOnce(ctx)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.log.Info("poller stopped")
			return nil
		case <-ticker.C:
			p.runOnce(ctx)
		case <-wake:
			p.runOnce(ctx)
		}
	}
}

func (p *Poller) runOnce(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	if _, err := p.cycle.Refresh(ctx); err != nil && ctx.Err() == nil {
		p.log.Error("refresh failed", applogger.Error(err))
	}
}

// watch subscribes to the source directory and its signals/ and data/
// subdirectories. Bursts of events collapse into one pending wake-up.
func (p *Poller) watch(ctx context.Context, wake chan<- struct{}) (func(), error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := w.Add(p.watchDir); err != nil {
		_ = w.Close()
		return nil, err
	}
	for _, sub := range []string{"signals", "data"} {
		dir := filepath.Join(p.watchDir, sub)
		if fi, err := os.Stat(dir); err == nil && fi.IsDir() {
			if err := w.Add(dir); err != nil {
				p.log.Warn("watch subdirectory failed", applogger.String("dir", dir), applogger.Error(err))
			}
		}
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if !relevant(ev) {
					continue
				}
				select {
				case wake <- struct{}{}:
				default:
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				p.log.Warn("file watch error", applogger.Error(err))
			}
		}
	}()

	return func() {
		_ = w.Close()
		<-done
	}, nil
}

func relevant(ev fsnotify.Event) bool {
	name := filepath.Base(ev.Name)
	if strings.HasPrefix(name, ".") || !strings.HasSuffix(name, ".json") {
		return false
	}
	return ev.Has(fsnotify.Create) || ev.Has(fsnotify.Write) || ev.Has(fsnotify.Rename)
}
