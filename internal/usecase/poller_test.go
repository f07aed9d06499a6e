package usecase

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"SignalBoard/internal/domain/models"
)

type countingCycle struct {
	n       int32
	running int32
	overlap int32
	delay   time.Duration
}

func (c *countingCycle) Refresh(ctx context.Context) (*models.DashboardView, error) {
	if atomic.AddInt32(&c.running, 1) > 1 {
		atomic.StoreInt32(&c.overlap, 1)
	}
	defer atomic.AddInt32(&c.running, -1)
	time.Sleep(c.delay)
	atomic.AddInt32(&c.n, 1)
	return &models.DashboardView{}, nil
}

func (c *countingCycle) count() int32 { return atomic.LoadInt32(&c.n) }

func runPoller(t *testing.T, p *Poller) (context.CancelFunc, <-chan error) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()
	return cancel, done
}

func TestPollerRunsImmediatelyAndOnTicks(t *testing.T) {
	c := &countingCycle{delay: 5 * time.Millisecond}
	cancel, done := runPoller(t, NewPoller(c, 10*time.Millisecond, nil))

	require.Eventually(t, func() bool { return c.count() >= 3 }, 2*time.Second, 5*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("poller did not stop")
	}
	assert.Zero(t, atomic.LoadInt32(&c.overlap))
}

func TestPollerFirstCycleIsImmediate(t *testing.T) {
	c := &countingCycle{}
	cancel, done := runPoller(t, NewPoller(c, time.Hour, nil))
	defer func() {
		cancel()
		<-done
	}()
	require.Eventually(t, func() bool { return c.count() == 1 }, time.Second, 5*time.Millisecond)
}

func TestPollerWakesOnFileChange(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "signals"), 0o755))

	c := &countingCycle{}
	cancel, done := runPoller(t, NewPoller(c, time.Hour, nil, WithWatchDir(dir)))
	defer func() {
		cancel()
		<-done
	}()
	require.Eventually(t, func() bool { return c.count() == 1 }, time.Second, 5*time.Millisecond)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "signals", "signals_20241010.json"), []byte(`[]`), 0o644))
	require.Eventually(t, func() bool { return c.count() >= 2 }, 2*time.Second, 10*time.Millisecond)
}

func TestPollerWatchMissingDir(t *testing.T) {
	c := &countingCycle{}
	cancel, done := runPoller(t, NewPoller(c, time.Hour, nil, WithWatchDir(filepath.Join(t.TempDir(), "absent"))))
	require.Eventually(t, func() bool { return c.count() == 1 }, time.Second, 5*time.Millisecond)
	cancel()
	assert.NoError(t, <-done)
}

func TestRelevantEvents(t *testing.T) {
	assert.True(t, relevant(fsnotifyEvent("status.json", true)))
	assert.False(t, relevant(fsnotifyEvent(".trades_history.json.tmp-123", true)))
	assert.False(t, relevant(fsnotifyEvent("notes.txt", true)))
	assert.False(t, relevant(fsnotifyEvent("status.json", false)))
}

func fsnotifyEvent(name string, write bool) fsnotify.Event {
	op := fsnotify.Chmod
	if write {
		op = fsnotify.Write
	}
	return fsnotify.Event{Name: name, Op: op}
}
