package repository

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	drepo "SignalBoard/internal/domain/repository"
	"SignalBoard/pkg/cache"
	xhttp "SignalBoard/pkg/http"
)

func TestFileBlobStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := NewFileBlobStore(t.TempDir())

	require.NoError(t, s.Write(ctx, "data/trades_history.json", []byte(`[]`)))
	b, err := s.Read(ctx, "data/trades_history.json")
	require.NoError(t, err)
	assert.Equal(t, `[]`, string(b))

	entries, err := os.ReadDir(filepath.Join(s.Root(), "data"))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp file must not be left behind")
}

func TestFileBlobStoreNotFound(t *testing.T) {
	s := NewFileBlobStore(t.TempDir())
	_, err := s.Read(context.Background(), "status.json")
	assert.ErrorIs(t, err, drepo.ErrBlobNotFound)
}

func TestFileBlobStoreRejectsEscape(t *testing.T) {
	s := NewFileBlobStore(t.TempDir())
	_, err := s.Read(context.Background(), "../etc/passwd")
	require.Error(t, err)
	assert.False(t, errors.Is(err, drepo.ErrBlobNotFound))
	assert.Error(t, s.Write(context.Background(), "../x.json", []byte("{}")))
}

func TestFileBlobStoreCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewFileBlobStore(t.TempDir()).Read(ctx, "status.json")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestHTTPBlobStore(t *testing.T) {
	var lastT atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		lastT.Store(r.URL.Query().Get("t"))
		if r.URL.Path != "/status.json" {
			http.NotFound(w, r)
			return
		}
		assert.Equal(t, "no-cache", r.Header.Get("Cache-Control"))
		_, _ = w.Write([]byte(`{"timestamp":"2024-10-10T13:00:00Z"}`))
	}))
	defer srv.Close()

	s := NewHTTPBlobStore(srv.URL+"/", xhttp.NewClient(xhttp.WithTimeout(time.Second)), nil, 0)
	s.now = func() time.Time { return time.Unix(0, 42) }

	b, err := s.Read(context.Background(), "status.json")
	require.NoError(t, err)
	assert.JSONEq(t, `{"timestamp":"2024-10-10T13:00:00Z"}`, string(b))
	assert.Equal(t, "42", lastT.Load())

	_, err = s.Read(context.Background(), "signals/signals_20241010.json")
	assert.ErrorIs(t, err, drepo.ErrBlobNotFound)

	assert.ErrorIs(t, s.Write(context.Background(), "status.json", nil), drepo.ErrReadOnly)
}

func TestHTTPBlobStoreCachesReads(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	s := NewHTTPBlobStore(srv.URL, nil, cache.NewTTLCache(), time.Minute)
	for i := 0; i < 3; i++ {
		_, err := s.Read(context.Background(), "status.json")
		require.NoError(t, err)
	}
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
}

func TestHTTPBlobStoreServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := NewHTTPBlobStore(srv.URL, nil, nil, 0).Read(context.Background(), "status.json")
	require.Error(t, err)
	var se *xhttp.StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusBadGateway, se.Code)
}

// memKV is an in-memory BytesStore standing in for Redis.
type memKV struct {
	m   map[string][]byte
	err error
}

func newMemKV() *memKV { return &memKV{m: map[string][]byte{}} }

func (k *memKV) GetBytes(_ context.Context, key string) ([]byte, error) {
	if k.err != nil {
		return nil, k.err
	}
	b, ok := k.m[key]
	if !ok {
		return nil, cache.ErrCacheMiss
	}
	return b, nil
}

func (k *memKV) SetBytes(_ context.Context, key string, value []byte, _ time.Duration) error {
	if k.err != nil {
		return k.err
	}
	k.m[key] = value
	return nil
}

func TestRedisBlobStore(t *testing.T) {
	kv := newMemKV()
	s := NewRedisBlobStore(kv)
	ctx := context.Background()

	_, err := s.Read(ctx, "status.json")
	assert.ErrorIs(t, err, drepo.ErrBlobNotFound)

	require.NoError(t, s.Write(ctx, "status.json", []byte(`{}`)))
	b, err := s.Read(ctx, "status.json")
	require.NoError(t, err)
	assert.Equal(t, `{}`, string(b))

	kv.err = errors.New("connection refused")
	_, err = s.Read(ctx, "status.json")
	require.Error(t, err)
	assert.False(t, errors.Is(err, drepo.ErrBlobNotFound))
}
