package repository

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	drepo "SignalBoard/internal/domain/repository"
	"SignalBoard/pkg/cache"
	xhttp "SignalBoard/pkg/http"
)

// HTTPBlobStore reads blobs from a static mirror. Every request carries a
// cache-busting query parameter; successful reads are cached for ttl.
type HTTPBlobStore struct {
	baseURL string
	client  *xhttp.Client
	cache   cache.BytesStore
	ttl     time.Duration
	now     func() time.Time
}

func NewHTTPBlobStore(baseURL string, client *xhttp.Client, c cache.BytesStore, ttl time.Duration) *HTTPBlobStore {
	if client == nil {
		client = xhttp.NewClient()
	}
	return &HTTPBlobStore{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
		cache:   c,
		ttl:     ttl,
		now:     time.Now,
	}
}

func (s *HTTPBlobStore) Read(ctx context.Context, path string) ([]byte, error) {
	path = strings.TrimLeft(path, "/")
	if s.cache != nil && s.ttl > 0 {
		if b, err := s.cache.GetBytes(ctx, path); err == nil {
			return b, nil
		}
	}

	var body []byte
	err := s.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodGet,
		URL:    s.baseURL + "/" + path,
		Headers: map[string]string{
			"Cache-Control": "no-cache",
			"Accept":        "application/json",
		},
		QueryParams: map[string][]string{
			"t": {strconv.FormatInt(s.now().UnixNano(), 10)},
		},
	}, &body)

	var se *xhttp.StatusError
	if errors.As(err, &se) && se.Code == http.StatusNotFound {
		return nil, fmt.Errorf("%s: %w", path, drepo.ErrBlobNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", path, err)
	}

	if s.cache != nil && s.ttl > 0 {
		_ = s.cache.SetBytes(ctx, path, body, s.ttl)
	}
	return body, nil
}

func (s *HTTPBlobStore) Write(_ context.Context, path string, _ []byte) error {
	return fmt.Errorf("write %s: %w", path, drepo.ErrReadOnly)
}

var _ drepo.BlobStore = (*HTTPBlobStore)(nil)
