package repository

import (
	"context"
	"errors"
	"fmt"

	drepo "SignalBoard/internal/domain/repository"
	"SignalBoard/pkg/cache"
)

// RedisBlobStore keeps each blob under its path as a Redis string key.
type RedisBlobStore struct {
	kv cache.BytesStore
}

func NewRedisBlobStore(kv cache.BytesStore) *RedisBlobStore {
	return &RedisBlobStore{kv: kv}
}

func (s *RedisBlobStore) Read(ctx context.Context, path string) ([]byte, error) {
	b, err := s.kv.GetBytes(ctx, path)
	if errors.Is(err, cache.ErrCacheMiss) {
		return nil, fmt.Errorf("%s: %w", path, drepo.ErrBlobNotFound)
	}
	if err != nil {
		return nil, err
	}
	return b, nil
}

func (s *RedisBlobStore) Write(ctx context.Context, path string, data []byte) error {
	return s.kv.SetBytes(ctx, path, data, 0)
}

var (
	_ drepo.BlobStore = (*RedisBlobStore)(nil)
	_ Locker          = (*cache.RedisCache)(nil)
)
