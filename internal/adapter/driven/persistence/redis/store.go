package redis

import (
	"context"

	"github.com/duocall/duo/internal/core/domain"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

// Store holds the command connection to the shared state store. It is
// constructed once at process start and injected into the directory and
// signaling adapters; no package-level connection state.
type Store struct {
	rdb *redis.Client
}

func Open(ctx context.Context, addr, password string, db int) (*Store, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, wrapStore(err, "ping")
	}
	return &Store{rdb: rdb}, nil
}

func (s *Store) Ping(ctx context.Context) error {
	return wrapStore(s.rdb.Ping(ctx).Err(), "ping")
}

func (s *Store) Close() error {
	return s.rdb.Close()
}

// wrapStore folds transport failures into the store-unavailable taxonomy
// while keeping the underlying cause in the message.
func wrapStore(err error, op string) error {
	if err == nil {
		return nil
	}
	return errors.Wrapf(domain.ErrStoreUnavailable, "%s: %v", op, err)
}
