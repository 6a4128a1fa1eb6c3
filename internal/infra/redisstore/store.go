// Package redisstore provides a Redis-backed implementation of SnapshotStore.
package redisstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/bytedance/sonic"
	"github.com/redis/go-redis/v9"

	"github.com/runoshun/board/internal/domain"
)

// maxRetries bounds optimistic transaction retries when another writer
// changes the key between WATCH and EXEC.
const maxRetries = 16

// Store keeps the board as one JSON document under a key, updated with
// WATCH/MULTI/EXEC so concurrent writers never lose each other's changes.
type Store struct {
	client *redis.Client
	key    string
}

// New creates a Store on an existing client.
func New(client *redis.Client, key string) *Store {
	if key == "" {
		key = domain.DefaultRedisKey
	}
	return &Store{client: client, key: key}
}

// Open connects to the Redis server at url (redis://host:port/db).
func Open(ctx context.Context, url, key string) (*Store, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("%w: ping redis: %v", domain.ErrTransport, err)
	}
	return New(client, key), nil
}

// Close closes the client.
func (s *Store) Close() error {
	return s.client.Close()
}

func (s *Store) revisionKey() string {
	return s.key + ":revision"
}

// View runs fn with the stored board.
func (s *Store) View(ctx context.Context, fn func(*domain.Snapshot) error) error {
	snap, err := s.get(ctx, s.client)
	if err != nil {
		return err
	}
	return fn(snap)
}

// Update runs fn with the stored board and writes the result atomically.
// fn may run more than once when a concurrent write forces a retry.
func (s *Store) Update(ctx context.Context, fn func(*domain.Snapshot) error) error {
	txf := func(tx *redis.Tx) error {
		snap, err := s.get(ctx, tx)
		if err != nil {
			return err
		}
		if err := fn(snap); err != nil {
			return err
		}
		data, err := encode(snap)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, s.key, data, 0)
			pipe.Incr(ctx, s.revisionKey())
			return nil
		})
		return err
	}

	for range maxRetries {
		err := s.client.Watch(ctx, txf, s.key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return err
	}
	return fmt.Errorf("update board: too many concurrent writers")
}

// Revision returns the number of writes since the store was created.
func (s *Store) Revision(ctx context.Context) (int64, error) {
	n, err := s.client.Get(ctx, s.revisionKey()).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return n, err
}

// Initialize writes an empty board unless the key exists.
// Returns true if it was created.
func (s *Store) Initialize(ctx context.Context) (bool, error) {
	data, err := encode(&domain.Snapshot{})
	if err != nil {
		return false, err
	}
	created, err := s.client.SetNX(ctx, s.key, data, 0).Result()
	if err != nil {
		return false, fmt.Errorf("initialize board: %w", err)
	}
	return created, nil
}

func (s *Store) get(ctx context.Context, c redis.Cmdable) (*domain.Snapshot, error) {
	raw, err := c.Get(ctx, s.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrNotInitialized
	}
	if err != nil {
		return nil, fmt.Errorf("get board: %w", err)
	}
	var snap domain.Snapshot
	if err := sonic.ConfigStd.Unmarshal(raw, &snap); err != nil {
		return nil, fmt.Errorf("decode board: %w", err)
	}
	return &snap, nil
}

func encode(snap *domain.Snapshot) ([]byte, error) {
	out := *snap
	if out.Columns == nil {
		out.Columns = []domain.Column{}
	}
	if out.Tasks == nil {
		out.Tasks = []domain.Task{}
	}
	data, err := sonic.ConfigStd.Marshal(out)
	if err != nil {
		return nil, fmt.Errorf("encode board: %w", err)
	}
	return data, nil
}

var (
	_ domain.SnapshotStore    = (*Store)(nil)
	_ domain.StoreInitializer = (*Store)(nil)
)
