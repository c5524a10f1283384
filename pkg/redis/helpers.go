package redis

import (
	"context"
	"errors"
	"fmt"

	redisclient "github.com/redis/go-redis/v9"

	"baterysul.com.br/ledger/pkg/store"
)

// Store keeps each ledger key as a plain string value under a shared prefix.
// Values never expire.
type Store struct {
	client *redisclient.Client
	prefix string
}

func NewStore(client *redisclient.Client, prefix string) *Store {
	return &Store{client: client, prefix: prefix}
}

func (s *Store) key(name string) string {
	return s.prefix + name
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	value, err := s.client.Get(ctx, s.key(key)).Bytes()
	if errors.Is(err, redisclient.Nil) {
		return nil, store.ErrKeyNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s from redis: %w", key, err)
	}
	return value, nil
}

func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	// Track written keys so a flush can find them without KEYS
	pipe := s.client.TxPipeline()
	pipe.Set(ctx, s.key(key), value, 0)
	pipe.SAdd(ctx, s.key("keys"), key)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to execute Redis pipeline for %s: %w", key, err)
	}
	return nil
}

// Clear removes every key this store has written
func (s *Store) Clear(ctx context.Context) error {
	keys, err := s.client.SMembers(ctx, s.key("keys")).Result()
	if err != nil {
		return err
	}

	full := make([]string, 0, len(keys)+1)
	for _, key := range keys {
		full = append(full, s.key(key))
	}
	full = append(full, s.key("keys"))
	return s.client.Del(ctx, full...).Err()
}

func (s *Store) Close() error {
	return s.client.Close()
}
