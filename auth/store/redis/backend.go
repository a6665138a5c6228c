// Package redis provides a token store Backend kept in a Redis hash, for hosts
// that share one sign-in across several processes.
package redis

import (
	"context"

	"github.com/go-redis/redis/v8"

	"github.com/viant/storegate/auth/store"
)

// DefaultKey is the hash key used when none is configured.
const DefaultKey = "storegate:auth"

// Backend persists entries as fields of a single hash.
type Backend struct {
	client redis.UniversalClient
	key    string
}

// New creates a backend using client; key selects the profile hash.
func New(client redis.UniversalClient, key string) *Backend {
	if key == "" {
		key = DefaultKey
	}
	return &Backend{client: client, key: key}
}

// Dial connects to addr and verifies the connection.
func Dial(ctx context.Context, addr, password string, db int, key string) (*Backend, error) {
	client := redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	return New(client, key), nil
}

// Close closes the underlying client.
func (b *Backend) Close() error { return b.client.Close() }

func (b *Backend) Load(ctx context.Context) (store.Entries, error) {
	values, err := b.client.HGetAll(ctx, b.key).Result()
	if err != nil {
		return nil, err
	}
	return store.Entries(values), nil
}

// Save replaces the hash in one MULTI/EXEC.
func (b *Backend) Save(ctx context.Context, entries store.Entries) error {
	_, err := b.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, b.key)
		if len(entries) == 0 {
			return nil
		}
		values := make(map[string]interface{}, len(entries))
		for k, v := range entries {
			values[k] = v
		}
		pipe.HSet(ctx, b.key, values)
		return nil
	})
	return err
}

func (b *Backend) Delete(ctx context.Context) error {
	return b.client.Del(ctx, b.key).Err()
}
