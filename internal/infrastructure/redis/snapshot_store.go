package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// KV is the subset of the go-redis client used here
type KV interface {
	Get(ctx context.Context, key string) *goredis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *goredis.StatusCmd
}

// SnapshotStore keeps the last good copy of each catalog collection as JSON
type SnapshotStore struct {
	client KV
	prefix string
	ttl    time.Duration
}

func NewSnapshotStore(client KV, prefix string, ttl time.Duration) *SnapshotStore {
	return &SnapshotStore{client: client, prefix: prefix, ttl: ttl}
}

func (s *SnapshotStore) key(collection string) string {
	return fmt.Sprintf("%s:catalog:%s", s.prefix, collection)
}

func (s *SnapshotStore) Save(ctx context.Context, collection string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, s.key(collection), data, s.ttl).Err()
}

// Load decodes the stored copy into v; false when nothing is stored
func (s *SnapshotStore) Load(ctx context.Context, collection string, v any) (bool, error) {
	data, err := s.client.Get(ctx, s.key(collection)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("decode %s snapshot: %w", collection, err)
	}
	return true, nil
}

// Connect parses a redis:// URL and pings the server
func Connect(ctx context.Context, url string) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	opts.DialTimeout = 5 * time.Second
	opts.ReadTimeout = 3 * time.Second
	opts.WriteTimeout = 3 * time.Second

	client := goredis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return client, nil
}
