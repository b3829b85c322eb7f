package cart

import (
	"context"
	"errors"
	"sync"
	"time"

	pkgredis "github.com/aguilarsoft/cartsync/pkg/redis"
)

// ErrNoSnapshot is reported by SnapshotStore.Load when nothing has been
// persisted for the scope yet.
var ErrNoSnapshot = errors.New("no cart snapshot")

type redisKV interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
}

// RedisSnapshots persists the cart blob under a namespaced key in redis.
type RedisSnapshots struct {
	kv  redisKV
	key string
}

// NewRedisSnapshots binds a snapshot store to the scope's redis key.
func NewRedisSnapshots(client *pkgredis.Client, scope string) *RedisSnapshots {
	return &RedisSnapshots{kv: client, key: client.SnapshotKey(scope)}
}

func (r *RedisSnapshots) Load(ctx context.Context) (string, error) {
	blob, err := r.kv.Get(ctx, r.key)
	if err != nil {
		if errors.Is(err, pkgredis.Nil) {
			return "", ErrNoSnapshot
		}
		return "", err
	}
	return blob, nil
}

func (r *RedisSnapshots) Save(ctx context.Context, blob string) error {
	return r.kv.Set(ctx, r.key, blob, 0)
}

// MemorySnapshots keeps the blob in process memory. Used by tests and by
// the memory-store feature flag.
type MemorySnapshots struct {
	mu     sync.Mutex
	blob   string
	loaded bool
}

func NewMemorySnapshots() *MemorySnapshots {
	return &MemorySnapshots{}
}

func (m *MemorySnapshots) Load(ctx context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.loaded {
		return "", ErrNoSnapshot
	}
	return m.blob, nil
}

func (m *MemorySnapshots) Save(ctx context.Context, blob string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.blob = blob
	m.loaded = true
	return nil
}
