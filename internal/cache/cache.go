// Package cache stores upstream proxy responses for a short TTL.
package cache

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/johan/sads-console/internal/config"
)

// Cache is a byte-value cache with per-entry TTL.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Close() error
}

// New builds the cache selected by cfg.Type.
func New(cfg config.CacheConfig) (Cache, error) {
	switch cfg.Type {
	case "", "none":
		return Nop{}, nil
	case "memory":
		return NewMemory(time.Minute), nil
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, errors.Wrapf(err, "connecting to redis at %s", cfg.RedisAddr)
		}
		return NewRedis(client, "sads:proxy:"), nil
	default:
		return nil, errors.Errorf("invalid cache type: %s", cfg.Type)
	}
}

// Nop never stores anything.
type Nop struct{}

func (Nop) Get(context.Context, string) ([]byte, bool, error) { return nil, false, nil }

func (Nop) Set(context.Context, string, []byte, time.Duration) error { return nil }

func (Nop) Close() error { return nil }

type memoryItem struct {
	value     []byte
	expiresAt time.Time
}

// Memory is an in-process cache. Expired entries are dropped on read and by a
// janitor goroutine that stops on Close.
type Memory struct {
	mu    sync.RWMutex
	items map[string]memoryItem
	now   func() time.Time

	stop chan struct{}
	done chan struct{}
	once sync.Once
}

// NewMemory creates a memory cache whose janitor runs every cleanupEvery.
func NewMemory(cleanupEvery time.Duration) *Memory {
	m := &Memory{
		items: make(map[string]memoryItem),
		now:   time.Now,
		stop:  make(chan struct{}),
		done:  make(chan struct{}),
	}
	go m.janitor(cleanupEvery)
	return m
}

// Get returns a live entry.
func (m *Memory) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.RLock()
	item, ok := m.items[key]
	m.mu.RUnlock()

	if !ok || !m.now().Before(item.expiresAt) {
		return nil, false, nil
	}
	return item.value, true, nil
}

// Set stores value until ttl elapses. A non-positive ttl deletes the key.
func (m *Memory) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if ttl <= 0 {
		delete(m.items, key)
		return nil
	}
	m.items[key] = memoryItem{
		value:     append([]byte(nil), value...),
		expiresAt: m.now().Add(ttl),
	}
	return nil
}

// Size returns the number of entries, expired ones included until cleanup.
func (m *Memory) Size() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.items)
}

// Close stops the janitor.
func (m *Memory) Close() error {
	m.once.Do(func() { close(m.stop) })
	<-m.done
	return nil
}

func (m *Memory) janitor(every time.Duration) {
	defer close(m.done)

	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-m.stop:
			return
		case <-ticker.C:
			m.cleanup()
		}
	}
}

func (m *Memory) cleanup() {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	for key, item := range m.items {
		if !now.Before(item.expiresAt) {
			delete(m.items, key)
		}
	}
}

// Redis stores entries in Redis under a key prefix.
type Redis struct {
	client *redis.Client
	prefix string
}

// NewRedis wraps an existing client.
func NewRedis(client *redis.Client, prefix string) *Redis {
	return &Redis{client: client, prefix: prefix}
}

// Get returns the stored value; a missing key is not an error.
func (r *Redis) Get(ctx context.Context, key string) ([]byte, bool, error) {
	val, err := r.client.Get(ctx, r.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.Wrap(err, "redis get")
	}
	return val, true, nil
}

// Set stores value with the given TTL.
func (r *Redis) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		return errors.Wrap(r.client.Del(ctx, r.prefix+key).Err(), "redis del")
	}
	return errors.Wrap(r.client.Set(ctx, r.prefix+key, value, ttl).Err(), "redis set")
}

// Close closes the client.
func (r *Redis) Close() error {
	return r.client.Close()
}
