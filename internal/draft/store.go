package draft

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
)

// RedisStore хранит снимки черновиков в Redis с ограниченным сроком жизни.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore подключается к Redis и проверяет соединение.
func NewRedisStore(addr string, ttl time.Duration) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr: addr,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return &RedisStore{client: client, ttl: ttl}, nil
}

// Save сохраняет снимок.
func (s *RedisStore) Save(ctx context.Context, key string, data []byte) error {
	return s.client.Set(ctx, key, data, s.ttl).Err()
}

// Load возвращает снимок или ErrNotFound.
func (s *RedisStore) Load(ctx context.Context, key string) ([]byte, error) {
	data, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return data, nil
}

// Delete удаляет снимок. Отсутствие снимка ошибкой не считается.
func (s *RedisStore) Delete(ctx context.Context, key string) error {
	return s.client.Del(ctx, key).Err()
}

// Close закрывает соединение с Redis.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

type memoryEntry struct {
	data      []byte
	expiresAt time.Time
}

const (
	// DefaultMemoryCapacity ограничивает число черновиков в памяти процесса.
	DefaultMemoryCapacity = 10000
	maxSweepInterval      = time.Minute
)

// MemoryStore хранит снимки в памяти процесса. Используется, когда Redis не настроен.
// Просроченные снимки удаляются при записи, число снимков ограничено capacity:
// при переполнении вытесняется снимок с самым ранним сроком жизни.
type MemoryStore struct {
	mu        sync.Mutex
	entries   map[string]memoryEntry
	ttl       time.Duration
	capacity  int
	nextSweep time.Time
	now       func() time.Time
}

// NewMemoryStore создаёт хранилище в памяти. Нулевой ttl отключает истечение срока.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		entries:  make(map[string]memoryEntry),
		ttl:      ttl,
		capacity: DefaultMemoryCapacity,
		now:      time.Now,
	}
}

// Save сохраняет копию снимка.
func (s *MemoryStore) Save(_ context.Context, key string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.sweep(now)

	if _, ok := s.entries[key]; !ok && s.capacity > 0 && len(s.entries) >= s.capacity {
		s.evictOldest()
	}

	entry := memoryEntry{data: append([]byte(nil), data...)}
	if s.ttl > 0 {
		entry.expiresAt = now.Add(s.ttl)
	}
	s.entries[key] = entry
	return nil
}

// sweep удаляет просроченные снимки не чаще раза в min(ttl, минута).
func (s *MemoryStore) sweep(now time.Time) {
	if s.ttl <= 0 || now.Before(s.nextSweep) {
		return
	}
	for key, entry := range s.entries {
		if now.After(entry.expiresAt) {
			delete(s.entries, key)
		}
	}
	s.nextSweep = now.Add(min(s.ttl, maxSweepInterval))
}

func (s *MemoryStore) evictOldest() {
	var (
		oldestKey string
		oldest    time.Time
		found     bool
	)
	for key, entry := range s.entries {
		if !found || entry.expiresAt.Before(oldest) {
			oldestKey, oldest, found = key, entry.expiresAt, true
		}
	}
	if found {
		delete(s.entries, oldestKey)
	}
}

// Len возвращает число хранимых снимков, включая ещё не удалённые просроченные.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Load возвращает снимок или ErrNotFound.
func (s *MemoryStore) Load(_ context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[key]
	if !ok {
		return nil, ErrNotFound
	}
	if !entry.expiresAt.IsZero() && s.now().After(entry.expiresAt) {
		delete(s.entries, key)
		return nil, ErrNotFound
	}
	return append([]byte(nil), entry.data...), nil
}

// Delete удаляет снимок.
func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.entries, key)
	return nil
}

// Close ничего не делает; нужен для единообразия с RedisStore.
func (s *MemoryStore) Close() error {
	return nil
}
