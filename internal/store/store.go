// Package store keeps the last formatted payload per request_id so the
// resource-read path can serve results across protocol calls. Entries
// are evicted by TTL (redis) or by a bounded entry count (memory);
// there is no global last-result slot.
package store

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/skyfare/pricewatch-mcp/internal/models"
)

type Store interface {
	Put(ctx context.Context, requestID string, payload *models.SearchPayload) error
	Get(ctx context.Context, requestID string) (*models.SearchPayload, bool)
	// Latest returns the most recently stored payload, for the
	// presentation resource.
	Latest(ctx context.Context) (*models.SearchPayload, bool)
	Close() error
}

const (
	keyPrefix = "pricewatch:payload:"
	latestKey = "pricewatch:latest"
)

type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	TTL      time.Duration
}

func DefaultRedisConfig() RedisConfig {
	return RedisConfig{
		Host: "localhost",
		Port: "6379",
		TTL:  15 * time.Minute,
	}
}

func NewRedisStore(cfg RedisConfig) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Host + ":" + cfg.Port,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = DefaultRedisConfig().TTL
	}

	return &RedisStore{client: client, ttl: ttl}, nil
}

func (s *RedisStore) Put(ctx context.Context, requestID string, payload *models.SearchPayload) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, keyPrefix+requestID, data, s.ttl).Err(); err != nil {
		return err
	}
	return s.client.Set(ctx, latestKey, requestID, s.ttl).Err()
}

func (s *RedisStore) Get(ctx context.Context, requestID string) (*models.SearchPayload, bool) {
	data, err := s.client.Get(ctx, keyPrefix+requestID).Bytes()
	if err != nil {
		return nil, false
	}
	var payload models.SearchPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, false
	}
	return &payload, true
}

func (s *RedisStore) Latest(ctx context.Context) (*models.SearchPayload, bool) {
	requestID, err := s.client.Get(ctx, latestKey).Result()
	if err != nil {
		return nil, false
	}
	return s.Get(ctx, requestID)
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}

// MemoryStore is the single-process fallback when redis is disabled.
// Oldest entries are evicted once maxEntries is exceeded.
type MemoryStore struct {
	mu         sync.RWMutex
	payloads   map[string]*models.SearchPayload
	order      []string
	latest     string
	maxEntries int
}

func NewMemoryStore(maxEntries int) *MemoryStore {
	if maxEntries <= 0 {
		maxEntries = 64
	}
	return &MemoryStore{
		payloads:   make(map[string]*models.SearchPayload),
		maxEntries: maxEntries,
	}
}

func (s *MemoryStore) Put(ctx context.Context, requestID string, payload *models.SearchPayload) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.payloads[requestID]; !exists {
		s.order = append(s.order, requestID)
	}
	s.payloads[requestID] = payload
	s.latest = requestID

	for len(s.order) > s.maxEntries {
		oldest := s.order[0]
		s.order = s.order[1:]
		delete(s.payloads, oldest)
	}
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, requestID string) (*models.SearchPayload, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	payload, ok := s.payloads[requestID]
	return payload, ok
}

func (s *MemoryStore) Latest(ctx context.Context) (*models.SearchPayload, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.latest == "" {
		return nil, false
	}
	payload, ok := s.payloads[s.latest]
	return payload, ok
}

func (s *MemoryStore) Close() error {
	return nil
}
