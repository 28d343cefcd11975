// Package cache provides a Redis-backed candle cache and symbol cooldown
// tracker with graceful degradation to an in-process map. Grounded on the
// teacher's internal/cache/cache_service.go: same recordFailure/
// recordSuccess/IsHealthy circuit-breaker-over-Redis shape, trimmed from its
// multi-tenant settings/sequence key catalog down to the two key families
// spec.md §6 actually names (candle cache, cooldown tracker).
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"screener/internal/model"
)

// Config is the Redis connection configuration (config.RedisConfig, trimmed).
type Config struct {
	Enabled  bool
	Address  string
	Password string
	DB       int
	PoolSize int
}

const (
	candleCacheTTL   = 30 * time.Second
	cooldownKeyStyle = "cooldown:%s"
	candleKeyStyle   = "candles:%s:%s" // symbol, interval
)

// Service caches candle series and tracks per-symbol cooldowns. When Redis is
// unavailable it degrades to an in-process map rather than failing callers —
// a candle cache miss just costs one extra market-data fetch.
type Service struct {
	client *redis.Client
	mem    sync.Map // fallback store, same keys as Redis

	mu           sync.RWMutex
	healthy      bool
	failureCount int
	lastCheck    time.Time

	maxFailures   int
	checkInterval time.Duration
}

// New creates a Service. If cfg.Enabled is false, or the initial ping fails,
// the Service starts in degraded (in-memory-only) mode rather than erroring.
func New(cfg Config) *Service {
	s := &Service{maxFailures: 3, checkInterval: 30 * time.Second}
	if !cfg.Enabled {
		return s
	}

	s.client = redis.NewClient(&redis.Options{
		Addr:         cfg.Address,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: 2,
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.client.Ping(ctx).Err(); err != nil {
		log.Warn().Err(err).Msg("redis unavailable at startup, caching degraded to memory")
		return s
	}
	s.healthy = true
	s.lastCheck = time.Now()
	log.Info().Str("addr", cfg.Address).Msg("redis cache connected")
	return s
}

// IsHealthy reports whether Redis is currently reachable.
func (s *Service) IsHealthy() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.healthy
}

func (s *Service) recordFailure() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failureCount++
	if s.failureCount >= s.maxFailures && s.healthy {
		log.Warn().Int("failures", s.failureCount).Msg("redis cache circuit breaker open")
	}
	if s.failureCount >= s.maxFailures {
		s.healthy = false
	}
}

func (s *Service) recordSuccess() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.healthy && s.failureCount > 0 {
		log.Info().Msg("redis cache circuit breaker closed")
	}
	s.healthy = true
	s.failureCount = 0
	s.lastCheck = time.Now()
}

func (s *Service) checkHealth() {
	s.mu.RLock()
	shouldCheck := !s.healthy && time.Since(s.lastCheck) >= s.checkInterval
	s.mu.RUnlock()
	if !shouldCheck || s.client == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := s.client.Ping(ctx).Err(); err == nil {
			s.recordSuccess()
		}
	}()
}

// PutCandles stores a candle series for symbol/interval with the standard
// 30s TTL. Falls back to the in-memory map when Redis is degraded or absent.
func (s *Service) PutCandles(ctx context.Context, symbol, interval string, candles []model.Candle) {
	key := fmt.Sprintf(candleKeyStyle, symbol, interval)
	data, err := json.Marshal(candles)
	if err != nil {
		return
	}
	s.mem.Store(key, cachedEntry{data: data, expires: time.Now().Add(candleCacheTTL)})

	s.checkHealth()
	if !s.IsHealthy() {
		return
	}
	if err := s.client.Set(ctx, key, data, candleCacheTTL).Err(); err != nil {
		s.recordFailure()
		return
	}
	s.recordSuccess()
}

// GetCandles retrieves a previously cached candle series, preferring Redis
// and falling back to the in-memory copy. ok is false on a genuine miss.
func (s *Service) GetCandles(ctx context.Context, symbol, interval string) (candles []model.Candle, ok bool) {
	key := fmt.Sprintf(candleKeyStyle, symbol, interval)

	s.checkHealth()
	if s.IsHealthy() {
		result, err := s.client.Get(ctx, key).Result()
		switch {
		case err == nil:
			s.recordSuccess()
			if json.Unmarshal([]byte(result), &candles) == nil {
				return candles, true
			}
		case err != redis.Nil:
			s.recordFailure()
		}
	}

	if v, found := s.mem.Load(key); found {
		entry := v.(cachedEntry)
		if time.Now().Before(entry.expires) {
			if json.Unmarshal(entry.data, &candles) == nil {
				return candles, true
			}
		}
		s.mem.Delete(key)
	}
	return nil, false
}

// SetCooldown marks symbol as ineligible for a new signal until duration has
// elapsed (spec.md §4.5's per-symbol re-entry cooldown).
func (s *Service) SetCooldown(ctx context.Context, symbol string, duration time.Duration) {
	key := fmt.Sprintf(cooldownKeyStyle, symbol)
	until := time.Now().Add(duration)
	s.mem.Store(key, cachedEntry{expires: until})

	s.checkHealth()
	if !s.IsHealthy() {
		return
	}
	if err := s.client.Set(ctx, key, until.Format(time.RFC3339Nano), duration).Err(); err != nil {
		s.recordFailure()
		return
	}
	s.recordSuccess()
}

// OnCooldown reports whether symbol is still within its cooldown window.
func (s *Service) OnCooldown(ctx context.Context, symbol string) bool {
	key := fmt.Sprintf(cooldownKeyStyle, symbol)

	s.checkHealth()
	if s.IsHealthy() {
		result, err := s.client.Get(ctx, key).Result()
		switch {
		case err == nil:
			s.recordSuccess()
			until, parseErr := time.Parse(time.RFC3339Nano, result)
			return parseErr == nil && time.Now().Before(until)
		case err != redis.Nil:
			s.recordFailure()
		}
	}

	if v, found := s.mem.Load(key); found {
		entry := v.(cachedEntry)
		if time.Now().Before(entry.expires) {
			return true
		}
		s.mem.Delete(key)
	}
	return false
}

type cachedEntry struct {
	data    []byte
	expires time.Time
}
