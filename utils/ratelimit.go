package utils

import (
	"sync"
	"time"
)

// RateLimiter реализует ограничение частоты запросов по скользящему окну
type RateLimiter struct {
	mu       sync.Mutex
	requests map[string][]time.Time
	limit    int
	window   time.Duration
}

// NewRateLimiter создает новый RateLimiter
func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		requests: make(map[string][]time.Time),
		limit:    limit,
		window:   window,
	}
}

// pruneLocked удаляет запросы, вышедшие за окно; вызывается под mu
func (rl *RateLimiter) pruneLocked(key string, now time.Time) {
	windowStart := now.Add(-rl.window)
	requests := rl.requests[key]
	valid := requests[:0]
	for _, t := range requests {
		if t.After(windowStart) {
			valid = append(valid, t)
		}
	}
	if len(valid) == 0 {
		delete(rl.requests, key)
		return
	}
	rl.requests[key] = valid
}

// Allow проверяет, разрешен ли запрос, и учитывает его
func (rl *RateLimiter) Allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	rl.pruneLocked(key, now)

	if len(rl.requests[key]) >= rl.limit {
		return false
	}

	rl.requests[key] = append(rl.requests[key], now)
	return true
}

// GetRemaining возвращает количество оставшихся запросов
func (rl *RateLimiter) GetRemaining(key string) int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.pruneLocked(key, time.Now())
	return rl.limit - len(rl.requests[key])
}

// GetResetTime возвращает время до сброса лимита
func (rl *RateLimiter) GetResetTime(key string) time.Time {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if len(rl.requests[key]) == 0 {
		return time.Now()
	}

	oldestRequest := rl.requests[key][0]
	return oldestRequest.Add(rl.window)
}
