package utils

import (
	"sync"
	"time"
)

// rateWindow хранит счетчик запросов в текущем окне
type rateWindow struct {
	count       int
	windowStart time.Time
}

// RateLimiter реализует ограничение частоты запросов по ключу
type RateLimiter struct {
	mu      sync.Mutex
	windows map[string]*rateWindow
	limit   int
	window  time.Duration
}

// NewRateLimiter создает новый RateLimiter
func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		windows: make(map[string]*rateWindow),
		limit:   limit,
		window:  window,
	}
}

// Allow проверяет, разрешен ли запрос для ключа
func (rl *RateLimiter) Allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	w, exists := rl.windows[key]

	// Начинаем новое окно, если старое истекло
	if !exists || now.Sub(w.windowStart) >= rl.window {
		rl.windows[key] = &rateWindow{count: 1, windowStart: now}
		return true
	}

	// Проверяем лимит
	if w.count >= rl.limit {
		return false
	}

	w.count++
	return true
}

// Reset сбрасывает счетчик для ключа
func (rl *RateLimiter) Reset(key string) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	delete(rl.windows, key)
}

// GetRemaining возвращает количество оставшихся запросов
func (rl *RateLimiter) GetRemaining(key string) int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	w, exists := rl.windows[key]
	if !exists || time.Since(w.windowStart) >= rl.window {
		return rl.limit
	}
	return rl.limit - w.count
}

// GetResetTime возвращает время окончания текущего окна
func (rl *RateLimiter) GetResetTime(key string) time.Time {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	w, exists := rl.windows[key]
	if !exists {
		return time.Now()
	}
	return w.windowStart.Add(rl.window)
}
