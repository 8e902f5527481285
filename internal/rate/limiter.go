// Package rate is a fixed-window request limiter for write endpoints.
package rate

import (
	"sync"
	"time"
)

type Limiter interface {
	Allow(key string, limit int, window time.Duration) (bool, time.Duration)
}

type MemoryLimiter struct {
	mu      sync.Mutex
	windows map[string]*window
}

type window struct {
	count   int
	resetAt time.Time
	length  time.Duration
}

func NewMemory() *MemoryLimiter {
	return &MemoryLimiter{windows: make(map[string]*window)}
}

func (m *MemoryLimiter) Allow(key string, limit int, length time.Duration) (bool, time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	w, ok := m.windows[key]
	if !ok || now.After(w.resetAt) || w.length != length {
		w = &window{resetAt: now.Add(length), length: length}
		m.windows[key] = w
	}

	if w.count >= limit {
		return false, time.Until(w.resetAt)
	}

	w.count++
	return true, time.Until(w.resetAt)
}
