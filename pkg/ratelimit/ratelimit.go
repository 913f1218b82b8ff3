// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of go-keyenclave.
//
// go-keyenclave is dual-licensed:
//
// 1. GNU Affero General Public License v3.0 (AGPL-3.0)
//    See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html
//
// 2. Commercial License
//    Contact licensing@automatethethings.com for commercial licensing options.

// Package ratelimit provides per-subject token bucket rate limiting.
// The throttled service decorator uses it to model the operation throttling
// hardware key stores apply per key.
package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Limiter implements a token bucket rate limiter with per-subject tracking.
// Subjects are arbitrary strings; the enclave decorator keys them by alias.
// It uses the golang.org/x/time/rate package for efficient, thread-safe rate
// limiting.
type Limiter struct {
	mu       sync.RWMutex
	limiters map[string]*rate.Limiter
	rate     rate.Limit
	burst    int
	enabled  bool

	// Cleanup settings
	cleanupInterval time.Duration
	maxIdle         time.Duration
	lastSeen        map[string]time.Time
	stopCleanup     chan struct{}
	stopOnce        sync.Once
}

// Config holds rate limiter configuration.
type Config struct {
	// Enabled controls whether rate limiting is active.
	Enabled bool

	// OpsPerMinute sets the sustained per-subject operation rate.
	OpsPerMinute int

	// Burst allows short bursts above the sustained rate.
	// If not set, defaults to OpsPerMinute.
	Burst int

	// CleanupInterval controls how often to remove idle subjects.
	// Defaults to 10 minutes.
	CleanupInterval time.Duration

	// MaxIdle is how long a subject can be idle before cleanup.
	// Defaults to 30 minutes.
	MaxIdle time.Duration
}

// New creates a new rate limiter with the given configuration.
func New(config *Config) *Limiter {
	if config == nil {
		config = &Config{Enabled: false}
	}

	burst := config.Burst
	if burst == 0 {
		burst = config.OpsPerMinute
	}

	cleanupInterval := config.CleanupInterval
	if cleanupInterval == 0 {
		cleanupInterval = 10 * time.Minute
	}

	maxIdle := config.MaxIdle
	if maxIdle == 0 {
		maxIdle = 30 * time.Minute
	}

	// Convert operations per minute to operations per second
	ratePerSecond := rate.Limit(float64(config.OpsPerMinute) / 60.0)

	l := &Limiter{
		limiters:        make(map[string]*rate.Limiter),
		lastSeen:        make(map[string]time.Time),
		rate:            ratePerSecond,
		burst:           burst,
		enabled:         config.Enabled,
		cleanupInterval: cleanupInterval,
		maxIdle:         maxIdle,
		stopCleanup:     make(chan struct{}),
	}

	if config.Enabled {
		go l.cleanupWorker()
	}

	return l
}

// getLimiter returns the rate limiter for a given subject.
// Creates a new limiter if one doesn't exist.
func (l *Limiter) getLimiter(subject string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	limiter, exists := l.limiters[subject]
	if !exists {
		limiter = rate.NewLimiter(l.rate, l.burst)
		l.limiters[subject] = limiter
	}

	l.lastSeen[subject] = time.Now()
	return limiter
}

// Allow checks if an operation on the given subject should be allowed.
// Returns true if the operation is within rate limits.
func (l *Limiter) Allow(subject string) bool {
	if !l.enabled {
		return true
	}

	limiter := l.getLimiter(subject)
	return limiter.Allow()
}

// Wait blocks until the rate limit admits an operation on the subject.
// Returns nil on success or an error if the context is cancelled.
func (l *Limiter) Wait(ctx context.Context, subject string) error {
	if !l.enabled {
		return nil
	}

	limiter := l.getLimiter(subject)
	return limiter.Wait(ctx)
}

// cleanupWorker periodically removes idle subjects from memory.
func (l *Limiter) cleanupWorker() {
	ticker := time.NewTicker(l.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			l.cleanup()
		case <-l.stopCleanup:
			return
		}
	}
}

// cleanup removes subjects that have been idle past maxIdle.
func (l *Limiter) cleanup() {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	for subject, lastSeen := range l.lastSeen {
		if now.Sub(lastSeen) > l.maxIdle {
			delete(l.limiters, subject)
			delete(l.lastSeen, subject)
		}
	}
}

// Stop stops the cleanup worker. Safe to call multiple times.
func (l *Limiter) Stop() {
	l.stopOnce.Do(func() {
		close(l.stopCleanup)
	})
}

// Stats returns current rate limiter statistics.
func (l *Limiter) Stats() map[string]interface{} {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return map[string]interface{}{
		"enabled":         l.enabled,
		"active_subjects": len(l.limiters),
		"rate_per_min":    float64(l.rate) * 60,
		"burst":           l.burst,
	}
}

// IsEnabled returns whether rate limiting is enabled.
func (l *Limiter) IsEnabled() bool {
	return l.enabled
}
