package auth

import (
	"sync"
	"time"
)

// RateLimiter throttles login attempts per IP+login pair. After
// MaxAttempts failures inside the window the pair is locked out.
type RateLimiter struct {
	mu              sync.Mutex
	attempts        map[string]*attemptRecord
	maxAttempts     int
	windowDuration  time.Duration
	lockoutDuration time.Duration
	cleanupInterval time.Duration
	stopCleanup     chan struct{}
	stopOnce        sync.Once
	now             func() time.Time
}

type attemptRecord struct {
	count        int
	firstAttempt time.Time
	lockedUntil  time.Time
}

// RateLimitConfig contains configuration for the rate limiter.
type RateLimitConfig struct {
	MaxAttempts     int           // default 5
	WindowDuration  time.Duration // default 15m
	LockoutDuration time.Duration // default 30m
	CleanupInterval time.Duration // default 5m
}

// NewRateLimiter creates a rate limiter and starts its cleanup goroutine.
// Call Stop to release it.
func NewRateLimiter(cfg RateLimitConfig) *RateLimiter {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 5
	}
	if cfg.WindowDuration <= 0 {
		cfg.WindowDuration = 15 * time.Minute
	}
	if cfg.LockoutDuration <= 0 {
		cfg.LockoutDuration = 30 * time.Minute
	}
	if cfg.CleanupInterval <= 0 {
		cfg.CleanupInterval = 5 * time.Minute
	}

	rl := &RateLimiter{
		attempts:        make(map[string]*attemptRecord),
		maxAttempts:     cfg.MaxAttempts,
		windowDuration:  cfg.WindowDuration,
		lockoutDuration: cfg.LockoutDuration,
		cleanupInterval: cfg.CleanupInterval,
		stopCleanup:     make(chan struct{}),
		now:             time.Now,
	}

	go rl.cleanupLoop()

	return rl
}

// Stop stops the background cleanup goroutine. It is safe to call twice.
func (rl *RateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.stopCleanup) })
}

func key(ip, login string) string {
	return ip + ":" + login
}

// Allow reports whether another attempt may be made and, if not, how long
// the caller has to wait.
func (rl *RateLimiter) Allow(ip, login string) (bool, time.Duration) {
	now := rl.now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	record, exists := rl.attempts[key(ip, login)]
	if !exists {
		return true, 0
	}
	if !record.lockedUntil.IsZero() && now.Before(record.lockedUntil) {
		return false, record.lockedUntil.Sub(now)
	}
	if now.Sub(record.firstAttempt) > rl.windowDuration {
		return true, 0
	}
	if record.count < rl.maxAttempts {
		return true, 0
	}
	return false, rl.lockoutDuration
}

// RecordFailure counts a failed attempt and reports whether it triggered a
// lockout.
func (rl *RateLimiter) RecordFailure(ip, login string) (bool, time.Duration) {
	now := rl.now()
	k := key(ip, login)

	rl.mu.Lock()
	defer rl.mu.Unlock()

	record, exists := rl.attempts[k]
	if !exists || now.Sub(record.firstAttempt) > rl.windowDuration {
		record = &attemptRecord{firstAttempt: now}
		rl.attempts[k] = record
	}

	record.count++
	if record.count >= rl.maxAttempts {
		record.lockedUntil = now.Add(rl.lockoutDuration)
		return true, rl.lockoutDuration
	}
	return false, 0
}

// RecordSuccess forgets previous failures of the pair.
func (rl *RateLimiter) RecordSuccess(ip, login string) {
	rl.mu.Lock()
	delete(rl.attempts, key(ip, login))
	rl.mu.Unlock()
}

func (rl *RateLimiter) cleanupLoop() {
	ticker := time.NewTicker(rl.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.cleanup()
		case <-rl.stopCleanup:
			return
		}
	}
}

// cleanup drops records whose window and lockout have both passed.
func (rl *RateLimiter) cleanup() {
	now := rl.now()
	expiry := rl.windowDuration + rl.lockoutDuration

	rl.mu.Lock()
	defer rl.mu.Unlock()

	for k, record := range rl.attempts {
		windowExpired := now.Sub(record.firstAttempt) > expiry
		lockoutExpired := record.lockedUntil.IsZero() || now.After(record.lockedUntil)
		if windowExpired && lockoutExpired {
			delete(rl.attempts, k)
		}
	}
}

func (rl *RateLimiter) size() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.attempts)
}
