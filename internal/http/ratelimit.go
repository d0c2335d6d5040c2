package http

import (
	"sync"
	"time"
)

// maxStrikes caps how far the lockout grows for one address.
const maxStrikes = 6

type strike struct {
	count int
	until time.Time
}

// RateLimiter locks out addresses that keep presenting a bad webhook secret.
// Each consecutive failure extends the lockout by delay, up to maxStrikes.
type RateLimiter struct {
	mu    sync.Mutex
	delay time.Duration
	ips   map[string]*strike
}

func NewRateLimiter(delay time.Duration) *RateLimiter {
	return &RateLimiter{delay: delay, ips: make(map[string]*strike)}
}

func (r *RateLimiter) RecordFailure(ip string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := r.ips[ip]
	if s == nil {
		s = &strike{}
		r.ips[ip] = s
	}
	if s.count < maxStrikes {
		s.count++
	}
	s.until = time.Now().Add(time.Duration(s.count) * r.delay)
	r.sweepLocked()
}

// ClearFailure forgets ip after a good secret.
func (r *RateLimiter) ClearFailure(ip string) {
	r.mu.Lock()
	delete(r.ips, ip)
	r.mu.Unlock()
}

func (r *RateLimiter) IsLimited(ip string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.ips[ip]
	return ok && time.Now().Before(s.until)
}

// sweepLocked drops entries idle for longer than the longest lockout.
func (r *RateLimiter) sweepLocked() {
	horizon := time.Now().Add(-maxStrikes * r.delay)
	for ip, s := range r.ips {
		if s.until.Before(horizon) {
			delete(r.ips, ip)
		}
	}
}
