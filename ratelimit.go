package main

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"
)

// ipRateLimiter tracks last connection time per IP to prevent reconnect storms
type ipRateLimiter struct {
	mu        sync.Mutex
	cooldown  time.Duration
	times     map[string]time.Time
	lastPrune time.Time
	now       func() time.Time
}

func newIPRateLimiter(cooldown time.Duration) *ipRateLimiter {
	return &ipRateLimiter{
		cooldown: cooldown,
		times:    make(map[string]time.Time),
		now:      time.Now,
	}
}

// allow returns true if this IP can connect, and records the attempt.
// A zero cooldown allows everything.
func (rl *ipRateLimiter) allow(ip string) bool {
	if rl.cooldown <= 0 {
		return true
	}
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	rl.prune(now)
	if last, ok := rl.times[ip]; ok && now.Sub(last) < rl.cooldown {
		return false
	}
	rl.times[ip] = now
	return true
}

// prune drops stale entries at most once per cooldown. Caller must hold mu.
func (rl *ipRateLimiter) prune(now time.Time) {
	if now.Sub(rl.lastPrune) < rl.cooldown {
		return
	}
	rl.lastPrune = now
	cutoff := now.Add(-rl.cooldown)
	for ip, t := range rl.times {
		if t.Before(cutoff) {
			delete(rl.times, ip)
		}
	}
}

// clientIP extracts the client address, honouring X-Forwarded-For from reverse proxies
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		return strings.TrimSpace(first)
	}
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}
