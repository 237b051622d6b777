package portfolio

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// LoginLimiter rate-limits login attempts per IP address with a token
// bucket per IP.
type LoginLimiter struct {
	mu        sync.Mutex
	visitors  map[string]*visitor
	limit     rate.Limit
	burst     int
	idle      time.Duration
	lastSweep time.Time
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewLoginLimiter allows max attempts per window for each IP, refilling
// evenly across the window.
func NewLoginLimiter(max int, window time.Duration) *LoginLimiter {
	if max < 1 {
		max = 1
	}
	return &LoginLimiter{
		visitors:  make(map[string]*visitor),
		limit:     rate.Every(window / time.Duration(max)),
		burst:     max,
		idle:      window,
		lastSweep: time.Now(),
	}
}

// Allow reports whether ip may attempt a login now and consumes a token.
func (l *LoginLimiter) Allow(ip string) bool {
	now := time.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	if now.Sub(l.lastSweep) > l.idle {
		for k, v := range l.visitors {
			if now.Sub(v.lastSeen) > l.idle {
				delete(l.visitors, k)
			}
		}
		l.lastSweep = now
	}

	v, ok := l.visitors[ip]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.visitors[ip] = v
	}
	v.lastSeen = now
	return v.limiter.AllowN(now, 1)
}
