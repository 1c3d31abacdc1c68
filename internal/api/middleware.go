package api

import (
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	// limiterIdleTTL is how long a client's limiter survives without requests.
	limiterIdleTTL = 10 * time.Minute
	// limiterSweepInterval bounds how often idle limiters are looked for.
	limiterSweepInterval = time.Minute
	// maxClientLimiters caps the number of tracked clients.
	maxClientLimiters = 10000
)

// CORS wraps an http.Handler with CORS headers for cross-origin requests.
func CORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Encoding, X-API-Key")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// APIKeyAuth returns middleware that validates the X-API-Key header on
// mutating requests. If key is empty, the middleware is a no-op (all requests
// pass through).
func APIKeyAuth(key string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if key == "" {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet && r.Method != http.MethodHead && r.Header.Get("X-API-Key") != key {
				writeError(w, http.StatusUnauthorized, "unauthorized")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RateLimit returns middleware that allows rps requests per second per client
// IP with the given burst. rps <= 0 disables limiting.
func RateLimit(rps float64, burst int) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if rps <= 0 {
			return next
		}
		if burst <= 0 {
			burst = max(1, int(rps))
		}
		limiters := newIPLimiters(rate.Limit(rps), burst)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiters.get(clientIP(r)).Allow() {
				w.Header().Set("Retry-After", "1")
				writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ipLimiters holds one limiter per client IP. Idle clients are swept on
// access, and the map is reset when it reaches max even after a sweep.
type ipLimiters struct {
	mu        sync.Mutex
	rps       rate.Limit
	burst     int
	idle      time.Duration
	every     time.Duration
	max       int
	now       func() time.Time
	lastSweep time.Time
	m         map[string]*clientLimiter
}

type clientLimiter struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

func newIPLimiters(rps rate.Limit, burst int) *ipLimiters {
	return &ipLimiters{
		rps:   rps,
		burst: burst,
		idle:  limiterIdleTTL,
		every: limiterSweepInterval,
		max:   maxClientLimiters,
		now:   time.Now,
		m:     make(map[string]*clientLimiter),
	}
}

func (l *ipLimiters) get(ip string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if now.Sub(l.lastSweep) >= l.every {
		l.sweep(now)
	}

	c, ok := l.m[ip]
	if !ok {
		if len(l.m) >= l.max {
			l.sweep(now)
			if len(l.m) >= l.max {
				l.m = make(map[string]*clientLimiter)
			}
		}
		c = &clientLimiter{lim: rate.NewLimiter(l.rps, l.burst)}
		l.m[ip] = c
	}
	c.lastSeen = now
	return c.lim
}

// sweep drops limiters idle for longer than l.idle. Callers hold l.mu.
func (l *ipLimiters) sweep(now time.Time) {
	for ip, c := range l.m {
		if now.Sub(c.lastSeen) > l.idle {
			delete(l.m, ip)
		}
	}
	l.lastSweep = now
}

func (l *ipLimiters) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.m)
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// Chain applies middleware so the first one listed is outermost.
func Chain(h http.Handler, mws ...func(http.Handler) http.Handler) http.Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}
