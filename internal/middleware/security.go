package middleware

import (
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/AnshRaj112/vikas-backend/pkg/clientip"
)

const (
	headerXContentTypeOptions     = "X-Content-Type-Options"
	headerXFrameOptions           = "X-Frame-Options"
	headerReferrerPolicy          = "Referrer-Policy"
	headerStrictTransportSecurity = "Strict-Transport-Security"
)

// SecurityHeaders sets security-related response headers.
func SecurityHeaders(hsts bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set(headerXContentTypeOptions, "nosniff")
			w.Header().Set(headerXFrameOptions, "DENY")
			w.Header().Set(headerReferrerPolicy, "strict-origin-when-cross-origin")
			if hsts {
				w.Header().Set(headerStrictTransportSecurity, "max-age=31536000; includeSubDomains")
			}
			next.ServeHTTP(w, r)
		})
	}
}

const (
	limiterSweepInterval = 5 * time.Minute
	limiterIdleTTL       = 30 * time.Minute
)

type limiterEntry struct {
	limiter *rate.Limiter
	lastUse time.Time
}

// IPRateLimiter keeps one token bucket per client IP.
// Idle buckets are swept on access.
type IPRateLimiter struct {
	mu        sync.Mutex
	entries   map[string]*limiterEntry
	lastSweep time.Time
	now       func() time.Time

	limit   rate.Limit
	burst   int
	message string

	// match selects the requests this limiter applies to; nil means all.
	match      func(*http.Request) bool
	trustProxy bool
}

func NewIPRateLimiter(limit rate.Limit, burst int, trustProxy bool, message string) *IPRateLimiter {
	return &IPRateLimiter{
		entries:    make(map[string]*limiterEntry),
		now:        time.Now,
		limit:      limit,
		burst:      burst,
		message:    message,
		trustProxy: trustProxy,
	}
}

// ForPaths restricts the limiter to requests whose path is in paths.
func (l *IPRateLimiter) ForPaths(paths ...string) *IPRateLimiter {
	set := make(map[string]bool, len(paths))
	for _, p := range paths {
		set[p] = true
	}
	l.match = func(r *http.Request) bool { return set[r.URL.Path] }
	return l
}

func (l *IPRateLimiter) get(key string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if now.Sub(l.lastSweep) > limiterSweepInterval {
		for k, e := range l.entries {
			if now.Sub(e.lastUse) > limiterIdleTTL {
				delete(l.entries, k)
			}
		}
		l.lastSweep = now
	}

	e, ok := l.entries[key]
	if !ok {
		e = &limiterEntry{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.entries[key] = e
	}
	e.lastUse = now
	return e.limiter
}

// Allow reports whether a request for key may proceed now.
func (l *IPRateLimiter) Allow(key string) bool {
	return l.get(key).AllowN(l.now(), 1)
}

// Middleware returns 429 when the caller's bucket is empty.
func (l *IPRateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if l.match != nil && !l.match(r) {
			next.ServeHTTP(w, r)
			return
		}
		if !l.Allow(clientip.RealClientIP(r, l.trustProxy)) {
			writeError(w, http.StatusTooManyRequests, l.message)
			return
		}
		next.ServeHTTP(w, r)
	})
}

const (
	globalRateLimitRPS   = 5
	globalRateLimitBurst = 30
	loginRateLimitEvery  = 5 * time.Second
	loginRateLimitBurst  = 3
)

// AuthPaths are the credential endpoints that get the stricter login limit.
var AuthPaths = []string{"/login", "/register", "/check-username"}

// GlobalRateLimit limits each IP to 5 req/s, burst 30.
func GlobalRateLimit(trustProxy bool) *IPRateLimiter {
	return NewIPRateLimiter(globalRateLimitRPS, globalRateLimitBurst, trustProxy, "Too many requests. Please slow down.")
}

// LoginRateLimit limits each IP to one credential attempt per 5s, burst 3.
func LoginRateLimit(trustProxy bool) *IPRateLimiter {
	return NewIPRateLimiter(rate.Every(loginRateLimitEvery), loginRateLimitBurst, trustProxy,
		"Too many login attempts. Please try again later.").ForPaths(AuthPaths...)
}

// ProductionSecurity returns middlewares for production: SecurityHeaders → GlobalRateLimit → LoginRateLimit.
func ProductionSecurity(trustProxy bool) []func(http.Handler) http.Handler {
	return []func(http.Handler) http.Handler{
		SecurityHeaders(true),
		GlobalRateLimit(trustProxy).Middleware,
		LoginRateLimit(trustProxy).Middleware,
	}
}
