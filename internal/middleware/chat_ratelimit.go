package middleware

import (
	"net/http"

	"golang.org/x/time/rate"
)

// Relay rate limit: per-IP, different limits for auth vs anonymous callers,
// since every relay request costs an upstream call.
// Auth: 30 req/min, burst 10. Anonymous: 10 req/min, burst 5.
const (
	relayAuthPerMin  = 30
	relayAuthBurst   = 10
	relayAnonPerMin  = 10
	relayAnonBurst   = 5
	relayLimitedText = "Too many chat requests. Please slow down."
)

// RelayPaths are the routes that reach an upstream AI provider.
var RelayPaths = []string{"/chat", "/chat-stream", "/chat-gemini-stream", "/ws/chat"}

func hasSessionToken(r *http.Request) bool {
	return BearerToken(r.Header.Get("Authorization")) != "" || r.URL.Query().Get("token") != ""
}

// RelayRateLimit applies to RelayPaths only and keeps separate buckets for
// callers presenting a token.
type RelayRateLimit struct {
	auth *IPRateLimiter
	anon *IPRateLimiter
}

func NewRelayRateLimit(trustProxy bool) *RelayRateLimit {
	perMin := func(n int) rate.Limit { return rate.Limit(float64(n) / 60) }
	return &RelayRateLimit{
		auth: NewIPRateLimiter(perMin(relayAuthPerMin), relayAuthBurst, trustProxy, relayLimitedText).ForPaths(RelayPaths...),
		anon: NewIPRateLimiter(perMin(relayAnonPerMin), relayAnonBurst, trustProxy, relayLimitedText).ForPaths(RelayPaths...),
	}
}

func (l *RelayRateLimit) Middleware(next http.Handler) http.Handler {
	authed := l.auth.Middleware(next)
	anon := l.anon.Middleware(next)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !isRelayPath(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}
		if hasSessionToken(r) {
			authed.ServeHTTP(w, r)
			return
		}
		anon.ServeHTTP(w, r)
	})
}

func isRelayPath(path string) bool {
	for _, p := range RelayPaths {
		if path == p {
			return true
		}
	}
	return false
}
