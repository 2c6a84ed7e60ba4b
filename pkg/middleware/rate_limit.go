package middleware

import (
	apperrors "carhub/pkg/errors"
	httputil "carhub/pkg/http"
	"carhub/pkg/logger"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"
)

const ClientIDHeader = "X-Client-ID"

// KeyExtractor picks the identity a request is rate limited under.
type KeyExtractor func(r *http.Request) string

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen atomic.Int64
}

// ClientRateLimiter keeps one token bucket per client key.
type ClientRateLimiter struct {
	limiters  sync.Map
	limit     rate.Limit
	burst     int
	idleAfter time.Duration
	extractor KeyExtractor
	log       *logger.Logger
	stopCh    chan struct{}
	stopOnce  sync.Once
}

// NewClientRateLimiter allows requests per window with the given burst.
func NewClientRateLimiter(requests int, window time.Duration, burst int, extractor KeyExtractor, log *logger.Logger) *ClientRateLimiter {
	if burst <= 0 {
		burst = 5
	}
	if extractor == nil {
		extractor = DefaultKeyExtractor
	}

	limiter := &ClientRateLimiter{
		limit:     rate.Limit(float64(requests) / window.Seconds()),
		burst:     burst,
		idleAfter: max(window, 10*time.Minute),
		extractor: extractor,
		log:       log,
		stopCh:    make(chan struct{}),
	}

	go limiter.cleanup()

	return limiter
}

func (rl *ClientRateLimiter) getLimiter(key string) *clientLimiter {
	if v, ok := rl.limiters.Load(key); ok {
		return v.(*clientLimiter)
	}

	fresh := &clientLimiter{limiter: rate.NewLimiter(rl.limit, rl.burst)}
	actual, _ := rl.limiters.LoadOrStore(key, fresh)
	return actual.(*clientLimiter)
}

func (rl *ClientRateLimiter) Allow(key string) bool {
	if key == "" {
		return true
	}

	cl := rl.getLimiter(key)
	cl.lastSeen.Store(time.Now().UnixNano())
	return cl.limiter.Allow()
}

func (rl *ClientRateLimiter) cleanup() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			cutoff := time.Now().Add(-rl.idleAfter).UnixNano()
			rl.limiters.Range(func(key, value any) bool {
				if value.(*clientLimiter).lastSeen.Load() < cutoff {
					rl.limiters.Delete(key)
				}
				return true
			})
		case <-rl.stopCh:
			return
		}
	}
}

func (rl *ClientRateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.stopCh) })
}

func RateLimit(limiter *ClientRateLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := limiter.extractor(r)

			if !limiter.Allow(key) {
				limiter.log.Warn("Rate limit exceeded",
					"request_id", requestID(r),
					"client", key,
					"path", r.URL.Path,
				)
				w.Header().Set("Retry-After", "1")
				if err := httputil.WriteError(w, apperrors.RateLimited("Rate limit exceeded")); err != nil {
					limiter.log.Error("failed to write rate limit response", "error", err)
				}
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// DefaultKeyExtractor uses X-Client-ID when present and the remote IP otherwise.
func DefaultKeyExtractor(r *http.Request) string {
	if id := r.Header.Get(ClientIDHeader); id != "" {
		return id
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
