package middleware

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"shopcart-backend/pkg/logger"
	"shopcart-backend/pkg/utils"

	"golang.org/x/time/rate"
)

// RateLimitConfig sizes the per-client token buckets.
type RateLimitConfig struct {
	RPS   float64
	Burst int
	// CleanupPeriod is how often idle buckets are swept.
	CleanupPeriod time.Duration
	// ClientTTL is how long a bucket may sit idle before it is dropped.
	ClientTTL time.Duration
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter keeps one token bucket per client IP, as resolved by a ClientIPResolver.
type RateLimiter struct {
	cfg        RateLimitConfig
	ips        *ClientIPResolver
	retryAfter string

	mu       sync.Mutex
	visitors map[string]*visitor

	cancel context.CancelFunc
	done   chan struct{}
}

// NewRateLimiter starts the sweeper, which stops when ctx ends or Shutdown is called.
func NewRateLimiter(ctx context.Context, cfg RateLimitConfig, ips *ClientIPResolver) *RateLimiter {
	if cfg.CleanupPeriod <= 0 {
		cfg.CleanupPeriod = time.Minute
	}
	wait := 1
	if cfg.RPS > 0 {
		wait = max(1, int(math.Ceil(1/cfg.RPS)))
	}

	ctx, cancel := context.WithCancel(ctx)
	rl := &RateLimiter{
		cfg:        cfg,
		ips:        ips,
		retryAfter: strconv.Itoa(wait),
		visitors:   make(map[string]*visitor),
		cancel:     cancel,
		done:       make(chan struct{}),
	}
	go rl.sweep(ctx)
	return rl
}

func (rl *RateLimiter) Middleware() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := rl.ips.ClientIP(r)
			if !rl.allow(ip, time.Now()) {
				logger.WithContext(r.Context()).Warn().
					Str("ip", ip).
					Str("path", r.URL.Path).
					Msg("Rate limit exceeded")
				w.Header().Set("Retry-After", rl.retryAfter)
				utils.WriteError(w, http.StatusTooManyRequests, "Too Many Requests")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (rl *RateLimiter) allow(ip string, now time.Time) bool {
	rl.mu.Lock()
	v, ok := rl.visitors[ip]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(rate.Limit(rl.cfg.RPS), rl.cfg.Burst)}
		rl.visitors[ip] = v
	}
	v.lastSeen = now
	rl.mu.Unlock()

	return v.limiter.AllowN(now, 1)
}

func (rl *RateLimiter) sweep(ctx context.Context) {
	defer close(rl.done)

	ticker := time.NewTicker(rl.cfg.CleanupPeriod)
	defer ticker.Stop()

	for {
		select {
		case now := <-ticker.C:
			rl.evictIdle(now)
		case <-ctx.Done():
			return
		}
	}
}

// evictIdle drops buckets unused for longer than ClientTTL.
func (rl *RateLimiter) evictIdle(now time.Time) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	for ip, v := range rl.visitors {
		if now.Sub(v.lastSeen) > rl.cfg.ClientTTL {
			delete(rl.visitors, ip)
		}
	}
}

// Shutdown stops the sweeper and waits for it to exit.
func (rl *RateLimiter) Shutdown() {
	rl.cancel()
	<-rl.done
}
