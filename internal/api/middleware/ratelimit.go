package middleware

import (
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"

	"candidature-ai/internal/auth"
	"candidature-ai/internal/config"
	"candidature-ai/internal/logging"
	"candidature-ai/pkg/utils"
)

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// ClientRateLimiter keeps one token bucket per caller. Callers are keyed by
// user id once authenticated and by client IP otherwise.
type ClientRateLimiter struct {
	limit   rate.Limit
	burst   int
	idleTTL time.Duration

	mu      sync.Mutex
	clients map[string]*clientLimiter
	now     func() time.Time

	logger      logging.Logger
	stopCleanup chan struct{}
	stopOnce    sync.Once
}

// NewClientRateLimiter builds a limiter from the rate_limit config section.
// Call Stop to end the cleanup goroutine.
func NewClientRateLimiter(cfg *config.Config) *ClientRateLimiter {
	perMinute := cfg.RateLimit.RequestsPerMinute
	if perMinute <= 0 {
		perMinute = 20
	}
	burst := cfg.RateLimit.Burst
	if burst <= 0 {
		burst = 1
	}
	rl := newClientRateLimiter(rate.Limit(float64(perMinute)/60.0), burst, 10*time.Minute)
	go rl.cleanupRoutine(5 * time.Minute)
	return rl
}

func newClientRateLimiter(limit rate.Limit, burst int, idleTTL time.Duration) *ClientRateLimiter {
	return &ClientRateLimiter{
		limit:       limit,
		burst:       burst,
		idleTTL:     idleTTL,
		clients:     make(map[string]*clientLimiter),
		now:         time.Now,
		logger:      logging.GetGlobalLogger().WithField("component", "rate_limiter"),
		stopCleanup: make(chan struct{}),
	}
}

// Allow reports whether key may make another request now
func (rl *ClientRateLimiter) Allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	cl, ok := rl.clients[key]
	if !ok {
		cl = &clientLimiter{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.clients[key] = cl
	}
	cl.lastSeen = now
	return cl.limiter.AllowN(now, 1)
}

// Middleware rejects over-limit callers with RATE_LIMITED
func (rl *ClientRateLimiter) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := "ip:" + c.RealIP()
			if id, ok := auth.IdentityFrom(c.Request().Context()); ok {
				key = "user:" + id.UserID
			}
			if !rl.Allow(key) {
				rl.logger.Info("request rate limited", map[string]interface{}{
					"request_id": GetRequestID(c),
					"client":     key,
				})
				return utils.NewRateLimitedError()
			}
			return next(c)
		}
	}
}

func (rl *ClientRateLimiter) cleanup() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := rl.now().Add(-rl.idleTTL)
	removed := 0
	for key, cl := range rl.clients {
		if cl.lastSeen.Before(cutoff) {
			delete(rl.clients, key)
			removed++
		}
	}
	return removed
}

func (rl *ClientRateLimiter) cleanupRoutine(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if n := rl.cleanup(); n > 0 {
				rl.logger.Debug("evicted idle rate limiters", map[string]interface{}{"count": n})
			}
		case <-rl.stopCleanup:
			return
		}
	}
}

// Stop ends the cleanup goroutine
func (rl *ClientRateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.stopCleanup) })
}
