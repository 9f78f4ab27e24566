package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"

	"github.com/octobees/desamiantage-leads/internal/config"
	"github.com/octobees/desamiantage-leads/internal/dto"
	"github.com/octobees/desamiantage-leads/internal/service"
)

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// throttle keeps one token bucket per client address. Buckets idle for longer
// than the refill interval are full again and get dropped.
type throttle struct {
	mu        sync.Mutex
	visitors  map[string]*visitor
	every     rate.Limit
	burst     int
	idle      time.Duration
	lastSweep time.Time
	now       func() time.Time
}

func newThrottle(cfg config.RateLimitConfig, now func() time.Time) *throttle {
	perRequest := cfg.Interval / time.Duration(cfg.Requests)
	if perRequest <= 0 {
		perRequest = time.Second
	}
	return &throttle{
		visitors:  make(map[string]*visitor),
		every:     rate.Every(perRequest),
		burst:     cfg.Requests,
		idle:      cfg.Interval,
		lastSweep: now(),
		now:       now,
	}
}

func (t *throttle) allow(key string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	if now.Sub(t.lastSweep) >= t.idle {
		for k, v := range t.visitors {
			if now.Sub(v.lastSeen) >= t.idle {
				delete(t.visitors, k)
			}
		}
		t.lastSweep = now
	}

	v, ok := t.visitors[key]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(t.every, t.burst)}
		t.visitors[key] = v
	}
	v.lastSeen = now
	return v.limiter.AllowN(now, 1)
}

// LeadThrottle applies a token bucket per client address to the route it wraps,
// so one noisy caller cannot exhaust the quota of others. The address is read
// the same way the intake service reads it, falling back to the connection peer.
func LeadThrottle(cfg config.RateLimitConfig) echo.MiddlewareFunc {
	if cfg.Requests <= 0 || cfg.Interval <= 0 {
		return func(next echo.HandlerFunc) echo.HandlerFunc {
			return next
		}
	}

	t := newThrottle(cfg, time.Now)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			key := service.ClientIP(req.Header.Get(echo.HeaderXForwardedFor), req.Header.Get(echo.HeaderXRealIP))
			if key == "" {
				key = c.RealIP()
			}

			if !t.allow(key) {
				c.Response().Header().Set("Retry-After", "1")
				return c.JSON(http.StatusTooManyRequests, dto.ErrorResponse{Error: service.MsgTooManyRequests})
			}
			return next(c)
		}
	}
}
