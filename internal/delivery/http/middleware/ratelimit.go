package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/LavaJover/shvark-payment-gateway/internal/delivery/http/dto/response"
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

const sweepEvery = 1024

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// IPRateLimiter allows limit requests per window for each client IP, refilling evenly.
type IPRateLimiter struct {
	limit   int
	window  time.Duration
	code    string
	message string

	mu       sync.Mutex
	visitors map[string]*visitor
	calls    int
	now      func() time.Time
}

func NewIPRateLimiter(limit int, window time.Duration, code, message string) *IPRateLimiter {
	if limit <= 0 {
		limit = 1
	}
	return &IPRateLimiter{
		limit:    limit,
		window:   window,
		code:     code,
		message:  message,
		visitors: make(map[string]*visitor),
		now:      time.Now,
	}
}

// GlobalLimiter is 100 requests per 15 minutes by default.
func GlobalLimiter(limit int) *IPRateLimiter {
	return NewIPRateLimiter(limit, 15*time.Minute, "TOO_MANY_REQUESTS", "too many requests, try again in 15 minutes")
}

// StrictLimiter guards submissions: 5 per minute by default.
func StrictLimiter(limit int) *IPRateLimiter {
	return NewIPRateLimiter(limit, time.Minute, "RATE_LIMIT_EXCEEDED", "too many attempts, wait a minute and try again")
}

func (l *IPRateLimiter) WithClock(now func() time.Time) *IPRateLimiter {
	l.now = now
	return l
}

func (l *IPRateLimiter) Allow(ip string) bool {
	now := l.now()
	l.mu.Lock()
	defer l.mu.Unlock()

	l.calls++
	if l.calls%sweepEvery == 0 {
		for key, v := range l.visitors {
			if now.Sub(v.lastSeen) > l.window {
				delete(l.visitors, key)
			}
		}
	}

	v, ok := l.visitors[ip]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(rate.Every(l.window/time.Duration(l.limit)), l.limit)}
		l.visitors[ip] = v
	}
	v.lastSeen = now
	return v.limiter.AllowN(now, 1)
}

func (l *IPRateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !l.Allow(c.ClientIP()) {
			c.Header("Retry-After", strconv.Itoa(int((l.window/time.Duration(l.limit)).Seconds())))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, response.Envelope{
				Code:    l.code,
				Message: l.message,
			})
			return
		}
		c.Next()
	}
}
