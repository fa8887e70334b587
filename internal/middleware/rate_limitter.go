package middleware

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"StudySanctuary/pkg/response"
	"github.com/gofiber/fiber/v2"
	"golang.org/x/time/rate"
)

var (
	ErrTooManyRequests = response.NewCodedError(http.StatusTooManyRequests, "TOO_MANY_REQUESTS", "too many requests")
)

// limiterIdleTTL is how long an address may stay quiet before its bucket is dropped.
const limiterIdleTTL = 10 * time.Minute

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

type rateLimiter struct {
	mutex     sync.Mutex
	visitors  map[string]*visitor
	rate      rate.Limit
	burstSize int
	lastSweep time.Time
	now       func() time.Time
}

func newRateLimiter(reqRate rate.Limit, burstSize int) *rateLimiter {
	return &rateLimiter{
		visitors:  make(map[string]*visitor),
		rate:      reqRate,
		burstSize: burstSize,
		now:       time.Now,
	}
}

func (r *rateLimiter) GetLimiterFrom(ip string) *rate.Limiter {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	now := r.now()
	if now.Sub(r.lastSweep) > limiterIdleTTL {
		for key, v := range r.visitors {
			if now.Sub(v.lastSeen) > limiterIdleTTL {
				delete(r.visitors, key)
			}
		}
		r.lastSweep = now
	}

	v, exist := r.visitors[ip]
	if !exist {
		v = &visitor{limiter: rate.NewLimiter(r.rate, r.burstSize)}
		r.visitors[ip] = v
	}
	v.lastSeen = now

	return v.limiter
}

func (r *rateLimiter) size() int {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return len(r.visitors)
}

// retryAfter is the whole number of seconds until one more token is available.
func (r *rateLimiter) retryAfter() int {
	if r.rate <= 0 {
		return 1
	}
	return int(math.Max(1, math.Ceil(1/float64(r.rate))))
}

func (m *middleware) NewRateLimiter(ctx *fiber.Ctx) error {
	clientIP := ctx.IP()
	limiter := m.rateLimitter.GetLimiterFrom(clientIP)

	if !limiter.Allow() {
		m.log.WithField("request_id", m.GetRequestID(ctx)).Warnf("too many requests for IP %s on %s", clientIP, ctx.Path())
		ctx.Set(fiber.HeaderRetryAfter, strconv.Itoa(m.rateLimitter.retryAfter()))
		return ctx.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
			"error": ErrTooManyRequests.Error(),
			"code":  response.Key(ErrTooManyRequests),
		})
	}

	return ctx.Next()
}
