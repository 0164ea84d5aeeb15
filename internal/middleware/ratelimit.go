package middleware

import (
	"math"
	"sync"
	"time"

	"github.com/LePhiAnhDev/Fintech-Blockchain-Hackathon-sub001/internal/util"

	"github.com/gin-gonic/gin"
)

// Limiter is an in-process sliding-window counter keyed by user ID.
// Each guarded route gets its own instance, so thresholds are
// independent per route. State is lost on restart, which is fine for a
// soft limit on a single-instance deployment.
type Limiter struct {
	mu       sync.Mutex
	requests map[uint][]time.Time
	max      int
	window   time.Duration

	now func() time.Time // overridable in tests
}

// NewLimiter builds a limiter allowing max requests per window per user.
func NewLimiter(max int, window time.Duration) *Limiter {
	return &Limiter{
		requests: make(map[uint][]time.Time),
		max:      max,
		window:   window,
		now:      time.Now,
	}
}

// Check prunes timestamps older than the window, then admits and
// records the request if the remaining count is below the threshold.
// When denied, retryAfter is the coarse whole-window value in seconds,
// not the precise time until the oldest entry expires.
func (l *Limiter) Check(userID uint) (allowed bool, retryAfter int) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	windowStart := now.Add(-l.window)

	kept := l.requests[userID][:0]
	for _, t := range l.requests[userID] {
		if t.After(windowStart) {
			kept = append(kept, t)
		}
	}

	if len(kept) >= l.max {
		l.requests[userID] = kept
		return false, int(math.Ceil(l.window.Seconds()))
	}

	l.requests[userID] = append(kept, now)
	return true, 0
}

// UserRateLimit guards a route with its own sliding-window limiter.
// Requests without a resolved user pass through untouched; the
// preceding Authenticate middleware already decided whether anonymous
// access is allowed.
func UserRateLimit(max int, window time.Duration) gin.HandlerFunc {
	limiter := NewLimiter(max, window)

	return func(c *gin.Context) {
		user := CurrentUser(c)
		if user == nil {
			c.Next()
			return
		}

		allowed, retryAfter := limiter.Check(user.ID)
		if !allowed {
			util.RateLimited(c, retryAfter)
			c.Abort()
			return
		}
		c.Next()
	}
}
