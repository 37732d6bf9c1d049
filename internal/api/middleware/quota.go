package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// QuotaTracker counts generations per caller IP per UTC day. State is
// in-memory only: it does not survive a restart and is not shared between
// instances, so it is a soft abuse brake rather than real quota
// enforcement.
type QuotaTracker struct {
	mu         sync.Mutex
	day        string
	counts     map[string]int
	dailyLimit int
	now        func() time.Time
}

func NewQuotaTracker(dailyLimit int) *QuotaTracker {
	return &QuotaTracker{
		counts:     make(map[string]int),
		dailyLimit: dailyLimit,
		now:        time.Now,
	}
}

// Allow records one request for ip and reports whether it is within the
// daily limit. Counters reset when the UTC date changes.
func (t *QuotaTracker) Allow(ip string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	today := t.now().UTC().Format("2006-01-02")
	if t.day != today {
		t.day = today
		t.counts = make(map[string]int)
	}

	if t.counts[ip] >= t.dailyLimit {
		return false
	}

	t.counts[ip]++
	return true
}

// DailyQuotaMiddleware rejects callers over the per-IP daily limit with
// 429. A zero limit disables the check; register the middleware
// conditionally instead of passing zero.
func DailyQuotaMiddleware(tracker *QuotaTracker) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !tracker.Allow(c.ClientIP()) {
			c.JSON(http.StatusTooManyRequests, gin.H{
				"ok":    false,
				"error": "daily generation limit reached",
			})
			c.Abort()
			return
		}

		c.Next()
	}
}
