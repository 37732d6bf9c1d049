package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestQuotaTrackerAllow(t *testing.T) {
	tracker := NewQuotaTracker(2)

	assert.True(t, tracker.Allow("1.2.3.4"))
	assert.True(t, tracker.Allow("1.2.3.4"))
	assert.False(t, tracker.Allow("1.2.3.4"), "third request of the day should be rejected")

	// Other callers are unaffected.
	assert.True(t, tracker.Allow("5.6.7.8"))
}

func TestQuotaTrackerResetsNextDay(t *testing.T) {
	tracker := NewQuotaTracker(1)
	now := time.Date(2025, 3, 1, 23, 59, 0, 0, time.UTC)
	tracker.now = func() time.Time { return now }

	assert.True(t, tracker.Allow("1.2.3.4"))
	assert.False(t, tracker.Allow("1.2.3.4"))

	now = now.Add(2 * time.Minute) // crosses midnight UTC
	assert.True(t, tracker.Allow("1.2.3.4"), "counter should reset on date change")
}

func TestDailyQuotaMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(DailyQuotaMiddleware(NewQuotaTracker(1)))
	r.POST("/generate", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	first := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/generate", nil)
	r.ServeHTTP(first, req)
	assert.Equal(t, http.StatusOK, first.Code)

	second := httptest.NewRecorder()
	r.ServeHTTP(second, httptest.NewRequest(http.MethodPost, "/generate", nil))
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
	assert.Contains(t, second.Body.String(), "daily generation limit")
}
