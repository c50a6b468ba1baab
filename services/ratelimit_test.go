package services

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRateLimiterAllow(t *testing.T) {
	rl := NewRateLimiter(3, time.Minute)

	for i := 0; i < 3; i++ {
		ok, _ := rl.Allow("ip:1.2.3.4")
		assert.True(t, ok, "request %d should be allowed", i+1)
	}

	ok, retryAfter := rl.Allow("ip:1.2.3.4")
	assert.False(t, ok)
	assert.Greater(t, retryAfter, time.Duration(0))

	// Other keys are unaffected.
	ok, _ = rl.Allow("ip:5.6.7.8")
	assert.True(t, ok)
}

func TestRateLimiterWindowReset(t *testing.T) {
	rl := NewRateLimiter(1, 20*time.Millisecond)

	ok, _ := rl.Allow("ip:1.2.3.4")
	assert.True(t, ok)
	ok, _ = rl.Allow("ip:1.2.3.4")
	assert.False(t, ok)

	time.Sleep(30 * time.Millisecond)

	ok, _ = rl.Allow("ip:1.2.3.4")
	assert.True(t, ok, "expected a fresh window after expiry")
}

func TestRateLimiterMiddleware(t *testing.T) {
	rl := NewRateLimiter(2, time.Minute)
	handler := rl.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	doRequest := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest("POST", "/tts", nil)
		req.RemoteAddr = "10.0.0.1:54321"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusOK, doRequest().Code)
	assert.Equal(t, http.StatusOK, doRequest().Code)

	rec := doRequest()
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
}

func TestRateLimiterStop(t *testing.T) {
	rl := NewRateLimiter(1, time.Minute)
	rl.Stop()

	// The sweeper is gone but the limiter itself keeps counting.
	ok, _ := rl.Allow("ip:1.2.3.4")
	assert.True(t, ok)
	ok, _ = rl.Allow("ip:1.2.3.4")
	assert.False(t, ok)
}

func TestClientKeyPrefersUser(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	req.RemoteAddr = "10.0.0.1:54321"
	assert.Equal(t, "ip:10.0.0.1", clientKey(req))
}
