package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestRateLimiterBurstThenRefill(t *testing.T) {
	current := time.Date(2026, 3, 9, 12, 0, 0, 0, time.UTC)
	rl := NewRateLimiter(1.0, 2) // 1 token/sec, burst 2
	rl.now = func() time.Time { return current }

	if !rl.Allow("10.0.0.1") || !rl.Allow("10.0.0.1") {
		t.Fatal("burst should allow two requests")
	}
	if rl.Allow("10.0.0.1") {
		t.Fatal("third request should be denied")
	}

	current = current.Add(1500 * time.Millisecond)
	if !rl.Allow("10.0.0.1") {
		t.Fatal("refill should allow a request after 1.5s")
	}
	if rl.Allow("10.0.0.1") {
		t.Fatal("refill grants only one token")
	}
}

func TestRateLimiterIsolatesClients(t *testing.T) {
	rl := NewRateLimiter(0.001, 1)
	if !rl.Allow("10.0.0.1") {
		t.Fatal("first client should pass")
	}
	if rl.Allow("10.0.0.1") {
		t.Fatal("first client should be exhausted")
	}
	if !rl.Allow("10.0.0.2") {
		t.Fatal("second client has its own bucket")
	}
}

func TestRateLimitMiddlewarePrefersRealIP(t *testing.T) {
	handler := RateLimit(0.001, 1)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	// Same X-Real-Ip across different socket addresses shares one bucket.
	for i, want := range []int{http.StatusOK, http.StatusTooManyRequests} {
		req := httptest.NewRequest(http.MethodGet, "/v1/enrichment", nil)
		req.RemoteAddr = "192.168.0.1:1000"
		if i == 1 {
			req.RemoteAddr = "192.168.0.2:2000"
		}
		req.Header.Set("X-Real-Ip", "203.0.113.9")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != want {
			t.Fatalf("request %d: status = %d, want %d", i, rec.Code, want)
		}
	}
}
