package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func TestRateLimitRejectsOverLimit(t *testing.T) {
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.Use(RequestID())
	router.Use(RateLimit(5, time.Minute))
	router.GET("/api/contracts", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"contracts": []string{}})
	})

	for i := 0; i < 5; i++ {
		req := httptest.NewRequest("GET", "/api/contracts", nil)
		req.RemoteAddr = "192.168.1.1:12345"
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Errorf("Request %d: Expected status 200, got %d", i+1, w.Code)
		}
	}

	req := httptest.NewRequest("GET", "/api/contracts", nil)
	req.RemoteAddr = "192.168.1.1:12345"
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	if w.Code != http.StatusTooManyRequests {
		t.Errorf("Expected status 429 over the limit, got %d", w.Code)
	}
}

func TestRateLimitCountsClientsSeparately(t *testing.T) {
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.Use(RateLimit(2, time.Minute))
	router.GET("/api/contracts", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"contracts": []string{}})
	})

	// Exhaust one client's allowance
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest("GET", "/api/contracts", nil)
		req.Header.Set("X-Forwarded-For", "10.0.0.1")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
	}

	req := httptest.NewRequest("GET", "/api/contracts", nil)
	req.Header.Set("X-Forwarded-For", "10.0.0.2")
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected other clients unaffected, got %d", w.Code)
	}
}

func TestRateLimiterWindowReset(t *testing.T) {
	limiter := NewRateLimiter(2, 10*time.Millisecond)

	if !limiter.allow("10.0.0.1") || !limiter.allow("10.0.0.1") {
		t.Fatal("Expected first requests within limit")
	}
	if limiter.allow("10.0.0.1") {
		t.Fatal("Expected third request rejected")
	}

	limiter.windowStart = time.Now().Add(-time.Second)

	if !limiter.allow("10.0.0.1") {
		t.Error("Expected allowance restored after window rollover")
	}
}
