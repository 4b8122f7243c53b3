package middleware

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()

	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo})))
	t.Cleanup(func() { slog.SetDefault(prev) })
	return &buf
}

func TestRequestLoggerLevels(t *testing.T) {
	gin.SetMode(gin.TestMode)
	buf := captureLogs(t)

	router := gin.New()
	router.Use(RequestID())
	router.Use(RequestLogger())
	router.GET("/api/contracts", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"contracts": []string{}})
	})
	router.GET("/api/contracts/missing.pdf", func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Contract not found"})
	})
	router.POST("/api/contracts/nda.pdf/analyze", func(c *gin.Context) {
		c.JSON(http.StatusBadGateway, gin.H{"error": "analysis failed"})
	})

	tests := []struct {
		name     string
		method   string
		path     string
		status   int
		logLevel string
	}{
		{"ok request", "GET", "/api/contracts", http.StatusOK, "INFO"},
		{"client error", "GET", "/api/contracts/missing.pdf", http.StatusNotFound, "WARN"},
		{"upstream failure", "POST", "/api/contracts/nda.pdf/analyze", http.StatusBadGateway, "ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf.Reset()

			req := httptest.NewRequest(tt.method, tt.path, nil)
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			if w.Code != tt.status {
				t.Errorf("Expected status %d, got %d", tt.status, w.Code)
			}

			logOutput := buf.String()
			if !strings.Contains(logOutput, "request completed") {
				t.Error("Expected 'request completed' in log")
			}
			if !strings.Contains(logOutput, tt.path) {
				t.Errorf("Expected path %q in log", tt.path)
			}
			if !strings.Contains(logOutput, tt.logLevel) {
				t.Errorf("Expected level %s in log, got: %s", tt.logLevel, logOutput)
			}
		})
	}
}

func TestRequestLoggerIncludesUsernameAndQuery(t *testing.T) {
	gin.SetMode(gin.TestMode)
	buf := captureLogs(t)

	router := gin.New()
	router.Use(RequestLogger())
	router.DELETE("/api/contracts/:fileName", func(c *gin.Context) {
		c.Set("username", "alice")
		c.JSON(http.StatusOK, gin.H{"message": "Contract deleted"})
	})

	req := httptest.NewRequest("DELETE", "/api/contracts/nda.pdf?confirm=true", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	logOutput := buf.String()
	if !strings.Contains(logOutput, "username=alice") {
		t.Errorf("Expected username attribute in log, got: %s", logOutput)
	}
	if !strings.Contains(logOutput, "confirm=true") {
		t.Errorf("Expected query string in log, got: %s", logOutput)
	}
}
