package middleware

import (
	"bytes"
	"errors"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/fforsikring/prisberegner/internal/config"
)

func newContext(e *echo.Echo, method, target, path string) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if path != "" {
		c.SetPath(path)
	}
	return c, rec
}

func TestLoggingMiddleware(t *testing.T) {
	orig := log.Writer()
	buf := &bytes.Buffer{}
	log.SetOutput(buf)
	defer log.SetOutput(orig)

	e := echo.New()

	t.Run("logs request id and status", func(t *testing.T) {
		c, rec := newContext(e, http.MethodGet, "/healthz", "")
		c.Set(ContextKeyRequestID, "rid-123")

		err := Logging()(func(c echo.Context) error {
			return c.String(http.StatusOK, "ok")
		})(c)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if rec.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d", rec.Code)
		}
		line := buf.String()
		if !strings.Contains(line, "request_id=rid-123") || !strings.Contains(line, "status=200") {
			t.Fatalf("unexpected log line: %s", line)
		}
	})

	t.Run("errors bubble up and still log", func(t *testing.T) {
		c, _ := newContext(e, http.MethodGet, "/healthz", "")
		c.Set(ContextKeyRequestID, "rid-456")

		expected := errors.New("boom")
		err := Logging()(func(c echo.Context) error {
			return expected
		})(c)
		if !errors.Is(err, expected) {
			t.Fatalf("expected error to bubble up, got %v", err)
		}
		if !strings.Contains(buf.String(), "rid-456") {
			t.Fatalf("expected log entry for failed request")
		}
	})
}

func TestPathRateLimiter(t *testing.T) {
	e := echo.New()
	next := func(c echo.Context) error { return c.NoContent(http.StatusOK) }

	t.Run("limits only the guarded path", func(t *testing.T) {
		mw := PathRateLimiter("/api/lead", config.RateLimitConfig{Requests: 1, Interval: time.Second})

		c, rec := newContext(e, http.MethodPost, "/api/lead", "/api/lead")
		_ = mw(next)(c)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected first request to pass, got %d", rec.Code)
		}

		c, rec = newContext(e, http.MethodPost, "/api/lead", "/api/lead")
		_ = mw(next)(c)
		if rec.Code != http.StatusTooManyRequests {
			t.Fatalf("expected second request rejected, got %d", rec.Code)
		}

		c, rec = newContext(e, http.MethodGet, "/api/cvr", "/api/cvr")
		_ = mw(next)(c)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected other paths to bypass the limiter, got %d", rec.Code)
		}
	})

	t.Run("zero config disables the limiter", func(t *testing.T) {
		mw := PathRateLimiter("/api/lead", config.RateLimitConfig{})
		for i := 0; i < 5; i++ {
			c, rec := newContext(e, http.MethodPost, "/api/lead", "/api/lead")
			_ = mw(next)(c)
			if rec.Code != http.StatusOK {
				t.Fatalf("request %d: expected passthrough, got %d", i, rec.Code)
			}
		}
	})
}

func TestRequireRole(t *testing.T) {
	e := echo.New()
	mw := RequireRole("admin")

	cases := []struct {
		name       string
		role       string
		expectCode int
		expectNext bool
	}{
		{name: "missing role", expectCode: http.StatusForbidden},
		{name: "wrong role", role: "user", expectCode: http.StatusForbidden},
		{name: "matching role", role: "admin", expectCode: http.StatusOK, expectNext: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c, rec := newContext(e, http.MethodGet, "/admin/leads", "")
			if tc.role != "" {
				c.Set(ContextKeyUserRole, tc.role)
			}

			called := false
			_ = mw(func(c echo.Context) error {
				called = true
				return c.NoContent(http.StatusOK)
			})(c)

			if rec.Code != tc.expectCode {
				t.Fatalf("expected %d, got %d", tc.expectCode, rec.Code)
			}
			if called != tc.expectNext {
				t.Fatalf("expected next called=%v, got %v", tc.expectNext, called)
			}
		})
	}
}

func TestRequestIDMiddleware(t *testing.T) {
	e := echo.New()
	mw := RequestID()

	t.Run("reuses incoming header", func(t *testing.T) {
		c, rec := newContext(e, http.MethodGet, "/", "")
		c.Request().Header.Set(requestIDHeader, "incoming")

		if err := mw(func(c echo.Context) error {
			if RequestIDFromContext(c) != "incoming" {
				t.Fatalf("expected incoming id in context, got %q", RequestIDFromContext(c))
			}
			return c.NoContent(http.StatusOK)
		})(c); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if rec.Header().Get(requestIDHeader) != "incoming" {
			t.Fatalf("expected response header to echo the id")
		}
	})

	t.Run("mints an id when absent", func(t *testing.T) {
		c, rec := newContext(e, http.MethodGet, "/", "")

		if err := mw(func(c echo.Context) error {
			if RequestIDFromContext(c) == "" {
				t.Fatalf("expected a generated id")
			}
			return c.NoContent(http.StatusOK)
		})(c); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if rec.Header().Get(requestIDHeader) == "" {
			t.Fatalf("expected response header set")
		}
	})
}
