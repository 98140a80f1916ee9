package middlewares

import (
	"bytes"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func serve(r *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRequestID_GeneratesAndEchoes(t *testing.T) {
	r := gin.New()
	r.Use(RequestID())
	r.GET("/x", func(c *gin.Context) {
		id, _ := c.Get(CtxRequestID)
		c.String(http.StatusOK, id.(string))
	})

	w := serve(r, httptest.NewRequest(http.MethodGet, "/x", nil))
	if got := w.Header().Get("X-Request-Id"); got == "" || got != w.Body.String() {
		t.Fatalf("expected generated id echoed, header=%q body=%q", got, w.Body.String())
	}

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("X-Request-Id", "abc-123")
	if got := serve(r, req).Header().Get("X-Request-Id"); got != "abc-123" {
		t.Fatalf("expected caller id kept, got %q", got)
	}
}

func TestRequestLogger_LogsRouteAndStatus(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewJSONHandler(&buf, nil))

	r := gin.New()
	r.Use(RequestID(), RequestLogger(log))
	r.GET("/events/:id", func(c *gin.Context) { c.Status(http.StatusTeapot) })

	serve(r, httptest.NewRequest(http.MethodGet, "/events/42", nil))

	out := buf.String()
	if !strings.Contains(out, `"route":"/events/:id"`) || !strings.Contains(out, `"status":418`) {
		t.Fatalf("unexpected log line: %s", out)
	}
}

func TestCORS(t *testing.T) {
	r := gin.New()
	r.Use(CORSMiddleware([]string{"https://app.example"}))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Origin", "https://app.example")
	if got := serve(r, req).Header().Get("Access-Control-Allow-Origin"); got != "https://app.example" {
		t.Fatalf("expected origin allowed, got %q", got)
	}

	req = httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Origin", "https://evil.example")
	if got := serve(r, req).Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Fatalf("expected origin rejected, got %q", got)
	}

	req = httptest.NewRequest(http.MethodOptions, "/x", nil)
	if code := serve(r, req).Code; code != http.StatusNoContent {
		t.Fatalf("expected preflight 204, got %d", code)
	}
}

func TestRateLimiter_BlocksAfterLimit(t *testing.T) {
	rl := NewRateLimiter(2, time.Minute)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	r := gin.New()
	r.Use(RequestID(), rl.RateLimiterMiddleware(KeyByIP))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	for i := 0; i < 2; i++ {
		if code := serve(r, httptest.NewRequest(http.MethodGet, "/x", nil)).Code; code != http.StatusOK {
			t.Fatalf("request %d: got %d", i, code)
		}
	}

	w := serve(r, httptest.NewRequest(http.MethodGet, "/x", nil))
	if w.Code != http.StatusTooManyRequests || w.Header().Get("Retry-After") != "60" {
		t.Fatalf("expected 429 with Retry-After 60, got %d %q", w.Code, w.Header().Get("Retry-After"))
	}

	now = now.Add(61 * time.Second)
	if code := serve(r, httptest.NewRequest(http.MethodGet, "/x", nil)).Code; code != http.StatusOK {
		t.Fatalf("expected new window to allow, got %d", code)
	}
}

func TestMaxBodyBytes(t *testing.T) {
	r := gin.New()
	r.Use(MaxBodyBytes(8))
	r.POST("/x", func(c *gin.Context) {
		if _, err := io.ReadAll(c.Request.Body); err != nil {
			c.Status(http.StatusRequestEntityTooLarge)
			return
		}
		c.Status(http.StatusOK)
	})

	if code := serve(r, httptest.NewRequest(http.MethodPost, "/x", strings.NewReader("small"))).Code; code != http.StatusOK {
		t.Fatalf("small body: got %d", code)
	}
	if code := serve(r, httptest.NewRequest(http.MethodPost, "/x", strings.NewReader("far too large"))).Code; code != http.StatusRequestEntityTooLarge {
		t.Fatalf("large body: got %d", code)
	}
}

func TestRequireJSON(t *testing.T) {
	r := gin.New()
	r.Use(RequireJSON())
	r.POST("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodPost, "/x", strings.NewReader("{}"))
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	if code := serve(r, req).Code; code != http.StatusOK {
		t.Fatalf("json: got %d", code)
	}

	req = httptest.NewRequest(http.MethodPost, "/x", strings.NewReader("a=b"))
	req.Header.Set("Content-Type", "text/plain")
	if code := serve(r, req).Code; code != http.StatusUnsupportedMediaType {
		t.Fatalf("text: got %d", code)
	}
}

func TestSecurityHeaders(t *testing.T) {
	r := gin.New()
	r.Use(SecurityHeaders())
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := serve(r, httptest.NewRequest(http.MethodGet, "/x", nil))
	if w.Header().Get("X-Content-Type-Options") != "nosniff" || w.Header().Get("Content-Security-Policy") == "" {
		t.Fatalf("missing security headers: %v", w.Header())
	}
}
