package httpmiddleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func newRouter(l *TokenBucket) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(l.GinMiddleware())
	r.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })
	return r
}

func get(r http.Handler, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.RemoteAddr = "10.0.0.1:1234"
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestTokenBucket_LimitsAndRefills(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	l := NewTokenBucket(2, 60)
	l.now = func() time.Time { return now }
	r := newRouter(l)

	for i := 0; i < 2; i++ {
		if rec := get(r, ""); rec.Code != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i, rec.Code)
		}
	}
	rec := get(r, "")
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rec.Code)
	}
	if rec.Header().Get("Retry-After") != "1" {
		t.Errorf("expected Retry-After 1, got %q", rec.Header().Get("Retry-After"))
	}
	if body := rec.Body.String(); body != `{"detail":"Too many requests"}` {
		t.Errorf("unexpected body %s", body)
	}

	now = now.Add(2 * time.Second)
	if rec := get(r, ""); rec.Code != http.StatusOK {
		t.Errorf("expected refill after 2s, got %d", rec.Code)
	}
}

func TestTokenBucket_KeysByToken(t *testing.T) {
	l := NewTokenBucket(1, 1)
	r := newRouter(l)

	if rec := get(r, "alice"); rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if rec := get(r, "alice"); rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 for same token, got %d", rec.Code)
	}
	if rec := get(r, "bob"); rec.Code != http.StatusOK {
		t.Errorf("expected separate bucket for another token, got %d", rec.Code)
	}
	if rec := get(r, ""); rec.Code != http.StatusOK {
		t.Errorf("expected separate bucket for anonymous IP, got %d", rec.Code)
	}
}

func TestTokenBucket_ZeroRateDisables(t *testing.T) {
	r := newRouter(NewTokenBucket(0, 0))
	for i := 0; i < 5; i++ {
		if rec := get(r, ""); rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
	}
}

func TestBearerToken(t *testing.T) {
	cases := []struct {
		header string
		want   string
		ok     bool
	}{
		{"Bearer abc", "abc", true},
		{"bearer abc", "abc", true},
		{"BEARER  abc ", "abc", true},
		{"Basic abc", "", false},
		{"Bearer ", "", false},
		{"Bear", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		got, ok := BearerToken(tc.header)
		if got != tc.want || ok != tc.ok {
			t.Errorf("BearerToken(%q) = %q, %v, want %q, %v", tc.header, got, ok, tc.want, tc.ok)
		}
	}
}

func TestTokenBucket_SchemeCaseSharesBucket(t *testing.T) {
	r := newRouter(NewTokenBucket(1, 1))
	if rec := get(r, "alice"); rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.RemoteAddr = "10.0.0.2:1234"
	req.Header.Set("Authorization", "bearer alice")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusTooManyRequests {
		t.Errorf("expected lower-case scheme to hit the token bucket, got %d", rec.Code)
	}
}
