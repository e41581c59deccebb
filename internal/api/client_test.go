package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"campusevents/internal/model"
	"campusevents/internal/session"
)

func newTestClient(t *testing.T, h http.HandlerFunc) (*Client, *session.KV) {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	store := session.NewMemory()
	return New(srv.URL, store), store
}

func seedSession(t *testing.T, s *session.KV, token string) {
	t.Helper()
	if err := s.Save(context.Background(), token, model.User{ID: "1", Email: "a@example.edu"}); err != nil {
		t.Fatalf("seed session: %v", err)
	}
}

// TestClient_AttachesBearerToken verifies the stored token is sent on every call.
func TestClient_AttachesBearerToken(t *testing.T) {
	var gotAuth, gotRequestID string
	c, store := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotRequestID = r.Header.Get("X-Request-ID")
		_, _ = w.Write([]byte(`[]`))
	})
	seedSession(t, store, "tok-abc")

	if _, err := c.Colleges(context.Background()); err != nil {
		t.Fatalf("Colleges: %v", err)
	}
	if gotAuth != "Bearer tok-abc" {
		t.Errorf("expected bearer header, got %q", gotAuth)
	}
	if gotRequestID == "" {
		t.Error("expected X-Request-ID header")
	}
}

// TestClient_NoTokenNoHeader verifies anonymous calls carry no Authorization header.
func TestClient_NoTokenNoHeader(t *testing.T) {
	var sawAuth bool
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, sawAuth = r.Header["Authorization"]
		_, _ = w.Write([]byte(`{"access_token":"t","token_type":"bearer"}`))
	})
	if _, err := c.Login(context.Background(), "a@example.edu", "pw"); err != nil {
		t.Fatalf("Login: %v", err)
	}
	if sawAuth {
		t.Error("expected no Authorization header without a session")
	}
}

// TestClient_401ClearsSession verifies a 401 tears the session down before the error returns.
func TestClient_401ClearsSession(t *testing.T) {
	c, store := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"detail":"Could not validate credentials"}`))
	})
	seedSession(t, store, "expired")

	_, err := c.MyRegistrations(context.Background())
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if got := store.Load(context.Background()); got.AccessToken != "" || got.User != nil {
		t.Errorf("expected empty session after 401, got %+v", got)
	}
	if d := Detail(err, "fallback"); d != "Could not validate credentials" {
		t.Errorf("expected server detail, got %q", d)
	}
}

// TestClient_InvalidateIgnoresCancelledContext verifies teardown survives a cancelled caller.
func TestClient_InvalidateIgnoresCancelledContext(t *testing.T) {
	store := session.NewMemory()
	seedSession(t, store, "expired")
	c := New("http://unused.invalid", store)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	c.invalidate(ctx)
	if got := store.Load(context.Background()); got.AccessToken != "" {
		t.Errorf("expected session cleared, got %+v", got)
	}
}

// TestClient_ErrorCarriesDetail verifies non-401 failures keep the session and surface the detail.
func TestClient_ErrorCarriesDetail(t *testing.T) {
	c, store := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"detail":"Already registered for this event"}`))
	})
	seedSession(t, store, "tok")

	_, err := c.RegisterForEvent(context.Background(), "5")
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *Error, got %T %v", err, err)
	}
	if apiErr.Status != http.StatusBadRequest || apiErr.Detail != "Already registered for this event" {
		t.Errorf("unexpected error %+v", apiErr)
	}
	if errors.Is(err, ErrUnauthorized) {
		t.Error("400 must not match ErrUnauthorized")
	}
	if !store.Load(context.Background()).IsAuthenticated() {
		t.Error("non-401 errors must not clear the session")
	}
}

// TestDetail_Fallbacks verifies the fallback for missing, structured and foreign errors.
func TestDetail_Fallbacks(t *testing.T) {
	cases := []struct {
		name string
		err  error
	}{
		{"plain error", errors.New("dial tcp: refused")},
		{"empty detail", &Error{Status: 500}},
		{"nil", nil},
	}
	for _, tc := range cases {
		if got := Detail(tc.err, "Login failed"); got != "Login failed" {
			t.Errorf("%s: expected fallback, got %q", tc.name, got)
		}
	}
	if got := parseDetail([]byte(`{"detail":[{"loc":["body","email"],"msg":"field required"}]}`)); got != "" {
		t.Errorf("expected structured detail to be ignored, got %q", got)
	}
	if got := parseDetail([]byte(`<html>502</html>`)); got != "" {
		t.Errorf("expected non-JSON body to yield no detail, got %q", got)
	}
}

// TestClient_EventsPassesSkipLimit verifies pagination is forwarded verbatim.
func TestClient_EventsPassesSkipLimit(t *testing.T) {
	var gotSkip, gotLimit string
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotSkip, gotLimit = r.URL.Query().Get("skip"), r.URL.Query().Get("limit")
		_, _ = w.Write([]byte(`[{"id": 1, "title": "Robotics 101", "type": "Workshop", "date": "2026-11-01T09:00:00Z",
			"college_id": 2, "registration_count": 4, "attendance_count": 0, "college_name": "North"}]`))
	})
	events, err := c.Events(context.Background(), 20, 10)
	if err != nil {
		t.Fatalf("Events: %v", err)
	}
	if gotSkip != "20" || gotLimit != "10" {
		t.Errorf("expected skip=20 limit=10, got skip=%s limit=%s", gotSkip, gotLimit)
	}
	if len(events) != 1 || events[0].ID != "1" || events[0].CollegeName != "North" || events[0].RegistrationCount != 4 {
		t.Errorf("unexpected events %+v", events)
	}
}

// TestClient_PostBodies verifies mutation payloads use the API field names.
func TestClient_PostBodies(t *testing.T) {
	var got map[string]any
	var gotPath, gotContentType string
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotContentType = r.Header.Get("Content-Type")
		got = map[string]any{}
		_ = json.NewDecoder(r.Body).Decode(&got)
		_, _ = w.Write([]byte(`{"id": 9}`))
	})
	ctx := context.Background()

	if _, err := c.CreateAttendance(ctx, "7", "1"); err != nil {
		t.Fatalf("CreateAttendance: %v", err)
	}
	if gotPath != "/attendance" || got["registration_id"] != "7" || got["event_id"] != "1" {
		t.Errorf("unexpected attendance request %s %v", gotPath, got)
	}
	if gotContentType != "application/json" {
		t.Errorf("expected json content type, got %q", gotContentType)
	}

	if _, err := c.SubmitFeedback(ctx, "1", 4, "good"); err != nil {
		t.Fatalf("SubmitFeedback: %v", err)
	}
	if gotPath != "/feedback" || got["rating"] != float64(4) || got["comment"] != "good" {
		t.Errorf("unexpected feedback request %s %v", gotPath, got)
	}
}

// TestClient_TransportErrorKeepsSession verifies network failures are wrapped and do not clear.
func TestClient_TransportErrorKeepsSession(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()

	store := session.NewMemory()
	seedSession(t, store, "tok")
	c := New(base, store)
	if _, err := c.Colleges(context.Background()); err == nil {
		t.Fatal("expected transport error")
	}
	if !store.Load(context.Background()).IsAuthenticated() {
		t.Error("transport errors must not clear the session")
	}
}

// TestClient_Metrics verifies calls and invalidations are counted.
func TestClient_Metrics(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/auth/me" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	c := New(srv.URL, session.NewMemory(), WithMetrics(m))
	ctx := context.Background()

	_, _ = c.Colleges(ctx)
	_, _ = c.Colleges(ctx)
	_, _ = c.CurrentUser(ctx)

	if got := testutil.ToFloat64(m.requests.WithLabelValues("colleges", "200")); got != 2 {
		t.Errorf("expected 2 colleges calls, got %v", got)
	}
	if got := testutil.ToFloat64(m.invalidations); got != 1 {
		t.Errorf("expected 1 invalidation, got %v", got)
	}
}

// TestClient_DecodesOffsetlessTimestamps verifies naive datetimes from the
// backend decode as UTC instead of failing the whole response.
func TestClient_DecodesOffsetlessTimestamps(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/events/7":
			_, _ = w.Write([]byte(`{"id": 7, "title": "Hack Night", "type": "Workshop", "date": "2030-01-01T10:00:00",
				"college_id": 1, "registration_count": 0, "attendance_count": 0, "college_name": "North"}`))
		case "/attendance":
			_, _ = w.Write([]byte(`[{"id": 1, "registration_id": 3, "event_id": 7, "check_in_time": "2030-01-01T10:05:30.250000"}]`))
		default:
			http.NotFound(w, r)
		}
	})
	ctx := context.Background()

	e, err := c.Event(ctx, "7")
	if err != nil {
		t.Fatalf("Event: %v", err)
	}
	if want := time.Date(2030, 1, 1, 10, 0, 0, 0, time.UTC); !e.Date.Equal(want) {
		t.Errorf("expected date %s, got %s", want, e.Date.Time)
	}
	atts, err := c.AllAttendance(ctx)
	if err != nil {
		t.Fatalf("AllAttendance: %v", err)
	}
	if want := time.Date(2030, 1, 1, 10, 5, 30, 250000000, time.UTC); len(atts) != 1 || !atts[0].CheckInTime.Equal(want) {
		t.Errorf("unexpected attendance %+v", atts)
	}
}

// TestNew_TimeoutDoesNotModifySharedClient verifies WithTimeout applies to a
// copy of the supplied http.Client.
func TestNew_TimeoutDoesNotModifySharedClient(t *testing.T) {
	shared := &http.Client{Timeout: time.Minute}
	c := New("http://api.invalid", nil, WithHTTPClient(shared), WithTimeout(3*time.Second))
	if shared.Timeout != time.Minute {
		t.Errorf("shared client timeout changed to %s", shared.Timeout)
	}
	if c.HTTP == shared || c.HTTP.Timeout != 3*time.Second {
		t.Errorf("expected a copy with 3s timeout, got %s", c.HTTP.Timeout)
	}

	c = New("http://api.invalid", nil, WithHTTPClient(nil), WithTimeout(2*time.Second))
	if c.HTTP == nil || c.HTTP.Timeout != 2*time.Second {
		t.Errorf("expected default client with 2s timeout, got %+v", c.HTTP)
	}
	if http.DefaultClient.Timeout != 0 {
		t.Errorf("default client modified: %s", http.DefaultClient.Timeout)
	}
}
