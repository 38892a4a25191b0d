package httpx

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestMemoryLimiterWindow(t *testing.T) {
	rl := NewMemoryLimiter(2, time.Minute)
	now := time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }
	h := RateLimit(rl, RateLimitOptions{})(okHandler())

	send := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "http://example.com/api", nil)
		req.RemoteAddr = "10.0.0.1:5000"
		rw := httptest.NewRecorder()
		h.ServeHTTP(rw, req)
		return rw
	}

	codes := make([]int, 0, 3)
	var last *httptest.ResponseRecorder
	for i := 0; i < 3; i++ {
		last = send()
		codes = append(codes, last.Code)
	}
	if codes[0] != http.StatusOK || codes[1] != http.StatusOK || codes[2] != http.StatusTooManyRequests {
		t.Fatalf("unexpected codes: %v", codes)
	}
	if last.Header().Get("Retry-After") != "60" || last.Header().Get("X-RateLimit-Remaining") != "0" {
		t.Fatalf("unexpected limit headers: %v", last.Header())
	}

	now = now.Add(2 * time.Minute)
	rw := send()
	if rw.Code != http.StatusOK || rw.Header().Get("X-RateLimit-Remaining") != "1" {
		t.Fatalf("expected window reset, got %d %v", rw.Code, rw.Header())
	}
}

type brokenLimiter struct{}

func (brokenLimiter) Allow(context.Context, string) (Decision, error) {
	return Decision{}, errors.New("redis down")
}

func TestRateLimitFailOpen(t *testing.T) {
	for _, tc := range []struct {
		failOpen bool
		want     int
	}{
		{true, http.StatusOK},
		{false, http.StatusServiceUnavailable},
	} {
		h := RateLimit(brokenLimiter{}, RateLimitOptions{FailOpen: tc.failOpen})(okHandler())
		rw := httptest.NewRecorder()
		h.ServeHTTP(rw, httptest.NewRequest(http.MethodPost, "http://example.com/api", nil))
		if rw.Code != tc.want {
			t.Fatalf("failOpen=%v: expected %d, got %d", tc.failOpen, tc.want, rw.Code)
		}
	}
}

func TestClientKey(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "http://example.com", nil)
	req.RemoteAddr = "10.0.0.9:1234"
	if got := clientKey(req); got != "10.0.0.9" {
		t.Fatalf("expected remote host, got %q", got)
	}
	req.Header.Set("X-Forwarded-For", " 203.0.113.7 , 10.0.0.1")
	if got := clientKey(req); got != "203.0.113.7" {
		t.Fatalf("expected first forwarded hop, got %q", got)
	}
}

func TestForMethodsBypassesReads(t *testing.T) {
	deny := Middleware(func(http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusTeapot)
		})
	})
	h := Chain(okHandler(), ForMethods(deny, http.MethodPost))

	rw := httptest.NewRecorder()
	h.ServeHTTP(rw, httptest.NewRequest(http.MethodGet, "http://example.com", nil))
	if rw.Code != http.StatusOK {
		t.Fatalf("GET should bypass, got %d", rw.Code)
	}

	rw = httptest.NewRecorder()
	h.ServeHTTP(rw, httptest.NewRequest(http.MethodPost, "http://example.com", nil))
	if rw.Code != http.StatusTeapot {
		t.Fatalf("POST should hit middleware, got %d", rw.Code)
	}
}

func TestWithRequestIDEchoesHeader(t *testing.T) {
	var seen string
	h := WithRequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestIDFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "http://example.com", nil)
	req.Header.Set(RequestIDHeader, "req-42")
	rw := httptest.NewRecorder()
	h.ServeHTTP(rw, req)
	if seen != "req-42" || rw.Header().Get(RequestIDHeader) != "req-42" {
		t.Fatalf("request id not propagated: ctx=%q header=%q", seen, rw.Header().Get(RequestIDHeader))
	}

	rw = httptest.NewRecorder()
	h.ServeHTTP(rw, httptest.NewRequest(http.MethodGet, "http://example.com", nil))
	if len(seen) != 36 {
		t.Fatalf("expected generated uuid, got %q", seen)
	}

	bad := httptest.NewRequest(http.MethodGet, "http://example.com", nil)
	bad.Header.Set(RequestIDHeader, "line\nbreak")
	h.ServeHTTP(httptest.NewRecorder(), bad)
	if seen == "line\nbreak" || !ValidRequestID(seen) {
		t.Fatalf("malformed inbound id should be replaced, got %q", seen)
	}
}

func TestCORSPreflight(t *testing.T) {
	h := WithCORS(CORSPolicy{
		AllowedOrigins: []string{"http://localhost:5173"},
		AllowedMethods: []string{"GET", "POST"},
	})(okHandler())

	req := httptest.NewRequest(http.MethodOptions, "http://example.com/api/v1/appointments", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", "POST")
	rw := httptest.NewRecorder()
	h.ServeHTTP(rw, req)
	if rw.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rw.Code)
	}
	if rw.Header().Get("Access-Control-Allow-Origin") != "http://localhost:5173" {
		t.Fatalf("unexpected allow origin %q", rw.Header().Get("Access-Control-Allow-Origin"))
	}
	if rw.Header().Get("Access-Control-Allow-Methods") != "GET, POST" {
		t.Fatalf("unexpected allow methods %q", rw.Header().Get("Access-Control-Allow-Methods"))
	}
}

func TestCORSOriginPatterns(t *testing.T) {
	h := WithCORS(CORSPolicy{
		AllowedOrigins: []string{"https://*.clinic.example", "http://localhost:5173/"},
	})(okHandler())

	cases := map[string]bool{
		"https://dashboard.clinic.example": true,
		"http://dashboard.clinic.example":  false,
		"https://clinic.example.evil.com":  false,
		"http://LOCALHOST:5173":            true,
		"http://localhost:3000":            false,
	}
	for origin, allowed := range cases {
		req := httptest.NewRequest(http.MethodGet, "http://example.com/api/v1/appointments", nil)
		req.Header.Set("Origin", origin)
		rw := httptest.NewRecorder()
		h.ServeHTTP(rw, req)
		if rw.Code != http.StatusOK {
			t.Fatalf("%s: simple requests must reach the handler, got %d", origin, rw.Code)
		}
		if got := rw.Header().Get("Access-Control-Allow-Origin") != ""; got != allowed {
			t.Fatalf("%s: expected allowed=%v", origin, allowed)
		}
	}
}

func TestCORSDisabledWithoutOrigins(t *testing.T) {
	h := WithCORS(CORSPolicy{AllowedOrigins: []string{" "}})(okHandler())
	req := httptest.NewRequest(http.MethodOptions, "http://example.com", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", "POST")
	rw := httptest.NewRecorder()
	h.ServeHTTP(rw, req)
	if rw.Code != http.StatusOK || rw.Header().Get("Access-Control-Allow-Origin") != "" {
		t.Fatalf("expected pass-through, got %d %v", rw.Code, rw.Header())
	}
}

func TestAccessLogLevels(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	h := WithAccessLog(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/boom" {
			http.Error(w, "boom", http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte("ok"))
	}))

	cases := []struct {
		path   string
		level  string
		status float64
	}{
		{"/api/v1/appointments", "INFO", 200},
		{"/healthz", "DEBUG", 200},
		{"/boom", "WARN", 500},
	}
	for _, tc := range cases {
		buf.Reset()
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, tc.path, nil))
		var line map[string]any
		if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
			t.Fatalf("%s: decode log line: %v", tc.path, err)
		}
		if line["level"] != tc.level || line["status"] != tc.status || line["path"] != tc.path {
			t.Fatalf("%s: unexpected log line %v", tc.path, line)
		}
		if tc.status == 200 && line["bytes"] != float64(2) {
			t.Fatalf("%s: expected 2 bytes logged, got %v", tc.path, line["bytes"])
		}
	}
}

func TestChainOrderAndLimits(t *testing.T) {
	var order []string
	tag := func(name string) Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}
	readAll := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, err := io.ReadAll(r.Body); err != nil {
			http.Error(w, "too large", http.StatusRequestEntityTooLarge)
			return
		}
		w.WriteHeader(http.StatusOK)
	})

	h := Chain(readAll, tag("outer"), nil, tag("inner"), WithBodyLimit(4))
	rw := httptest.NewRecorder()
	h.ServeHTTP(rw, httptest.NewRequest(http.MethodPost, "/", strings.NewReader("12345678")))
	if rw.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413 past the body limit, got %d", rw.Code)
	}
	if len(order) != 2 || order[0] != "outer" || order[1] != "inner" {
		t.Fatalf("unexpected middleware order %v", order)
	}

	slow := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	})
	rw = httptest.NewRecorder()
	WithTimeout(20*time.Millisecond)(slow).ServeHTTP(rw, httptest.NewRequest(http.MethodGet, "/", nil))
	if rw.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 on timeout, got %d", rw.Code)
	}
}
