package app

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/oklog/ulid/v2"
)

type requestCounter struct {
	calls []int
}

func (c *requestCounter) ObserveRequest(_ string, status int) {
	c.calls = append(c.calls, status)
}

func TestRequestLogMeta(t *testing.T) {
	t.Parallel()

	cases := []struct {
		status     int
		wantLevel  slog.Level
		wantResult string
		wantClass  string
	}{
		{status: 200, wantLevel: slog.LevelInfo, wantResult: "success", wantClass: "2xx"},
		{status: 302, wantLevel: slog.LevelInfo, wantResult: "redirect", wantClass: "3xx"},
		{status: 404, wantLevel: slog.LevelWarn, wantResult: "client_error", wantClass: "4xx"},
		{status: 503, wantLevel: slog.LevelError, wantResult: "server_error", wantClass: "5xx"},
		{status: 42, wantLevel: slog.LevelInfo, wantResult: "success", wantClass: "unknown"},
	}

	for _, tc := range cases {
		level, result := requestLogMeta(tc.status)
		if level != tc.wantLevel || result != tc.wantResult {
			t.Fatalf("status=%d level=%v result=%q; want level=%v result=%q", tc.status, level, result, tc.wantLevel, tc.wantResult)
		}
		if got := statusClass(tc.status); got != tc.wantClass {
			t.Fatalf("statusClass(%d)=%q want=%q", tc.status, got, tc.wantClass)
		}
	}
}

func TestWithRequestID_MintsULID(t *testing.T) {
	t.Parallel()

	var seen string
	h := WithRequestID(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		seen = RequestIDFromContext(r.Context())
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if _, err := ulid.ParseStrict(seen); err != nil {
		t.Fatalf("expected a ULID request id, got %q: %v", seen, err)
	}
	if got := rr.Header().Get(requestIDHeader); got != seen {
		t.Fatalf("response header=%q want %q", got, seen)
	}
}

func TestWithRequestID_KeepsWellFormedIncomingID(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		keep bool
	}{
		{in: "abc-123_DEF", keep: true},
		{in: "has space", keep: false},
		{in: "<script>", keep: false},
		{in: strings.Repeat("a", 65), keep: false},
	}
	for _, tc := range cases {
		var seen string
		h := WithRequestID(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
			seen = RequestIDFromContext(r.Context())
		}))
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(requestIDHeader, tc.in)
		h.ServeHTTP(httptest.NewRecorder(), req)

		if (seen == tc.in) != tc.keep {
			t.Fatalf("incoming %q: seen %q keep=%v", tc.in, seen, tc.keep)
		}
	}
}

func TestWithRequestLogging_LogsAndObserves(t *testing.T) {
	t.Parallel()

	var logs bytes.Buffer
	log := slog.New(slog.NewJSONHandler(&logs, nil))
	obs := &requestCounter{}

	h := WithRequestID(WithRequestLogging(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("nope"))
	}), log, obs))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/cattle/7", nil))

	out := logs.String()
	for _, want := range []string{
		`"msg":"http.request"`,
		`"level":"WARN"`,
		`"status":404`,
		`"status_class":"4xx"`,
		`"path":"/cattle/7"`,
		`"bytes":4`,
		`"request_id":"`,
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("log missing %s: %s", want, out)
		}
	}
	if len(obs.calls) != 1 || obs.calls[0] != http.StatusNotFound {
		t.Fatalf("observer calls=%v", obs.calls)
	}
}

func TestWithSecurityHeaders(t *testing.T) {
	t.Parallel()

	h := WithSecurityHeaders(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	want := map[string]string{
		"X-Content-Type-Options": "nosniff",
		"X-Frame-Options":        "DENY",
		"Referrer-Policy":        "no-referrer",
		"Cache-Control":          "no-store",
	}
	for k, v := range want {
		if got := rr.Header().Get(k); got != v {
			t.Fatalf("%s=%q want %q", k, got, v)
		}
	}
}
