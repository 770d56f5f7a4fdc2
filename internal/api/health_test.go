package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

func TestHealthHandler_LivenessAndReadiness(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cases := []struct {
		name       string
		ready      func() error
		path       string
		wantCode   int
		wantStatus string
		wantLog    string
	}{
		{name: "liveness ignores the source", ready: func() error { return errors.New("db down") }, path: "/healthz", wantCode: http.StatusOK, wantStatus: "ok"},
		{name: "no readiness check", path: "/readyz", wantCode: http.StatusOK, wantStatus: "ready"},
		{name: "source reachable", ready: func() error { return nil }, path: "/readyz", wantCode: http.StatusOK, wantStatus: "ready"},
		{
			name:       "source unreachable",
			ready:      func() error { return errors.New("stat ./data: no such file or directory") },
			path:       "/readyz",
			wantCode:   http.StatusServiceUnavailable,
			wantStatus: "degraded",
			wantLog:    "stat ./data: no such file or directory",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var logs bytes.Buffer
			h := NewHealthHandler(tc.ready)
			h.log = zerolog.New(&logs)

			r := gin.New()
			h.Register(r)
			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, tc.path, nil))

			if w.Code != tc.wantCode {
				t.Fatalf("want %d got %d", tc.wantCode, w.Code)
			}
			var body map[string]string
			if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if body["status"] != tc.wantStatus {
				t.Fatalf("status %q, want %q", body["status"], tc.wantStatus)
			}
			if tc.wantLog == "" {
				if logs.Len() != 0 {
					t.Fatalf("unexpected log output: %s", logs.String())
				}
				return
			}
			out := logs.String()
			if !strings.Contains(out, `"level":"warn"`) || !strings.Contains(out, "readiness check failed") || !strings.Contains(out, tc.wantLog) {
				t.Fatalf("readiness failure not logged: %s", out)
			}
		})
	}
}
