package dto

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestErrorResponse_Error(t *testing.T) {
	cases := []struct {
		name string
		resp ErrorResponse
		want string
	}{
		{name: "message only", resp: ErrorResponse{Message: "invalid request body"}, want: "invalid request body"},
		{name: "with details", resp: ErrorResponse{Message: "section failed", ErrorDetails: "section scale failed: boom"}, want: "section failed: section scale failed: boom"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.resp.Error(); got != tc.want {
				t.Fatalf("want %q got %q", tc.want, got)
			}
		})
	}
}

func TestNewErrorResponse_StampsUTC(t *testing.T) {
	before := time.Now()
	e := NewErrorResponse("tolerance must not be negative", nil)
	if e.ErrorDetails != "" {
		t.Fatalf("nil error must leave details empty: %+v", e)
	}
	if e.Timestamp.Location() != time.UTC || e.Timestamp.Before(before.Add(-time.Second)) {
		t.Fatalf("timestamp not a fresh UTC time: %v", e.Timestamp)
	}

	e = NewErrorResponse("invalid positions", errors.New("scale: invalid decimal"))
	if e.ErrorDetails != "scale: invalid decimal" {
		t.Fatalf("details: %q", e.ErrorDetails)
	}
}

func TestErrorResponse_JSON(t *testing.T) {
	ts := time.Date(2025, 3, 14, 10, 0, 0, 0, time.UTC)
	cases := []struct {
		name    string
		resp    ErrorResponse
		want    string
		without string
	}{
		{
			name: "details under error",
			resp: ErrorResponse{Message: "section failed", ErrorDetails: "boom", Timestamp: ts},
			want: `{"message":"section failed","error":"boom","timestamp":"2025-03-14T10:00:00Z"}`,
		},
		{
			name:    "empty details omitted",
			resp:    ErrorResponse{Message: "rate limit exceeded", Timestamp: ts},
			want:    `{"message":"rate limit exceeded","timestamp":"2025-03-14T10:00:00Z"}`,
			without: `"error"`,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			b, err := json.Marshal(tc.resp)
			if err != nil {
				t.Fatalf("marshal: %v", err)
			}
			if string(b) != tc.want {
				t.Fatalf("want %s got %s", tc.want, b)
			}
			if tc.without != "" && strings.Contains(string(b), tc.without) {
				t.Fatalf("%s must be omitted: %s", tc.without, b)
			}
		})
	}
}
