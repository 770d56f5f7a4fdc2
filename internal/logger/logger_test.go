package logger

import (
	"bytes"
	"os"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestParseLevel(t *testing.T) {
	cases := []struct {
		in   string
		want zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"warn", zerolog.WarnLevel},
		{"warning", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"ERR", zerolog.ErrorLevel},
		{"", zerolog.InfoLevel},
		{"something", zerolog.InfoLevel},
	}
	for _, c := range cases {
		if got := parseLevel(c.in); got != c.want {
			t.Fatalf("parseLevel(%q)=%v, want %v", c.in, got, c.want)
		}
	}
}

func TestGetenv(t *testing.T) {
	t.Setenv("X", "val")
	if v := getenv("X", "def"); v != "val" {
		t.Fatalf("getenv returned %q, want 'val'", v)
	}
	if v := getenv("Y", "def"); v != "def" {
		t.Fatalf("getenv returned %q, want 'def'", v)
	}
}

func TestInitAndL(t *testing.T) {
	// Info by default
	_ = os.Unsetenv("LOG_LEVEL")
	_ = os.Unsetenv("LOG_PRETTY")
	Init()
	if L() == nil {
		t.Fatalf("L() returned nil")
	}

	// Set debug level and pretty
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_PRETTY", "true")
	Init()
	if L().GetLevel() != zerolog.DebugLevel {
		t.Fatalf("expected debug level, got %v", L().GetLevel())
	}
}

// Ensure L() never returns nil and initializes itself when Init was skipped
func TestLoggerAccessor_NotNil(t *testing.T) {
	ready.Store(false)
	base = zerolog.Logger{}
	t.Setenv("LOG_LEVEL", "warn")
	lg := L()
	if lg == nil {
		t.Fatalf("logger is nil")
	}
	if lg.GetLevel() != zerolog.WarnLevel {
		t.Fatalf("logger level not initialized from env, got %v", lg.GetLevel())
	}
}

func TestOutput(t *testing.T) {
	if output("STDOUT") != os.Stdout {
		t.Fatalf("expected stdout")
	}
	if output("") != os.Stderr || output("elsewhere") != os.Stderr {
		t.Fatalf("expected stderr by default")
	}
}

func TestNamed(t *testing.T) {
	var buf bytes.Buffer
	ready.Store(true)
	base = zerolog.New(&buf)
	t.Cleanup(func() { ready.Store(false) })

	lg := Named("ingestion")
	lg.Info().Msg("hello")
	if !strings.Contains(buf.String(), `"component":"ingestion"`) {
		t.Fatalf("component field missing: %s", buf.String())
	}
}
