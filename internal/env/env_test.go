package env

import (
	"testing"
	"time"
)

func TestStrFallback(t *testing.T) {
	if got := Str("ENV_TEST_MISSING_STR", "default"); got != "default" {
		t.Fatalf("expected default, got %q", got)
	}
}

func TestIntParsesAndFallsBack(t *testing.T) {
	t.Setenv("ENV_TEST_INT", "42")
	if got := Int("ENV_TEST_INT", 0); got != 42 {
		t.Fatalf("expected 42, got %d", got)
	}
	t.Setenv("ENV_TEST_INT_BAD", "not-a-number")
	if got := Int("ENV_TEST_INT_BAD", 7); got != 7 {
		t.Fatalf("expected fallback 7, got %d", got)
	}
}

func TestDurationParsesAndFallsBack(t *testing.T) {
	t.Setenv("ENV_TEST_DUR", "250ms")
	if got := Duration("ENV_TEST_DUR", time.Second); got != 250*time.Millisecond {
		t.Fatalf("expected 250ms, got %v", got)
	}
	t.Setenv("ENV_TEST_DUR_BAD", "soon")
	if got := Duration("ENV_TEST_DUR_BAD", time.Second); got != time.Second {
		t.Fatalf("expected fallback 1s, got %v", got)
	}
}

func TestBoolParsesAndFallsBack(t *testing.T) {
	t.Setenv("ENV_TEST_BOOL", "true")
	if got := Bool("ENV_TEST_BOOL", false); !got {
		t.Fatal("expected true")
	}
	t.Setenv("ENV_TEST_BOOL_BAD", "not-a-bool")
	if got := Bool("ENV_TEST_BOOL_BAD", true); !got {
		t.Fatal("expected fallback true")
	}
}
