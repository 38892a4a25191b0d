package config

import "testing"

func TestPort(t *testing.T) {
	t.Setenv("TEST_PORT", "8085")
	p, err := Port("TEST_PORT", "1")
	if err != nil || p != "8085" {
		t.Fatalf("expected 8085, got %q (%v)", p, err)
	}

	t.Setenv("TEST_PORT", "70000")
	if _, err := Port("TEST_PORT", "1"); err == nil {
		t.Fatal("expected error for out-of-range port")
	}

	t.Setenv("TEST_PORT", "")
	p, err = Port("TEST_PORT", "")
	if err != nil || p != "" {
		t.Fatalf("expected disabled port, got %q (%v)", p, err)
	}
}

func TestIntBounds(t *testing.T) {
	t.Setenv("TEST_HOUR", "25")
	if got := Int("TEST_HOUR", 7, 0, 23); got != 7 {
		t.Fatalf("expected fallback 7, got %d", got)
	}
	t.Setenv("TEST_HOUR", "8")
	if got := Int("TEST_HOUR", 7, 0, 23); got != 8 {
		t.Fatalf("expected 8, got %d", got)
	}
}

func TestBoolAndList(t *testing.T) {
	t.Setenv("TEST_FLAG", "off")
	if Bool("TEST_FLAG", true) {
		t.Fatal("expected off to parse as false")
	}
	t.Setenv("TEST_FLAG", "maybe")
	if !Bool("TEST_FLAG", true) {
		t.Fatal("expected fallback for unknown value")
	}

	t.Setenv("TEST_LIST", " a, ,b ")
	got := List("TEST_LIST", "")
	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Fatalf("unexpected list: %#v", got)
	}
}

func TestFloatRejectsNonPositive(t *testing.T) {
	t.Setenv("TEST_RATIO", "-0.5")
	if got := Float("TEST_RATIO", 1); got != 1 {
		t.Fatalf("expected fallback 1, got %v", got)
	}
	t.Setenv("TEST_RATIO", "0.25")
	if got := Float("TEST_RATIO", 1); got != 0.25 {
		t.Fatalf("expected 0.25, got %v", got)
	}
}
