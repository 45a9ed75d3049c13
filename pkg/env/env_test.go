package env

import "testing"

func TestGetTrimsAndFallsBack(t *testing.T) {
	t.Setenv("SF_TEST_VALUE", "  console ")
	if got := Get("SF_TEST_VALUE", "json"); got != "console" {
		t.Fatalf("expected trimmed value, got %q", got)
	}
	t.Setenv("SF_TEST_VALUE", "   ")
	if got := Get("SF_TEST_VALUE", "json"); got != "json" {
		t.Fatalf("expected fallback for blank value, got %q", got)
	}
}

func TestFirstPicksEarliestSetKey(t *testing.T) {
	t.Setenv("SF_TEST_PORT", "")
	t.Setenv("SF_TEST_APP_PORT", "9090")
	if got := First("8080", "SF_TEST_PORT", "SF_TEST_APP_PORT"); got != "9090" {
		t.Fatalf("expected 9090, got %q", got)
	}
	if got := First("8080", "SF_TEST_UNSET"); got != "8080" {
		t.Fatalf("expected fallback, got %q", got)
	}
}
