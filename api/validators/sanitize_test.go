package validators

import "testing"

func TestSanitizeString(t *testing.T) {
	if got := SanitizeString("  hello  ", 0); got != "hello" {
		t.Fatalf("expected trim only, got %q", got)
	}
	if got := SanitizeString("abcdef", 3); got != "abc" {
		t.Fatalf("expected byte truncation, got %q", got)
	}
	if got := SanitizeString("héllo wörld", 5); got != "héllo" {
		t.Fatalf("truncation must not split runes, got %q", got)
	}
}
