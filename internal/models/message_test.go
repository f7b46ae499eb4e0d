package models

import (
	"strings"
	"testing"
	"unicode/utf8"
)

// ---------------------------------------------------------------------------
// SanitizeContent
// ---------------------------------------------------------------------------

func TestSanitizeContent(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"plain", "hello world", "hello world"},
		{"trims ends", "  hello  ", "hello"},
		{"strips tags", "a <b>bold</b> move", "a bold move"},
		{"strips control chars", "one\x00two\x1bthree", "onetwothree"},
		{"keeps newlines and tabs", "line one\n\tline two", "line one\n\tline two"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SanitizeContent(tt.in); got != tt.want {
				t.Fatalf("SanitizeContent(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestSanitizeContent_TruncatesByRunes(t *testing.T) {
	in := strings.Repeat("щ", MaxContentLength+10)
	got := SanitizeContent(in)
	if n := utf8.RuneCountInString(got); n != MaxContentLength {
		t.Fatalf("expected %d runes, got %d", MaxContentLength, n)
	}
	if !utf8.ValidString(got) {
		t.Fatalf("truncated content is not valid UTF-8: %q", got[len(got)-4:])
	}
}

func TestSanitizeContent_MultibyteAtBoundary(t *testing.T) {
	// A two-byte rune straddling the limit must survive whole, never be
	// split into a dangling first byte.
	in := strings.Repeat("a", MaxContentLength-1) + "щ"
	got := SanitizeContent(in)
	if got != in {
		t.Fatalf("content of %d runes must pass untouched", utf8.RuneCountInString(in))
	}
	if !utf8.ValidString(got) {
		t.Fatal("sanitized content is not valid UTF-8")
	}
	if !strings.HasSuffix(got, "щ") {
		t.Fatalf("expected trailing rune kept, got %q", got[len(got)-4:])
	}
}

func TestSanitizeContent_ExactLimitUntouched(t *testing.T) {
	in := strings.Repeat("я", MaxContentLength)
	if got := SanitizeContent(in); got != in {
		t.Fatalf("expected %d-rune content unchanged, got %d runes",
			MaxContentLength, utf8.RuneCountInString(got))
	}
}

// ---------------------------------------------------------------------------
// Channel helpers
// ---------------------------------------------------------------------------

func TestChannelHelpers(t *testing.T) {
	ch := Channel{
		ID:        1,
		CreatedBy: 10,
		Members:   []User{{ID: 10}, {ID: 11}},
	}
	if !ch.IsOwner(10) || ch.IsOwner(11) {
		t.Fatal("IsOwner must match created_by only")
	}
	if !ch.HasMember(11) || ch.HasMember(12) {
		t.Fatal("HasMember must match the member list")
	}
}
