package filling

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestSanitizeNormalizesWhitespace(t *testing.T) {
	in := "  first line  \n\n\n   second line\n\t\n"
	want := "first line\nsecond line"
	if got := Sanitize(in); got != want {
		t.Errorf("Sanitize = %q, want %q", got, want)
	}
}

func TestSanitizeEmpty(t *testing.T) {
	if got := Sanitize(""); got != "" {
		t.Errorf("Sanitize(\"\") = %q", got)
	}
}

func TestSanitizeTruncates(t *testing.T) {
	in := strings.Repeat("a", MaxContextLength+500)
	got := Sanitize(in)
	if len(got) != MaxContextLength+3 {
		t.Errorf("len = %d, want %d", len(got), MaxContextLength+3)
	}
	if !strings.HasSuffix(got, "...") {
		t.Error("truncated context should end with ...")
	}
}

func TestSanitizeTruncatesOnRuneBoundary(t *testing.T) {
	// Place a multi-byte rune across the cutoff so a byte slice would
	// split it.
	in := strings.Repeat("a", MaxContextLength-1) + strings.Repeat("é", 300)
	got := Sanitize(in)
	if !utf8.ValidString(got) {
		t.Error("truncated context contains invalid UTF-8")
	}
	if !strings.HasSuffix(got, "...") {
		t.Error("truncated context should end with ...")
	}
	if len(got) > MaxContextLength+3 {
		t.Errorf("len = %d, want at most %d", len(got), MaxContextLength+3)
	}
}

func TestSanitizeUnderLimitUntouched(t *testing.T) {
	in := strings.Repeat("b", MaxContextLength)
	if got := Sanitize(in); got != in {
		t.Error("context at the limit should not be truncated")
	}
}
