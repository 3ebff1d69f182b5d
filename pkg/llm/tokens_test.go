package llm

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestEstimateTokens(t *testing.T) {
	tests := []struct {
		text string
		want int
	}{
		{"", 0},
		{"abc", 0},
		{"abcd", 1},
		{strings.Repeat("x", 400), 100},
	}
	for _, tt := range tests {
		if got := EstimateTokens(tt.text); got != tt.want {
			t.Errorf("EstimateTokens(%q) = %d, want %d", tt.text, got, tt.want)
		}
	}
}

func TestTruncateToBudgetPassthrough(t *testing.T) {
	text := strings.Repeat("a", 40)
	if got := TruncateToBudget(text, 10); got != text {
		t.Errorf("text within budget must pass through unchanged")
	}
}

func TestTruncateToBudgetCutsAndMarks(t *testing.T) {
	text := strings.Repeat("a", 100)
	got := TruncateToBudget(text, 10)

	if !strings.HasSuffix(got, truncationMarker) {
		t.Errorf("truncated text missing marker: %q", got)
	}
	if len(got) != 40+len(truncationMarker) {
		t.Errorf("truncated to %d bytes, want %d", len(got), 40+len(truncationMarker))
	}
}

func TestTruncateToBudgetRespectsUTF8(t *testing.T) {
	// Multi-byte runes sitting on the cut boundary must not be split.
	text := strings.Repeat("é", 100)
	got := TruncateToBudget(text, 10)

	if !utf8.ValidString(got) {
		t.Errorf("truncation produced invalid UTF-8: %q", got)
	}
}
