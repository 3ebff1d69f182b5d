package llm

import "unicode/utf8"

// DefaultPromptTokenBudget caps the estimated token size of text sent to a
// model.
const DefaultPromptTokenBudget = 4000

// truncationMarker is appended when input text gets cut to fit the budget.
const truncationMarker = "..."

// EstimateTokens approximates the token count of text. One token is roughly
// four characters for English prose and code.
func EstimateTokens(text string) int {
	return len(text) / 4
}

// TruncateToBudget returns text unchanged when it fits within maxTokens,
// otherwise cuts it at the budget boundary and appends a truncation marker.
// The cut never splits a UTF-8 sequence.
func TruncateToBudget(text string, maxTokens int) string {
	if maxTokens <= 0 {
		maxTokens = DefaultPromptTokenBudget
	}
	if EstimateTokens(text) <= maxTokens {
		return text
	}

	maxChars := maxTokens * 4
	for maxChars > 0 && !utf8.RuneStart(text[maxChars]) {
		maxChars--
	}
	return text[:maxChars] + truncationMarker
}
