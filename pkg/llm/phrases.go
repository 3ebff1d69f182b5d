package llm

import (
	"regexp"
	"strings"
)

// noViolationPatterns match the free-text ways models say "nothing found".
// Matched case-insensitively against the whole reply, not by exact string
// equality.
var noViolationPatterns = compilePhrases([]string{
	`no (apparent )?compliance violations`,
	`does not contain any (apparent )?compliance violations`,
	`no (apparent )?violations`,
	`does not contain any (apparent )?violations`,
	`no violations detected`,
	`no issues found`,
	`no compliance issues`,
	`no policy violations`,
	`no security violations`,
	`no problems found`,
	`no issues were found`,
	`no violation detected`,
	`there (is|are) no (apparent )?compliance violations`,
	`there (is|are) no (apparent )?violations`,
	`the text provided does not contain any (apparent )?compliance violations`,
	`the text provided does not contain any (apparent )?violations`,
	`no evidence of (apparent )?compliance violations`,
	`no evidence of (apparent )?violations`,
	`no (apparent )?violations present`,
})

func compilePhrases(patterns []string) []*regexp.Regexp {
	compiled := make([]*regexp.Regexp, 0, len(patterns))
	for _, pattern := range patterns {
		compiled = append(compiled, regexp.MustCompile(pattern))
	}
	return compiled
}

// IndicatesNoViolation reports whether a model reply is one of the known
// "nothing found" phrasings.
func IndicatesNoViolation(content string) bool {
	lower := strings.ToLower(strings.TrimSpace(content))
	if lower == "" {
		return false
	}
	for _, pattern := range noViolationPatterns {
		if pattern.MatchString(lower) {
			return true
		}
	}
	return false
}
