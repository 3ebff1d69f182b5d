package patterns

import (
	"strings"

	"github.com/autoproof/autoproof/pkg/logger"
	"github.com/autoproof/autoproof/pkg/violation"
)

// codeSources are content origins treated as code/config-like. Security
// misconfiguration rules only apply to these.
var codeSources = map[string]bool{
	"github": true,
	"gitlab": true,
	"manual": true,
}

// IsCodeSource reports whether the given source tag indicates a code or
// config-like origin.
func IsCodeSource(source string) bool {
	return codeSources[strings.ToLower(source)]
}

// Matcher scans raw text against a registry of named regex rules. Scanning is
// a pure function of the input: no state is mutated per scan.
type Matcher struct {
	rules  []Rule
	logger *logger.Logger
}

// NewMatcher creates a matcher with the built-in rule table.
func NewMatcher(log *logger.Logger) *Matcher {
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &Matcher{
		rules:  builtinRules(),
		logger: log.WithField("stage", violation.StageRegexScanning),
	}
}

// Register adds a custom rule to the registry.
func (m *Matcher) Register(rule Rule) {
	m.rules = append(m.rules, rule)
}

// Rules returns the registered rule table.
func (m *Matcher) Rules() []Rule {
	return m.rules
}

// Scan runs every applicable rule against text and returns one violation per
// non-overlapping match, with span offsets and the literal matched content.
func (m *Matcher) Scan(text, source string) []violation.Violation {
	violations := []violation.Violation{}
	codeLike := IsCodeSource(source)

	for i := range m.rules {
		rule := &m.rules[i]
		if rule.CodeOnly && !codeLike {
			continue
		}

		for _, loc := range rule.Pattern.FindAllStringIndex(text, -1) {
			start, end := loc[0], loc[1]
			matched := text[start:end]

			violations = append(violations, violation.Violation{
				Category:        rule.Category,
				Issue:           m.issueFor(rule, matched),
				Recommendation:  m.recommendationFor(rule, matched),
				Severity:        rule.Severity,
				MatchedContent:  matched,
				Span:            &violation.Span{Start: start, End: end},
				ConfidenceScore: rule.Confidence,
				SourceStage:     violation.StageRegexScanning,
				RuleName:        rule.Name,
			})
		}
	}

	m.logger.Debug("pattern scan complete: %d violations across %d rules", len(violations), len(m.rules))
	return violations
}

// issueFor customizes the issue text for rules whose message names the match.
func (m *Matcher) issueFor(rule *Rule, matched string) string {
	if rule.Name == "unapproved_sharing" {
		if domain := sharingDomain(matched); domain != "" {
			return "Unauthorized data sharing via " + domain
		}
	}
	return rule.Issue
}

func (m *Matcher) recommendationFor(rule *Rule, matched string) string {
	if rule.Name == "unapproved_sharing" {
		if domain := sharingDomain(matched); domain != "" {
			return "Use approved enterprise storage solutions instead of " + domain + ". Contact IT for approved alternatives."
		}
	}
	return rule.Recommendation
}

// sharingDomain extracts the host portion of an unapproved sharing URL.
func sharingDomain(url string) string {
	trimmed := strings.TrimPrefix(strings.TrimPrefix(strings.ToLower(url), "https://"), "http://")
	if idx := strings.IndexAny(trimmed, "/?#"); idx >= 0 {
		trimmed = trimmed[:idx]
	}
	return trimmed
}

// Summary aggregates pattern-stage violations by category and severity.
type Summary struct {
	TotalViolations int            `json:"total_violations"`
	ByCategory      map[string]int `json:"by_category"`
	BySeverity      map[string]int `json:"by_severity"`
	CriticalCount   int            `json:"critical_count"`
	HighCount       int            `json:"high_count"`
	MediumCount     int            `json:"medium_count"`
	LowCount        int            `json:"low_count"`
}

// Summarize builds a summary of a pattern scan's findings.
func Summarize(violations []violation.Violation) *Summary {
	summary := &Summary{
		TotalViolations: len(violations),
		ByCategory:      make(map[string]int),
		BySeverity:      make(map[string]int),
	}

	for _, v := range violations {
		summary.ByCategory[string(v.Category)]++
		summary.BySeverity[string(v.Severity)]++

		switch v.Severity {
		case violation.SeverityCritical:
			summary.CriticalCount++
		case violation.SeverityHigh:
			summary.HighCount++
		case violation.SeverityMedium:
			summary.MediumCount++
		case violation.SeverityLow:
			summary.LowCount++
		}
	}

	return summary
}
