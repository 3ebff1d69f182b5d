package configlint

import (
	"encoding/json"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/autoproof/autoproof/pkg/logger"
	"github.com/autoproof/autoproof/pkg/violation"
)

// Linter applies dialect-specific misconfiguration rules to configuration
// text. It holds no per-call state and is safe for concurrent use.
type Linter struct {
	logger *logger.Logger
}

func NewLinter(log *logger.Logger) *Linter {
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &Linter{
		logger: log.WithField("stage", violation.StageConfigLinting),
	}
}

// Lint detects the configuration dialect of text and applies the matching
// rule set. Unknown dialects produce an empty result.
func (l *Linter) Lint(text string) []violation.Violation {
	dialect := DetectDialect(text)
	l.logger.Debug("detected config dialect: %s", dialect)

	violations := []violation.Violation{}
	switch dialect {
	case DialectKubernetes, DialectTerraform, DialectEnv:
		violations = append(violations, l.lintLines(text, dialect)...)
	case DialectDocker:
		violations = append(violations, l.lintLines(text, dialect)...)
		if v := l.checkHealthcheck(text); v != nil {
			violations = append(violations, *v)
		}
	case DialectJSON, DialectYAML:
		violations = append(violations, l.lintTree(text, dialect)...)
	}

	l.logger.Debug("config linting found %d violations", len(violations))
	return violations
}

// lintLines scans text line by line against the dialect's rule table. Each
// match produces one violation carrying its 1-based line number.
func (l *Linter) lintLines(text string, dialect Dialect) []violation.Violation {
	violations := []violation.Violation{}
	lines := strings.Split(text, "\n")

	for _, rule := range rulesFor(dialect) {
		for i, line := range lines {
			if !rule.Pattern.MatchString(line) {
				continue
			}
			violations = append(violations, violation.Violation{
				Category:        violation.CategorySecurity,
				Issue:           rule.Issue,
				Recommendation:  rule.Recommendation,
				Severity:        rule.Severity,
				MatchedContent:  strings.TrimSpace(line),
				LineNumber:      i + 1,
				ConfidenceScore: lintConfidence,
				SourceStage:     violation.StageConfigLinting,
				ConfigDialect:   string(dialect),
				RuleName:        rule.Name,
			})
		}
	}
	return violations
}

// checkHealthcheck flags Dockerfiles with no HEALTHCHECK directive at all.
// The finding applies to the whole file, so it carries no line number.
func (l *Linter) checkHealthcheck(text string) *violation.Violation {
	if healthcheckDirective.MatchString(text) {
		return nil
	}
	return &violation.Violation{
		Category:        violation.CategorySecurity,
		Issue:           "No health check defined",
		Recommendation:  "Add HEALTHCHECK directive to Dockerfile",
		Severity:        violation.SeverityLow,
		ConfidenceScore: lintConfidence,
		SourceStage:     violation.StageConfigLinting,
		ConfigDialect:   string(DialectDocker),
		RuleName:        "no_healthcheck",
	}
}

// lintTree parses JSON/YAML and walks the tree, testing string leaves
// against the secret-shaped patterns. Parse failures are logged and
// swallowed so a malformed config never aborts the stage.
func (l *Linter) lintTree(text string, dialect Dialect) []violation.Violation {
	var root interface{}
	var err error

	switch dialect {
	case DialectJSON:
		err = json.Unmarshal([]byte(text), &root)
	case DialectYAML:
		err = yaml.Unmarshal([]byte(text), &root)
	default:
		return nil
	}
	if err != nil {
		l.logger.Warn("failed to parse %s config: %v", dialect, err)
		return []violation.Violation{}
	}

	violations := []violation.Violation{}
	walkLeaves(root, func(leaf string) {
		for _, shape := range secretShapes {
			if !shape.pattern.MatchString(leaf) {
				continue
			}
			violations = append(violations, violation.Violation{
				Category:        violation.CategorySecurity,
				Issue:           "Potential " + shape.description + " in configuration",
				Recommendation:  "Remove hardcoded secrets. Use environment variables or secrets management",
				Severity:        violation.SeverityCritical,
				MatchedContent:  leaf,
				ConfidenceScore: 0.8,
				SourceStage:     violation.StageConfigLinting,
				ConfigDialect:   string(dialect),
			})
		}
	})
	return violations
}

// walkLeaves visits every string leaf of a decoded JSON/YAML tree.
func walkLeaves(node interface{}, visit func(string)) {
	switch n := node.(type) {
	case map[string]interface{}:
		for _, value := range n {
			walkLeaves(value, visit)
		}
	case map[interface{}]interface{}:
		for _, value := range n {
			walkLeaves(value, visit)
		}
	case []interface{}:
		for _, item := range n {
			walkLeaves(item, visit)
		}
	case string:
		visit(n)
	}
}

// Summary aggregates config-linting violations.
type Summary struct {
	TotalViolations int            `json:"total_config_violations"`
	ByDialect       map[string]int `json:"by_config_type"`
	BySeverity      map[string]int `json:"by_severity"`
	CriticalCount   int            `json:"critical_count"`
	HighCount       int            `json:"high_count"`
	MediumCount     int            `json:"medium_count"`
	LowCount        int            `json:"low_count"`
}

func Summarize(violations []violation.Violation) *Summary {
	summary := &Summary{
		TotalViolations: len(violations),
		ByDialect:       make(map[string]int),
		BySeverity:      make(map[string]int),
	}

	for _, v := range violations {
		dialect := v.ConfigDialect
		if dialect == "" {
			dialect = string(DialectUnknown)
		}
		summary.ByDialect[dialect]++
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
