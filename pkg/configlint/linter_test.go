package configlint

import (
	"testing"

	"github.com/autoproof/autoproof/pkg/logger"
	"github.com/autoproof/autoproof/pkg/violation"
)

func newTestLinter() *Linter {
	return NewLinter(logger.NewNopLogger())
}

func TestDetectDialect(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		expected Dialect
	}{
		{"kubernetes manifest", "apiVersion: v1\nkind: Pod\nspec:\n  containers: []", DialectKubernetes},
		{"kubernetes security context", "runAsNonRoot: false", DialectKubernetes},
		{"dockerfile", "FROM ubuntu:latest\nRUN apt-get update", DialectDocker},
		{"terraform", `resource "aws_db_instance" "db" {\n}`, DialectTerraform},
		{"env file", "API_KEY=abc123\nDEBUG=true", DialectEnv},
		{"json object", `{"key": "value"}`, DialectJSON},
		{"plain yaml", "- item\nsome-key: value", DialectYAML},
		{"prose", "hello there general text", DialectUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DetectDialect(tt.text); got != tt.expected {
				t.Errorf("DetectDialect = %s, want %s", got, tt.expected)
			}
		})
	}
}

func TestLintKubernetesRunAsRoot(t *testing.T) {
	violations := newTestLinter().Lint("runAsNonRoot: false")

	if len(violations) != 1 {
		t.Fatalf("expected 1 violation, got %d: %+v", len(violations), violations)
	}

	v := violations[0]
	if v.Severity != violation.SeverityHigh {
		t.Errorf("severity = %s, want high", v.Severity)
	}
	if v.LineNumber != 1 {
		t.Errorf("line_number = %d, want 1", v.LineNumber)
	}
	if v.ConfigDialect != string(DialectKubernetes) {
		t.Errorf("dialect = %s, want kubernetes", v.ConfigDialect)
	}
	if v.ConfidenceScore != 0.9 {
		t.Errorf("confidence = %f, want 0.9", v.ConfidenceScore)
	}
}

func TestLintKubernetesPrivileged(t *testing.T) {
	manifest := "apiVersion: v1\nkind: Pod\nspec:\n  securityContext:\n    privileged: true\n"
	violations := newTestLinter().Lint(manifest)

	var found *violation.Violation
	for i := range violations {
		if violations[i].RuleName == "privileged_container" {
			found = &violations[i]
		}
	}
	if found == nil {
		t.Fatalf("expected privileged_container violation, got %+v", violations)
	}
	if found.Severity != violation.SeverityCritical {
		t.Errorf("severity = %s, want critical", found.Severity)
	}
	if found.LineNumber != 5 {
		t.Errorf("line_number = %d, want 5", found.LineNumber)
	}
}

func TestLintDockerfile(t *testing.T) {
	dockerfile := "FROM ubuntu:latest\nUSER root\nRUN make\n"
	violations := newTestLinter().Lint(dockerfile)

	rules := make(map[string]bool)
	for _, v := range violations {
		rules[v.RuleName] = true
	}

	for _, want := range []string{"latest_tag", "root_user", "no_healthcheck"} {
		if !rules[want] {
			t.Errorf("missing %s violation, got %v", want, rules)
		}
	}
}

func TestLintDockerfileWithHealthcheck(t *testing.T) {
	dockerfile := "FROM alpine:3.20\nHEALTHCHECK CMD curl -f http://localhost/ || exit 1\n"
	for _, v := range newTestLinter().Lint(dockerfile) {
		if v.RuleName == "no_healthcheck" {
			t.Errorf("no_healthcheck reported despite HEALTHCHECK directive")
		}
	}
}

func TestLintEnvFile(t *testing.T) {
	violations := newTestLinter().Lint("API_KEY=supersecret123\nDEBUG=true\n")

	var secret, debug bool
	for _, v := range violations {
		switch v.RuleName {
		case "hardcoded_secret":
			secret = true
			if v.Severity != violation.SeverityCritical {
				t.Errorf("hardcoded_secret severity = %s, want critical", v.Severity)
			}
		case "debug_enabled":
			debug = true
		}
	}
	if !secret || !debug {
		t.Errorf("expected hardcoded_secret and debug_enabled, got %+v", violations)
	}
}

func TestLintJSONTreeSecrets(t *testing.T) {
	text := `{"stripe": "sk_ABCDEFGHIJKLMNOPQRSTUVWX", "nested": {"aws": "AKIA1234567890ABCDEF"}}`
	violations := newTestLinter().Lint(text)

	if len(violations) < 2 {
		t.Fatalf("expected secrets from both tree leaves, got %+v", violations)
	}
	for _, v := range violations {
		if v.Severity != violation.SeverityCritical {
			t.Errorf("tree secret severity = %s, want critical", v.Severity)
		}
		if v.LineNumber != 0 {
			t.Errorf("tree secrets carry no line number, got %d", v.LineNumber)
		}
	}
}

func TestLintMalformedJSONSwallowed(t *testing.T) {
	violations := newTestLinter().Lint(`{"unterminated": `)
	if len(violations) != 0 {
		t.Errorf("parse failure must produce an empty result, got %+v", violations)
	}
}

func TestSummarize(t *testing.T) {
	violations := newTestLinter().Lint("runAsNonRoot: false\nprivileged: true\n")
	summary := Summarize(violations)

	if summary.TotalViolations != len(violations) {
		t.Errorf("total = %d, want %d", summary.TotalViolations, len(violations))
	}
	if summary.ByDialect[string(DialectKubernetes)] != len(violations) {
		t.Errorf("by_config_type = %v", summary.ByDialect)
	}
	if summary.CriticalCount != 1 || summary.HighCount != 1 {
		t.Errorf("critical = %d, high = %d", summary.CriticalCount, summary.HighCount)
	}
}
