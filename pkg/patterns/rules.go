package patterns

import (
	"regexp"

	"github.com/autoproof/autoproof/pkg/violation"
)

// Rule is one named, independently compiled detection rule. Confidence is a
// fixed per-rule constant; a rule that fails to compile is a configuration
// bug, so patterns are compiled with MustCompile at registration time.
type Rule struct {
	Name           string
	Category       violation.Category
	Severity       violation.Severity
	Confidence     float64
	Issue          string
	Recommendation string
	Pattern        *regexp.Regexp

	// CodeOnly rules are applied only when the content source indicates a
	// code/config-like origin (github, gitlab, manual).
	CodeOnly bool
}

// unapprovedSharingDomains are file-sharing services outside the approved set.
var unapprovedSharingDomains = []string{
	`dropbox\.com`,
	`wetransfer\.com`,
	`sendspace\.com`,
	`mediafire\.com`,
	`mega\.nz`,
	`4shared\.com`,
	`rapidshare\.com`,
	`filefactory\.com`,
	`uploaded\.net`,
	`turbobit\.net`,
}

func unapprovedSharingPattern() *regexp.Regexp {
	expr := `(?i)https?://(` + joinAlternatives(unapprovedSharingDomains) + `)[^\s]*`
	return regexp.MustCompile(expr)
}

func joinAlternatives(parts []string) string {
	out := ""
	for i, p := range parts {
		if i > 0 {
			out += "|"
		}
		out += p
	}
	return out
}

// builtinRules returns the built-in rule table. PII, unauthorized-sharing,
// and secret-key rules always run; security misconfiguration rules are
// CodeOnly.
func builtinRules() []Rule {
	rules := []Rule{
		// PII rules.
		{
			Name:           "ssn",
			Category:       violation.CategoryPII,
			Severity:       violation.SeverityHigh,
			Confidence:     0.95,
			Issue:          "Social Security Number (SSN) detected",
			Recommendation: "Remove or redact SSN. Use environment variables or secure storage for sensitive identifiers.",
			Pattern:        regexp.MustCompile(`\b\d{3}-\d{2}-\d{4}\b`),
		},
		{
			Name:           "credit_card",
			Category:       violation.CategoryPII,
			Severity:       violation.SeverityCritical,
			Confidence:     0.9,
			Issue:          "Credit card number detected",
			Recommendation: "Remove credit card information. Use PCI-compliant payment processors for handling payment data.",
			Pattern:        regexp.MustCompile(`\b\d{4}[- ]?\d{4}[- ]?\d{4}[- ]?\d{4}\b`),
		},
		{
			Name:           "email",
			Category:       violation.CategoryPII,
			Severity:       violation.SeverityMedium,
			Confidence:     0.8,
			Issue:          "Email address detected",
			Recommendation: "Consider if email addresses need to be exposed. Use generic placeholders in examples.",
			Pattern:        regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`),
		},
		{
			Name:           "phone_number",
			Category:       violation.CategoryPII,
			Severity:       violation.SeverityMedium,
			Confidence:     0.8,
			Issue:          "Phone number detected",
			Recommendation: "Remove or redact phone numbers. Use placeholder values in documentation.",
			Pattern:        regexp.MustCompile(`\b(\+\d{1,3}[- ]?)?\(?\d{3}\)?[- ]?\d{3}[- ]?\d{4}\b`),
		},
		{
			Name:           "ip_address",
			Category:       violation.CategoryPII,
			Severity:       violation.SeverityMedium,
			Confidence:     0.7,
			Issue:          "IP address detected",
			Recommendation: "Remove or redact IP addresses. Use placeholder IPs (e.g., 192.168.1.1) in examples.",
			Pattern:        regexp.MustCompile(`\b\d{1,3}\.\d{1,3}\.\d{1,3}\.\d{1,3}\b`),
		},
		{
			Name:           "mac_address",
			Category:       violation.CategoryPII,
			Severity:       violation.SeverityMedium,
			Confidence:     0.7,
			Issue:          "MAC address detected",
			Recommendation: "Remove or redact MAC addresses. Use placeholder MACs in examples.",
			Pattern:        regexp.MustCompile(`\b([0-9A-Fa-f]{2}[:-]){5}([0-9A-Fa-f]{2})\b`),
		},

		// Unauthorized data sharing.
		{
			Name:           "unapproved_sharing",
			Category:       violation.CategoryDataSharing,
			Severity:       violation.SeverityHigh,
			Confidence:     0.9,
			Issue:          "Unauthorized data sharing via unapproved service",
			Recommendation: "Use approved enterprise storage solutions. Contact IT for approved alternatives.",
			Pattern:        unapprovedSharingPattern(),
		},

		// Security misconfigurations (code/config sources only).
		{
			Name:           "insecure_http",
			Category:       violation.CategorySecurity,
			Severity:       violation.SeverityHigh,
			Confidence:     0.9,
			Issue:          "Insecure HTTP URL detected",
			Recommendation: "Use HTTPS instead of HTTP for all web communications. HTTP transmits data in plain text.",
			Pattern:        regexp.MustCompile(`(?i)http://[^\s]+`),
			CodeOnly:       true,
		},
		{
			Name:           "mfa_disabled",
			Category:       violation.CategorySecurity,
			Severity:       violation.SeverityHigh,
			Confidence:     0.85,
			Issue:          "Multi-factor authentication disabled or not configured",
			Recommendation: "Enable multi-factor authentication (MFA/2FA) for all user accounts and administrative access.",
			Pattern:        regexp.MustCompile(`(?i)\b(no mfa|2fa disabled|two factor disabled|multifactor disabled)\b`),
			CodeOnly:       true,
		},
		{
			Name:           "root_user",
			Category:       violation.CategorySecurity,
			Severity:       violation.SeverityHigh,
			Confidence:     0.9,
			Issue:          "Container or process configured to run as root user",
			Recommendation: "Configure containers and processes to run as non-root users. Use runAsNonRoot: true in Kubernetes.",
			Pattern:        regexp.MustCompile(`(?i)\b(runAsNonRoot:\s*false|run_as_root|root user)\b`),
			CodeOnly:       true,
		},
		{
			Name:           "hardcoded_password",
			Category:       violation.CategorySecurity,
			Severity:       violation.SeverityCritical,
			Confidence:     0.95,
			Issue:          "Hardcoded password or credential detected",
			Recommendation: "Remove hardcoded credentials. Use environment variables, secrets management, or secure credential stores.",
			Pattern:        regexp.MustCompile(`(?i)\b(password|passwd|pwd)\s*[:=]\s*['"]?\w+['"]?`),
			CodeOnly:       true,
		},
		{
			Name:           "debug_mode",
			Category:       violation.CategorySecurity,
			Severity:       violation.SeverityMedium,
			Confidence:     0.8,
			Issue:          "Debug mode enabled in production configuration",
			Recommendation: "Disable debug mode in production environments. Debug mode can expose sensitive information.",
			Pattern:        regexp.MustCompile(`(?i)\b(debug:\s*true|debug_mode|development mode)\b`),
			CodeOnly:       true,
		},
	}

	// Secret and API key formats. All share the same issue text and severity.
	// Unlike the misconfiguration rules these run for every source: a leaked
	// key pasted into a chat channel is as dangerous as one committed to a
	// repo.
	secretPatterns := []struct {
		name string
		expr string
	}{
		{"stripe_secret_key", `(?i)sk_(live|test)_[0-9a-zA-Z]{16,}`},
		{"stripe_publishable_key", `(?i)pk_(live|test)_[0-9a-zA-Z]{16,}`},
		{"aws_access_key", `AKIA[0-9A-Z]{16}`},
		{"aws_session_key", `ASIA[0-9A-Z]{16}`},
		{"aws_secret_key", `(?i)aws_secret_access_key\s*[=:]\s*[0-9a-zA-Z/+]{40}`},
		{"google_api_key", `AIza[0-9A-Za-z\-_]{35}`},
		{"github_token", `ghp_[0-9A-Za-z]{36,}`},
		{"slack_token", `xox[baprs]-[0-9a-zA-Z-]{10,}`},
		{"jwt_token", `eyJ[A-Za-z0-9\-_]+\.[A-Za-z0-9\-_]+\.[A-Za-z0-9\-_]+`},
		{"generic_secret", `(?i)(secret|api[_-]?key|token|access[_-]?key|private[_-]?key)\s*[=:]\s*[0-9a-zA-Z\-/_\+]{8,}`},
	}

	for _, sp := range secretPatterns {
		rules = append(rules, Rule{
			Name:           sp.name,
			Category:       violation.CategorySecurity,
			Severity:       violation.SeverityCritical,
			Confidence:     0.99,
			Issue:          "Secret/API key detected",
			Recommendation: "Remove secrets/API keys from code and logs. Use environment variables or secret managers.",
			Pattern:        regexp.MustCompile(sp.expr),
		})
	}

	return rules
}
