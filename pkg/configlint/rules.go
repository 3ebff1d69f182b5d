package configlint

import (
	"regexp"

	"github.com/autoproof/autoproof/pkg/violation"
)

// lintConfidence is the fixed confidence of every line-based dialect rule.
const lintConfidence = 0.9

// Rule is one dialect-specific misconfiguration check, matched per line.
type Rule struct {
	Name           string
	Pattern        *regexp.Regexp
	Issue          string
	Recommendation string
	Severity       violation.Severity
}

var kubernetesRules = []Rule{
	{
		Name:           "run_as_root",
		Pattern:        regexp.MustCompile(`(?i)runAsNonRoot:\s*false`),
		Issue:          "Container configured to run as root user",
		Recommendation: "Set runAsNonRoot: true to prevent containers from running as root",
		Severity:       violation.SeverityHigh,
	},
	{
		Name:           "privileged_container",
		Pattern:        regexp.MustCompile(`(?i)privileged:\s*true`),
		Issue:          "Container running in privileged mode",
		Recommendation: "Avoid privileged containers. Use specific capabilities instead",
		Severity:       violation.SeverityCritical,
	},
	{
		Name:           "host_network",
		Pattern:        regexp.MustCompile(`(?i)hostNetwork:\s*true`),
		Issue:          "Container using host network",
		Recommendation: "Avoid hostNetwork. Use service networking instead",
		Severity:       violation.SeverityHigh,
	},
	{
		Name:           "host_pid",
		Pattern:        regexp.MustCompile(`(?i)hostPID:\s*true`),
		Issue:          "Container using host PID namespace",
		Recommendation: "Avoid hostPID. Use container PID namespace",
		Severity:       violation.SeverityHigh,
	},
	{
		Name:           "host_volume",
		Pattern:        regexp.MustCompile(`(?i)hostPath:`),
		Issue:          "Host path volume mounted",
		Recommendation: "Avoid hostPath volumes. Use persistent volumes instead",
		Severity:       violation.SeverityMedium,
	},
	{
		Name:           "no_resource_limits",
		Pattern:        regexp.MustCompile(`(?i)resources:\s*{}`),
		Issue:          "No resource limits defined",
		Recommendation: "Define resource requests and limits for all containers",
		Severity:       violation.SeverityMedium,
	},
}

var dockerRules = []Rule{
	{
		Name:           "root_user",
		Pattern:        regexp.MustCompile(`(?i)USER\s+root`),
		Issue:          "Dockerfile runs as root user",
		Recommendation: "Use non-root user in Dockerfile. Add USER directive",
		Severity:       violation.SeverityHigh,
	},
	{
		Name:           "latest_tag",
		Pattern:        regexp.MustCompile(`(?i)FROM\s+.*:latest`),
		Issue:          "Using 'latest' tag in Dockerfile",
		Recommendation: "Use specific version tags instead of 'latest'",
		Severity:       violation.SeverityMedium,
	},
}

// healthcheckDirective detects the presence of a HEALTHCHECK instruction.
// Its absence anywhere in the Dockerfile is a file-level finding rather
// than a per-line match.
var healthcheckDirective = regexp.MustCompile(`(?im)^\s*HEALTHCHECK\b`)

var terraformRules = []Rule{
	{
		Name:           "public_access",
		Pattern:        regexp.MustCompile(`(?i)publicly_accessible\s*=\s*true`),
		Issue:          "Resource configured for public access",
		Recommendation: "Set publicly_accessible = false unless required",
		Severity:       violation.SeverityHigh,
	},
	{
		Name:           "encryption_disabled",
		Pattern:        regexp.MustCompile(`(?i)encrypted\s*=\s*false`),
		Issue:          "Encryption disabled on resource",
		Recommendation: "Enable encryption for all storage resources",
		Severity:       violation.SeverityCritical,
	},
	{
		Name:           "no_logging",
		Pattern:        regexp.MustCompile(`(?i)logging\s*{\s*}`),
		Issue:          "No logging configuration",
		Recommendation: "Configure comprehensive logging for security monitoring",
		Severity:       violation.SeverityMedium,
	},
}

var envRules = []Rule{
	{
		Name:           "hardcoded_secret",
		Pattern:        regexp.MustCompile(`(?i)(API_KEY|SECRET|PASSWORD|TOKEN)\s*=\s*['"]?\w+['"]?`),
		Issue:          "Hardcoded secret in environment variable",
		Recommendation: "Use environment variables or secrets management instead of hardcoded values",
		Severity:       violation.SeverityCritical,
	},
	{
		Name:           "debug_enabled",
		Pattern:        regexp.MustCompile(`(?i)DEBUG\s*=\s*true`),
		Issue:          "Debug mode enabled",
		Recommendation: "Disable debug mode in production environments",
		Severity:       violation.SeverityMedium,
	},
}

// rulesFor returns the line-based rule table for a dialect, or nil when the
// dialect is covered by the tree walk instead.
func rulesFor(dialect Dialect) []Rule {
	switch dialect {
	case DialectKubernetes:
		return kubernetesRules
	case DialectDocker:
		return dockerRules
	case DialectTerraform:
		return terraformRules
	case DialectEnv:
		return envRules
	default:
		return nil
	}
}

// secretShape is one pattern applied to string leaves of parsed JSON/YAML.
type secretShape struct {
	pattern     *regexp.Regexp
	description string
}

// Patterns are anchored: a leaf counts only when it starts with the
// secret-shaped prefix.
var secretShapes = []secretShape{
	{regexp.MustCompile(`^sk_[a-zA-Z0-9]{24}`), "Stripe secret key"},
	{regexp.MustCompile(`^AKIA[A-Z0-9]{16}`), "AWS access key"},
	{regexp.MustCompile(`^[a-zA-Z0-9]{32,}`), "Long string (potential secret)"},
}
