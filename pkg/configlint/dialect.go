package configlint

import (
	"regexp"
	"strings"
)

// Dialect identifies the configuration format the linter believes it is
// looking at.
type Dialect string

const (
	DialectKubernetes Dialect = "kubernetes"
	DialectDocker     Dialect = "docker"
	DialectTerraform  Dialect = "terraform"
	DialectEnv        Dialect = "env"
	DialectJSON       Dialect = "json"
	DialectYAML       Dialect = "yaml"
	DialectUnknown    Dialect = "unknown"
)

// Keyword sets for dialect sniffing. All matching is done against the
// lowercased text, so keywords are lowercase.
var (
	kubernetesKeywords = []string{
		"apiversion:",
		"kind:",
		"metadata:",
		"spec:",
		"containers:",
		"securitycontext:",
		"runasnonroot",
		"privileged:",
		"hostnetwork:",
	}

	dockerKeywords = []string{
		"from ",
		"run ",
		"copy ",
		"add ",
		"cmd ",
		"entrypoint ",
		"healthcheck",
		"workdir ",
		"expose ",
	}

	terraformKeywords = []string{
		"terraform {",
		"resource \"",
		"provider \"",
		"variable \"",
		"output \"",
	}
)

var (
	envLinePattern  = regexp.MustCompile(`(?m)^\w+\s*=`)
	yamlLinePattern = regexp.MustCompile(`(?m)^\s*[\w-]+:`)
)

// DetectDialect classifies configuration text with ordered keyword
// heuristics. Kubernetes is checked before the generic YAML shape because
// every manifest is also valid YAML.
func DetectDialect(text string) Dialect {
	lower := strings.ToLower(text)

	if containsAny(lower, kubernetesKeywords) {
		return DialectKubernetes
	}
	if containsAny(lower, dockerKeywords) {
		return DialectDocker
	}
	if containsAny(lower, terraformKeywords) {
		return DialectTerraform
	}
	if envLinePattern.MatchString(text) {
		return DialectEnv
	}

	trimmed := strings.TrimSpace(text)
	if strings.HasPrefix(trimmed, "{") || strings.HasPrefix(trimmed, "[") {
		return DialectJSON
	}
	if yamlLinePattern.MatchString(text) {
		return DialectYAML
	}
	return DialectUnknown
}

func containsAny(text string, keywords []string) bool {
	for _, keyword := range keywords {
		if strings.Contains(text, keyword) {
			return true
		}
	}
	return false
}
