package llm

import (
	"fmt"
	"strings"

	"github.com/autoproof/autoproof/pkg/regulatory"
)

// PriorContext summarizes earlier pipeline stages for the model: counts and
// labels only, never raw findings beyond what is already in the text.
type PriorContext struct {
	RegexViolations  int
	EntityViolations int
	ConfigViolations int
	Regulations      []string
	Contexts         []regulatory.Context
}

const systemPromptHeader = `You are AutoProof, an advanced compliance analysis system.

Given the text, intermediate findings from pattern matching, and regulatory context, identify specific compliance violations.

Previous analysis stages found:
- Regex patterns: %d potential violations
- NER analysis: %d entity-based violations
- Config linting: %d configuration issues
- Regulatory frameworks: %s
`

const systemPromptFooter = `
Focus on:
1. Regulatory compliance (SOC2, GDPR, HIPAA, PCI-DSS, SOX, ISO27001)
2. Security misconfigurations
3. Data protection violations
4. Privacy concerns
5. Access control issues

Return a JSON array of violation objects, each with:
- "type": violation category
- "issue": specific problem description
- "recommendation": actionable remediation steps
- "severity": "low", "medium", "high", or "critical"
- "confidence_score": 0.0-1.0 confidence level
- "matched_content": relevant text excerpt (optional)

If no violations found, return empty array [].`

// BuildMessages assembles the contextual prompt shared by the bulk and
// escalated passes.
func BuildMessages(text, source string, prior PriorContext) []Message {
	frameworks := "None detected"
	if len(prior.Regulations) > 0 {
		frameworks = strings.Join(prior.Regulations, ", ")
	}

	var system strings.Builder
	fmt.Fprintf(&system, systemPromptHeader,
		prior.RegexViolations, prior.EntityViolations, prior.ConfigViolations, frameworks)

	if len(prior.Contexts) > 0 {
		system.WriteString("\nRELEVANT REGULATORY CONTEXTS:\n")
		top := prior.Contexts
		if len(top) > 3 {
			top = top[:3]
		}
		for _, c := range top {
			fmt.Fprintf(&system, "%s - %s: %s\n%s\n", c.Regulation, c.Section, c.Title, c.Content)
		}
	}
	system.WriteString(systemPromptFooter)

	user := fmt.Sprintf("Text to analyze:\n%s\n\nSource: %s", text, source)

	return []Message{
		{Role: "system", Content: system.String()},
		{Role: "user", Content: user},
	}
}
