package violation

import (
	"fmt"
	"strings"
)

// Category classifies what kind of compliance problem a finding represents.
type Category string

const (
	CategoryPII             Category = "PII"
	CategorySecurity        Category = "Security"
	CategoryDataSharing     Category = "DataSharing"
	CategoryRegulatory      Category = "Regulatory"
	CategoryPolicyViolation Category = "PolicyViolation"
	CategorySecurityBreach  Category = "SecurityBreach"
	CategoryComplianceIssue Category = "ComplianceIssue"
	CategoryDataLeak        Category = "DataLeak"
)

// Severity represents the impact level of a violation.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Rank returns the position of the severity in the total order
// low < medium < high < critical. Unknown severities rank below low.
func (s Severity) Rank() int {
	switch s {
	case SeverityLow:
		return 1
	case SeverityMedium:
		return 2
	case SeverityHigh:
		return 3
	case SeverityCritical:
		return 4
	default:
		return 0
	}
}

// IsValid reports whether the severity is one of the four known values.
func (s Severity) IsValid() bool {
	return s.Rank() > 0
}

// ParseSeverity maps a free-form severity string to the closed severity set,
// defaulting to medium for anything unrecognized.
func ParseSeverity(value string) Severity {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "low":
		return SeverityLow
	case "medium", "moderate":
		return SeverityMedium
	case "high":
		return SeverityHigh
	case "critical":
		return SeverityCritical
	default:
		return SeverityMedium
	}
}

// Stage identifies the detector that produced a violation.
type Stage string

const (
	StageRegexScanning      Stage = "regex_scanning"
	StageNERAnalysis        Stage = "ner_analysis"
	StageConfigLinting      Stage = "config_linting"
	StageRegulatoryAnalysis Stage = "regulatory_analysis"
	StageLLMAnalysis        Stage = "llm_analysis"
)

// Span is a half-open character offset range [Start, End) into the analyzed text.
type Span struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Violation is the single unifying finding record produced by every stage.
type Violation struct {
	Category        Category `json:"category"`
	Issue           string   `json:"issue"`
	Recommendation  string   `json:"recommendation,omitempty"`
	Severity        Severity `json:"severity"`
	MatchedContent  string   `json:"matched_content,omitempty"`
	Span            *Span    `json:"span,omitempty"`
	LineNumber      int      `json:"line_number,omitempty"`
	ConfidenceScore float64  `json:"confidence_score"`
	SourceStage     Stage    `json:"source_stage"`

	// Stage-specific annotations.
	Regulation    string `json:"regulation,omitempty"`
	EntityType    string `json:"entity_type,omitempty"`
	ConfigDialect string `json:"config_dialect,omitempty"`
	RuleName      string `json:"rule_name,omitempty"`
}

// Validate checks the structural invariants every violation must satisfy.
// textLen bounds the span check; pass a negative value to skip it.
func (v *Violation) Validate(textLen int) error {
	if v.Issue == "" {
		return fmt.Errorf("violation has empty issue")
	}
	if !v.Severity.IsValid() {
		return fmt.Errorf("violation has invalid severity %q", v.Severity)
	}
	if v.ConfidenceScore < 0.0 || v.ConfidenceScore > 1.0 {
		return fmt.Errorf("confidence score %f out of range [0, 1]", v.ConfidenceScore)
	}
	if v.SourceStage == "" {
		return fmt.Errorf("violation has empty source stage")
	}
	if v.Span != nil {
		if v.Span.Start < 0 || v.Span.End < v.Span.Start {
			return fmt.Errorf("invalid span [%d, %d)", v.Span.Start, v.Span.End)
		}
		if textLen >= 0 && v.Span.End > textLen {
			return fmt.Errorf("span [%d, %d) exceeds text length %d", v.Span.Start, v.Span.End, textLen)
		}
	}
	if v.LineNumber < 0 {
		return fmt.Errorf("invalid line number %d", v.LineNumber)
	}
	return nil
}

// categoryAliases reconciles the spellings each stage and the language model
// use for categories onto the closed Category set.
var categoryAliases = map[string]Category{
	"pii":               CategoryPII,
	"personal data":     CategoryPII,
	"security":          CategorySecurity,
	"security breach":   CategorySecurityBreach,
	"security_breach":   CategorySecurityBreach,
	"securitybreach":    CategorySecurityBreach,
	"data sharing":      CategoryDataSharing,
	"data_sharing":      CategoryDataSharing,
	"datasharing":       CategoryDataSharing,
	"regulatory":        CategoryRegulatory,
	"compliance":        CategoryComplianceIssue,
	"compliance issue":  CategoryComplianceIssue,
	"compliance_issue":  CategoryComplianceIssue,
	"complianceissue":   CategoryComplianceIssue,
	"policy violation":  CategoryPolicyViolation,
	"policy_violation":  CategoryPolicyViolation,
	"policyviolation":   CategoryPolicyViolation,
	"data leak":         CategoryDataLeak,
	"data_leak":         CategoryDataLeak,
	"dataleak":          CategoryDataLeak,
	"gdpr":              CategoryRegulatory,
	"hipaa":             CategoryRegulatory,
	"pci-dss":           CategoryRegulatory,
	"pci_dss":           CategoryRegulatory,
	"soc2":              CategoryRegulatory,
	"sox":               CategoryRegulatory,
	"ccpa":              CategoryRegulatory,
	"iso27001":          CategoryRegulatory,
	"nist":              CategoryRegulatory,
}

// NormalizeCategory maps a stage- or model-native category name onto the
// unified Category set. Unknown names fall back to PolicyViolation rather
// than leaking differently-spelled categories past the pipeline boundary.
func NormalizeCategory(raw string) Category {
	if c, ok := categoryAliases[strings.ToLower(strings.TrimSpace(raw))]; ok {
		return c
	}
	return CategoryPolicyViolation
}
