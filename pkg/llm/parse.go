package llm

import (
	"encoding/json"
	"strings"

	"github.com/autoproof/autoproof/pkg/violation"
)

// syntheticConfidence is assigned to a free-text reply wrapped as a single
// violation.
const syntheticConfidence = 0.8

// defaultLLMConfidence is used when a model omits the confidence field.
const defaultLLMConfidence = 0.7

// rawViolation is the shape models are asked to emit. Field names tolerate
// the common variants models actually produce.
type rawViolation struct {
	Type            string          `json:"type"`
	Title           string          `json:"title"`
	Issue           string          `json:"issue"`
	Description     string          `json:"description"`
	Recommendation  string          `json:"recommendation"`
	Severity        string          `json:"severity"`
	MatchedContent  string          `json:"matched_content"`
	Span            *violation.Span `json:"span"`
	ConfidenceScore float64         `json:"confidence_score"`
	Confidence      float64         `json:"confidence"`
}

// StripFences removes markdown code fencing and a leading "json" tag from a
// model reply.
func StripFences(content string) string {
	content = strings.TrimSpace(content)
	if strings.HasPrefix(content, "```json") {
		content = content[len("```json"):]
	}
	if strings.HasPrefix(content, "```") {
		content = content[3:]
	}
	if strings.HasSuffix(content, "```") {
		content = content[:len(content)-3]
	}
	content = strings.TrimSpace(content)
	if len(content) >= 4 && strings.EqualFold(content[:4], "json") {
		content = strings.TrimSpace(content[4:])
	}
	return content
}

// ParseReply converts a model reply into violations. An empty reply or one
// matching a "no violation" phrasing yields an empty list. A reply that is
// neither JSON nor a "no violation" phrasing is wrapped as a single
// synthetic violation so ambiguous model output surfaces instead of being
// dropped.
func ParseReply(content string) []violation.Violation {
	content = StripFences(content)
	if content == "" {
		return []violation.Violation{}
	}

	var raw []rawViolation
	if err := json.Unmarshal([]byte(content), &raw); err == nil {
		violations := make([]violation.Violation, 0, len(raw))
		for _, r := range raw {
			violations = append(violations, r.toViolation())
		}
		return violations
	}

	if IndicatesNoViolation(content) {
		return []violation.Violation{}
	}

	return []violation.Violation{{
		Category:        violation.CategoryComplianceIssue,
		Issue:           "AI Compliance Analysis",
		Recommendation:  content,
		Severity:        violation.SeverityHigh,
		ConfidenceScore: syntheticConfidence,
		SourceStage:     violation.StageLLMAnalysis,
	}}
}

func (r rawViolation) toViolation() violation.Violation {
	issue := r.Issue
	if issue == "" {
		issue = r.Title
	}
	if issue == "" {
		issue = r.Description
	}
	if issue == "" {
		issue = "AI Compliance Analysis"
	}

	recommendation := r.Recommendation
	if recommendation == "" && r.Issue != "" && r.Description != "" {
		recommendation = r.Description
	}

	confidence := r.ConfidenceScore
	if confidence == 0 {
		confidence = r.Confidence
	}
	if confidence <= 0 || confidence > 1 {
		confidence = defaultLLMConfidence
	}

	return violation.Violation{
		Category:        violation.NormalizeCategory(r.Type),
		Issue:           issue,
		Recommendation:  recommendation,
		Severity:        violation.ParseSeverity(r.Severity),
		MatchedContent:  r.MatchedContent,
		Span:            r.Span,
		ConfidenceScore: confidence,
		SourceStage:     violation.StageLLMAnalysis,
	}
}
