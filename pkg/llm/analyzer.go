package llm

import (
	"context"
	"fmt"

	"github.com/autoproof/autoproof/pkg/logger"
	"github.com/autoproof/autoproof/pkg/violation"
)

const (
	// DefaultBulkModel handles the cheap first pass.
	DefaultBulkModel = "gpt-3.5-turbo"

	// DefaultEscalatedModel is consulted only when the bulk pass finds
	// nothing.
	DefaultEscalatedModel = "gpt-4o-mini"

	defaultReplyTokens = 512
	defaultTemperature = 0.2
)

// AnalyzerConfig configures the tiered analyzer.
type AnalyzerConfig struct {
	BulkModel      string
	EscalatedModel string
	ReplyTokens    int
	Temperature    float64
	PromptBudget   int
}

// Result is the outcome of one tiered analysis.
type Result struct {
	Violations []violation.Violation `json:"violations"`
	TokenUsage int                   `json:"token_usage"`
	ModelUsed  string                `json:"model_used"`
	Escalated  bool                  `json:"escalated"`
}

// TieredAnalyzer runs a cheap bulk model first and escalates to a
// higher-quality model only when the bulk pass reports no violations. The
// escalated output supersedes the bulk output; both token costs are summed.
type TieredAnalyzer struct {
	client ChatClient
	cfg    AnalyzerConfig
	logger *logger.Logger
}

func NewTieredAnalyzer(client ChatClient, cfg AnalyzerConfig, log *logger.Logger) *TieredAnalyzer {
	if cfg.BulkModel == "" {
		cfg.BulkModel = DefaultBulkModel
	}
	if cfg.EscalatedModel == "" {
		cfg.EscalatedModel = DefaultEscalatedModel
	}
	if cfg.ReplyTokens <= 0 {
		cfg.ReplyTokens = defaultReplyTokens
	}
	if cfg.Temperature <= 0 {
		cfg.Temperature = defaultTemperature
	}
	if cfg.PromptBudget <= 0 {
		cfg.PromptBudget = DefaultPromptTokenBudget
	}
	if log == nil {
		log = logger.NewNopLogger()
	}

	return &TieredAnalyzer{
		client: client,
		cfg:    cfg,
		logger: log.WithField("stage", violation.StageLLMAnalysis),
	}
}

// Analyze runs the bulk pass and, when it comes back empty, the escalated
// pass. Typed client errors (rate limit, token budget) propagate to the
// caller after the client's own retries are exhausted.
func (a *TieredAnalyzer) Analyze(ctx context.Context, text, source string, prior PriorContext) (*Result, error) {
	truncated := TruncateToBudget(text, a.cfg.PromptBudget)
	messages := BuildMessages(truncated, source, prior)

	bulkViolations, bulkTokens, err := a.runModel(ctx, a.cfg.BulkModel, messages)
	if err != nil {
		return nil, fmt.Errorf("bulk pass (%s): %w", a.cfg.BulkModel, err)
	}
	bulkViolations = sanitizeSpans(bulkViolations, len(text))

	if !isNoViolationResult(bulkViolations) {
		return &Result{
			Violations: dedupe(bulkViolations),
			TokenUsage: bulkTokens,
			ModelUsed:  a.cfg.BulkModel,
		}, nil
	}

	a.logger.Debug("bulk model %s found nothing, escalating to %s", a.cfg.BulkModel, a.cfg.EscalatedModel)
	escalatedViolations, escalatedTokens, err := a.runModel(ctx, a.cfg.EscalatedModel, messages)
	if err != nil {
		return nil, fmt.Errorf("escalated pass (%s): %w", a.cfg.EscalatedModel, err)
	}
	escalatedViolations = sanitizeSpans(escalatedViolations, len(text))

	return &Result{
		Violations: dedupe(escalatedViolations),
		TokenUsage: bulkTokens + escalatedTokens,
		ModelUsed:  a.cfg.EscalatedModel,
		Escalated:  true,
	}, nil
}

func (a *TieredAnalyzer) runModel(ctx context.Context, model string, messages []Message) ([]violation.Violation, int, error) {
	resp, err := a.client.Chat(ctx, &ChatRequest{
		Model:       model,
		Messages:    messages,
		MaxTokens:   a.cfg.ReplyTokens,
		Temperature: a.cfg.Temperature,
	})
	if err != nil {
		return nil, 0, err
	}

	violations := ParseReply(resp.Content)
	a.logger.Debug("model %s returned %d violations (%d tokens)", model, len(violations), resp.TotalTokens)
	return violations, resp.TotalTokens, nil
}

// isNoViolationResult treats the bulk output as empty when there are no
// violations, or when every textual finding is itself a "nothing found"
// phrasing.
func isNoViolationResult(violations []violation.Violation) bool {
	if len(violations) == 0 {
		return true
	}
	for _, v := range violations {
		if !IndicatesNoViolation(v.Issue) && !IndicatesNoViolation(v.Recommendation) {
			return false
		}
	}
	return true
}

// sanitizeSpans drops model-supplied spans that do not lie within the
// analyzed text. The finding itself is kept; only the location claim goes.
func sanitizeSpans(violations []violation.Violation, textLen int) []violation.Violation {
	for i := range violations {
		span := violations[i].Span
		if span == nil {
			continue
		}
		if span.Start < 0 || span.End < span.Start || span.End > textLen {
			violations[i].Span = nil
		}
	}
	return violations
}

// dedupe drops repeated findings sharing the same issue and span.
func dedupe(violations []violation.Violation) []violation.Violation {
	seen := make(map[string]bool, len(violations))
	out := make([]violation.Violation, 0, len(violations))
	for _, v := range violations {
		key := v.Issue
		if v.Span != nil {
			key = fmt.Sprintf("%s|%d:%d", v.Issue, v.Span.Start, v.Span.End)
		}
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, v)
	}
	return out
}

// Summary aggregates LLM-stage violations.
type Summary struct {
	TotalViolations   int            `json:"violations_count"`
	BySeverity        map[string]int `json:"severity_breakdown"`
	ByCategory        map[string]int `json:"type_breakdown"`
	AverageConfidence float64        `json:"confidence_avg"`
	TokenUsage        int            `json:"token_usage"`
	ModelUsed         string         `json:"model_used"`
	Escalated         bool           `json:"escalated"`
}

func Summarize(result *Result) *Summary {
	summary := &Summary{
		BySeverity: make(map[string]int),
		ByCategory: make(map[string]int),
	}
	if result == nil {
		return summary
	}

	summary.TotalViolations = len(result.Violations)
	summary.TokenUsage = result.TokenUsage
	summary.ModelUsed = result.ModelUsed
	summary.Escalated = result.Escalated

	total := 0.0
	for _, v := range result.Violations {
		summary.BySeverity[string(v.Severity)]++
		summary.ByCategory[string(v.Category)]++
		total += v.ConfidenceScore
	}
	if len(result.Violations) > 0 {
		summary.AverageConfidence = total / float64(len(result.Violations))
	}
	return summary
}
