package pipeline

import (
	"context"
	"strings"
	"testing"

	"github.com/autoproof/autoproof/pkg/cache"
	"github.com/autoproof/autoproof/pkg/entities"
	"github.com/autoproof/autoproof/pkg/llm"
	"github.com/autoproof/autoproof/pkg/logger"
	"github.com/autoproof/autoproof/pkg/violation"
)

// scriptedChat returns one canned reply for every model, or an error.
type scriptedChat struct {
	content string
	tokens  int
	err     error
	calls   int
}

func (c *scriptedChat) Chat(_ context.Context, _ *llm.ChatRequest) (*llm.ChatResponse, error) {
	c.calls++
	if c.err != nil {
		return nil, c.err
	}
	return &llm.ChatResponse{Content: c.content, TotalTokens: c.tokens}, nil
}

// panickyRecognizer blows up the entity stage on purpose.
type panickyRecognizer struct{}

func (panickyRecognizer) Recognize(context.Context, string) ([]entities.Entity, error) {
	panic("model not loaded")
}

func newTestPipeline(chat llm.ChatClient, opts Options) *Pipeline {
	log := logger.NewNopLogger()
	if chat != nil {
		opts.Analyzer = llm.NewTieredAnalyzer(chat, llm.AnalyzerConfig{}, log)
	}
	opts.Logger = log
	return New(opts)
}

func stageByName(t *testing.T, result *FullAnalysisResult, stage violation.Stage) *StageResult {
	t.Helper()
	for i := range result.StageResults {
		if result.StageResults[i].Stage == stage {
			return &result.StageResults[i]
		}
	}
	t.Fatalf("stage %s missing from results", stage)
	return nil
}

func TestRunFullAnalysisMergesLLMFirst(t *testing.T) {
	chat := &scriptedChat{
		content: `[{"type": "Compliance Issue", "issue": "Retention policy missing", "severity": "high"}]`,
		tokens:  120,
	}
	p := newTestPipeline(chat, Options{})

	text := "Employee SSN is 123-45-6789, please forward to https://dropbox.com/s/q1"
	result, err := p.RunFullAnalysis(context.Background(), text, "slack")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.AnalysisID == "" {
		t.Errorf("missing analysis id")
	}
	if result.TotalViolations == 0 || len(result.Violations) != result.TotalViolations {
		t.Fatalf("inconsistent totals: %d vs %d violations", result.TotalViolations, len(result.Violations))
	}
	if result.Violations[0].SourceStage != violation.StageLLMAnalysis {
		t.Errorf("merged list must lead with LLM findings, got stage %s", result.Violations[0].SourceStage)
	}
	if result.TokenUsage != 120 {
		t.Errorf("token usage = %d, want 120", result.TokenUsage)
	}

	// Non-code source: config linting must not have run.
	for _, sr := range result.StageResults {
		if sr.Stage == violation.StageConfigLinting {
			t.Errorf("config linting ran for a slack source")
		}
	}
	if len(result.StageResults) != 4 {
		t.Errorf("expected 4 stages for a non-code source, got %d", len(result.StageResults))
	}

	regex := stageByName(t, result, violation.StageRegexScanning)
	if !regex.Success || len(regex.Violations) == 0 {
		t.Errorf("regex stage should have found the SSN and sharing domain")
	}
}

func TestRunFullAnalysisCodeSourceRunsLinting(t *testing.T) {
	chat := &scriptedChat{content: "[]", tokens: 10}
	p := newTestPipeline(chat, Options{})

	result, err := p.RunFullAnalysis(context.Background(), "runAsNonRoot: false\n", "github")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	lint := stageByName(t, result, violation.StageConfigLinting)
	if !lint.Success {
		t.Errorf("lint stage failed: %s", lint.ErrorMessage)
	}
	if len(lint.Violations) == 0 {
		t.Errorf("expected a run-as-root finding")
	}
	if len(result.StageResults) != 5 {
		t.Errorf("expected 5 stages for a code source, got %d", len(result.StageResults))
	}
}

func TestRunFullAnalysisStageIsolation(t *testing.T) {
	chat := &scriptedChat{
		content: `[{"issue": "Something", "severity": "low"}]`,
		tokens:  50,
	}
	p := newTestPipeline(chat, Options{
		Tagger: entities.NewTagger(panickyRecognizer{}, logger.NewNopLogger()),
	})

	text := "Employee SSN is 123-45-6789"
	result, err := p.RunFullAnalysis(context.Background(), text, "slack")
	if err != nil {
		t.Fatalf("a panicking stage must not surface as an error: %v", err)
	}

	ner := stageByName(t, result, violation.StageNERAnalysis)
	if ner.Success {
		t.Errorf("panicked stage reported success")
	}
	if !strings.Contains(ner.ErrorMessage, "panic") {
		t.Errorf("error message = %q, want panic note", ner.ErrorMessage)
	}
	if len(ner.Violations) != 0 {
		t.Errorf("failed stage must contribute no violations")
	}

	// The stages around the failure still ran.
	regex := stageByName(t, result, violation.StageRegexScanning)
	if !regex.Success || len(regex.Violations) == 0 {
		t.Errorf("regex stage should still produce findings")
	}
	llmStage := stageByName(t, result, violation.StageLLMAnalysis)
	if !llmStage.Success {
		t.Errorf("llm stage should still run after an earlier failure")
	}
	if result.OverallSummary.StagesFailed != 1 {
		t.Errorf("stages failed = %d, want 1", result.OverallSummary.StagesFailed)
	}
}

func TestRunFullAnalysisCleanText(t *testing.T) {
	chat := &scriptedChat{content: "No violations detected.", tokens: 20}
	p := newTestPipeline(chat, Options{})

	result, err := p.RunFullAnalysis(context.Background(), "the quick brown fox jumps over the lazy dog", "manual")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.TotalViolations != 0 {
		t.Errorf("total = %d, want 0: %+v", result.TotalViolations, result.Violations)
	}
	for severity, n := range result.OverallSummary.BySeverity {
		if n != 0 {
			t.Errorf("severity bucket %s = %d, want empty buckets", severity, n)
		}
	}
	if result.OverallSummary.StagesFailed != 0 {
		t.Errorf("stages failed = %d", result.OverallSummary.StagesFailed)
	}
	// Both tiers ran and found nothing.
	if chat.calls != 2 {
		t.Errorf("chat calls = %d, want bulk plus escalated", chat.calls)
	}
}

func TestRunFullAnalysisTypedErrorSurfacesWithPartialResult(t *testing.T) {
	chat := &scriptedChat{err: llm.NewRateLimitError("rate limit exceeded")}
	p := newTestPipeline(chat, Options{})

	text := "Employee SSN is 123-45-6789"
	result, err := p.RunFullAnalysis(context.Background(), text, "slack")

	if !llm.IsRateLimit(err) {
		t.Fatalf("expected rate limit error, got %v", err)
	}
	if result == nil {
		t.Fatalf("partial result must accompany the typed error")
	}

	regex := stageByName(t, result, violation.StageRegexScanning)
	if len(regex.Violations) == 0 {
		t.Errorf("heuristic findings missing from the partial result")
	}
	llmStage := stageByName(t, result, violation.StageLLMAnalysis)
	if llmStage.Success {
		t.Errorf("llm stage reported success despite the client error")
	}
}

func TestRunFullAnalysisNilAnalyzer(t *testing.T) {
	p := newTestPipeline(nil, Options{})

	result, err := p.RunFullAnalysis(context.Background(), "Employee SSN is 123-45-6789", "manual")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	llmStage := stageByName(t, result, violation.StageLLMAnalysis)
	if llmStage.Success {
		t.Errorf("llm stage must be recorded as not run")
	}
	if llmStage.ErrorMessage == "" {
		t.Errorf("expected an explanatory error message")
	}

	regex := stageByName(t, result, violation.StageRegexScanning)
	if len(regex.Violations) == 0 {
		t.Errorf("detection stages should run without an analyzer")
	}
}

func TestRunFullAnalysisCacheRoundTrip(t *testing.T) {
	chat := &scriptedChat{
		content: `[{"issue": "Retention policy missing", "severity": "high"}]`,
		tokens:  75,
	}
	memCache := cache.NewMemoryCache(100)
	defer memCache.Close()
	p := newTestPipeline(chat, Options{Cache: memCache})

	text := "Employee SSN is 123-45-6789"
	first, err := p.RunFullAnalysis(context.Background(), text, "slack")
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	callsAfterFirst := chat.calls

	second, err := p.RunFullAnalysis(context.Background(), text, "slack")
	if err != nil {
		t.Fatalf("second run: %v", err)
	}

	if chat.calls != callsAfterFirst {
		t.Errorf("second run hit the model, cache was bypassed")
	}
	if second.TotalViolations != first.TotalViolations {
		t.Errorf("cached total = %d, want %d", second.TotalViolations, first.TotalViolations)
	}
	if len(second.Violations) != len(first.Violations) {
		t.Errorf("cached violations = %d, want %d", len(second.Violations), len(first.Violations))
	}

	// Different source means a different cache key.
	if _, err := p.RunFullAnalysis(context.Background(), text, "api"); err != nil {
		t.Fatalf("third run: %v", err)
	}
	if chat.calls == callsAfterFirst {
		t.Errorf("a different source must not share a cache entry")
	}
}

func TestRunFullAnalysisFailedRunNotCached(t *testing.T) {
	chat := &scriptedChat{err: llm.NewTokenBudgetError("maximum context length exceeded")}
	memCache := cache.NewMemoryCache(100)
	defer memCache.Close()
	p := newTestPipeline(chat, Options{Cache: memCache})

	text := "Employee SSN is 123-45-6789"
	if _, err := p.RunFullAnalysis(context.Background(), text, "slack"); !llm.IsTokenBudget(err) {
		t.Fatalf("expected token budget error, got %v", err)
	}
	if memCache.Len() != 0 {
		t.Errorf("failed run was cached")
	}
}
