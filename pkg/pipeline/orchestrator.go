package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/autoproof/autoproof/pkg/cache"
	"github.com/autoproof/autoproof/pkg/configlint"
	"github.com/autoproof/autoproof/pkg/entities"
	"github.com/autoproof/autoproof/pkg/llm"
	"github.com/autoproof/autoproof/pkg/logger"
	"github.com/autoproof/autoproof/pkg/metrics"
	"github.com/autoproof/autoproof/pkg/patterns"
	"github.com/autoproof/autoproof/pkg/regulatory"
	"github.com/autoproof/autoproof/pkg/violation"
)

// cacheAnalysisType namespaces full-analysis entries in the result cache.
const cacheAnalysisType = "full_analysis"

// Options wires the pipeline's detectors and supporting infrastructure.
// Nil detectors are replaced with defaults; a nil Analyzer disables the LLM
// stage (recorded as a failed stage, not a crash). Cache and Metrics are
// optional.
type Options struct {
	Matcher   *patterns.Matcher
	Tagger    *entities.Tagger
	Linter    *configlint.Linter
	Retriever *regulatory.Retriever
	Analyzer  *llm.TieredAnalyzer
	Cache     cache.ResultCache
	CacheTTL  time.Duration
	Metrics   *metrics.Metrics
	Logger    *logger.Logger
}

// Pipeline runs every detection stage against one input in a fixed order
// and merges their findings into a single result.
type Pipeline struct {
	matcher   *patterns.Matcher
	tagger    *entities.Tagger
	linter    *configlint.Linter
	retriever *regulatory.Retriever
	analyzer  *llm.TieredAnalyzer
	cache     cache.ResultCache
	cacheTTL  time.Duration
	metrics   *metrics.Metrics
	tracer    trace.Tracer
	logger    *logger.Logger
}

func New(opts Options) *Pipeline {
	log := opts.Logger
	if log == nil {
		log = logger.NewNopLogger()
	}
	if opts.Matcher == nil {
		opts.Matcher = patterns.NewMatcher(log)
	}
	if opts.Tagger == nil {
		opts.Tagger = entities.NewTagger(nil, log)
	}
	if opts.Linter == nil {
		opts.Linter = configlint.NewLinter(log)
	}
	if opts.Retriever == nil {
		opts.Retriever = regulatory.NewRetriever(log)
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.NewNop()
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = cache.DefaultTTL
	}

	return &Pipeline{
		matcher:   opts.Matcher,
		tagger:    opts.Tagger,
		linter:    opts.Linter,
		retriever: opts.Retriever,
		analyzer:  opts.Analyzer,
		cache:     opts.Cache,
		cacheTTL:  opts.CacheTTL,
		metrics:   opts.Metrics,
		tracer:    otel.Tracer("autoproof/pipeline"),
		logger:    log.WithField("component", "pipeline"),
	}
}

// RunFullAnalysis executes all stages sequentially: pattern matching,
// entity tagging, config linting (code-like sources only), regulatory
// analysis, then LLM analysis with the accumulated findings as context. A
// failure in one stage is recorded and does not stop the others. The
// returned error is non-nil only for the LLM client's typed failures (rate
// limit, token budget); the partial result is still returned alongside it.
func (p *Pipeline) RunFullAnalysis(ctx context.Context, text, source string) (*FullAnalysisResult, error) {
	ctx, span := p.tracer.Start(ctx, "pipeline.run_full_analysis",
		trace.WithAttributes(
			attribute.String("source", source),
			attribute.Int("text_length", len(text)),
		))
	defer span.End()

	analysisID := uuid.NewString()
	ctx = logger.ContextWithRequestID(ctx, analysisID)
	log := p.logger.WithContext(ctx).WithField("source", source)

	if cached := p.lookupCache(ctx, text, source); cached != nil {
		log.Info("returning cached analysis result")
		return cached, nil
	}

	start := time.Now()
	log.Info("starting full compliance analysis pipeline")

	var stageResults []StageResult
	var priorViolations []violation.Violation

	// Stage 1: pattern matching.
	regexResult := p.runStage(ctx, violation.StageRegexScanning, func() ([]violation.Violation, interface{}, error) {
		found := p.matcher.Scan(text, source)
		return found, patterns.Summarize(found), nil
	})
	stageResults = append(stageResults, regexResult)
	priorViolations = append(priorViolations, regexResult.Violations...)

	// Stage 2: entity tagging.
	nerResult := p.runStage(ctx, violation.StageNERAnalysis, func() ([]violation.Violation, interface{}, error) {
		found := p.tagger.Tag(ctx, text)
		return found, entities.Summarize(found), nil
	})
	stageResults = append(stageResults, nerResult)
	priorViolations = append(priorViolations, nerResult.Violations...)

	// Stage 3: config linting, only for code/config-like sources.
	var configCount int
	if patterns.IsCodeSource(source) {
		configResult := p.runStage(ctx, violation.StageConfigLinting, func() ([]violation.Violation, interface{}, error) {
			found := p.linter.Lint(text)
			return found, configlint.Summarize(found), nil
		})
		stageResults = append(stageResults, configResult)
		priorViolations = append(priorViolations, configResult.Violations...)
		configCount = len(configResult.Violations)
	}

	// Stage 4: regulatory analysis.
	var regAnalysis *regulatory.Analysis
	regResult := p.runStage(ctx, violation.StageRegulatoryAnalysis, func() ([]violation.Violation, interface{}, error) {
		regAnalysis = p.retriever.Analyze(text, source)
		return regAnalysis.Violations, regulatory.Summarize(regAnalysis), nil
	})
	stageResults = append(stageResults, regResult)
	priorViolations = append(priorViolations, regResult.Violations...)

	// Stage 5: LLM analysis with prior findings as context.
	prior := llm.PriorContext{
		RegexViolations:  len(regexResult.Violations),
		EntityViolations: len(nerResult.Violations),
		ConfigViolations: configCount,
	}
	if regAnalysis != nil {
		prior.Regulations = regAnalysis.RelevantRegulations
		prior.Contexts = regAnalysis.Contexts
	}

	llmResult, llmErr := p.runLLMStage(ctx, text, source, prior)
	stageResults = append(stageResults, llmResult)

	result := p.assemble(stageResults, llmResult, priorViolations, time.Since(start))
	result.AnalysisID = analysisID
	p.recordMetrics(stageResults, llmResult)
	span.SetAttributes(attribute.Int("total_violations", result.TotalViolations))

	log.Info("pipeline completed: %d total violations in %.2fms",
		result.TotalViolations, result.TotalProcessingTimeMs)

	// Only fully successful runs are cached; a run with a failed stage
	// should be retried by the next identical request.
	if llmErr == nil && result.OverallSummary.StagesFailed == 0 {
		p.storeCache(ctx, text, source, result)
	}

	if llmErr != nil && (llm.IsRateLimit(llmErr) || llm.IsTokenBudget(llmErr)) {
		return result, llmErr
	}
	return result, nil
}

// runStage times and isolates one detector. A panic or error inside fn is
// recorded as a failed stage with an empty violation list.
func (p *Pipeline) runStage(ctx context.Context, stage violation.Stage, fn func() ([]violation.Violation, interface{}, error)) (result StageResult) {
	_, span := p.tracer.Start(ctx, "pipeline.stage",
		trace.WithAttributes(attribute.String("stage", string(stage))))
	defer span.End()

	start := time.Now()
	result = StageResult{Stage: stage, Violations: []violation.Violation{}}

	defer func() {
		result.ProcessingTimeMs = float64(time.Since(start)) / float64(time.Millisecond)
		if r := recover(); r != nil {
			p.logger.Error("stage %s panicked: %v", stage, r)
			result.Violations = []violation.Violation{}
			result.Summary = nil
			result.Success = false
			result.ErrorMessage = fmt.Sprintf("panic: %v", r)
		}
		if !result.Success {
			p.metrics.StageFailures.WithLabelValues(string(stage)).Inc()
		}
	}()

	found, summary, err := fn()
	if err != nil {
		p.logger.Error("stage %s failed: %v", stage, err)
		result.ErrorMessage = err.Error()
		return result
	}

	result.Violations = found
	result.Summary = summary
	result.Success = true
	p.logger.Info("stage %s: %d violations found", stage, len(found))
	return result
}

func (p *Pipeline) runLLMStage(ctx context.Context, text, source string, prior llm.PriorContext) (StageResult, error) {
	if p.analyzer == nil {
		return StageResult{
			Stage:        violation.StageLLMAnalysis,
			Violations:   []violation.Violation{},
			ErrorMessage: "llm analyzer not configured",
		}, nil
	}

	var analysis *llm.Result
	var llmErr error
	result := p.runStage(ctx, violation.StageLLMAnalysis, func() ([]violation.Violation, interface{}, error) {
		var err error
		analysis, err = p.analyzer.Analyze(ctx, text, source, prior)
		if err != nil {
			llmErr = err
			return nil, nil, err
		}
		return analysis.Violations, llm.Summarize(analysis), nil
	})

	if analysis != nil {
		result.TokenUsage = analysis.TokenUsage
		p.metrics.LLMCalls.WithLabelValues(analysis.ModelUsed, "success").Inc()
		if analysis.Escalated {
			p.metrics.LLMEscalations.Inc()
		}
	} else if llmErr != nil {
		p.metrics.LLMCalls.WithLabelValues("", "error").Inc()
	}
	return result, llmErr
}

// assemble merges stage outputs into the aggregate result. LLM findings go
// to the front of the merged list.
func (p *Pipeline) assemble(stageResults []StageResult, llmResult StageResult, heuristic []violation.Violation, elapsed time.Duration) *FullAnalysisResult {
	merged := make([]violation.Violation, 0, len(llmResult.Violations)+len(heuristic))
	merged = append(merged, llmResult.Violations...)
	merged = append(merged, heuristic...)

	byStage := make(map[string][]violation.Violation, len(stageResults))
	for _, sr := range stageResults {
		byStage[string(sr.Stage)] = sr.Violations
	}

	return &FullAnalysisResult{
		TotalViolations:       len(merged),
		Violations:            merged,
		ViolationsByStage:     byStage,
		StageResults:          stageResults,
		OverallSummary:        summarize(stageResults, merged),
		TotalProcessingTimeMs: float64(elapsed) / float64(time.Millisecond),
		TokenUsage:            llmResult.TokenUsage,
	}
}

func (p *Pipeline) recordMetrics(stageResults []StageResult, llmResult StageResult) {
	p.metrics.AnalysisRuns.Inc()
	for _, sr := range stageResults {
		p.metrics.StageDuration.WithLabelValues(string(sr.Stage)).
			Observe(sr.ProcessingTimeMs / 1000)
		for _, v := range sr.Violations {
			p.metrics.Violations.WithLabelValues(string(sr.Stage), string(v.Severity)).Inc()
		}
	}
	p.metrics.LLMTokens.Add(float64(llmResult.TokenUsage))
}

func (p *Pipeline) lookupCache(ctx context.Context, text, source string) *FullAnalysisResult {
	if p.cache == nil {
		return nil
	}

	key := cache.Key(cacheAnalysisType, source, text)
	payload, found, err := p.cache.Get(ctx, key)
	if err != nil {
		p.logger.Warn("cache lookup failed: %v", err)
		return nil
	}
	if !found {
		p.metrics.CacheMisses.Inc()
		return nil
	}

	var result FullAnalysisResult
	if err := json.Unmarshal(payload, &result); err != nil {
		p.logger.Warn("discarding corrupt cache entry: %v", err)
		return nil
	}
	p.metrics.CacheHits.Inc()
	return &result
}

func (p *Pipeline) storeCache(ctx context.Context, text, source string, result *FullAnalysisResult) {
	if p.cache == nil {
		return
	}

	payload, err := json.Marshal(result)
	if err != nil {
		p.logger.Warn("failed to serialize result for cache: %v", err)
		return
	}
	key := cache.Key(cacheAnalysisType, source, text)
	if err := p.cache.Set(ctx, key, payload, p.cacheTTL); err != nil {
		p.logger.Warn("cache store failed: %v", err)
	}
}
