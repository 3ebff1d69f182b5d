package pipeline

import (
	"github.com/autoproof/autoproof/pkg/violation"
)

// StageResult records one detector's outcome within a pipeline run.
type StageResult struct {
	Stage            violation.Stage       `json:"stage"`
	Violations       []violation.Violation `json:"violations"`
	ProcessingTimeMs float64               `json:"processing_time_ms"`
	Summary          interface{}           `json:"summary,omitempty"`
	Success          bool                  `json:"success"`
	ErrorMessage     string                `json:"error_message,omitempty"`
	TokenUsage       int                   `json:"token_usage,omitempty"`
}

// StageOverview is the per-stage slice of the overall summary.
type StageOverview struct {
	Violations       int     `json:"violations"`
	ProcessingTimeMs float64 `json:"processing_time_ms"`
}

// OverallSummary aggregates a full pipeline run.
type OverallSummary struct {
	TotalViolations       int                      `json:"total_violations"`
	StagesCompleted       int                      `json:"stages_completed"`
	StagesFailed          int                      `json:"stages_failed"`
	TotalProcessingTimeMs float64                  `json:"total_processing_time_ms"`
	ByStage               map[string]StageOverview `json:"by_stage"`
	BySeverity            map[string]int           `json:"by_severity"`
	ByCategory            map[string]int           `json:"by_type"`
}

// FullAnalysisResult is the pipeline's aggregate output. Violations holds
// the merged list with LLM findings ordered first, ahead of the heuristic
// stages, since contextual synthesis catches issues point-detectors miss.
type FullAnalysisResult struct {
	AnalysisID            string                           `json:"analysis_id"`
	TotalViolations       int                              `json:"total_violations"`
	Violations            []violation.Violation            `json:"violations"`
	ViolationsByStage     map[string][]violation.Violation `json:"violations_by_stage"`
	StageResults          []StageResult                    `json:"stage_results"`
	OverallSummary        *OverallSummary                  `json:"overall_summary"`
	TotalProcessingTimeMs float64                          `json:"total_processing_time_ms"`
	TokenUsage            int                              `json:"token_usage"`
}

func summarize(stageResults []StageResult, merged []violation.Violation) *OverallSummary {
	summary := &OverallSummary{
		TotalViolations: len(merged),
		ByStage:         make(map[string]StageOverview),
		BySeverity:      make(map[string]int),
		ByCategory:      make(map[string]int),
	}

	for _, result := range stageResults {
		summary.TotalProcessingTimeMs += result.ProcessingTimeMs
		if !result.Success {
			summary.StagesFailed++
			continue
		}
		summary.StagesCompleted++
		summary.ByStage[string(result.Stage)] = StageOverview{
			Violations:       len(result.Violations),
			ProcessingTimeMs: result.ProcessingTimeMs,
		}
	}

	for _, v := range merged {
		summary.BySeverity[string(v.Severity)]++
		summary.ByCategory[string(v.Category)]++
	}
	return summary
}
