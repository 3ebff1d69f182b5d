package entities

import (
	"context"
	"strings"
	"time"

	"github.com/autoproof/autoproof/pkg/logger"
	"github.com/autoproof/autoproof/pkg/violation"
)

const (
	// DefaultConfidenceThreshold filters entity violations before they are
	// returned to the orchestrator.
	DefaultConfidenceThreshold = 0.6

	// confidenceFloor drops hopeless matches before threshold filtering.
	confidenceFloor = 0.5

	// confidenceCap bounds the adjusted confidence of any entity.
	confidenceCap = 0.95
)

// template describes how one entity label converts into a PII violation.
type template struct {
	severity       violation.Severity
	issue          string
	recommendation string
}

// piiTemplates maps the entity labels considered PII-relevant onto violation
// templates. Labels absent from this table are dropped.
var piiTemplates = map[Label]template{
	LabelPerson: {
		severity:       violation.SeverityMedium,
		issue:          "Person name detected",
		recommendation: "Consider if person names need to be exposed. Use generic placeholders in examples.",
	},
	LabelOrganization: {
		severity:       violation.SeverityLow,
		issue:          "Organization name detected",
		recommendation: "Consider if organization names need to be exposed. Use generic placeholders in examples.",
	},
	LabelLocation: {
		severity:       violation.SeverityLow,
		issue:          "Location detected",
		recommendation: "Consider if locations need to be exposed. Use generic placeholders in examples.",
	},
	LabelDate: {
		severity:       violation.SeverityLow,
		issue:          "Date detected",
		recommendation: "Consider if specific dates need to be exposed. Use generic date placeholders in examples.",
	},
	LabelTime: {
		severity:       violation.SeverityLow,
		issue:          "Time detected",
		recommendation: "Consider if specific times need to be exposed. Use generic time placeholders in examples.",
	},
	LabelMoney: {
		severity:       violation.SeverityMedium,
		issue:          "Monetary amount detected",
		recommendation: "Consider if monetary amounts need to be exposed. Use generic placeholders in examples.",
	},
	LabelCardinal: {
		severity:       violation.SeverityLow,
		issue:          "Cardinal number detected",
		recommendation: "Consider if specific numbers need to be exposed. Use generic placeholders in examples.",
	},
}

// roleWords boost confidence when found anywhere in the analyzed text: their
// presence suggests real user or customer data rather than examples.
var roleWords = []string{"user", "customer", "client", "employee", "admin", "test"}

// Tagger converts recognizer entities into PII violations with
// context-adjusted confidence scores.
type Tagger struct {
	recognizer Recognizer
	threshold  float64
	timeout    time.Duration
	logger     *logger.Logger
}

// TaggerOption customizes a Tagger.
type TaggerOption func(*Tagger)

// WithThreshold sets the minimum confidence an entity violation must reach.
func WithThreshold(threshold float64) TaggerOption {
	return func(t *Tagger) {
		t.threshold = threshold
	}
}

// WithTimeout bounds each recognizer call.
func WithTimeout(timeout time.Duration) TaggerOption {
	return func(t *Tagger) {
		t.timeout = timeout
	}
}

// NewTagger creates a tagger over the given recognizer. A nil recognizer
// falls back to the built-in pattern recognizer.
func NewTagger(recognizer Recognizer, log *logger.Logger, opts ...TaggerOption) *Tagger {
	if recognizer == nil {
		recognizer = NewBasicRecognizer()
	}
	if log == nil {
		log = logger.NewNopLogger()
	}

	t := &Tagger{
		recognizer: recognizer,
		threshold:  DefaultConfidenceThreshold,
		timeout:    10 * time.Second,
		logger:     log.WithField("stage", violation.StageNERAnalysis),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Tag recognizes entities in text and converts PII-relevant ones into
// violations. Recognizer failures degrade to an empty result: this stage
// never aborts the pipeline.
func (t *Tagger) Tag(ctx context.Context, text string) []violation.Violation {
	recognizeCtx := ctx
	if t.timeout > 0 {
		var cancel context.CancelFunc
		recognizeCtx, cancel = context.WithTimeout(ctx, t.timeout)
		defer cancel()
	}

	found, err := t.recognizer.Recognize(recognizeCtx, text)
	if err != nil {
		t.logger.Error("entity recognition failed, returning empty result: %v", err)
		return []violation.Violation{}
	}

	violations := []violation.Violation{}
	for _, entity := range found {
		tmpl, relevant := piiTemplates[entity.Label]
		if !relevant {
			continue
		}

		confidence := t.scoreEntity(entity, text)
		if confidence < confidenceFloor {
			continue
		}

		violations = append(violations, violation.Violation{
			Category:        violation.CategoryPII,
			Issue:           tmpl.issue,
			Recommendation:  tmpl.recommendation,
			Severity:        tmpl.severity,
			MatchedContent:  entity.Text,
			Span:            &violation.Span{Start: entity.Start, End: entity.End},
			ConfidenceScore: confidence,
			SourceStage:     violation.StageNERAnalysis,
			EntityType:      string(entity.Label),
		})
	}

	filtered := Filter(violations, t.threshold)
	t.logger.Debug("entity tagging complete: %d of %d violations above threshold %.2f",
		len(filtered), len(violations), t.threshold)
	return filtered
}

// scoreEntity computes a length- and context-adjusted confidence for an
// entity span.
func (t *Tagger) scoreEntity(entity Entity, text string) float64 {
	confidence := 0.7

	if len(entity.Text) < 2 {
		confidence *= 0.5
	} else if len(entity.Text) > 20 {
		confidence *= 0.8
	}

	switch entity.Label {
	case LabelPerson:
		confidence *= 1.2
	case LabelCardinal:
		confidence *= 0.6
	}

	lower := strings.ToLower(text)
	for _, word := range roleWords {
		if strings.Contains(lower, word) {
			confidence *= 1.1
			break
		}
	}

	if confidence > confidenceCap {
		confidence = confidenceCap
	}
	return confidence
}

// Filter returns the violations at or above the given confidence threshold.
func Filter(violations []violation.Violation, minConfidence float64) []violation.Violation {
	filtered := make([]violation.Violation, 0, len(violations))
	for _, v := range violations {
		if v.ConfidenceScore >= minConfidence {
			filtered = append(filtered, v)
		}
	}
	return filtered
}

// Summary aggregates entity-stage violations.
type Summary struct {
	TotalViolations   int            `json:"total_violations"`
	ByEntityType      map[string]int `json:"by_entity_type"`
	BySeverity        map[string]int `json:"by_severity"`
	AverageConfidence float64        `json:"average_confidence"`
}

// Summarize builds a summary of the tagger's findings.
func Summarize(violations []violation.Violation) *Summary {
	summary := &Summary{
		TotalViolations: len(violations),
		ByEntityType:    make(map[string]int),
		BySeverity:      make(map[string]int),
	}

	total := 0.0
	for _, v := range violations {
		entityType := v.EntityType
		if entityType == "" {
			entityType = "unknown"
		}
		summary.ByEntityType[entityType]++
		summary.BySeverity[string(v.Severity)]++
		total += v.ConfidenceScore
	}

	if len(violations) > 0 {
		summary.AverageConfidence = total / float64(len(violations))
	}
	return summary
}
