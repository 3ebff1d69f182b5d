package entities

import (
	"context"
	"fmt"
	"regexp"
	"sort"
)

// Label categorizes a recognized entity span.
type Label string

const (
	LabelPerson       Label = "person"
	LabelOrganization Label = "organization"
	LabelLocation     Label = "location"
	LabelDate         Label = "date"
	LabelTime         Label = "time"
	LabelMoney        Label = "money"
	LabelCardinal     Label = "cardinal"
)

// Entity is one labeled span found by a recognizer.
type Entity struct {
	Text  string `json:"text"`
	Label Label  `json:"label"`
	Start int    `json:"start"`
	End   int    `json:"end"`
}

// Recognizer produces labeled entity spans for a text. Implementations may be
// in-process pattern recognizers or clients of a remote NER model.
type Recognizer interface {
	Recognize(ctx context.Context, text string) ([]Entity, error)
}

// BasicRecognizer is a pattern-based recognizer. It covers the entity
// categories the tagger knows how to score without requiring a served model.
type BasicRecognizer struct {
	name     string
	version  string
	patterns map[Label][]*regexp.Regexp
}

// NewBasicRecognizer creates a recognizer with built-in patterns.
func NewBasicRecognizer() *BasicRecognizer {
	r := &BasicRecognizer{
		name:     "basic-recognizer",
		version:  "1.0.0",
		patterns: make(map[Label][]*regexp.Regexp),
	}
	r.initializePatterns()
	return r
}

// Name returns the recognizer identifier.
func (r *BasicRecognizer) Name() string {
	return r.name
}

// Recognize extracts labeled spans from text, deduplicated and ordered by
// start offset.
func (r *BasicRecognizer) Recognize(ctx context.Context, text string) ([]Entity, error) {
	if len(text) == 0 {
		return []Entity{}, nil
	}

	entities := []Entity{}
	for label, exprs := range r.patterns {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		for _, expr := range exprs {
			for _, loc := range expr.FindAllStringIndex(text, -1) {
				entities = append(entities, Entity{
					Text:  text[loc[0]:loc[1]],
					Label: label,
					Start: loc[0],
					End:   loc[1],
				})
			}
		}
	}

	entities = dedupeSpans(entities)

	sort.Slice(entities, func(i, j int) bool {
		if entities[i].Start != entities[j].Start {
			return entities[i].Start < entities[j].Start
		}
		return entities[i].End > entities[j].End
	})

	return entities, nil
}

// dedupeSpans drops exact duplicates: the same label reported twice at the
// same offsets, as when two patterns for one label match the same span.
// Repeated occurrences of the same text elsewhere in the input are kept.
func dedupeSpans(entities []Entity) []Entity {
	seen := make(map[string]bool, len(entities))
	result := make([]Entity, 0, len(entities))

	for _, e := range entities {
		key := fmt.Sprintf("%s:%d:%d", e.Label, e.Start, e.End)
		if seen[key] {
			continue
		}
		seen[key] = true
		result = append(result, e)
	}

	return result
}

func (r *BasicRecognizer) initializePatterns() {
	r.patterns[LabelPerson] = []*regexp.Regexp{
		regexp.MustCompile(`\b(?:Mr|Mrs|Ms|Dr|Prof)\.?\s+[A-Z][a-z]+(?:\s+[A-Z][a-z]+)?\b`),
		regexp.MustCompile(`\b[A-Z][a-z]+\s+[A-Z][a-z]+\b`),
	}

	r.patterns[LabelOrganization] = []*regexp.Regexp{
		regexp.MustCompile(`\b[A-Z][a-z]*(?:\s+[A-Z][a-z]*)*\s+(?:Inc|Corp|LLC|Ltd|Co|Company|Corporation|Group|Enterprises?)\.?\b`),
		regexp.MustCompile(`\b[A-Z][a-z]*(?:\s+[A-Z][a-z]*)*\s+(?:University|College|Institute|School|Hospital|Bank|Insurance)\b`),
	}

	r.patterns[LabelLocation] = []*regexp.Regexp{
		regexp.MustCompile(`\b[A-Z][a-z]+,\s*[A-Z]{2}\b`),
		regexp.MustCompile(`\b[A-Z][a-z]+\s+[A-Z][a-z]+,\s*[A-Z]{2}\b`),
	}

	r.patterns[LabelDate] = []*regexp.Regexp{
		regexp.MustCompile(`\b\d{1,2}/\d{1,2}/\d{2,4}\b`),
		regexp.MustCompile(`\b\d{4}-\d{1,2}-\d{1,2}\b`),
		regexp.MustCompile(`\b(?:Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Oct|Nov|Dec)[a-z]*\s+\d{1,2},?\s+\d{4}\b`),
	}

	r.patterns[LabelTime] = []*regexp.Regexp{
		regexp.MustCompile(`\b\d{1,2}:\d{2}(?::\d{2})?\s*(?:[aApP][mM])?\b`),
	}

	r.patterns[LabelMoney] = []*regexp.Regexp{
		regexp.MustCompile(`\$\d{1,3}(?:,\d{3})*(?:\.\d{2})?\b`),
		regexp.MustCompile(`\b\d{1,3}(?:,\d{3})*(?:\.\d{2})?\s*(?:USD|usd|dollars?)\b`),
	}

	r.patterns[LabelCardinal] = []*regexp.Regexp{
		regexp.MustCompile(`\b\d{4,}\b`),
	}
}
