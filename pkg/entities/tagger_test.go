package entities

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/autoproof/autoproof/pkg/logger"
	"github.com/autoproof/autoproof/pkg/violation"
)

// fakeRecognizer returns canned entities or a canned error.
type fakeRecognizer struct {
	entities []Entity
	err      error
}

func (f *fakeRecognizer) Recognize(ctx context.Context, text string) ([]Entity, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.entities, nil
}

func TestTagPersonEntity(t *testing.T) {
	text := "The user John Smith opened a ticket"
	recognizer := &fakeRecognizer{entities: []Entity{
		{Text: "John Smith", Label: LabelPerson, Start: 9, End: 19},
	}}

	violations := NewTagger(recognizer, logger.NewNopLogger()).Tag(context.Background(), text)
	if len(violations) != 1 {
		t.Fatalf("expected 1 violation, got %d", len(violations))
	}

	v := violations[0]
	if v.Category != violation.CategoryPII {
		t.Errorf("category = %s, want PII", v.Category)
	}
	if v.Issue != "Person name detected" {
		t.Errorf("issue = %q", v.Issue)
	}
	if v.Severity != violation.SeverityMedium {
		t.Errorf("severity = %s, want medium", v.Severity)
	}
	if v.EntityType != string(LabelPerson) {
		t.Errorf("entity type = %q", v.EntityType)
	}

	// base 0.7, person boost 1.2, role word "user" boost 1.1
	want := 0.7 * 1.2 * 1.1
	if diff := v.ConfidenceScore - want; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("confidence = %f, want %f", v.ConfidenceScore, want)
	}
}

func TestTagConfidenceCap(t *testing.T) {
	// A long text full of role words cannot push confidence past the cap.
	text := strings.Repeat("user customer admin ", 10) + "Jane Doe"
	recognizer := &fakeRecognizer{entities: []Entity{
		{Text: "Jane Doe", Label: LabelPerson, Start: len(text) - 8, End: len(text)},
	}}

	violations := NewTagger(recognizer, logger.NewNopLogger()).Tag(context.Background(), text)
	if len(violations) != 1 {
		t.Fatalf("expected 1 violation, got %d", len(violations))
	}
	if violations[0].ConfidenceScore > 0.95 {
		t.Errorf("confidence %f exceeds cap", violations[0].ConfidenceScore)
	}
}

func TestTagCardinalFiltered(t *testing.T) {
	// Cardinal numbers score 0.7*0.6 = 0.42, below the floor, and never
	// surface without contextual boosts.
	recognizer := &fakeRecognizer{entities: []Entity{
		{Text: "48151", Label: LabelCardinal, Start: 0, End: 5},
	}}

	violations := NewTagger(recognizer, logger.NewNopLogger()).Tag(context.Background(), "48151 62342")
	if len(violations) != 0 {
		t.Errorf("expected cardinal below confidence floor to be dropped, got %+v", violations)
	}
}

func TestTagThreshold(t *testing.T) {
	// Money without boosts sits at 0.7: above the default threshold, below
	// a stricter one.
	recognizer := &fakeRecognizer{entities: []Entity{
		{Text: "$5,000.00", Label: LabelMoney, Start: 8, End: 17},
	}}
	text := "we owe $5,000.00"

	if got := NewTagger(recognizer, logger.NewNopLogger()).Tag(context.Background(), text); len(got) != 1 {
		t.Errorf("default threshold: expected 1 violation, got %d", len(got))
	}

	strict := NewTagger(recognizer, logger.NewNopLogger(), WithThreshold(0.8))
	if got := strict.Tag(context.Background(), text); len(got) != 0 {
		t.Errorf("strict threshold: expected 0 violations, got %d", len(got))
	}
}

func TestTagRecognizerFailureDegrades(t *testing.T) {
	recognizer := &fakeRecognizer{err: errors.New("model unavailable")}

	violations := NewTagger(recognizer, logger.NewNopLogger()).Tag(context.Background(), "some text")
	if violations == nil || len(violations) != 0 {
		t.Errorf("expected empty result on recognizer failure, got %+v", violations)
	}
}

func TestTagIgnoresUnknownLabels(t *testing.T) {
	recognizer := &fakeRecognizer{entities: []Entity{
		{Text: "whatever", Label: Label("product"), Start: 0, End: 8},
	}}

	violations := NewTagger(recognizer, logger.NewNopLogger()).Tag(context.Background(), "whatever")
	if len(violations) != 0 {
		t.Errorf("labels outside the PII table must be dropped, got %+v", violations)
	}
}

func TestBasicRecognizerFindsEntities(t *testing.T) {
	text := "Dr. Smith visited Acme Corp on 2024-01-15 and paid $1,200.00"
	found, err := NewBasicRecognizer().Recognize(context.Background(), text)
	if err != nil {
		t.Fatalf("recognize: %v", err)
	}

	labels := make(map[Label]bool)
	for _, e := range found {
		labels[e.Label] = true
		if e.Start < 0 || e.End > len(text) || e.Start >= e.End {
			t.Errorf("bad span for %q: [%d, %d)", e.Text, e.Start, e.End)
		}
		if text[e.Start:e.End] != e.Text {
			t.Errorf("span text mismatch for %q", e.Text)
		}
	}

	for _, want := range []Label{LabelPerson, LabelOrganization, LabelDate, LabelMoney} {
		if !labels[want] {
			t.Errorf("expected a %s entity in %q", want, text)
		}
	}
}

func TestBasicRecognizerKeepsRepeatedOccurrences(t *testing.T) {
	text := "Jane Doe emailed the draft and Jane Doe signed it"
	entities, err := NewBasicRecognizer().Recognize(context.Background(), text)
	if err != nil {
		t.Fatalf("recognize: %v", err)
	}

	var persons []Entity
	for _, e := range entities {
		if e.Label == LabelPerson {
			persons = append(persons, e)
		}
	}
	if len(persons) != 2 {
		t.Fatalf("expected both occurrences of the name, got %d: %+v", len(persons), persons)
	}
	if persons[0].Start == persons[1].Start {
		t.Errorf("occurrences share an offset: %+v", persons)
	}
	for _, p := range persons {
		if text[p.Start:p.End] != "Jane Doe" {
			t.Errorf("span text = %q", text[p.Start:p.End])
		}
	}
}

func TestSummarize(t *testing.T) {
	recognizer := &fakeRecognizer{entities: []Entity{
		{Text: "John Smith", Label: LabelPerson, Start: 5, End: 15},
		{Text: "$99.00", Label: LabelMoney, Start: 20, End: 26},
	}}
	violations := NewTagger(recognizer, logger.NewNopLogger()).Tag(context.Background(), "user John Smith $99.00")

	summary := Summarize(violations)
	if summary.TotalViolations != len(violations) {
		t.Errorf("total = %d, want %d", summary.TotalViolations, len(violations))
	}
	if summary.AverageConfidence <= 0 {
		t.Errorf("average confidence not computed")
	}
}
