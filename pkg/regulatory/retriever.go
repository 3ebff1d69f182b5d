package regulatory

import (
	"sort"
	"strings"

	"github.com/autoproof/autoproof/pkg/logger"
	"github.com/autoproof/autoproof/pkg/violation"
)

const (
	// DefaultMaxPerRegulation bounds the clauses kept per regulation family.
	DefaultMaxPerRegulation = 3

	// relevanceFloor drops clauses with negligible keyword overlap.
	relevanceFloor = 0.1

	// ruleConfidence is the fixed confidence of the hand-coded family rules.
	ruleConfidence = 0.8
)

// Context is one retrieved clause with its relevance to the analyzed text.
// Contexts are computed fresh per request and never persisted.
type Context struct {
	Regulation     Regulation `json:"regulation"`
	Section        string     `json:"section"`
	Title          string     `json:"title"`
	Content        string     `json:"content"`
	RelevanceScore float64    `json:"relevance_score"`
	Source         string     `json:"source"`
}

// Analysis is the result of the rule-based regulatory compliance check.
type Analysis struct {
	Violations          []violation.Violation `json:"regulatory_violations"`
	RelevantRegulations []string              `json:"relevant_regulations"`
	ComplianceScore     float64               `json:"compliance_score"`
	Contexts            []Context             `json:"contexts"`
}

// Retriever scores knowledge-base clauses against input text and applies a
// small set of per-family compliance rules.
type Retriever struct {
	logger *logger.Logger
}

func NewRetriever(log *logger.Logger) *Retriever {
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &Retriever{
		logger: log.WithField("stage", violation.StageRegulatoryAnalysis),
	}
}

// relevanceScore is the fraction of a clause's keywords found in text,
// matched as case-insensitive substrings.
func relevanceScore(text string, keywords []string) float64 {
	if len(keywords) == 0 {
		return 0.0
	}

	lower := strings.ToLower(text)
	matches := 0
	for _, keyword := range keywords {
		if strings.Contains(lower, strings.ToLower(keyword)) {
			matches++
		}
	}

	score := float64(matches) / float64(len(keywords))
	if score > 1.0 {
		score = 1.0
	}
	return score
}

// Retrieve returns the clauses relevant to text: scored per family, floored
// at 0.1, truncated to maxPerRegulation per family, then pooled and re-sorted
// globally by relevance.
func (r *Retriever) Retrieve(text string, maxPerRegulation int) []Context {
	if maxPerRegulation <= 0 {
		maxPerRegulation = DefaultMaxPerRegulation
	}

	contexts := []Context{}
	for _, regulation := range regulationOrder {
		var family []Context
		for _, clause := range knowledgeBase[regulation] {
			score := relevanceScore(text, clause.Keywords)
			if score <= relevanceFloor {
				continue
			}
			family = append(family, Context{
				Regulation:     regulation,
				Section:        clause.Section,
				Title:          clause.Title,
				Content:        clause.Content,
				RelevanceScore: score,
				Source:         string(regulation) + " " + clause.Section,
			})
		}

		sort.SliceStable(family, func(i, j int) bool {
			return family[i].RelevanceScore > family[j].RelevanceScore
		})
		if len(family) > maxPerRegulation {
			family = family[:maxPerRegulation]
		}
		contexts = append(contexts, family...)
	}

	sort.SliceStable(contexts, func(i, j int) bool {
		return contexts[i].RelevanceScore > contexts[j].RelevanceScore
	})

	r.logger.Debug("retrieved %d regulatory contexts", len(contexts))
	return contexts
}

// familyRule is one hand-coded compliance rule: the family becomes relevant
// when a retrieved context exists for it and a trigger word appears in the
// text; a violation is emitted when a signal additionally matches.
type familyRule struct {
	regulation     Regulation
	triggers       []string
	signals        []string
	caseSensitive  bool
	issue          string
	severity       violation.Severity
	recommendation string
}

var familyRules = []familyRule{
	{
		regulation:     RegulationGDPR,
		triggers:       []string{"personal data", "gdpr"},
		signals:        []string{"password", "email"},
		issue:          "Potential personal data exposure",
		severity:       violation.SeverityHigh,
		recommendation: "Ensure personal data is processed lawfully and securely",
	},
	{
		regulation:     RegulationPCIDSS,
		triggers:       []string{"card", "payment"},
		signals:        []string{"sk_", "pk_"},
		caseSensitive:  true,
		issue:          "Payment card data security violation",
		severity:       violation.SeverityCritical,
		recommendation: "Encrypt all payment card data and follow PCI-DSS requirements",
	},
	{
		regulation:     RegulationHIPAA,
		triggers:       []string{"health", "medical"},
		signals:        []string{"patient", "medical"},
		issue:          "Potential PHI exposure",
		severity:       violation.SeverityHigh,
		recommendation: "Implement appropriate safeguards for protected health information",
	},
	{
		regulation:     RegulationSOC2,
		triggers:       []string{"access", "security"},
		signals:        []string{"root", "admin"},
		issue:          "Access control violation",
		severity:       violation.SeverityMedium,
		recommendation: "Implement proper access controls and monitoring",
	},
}

// Analyze retrieves contexts and applies the family rules, producing an
// explicit violation list and a compliance score.
func (r *Retriever) Analyze(text, source string) *Analysis {
	contexts := r.Retrieve(text, DefaultMaxPerRegulation)
	lower := strings.ToLower(text)

	retrieved := make(map[Regulation]bool)
	for _, c := range contexts {
		retrieved[c.Regulation] = true
	}

	violations := []violation.Violation{}
	relevant := []string{}
	for _, rule := range familyRules {
		if !retrieved[rule.regulation] || !containsAny(lower, rule.triggers) {
			continue
		}
		relevant = append(relevant, string(rule.regulation))

		haystack := lower
		if rule.caseSensitive {
			haystack = text
		}
		if !containsAny(haystack, rule.signals) {
			continue
		}

		violations = append(violations, violation.Violation{
			Category:        violation.CategoryRegulatory,
			Issue:           rule.issue,
			Recommendation:  rule.recommendation,
			Severity:        rule.severity,
			ConfidenceScore: ruleConfidence,
			SourceStage:     violation.StageRegulatoryAnalysis,
			Regulation:      string(rule.regulation),
		})
	}

	// checks_passed / checks_total over the relevant families; no relevant
	// family at all means fully compliant.
	score := 100.0
	if len(relevant) > 0 {
		passed := len(relevant) - len(violations)
		score = float64(passed) / float64(len(relevant)) * 100.0
	}

	top := contexts
	if len(top) > 5 {
		top = top[:5]
	}

	r.logger.Debug("regulatory analysis found %d violations across %d regulations",
		len(violations), len(relevant))

	return &Analysis{
		Violations:          violations,
		RelevantRegulations: relevant,
		ComplianceScore:     score,
		Contexts:            top,
	}
}

func containsAny(haystack string, needles []string) bool {
	for _, needle := range needles {
		if strings.Contains(haystack, needle) {
			return true
		}
	}
	return false
}

// Summary aggregates regulatory-stage violations.
type Summary struct {
	TotalViolations     int            `json:"total_regulatory_violations"`
	RelevantRegulations []string       `json:"relevant_regulations"`
	ComplianceScore     float64        `json:"compliance_score"`
	ByRegulation        map[string]int `json:"by_regulation"`
	BySeverity          map[string]int `json:"by_severity"`
}

func Summarize(analysis *Analysis) *Summary {
	summary := &Summary{
		ComplianceScore: 100.0,
		ByRegulation:    make(map[string]int),
		BySeverity:      make(map[string]int),
	}
	if analysis == nil {
		return summary
	}

	summary.TotalViolations = len(analysis.Violations)
	summary.RelevantRegulations = analysis.RelevantRegulations
	summary.ComplianceScore = analysis.ComplianceScore

	for _, v := range analysis.Violations {
		regulation := v.Regulation
		if regulation == "" {
			regulation = "unknown"
		}
		summary.ByRegulation[regulation]++
		summary.BySeverity[string(v.Severity)]++
	}
	return summary
}
