package violation

import "testing"

func TestSeverityRank(t *testing.T) {
	ordered := []Severity{SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical}
	for i := 1; i < len(ordered); i++ {
		if ordered[i-1].Rank() >= ordered[i].Rank() {
			t.Errorf("expected %s < %s", ordered[i-1], ordered[i])
		}
	}
}

func TestParseSeverity(t *testing.T) {
	tests := []struct {
		input    string
		expected Severity
	}{
		{"low", SeverityLow},
		{"MEDIUM", SeverityMedium},
		{"High", SeverityHigh},
		{"critical", SeverityCritical},
		{"", SeverityMedium},
		{"unknown", SeverityMedium},
	}

	for _, tt := range tests {
		if got := ParseSeverity(tt.input); got != tt.expected {
			t.Errorf("ParseSeverity(%q) = %s, want %s", tt.input, got, tt.expected)
		}
	}
}

func TestNormalizeCategory(t *testing.T) {
	tests := []struct {
		input    string
		expected Category
	}{
		{"PII", CategoryPII},
		{"pii", CategoryPII},
		{"Data Sharing", CategoryDataSharing},
		{"security_breach", CategorySecurityBreach},
		{"GDPR", CategoryRegulatory},
		{"compliance_issue", CategoryComplianceIssue},
		{"something made up", CategoryPolicyViolation},
	}

	for _, tt := range tests {
		if got := NormalizeCategory(tt.input); got != tt.expected {
			t.Errorf("NormalizeCategory(%q) = %s, want %s", tt.input, got, tt.expected)
		}
	}
}

func TestViolationValidate(t *testing.T) {
	valid := Violation{
		Category:        CategoryPII,
		Issue:           "SSN detected",
		Severity:        SeverityHigh,
		Span:            &Span{Start: 10, End: 21},
		ConfidenceScore: 0.95,
		SourceStage:     StageRegexScanning,
	}
	if err := valid.Validate(30); err != nil {
		t.Fatalf("valid violation rejected: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*Violation)
	}{
		{"empty issue", func(v *Violation) { v.Issue = "" }},
		{"bad severity", func(v *Violation) { v.Severity = "urgent" }},
		{"confidence above one", func(v *Violation) { v.ConfidenceScore = 1.5 }},
		{"negative confidence", func(v *Violation) { v.ConfidenceScore = -0.1 }},
		{"missing stage", func(v *Violation) { v.SourceStage = "" }},
		{"inverted span", func(v *Violation) { v.Span = &Span{Start: 5, End: 2} }},
		{"span past end", func(v *Violation) { v.Span = &Span{Start: 0, End: 31} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := valid
			tt.mutate(&v)
			if err := v.Validate(30); err == nil {
				t.Errorf("expected validation error")
			}
		})
	}
}
