// Package report defines the structured result of analyzing a document
// and the navigation cursor over its findings.
package report

import (
	"encoding/json"
	"fmt"
)

// RiskLevel classifies the severity of a single finding.
type RiskLevel string

const (
	RiskLow    RiskLevel = "Low"
	RiskMedium RiskLevel = "Medium"
	RiskHigh   RiskLevel = "High"
)

// Valid reports whether the level is one the analysis service may emit.
func (l RiskLevel) Valid() bool {
	switch l {
	case RiskLow, RiskMedium, RiskHigh:
		return true
	}
	return false
}

// Finding is one detected risk item within a report.
type Finding struct {
	Category    string    `json:"category"`
	RiskLevel   RiskLevel `json:"risk_level"`
	Description string    `json:"description"`
	Quote       string    `json:"quote"`
	PageNumber  *int      `json:"page_number,omitempty"`
}

// Page returns the page the finding is localized to. The second return
// is false when the finding carries no usable location; a zero or
// negative page number from the service counts as no location.
func (f Finding) Page() (int, bool) {
	if f.PageNumber == nil || *f.PageNumber <= 0 {
		return 0, false
	}
	return *f.PageNumber, true
}

// Report is the full structured result of analyzing one document.
// RedFlags order is the presentation order and is preserved through
// persistence; a report is never mutated after it is received.
type Report struct {
	Summary          string    `json:"summary"`
	OverallRiskScore int       `json:"overall_risk_score"`
	RedFlags         []Finding `json:"red_flags"`
}

// Validate checks the shape the analysis service promises. The overall
// score is range-checked only; the client never recomputes it from the
// findings.
func (r Report) Validate() error {
	if r.OverallRiskScore < 0 || r.OverallRiskScore > 100 {
		return fmt.Errorf("overall_risk_score %d out of range", r.OverallRiskScore)
	}
	for i, f := range r.RedFlags {
		if !f.RiskLevel.Valid() {
			return fmt.Errorf("red_flags[%d]: unknown risk_level %q", i, f.RiskLevel)
		}
	}
	return nil
}

// Parse decodes and validates a report payload.
func Parse(data []byte) (Report, error) {
	var r Report
	if err := json.Unmarshal(data, &r); err != nil {
		return Report{}, fmt.Errorf("decode report: %w", err)
	}
	if err := r.Validate(); err != nil {
		return Report{}, fmt.Errorf("invalid report: %w", err)
	}
	return r, nil
}
