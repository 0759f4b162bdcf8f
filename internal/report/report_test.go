package report

import (
	"strconv"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func intPtr(v int) *int { return &v }

func TestParseValidReport(t *testing.T) {
	payload := `{
		"summary": "Aggressive fee structure with weak IP protections.",
		"overall_risk_score": 40,
		"red_flags": [
			{"category": "Fees", "risk_level": "High", "description": "Compounding late fees.", "quote": "a late fee of 10% per week", "page_number": 3},
			{"category": "IP", "risk_level": "Low", "description": "Ambiguous ownership of derivative works.", "quote": ""}
		]
	}`

	r, err := Parse([]byte(payload))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	want := Report{
		Summary:          "Aggressive fee structure with weak IP protections.",
		OverallRiskScore: 40,
		RedFlags: []Finding{
			{Category: "Fees", RiskLevel: RiskHigh, Description: "Compounding late fees.", Quote: "a late fee of 10% per week", PageNumber: intPtr(3)},
			{Category: "IP", RiskLevel: RiskLow, Description: "Ambiguous ownership of derivative works."},
		},
	}
	if diff := cmp.Diff(want, r); diff != "" {
		t.Errorf("parsed report mismatch (-want +got):\n%s", diff)
	}
}

func TestParseRejectsMalformedJSON(t *testing.T) {
	if _, err := Parse([]byte(`{"summary": "truncated`)); err == nil {
		t.Error("expected error for malformed JSON, got nil")
	}
}

func TestParseRejectsOutOfRangeScore(t *testing.T) {
	for _, score := range []int{-1, 101} {
		payload := []byte(`{"summary": "x", "overall_risk_score": ` + strconv.Itoa(score) + `, "red_flags": []}`)
		if _, err := Parse(payload); err == nil {
			t.Errorf("expected error for score %d, got nil", score)
		}
	}
}

func TestParseRejectsUnknownRiskLevel(t *testing.T) {
	payload := []byte(`{
		"summary": "x",
		"overall_risk_score": 50,
		"red_flags": [{"category": "Fees", "risk_level": "Critical", "description": "", "quote": ""}]
	}`)
	if _, err := Parse(payload); err == nil {
		t.Error("expected error for unknown risk_level, got nil")
	}
}

func TestFindingPage(t *testing.T) {
	tests := []struct {
		name     string
		page     *int
		want     int
		wantOK   bool
	}{
		{name: "present", page: intPtr(3), want: 3, wantOK: true},
		{name: "absent", page: nil},
		{name: "zero treated as absent", page: intPtr(0)},
		{name: "negative treated as absent", page: intPtr(-2)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := Finding{PageNumber: tt.page}
			got, ok := f.Page()
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("Page() = (%d, %v), want (%d, %v)", got, ok, tt.want, tt.wantOK)
			}
		})
	}
}
