package search

import (
	"testing"

	"subtext/internal/report"
)

func indexedMemory() *Memory {
	page := 3
	m := NewMemory()
	m.Index(report.Report{
		Summary:          "test",
		OverallRiskScore: 40,
		RedFlags: []report.Finding{
			{Category: "Fees", RiskLevel: report.RiskHigh, Description: "Late fees compound weekly.", Quote: "a late fee of 10% per week", PageNumber: &page},
			{Category: "IP", RiskLevel: report.RiskLow, Description: "Derivative works ownership is ambiguous."},
			{Category: "Termination", RiskLevel: report.RiskMedium, Description: "Unilateral termination without notice.", Quote: "may terminate at any time"},
		},
	})
	return m
}

func TestMemorySearchMatchesAcrossFields(t *testing.T) {
	m := indexedMemory()

	tests := []struct {
		query     string
		wantIndex int
	}{
		{"fees", 0},          // category
		{"derivative", 1},    // description
		{"terminate at", 2},  // quote
		{"TERMINATION", 2},   // case-insensitive
	}
	for _, tt := range tests {
		results, total, err := m.Search(Query{Text: tt.query})
		if err != nil {
			t.Fatalf("Search(%q) failed: %v", tt.query, err)
		}
		if total == 0 {
			t.Errorf("Search(%q): no results", tt.query)
			continue
		}
		if results[0].Index != tt.wantIndex {
			t.Errorf("Search(%q): first hit index %d, want %d", tt.query, results[0].Index, tt.wantIndex)
		}
	}
}

func TestMemorySearchPreservesOrder(t *testing.T) {
	m := indexedMemory()

	// "te" appears in multiple findings; hits must keep red-flag order.
	results, _, err := m.Search(Query{Text: "te"})
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	last := -1
	for _, r := range results {
		if r.Index <= last {
			t.Fatalf("results out of red-flag order: %+v", results)
		}
		last = r.Index
	}
}

func TestMemorySearchEmptyQuery(t *testing.T) {
	m := indexedMemory()
	results, total, err := m.Search(Query{Text: "   "})
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if total != 0 || len(results) != 0 {
		t.Errorf("blank query should match nothing, got %d", total)
	}
}

func TestMemorySearchLimit(t *testing.T) {
	m := indexedMemory()
	results, total, err := m.Search(Query{Text: "e", Limit: 1})
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(results) != 1 {
		t.Errorf("expected 1 result with limit 1, got %d", len(results))
	}
	if total < len(results) {
		t.Errorf("total %d smaller than returned %d", total, len(results))
	}
}

func TestMemoryClear(t *testing.T) {
	m := indexedMemory()
	m.Clear()
	_, total, err := m.Search(Query{Text: "fees"})
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if total != 0 {
		t.Errorf("expected no hits after Clear, got %d", total)
	}
}

func TestServiceFallsBackWithoutMeili(t *testing.T) {
	svc := NewService(nil, NewMemory())
	page := 2
	svc.Index(report.Report{RedFlags: []report.Finding{
		{Category: "Liability", RiskLevel: report.RiskHigh, Description: "Uncapped liability.", PageNumber: &page},
	}})

	resp := svc.Search(Query{Text: "liability"})
	if resp.Total != 1 || len(resp.Results) != 1 {
		t.Fatalf("expected one hit, got %+v", resp)
	}
	if resp.Results[0].Index != 0 {
		t.Errorf("unexpected hit index %d", resp.Results[0].Index)
	}

	svc.Clear()
	if resp := svc.Search(Query{Text: "liability"}); resp.Total != 0 {
		t.Errorf("expected no hits after Clear, got %d", resp.Total)
	}
}
