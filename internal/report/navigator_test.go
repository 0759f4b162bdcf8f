package report

import "testing"

func twoFindingReport() Report {
	page := 3
	return Report{
		Summary:          "test",
		OverallRiskScore: 40,
		RedFlags: []Finding{
			{Category: "Fees", RiskLevel: RiskHigh, PageNumber: &page},
			{Category: "IP", RiskLevel: RiskLow},
		},
	}
}

func TestNavigatorJumpTargets(t *testing.T) {
	nav := NewNavigator(twoFindingReport())

	if idx, ok := nav.Index(); !ok || idx != 0 {
		t.Fatalf("expected cursor at 0, got (%d, %v)", idx, ok)
	}
	if page, ok := nav.JumpTarget(); !ok || page != 3 {
		t.Errorf("expected jump target page 3, got (%d, %v)", page, ok)
	}

	nav.Next()
	if idx, _ := nav.Index(); idx != 1 {
		t.Fatalf("expected cursor at 1 after Next, got %d", idx)
	}
	if _, ok := nav.JumpTarget(); ok {
		t.Error("expected no navigation for finding without page number")
	}
}

func TestNavigatorSaturates(t *testing.T) {
	nav := NewNavigator(twoFindingReport())

	for i := 0; i < 10; i++ {
		nav.Next()
	}
	if idx, _ := nav.Index(); idx != 1 {
		t.Errorf("Next should saturate at last index, got %d", idx)
	}

	for i := 0; i < 10; i++ {
		nav.Previous()
	}
	if idx, _ := nav.Index(); idx != 0 {
		t.Errorf("Previous should saturate at 0, got %d", idx)
	}
}

func TestNavigatorStaysInBounds(t *testing.T) {
	nav := NewNavigator(twoFindingReport())
	moves := []func(){nav.Next, nav.Next, nav.Previous, nav.Next, nav.Previous, nav.Previous, nav.Previous, nav.Next}
	for _, move := range moves {
		move()
		idx, ok := nav.Index()
		if !ok || idx < 0 || idx >= nav.Len() {
			t.Fatalf("cursor escaped bounds: (%d, %v) with %d findings", idx, ok, nav.Len())
		}
	}
}

func TestNavigatorEmptyReport(t *testing.T) {
	nav := NewNavigator(Report{Summary: "empty", OverallRiskScore: 90})

	if _, ok := nav.Index(); ok {
		t.Error("expected absent cursor for empty report")
	}
	if _, ok := nav.Current(); ok {
		t.Error("expected no current finding for empty report")
	}
	if _, ok := nav.JumpTarget(); ok {
		t.Error("expected no jump target for empty report")
	}

	// Moves on an empty report must stay no-ops.
	nav.Next()
	nav.Previous()
	nav.JumpTo(5)
	if _, ok := nav.Index(); ok {
		t.Error("cursor appeared after moves on empty report")
	}
}

func TestNavigatorJumpToClamps(t *testing.T) {
	nav := NewNavigator(twoFindingReport())

	nav.JumpTo(99)
	if idx, _ := nav.Index(); idx != 1 {
		t.Errorf("JumpTo(99) should clamp to 1, got %d", idx)
	}

	nav.JumpTo(-4)
	if idx, _ := nav.Index(); idx != 0 {
		t.Errorf("JumpTo(-4) should clamp to 0, got %d", idx)
	}
}

func TestNavigatorAdoptResetsCursor(t *testing.T) {
	nav := NewNavigator(twoFindingReport())
	nav.Next()

	nav.Adopt(twoFindingReport())
	if idx, _ := nav.Index(); idx != 0 {
		t.Errorf("Adopt should reset cursor to 0, got %d", idx)
	}
}
