package cache

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/go-cmp/cmp"

	"subtext/internal/report"
)

func setupTestRedis(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	s := miniredis.RunT(t)
	store, err := NewRedisStore("redis://" + s.Addr())
	if err != nil {
		t.Fatalf("failed to create redis store: %v", err)
	}
	return store, s
}

func sampleReport() report.Report {
	page := 3
	return report.Report{
		Summary:          "Aggressive fee clauses.",
		OverallRiskScore: 40,
		RedFlags: []report.Finding{
			{Category: "Fees", RiskLevel: report.RiskHigh, Description: "Compounding late fees.", Quote: "10% per week", PageNumber: &page},
			{Category: "IP", RiskLevel: report.RiskLow, Description: "Derivative works unclear."},
			{Category: "Termination", RiskLevel: report.RiskMedium, Description: "Unilateral termination."},
		},
	}
}

func TestNewRedisStore(t *testing.T) {
	s := miniredis.RunT(t)
	defer s.Close()

	store, err := NewRedisStore("redis://" + s.Addr())
	if err != nil {
		t.Fatalf("NewRedisStore failed: %v", err)
	}
	defer store.Close()

	ctx := context.Background()
	if err := store.Ping(ctx); err != nil {
		t.Errorf("Ping failed: %v", err)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	store, s := setupTestRedis(t)
	defer store.Close()
	defer s.Close()

	ctx := context.Background()
	want := sampleReport()

	if err := store.Save(ctx, want); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	got, ok, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !ok {
		t.Fatal("expected stored report, got absent")
	}
	// Finding order is presentation order and must survive the round trip.
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("round-trip mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadAbsent(t *testing.T) {
	store, s := setupTestRedis(t)
	defer store.Close()
	defer s.Close()

	_, ok, err := store.Load(context.Background())
	if err != nil {
		t.Fatalf("Load of absent report errored: %v", err)
	}
	if ok {
		t.Error("expected absent, got a report")
	}
}

func TestLoadCorruptValue(t *testing.T) {
	store, s := setupTestRedis(t)
	defer store.Close()
	defer s.Close()

	s.Set(reportKey, "{not json")

	_, ok, err := store.Load(context.Background())
	if err == nil {
		t.Error("expected error for corrupt stored report, got nil")
	}
	if ok {
		t.Error("corrupt value should not yield a report")
	}
}

func TestSaveOverwrites(t *testing.T) {
	store, s := setupTestRedis(t)
	defer store.Close()
	defer s.Close()

	ctx := context.Background()
	first := sampleReport()
	if err := store.Save(ctx, first); err != nil {
		t.Fatalf("first Save failed: %v", err)
	}

	second := report.Report{Summary: "replacement", OverallRiskScore: 85}
	if err := store.Save(ctx, second); err != nil {
		t.Fatalf("second Save failed: %v", err)
	}

	got, ok, err := store.Load(ctx)
	if err != nil || !ok {
		t.Fatalf("Load after overwrite failed: ok=%v err=%v", ok, err)
	}
	if got.Summary != "replacement" {
		t.Errorf("expected replacement report, got %q", got.Summary)
	}
}

func TestClearIdempotent(t *testing.T) {
	store, s := setupTestRedis(t)
	defer store.Close()
	defer s.Close()

	ctx := context.Background()
	if err := store.Save(ctx, sampleReport()); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	if err := store.Clear(ctx); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	if err := store.Clear(ctx); err != nil {
		t.Errorf("second Clear failed: %v", err)
	}

	_, ok, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("Load after Clear errored: %v", err)
	}
	if ok {
		t.Error("expected absent after Clear")
	}
}
