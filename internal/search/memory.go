package search

import (
	"strings"
	"sync"

	"subtext/internal/report"
)

// Memory implements Searcher with a linear scan over the active
// report's findings. It is the always-available fallback: a report has
// at most a few dozen findings, so a scan is plenty.
type Memory struct {
	mu      sync.RWMutex
	results []Result
}

func NewMemory() *Memory {
	return &Memory{}
}

// Healthy always returns true; the in-memory index has no backend.
func (m *Memory) Healthy() bool {
	return true
}

// Index replaces the indexed findings with those of r.
func (m *Memory) Index(r report.Report) {
	results := make([]Result, len(r.RedFlags))
	for i, f := range r.RedFlags {
		results[i] = toResult(i, f)
	}

	m.mu.Lock()
	m.results = results
	m.mu.Unlock()
}

// Clear drops the index.
func (m *Memory) Clear() {
	m.mu.Lock()
	m.results = nil
	m.mu.Unlock()
}

// Search matches the query case-insensitively against category,
// description and quote, preserving red-flag order.
func (m *Memory) Search(q Query) ([]Result, int, error) {
	text := strings.ToLower(strings.TrimSpace(q.Text))
	if text == "" {
		return nil, 0, nil
	}
	limit := q.Limit
	if limit <= 0 {
		limit = 20
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	var matches []Result
	for _, r := range m.results {
		if strings.Contains(strings.ToLower(r.Category), text) ||
			strings.Contains(strings.ToLower(r.Description), text) ||
			strings.Contains(strings.ToLower(r.Quote), text) {
			matches = append(matches, r)
		}
	}

	total := len(matches)
	if len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, total, nil
}

func toResult(index int, f report.Finding) Result {
	return Result{
		Index:       index,
		Category:    f.Category,
		RiskLevel:   string(f.RiskLevel),
		Description: f.Description,
		Quote:       f.Quote,
		PageNumber:  f.PageNumber,
	}
}
