package search

import (
	"log"

	"subtext/internal/report"
)

// Service is the facade that tries Meilisearch first and falls back to
// the in-memory scan. The memory index is always maintained so the
// fallback is never stale.
type Service struct {
	meili  *Meili
	memory *Memory
}

// NewService creates a search service. meili may be nil if Meilisearch
// is not configured.
func NewService(meili *Meili, memory *Memory) *Service {
	return &Service{meili: meili, memory: memory}
}

// Index replaces the indexed findings with those of the newly active
// report. Meilisearch indexing is fire-and-forget; the memory index is
// updated synchronously.
func (s *Service) Index(r report.Report) {
	s.memory.Index(r)
	if s.meili == nil || !s.meili.Healthy() {
		return
	}
	go func() {
		if err := s.meili.Index(r); err != nil {
			log.Printf("search: index findings: %v", err)
		}
	}()
}

// Clear drops the findings from both indexes.
func (s *Service) Clear() {
	s.memory.Clear()
	if s.meili == nil || !s.meili.Healthy() {
		return
	}
	go func() {
		if err := s.meili.Clear(); err != nil {
			log.Printf("search: clear findings: %v", err)
		}
	}()
}

// Search tries Meilisearch if healthy, otherwise falls back to the
// memory scan.
func (s *Service) Search(q Query) Response {
	if s.meili != nil && s.meili.Healthy() {
		results, total, err := s.meili.Search(q)
		if err == nil {
			return Response{Results: nonNil(results), Total: total, Query: q.Text}
		}
		log.Printf("search: meilisearch error, falling back to memory scan: %v", err)
	}

	results, total, err := s.memory.Search(q)
	if err != nil {
		log.Printf("search: memory scan error: %v", err)
		return Response{Results: []Result{}, Total: 0, Query: q.Text}
	}
	return Response{Results: nonNil(results), Total: total, Query: q.Text}
}

func nonNil(results []Result) []Result {
	if results == nil {
		return []Result{}
	}
	return results
}
