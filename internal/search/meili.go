package search

import (
	"encoding/json"
	"fmt"
	"log"
	"sync/atomic"
	"time"

	meili "github.com/meilisearch/meilisearch-go"

	"subtext/internal/report"
)

const idxFindings = "subtext_findings"

// Meili implements Searcher via Meilisearch, indexing the active
// report's findings.
type Meili struct {
	client  meili.ServiceManager
	healthy atomic.Bool
	done    chan struct{}
}

// findingDoc is the shape pushed into the findings index.
type findingDoc struct {
	ID          string `json:"id"`
	Index       int    `json:"index"`
	Category    string `json:"category"`
	RiskLevel   string `json:"riskLevel"`
	Description string `json:"description"`
	Quote       string `json:"quote"`
	PageNumber  *int   `json:"pageNumber,omitempty"`
}

// NewMeili creates a Meilisearch client and configures the findings
// index. The caller should proceed without it if the instance stays
// unreachable; the fallback searcher covers that case.
func NewMeili(url, apiKey string) *Meili {
	client := meili.New(url, meili.WithAPIKey(apiKey))

	m := &Meili{
		client: client,
		done:   make(chan struct{}),
	}

	if _, err := client.Health(); err != nil {
		log.Printf("search: meilisearch unavailable at %s: %v", url, err)
		m.healthy.Store(false)
	} else {
		m.healthy.Store(true)
		m.configureIndex()
	}

	go m.healthLoop()
	return m
}

func (m *Meili) configureIndex() {
	if _, err := m.client.CreateIndex(&meili.IndexConfig{
		Uid:        idxFindings,
		PrimaryKey: "id",
	}); err != nil {
		log.Printf("search: create index %s (may already exist): %v", idxFindings, err)
	}

	index := m.client.Index(idxFindings)
	searchable := []string{"category", "description", "quote"}
	if _, err := index.UpdateSearchableAttributes(&searchable); err != nil {
		log.Printf("search: update searchable attrs for %s: %v", idxFindings, err)
	}
}

func (m *Meili) healthLoop() {
	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-m.done:
			return
		case <-ticker.C:
			_, err := m.client.Health()
			wasHealthy := m.healthy.Load()
			m.healthy.Store(err == nil)
			if err == nil && !wasHealthy {
				log.Println("search: meilisearch recovered, reconfiguring index")
				m.configureIndex()
			}
		}
	}
}

// Close stops the background health monitor.
func (m *Meili) Close() {
	close(m.done)
}

// Healthy reports whether Meilisearch is reachable.
func (m *Meili) Healthy() bool {
	return m.healthy.Load()
}

// Index replaces the indexed findings with those of r.
func (m *Meili) Index(r report.Report) error {
	if !m.healthy.Load() {
		return fmt.Errorf("meilisearch unhealthy")
	}

	index := m.client.Index(idxFindings)
	if _, err := index.DeleteAllDocuments(nil); err != nil {
		m.healthy.Store(false)
		return fmt.Errorf("clear findings index: %w", err)
	}
	if len(r.RedFlags) == 0 {
		return nil
	}

	docs := make([]findingDoc, len(r.RedFlags))
	for i, f := range r.RedFlags {
		docs[i] = findingDoc{
			ID:          fmt.Sprintf("finding-%d", i),
			Index:       i,
			Category:    f.Category,
			RiskLevel:   string(f.RiskLevel),
			Description: f.Description,
			Quote:       f.Quote,
			PageNumber:  f.PageNumber,
		}
	}
	if _, err := index.AddDocuments(docs, nil); err != nil {
		m.healthy.Store(false)
		return fmt.Errorf("index findings: %w", err)
	}
	return nil
}

// Clear drops all indexed findings.
func (m *Meili) Clear() error {
	if !m.healthy.Load() {
		return fmt.Errorf("meilisearch unhealthy")
	}
	if _, err := m.client.Index(idxFindings).DeleteAllDocuments(nil); err != nil {
		m.healthy.Store(false)
		return fmt.Errorf("clear findings index: %w", err)
	}
	return nil
}

// Search queries the findings index.
func (m *Meili) Search(q Query) ([]Result, int, error) {
	if !m.healthy.Load() {
		return nil, 0, fmt.Errorf("meilisearch unhealthy")
	}

	limit := int64(q.Limit)
	if limit <= 0 {
		limit = 20
	}

	resp, err := m.client.Index(idxFindings).Search(q.Text, &meili.SearchRequest{
		Limit: limit,
	})
	if err != nil {
		m.healthy.Store(false)
		return nil, 0, fmt.Errorf("meilisearch search: %w", err)
	}

	results := make([]Result, 0, len(resp.Hits))
	for _, hit := range resp.Hits {
		results = append(results, hitToResult(hit))
	}
	return results, int(resp.EstimatedTotalHits), nil
}

func hitToResult(hit meili.Hit) Result {
	r := Result{
		Index:       decodeInt(hit, "index"),
		Category:    decodeString(hit, "category"),
		RiskLevel:   decodeString(hit, "riskLevel"),
		Description: decodeString(hit, "description"),
		Quote:       decodeString(hit, "quote"),
	}
	if page := decodeInt(hit, "pageNumber"); page > 0 {
		r.PageNumber = &page
	}
	return r
}

func decodeString(hit meili.Hit, key string) string {
	raw, ok := hit[key]
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return ""
}

func decodeInt(hit meili.Hit, key string) int {
	raw, ok := hit[key]
	if !ok {
		return 0
	}
	var v int
	if err := json.Unmarshal(raw, &v); err == nil {
		return v
	}
	return 0
}
