// Package search locates findings in the active report by keyword, so
// the viewer can jump the risk cursor straight to a match.
package search

// Result is a single finding hit. Index is the finding's position in
// the report's red-flag order and can be fed to the navigator.
type Result struct {
	Index       int    `json:"index"`
	Category    string `json:"category"`
	RiskLevel   string `json:"riskLevel"`
	Description string `json:"description"`
	Quote       string `json:"quote"`
	PageNumber  *int   `json:"pageNumber,omitempty"`
}

// Query describes a finding search request.
type Query struct {
	Text  string
	Limit int
}

// Response is the envelope returned by the search endpoint.
type Response struct {
	Results []Result `json:"results"`
	Total   int      `json:"total"`
	Query   string   `json:"query"`
}

// Searcher can execute a finding search.
type Searcher interface {
	Search(q Query) ([]Result, int, error)
	Healthy() bool
}
