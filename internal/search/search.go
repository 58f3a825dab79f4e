// Package search provides project search over Meilisearch with an in-memory fallback.
package search

// Result is a single search hit returned to the caller.
type Result struct {
	ID           string   `json:"id"`
	Title        string   `json:"title"`
	Snippet      string   `json:"snippet"`
	Technologies []string `json:"technologies"`
	Featured     bool     `json:"featured"`
}

// Query describes a search request.
type Query struct {
	Text  string
	Limit int
}

// Response is the envelope returned by the search endpoint. Titles and
// snippets are plain text on every backend.
type Response struct {
	Results []Result `json:"results"`
	Total   int      `json:"total"`
	Query   string   `json:"query"`
	Backend string   `json:"backend"`
}

// ProjectRecord is the data we index for a project.
type ProjectRecord struct {
	ID           string   `json:"id"`
	Title        string   `json:"title"`
	Description  string   `json:"description"`
	Technologies []string `json:"technologies"`
	Featured     bool     `json:"featured"`
}

const (
	defaultLimit = 20
	maxLimit     = 100
)

func (q Query) limit() int {
	switch {
	case q.Limit <= 0:
		return defaultLimit
	case q.Limit > maxLimit:
		return maxLimit
	default:
		return q.Limit
	}
}
