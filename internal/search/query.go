package search

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"
)

// Sort orders.
const (
	SortRelevance = "relevance"
	SortTitle     = "title"
	SortRecent    = "recent"
)

// Params configures a search.
type Params struct {
	OwnerID string // Required; results never cross owners
	Query   string

	// RootsOnly excludes variations.
	RootsOnly bool

	Limit  int
	Offset int

	SortBy string // SortRelevance (default), SortTitle, SortRecent
}

// DefaultParams returns params with the default page size.
func DefaultParams(ownerID, q string) Params {
	return Params{
		OwnerID: ownerID,
		Query:   q,
		Limit:   20,
		SortBy:  SortRelevance,
	}
}

// Result is one page of search hits.
type Result struct {
	Query  string `json:"query"`
	Total  uint64 `json:"total"`
	TookMs int64  `json:"took_ms"`
	Hits   []Hit  `json:"hits"`
}

// Hit is a single matching recipe.
type Hit struct {
	ID         string            `json:"id"`
	Score      float64           `json:"score"`
	Title      string            `json:"title"`
	Highlights map[string]string `json:"highlights,omitempty"`
}

// ErrOwnerRequired is returned when Params.OwnerID is empty.
var ErrOwnerRequired = errors.New("search: owner id required")

// Search runs params against the index.
func (s *Index) Search(ctx context.Context, params Params) (*Result, error) {
	if params.OwnerID == "" {
		return nil, ErrOwnerRequired
	}
	if params.Limit <= 0 {
		params.Limit = 20
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	req := bleve.NewSearchRequestOptions(buildSearchQuery(params), params.Limit, params.Offset, false)
	addSorting(req, params)

	if params.Query != "" {
		req.Highlight = bleve.NewHighlight()
		req.Highlight.AddField("title")
	}
	req.Fields = []string{"title"}

	res, err := s.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("execute search: %w", err)
	}

	result := &Result{
		Query:  params.Query,
		Total:  res.Total,
		TookMs: res.Took.Milliseconds(),
		Hits:   make([]Hit, 0, len(res.Hits)),
	}
	for _, h := range res.Hits {
		hit := Hit{ID: h.ID, Score: h.Score}
		if t, ok := h.Fields["title"].(string); ok {
			hit.Title = t
		}
		if len(h.Fragments) > 0 {
			hit.Highlights = make(map[string]string)
			for field, fragments := range h.Fragments {
				if len(fragments) > 0 {
					hit.Highlights[field] = fragments[0]
				}
			}
		}
		result.Hits = append(result.Hits, hit)
	}
	return result, nil
}

// buildSearchQuery ANDs the owner filter with the text query and optional root filter.
// The text query ORs title, ingredient and body matches so any of them can surface a recipe,
// with title matches weighted highest.
func buildSearchQuery(params Params) query.Query {
	owner := bleve.NewTermQuery(params.OwnerID)
	owner.SetField("owner_id")
	queries := []query.Query{owner}

	if q := strings.TrimSpace(params.Query); q != "" {
		var text []query.Query

		titleMatch := bleve.NewMatchQuery(q)
		titleMatch.SetField("title")
		titleMatch.SetBoost(3.0)
		text = append(text, titleMatch)

		ingredientMatch := bleve.NewMatchQuery(q)
		ingredientMatch.SetField("ingredients")
		ingredientMatch.SetBoost(1.5)
		text = append(text, ingredientMatch)

		descMatch := bleve.NewMatchQuery(q)
		descMatch.SetField("description")
		text = append(text, descMatch)

		instrMatch := bleve.NewMatchQuery(q)
		instrMatch.SetField("instructions")
		instrMatch.SetBoost(0.5)
		text = append(text, instrMatch)

		// Typo tolerance on titles.
		fuzzy := bleve.NewFuzzyQuery(strings.ToLower(q))
		fuzzy.SetFuzziness(1)
		fuzzy.SetField("title")
		fuzzy.SetBoost(0.8)
		text = append(text, fuzzy)

		// Search-as-you-type; single-character prefixes match too much.
		if len(q) >= 2 {
			prefix := bleve.NewPrefixQuery(strings.ToLower(q))
			prefix.SetField("title")
			prefix.SetBoost(0.5)
			text = append(text, prefix)
		}

		queries = append(queries, bleve.NewDisjunctionQuery(text...))
	}

	if params.RootsOnly {
		roots := bleve.NewTermQuery("false")
		roots.SetField("is_variation")
		queries = append(queries, roots)
	}

	if len(queries) == 1 {
		return queries[0]
	}
	return bleve.NewConjunctionQuery(queries...)
}

// addSorting configures sort order. Ties break on ID for stable paging.
func addSorting(req *bleve.SearchRequest, params Params) {
	switch params.SortBy {
	case SortTitle:
		req.SortBy([]string{"title_sort", "_id"})
	case SortRecent:
		req.SortBy([]string{"-created_at", "_id"})
	default:
		req.SortBy([]string{"-_score", "_id"})
	}
}
