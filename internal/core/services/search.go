package services

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/sahilm/fuzzy"

	"github.com/custodia-labs/recall/internal/core/domain"
	"github.com/custodia-labs/recall/internal/core/ports/driven"
	"github.com/custodia-labs/recall/internal/core/ports/driving"
	"github.com/custodia-labs/recall/internal/logger"
)

// Ensure SearchService implements the interface.
var _ driving.SearchService = (*SearchService)(nil)

// SearchService matches queries against stored OCR spans.
type SearchService struct {
	images   driven.ImageStore
	defaults domain.SearchSettings
}

// NewSearchService creates a new search service.
// defaults supplies the mode and limit used when options leave them unset.
func NewSearchService(images driven.ImageStore, defaults domain.SearchSettings) *SearchService {
	if !defaults.Mode.IsValid() {
		defaults.Mode = domain.MatchSubstring
	}
	if defaults.Limit <= 0 {
		defaults.Limit = domain.DefaultSearchLimit
	}
	return &SearchService{
		images:   images,
		defaults: defaults,
	}
}

// Search returns images whose spans match the query, best first.
func (s *SearchService) Search(
	ctx context.Context, query string, opts domain.SearchOptions,
) ([]domain.SearchResult, error) {
	logger.Section("Search Execution")
	logger.Debug("Query: %q", query)

	query = strings.TrimSpace(query)
	if query == "" {
		logger.Debug("Empty query, returning no results")
		return []domain.SearchResult{}, nil
	}

	mode := opts.Mode
	if mode == "" {
		mode = s.defaults.Mode
	}
	if !mode.IsValid() {
		return nil, fmt.Errorf("%w: unknown match mode %q", domain.ErrInvalidQuery, mode)
	}

	limit := opts.Limit
	if limit <= 0 {
		limit = s.defaults.Limit
	}

	directory := ""
	if !opts.Global && opts.Directory != "" {
		abs, err := filepath.Abs(opts.Directory)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", domain.ErrInvalidInput, err)
		}
		directory = resolveSymlinks(abs)
	}
	logger.Debug("Mode: %s, directory: %q, limit: %d, offset: %d", mode, directory, limit, opts.Offset)

	var matches []domain.SpanMatch
	var err error
	switch mode {
	case domain.MatchFuzzy:
		matches, err = s.fuzzyMatches(ctx, query, directory)
	case domain.MatchFullText:
		if verr := validateFullTextQuery(query); verr != nil {
			return nil, verr
		}
		fallthrough
	default:
		matches, err = s.images.SearchSpans(ctx, driven.SpanQuery{Text: query, Mode: mode, Directory: directory})
	}
	if err != nil {
		return nil, err
	}
	logger.Debug("Matched %d spans", len(matches))

	results := paginate(groupMatches(matches), opts.Offset, limit)
	logger.Debug("Returning %d results", len(results))
	return results, nil
}

// spanSource adapts span matches to fuzzy.Source.
type spanSource []domain.SpanMatch

func (s spanSource) String(i int) string { return s[i].Span.Text }
func (s spanSource) Len() int            { return len(s) }

// fuzzyMatches scores every span in scope with a subsequence matcher.
func (s *SearchService) fuzzyMatches(ctx context.Context, query, directory string) ([]domain.SpanMatch, error) {
	spans, err := s.images.ListSpans(ctx, directory)
	if err != nil {
		return nil, err
	}

	found := fuzzy.FindFrom(query, spanSource(spans))
	matches := make([]domain.SpanMatch, 0, len(found))
	for _, f := range found {
		m := spans[f.Index]
		m.Score = float64(f.Score)
		matches = append(matches, m)
	}
	return matches, nil
}

// scoredSpan keeps a span's own score while grouping.
type scoredSpan struct {
	span  domain.TextSpan
	score float64
}

// groupMatches collects span matches per image and orders them.
// Images sort by best score, then by number of matching spans, then by path.
func groupMatches(matches []domain.SpanMatch) []domain.SearchResult {
	type group struct {
		result domain.SearchResult
		spans  []scoredSpan
	}

	groups := make(map[string]*group)
	for _, m := range matches {
		g, ok := groups[m.Image.ID]
		if !ok {
			g = &group{result: domain.SearchResult{Image: m.Image, Score: m.Score}}
			groups[m.Image.ID] = g
		}
		if m.Score > g.result.Score {
			g.result.Score = m.Score
		}
		g.spans = append(g.spans, scoredSpan{span: m.Span, score: m.Score})
	}

	results := make([]domain.SearchResult, 0, len(groups))
	for _, g := range groups {
		sort.SliceStable(g.spans, func(i, j int) bool {
			if g.spans[i].score != g.spans[j].score {
				return g.spans[i].score > g.spans[j].score
			}
			return g.spans[i].span.Position < g.spans[j].span.Position
		})
		g.result.Spans = make([]domain.TextSpan, len(g.spans))
		for i, sp := range g.spans {
			g.result.Spans[i] = sp.span
		}
		results = append(results, g.result)
	}

	sort.Slice(results, func(i, j int) bool {
		a, b := results[i], results[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if len(a.Spans) != len(b.Spans) {
			return len(a.Spans) > len(b.Spans)
		}
		return a.Image.Path < b.Image.Path
	})
	return results
}

func paginate(results []domain.SearchResult, offset, limit int) []domain.SearchResult {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(results) {
		return []domain.SearchResult{}
	}
	end := len(results)
	if limit < end-offset {
		end = offset + limit
	}
	return results[offset:end]
}

// validateFullTextQuery rejects queries with unbalanced quotes or parentheses
// before they reach the index.
func validateFullTextQuery(query string) error {
	depth := 0
	inQuote := false
	for _, r := range query {
		switch {
		case r == '"':
			inQuote = !inQuote
		case inQuote:
		case r == '(':
			depth++
		case r == ')':
			depth--
			if depth < 0 {
				return fmt.Errorf("%w: unexpected ')'", domain.ErrInvalidQuery)
			}
		}
	}
	if inQuote {
		return fmt.Errorf("%w: unterminated phrase", domain.ErrInvalidQuery)
	}
	if depth != 0 {
		return fmt.Errorf("%w: unbalanced parentheses", domain.ErrInvalidQuery)
	}
	return nil
}
