package domain

import "strings"

// MatchMode selects how a query is matched against span text.
type MatchMode string

// Available match modes.
const (
	// MatchSubstring finds spans containing the query, ignoring case.
	MatchSubstring MatchMode = "substring"

	// MatchFullText uses the store's full-text index and its query syntax.
	MatchFullText MatchMode = "fulltext"

	// MatchFuzzy scores spans by fuzzy subsequence matching.
	MatchFuzzy MatchMode = "fuzzy"
)

// AllMatchModes returns every match mode in display order.
func AllMatchModes() []MatchMode {
	return []MatchMode{MatchSubstring, MatchFullText, MatchFuzzy}
}

// IsValid returns true if the match mode is recognised.
func (m MatchMode) IsValid() bool {
	switch m {
	case MatchSubstring, MatchFullText, MatchFuzzy:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (m MatchMode) String() string {
	return string(m)
}

// Description returns a human-readable description of the mode.
func (m MatchMode) Description() string {
	switch m {
	case MatchSubstring:
		return "Substring (case-insensitive)"
	case MatchFullText:
		return "Full-text (FTS5 query syntax, ranked by BM25)"
	case MatchFuzzy:
		return "Fuzzy (subsequence match)"
	default:
		return unknownDescription
	}
}

// ParseMatchMode converts user input to a MatchMode.
// Returns ErrInvalidQuery for unknown modes.
func ParseMatchMode(s string) (MatchMode, error) {
	m := MatchMode(strings.ToLower(strings.TrimSpace(s)))
	if !m.IsValid() {
		return "", ErrInvalidQuery
	}
	return m, nil
}

// DefaultSearchLimit is the number of results returned when no limit is set.
const DefaultSearchLimit = 10

// SearchOptions configures a search query.
type SearchOptions struct {
	// Mode selects match semantics. Empty uses the configured default.
	Mode MatchMode

	// Directory restricts results to images at or below this absolute directory.
	Directory string

	// Global ignores Directory and searches every stored image.
	Global bool

	// Limit is the maximum number of results.
	Limit int

	// Offset is the number of results to skip.
	Offset int
}

// SearchResult is one matching image with the spans that matched.
type SearchResult struct {
	// Image is the matched image record.
	Image ImageRecord

	// Spans holds the matching spans, best first.
	Spans []TextSpan

	// Score is the best span score for the image. Higher is better.
	Score float64
}

// SpanMatch is a single scored span returned by a store or matcher.
type SpanMatch struct {
	Image ImageRecord
	Span  TextSpan
	Score float64
}
