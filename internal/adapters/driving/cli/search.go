package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/recall/internal/core/domain"
)

var (
	searchDir    string
	searchGlobal bool
	searchMode   string
	searchLimit  int
	searchOffset int
	searchJSON   bool
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search text found in photos",
	Long: `Searches the text recognised in previously ingested photos.
Results are grouped per photo with the matching text underneath.

Match modes:
  substring  case-insensitive substring (default)
  fulltext   full-text query syntax, ranked by BM25
  fuzzy      fuzzy subsequence match`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().StringVarP(&searchDir, "dir", "d", ".", "only search photos at or below this directory")
	searchCmd.Flags().BoolVarP(&searchGlobal, "global", "g", false, "search every stored photo")
	searchCmd.Flags().StringVarP(&searchMode, "mode", "m", "", "match mode: substring, fulltext or fuzzy")
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", 0, "maximum number of results (default from settings)")
	searchCmd.Flags().IntVar(&searchOffset, "offset", 0, "number of results to skip")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output results as JSON")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	svc, err := requireSearch()
	if err != nil {
		return err
	}

	opts := domain.SearchOptions{
		Directory: searchDir,
		Global:    searchGlobal,
		Limit:     searchLimit,
		Offset:    searchOffset,
	}
	if searchMode != "" {
		mode, err := domain.ParseMatchMode(searchMode)
		if err != nil {
			return fmt.Errorf("%w: unknown mode %q", err, searchMode)
		}
		opts.Mode = mode
	}

	results, err := svc.Search(cmd.Context(), args[0], opts)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if searchJSON {
		return outputSearchJSON(cmd, results)
	}
	outputSearchTable(cmd, results)
	return nil
}

// searchResultJSON is the JSON shape of one result.
type searchResultJSON struct {
	Path    string     `json:"path"`
	ImageID string     `json:"image_id"`
	Score   float64    `json:"score"`
	Matches []spanJSON `json:"matches"`
}

type spanJSON struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
	X          int     `json:"x"`
	Y          int     `json:"y"`
	Width      int     `json:"width"`
	Height     int     `json:"height"`
}

func toSpanJSON(spans []domain.TextSpan) []spanJSON {
	out := make([]spanJSON, 0, len(spans))
	for i := range spans {
		out = append(out, spanJSON{
			Text:       spans[i].Text,
			Confidence: spans[i].Confidence,
			X:          spans[i].Region.X,
			Y:          spans[i].Region.Y,
			Width:      spans[i].Region.Width,
			Height:     spans[i].Region.Height,
		})
	}
	return out
}

func outputSearchJSON(cmd *cobra.Command, results []domain.SearchResult) error {
	out := make([]searchResultJSON, 0, len(results))
	for i := range results {
		out = append(out, searchResultJSON{
			Path:    results[i].Image.Path,
			ImageID: results[i].Image.ID,
			Score:   results[i].Score,
			Matches: toSpanJSON(results[i].Spans),
		})
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func outputSearchTable(cmd *cobra.Command, results []domain.SearchResult) {
	if len(results) == 0 {
		cmd.Println("No results found.")
		return
	}

	cmd.Println("Results:")
	cmd.Println()
	for i := range results {
		// Format: [N] path (score)
		cmd.Printf("  [%d] %s (%.2f)\n", i+1, results[i].Image.Path, results[i].Score)
		for j := range results[i].Spans {
			cmd.Printf("      %s\n", oneLine(results[i].Spans[j].Text))
		}
		cmd.Println()
	}
}

// oneLine collapses whitespace so multi-line spans print on a single row.
func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
