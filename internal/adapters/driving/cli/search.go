package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pagelens/pagelens-cli/internal/core/domain"
)

var (
	searchURL       string
	searchLimit     int
	searchThreshold float64
	searchNoHybrid  bool
	searchAll       bool
	searchJSON      bool
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search the indexed page",
	Long: `Performs hybrid search over the indexed page, blending keyword (BM25)
and semantic (vector) relevance. Results below the score threshold are
dropped; use --all to disable the threshold.`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().StringVarP(&searchURL, "url", "u", "", "index this page before searching")
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", domain.DefaultSearchLimit, "maximum number of results")
	searchCmd.Flags().Float64VarP(&searchThreshold, "threshold", "t", domain.DefaultSearchThreshold, "minimum blended score")
	searchCmd.Flags().BoolVar(&searchNoHybrid, "no-hybrid", false, "keyword search only, skip vector scoring")
	searchCmd.Flags().BoolVar(&searchAll, "all", false, "return results regardless of score")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output results as JSON")
	rootCmd.AddCommand(searchCmd)
}

// SetSearchDefaults replaces the built-in search flag defaults with the
// user's configured settings. Explicit flags still win.
func SetSearchDefaults(limit int, threshold float64, hybrid bool) {
	flags := searchCmd.Flags()
	if limit > 0 {
		searchLimit = limit
		flags.Lookup("limit").DefValue = strconv.Itoa(limit)
	}
	if threshold >= 0 && threshold <= 1 {
		searchThreshold = threshold
		flags.Lookup("threshold").DefValue = strconv.FormatFloat(threshold, 'g', -1, 64)
	}
	searchNoHybrid = !hybrid
	flags.Lookup("no-hybrid").DefValue = strconv.FormatBool(!hybrid)
}

func runSearch(cmd *cobra.Command, args []string) error {
	query := args[0]

	if pageService == nil {
		return errors.New("page service not configured")
	}

	ctx := cmd.Context()
	if searchURL != "" {
		if _, err := pageService.IndexPage(ctx, searchURL); err != nil {
			return fmt.Errorf("index failed: %w", err)
		}
	}

	opts := domain.SearchOptions{
		Limit:         searchLimit,
		Threshold:     searchThreshold,
		Unthresholded: searchAll,
		Hybrid:        !searchNoHybrid,
	}

	results, err := pageService.Search(ctx, query, opts)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if searchJSON {
		return outputSearchJSON(cmd, results)
	}
	return outputSearchText(cmd, results)
}

func outputSearchJSON(cmd *cobra.Command, results []domain.SearchResult) error {
	data, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func outputSearchText(cmd *cobra.Command, results []domain.SearchResult) error {
	if len(results) == 0 {
		cmd.Println("No results found.")
		return nil
	}

	cmd.Println("Results:")
	cmd.Println()
	for i := range results {
		heading := strings.Join(results[i].Chunk.HeadingPath, " > ")
		if heading == "" {
			heading = results[i].Chunk.ID
		}

		cmd.Printf("  [%d] %s (%.2f)\n", i+1, heading, results[i].Score)
		cmd.Printf("      %s\n", snippet(results[i].Chunk.RawText, 200))
		if results[i].Chunk.Locator.Selector != "" {
			cmd.Printf("      Locator: %s\n", results[i].Chunk.Locator.Selector)
		}
		cmd.Println()
	}
	return nil
}

// snippet truncates text at a rune boundary for terminal display.
func snippet(text string, maxRunes int) string {
	runes := []rune(text)
	if len(runes) <= maxRunes {
		return text
	}
	return string(runes[:maxRunes]) + "..."
}
