package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var indexCmd = &cobra.Command{
	Use:   "index [url]",
	Short: "Fetch and index a web page",
	Long: `Fetches the page at the given URL, extracts its main content, segments
it into chunks and builds the search index. Embeddings are cached on disk and
reused on re-index while the page content and embedding model are unchanged.

Local HTML files are accepted as plain paths or file:// URLs.`,
	Args: cobra.ExactArgs(1),
	RunE: runIndex,
}

func init() {
	rootCmd.AddCommand(indexCmd)
}

func runIndex(cmd *cobra.Command, args []string) error {
	if pageService == nil {
		return errors.New("page service not configured")
	}

	stats, err := pageService.IndexPage(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("index failed: %w", err)
	}

	if stats.Chunks == 0 {
		cmd.Printf("No indexable content found at %s\n", stats.URL)
		return nil
	}

	cmd.Printf("Indexed %s\n", stats.URL)
	cmd.Printf("  Chunks:   %d\n", stats.Chunks)
	cmd.Printf("  Embedded: %d\n", stats.Embedded)
	if stats.CacheHit {
		cmd.Println("  Embeddings reused from cache")
	}
	return nil
}
