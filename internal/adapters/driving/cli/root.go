// Package cli provides the command-line interface adapter.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/pagelens/pagelens-cli/internal/core/ports/driving"
	"github.com/pagelens/pagelens-cli/internal/logger"
)

// version is set at build time via -ldflags.
var version = "dev"

// pageService is the injected driving port used by all commands.
var pageService driving.PageService

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "pagelens",
	Short: "Turn a web page into a queryable knowledge base",
	Long: `Pagelens fetches a web page, segments it into semantically coherent
chunks, and builds a hybrid keyword + vector index over them. Once a page is
indexed you can search it, or ask questions answered from the page content
with sentence-level citations.`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

// SetPageService injects the page service used by all commands.
func SetPageService(svc driving.PageService) {
	pageService = svc
}

// SetVersion sets the version string reported by the version command.
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
