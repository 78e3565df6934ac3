package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Drop the current index and cached embeddings",
	RunE:  runClear,
}

func init() {
	rootCmd.AddCommand(clearCmd)
}

func runClear(cmd *cobra.Command, _ []string) error {
	if pageService == nil {
		return errors.New("page service not configured")
	}
	if err := pageService.Clear(cmd.Context()); err != nil {
		return fmt.Errorf("clear failed: %w", err)
	}
	cmd.Println("Index cleared.")
	return nil
}
