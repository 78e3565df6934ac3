package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var askURL string

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a question about the indexed page",
	Long: `Answers a question from the indexed page content. The answer is
generated by the configured LLM and each sentence is attributed back to the
source chunks it was drawn from. Without an LLM configured, the matching
chunks are printed instead.`,
	Args: cobra.ExactArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().StringVarP(&askURL, "url", "u", "", "index this page before asking")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	if pageService == nil {
		return errors.New("page service not configured")
	}

	ctx := cmd.Context()
	if askURL != "" {
		if _, err := pageService.IndexPage(ctx, askURL); err != nil {
			return fmt.Errorf("index failed: %w", err)
		}
	}

	answer, err := pageService.Ask(ctx, args[0])
	if err != nil {
		return fmt.Errorf("ask failed: %w", err)
	}

	if answer.Text == "" {
		if len(answer.Results) == 0 {
			cmd.Println("Nothing relevant found on the page.")
			return nil
		}
		cmd.Println("No answer generator configured; closest matches:")
		cmd.Println()
		return outputSearchText(cmd, answer.Results)
	}

	cmd.Println(answer.Text)

	if len(answer.Citations) > 0 {
		cmd.Println()
		cmd.Println("Sources:")
		for _, c := range answer.Citations {
			refs := make([]string, len(c.SourceIndices))
			for i, idx := range c.SourceIndices {
				refs[i] = fmt.Sprintf("[%d]", idx+1)
			}
			sentence := snippet(answer.Text[c.Start:c.End], 80)
			cmd.Printf("  %s %s (%.2f)\n", strings.Join(refs, ""), sentence, c.Confidence)
		}
	}
	if len(answer.Results) > 0 {
		cmd.Println()
		for i := range answer.Results {
			heading := strings.Join(answer.Results[i].Chunk.HeadingPath, " > ")
			if heading == "" {
				heading = answer.Results[i].Chunk.ID
			}
			cmd.Printf("  [%d] %s\n", i+1, heading)
		}
	}
	return nil
}
