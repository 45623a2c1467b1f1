package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"ragserver/internal/app"
)

var (
	askTopK  int
	askModel string
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a question about indexed documents",
	Long: `Retrieve the chunks most relevant to the question and ask the
configured language model for a grounded answer.

Examples:
  ragserver ask "What is the refund policy?"
  ragserver ask -k 3 -m mistral "Summarize the design doc"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().IntVarP(&askTopK, "top-k", "k", 5, "number of chunks to retrieve")
	askCmd.Flags().StringVarP(&askModel, "model", "m", "", "LLM model to use (default from config)")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	question := strings.Join(args, " ")

	a := app.New(GetConfig())
	defer a.Close()

	answerer, err := a.Answerer()
	if err != nil {
		return fmt.Errorf("failed to build answerer: %w", err)
	}

	answer, err := answerer.Answer(question, askTopK, askModel)
	if err != nil {
		return err
	}

	fmt.Println(answer.Answer)
	if len(answer.Sources) > 0 {
		fmt.Println()
		for i, id := range answer.Sources {
			src := id
			if name := answer.Metadatas[i]["source_filename"]; name != "" {
				src = fmt.Sprintf("%s (%s)", id, name)
			}
			fmt.Printf("  [%d] %s\n", i+1, src)
		}
	}
	return nil
}
