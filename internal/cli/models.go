package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"ragserver/internal/app"
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List available LLM models",
	RunE:  runModels,
}

func init() {
	rootCmd.AddCommand(modelsCmd)
}

func runModels(cmd *cobra.Command, args []string) error {
	a := app.New(GetConfig())

	chat, err := a.LLM()
	if err != nil {
		return fmt.Errorf("failed to create llm client: %w", err)
	}

	models, err := chat.ListModels()
	if err != nil {
		return fmt.Errorf("failed to list models: %w", err)
	}
	if len(models) == 0 {
		fmt.Println("No models available.")
		return nil
	}
	for _, m := range models {
		fmt.Println(m)
	}
	return nil
}
