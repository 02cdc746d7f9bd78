package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a one-off question without the voice loop",
	Long: `Sends a single question to the configured language model and prints the
answer. Useful for checking API keys and the model choice without a
microphone.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func init() {
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	// A model set through the configure workflow applies here too
	if _, err := loadSettingsOverrides(); err != nil {
		return err
	}
	if err := cfg.ValidateText(); err != nil {
		return err
	}

	ctx := setupContext()

	openaiProvider := createOpenAIProvider(cfg.OpenAIAPIKey)
	gateway := createGateway(cfg, openaiProvider)

	answer, err := gateway.Generate(ctx, strings.Join(args, " "), nil)
	if err != nil {
		return err
	}
	fmt.Println(answer)
	return nil
}
