package commands

import (
	"faq-chatbot-be/cmd/faqctl/ui"

	"github.com/spf13/cobra"
)

var noColor bool

var rootCmd = &cobra.Command{
	Use:   "faqctl",
	Short: "Operator tool for the FAQ chatbot",
	Long: `faqctl runs the answer pipeline locally, checks that every corpus
matches its vector index, converts numpy vector dumps to the native index
format, and follows chat log events published to NATS.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		ui.Init(noColor)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
