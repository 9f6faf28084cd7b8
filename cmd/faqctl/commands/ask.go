package commands

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"faq-chatbot-be/cmd/faqctl/ui"
	"faq-chatbot-be/internal/bootstrap"
	"faq-chatbot-be/internal/config"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var (
	askQuestion string
	askSession  string
)

var askCmd = &cobra.Command{
	Use:   "ask",
	Short: "Ask the chatbot a question through the local pipeline",
	Long:  "Builds the same pipeline as the REST server and answers one question, or reads questions from stdin when --question is omitted.",
	RunE:  runAsk,
}

func init() {
	askCmd.Flags().StringVarP(&askQuestion, "question", "q", "", "question to ask (interactive when empty)")
	askCmd.Flags().StringVarP(&askSession, "session", "s", "", "session id (random when empty)")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	container, err := bootstrap.NewContainer(ctx, config.Load())
	if err != nil {
		return fmt.Errorf("bootstrap: %w", err)
	}
	defer container.Close()

	if err := container.ConsumerService.Consume(ctx); err != nil {
		return fmt.Errorf("start log consumer: %w", err)
	}

	session := askSession
	if session == "" {
		session = uuid.NewString()
	}

	ask := func(q string) error {
		res, err := container.ChatbotService.Answer(ctx, q, session)
		if err != nil {
			return err
		}
		if res.ExpandedQuestion != res.OriginalQuestion {
			ui.Dim("expanded: %s", res.ExpandedQuestion)
		}
		fmt.Println(res.Response)
		return nil
	}

	if askQuestion != "" {
		return ask(askQuestion)
	}

	ui.KeyValue("session", session)
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return scanner.Err()
		}
		q := strings.TrimSpace(scanner.Text())
		if q == "" {
			continue
		}
		if err := ask(q); err != nil {
			ui.Fail("%v", err)
		}
	}
}
