package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"faq-chatbot-be/cmd/faqctl/ui"
	"faq-chatbot-be/internal/config"
	"faq-chatbot-be/pkg/events"
	pktNats "faq-chatbot-be/pkg/nats"

	"github.com/spf13/cobra"
)

var tailStream string

var tailCmd = &cobra.Command{
	Use:   "tail",
	Short: "Follow chat log rows published to NATS",
	RunE:  runTail,
}

func init() {
	tailCmd.Flags().StringVar(&tailStream, "stream", "", "only show one stream (unanswered, chat, feedback)")
	rootCmd.AddCommand(tailCmd)
}

func runTail(cmd *cobra.Command, args []string) error {
	sub, err := pktNats.NewSubscriber(config.Load().App.NatsURL)
	if err != nil {
		return err
	}
	defer sub.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	subject := pktNats.SubjectPrefix + events.ChatLogType(">")
	if tailStream != "" {
		subject = pktNats.SubjectPrefix + events.ChatLogType(tailStream)
	}

	return sub.Subscribe(ctx, subject, "", func(_ context.Context, event events.Event) error {
		fmt.Println(formatEvent(event))
		return nil
	})
}

func formatEvent(event events.Event) string {
	stream, _ := events.ChatLogStream(event.EventType())
	var values []string
	if raw, ok := event.Payload()["values"].([]interface{}); ok {
		for _, v := range raw {
			values = append(values, fmt.Sprint(v))
		}
	}
	return fmt.Sprintf("[%s] %s", stream, strings.Join(values, " | "))
}
