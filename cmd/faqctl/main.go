package main

import (
	"fmt"
	"os"

	"faq-chatbot-be/cmd/faqctl/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
