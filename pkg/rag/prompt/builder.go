package prompt

import (
	"os"
	"strings"

	ragcontext "faq-chatbot-be/pkg/rag/context"
	"faq-chatbot-be/pkg/rag/response"
)

// Builder renders the system and user prompts of the answer call.
type Builder struct {
	basePrompt string
}

func NewBuilder(basePrompt string) *Builder {
	if strings.TrimSpace(basePrompt) == "" {
		basePrompt = response.DefaultSystemPrompt
	}
	return &Builder{basePrompt: basePrompt}
}

// LoadBasePrompt reads the system prompt file; a missing file yields the built-in prompt.
func LoadBasePrompt(path string) (string, error) {
	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return response.DefaultSystemPrompt, nil
	}
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

// System appends the verbosity instruction of mode, if any, to the base prompt.
func (b *Builder) System(mode response.Mode) string {
	if instruction := mode.Instruction(); instruction != "" {
		return b.basePrompt + "\n\n" + instruction
	}
	return b.basePrompt
}

// User lays out the evidence bundle followed by the question.
func (b *Builder) User(bundle ragcontext.Bundle, question string) string {
	var sb strings.Builder

	sb.WriteString("以下は当社のFAQおよび参考情報です。これらを参考に、ユーザーの質問に製造元の立場でご回答ください。\n\n")

	sb.WriteString("【FAQ】\n")
	sb.WriteString(bundle.FAQPart())
	sb.WriteString("\n\n")

	sb.WriteString("【参考情報】\n")
	sb.WriteString(bundle.ReferencePart())
	sb.WriteString("\n\n")

	sb.WriteString("ユーザーの質問: ")
	sb.WriteString(question)
	sb.WriteString("\n回答：")

	return sb.String()
}
