package response

import "unicode/utf8"

// Mode controls how verbose the final answer should be
type Mode string

const (
	ModeShort   Mode = "short"
	ModeDefault Mode = "default"
	ModeLong    Mode = "long"

	shortBelow = 30
	longAbove  = 100
)

const (
	shortInstruction = "可能な限り簡潔かつ要点のみで回答してください。"
	longInstruction  = "詳細な説明や具体例を含めて丁寧に回答してください。"
)

// SelectMode classifies by character count: <30 short, >100 long, otherwise default.
func SelectMode(question string) Mode {
	n := utf8.RuneCountInString(question)
	switch {
	case n < shortBelow:
		return ModeShort
	case n > longAbove:
		return ModeLong
	default:
		return ModeDefault
	}
}

// Instruction is the text appended to the system prompt for m, empty for default.
func (m Mode) Instruction() string {
	switch m {
	case ModeShort:
		return shortInstruction
	case ModeLong:
		return longInstruction
	}
	return ""
}
