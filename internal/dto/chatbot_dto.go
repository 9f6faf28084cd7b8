package dto

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

type ChatRequest struct {
	Question  string `json:"question" validate:"required,notblank"`
	SessionId string `json:"session_id"`
}

type ChatResponse struct {
	Response         string `json:"response"`
	OriginalQuestion string `json:"original_question"`
	ExpandedQuestion string `json:"expanded_question"`
}

// ChatErrorResponse is returned when a mandatory pipeline stage fails.
type ChatErrorResponse struct {
	Response string `json:"response"`
	Error    string `json:"error"`
}

type FeedbackRequest struct {
	Question string        `json:"question" validate:"required"`
	Answer   string        `json:"answer" validate:"required"`
	Feedback FeedbackValue `json:"feedback" validate:"required"`
	Reason   string        `json:"reason"`
}

// FeedbackValue accepts either a JSON string ("good") or a number (1, 0, -1).
type FeedbackValue string

func (f *FeedbackValue) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = FeedbackValue(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	if i, err := n.Int64(); err == nil {
		*f = FeedbackValue(strconv.FormatInt(i, 10))
		return nil
	}
	*f = FeedbackValue(n.String())
	return nil
}

type FeedbackResponse struct {
	Status string `json:"status"`
}

type DomainStatsResponse struct {
	Domain    string `json:"domain"`
	FAQ       int    `json:"faq_entries"`
	Knowledge int    `json:"knowledge_entries"`
	Vectors   int    `json:"vectors"`
	Dimension int    `json:"dimension"`
	Drift     int    `json:"drift"`
}

type CorpusStatusResponse struct {
	Domains []DomainStatsResponse `json:"domains"`
}

// ChatSocketMessage is one inbound or outbound websocket frame.
type ChatSocketMessage struct {
	Type      string        `json:"type"` // "question", "answer", "error"
	Question  string        `json:"question,omitempty"`
	SessionId string        `json:"session_id,omitempty"`
	Answer    *ChatResponse `json:"answer,omitempty"`
	Error     string        `json:"error,omitempty"`
}
