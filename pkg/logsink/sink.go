package logsink

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"faq-chatbot-be/pkg/rag"

	"github.com/google/uuid"
)

// Stream names one append-only log
type Stream string

const (
	StreamUnanswered Stream = "unanswered"
	StreamChat       Stream = "chat"
	StreamFeedback   Stream = "feedback"
)

// TimestampLayout is the wall-clock format written in the first column.
const TimestampLayout = "2006-01-02 15:04:05"

const unansweredMarker = "未回答"

// Row is one record. Fields exclude the timestamp, which Values prepends.
type Row struct {
	ID        string    `json:"id"`
	Stream    Stream    `json:"stream"`
	Timestamp time.Time `json:"timestamp"`
	Fields    []string  `json:"fields"`
}

// Values renders the row as written to tabular sinks.
func (r Row) Values() []string {
	return append([]string{r.Timestamp.Format(TimestampLayout)}, r.Fields...)
}

func newRow(stream Stream, at time.Time, fields ...string) Row {
	return Row{ID: uuid.NewString(), Stream: stream, Timestamp: at, Fields: fields}
}

// NewUnansweredRow records a question the model could not answer.
func NewUnansweredRow(at time.Time, question string) Row {
	return newRow(StreamUnanswered, at, question, unansweredMarker, "1")
}

// NewChatRow records one completed exchange.
func NewChatRow(at time.Time, question, answer, sourceType string, unanswered bool) Row {
	return newRow(StreamChat, at,
		strings.TrimSpace(question),
		strings.TrimSpace(answer),
		sourceType,
		strconv.FormatBool(unanswered),
	)
}

// NewFeedbackRow records explicit user feedback on an answer.
func NewFeedbackRow(at time.Time, question, answer, feedback, reason string) Row {
	return newRow(StreamFeedback, at, question, answer, feedback, reason)
}

// Sink appends rows to durable storage.
type Sink interface {
	Append(ctx context.Context, row Row) error
}

// Multi fans a row out to every sink and reports all failures together.
type Multi []Sink

func (m Multi) Append(ctx context.Context, row Row) error {
	var errs []error
	for _, s := range m {
		if err := s.Append(ctx, row); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return &rag.LogSinkError{Stream: string(row.Stream), Err: errors.Join(errs...)}
}
