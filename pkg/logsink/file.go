package logsink

import (
	"context"
	"encoding/json"
	"io"
	"sync"

	"faq-chatbot-be/internal/pkg/logger"
)

// FileSink writes one JSON document per line to a rotating file.
type FileSink struct {
	mu sync.Mutex
	w  io.WriteCloser
}

func NewFileSink(path string) *FileSink {
	return &FileSink{w: logger.NewRotator(path)}
}

// NewWriterSink is FileSink over an arbitrary writer.
func NewWriterSink(w io.WriteCloser) *FileSink {
	return &FileSink{w: w}
}

func (f *FileSink) Append(_ context.Context, row Row) error {
	line, err := json.Marshal(struct {
		Row
		Values []string `json:"values"`
	}{Row: row, Values: row.Values()})
	if err != nil {
		return err
	}
	line = append(line, '\n')

	f.mu.Lock()
	defer f.mu.Unlock()
	_, err = f.w.Write(line)
	return err
}

func (f *FileSink) Close() error {
	return f.w.Close()
}
