package websocket

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"faq-chatbot-be/internal/constant"
	"faq-chatbot-be/internal/dto"
	"faq-chatbot-be/internal/pkg/logger"

	"github.com/gofiber/websocket/v2"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 8 * 1024
)

// AnswerFunc runs one question through the chat pipeline.
type AnswerFunc func(ctx context.Context, question, sessionID string) (*dto.ChatResponse, error)

// Client is one websocket conversation. Questions on a connection are answered in order.
type Client struct {
	Conn      *websocket.Conn
	SessionID string
	Send      chan []byte

	answer AnswerFunc
	logger logger.ILogger
}

// Serve runs the conversation until the peer disconnects.
func Serve(conn *websocket.Conn, sessionID string, answer AnswerFunc, log logger.ILogger) {
	client := &Client{
		Conn:      conn,
		SessionID: sessionID,
		Send:      make(chan []byte, 16),
		answer:    answer,
		logger:    log,
	}

	go client.writePump()
	client.readPump()
}

// readPump reads questions and queues one reply frame per question.
func (c *Client) readPump() {
	defer func() {
		close(c.Send)
		c.Conn.Close()
	}()
	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Warn("ChatSocket", "Unexpected close", map[string]interface{}{
					"session_id": c.SessionID,
					"error":      err.Error(),
				})
			}
			return
		}
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))

		c.enqueue(c.handle(raw))
	}
}

func (c *Client) handle(raw []byte) dto.ChatSocketMessage {
	var in dto.ChatSocketMessage
	if err := json.Unmarshal(raw, &in); err != nil || in.Type != constant.SocketTypeQuestion {
		return dto.ChatSocketMessage{Type: constant.SocketTypeError, Error: "invalid frame"}
	}
	if strings.TrimSpace(in.Question) == "" {
		return dto.ChatSocketMessage{Type: constant.SocketTypeError, Error: constant.ErrMessageNoQuestion}
	}

	sessionID := c.SessionID
	if in.SessionId != "" {
		sessionID = in.SessionId
	}

	res, err := c.answer(context.Background(), in.Question, sessionID)
	if err != nil {
		return dto.ChatSocketMessage{
			Type:      constant.SocketTypeError,
			SessionId: sessionID,
			Answer:    &dto.ChatResponse{Response: constant.ErrMessageGenericFailure, OriginalQuestion: in.Question},
			Error:     err.Error(),
		}
	}
	return dto.ChatSocketMessage{Type: constant.SocketTypeAnswer, SessionId: sessionID, Answer: res}
}

func (c *Client) enqueue(msg dto.ChatSocketMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}
	c.Send <- data
}

// writePump writes queued frames and keeps the connection alive with pings.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
