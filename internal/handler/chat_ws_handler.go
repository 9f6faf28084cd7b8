package handler

import (
	"faq-chatbot-be/internal/pkg/logger"
	"faq-chatbot-be/internal/service"
	internalWS "faq-chatbot-be/internal/websocket"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

type ChatSocketHandler struct {
	service service.IChatbotService
	logger  logger.ILogger
}

func NewChatSocketHandler(service service.IChatbotService, log logger.ILogger) *ChatSocketHandler {
	return &ChatSocketHandler{
		service: service,
		logger:  log,
	}
}

func (h *ChatSocketHandler) RegisterRoutes(r fiber.Router) {
	r.Get("/ws/chat", h.ServeWs)
}

// ServeWs upgrades to a websocket conversation. Without a session_id query
// parameter each connection gets its own session.
func (h *ChatSocketHandler) ServeWs(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}

	sessionID := c.Query("session_id")
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	return websocket.New(func(conn *websocket.Conn) {
		h.logger.Info("ChatSocketHandler", "Starting chat socket", map[string]interface{}{"session_id": sessionID})
		internalWS.Serve(conn, sessionID, h.service.Answer, h.logger)
		h.logger.Info("ChatSocketHandler", "Chat socket closed", map[string]interface{}{"session_id": sessionID})
	})(c)
}
