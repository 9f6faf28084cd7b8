package controller

import (
	"errors"

	"faq-chatbot-be/internal/constant"
	"faq-chatbot-be/internal/dto"
	"faq-chatbot-be/internal/pkg/serverutils"
	"faq-chatbot-be/internal/service"
	"faq-chatbot-be/pkg/corpus"

	"github.com/gofiber/fiber/v2"
)

type IChatbotController interface {
	RegisterRoutes(r fiber.Router, adminGuard fiber.Handler)
	Health(ctx *fiber.Ctx) error
	Chat(ctx *fiber.Ctx) error
	Feedback(ctx *fiber.Ctx) error
	CorpusStatus(ctx *fiber.Ctx) error
	ReloadCorpus(ctx *fiber.Ctx) error
}

type chatbotController struct {
	chatbotService service.IChatbotService
}

func NewChatbotController(chatbotService service.IChatbotService) IChatbotController {
	return &chatbotController{
		chatbotService: chatbotService,
	}
}

func (c *chatbotController) RegisterRoutes(r fiber.Router, adminGuard fiber.Handler) {
	r.Get("/", c.Health)
	r.Post("/chat", c.Chat)
	r.Post("/feedback", c.Feedback)

	admin := r.Group("/admin", adminGuard)
	admin.Get("/corpus", c.CorpusStatus)
	admin.Post("/corpus/reload", c.ReloadCorpus)
}

func (c *chatbotController) Health(ctx *fiber.Ctx) error {
	return ctx.SendString(constant.HealthMessage)
}

func (c *chatbotController) Chat(ctx *fiber.Ctx) error {
	var req dto.ChatRequest
	if err := ctx.BodyParser(&req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": constant.ErrMessageNoQuestion})
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": constant.ErrMessageNoQuestion})
	}

	res, err := c.chatbotService.Answer(ctx.UserContext(), req.Question, req.SessionId)
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(dto.ChatErrorResponse{
			Response: constant.ErrMessageGenericFailure,
			Error:    err.Error(),
		})
	}

	return ctx.JSON(res)
}

func (c *chatbotController) Feedback(ctx *fiber.Ctx) error {
	var req dto.FeedbackRequest
	if err := ctx.BodyParser(&req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": constant.ErrMessageBadFeedback})
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": constant.ErrMessageBadFeedback})
	}

	if err := c.chatbotService.RecordFeedback(ctx.UserContext(), &req); err != nil {
		if errors.Is(err, service.ErrIncompleteFeedback) {
			return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": constant.ErrMessageBadFeedback})
		}
		return err
	}

	return ctx.JSON(dto.FeedbackResponse{Status: constant.FeedbackStatusSuccess})
}

func (c *chatbotController) CorpusStatus(ctx *fiber.Ctx) error {
	stats := toStatsResponse(c.chatbotService.CorpusStatus())
	return ctx.JSON(serverutils.SuccessResponse("Corpus status", stats))
}

func (c *chatbotController) ReloadCorpus(ctx *fiber.Ctx) error {
	stats, err := c.chatbotService.ReloadCorpus(ctx.UserContext())
	if err != nil {
		return fiber.NewError(fiber.StatusUnprocessableEntity, err.Error())
	}
	return ctx.JSON(serverutils.SuccessResponse("Corpus reloaded", toStatsResponse(stats)))
}

func toStatsResponse(stats []corpus.DomainStats) dto.CorpusStatusResponse {
	res := dto.CorpusStatusResponse{Domains: make([]dto.DomainStatsResponse, len(stats))}
	for i, s := range stats {
		res.Domains[i] = dto.DomainStatsResponse{
			Domain:    string(s.Domain),
			FAQ:       s.FAQ,
			Knowledge: s.Knowledge,
			Vectors:   s.Vectors,
			Dimension: s.Dimension,
			Drift:     s.Drift,
		}
	}
	return res
}
