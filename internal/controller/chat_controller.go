package controller

import (
	"ai-knowledge-hub/internal/dto"
	"ai-knowledge-hub/internal/pkg/apperr"
	"ai-knowledge-hub/internal/pkg/serverutils"
	"ai-knowledge-hub/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IChatController interface {
	RegisterRoutes(r fiber.Router)
	SendMessage(ctx *fiber.Ctx) error
	ListSessions(ctx *fiber.Ctx) error
	CreateSession(ctx *fiber.Ctx) error
	UpdateSession(ctx *fiber.Ctx) error
	DeleteSession(ctx *fiber.Ctx) error
	ListMessages(ctx *fiber.Ctx) error
	AppendMessage(ctx *fiber.Ctx) error
}

type chatController struct {
	chatService service.IChatService
}

func NewChatController(chatService service.IChatService) IChatController {
	return &chatController{chatService: chatService}
}

func (c *chatController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/chat")
	h.Use(serverutils.JwtMiddleware)
	h.Post("", c.SendMessage)
	h.Get("/sessions", c.ListSessions)
	h.Post("/sessions", c.CreateSession)
	h.Put("/sessions/:id", c.UpdateSession)
	h.Delete("/sessions/:id", c.DeleteSession)
	h.Get("/sessions/:id/messages", c.ListMessages)
	h.Post("/sessions/:id/messages", c.AppendMessage)
}

func (c *chatController) SendMessage(ctx *fiber.Ctx) error {
	userId, err := requestUserId(ctx)
	if err != nil {
		return err
	}

	var req dto.SendMessageRequest
	if err := ctx.BodyParser(&req); err != nil {
		return apperr.Validation("invalid request body")
	}
	if req.Message == "" {
		return apperr.Validation("message is required")
	}

	res, err := c.chatService.SendMessage(ctx.Context(), userId, &req)
	if err != nil {
		return err
	}
	return ctx.JSON(res)
}

func (c *chatController) ListSessions(ctx *fiber.Ctx) error {
	userId, err := requestUserId(ctx)
	if err != nil {
		return err
	}

	sessions, err := c.chatService.ListSessions(ctx.Context(), userId)
	if err != nil {
		return err
	}
	return ctx.JSON(fiber.Map{"sessions": sessions})
}

func (c *chatController) CreateSession(ctx *fiber.Ctx) error {
	userId, err := requestUserId(ctx)
	if err != nil {
		return err
	}

	var req dto.CreateSessionRequest
	if err := ctx.BodyParser(&req); err != nil {
		return apperr.Validation("invalid request body")
	}

	session, err := c.chatService.CreateSession(ctx.Context(), userId, &req)
	if err != nil {
		return err
	}
	return ctx.Status(fiber.StatusCreated).JSON(session)
}

func (c *chatController) UpdateSession(ctx *fiber.Ctx) error {
	userId, err := requestUserId(ctx)
	if err != nil {
		return err
	}
	sessionId, err := paramUUID(ctx, "id")
	if err != nil {
		return err
	}

	var req dto.UpdateSessionRequest
	if err := ctx.BodyParser(&req); err != nil {
		return apperr.Validation("invalid request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return apperr.Validation("%s", err.Error())
	}

	session, err := c.chatService.UpdateSession(ctx.Context(), userId, sessionId, &req)
	if err != nil {
		return err
	}
	return ctx.JSON(session)
}

func (c *chatController) DeleteSession(ctx *fiber.Ctx) error {
	userId, err := requestUserId(ctx)
	if err != nil {
		return err
	}
	sessionId, err := paramUUID(ctx, "id")
	if err != nil {
		return err
	}

	if err := c.chatService.DeleteSession(ctx.Context(), userId, sessionId); err != nil {
		return err
	}
	return ctx.JSON(fiber.Map{"success": true})
}

func (c *chatController) ListMessages(ctx *fiber.Ctx) error {
	userId, err := requestUserId(ctx)
	if err != nil {
		return err
	}
	sessionId, err := paramUUID(ctx, "id")
	if err != nil {
		return err
	}

	messages, err := c.chatService.ListMessages(ctx.Context(), userId, sessionId)
	if err != nil {
		return err
	}
	return ctx.JSON(fiber.Map{"messages": messages})
}

func (c *chatController) AppendMessage(ctx *fiber.Ctx) error {
	userId, err := requestUserId(ctx)
	if err != nil {
		return err
	}
	sessionId, err := paramUUID(ctx, "id")
	if err != nil {
		return err
	}

	var req dto.AppendMessageRequest
	if err := ctx.BodyParser(&req); err != nil {
		return apperr.Validation("invalid request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return apperr.Validation("%s", err.Error())
	}

	message, err := c.chatService.AppendMessage(ctx.Context(), userId, sessionId, &req)
	if err != nil {
		return err
	}
	return ctx.Status(fiber.StatusCreated).JSON(message)
}
