package controller

import (
	"ai-knowledge-hub/internal/dto"
	"ai-knowledge-hub/internal/pkg/apperr"
	"ai-knowledge-hub/internal/pkg/serverutils"
	"ai-knowledge-hub/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IAuthController interface {
	RegisterRoutes(r fiber.Router)
	Register(ctx *fiber.Ctx) error
	Login(ctx *fiber.Ctx) error
	ForgotPassword(ctx *fiber.Ctx) error
	ResetPassword(ctx *fiber.Ctx) error
}

type authController struct {
	service service.IAuthService
}

func NewAuthController(service service.IAuthService) IAuthController {
	return &authController{service: service}
}

func (c *authController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/auth")
	h.Post("/register", c.Register)
	h.Post("/login", c.Login)
	h.Post("/forgot-password", c.ForgotPassword)
	h.Post("/reset-password", c.ResetPassword)
}

func (c *authController) Register(ctx *fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := ctx.BodyParser(&req); err != nil {
		return apperr.Validation("invalid request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return apperr.Validation("%s", err.Error())
	}

	res, err := c.service.Register(ctx.Context(), &req)
	if err != nil {
		return err
	}
	return ctx.Status(fiber.StatusCreated).JSON(serverutils.SuccessResponse("User registered successfully", res))
}

func (c *authController) Login(ctx *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := ctx.BodyParser(&req); err != nil {
		return apperr.Validation("invalid request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return apperr.Validation("%s", err.Error())
	}

	res, err := c.service.Login(ctx.Context(), &req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Login successful", res))
}

func (c *authController) ForgotPassword(ctx *fiber.Ctx) error {
	var req dto.ForgotPasswordRequest
	if err := ctx.BodyParser(&req); err != nil {
		return apperr.Validation("invalid request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return apperr.Validation("%s", err.Error())
	}

	if err := c.service.ForgotPassword(ctx.Context(), &req); err != nil {
		return err
	}
	// Always the same answer, regardless of whether the email exists.
	return ctx.JSON(serverutils.SuccessResponse[any]("If the email exists, a reset link has been sent", nil))
}

func (c *authController) ResetPassword(ctx *fiber.Ctx) error {
	var req dto.ResetPasswordRequest
	if err := ctx.BodyParser(&req); err != nil {
		return apperr.Validation("invalid request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return apperr.Validation("%s", err.Error())
	}

	if err := c.service.ResetPassword(ctx.Context(), &req); err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse[any]("Password reset successfully", nil))
}
