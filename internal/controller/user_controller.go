package controller

import (
	"fmt"
	"time"

	"ai-knowledge-hub/internal/dto"
	"ai-knowledge-hub/internal/pkg/apperr"
	"ai-knowledge-hub/internal/pkg/serverutils"
	"ai-knowledge-hub/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IUserController interface {
	RegisterRoutes(r fiber.Router)
	Profile(ctx *fiber.Ctx) error
	UpdateProfile(ctx *fiber.Ctx) error
	ChangePassword(ctx *fiber.Ctx) error
	DeleteAccount(ctx *fiber.Ctx) error
	DownloadData(ctx *fiber.Ctx) error
}

type userController struct {
	userService service.IUserService
}

func NewUserController(userService service.IUserService) IUserController {
	return &userController{userService: userService}
}

func (c *userController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/user")
	h.Use(serverutils.JwtMiddleware)
	h.Get("/profile", c.Profile)
	h.Put("/profile", c.UpdateProfile)
	h.Put("/password", c.ChangePassword)
	h.Delete("/account", c.DeleteAccount)
	h.Get("/download-data", c.DownloadData)
}

func (c *userController) Profile(ctx *fiber.Ctx) error {
	userId, err := requestUserId(ctx)
	if err != nil {
		return err
	}

	res, err := c.userService.GetProfile(ctx.Context(), userId)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("User profile", res))
}

func (c *userController) UpdateProfile(ctx *fiber.Ctx) error {
	userId, err := requestUserId(ctx)
	if err != nil {
		return err
	}

	var req dto.UpdateProfileRequest
	if err := ctx.BodyParser(&req); err != nil {
		return apperr.Validation("invalid request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return apperr.Validation("%s", err.Error())
	}

	if err := c.userService.UpdateProfile(ctx.Context(), userId, &req); err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse[any]("Profile updated", nil))
}

func (c *userController) ChangePassword(ctx *fiber.Ctx) error {
	userId, err := requestUserId(ctx)
	if err != nil {
		return err
	}

	var req dto.ChangePasswordRequest
	if err := ctx.BodyParser(&req); err != nil {
		return apperr.Validation("invalid request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return apperr.Validation("%s", err.Error())
	}

	if err := c.userService.ChangePassword(ctx.Context(), userId, &req); err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse[any]("Password changed", nil))
}

func (c *userController) DeleteAccount(ctx *fiber.Ctx) error {
	userId, err := requestUserId(ctx)
	if err != nil {
		return err
	}

	var req dto.DeleteAccountRequest
	if err := ctx.BodyParser(&req); err != nil {
		return apperr.Validation("invalid request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return apperr.Validation("%s", err.Error())
	}

	if err := c.userService.DeleteAccount(ctx.Context(), userId, &req); err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse[any]("Account deleted", nil))
}

func (c *userController) DownloadData(ctx *fiber.Ctx) error {
	userId, err := requestUserId(ctx)
	if err != nil {
		return err
	}

	export, err := c.userService.DownloadData(ctx.Context(), userId)
	if err != nil {
		return err
	}

	filename := fmt.Sprintf("knowledge-hub-export-%s.json", time.Now().Format("2006-01-02"))
	ctx.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="%s"`, filename))
	return ctx.JSON(export)
}
