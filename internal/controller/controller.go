package controller

import (
	"ai-knowledge-hub/internal/pkg/apperr"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// requestUserId pulls the authenticated user id set by the JWT middleware.
func requestUserId(ctx *fiber.Ctx) (uuid.UUID, error) {
	raw, ok := ctx.Locals("user_id").(string)
	if !ok {
		return uuid.Nil, apperr.Unauthorized("missing authentication")
	}
	userId, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, apperr.Unauthorized("invalid authentication")
	}
	return userId, nil
}

// paramUUID parses a uuid path parameter.
func paramUUID(ctx *fiber.Ctx, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(ctx.Params(name))
	if err != nil {
		return uuid.Nil, apperr.Validation("invalid %s", name)
	}
	return id, nil
}
