package serverutils

import (
	"errors"

	"ai-knowledge-hub/internal/pkg/apperr"
	"ai-knowledge-hub/internal/pkg/logger"
	"ai-knowledge-hub/pkg/completion"

	"github.com/gofiber/fiber/v2"
)

// NewErrorHandler builds the app-level fiber error handler. Chat and
// document endpoints use the plain {error: ...} shape; upstream rate
// limits carry a retryAfterMs hint.
func NewErrorHandler(log logger.ILogger) fiber.ErrorHandler {
	return func(ctx *fiber.Ctx, err error) error {
		var rateLimited *completion.RateLimitedError
		if errors.As(err, &rateLimited) {
			return ctx.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error":        "Rate limit exceeded. Please try again later.",
				"retryAfterMs": rateLimited.RetryAfterMs,
			})
		}

		var upstream *completion.UpstreamError
		if errors.As(err, &upstream) {
			log.Warn("http", "Upstream completion error", map[string]interface{}{
				"status": upstream.StatusCode,
				"path":   ctx.Path(),
			})
			return ctx.Status(upstream.StatusCode).JSON(fiber.Map{
				"error": "Failed to get AI response",
			})
		}

		var appErr *apperr.Error
		if errors.As(err, &appErr) {
			return ctx.Status(statusForKind(appErr.Kind)).JSON(fiber.Map{
				"error": appErr.Message,
			})
		}

		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			return ctx.Status(fiberErr.Code).JSON(fiber.Map{
				"error": fiberErr.Message,
			})
		}

		log.Error("http", "Unhandled error", map[string]interface{}{
			"error":  err.Error(),
			"path":   ctx.Path(),
			"method": ctx.Method(),
		})
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Internal server error",
		})
	}
}

func statusForKind(kind error) int {
	switch {
	case errors.Is(kind, apperr.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(kind, apperr.ErrValidation):
		return fiber.StatusBadRequest
	case errors.Is(kind, apperr.ErrUnauthorized):
		return fiber.StatusUnauthorized
	case errors.Is(kind, apperr.ErrConflict):
		return fiber.StatusConflict
	case errors.Is(kind, apperr.ErrInternal):
		return fiber.StatusInternalServerError
	default:
		return fiber.StatusInternalServerError
	}
}
