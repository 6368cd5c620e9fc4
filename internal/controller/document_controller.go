package controller

import (
	"fmt"
	"io"

	"ai-knowledge-hub/internal/dto"
	"ai-knowledge-hub/internal/pkg/apperr"
	"ai-knowledge-hub/internal/pkg/serverutils"
	"ai-knowledge-hub/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IDocumentController interface {
	RegisterRoutes(r fiber.Router)
	Upload(ctx *fiber.Ctx) error
	List(ctx *fiber.Ctx) error
	Download(ctx *fiber.Ctx) error
	Delete(ctx *fiber.Ctx) error
	ExtractionStatus(ctx *fiber.Ctx) error
}

type documentController struct {
	documentService service.IDocumentService
}

func NewDocumentController(documentService service.IDocumentService) IDocumentController {
	return &documentController{documentService: documentService}
}

func (c *documentController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/documents")
	h.Use(serverutils.JwtMiddleware)
	h.Post("", c.Upload)
	h.Get("", c.List)
	h.Get(":id/download", c.Download)
	h.Get(":id/extraction", c.ExtractionStatus)
	h.Delete(":id", c.Delete)
}

func (c *documentController) Upload(ctx *fiber.Ctx) error {
	userId, err := requestUserId(ctx)
	if err != nil {
		return err
	}

	fileHeader, err := ctx.FormFile("file")
	if err != nil {
		return apperr.Validation("file is required")
	}

	file, err := fileHeader.Open()
	if err != nil {
		return err
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return err
	}

	res, err := c.documentService.Upload(ctx.Context(), userId, fileHeader.Filename, fileHeader.Header.Get("Content-Type"), data)
	if err != nil {
		return err
	}
	return ctx.Status(fiber.StatusCreated).JSON(res)
}

func (c *documentController) List(ctx *fiber.Ctx) error {
	userId, err := requestUserId(ctx)
	if err != nil {
		return err
	}

	var req dto.ListDocumentsRequest
	if err := ctx.QueryParser(&req); err != nil {
		return apperr.Validation("invalid query parameters")
	}

	res, err := c.documentService.List(ctx.Context(), userId, &req)
	if err != nil {
		return err
	}
	return ctx.JSON(res)
}

func (c *documentController) Download(ctx *fiber.Ctx) error {
	userId, err := requestUserId(ctx)
	if err != nil {
		return err
	}
	documentId, err := paramUUID(ctx, "id")
	if err != nil {
		return err
	}

	document, reader, err := c.documentService.Download(ctx.Context(), userId, documentId)
	if err != nil {
		return err
	}

	ctx.Set(fiber.HeaderContentType, document.FileType)
	ctx.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="%s"`, document.Title))
	return ctx.SendStream(reader, int(document.FileSize))
}

func (c *documentController) Delete(ctx *fiber.Ctx) error {
	userId, err := requestUserId(ctx)
	if err != nil {
		return err
	}
	documentId, err := paramUUID(ctx, "id")
	if err != nil {
		return err
	}

	if err := c.documentService.Delete(ctx.Context(), userId, documentId); err != nil {
		return err
	}
	return ctx.JSON(fiber.Map{"success": true})
}

func (c *documentController) ExtractionStatus(ctx *fiber.Ctx) error {
	userId, err := requestUserId(ctx)
	if err != nil {
		return err
	}
	documentId, err := paramUUID(ctx, "id")
	if err != nil {
		return err
	}

	res, err := c.documentService.ExtractionStatus(ctx.Context(), userId, documentId)
	if err != nil {
		return err
	}
	return ctx.JSON(res)
}
