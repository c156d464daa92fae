package apiv1

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"

	"approval-flow-backend/controllers"
	attachmenthandler "approval-flow-backend/lib/attachment"
	"approval-flow-backend/middleware"
	apimodels "approval-flow-backend/models/api"
)

type attachmentApiController struct {
	controllers.BaseAPIController
}

func InitAttachmentApiRouters(app *fiber.App) {
	controller := attachmentApiController{}
	app.Route("request/:id/file", func(router fiber.Router) {
		router.Post("", controller.upload)
		router.Get("", controller.list)
	})
	app.Route("file/:id", func(router fiber.Router) {
		router.Get("", controller.download)
		router.Get("link", controller.link)
	})
}

// upload accepts one multipart file; form field "stage_id" binds it to
// a stage for the signature precondition.
func (c *attachmentApiController) upload(ctx *fiber.Ctx) error {
	requestID, err := c.GetID(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	fileHeader, err := ctx.FormFile("file")
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError("file is not attached"))
	}
	file, err := fileHeader.Open()
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError("failed to read attached file"))
	}
	defer file.Close()
	stageID := ctx.FormValue("stage_id")
	principal := middleware.GetPrincipal(ctx)
	view, err := attachmenthandler.Instance.Upload(ctx.Context(), requestID, stageID, principal,
		fileHeader.Filename, fileHeader.Header.Get(fiber.HeaderContentType), file, fileHeader.Size)
	if err != nil {
		return c.SendError(ctx, c.GetLogger(ctx), err, "failed to upload file")
	}
	return ctx.Status(fiber.StatusOK).JSON(apimodels.NewResponse(view))
}

func (c *attachmentApiController) list(ctx *fiber.Ctx) error {
	requestID, err := c.GetID(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	principal := middleware.GetPrincipal(ctx)
	resp, err := attachmenthandler.Instance.ListByRequest(requestID, principal)
	if err != nil {
		return c.SendError(ctx, c.GetLogger(ctx), err, "failed to list files")
	}
	return ctx.Status(fiber.StatusOK).JSON(apimodels.NewResponse(resp))
}

func (c *attachmentApiController) download(ctx *fiber.Ctx) error {
	id, err := c.GetID(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	principal := middleware.GetPrincipal(ctx)
	rec, body, err := attachmenthandler.Instance.Download(ctx.Context(), id, principal)
	if err != nil {
		return c.SendError(ctx, c.GetLogger(ctx), err, "failed to download file")
	}
	ctx.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename=%q`, rec.Name))
	ctx.Set(fiber.HeaderContentType, rec.ContentType)
	return ctx.Status(fiber.StatusOK).SendStream(body)
}

// link returns a short-lived presigned download URL.
func (c *attachmentApiController) link(ctx *fiber.Ctx) error {
	id, err := c.GetID(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	principal := middleware.GetPrincipal(ctx)
	link, err := attachmenthandler.Instance.PresignedURL(ctx.Context(), id, principal, 15*time.Minute)
	if err != nil {
		return c.SendError(ctx, c.GetLogger(ctx), err, "failed to build download link")
	}
	return ctx.Status(fiber.StatusOK).JSON(apimodels.NewResponse(link))
}
