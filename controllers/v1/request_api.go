package apiv1

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"

	"approval-flow-backend/controllers"
	"approval-flow-backend/lib/flow"
	requesthandler "approval-flow-backend/lib/request"
	"approval-flow-backend/middleware"
	apimodels "approval-flow-backend/models/api"
	requestapimodels "approval-flow-backend/models/api/request"
)

type requestApiController struct {
	controllers.BaseAPIController
}

func InitRequestApiRouters(app *fiber.App) {
	controller := requestApiController{}
	app.Route("request", func(router fiber.Router) {
		router.Post("list", controller.list)
		router.Post("export", controller.export)
		router.Post("", controller.create)
		router.Route(":id", func(idRoute fiber.Router) {
			idRoute.Get("", controller.get)
			idRoute.Put("", controller.update)
			idRoute.Get("history", controller.history)
			idRoute.Get("sheet", controller.sheet)
			idRoute.Put("submit", controller.submit)
			idRoute.Put("discontinue", controller.discontinue)
			idRoute.Put("cancel", controller.cancel)
			idRoute.Put("archive", middleware.AdminRequired(), controller.archive)
		})
	})
	app.Route("stage/:id", func(router fiber.Router) {
		router.Put("approve", controller.approve)
		router.Put("reject", controller.reject)
		router.Put("comment", controller.comment)
	})
}

// create registers a draft with its full stage sequence.
func (c *requestApiController) create(ctx *fiber.Ctx) error {
	var payload requestapimodels.RequestCreateData
	if err := c.BodyParser(ctx, &payload); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	principal := middleware.GetPrincipal(ctx)
	id, err := requesthandler.Instance.Create(principal, payload)
	if err != nil {
		return c.SendError(ctx, c.GetLogger(ctx), err, "failed to create request")
	}
	return ctx.Status(fiber.StatusOK).JSON(apimodels.NewResponse(id))
}

func (c *requestApiController) get(ctx *fiber.Ctx) error {
	id, err := c.GetID(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	principal := middleware.GetPrincipal(ctx)
	resp, err := requesthandler.Instance.GetByID(id, principal)
	if err != nil {
		return c.SendError(ctx, c.GetLogger(ctx), err, "failed to get request")
	}
	return ctx.Status(fiber.StatusOK).JSON(apimodels.NewResponse(resp))
}

func (c *requestApiController) update(ctx *fiber.Ctx) error {
	id, err := c.GetID(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	var payload requestapimodels.RequestEditData
	if err = c.BodyParser(ctx, &payload); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	principal := middleware.GetPrincipal(ctx)
	err = requesthandler.Instance.UpdateDraft(id, principal, payload)
	if err != nil {
		return c.SendError(ctx, c.GetLogger(ctx), err, "failed to update request")
	}
	return ctx.Status(fiber.StatusOK).JSON(apimodels.NewResponse(nil))
}

func (c *requestApiController) list(ctx *fiber.Ctx) error {
	var filter requestapimodels.RequestFilter
	if err := c.BodyParser(ctx, &filter); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	principal := middleware.GetPrincipal(ctx)
	list, rowCount, err := requesthandler.Instance.List(principal, filter)
	if err != nil {
		return c.SendError(ctx, c.GetLogger(ctx), err, "failed to list requests")
	}
	return ctx.Status(fiber.StatusOK).JSON(apimodels.NewScrollerResponse(list, rowCount))
}

func (c *requestApiController) history(ctx *fiber.Ctx) error {
	id, err := c.GetID(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	principal := middleware.GetPrincipal(ctx)
	resp, err := requesthandler.Instance.History(id, principal)
	if err != nil {
		return c.SendError(ctx, c.GetLogger(ctx), err, "failed to get request history")
	}
	return ctx.Status(fiber.StatusOK).JSON(apimodels.NewResponse(resp))
}

// export streams the request registry as an xlsx workbook.
func (c *requestApiController) export(ctx *fiber.Ctx) error {
	var filter requestapimodels.RequestFilter
	if err := c.BodyParser(ctx, &filter); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	principal := middleware.GetPrincipal(ctx)
	buf, err := requesthandler.Instance.ExportRegistry(principal, filter)
	if err != nil {
		return c.SendError(ctx, c.GetLogger(ctx), err, "failed to export requests")
	}
	fileName := fmt.Sprintf("requests_%v.xlsx", time.Now().Format("02_01_2006"))
	ctx.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename=%q`, fileName))
	ctx.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	return ctx.Status(fiber.StatusOK).SendStream(buf)
}

// sheet streams the printable approval sheet of one request as pdf.
func (c *requestApiController) sheet(ctx *fiber.Ctx) error {
	id, err := c.GetID(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	principal := middleware.GetPrincipal(ctx)
	pdfFile, err := requesthandler.Instance.ApprovalSheet(id, principal)
	if err != nil {
		return c.SendError(ctx, c.GetLogger(ctx), err, "failed to build approval sheet")
	}
	fileName := fmt.Sprintf("approval_sheet_%v.pdf", id)
	ctx.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename=%q`, fileName))
	ctx.Set(fiber.HeaderContentType, "application/pdf")
	return ctx.Status(fiber.StatusOK).Send(pdfFile)
}

func (c *requestApiController) submit(ctx *fiber.Ctx) error {
	id, err := c.GetID(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	principal := middleware.GetPrincipal(ctx)
	err = flow.Instance.Submit(id, principal)
	if err != nil {
		return c.SendError(ctx, c.GetLogger(ctx), err, "failed to submit request")
	}
	return ctx.Status(fiber.StatusOK).JSON(apimodels.NewResponse(nil))
}

func (c *requestApiController) discontinue(ctx *fiber.Ctx) error {
	id, err := c.GetID(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	var payload requestapimodels.DiscontinueData
	if err = c.BodyParser(ctx, &payload); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	principal := middleware.GetPrincipal(ctx)
	err = flow.Instance.Discontinue(id, principal, payload.Reason)
	if err != nil {
		return c.SendError(ctx, c.GetLogger(ctx), err, "failed to discontinue request")
	}
	return ctx.Status(fiber.StatusOK).JSON(apimodels.NewResponse(nil))
}

func (c *requestApiController) cancel(ctx *fiber.Ctx) error {
	id, err := c.GetID(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	principal := middleware.GetPrincipal(ctx)
	err = flow.Instance.Cancel(id, principal)
	if err != nil {
		return c.SendError(ctx, c.GetLogger(ctx), err, "failed to cancel request")
	}
	return ctx.Status(fiber.StatusOK).JSON(apimodels.NewResponse(nil))
}

func (c *requestApiController) archive(ctx *fiber.Ctx) error {
	id, err := c.GetID(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	principal := middleware.GetPrincipal(ctx)
	err = flow.Instance.Archive(id, principal)
	if err != nil {
		return c.SendError(ctx, c.GetLogger(ctx), err, "failed to archive request")
	}
	return ctx.Status(fiber.StatusOK).JSON(apimodels.NewResponse(nil))
}

func (c *requestApiController) approve(ctx *fiber.Ctx) error {
	id, err := c.GetID(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	var payload requestapimodels.StageActionData
	if err = c.BodyParser(ctx, &payload); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	principal := middleware.GetPrincipal(ctx)
	err = flow.Instance.Approve(id, principal, payload.Comment)
	if err != nil {
		return c.SendError(ctx, c.GetLogger(ctx), err, "failed to approve stage")
	}
	return ctx.Status(fiber.StatusOK).JSON(apimodels.NewResponse(nil))
}

func (c *requestApiController) reject(ctx *fiber.Ctx) error {
	id, err := c.GetID(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	var payload requestapimodels.StageActionData
	if err = c.BodyParser(ctx, &payload); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	principal := middleware.GetPrincipal(ctx)
	err = flow.Instance.Reject(id, principal, payload.Comment)
	if err != nil {
		return c.SendError(ctx, c.GetLogger(ctx), err, "failed to reject stage")
	}
	return ctx.Status(fiber.StatusOK).JSON(apimodels.NewResponse(nil))
}

func (c *requestApiController) comment(ctx *fiber.Ctx) error {
	id, err := c.GetID(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	var payload requestapimodels.StageActionData
	if err = c.BodyParser(ctx, &payload); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	principal := middleware.GetPrincipal(ctx)
	err = flow.Instance.Comment(id, principal, payload.Comment)
	if err != nil {
		return c.SendError(ctx, c.GetLogger(ctx), err, "failed to comment stage")
	}
	return ctx.Status(fiber.StatusOK).JSON(apimodels.NewResponse(nil))
}
