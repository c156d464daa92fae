package apiv1

import (
	"github.com/gofiber/fiber/v2"

	"approval-flow-backend/controllers"
	templatehandler "approval-flow-backend/lib/template"
	"approval-flow-backend/middleware"
	apimodels "approval-flow-backend/models/api"
	templateapimodels "approval-flow-backend/models/api/template"
)

type templateApiController struct {
	controllers.BaseAPIController
}

// Templates are read-open, write is administrator-only.
func InitTemplateApiRouters(app *fiber.App) {
	controller := templateApiController{}
	app.Route("template", func(router fiber.Router) {
		router.Get("", controller.list)
		router.Post("", middleware.AdminRequired(), controller.create)
		router.Route(":id", func(idRoute fiber.Router) {
			idRoute.Get("", controller.get)
			idRoute.Delete("", middleware.AdminRequired(), controller.delete)
		})
	})
}

func (c *templateApiController) create(ctx *fiber.Ctx) error {
	var payload templateapimodels.TemplateData
	if err := c.BodyParser(ctx, &payload); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	principal := middleware.GetPrincipal(ctx)
	id, err := templatehandler.Instance.Create(principal, payload)
	if err != nil {
		return c.SendError(ctx, c.GetLogger(ctx), err, "failed to create template")
	}
	return ctx.Status(fiber.StatusOK).JSON(apimodels.NewResponse(id))
}

func (c *templateApiController) get(ctx *fiber.Ctx) error {
	id, err := c.GetID(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	resp, err := templatehandler.Instance.GetByID(id)
	if err != nil {
		return c.SendError(ctx, c.GetLogger(ctx), err, "failed to get template")
	}
	return ctx.Status(fiber.StatusOK).JSON(apimodels.NewResponse(resp))
}

func (c *templateApiController) list(ctx *fiber.Ctx) error {
	resp, err := templatehandler.Instance.List()
	if err != nil {
		return c.SendError(ctx, c.GetLogger(ctx), err, "failed to list templates")
	}
	return ctx.Status(fiber.StatusOK).JSON(apimodels.NewResponse(resp))
}

func (c *templateApiController) delete(ctx *fiber.Ctx) error {
	id, err := c.GetID(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	principal := middleware.GetPrincipal(ctx)
	err = templatehandler.Instance.Delete(id, principal)
	if err != nil {
		return c.SendError(ctx, c.GetLogger(ctx), err, "failed to delete template")
	}
	return ctx.Status(fiber.StatusOK).JSON(apimodels.NewResponse(nil))
}
