package apiv1

import (
	"github.com/gofiber/fiber/v2"

	"approval-flow-backend/controllers"
	"approval-flow-backend/lib/audit"
	auditstore "approval-flow-backend/lib/audit/store"
	"approval-flow-backend/middleware"
	"approval-flow-backend/models"
	apimodels "approval-flow-backend/models/api"
	requestapimodels "approval-flow-backend/models/api/request"
)

type auditApiController struct {
	controllers.BaseAPIController
}

// The raw audit trail is administrator-only; request-scoped history is
// served by the request API.
func InitAuditApiRouters(app *fiber.App) {
	controller := auditApiController{}
	app.Route("audit", func(router fiber.Router) {
		router.Post("list", middleware.AdminRequired(), controller.list)
	})
}

type auditFilter struct {
	apimodels.Pagination
	EntityType models.AuditEntityType `json:"entity_type,omitempty"`
	EntityID   string                 `json:"entity_id,omitempty"`
}

func (c *auditApiController) list(ctx *fiber.Ctx) error {
	var filter auditFilter
	if err := c.BodyParser(ctx, &filter); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	page, limit := filter.GetPage()
	entries, err := audit.Instance.List(auditstore.Filter{
		EntityType: filter.EntityType,
		EntityID:   filter.EntityID,
		Limit:      limit,
		Offset:     (page - 1) * limit,
	})
	if err != nil {
		return c.SendError(ctx, c.GetLogger(ctx), err, "failed to list audit entries")
	}
	list := []requestapimodels.AuditEntryView{}
	for _, entry := range entries {
		list = append(list, requestapimodels.AuditEntryConvert(entry))
	}
	return ctx.Status(fiber.StatusOK).JSON(apimodels.NewResponse(list))
}
