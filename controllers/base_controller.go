package controllers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"approval-flow-backend/middleware"
	"approval-flow-backend/models"
	apimodels "approval-flow-backend/models/api"
)

type BaseAPIController struct{}

func (c *BaseAPIController) BodyParser(ctx *fiber.Ctx, out interface{}) error {
	if err := ctx.BodyParser(out); err != nil {
		log.WithError(err).Error("failed to parse request")
		return errors.New("failed to read request data")
	}
	return nil
}

func (c *BaseAPIController) GetID(ctx *fiber.Ctx) (string, error) {
	id := ctx.Params("id")
	if id == "" {
		return "", errors.New("record id is not specified")
	}
	return id, nil
}

func (c *BaseAPIController) GetLogger(ctx *fiber.Ctx) *log.Entry {
	return log.
		WithField("path", ctx.Path()).
		WithField("method", ctx.Method()).
		WithField("user_id", middleware.GetUserID(ctx))
}

// kindStatus maps engine error kinds to HTTP statuses. Unclassified
// errors are treated as internal.
var kindStatus = map[models.ErrorKind]int{
	models.KindNotFound:           fiber.StatusNotFound,
	models.KindUnauthorized:       fiber.StatusForbidden,
	models.KindInvalidState:       fiber.StatusConflict,
	models.KindPreconditionFailed: fiber.StatusUnprocessableEntity,
	models.KindConflict:           fiber.StatusConflict,
	models.KindStorageUnavailable: fiber.StatusServiceUnavailable,
}

func (c *BaseAPIController) SendError(ctx *fiber.Ctx, logger *log.Entry, err error, msg string) error {
	if status, known := kindStatus[models.KindOf(err)]; known {
		logger.WithError(err).Info(msg)
		return ctx.Status(status).JSON(apimodels.NewError(err.Error()))
	}
	logger.WithError(err).Error(msg)
	return ctx.Status(fiber.StatusInternalServerError).JSON(apimodels.NewError(msg))
}
