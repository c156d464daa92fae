package middleware

import (
	"github.com/gofiber/fiber/v2"

	authutils "approval-flow-backend/lib/utils/auth-utils"
	"approval-flow-backend/models"
	apimodels "approval-flow-backend/models/api"
)

func claimString(ctx *fiber.Ctx, name string) string {
	claims := authutils.GetClaims(ctx)
	if value, exist := claims[name]; exist {
		if stringValue, ok := value.(string); ok {
			return stringValue
		}
	}
	return ""
}

func GetUserID(ctx *fiber.Ctx) string {
	return claimString(ctx, "sub")
}

func GetUserRole(ctx *fiber.Ctx) models.UserRole {
	return models.UserRole(claimString(ctx, "role"))
}

// GetPrincipal assembles the caller identity from the verified token
// claims. The engine performs no credential checks of its own.
func GetPrincipal(ctx *fiber.Ctx) models.Principal {
	return models.Principal{
		ID:         claimString(ctx, "sub"),
		Role:       GetUserRole(ctx),
		Department: claimString(ctx, "department"),
		Email:      claimString(ctx, "email"),
		Name:       claimString(ctx, "name"),
	}
}

func AdminRequired() fiber.Handler {
	return func(ctx *fiber.Ctx) (err error) {
		if !GetUserRole(ctx).IsAdmin() {
			return ctx.Status(fiber.StatusForbidden).JSON(apimodels.NewError("operation is not permitted"))
		}
		return ctx.Next()
	}
}
