package authutils

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"

	"approval-flow-backend/config"
	"approval-flow-backend/models"
)

// GetToken issues an HS256 token for an already-authenticated
// principal. The engine trusts the identity provider; this is for
// service-to-service and test use.
func GetToken(principal models.Principal) (tokenString string, err error) {
	claims := jwt.MapClaims{
		"sub":        principal.ID,
		"name":       principal.Name,
		"role":       string(principal.Role),
		"department": principal.Department,
		"email":      principal.Email,
		"exp":        time.Now().Add(time.Second * time.Duration(config.Conf.Auth.JWTExpireInSec)).Unix(),
		"iat":        time.Now().Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(config.Conf.Auth.JWTSecret))
}

func GetClaims(ctx *fiber.Ctx) jwt.MapClaims {
	token, ok := ctx.Locals("user").(*jwt.Token)
	if !ok {
		return jwt.MapClaims{}
	}
	return token.Claims.(jwt.MapClaims)
}
