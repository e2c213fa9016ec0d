// FILE: internal/pkg/serverutils/jwt_middleware.go
package serverutils

import (
	"os"

	"github.com/ministryofjustice/hmpps-approved-premises-api-sub005/internal/entity"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const requestingUserKey = "requesting_user"

func JwtMiddleware(ctx *fiber.Ctx) error {
	authHeader := ctx.Get("Authorization")
	if len(authHeader) < 7 || authHeader[:7] != "Bearer " {
		return ctx.Status(fiber.StatusUnauthorized).JSON(ErrorResponse(fiber.StatusUnauthorized, "Missing token"))
	}
	tokenStr := authHeader[7:]

	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
		return []byte(os.Getenv("JWT_SECRET")), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))

	if err != nil || !token.Valid {
		return ctx.Status(fiber.StatusUnauthorized).JSON(ErrorResponse(fiber.StatusUnauthorized, "Invalid token"))
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return ctx.Status(fiber.StatusUnauthorized).JSON(ErrorResponse(fiber.StatusUnauthorized, "Invalid claims"))
	}

	userIdStr, _ := claims["user_id"].(string)
	userId, err := uuid.Parse(userIdStr)
	if err != nil {
		return ctx.Status(fiber.StatusUnauthorized).JSON(ErrorResponse(fiber.StatusUnauthorized, "Invalid claims"))
	}

	user := entity.RequestingUser{Id: userId}
	if roles, ok := claims["roles"].([]interface{}); ok {
		for _, r := range roles {
			if s, ok := r.(string); ok {
				user.Roles = append(user.Roles, entity.UserRole(s))
			}
		}
	}

	ctx.Locals("user_id", userIdStr)
	ctx.Locals(requestingUserKey, user)
	return ctx.Next()
}

// RequestingUser returns the caller resolved by JwtMiddleware.
func RequestingUser(ctx *fiber.Ctx) (entity.RequestingUser, bool) {
	user, ok := ctx.Locals(requestingUserKey).(entity.RequestingUser)
	return user, ok
}

// SignToken issues an HS256 token carrying the user id and roles.
func SignToken(secret string, userId uuid.UUID, roles []entity.UserRole) (string, error) {
	r := make([]string, len(roles))
	for i, role := range roles {
		r[i] = string(role)
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": userId.String(),
		"roles":   r,
	})
	return token.SignedString([]byte(secret))
}
