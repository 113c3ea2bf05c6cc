package middleware

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"

	"github.com/talentgate/talentgate-api/internal/utils"
)

// JWTProtected guards the recruiter surface. Tokens are issued by the identity
// service that fronts the hiring tools, so only HMAC validation happens here;
// the user id and role claims are bound to the request for RBAC and rate
// limiting downstream.
func JWTProtected(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authorization := c.Get("Authorization")
		if authorization == "" {
			return utils.SendError(c, fiber.StatusUnauthorized, "authorization header missing")
		}

		const bearer = "Bearer "
		if !strings.HasPrefix(strings.ToLower(authorization), strings.ToLower(bearer)) {
			return utils.SendError(c, fiber.StatusUnauthorized, "invalid authorization header")
		}

		tokenString := strings.TrimSpace(authorization[len(bearer):])
		if tokenString == "" {
			return utils.SendError(c, fiber.StatusUnauthorized, "invalid token")
		}

		token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method")
			}
			return []byte(secret), nil
		})
		if err != nil || !token.Valid {
			return utils.SendError(c, fiber.StatusUnauthorized, "invalid token")
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			return utils.SendError(c, fiber.StatusUnauthorized, "invalid token claims")
		}

		if userID := userIDClaim(claims); userID != nil {
			c.Locals("user_id", *userID)
		}
		if role := roleClaim(claims); role != "" {
			c.Locals("user_role", role)
		}

		return c.Next()
	}
}

// userIDClaim tolerates the claim layouts of both token issuers we have seen:
// numeric or string subjects under "sub", "user_id" or "id".
func userIDClaim(claims jwt.MapClaims) *uint {
	for _, key := range []string{"sub", "user_id", "id"} {
		value, ok := claims[key]
		if !ok {
			continue
		}
		switch v := value.(type) {
		case float64:
			if v >= 0 {
				id := uint(v)
				return &id
			}
		case int:
			if v >= 0 {
				id := uint(v)
				return &id
			}
		case string:
			if parsed, err := strconv.ParseUint(v, 10, 64); err == nil {
				id := uint(parsed)
				return &id
			}
		}
	}
	return nil
}

// roleClaim picks the first non-empty role from a scalar "role" claim or a
// "roles" list, lowercased for comparison in RequireRole.
func roleClaim(claims jwt.MapClaims) string {
	for _, key := range []string{"role", "roles"} {
		switch v := claims[key].(type) {
		case string:
			if role := strings.ToLower(strings.TrimSpace(v)); role != "" {
				return role
			}
		case []interface{}:
			for _, item := range v {
				if str, ok := item.(string); ok {
					if role := strings.ToLower(strings.TrimSpace(str)); role != "" {
						return role
					}
				}
			}
		}
	}
	return ""
}
