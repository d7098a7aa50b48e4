package middleware

import (
	"strings"

	"go-sales-crm/internal/logging"
	"go-sales-crm/internal/policy"
	"go-sales-crm/internal/service"

	"github.com/gofiber/fiber/v2"
)

// Locals keys set by RequireAuth.
const (
	LocalUserID = "user_id"
	LocalRole   = "role"
)

// RequireAuth is middleware that validates the bearer token and sets the
// caller identity in context. Nothing downstream runs without it.
func RequireAuth(auth service.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		// Get Authorization header
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Missing authorization token"})
		}

		token, ok := bearerToken(authHeader)
		if !ok {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid authorization format. Use: Bearer <token>"})
		}
		return authenticate(c, auth, token)
	}
}

// RequireSocketAuth guards the websocket upgrade. Browsers cannot set headers
// on a websocket handshake, so the token may also come as ?token=.
func RequireSocketAuth(auth service.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := c.Query("token")
		if h := c.Get("Authorization"); h != "" {
			token, _ = bearerToken(h)
		}
		if token == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Missing authorization token"})
		}
		return authenticate(c, auth, token)
	}
}

// bearerToken extracts the token from "Bearer <token>".
func bearerToken(header string) (string, bool) {
	parts := strings.Split(header, " ")
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return "", false
	}
	return parts[1], true
}

func authenticate(c *fiber.Ctx, auth service.AuthService, token string) error {
	caller, err := auth.Authenticate(c.UserContext(), token)
	if err != nil {
		logging.FromCtx(c).Debug("authentication rejected", "err", err)
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid or expired token"})
	}

	c.Locals(LocalUserID, caller.UserID)
	c.Locals(LocalRole, caller.Role)

	return c.Next()
}

// RequireRole lets only callers holding role through.
func RequireRole(role string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if r, _ := c.Locals(LocalRole).(string); r != role {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "Forbidden: requires role " + role,
			})
		}
		return c.Next()
	}
}

// Caller returns the identity stored by RequireAuth.
func Caller(c *fiber.Ctx) (policy.Caller, bool) {
	id, ok := c.Locals(LocalUserID).(uint)
	if !ok || id == 0 {
		return policy.Caller{}, false
	}
	role, _ := c.Locals(LocalRole).(string)
	return policy.Caller{UserID: id, Role: role}, true
}
