package handler

import (
	"go-sales-crm/internal/service"

	"github.com/gofiber/fiber/v2"
)

type AuthHandler struct {
	authService service.AuthService
}

func NewAuthHandler(authService service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// LoginRequest represents the login request body
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// ChangePasswordRequest represents the change password request body
type ChangePasswordRequest struct {
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password"`
}

// Login handles user authentication
// POST /api/v1/auth/login
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid JSON")
	}

	if req.Username == "" || req.Password == "" {
		return badRequest(c, "Username and password are required")
	}

	response, err := h.authService.Login(c.UserContext(), req.Username, req.Password)
	if err != nil {
		return fail(c, err)
	}

	return c.JSON(response)
}

// ChangePassword handles password change for the logged-in user
// POST /api/v1/auth/change-password
func (h *AuthHandler) ChangePassword(c *fiber.Ctx) error {
	who, err := caller(c)
	if err != nil {
		return fail(c, err)
	}

	var req ChangePasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid JSON")
	}

	if req.OldPassword == "" || req.NewPassword == "" {
		return badRequest(c, "old_password and new_password are required")
	}

	if err := h.authService.ChangePassword(c.UserContext(), who, req.OldPassword, req.NewPassword); err != nil {
		return fail(c, err)
	}

	return c.JSON(fiber.Map{"message": "Password updated successfully"})
}
