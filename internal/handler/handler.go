package handler

import (
	"errors"
	"strconv"

	"go-sales-crm/internal/apperr"
	"go-sales-crm/internal/logging"
	"go-sales-crm/internal/middleware"
	"go-sales-crm/internal/policy"
	"go-sales-crm/internal/service"
	"go-sales-crm/pkg/jwt"

	"github.com/gofiber/fiber/v2"
)

// fail maps a core error onto a status code. Anything outside the error
// taxonomy is logged with the request id and answered with a generic 500.
func fail(c *fiber.Ctx, err error) error {
	var (
		v *apperr.ValidationError
		k *apperr.ConflictError
		f *apperr.ForbiddenError
	)
	switch {
	case errors.As(err, &v):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": v.Error(), "field": v.Field})
	case errors.As(err, &k):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": k.Error(), "field": k.Field})
	case apperr.IsNotFound(err):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	case errors.As(err, &f):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	case errors.Is(err, apperr.ErrUnauthorized),
		errors.Is(err, service.ErrInvalidCredentials),
		errors.Is(err, service.ErrUserInactive),
		errors.Is(err, service.ErrSessionReplaced),
		errors.Is(err, jwt.ErrInvalidToken):
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, service.ErrWrongPassword):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	logging.FromCtx(c).Error("request failed", "method", c.Method(), "path", c.Path(), "err", err)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Internal server error"})
}

func badRequest(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": msg})
}

// caller reads the identity placed by middleware.RequireAuth.
func caller(c *fiber.Ctx) (policy.Caller, error) {
	who, ok := middleware.Caller(c)
	if !ok {
		return policy.Caller{}, apperr.ErrUnauthorized
	}
	return who, nil
}

func parseID(c *fiber.Ctx) (uint, error) {
	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, apperr.Validation("id", "must be a positive integer")
	}
	return uint(id), nil
}
