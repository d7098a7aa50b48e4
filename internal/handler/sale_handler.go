package handler

import (
	"go-sales-crm/internal/service"

	"github.com/gofiber/fiber/v2"
)

type SaleHandler struct {
	service service.SaleService
}

func NewSaleHandler(s service.SaleService) *SaleHandler {
	return &SaleHandler{service: s}
}

// GetSales returns the caller's sales for the calendar view, newest first.
// GET /api/v1/sales
func (h *SaleHandler) GetSales(c *fiber.Ctx) error {
	who, err := caller(c)
	if err != nil {
		return fail(c, err)
	}

	entries, err := h.service.ListForCalendar(c.UserContext(), who)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(entries)
}

// GET /api/v1/sales/:id
func (h *SaleHandler) GetSale(c *fiber.Ctx) error {
	who, err := caller(c)
	if err != nil {
		return fail(c, err)
	}
	id, err := parseID(c)
	if err != nil {
		return fail(c, err)
	}

	sale, err := h.service.Get(c.UserContext(), who, id)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(sale)
}

// POST /api/v1/sales
func (h *SaleHandler) CreateSale(c *fiber.Ctx) error {
	who, err := caller(c)
	if err != nil {
		return fail(c, err)
	}

	var req service.CreateSaleInput
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid JSON")
	}

	sale, err := h.service.Create(c.UserContext(), who, &req)
	if err != nil {
		return fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(sale)
}

// DELETE /api/v1/sales/:id
func (h *SaleHandler) DeleteSale(c *fiber.Ctx) error {
	who, err := caller(c)
	if err != nil {
		return fail(c, err)
	}
	id, err := parseID(c)
	if err != nil {
		return fail(c, err)
	}

	if err := h.service.Delete(c.UserContext(), who, id); err != nil {
		return fail(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
