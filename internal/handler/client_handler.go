package handler

import (
	"fmt"

	"go-sales-crm/internal/service"

	"github.com/gofiber/fiber/v2"
)

type ClientHandler struct {
	service       service.ClientService
	importService service.ImportService
	maxFileSize   int64
}

func NewClientHandler(s service.ClientService, imports service.ImportService, maxFileSize int64) *ClientHandler {
	return &ClientHandler{service: s, importService: imports, maxFileSize: maxFileSize}
}

// GetClients lists the caller's clients. Without page or pageSize the
// response is a plain array; otherwise it is a page object.
// GET /api/v1/clients?search=&page=&pageSize=
func (h *ClientHandler) GetClients(c *fiber.Ctx) error {
	who, err := caller(c)
	if err != nil {
		return fail(c, err)
	}

	params := service.SearchParams{
		Query:    c.Query("search"),
		Page:     c.QueryInt("page", 0),
		PageSize: c.QueryInt("pageSize", 0),
	}
	if c.Query("page") != "" && params.Page < 1 {
		return badRequest(c, "page must be a positive integer")
	}
	if c.Query("pageSize") != "" && params.PageSize < 1 {
		return badRequest(c, "pageSize must be a positive integer")
	}

	result, err := h.service.Search(c.UserContext(), who, params)
	if err != nil {
		return fail(c, err)
	}
	if result.Page != nil {
		return c.JSON(result.Page)
	}
	return c.JSON(result.Clients)
}

// GetClient returns a client with its sales and their totals.
// GET /api/v1/clients/:id
func (h *ClientHandler) GetClient(c *fiber.Ctx) error {
	who, err := caller(c)
	if err != nil {
		return fail(c, err)
	}
	id, err := parseID(c)
	if err != nil {
		return fail(c, err)
	}

	detail, err := h.service.GetWithSales(c.UserContext(), who, id)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(detail)
}

// POST /api/v1/clients
func (h *ClientHandler) CreateClient(c *fiber.Ctx) error {
	who, err := caller(c)
	if err != nil {
		return fail(c, err)
	}

	var req service.ClientInput
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid JSON")
	}

	client, err := h.service.Create(c.UserContext(), who, &req)
	if err != nil {
		return fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(client)
}

// PUT /api/v1/clients/:id
func (h *ClientHandler) UpdateClient(c *fiber.Ctx) error {
	who, err := caller(c)
	if err != nil {
		return fail(c, err)
	}
	id, err := parseID(c)
	if err != nil {
		return fail(c, err)
	}

	var req service.ClientInput
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid JSON")
	}

	client, err := h.service.Update(c.UserContext(), who, id, &req)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(client)
}

// DeleteClient removes a client and all of its sales.
// DELETE /api/v1/clients/:id
func (h *ClientHandler) DeleteClient(c *fiber.Ctx) error {
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

type bulkDeleteRequest struct {
	IDs []uint `json:"ids"`
}

// DELETE /api/v1/clients
func (h *ClientHandler) BulkDeleteClients(c *fiber.Ctx) error {
	who, err := caller(c)
	if err != nil {
		return fail(c, err)
	}

	var req bulkDeleteRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid JSON")
	}

	count, err := h.service.BulkDelete(c.UserContext(), who, req.IDs)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{
		"message": fmt.Sprintf("%d clients deleted", count),
		"count":   count,
	})
}

// ImportClients upserts clients from an uploaded spreadsheet.
// POST /api/v1/clients/import (multipart field "file")
func (h *ClientHandler) ImportClients(c *fiber.Ctx) error {
	who, err := caller(c)
	if err != nil {
		return fail(c, err)
	}

	header, err := c.FormFile("file")
	if err != nil {
		return badRequest(c, "No file found in field 'file'")
	}
	if h.maxFileSize > 0 && header.Size > h.maxFileSize {
		return badRequest(c, fmt.Sprintf("File exceeds the %d byte limit", h.maxFileSize))
	}

	file, err := header.Open()
	if err != nil {
		return badRequest(c, "Could not read uploaded file")
	}
	defer file.Close()

	result, err := h.importService.Import(c.UserContext(), who, header.Filename, file)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(result)
}
