package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/stock-ledger/internal/api/dto"
	"github.com/spec-kit/stock-ledger/internal/service"
	apperrors "github.com/spec-kit/stock-ledger/pkg/util/errorutil"
)

// CatalogHandler serves departments and roles.
type CatalogHandler struct {
	catalog *service.CatalogService
}

// NewCatalogHandler constructs handler.
func NewCatalogHandler(catalog *service.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalog: catalog}
}

// ListDepartments GET /departments.
func (h *CatalogHandler) ListDepartments(c *fiber.Ctx) error {
	names, err := h.catalog.ListDepartments(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": names})
}

// AddDepartment POST /departments.
func (h *CatalogHandler) AddDepartment(c *fiber.Ctx) error {
	identity, err := callerIdentity(c)
	if err != nil {
		return err
	}
	var req dto.NameRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	dept, err := h.catalog.AddDepartment(c.UserContext(), identity, req.Name)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": fiber.Map{"name": dept.Name}})
}

// ListRoles GET /roles.
func (h *CatalogHandler) ListRoles(c *fiber.Ctx) error {
	names, err := h.catalog.ListRoles(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": names})
}

// AddRole POST /roles.
func (h *CatalogHandler) AddRole(c *fiber.Ctx) error {
	identity, err := callerIdentity(c)
	if err != nil {
		return err
	}
	var req dto.NameRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	role, err := h.catalog.AddRole(c.UserContext(), identity, req.Name)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": fiber.Map{"name": role.Name}})
}
