package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/stock-ledger/internal/api/dto"
	"github.com/spec-kit/stock-ledger/internal/service"
	apperrors "github.com/spec-kit/stock-ledger/pkg/util/errorutil"
)

// ItemsHandler exposes the stock ledger.
type ItemsHandler struct {
	ledger *service.LedgerService
}

// NewItemsHandler constructs handler.
func NewItemsHandler(ledger *service.LedgerService) *ItemsHandler {
	return &ItemsHandler{ledger: ledger}
}

// CreateItem POST /items.
func (h *ItemsHandler) CreateItem(c *fiber.Ctx) error {
	identity, err := callerIdentity(c)
	if err != nil {
		return err
	}
	var req dto.CreateItemRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	item, err := h.ledger.CreateItem(c.UserContext(), identity, service.CreateItemInput{
		Department:   req.Department,
		Type:         req.Type,
		Name:         req.Name,
		AmountNeeded: req.AmountNeeded,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": itemResponse(item)})
}

// ListItems GET /items?department=&admin_view=.
func (h *ItemsHandler) ListItems(c *fiber.Ctx) error {
	identity, err := callerIdentity(c)
	if err != nil {
		return err
	}
	items, err := h.ledger.ListItems(c.UserContext(), identity, service.ItemListFilter{
		Department: queryString(c, "department"),
		AdminView:  queryBool(c, "admin_view"),
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": itemList(items)})
}

// ListDepleted GET /items/depleted.
func (h *ItemsHandler) ListDepleted(c *fiber.Ctx) error {
	identity, err := callerIdentity(c)
	if err != nil {
		return err
	}
	items, err := h.ledger.ListDepleted(c.UserContext(), identity)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": itemList(items)})
}

// GetItem GET /items/:id.
func (h *ItemsHandler) GetItem(c *fiber.Ctx) error {
	identity, err := callerIdentity(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	item, err := h.ledger.GetItem(c.UserContext(), identity, id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": itemResponse(item)})
}

// UpdateItem PUT /items/:id.
func (h *ItemsHandler) UpdateItem(c *fiber.Ctx) error {
	identity, err := callerIdentity(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req dto.UpdateItemRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	item, err := h.ledger.UpdateItem(c.UserContext(), identity, id, actingEmail(identity, req.UserEmail), service.UpdateItemInput{
		Department:   req.Department,
		Type:         req.Type,
		Name:         req.Name,
		AmountNeeded: req.AmountNeeded,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": itemResponse(item)})
}

// UseItem POST /items/:id/use.
func (h *ItemsHandler) UseItem(c *fiber.Ctx) error {
	identity, err := callerIdentity(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req dto.UseItemRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	result, err := h.ledger.UseItem(c.UserContext(), identity, id, actingEmail(identity, req.UserEmail), req.Amount)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.UseItemResponse{
		ItemID:        id,
		Used:          result.Used,
		CurrentAmount: result.CurrentAmount,
		Depleted:      result.Depleted,
	}})
}

// RefillItem POST /items/:id/refill.
func (h *ItemsHandler) RefillItem(c *fiber.Ctx) error {
	identity, err := callerIdentity(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req dto.ItemActionRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return apperrors.NewValidationError("invalid payload", nil)
		}
	}
	amount, err := h.ledger.RefillItem(c.UserContext(), identity, id, actingEmail(identity, req.UserEmail))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.RefillResponse{ItemID: id, RefilledTo: amount}})
}

// DeleteItem DELETE /items/:id. The acting email may come from the body or ?user_email=.
func (h *ItemsHandler) DeleteItem(c *fiber.Ctx) error {
	identity, err := callerIdentity(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	req := dto.ItemActionRequest{UserEmail: c.Query("user_email")}
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return apperrors.NewValidationError("invalid payload", nil)
		}
	}
	if err := h.ledger.DeleteItem(c.UserContext(), identity, id, actingEmail(identity, req.UserEmail)); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}
