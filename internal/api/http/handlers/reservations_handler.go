package handlers

import (
	"context"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/stock-ledger/internal/api/dto"
	"github.com/spec-kit/stock-ledger/internal/domain"
	"github.com/spec-kit/stock-ledger/internal/service"
	apperrors "github.com/spec-kit/stock-ledger/pkg/util/errorutil"
)

// ReservationsHandler serves depletion projections and restock requests.
type ReservationsHandler struct {
	reservations *service.ReservationService
}

// NewReservationsHandler constructs handler.
func NewReservationsHandler(reservations *service.ReservationService) *ReservationsHandler {
	return &ReservationsHandler{reservations: reservations}
}

func (h *ReservationsHandler) parseReserve(c *fiber.Ctx, identity domain.Identity) (service.ReserveInput, error) {
	var req dto.ReserveRequest
	if err := c.BodyParser(&req); err != nil {
		return service.ReserveInput{}, apperrors.NewValidationError("invalid payload", nil)
	}
	if req.ItemID <= 0 {
		return service.ReserveInput{}, apperrors.NewValidationError("item_id required", nil)
	}
	return service.ReserveInput{
		ItemID:       req.ItemID,
		UserEmail:    actingEmail(identity, req.UserEmail),
		DailyUsage:   req.DailyUsage,
		TargetAmount: req.TargetAmount,
	}, nil
}

// Reserve POST /reservations. Nothing is persisted.
func (h *ReservationsHandler) Reserve(c *fiber.Ctx) error {
	identity, err := callerIdentity(c)
	if err != nil {
		return err
	}
	input, err := h.parseReserve(c, identity)
	if err != nil {
		return err
	}
	projection, err := h.reservations.Reserve(c.UserContext(), identity, input)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": projectionResponse(projection)})
}

// SubmitRequest POST /reservations/requests.
func (h *ReservationsHandler) SubmitRequest(c *fiber.Ctx) error {
	identity, err := callerIdentity(c)
	if err != nil {
		return err
	}
	input, err := h.parseReserve(c, identity)
	if err != nil {
		return err
	}
	res, err := h.reservations.SubmitRequest(c.UserContext(), identity, input)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": restockResponse(res)})
}

// ListRequests GET /reservations/requests?status=&department=.
func (h *ReservationsHandler) ListRequests(c *fiber.Ctx) error {
	identity, err := callerIdentity(c)
	if err != nil {
		return err
	}
	filter := service.RequestFilter{Department: queryString(c, "department")}
	if raw := queryString(c, "status"); raw != nil {
		status := domain.ReservationStatus(*raw)
		filter.Status = &status
	}
	list, err := h.reservations.ListRequests(c.UserContext(), identity, filter)
	if err != nil {
		return err
	}
	out := make([]dto.RestockRequestResponse, 0, len(list))
	for i := range list {
		out = append(out, restockResponse(&list[i]))
	}
	return c.JSON(fiber.Map{"data": out})
}

// GetRequest GET /reservations/requests/:id.
func (h *ReservationsHandler) GetRequest(c *fiber.Ctx) error {
	return h.withRequest(c, h.reservations.GetRequest)
}

// FulfillRequest POST /reservations/requests/:id/fulfill.
func (h *ReservationsHandler) FulfillRequest(c *fiber.Ctx) error {
	return h.withRequest(c, h.reservations.FulfillRequest)
}

// CancelRequest DELETE /reservations/requests/:id.
func (h *ReservationsHandler) CancelRequest(c *fiber.Ctx) error {
	return h.withRequest(c, h.reservations.CancelRequest)
}

type requestAction func(ctx context.Context, identity domain.Identity, id int64) (*domain.Reservation, error)

func (h *ReservationsHandler) withRequest(c *fiber.Ctx, action requestAction) error {
	identity, err := callerIdentity(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	res, err := action(c.UserContext(), identity, id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": restockResponse(res)})
}
