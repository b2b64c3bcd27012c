package service

import (
	"context"
	"time"

	"github.com/spec-kit/stock-ledger/internal/domain"
	"github.com/spec-kit/stock-ledger/internal/events"
	"github.com/spec-kit/stock-ledger/internal/repository"
	apperrors "github.com/spec-kit/stock-ledger/pkg/util/errorutil"
)

// ReserveInput parameterises a projection. A nil TargetAmount means the
// item's own restock target.
type ReserveInput struct {
	ItemID       int64
	UserEmail    string
	DailyUsage   int64
	TargetAmount *int64
}

// RequestFilter narrows restock request listings.
type RequestFilter struct {
	Status     *domain.ReservationStatus
	Department *string
}

// ReservationService projects stock depletion and tracks restock requests.
type ReservationService struct {
	items        repository.ItemRepository
	reservations repository.ReservationRepository
	ledger       *LedgerService
	dispatcher   events.Dispatcher
	now          Clock
}

// ReservationDependencies bundles collaborators.
type ReservationDependencies struct {
	ItemRepo        repository.ItemRepository
	ReservationRepo repository.ReservationRepository
	Ledger          *LedgerService
	Dispatcher      events.Dispatcher
	Clock           Clock
}

// NewReservationService constructs the service.
func NewReservationService(deps ReservationDependencies) *ReservationService {
	now := deps.Clock
	if now == nil {
		now = systemClock
	}
	return &ReservationService{
		items:        deps.ItemRepo,
		reservations: deps.ReservationRepo,
		ledger:       deps.Ledger,
		dispatcher:   deps.Dispatcher,
		now:          now,
	}
}

// Reserve computes an advisory projection. It never changes stock.
func (s *ReservationService) Reserve(ctx context.Context, identity domain.Identity, input ReserveInput) (*domain.Projection, error) {
	_, projection, err := s.project(ctx, identity, input)
	return projection, err
}

func (s *ReservationService) project(ctx context.Context, identity domain.Identity, input ReserveInput) (*domain.StockItem, *domain.Projection, error) {
	if err := requireCaller(identity, input.UserEmail); err != nil {
		return nil, nil, err
	}
	if input.DailyUsage < 0 {
		return nil, nil, apperrors.NewValidationError("daily_usage must not be negative", map[string]any{"daily_usage": input.DailyUsage})
	}
	if input.TargetAmount != nil && *input.TargetAmount < 0 {
		return nil, nil, apperrors.NewValidationError("target_amount must not be negative", map[string]any{"target_amount": *input.TargetAmount})
	}

	item, err := s.items.GetByID(ctx, input.ItemID)
	if err != nil {
		return nil, nil, storeError(err, "item", map[string]any{"item_id": input.ItemID})
	}
	if err := requireDepartmentStaff(identity, item.Department); err != nil {
		return nil, nil, err
	}
	return item, Project(*item, input.DailyUsage, input.TargetAmount, s.now()), nil
}

// Project derives the shortfall and, for a positive daily usage, the whole
// days of stock left and the calendar day it runs out.
func Project(item domain.StockItem, dailyUsage int64, targetAmount *int64, now time.Time) *domain.Projection {
	target := item.AmountNeeded
	if targetAmount != nil {
		target = *targetAmount
	}
	projection := &domain.Projection{
		ItemID:        item.ID,
		ItemName:      item.Name,
		Department:    item.Department,
		CurrentAmount: item.CurrentAmount,
		TargetAmount:  target,
		DailyUsage:    dailyUsage,
		Shortfall:     item.Shortfall(target),
	}
	if dailyUsage > 0 {
		days := item.CurrentAmount / dailyUsage
		date := startOfDay(now).AddDate(0, 0, int(days))
		projection.DaysRemaining = &days
		projection.ExpectedDepletionDate = &date
	}
	return projection
}

// SubmitRequest persists a pending restock request derived from a projection.
func (s *ReservationService) SubmitRequest(ctx context.Context, identity domain.Identity, input ReserveInput) (*domain.Reservation, error) {
	item, projection, err := s.project(ctx, identity, input)
	if err != nil {
		return nil, err
	}
	now := s.now()
	restockDate := estimatedRestockDate(*item, projection, now)
	res := &domain.Reservation{
		ItemID:              projection.ItemID,
		ItemName:            projection.ItemName,
		Department:          projection.Department,
		UserEmail:           identity.Email,
		DailyUsage:          projection.DailyUsage,
		AmountToRefill:      projection.Shortfall,
		CreatedOn:           now,
		ExpectedRestockDate: restockDate,
		Status:              domain.ReservationStatusPending,
	}
	if err := s.reservations.Create(ctx, res); err != nil {
		return nil, storeError(err, "reservation", nil)
	}

	publishEvent(ctx, s.dispatcher, s.now, events.Event{
		Type:       events.EventReservationRequested,
		Department: res.Department,
		Actor:      actorOf(identity),
		Payload:    reservationPayload(res),
	})
	return res, nil
}

// ListRequests returns restock requests. Staff only see their department.
func (s *ReservationService) ListRequests(ctx context.Context, identity domain.Identity, filter RequestFilter) ([]domain.Reservation, error) {
	if filter.Status != nil && !filter.Status.Valid() {
		return nil, apperrors.NewValidationError("status must be pending, fulfilled or cancelled", map[string]any{"status": *filter.Status})
	}
	repoFilter := repository.ReservationFilter{Status: filter.Status, Department: filter.Department}
	if !identity.IsAdmin() {
		if filter.Department != nil && *filter.Department != identity.Department {
			return nil, apperrors.NewForbidden("caller is not staff of department " + *filter.Department)
		}
		dept := identity.Department
		repoFilter.Department = &dept
	}
	list, err := s.reservations.List(ctx, repoFilter)
	if err != nil {
		return nil, storeError(err, "reservation", nil)
	}
	return list, nil
}

// GetRequest returns one restock request visible to the caller.
func (s *ReservationService) GetRequest(ctx context.Context, identity domain.Identity, id int64) (*domain.Reservation, error) {
	res, err := s.reservations.GetByID(ctx, id)
	if err != nil {
		return nil, storeError(err, "reservation", map[string]any{"reservation_id": id})
	}
	if !identity.IsAdmin() {
		if err := requireDepartmentStaff(identity, res.Department); err != nil {
			return nil, err
		}
	}
	return res, nil
}

// FulfillRequest closes a pending request and refills its item in the same
// write.
func (s *ReservationService) FulfillRequest(ctx context.Context, identity domain.Identity, id int64) (*domain.Reservation, error) {
	res, item, err := s.reservations.Fulfill(ctx, id, func(res *domain.Reservation) error {
		if err := requireDepartmentStaff(identity, res.Department); err != nil {
			return err
		}
		if res.Status != domain.ReservationStatusPending {
			return apperrors.NewConflict("reservation is "+string(res.Status), map[string]any{"reservation_id": res.ID})
		}
		fulfilled := s.now()
		res.Status = domain.ReservationStatusFulfilled
		res.FulfilledOn = &fulfilled
		return nil
	}, refillMutation(identity))
	if err != nil {
		return nil, storeError(err, "reservation", map[string]any{"reservation_id": id})
	}

	s.ledger.afterRefill(ctx, identity, item)
	publishEvent(ctx, s.dispatcher, s.now, events.Event{
		Type:       events.EventReservationFulfilled,
		Department: res.Department,
		Actor:      actorOf(identity),
		Payload:    reservationPayload(res),
	})
	return res, nil
}

// CancelRequest withdraws a pending request.
func (s *ReservationService) CancelRequest(ctx context.Context, identity domain.Identity, id int64) (*domain.Reservation, error) {
	res, err := s.reservations.Mutate(ctx, id, func(res *domain.Reservation) error {
		if !identity.IsAdmin() {
			if err := requireDepartmentStaff(identity, res.Department); err != nil {
				return err
			}
		}
		if res.Status != domain.ReservationStatusPending {
			return apperrors.NewConflict("reservation is "+string(res.Status), map[string]any{"reservation_id": res.ID})
		}
		res.Status = domain.ReservationStatusCancelled
		return nil
	})
	if err != nil {
		return nil, storeError(err, "reservation", map[string]any{"reservation_id": id})
	}
	return res, nil
}

func reservationPayload(res *domain.Reservation) events.ReservationPayload {
	return events.ReservationPayload{
		ReservationID:       res.ID,
		ItemID:              res.ItemID,
		ItemName:            res.ItemName,
		AmountToRefill:      res.AmountToRefill,
		ExpectedRestockDate: res.ExpectedRestockDate,
	}
}

// estimatedRestockDate is the projected depletion day. Without a reported
// usage it assumes the restock target turns over in a week.
func estimatedRestockDate(item domain.StockItem, p *domain.Projection, now time.Time) time.Time {
	if p.ExpectedDepletionDate != nil {
		return *p.ExpectedDepletionDate
	}
	today := startOfDay(now)
	if p.CurrentAmount <= 0 {
		return today
	}
	rate := ceilDiv(item.AmountNeeded, weeklyTurnoverDays)
	if rate < 1 {
		rate = 1
	}
	return today.AddDate(0, 0, int(ceilDiv(p.CurrentAmount, rate)))
}

const weeklyTurnoverDays = 7

func ceilDiv(a, b int64) int64 {
	if a <= 0 {
		return 0
	}
	return (a + b - 1) / b
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
