package service

import (
	"context"
	"strings"

	"github.com/spec-kit/stock-ledger/internal/domain"
	"github.com/spec-kit/stock-ledger/internal/events"
	"github.com/spec-kit/stock-ledger/internal/observability"
	"github.com/spec-kit/stock-ledger/internal/repository"
	apperrors "github.com/spec-kit/stock-ledger/pkg/util/errorutil"
)

// CreateItemInput describes a new stock item.
type CreateItemInput struct {
	Department   string
	Type         string
	Name         string
	AmountNeeded int64
}

// UpdateItemInput carries a partial item edit. Nil fields are left alone.
type UpdateItemInput struct {
	Department   *string
	Type         *string
	Name         *string
	AmountNeeded *int64
}

// ItemListFilter selects which items a caller wants.
type ItemListFilter struct {
	Department *string
	AdminView  bool
}

// UseResult reports the outcome of a debit.
type UseResult struct {
	Used          int64
	CurrentAmount int64
	Depleted      bool
}

// LedgerService owns the stock quantities.
type LedgerService struct {
	items      repository.ItemRepository
	catalog    repository.CatalogRepository
	dispatcher events.Dispatcher
	metrics    *observability.Metrics
	now        Clock
}

// LedgerDependencies bundles collaborators for the ledger.
type LedgerDependencies struct {
	ItemRepo    repository.ItemRepository
	CatalogRepo repository.CatalogRepository
	Dispatcher  events.Dispatcher
	Metrics     *observability.Metrics
	Clock       Clock
}

// NewLedgerService constructs the service.
func NewLedgerService(deps LedgerDependencies) *LedgerService {
	now := deps.Clock
	if now == nil {
		now = systemClock
	}
	return &LedgerService{
		items:      deps.ItemRepo,
		catalog:    deps.CatalogRepo,
		dispatcher: deps.Dispatcher,
		metrics:    deps.Metrics,
		now:        now,
	}
}

// CreateItem registers a new item at zero stock in the caller's department.
func (s *LedgerService) CreateItem(ctx context.Context, identity domain.Identity, input CreateItemInput) (*domain.StockItem, error) {
	department := strings.TrimSpace(input.Department)
	if err := requireDepartmentStaff(identity, department); err != nil {
		return nil, err
	}
	item := &domain.StockItem{
		Department:   department,
		Type:         strings.TrimSpace(input.Type),
		Name:         strings.TrimSpace(input.Name),
		AmountNeeded: input.AmountNeeded,
	}
	if err := validateItem(item); err != nil {
		return nil, err
	}
	if err := s.items.Create(ctx, item); err != nil {
		return nil, storeError(err, "item", nil)
	}
	return item, nil
}

// ImportItem stores an item from a bulk import row on behalf of an admin.
func (s *LedgerService) ImportItem(ctx context.Context, identity domain.Identity, item domain.StockItem) (*domain.StockItem, error) {
	if err := requireAdmin(identity); err != nil {
		return nil, err
	}
	item.ID = 0
	if err := validateItem(&item); err != nil {
		return nil, err
	}
	if item.CurrentAmount < 0 {
		return nil, apperrors.NewValidationError("current_amount must not be negative", map[string]any{"current_amount": item.CurrentAmount})
	}
	exists, err := s.catalog.DepartmentExists(ctx, item.Department)
	if err != nil {
		return nil, storeError(err, "department", nil)
	}
	if !exists {
		return nil, apperrors.NewValidationError("unknown department", map[string]any{"department": item.Department})
	}
	if err := s.items.Create(ctx, &item); err != nil {
		return nil, storeError(err, "item", nil)
	}
	return &item, nil
}

// GetItem returns one item visible to the caller.
func (s *LedgerService) GetItem(ctx context.Context, identity domain.Identity, id int64) (*domain.StockItem, error) {
	item, err := s.items.GetByID(ctx, id)
	if err != nil {
		return nil, storeError(err, "item", map[string]any{"item_id": id})
	}
	if !identity.IsAdmin() {
		if err := requireDepartmentStaff(identity, item.Department); err != nil {
			return nil, err
		}
	}
	return item, nil
}

// ListItems returns items ordered by id, scoped by the caller's role.
func (s *LedgerService) ListItems(ctx context.Context, identity domain.Identity, filter ItemListFilter) ([]domain.StockItem, error) {
	var repoFilter repository.ItemFilter
	if filter.AdminView {
		if err := requireAdmin(identity); err != nil {
			return nil, err
		}
	} else {
		if filter.Department == nil || strings.TrimSpace(*filter.Department) == "" {
			return nil, apperrors.NewValidationError("department is required", nil)
		}
		department := strings.TrimSpace(*filter.Department)
		if !identity.IsAdmin() {
			if err := requireDepartmentStaff(identity, department); err != nil {
				return nil, err
			}
		}
		repoFilter.Department = &department
	}
	items, err := s.items.List(ctx, repoFilter)
	if err != nil {
		return nil, storeError(err, "item", nil)
	}
	return items, nil
}

// ListDepleted returns every item at zero stock.
func (s *LedgerService) ListDepleted(ctx context.Context, identity domain.Identity) ([]domain.StockItem, error) {
	if err := requireAdmin(identity); err != nil {
		return nil, err
	}
	items, err := s.items.List(ctx, repository.ItemFilter{DepletedOnly: true})
	if err != nil {
		return nil, storeError(err, "item", nil)
	}
	return items, nil
}

// AllItems returns every item in id order for export.
func (s *LedgerService) AllItems(ctx context.Context) ([]domain.StockItem, error) {
	items, err := s.items.List(ctx, repository.ItemFilter{})
	if err != nil {
		return nil, storeError(err, "item", nil)
	}
	return items, nil
}

// UseItem debits amount units. Over-use is rejected, never clamped.
func (s *LedgerService) UseItem(ctx context.Context, identity domain.Identity, id int64, userEmail string, amount int64) (*UseResult, error) {
	if err := requireCaller(identity, userEmail); err != nil {
		return nil, err
	}
	if amount <= 0 {
		return nil, apperrors.NewInvalidAmount(amount)
	}

	item, err := s.items.Mutate(ctx, id, func(item *domain.StockItem) error {
		if err := requireDepartmentStaff(identity, item.Department); err != nil {
			return err
		}
		if amount > item.CurrentAmount {
			return apperrors.NewInsufficientStock(item.ID, amount, item.CurrentAmount)
		}
		item.CurrentAmount -= amount
		return nil
	})
	if err != nil {
		return nil, storeError(err, "item", map[string]any{"item_id": id})
	}

	depleted := item.Depleted()
	s.metrics.RecordUsage(item.Department, amount, depleted)
	if depleted {
		publishEvent(ctx, s.dispatcher, s.now, events.Event{
			Type:       events.EventItemDepleted,
			Department: item.Department,
			Actor:      actorOf(identity),
			Payload: events.ItemDepletedPayload{
				ItemID:       item.ID,
				ItemName:     item.Name,
				AmountNeeded: item.AmountNeeded,
			},
		})
	}
	return &UseResult{Used: amount, CurrentAmount: item.CurrentAmount, Depleted: depleted}, nil
}

// RefillItem restores an item to its restock target and returns the new amount.
func (s *LedgerService) RefillItem(ctx context.Context, identity domain.Identity, id int64, userEmail string) (int64, error) {
	if err := requireCaller(identity, userEmail); err != nil {
		return 0, err
	}
	item, err := s.refill(ctx, identity, id)
	if err != nil {
		return 0, err
	}
	return item.CurrentAmount, nil
}

func (s *LedgerService) refill(ctx context.Context, identity domain.Identity, id int64) (*domain.StockItem, error) {
	item, err := s.items.Mutate(ctx, id, refillMutation(identity))
	if err != nil {
		return nil, storeError(err, "item", map[string]any{"item_id": id})
	}
	s.afterRefill(ctx, identity, item)
	return item, nil
}

// refillMutation tops an item up to its restock target.
func refillMutation(identity domain.Identity) repository.ItemMutation {
	return func(item *domain.StockItem) error {
		if err := requireDepartmentStaff(identity, item.Department); err != nil {
			return err
		}
		item.CurrentAmount = item.AmountNeeded
		return nil
	}
}

func (s *LedgerService) afterRefill(ctx context.Context, identity domain.Identity, item *domain.StockItem) {
	s.metrics.RecordRefill(item.Department)
	publishEvent(ctx, s.dispatcher, s.now, events.Event{
		Type:       events.EventItemRefilled,
		Department: item.Department,
		Actor:      actorOf(identity),
		Payload: events.ItemRefilledPayload{
			ItemID:     item.ID,
			ItemName:   item.Name,
			RefilledTo: item.CurrentAmount,
		},
	})
}

// UpdateItem edits an item's descriptive fields and restock target. Stock on
// hand only moves through use and refill.
func (s *LedgerService) UpdateItem(ctx context.Context, identity domain.Identity, id int64, userEmail string, input UpdateItemInput) (*domain.StockItem, error) {
	if err := requireCaller(identity, userEmail); err != nil {
		return nil, err
	}
	if input.AmountNeeded != nil && *input.AmountNeeded <= 0 {
		return nil, apperrors.NewValidationError("amount_needed must be a positive integer", map[string]any{"amount_needed": *input.AmountNeeded})
	}
	var department string
	if input.Department != nil {
		department = strings.TrimSpace(*input.Department)
		if err := requireDepartmentStaff(identity, department); err != nil {
			return nil, err
		}
		exists, err := s.catalog.DepartmentExists(ctx, department)
		if err != nil {
			return nil, storeError(err, "department", nil)
		}
		if !exists {
			return nil, apperrors.NewValidationError("unknown department", map[string]any{"department": department})
		}
	}

	item, err := s.items.Mutate(ctx, id, func(item *domain.StockItem) error {
		if err := requireDepartmentStaff(identity, item.Department); err != nil {
			return err
		}
		if input.Department != nil {
			item.Department = department
		}
		if input.Type != nil {
			item.Type = strings.TrimSpace(*input.Type)
		}
		if input.Name != nil {
			item.Name = strings.TrimSpace(*input.Name)
		}
		if input.AmountNeeded != nil {
			item.AmountNeeded = *input.AmountNeeded
		}
		return validateItem(item)
	})
	if err != nil {
		return nil, storeError(err, "item", map[string]any{"item_id": id})
	}
	return item, nil
}

// DeleteItem removes an item. Its id is never reissued.
func (s *LedgerService) DeleteItem(ctx context.Context, identity domain.Identity, id int64, userEmail string) error {
	if err := requireCaller(identity, userEmail); err != nil {
		return err
	}
	err := s.items.Delete(ctx, id, func(item *domain.StockItem) error {
		return requireDepartmentStaff(identity, item.Department)
	})
	return storeError(err, "item", map[string]any{"item_id": id})
}

func validateItem(item *domain.StockItem) error {
	if item.Department == "" || item.Type == "" || item.Name == "" {
		return apperrors.NewValidationError("department, type and name are required", nil)
	}
	if item.AmountNeeded <= 0 {
		return apperrors.NewValidationError("amount_needed must be a positive integer", map[string]any{"amount_needed": item.AmountNeeded})
	}
	return nil
}
