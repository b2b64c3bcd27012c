package handlers

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/stock-ledger/internal/api/dto"
	"github.com/spec-kit/stock-ledger/internal/auth"
	"github.com/spec-kit/stock-ledger/internal/domain"
	apperrors "github.com/spec-kit/stock-ledger/pkg/util/errorutil"
)

const dateLayout = "2006-01-02"

func callerIdentity(c *fiber.Ctx) (domain.Identity, error) {
	identity, ok := auth.IdentityFromContext(c)
	if !ok {
		return domain.Identity{}, apperrors.NewUnauthorized("authentication required")
	}
	return identity, nil
}

func pathID(c *fiber.Ctx, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Params(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperrors.NewValidationError("invalid id", map[string]any{name: c.Params(name)})
	}
	return id, nil
}

// actingEmail falls back to the authenticated email when the payload omits user_email.
func actingEmail(identity domain.Identity, supplied string) string {
	if strings.TrimSpace(supplied) == "" {
		return identity.Email
	}
	return supplied
}

func queryBool(c *fiber.Ctx, key string) bool {
	v, err := strconv.ParseBool(c.Query(key))
	return err == nil && v
}

func queryString(c *fiber.Ctx, key string) *string {
	v := strings.TrimSpace(c.Query(key))
	if v == "" {
		return nil
	}
	return &v
}

func accountResponse(acc *domain.Account) dto.AccountResponse {
	return dto.AccountResponse{
		Role:       string(acc.Role),
		Email:      acc.Email,
		Name:       acc.Name,
		Department: acc.Department,
		JobRole:    acc.JobRole,
	}
}

func itemResponse(item *domain.StockItem) dto.ItemResponse {
	return dto.ItemResponse{
		ID:            item.ID,
		Department:    item.Department,
		Type:          item.Type,
		Name:          item.Name,
		CurrentAmount: item.CurrentAmount,
		AmountNeeded:  item.AmountNeeded,
		Depleted:      item.Depleted(),
		CreatedAt:     item.CreatedAt,
		UpdatedAt:     item.UpdatedAt,
	}
}

func itemList(items []domain.StockItem) []dto.ItemResponse {
	out := make([]dto.ItemResponse, 0, len(items))
	for i := range items {
		out = append(out, itemResponse(&items[i]))
	}
	return out
}

func projectionResponse(p *domain.Projection) dto.ProjectionResponse {
	resp := dto.ProjectionResponse{
		ItemID:        p.ItemID,
		ItemName:      p.ItemName,
		Department:    p.Department,
		CurrentAmount: p.CurrentAmount,
		TargetAmount:  p.TargetAmount,
		DailyUsage:    p.DailyUsage,
		Shortfall:     p.Shortfall,
		DaysRemaining: p.DaysRemaining,
	}
	if p.ExpectedDepletionDate != nil {
		date := p.ExpectedDepletionDate.Format(dateLayout)
		resp.ExpectedDepletionDate = &date
	}
	return resp
}

func restockResponse(res *domain.Reservation) dto.RestockRequestResponse {
	return dto.RestockRequestResponse{
		ID:                  res.ID,
		ItemID:              res.ItemID,
		ItemName:            res.ItemName,
		Department:          res.Department,
		UserEmail:           res.UserEmail,
		DailyUsage:          res.DailyUsage,
		AmountToRefill:      res.AmountToRefill,
		CreatedOn:           res.CreatedOn,
		ExpectedRestockDate: res.ExpectedRestockDate.Format(dateLayout),
		Status:              string(res.Status),
		FulfilledOn:         res.FulfilledOn,
	}
}
