package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/stock-ledger/internal/config"
	"github.com/spec-kit/stock-ledger/internal/domain"
	apperrors "github.com/spec-kit/stock-ledger/pkg/util/errorutil"
)

// SeedAdminIdentity is the synthetic caller used while applying a seed file.
var SeedAdminIdentity = domain.Identity{Role: domain.AccountRoleAdmin, Email: "seed@localhost", Name: "seed"}

// ApplySeed creates the departments, roles and admins listed in seed. Entries
// that already exist are left untouched.
func ApplySeed(ctx context.Context, seed *config.Seed, catalog *CatalogService, authSvc *AuthService, logger *zap.Logger) error {
	if seed == nil {
		return nil
	}
	created := 0
	for _, name := range seed.Departments {
		if _, err := catalog.AddDepartment(ctx, SeedAdminIdentity, name); err != nil {
			if apperrors.Is(err, apperrors.CodeConflict) {
				continue
			}
			return err
		}
		created++
	}
	for _, name := range seed.Roles {
		if _, err := catalog.AddRole(ctx, SeedAdminIdentity, name); err != nil {
			if apperrors.Is(err, apperrors.CodeConflict) {
				continue
			}
			return err
		}
		created++
	}
	for _, admin := range seed.Admins {
		name := admin.Name
		if name == "" {
			name = admin.Email
		}
		_, err := authSvc.Register(ctx, RegisterInput{
			Role:     string(domain.AccountRoleAdmin),
			Name:     name,
			Email:    admin.Email,
			Password: admin.Password,
		})
		if err != nil {
			if apperrors.Is(err, apperrors.CodeConflict) {
				continue
			}
			return err
		}
		created++
	}
	logger.Info("seed applied", zap.Int("created", created))
	return nil
}
