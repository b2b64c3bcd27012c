package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/spec-kit/stock-ledger/internal/auth"
	"github.com/spec-kit/stock-ledger/internal/config"
	"github.com/spec-kit/stock-ledger/internal/domain"
	"github.com/spec-kit/stock-ledger/internal/repository"
	apperrors "github.com/spec-kit/stock-ledger/pkg/util/errorutil"
)

// RegisterInput carries a registration request.
type RegisterInput struct {
	Role       string
	Name       string
	Email      string
	Password   string
	Department *string
	JobRole    *string
}

// Session is the outcome of a successful login.
type Session struct {
	Identity  domain.Identity
	Token     string
	ExpiresAt time.Time
}

// StaffSummary is one entry of the admin staff directory.
type StaffSummary struct {
	Name       string
	Department string
	JobRole    string
}

// AuthService coordinates registration and login flows.
type AuthService struct {
	accounts   repository.AccountRepository
	catalog    repository.CatalogRepository
	tokenMgr   *auth.TokenManager
	bcryptCost int
}

// AuthDependencies encapsulates repo requirements for auth service.
type AuthDependencies struct {
	AccountRepo repository.AccountRepository
	CatalogRepo repository.CatalogRepository
}

// NewAuthService builds the service.
func NewAuthService(cfg config.Config, deps AuthDependencies) *AuthService {
	return &AuthService{
		accounts:   deps.AccountRepo,
		catalog:    deps.CatalogRepo,
		tokenMgr:   auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes),
		bcryptCost: cfg.Auth.BcryptCost,
	}
}

// Register creates an admin or staff account.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*domain.Account, error) {
	role, ok := domain.ParseAccountRole(input.Role)
	if !ok {
		return nil, apperrors.NewValidationError("role must be admin or staff", map[string]any{"role": input.Role})
	}
	name := strings.TrimSpace(input.Name)
	email := normalizeEmail(input.Email)
	if name == "" || email == "" || input.Password == "" {
		return nil, apperrors.NewValidationError("name, email and password are required", nil)
	}

	hash, err := auth.HashPassword(input.Password, s.bcryptCost)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	account := &domain.Account{
		Role:         role,
		Email:        email,
		Name:         name,
		JobRole:      trimmedOrNil(input.JobRole),
		PasswordHash: hash,
	}
	if role == domain.AccountRoleStaff {
		dept := trimmedOrNil(input.Department)
		if dept == nil {
			return nil, apperrors.NewValidationError("department is required for staff accounts", nil)
		}
		if err := s.ensureDepartment(ctx, *dept); err != nil {
			return nil, err
		}
		account.Department = dept
	}

	if err := s.accounts.Create(ctx, account); err != nil {
		return nil, storeError(err, "account", map[string]any{"role": role, "email": email})
	}
	return account, nil
}

// ImportStaff stores a staff account from a bulk import row. passwordHash is
// used verbatim when it is a bcrypt digest; otherwise password is hashed.
func (s *AuthService) ImportStaff(ctx context.Context, email, name, passwordHash, password string, department, jobRole *string) error {
	if bcryptHash := strings.TrimSpace(passwordHash); bcryptHash != "" {
		if !auth.IsBcryptHash(bcryptHash) {
			return apperrors.NewValidationError("password_hash is not a bcrypt digest", nil)
		}
		dept := trimmedOrNil(department)
		if dept == nil {
			return apperrors.NewValidationError("department is required for staff accounts", nil)
		}
		if err := s.ensureDepartment(ctx, *dept); err != nil {
			return err
		}
		account := &domain.Account{
			Role:         domain.AccountRoleStaff,
			Email:        normalizeEmail(email),
			Name:         strings.TrimSpace(name),
			Department:   dept,
			JobRole:      trimmedOrNil(jobRole),
			PasswordHash: bcryptHash,
		}
		if account.Email == "" || account.Name == "" {
			return apperrors.NewValidationError("name and email are required", nil)
		}
		if err := s.accounts.Create(ctx, account); err != nil {
			return storeError(err, "account", map[string]any{"email": account.Email})
		}
		return nil
	}
	_, err := s.Register(ctx, RegisterInput{
		Role:       string(domain.AccountRoleStaff),
		Name:       name,
		Email:      email,
		Password:   password,
		Department: department,
		JobRole:    jobRole,
	})
	return err
}

// Login verifies credentials and issues a token.
func (s *AuthService) Login(ctx context.Context, rawRole, email, password string) (*Session, error) {
	role, ok := domain.ParseAccountRole(rawRole)
	if !ok {
		return nil, apperrors.NewValidationError("role must be admin or staff", map[string]any{"role": rawRole})
	}
	account, err := s.accounts.Get(ctx, role, normalizeEmail(email))
	if err != nil {
		return nil, storeError(err, "account", map[string]any{"role": role, "email": normalizeEmail(email)})
	}
	if err := auth.ComparePassword(account.PasswordHash, password); err != nil {
		if errors.Is(err, auth.ErrPasswordMismatch) {
			return nil, apperrors.NewUnauthorized("invalid credentials")
		}
		return nil, apperrors.NewInternalError(err)
	}

	token, exp, err := s.tokenMgr.GenerateToken(account.Role, account.Email)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return &Session{Identity: domain.IdentityFromAccount(account), Token: token, ExpiresAt: exp}, nil
}

// Profile returns the account behind (role, email).
func (s *AuthService) Profile(ctx context.Context, role domain.AccountRole, email string) (*domain.Account, error) {
	account, err := s.accounts.Get(ctx, role, normalizeEmail(email))
	if err != nil {
		return nil, storeError(err, "account", map[string]any{"role": role, "email": email})
	}
	return account, nil
}

// ListStaff returns the staff directory keyed by email.
func (s *AuthService) ListStaff(ctx context.Context, identity domain.Identity) (map[string]StaffSummary, error) {
	if err := requireAdmin(identity); err != nil {
		return nil, err
	}
	accounts, err := s.accounts.List(ctx, domain.AccountRoleStaff)
	if err != nil {
		return nil, storeError(err, "account", nil)
	}
	result := make(map[string]StaffSummary, len(accounts))
	for _, acc := range accounts {
		result[acc.Email] = StaffSummary{
			Name:       acc.Name,
			Department: derefString(acc.Department),
			JobRole:    derefString(acc.JobRole),
		}
	}
	return result, nil
}

// StaffAccounts returns staff accounts in creation order for export.
func (s *AuthService) StaffAccounts(ctx context.Context) ([]domain.Account, error) {
	accounts, err := s.accounts.List(ctx, domain.AccountRoleStaff)
	if err != nil {
		return nil, storeError(err, "account", nil)
	}
	return accounts, nil
}

// TokenManager exposes the underlying token manager for middleware usage.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}

func (s *AuthService) ensureDepartment(ctx context.Context, name string) error {
	exists, err := s.catalog.DepartmentExists(ctx, name)
	if err != nil {
		return storeError(err, "department", nil)
	}
	if !exists {
		return apperrors.NewValidationError("unknown department", map[string]any{"department": name})
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func trimmedOrNil(v *string) *string {
	if v == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*v)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func derefString(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}
