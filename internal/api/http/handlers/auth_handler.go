package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/stock-ledger/internal/api/dto"
	"github.com/spec-kit/stock-ledger/internal/domain"
	"github.com/spec-kit/stock-ledger/internal/service"
	apperrors "github.com/spec-kit/stock-ledger/pkg/util/errorutil"
)

// AuthHandler exposes registration, login and the account directory.
type AuthHandler struct {
	auth *service.AuthService
}

// NewAuthHandler constructs handler.
func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{auth: authService}
}

// Register handles POST /auth/register.
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	account, err := h.auth.Register(c.UserContext(), service.RegisterInput{
		Role:       req.Role,
		Name:       req.Name,
		Email:      req.Email,
		Password:   req.Password,
		Department: req.Department,
		JobRole:    req.JobRole,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": accountResponse(account)})
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	session, err := h.auth.Login(c.UserContext(), req.Role, req.Email, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"data": fiber.Map{
			"identity": dto.IdentityResponse{
				Role:       string(session.Identity.Role),
				Email:      session.Identity.Email,
				Name:       session.Identity.Name,
				Department: session.Identity.Department,
			},
			"auth": dto.AuthResponse{Token: session.Token, ExpiresAt: session.ExpiresAt},
		},
	})
}

// Profile handles GET /auth/profile. Without query parameters it returns the caller.
func (h *AuthHandler) Profile(c *fiber.Ctx) error {
	identity, err := callerIdentity(c)
	if err != nil {
		return err
	}
	role, email := identity.Role, identity.Email
	if raw := c.Query("role"); raw != "" {
		parsed, ok := domain.ParseAccountRole(raw)
		if !ok {
			return apperrors.NewValidationError("role must be admin or staff", map[string]any{"role": raw})
		}
		role = parsed
	}
	if q := c.Query("email"); q != "" {
		email = q
	}

	account, err := h.auth.Profile(c.UserContext(), role, email)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": accountResponse(account)})
}

// ListStaff handles GET /staff.
func (h *AuthHandler) ListStaff(c *fiber.Ctx) error {
	identity, err := callerIdentity(c)
	if err != nil {
		return err
	}
	staff, err := h.auth.ListStaff(c.UserContext(), identity)
	if err != nil {
		return err
	}
	out := make(map[string]dto.StaffEntry, len(staff))
	for email, s := range staff {
		out[email] = dto.StaffEntry{Name: s.Name, Department: s.Department, JobRole: s.JobRole}
	}
	return c.JSON(fiber.Map{"data": out})
}
