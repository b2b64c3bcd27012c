package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/stock-ledger/internal/domain"
)

func TestTokenRoundTrip(t *testing.T) {
	tm := NewTokenManager("secret", 5)
	token, expires, err := tm.GenerateToken(domain.AccountRoleStaff, "nurse@clinic.io")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if time.Until(expires) <= 0 {
		t.Fatalf("token already expired")
	}
	claims, err := tm.ParseToken(token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.Role != domain.AccountRoleStaff || claims.Email() != "nurse@clinic.io" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestTokenRejectsForeignSecretAndExpiry(t *testing.T) {
	issuer := NewTokenManager("one", 5)
	token, _, _ := issuer.GenerateToken(domain.AccountRoleAdmin, "root@clinic.io")
	if _, err := NewTokenManager("two", 5).ParseToken(token); err == nil {
		t.Fatalf("expected signature failure")
	}

	stale := NewTokenManager("one", 1)
	stale.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	old, _, _ := stale.GenerateToken(domain.AccountRoleAdmin, "root@clinic.io")
	if _, err := issuer.ParseToken(old); err == nil {
		t.Fatalf("expected expiry failure")
	}
}

func TestPasswordHelpers(t *testing.T) {
	hash, err := HashPassword("s3cret", bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if !IsBcryptHash(hash) {
		t.Fatalf("expected bcrypt hash")
	}
	if IsBcryptHash("plain") {
		t.Fatalf("plain text detected as hash")
	}
	if err := ComparePassword(hash, "s3cret"); err != nil {
		t.Fatalf("compare: %v", err)
	}
	if err := ComparePassword(hash, "wrong"); err != ErrPasswordMismatch {
		t.Fatalf("expected mismatch, got %v", err)
	}
}

func TestRequireRole(t *testing.T) {
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		if role := c.Get("X-Test-Role"); role != "" {
			withIdentity(c, domain.Identity{Role: domain.AccountRole(role), Email: "x@y.io"})
		}
		return c.Next()
	})
	app.Get("/admin", RequireAdmin(), func(c *fiber.Ctx) error { return c.SendStatus(http.StatusNoContent) })

	cases := map[string]int{"": http.StatusUnauthorized, "staff": http.StatusForbidden, "admin": http.StatusNoContent}
	for role, want := range cases {
		req := httptest.NewRequest(http.MethodGet, "/admin", nil)
		if role != "" {
			req.Header.Set("X-Test-Role", role)
		}
		resp, err := app.Test(req)
		if err != nil {
			t.Fatalf("request: %v", err)
		}
		if resp.StatusCode != want {
			t.Fatalf("role %q: expected %d, got %d", role, want, resp.StatusCode)
		}
	}
}

// withIdentity stores identity on the request so role checks run without a token.
func withIdentity(c *fiber.Ctx, identity domain.Identity) {
	c.Locals(identityKey, identity)
}
