package service

import (
	"context"
	"testing"

	"github.com/spec-kit/stock-ledger/internal/domain"
	apperrors "github.com/spec-kit/stock-ledger/pkg/util/errorutil"
)

func TestRegisterAndLogin(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	acc, err := env.auth.Register(ctx, RegisterInput{
		Role: "Staff", Name: "Nina", Email: " Nina@Clinic.io ", Password: "pw",
		Department: strPtr("Physio"), JobRole: strPtr("Nurse"),
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if acc.Role != domain.AccountRoleStaff || acc.Email != "nina@clinic.io" {
		t.Fatalf("unexpected account: %+v", acc)
	}
	if acc.PasswordHash == "pw" {
		t.Fatalf("password stored in clear")
	}

	session, err := env.auth.Login(ctx, "staff", "nina@clinic.io", "pw")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if session.Identity.Department != "Physio" || session.Token == "" {
		t.Fatalf("unexpected session: %+v", session)
	}
	claims, err := env.auth.TokenManager().ParseToken(session.Token)
	if err != nil || claims.Email() != "nina@clinic.io" {
		t.Fatalf("token does not carry account: %v", err)
	}
}

func TestRegisterValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.auth.Register(ctx, RegisterInput{Role: "owner", Name: "x", Email: "x@y.io", Password: "p"})
	expectCode(t, err, apperrors.CodeValidation)

	_, err = env.auth.Register(ctx, RegisterInput{Role: "admin", Name: "", Email: "x@y.io", Password: "p"})
	expectCode(t, err, apperrors.CodeValidation)

	_, err = env.auth.Register(ctx, RegisterInput{Role: "staff", Name: "x", Email: "x@y.io", Password: "p"})
	expectCode(t, err, apperrors.CodeValidation)

	_, err = env.auth.Register(ctx, RegisterInput{Role: "staff", Name: "x", Email: "x@y.io", Password: "p", Department: strPtr("Nowhere")})
	expectCode(t, err, apperrors.CodeValidation)
}

func TestRegisterConflictIsPerRole(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	in := RegisterInput{Role: "admin", Name: "A", Email: "a@clinic.io", Password: "p"}
	if _, err := env.auth.Register(ctx, in); err != nil {
		t.Fatalf("register: %v", err)
	}
	_, err := env.auth.Register(ctx, in)
	expectCode(t, err, apperrors.CodeConflict)

	in.Role = "staff"
	in.Department = strPtr("Cardio")
	if _, err := env.auth.Register(ctx, in); err != nil {
		t.Fatalf("same email as staff should be allowed: %v", err)
	}
}

func TestLoginFailures(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	if _, err := env.auth.Register(ctx, RegisterInput{Role: "admin", Name: "A", Email: "a@clinic.io", Password: "right"}); err != nil {
		t.Fatalf("register: %v", err)
	}
	_, err := env.auth.Login(ctx, "admin", "a@clinic.io", "wrong")
	expectCode(t, err, apperrors.CodeUnauthorized)

	_, err = env.auth.Login(ctx, "staff", "a@clinic.io", "right")
	expectCode(t, err, apperrors.CodeNotFound)
}

func TestProfileAndListStaff(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	for _, email := range []string{"b@clinic.io", "c@clinic.io"} {
		if _, err := env.auth.Register(ctx, RegisterInput{Role: "staff", Name: email, Email: email, Password: "p", Department: strPtr("Physio"), JobRole: strPtr("Therapist")}); err != nil {
			t.Fatalf("register: %v", err)
		}
	}

	profile, err := env.auth.Profile(ctx, domain.AccountRoleStaff, "b@clinic.io")
	if err != nil || *profile.JobRole != "Therapist" {
		t.Fatalf("profile: %+v %v", profile, err)
	}
	_, err = env.auth.Profile(ctx, domain.AccountRoleAdmin, "b@clinic.io")
	expectCode(t, err, apperrors.CodeNotFound)

	_, err = env.auth.ListStaff(ctx, staffOf("Physio", "b@clinic.io"))
	expectCode(t, err, apperrors.CodeForbidden)

	dir, err := env.auth.ListStaff(ctx, env.admin)
	if err != nil {
		t.Fatalf("list staff: %v", err)
	}
	if len(dir) != 2 || dir["c@clinic.io"].Department != "Physio" || dir["c@clinic.io"].JobRole != "Therapist" {
		t.Fatalf("unexpected directory: %+v", dir)
	}
}
