package service

import (
	"context"
	"testing"

	"go.uber.org/zap"

	"github.com/spec-kit/stock-ledger/internal/config"
)

func TestApplySeedIsIdempotent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	seed := &config.Seed{
		Departments: []string{"Physio", "Radiology"},
		Roles:       []string{"Nurse"},
		Admins:      []config.SeedAdmin{{Email: "root@clinic.io", Password: "pw"}},
	}
	for i := 0; i < 2; i++ {
		if err := ApplySeed(ctx, seed, env.catalog, env.auth, zap.NewNop()); err != nil {
			t.Fatalf("apply #%d: %v", i+1, err)
		}
	}
	depts, _ := env.catalog.ListDepartments(ctx)
	if len(depts) != 3 {
		t.Fatalf("expected 3 departments, got %v", depts)
	}
	session, err := env.auth.Login(ctx, "admin", "root@clinic.io", "pw")
	if err != nil || session.Identity.Name != "root@clinic.io" {
		t.Fatalf("seed admin login: %+v %v", session, err)
	}
}
