package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/stock-ledger/internal/archive"
	"github.com/spec-kit/stock-ledger/internal/config"
	"github.com/spec-kit/stock-ledger/internal/domain"
	"github.com/spec-kit/stock-ledger/internal/events"
	"github.com/spec-kit/stock-ledger/internal/observability"
	"github.com/spec-kit/stock-ledger/internal/repository/memory"
	apperrors "github.com/spec-kit/stock-ledger/pkg/util/errorutil"
)

var fixedNow = time.Date(2024, time.March, 10, 14, 30, 0, 0, time.UTC)

type recorder struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *recorder) handle(_ context.Context, e events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

func (r *recorder) types() []events.EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]events.EventType, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Type)
	}
	return out
}

type testEnv struct {
	store        *memory.Store
	auth         *AuthService
	catalog      *CatalogService
	ledger       *LedgerService
	reservations *ReservationService
	transfer     *TransferService
	archive      *archive.MemoryArchiver
	metrics      *observability.Metrics
	events       *recorder
	admin        domain.Identity
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	store := memory.NewStore()
	dispatcher := events.NewInMemoryDispatcher(zap.NewNop())
	rec := &recorder{}
	for _, et := range []events.EventType{
		events.EventItemDepleted, events.EventItemRefilled,
		events.EventReservationRequested, events.EventReservationFulfilled,
		events.EventTransferImported,
	} {
		dispatcher.Subscribe(et, rec.handle)
	}
	clock := func() time.Time { return fixedNow }
	metrics := observability.NewMetrics()
	arch := archive.NewMemoryArchiver()

	cfg := config.Config{Auth: config.AuthConfig{JWTSecret: "test", AccessTokenTTLMinutes: 5, BcryptCost: bcrypt.MinCost}}
	authSvc := NewAuthService(cfg, AuthDependencies{AccountRepo: store.Accounts(), CatalogRepo: store.Catalog()})
	catalog := NewCatalogService(store.Catalog(), nil, zap.NewNop())
	ledger := NewLedgerService(LedgerDependencies{
		ItemRepo:    store.Items(),
		CatalogRepo: store.Catalog(),
		Dispatcher:  dispatcher,
		Metrics:     metrics,
		Clock:       clock,
	})
	reservations := NewReservationService(ReservationDependencies{
		ItemRepo:        store.Items(),
		ReservationRepo: store.Reservations(),
		Ledger:          ledger,
		Dispatcher:      dispatcher,
		Clock:           clock,
	})
	transferSvc := NewTransferService(TransferDependencies{
		Catalog:    catalog,
		Auth:       authSvc,
		Ledger:     ledger,
		Archiver:   arch,
		Dispatcher: dispatcher,
		Metrics:    metrics,
		Clock:      clock,
	})

	env := &testEnv{
		store:        store,
		auth:         authSvc,
		catalog:      catalog,
		ledger:       ledger,
		reservations: reservations,
		transfer:     transferSvc,
		archive:      arch,
		metrics:      metrics,
		events:       rec,
		admin:        domain.Identity{Role: domain.AccountRoleAdmin, Email: "admin@clinic.io", Name: "Admin"},
	}
	for _, dept := range []string{"Physio", "Cardio"} {
		if _, err := catalog.AddDepartment(context.Background(), env.admin, dept); err != nil {
			t.Fatalf("seed department: %v", err)
		}
	}
	return env
}

func staffOf(dept, email string) domain.Identity {
	return domain.Identity{Role: domain.AccountRoleStaff, Email: email, Name: email, Department: dept}
}

// stockItem creates an item through the ledger and sets its quantity directly.
func (e *testEnv) stockItem(t *testing.T, dept, name string, current, needed int64) *domain.StockItem {
	t.Helper()
	staff := staffOf(dept, "setup@clinic.io")
	item, err := e.ledger.CreateItem(context.Background(), staff, CreateItemInput{Department: dept, Type: "consumable", Name: name, AmountNeeded: needed})
	if err != nil {
		t.Fatalf("create item: %v", err)
	}
	updated, err := e.store.Items().Mutate(context.Background(), item.ID, func(it *domain.StockItem) error {
		it.CurrentAmount = current
		return nil
	})
	if err != nil {
		t.Fatalf("set stock: %v", err)
	}
	return updated
}

func expectCode(t *testing.T, err error, code string) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s, got nil", code)
	}
	if !apperrors.Is(err, code) {
		t.Fatalf("expected %s, got %v", code, err)
	}
}

func int64Ptr(v int64) *int64 { return &v }

func strPtr(v string) *string { return &v }
