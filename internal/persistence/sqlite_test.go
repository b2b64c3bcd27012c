package persistence

import (
	"context"
	"path/filepath"
	"testing"

	"go.uber.org/zap"

	"github.com/spec-kit/stock-ledger/internal/domain"
	"github.com/spec-kit/stock-ledger/internal/repository/memory"
)

func TestSQLiteSnapshotPersistAndReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.db")
	store := memory.NewStore()
	snap, err := OpenSQLite(path, store, zap.NewNop())
	if err != nil {
		t.Skipf("sqlite unavailable: %v", err)
	}

	ctx := context.Background()
	if _, err := store.Catalog().AddDepartment(ctx, "Ortho"); err != nil {
		t.Fatalf("add department: %v", err)
	}
	item := &domain.StockItem{Department: "Ortho", Name: "Bandages", AmountNeeded: 20, CurrentAmount: 10}
	if err := store.Items().Create(ctx, item); err != nil {
		t.Fatalf("create item: %v", err)
	}
	if _, err := store.Items().Mutate(ctx, item.ID, func(it *domain.StockItem) error {
		it.CurrentAmount = 3
		return nil
	}); err != nil {
		t.Fatalf("mutate: %v", err)
	}
	snap.Close()

	reloaded := memory.NewStore()
	again, err := OpenSQLite(path, reloaded, zap.NewNop())
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	t.Cleanup(again.Close)

	got, err := reloaded.Items().GetByID(ctx, item.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.CurrentAmount != 3 {
		t.Fatalf("expected 3 after reload, got %d", got.CurrentAmount)
	}
	exists, _ := reloaded.Catalog().DepartmentExists(ctx, "Ortho")
	if !exists {
		t.Fatalf("department lost on reload")
	}

	next := &domain.StockItem{Department: "Ortho", Name: "Gauze", AmountNeeded: 1}
	if err := reloaded.Items().Create(ctx, next); err != nil {
		t.Fatalf("create after reload: %v", err)
	}
	if next.ID <= item.ID {
		t.Fatalf("item ids reused after reload: %d <= %d", next.ID, item.ID)
	}
}

func TestMigrationFilesSorted(t *testing.T) {
	files, err := migrationFiles(filepath.Join("..", "..", "migrations"))
	if err != nil {
		t.Fatalf("list migrations: %v", err)
	}
	if len(files) == 0 || files[0] != "001_init.sql" {
		t.Fatalf("unexpected migrations: %v", files)
	}
}
