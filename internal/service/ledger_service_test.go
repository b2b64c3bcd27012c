package service

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/spec-kit/stock-ledger/internal/events"
	apperrors "github.com/spec-kit/stock-ledger/pkg/util/errorutil"
)

func TestUseAndRefillScenario(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	nurse := staffOf("Physio", "nurse@clinic.io")
	item := env.stockItem(t, "Physio", "Bandages", 10, 20)

	res, err := env.ledger.UseItem(ctx, nurse, item.ID, nurse.Email, 7)
	if err != nil {
		t.Fatalf("use: %v", err)
	}
	if res.CurrentAmount != 3 || res.Depleted {
		t.Fatalf("unexpected result: %+v", res)
	}

	_, err = env.ledger.UseItem(ctx, nurse, item.ID, nurse.Email, 5)
	expectCode(t, err, apperrors.CodeInsufficientStock)
	got, _ := env.ledger.GetItem(ctx, nurse, item.ID)
	if got.CurrentAmount != 3 {
		t.Fatalf("failed debit changed stock: %d", got.CurrentAmount)
	}

	refilled, err := env.ledger.RefillItem(ctx, nurse, item.ID, nurse.Email)
	if err != nil || refilled != 20 {
		t.Fatalf("refill: %d %v", refilled, err)
	}
}

func TestUseItemRejections(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	nurse := staffOf("Physio", "nurse@clinic.io")
	outsider := staffOf("Cardio", "cardio@clinic.io")
	item := env.stockItem(t, "Physio", "Tape", 4, 10)

	for _, amount := range []int64{0, -3} {
		_, err := env.ledger.UseItem(ctx, nurse, item.ID, nurse.Email, amount)
		expectCode(t, err, apperrors.CodeInvalidAmount)
	}
	_, err := env.ledger.UseItem(ctx, nurse, 999, nurse.Email, 1)
	expectCode(t, err, apperrors.CodeNotFound)

	_, err = env.ledger.UseItem(ctx, outsider, item.ID, outsider.Email, 1)
	expectCode(t, err, apperrors.CodeForbidden)

	_, err = env.ledger.UseItem(ctx, env.admin, item.ID, env.admin.Email, 1)
	expectCode(t, err, apperrors.CodeForbidden)

	_, err = env.ledger.UseItem(ctx, nurse, item.ID, "someone@else.io", 1)
	expectCode(t, err, apperrors.CodeForbidden)
}

func TestDepletionPublishesEvent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	nurse := staffOf("Physio", "nurse@clinic.io")
	item := env.stockItem(t, "Physio", "Gloves", 2, 5)

	res, err := env.ledger.UseItem(ctx, nurse, item.ID, nurse.Email, 2)
	if err != nil {
		t.Fatalf("use: %v", err)
	}
	if !res.Depleted || res.CurrentAmount != 0 {
		t.Fatalf("expected depletion: %+v", res)
	}
	types := env.events.types()
	if len(types) != 1 || types[0] != events.EventItemDepleted {
		t.Fatalf("unexpected events: %v", types)
	}

	depleted, err := env.ledger.ListDepleted(ctx, env.admin)
	if err != nil || len(depleted) != 1 || depleted[0].ID != item.ID {
		t.Fatalf("list depleted: %+v %v", depleted, err)
	}
	_, err = env.ledger.ListDepleted(ctx, nurse)
	expectCode(t, err, apperrors.CodeForbidden)

	expected := `
# HELP stock_depletions_total Debits that left an item at zero.
# TYPE stock_depletions_total counter
stock_depletions_total{department="Physio"} 1
`
	if err := testutil.GatherAndCompare(env.metrics.Registry(), strings.NewReader(expected), "stock_depletions_total"); err != nil {
		t.Fatalf("depletion metric: %v", err)
	}
}

func TestCreateItem(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	nurse := staffOf("Physio", "nurse@clinic.io")

	item, err := env.ledger.CreateItem(ctx, nurse, CreateItemInput{Department: "Physio", Type: "consumable", Name: "Gauze", AmountNeeded: 15})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if item.CurrentAmount != 0 || item.ID == 0 {
		t.Fatalf("unexpected item: %+v", item)
	}

	_, err = env.ledger.CreateItem(ctx, nurse, CreateItemInput{Department: "Cardio", Type: "consumable", Name: "Gauze", AmountNeeded: 15})
	expectCode(t, err, apperrors.CodeForbidden)

	_, err = env.ledger.CreateItem(ctx, nurse, CreateItemInput{Department: "Physio", Type: "consumable", Name: "Gauze", AmountNeeded: 0})
	expectCode(t, err, apperrors.CodeValidation)

	_, err = env.ledger.CreateItem(ctx, nurse, CreateItemInput{Department: "Physio", Name: "Gauze", AmountNeeded: 3})
	expectCode(t, err, apperrors.CodeValidation)
}

func TestListItemsScoping(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.stockItem(t, "Physio", "Bandages", 1, 2)
	env.stockItem(t, "Cardio", "Electrodes", 1, 2)
	nurse := staffOf("Physio", "nurse@clinic.io")

	own, err := env.ledger.ListItems(ctx, nurse, ItemListFilter{Department: strPtr("Physio")})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	for _, it := range own {
		if it.Department != "Physio" {
			t.Fatalf("leaked item from %s", it.Department)
		}
	}
	if len(own) != 1 {
		t.Fatalf("expected 1 item, got %d", len(own))
	}

	_, err = env.ledger.ListItems(ctx, nurse, ItemListFilter{Department: strPtr("Cardio")})
	expectCode(t, err, apperrors.CodeForbidden)
	_, err = env.ledger.ListItems(ctx, nurse, ItemListFilter{})
	expectCode(t, err, apperrors.CodeValidation)
	_, err = env.ledger.ListItems(ctx, nurse, ItemListFilter{AdminView: true})
	expectCode(t, err, apperrors.CodeForbidden)

	all, err := env.ledger.ListItems(ctx, env.admin, ItemListFilter{AdminView: true})
	if err != nil || len(all) != 2 || all[0].ID > all[1].ID {
		t.Fatalf("admin view: %+v %v", all, err)
	}
	cardio, err := env.ledger.ListItems(ctx, env.admin, ItemListFilter{Department: strPtr("Cardio")})
	if err != nil || len(cardio) != 1 {
		t.Fatalf("admin department view: %+v %v", cardio, err)
	}
}

func TestDeleteItem(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	nurse := staffOf("Physio", "nurse@clinic.io")
	outsider := staffOf("Cardio", "cardio@clinic.io")
	item := env.stockItem(t, "Physio", "Bandages", 1, 2)

	expectCode(t, env.ledger.DeleteItem(ctx, outsider, item.ID, outsider.Email), apperrors.CodeForbidden)
	if err := env.ledger.DeleteItem(ctx, nurse, item.ID, nurse.Email); err != nil {
		t.Fatalf("delete: %v", err)
	}
	expectCode(t, env.ledger.DeleteItem(ctx, nurse, item.ID, nurse.Email), apperrors.CodeNotFound)

	next := env.stockItem(t, "Physio", "Bandages", 1, 2)
	if next.ID <= item.ID {
		t.Fatalf("id %d reused", next.ID)
	}
}

func TestConcurrentUseNeverOverdraws(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	nurse := staffOf("Physio", "nurse@clinic.io")
	item := env.stockItem(t, "Physio", "Syringes", 50, 50)

	var ok, rejected atomic.Int64
	var wg sync.WaitGroup
	for i := 0; i < 40; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := env.ledger.UseItem(ctx, nurse, item.ID, nurse.Email, 3); err != nil {
				if !apperrors.Is(err, apperrors.CodeInsufficientStock) {
					t.Errorf("unexpected error: %v", err)
				}
				rejected.Add(1)
				return
			}
			ok.Add(1)
		}()
	}
	wg.Wait()

	got, _ := env.ledger.GetItem(ctx, nurse, item.ID)
	if got.CurrentAmount < 0 {
		t.Fatalf("stock went negative: %d", got.CurrentAmount)
	}
	if ok.Load() != 16 || got.CurrentAmount != 2 {
		t.Fatalf("expected 16 debits leaving 2, got %d leaving %d", ok.Load(), got.CurrentAmount)
	}
	if ok.Load()+rejected.Load() != 40 {
		t.Fatalf("lost requests")
	}
}

func TestUpdateItem(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	nurse := staffOf("Physio", "nurse@clinic.io")
	item := env.stockItem(t, "Physio", "Bandages", 6, 20)

	updated, err := env.ledger.UpdateItem(ctx, nurse, item.ID, nurse.Email, UpdateItemInput{
		Name:         strPtr(" Sterile bandages "),
		AmountNeeded: int64Ptr(30),
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Name != "Sterile bandages" || updated.AmountNeeded != 30 || updated.Type != "consumable" {
		t.Fatalf("unexpected item: %+v", updated)
	}
	if updated.CurrentAmount != 6 {
		t.Fatalf("update touched stock on hand: %d", updated.CurrentAmount)
	}

	_, err = env.ledger.UpdateItem(ctx, nurse, item.ID, nurse.Email, UpdateItemInput{AmountNeeded: int64Ptr(0)})
	expectCode(t, err, apperrors.CodeValidation)
	_, err = env.ledger.UpdateItem(ctx, nurse, item.ID, nurse.Email, UpdateItemInput{Name: strPtr("  ")})
	expectCode(t, err, apperrors.CodeValidation)
	_, err = env.ledger.UpdateItem(ctx, nurse, item.ID, nurse.Email, UpdateItemInput{Department: strPtr("Cardio")})
	expectCode(t, err, apperrors.CodeForbidden)
	_, err = env.ledger.UpdateItem(ctx, staffOf("Cardio", "c@clinic.io"), item.ID, "c@clinic.io", UpdateItemInput{Name: strPtr("x")})
	expectCode(t, err, apperrors.CodeForbidden)
	_, err = env.ledger.UpdateItem(ctx, staffOf("Radiology", "r@clinic.io"), item.ID, "r@clinic.io", UpdateItemInput{Department: strPtr("Radiology")})
	expectCode(t, err, apperrors.CodeValidation)
	_, err = env.ledger.UpdateItem(ctx, nurse, item.ID, "other@clinic.io", UpdateItemInput{})
	expectCode(t, err, apperrors.CodeForbidden)
	_, err = env.ledger.UpdateItem(ctx, nurse, 999, nurse.Email, UpdateItemInput{})
	expectCode(t, err, apperrors.CodeNotFound)

	got, _ := env.ledger.GetItem(ctx, nurse, item.ID)
	if got.Name != "Sterile bandages" || got.AmountNeeded != 30 {
		t.Fatalf("rejected updates leaked: %+v", got)
	}
}
