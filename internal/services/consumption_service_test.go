package services

import (
	"context"
	"errors"
	"testing"

	"art_studio_backend/internal/models"
)

func TestConsume_DebitsRecipeInItemOrder(t *testing.T) {
	e := newEngine(10, InventoryPolicy{AllowNegativeStock: true})
	ctx := context.Background()
	brushes := e.store.seedItem("Brushes", "50", "1.5")
	canvas := e.store.seedItem("Canvas", "100", "5")
	// recipe stored out of id order
	e.store.seedRecipe(canvas, "2")
	e.store.seedRecipe(brushes, "1")

	logs, err := e.consumption.Consume(ctx, 42, 3, testActor)
	if err != nil {
		t.Fatalf("Consume: %v", err)
	}
	if len(logs) != 2 {
		t.Fatalf("len(logs) = %d, want 2", len(logs))
	}
	if *logs[0].ItemID != brushes || *logs[1].ItemID != canvas {
		t.Errorf("logs not in item id order: %d, %d", *logs[0].ItemID, *logs[1].ItemID)
	}
	if got := e.store.stock(canvas); !got.Equal(dec("94")) {
		t.Errorf("canvas stock = %s, want 94", got)
	}
	if got := e.store.stock(brushes); !got.Equal(dec("47")) {
		t.Errorf("brushes stock = %s, want 47", got)
	}

	l := logs[1]
	if l.Action != models.LogActionAutoConsumed {
		t.Errorf("action = %s", l.Action)
	}
	if !l.Quantity.Equal(dec("-6")) || !l.UnitCost.Equal(dec("5")) {
		t.Errorf("quantity/unit_cost = %s/%s, want -6/5", l.Quantity, l.UnitCost)
	}
	if !l.OldValue.Stock.Equal(dec("100")) || !l.NewValue.Stock.Equal(dec("94")) {
		t.Errorf("snapshots = %s -> %s", l.OldValue.Stock, l.NewValue.Stock)
	}
	if l.BookingID == nil || *l.BookingID != 42 {
		t.Errorf("booking id = %v, want 42", l.BookingID)
	}
	if l.Notes == nil || *l.Notes != "Auto-consumed for booking #42 (3 people)" {
		t.Errorf("notes = %v", l.Notes)
	}
	if l.PerformedByID == nil || *l.PerformedByID != testActor.UserID {
		t.Errorf("performed_by = %v", l.PerformedByID)
	}
}

func TestConsume_EmptyRecipeIsNoop(t *testing.T) {
	e := newEngine(10, InventoryPolicy{AllowNegativeStock: true})
	logs, err := e.consumption.Consume(context.Background(), 1, 4, testActor)
	if err != nil || len(logs) != 0 {
		t.Errorf("Consume = %v, %v; want no logs and no error", logs, err)
	}
	if len(e.store.logs) != 0 {
		t.Errorf("wrote %d logs", len(e.store.logs))
	}
}

func TestConsume_RejectsNonPositivePax(t *testing.T) {
	e := newEngine(10, InventoryPolicy{AllowNegativeStock: true})
	if _, err := e.consumption.Consume(context.Background(), 1, 0, testActor); !errors.Is(err, ErrValidation) {
		t.Errorf("err = %v, want ErrValidation", err)
	}
}

func TestConsume_NegativeStockPolicy(t *testing.T) {
	t.Run("allowed", func(t *testing.T) {
		e := newEngine(10, InventoryPolicy{AllowNegativeStock: true})
		clay := e.store.seedItem("Clay", "1", "2")
		e.store.seedRecipe(clay, "2")

		if _, err := e.consumption.Consume(context.Background(), 1, 1, testActor); err != nil {
			t.Fatalf("Consume: %v", err)
		}
		if got := e.store.stock(clay); !got.Equal(dec("-1")) {
			t.Errorf("stock = %s, want -1", got)
		}
	})

	t.Run("forbidden", func(t *testing.T) {
		e := newEngine(10, InventoryPolicy{AllowNegativeStock: false})
		glaze := e.store.seedItem("Glaze", "10", "1")
		clay := e.store.seedItem("Clay", "1", "2")
		e.store.seedRecipe(glaze, "1")
		e.store.seedRecipe(clay, "2")

		_, err := e.consumption.Consume(context.Background(), 1, 1, testActor)
		if !errors.Is(err, ErrInsufficientStock) {
			t.Fatalf("err = %v, want ErrInsufficientStock", err)
		}
		if got := e.store.stock(clay); !got.Equal(dec("1")) {
			t.Errorf("clay stock = %s, want untouched 1", got)
		}
		if got := e.store.stock(glaze); !got.Equal(dec("10")) {
			t.Errorf("glaze stock = %s, want rolled back to 10", got)
		}
		if len(e.store.logs) != 0 {
			t.Errorf("rolled back transaction left %d logs", len(e.store.logs))
		}
	})
}

func TestAdjust(t *testing.T) {
	e := newEngine(10, InventoryPolicy{AllowNegativeStock: true})
	ctx := context.Background()
	canvas := e.store.seedItem("Canvas", "100", "5")
	e.store.seedRecipe(canvas, "2")

	if _, err := e.consumption.Consume(ctx, 9, 3, testActor); err != nil {
		t.Fatalf("Consume: %v", err)
	}

	logs, err := e.consumption.Adjust(ctx, 9, 3, 5, testActor)
	if err != nil {
		t.Fatalf("Adjust up: %v", err)
	}
	if len(logs) != 1 || !logs[0].Quantity.Equal(dec("-4")) {
		t.Fatalf("adjust logs = %+v, want one row of -4", logs)
	}
	if *logs[0].Notes != "Pax changed 3 -> 5" {
		t.Errorf("notes = %q", *logs[0].Notes)
	}
	if got := e.store.stock(canvas); !got.Equal(dec("90")) {
		t.Errorf("stock = %s, want 90", got)
	}

	logs, err = e.consumption.Adjust(ctx, 9, 5, 2, testActor)
	if err != nil {
		t.Fatalf("Adjust down: %v", err)
	}
	if !logs[0].Quantity.Equal(dec("6")) {
		t.Errorf("shrink quantity = %s, want 6", logs[0].Quantity)
	}
	if got := e.store.stock(canvas); !got.Equal(dec("96")) {
		t.Errorf("stock = %s, want 96", got)
	}

	logs, err = e.consumption.Adjust(ctx, 9, 2, 2, testActor)
	if err != nil || logs != nil {
		t.Errorf("unchanged pax: logs = %v, err = %v", logs, err)
	}
}

func TestRestore_CreditsNetConsumptionOnce(t *testing.T) {
	e := newEngine(10, InventoryPolicy{AllowNegativeStock: true})
	ctx := context.Background()
	canvas := e.store.seedItem("Canvas", "100", "5")
	e.store.seedRecipe(canvas, "2")

	if _, err := e.consumption.Consume(ctx, 3, 3, testActor); err != nil {
		t.Fatalf("Consume: %v", err)
	}
	if _, err := e.consumption.Adjust(ctx, 3, 3, 4, testActor); err != nil {
		t.Fatalf("Adjust: %v", err)
	}

	logs, err := e.consumption.Restore(ctx, 3, testActor)
	if err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if len(logs) != 1 {
		t.Fatalf("len(logs) = %d, want 1", len(logs))
	}
	l := logs[0]
	if l.Action != models.LogActionStockAdjusted || !l.Quantity.Equal(dec("8")) {
		t.Errorf("restore row = %s %s, want STOCK_ADJUSTED 8", l.Action, l.Quantity)
	}
	if l.BookingID == nil || *l.BookingID != 3 {
		t.Errorf("restore row not tagged with the booking: %v", l.BookingID)
	}
	if got := e.store.stock(canvas); !got.Equal(dec("100")) {
		t.Errorf("stock = %s, want 100", got)
	}

	again, err := e.consumption.Restore(ctx, 3, testActor)
	if err != nil {
		t.Fatalf("second Restore: %v", err)
	}
	if len(again) != 0 {
		t.Errorf("second restore wrote %d rows", len(again))
	}
	if got := e.store.stock(canvas); !got.Equal(dec("100")) {
		t.Errorf("stock after second restore = %s, want 100", got)
	}
	if n := len(e.store.logsFor(3)); n != 3 {
		t.Errorf("booking trail has %d rows, want 3", n)
	}
}

func TestRestore_ValuesCreditAtConsumedCost(t *testing.T) {
	e := newEngine(10, InventoryPolicy{AllowNegativeStock: true})
	ctx := context.Background()
	canvas := e.store.seedItem("Canvas", "100", "5")
	e.store.seedRecipe(canvas, "2")

	if _, err := e.consumption.Consume(ctx, 3, 3, testActor); err != nil {
		t.Fatalf("Consume: %v", err)
	}
	it := e.store.items[canvas]
	it.CurrentCost = dec("8")
	e.store.items[canvas] = it

	logs, err := e.consumption.Restore(ctx, 3, testActor)
	if err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if !logs[0].UnitCost.Equal(dec("5")) {
		t.Errorf("unit cost = %s, want the consumed cost 5", logs[0].UnitCost)
	}
	if got := e.store.items[canvas].CurrentCost; !got.Equal(dec("8")) {
		t.Errorf("restore changed the item cost to %s", got)
	}
}

func TestRestore_SkipsDeletedItems(t *testing.T) {
	e := newEngine(10, InventoryPolicy{AllowNegativeStock: true})
	ctx := context.Background()
	canvas := e.store.seedItem("Canvas", "100", "5")
	paint := e.store.seedItem("Paint", "20", "3")
	e.store.seedRecipe(canvas, "2")
	e.store.seedRecipe(paint, "1")

	if _, err := e.consumption.Consume(ctx, 3, 2, testActor); err != nil {
		t.Fatalf("Consume: %v", err)
	}
	if err := e.inventory.DeleteItem(ctx, paint, testActor); err != nil {
		t.Fatalf("DeleteItem: %v", err)
	}

	logs, err := e.consumption.Restore(ctx, 3, testActor)
	if err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if len(logs) != 1 || *logs[0].ItemID != canvas {
		t.Fatalf("restore logs = %+v, want only canvas", logs)
	}
	if got := e.store.stock(canvas); !got.Equal(dec("100")) {
		t.Errorf("canvas stock = %s, want 100", got)
	}
}
