package services

import (
	"context"
	"errors"
	"testing"

	"art_studio_backend/internal/models"
)

func newBookingEngine(t *testing.T, policy InventoryPolicy) (*engine, int64) {
	t.Helper()
	e := newEngine(10, policy)
	canvas := e.store.seedItem("Canvas", "100", "5")
	e.store.seedRecipe(canvas, "2")
	return e, canvas
}

func book(t *testing.T, e *engine, slot models.SessionTime, pax int) *models.Booking {
	t.Helper()
	b, err := e.bookings.CreateBooking(context.Background(), CreateBookingRequest{
		CustomerName:   "Alice",
		SessionDate:    classDay.Format("2006-01-02"),
		SessionTime:    string(slot),
		NumberOfPeople: pax,
	}, testActor)
	if err != nil {
		t.Fatalf("CreateBooking(%d): %v", pax, err)
	}
	return b
}

func TestCreateBooking_ConsumesStock(t *testing.T) {
	e, canvas := newBookingEngine(t, InventoryPolicy{AllowNegativeStock: true})

	b := book(t, e, models.SessionOne, 3)
	if b.Status != models.BookingStatusConfirmed {
		t.Errorf("status = %s, want CONFIRMED", b.Status)
	}
	if !b.SessionDate.Equal(classDay) {
		t.Errorf("session date = %v", b.SessionDate)
	}
	if got := e.store.stock(canvas); !got.Equal(dec("94")) {
		t.Errorf("stock = %s, want 94", got)
	}
	trail := e.store.logsFor(b.ID)
	if len(trail) != 1 || trail[0].Action != models.LogActionAutoConsumed {
		t.Fatalf("trail = %+v", trail)
	}
	if e.store.lockedSessions != 1 {
		t.Errorf("session locks = %d, want 1", e.store.lockedSessions)
	}

	logs, err := e.bookings.ListInventoryLogs(context.Background(), b.ID)
	if err != nil || len(logs) != 1 {
		t.Errorf("ListInventoryLogs = %d rows, %v", len(logs), err)
	}
}

func TestBookingWrites_StayOnTransactionExecutor(t *testing.T) {
	e, _ := newBookingEngine(t, InventoryPolicy{AllowNegativeStock: true})
	e.store.settings = nil

	b := book(t, e, models.SessionOne, 3)
	for _, op := range []string{
		"LockSession", "GetSettings", "EnsureSettings", "SumBookedPeople",
		"CreateBooking", "ListCostOfSaleItems", "GetItemForUpdate", "SetStockAndCost", "CreateLog",
	} {
		if !e.store.usedTransaction(op) {
			t.Errorf("create: %s did not run on the transaction executor", op)
		}
	}
	if e.store.settings == nil || e.store.settings.MaxPersonsPerClass != 10 {
		t.Errorf("settings = %+v, want defaults restored inside the booking", e.store.settings)
	}

	if _, err := e.bookings.CancelBooking(context.Background(), b.ID, testActor); err != nil {
		t.Fatalf("CancelBooking: %v", err)
	}
	for _, op := range []string{"GetBookingForUpdate", "UpdateBooking", "ListByBooking"} {
		if !e.store.usedTransaction(op) {
			t.Errorf("cancel: %s did not run on the transaction executor", op)
		}
	}
	if err := e.bookings.DeleteBooking(context.Background(), b.ID, testActor); err != nil {
		t.Fatalf("DeleteBooking: %v", err)
	}
	if !e.store.usedTransaction("DeleteBooking") {
		t.Error("delete did not run on the transaction executor")
	}
	if leaked := e.store.execs.leaked; len(leaked) != 0 {
		t.Errorf("calls bypassed the open transaction: %v", leaked)
	}
}

func TestCreateBooking_CapacityExceeded(t *testing.T) {
	e, canvas := newBookingEngine(t, InventoryPolicy{AllowNegativeStock: true})
	book(t, e, models.SessionOne, 8)

	_, err := e.bookings.CreateBooking(context.Background(), CreateBookingRequest{
		CustomerName:   "Bob",
		SessionDate:    "2025-03-14",
		SessionTime:    "SESSION_1",
		NumberOfPeople: 3,
	}, testActor)
	if !errors.Is(err, ErrCapacityExceeded) {
		t.Fatalf("err = %v, want ErrCapacityExceeded", err)
	}
	var capErr *CapacityExceededError
	if !errors.As(err, &capErr) {
		t.Fatalf("err is not a *CapacityExceededError: %T", err)
	}
	if capErr.Result.SpotsRemaining != 2 || capErr.Result.CurrentCapacity != 8 || capErr.Result.RequestedPax != 3 {
		t.Errorf("result = %+v", capErr.Result)
	}
	if len(e.store.bookings) != 1 {
		t.Errorf("bookings = %d, want 1", len(e.store.bookings))
	}
	if got := e.store.stock(canvas); !got.Equal(dec("84")) {
		t.Errorf("stock = %s, want 84", got)
	}

	// the other slot is independent
	book(t, e, models.SessionTwo, 10)
}

func TestCreateBooking_Validation(t *testing.T) {
	e, _ := newBookingEngine(t, InventoryPolicy{AllowNegativeStock: true})
	ctx := context.Background()

	cases := []CreateBookingRequest{
		{CustomerName: " ", SessionDate: "2025-03-14", SessionTime: "SESSION_1", NumberOfPeople: 1},
		{CustomerName: "A", SessionDate: "2025-03-14", SessionTime: "SESSION_1", NumberOfPeople: 0},
		{CustomerName: "A", SessionDate: "14.03.2025", SessionTime: "SESSION_1", NumberOfPeople: 1},
		{CustomerName: "A", SessionDate: "2025-03-14", SessionTime: "EVENING", NumberOfPeople: 1},
		{CustomerName: "A", SessionDate: "2025-03-14", SessionTime: "SESSION_1", NumberOfPeople: 1, Status: strp("CANCELLED")},
	}
	for _, req := range cases {
		if _, err := e.bookings.CreateBooking(ctx, req, testActor); !errors.Is(err, ErrValidation) {
			t.Errorf("CreateBooking(%+v) err = %v, want ErrValidation", req, err)
		}
	}
	if len(e.store.bookings) != 0 {
		t.Errorf("invalid requests created %d bookings", len(e.store.bookings))
	}
}

func TestCreateBooking_InsufficientStockRollsBack(t *testing.T) {
	e, canvas := newBookingEngine(t, InventoryPolicy{AllowNegativeStock: false})
	it := e.store.items[canvas]
	it.CurrentStock = dec("3")
	e.store.items[canvas] = it

	_, err := e.bookings.CreateBooking(context.Background(), CreateBookingRequest{
		CustomerName:   "Alice",
		SessionDate:    "2025-03-14",
		SessionTime:    "SESSION_1",
		NumberOfPeople: 2,
	}, testActor)
	if !errors.Is(err, ErrInsufficientStock) {
		t.Fatalf("err = %v, want ErrInsufficientStock", err)
	}
	if len(e.store.bookings) != 0 {
		t.Error("booking was kept although consumption failed")
	}
	if got := e.store.stock(canvas); !got.Equal(dec("3")) {
		t.Errorf("stock = %s, want 3", got)
	}
}

func TestUpdateBooking_AdjustsConsumption(t *testing.T) {
	e, canvas := newBookingEngine(t, InventoryPolicy{AllowNegativeStock: true})
	ctx := context.Background()
	b := book(t, e, models.SessionOne, 3)

	updated, err := e.bookings.UpdateBooking(ctx, b.ID, UpdateBookingRequest{NumberOfPeople: intp(5)}, testActor)
	if err != nil {
		t.Fatalf("UpdateBooking: %v", err)
	}
	if updated.NumberOfPeople != 5 {
		t.Errorf("pax = %d", updated.NumberOfPeople)
	}
	if got := e.store.stock(canvas); !got.Equal(dec("90")) {
		t.Errorf("stock = %s, want 90", got)
	}
	trail := e.store.logsFor(b.ID)
	if len(trail) != 2 || !trail[1].Quantity.Equal(dec("-4")) {
		t.Fatalf("trail = %+v", trail)
	}

	if _, err := e.bookings.UpdateBooking(ctx, b.ID, UpdateBookingRequest{Notes: strp("window seats")}, testActor); err != nil {
		t.Fatalf("UpdateBooking notes: %v", err)
	}
	if n := len(e.store.logsFor(b.ID)); n != 2 {
		t.Errorf("notes-only edit wrote stock rows: %d", n)
	}
}

func TestUpdateBooking_CapacityExcludesItself(t *testing.T) {
	e, _ := newBookingEngine(t, InventoryPolicy{AllowNegativeStock: true})
	ctx := context.Background()
	b := book(t, e, models.SessionOne, 8)

	if _, err := e.bookings.UpdateBooking(ctx, b.ID, UpdateBookingRequest{NumberOfPeople: intp(10)}, testActor); err != nil {
		t.Fatalf("growing to exactly the max: %v", err)
	}
	_, err := e.bookings.UpdateBooking(ctx, b.ID, UpdateBookingRequest{NumberOfPeople: intp(11)}, testActor)
	if !errors.Is(err, ErrCapacityExceeded) {
		t.Fatalf("err = %v, want ErrCapacityExceeded", err)
	}
	if got := e.store.bookings[b.ID].NumberOfPeople; got != 10 {
		t.Errorf("pax = %d, want 10 after the rejected edit", got)
	}
}

func TestUpdateBooking_MoveIntoFullSession(t *testing.T) {
	e, _ := newBookingEngine(t, InventoryPolicy{AllowNegativeStock: true})
	ctx := context.Background()
	book(t, e, models.SessionTwo, 9)
	b := book(t, e, models.SessionOne, 2)

	_, err := e.bookings.UpdateBooking(ctx, b.ID, UpdateBookingRequest{SessionTime: strp("SESSION_2")}, testActor)
	if !errors.Is(err, ErrCapacityExceeded) {
		t.Fatalf("err = %v, want ErrCapacityExceeded", err)
	}
	if e.store.bookings[b.ID].SessionTime != models.SessionOne {
		t.Error("booking moved despite the rejection")
	}
}

func TestCancelBooking_RestoresOnce(t *testing.T) {
	e, canvas := newBookingEngine(t, InventoryPolicy{AllowNegativeStock: true})
	ctx := context.Background()
	b := book(t, e, models.SessionOne, 3)

	cancelled, err := e.bookings.CancelBooking(ctx, b.ID, testActor)
	if err != nil {
		t.Fatalf("CancelBooking: %v", err)
	}
	if cancelled.Status != models.BookingStatusCancelled {
		t.Errorf("status = %s", cancelled.Status)
	}
	if got := e.store.stock(canvas); !got.Equal(dec("100")) {
		t.Errorf("stock = %s, want 100", got)
	}
	trail := e.store.logsFor(b.ID)
	if len(trail) != 2 || trail[1].Action != models.LogActionStockAdjusted || !trail[1].Quantity.Equal(dec("6")) {
		t.Fatalf("trail = %+v", trail)
	}

	if _, err := e.bookings.CancelBooking(ctx, b.ID, testActor); !errors.Is(err, ErrInvalidOperation) {
		t.Errorf("second cancel err = %v, want ErrInvalidOperation", err)
	}
	if _, err := e.bookings.UpdateBooking(ctx, b.ID, UpdateBookingRequest{NumberOfPeople: intp(4)}, testActor); !errors.Is(err, ErrInvalidOperation) {
		t.Errorf("edit of cancelled booking err = %v, want ErrInvalidOperation", err)
	}
	if _, err := e.bookings.CompleteBooking(ctx, b.ID, testActor); !errors.Is(err, ErrInvalidOperation) {
		t.Errorf("complete of cancelled booking err = %v, want ErrInvalidOperation", err)
	}

	if err := e.bookings.DeleteBooking(ctx, b.ID, testActor); err != nil {
		t.Fatalf("DeleteBooking: %v", err)
	}
	if got := e.store.stock(canvas); !got.Equal(dec("100")) {
		t.Errorf("stock after delete = %s, want 100 (no double restore)", got)
	}
	if n := len(e.store.logsFor(b.ID)); n != 2 {
		t.Errorf("trail after delete = %d rows, want 2", n)
	}

	// cancelled seats are free again
	book(t, e, models.SessionOne, 10)
}

func TestUpdateBooking_StatusCancelledRestores(t *testing.T) {
	e, canvas := newBookingEngine(t, InventoryPolicy{AllowNegativeStock: true})
	b := book(t, e, models.SessionOne, 4)

	updated, err := e.bookings.UpdateBooking(context.Background(), b.ID, UpdateBookingRequest{Status: strp("CANCELLED")}, testActor)
	if err != nil {
		t.Fatalf("UpdateBooking: %v", err)
	}
	if !updated.IsCancelled() {
		t.Errorf("status = %s", updated.Status)
	}
	if got := e.store.stock(canvas); !got.Equal(dec("100")) {
		t.Errorf("stock = %s, want 100", got)
	}
}

func TestDeleteBooking_RestoresActiveBooking(t *testing.T) {
	e, canvas := newBookingEngine(t, InventoryPolicy{AllowNegativeStock: true})
	ctx := context.Background()
	b := book(t, e, models.SessionOne, 2)

	if err := e.bookings.DeleteBooking(ctx, b.ID, testActor); err != nil {
		t.Fatalf("DeleteBooking: %v", err)
	}
	if got := e.store.stock(canvas); !got.Equal(dec("100")) {
		t.Errorf("stock = %s, want 100", got)
	}
	if _, err := e.bookings.GetBookingByID(ctx, b.ID); !errors.Is(err, ErrBookingNotFound) {
		t.Errorf("GetBookingByID err = %v, want ErrBookingNotFound", err)
	}
	if err := e.bookings.DeleteBooking(ctx, b.ID, testActor); !errors.Is(err, ErrBookingNotFound) {
		t.Errorf("second delete err = %v, want ErrBookingNotFound", err)
	}
}

func TestCompleteBooking_KeepsConsumption(t *testing.T) {
	e, canvas := newBookingEngine(t, InventoryPolicy{AllowNegativeStock: true})
	b := book(t, e, models.SessionOne, 2)

	done, err := e.bookings.CompleteBooking(context.Background(), b.ID, testActor)
	if err != nil {
		t.Fatalf("CompleteBooking: %v", err)
	}
	if done.Status != models.BookingStatusCompleted {
		t.Errorf("status = %s", done.Status)
	}
	if got := e.store.stock(canvas); !got.Equal(dec("96")) {
		t.Errorf("stock = %s, want 96", got)
	}
}

func TestGetBookings_PageDefaults(t *testing.T) {
	e, _ := newBookingEngine(t, InventoryPolicy{AllowNegativeStock: true})
	book(t, e, models.SessionOne, 1)
	book(t, e, models.SessionTwo, 1)

	bookings, total, err := e.bookings.GetBookings(context.Background(), models.BookingFilters{PageSize: 500})
	if err != nil {
		t.Fatalf("GetBookings: %v", err)
	}
	if total != 2 || len(bookings) != 2 {
		t.Errorf("got %d of %d, want 2 of 2", len(bookings), total)
	}
}
