package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"art_studio_backend/internal/models"
	"art_studio_backend/internal/repositories"
)

// memStore is an in-memory stand-in for the database. The fake transactor
// snapshots it before each transaction and restores the snapshot on error.
type memStore struct {
	nextID     int64
	items      map[int64]models.InventoryItem
	prices     []models.InventoryPriceHistory
	logs       []models.InventoryLog
	recipe     []models.CostOfSaleItem
	bookings   map[int64]models.Booking
	categories map[string]models.ExpenseCategory
	expenses   []models.Expense
	settings   *models.AppSettings

	failCreateExpense bool
	lockedSessions    int

	execs *execTracker
}

func newMemStore() *memStore {
	return &memStore{
		nextID:     100,
		items:      map[int64]models.InventoryItem{},
		bookings:   map[int64]models.Booking{},
		categories: map[string]models.ExpenseCategory{},
		execs:      newExecTracker(),
	}
}

func (s *memStore) id() int64 {
	s.nextID++
	return s.nextID
}

func (s *memStore) clone() memStore {
	c := *s
	c.items = make(map[int64]models.InventoryItem, len(s.items))
	for k, v := range s.items {
		c.items[k] = v
	}
	c.bookings = make(map[int64]models.Booking, len(s.bookings))
	for k, v := range s.bookings {
		c.bookings[k] = v
	}
	c.categories = make(map[string]models.ExpenseCategory, len(s.categories))
	for k, v := range s.categories {
		c.categories[k] = v
	}
	c.prices = append([]models.InventoryPriceHistory(nil), s.prices...)
	c.logs = append([]models.InventoryLog(nil), s.logs...)
	c.recipe = append([]models.CostOfSaleItem(nil), s.recipe...)
	c.expenses = append([]models.Expense(nil), s.expenses...)
	if s.settings != nil {
		st := *s.settings
		c.settings = &st
	}
	return c
}

// seedItem stores an item directly, bypassing the service layer.
func (s *memStore) seedItem(name string, stock, cost string) int64 {
	id := s.id()
	s.items[id] = models.InventoryItem{
		ID:           id,
		Name:         name,
		Unit:         "pcs",
		CurrentStock: decimal.RequireFromString(stock),
		CurrentCost:  decimal.RequireFromString(cost),
	}
	return id
}

func (s *memStore) seedRecipe(itemID int64, qpp string) {
	s.recipe = append(s.recipe, models.CostOfSaleItem{
		ID:                s.id(),
		ItemID:            itemID,
		QuantityPerPerson: decimal.RequireFromString(qpp),
	})
}

func (s *memStore) seedBooking(date time.Time, slot models.SessionTime, pax int, status models.BookingStatus) int64 {
	id := s.id()
	s.bookings[id] = models.Booking{
		ID:             id,
		CustomerName:   "Seeded",
		SessionDate:    date,
		SessionTime:    slot,
		NumberOfPeople: pax,
		Status:         status,
	}
	return id
}

func (s *memStore) stock(itemID int64) decimal.Decimal {
	return s.items[itemID].CurrentStock
}

func (s *memStore) logsFor(bookingID int64) []models.InventoryLog {
	var out []models.InventoryLog
	for _, l := range s.logs {
		if l.BookingID != nil && *l.BookingID == bookingID {
			out = append(out, l)
		}
	}
	return out
}

// fakeExec stands in for *sql.DB or *sql.Tx. Fake repositories only compare it by identity.
type fakeExec struct{ name string }

func (e *fakeExec) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	return nil, fmt.Errorf("%s: no database behind fake executor", e.name)
}

func (e *fakeExec) QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row {
	return nil
}

func (e *fakeExec) QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	return nil, fmt.Errorf("%s: no database behind fake executor", e.name)
}

// execTracker records the executor every repository call received. It lives
// outside the snapshot so a rolled back transaction keeps its record.
type execTracker struct {
	pool   *fakeExec
	open   *fakeExec
	seen   map[string]repositories.SQLExecutor
	leaked []string
}

func newExecTracker() *execTracker {
	return &execTracker{
		pool: &fakeExec{name: "pool"},
		seen: map[string]repositories.SQLExecutor{},
	}
}

// saw notes a repository call. A call that bypasses the open transaction is a leak.
func (s *memStore) saw(op string, exec repositories.SQLExecutor) {
	tr := s.execs
	tr.seen[op] = exec
	if tr.open != nil && exec != repositories.SQLExecutor(tr.open) {
		tr.leaked = append(tr.leaked, op)
	}
}

// usedTransaction reports whether op last ran on a transaction executor.
func (s *memStore) usedTransaction(op string) bool {
	exec, ok := s.execs.seen[op]
	if !ok {
		return false
	}
	fe, isFake := exec.(*fakeExec)
	return isFake && fe != s.execs.pool
}

type fakeTransactor struct {
	store *memStore
	calls int
}

func (t *fakeTransactor) WithinTransaction(ctx context.Context, fn func(exec repositories.SQLExecutor) error) error {
	t.calls++
	tr := t.store.execs
	tx := &fakeExec{name: fmt.Sprintf("tx%d", t.calls)}
	prev := tr.open
	tr.open = tx
	defer func() { tr.open = prev }()

	snapshot := t.store.clone()
	if err := fn(tx); err != nil {
		*t.store = snapshot
		return err
	}
	return nil
}

// --- inventory items ---

type fakeInventoryRepo struct{ store *memStore }

func (r *fakeInventoryRepo) CreateItem(ctx context.Context, exec repositories.SQLExecutor, item *models.InventoryItem) error {
	r.store.saw("CreateItem", exec)
	for _, existing := range r.store.items {
		if existing.Name == item.Name {
			return repositories.ErrDuplicateKey
		}
	}
	item.ID = r.store.id()
	item.CreatedAt = time.Now()
	item.UpdatedAt = item.CreatedAt
	r.store.items[item.ID] = *item
	return nil
}

func (r *fakeInventoryRepo) GetItemByID(ctx context.Context, exec repositories.SQLExecutor, id int64) (*models.InventoryItem, error) {
	r.store.saw("GetItemByID", exec)
	item, ok := r.store.items[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return &item, nil
}

func (r *fakeInventoryRepo) GetItemForUpdate(ctx context.Context, exec repositories.SQLExecutor, id int64) (*models.InventoryItem, error) {
	r.store.saw("GetItemForUpdate", exec)
	return r.GetItemByID(ctx, exec, id)
}

func (r *fakeInventoryRepo) ListItems(ctx context.Context, exec repositories.SQLExecutor) ([]models.InventoryItem, error) {
	r.store.saw("ListItems", exec)
	items := make([]models.InventoryItem, 0, len(r.store.items))
	for _, it := range r.store.items {
		items = append(items, it)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Name < items[j].Name })
	return items, nil
}

func (r *fakeInventoryRepo) UpdateItem(ctx context.Context, exec repositories.SQLExecutor, item *models.InventoryItem) error {
	r.store.saw("UpdateItem", exec)
	if _, ok := r.store.items[item.ID]; !ok {
		return repositories.ErrNotFound
	}
	r.store.items[item.ID] = *item
	return nil
}

func (r *fakeInventoryRepo) SetStockAndCost(ctx context.Context, exec repositories.SQLExecutor, id int64, stock, cost decimal.Decimal) error {
	r.store.saw("SetStockAndCost", exec)
	item, ok := r.store.items[id]
	if !ok {
		return repositories.ErrNotFound
	}
	item.CurrentStock, item.CurrentCost = stock, cost
	r.store.items[id] = item
	return nil
}

func (r *fakeInventoryRepo) DeleteItem(ctx context.Context, exec repositories.SQLExecutor, id int64) error {
	r.store.saw("DeleteItem", exec)
	if _, ok := r.store.items[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(r.store.items, id)
	for i := range r.store.logs {
		if r.store.logs[i].BelongsTo(id) {
			r.store.logs[i].ItemID = nil
		}
	}
	kept := r.store.recipe[:0]
	for _, e := range r.store.recipe {
		if e.ItemID != id {
			kept = append(kept, e)
		}
	}
	r.store.recipe = kept
	return nil
}

func (r *fakeInventoryRepo) CreatePriceHistory(ctx context.Context, exec repositories.SQLExecutor, entry *models.InventoryPriceHistory) error {
	r.store.saw("CreatePriceHistory", exec)
	entry.ID = r.store.id()
	entry.EffectiveDate = time.Now()
	r.store.prices = append(r.store.prices, *entry)
	return nil
}

func (r *fakeInventoryRepo) ListPriceHistory(ctx context.Context, exec repositories.SQLExecutor, itemID int64) ([]models.InventoryPriceHistory, error) {
	r.store.saw("ListPriceHistory", exec)
	var out []models.InventoryPriceHistory
	for i := len(r.store.prices) - 1; i >= 0; i-- {
		if r.store.prices[i].ItemID == itemID {
			out = append(out, r.store.prices[i])
		}
	}
	return out, nil
}

// --- inventory logs ---

type fakeLogRepo struct{ store *memStore }

func (r *fakeLogRepo) CreateLog(ctx context.Context, exec repositories.SQLExecutor, log *models.InventoryLog) error {
	r.store.saw("CreateLog", exec)
	log.ID = r.store.id()
	log.CreatedAt = time.Now()
	r.store.logs = append(r.store.logs, *log)
	return nil
}

func (r *fakeLogRepo) GetLogByID(ctx context.Context, exec repositories.SQLExecutor, id int64) (*models.InventoryLog, error) {
	r.store.saw("GetLogByID", exec)
	for _, l := range r.store.logs {
		if l.ID == id {
			return &l, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (r *fakeLogRepo) ListByItem(ctx context.Context, exec repositories.SQLExecutor, itemID int64, purchasesOnly bool) ([]models.InventoryLog, error) {
	r.store.saw("ListByItem", exec)
	var out []models.InventoryLog
	for i := len(r.store.logs) - 1; i >= 0; i-- {
		l := r.store.logs[i]
		if !l.BelongsTo(itemID) || (purchasesOnly && !l.IsReversiblePurchase()) {
			continue
		}
		out = append(out, l)
	}
	return out, nil
}

func (r *fakeLogRepo) ListByBooking(ctx context.Context, exec repositories.SQLExecutor, bookingID int64) ([]models.InventoryLog, error) {
	r.store.saw("ListByBooking", exec)
	return r.store.logsFor(bookingID), nil
}

func (r *fakeLogRepo) ListBookingLinked(ctx context.Context, exec repositories.SQLExecutor, from, to time.Time) ([]models.InventoryLog, error) {
	r.store.saw("ListBookingLinked", exec)
	var out []models.InventoryLog
	for _, l := range r.store.logs {
		if l.BookingID == nil || l.CreatedAt.Before(from) || !l.CreatedAt.Before(to) {
			continue
		}
		out = append(out, l)
	}
	return out, nil
}

func (r *fakeLogRepo) DeleteLog(ctx context.Context, exec repositories.SQLExecutor, id int64) error {
	r.store.saw("DeleteLog", exec)
	for i, l := range r.store.logs {
		if l.ID == id {
			r.store.logs = append(r.store.logs[:i:i], r.store.logs[i+1:]...)
			for j := range r.store.expenses {
				if e := r.store.expenses[j].InventoryLogID; e != nil && *e == id {
					r.store.expenses[j].InventoryLogID = nil
				}
			}
			return nil
		}
	}
	return repositories.ErrNotFound
}

// --- cost of sale ---

type fakeCostOfSaleRepo struct{ store *memStore }

func (r *fakeCostOfSaleRepo) ListCostOfSaleItems(ctx context.Context, exec repositories.SQLExecutor) ([]models.CostOfSaleItem, error) {
	r.store.saw("ListCostOfSaleItems", exec)
	return append([]models.CostOfSaleItem(nil), r.store.recipe...), nil
}

func (r *fakeCostOfSaleRepo) GetCostOfSaleItem(ctx context.Context, exec repositories.SQLExecutor, id int64) (*models.CostOfSaleItem, error) {
	r.store.saw("GetCostOfSaleItem", exec)
	for _, e := range r.store.recipe {
		if e.ID == id {
			return &e, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (r *fakeCostOfSaleRepo) CreateCostOfSaleItem(ctx context.Context, exec repositories.SQLExecutor, entry *models.CostOfSaleItem) error {
	r.store.saw("CreateCostOfSaleItem", exec)
	for _, e := range r.store.recipe {
		if e.ItemID == entry.ItemID {
			return repositories.ErrDuplicateKey
		}
	}
	entry.ID = r.store.id()
	r.store.recipe = append(r.store.recipe, *entry)
	return nil
}

func (r *fakeCostOfSaleRepo) UpdateQuantityPerPerson(ctx context.Context, exec repositories.SQLExecutor, id int64, qty decimal.Decimal) error {
	r.store.saw("UpdateQuantityPerPerson", exec)
	for i := range r.store.recipe {
		if r.store.recipe[i].ID == id {
			r.store.recipe[i].QuantityPerPerson = qty
			return nil
		}
	}
	return repositories.ErrNotFound
}

func (r *fakeCostOfSaleRepo) DeleteCostOfSaleItem(ctx context.Context, exec repositories.SQLExecutor, id int64) error {
	r.store.saw("DeleteCostOfSaleItem", exec)
	for i, e := range r.store.recipe {
		if e.ID == id {
			r.store.recipe = append(r.store.recipe[:i:i], r.store.recipe[i+1:]...)
			return nil
		}
	}
	return repositories.ErrNotFound
}

// --- bookings ---

type fakeBookingRepo struct{ store *memStore }

func (r *fakeBookingRepo) CreateBooking(ctx context.Context, exec repositories.SQLExecutor, booking *models.Booking) error {
	r.store.saw("CreateBooking", exec)
	booking.ID = r.store.id()
	booking.CreatedAt = time.Now()
	booking.UpdatedAt = booking.CreatedAt
	r.store.bookings[booking.ID] = *booking
	return nil
}

func (r *fakeBookingRepo) GetBookingByID(ctx context.Context, exec repositories.SQLExecutor, id int64) (*models.Booking, error) {
	r.store.saw("GetBookingByID", exec)
	b, ok := r.store.bookings[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return &b, nil
}

func (r *fakeBookingRepo) GetBookingForUpdate(ctx context.Context, exec repositories.SQLExecutor, id int64) (*models.Booking, error) {
	r.store.saw("GetBookingForUpdate", exec)
	return r.GetBookingByID(ctx, exec, id)
}

func (r *fakeBookingRepo) GetBookings(ctx context.Context, exec repositories.SQLExecutor, filters models.BookingFilters) ([]models.Booking, int, error) {
	r.store.saw("GetBookings", exec)
	var out []models.Booking
	for _, b := range r.store.bookings {
		if filters.Status != nil && b.Status != *filters.Status {
			continue
		}
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, len(out), nil
}

func (r *fakeBookingRepo) UpdateBooking(ctx context.Context, exec repositories.SQLExecutor, booking *models.Booking) error {
	r.store.saw("UpdateBooking", exec)
	if _, ok := r.store.bookings[booking.ID]; !ok {
		return repositories.ErrNotFound
	}
	r.store.bookings[booking.ID] = *booking
	return nil
}

func (r *fakeBookingRepo) DeleteBooking(ctx context.Context, exec repositories.SQLExecutor, id int64) error {
	r.store.saw("DeleteBooking", exec)
	if _, ok := r.store.bookings[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(r.store.bookings, id)
	return nil
}

func (r *fakeBookingRepo) SumBookedPeople(ctx context.Context, exec repositories.SQLExecutor, date time.Time, slot models.SessionTime, excludeID *int64) (int, error) {
	r.store.saw("SumBookedPeople", exec)
	total := 0
	for _, b := range r.store.bookings {
		if b.IsCancelled() || b.SessionTime != slot || !b.SessionDate.Equal(date) {
			continue
		}
		if excludeID != nil && b.ID == *excludeID {
			continue
		}
		total += b.NumberOfPeople
	}
	return total, nil
}

func (r *fakeBookingRepo) LockSession(ctx context.Context, exec repositories.SQLExecutor, date time.Time, slot models.SessionTime) error {
	r.store.saw("LockSession", exec)
	r.store.lockedSessions++
	return nil
}

// --- expenses ---

type fakeExpenseRepo struct{ store *memStore }

func (r *fakeExpenseRepo) FindOrCreateCategory(ctx context.Context, exec repositories.SQLExecutor, name string) (*models.ExpenseCategory, error) {
	r.store.saw("FindOrCreateCategory", exec)
	if c, ok := r.store.categories[name]; ok {
		return &c, nil
	}
	c := models.ExpenseCategory{ID: r.store.id(), Name: name, CreatedAt: time.Now()}
	r.store.categories[name] = c
	return &c, nil
}

func (r *fakeExpenseRepo) CreateExpense(ctx context.Context, exec repositories.SQLExecutor, expense *models.Expense) error {
	r.store.saw("CreateExpense", exec)
	if r.store.failCreateExpense {
		return errors.New("expenses table unavailable")
	}
	expense.ID = r.store.id()
	expense.CreatedAt = time.Now()
	r.store.expenses = append(r.store.expenses, *expense)
	return nil
}

func (r *fakeExpenseRepo) GetExpenseByInventoryLog(ctx context.Context, exec repositories.SQLExecutor, logID int64) (*models.Expense, error) {
	r.store.saw("GetExpenseByInventoryLog", exec)
	for _, e := range r.store.expenses {
		if e.InventoryLogID != nil && *e.InventoryLogID == logID {
			return &e, nil
		}
	}
	return nil, repositories.ErrNotFound
}

// --- settings ---

type fakeSettingRepo struct{ store *memStore }

func (r *fakeSettingRepo) GetSettings(ctx context.Context, exec repositories.SQLExecutor) (*models.AppSettings, error) {
	r.store.saw("GetSettings", exec)
	if r.store.settings == nil {
		return nil, repositories.ErrNotFound
	}
	s := *r.store.settings
	return &s, nil
}

func (r *fakeSettingRepo) EnsureSettings(ctx context.Context, exec repositories.SQLExecutor, defaults models.AppSettings) (*models.AppSettings, error) {
	r.store.saw("EnsureSettings", exec)
	if r.store.settings == nil {
		d := defaults
		d.UpdatedAt = time.Now()
		r.store.settings = &d
	}
	return r.GetSettings(ctx, exec)
}

func (r *fakeSettingRepo) UpdateSettings(ctx context.Context, exec repositories.SQLExecutor, settings *models.AppSettings) error {
	r.store.saw("UpdateSettings", exec)
	if r.store.settings == nil {
		return repositories.ErrNotFound
	}
	settings.UpdatedAt = time.Now()
	s := *settings
	r.store.settings = &s
	return nil
}

// engine wires every service over one memStore, the way the router does over *sql.DB.
type engine struct {
	store       *memStore
	tx          *fakeTransactor
	settings    SettingService
	capacity    CapacityChecker
	consumption ConsumptionEngine
	purchases   PurchaseLedger
	inventory   InventoryService
	costOfSale  CostOfSaleService
	bookings    BookingService
	reports     ReportService
}

func newEngine(maxPersons int, policy InventoryPolicy) *engine {
	store := newMemStore()
	tx := &fakeTransactor{store: store}
	items := &fakeInventoryRepo{store: store}
	logs := &fakeLogRepo{store: store}
	recipe := &fakeCostOfSaleRepo{store: store}
	bookingRepo := &fakeBookingRepo{store: store}

	pool := store.execs.pool

	e := &engine{store: store, tx: tx}
	e.settings = NewSettingService(&fakeSettingRepo{store: store}, pool, maxPersons)
	e.capacity = NewCapacityService(bookingRepo, e.settings, pool)
	e.consumption = NewConsumptionService(items, logs, recipe, tx, policy)
	e.purchases = NewPurchaseService(items, logs, &fakeExpenseRepo{store: store}, tx, policy)
	e.inventory = NewInventoryService(items, logs, pool, tx, policy)
	e.costOfSale = NewCostOfSaleService(recipe, items, pool)
	e.bookings = NewBookingService(bookingRepo, logs, e.capacity, e.consumption, pool, tx)
	e.reports = NewReportService(items, logs, e.settings, pool)
	return e
}

var (
	testActor = models.Actor{UserID: 7, DisplayName: "Jane Doe", Role: models.RoleAdmin}
	classDay  = time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC)
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func decp(s string) *decimal.Decimal {
	v := dec(s)
	return &v
}

func strp(s string) *string {
	return &s
}

func intp(v int) *int {
	return &v
}
