package repositories

import (
	"context"
	"database/sql"
	"time"

	"art_studio_backend/internal/models"
)

// ExpenseRepository stores expenses and their categories.
type ExpenseRepository interface {
	// FindOrCreateCategory returns the category with the given name, creating it on first use.
	FindOrCreateCategory(ctx context.Context, executor SQLExecutor, name string) (*models.ExpenseCategory, error)
	CreateExpense(ctx context.Context, executor SQLExecutor, expense *models.Expense) error
	GetExpenseByInventoryLog(ctx context.Context, executor SQLExecutor, logID int64) (*models.Expense, error)
}

type expenseRepository struct{}

// NewExpenseRepository creates a new instance of ExpenseRepository.
func NewExpenseRepository() ExpenseRepository {
	return &expenseRepository{}
}

func (r *expenseRepository) FindOrCreateCategory(ctx context.Context, executor SQLExecutor, name string) (*models.ExpenseCategory, error) {
	// The no-op DO UPDATE makes RETURNING yield the existing row on conflict.
	query := `INSERT INTO expense_categories (name, created_at) VALUES ($1, $2)
	          ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
	          RETURNING id, name, created_at`
	var c models.ExpenseCategory
	if err := executor.QueryRowContext(ctx, query, name, time.Now()).Scan(&c.ID, &c.Name, &c.CreatedAt); err != nil {
		return nil, wrapError(err, "finding or creating expense category")
	}
	return &c, nil
}

func (r *expenseRepository) CreateExpense(ctx context.Context, executor SQLExecutor, expense *models.Expense) error {
	query := `INSERT INTO expenses
	          (category_id, amount, description, expense_date, inventory_item_id, inventory_log_id, created_by, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	          RETURNING id, created_at`
	err := executor.QueryRowContext(ctx, query,
		expense.CategoryID, expense.Amount, expense.Description, expense.ExpenseDate.Format("2006-01-02"),
		expense.InventoryItemID, expense.InventoryLogID, expense.CreatedBy, time.Now(),
	).Scan(&expense.ID, &expense.CreatedAt)
	return wrapError(err, "creating expense")
}

func (r *expenseRepository) GetExpenseByInventoryLog(ctx context.Context, executor SQLExecutor, logID int64) (*models.Expense, error) {
	var e models.Expense
	var itemID, linkedLogID, createdBy sql.NullInt64
	err := executor.QueryRowContext(ctx,
		`SELECT id, category_id, amount, description, expense_date, inventory_item_id, inventory_log_id, created_by, created_at
		 FROM expenses WHERE inventory_log_id = $1
		 ORDER BY id LIMIT 1`, logID,
	).Scan(&e.ID, &e.CategoryID, &e.Amount, &e.Description, &e.ExpenseDate, &itemID, &linkedLogID, &createdBy, &e.CreatedAt)
	if err != nil {
		return nil, wrapError(err, "getting expense by inventory log")
	}
	e.InventoryItemID = nullInt64Ptr(itemID)
	e.InventoryLogID = nullInt64Ptr(linkedLogID)
	e.CreatedBy = nullInt64Ptr(createdBy)
	return &e, nil
}
