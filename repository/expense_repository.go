package repository

import (
	"database/sql"
	"expense-ledger-api/logger"
	"expense-ledger-api/model"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// IExpenseRepository defines the contract for expense event database
// operations. Mutations take a *sql.Tx because the event write and the
// owning account's balance update must commit together.
type IExpenseRepository interface {
	CreateExpense(tx *sql.Tx, expense *model.Expense) error
	GetExpenseByID(expenseID int) (*model.Expense, error)
	GetExpenseForUpdate(tx *sql.Tx, expenseID int) (*model.Expense, error)
	UpdateExpense(tx *sql.Tx, expense *model.Expense) error
	DeleteExpense(tx *sql.Tx, expenseID int) error
	ListExpensesByAccountID(accountID, limit, offset int) ([]*model.Expense, error)
	SumExpensesByAccountID(accountID int) (debits, credits decimal.Decimal, err error)
	SumDebitsForMonth(accountID int, year int, month time.Month) (decimal.Decimal, error)
}

// ExpenseRepository implements IExpenseRepository.
type ExpenseRepository struct {
	DB *sql.DB
}

func NewExpenseRepository(db *sql.DB) *ExpenseRepository {
	return &ExpenseRepository{DB: db}
}

func (r *ExpenseRepository) CreateExpense(tx *sql.Tx, expense *model.Expense) error {
	log := logger.Log.WithFields(logrus.Fields{
		"account_id": expense.AccountID,
		"debit":      expense.Debit.String(),
		"credit":     expense.Credit.String(),
	})
	log.Info("Executing query to create a new expense")

	query := `INSERT INTO expenses (account_id, category_id, debit, credit, description) VALUES ($1, $2, $3, $4, $5) RETURNING id, created_at`
	err := tx.QueryRow(query, expense.AccountID, expense.CategoryID, expense.Debit, expense.Credit, expense.Description).Scan(&expense.ID, &expense.CreatedAt)
	if err != nil {
		log.WithError(err).Error("Failed to execute create expense query")
		return err
	}
	return nil
}

func (r *ExpenseRepository) GetExpenseByID(expenseID int) (*model.Expense, error) {
	expense := &model.Expense{}
	query := `SELECT id, account_id, category_id, debit, credit, description, created_at FROM expenses WHERE id = $1`
	err := r.DB.QueryRow(query, expenseID).Scan(&expense.ID, &expense.AccountID, &expense.CategoryID, &expense.Debit, &expense.Credit, &expense.Description, &expense.CreatedAt)
	if err != nil {
		if err != sql.ErrNoRows {
			logger.Log.WithError(err).WithField("expense_id", expenseID).Error("Failed to execute get expense by ID query")
		}
		return nil, err
	}
	return expense, nil
}

// GetExpenseForUpdate locks the expense row so an amend or delete sees a
// stable old amount while it adjusts the account balance.
func (r *ExpenseRepository) GetExpenseForUpdate(tx *sql.Tx, expenseID int) (*model.Expense, error) {
	log := logger.Log.WithField("expense_id", expenseID)
	log.Info("Executing query to get expense for update")

	expense := &model.Expense{}
	query := `SELECT id, account_id, category_id, debit, credit, description, created_at FROM expenses WHERE id = $1 FOR UPDATE`
	err := tx.QueryRow(query, expenseID).Scan(&expense.ID, &expense.AccountID, &expense.CategoryID, &expense.Debit, &expense.Credit, &expense.Description, &expense.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			log.Info("Expense not found for update")
		} else {
			log.WithError(err).Error("Failed to execute get expense for update query")
		}
		return nil, err
	}
	return expense, nil
}

func (r *ExpenseRepository) UpdateExpense(tx *sql.Tx, expense *model.Expense) error {
	log := logger.Log.WithField("expense_id", expense.ID)
	log.Info("Executing query to update expense")

	query := `UPDATE expenses SET category_id = $1, debit = $2, credit = $3, description = $4 WHERE id = $5`
	_, err := tx.Exec(query, expense.CategoryID, expense.Debit, expense.Credit, expense.Description, expense.ID)
	if err != nil {
		log.WithError(err).Error("Failed to execute update expense query")
		return err
	}
	return nil
}

func (r *ExpenseRepository) DeleteExpense(tx *sql.Tx, expenseID int) error {
	log := logger.Log.WithField("expense_id", expenseID)
	log.Info("Executing query to delete expense")

	query := `DELETE FROM expenses WHERE id = $1`
	_, err := tx.Exec(query, expenseID)
	if err != nil {
		log.WithError(err).Error("Failed to execute delete expense query")
		return err
	}
	return nil
}

// ListExpensesByAccountID retrieves expense history for an account,
// newest first.
func (r *ExpenseRepository) ListExpensesByAccountID(accountID, limit, offset int) ([]*model.Expense, error) {
	log := logger.Log.WithField("account_id", accountID)
	log.Info("Executing query to list expenses by account ID")

	query := `
		SELECT id, account_id, category_id, debit, credit, description, created_at
		FROM expenses
		WHERE account_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3`

	rows, err := r.DB.Query(query, accountID, limit, offset)
	if err != nil {
		log.WithError(err).Error("Failed to execute query for expenses by account ID")
		return nil, err
	}
	defer rows.Close()

	var expenses []*model.Expense
	for rows.Next() {
		var e model.Expense
		if err := rows.Scan(&e.ID, &e.AccountID, &e.CategoryID, &e.Debit, &e.Credit, &e.Description, &e.CreatedAt); err != nil {
			log.WithError(err).Error("Failed to scan expense row")
			return nil, err
		}
		expenses = append(expenses, &e)
	}
	return expenses, nil
}

// SumExpensesByAccountID aggregates the full expense history of an account.
// The decimal sums are exact and independent of row order.
func (r *ExpenseRepository) SumExpensesByAccountID(accountID int) (decimal.Decimal, decimal.Decimal, error) {
	var debits, credits decimal.Decimal
	query := `SELECT COALESCE(SUM(debit), 0), COALESCE(SUM(credit), 0) FROM expenses WHERE account_id = $1`
	err := r.DB.QueryRow(query, accountID).Scan(&debits, &credits)
	if err != nil {
		logger.Log.WithError(err).WithField("account_id", accountID).Error("Failed to execute sum expenses query")
		return decimal.Zero, decimal.Zero, err
	}
	return debits, credits, nil
}

// SumDebitsForMonth totals spending for a calendar month, for reporting.
func (r *ExpenseRepository) SumDebitsForMonth(accountID int, year int, month time.Month) (decimal.Decimal, error) {
	var total decimal.Decimal
	query := `
		SELECT COALESCE(SUM(debit), 0) FROM expenses
		WHERE account_id = $1
		AND EXTRACT(YEAR FROM created_at) = $2
		AND EXTRACT(MONTH FROM created_at) = $3`
	err := r.DB.QueryRow(query, accountID, year, int(month)).Scan(&total)
	if err != nil {
		logger.Log.WithError(err).WithField("account_id", accountID).Error("Failed to execute monthly debit sum query")
		return decimal.Zero, err
	}
	return total, nil
}
