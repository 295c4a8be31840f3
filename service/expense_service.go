package service

import (
	"context"
	"database/sql"
	"expense-ledger-api/logger"
	"expense-ledger-api/model"
	"expense-ledger-api/repository"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// ExpenseNotifier publishes best-effort notifications after an expense
// event commits.
type ExpenseNotifier interface {
	NotifyExpense(ctx context.Context, expense *model.Expense)
}

// ExpenseService validates and records single-account ledger events:
// debits (spending), credits (the legacy manually-entered income path),
// and the explicit amend/delete operations that reverse their balance
// effects. It is the second of the two writers allowed to touch balances.
type ExpenseService struct {
	db           *sql.DB
	accountRepo  repository.IAccountRepository
	expenseRepo  repository.IExpenseRepository
	categoryRepo repository.ICategoryRepository
	notifier     ExpenseNotifier
}

func NewExpenseService(db *sql.DB, accountRepo repository.IAccountRepository, expenseRepo repository.IExpenseRepository, categoryRepo repository.ICategoryRepository, notifier ExpenseNotifier) *ExpenseService {
	return &ExpenseService{
		db:           db,
		accountRepo:  accountRepo,
		expenseRepo:  expenseRepo,
		categoryRepo: categoryRepo,
		notifier:     notifier,
	}
}

// DebitRequest defines the payload for recording spending.
type DebitRequest struct {
	Amount      decimal.Decimal `json:"amount" validate:"required"`
	CategoryID  *int            `json:"category_id"`
	Description string          `json:"description" validate:"max=255"`
}

// CreditRequest defines the payload for recording income without a
// counterparty transfer.
type CreditRequest struct {
	Amount      decimal.Decimal `json:"amount" validate:"required"`
	CategoryID  *int            `json:"category_id"`
	Description string          `json:"description" validate:"max=255"`
}

// UpdateExpenseRequest is a sparse patch over the enumerated updatable
// fields of an expense. Nil means unchanged.
type UpdateExpenseRequest struct {
	Amount      *decimal.Decimal `json:"amount"`
	CategoryID  *int             `json:"category_id"`
	Description *string          `json:"description"`
}

// RecordDebit appends a debit event and decrements the account balance in
// one transaction. The category check, the fresh balance read and both
// writes share the atomic scope.
func (s *ExpenseService) RecordDebit(ctx context.Context, userID int, req DebitRequest) (*model.Expense, error) {
	log := logger.Log.WithFields(logrus.Fields{
		"user_id": userID,
		"amount":  req.Amount.String(),
	})
	log.Info("Recording debit expense")

	if !req.Amount.IsPositive() {
		return nil, ErrInvalidAmount
	}

	account, err := s.accountRepo.GetAccountByUserID(userID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}

	tx, err := beginLedgerTx(ctx, s.db)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	if req.CategoryID != nil {
		visible, err := s.categoryRepo.CategoryVisibleTo(tx, *req.CategoryID, userID)
		if err != nil {
			return nil, err
		}
		if !visible {
			return nil, ErrCategoryNotFound
		}
	}

	locked, err := s.lockAccount(tx, account.ID)
	if err != nil {
		return nil, err
	}

	if locked.Balance.LessThan(req.Amount) {
		return nil, &InsufficientFundsError{Required: req.Amount, Available: locked.Balance}
	}

	expense := &model.Expense{
		AccountID:   locked.ID,
		CategoryID:  req.CategoryID,
		Debit:       req.Amount,
		Credit:      decimal.Zero,
		Description: req.Description,
	}

	if err := s.expenseRepo.CreateExpense(tx, expense); err != nil {
		return nil, fmt.Errorf("could not create expense record: %w", err)
	}

	if err := s.accountRepo.UpdateAccountBalance(tx, locked.ID, locked.Balance.Sub(req.Amount)); err != nil {
		return nil, fmt.Errorf("could not update account balance: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("could not commit transaction: %w", err)
	}

	log.WithField("expense_id", expense.ID).Info("Debit recorded successfully")

	if s.notifier != nil {
		s.notifier.NotifyExpense(ctx, expense)
	}

	return expense, nil
}

// RecordCredit appends a credit event and increments the balance. Income
// needs no sufficiency check.
func (s *ExpenseService) RecordCredit(ctx context.Context, userID int, req CreditRequest) (*model.Expense, error) {
	log := logger.Log.WithFields(logrus.Fields{
		"user_id": userID,
		"amount":  req.Amount.String(),
	})
	log.Info("Recording credit expense")

	if !req.Amount.IsPositive() {
		return nil, ErrInvalidAmount
	}

	account, err := s.accountRepo.GetAccountByUserID(userID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}

	tx, err := beginLedgerTx(ctx, s.db)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	if req.CategoryID != nil {
		visible, err := s.categoryRepo.CategoryVisibleTo(tx, *req.CategoryID, userID)
		if err != nil {
			return nil, err
		}
		if !visible {
			return nil, ErrCategoryNotFound
		}
	}

	locked, err := s.lockAccount(tx, account.ID)
	if err != nil {
		return nil, err
	}

	expense := &model.Expense{
		AccountID:   locked.ID,
		CategoryID:  req.CategoryID,
		Debit:       decimal.Zero,
		Credit:      req.Amount,
		Description: req.Description,
	}

	if err := s.expenseRepo.CreateExpense(tx, expense); err != nil {
		return nil, fmt.Errorf("could not create expense record: %w", err)
	}

	if err := s.accountRepo.UpdateAccountBalance(tx, locked.ID, locked.Balance.Add(req.Amount)); err != nil {
		return nil, fmt.Errorf("could not update account balance: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("could not commit transaction: %w", err)
	}

	log.WithField("expense_id", expense.ID).Info("Credit recorded successfully")

	if s.notifier != nil {
		s.notifier.NotifyExpense(ctx, expense)
	}

	return expense, nil
}

// UpdateExpense amends an expense. An amount change applies only the
// delta between the old and new values to the balance, computed from the
// locked rows rather than any pre-transaction read.
func (s *ExpenseService) UpdateExpense(ctx context.Context, userID, expenseID int, req UpdateExpenseRequest) (*model.Expense, error) {
	log := logger.Log.WithFields(logrus.Fields{
		"user_id":    userID,
		"expense_id": expenseID,
	})
	log.Info("Updating expense")

	tx, err := beginLedgerTx(ctx, s.db)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	expense, err := s.expenseRepo.GetExpenseForUpdate(tx, expenseID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrExpenseNotFound
		}
		return nil, mapLockError(err)
	}

	account, err := s.lockAccount(tx, expense.AccountID)
	if err != nil {
		return nil, err
	}
	if account.UserID != userID {
		return nil, ErrPermissionDenied
	}

	if req.CategoryID != nil {
		visible, err := s.categoryRepo.CategoryVisibleTo(tx, *req.CategoryID, userID)
		if err != nil {
			return nil, err
		}
		if !visible {
			return nil, ErrCategoryNotFound
		}
		expense.CategoryID = req.CategoryID
	}

	if req.Description != nil {
		expense.Description = *req.Description
	}

	newBalance := account.Balance
	if req.Amount != nil {
		if !req.Amount.IsPositive() {
			return nil, ErrInvalidAmount
		}
		if expense.Credit.IsPositive() {
			// Credit amendment: balance moves by new - old, and may not
			// drop below zero if the old income is already spent.
			newBalance = account.Balance.Sub(expense.Credit).Add(*req.Amount)
			if newBalance.IsNegative() {
				return nil, &InsufficientFundsError{Required: expense.Credit.Sub(*req.Amount), Available: account.Balance}
			}
			expense.Credit = *req.Amount
		} else {
			// Debit amendment: balance moves by old - new. An increase
			// re-checks sufficiency against the balance with the old
			// debit rolled back.
			undone := account.Balance.Add(expense.Debit)
			if undone.LessThan(*req.Amount) {
				return nil, &InsufficientFundsError{Required: *req.Amount, Available: undone}
			}
			newBalance = undone.Sub(*req.Amount)
			expense.Debit = *req.Amount
		}
	}

	if err := s.expenseRepo.UpdateExpense(tx, expense); err != nil {
		return nil, fmt.Errorf("could not update expense record: %w", err)
	}

	if !newBalance.Equal(account.Balance) {
		if err := s.accountRepo.UpdateAccountBalance(tx, account.ID, newBalance); err != nil {
			return nil, fmt.Errorf("could not update account balance: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("could not commit transaction: %w", err)
	}

	log.Info("Expense updated successfully")
	return expense, nil
}

// DeleteExpense removes an expense event and reverses its balance effect
// in the same transaction.
func (s *ExpenseService) DeleteExpense(ctx context.Context, userID, expenseID int) error {
	log := logger.Log.WithFields(logrus.Fields{
		"user_id":    userID,
		"expense_id": expenseID,
	})
	log.Info("Deleting expense")

	tx, err := beginLedgerTx(ctx, s.db)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	expense, err := s.expenseRepo.GetExpenseForUpdate(tx, expenseID)
	if err != nil {
		if err == sql.ErrNoRows {
			return ErrExpenseNotFound
		}
		return mapLockError(err)
	}

	account, err := s.lockAccount(tx, expense.AccountID)
	if err != nil {
		return err
	}
	if account.UserID != userID {
		return ErrPermissionDenied
	}

	// Reversing a credit may not push the balance negative.
	newBalance := account.Balance.Add(expense.Debit).Sub(expense.Credit)
	if newBalance.IsNegative() {
		return &InsufficientFundsError{Required: expense.Credit, Available: account.Balance}
	}

	if err := s.expenseRepo.DeleteExpense(tx, expenseID); err != nil {
		return fmt.Errorf("could not delete expense record: %w", err)
	}

	if err := s.accountRepo.UpdateAccountBalance(tx, account.ID, newBalance); err != nil {
		return fmt.Errorf("could not update account balance: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("could not commit transaction: %w", err)
	}

	log.Info("Expense deleted successfully")
	return nil
}

// ListExpenses retrieves the caller's expense history, newest first.
func (s *ExpenseService) ListExpenses(ctx context.Context, userID, limit, offset int) ([]*model.Expense, error) {
	account, err := s.accountRepo.GetAccountByUserID(userID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}

	if limit <= 0 || limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}

	return s.expenseRepo.ListExpensesByAccountID(account.ID, limit, offset)
}

// lockAccount takes the account row lock that scopes every single-account
// balance mutation.
func (s *ExpenseService) lockAccount(tx *sql.Tx, accountID int) (*model.Account, error) {
	account, err := s.accountRepo.GetAccountForUpdate(tx, accountID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrAccountNotFound
		}
		return nil, mapLockError(err)
	}
	return account, nil
}
