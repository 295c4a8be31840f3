// service/balance_service_test.go
package service

import (
	"context"
	"database/sql"
	"expense-ledger-api/model"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestReconcile(t *testing.T) {
	accountRepo := new(MockAccountRepository)
	expenseRepo := new(MockExpenseRepository)
	transferRepo := new(MockTransferRepository)
	balanceService := NewBalanceService(accountRepo, expenseRepo, transferRepo)

	t.Run("SumsEventHistory", func(t *testing.T) {
		account := &model.Account{ID: 1, UserID: 1, Balance: decimal.NewFromInt(40)}
		accountRepo.On("GetAccountByID", 1).Return(account, nil)
		// credits 30 - debits 70 + incoming 100 - outgoing 20 = 40
		expenseRepo.On("SumExpensesByAccountID", 1).Return(decimal.NewFromInt(70), decimal.NewFromInt(30), nil)
		transferRepo.On("SumTransfersByAccountID", 1).Return(decimal.NewFromInt(100), decimal.NewFromInt(20), nil)

		reconciled, err := balanceService.Reconcile(context.Background(), 1)

		assert.NoError(t, err)
		assert.True(t, reconciled.Equal(decimal.NewFromInt(40)))
	})

	t.Run("IsIdempotent", func(t *testing.T) {
		first, err := balanceService.Reconcile(context.Background(), 1)
		assert.NoError(t, err)
		second, err := balanceService.Reconcile(context.Background(), 1)
		assert.NoError(t, err)
		assert.True(t, first.Equal(second))
	})

	t.Run("AccountNotFound", func(t *testing.T) {
		accountRepo.On("GetAccountByID", 404).Return(nil, sql.ErrNoRows)

		_, err := balanceService.Reconcile(context.Background(), 404)

		assert.ErrorIs(t, err, ErrAccountNotFound)
	})
}

func TestAudit(t *testing.T) {
	t.Run("Consistent", func(t *testing.T) {
		accountRepo := new(MockAccountRepository)
		expenseRepo := new(MockExpenseRepository)
		transferRepo := new(MockTransferRepository)
		balanceService := NewBalanceService(accountRepo, expenseRepo, transferRepo)

		account := &model.Account{ID: 1, UserID: 1, Balance: decimal.NewFromInt(40)}
		accountRepo.On("GetAccountByID", 1).Return(account, nil)
		expenseRepo.On("SumExpensesByAccountID", 1).Return(decimal.NewFromInt(70), decimal.NewFromInt(30), nil)
		transferRepo.On("SumTransfersByAccountID", 1).Return(decimal.NewFromInt(100), decimal.NewFromInt(20), nil)

		audit, err := balanceService.Audit(context.Background(), 1)

		assert.NoError(t, err)
		assert.True(t, audit.Consistent)
		assert.True(t, audit.Drift.IsZero())
	})

	t.Run("DetectsDrift", func(t *testing.T) {
		accountRepo := new(MockAccountRepository)
		expenseRepo := new(MockExpenseRepository)
		transferRepo := new(MockTransferRepository)
		balanceService := NewBalanceService(accountRepo, expenseRepo, transferRepo)

		// Cached column says 50 but the event history only supports 40.
		account := &model.Account{ID: 1, UserID: 1, Balance: decimal.NewFromInt(50)}
		accountRepo.On("GetAccountByID", 1).Return(account, nil)
		expenseRepo.On("SumExpensesByAccountID", 1).Return(decimal.NewFromInt(70), decimal.NewFromInt(30), nil)
		transferRepo.On("SumTransfersByAccountID", 1).Return(decimal.NewFromInt(100), decimal.NewFromInt(20), nil)

		audit, err := balanceService.Audit(context.Background(), 1)

		assert.NoError(t, err)
		assert.False(t, audit.Consistent)
		assert.True(t, audit.Drift.Equal(decimal.NewFromInt(10)))
		assert.True(t, audit.Cached.Equal(decimal.NewFromInt(50)))
		assert.True(t, audit.Reconciled.Equal(decimal.NewFromInt(40)))
	})
}

func TestVerifyAll(t *testing.T) {
	accountRepo := new(MockAccountRepository)
	expenseRepo := new(MockExpenseRepository)
	transferRepo := new(MockTransferRepository)
	balanceService := NewBalanceService(accountRepo, expenseRepo, transferRepo)

	healthy := &model.Account{ID: 1, UserID: 1, Balance: decimal.NewFromInt(40)}
	drifted := &model.Account{ID: 2, UserID: 2, Balance: decimal.NewFromInt(99)}

	accountRepo.On("GetAllAccounts").Return([]*model.Account{healthy, drifted}, nil)
	accountRepo.On("GetAccountByID", 1).Return(healthy, nil)
	accountRepo.On("GetAccountByID", 2).Return(drifted, nil)
	expenseRepo.On("SumExpensesByAccountID", 1).Return(decimal.NewFromInt(70), decimal.NewFromInt(30), nil)
	transferRepo.On("SumTransfersByAccountID", 1).Return(decimal.NewFromInt(100), decimal.NewFromInt(20), nil)
	expenseRepo.On("SumExpensesByAccountID", 2).Return(decimal.Zero, decimal.NewFromInt(10), nil)
	transferRepo.On("SumTransfersByAccountID", 2).Return(decimal.Zero, decimal.Zero, nil)

	inconsistent, err := balanceService.VerifyAll(context.Background())

	assert.NoError(t, err)
	assert.Len(t, inconsistent, 1)
	assert.Equal(t, 2, inconsistent[0].AccountID)
	assert.True(t, inconsistent[0].Drift.Equal(decimal.NewFromInt(89)))
}
