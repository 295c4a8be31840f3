// service/transfer_service_test.go
package service

import (
	"context"
	"database/sql"
	"errors"
	"expense-ledger-api/model"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// newLedgerTx returns a mocked DB whose next transaction expects the
// lock-timeout setup statement every balance mutation starts with.
func newLedgerTx(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	db, dbMock, err := sqlmock.New()
	assert.NoError(t, err)
	dbMock.ExpectBegin()
	dbMock.ExpectExec("SET LOCAL lock_timeout").WillReturnResult(sqlmock.NewResult(0, 0))
	return db, dbMock
}

func TestTransfer_Success(t *testing.T) {
	db, dbMock := newLedgerTx(t)
	defer db.Close()
	dbMock.ExpectCommit()

	accountRepo := new(MockAccountRepository)
	transferRepo := new(MockTransferRepository)
	notifier := new(mockNotifier)

	fromAccount := &model.Account{ID: 1, UserID: 1, Balance: decimal.NewFromInt(500)}
	toAccount := &model.Account{ID: 2, UserID: 2, Balance: decimal.NewFromInt(200)}

	accountRepo.On("ResolveAccountNumber", mock.Anything, "22222222222222222222").Return(2, nil)
	accountRepo.On("GetAccountForUpdate", mock.Anything, 1).Return(fromAccount, nil)
	accountRepo.On("GetAccountForUpdate", mock.Anything, 2).Return(toAccount, nil)
	// Conservation: the sender loses exactly what the receiver gains.
	accountRepo.On("UpdateAccountBalance", mock.Anything, 1, decEq(decimal.NewFromInt(400))).Return(nil)
	accountRepo.On("UpdateAccountBalance", mock.Anything, 2, decEq(decimal.NewFromInt(300))).Return(nil)
	transferRepo.On("CreateTransfer", mock.Anything, mock.AnythingOfType("*model.Transfer")).Return(nil)
	notifier.On("NotifyTransfer", mock.AnythingOfType("*model.Transfer")).Return()

	transferService := NewTransferService(db, accountRepo, transferRepo, notifier)
	req := TransferRequest{ToAccountNumber: "22222222222222222222", Amount: decimal.NewFromInt(100), Description: "rent"}

	transfer, err := transferService.Transfer(context.Background(), 1, 1, req)

	assert.NoError(t, err)
	assert.NotNil(t, transfer)
	assert.Equal(t, 1, transfer.FromAccountID)
	assert.Equal(t, 2, transfer.ToAccountID)
	assert.True(t, transfer.Amount.Equal(decimal.NewFromInt(100)))
	accountRepo.AssertExpectations(t)
	transferRepo.AssertExpectations(t)
	notifier.AssertExpectations(t)
	assert.NoError(t, dbMock.ExpectationsWereMet())
}

func TestTransfer_InsufficientFunds(t *testing.T) {
	db, dbMock := newLedgerTx(t)
	defer db.Close()
	dbMock.ExpectRollback()

	accountRepo := new(MockAccountRepository)
	transferRepo := new(MockTransferRepository)
	notifier := new(mockNotifier)

	fromAccount := &model.Account{ID: 1, UserID: 1, Balance: decimal.NewFromInt(50)}
	toAccount := &model.Account{ID: 2, UserID: 2, Balance: decimal.NewFromInt(200)}

	accountRepo.On("ResolveAccountNumber", mock.Anything, "22222222222222222222").Return(2, nil)
	accountRepo.On("GetAccountForUpdate", mock.Anything, 1).Return(fromAccount, nil)
	accountRepo.On("GetAccountForUpdate", mock.Anything, 2).Return(toAccount, nil)

	transferService := NewTransferService(db, accountRepo, transferRepo, notifier)
	req := TransferRequest{ToAccountNumber: "22222222222222222222", Amount: decimal.NewFromInt(100)}

	transfer, err := transferService.Transfer(context.Background(), 1, 1, req)

	assert.Nil(t, transfer)
	assert.ErrorIs(t, err, ErrInsufficientFunds)

	var insufficient *InsufficientFundsError
	assert.ErrorAs(t, err, &insufficient)
	assert.True(t, insufficient.Required.Equal(decimal.NewFromInt(100)))
	assert.True(t, insufficient.Available.Equal(decimal.NewFromInt(50)))

	// No partial effect: neither balance was written, no transfer row exists.
	accountRepo.AssertNotCalled(t, "UpdateAccountBalance", mock.Anything, mock.Anything, mock.Anything)
	transferRepo.AssertNotCalled(t, "CreateTransfer", mock.Anything, mock.Anything)
	notifier.AssertNotCalled(t, "NotifyTransfer", mock.Anything)
	assert.NoError(t, dbMock.ExpectationsWereMet())
}

func TestTransfer_ReceiverNotFound(t *testing.T) {
	db, dbMock := newLedgerTx(t)
	defer db.Close()
	dbMock.ExpectRollback()

	accountRepo := new(MockAccountRepository)
	transferRepo := new(MockTransferRepository)

	accountRepo.On("ResolveAccountNumber", mock.Anything, "00000000000000000000").Return(0, sql.ErrNoRows)

	transferService := NewTransferService(db, accountRepo, transferRepo, nil)
	req := TransferRequest{ToAccountNumber: "00000000000000000000", Amount: decimal.NewFromInt(100)}

	transfer, err := transferService.Transfer(context.Background(), 1, 1, req)

	assert.Nil(t, transfer)
	assert.ErrorIs(t, err, ErrReceiverNotFound)
	// A bad destination must fail before the sender is touched.
	accountRepo.AssertNotCalled(t, "GetAccountForUpdate", mock.Anything, mock.Anything)
	accountRepo.AssertNotCalled(t, "UpdateAccountBalance", mock.Anything, mock.Anything, mock.Anything)
	assert.NoError(t, dbMock.ExpectationsWereMet())
}

func TestTransfer_SelfTransfer(t *testing.T) {
	db, dbMock := newLedgerTx(t)
	defer db.Close()
	dbMock.ExpectRollback()

	accountRepo := new(MockAccountRepository)
	transferRepo := new(MockTransferRepository)

	// The destination number resolves back to the sender's own account.
	accountRepo.On("ResolveAccountNumber", mock.Anything, "11111111111111111111").Return(1, nil)

	transferService := NewTransferService(db, accountRepo, transferRepo, nil)
	req := TransferRequest{ToAccountNumber: "11111111111111111111", Amount: decimal.NewFromInt(100)}

	transfer, err := transferService.Transfer(context.Background(), 1, 1, req)

	assert.Nil(t, transfer)
	assert.ErrorIs(t, err, ErrSelfTransfer)
	accountRepo.AssertNotCalled(t, "GetAccountForUpdate", mock.Anything, mock.Anything)
	assert.NoError(t, dbMock.ExpectationsWereMet())
}

func TestTransfer_InvalidAmount(t *testing.T) {
	db, dbMock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	transferService := NewTransferService(db, new(MockAccountRepository), new(MockTransferRepository), nil)

	for _, amount := range []decimal.Decimal{decimal.Zero, decimal.NewFromInt(-10)} {
		req := TransferRequest{ToAccountNumber: "22222222222222222222", Amount: amount}
		transfer, err := transferService.Transfer(context.Background(), 1, 1, req)
		assert.Nil(t, transfer)
		assert.ErrorIs(t, err, ErrInvalidAmount)
	}

	// Rejected before any transaction is opened.
	assert.NoError(t, dbMock.ExpectationsWereMet())
}

func TestTransfer_PermissionDenied(t *testing.T) {
	db, dbMock := newLedgerTx(t)
	defer db.Close()
	dbMock.ExpectRollback()

	accountRepo := new(MockAccountRepository)
	transferRepo := new(MockTransferRepository)

	// Account 1 belongs to user 99, not to the caller.
	fromAccount := &model.Account{ID: 1, UserID: 99, Balance: decimal.NewFromInt(500)}
	toAccount := &model.Account{ID: 2, UserID: 2, Balance: decimal.NewFromInt(200)}

	accountRepo.On("ResolveAccountNumber", mock.Anything, "22222222222222222222").Return(2, nil)
	accountRepo.On("GetAccountForUpdate", mock.Anything, 1).Return(fromAccount, nil)
	accountRepo.On("GetAccountForUpdate", mock.Anything, 2).Return(toAccount, nil)

	transferService := NewTransferService(db, accountRepo, transferRepo, nil)
	req := TransferRequest{ToAccountNumber: "22222222222222222222", Amount: decimal.NewFromInt(100)}

	transfer, err := transferService.Transfer(context.Background(), 1, 1, req)

	assert.Nil(t, transfer)
	assert.ErrorIs(t, err, ErrPermissionDenied)
	accountRepo.AssertNotCalled(t, "UpdateAccountBalance", mock.Anything, mock.Anything, mock.Anything)
	assert.NoError(t, dbMock.ExpectationsWereMet())
}

func TestTransfer_LocksAscendingAccountID(t *testing.T) {
	db, dbMock := newLedgerTx(t)
	defer db.Close()
	dbMock.ExpectCommit()

	accountRepo := new(MockAccountRepository)
	transferRepo := new(MockTransferRepository)

	// Sender has the higher id; the receiver's row must still be locked first.
	fromAccount := &model.Account{ID: 9, UserID: 1, Balance: decimal.NewFromInt(500)}
	toAccount := &model.Account{ID: 3, UserID: 2, Balance: decimal.NewFromInt(200)}

	var lockOrder []int
	record := func(args mock.Arguments) {
		lockOrder = append(lockOrder, args.Int(1))
	}

	accountRepo.On("ResolveAccountNumber", mock.Anything, "33333333333333333333").Return(3, nil)
	accountRepo.On("GetAccountForUpdate", mock.Anything, 3).Run(record).Return(toAccount, nil)
	accountRepo.On("GetAccountForUpdate", mock.Anything, 9).Run(record).Return(fromAccount, nil)
	accountRepo.On("UpdateAccountBalance", mock.Anything, 9, decEq(decimal.NewFromInt(400))).Return(nil)
	accountRepo.On("UpdateAccountBalance", mock.Anything, 3, decEq(decimal.NewFromInt(300))).Return(nil)
	transferRepo.On("CreateTransfer", mock.Anything, mock.AnythingOfType("*model.Transfer")).Return(nil)

	transferService := NewTransferService(db, accountRepo, transferRepo, nil)
	req := TransferRequest{ToAccountNumber: "33333333333333333333", Amount: decimal.NewFromInt(100)}

	transfer, err := transferService.Transfer(context.Background(), 1, 9, req)

	assert.NoError(t, err)
	assert.NotNil(t, transfer)
	assert.Equal(t, []int{3, 9}, lockOrder)
	assert.NoError(t, dbMock.ExpectationsWereMet())
}

func TestTransfer_BusyOnLockTimeout(t *testing.T) {
	db, dbMock := newLedgerTx(t)
	defer db.Close()
	dbMock.ExpectRollback()

	accountRepo := new(MockAccountRepository)
	transferRepo := new(MockTransferRepository)

	lockErr := &pq.Error{Code: pq.ErrorCode(pgLockNotAvailable), Message: "canceling statement due to lock timeout"}

	accountRepo.On("ResolveAccountNumber", mock.Anything, "22222222222222222222").Return(2, nil)
	accountRepo.On("GetAccountForUpdate", mock.Anything, 1).Return(nil, lockErr)

	transferService := NewTransferService(db, accountRepo, transferRepo, nil)
	req := TransferRequest{ToAccountNumber: "22222222222222222222", Amount: decimal.NewFromInt(100)}

	transfer, err := transferService.Transfer(context.Background(), 1, 1, req)

	assert.Nil(t, transfer)
	assert.ErrorIs(t, err, ErrBusy)
	accountRepo.AssertNotCalled(t, "UpdateAccountBalance", mock.Anything, mock.Anything, mock.Anything)
	assert.NoError(t, dbMock.ExpectationsWereMet())
}

func TestTransfer_CommitError(t *testing.T) {
	db, dbMock := newLedgerTx(t)
	defer db.Close()
	commitErr := errors.New("commit failed")
	dbMock.ExpectCommit().WillReturnError(commitErr)

	accountRepo := new(MockAccountRepository)
	transferRepo := new(MockTransferRepository)
	notifier := new(mockNotifier)

	fromAccount := &model.Account{ID: 1, UserID: 1, Balance: decimal.NewFromInt(500)}
	toAccount := &model.Account{ID: 2, UserID: 2, Balance: decimal.NewFromInt(200)}

	accountRepo.On("ResolveAccountNumber", mock.Anything, "22222222222222222222").Return(2, nil)
	accountRepo.On("GetAccountForUpdate", mock.Anything, 1).Return(fromAccount, nil)
	accountRepo.On("GetAccountForUpdate", mock.Anything, 2).Return(toAccount, nil)
	accountRepo.On("UpdateAccountBalance", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	transferRepo.On("CreateTransfer", mock.Anything, mock.AnythingOfType("*model.Transfer")).Return(nil)

	transferService := NewTransferService(db, accountRepo, transferRepo, notifier)
	req := TransferRequest{ToAccountNumber: "22222222222222222222", Amount: decimal.NewFromInt(100)}

	transfer, err := transferService.Transfer(context.Background(), 1, 1, req)

	assert.Nil(t, transfer)
	assert.ErrorIs(t, err, commitErr)
	// Nothing committed means nothing to announce.
	notifier.AssertNotCalled(t, "NotifyTransfer", mock.Anything)
	assert.NoError(t, dbMock.ExpectationsWereMet())
}

func TestListTransfersForAccount(t *testing.T) {
	accountRepo := new(MockAccountRepository)
	transferRepo := new(MockTransferRepository)
	transferService := NewTransferService(nil, accountRepo, transferRepo, nil)

	t.Run("Success", func(t *testing.T) {
		account := &model.Account{ID: 1, UserID: 1}
		history := []*model.Transfer{{ID: 7, FromAccountID: 1, ToAccountID: 2, Amount: decimal.NewFromInt(40)}}
		accountRepo.On("GetAccountByID", 1).Return(account, nil).Once()
		transferRepo.On("GetTransfersByAccountID", 1).Return(history, nil).Once()

		transfers, err := transferService.ListTransfersForAccount(context.Background(), 1, 1)

		assert.NoError(t, err)
		assert.Len(t, transfers, 1)
	})

	t.Run("PermissionDenied", func(t *testing.T) {
		account := &model.Account{ID: 2, UserID: 99}
		accountRepo.On("GetAccountByID", 2).Return(account, nil).Once()

		transfers, err := transferService.ListTransfersForAccount(context.Background(), 1, 2)

		assert.Nil(t, transfers)
		assert.ErrorIs(t, err, ErrPermissionDenied)
	})

	t.Run("AccountNotFound", func(t *testing.T) {
		accountRepo.On("GetAccountByID", 404).Return(nil, sql.ErrNoRows).Once()

		transfers, err := transferService.ListTransfersForAccount(context.Background(), 1, 404)

		assert.Nil(t, transfers)
		assert.ErrorIs(t, err, ErrAccountNotFound)
	})
}
