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

// TransferNotifier publishes best-effort notifications after a transfer
// commits. Implementations must never block the ledger on failure.
type TransferNotifier interface {
	NotifyTransfer(ctx context.Context, transfer *model.Transfer)
}

// TransferService validates and executes money movement between two
// accounts. It is one of the two writers allowed to touch account balances.
type TransferService struct {
	db           *sql.DB
	accountRepo  repository.IAccountRepository
	transferRepo repository.ITransferRepository
	notifier     TransferNotifier
}

func NewTransferService(db *sql.DB, accountRepo repository.IAccountRepository, transferRepo repository.ITransferRepository, notifier TransferNotifier) *TransferService {
	return &TransferService{
		db:           db,
		accountRepo:  accountRepo,
		transferRepo: transferRepo,
		notifier:     notifier,
	}
}

// TransferRequest defines the structure for a money transfer. The sender
// account comes from the URL; the receiver is addressed by account number.
type TransferRequest struct {
	ToAccountNumber string          `json:"to_account_number" validate:"required"`
	Amount          decimal.Decimal `json:"amount" validate:"required"`
	Description     string          `json:"description" validate:"max=255"`
}

// Transfer moves req.Amount from the caller's account to the account
// addressed by req.ToAccountNumber. The receiver lookup, the fresh balance
// check and both balance writes happen inside one transaction; the two
// account rows are locked in ascending id order so opposing transfers
// between the same pair cannot deadlock.
func (s *TransferService) Transfer(ctx context.Context, userID, fromAccountID int, req TransferRequest) (*model.Transfer, error) {
	log := logger.Log.WithFields(logrus.Fields{
		"from_account_id":   fromAccountID,
		"to_account_number": req.ToAccountNumber,
		"amount":            req.Amount.String(),
		"user_id":           userID,
	})

	log.Info("Starting money transfer process")

	if !req.Amount.IsPositive() {
		return nil, ErrInvalidAmount
	}

	tx, err := beginLedgerTx(ctx, s.db)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	// Resolve the receiver before any mutation so a bad destination can
	// never partially debit the sender.
	toAccountID, err := s.accountRepo.ResolveAccountNumber(tx, req.ToAccountNumber)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrReceiverNotFound
		}
		return nil, err
	}

	if toAccountID == fromAccountID {
		return nil, ErrSelfTransfer
	}

	fromAccount, toAccount, err := s.lockAccountPair(tx, fromAccountID, toAccountID)
	if err != nil {
		return nil, err
	}

	if fromAccount.UserID != userID {
		return nil, ErrPermissionDenied
	}
	if fromAccount.Balance.LessThan(req.Amount) {
		return nil, &InsufficientFundsError{Required: req.Amount, Available: fromAccount.Balance}
	}

	err = s.accountRepo.UpdateAccountBalance(tx, fromAccount.ID, fromAccount.Balance.Sub(req.Amount))
	if err != nil {
		return nil, fmt.Errorf("could not update sender balance: %w", err)
	}

	err = s.accountRepo.UpdateAccountBalance(tx, toAccount.ID, toAccount.Balance.Add(req.Amount))
	if err != nil {
		return nil, fmt.Errorf("could not update receiver balance: %w", err)
	}

	transfer := &model.Transfer{
		FromAccountID: fromAccount.ID,
		ToAccountID:   toAccount.ID,
		Amount:        req.Amount,
		Description:   req.Description,
	}

	err = s.transferRepo.CreateTransfer(tx, transfer)
	if err != nil {
		return nil, fmt.Errorf("could not create transfer record: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("could not commit transaction: %w", err)
	}

	log.WithField("transfer_id", transfer.ID).Info("Transfer completed successfully")

	// Best effort only: the transfer is already committed, a notification
	// failure is logged inside the notifier and never surfaces here.
	if s.notifier != nil {
		s.notifier.NotifyTransfer(ctx, transfer)
	}

	return transfer, nil
}

// lockAccountPair locks both account rows in ascending id order and hands
// them back as (sender, receiver). A lock wait past the configured bound
// surfaces as ErrBusy.
func (s *TransferService) lockAccountPair(tx *sql.Tx, fromAccountID, toAccountID int) (*model.Account, *model.Account, error) {
	firstID, secondID := fromAccountID, toAccountID
	if secondID < firstID {
		firstID, secondID = secondID, firstID
	}

	lock := func(accountID int) (*model.Account, error) {
		account, err := s.accountRepo.GetAccountForUpdate(tx, accountID)
		if err != nil {
			if err == sql.ErrNoRows {
				if accountID == fromAccountID {
					return nil, ErrSenderAccountNotFound
				}
				return nil, ErrReceiverNotFound
			}
			return nil, mapLockError(err)
		}
		return account, nil
	}

	first, err := lock(firstID)
	if err != nil {
		return nil, nil, err
	}
	second, err := lock(secondID)
	if err != nil {
		return nil, nil, err
	}

	if first.ID == fromAccountID {
		return first, second, nil
	}
	return second, first, nil
}

// ListTransfersForAccount retrieves the transfer history for a specific account.
func (s *TransferService) ListTransfersForAccount(ctx context.Context, userID, accountID int) ([]*model.Transfer, error) {
	log := logger.Log.WithFields(logrus.Fields{
		"requesting_user_id": userID,
		"target_account_id":  accountID,
	})

	// Authorization check: user must own the account.
	account, err := s.accountRepo.GetAccountByID(accountID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}

	if account.UserID != userID {
		log.Warn("Permission denied for accessing account's transfer history")
		return nil, ErrPermissionDenied
	}

	return s.transferRepo.GetTransfersByAccountID(accountID)
}
