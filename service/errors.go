package service

import (
	"errors"
	"fmt"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

// Ledger error taxonomy. Handlers map these to HTTP statuses; the core
// never returns a generic failure when the kind is known.
var (
	ErrAccountNotFound       = errors.New("account not found")
	ErrSenderAccountNotFound = errors.New("sender account not found")
	ErrReceiverNotFound      = errors.New("receiver account not found")
	ErrCategoryNotFound      = errors.New("category not found")
	ErrExpenseNotFound       = errors.New("expense not found")
	ErrSelfTransfer          = errors.New("cannot transfer money to the same account")
	ErrPermissionDenied      = errors.New("you can only move money from your own account")
	ErrInsufficientFunds     = errors.New("insufficient funds")
	ErrInvalidAmount         = errors.New("amount must be greater than zero")
	ErrBusy                  = errors.New("account is busy, try again")
)

// InsufficientFundsError carries the shortfall details so callers can show
// required vs. available. It matches ErrInsufficientFunds under errors.Is.
type InsufficientFundsError struct {
	Required  decimal.Decimal
	Available decimal.Decimal
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("insufficient funds: you have %s, but tried to spend %s", e.Available, e.Required)
}

func (e *InsufficientFundsError) Is(target error) bool {
	return target == ErrInsufficientFunds
}

// pgLockNotAvailable is the class 55 code postgres returns when
// lock_timeout expires while waiting for a row lock.
const pgLockNotAvailable = "55P03"

// mapLockError translates a bounded-lock-wait failure into ErrBusy so the
// caller can decide whether to retry; anything else passes through.
func mapLockError(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && string(pqErr.Code) == pgLockNotAvailable {
		return ErrBusy
	}
	return err
}
