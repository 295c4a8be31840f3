package handler

import (
	"errors"
	"expense-ledger-api/common"
	"expense-ledger-api/service"
	"net/http"
)

// mapLedgerError translates ledger error kinds to HTTP statuses so the
// caller never sees a generic failure when the kind is known.
func mapLedgerError(err error, fallback string) *common.AppError {
	switch {
	case errors.Is(err, service.ErrAccountNotFound),
		errors.Is(err, service.ErrSenderAccountNotFound),
		errors.Is(err, service.ErrReceiverNotFound),
		errors.Is(err, service.ErrCategoryNotFound),
		errors.Is(err, service.ErrExpenseNotFound):
		return common.NewAppError(http.StatusNotFound, err.Error(), err)
	case errors.Is(err, service.ErrPermissionDenied):
		return common.NewAppError(http.StatusForbidden, err.Error(), err)
	case errors.Is(err, service.ErrInsufficientFunds),
		errors.Is(err, service.ErrInvalidAmount),
		errors.Is(err, service.ErrSelfTransfer):
		return common.NewAppError(http.StatusBadRequest, err.Error(), err)
	case errors.Is(err, service.ErrBusy):
		return common.NewAppError(http.StatusConflict, err.Error(), err)
	default:
		return common.NewAppError(http.StatusInternalServerError, fallback, err)
	}
}
