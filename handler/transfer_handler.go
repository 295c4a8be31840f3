package handler

import (
	"encoding/json"
	"expense-ledger-api/common"
	"expense-ledger-api/service"
	"net/http"
	"strconv"
)

// TransferHandler holds dependencies for transfer-related handlers.
type TransferHandler struct {
	service *service.TransferService
}

// NewTransferHandler creates a new TransferHandler with its dependencies.
func NewTransferHandler(s *service.TransferService) *TransferHandler {
	return &TransferHandler{service: s}
}

// CreateTransfer godoc
// @Summary      Transfer money between accounts
// @Description  Moves a specified amount from the caller's account to the account addressed by account number.
// @Tags         transfers
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        accountId path int true "The sender account ID"
// @Param        transfer body service.TransferRequest true "Details of the transfer"
// @Success      201  {object}  model.Transfer
// @Failure      400  {object}  common.AppError "Bad Request (e.g., insufficient funds, self transfer, invalid amount)"
// @Failure      401  {object}  common.AppError "Unauthorized: Invalid or missing token"
// @Failure      403  {object}  common.AppError "Forbidden: User does not own the source account"
// @Failure      404  {object}  common.AppError "Sender or receiver account not found"
// @Failure      409  {object}  common.AppError "Account is busy, retry later"
// @Failure      500  {object}  common.AppError "Internal server error while processing transfer"
// @Router       /api/accounts/{accountId}/transfers [post]
func (h *TransferHandler) CreateTransfer(w http.ResponseWriter, r *http.Request) *common.AppError {
	userID, ok := r.Context().Value(UserIDKey).(int)
	if !ok {
		return common.NewAppError(http.StatusUnauthorized, "Invalid user ID in token", nil)
	}

	fromAccountID, err := strconv.Atoi(r.PathValue("accountId"))
	if err != nil {
		return common.NewAppError(http.StatusBadRequest, "Invalid account ID in URL path", err)
	}

	var req service.TransferRequest
	if appErr := common.ValidateAndDecode(r, &req); appErr != nil {
		return appErr
	}

	transfer, err := h.service.Transfer(r.Context(), userID, fromAccountID, req)
	if err != nil {
		return mapLedgerError(err, "Could not process transfer")
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(transfer)
	return nil
}

// ListTransfersForAccount godoc
// @Summary      List account transfer history
// @Description  Retrieves the transfer history for a specific account owned by the authenticated user.
// @Tags         transfers
// @Produce      json
// @Security     BearerAuth
// @Param        accountId path int true "The ID of the account to retrieve transfers for"
// @Success      200  {array}   model.Transfer "A list of transfers for the account"
// @Failure      400  {object}  common.AppError "Invalid account ID in URL path"
// @Failure      401  {object}  common.AppError "Unauthorized: Invalid or missing token"
// @Failure      403  {object}  common.AppError "Forbidden: User does not own the specified account"
// @Failure      404  {object}  common.AppError "Account with the specified ID not found"
// @Failure      500  {object}  common.AppError "Internal server error while retrieving transfers"
// @Router       /api/accounts/{accountId}/transfers [get]
func (h *TransferHandler) ListTransfersForAccount(w http.ResponseWriter, r *http.Request) *common.AppError {
	userID, ok := r.Context().Value(UserIDKey).(int)
	if !ok {
		return common.NewAppError(http.StatusUnauthorized, "Invalid user ID in token", nil)
	}

	accountID, err := strconv.Atoi(r.PathValue("accountId"))
	if err != nil {
		return common.NewAppError(http.StatusBadRequest, "Invalid account ID in URL path", err)
	}

	transfers, err := h.service.ListTransfersForAccount(r.Context(), userID, accountID)
	if err != nil {
		return mapLedgerError(err, "Could not retrieve transfers")
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(transfers)
	return nil
}
