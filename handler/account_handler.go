package handler

import (
	"encoding/json"
	"expense-ledger-api/common"
	"expense-ledger-api/logger"
	"expense-ledger-api/service"
	"net/http"
	"strconv"
)

type AccountHandler struct {
	accountService *service.AccountService
	balanceService *service.BalanceService
}

func NewAccountHandler(accountService *service.AccountService, balanceService *service.BalanceService) *AccountHandler {
	return &AccountHandler{
		accountService: accountService,
		balanceService: balanceService,
	}
}

// GetMyAccount godoc
// @Summary      Get the caller's account
// @Description  Returns the account with its cached balance.
// @Tags         accounts
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  model.Account
// @Failure      404  {object}  common.AppError "Account not found"
// @Router       /api/accounts/me [get]
func (h *AccountHandler) GetMyAccount(w http.ResponseWriter, r *http.Request) *common.AppError {
	userID, ok := r.Context().Value(UserIDKey).(int)
	if !ok {
		return common.NewAppError(http.StatusUnauthorized, "Invalid user ID in token", nil)
	}

	account, err := h.accountService.GetAccountForUser(r.Context(), userID)
	if err != nil {
		return mapLedgerError(err, "Could not retrieve account")
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(account)
	return nil
}

// AuditMyAccount godoc
// @Summary      Audit the caller's balance
// @Description  Recomputes the balance from event history and compares it against the cached value.
// @Tags         accounts
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  service.BalanceAudit
// @Failure      404  {object}  common.AppError "Account not found"
// @Router       /api/accounts/me/audit [get]
func (h *AccountHandler) AuditMyAccount(w http.ResponseWriter, r *http.Request) *common.AppError {
	userID, ok := r.Context().Value(UserIDKey).(int)
	if !ok {
		return common.NewAppError(http.StatusUnauthorized, "Invalid user ID in token", nil)
	}

	logger.Log.WithField("user_id", userID).Info("Balance audit request received")

	audit, err := h.balanceService.AuditAccountForUser(r.Context(), userID)
	if err != nil {
		return mapLedgerError(err, "Could not audit account")
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(audit)
	return nil
}

// AuditAccount godoc
// @Summary      Audit any account's balance (admin)
// @Tags         accounts
// @Produce      json
// @Security     BearerAuth
// @Param        accountId path int true "The account ID"
// @Success      200  {object}  service.BalanceAudit
// @Failure      404  {object}  common.AppError "Account not found"
// @Router       /api/admin/accounts/{accountId}/audit [get]
func (h *AccountHandler) AuditAccount(w http.ResponseWriter, r *http.Request) *common.AppError {
	accountID, err := strconv.Atoi(r.PathValue("accountId"))
	if err != nil {
		return common.NewAppError(http.StatusBadRequest, "Invalid account ID in URL path", err)
	}

	audit, err := h.balanceService.Audit(r.Context(), accountID)
	if err != nil {
		return mapLedgerError(err, "Could not audit account")
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(audit)
	return nil
}

// ListAccounts godoc
// @Summary      List all accounts (admin)
// @Tags         accounts
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}  model.Account
// @Router       /api/admin/accounts [get]
func (h *AccountHandler) ListAccounts(w http.ResponseWriter, r *http.Request) *common.AppError {
	accounts, err := h.accountService.GetAllAccounts(r.Context())
	if err != nil {
		return common.NewAppError(http.StatusInternalServerError, "Could not retrieve accounts", err)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(accounts)
	return nil
}
