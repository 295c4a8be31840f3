package handler

import (
	"encoding/json"
	"expense-ledger-api/common"
	"expense-ledger-api/service"
	"net/http"
	"strconv"
)

// ExpenseHandler holds dependencies for expense-related handlers.
type ExpenseHandler struct {
	service *service.ExpenseService
}

func NewExpenseHandler(s *service.ExpenseService) *ExpenseHandler {
	return &ExpenseHandler{service: s}
}

// RecordDebit godoc
// @Summary      Record a spending debit
// @Description  Records an expense against the caller's account, decrementing the balance.
// @Tags         expenses
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        expense body service.DebitRequest true "Debit details"
// @Success      201  {object}  model.Expense
// @Failure      400  {object}  common.AppError "Insufficient funds or invalid amount"
// @Failure      404  {object}  common.AppError "Account or category not found"
// @Router       /api/expenses [post]
func (h *ExpenseHandler) RecordDebit(w http.ResponseWriter, r *http.Request) *common.AppError {
	userID, ok := r.Context().Value(UserIDKey).(int)
	if !ok {
		return common.NewAppError(http.StatusUnauthorized, "Invalid user ID in token", nil)
	}

	var req service.DebitRequest
	if appErr := common.ValidateAndDecode(r, &req); appErr != nil {
		return appErr
	}

	expense, err := h.service.RecordDebit(r.Context(), userID, req)
	if err != nil {
		return mapLedgerError(err, "Could not record expense")
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(expense)
	return nil
}

// RecordCredit godoc
// @Summary      Record a manual income credit
// @Description  Records income against the caller's account without a counterparty transfer (legacy path).
// @Tags         expenses
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        credit body service.CreditRequest true "Credit details"
// @Success      201  {object}  model.Expense
// @Router       /api/expenses/credits [post]
func (h *ExpenseHandler) RecordCredit(w http.ResponseWriter, r *http.Request) *common.AppError {
	userID, ok := r.Context().Value(UserIDKey).(int)
	if !ok {
		return common.NewAppError(http.StatusUnauthorized, "Invalid user ID in token", nil)
	}

	var req service.CreditRequest
	if appErr := common.ValidateAndDecode(r, &req); appErr != nil {
		return appErr
	}

	expense, err := h.service.RecordCredit(r.Context(), userID, req)
	if err != nil {
		return mapLedgerError(err, "Could not record credit")
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(expense)
	return nil
}

// ListExpenses godoc
// @Summary      List expense history
// @Tags         expenses
// @Produce      json
// @Security     BearerAuth
// @Param        limit  query int false "Page size (max 100)"
// @Param        offset query int false "Page offset"
// @Success      200  {array}  model.Expense
// @Router       /api/expenses [get]
func (h *ExpenseHandler) ListExpenses(w http.ResponseWriter, r *http.Request) *common.AppError {
	userID, ok := r.Context().Value(UserIDKey).(int)
	if !ok {
		return common.NewAppError(http.StatusUnauthorized, "Invalid user ID in token", nil)
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	expenses, err := h.service.ListExpenses(r.Context(), userID, limit, offset)
	if err != nil {
		return mapLedgerError(err, "Could not retrieve expenses")
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(expenses)
	return nil
}

// UpdateExpense godoc
// @Summary      Amend an expense
// @Description  Updates the enumerated updatable fields of an expense; an amount change re-adjusts the balance by the delta.
// @Tags         expenses
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        expenseId path int true "The expense ID"
// @Param        patch body service.UpdateExpenseRequest true "Sparse patch"
// @Success      200  {object}  model.Expense
// @Failure      404  {object}  common.AppError "Expense or category not found"
// @Router       /api/expenses/{expenseId} [put]
func (h *ExpenseHandler) UpdateExpense(w http.ResponseWriter, r *http.Request) *common.AppError {
	userID, ok := r.Context().Value(UserIDKey).(int)
	if !ok {
		return common.NewAppError(http.StatusUnauthorized, "Invalid user ID in token", nil)
	}

	expenseID, err := strconv.Atoi(r.PathValue("expenseId"))
	if err != nil {
		return common.NewAppError(http.StatusBadRequest, "Invalid expense ID in URL path", err)
	}

	var req service.UpdateExpenseRequest
	if appErr := common.ValidateAndDecode(r, &req); appErr != nil {
		return appErr
	}

	expense, err := h.service.UpdateExpense(r.Context(), userID, expenseID, req)
	if err != nil {
		return mapLedgerError(err, "Could not update expense")
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(expense)
	return nil
}

// DeleteExpense godoc
// @Summary      Delete an expense
// @Description  Removes an expense event and reverses its balance effect.
// @Tags         expenses
// @Security     BearerAuth
// @Param        expenseId path int true "The expense ID"
// @Success      204  "No Content"
// @Failure      404  {object}  common.AppError "Expense not found"
// @Router       /api/expenses/{expenseId} [delete]
func (h *ExpenseHandler) DeleteExpense(w http.ResponseWriter, r *http.Request) *common.AppError {
	userID, ok := r.Context().Value(UserIDKey).(int)
	if !ok {
		return common.NewAppError(http.StatusUnauthorized, "Invalid user ID in token", nil)
	}

	expenseID, err := strconv.Atoi(r.PathValue("expenseId"))
	if err != nil {
		return common.NewAppError(http.StatusBadRequest, "Invalid expense ID in URL path", err)
	}

	if err := h.service.DeleteExpense(r.Context(), userID, expenseID); err != nil {
		return mapLedgerError(err, "Could not delete expense")
	}

	w.WriteHeader(http.StatusNoContent)
	return nil
}
