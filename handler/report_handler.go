package handler

import (
	"encoding/json"
	"expense-ledger-api/common"
	"expense-ledger-api/service"
	"net/http"
)

type ReportHandler struct {
	service *service.ReportService
}

func NewReportHandler(s *service.ReportService) *ReportHandler {
	return &ReportHandler{service: s}
}

// GetMonthlySummary godoc
// @Summary      Current-month spending summary
// @Description  Returns month-to-date debit and transfer totals plus recent activity. May be served from cache.
// @Tags         reports
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  service.MonthlySummary
// @Failure      404  {object}  common.AppError "Account not found"
// @Router       /api/reports/monthly [get]
func (h *ReportHandler) GetMonthlySummary(w http.ResponseWriter, r *http.Request) *common.AppError {
	userID, ok := r.Context().Value(UserIDKey).(int)
	if !ok {
		return common.NewAppError(http.StatusUnauthorized, "Invalid user ID in token", nil)
	}

	summary, err := h.service.GetMonthlySummary(r.Context(), userID)
	if err != nil {
		return mapLedgerError(err, "Could not build report")
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(summary)
	return nil
}
