// file: service/report_service.go

package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"expense-ledger-api/model"
	"expense-ledger-api/repository"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// ReportService is a read-only consumer of the event store. It never
// writes balances and tolerates slightly stale data, so its summaries are
// served cache-aside with a short TTL.
type ReportService struct {
	accountRepo  repository.IAccountRepository
	expenseRepo  repository.IExpenseRepository
	transferRepo repository.ITransferRepository
	cache        ICacheClient
}

func NewReportService(accountRepo repository.IAccountRepository, expenseRepo repository.IExpenseRepository, transferRepo repository.ITransferRepository, cache ICacheClient) *ReportService {
	return &ReportService{
		accountRepo:  accountRepo,
		expenseRepo:  expenseRepo,
		transferRepo: transferRepo,
		cache:        cache,
	}
}

const recentActivityLimit = 5

// MonthlySummary aggregates the current calendar month plus recent activity.
type MonthlySummary struct {
	AccountID        int               `json:"account_id"`
	Year             int               `json:"year"`
	Month            int               `json:"month"`
	TotalDebits      decimal.Decimal   `json:"total_debits"`
	TransferVolume   decimal.Decimal   `json:"transfer_volume"`
	RecentExpenses   []*model.Expense  `json:"recent_expenses"`
	RecentTransfers  []*model.Transfer `json:"recent_transfers"`
	GeneratedAt      time.Time         `json:"generated_at"`
}

// GetMonthlySummary builds the caller's current-month report.
func (s *ReportService) GetMonthlySummary(ctx context.Context, userID int) (*MonthlySummary, error) {
	account, err := s.accountRepo.GetAccountByUserID(userID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}

	now := time.Now()
	cacheKey := fmt.Sprintf("report:%d:%04d-%02d", account.ID, now.Year(), int(now.Month()))

	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, cacheKey).Result(); err == nil {
			var summary MonthlySummary
			if err := json.Unmarshal([]byte(cached), &summary); err == nil {
				return &summary, nil
			}
		}
	}

	totalDebits, err := s.expenseRepo.SumDebitsForMonth(account.ID, now.Year(), now.Month())
	if err != nil {
		return nil, err
	}

	transferVolume, err := s.transferRepo.SumTransfersForMonth(account.ID, now.Year(), now.Month())
	if err != nil {
		return nil, err
	}

	recentExpenses, err := s.expenseRepo.ListExpensesByAccountID(account.ID, recentActivityLimit, 0)
	if err != nil {
		return nil, err
	}

	transfers, err := s.transferRepo.GetTransfersByAccountID(account.ID)
	if err != nil {
		return nil, err
	}
	if len(transfers) > recentActivityLimit {
		transfers = transfers[:recentActivityLimit]
	}

	summary := &MonthlySummary{
		AccountID:       account.ID,
		Year:            now.Year(),
		Month:           int(now.Month()),
		TotalDebits:     totalDebits,
		TransferVolume:  transferVolume,
		RecentExpenses:  recentExpenses,
		RecentTransfers: transfers,
		GeneratedAt:     now,
	}

	if s.cache != nil {
		if data, err := json.Marshal(summary); err == nil {
			s.cache.Set(ctx, cacheKey, data, 5*time.Minute)
		}
	}

	return summary, nil
}
