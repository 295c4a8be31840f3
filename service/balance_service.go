package service

import (
	"context"
	"database/sql"
	"expense-ledger-api/logger"
	"expense-ledger-api/repository"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// BalanceService materializes account balances: the O(1) cached read and
// the full recomputation from event history. It is strictly read-only and
// never takes row locks, so it can run alongside writers.
type BalanceService struct {
	accountRepo  repository.IAccountRepository
	expenseRepo  repository.IExpenseRepository
	transferRepo repository.ITransferRepository
}

func NewBalanceService(accountRepo repository.IAccountRepository, expenseRepo repository.IExpenseRepository, transferRepo repository.ITransferRepository) *BalanceService {
	return &BalanceService{
		accountRepo:  accountRepo,
		expenseRepo:  expenseRepo,
		transferRepo: transferRepo,
	}
}

// BalanceAudit compares the cached balance against the reconciled value.
type BalanceAudit struct {
	AccountID  int             `json:"account_id"`
	Cached     decimal.Decimal `json:"cached_balance"`
	Reconciled decimal.Decimal `json:"reconciled_balance"`
	Drift      decimal.Decimal `json:"drift"`
	Consistent bool            `json:"consistent"`
}

// Reconcile recomputes the balance from scratch: expense credits minus
// debits, plus incoming minus outgoing transfers. Decimal aggregation is
// exact, so the result does not depend on event insertion order.
func (s *BalanceService) Reconcile(ctx context.Context, accountID int) (decimal.Decimal, error) {
	if _, err := s.accountRepo.GetAccountByID(accountID); err != nil {
		if err == sql.ErrNoRows {
			return decimal.Zero, ErrAccountNotFound
		}
		return decimal.Zero, err
	}

	debits, credits, err := s.expenseRepo.SumExpensesByAccountID(accountID)
	if err != nil {
		return decimal.Zero, err
	}

	incoming, outgoing, err := s.transferRepo.SumTransfersByAccountID(accountID)
	if err != nil {
		return decimal.Zero, err
	}

	return credits.Sub(debits).Add(incoming).Sub(outgoing), nil
}

// CachedBalance returns the stored balance column. It is only trustworthy
// because the transfer and expense services are the sole balance writers.
func (s *BalanceService) CachedBalance(ctx context.Context, accountID int) (decimal.Decimal, error) {
	account, err := s.accountRepo.GetAccountByID(accountID)
	if err != nil {
		if err == sql.ErrNoRows {
			return decimal.Zero, ErrAccountNotFound
		}
		return decimal.Zero, err
	}
	return account.Balance, nil
}

// Audit returns both balance views and whether they agree. A drift at a
// quiescent point means a writer bypassed the ledger services.
func (s *BalanceService) Audit(ctx context.Context, accountID int) (*BalanceAudit, error) {
	cached, err := s.CachedBalance(ctx, accountID)
	if err != nil {
		return nil, err
	}

	reconciled, err := s.Reconcile(ctx, accountID)
	if err != nil {
		return nil, err
	}

	audit := &BalanceAudit{
		AccountID:  accountID,
		Cached:     cached,
		Reconciled: reconciled,
		Drift:      cached.Sub(reconciled),
		Consistent: cached.Equal(reconciled),
	}

	if !audit.Consistent {
		logger.Log.WithFields(logrus.Fields{
			"account_id": accountID,
			"cached":     cached.String(),
			"reconciled": reconciled.String(),
		}).Warn("Balance drift detected")
	}

	return audit, nil
}

// AuditAccountForUser resolves the caller's account and audits it.
func (s *BalanceService) AuditAccountForUser(ctx context.Context, userID int) (*BalanceAudit, error) {
	account, err := s.accountRepo.GetAccountByUserID(userID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}
	return s.Audit(ctx, account.ID)
}

// VerifyAll audits every account, for startup repair checks and admin
// audits. It returns only the inconsistent ones.
func (s *BalanceService) VerifyAll(ctx context.Context) ([]*BalanceAudit, error) {
	accounts, err := s.accountRepo.GetAllAccounts()
	if err != nil {
		return nil, err
	}

	var drifted []*BalanceAudit
	for _, account := range accounts {
		audit, err := s.Audit(ctx, account.ID)
		if err != nil {
			return nil, err
		}
		if !audit.Consistent {
			drifted = append(drifted, audit)
		}
	}

	return drifted, nil
}
