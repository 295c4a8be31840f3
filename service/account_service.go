// file: service/account_service.go

package service

import (
	"context"
	"database/sql"
	"expense-ledger-api/model"
	"expense-ledger-api/repository"
	"math/big"

	"github.com/google/uuid"
)

// AccountService covers account lifecycle and reads. Balance writes live
// exclusively in the transfer and expense services.
type AccountService struct {
	repo repository.IAccountRepository
}

func NewAccountService(repo repository.IAccountRepository) *AccountService {
	return &AccountService{repo: repo}
}

// accountNumberLen is the length of the external transfer address.
const accountNumberLen = 20

// newAccountNumber derives a 20-digit decimal address from a v4 UUID's
// integer form.
func newAccountNumber() string {
	u := uuid.New()
	digits := new(big.Int).SetBytes(u[:]).String()
	for len(digits) < accountNumberLen {
		digits = "0" + digits
	}
	return digits[:accountNumberLen]
}

// CreateAccountForUser creates the user's account inside the caller's
// transaction, so registration commits the user and the account together.
func (s *AccountService) CreateAccountForUser(tx *sql.Tx, userID int) (*model.Account, error) {
	account := &model.Account{
		UserID:        userID,
		AccountNumber: newAccountNumber(),
	}
	if err := s.repo.CreateAccount(tx, account); err != nil {
		return nil, err
	}
	return account, nil
}

// GetAccountForUser returns the caller's account with its cached balance.
// Always a fresh read: the balance column is the ledger's live projection.
func (s *AccountService) GetAccountForUser(ctx context.Context, userID int) (*model.Account, error) {
	account, err := s.repo.GetAccountByUserID(userID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}
	return account, nil
}

// GetAllAccounts retrieves all accounts. Admin data needs to be fresh, so
// no caching is applied here.
func (s *AccountService) GetAllAccounts(ctx context.Context) ([]*model.Account, error) {
	return s.repo.GetAllAccounts()
}
