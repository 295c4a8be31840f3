package repository

import (
	"database/sql"
	"expense-ledger-api/logger"
	"expense-ledger-api/model"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// IAccountRepository defines the contract for account database operations.
// Methods taking *sql.Tx participate in a caller-owned transaction; the
// ledger services rely on this to keep the balance check and the balance
// write inside one atomic scope.
type IAccountRepository interface {
	CreateAccount(tx *sql.Tx, account *model.Account) error
	GetAccountByID(accountID int) (*model.Account, error)
	GetAccountByUserID(userID int) (*model.Account, error)
	ResolveAccountNumber(tx *sql.Tx, accountNumber string) (int, error)
	GetAccountForUpdate(tx *sql.Tx, accountID int) (*model.Account, error)
	UpdateAccountBalance(tx *sql.Tx, accountID int, newBalance decimal.Decimal) error
	GetAllAccounts() ([]*model.Account, error)
}

// AccountRepository implements IAccountRepository.
type AccountRepository struct {
	DB *sql.DB
}

func NewAccountRepository(db *sql.DB) *AccountRepository {
	return &AccountRepository{DB: db}
}

// CreateAccount adds a new account inside the given transaction, so user
// registration can create the user and their account atomically.
func (r *AccountRepository) CreateAccount(tx *sql.Tx, account *model.Account) error {
	log := logger.Log.WithFields(logrus.Fields{
		"user_id":        account.UserID,
		"account_number": account.AccountNumber,
	})
	log.Info("Executing query to create a new account")

	query := `INSERT INTO accounts (user_id, account_number) VALUES ($1, $2) RETURNING id, balance, created_at`
	err := tx.QueryRow(query, account.UserID, account.AccountNumber).Scan(&account.ID, &account.Balance, &account.CreatedAt)
	if err != nil {
		log.WithError(err).Error("Failed to execute create account query")
		return err
	}
	return nil
}

// GetAccountByID retrieves a single account without locking it.
func (r *AccountRepository) GetAccountByID(accountID int) (*model.Account, error) {
	account := &model.Account{}
	query := `SELECT id, user_id, account_number, balance, created_at FROM accounts WHERE id = $1`
	err := r.DB.QueryRow(query, accountID).Scan(&account.ID, &account.UserID, &account.AccountNumber, &account.Balance, &account.CreatedAt)
	if err != nil {
		if err != sql.ErrNoRows {
			logger.Log.WithError(err).WithField("account_id", accountID).Error("Failed to execute get account by ID query")
		}
		return nil, err
	}
	return account, nil
}

// GetAccountByUserID retrieves the account owned by a specific user.
func (r *AccountRepository) GetAccountByUserID(userID int) (*model.Account, error) {
	account := &model.Account{}
	query := `SELECT id, user_id, account_number, balance, created_at FROM accounts WHERE user_id = $1`
	err := r.DB.QueryRow(query, userID).Scan(&account.ID, &account.UserID, &account.AccountNumber, &account.Balance, &account.CreatedAt)
	if err != nil {
		if err != sql.ErrNoRows {
			logger.Log.WithError(err).WithField("user_id", userID).Error("Failed to execute get account by user ID query")
		}
		return nil, err
	}
	return account, nil
}

// ResolveAccountNumber maps an external account number to an account ID
// inside the transaction, without taking a row lock.
func (r *AccountRepository) ResolveAccountNumber(tx *sql.Tx, accountNumber string) (int, error) {
	var accountID int
	query := `SELECT id FROM accounts WHERE account_number = $1`
	err := tx.QueryRow(query, accountNumber).Scan(&accountID)
	if err != nil {
		if err == sql.ErrNoRows {
			logger.Log.WithField("account_number", accountNumber).Info("Account number did not resolve")
		} else {
			logger.Log.WithError(err).Error("Failed to execute resolve account number query")
		}
		return 0, err
	}
	return accountID, nil
}

// GetAccountForUpdate locks the account row for the remainder of the
// transaction and returns a fresh read of its balance.
func (r *AccountRepository) GetAccountForUpdate(tx *sql.Tx, accountID int) (*model.Account, error) {
	log := logger.Log.WithField("account_id", accountID)
	log.Info("Executing query to get account for update")

	account := &model.Account{}
	query := `SELECT id, user_id, account_number, balance FROM accounts WHERE id = $1 FOR UPDATE`
	err := tx.QueryRow(query, accountID).Scan(&account.ID, &account.UserID, &account.AccountNumber, &account.Balance)
	if err != nil {
		if err == sql.ErrNoRows {
			log.Info("Account not found for update")
		} else {
			log.WithError(err).Error("Failed to execute get account for update query")
		}
		return nil, err
	}
	return account, nil
}

// UpdateAccountBalance writes the new cached balance inside the transaction.
func (r *AccountRepository) UpdateAccountBalance(tx *sql.Tx, accountID int, newBalance decimal.Decimal) error {
	log := logger.Log.WithFields(logrus.Fields{
		"account_id":  accountID,
		"new_balance": newBalance.String(),
	})
	log.Info("Executing query to update account balance")

	query := `UPDATE accounts SET balance = $1 WHERE id = $2`
	_, err := tx.Exec(query, newBalance, accountID)
	if err != nil {
		log.WithError(err).Error("Failed to execute update account balance query")
		return err
	}
	return nil
}

// GetAllAccounts retrieves all accounts from the database. For admin use only.
func (r *AccountRepository) GetAllAccounts() ([]*model.Account, error) {
	log := logger.Log
	log.Info("Executing query to get all accounts")

	query := `SELECT id, user_id, account_number, balance, created_at FROM accounts`
	rows, err := r.DB.Query(query)
	if err != nil {
		log.WithError(err).Error("Failed to execute query for all accounts")
		return nil, err
	}
	defer rows.Close()

	var accounts []*model.Account
	for rows.Next() {
		var acc model.Account
		if err := rows.Scan(&acc.ID, &acc.UserID, &acc.AccountNumber, &acc.Balance, &acc.CreatedAt); err != nil {
			log.WithError(err).Error("Failed to scan account row")
			return nil, err
		}
		accounts = append(accounts, &acc)
	}
	return accounts, nil
}
