package repository

import (
	"database/sql"
	"expense-ledger-api/logger"
	"expense-ledger-api/model"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// ITransferRepository defines the contract for transfer event database
// operations. CreateTransfer takes a *sql.Tx because the event and both
// balance updates must commit as one unit.
type ITransferRepository interface {
	CreateTransfer(tx *sql.Tx, transfer *model.Transfer) error
	GetTransfersByAccountID(accountID int) ([]*model.Transfer, error)
	SumTransfersByAccountID(accountID int) (incoming, outgoing decimal.Decimal, err error)
	SumTransfersForMonth(accountID int, year int, month time.Month) (decimal.Decimal, error)
}

// TransferRepository implements ITransferRepository.
type TransferRepository struct {
	DB *sql.DB
}

func NewTransferRepository(db *sql.DB) *TransferRepository {
	return &TransferRepository{DB: db}
}

func (r *TransferRepository) CreateTransfer(tx *sql.Tx, transfer *model.Transfer) error {
	log := logger.Log.WithFields(logrus.Fields{
		"from_account_id": transfer.FromAccountID,
		"to_account_id":   transfer.ToAccountID,
		"amount":          transfer.Amount.String(),
	})
	log.Info("Executing query to create a new transfer")

	query := `INSERT INTO transfers (from_account_id, to_account_id, amount, description) VALUES ($1, $2, $3, $4) RETURNING id, created_at`
	err := tx.QueryRow(query, transfer.FromAccountID, transfer.ToAccountID, transfer.Amount, transfer.Description).Scan(&transfer.ID, &transfer.CreatedAt)
	if err != nil {
		log.WithError(err).Error("Failed to execute create transfer query")
		return err
	}
	return nil
}

// GetTransfersByAccountID retrieves all transfers touching a specific account.
func (r *TransferRepository) GetTransfersByAccountID(accountID int) ([]*model.Transfer, error) {
	log := logger.Log.WithField("account_id", accountID)
	log.Info("Executing query to get transfers by account ID")

	query := `
		SELECT id, from_account_id, to_account_id, amount, description, created_at
		FROM transfers
		WHERE from_account_id = $1 OR to_account_id = $1
		ORDER BY created_at DESC`

	rows, err := r.DB.Query(query, accountID)
	if err != nil {
		log.WithError(err).Error("Failed to execute query for transfers by account ID")
		return nil, err
	}
	defer rows.Close()

	var transfers []*model.Transfer
	for rows.Next() {
		var t model.Transfer
		if err := rows.Scan(&t.ID, &t.FromAccountID, &t.ToAccountID, &t.Amount, &t.Description, &t.CreatedAt); err != nil {
			log.WithError(err).Error("Failed to scan transfer row")
			return nil, err
		}
		transfers = append(transfers, &t)
	}

	return transfers, nil
}

// SumTransfersByAccountID aggregates the full transfer history of an
// account into incoming and outgoing totals.
func (r *TransferRepository) SumTransfersByAccountID(accountID int) (decimal.Decimal, decimal.Decimal, error) {
	var incoming, outgoing decimal.Decimal
	query := `
		SELECT
			COALESCE(SUM(amount) FILTER (WHERE to_account_id = $1), 0),
			COALESCE(SUM(amount) FILTER (WHERE from_account_id = $1), 0)
		FROM transfers
		WHERE from_account_id = $1 OR to_account_id = $1`
	err := r.DB.QueryRow(query, accountID).Scan(&incoming, &outgoing)
	if err != nil {
		logger.Log.WithError(err).WithField("account_id", accountID).Error("Failed to execute sum transfers query")
		return decimal.Zero, decimal.Zero, err
	}
	return incoming, outgoing, nil
}

// SumTransfersForMonth totals transfer volume touching the account for a
// calendar month, for reporting.
func (r *TransferRepository) SumTransfersForMonth(accountID int, year int, month time.Month) (decimal.Decimal, error) {
	var total decimal.Decimal
	query := `
		SELECT COALESCE(SUM(amount), 0) FROM transfers
		WHERE (from_account_id = $1 OR to_account_id = $1)
		AND EXTRACT(YEAR FROM created_at) = $2
		AND EXTRACT(MONTH FROM created_at) = $3`
	err := r.DB.QueryRow(query, accountID, year, int(month)).Scan(&total)
	if err != nil {
		logger.Log.WithError(err).WithField("account_id", accountID).Error("Failed to execute monthly transfer sum query")
		return decimal.Zero, err
	}
	return total, nil
}
