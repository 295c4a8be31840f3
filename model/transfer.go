package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transfer is an immutable record of money moving between two distinct
// accounts, written atomically with both balance updates.
type Transfer struct {
	ID            int             `json:"id"`
	FromAccountID int             `json:"from_account_id"`
	ToAccountID   int             `json:"to_account_id"`
	Amount        decimal.Decimal `json:"amount"`
	Description   string          `json:"description"`
	CreatedAt     time.Time       `json:"created_at"`
}
