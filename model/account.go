package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Account holds a user's money. Balance is a cached projection of the
// event history; only the ledger services may write it.
type Account struct {
	ID            int             `json:"id"`
	UserID        int             `json:"user_id"`
	AccountNumber string          `json:"account_number"`
	Balance       decimal.Decimal `json:"balance"`
	CreatedAt     time.Time       `json:"created_at"`
}
