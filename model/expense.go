package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Expense is a single-account ledger event. Exactly one of Debit and
// Credit is nonzero: a debit lowers the account balance, a credit raises
// it (the legacy manually-entered-income path).
type Expense struct {
	ID          int             `json:"id"`
	AccountID   int             `json:"account_id"`
	CategoryID  *int            `json:"category_id,omitempty"`
	Debit       decimal.Decimal `json:"debit"`
	Credit      decimal.Decimal `json:"credit"`
	Description string          `json:"description"`
	CreatedAt   time.Time       `json:"created_at"`
}
