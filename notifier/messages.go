package notifier

import (
	"encoding/json"
	"expense-ledger-api/model"
	"time"
)

// TransferMessage tells the delivery worker that a transfer committed.
// It carries only identifiers and the amount; the worker fetches party
// details from the database when rendering the notification.
type TransferMessage struct {
	Kind          string    `json:"kind"`
	TransferID    int       `json:"transfer_id"`
	FromAccountID int       `json:"from_account_id"`
	ToAccountID   int       `json:"to_account_id"`
	Amount        string    `json:"amount"`
	Timestamp     time.Time `json:"timestamp"`
}

func NewTransferMessage(t *model.Transfer) *TransferMessage {
	return &TransferMessage{
		Kind:          "transfer.completed",
		TransferID:    t.ID,
		FromAccountID: t.FromAccountID,
		ToAccountID:   t.ToAccountID,
		Amount:        t.Amount.String(),
		Timestamp:     time.Now(),
	}
}

func (m *TransferMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ExpenseMessage tells the delivery worker that an expense event committed.
type ExpenseMessage struct {
	Kind      string    `json:"kind"`
	ExpenseID int       `json:"expense_id"`
	AccountID int       `json:"account_id"`
	Debit     string    `json:"debit"`
	Credit    string    `json:"credit"`
	Timestamp time.Time `json:"timestamp"`
}

func NewExpenseMessage(e *model.Expense) *ExpenseMessage {
	return &ExpenseMessage{
		Kind:      "expense.recorded",
		ExpenseID: e.ID,
		AccountID: e.AccountID,
		Debit:     e.Debit.String(),
		Credit:    e.Credit.String(),
		Timestamp: time.Now(),
	}
}

func (m *ExpenseMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}
