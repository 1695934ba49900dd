package models

import (
	"github.com/shopspring/decimal"
)

// AccountType classifies a current account.
type AccountType string

const (
	Checking AccountType = "CHECKING"
	Savings  AccountType = "SAVINGS"
	Cash     AccountType = "CASH"
)

// Account represents a current account row.
// Balance is the persisted cache maintained by the recompute pass;
// LastSequenceNo hands out same-day ordering tiebreaks for new entries.
type Account struct {
	AccountID      string          `db:"account_id"`
	Name           string          `db:"name"`
	AccountType    AccountType     `db:"account_type"`
	Balance        decimal.Decimal `db:"balance"`
	LastSequenceNo int64           `db:"last_sequence_no"`
	AuditFields                    // Embed common audit fields
}
