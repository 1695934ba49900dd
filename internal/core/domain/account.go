package domain

import (
	"github.com/shopspring/decimal"
)

// AccountType classifies a current account for back-office grouping.
type AccountType string

const (
	Checking AccountType = "CHECKING"
	Savings  AccountType = "SAVINGS"
	Cash     AccountType = "CASH"
)

// Account represents a current account within the core domain.
// Balance is a derived cache: it always equals the resulting balance of
// the chronologically last ledger entry and is never authoritative.
type Account struct {
	AccountID      string          `json:"accountID"`      // Primary Key (UUID)
	Name           string          `json:"name"`           // User-defined name
	AccountType    AccountType     `json:"accountType"`    // CHECKING, SAVINGS, CASH
	Balance        decimal.Decimal `json:"balance"`        // Cached current balance, maintained by the recompute pass
	LastSequenceNo int64           `json:"lastSequenceNo"` // Monotonic per-account entry counter, same-day ordering tiebreak
	AuditFields
}

// AccountSummary aggregates an account's ledger for the read surface.
type AccountSummary struct {
	AccountID    string          `json:"accountID"`
	EntryCount   int64           `json:"entryCount"`
	TotalCredits decimal.Decimal `json:"totalCredits"`
	TotalDebits  decimal.Decimal `json:"totalDebits"`
	Balance      decimal.Decimal `json:"balance"`
}
