package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// DepositState is the lifecycle state of a deposit row.
type DepositState string

const (
	DepositPending       DepositState = "PENDING"
	DepositSettled       DepositState = "SETTLED"
	DepositCreditBalance DepositState = "CREDIT_BALANCE"
	DepositLinked        DepositState = "LINKED"
	DepositReturned      DepositState = "RETURNED"
)

// Deposit represents a deposit row.
type Deposit struct {
	DepositID        string          `db:"deposit_id"`
	OriginalAmount   decimal.Decimal `db:"original_amount"`
	CurrentBalance   decimal.Decimal `db:"current_balance"`
	EntryDate        time.Time       `db:"entry_date"`
	UsageDate        *time.Time      `db:"usage_date"`  // Nullable
	ReturnDate       *time.Time      `db:"return_date"` // Nullable
	State            DepositState    `db:"state"`
	UsageType        string          `db:"usage_type"`
	UsageDescription string          `db:"usage_description"`
	ReturnedAmount   decimal.Decimal `db:"returned_amount"`
	Holder           string          `db:"holder"`
	Notes            string          `db:"notes"`
	LinkedAccountID  *string         `db:"linked_account_id"`  // Nullable
	LinkedClientID   *string         `db:"linked_client_id"`   // Nullable
	SourceMovementID *string         `db:"source_movement_id"` // Nullable
	AuditFields
}
