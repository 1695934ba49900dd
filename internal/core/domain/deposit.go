package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// DepositState is the lifecycle state of a deposit.
type DepositState string

const (
	DepositPending       DepositState = "PENDING"
	DepositSettled       DepositState = "SETTLED"
	DepositCreditBalance DepositState = "CREDIT_BALANCE"
	DepositLinked        DepositState = "LINKED"
	DepositReturned      DepositState = "RETURNED"
)

// HasUsableBalance reports whether the state still carries balance that
// can be settled, used, returned or linked.
func (s DepositState) HasUsableBalance() bool {
	return s == DepositPending || s == DepositCreditBalance
}

// Deposit is a tracked sum of money with its own lifecycle, optionally
// projected into a current account's ledger via linking.
//
// Invariants: 0 <= CurrentBalance <= OriginalAmount at all times, and
// LinkedAccountID != nil iff State == LINKED iff exactly one ledger entry
// references this deposit through its SourceDepositID.
type Deposit struct {
	DepositID        string          `json:"depositID"`                  // Primary Key (UUID)
	OriginalAmount   decimal.Decimal `json:"originalAmount"`             // Immutable business fact (editable by operators, see DepositService)
	CurrentBalance   decimal.Decimal `json:"currentBalance"`             // Remaining usable balance
	EntryDate        time.Time       `json:"entryDate"`                  // Calendar day the deposit was taken
	UsageDate        *time.Time      `json:"usageDate,omitempty"`        // First-use date, sticky once set
	ReturnDate       *time.Time      `json:"returnDate,omitempty"`       // Set on return
	State            DepositState    `json:"state"`                      // Lifecycle state
	UsageType        string          `json:"usageType,omitempty"`        // e.g. CAJA, RENTAS
	UsageDescription string          `json:"usageDescription,omitempty"` // Free-form usage note
	ReturnedAmount   decimal.Decimal `json:"returnedAmount"`             // Balance snapshot taken on return
	Holder           string          `json:"holder"`                     // Who the deposit was taken from
	Notes            string          `json:"notes,omitempty"`
	LinkedAccountID  *string         `json:"linkedAccountID,omitempty"` // Nullable FK -> Account, set while LINKED
	LinkedClientID   *string         `json:"linkedClientID,omitempty"`  // Nullable external client reference
	SourceMovementID *string         `json:"sourceMovementID,omitempty"`
	AuditFields
}
