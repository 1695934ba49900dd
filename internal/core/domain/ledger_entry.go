package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// EntryDirection indicates whether a ledger entry credits or debits its account.
type EntryDirection string

const (
	Credit EntryDirection = "CREDIT"
	Debit  EntryDirection = "DEBIT"
)

// LedgerEntry is one dated posting against an account.
//
// Entries of one account are totally ordered by (EntryDate, SequenceNo).
// ResultingBalance is the cached running total after applying this entry
// under that order, with balance 0 before the first entry. Every mutation
// that can invalidate it funnels through the recompute pass.
type LedgerEntry struct {
	EntryID          string          `json:"entryID"`                   // Primary Key (UUID)
	AccountID        string          `json:"accountID"`                 // FK -> Account.accountID (Not Null)
	EntryDate        time.Time       `json:"entryDate"`                 // Calendar day, no time component
	Direction        EntryDirection  `json:"direction"`                 // CREDIT or DEBIT (Not Null)
	Label            string          `json:"label"`                     // User-facing description
	Amount           decimal.Decimal `json:"amount"`                    // Positive value
	ResultingBalance decimal.Decimal `json:"resultingBalance"`          // Signed running total after this entry
	SequenceNo       int64           `json:"sequenceNo"`                // Per-account monotonic tiebreak
	SourceDepositID  *string         `json:"sourceDepositID,omitempty"` // Nullable FK -> Deposit, set on linker-created entries
	AuditFields
}
