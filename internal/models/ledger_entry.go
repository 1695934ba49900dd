package models

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

// LedgerEntry represents one dated posting row against an account.
type LedgerEntry struct {
	EntryID          string          `db:"entry_id"`
	AccountID        string          `db:"account_id"`
	EntryDate        time.Time       `db:"entry_date"`
	Direction        EntryDirection  `db:"direction"`
	Label            string          `db:"label"`
	Amount           decimal.Decimal `db:"amount"`
	ResultingBalance decimal.Decimal `db:"resulting_balance"`
	SequenceNo       int64           `db:"sequence_no"`
	SourceDepositID  *string         `db:"source_deposit_id"` // Nullable
	AuditFields
}
