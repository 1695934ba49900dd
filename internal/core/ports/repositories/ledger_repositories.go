package repositories

import (
	"context"
	"time"

	"github.com/finbooks/caledger/internal/core/domain"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// ListEntriesFilter narrows a ledger listing by date range and direction.
// Nil fields are ignored.
type ListEntriesFilter struct {
	FromDate  *time.Time
	ToDate    *time.Time
	Direction *domain.EntryDirection
}

// LedgerReader defines read operations over ledger entries.
type LedgerReader interface {
	// FindEntryByID retrieves a specific entry by its unique identifier.
	FindEntryByID(ctx context.Context, entryID string) (*domain.LedgerEntry, error)

	// FindEntryBySourceDeposit retrieves the single entry whose
	// source_deposit_id references the given deposit, if any.
	FindEntryBySourceDeposit(ctx context.Context, depositID string) (*domain.LedgerEntry, error)

	// ListEntriesByAccount retrieves a filtered, token-paginated page of an
	// account's entries, most recent first. Returns the entries and a token
	// for the next page.
	ListEntriesByAccount(ctx context.Context, accountID string, filter ListEntriesFilter, limit int, nextToken *string) ([]domain.LedgerEntry, *string, error)

	// GetAccountSummary aggregates entry count, credit/debit totals and the
	// cached balance for one account.
	GetAccountSummary(ctx context.Context, accountID string) (*domain.AccountSummary, error)
}

// LedgerWriter defines the mutating ledger operations. Every method runs
// in one transaction and finishes through the recompute pass before
// returning, so resulting balances and the account's cached balance are
// never observed stale.
type LedgerWriter interface {
	// AppendEntry inserts the entry with the account's next sequence
	// number, recomputes from the entry's date, and returns the entry with
	// its final resulting balance.
	AppendEntry(ctx context.Context, entry domain.LedgerEntry) (*domain.LedgerEntry, error)

	// UpdateEntryLabel mutates the label in place. Cheap path: no recompute.
	UpdateEntryLabel(ctx context.Context, entryID string, label string, userID string, now time.Time) error

	// UpdateEntry persists new amount/date/label for the entry, then fully
	// recomputes the account (a date change can reorder the sequence).
	UpdateEntry(ctx context.Context, entry domain.LedgerEntry) error

	// DeleteEntry removes the entry and recomputes from its former date.
	// Returns the deleted entry.
	DeleteEntry(ctx context.Context, entryID string) (*domain.LedgerEntry, error)

	// ClearAccount deletes all entries of the account and resets the
	// cached balance to zero.
	ClearAccount(ctx context.Context, accountID string, userID string, now time.Time) error

	// RecomputeFrom re-derives resulting balances for entries dated on or
	// after fromDate and refreshes the account's cached balance.
	RecomputeFrom(ctx context.Context, accountID string, fromDate time.Time, userID string, now time.Time) error

	// RecomputeAll re-derives the whole ledger from a zero baseline.
	// Exposed to operators as a repair action.
	RecomputeAll(ctx context.Context, accountID string, userID string, now time.Time) error
}

// LedgerTxWriter exposes tx-scoped variants for compound operations
// (deposit linking) that must share one transaction with deposit rows.
type LedgerTxWriter interface {
	AppendEntryInTx(ctx context.Context, tx pgx.Tx, entry domain.LedgerEntry) (*domain.LedgerEntry, error)
	DeleteEntryInTx(ctx context.Context, tx pgx.Tx, entryID string) (*domain.LedgerEntry, error)
	FindEntryBySourceDepositInTx(ctx context.Context, tx pgx.Tx, depositID string) (*domain.LedgerEntry, error)

	// UpdateEntryAmountInTx rewrites the entry's amount and fully
	// recomputes the owning account, inside the caller's transaction.
	UpdateEntryAmountInTx(ctx context.Context, tx pgx.Tx, entryID string, amount decimal.Decimal, userID string, now time.Time) error
}

// LedgerRepositoryFacade combines all ledger repository interfaces
type LedgerRepositoryFacade interface {
	LedgerReader
	LedgerWriter
}

// LedgerRepositoryWithTx extends LedgerRepositoryFacade with transaction capabilities
type LedgerRepositoryWithTx interface {
	LedgerRepositoryFacade
	LedgerTxWriter
	TransactionManager
}
