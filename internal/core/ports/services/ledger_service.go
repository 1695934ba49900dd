package services

import (
	"context"
	"time"

	"github.com/finbooks/caledger/internal/core/domain"
	"github.com/finbooks/caledger/internal/core/ports/repositories"
	"github.com/shopspring/decimal"
)

// CreateEntryInput carries the caller-supplied fields for a new ledger entry.
type CreateEntryInput struct {
	AccountID string
	EntryDate time.Time
	Direction domain.EntryDirection
	Label     string
	Amount    decimal.Decimal
}

// UpdateEntryInput carries the editable fields of an existing entry.
// Nil fields are left unchanged.
type UpdateEntryInput struct {
	Label     *string
	Amount    *decimal.Decimal
	Direction *domain.EntryDirection
	EntryDate *time.Time
}

// LedgerReaderSvc defines read-related ledger operations
type LedgerReaderSvc interface {
	// GetEntryByID retrieves a specific ledger entry.
	GetEntryByID(ctx context.Context, entryID string) (*domain.LedgerEntry, error)

	// ListEntries retrieves a filtered, token-paginated page of an
	// account's entries, most recent first.
	ListEntries(ctx context.Context, accountID string, filter repositories.ListEntriesFilter, limit int, nextToken *string) ([]domain.LedgerEntry, *string, error)
}

// LedgerWriterSvc defines write-related ledger operations
type LedgerWriterSvc interface {
	// CreateEntry appends a manual entry and returns it with its
	// sequence number and resulting balance populated.
	CreateEntry(ctx context.Context, userID string, input CreateEntryInput) (*domain.LedgerEntry, error)

	// UpdateEntry edits an entry. Label-only edits skip recomputation;
	// amount, direction or date edits recompute downstream balances.
	UpdateEntry(ctx context.Context, userID string, entryID string, input UpdateEntryInput) (*domain.LedgerEntry, error)

	// DeleteEntry removes an entry and recomputes downstream balances.
	// Entries paired to a linked deposit cannot be deleted directly.
	DeleteEntry(ctx context.Context, userID string, entryID string) error

	// ClearAccount removes every entry of an account and resets its balance.
	ClearAccount(ctx context.Context, userID string, accountID string) error

	// RecomputeAccount rebuilds every resulting balance of an account
	// from scratch and refreshes the cached balance.
	RecomputeAccount(ctx context.Context, userID string, accountID string) error
}

// LedgerSvcFacade combines all ledger service interfaces
type LedgerSvcFacade interface {
	LedgerReaderSvc
	LedgerWriterSvc
}
