package services

import (
	"context"
	"time"

	"github.com/finbooks/caledger/internal/core/domain"
	"github.com/finbooks/caledger/internal/core/ports/repositories"
	"github.com/shopspring/decimal"
)

// CreateDepositInput carries the caller-supplied fields for a new deposit.
type CreateDepositInput struct {
	OriginalAmount   decimal.Decimal
	EntryDate        time.Time
	Holder           string
	Notes            string
	SourceMovementID *string
	// SourceMovementAmount, when present, is reconciled against
	// OriginalAmount within the importer tolerance.
	SourceMovementAmount *decimal.Decimal
}

// UpdateDepositInput carries the editable descriptive fields of a deposit.
// Nil fields are left unchanged.
type UpdateDepositInput struct {
	OriginalAmount *decimal.Decimal
	EntryDate      *time.Time
	Holder         *string
	Notes          *string
}

// UseBalanceInput describes a partial or total consumption of a
// deposit's remaining balance.
type UseBalanceInput struct {
	Amount           decimal.Decimal
	UsageDate        time.Time
	UsageType        string
	UsageDescription string
}

// DepositReaderSvc defines read-related deposit operations
type DepositReaderSvc interface {
	// GetDepositByID retrieves a specific deposit.
	GetDepositByID(ctx context.Context, depositID string) (*domain.Deposit, error)

	// ListDeposits retrieves a filtered, token-paginated page of deposits.
	ListDeposits(ctx context.Context, filter repositories.ListDepositsFilter, limit int, nextToken *string) ([]domain.Deposit, *string, error)
}

// DepositWriterSvc defines write-related deposit operations
type DepositWriterSvc interface {
	// CreateDeposit registers a new deposit in PENDING state.
	CreateDeposit(ctx context.Context, userID string, input CreateDepositInput) (*domain.Deposit, error)

	// UpdateDeposit edits a deposit's descriptive fields. Changing the
	// original amount of a LINKED deposit also updates its paired
	// ledger entry and recomputes the account's balances.
	UpdateDeposit(ctx context.Context, userID string, depositID string, input UpdateDepositInput) (*domain.Deposit, error)

	// DeleteDeposit removes a deposit. A LINKED deposit's mirrored
	// ledger entry is removed first, in the same transaction.
	DeleteDeposit(ctx context.Context, userID string, depositID string) error

	// Settle marks a deposit fully consumed on the given usage date,
	// dropping its balance to zero.
	Settle(ctx context.Context, userID string, depositID string, usageDate time.Time) (*domain.Deposit, error)

	// MarkCreditBalance flags a deposit as holding the given usable
	// remaining balance, which must stay within the original amount.
	MarkCreditBalance(ctx context.Context, userID string, depositID string, remainingAmount decimal.Decimal) (*domain.Deposit, error)

	// UseBalance consumes part of a deposit's balance; the deposit
	// settles when the balance reaches zero.
	UseBalance(ctx context.Context, userID string, depositID string, input UseBalanceInput) (*domain.Deposit, error)

	// Return records the deposit as sent back to its holder, snapshotting
	// the remaining balance as the returned amount.
	Return(ctx context.Context, userID string, depositID string, returnDate time.Time) (*domain.Deposit, error)
}

// DepositSvcFacade combines all deposit service interfaces
type DepositSvcFacade interface {
	DepositReaderSvc
	DepositWriterSvc
}
