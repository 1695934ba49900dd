package repositories

import (
	"context"
	"time"

	"github.com/finbooks/caledger/internal/core/domain"
	"github.com/jackc/pgx/v5"
)

// ListDepositsFilter narrows a deposit listing. Nil fields are ignored.
type ListDepositsFilter struct {
	State           *domain.DepositState
	LinkedAccountID *string
	FromDate        *time.Time
	ToDate          *time.Time
}

// DepositReader defines read operations for deposit data
type DepositReader interface {
	// FindDepositByID retrieves a specific deposit by its unique identifier.
	FindDepositByID(ctx context.Context, depositID string) (*domain.Deposit, error)

	// ListDeposits retrieves a filtered, token-paginated page of deposits,
	// most recent entry date first.
	ListDeposits(ctx context.Context, filter ListDepositsFilter, limit int, nextToken *string) ([]domain.Deposit, *string, error)
}

// DepositWriter defines write operations for deposit data
type DepositWriter interface {
	// SaveDeposit persists a new deposit.
	SaveDeposit(ctx context.Context, deposit domain.Deposit) error

	// UpdateDeposit persists the deposit's mutable fields.
	UpdateDeposit(ctx context.Context, deposit domain.Deposit) error

	// DeleteDeposit removes the deposit row.
	DeleteDeposit(ctx context.Context, depositID string) error
}

// DepositTxOps exposes tx-scoped variants for compound operations that
// must share one transaction with ledger rows.
type DepositTxOps interface {
	// FindDepositByIDForUpdate retrieves a deposit and locks its row.
	// Must be called within a transaction.
	FindDepositByIDForUpdate(ctx context.Context, tx pgx.Tx, depositID string) (*domain.Deposit, error)

	UpdateDepositInTx(ctx context.Context, tx pgx.Tx, deposit domain.Deposit) error
	DeleteDepositInTx(ctx context.Context, tx pgx.Tx, depositID string) error
}

// DepositRepositoryFacade combines all deposit repository interfaces
type DepositRepositoryFacade interface {
	DepositReader
	DepositWriter
}

// DepositRepositoryWithTx extends DepositRepositoryFacade with transaction capabilities
type DepositRepositoryWithTx interface {
	DepositRepositoryFacade
	DepositTxOps
	TransactionManager
}
