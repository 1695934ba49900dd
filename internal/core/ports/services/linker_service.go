package services

import (
	"context"

	"github.com/finbooks/caledger/internal/core/domain"
)

// LinkerSvcFacade couples deposits to ledger accounts. Linking mirrors a
// deposit into a credit entry on the target account; unlinking removes the
// mirrored entry and restores the deposit to a usable state. Both sides of
// either operation commit atomically.
type LinkerSvcFacade interface {
	// Link attaches a deposit to an account, appending a credit entry
	// for its current balance.
	Link(ctx context.Context, userID string, depositID string, accountID string, clientID *string) (*domain.Deposit, error)

	// Unlink detaches a deposit from its account, deleting the mirrored
	// entry and recomputing downstream balances.
	Unlink(ctx context.Context, userID string, depositID string) (*domain.Deposit, error)
}
