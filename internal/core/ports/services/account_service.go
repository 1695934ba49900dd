package services

import (
	"context"

	"github.com/finbooks/caledger/internal/core/domain"
)

// AccountReaderSvc defines read-related account operations
type AccountReaderSvc interface {
	// GetAccountByID retrieves a specific account by its ID.
	GetAccountByID(ctx context.Context, accountID string) (*domain.Account, error)

	// ListAccounts retrieves a page of accounts.
	ListAccounts(ctx context.Context, limit int, offset int) ([]domain.Account, error)

	// GetAccountSummary aggregates entry counts and totals for an account.
	GetAccountSummary(ctx context.Context, accountID string) (*domain.AccountSummary, error)
}

// AccountWriterSvc defines write-related account operations
type AccountWriterSvc interface {
	// CreateAccount creates a new account with a zero balance.
	CreateAccount(ctx context.Context, userID string, name string, accountType domain.AccountType) (*domain.Account, error)
}

// AccountSvcFacade combines all account service interfaces
type AccountSvcFacade interface {
	AccountReaderSvc
	AccountWriterSvc
}
