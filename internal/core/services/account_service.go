package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/finbooks/caledger/internal/apperrors"
	"github.com/finbooks/caledger/internal/core/domain"
	portsrepo "github.com/finbooks/caledger/internal/core/ports/repositories"
	portssvc "github.com/finbooks/caledger/internal/core/ports/services"
	"github.com/finbooks/caledger/internal/middleware"
)

// accountService provides current account operations.
type accountService struct {
	accountRepo portsrepo.AccountRepositoryWithTx
	ledgerRepo  portsrepo.LedgerRepositoryWithTx
}

// NewAccountService creates a new AccountService.
func NewAccountService(accountRepo portsrepo.AccountRepositoryWithTx, ledgerRepo portsrepo.LedgerRepositoryWithTx) portssvc.AccountSvcFacade {
	return &accountService{
		accountRepo: accountRepo,
		ledgerRepo:  ledgerRepo,
	}
}

// Ensure accountService implements the portssvc.AccountSvcFacade interface
var _ portssvc.AccountSvcFacade = (*accountService)(nil)

func validAccountType(t domain.AccountType) bool {
	switch t {
	case domain.Checking, domain.Savings, domain.Cash:
		return true
	}
	return false
}

// CreateAccount creates a new account with a zero balance.
func (s *accountService) CreateAccount(ctx context.Context, userID string, name string, accountType domain.AccountType) (*domain.Account, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: account name is required", apperrors.ErrValidation)
	}
	if !validAccountType(accountType) {
		return nil, fmt.Errorf("%w: unknown account type '%s'", apperrors.ErrValidation, accountType)
	}

	now := time.Now().UTC()
	account := domain.Account{
		AccountID:      uuid.NewString(),
		Name:           name,
		AccountType:    accountType,
		Balance:        decimal.Zero,
		LastSequenceNo: 0,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     userID,
			LastUpdatedAt: now,
			LastUpdatedBy: userID,
		},
	}

	if err := s.accountRepo.SaveAccount(ctx, account); err != nil {
		logger.Error("Failed to save account", slog.String("error", err.Error()), slog.String("account_id", account.AccountID))
		return nil, err
	}

	logger.Info("Account created", slog.String("account_id", account.AccountID), slog.String("name", account.Name))
	return &account, nil
}

// GetAccountByID retrieves a specific account.
func (s *accountService) GetAccountByID(ctx context.Context, accountID string) (*domain.Account, error) {
	return s.accountRepo.FindAccountByID(ctx, accountID)
}

// ListAccounts retrieves a page of accounts.
func (s *accountService) ListAccounts(ctx context.Context, limit int, offset int) ([]domain.Account, error) {
	return s.accountRepo.ListAccounts(ctx, limit, offset)
}

// GetAccountSummary aggregates entry counts and totals for an account.
func (s *accountService) GetAccountSummary(ctx context.Context, accountID string) (*domain.AccountSummary, error) {
	return s.ledgerRepo.GetAccountSummary(ctx, accountID)
}
