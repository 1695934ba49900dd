package services

import (
	"context"
	"errors"
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
	"github.com/finbooks/caledger/internal/utils/accounting"
)

var (
	ErrAmountNotPositive = errors.New("entry amount must be strictly positive")
	ErrLabelMissing      = errors.New("entry label is required")
	ErrEntryDepositBound = errors.New("entry mirrors a linked deposit and must be changed through it")
)

// ledgerService provides ledger entry operations over one account's
// ordered entry sequence.
type ledgerService struct {
	ledgerRepo  portsrepo.LedgerRepositoryWithTx
	accountRepo portsrepo.AccountRepositoryWithTx
	locks       *AccountLocks
}

// NewLedgerService creates a new LedgerService. The lock registry is
// shared with every other service that mutates the same accounts.
func NewLedgerService(ledgerRepo portsrepo.LedgerRepositoryWithTx, accountRepo portsrepo.AccountRepositoryWithTx, locks *AccountLocks) portssvc.LedgerSvcFacade {
	return &ledgerService{
		ledgerRepo:  ledgerRepo,
		accountRepo: accountRepo,
		locks:       locks,
	}
}

// Ensure ledgerService implements the portssvc.LedgerSvcFacade interface
var _ portssvc.LedgerSvcFacade = (*ledgerService)(nil)

func validDirection(d domain.EntryDirection) bool {
	return d == domain.Credit || d == domain.Debit
}

// CreateEntry appends a manual entry to the account's ledger.
func (s *ledgerService) CreateEntry(ctx context.Context, userID string, input portssvc.CreateEntryInput) (*domain.LedgerEntry, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if input.Amount.LessThanOrEqual(decimal.Zero) {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrValidation, ErrAmountNotPositive)
	}
	if strings.TrimSpace(input.Label) == "" {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrValidation, ErrLabelMissing)
	}
	if !validDirection(input.Direction) {
		return nil, fmt.Errorf("%w: unknown direction '%s'", apperrors.ErrValidation, input.Direction)
	}

	if _, err := s.accountRepo.FindAccountByID(ctx, input.AccountID); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	entry := domain.LedgerEntry{
		EntryID:   uuid.NewString(),
		AccountID: input.AccountID,
		EntryDate: accounting.DayOf(input.EntryDate),
		Direction: input.Direction,
		Label:     strings.TrimSpace(input.Label),
		Amount:    input.Amount,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     userID,
			LastUpdatedAt: now,
			LastUpdatedBy: userID,
		},
	}

	lock := s.locks.Get(input.AccountID)
	lock.Lock()
	defer lock.Unlock()

	saved, err := s.ledgerRepo.AppendEntry(ctx, entry)
	if err != nil {
		logger.Error("Failed to append ledger entry", slog.String("error", err.Error()), slog.String("account_id", input.AccountID))
		return nil, err
	}

	logger.Info("Ledger entry created",
		slog.String("entry_id", saved.EntryID),
		slog.String("account_id", saved.AccountID),
		slog.Int64("sequence_no", saved.SequenceNo),
	)
	return saved, nil
}

// UpdateEntry edits an entry. A label-only edit leaves balances alone;
// any amount, direction or date change triggers a recompute.
func (s *ledgerService) UpdateEntry(ctx context.Context, userID string, entryID string, input portssvc.UpdateEntryInput) (*domain.LedgerEntry, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	entry, err := s.ledgerRepo.FindEntryByID(ctx, entryID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	labelOnly := input.Amount == nil && input.Direction == nil && input.EntryDate == nil

	if labelOnly {
		if input.Label == nil {
			return entry, nil // Nothing to change
		}
		label := strings.TrimSpace(*input.Label)
		if label == "" {
			return nil, fmt.Errorf("%w: %s", apperrors.ErrValidation, ErrLabelMissing)
		}
		if err := s.ledgerRepo.UpdateEntryLabel(ctx, entryID, label, userID, now); err != nil {
			return nil, err
		}
		entry.Label = label
		entry.LastUpdatedAt = now
		entry.LastUpdatedBy = userID
		return entry, nil
	}

	// Amounts and dates of deposit-mirroring entries are owned by the
	// deposit lifecycle.
	if entry.SourceDepositID != nil {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrInvalidState, ErrEntryDepositBound)
	}

	if input.Amount != nil {
		if input.Amount.LessThanOrEqual(decimal.Zero) {
			return nil, fmt.Errorf("%w: %s", apperrors.ErrValidation, ErrAmountNotPositive)
		}
		entry.Amount = *input.Amount
	}
	if input.Direction != nil {
		if !validDirection(*input.Direction) {
			return nil, fmt.Errorf("%w: unknown direction '%s'", apperrors.ErrValidation, *input.Direction)
		}
		entry.Direction = *input.Direction
	}
	if input.EntryDate != nil {
		// The entry keeps its sequence number across date moves, so a
		// same-day collision after the move still has a stable order.
		entry.EntryDate = accounting.DayOf(*input.EntryDate)
	}
	if input.Label != nil {
		label := strings.TrimSpace(*input.Label)
		if label == "" {
			return nil, fmt.Errorf("%w: %s", apperrors.ErrValidation, ErrLabelMissing)
		}
		entry.Label = label
	}
	entry.LastUpdatedAt = now
	entry.LastUpdatedBy = userID

	lock := s.locks.Get(entry.AccountID)
	lock.Lock()
	defer lock.Unlock()

	if err := s.ledgerRepo.UpdateEntry(ctx, *entry); err != nil {
		logger.Error("Failed to update ledger entry", slog.String("error", err.Error()), slog.String("entry_id", entryID))
		return nil, err
	}

	return s.ledgerRepo.FindEntryByID(ctx, entryID)
}

// DeleteEntry removes a manual entry and recomputes downstream balances.
func (s *ledgerService) DeleteEntry(ctx context.Context, userID string, entryID string) error {
	logger := middleware.GetLoggerFromCtx(ctx)

	entry, err := s.ledgerRepo.FindEntryByID(ctx, entryID)
	if err != nil {
		return err
	}
	if entry.SourceDepositID != nil {
		return fmt.Errorf("%w: %s", apperrors.ErrInvalidState, ErrEntryDepositBound)
	}

	lock := s.locks.Get(entry.AccountID)
	lock.Lock()
	defer lock.Unlock()

	deleted, err := s.ledgerRepo.DeleteEntry(ctx, entryID)
	if err != nil {
		logger.Error("Failed to delete ledger entry", slog.String("error", err.Error()), slog.String("entry_id", entryID))
		return err
	}

	logger.Info("Ledger entry deleted",
		slog.String("entry_id", deleted.EntryID),
		slog.String("account_id", deleted.AccountID),
	)
	return nil
}

// ClearAccount removes every entry of the account.
func (s *ledgerService) ClearAccount(ctx context.Context, userID string, accountID string) error {
	logger := middleware.GetLoggerFromCtx(ctx)

	if _, err := s.accountRepo.FindAccountByID(ctx, accountID); err != nil {
		return err
	}

	lock := s.locks.Get(accountID)
	lock.Lock()
	defer lock.Unlock()

	if err := s.ledgerRepo.ClearAccount(ctx, accountID, userID, time.Now().UTC()); err != nil {
		logger.Error("Failed to clear account", slog.String("error", err.Error()), slog.String("account_id", accountID))
		return err
	}

	logger.Info("Account cleared", slog.String("account_id", accountID))
	return nil
}

// RecomputeAccount rebuilds the account's whole running balance chain.
func (s *ledgerService) RecomputeAccount(ctx context.Context, userID string, accountID string) error {
	if _, err := s.accountRepo.FindAccountByID(ctx, accountID); err != nil {
		return err
	}

	lock := s.locks.Get(accountID)
	lock.Lock()
	defer lock.Unlock()

	return s.ledgerRepo.RecomputeAll(ctx, accountID, userID, time.Now().UTC())
}

// GetEntryByID retrieves a specific ledger entry.
func (s *ledgerService) GetEntryByID(ctx context.Context, entryID string) (*domain.LedgerEntry, error) {
	return s.ledgerRepo.FindEntryByID(ctx, entryID)
}

// ListEntries retrieves a page of an account's entries, most recent first.
func (s *ledgerService) ListEntries(ctx context.Context, accountID string, filter portsrepo.ListEntriesFilter, limit int, nextToken *string) ([]domain.LedgerEntry, *string, error) {
	if _, err := s.accountRepo.FindAccountByID(ctx, accountID); err != nil {
		return nil, nil, err
	}
	return s.ledgerRepo.ListEntriesByAccount(ctx, accountID, filter, limit, nextToken)
}
