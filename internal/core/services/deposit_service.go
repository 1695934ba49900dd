package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/finbooks/caledger/internal/apperrors"
	"github.com/finbooks/caledger/internal/core/domain"
	portsrepo "github.com/finbooks/caledger/internal/core/ports/repositories"
	portssvc "github.com/finbooks/caledger/internal/core/ports/services"
	"github.com/finbooks/caledger/internal/middleware"
	"github.com/finbooks/caledger/internal/utils/accounting"
)

var (
	ErrDepositNotUsable    = errors.New("deposit has no usable balance in its current state")
	ErrUsageExceedsBalance = errors.New("usage amount exceeds the deposit's remaining balance")
	ErrAmountNotReconciled = errors.New("deposit amount does not match the source movement amount")
)

// depositService drives the deposit lifecycle state machine.
type depositService struct {
	depositRepo portsrepo.DepositRepositoryWithTx
	ledgerRepo  portsrepo.LedgerRepositoryWithTx
	locks       *AccountLocks
}

// NewDepositService creates a new DepositService.
func NewDepositService(depositRepo portsrepo.DepositRepositoryWithTx, ledgerRepo portsrepo.LedgerRepositoryWithTx, locks *AccountLocks) portssvc.DepositSvcFacade {
	return &depositService{
		depositRepo: depositRepo,
		ledgerRepo:  ledgerRepo,
		locks:       locks,
	}
}

// Ensure depositService implements the portssvc.DepositSvcFacade interface
var _ portssvc.DepositSvcFacade = (*depositService)(nil)

// CreateDeposit registers a new deposit in PENDING state with its full
// original amount available.
func (s *depositService) CreateDeposit(ctx context.Context, userID string, input portssvc.CreateDepositInput) (*domain.Deposit, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if input.OriginalAmount.LessThanOrEqual(decimal.Zero) {
		return nil, fmt.Errorf("%w: deposit amount must be strictly positive", apperrors.ErrValidation)
	}
	if strings.TrimSpace(input.Holder) == "" {
		return nil, fmt.Errorf("%w: deposit holder is required", apperrors.ErrValidation)
	}
	if input.SourceMovementAmount != nil && !accounting.Reconciles(input.OriginalAmount, *input.SourceMovementAmount) {
		return nil, fmt.Errorf("%w: %s (deposit %s, movement %s)", apperrors.ErrValidation, ErrAmountNotReconciled,
			input.OriginalAmount.String(), input.SourceMovementAmount.String())
	}

	now := time.Now().UTC()
	deposit := domain.Deposit{
		DepositID:        uuid.NewString(),
		OriginalAmount:   input.OriginalAmount,
		CurrentBalance:   input.OriginalAmount,
		EntryDate:        accounting.DayOf(input.EntryDate),
		State:            domain.DepositPending,
		ReturnedAmount:   decimal.Zero,
		Holder:           strings.TrimSpace(input.Holder),
		Notes:            input.Notes,
		SourceMovementID: input.SourceMovementID,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     userID,
			LastUpdatedAt: now,
			LastUpdatedBy: userID,
		},
	}

	if err := s.depositRepo.SaveDeposit(ctx, deposit); err != nil {
		logger.Error("Failed to save deposit", slog.String("error", err.Error()), slog.String("deposit_id", deposit.DepositID))
		return nil, err
	}

	logger.Info("Deposit created", slog.String("deposit_id", deposit.DepositID), slog.String("holder", deposit.Holder))
	return &deposit, nil
}

// GetDepositByID retrieves a specific deposit.
func (s *depositService) GetDepositByID(ctx context.Context, depositID string) (*domain.Deposit, error) {
	return s.depositRepo.FindDepositByID(ctx, depositID)
}

// ListDeposits retrieves a filtered page of deposits.
func (s *depositService) ListDeposits(ctx context.Context, filter portsrepo.ListDepositsFilter, limit int, nextToken *string) ([]domain.Deposit, *string, error) {
	return s.depositRepo.ListDeposits(ctx, filter, limit, nextToken)
}

// UpdateDeposit edits a deposit's descriptive fields. Changing the original
// amount resets the remaining balance to the new amount; on a LINKED
// deposit the mirrored ledger entry is rewritten in the same transaction
// instead (its balance stays consumed by the link).
func (s *depositService) UpdateDeposit(ctx context.Context, userID string, depositID string, input portssvc.UpdateDepositInput) (*domain.Deposit, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	deposit, err := s.depositRepo.FindDepositByID(ctx, depositID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()

	if input.Holder != nil {
		holder := strings.TrimSpace(*input.Holder)
		if holder == "" {
			return nil, fmt.Errorf("%w: deposit holder is required", apperrors.ErrValidation)
		}
		deposit.Holder = holder
	}
	if input.Notes != nil {
		deposit.Notes = *input.Notes
	}
	if input.EntryDate != nil {
		if deposit.State == domain.DepositLinked {
			return nil, fmt.Errorf("%w: entry date of a linked deposit cannot change", apperrors.ErrInvalidState)
		}
		deposit.EntryDate = accounting.DayOf(*input.EntryDate)
	}

	amountChanged := input.OriginalAmount != nil && !input.OriginalAmount.Equal(deposit.OriginalAmount)
	if amountChanged {
		if input.OriginalAmount.LessThanOrEqual(decimal.Zero) {
			return nil, fmt.Errorf("%w: deposit amount must be strictly positive", apperrors.ErrValidation)
		}
		switch deposit.State {
		case domain.DepositSettled, domain.DepositReturned:
			return nil, fmt.Errorf("%w: amount of a %s deposit cannot change", apperrors.ErrInvalidState, deposit.State)
		}

		deposit.OriginalAmount = *input.OriginalAmount
		// While LINKED the balance is consumed by the projection and
		// stays zero; otherwise editing the amount makes all of it
		// usable again.
		if deposit.State != domain.DepositLinked {
			deposit.CurrentBalance = *input.OriginalAmount
		}
	}

	deposit.LastUpdatedAt = now
	deposit.LastUpdatedBy = userID

	if amountChanged && deposit.State == domain.DepositLinked && deposit.LinkedAccountID != nil {
		lock := s.locks.Get(*deposit.LinkedAccountID)
		lock.Lock()
		defer lock.Unlock()

		err = s.depositRepo.WithTx(ctx, func(tx pgx.Tx) error {
			entry, txErr := s.ledgerRepo.FindEntryBySourceDepositInTx(ctx, tx, depositID)
			if txErr != nil {
				return txErr
			}
			if txErr := s.ledgerRepo.UpdateEntryAmountInTx(ctx, tx, entry.EntryID, deposit.OriginalAmount, userID, now); txErr != nil {
				return txErr
			}
			return s.depositRepo.UpdateDepositInTx(ctx, tx, *deposit)
		})
	} else {
		err = s.depositRepo.UpdateDeposit(ctx, *deposit)
	}
	if err != nil {
		logger.Error("Failed to update deposit", slog.String("error", err.Error()), slog.String("deposit_id", depositID))
		return nil, err
	}

	return deposit, nil
}

// DeleteDeposit removes a deposit. A LINKED deposit still owns a ledger
// entry, so the mirrored entry is deleted first in the same transaction.
func (s *depositService) DeleteDeposit(ctx context.Context, userID string, depositID string) error {
	logger := middleware.GetLoggerFromCtx(ctx)

	deposit, err := s.depositRepo.FindDepositByID(ctx, depositID)
	if err != nil {
		return err
	}

	if deposit.State != domain.DepositLinked {
		if err := s.depositRepo.DeleteDeposit(ctx, depositID); err != nil {
			logger.Error("Failed to delete deposit", slog.String("error", err.Error()), slog.String("deposit_id", depositID))
			return err
		}
		logger.Info("Deposit deleted", slog.String("deposit_id", depositID))
		return nil
	}

	if deposit.LinkedAccountID == nil {
		return fmt.Errorf("%w: linked deposit %s has no linked account", apperrors.ErrInvalidState, depositID)
	}

	lock := s.locks.Get(*deposit.LinkedAccountID)
	lock.Lock()
	defer lock.Unlock()

	err = s.depositRepo.WithTx(ctx, func(tx pgx.Tx) error {
		locked, txErr := s.depositRepo.FindDepositByIDForUpdate(ctx, tx, depositID)
		if txErr != nil {
			return txErr
		}
		if locked.State == domain.DepositLinked {
			entry, txErr := s.ledgerRepo.FindEntryBySourceDepositInTx(ctx, tx, depositID)
			if txErr != nil {
				return txErr
			}
			if _, txErr := s.ledgerRepo.DeleteEntryInTx(ctx, tx, entry.EntryID); txErr != nil {
				return txErr
			}
		}
		return s.depositRepo.DeleteDepositInTx(ctx, tx, depositID)
	})
	if err != nil {
		logger.Error("Failed to delete linked deposit", slog.String("error", err.Error()), slog.String("deposit_id", depositID))
		return err
	}

	logger.Info("Deposit deleted", slog.String("deposit_id", depositID))
	return nil
}

// transitionDeposit loads the deposit under a FOR UPDATE row lock,
// applies mutate to the fresh snapshot, and persists the result, all in
// one transaction. Concurrent transitions on the same deposit serialize
// on the row lock instead of overwriting each other; serialization
// failures surface as ErrConflict from the repository layer.
func (s *depositService) transitionDeposit(ctx context.Context, depositID string, mutate func(deposit *domain.Deposit) error) (*domain.Deposit, error) {
	var deposit *domain.Deposit
	err := s.depositRepo.WithTx(ctx, func(tx pgx.Tx) error {
		locked, txErr := s.depositRepo.FindDepositByIDForUpdate(ctx, tx, depositID)
		if txErr != nil {
			return txErr
		}
		if txErr := mutate(locked); txErr != nil {
			return txErr
		}
		deposit = locked
		return s.depositRepo.UpdateDepositInTx(ctx, tx, *locked)
	})
	if err != nil {
		return nil, err
	}
	return deposit, nil
}

// Settle marks the deposit fully consumed on the given usage date.
func (s *depositService) Settle(ctx context.Context, userID string, depositID string, usageDate time.Time) (*domain.Deposit, error) {
	day := accounting.DayOf(usageDate)
	return s.transitionDeposit(ctx, depositID, func(deposit *domain.Deposit) error {
		if !deposit.State.HasUsableBalance() {
			return fmt.Errorf("%w: %s (state %s)", apperrors.ErrInvalidState, ErrDepositNotUsable, deposit.State)
		}
		deposit.State = domain.DepositSettled
		deposit.CurrentBalance = decimal.Zero
		deposit.UsageDate = &day
		deposit.LastUpdatedAt = time.Now().UTC()
		deposit.LastUpdatedBy = userID
		return nil
	})
}

// MarkCreditBalance flags the deposit as holding the given usable
// remaining balance.
func (s *depositService) MarkCreditBalance(ctx context.Context, userID string, depositID string, remainingAmount decimal.Decimal) (*domain.Deposit, error) {
	return s.transitionDeposit(ctx, depositID, func(deposit *domain.Deposit) error {
		if !deposit.State.HasUsableBalance() {
			return fmt.Errorf("%w: %s (state %s)", apperrors.ErrInvalidState, ErrDepositNotUsable, deposit.State)
		}
		if remainingAmount.IsNegative() || remainingAmount.GreaterThan(deposit.OriginalAmount) {
			return fmt.Errorf("%w: remaining balance %s must stay within the original amount %s",
				apperrors.ErrValidation, remainingAmount.String(), deposit.OriginalAmount.String())
		}
		deposit.State = domain.DepositCreditBalance
		deposit.CurrentBalance = remainingAmount
		deposit.LastUpdatedAt = time.Now().UTC()
		deposit.LastUpdatedBy = userID
		return nil
	})
}

// UseBalance consumes part of the deposit's balance. The first usage date
// sticks; later usages keep it. The deposit settles once the balance
// reaches zero, otherwise it stays usable as a credit balance.
func (s *depositService) UseBalance(ctx context.Context, userID string, depositID string, input portssvc.UseBalanceInput) (*domain.Deposit, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if input.Amount.LessThanOrEqual(decimal.Zero) {
		return nil, fmt.Errorf("%w: usage amount must be strictly positive", apperrors.ErrValidation)
	}

	deposit, err := s.transitionDeposit(ctx, depositID, func(deposit *domain.Deposit) error {
		if !deposit.State.HasUsableBalance() {
			return fmt.Errorf("%w: %s (state %s)", apperrors.ErrInvalidState, ErrDepositNotUsable, deposit.State)
		}
		if input.Amount.GreaterThan(deposit.CurrentBalance) {
			return fmt.Errorf("%w: %s (%s of %s)", apperrors.ErrValidation, ErrUsageExceedsBalance,
				input.Amount.String(), deposit.CurrentBalance.String())
		}
		deposit.CurrentBalance = deposit.CurrentBalance.Sub(input.Amount)
		if deposit.UsageDate == nil {
			usageDate := accounting.DayOf(input.UsageDate)
			deposit.UsageDate = &usageDate
		}
		deposit.UsageType = input.UsageType
		deposit.UsageDescription = input.UsageDescription
		if deposit.CurrentBalance.IsZero() {
			deposit.State = domain.DepositSettled
		} else {
			deposit.State = domain.DepositCreditBalance
		}
		deposit.LastUpdatedAt = time.Now().UTC()
		deposit.LastUpdatedBy = userID
		return nil
	})
	if err != nil {
		logger.Error("Failed to record deposit usage", slog.String("error", err.Error()), slog.String("deposit_id", depositID))
		return nil, err
	}

	logger.Info("Deposit balance used",
		slog.String("deposit_id", depositID),
		slog.String("amount", input.Amount.String()),
		slog.String("state", string(deposit.State)),
	)
	return deposit, nil
}

// Return records the deposit as sent back to its holder. The returned
// amount is a snapshot of whatever balance remained.
func (s *depositService) Return(ctx context.Context, userID string, depositID string, returnDate time.Time) (*domain.Deposit, error) {
	retDate := accounting.DayOf(returnDate)
	return s.transitionDeposit(ctx, depositID, func(deposit *domain.Deposit) error {
		if !deposit.State.HasUsableBalance() {
			return fmt.Errorf("%w: %s (state %s)", apperrors.ErrInvalidState, ErrDepositNotUsable, deposit.State)
		}
		deposit.State = domain.DepositReturned
		deposit.ReturnDate = &retDate
		deposit.ReturnedAmount = deposit.CurrentBalance
		deposit.CurrentBalance = decimal.Zero
		deposit.LastUpdatedAt = time.Now().UTC()
		deposit.LastUpdatedBy = userID
		return nil
	})
}
