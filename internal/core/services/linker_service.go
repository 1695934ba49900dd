package services

import (
	"context"
	"fmt"
	"log/slog"
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

// linkerService couples deposits to ledger accounts. Link and Unlink each
// run both sides (deposit row and mirrored ledger entry) in a single
// transaction, so no half-linked state is ever visible.
type linkerService struct {
	depositRepo portsrepo.DepositRepositoryWithTx
	ledgerRepo  portsrepo.LedgerRepositoryWithTx
	accountRepo portsrepo.AccountRepositoryWithTx
	locks       *AccountLocks
}

// NewLinkerService creates a new LinkerService.
func NewLinkerService(depositRepo portsrepo.DepositRepositoryWithTx, ledgerRepo portsrepo.LedgerRepositoryWithTx, accountRepo portsrepo.AccountRepositoryWithTx, locks *AccountLocks) portssvc.LinkerSvcFacade {
	return &linkerService{
		depositRepo: depositRepo,
		ledgerRepo:  ledgerRepo,
		accountRepo: accountRepo,
		locks:       locks,
	}
}

// Ensure linkerService implements the portssvc.LinkerSvcFacade interface
var _ portssvc.LinkerSvcFacade = (*linkerService)(nil)

// Link attaches a usable deposit to an account, mirroring its original
// amount as a credit entry dated today. The deposit's own balance is
// consumed by the projection: it drops to zero while LINKED.
func (s *linkerService) Link(ctx context.Context, userID string, depositID string, accountID string, clientID *string) (*domain.Deposit, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if _, err := s.accountRepo.FindAccountByID(ctx, accountID); err != nil {
		return nil, err
	}

	lock := s.locks.Get(accountID)
	lock.Lock()
	defer lock.Unlock()

	now := time.Now().UTC()
	today := accounting.DayOf(now)
	var linked *domain.Deposit

	err := s.depositRepo.WithTx(ctx, func(tx pgx.Tx) error {
		deposit, txErr := s.depositRepo.FindDepositByIDForUpdate(ctx, tx, depositID)
		if txErr != nil {
			return txErr
		}
		if !deposit.State.HasUsableBalance() {
			return fmt.Errorf("%w: %s (state %s)", apperrors.ErrInvalidState, ErrDepositNotUsable, deposit.State)
		}

		entry := domain.LedgerEntry{
			EntryID:         uuid.NewString(),
			AccountID:       accountID,
			EntryDate:       today,
			Direction:       domain.Credit,
			Label:           fmt.Sprintf("Deposit link - %s", deposit.Holder),
			Amount:          deposit.OriginalAmount,
			SourceDepositID: &deposit.DepositID,
			AuditFields: domain.AuditFields{
				CreatedAt:     now,
				CreatedBy:     userID,
				LastUpdatedAt: now,
				LastUpdatedBy: userID,
			},
		}
		if _, txErr := s.ledgerRepo.AppendEntryInTx(ctx, tx, entry); txErr != nil {
			return txErr
		}

		deposit.State = domain.DepositLinked
		deposit.LinkedAccountID = &accountID
		deposit.LinkedClientID = clientID
		deposit.UsageDate = &today
		deposit.CurrentBalance = decimal.Zero
		deposit.LastUpdatedAt = now
		deposit.LastUpdatedBy = userID
		if txErr := s.depositRepo.UpdateDepositInTx(ctx, tx, *deposit); txErr != nil {
			return txErr
		}

		linked = deposit
		return nil
	})
	if err != nil {
		logger.Error("Failed to link deposit", slog.String("error", err.Error()), slog.String("deposit_id", depositID), slog.String("account_id", accountID))
		return nil, err
	}

	logger.Info("Deposit linked", slog.String("deposit_id", depositID), slog.String("account_id", accountID))
	return linked, nil
}

// Unlink detaches a LINKED deposit from its account, deleting the mirrored
// entry and restoring the deposit to a usable credit balance covering its
// full original amount.
func (s *linkerService) Unlink(ctx context.Context, userID string, depositID string) (*domain.Deposit, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	// Peek at the deposit first to know which account to serialize on.
	current, err := s.depositRepo.FindDepositByID(ctx, depositID)
	if err != nil {
		return nil, err
	}
	if current.State != domain.DepositLinked || current.LinkedAccountID == nil {
		return nil, fmt.Errorf("%w: deposit %s is not linked", apperrors.ErrInvalidState, depositID)
	}

	lock := s.locks.Get(*current.LinkedAccountID)
	lock.Lock()
	defer lock.Unlock()

	now := time.Now().UTC()
	var unlinked *domain.Deposit

	err = s.depositRepo.WithTx(ctx, func(tx pgx.Tx) error {
		deposit, txErr := s.depositRepo.FindDepositByIDForUpdate(ctx, tx, depositID)
		if txErr != nil {
			return txErr
		}
		if deposit.State != domain.DepositLinked {
			return fmt.Errorf("%w: deposit %s is not linked", apperrors.ErrInvalidState, depositID)
		}

		entry, txErr := s.ledgerRepo.FindEntryBySourceDepositInTx(ctx, tx, depositID)
		if txErr != nil {
			return txErr
		}
		if _, txErr := s.ledgerRepo.DeleteEntryInTx(ctx, tx, entry.EntryID); txErr != nil {
			return txErr
		}

		// Unlinking reverts the consumption trail: the whole original
		// amount becomes usable again.
		deposit.State = domain.DepositCreditBalance
		deposit.CurrentBalance = deposit.OriginalAmount
		deposit.UsageDate = nil
		deposit.UsageType = ""
		deposit.UsageDescription = ""
		deposit.LinkedAccountID = nil
		deposit.LinkedClientID = nil
		deposit.LastUpdatedAt = now
		deposit.LastUpdatedBy = userID
		if txErr := s.depositRepo.UpdateDepositInTx(ctx, tx, *deposit); txErr != nil {
			return txErr
		}

		unlinked = deposit
		return nil
	})
	if err != nil {
		logger.Error("Failed to unlink deposit", slog.String("error", err.Error()), slog.String("deposit_id", depositID))
		return nil, err
	}

	logger.Info("Deposit unlinked", slog.String("deposit_id", depositID))
	return unlinked, nil
}
