package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/finbooks/caledger/internal/apperrors"
	"github.com/finbooks/caledger/internal/core/domain"
	portssvc "github.com/finbooks/caledger/internal/core/ports/services"
	"github.com/finbooks/caledger/internal/core/services"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

// --- Test Suite Setup ---
type LedgerServiceTestSuite struct {
	suite.Suite
	mockLedgerRepo  *MockLedgerRepository
	mockAccountRepo *MockAccountRepository
	service         portssvc.LedgerSvcFacade
	account         domain.Account
	userID          string
}

func (suite *LedgerServiceTestSuite) SetupTest() {
	suite.mockLedgerRepo = new(MockLedgerRepository)
	suite.mockAccountRepo = new(MockAccountRepository)
	suite.service = services.NewLedgerService(suite.mockLedgerRepo, suite.mockAccountRepo, services.NewAccountLocks())

	suite.userID = uuid.NewString()
	suite.account = domain.Account{
		AccountID:   uuid.NewString(),
		Name:        "Caja Central",
		AccountType: domain.Cash,
		Balance:     decimal.Zero,
	}
}

// --- Test Cases ---

func (suite *LedgerServiceTestSuite) TestCreateEntry_Success() {
	ctx := context.Background()
	input := portssvc.CreateEntryInput{
		AccountID: suite.account.AccountID,
		EntryDate: time.Date(2024, 3, 10, 15, 30, 0, 0, time.UTC),
		Direction: domain.Credit,
		Label:     "Client payment",
		Amount:    decimal.NewFromInt(1000),
	}

	suite.mockAccountRepo.On("FindAccountByID", ctx, suite.account.AccountID).Return(&suite.account, nil).Once()
	suite.mockLedgerRepo.On("AppendEntry", ctx, mock.AnythingOfType("domain.LedgerEntry")).Run(func(args mock.Arguments) {
		entry := args.Get(1).(domain.LedgerEntry)
		// Dates are truncated to their UTC day before hitting storage.
		suite.Equal(time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC), entry.EntryDate)
		suite.Equal(domain.Credit, entry.Direction)
		suite.Equal(suite.userID, entry.CreatedBy)
	}).Return(&domain.LedgerEntry{
		EntryID:          uuid.NewString(),
		AccountID:        suite.account.AccountID,
		SequenceNo:       1,
		ResultingBalance: decimal.NewFromInt(1000),
	}, nil).Once()

	created, err := suite.service.CreateEntry(ctx, suite.userID, input)

	suite.Require().NoError(err)
	suite.Require().NotNil(created)
	suite.Equal(int64(1), created.SequenceNo)
	suite.True(created.ResultingBalance.Equal(decimal.NewFromInt(1000)))

	suite.mockAccountRepo.AssertExpectations(suite.T())
	suite.mockLedgerRepo.AssertExpectations(suite.T())
}

func (suite *LedgerServiceTestSuite) TestCreateEntry_NonPositiveAmount() {
	ctx := context.Background()
	input := portssvc.CreateEntryInput{
		AccountID: suite.account.AccountID,
		EntryDate: time.Now(),
		Direction: domain.Debit,
		Label:     "Bad entry",
		Amount:    decimal.Zero,
	}

	created, err := suite.service.CreateEntry(ctx, suite.userID, input)

	suite.Require().Error(err)
	suite.Nil(created)
	suite.ErrorIs(err, apperrors.ErrValidation)
	suite.mockLedgerRepo.AssertNotCalled(suite.T(), "AppendEntry", mock.Anything, mock.Anything)
}

func (suite *LedgerServiceTestSuite) TestCreateEntry_AccountMissing() {
	ctx := context.Background()
	input := portssvc.CreateEntryInput{
		AccountID: "no-such-account",
		EntryDate: time.Now(),
		Direction: domain.Debit,
		Label:     "Orphan entry",
		Amount:    decimal.NewFromInt(50),
	}

	suite.mockAccountRepo.On("FindAccountByID", ctx, "no-such-account").Return(nil, apperrors.ErrNotFound).Once()

	created, err := suite.service.CreateEntry(ctx, suite.userID, input)

	suite.Require().Error(err)
	suite.Nil(created)
	suite.ErrorIs(err, apperrors.ErrNotFound)
}

func (suite *LedgerServiceTestSuite) TestUpdateEntry_LabelOnlySkipsRecompute() {
	ctx := context.Background()
	entryID := uuid.NewString()
	existing := &domain.LedgerEntry{
		EntryID:   entryID,
		AccountID: suite.account.AccountID,
		Direction: domain.Credit,
		Label:     "Old label",
		Amount:    decimal.NewFromInt(300),
	}
	newLabel := "New label"

	suite.mockLedgerRepo.On("FindEntryByID", ctx, entryID).Return(existing, nil).Once()
	suite.mockLedgerRepo.On("UpdateEntryLabel", ctx, entryID, newLabel, suite.userID, mock.AnythingOfType("time.Time")).Return(nil).Once()

	updated, err := suite.service.UpdateEntry(ctx, suite.userID, entryID, portssvc.UpdateEntryInput{Label: &newLabel})

	suite.Require().NoError(err)
	suite.Equal(newLabel, updated.Label)
	suite.mockLedgerRepo.AssertNotCalled(suite.T(), "UpdateEntry", mock.Anything, mock.Anything)
	suite.mockLedgerRepo.AssertExpectations(suite.T())
}

func (suite *LedgerServiceTestSuite) TestUpdateEntry_AmountTriggersRecompute() {
	ctx := context.Background()
	entryID := uuid.NewString()
	existing := &domain.LedgerEntry{
		EntryID:   entryID,
		AccountID: suite.account.AccountID,
		Direction: domain.Credit,
		Label:     "Payment",
		Amount:    decimal.NewFromInt(300),
	}
	newAmount := decimal.NewFromInt(450)
	refreshed := &domain.LedgerEntry{
		EntryID:          entryID,
		AccountID:        suite.account.AccountID,
		Direction:        domain.Credit,
		Label:            "Payment",
		Amount:           newAmount,
		ResultingBalance: decimal.NewFromInt(450),
	}

	suite.mockLedgerRepo.On("FindEntryByID", ctx, entryID).Return(existing, nil).Once()
	suite.mockLedgerRepo.On("UpdateEntry", ctx, mock.AnythingOfType("domain.LedgerEntry")).Run(func(args mock.Arguments) {
		entry := args.Get(1).(domain.LedgerEntry)
		suite.True(entry.Amount.Equal(newAmount))
		suite.Equal(suite.userID, entry.LastUpdatedBy)
	}).Return(nil).Once()
	suite.mockLedgerRepo.On("FindEntryByID", ctx, entryID).Return(refreshed, nil).Once()

	updated, err := suite.service.UpdateEntry(ctx, suite.userID, entryID, portssvc.UpdateEntryInput{Amount: &newAmount})

	suite.Require().NoError(err)
	suite.True(updated.Amount.Equal(newAmount))
	suite.mockLedgerRepo.AssertExpectations(suite.T())
}

func (suite *LedgerServiceTestSuite) TestUpdateEntry_DepositBoundRejected() {
	ctx := context.Background()
	entryID := uuid.NewString()
	depositID := uuid.NewString()
	existing := &domain.LedgerEntry{
		EntryID:         entryID,
		AccountID:       suite.account.AccountID,
		Direction:       domain.Credit,
		Amount:          decimal.NewFromInt(800),
		SourceDepositID: &depositID,
	}
	newAmount := decimal.NewFromInt(900)

	suite.mockLedgerRepo.On("FindEntryByID", ctx, entryID).Return(existing, nil).Once()

	updated, err := suite.service.UpdateEntry(ctx, suite.userID, entryID, portssvc.UpdateEntryInput{Amount: &newAmount})

	suite.Require().Error(err)
	suite.Nil(updated)
	suite.ErrorIs(err, apperrors.ErrInvalidState)
	suite.mockLedgerRepo.AssertNotCalled(suite.T(), "UpdateEntry", mock.Anything, mock.Anything)
}

func (suite *LedgerServiceTestSuite) TestDeleteEntry_Success() {
	ctx := context.Background()
	entryID := uuid.NewString()
	existing := &domain.LedgerEntry{
		EntryID:   entryID,
		AccountID: suite.account.AccountID,
		Direction: domain.Debit,
		Amount:    decimal.NewFromInt(120),
	}

	suite.mockLedgerRepo.On("FindEntryByID", ctx, entryID).Return(existing, nil).Once()
	suite.mockLedgerRepo.On("DeleteEntry", ctx, entryID).Return(existing, nil).Once()

	err := suite.service.DeleteEntry(ctx, suite.userID, entryID)

	suite.Require().NoError(err)
	suite.mockLedgerRepo.AssertExpectations(suite.T())
}

func (suite *LedgerServiceTestSuite) TestDeleteEntry_DepositBoundRejected() {
	ctx := context.Background()
	entryID := uuid.NewString()
	depositID := uuid.NewString()
	existing := &domain.LedgerEntry{
		EntryID:         entryID,
		AccountID:       suite.account.AccountID,
		SourceDepositID: &depositID,
	}

	suite.mockLedgerRepo.On("FindEntryByID", ctx, entryID).Return(existing, nil).Once()

	err := suite.service.DeleteEntry(ctx, suite.userID, entryID)

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrInvalidState)
	suite.mockLedgerRepo.AssertNotCalled(suite.T(), "DeleteEntry", mock.Anything, mock.Anything)
}

func (suite *LedgerServiceTestSuite) TestClearAccount_Success() {
	ctx := context.Background()

	suite.mockAccountRepo.On("FindAccountByID", ctx, suite.account.AccountID).Return(&suite.account, nil).Once()
	suite.mockLedgerRepo.On("ClearAccount", ctx, suite.account.AccountID, suite.userID, mock.AnythingOfType("time.Time")).Return(nil).Once()

	err := suite.service.ClearAccount(ctx, suite.userID, suite.account.AccountID)

	suite.Require().NoError(err)
	suite.mockLedgerRepo.AssertExpectations(suite.T())
}

func (suite *LedgerServiceTestSuite) TestRecomputeAccount_Success() {
	ctx := context.Background()

	suite.mockAccountRepo.On("FindAccountByID", ctx, suite.account.AccountID).Return(&suite.account, nil).Once()
	suite.mockLedgerRepo.On("RecomputeAll", ctx, suite.account.AccountID, suite.userID, mock.AnythingOfType("time.Time")).Return(nil).Once()

	err := suite.service.RecomputeAccount(ctx, suite.userID, suite.account.AccountID)

	suite.Require().NoError(err)
	suite.mockLedgerRepo.AssertExpectations(suite.T())
}

func TestLedgerServiceTestSuite(t *testing.T) {
	suite.Run(t, new(LedgerServiceTestSuite))
}
