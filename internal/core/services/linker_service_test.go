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
type LinkerServiceTestSuite struct {
	suite.Suite
	mockDepositRepo *MockDepositRepository
	mockLedgerRepo  *MockLedgerRepository
	mockAccountRepo *MockAccountRepository
	service         portssvc.LinkerSvcFacade
	account         domain.Account
	userID          string
}

func (suite *LinkerServiceTestSuite) SetupTest() {
	suite.mockDepositRepo = new(MockDepositRepository)
	suite.mockLedgerRepo = new(MockLedgerRepository)
	suite.mockAccountRepo = new(MockAccountRepository)
	suite.service = services.NewLinkerService(suite.mockDepositRepo, suite.mockLedgerRepo, suite.mockAccountRepo, services.NewAccountLocks())

	suite.userID = uuid.NewString()
	suite.account = domain.Account{
		AccountID:   uuid.NewString(),
		Name:        "Cuenta Lopez",
		AccountType: domain.Checking,
	}
}

// --- Test Cases ---

// An 800 deposit linked to an account mirrors an 800 credit entry dated
// today; the deposit's own balance is consumed by the projection.
func (suite *LinkerServiceTestSuite) TestLink_Success() {
	ctx := context.Background()
	now := time.Now().UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	deposit := &domain.Deposit{
		DepositID:      uuid.NewString(),
		OriginalAmount: decimal.NewFromInt(800),
		CurrentBalance: decimal.NewFromInt(800),
		EntryDate:      time.Date(2024, 5, 20, 0, 0, 0, 0, time.UTC),
		State:          domain.DepositPending,
		Holder:         "Lopez",
	}
	clientID := uuid.NewString()

	suite.mockAccountRepo.On("FindAccountByID", ctx, suite.account.AccountID).Return(&suite.account, nil).Once()
	suite.mockDepositRepo.On("WithTx", ctx, mock.Anything).Return(nil).Once()
	suite.mockDepositRepo.On("FindDepositByIDForUpdate", ctx, nil, deposit.DepositID).Return(deposit, nil).Once()
	suite.mockLedgerRepo.On("AppendEntryInTx", ctx, nil, mock.AnythingOfType("domain.LedgerEntry")).Run(func(args mock.Arguments) {
		entry := args.Get(2).(domain.LedgerEntry)
		suite.Equal(suite.account.AccountID, entry.AccountID)
		suite.Equal(domain.Credit, entry.Direction)
		suite.True(entry.Amount.Equal(decimal.NewFromInt(800)))
		suite.Equal(today, entry.EntryDate)
		suite.Require().NotNil(entry.SourceDepositID)
		suite.Equal(deposit.DepositID, *entry.SourceDepositID)
	}).Return(&domain.LedgerEntry{EntryID: uuid.NewString()}, nil).Once()
	suite.mockDepositRepo.On("UpdateDepositInTx", ctx, nil, mock.AnythingOfType("domain.Deposit")).Run(func(args mock.Arguments) {
		dep := args.Get(2).(domain.Deposit)
		suite.Equal(domain.DepositLinked, dep.State)
		suite.True(dep.CurrentBalance.IsZero())
		suite.Require().NotNil(dep.UsageDate)
		suite.Equal(today, *dep.UsageDate)
		suite.Require().NotNil(dep.LinkedAccountID)
		suite.Equal(suite.account.AccountID, *dep.LinkedAccountID)
		suite.Require().NotNil(dep.LinkedClientID)
		suite.Equal(clientID, *dep.LinkedClientID)
	}).Return(nil).Once()

	linked, err := suite.service.Link(ctx, suite.userID, deposit.DepositID, suite.account.AccountID, &clientID)

	suite.Require().NoError(err)
	suite.Require().NotNil(linked)
	suite.Equal(domain.DepositLinked, linked.State)

	suite.mockDepositRepo.AssertExpectations(suite.T())
	suite.mockLedgerRepo.AssertExpectations(suite.T())
}

func (suite *LinkerServiceTestSuite) TestLink_ReturnedRejected() {
	ctx := context.Background()
	deposit := &domain.Deposit{
		DepositID:      uuid.NewString(),
		OriginalAmount: decimal.NewFromInt(800),
		CurrentBalance: decimal.Zero,
		State:          domain.DepositReturned,
	}

	suite.mockAccountRepo.On("FindAccountByID", ctx, suite.account.AccountID).Return(&suite.account, nil).Once()
	suite.mockDepositRepo.On("WithTx", ctx, mock.Anything).Return(nil).Once()
	suite.mockDepositRepo.On("FindDepositByIDForUpdate", ctx, nil, deposit.DepositID).Return(deposit, nil).Once()

	linked, err := suite.service.Link(ctx, suite.userID, deposit.DepositID, suite.account.AccountID, nil)

	suite.Require().Error(err)
	suite.Nil(linked)
	suite.ErrorIs(err, apperrors.ErrInvalidState)
	suite.mockLedgerRepo.AssertNotCalled(suite.T(), "AppendEntryInTx", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *LinkerServiceTestSuite) TestLink_AccountMissing() {
	ctx := context.Background()

	suite.mockAccountRepo.On("FindAccountByID", ctx, suite.account.AccountID).Return(nil, apperrors.ErrNotFound).Once()

	linked, err := suite.service.Link(ctx, suite.userID, uuid.NewString(), suite.account.AccountID, nil)

	suite.Require().Error(err)
	suite.Nil(linked)
	suite.ErrorIs(err, apperrors.ErrNotFound)
}

// Unlinking removes the mirrored entry and restores the full original
// amount as a usable credit balance, clearing the usage trail.
func (suite *LinkerServiceTestSuite) TestUnlink_Success() {
	ctx := context.Background()
	usageDate := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	deposit := &domain.Deposit{
		DepositID:        uuid.NewString(),
		OriginalAmount:   decimal.NewFromInt(800),
		CurrentBalance:   decimal.Zero,
		State:            domain.DepositLinked,
		LinkedAccountID:  &suite.account.AccountID,
		UsageDate:        &usageDate,
		UsageType:        "CAJA",
		UsageDescription: "moved to cash",
	}
	entry := &domain.LedgerEntry{
		EntryID:         uuid.NewString(),
		AccountID:       suite.account.AccountID,
		Amount:          decimal.NewFromInt(800),
		SourceDepositID: &deposit.DepositID,
	}

	suite.mockDepositRepo.On("FindDepositByID", ctx, deposit.DepositID).Return(deposit, nil).Once()
	suite.mockDepositRepo.On("WithTx", ctx, mock.Anything).Return(nil).Once()
	suite.mockDepositRepo.On("FindDepositByIDForUpdate", ctx, nil, deposit.DepositID).Return(deposit, nil).Once()
	suite.mockLedgerRepo.On("FindEntryBySourceDepositInTx", ctx, nil, deposit.DepositID).Return(entry, nil).Once()
	suite.mockLedgerRepo.On("DeleteEntryInTx", ctx, nil, entry.EntryID).Return(entry, nil).Once()
	suite.mockDepositRepo.On("UpdateDepositInTx", ctx, nil, mock.AnythingOfType("domain.Deposit")).Run(func(args mock.Arguments) {
		dep := args.Get(2).(domain.Deposit)
		suite.Equal(domain.DepositCreditBalance, dep.State)
		suite.True(dep.CurrentBalance.Equal(decimal.NewFromInt(800)))
		suite.Nil(dep.UsageDate)
		suite.Empty(dep.UsageType)
		suite.Nil(dep.LinkedAccountID)
	}).Return(nil).Once()

	unlinked, err := suite.service.Unlink(ctx, suite.userID, deposit.DepositID)

	suite.Require().NoError(err)
	suite.Require().NotNil(unlinked)
	suite.Equal(domain.DepositCreditBalance, unlinked.State)
	suite.True(unlinked.CurrentBalance.Equal(unlinked.OriginalAmount))

	suite.mockDepositRepo.AssertExpectations(suite.T())
	suite.mockLedgerRepo.AssertExpectations(suite.T())
}

func (suite *LinkerServiceTestSuite) TestUnlink_NotLinked() {
	ctx := context.Background()
	deposit := &domain.Deposit{
		DepositID:      uuid.NewString(),
		OriginalAmount: decimal.NewFromInt(800),
		CurrentBalance: decimal.NewFromInt(800),
		State:          domain.DepositPending,
	}

	suite.mockDepositRepo.On("FindDepositByID", ctx, deposit.DepositID).Return(deposit, nil).Once()

	unlinked, err := suite.service.Unlink(ctx, suite.userID, deposit.DepositID)

	suite.Require().Error(err)
	suite.Nil(unlinked)
	suite.ErrorIs(err, apperrors.ErrInvalidState)
	suite.mockLedgerRepo.AssertNotCalled(suite.T(), "DeleteEntryInTx", mock.Anything, mock.Anything, mock.Anything)
}

func TestLinkerServiceTestSuite(t *testing.T) {
	suite.Run(t, new(LinkerServiceTestSuite))
}
