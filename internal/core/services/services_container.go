package services

import (
	portsrepo "github.com/finbooks/caledger/internal/core/ports/repositories"
	portssvc "github.com/finbooks/caledger/internal/core/ports/services"
)

// NewServiceContainer creates a new service container with properly initialized dependencies
func NewServiceContainer(repos portsrepo.RepositoryProvider) *portssvc.ServiceContainer {
	// One lock registry shared by every service touching ledger rows.
	locks := NewAccountLocks()

	container := &portssvc.ServiceContainer{}
	container.Account = NewAccountService(repos.AccountRepo, repos.LedgerRepo)
	container.Ledger = NewLedgerService(repos.LedgerRepo, repos.AccountRepo, locks)
	container.Deposit = NewDepositService(repos.DepositRepo, repos.LedgerRepo, locks)
	container.Linker = NewLinkerService(repos.DepositRepo, repos.LedgerRepo, repos.AccountRepo, locks)

	return container
}

// Helper to check interface implementations at compile time
var (
	_ portssvc.AccountSvcFacade = (*accountService)(nil)
	_ portssvc.LedgerSvcFacade  = (*ledgerService)(nil)
	_ portssvc.DepositSvcFacade = (*depositService)(nil)
	_ portssvc.LinkerSvcFacade  = (*linkerService)(nil)
)
