package services

// ServiceContainer holds one instance of every service facade the
// handlers depend on.
type ServiceContainer struct {
	Account AccountSvcFacade
	Ledger  LedgerSvcFacade
	Deposit DepositSvcFacade
	Linker  LinkerSvcFacade
}
