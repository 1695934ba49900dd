package services

import "sync"

// AccountLocks serializes in-process mutations per account. The database
// row lock is the correctness guarantee; this registry keeps concurrent
// writers from piling up on the same row and aborting each other.
type AccountLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewAccountLocks creates an empty lock registry. One registry is shared
// by every service that mutates ledger rows.
func NewAccountLocks() *AccountLocks {
	return &AccountLocks{locks: make(map[string]*sync.Mutex)}
}

// Get returns the mutex for the given account, creating it on first use.
func (l *AccountLocks) Get(accountID string) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()
	m, ok := l.locks[accountID]
	if !ok {
		m = &sync.Mutex{}
		l.locks[accountID] = m
	}
	return m
}
