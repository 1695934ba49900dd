package mapping

import (
	"github.com/finbooks/caledger/internal/core/domain"
	"github.com/finbooks/caledger/internal/models"
)

// ToModelLedgerEntry converts a domain LedgerEntry to a model LedgerEntry
func ToModelLedgerEntry(d domain.LedgerEntry) models.LedgerEntry {
	return models.LedgerEntry{
		EntryID:          d.EntryID,
		AccountID:        d.AccountID,
		EntryDate:        d.EntryDate,
		Direction:        models.EntryDirection(d.Direction),
		Label:            d.Label,
		Amount:           d.Amount,
		ResultingBalance: d.ResultingBalance,
		SequenceNo:       d.SequenceNo,
		SourceDepositID:  d.SourceDepositID,
		AuditFields:      ToModelAuditFields(d.AuditFields),
	}
}

// ToDomainLedgerEntry converts a model LedgerEntry to a domain LedgerEntry
func ToDomainLedgerEntry(m models.LedgerEntry) domain.LedgerEntry {
	return domain.LedgerEntry{
		EntryID:          m.EntryID,
		AccountID:        m.AccountID,
		EntryDate:        m.EntryDate,
		Direction:        domain.EntryDirection(m.Direction),
		Label:            m.Label,
		Amount:           m.Amount,
		ResultingBalance: m.ResultingBalance,
		SequenceNo:       m.SequenceNo,
		SourceDepositID:  m.SourceDepositID,
		AuditFields:      ToDomainAuditFields(m.AuditFields),
	}
}

// ToDomainLedgerEntrySlice converts a slice of model LedgerEntries to domain LedgerEntries
func ToDomainLedgerEntrySlice(ms []models.LedgerEntry) []domain.LedgerEntry {
	ds := make([]domain.LedgerEntry, len(ms))
	for i, m := range ms {
		ds[i] = ToDomainLedgerEntry(m)
	}
	return ds
}
