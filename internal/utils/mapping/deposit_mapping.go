package mapping

import (
	"github.com/finbooks/caledger/internal/core/domain"
	"github.com/finbooks/caledger/internal/models"
)

// ToModelDeposit converts a domain Deposit to a model Deposit
func ToModelDeposit(d domain.Deposit) models.Deposit {
	return models.Deposit{
		DepositID:        d.DepositID,
		OriginalAmount:   d.OriginalAmount,
		CurrentBalance:   d.CurrentBalance,
		EntryDate:        d.EntryDate,
		UsageDate:        d.UsageDate,
		ReturnDate:       d.ReturnDate,
		State:            models.DepositState(d.State),
		UsageType:        d.UsageType,
		UsageDescription: d.UsageDescription,
		ReturnedAmount:   d.ReturnedAmount,
		Holder:           d.Holder,
		Notes:            d.Notes,
		LinkedAccountID:  d.LinkedAccountID,
		LinkedClientID:   d.LinkedClientID,
		SourceMovementID: d.SourceMovementID,
		AuditFields:      ToModelAuditFields(d.AuditFields),
	}
}

// ToDomainDeposit converts a model Deposit to a domain Deposit
func ToDomainDeposit(m models.Deposit) domain.Deposit {
	return domain.Deposit{
		DepositID:        m.DepositID,
		OriginalAmount:   m.OriginalAmount,
		CurrentBalance:   m.CurrentBalance,
		EntryDate:        m.EntryDate,
		UsageDate:        m.UsageDate,
		ReturnDate:       m.ReturnDate,
		State:            domain.DepositState(m.State),
		UsageType:        m.UsageType,
		UsageDescription: m.UsageDescription,
		ReturnedAmount:   m.ReturnedAmount,
		Holder:           m.Holder,
		Notes:            m.Notes,
		LinkedAccountID:  m.LinkedAccountID,
		LinkedClientID:   m.LinkedClientID,
		SourceMovementID: m.SourceMovementID,
		AuditFields:      ToDomainAuditFields(m.AuditFields),
	}
}

// ToDomainDepositSlice converts a slice of model Deposits to domain Deposits
func ToDomainDepositSlice(ms []models.Deposit) []domain.Deposit {
	ds := make([]domain.Deposit, len(ms))
	for i, m := range ms {
		ds[i] = ToDomainDeposit(m)
	}
	return ds
}
