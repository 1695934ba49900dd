package dto

import (
	"time"

	"github.com/finbooks/caledger/internal/core/domain"
	portssvc "github.com/finbooks/caledger/internal/core/ports/services"
	"github.com/shopspring/decimal"
)

// CreateEntryRequest defines the data needed to append a ledger entry.
// Dates are RFC3339; only the calendar day is kept.
type CreateEntryRequest struct {
	EntryDate time.Time             `json:"entryDate" binding:"required"`
	Direction domain.EntryDirection `json:"direction" binding:"required,oneof=CREDIT DEBIT"`
	Label     string                `json:"label" binding:"required"`
	Amount    decimal.Decimal       `json:"amount" binding:"required,gt=0"`
}

// ToCreateEntryInput converts the request to the service input for accountID.
func (r CreateEntryRequest) ToCreateEntryInput(accountID string) portssvc.CreateEntryInput {
	return portssvc.CreateEntryInput{
		AccountID: accountID,
		EntryDate: r.EntryDate,
		Direction: r.Direction,
		Label:     r.Label,
		Amount:    r.Amount,
	}
}

// UpdateEntryRequest defines the data allowed for editing an entry.
// Use pointers to distinguish between zero-value updates and fields not provided.
type UpdateEntryRequest struct {
	Label     *string                `json:"label"`
	Amount    *decimal.Decimal       `json:"amount"`
	Direction *domain.EntryDirection `json:"direction" binding:"omitempty,oneof=CREDIT DEBIT"`
	EntryDate *time.Time             `json:"entryDate"`
}

// ToUpdateEntryInput converts the request to the service input.
func (r UpdateEntryRequest) ToUpdateEntryInput() portssvc.UpdateEntryInput {
	return portssvc.UpdateEntryInput{
		Label:     r.Label,
		Amount:    r.Amount,
		Direction: r.Direction,
		EntryDate: r.EntryDate,
	}
}

// EntryResponse defines the data returned for a ledger entry.
// Mirrors domain.LedgerEntry.
type EntryResponse struct {
	EntryID          string                `json:"entryID"`
	AccountID        string                `json:"accountID"`
	EntryDate        time.Time             `json:"entryDate"`
	Direction        domain.EntryDirection `json:"direction"`
	Label            string                `json:"label"`
	Amount           decimal.Decimal       `json:"amount"`
	ResultingBalance decimal.Decimal       `json:"resultingBalance"`
	SequenceNo       int64                 `json:"sequenceNo"`
	SourceDepositID  *string               `json:"sourceDepositID,omitempty"`
	CreatedAt        time.Time             `json:"createdAt"`
	CreatedBy        string                `json:"createdBy"`
	LastUpdatedAt    time.Time             `json:"lastUpdatedAt"`
	LastUpdatedBy    string                `json:"lastUpdatedBy"`
}

// ToEntryResponse converts a domain.LedgerEntry to EntryResponse DTO
func ToEntryResponse(e *domain.LedgerEntry) EntryResponse {
	return EntryResponse{
		EntryID:          e.EntryID,
		AccountID:        e.AccountID,
		EntryDate:        e.EntryDate,
		Direction:        e.Direction,
		Label:            e.Label,
		Amount:           e.Amount,
		ResultingBalance: e.ResultingBalance,
		SequenceNo:       e.SequenceNo,
		SourceDepositID:  e.SourceDepositID,
		CreatedAt:        e.CreatedAt,
		CreatedBy:        e.CreatedBy,
		LastUpdatedAt:    e.LastUpdatedAt,
		LastUpdatedBy:    e.LastUpdatedBy,
	}
}

// ToListEntryResponse converts a slice of domain.LedgerEntry to EntryResponse DTOs
func ToListEntryResponse(entries []domain.LedgerEntry) []EntryResponse {
	res := make([]EntryResponse, len(entries))
	for i, e := range entries {
		res[i] = ToEntryResponse(&e)
	}
	return res
}

// ListEntriesParams defines query parameters for listing an account's entries.
type ListEntriesParams struct {
	Limit     int     `form:"limit,default=50"`
	NextToken *string `form:"nextToken"`
	FromDate  *string `form:"fromDate"`  // RFC3339
	ToDate    *string `form:"toDate"`    // RFC3339
	Direction *string `form:"direction"` // CREDIT or DEBIT
}

// ListEntriesResponse wraps one page of entries with its continuation token.
type ListEntriesResponse struct {
	Entries   []EntryResponse `json:"entries"`
	NextToken *string         `json:"nextToken,omitempty"`
}
