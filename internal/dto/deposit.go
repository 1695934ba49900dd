package dto

import (
	"time"

	"github.com/finbooks/caledger/internal/core/domain"
	portssvc "github.com/finbooks/caledger/internal/core/ports/services"
	"github.com/shopspring/decimal"
)

// CreateDepositRequest defines the data needed to register a deposit.
// The source movement fields come from the bank statement importer; when
// present, the deposit amount must reconcile against the movement amount.
type CreateDepositRequest struct {
	OriginalAmount       decimal.Decimal  `json:"originalAmount" binding:"required,gt=0"`
	EntryDate            time.Time        `json:"entryDate" binding:"required"`
	Holder               string           `json:"holder" binding:"required"`
	Notes                string           `json:"notes"`
	SourceMovementID     *string          `json:"sourceMovementID"`
	SourceMovementAmount *decimal.Decimal `json:"sourceMovementAmount"`
}

// ToCreateDepositInput converts the request to the service input.
func (r CreateDepositRequest) ToCreateDepositInput() portssvc.CreateDepositInput {
	return portssvc.CreateDepositInput{
		OriginalAmount:       r.OriginalAmount,
		EntryDate:            r.EntryDate,
		Holder:               r.Holder,
		Notes:                r.Notes,
		SourceMovementID:     r.SourceMovementID,
		SourceMovementAmount: r.SourceMovementAmount,
	}
}

// UpdateDepositRequest defines the data allowed for editing a deposit.
// Use pointers to distinguish between zero-value updates and fields not provided.
type UpdateDepositRequest struct {
	OriginalAmount *decimal.Decimal `json:"originalAmount"`
	EntryDate      *time.Time       `json:"entryDate"`
	Holder         *string          `json:"holder"`
	Notes          *string          `json:"notes"`
}

// ToUpdateDepositInput converts the request to the service input.
func (r UpdateDepositRequest) ToUpdateDepositInput() portssvc.UpdateDepositInput {
	return portssvc.UpdateDepositInput{
		OriginalAmount: r.OriginalAmount,
		EntryDate:      r.EntryDate,
		Holder:         r.Holder,
		Notes:          r.Notes,
	}
}

// UseBalanceRequest defines a partial or total consumption of a deposit's balance.
type UseBalanceRequest struct {
	Amount           decimal.Decimal `json:"amount" binding:"required,gt=0"`
	UsageDate        time.Time       `json:"usageDate" binding:"required"`
	UsageType        string          `json:"usageType" binding:"required"`
	UsageDescription string          `json:"usageDescription"`
}

// ToUseBalanceInput converts the request to the service input.
func (r UseBalanceRequest) ToUseBalanceInput() portssvc.UseBalanceInput {
	return portssvc.UseBalanceInput{
		Amount:           r.Amount,
		UsageDate:        r.UsageDate,
		UsageType:        r.UsageType,
		UsageDescription: r.UsageDescription,
	}
}

// SettleDepositRequest closes out a deposit on the given usage date.
type SettleDepositRequest struct {
	UsageDate time.Time `json:"usageDate" binding:"required"`
}

// MarkCreditBalanceRequest sets the usable balance remaining on a deposit.
// Zero is allowed; the service bounds it against the original amount.
type MarkCreditBalanceRequest struct {
	RemainingAmount decimal.Decimal `json:"remainingAmount" binding:"gte=0"`
}

// ReturnDepositRequest records the deposit being sent back to its holder.
// The returned amount is snapshotted from the remaining balance.
type ReturnDepositRequest struct {
	ReturnDate time.Time `json:"returnDate" binding:"required"`
}

// LinkDepositRequest attaches a deposit to an account.
type LinkDepositRequest struct {
	AccountID string  `json:"accountID" binding:"required"`
	ClientID  *string `json:"clientID"`
}

// DepositResponse defines the data returned for a deposit.
// Mirrors domain.Deposit.
type DepositResponse struct {
	DepositID        string              `json:"depositID"`
	OriginalAmount   decimal.Decimal     `json:"originalAmount"`
	CurrentBalance   decimal.Decimal     `json:"currentBalance"`
	EntryDate        time.Time           `json:"entryDate"`
	UsageDate        *time.Time          `json:"usageDate,omitempty"`
	ReturnDate       *time.Time          `json:"returnDate,omitempty"`
	State            domain.DepositState `json:"state"`
	UsageType        string              `json:"usageType,omitempty"`
	UsageDescription string              `json:"usageDescription,omitempty"`
	ReturnedAmount   decimal.Decimal     `json:"returnedAmount"`
	Holder           string              `json:"holder"`
	Notes            string              `json:"notes,omitempty"`
	LinkedAccountID  *string             `json:"linkedAccountID,omitempty"`
	LinkedClientID   *string             `json:"linkedClientID,omitempty"`
	SourceMovementID *string             `json:"sourceMovementID,omitempty"`
	CreatedAt        time.Time           `json:"createdAt"`
	CreatedBy        string              `json:"createdBy"`
	LastUpdatedAt    time.Time           `json:"lastUpdatedAt"`
	LastUpdatedBy    string              `json:"lastUpdatedBy"`
}

// ToDepositResponse converts a domain.Deposit to DepositResponse DTO
func ToDepositResponse(d *domain.Deposit) DepositResponse {
	return DepositResponse{
		DepositID:        d.DepositID,
		OriginalAmount:   d.OriginalAmount,
		CurrentBalance:   d.CurrentBalance,
		EntryDate:        d.EntryDate,
		UsageDate:        d.UsageDate,
		ReturnDate:       d.ReturnDate,
		State:            d.State,
		UsageType:        d.UsageType,
		UsageDescription: d.UsageDescription,
		ReturnedAmount:   d.ReturnedAmount,
		Holder:           d.Holder,
		Notes:            d.Notes,
		LinkedAccountID:  d.LinkedAccountID,
		LinkedClientID:   d.LinkedClientID,
		SourceMovementID: d.SourceMovementID,
		CreatedAt:        d.CreatedAt,
		CreatedBy:        d.CreatedBy,
		LastUpdatedAt:    d.LastUpdatedAt,
		LastUpdatedBy:    d.LastUpdatedBy,
	}
}

// ToListDepositResponse converts a slice of domain.Deposit to DepositResponse DTOs
func ToListDepositResponse(deposits []domain.Deposit) []DepositResponse {
	res := make([]DepositResponse, len(deposits))
	for i, d := range deposits {
		res[i] = ToDepositResponse(&d)
	}
	return res
}

// ListDepositsParams defines query parameters for listing deposits.
type ListDepositsParams struct {
	Limit           int     `form:"limit,default=50"`
	NextToken       *string `form:"nextToken"`
	State           *string `form:"state" binding:"omitempty,oneof=PENDING SETTLED CREDIT_BALANCE LINKED RETURNED"`
	LinkedAccountID *string `form:"linkedAccountID"`
	FromDate        *string `form:"fromDate"` // RFC3339
	ToDate          *string `form:"toDate"`   // RFC3339
}

// ListDepositsResponse wraps one page of deposits with its continuation token.
type ListDepositsResponse struct {
	Deposits  []DepositResponse `json:"deposits"`
	NextToken *string           `json:"nextToken,omitempty"`
}
