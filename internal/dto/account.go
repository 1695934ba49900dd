package dto

import (
	"time"

	"github.com/finbooks/caledger/internal/core/domain"
	"github.com/shopspring/decimal"
)

// CreateAccountRequest defines the data needed to create a new account.
type CreateAccountRequest struct {
	Name        string             `json:"name" binding:"required"`
	AccountType domain.AccountType `json:"accountType" binding:"required,oneof=CHECKING SAVINGS CASH"`
}

// AccountResponse defines the data returned for an account.
// Mirrors domain.Account.
type AccountResponse struct {
	AccountID      string             `json:"accountID"`
	Name           string             `json:"name"`
	AccountType    domain.AccountType `json:"accountType"`
	Balance        decimal.Decimal    `json:"balance"`
	LastSequenceNo int64              `json:"lastSequenceNo"`
	CreatedAt      time.Time          `json:"createdAt"`
	CreatedBy      string             `json:"createdBy"`
	LastUpdatedAt  time.Time          `json:"lastUpdatedAt"`
	LastUpdatedBy  string             `json:"lastUpdatedBy"`
}

// ToAccountResponse converts a domain.Account to AccountResponse DTO
func ToAccountResponse(acc *domain.Account) AccountResponse {
	return AccountResponse{
		AccountID:      acc.AccountID,
		Name:           acc.Name,
		AccountType:    acc.AccountType,
		Balance:        acc.Balance,
		LastSequenceNo: acc.LastSequenceNo,
		CreatedAt:      acc.CreatedAt,
		CreatedBy:      acc.CreatedBy,
		LastUpdatedAt:  acc.LastUpdatedAt,
		LastUpdatedBy:  acc.LastUpdatedBy,
	}
}

// ToListAccountResponse converts a slice of domain.Account to a slice of AccountResponse DTOs
func ToListAccountResponse(accounts []domain.Account) []AccountResponse {
	res := make([]AccountResponse, len(accounts))
	for i, acc := range accounts {
		res[i] = ToAccountResponse(&acc)
	}
	return res
}

// AccountSummaryResponse defines the data returned for an account summary query.
type AccountSummaryResponse struct {
	AccountID    string          `json:"accountID"`
	EntryCount   int64           `json:"entryCount"`
	TotalCredits decimal.Decimal `json:"totalCredits"`
	TotalDebits  decimal.Decimal `json:"totalDebits"`
	Balance      decimal.Decimal `json:"balance"`
}

// ToAccountSummaryResponse converts a domain.AccountSummary to its DTO.
func ToAccountSummaryResponse(s *domain.AccountSummary) AccountSummaryResponse {
	return AccountSummaryResponse{
		AccountID:    s.AccountID,
		EntryCount:   s.EntryCount,
		TotalCredits: s.TotalCredits,
		TotalDebits:  s.TotalDebits,
		Balance:      s.Balance,
	}
}

// ListAccountsParams defines query parameters for listing accounts.
type ListAccountsParams struct {
	Limit  int `form:"limit,default=20"`
	Offset int `form:"offset,default=0"`
}

// ListAccountsResponse wraps the list of accounts.
type ListAccountsResponse struct {
	Accounts []AccountResponse `json:"accounts"`
}
