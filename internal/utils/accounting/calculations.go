package accounting

import (
	"fmt"
	"sort"
	"time"

	"github.com/finbooks/caledger/internal/core/domain"
	"github.com/shopspring/decimal"
)

// reconcileEpsilon is the tolerance used when matching amounts against
// externally-sourced movement totals. Ledger math itself is exact.
var reconcileEpsilon = decimal.NewFromFloat(0.01)

// SignedAmount applies the direction's sign to an entry amount.
// This is the single place that fixes the CREDIT=+ / DEBIT=- convention,
// used by both the service layer and the repository recompute pass.
func SignedAmount(entry domain.LedgerEntry) (decimal.Decimal, error) {
	switch entry.Direction {
	case domain.Credit:
		return entry.Amount, nil
	case domain.Debit:
		return entry.Amount.Neg(), nil
	default:
		return decimal.Zero, fmt.Errorf("unknown entry direction '%s' encountered for entry ID %s", entry.Direction, entry.EntryID)
	}
}

// SortEntries orders entries by the ledger's total order: entry date
// first, per-account sequence number as the same-day tiebreak.
func SortEntries(entries []domain.LedgerEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		if !entries[i].EntryDate.Equal(entries[j].EntryDate) {
			return entries[i].EntryDate.Before(entries[j].EntryDate)
		}
		return entries[i].SequenceNo < entries[j].SequenceNo
	})
}

// ApplyRunningBalances re-derives ResultingBalance for the given entries
// as a running sum starting from baseline. Entries are sorted in place
// into the ledger's total order first. The returned value is the final
// running balance (equal to baseline when entries is empty).
func ApplyRunningBalances(entries []domain.LedgerEntry, baseline decimal.Decimal) (decimal.Decimal, error) {
	SortEntries(entries)
	running := baseline
	for i := range entries {
		signed, err := SignedAmount(entries[i])
		if err != nil {
			return decimal.Zero, err
		}
		running = running.Add(signed)
		entries[i].ResultingBalance = running
	}
	return running, nil
}

// Reconciles reports whether two externally-sourced monetary values agree
// within the reconciliation epsilon (0.01 of the unit).
func Reconciles(a, b decimal.Decimal) bool {
	return a.Sub(b).Abs().LessThanOrEqual(reconcileEpsilon)
}

// DayOf truncates a timestamp to its UTC calendar day. Entry, usage and
// return dates carry no time component; every date entering the ordering
// key passes through here.
func DayOf(t time.Time) time.Time {
	return time.Date(t.UTC().Year(), t.UTC().Month(), t.UTC().Day(), 0, 0, 0, 0, time.UTC)
}
