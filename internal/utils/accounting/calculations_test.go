package accounting

import (
	"testing"
	"time"

	"github.com/finbooks/caledger/internal/core/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestSignedAmount(t *testing.T) {
	credit := domain.LedgerEntry{Direction: domain.Credit, Amount: decimal.NewFromInt(150)}
	debit := domain.LedgerEntry{Direction: domain.Debit, Amount: decimal.NewFromInt(40)}

	signed, err := SignedAmount(credit)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(150).Equal(signed))

	signed, err = SignedAmount(debit)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(-40).Equal(signed))

	_, err = SignedAmount(domain.LedgerEntry{Direction: "TRANSFER", Amount: decimal.NewFromInt(1)})
	assert.Error(t, err)
}

func TestApplyRunningBalances_PrefixSumInvariant(t *testing.T) {
	entries := []domain.LedgerEntry{
		{EntryID: "a", EntryDate: day(2024, 3, 1), SequenceNo: 1, Direction: domain.Credit, Amount: decimal.NewFromInt(100)},
		{EntryID: "b", EntryDate: day(2024, 3, 2), SequenceNo: 2, Direction: domain.Debit, Amount: decimal.NewFromInt(40)},
		{EntryID: "c", EntryDate: day(2024, 3, 3), SequenceNo: 3, Direction: domain.Credit, Amount: decimal.NewFromInt(25)},
	}

	final, err := ApplyRunningBalances(entries, decimal.Zero)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(85).Equal(final))

	// resultingBalance[k] == resultingBalance[k-1] + signed(amount[k]), with balance -1 = 0
	prev := decimal.Zero
	for _, e := range entries {
		signed, err := SignedAmount(e)
		require.NoError(t, err)
		assert.True(t, prev.Add(signed).Equal(e.ResultingBalance), "entry %s", e.EntryID)
		prev = e.ResultingBalance
	}
}

func TestApplyRunningBalances_ReordersEarlierDate(t *testing.T) {
	// Appended later but dated earlier: the engine must reorder by date.
	entries := []domain.LedgerEntry{
		{EntryID: "later", EntryDate: day(2024, 3, 10), SequenceNo: 1, Direction: domain.Credit, Amount: decimal.NewFromInt(1000)},
		{EntryID: "earlier", EntryDate: day(2024, 3, 5), SequenceNo: 2, Direction: domain.Debit, Amount: decimal.NewFromInt(300)},
	}

	final, err := ApplyRunningBalances(entries, decimal.Zero)
	require.NoError(t, err)

	assert.Equal(t, "earlier", entries[0].EntryID)
	assert.True(t, decimal.NewFromInt(-300).Equal(entries[0].ResultingBalance))
	assert.Equal(t, "later", entries[1].EntryID)
	assert.True(t, decimal.NewFromInt(700).Equal(entries[1].ResultingBalance))
	assert.True(t, decimal.NewFromInt(700).Equal(final))
}

func TestApplyRunningBalances_SameDaySequenceTiebreak(t *testing.T) {
	entries := []domain.LedgerEntry{
		{EntryID: "second", EntryDate: day(2024, 6, 1), SequenceNo: 8, Direction: domain.Debit, Amount: decimal.NewFromInt(10)},
		{EntryID: "first", EntryDate: day(2024, 6, 1), SequenceNo: 3, Direction: domain.Credit, Amount: decimal.NewFromInt(50)},
	}

	_, err := ApplyRunningBalances(entries, decimal.Zero)
	require.NoError(t, err)

	assert.Equal(t, "first", entries[0].EntryID)
	assert.True(t, decimal.NewFromInt(50).Equal(entries[0].ResultingBalance))
	assert.True(t, decimal.NewFromInt(40).Equal(entries[1].ResultingBalance))
}

func TestApplyRunningBalances_Baseline(t *testing.T) {
	entries := []domain.LedgerEntry{
		{EntryID: "x", EntryDate: day(2024, 1, 2), SequenceNo: 1, Direction: domain.Debit, Amount: decimal.NewFromInt(30)},
	}

	final, err := ApplyRunningBalances(entries, decimal.NewFromInt(100))
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(70).Equal(entries[0].ResultingBalance))
	assert.True(t, decimal.NewFromInt(70).Equal(final))

	// Empty range keeps the baseline.
	final, err = ApplyRunningBalances(nil, decimal.NewFromInt(100))
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(100).Equal(final))
}

// Deleting a middle movement: a ledger of [+100, -40, +25] loses the -40.
// Recomputing the tail from the deleted entry's date with the prior
// entry's balance as baseline yields [100, 125].
func TestApplyRunningBalances_MiddleDeletion(t *testing.T) {
	entries := []domain.LedgerEntry{
		{EntryID: "a", EntryDate: day(2024, 3, 1), SequenceNo: 1, Direction: domain.Credit, Amount: decimal.NewFromInt(100)},
		{EntryID: "b", EntryDate: day(2024, 3, 5), SequenceNo: 2, Direction: domain.Debit, Amount: decimal.NewFromInt(40)},
		{EntryID: "c", EntryDate: day(2024, 3, 9), SequenceNo: 3, Direction: domain.Credit, Amount: decimal.NewFromInt(25)},
	}
	_, err := ApplyRunningBalances(entries, decimal.Zero)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(85).Equal(entries[2].ResultingBalance))

	// Drop the -40 and replay the entries dated on or after its date,
	// seeded with the surviving predecessor's resulting balance.
	baseline := entries[0].ResultingBalance
	tail := []domain.LedgerEntry{entries[2]}
	final, err := ApplyRunningBalances(tail, baseline)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(100).Equal(entries[0].ResultingBalance))
	assert.True(t, decimal.NewFromInt(125).Equal(tail[0].ResultingBalance))
	assert.True(t, decimal.NewFromInt(125).Equal(final))
}

func TestApplyRunningBalances_Idempotent(t *testing.T) {
	build := func() []domain.LedgerEntry {
		return []domain.LedgerEntry{
			{EntryID: "a", EntryDate: day(2024, 2, 1), SequenceNo: 1, Direction: domain.Credit, Amount: decimal.NewFromInt(100)},
			{EntryID: "b", EntryDate: day(2024, 2, 1), SequenceNo: 2, Direction: domain.Debit, Amount: decimal.NewFromInt(40)},
			{EntryID: "c", EntryDate: day(2024, 2, 9), SequenceNo: 3, Direction: domain.Credit, Amount: decimal.NewFromInt(25)},
		}
	}

	first := build()
	_, err := ApplyRunningBalances(first, decimal.Zero)
	require.NoError(t, err)

	// Run again over the already-computed slice.
	_, err = ApplyRunningBalances(first, decimal.Zero)
	require.NoError(t, err)

	second := build()
	_, err = ApplyRunningBalances(second, decimal.Zero)
	require.NoError(t, err)

	for i := range first {
		assert.True(t, first[i].ResultingBalance.Equal(second[i].ResultingBalance))
	}
}

func TestReconciles(t *testing.T) {
	assert.True(t, Reconciles(decimal.NewFromFloat(100.00), decimal.NewFromFloat(100.01)))
	assert.True(t, Reconciles(decimal.NewFromFloat(100.01), decimal.NewFromFloat(100.00)))
	assert.False(t, Reconciles(decimal.NewFromFloat(100.00), decimal.NewFromFloat(100.02)))
}

func TestDayOf(t *testing.T) {
	loc := time.FixedZone("CET", 3600)
	stamp := time.Date(2024, 3, 10, 0, 30, 0, 0, loc) // 2024-03-09 23:30 UTC
	assert.Equal(t, day(2024, 3, 9), DayOf(stamp))
}
