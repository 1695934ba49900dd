package pgsql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/finbooks/caledger/internal/apperrors"
	"github.com/finbooks/caledger/internal/core/domain"
	portsrepo "github.com/finbooks/caledger/internal/core/ports/repositories"
	"github.com/finbooks/caledger/internal/models"
	"github.com/finbooks/caledger/internal/utils/accounting"
	"github.com/finbooks/caledger/internal/utils/mapping"
	"github.com/finbooks/caledger/internal/utils/pagination"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

type PgxLedgerRepository struct {
	BaseRepository
}

// newPgxLedgerRepository creates a new repository for ledger entry data.
func newPgxLedgerRepository(pool *pgxpool.Pool) *PgxLedgerRepository {
	return &PgxLedgerRepository{BaseRepository: BaseRepository{Pool: pool}}
}

// Ensure PgxLedgerRepository implements portsrepo.LedgerRepositoryWithTx
var _ portsrepo.LedgerRepositoryWithTx = (*PgxLedgerRepository)(nil)

const entryColumns = `entry_id, account_id, entry_date, direction, label, amount, resulting_balance, sequence_no, source_deposit_id, created_at, created_by, last_updated_at, last_updated_by`

func scanEntry(row pgx.Row) (*models.LedgerEntry, error) {
	var m models.LedgerEntry
	err := row.Scan(
		&m.EntryID,
		&m.AccountID,
		&m.EntryDate,
		&m.Direction,
		&m.Label,
		&m.Amount,
		&m.ResultingBalance,
		&m.SequenceNo,
		&m.SourceDepositID,
		&m.CreatedAt,
		&m.CreatedBy,
		&m.LastUpdatedAt,
		&m.LastUpdatedBy,
	)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func collectEntries(rows pgx.Rows) ([]models.LedgerEntry, error) {
	defer rows.Close()
	entries := []models.LedgerEntry{}
	for rows.Next() {
		m, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan ledger entry row: %w", err)
		}
		entries = append(entries, *m)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("error iterating ledger entry rows: %w", rows.Err())
	}
	return entries, nil
}

// lockAccountTx takes the account's row lock, serializing every mutation
// against the same account.
func lockAccountTx(ctx context.Context, tx pgx.Tx, accountID string) error {
	var id string
	err := tx.QueryRow(ctx, `SELECT account_id FROM accounts WHERE account_id = $1 FOR UPDATE;`, accountID).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("%w: account %s not found", apperrors.ErrNotFound, accountID)
		}
		return fmt.Errorf("failed to lock account %s: %w", accountID, mapPgError(err))
	}
	return nil
}

// FindEntryByID retrieves an entry by its ID.
func (r *PgxLedgerRepository) FindEntryByID(ctx context.Context, entryID string) (*domain.LedgerEntry, error) {
	query := `SELECT ` + entryColumns + ` FROM ledger_entries WHERE entry_id = $1;`

	m, err := scanEntry(r.Pool.QueryRow(ctx, query, entryID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find ledger entry by ID %s: %w", entryID, err)
	}

	entry := mapping.ToDomainLedgerEntry(*m)
	return &entry, nil
}

// FindEntryBySourceDeposit retrieves the entry mirroring the given deposit, if any.
func (r *PgxLedgerRepository) FindEntryBySourceDeposit(ctx context.Context, depositID string) (*domain.LedgerEntry, error) {
	return findEntryBySourceDeposit(ctx, r.Pool, depositID)
}

// FindEntryBySourceDepositInTx is the tx-scoped variant of FindEntryBySourceDeposit.
func (r *PgxLedgerRepository) FindEntryBySourceDepositInTx(ctx context.Context, tx pgx.Tx, depositID string) (*domain.LedgerEntry, error) {
	return findEntryBySourceDeposit(ctx, tx, depositID)
}

type rowQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func findEntryBySourceDeposit(ctx context.Context, q rowQuerier, depositID string) (*domain.LedgerEntry, error) {
	query := `SELECT ` + entryColumns + ` FROM ledger_entries WHERE source_deposit_id = $1;`

	m, err := scanEntry(q.QueryRow(ctx, query, depositID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find entry for deposit %s: %w", depositID, err)
	}

	entry := mapping.ToDomainLedgerEntry(*m)
	return &entry, nil
}

// ListEntriesByAccount retrieves a filtered page of an account's entries,
// most recent first, using (entry_date, sequence_no) as the cursor key.
func (r *PgxLedgerRepository) ListEntriesByAccount(ctx context.Context, accountID string, filter portsrepo.ListEntriesFilter, limit int, nextToken *string) ([]domain.LedgerEntry, *string, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `SELECT ` + entryColumns + ` FROM ledger_entries WHERE account_id = $1`
	args := []any{accountID}

	if filter.FromDate != nil {
		args = append(args, *filter.FromDate)
		query += fmt.Sprintf(" AND entry_date >= $%d", len(args))
	}
	if filter.ToDate != nil {
		args = append(args, *filter.ToDate)
		query += fmt.Sprintf(" AND entry_date <= $%d", len(args))
	}
	if filter.Direction != nil {
		args = append(args, string(*filter.Direction))
		query += fmt.Sprintf(" AND direction = $%d", len(args))
	}
	if nextToken != nil && *nextToken != "" {
		tokenDate, tokenSeq, err := pagination.DecodeEntryToken(*nextToken)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
		}
		args = append(args, tokenDate, tokenSeq)
		query += fmt.Sprintf(" AND (entry_date, sequence_no) < ($%d, $%d)", len(args)-1, len(args))
	}

	args = append(args, limit+1) // Fetch one extra row to detect the next page
	query += fmt.Sprintf(" ORDER BY entry_date DESC, sequence_no DESC LIMIT $%d;", len(args))

	rows, err := r.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to query ledger entries for account %s: %w", accountID, err)
	}

	modelEntries, err := collectEntries(rows)
	if err != nil {
		return nil, nil, err
	}

	var newNextToken *string
	if len(modelEntries) > limit {
		modelEntries = modelEntries[:limit]
		last := modelEntries[limit-1]
		token := pagination.EncodeEntryToken(last.EntryDate, last.SequenceNo)
		newNextToken = &token
	}

	return mapping.ToDomainLedgerEntrySlice(modelEntries), newNextToken, nil
}

// GetAccountSummary aggregates entry count and credit/debit totals for an
// account alongside its cached balance.
func (r *PgxLedgerRepository) GetAccountSummary(ctx context.Context, accountID string) (*domain.AccountSummary, error) {
	var balance decimal.Decimal
	err := r.Pool.QueryRow(ctx, `SELECT balance FROM accounts WHERE account_id = $1;`, accountID).Scan(&balance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to read balance for account %s: %w", accountID, err)
	}

	query := `
		SELECT COUNT(*),
		       COALESCE(SUM(amount) FILTER (WHERE direction = 'CREDIT'), 0),
		       COALESCE(SUM(amount) FILTER (WHERE direction = 'DEBIT'), 0)
		FROM ledger_entries
		WHERE account_id = $1;
	`
	summary := domain.AccountSummary{AccountID: accountID, Balance: balance}
	err = r.Pool.QueryRow(ctx, query, accountID).Scan(&summary.EntryCount, &summary.TotalCredits, &summary.TotalDebits)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate entries for account %s: %w", accountID, err)
	}

	return &summary, nil
}

// AppendEntry inserts the entry in its own transaction.
func (r *PgxLedgerRepository) AppendEntry(ctx context.Context, entry domain.LedgerEntry) (*domain.LedgerEntry, error) {
	var saved *domain.LedgerEntry
	err := r.WithTx(ctx, func(tx pgx.Tx) error {
		var txErr error
		saved, txErr = r.AppendEntryInTx(ctx, tx, entry)
		return txErr
	})
	if err != nil {
		return nil, err
	}
	return saved, nil
}

// AppendEntryInTx inserts the entry with the account's next sequence
// number and recomputes balances from the entry's date.
func (r *PgxLedgerRepository) AppendEntryInTx(ctx context.Context, tx pgx.Tx, entry domain.LedgerEntry) (*domain.LedgerEntry, error) {
	if err := lockAccountTx(ctx, tx, entry.AccountID); err != nil {
		return nil, err
	}

	// The sequence number hands out the same-day ordering tiebreak; it
	// only ever grows, even across edits and deletions.
	var seq int64
	err := tx.QueryRow(ctx, `
		UPDATE accounts
		SET last_sequence_no = last_sequence_no + 1, last_updated_at = $2, last_updated_by = $3
		WHERE account_id = $1
		RETURNING last_sequence_no;
	`, entry.AccountID, entry.LastUpdatedAt, entry.LastUpdatedBy).Scan(&seq)
	if err != nil {
		return nil, fmt.Errorf("failed to advance sequence for account %s: %w", entry.AccountID, mapPgError(err))
	}

	m := mapping.ToModelLedgerEntry(entry)
	m.SequenceNo = seq

	_, err = tx.Exec(ctx, `
		INSERT INTO ledger_entries (entry_id, account_id, entry_date, direction, label, amount, resulting_balance, sequence_no, source_deposit_id, created_at, created_by, last_updated_at, last_updated_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13);
	`,
		m.EntryID,
		m.AccountID,
		m.EntryDate,
		m.Direction,
		m.Label,
		m.Amount,
		decimal.Zero, // Placeholder until the recompute pass below
		m.SequenceNo,
		m.SourceDepositID,
		m.CreatedAt,
		m.CreatedBy,
		m.LastUpdatedAt,
		m.LastUpdatedBy,
	)
	if err != nil {
		if mapped := mapPgError(err); errors.Is(mapped, apperrors.ErrDuplicate) {
			return nil, fmt.Errorf("%w: deposit %v is already mirrored by a ledger entry", apperrors.ErrDuplicate, m.SourceDepositID)
		}
		return nil, fmt.Errorf("failed to insert ledger entry %s: %w", m.EntryID, err)
	}

	if err := r.recomputeFromTx(ctx, tx, entry.AccountID, &entry.EntryDate, entry.LastUpdatedBy, entry.LastUpdatedAt); err != nil {
		return nil, err
	}

	saved, err := scanEntry(tx.QueryRow(ctx, `SELECT `+entryColumns+` FROM ledger_entries WHERE entry_id = $1;`, m.EntryID))
	if err != nil {
		return nil, fmt.Errorf("failed to re-read ledger entry %s after recompute: %w", m.EntryID, err)
	}

	result := mapping.ToDomainLedgerEntry(*saved)
	return &result, nil
}

// UpdateEntryLabel mutates the label in place without touching balances.
func (r *PgxLedgerRepository) UpdateEntryLabel(ctx context.Context, entryID string, label string, userID string, now time.Time) error {
	cmdTag, err := r.Pool.Exec(ctx, `
		UPDATE ledger_entries
		SET label = $2, last_updated_at = $3, last_updated_by = $4
		WHERE entry_id = $1;
	`, entryID, label, now, userID)
	if err != nil {
		return fmt.Errorf("failed to update label for entry %s: %w", entryID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// UpdateEntry persists new amount/direction/date/label for the entry and
// fully recomputes the account, since a date change can reorder entries.
// The sequence number is deliberately left untouched.
func (r *PgxLedgerRepository) UpdateEntry(ctx context.Context, entry domain.LedgerEntry) error {
	return r.WithTx(ctx, func(tx pgx.Tx) error {
		if err := lockAccountTx(ctx, tx, entry.AccountID); err != nil {
			return err
		}

		m := mapping.ToModelLedgerEntry(entry)
		cmdTag, err := tx.Exec(ctx, `
			UPDATE ledger_entries
			SET entry_date = $2, direction = $3, label = $4, amount = $5, last_updated_at = $6, last_updated_by = $7
			WHERE entry_id = $1;
		`, m.EntryID, m.EntryDate, m.Direction, m.Label, m.Amount, m.LastUpdatedAt, m.LastUpdatedBy)
		if err != nil {
			return fmt.Errorf("failed to update ledger entry %s: %w", m.EntryID, err)
		}
		if cmdTag.RowsAffected() == 0 {
			return apperrors.ErrNotFound
		}

		return r.recomputeFromTx(ctx, tx, entry.AccountID, nil, entry.LastUpdatedBy, entry.LastUpdatedAt)
	})
}

// DeleteEntry removes the entry in its own transaction.
func (r *PgxLedgerRepository) DeleteEntry(ctx context.Context, entryID string) (*domain.LedgerEntry, error) {
	var deleted *domain.LedgerEntry
	err := r.WithTx(ctx, func(tx pgx.Tx) error {
		var txErr error
		deleted, txErr = r.DeleteEntryInTx(ctx, tx, entryID)
		return txErr
	})
	if err != nil {
		return nil, err
	}
	return deleted, nil
}

// DeleteEntryInTx removes the entry and recomputes balances from its
// former date. Returns the deleted entry.
func (r *PgxLedgerRepository) DeleteEntryInTx(ctx context.Context, tx pgx.Tx, entryID string) (*domain.LedgerEntry, error) {
	m, err := scanEntry(tx.QueryRow(ctx, `SELECT `+entryColumns+` FROM ledger_entries WHERE entry_id = $1;`, entryID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find ledger entry %s for deletion: %w", entryID, err)
	}

	if err := lockAccountTx(ctx, tx, m.AccountID); err != nil {
		return nil, err
	}

	if _, err := tx.Exec(ctx, `DELETE FROM ledger_entries WHERE entry_id = $1;`, entryID); err != nil {
		return nil, fmt.Errorf("failed to delete ledger entry %s: %w", entryID, err)
	}

	if err := r.recomputeFromTx(ctx, tx, m.AccountID, &m.EntryDate, m.LastUpdatedBy, time.Now().UTC()); err != nil {
		return nil, err
	}

	deleted := mapping.ToDomainLedgerEntry(*m)
	return &deleted, nil
}

// ClearAccount deletes every entry of the account and resets its cached
// balance and sequence counter.
func (r *PgxLedgerRepository) ClearAccount(ctx context.Context, accountID string, userID string, now time.Time) error {
	return r.WithTx(ctx, func(tx pgx.Tx) error {
		if err := lockAccountTx(ctx, tx, accountID); err != nil {
			return err
		}

		if _, err := tx.Exec(ctx, `DELETE FROM ledger_entries WHERE account_id = $1;`, accountID); err != nil {
			return fmt.Errorf("failed to clear entries for account %s: %w", accountID, err)
		}

		_, err := tx.Exec(ctx, `
			UPDATE accounts
			SET balance = 0, last_sequence_no = 0, last_updated_at = $2, last_updated_by = $3
			WHERE account_id = $1;
		`, accountID, now, userID)
		if err != nil {
			return fmt.Errorf("failed to reset balance for account %s: %w", accountID, err)
		}
		return nil
	})
}

// RecomputeFrom re-derives balances for entries dated on or after fromDate.
func (r *PgxLedgerRepository) RecomputeFrom(ctx context.Context, accountID string, fromDate time.Time, userID string, now time.Time) error {
	return r.WithTx(ctx, func(tx pgx.Tx) error {
		if err := lockAccountTx(ctx, tx, accountID); err != nil {
			return err
		}
		return r.recomputeFromTx(ctx, tx, accountID, &fromDate, userID, now)
	})
}

// RecomputeAll re-derives the whole ledger of the account from a zero baseline.
func (r *PgxLedgerRepository) RecomputeAll(ctx context.Context, accountID string, userID string, now time.Time) error {
	return r.WithTx(ctx, func(tx pgx.Tx) error {
		if err := lockAccountTx(ctx, tx, accountID); err != nil {
			return err
		}
		return r.recomputeFromTx(ctx, tx, accountID, nil, userID, now)
	})
}

// UpdateEntryAmountInTx rewrites the entry's amount and recomputes the
// owning account, inside the caller's transaction. Used when the original
// amount of a linked deposit changes.
func (r *PgxLedgerRepository) UpdateEntryAmountInTx(ctx context.Context, tx pgx.Tx, entryID string, amount decimal.Decimal, userID string, now time.Time) error {
	var accountID string
	var entryDate time.Time
	err := tx.QueryRow(ctx, `SELECT account_id, entry_date FROM ledger_entries WHERE entry_id = $1;`, entryID).Scan(&accountID, &entryDate)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.ErrNotFound
		}
		return fmt.Errorf("failed to find ledger entry %s for amount update: %w", entryID, err)
	}

	if err := lockAccountTx(ctx, tx, accountID); err != nil {
		return err
	}

	_, err = tx.Exec(ctx, `
		UPDATE ledger_entries
		SET amount = $2, last_updated_at = $3, last_updated_by = $4
		WHERE entry_id = $1;
	`, entryID, amount, now, userID)
	if err != nil {
		return fmt.Errorf("failed to update amount for entry %s: %w", entryID, err)
	}

	return r.recomputeFromTx(ctx, tx, accountID, &entryDate, userID, now)
}

// recomputeFromTx is the single recompute pass behind every ledger
// mutation. It re-derives resulting balances as a running sum over the
// (entry_date, sequence_no) order, starting from the resulting balance of
// the last entry strictly before fromDate (zero when fromDate is nil or
// nothing precedes it), then refreshes the account's cached balance.
// Callers must hold the account's row lock.
func (r *PgxLedgerRepository) recomputeFromTx(ctx context.Context, tx pgx.Tx, accountID string, fromDate *time.Time, userID string, now time.Time) error {
	baseline := decimal.Zero
	if fromDate != nil {
		err := tx.QueryRow(ctx, `
			SELECT resulting_balance FROM ledger_entries
			WHERE account_id = $1 AND entry_date < $2
			ORDER BY entry_date DESC, sequence_no DESC
			LIMIT 1;
		`, accountID, *fromDate).Scan(&baseline)
		if err != nil && !errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("failed to read recompute baseline for account %s: %w", accountID, err)
		}
	}

	query := `SELECT ` + entryColumns + ` FROM ledger_entries WHERE account_id = $1`
	args := []any{accountID}
	if fromDate != nil {
		args = append(args, *fromDate)
		query += ` AND entry_date >= $2`
	}
	query += ` ORDER BY entry_date, sequence_no;`

	rows, err := tx.Query(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to load entries for recompute of account %s: %w", accountID, err)
	}
	modelEntries, err := collectEntries(rows)
	if err != nil {
		return err
	}

	entries := mapping.ToDomainLedgerEntrySlice(modelEntries)
	finalBalance, err := accounting.ApplyRunningBalances(entries, baseline)
	if err != nil {
		return fmt.Errorf("recompute failed for account %s: %w", accountID, err)
	}

	batch := &pgx.Batch{}
	for i := range entries {
		batch.Queue(`UPDATE ledger_entries SET resulting_balance = $2 WHERE entry_id = $1;`, entries[i].EntryID, entries[i].ResultingBalance)
	}
	batch.Queue(`UPDATE accounts SET balance = $2, last_updated_at = $3, last_updated_by = $4 WHERE account_id = $1;`, accountID, finalBalance, now, userID)

	br := tx.SendBatch(ctx, batch)
	var batchErr error
	for i := 0; i < batch.Len(); i++ {
		if _, err := br.Exec(); err != nil && batchErr == nil {
			batchErr = fmt.Errorf("failed to write recomputed balances for account %s: %w", accountID, err)
		}
	}
	if err := br.Close(); err != nil && batchErr == nil {
		batchErr = fmt.Errorf("failed to close recompute batch for account %s: %w", accountID, err)
	}
	return batchErr
}
