package pgsql

import (
	"context"
	"errors"
	"fmt"

	"github.com/finbooks/caledger/internal/apperrors"
	"github.com/finbooks/caledger/internal/core/domain"
	portsrepo "github.com/finbooks/caledger/internal/core/ports/repositories"
	"github.com/finbooks/caledger/internal/models"
	"github.com/finbooks/caledger/internal/utils/mapping"
	"github.com/finbooks/caledger/internal/utils/pagination"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgxDepositRepository struct {
	BaseRepository
}

// newPgxDepositRepository creates a new repository for deposit data.
func newPgxDepositRepository(pool *pgxpool.Pool) *PgxDepositRepository {
	return &PgxDepositRepository{BaseRepository: BaseRepository{Pool: pool}}
}

// Ensure PgxDepositRepository implements portsrepo.DepositRepositoryWithTx
var _ portsrepo.DepositRepositoryWithTx = (*PgxDepositRepository)(nil)

const depositColumns = `deposit_id, original_amount, current_balance, entry_date, usage_date, return_date, state, usage_type, usage_description, returned_amount, holder, notes, linked_account_id, linked_client_id, source_movement_id, created_at, created_by, last_updated_at, last_updated_by`

func scanDeposit(row pgx.Row) (*models.Deposit, error) {
	var m models.Deposit
	err := row.Scan(
		&m.DepositID,
		&m.OriginalAmount,
		&m.CurrentBalance,
		&m.EntryDate,
		&m.UsageDate,
		&m.ReturnDate,
		&m.State,
		&m.UsageType,
		&m.UsageDescription,
		&m.ReturnedAmount,
		&m.Holder,
		&m.Notes,
		&m.LinkedAccountID,
		&m.LinkedClientID,
		&m.SourceMovementID,
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

// SaveDeposit inserts a new deposit.
func (r *PgxDepositRepository) SaveDeposit(ctx context.Context, deposit domain.Deposit) error {
	m := mapping.ToModelDeposit(deposit)

	query := `
		INSERT INTO deposits (` + depositColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19);
	`
	_, err := r.Pool.Exec(ctx, query,
		m.DepositID,
		m.OriginalAmount,
		m.CurrentBalance,
		m.EntryDate,
		m.UsageDate,
		m.ReturnDate,
		m.State,
		m.UsageType,
		m.UsageDescription,
		m.ReturnedAmount,
		m.Holder,
		m.Notes,
		m.LinkedAccountID,
		m.LinkedClientID,
		m.SourceMovementID,
		m.CreatedAt,
		m.CreatedBy,
		m.LastUpdatedAt,
		m.LastUpdatedBy,
	)
	if err != nil {
		if mapped := mapPgError(err); errors.Is(mapped, apperrors.ErrDuplicate) {
			return fmt.Errorf("%w: deposit with ID %s already exists", apperrors.ErrDuplicate, m.DepositID)
		}
		return fmt.Errorf("failed to save deposit %s: %w", m.DepositID, err)
	}
	return nil
}

// FindDepositByID retrieves a deposit by its ID.
func (r *PgxDepositRepository) FindDepositByID(ctx context.Context, depositID string) (*domain.Deposit, error) {
	query := `SELECT ` + depositColumns + ` FROM deposits WHERE deposit_id = $1;`

	m, err := scanDeposit(r.Pool.QueryRow(ctx, query, depositID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find deposit by ID %s: %w", depositID, err)
	}

	dep := mapping.ToDomainDeposit(*m)
	return &dep, nil
}

// FindDepositByIDForUpdate retrieves a deposit and locks its row.
// Must be called within a transaction.
func (r *PgxDepositRepository) FindDepositByIDForUpdate(ctx context.Context, tx pgx.Tx, depositID string) (*domain.Deposit, error) {
	query := `SELECT ` + depositColumns + ` FROM deposits WHERE deposit_id = $1 FOR UPDATE;`

	m, err := scanDeposit(tx.QueryRow(ctx, query, depositID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to lock deposit %s: %w", depositID, mapPgError(err))
	}

	dep := mapping.ToDomainDeposit(*m)
	return &dep, nil
}

// ListDeposits retrieves a filtered page of deposits, most recent entry
// date first, using (entry_date, created_at) as the cursor key.
func (r *PgxDepositRepository) ListDeposits(ctx context.Context, filter portsrepo.ListDepositsFilter, limit int, nextToken *string) ([]domain.Deposit, *string, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `SELECT ` + depositColumns + ` FROM deposits WHERE 1=1`
	args := []any{}

	if filter.State != nil {
		args = append(args, string(*filter.State))
		query += fmt.Sprintf(" AND state = $%d", len(args))
	}
	if filter.LinkedAccountID != nil {
		args = append(args, *filter.LinkedAccountID)
		query += fmt.Sprintf(" AND linked_account_id = $%d", len(args))
	}
	if filter.FromDate != nil {
		args = append(args, *filter.FromDate)
		query += fmt.Sprintf(" AND entry_date >= $%d", len(args))
	}
	if filter.ToDate != nil {
		args = append(args, *filter.ToDate)
		query += fmt.Sprintf(" AND entry_date <= $%d", len(args))
	}
	if nextToken != nil && *nextToken != "" {
		tokenDate, tokenCreatedAt, err := pagination.DecodeToken(*nextToken)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
		}
		args = append(args, tokenDate, tokenCreatedAt)
		query += fmt.Sprintf(" AND (entry_date, created_at) < ($%d, $%d)", len(args)-1, len(args))
	}

	args = append(args, limit+1) // Fetch one extra row to detect the next page
	query += fmt.Sprintf(" ORDER BY entry_date DESC, created_at DESC LIMIT $%d;", len(args))

	rows, err := r.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to query deposits: %w", err)
	}
	defer rows.Close()

	modelDeposits := []models.Deposit{}
	for rows.Next() {
		m, err := scanDeposit(rows)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to scan deposit row: %w", err)
		}
		modelDeposits = append(modelDeposits, *m)
	}
	if rows.Err() != nil {
		return nil, nil, fmt.Errorf("error iterating deposit rows: %w", rows.Err())
	}

	var newNextToken *string
	if len(modelDeposits) > limit {
		modelDeposits = modelDeposits[:limit]
		last := modelDeposits[limit-1]
		token := pagination.EncodeToken(last.EntryDate, last.CreatedAt)
		newNextToken = &token
	}

	return mapping.ToDomainDepositSlice(modelDeposits), newNextToken, nil
}

// UpdateDeposit persists the deposit's mutable fields.
func (r *PgxDepositRepository) UpdateDeposit(ctx context.Context, deposit domain.Deposit) error {
	return updateDeposit(ctx, r.Pool, deposit)
}

// UpdateDepositInTx is the tx-scoped variant of UpdateDeposit.
func (r *PgxDepositRepository) UpdateDepositInTx(ctx context.Context, tx pgx.Tx, deposit domain.Deposit) error {
	return updateDeposit(ctx, tx, deposit)
}

// execer covers both pgxpool.Pool and pgx.Tx for Exec-only statements.
type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

func updateDeposit(ctx context.Context, q execer, deposit domain.Deposit) error {
	m := mapping.ToModelDeposit(deposit)

	cmdTag, err := q.Exec(ctx, `
		UPDATE deposits
		SET original_amount = $2, current_balance = $3, entry_date = $4, usage_date = $5, return_date = $6,
		    state = $7, usage_type = $8, usage_description = $9, returned_amount = $10, holder = $11,
		    notes = $12, linked_account_id = $13, linked_client_id = $14, last_updated_at = $15, last_updated_by = $16
		WHERE deposit_id = $1;
	`,
		m.DepositID,
		m.OriginalAmount,
		m.CurrentBalance,
		m.EntryDate,
		m.UsageDate,
		m.ReturnDate,
		m.State,
		m.UsageType,
		m.UsageDescription,
		m.ReturnedAmount,
		m.Holder,
		m.Notes,
		m.LinkedAccountID,
		m.LinkedClientID,
		m.LastUpdatedAt,
		m.LastUpdatedBy,
	)
	if err != nil {
		return fmt.Errorf("failed to update deposit %s: %w", m.DepositID, mapPgError(err))
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// DeleteDeposit removes the deposit row.
func (r *PgxDepositRepository) DeleteDeposit(ctx context.Context, depositID string) error {
	return deleteDeposit(ctx, r.Pool, depositID)
}

// DeleteDepositInTx is the tx-scoped variant of DeleteDeposit.
func (r *PgxDepositRepository) DeleteDepositInTx(ctx context.Context, tx pgx.Tx, depositID string) error {
	return deleteDeposit(ctx, tx, depositID)
}

func deleteDeposit(ctx context.Context, q execer, depositID string) error {
	cmdTag, err := q.Exec(ctx, `DELETE FROM deposits WHERE deposit_id = $1;`, depositID)
	if err != nil {
		return fmt.Errorf("failed to delete deposit %s: %w", depositID, mapPgError(err))
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}
