package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/iho/movledger/internal/domain"
	"github.com/iho/movledger/internal/infrastructure/postgres/generated"
	"github.com/iho/movledger/internal/usecase"
)

// MovementRepository implements usecase.MovementRepository. The movements
// table has no update or delete path.
type MovementRepository struct {
	queries *generated.Queries
}

// NewMovementRepository creates a new MovementRepository.
func NewMovementRepository(db generated.DBTX) *MovementRepository {
	return &MovementRepository{
		queries: generated.New(db),
	}
}

// Append inserts a movement within a transaction. A duplicate
// (account_id, sequence) surfaces as domain.ErrSequenceConflict.
func (r *MovementRepository) Append(ctx context.Context, tx usecase.Transaction, movement *domain.Movement) error {
	queries, err := queriesFor(tx)
	if err != nil {
		return err
	}

	_, err = queries.AppendMovement(ctx, generated.AppendMovementParams{
		ID:               movement.ID,
		AccountID:        movement.AccountID,
		Sequence:         movement.Sequence,
		Timestamp:        timeToPgTimestamptz(movement.Timestamp),
		Kind:             string(movement.Kind),
		Amount:           decimalToNumeric(movement.Amount),
		ResultingBalance: decimalToNumeric(movement.ResultingBalance),
		ReversesID:       textFromPtr(movement.ReversesID),
		CreatedAt:        timeToPgTimestamptz(movement.CreatedAt),
	})

	return translateUniqueViolation(err)
}

// GetByID retrieves a movement by ID.
func (r *MovementRepository) GetByID(ctx context.Context, id string) (*domain.Movement, error) {
	row, err := r.queries.GetMovementByID(ctx, id)
	return movementResult(row, err)
}

// GetLatest returns the account's last movement.
func (r *MovementRepository) GetLatest(ctx context.Context, accountID string) (*domain.Movement, error) {
	row, err := r.queries.GetLatestMovement(ctx, accountID)
	return movementResult(row, err)
}

// GetLatestTx returns the account's last movement as seen by tx.
func (r *MovementRepository) GetLatestTx(ctx context.Context, tx usecase.Transaction, accountID string) (*domain.Movement, error) {
	queries, err := queriesFor(tx)
	if err != nil {
		return nil, err
	}

	row, err := queries.GetLatestMovement(ctx, accountID)
	return movementResult(row, err)
}

// GetReversalOf returns the movement that reverses movementID.
func (r *MovementRepository) GetReversalOf(ctx context.Context, tx usecase.Transaction, movementID string) (*domain.Movement, error) {
	queries, err := queriesFor(tx)
	if err != nil {
		return nil, err
	}

	row, err := queries.GetMovementReversal(ctx, pgtype.Text{String: movementID, Valid: true})
	return movementResult(row, err)
}

// ListByAccount returns a page of movements newest-first.
func (r *MovementRepository) ListByAccount(ctx context.Context, accountID string, limit, offset int) ([]*domain.Movement, error) {
	rows, err := r.queries.ListMovementsByAccount(ctx, generated.ListMovementsByAccountParams{
		AccountID: accountID,
		Limit:     int32(limit),
		Offset:    int32(offset),
	})
	return movementsResult(rows, err)
}

// ListByAccountInRange returns movements with from <= timestamp <= to,
// newest-first.
func (r *MovementRepository) ListByAccountInRange(ctx context.Context, accountID string, from, to time.Time) ([]*domain.Movement, error) {
	rows, err := r.queries.ListMovementsInRange(ctx, generated.ListMovementsInRangeParams{
		AccountID: accountID,
		From:      timeToPgTimestamptz(from),
		To:        timeToPgTimestamptz(to),
	})
	return movementsResult(rows, err)
}

// History returns every movement of the account oldest-first.
func (r *MovementRepository) History(ctx context.Context, accountID string) ([]*domain.Movement, error) {
	rows, err := r.queries.ListAccountHistory(ctx, accountID)
	return movementsResult(rows, err)
}

func movementResult(row generated.Movement, err error) (*domain.Movement, error) {
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrMovementNotFound
		}

		return nil, err
	}

	return rowToMovement(row), nil
}

func movementsResult(rows []generated.Movement, err error) ([]*domain.Movement, error) {
	if err != nil {
		return nil, err
	}

	movements := make([]*domain.Movement, 0, len(rows))
	for _, row := range rows {
		movements = append(movements, rowToMovement(row))
	}

	return movements, nil
}

func rowToMovement(row generated.Movement) *domain.Movement {
	return &domain.Movement{
		ID:               row.ID,
		AccountID:        row.AccountID,
		Sequence:         row.Sequence,
		Timestamp:        row.Timestamp.Time.UTC(),
		Kind:             domain.MovementKind(row.Kind),
		Amount:           numericToDecimal(row.Amount),
		ResultingBalance: numericToDecimal(row.ResultingBalance),
		ReversesID:       ptrFromText(row.ReversesID),
		CreatedAt:        row.CreatedAt.Time.UTC(),
	}
}
