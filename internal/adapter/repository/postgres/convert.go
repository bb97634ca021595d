package postgres

import (
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"

	"github.com/iho/movledger/internal/domain"
	"github.com/iho/movledger/internal/infrastructure/postgres/generated"
	"github.com/iho/movledger/internal/usecase"
)

const pgErrUniqueViolation = "23505"

// Constraint names from migrations/.
const (
	constraintAccountNumber    = "accounts_number_key"
	constraintMovementSequence = "movements_account_sequence_key"
	constraintMovementReversal = "movements_reverses_id_key"
)

// ErrForeignTx is returned when a repository receives a transaction that was
// not started by TxManager.
var ErrForeignTx = errors.New("postgres: transaction was not started by postgres.TxManager")

func queriesFor(tx usecase.Transaction) (*generated.Queries, error) {
	pgTx, ok := tx.(*Tx)
	if !ok {
		return nil, ErrForeignTx
	}
	return generated.New(pgTx.PgxTx()), nil
}

// translateUniqueViolation maps known unique constraints to domain errors.
func translateUniqueViolation(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != pgErrUniqueViolation {
		return err
	}

	switch pgErr.ConstraintName {
	case constraintAccountNumber:
		return domain.ErrDuplicateAccountNumber
	case constraintMovementSequence:
		return domain.ErrSequenceConflict
	case constraintMovementReversal:
		return domain.ErrMovementAlreadyReversed
	default:
		return err
	}
}

// Type conversion helpers.
func decimalToNumeric(d decimal.Decimal) pgtype.Numeric {
	var n pgtype.Numeric

	_ = n.Scan(d.String())

	return n
}

func numericToDecimal(n pgtype.Numeric) decimal.Decimal {
	if !n.Valid {
		return decimal.Zero
	}

	d, _ := decimal.NewFromString(n.Int.String())
	if n.Exp != 0 {
		d = d.Shift(n.Exp)
	}

	return d
}

func timeToPgTimestamptz(t time.Time) pgtype.Timestamptz {
	return pgtype.Timestamptz{Time: t, Valid: true}
}

func textFromPtr(s *string) pgtype.Text {
	if s == nil {
		return pgtype.Text{}
	}
	return pgtype.Text{String: *s, Valid: true}
}

func ptrFromText(t pgtype.Text) *string {
	if !t.Valid {
		return nil
	}
	s := t.String
	return &s
}
