package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"premium-subscription-backend/internal/domain"
	"premium-subscription-backend/internal/domain/model"
	"premium-subscription-backend/internal/domain/ports/repository"
)

var _ repository.PaymeTransactionRepository = (*paymeTransactionRepo)(nil)

type paymeTransactionRepo struct{ pool *pgxpool.Pool }

func NewPaymeTransactionRepo(pool *pgxpool.Pool) *paymeTransactionRepo {
	return &paymeTransactionRepo{pool: pool}
}

const paymeTxColumns = `id, payme_trans_id, user_id, plan_id, amount, status, state, reason, created_at, perform_at, cancel_at`

func (r *paymeTransactionRepo) Save(ctx context.Context, tx repository.Tx, t *model.PaymeTransaction) error {
	const q = `
INSERT INTO payme_transactions (id, payme_trans_id, user_id, plan_id, amount, status, state, reason, created_at, perform_at, cancel_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11);`

	_, err := execSQL(ctx, r.pool, tx, q, t.ID, t.PaymeTransID, t.UserID, t.PlanID, t.Amount, t.Status, t.State, t.Reason, t.CreatedAt, t.PerformAt, t.CancelAt)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		if isUniqueViolation(err) {
			return domain.ErrAlreadyExists
		}
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *paymeTransactionRepo) FindByPaymeTransID(ctx context.Context, tx repository.Tx, paymeTransID string) (*model.PaymeTransaction, error) {
	q := `SELECT ` + paymeTxColumns + ` FROM payme_transactions WHERE payme_trans_id=$1`
	if _, ok := tx.(pgx.Tx); ok {
		q += " FOR UPDATE"
	}
	row, err := pickRow(ctx, r.pool, tx, q+";", paymeTransID)
	if err != nil {
		return nil, err
	}
	return scanPaymeTransaction(row)
}

func (r *paymeTransactionRepo) FindPendingByUserAndPlan(ctx context.Context, tx repository.Tx, userID, planID string) (*model.PaymeTransaction, error) {
	const q = `SELECT ` + paymeTxColumns + ` FROM payme_transactions WHERE user_id=$1 AND plan_id=$2 AND status='PENDING' LIMIT 1;`
	row, err := pickRow(ctx, r.pool, tx, q, userID, planID)
	if err != nil {
		return nil, err
	}
	return scanPaymeTransaction(row)
}

func (r *paymeTransactionRepo) Perform(ctx context.Context, tx repository.Tx, paymeTransID string, at time.Time) error {
	const q = `UPDATE payme_transactions SET status='PAID', state=$2, perform_at=$3 WHERE payme_trans_id=$1;`
	_, err := execSQL(ctx, r.pool, tx, q, paymeTransID, model.PaymeStatePaid, at)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *paymeTransactionRepo) Cancel(ctx context.Context, tx repository.Tx, paymeTransID string, state model.PaymeTransactionState, reason int, at time.Time) error {
	const q = `UPDATE payme_transactions SET status='CANCELED', state=$2, reason=$3, cancel_at=$4 WHERE payme_trans_id=$1;`
	_, err := execSQL(ctx, r.pool, tx, q, paymeTransID, state, reason, at)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *paymeTransactionRepo) ListByCreatedRange(ctx context.Context, tx repository.Tx, from, to time.Time) ([]*model.PaymeTransaction, error) {
	const q = `SELECT ` + paymeTxColumns + ` FROM payme_transactions WHERE created_at >= $1 AND created_at <= $2 ORDER BY created_at ASC;`
	rows, err := queryRows(ctx, r.pool, tx, q, from, to)
	if err != nil {
		return nil, domain.ErrOperationFailed
	}
	defer rows.Close()

	var out []*model.PaymeTransaction
	for rows.Next() {
		t := new(model.PaymeTransaction)
		if err := rows.Scan(&t.ID, &t.PaymeTransID, &t.UserID, &t.PlanID, &t.Amount, &t.Status, &t.State, &t.Reason, &t.CreatedAt, &t.PerformAt, &t.CancelAt); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		out = append(out, t)
	}
	return out, nil
}

func scanPaymeTransaction(row pgx.Row) (*model.PaymeTransaction, error) {
	t := &model.PaymeTransaction{}
	if err := row.Scan(&t.ID, &t.PaymeTransID, &t.UserID, &t.PlanID, &t.Amount, &t.Status, &t.State, &t.Reason, &t.CreatedAt, &t.PerformAt, &t.CancelAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return t, nil
}
