package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"premium-subscription-backend/internal/domain"
	"premium-subscription-backend/internal/domain/model"
	"premium-subscription-backend/internal/domain/ports/repository"
)

var _ repository.ClickTransactionRepository = (*clickTransactionRepo)(nil)

type clickTransactionRepo struct{ pool *pgxpool.Pool }

func NewClickTransactionRepo(pool *pgxpool.Pool) *clickTransactionRepo {
	return &clickTransactionRepo{pool: pool}
}

const clickTxColumns = `id, click_trans_id, prepare_id, user_id, plan_id, amount, status, sign_time, created_date`

// Save inserts a new row. click_trans_id carries a unique index; a duplicate
// insert from a concurrent prepare surfaces as ErrAlreadyExists.
func (r *clickTransactionRepo) Save(ctx context.Context, tx repository.Tx, t *model.ClickTransaction) error {
	const q = `
INSERT INTO click_transactions (id, click_trans_id, prepare_id, user_id, plan_id, amount, status, sign_time, created_date)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9);`

	_, err := execSQL(ctx, r.pool, tx, q, t.ID, t.ClickTransID, t.PrepareID, t.UserID, t.PlanID, t.Amount, t.Status, t.SignTime, t.CreatedDate)
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

func (r *clickTransactionRepo) FindByClickTransID(ctx context.Context, tx repository.Tx, clickTransID string) (*model.ClickTransaction, error) {
	q := `SELECT ` + clickTxColumns + ` FROM click_transactions WHERE click_trans_id=$1`
	if _, ok := tx.(pgx.Tx); ok {
		q += " FOR UPDATE"
	}
	row, err := pickRow(ctx, r.pool, tx, q+";", clickTransID)
	if err != nil {
		return nil, err
	}
	return scanClickTransaction(row)
}

func (r *clickTransactionRepo) FindByUserPlanStatus(ctx context.Context, tx repository.Tx, userID, planID string, status model.TransactionStatus) (*model.ClickTransaction, error) {
	const q = `SELECT ` + clickTxColumns + ` FROM click_transactions WHERE user_id=$1 AND plan_id=$2 AND status=$3 LIMIT 1;`
	row, err := pickRow(ctx, r.pool, tx, q, userID, planID, status)
	if err != nil {
		return nil, err
	}
	return scanClickTransaction(row)
}

func (r *clickTransactionRepo) FindByPrepareID(ctx context.Context, tx repository.Tx, userID, planID, prepareID string) (*model.ClickTransaction, error) {
	const q = `SELECT ` + clickTxColumns + ` FROM click_transactions WHERE user_id=$1 AND plan_id=$2 AND prepare_id=$3 LIMIT 1;`
	row, err := pickRow(ctx, r.pool, tx, q, userID, planID, prepareID)
	if err != nil {
		return nil, err
	}
	return scanClickTransaction(row)
}

func (r *clickTransactionRepo) FindPaidByPlanAndPrepareID(ctx context.Context, tx repository.Tx, planID, prepareID string) (*model.ClickTransaction, error) {
	const q = `SELECT ` + clickTxColumns + ` FROM click_transactions WHERE plan_id=$1 AND prepare_id=$2 AND status='PAID' LIMIT 1;`
	row, err := pickRow(ctx, r.pool, tx, q, planID, prepareID)
	if err != nil {
		return nil, err
	}
	return scanClickTransaction(row)
}

func (r *clickTransactionRepo) UpdateStatus(ctx context.Context, tx repository.Tx, id string, status model.TransactionStatus) error {
	_, err := execSQL(ctx, r.pool, tx, `UPDATE click_transactions SET status=$2 WHERE id=$1;`, id, status)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}

func scanClickTransaction(row pgx.Row) (*model.ClickTransaction, error) {
	t := &model.ClickTransaction{}
	if err := row.Scan(&t.ID, &t.ClickTransID, &t.PrepareID, &t.UserID, &t.PlanID, &t.Amount, &t.Status, &t.SignTime, &t.CreatedDate); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return t, nil
}
