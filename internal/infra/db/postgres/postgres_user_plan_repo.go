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

var _ repository.UserPlanRepository = (*userPlanRepo)(nil)

type userPlanRepo struct{ pool *pgxpool.Pool }

func NewUserPlanRepo(pool *pgxpool.Pool) *userPlanRepo {
	return &userPlanRepo{pool: pool}
}

const userPlanColumns = `id, user_id, plan_id, start_date, end_date, status, created_at`

func (r *userPlanRepo) Save(ctx context.Context, tx repository.Tx, up *model.UserPlan) error {
	const q = `
INSERT INTO user_plans (id, user_id, plan_id, start_date, end_date, status, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7)
ON CONFLICT (id) DO UPDATE SET start_date=$4, end_date=$5, status=$6;`

	_, err := execSQL(ctx, r.pool, tx, q, up.ID, up.UserID, up.PlanID, up.StartDate, up.EndDate, up.Status, up.CreatedAt)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *userPlanRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.UserPlan, error) {
	q := `SELECT ` + userPlanColumns + ` FROM user_plans WHERE id=$1`
	if _, ok := tx.(pgx.Tx); ok {
		q += " FOR UPDATE"
	}
	row, err := pickRow(ctx, r.pool, tx, q+";", id)
	if err != nil {
		return nil, err
	}
	return scanUserPlan(row)
}

func (r *userPlanRepo) ListByUser(ctx context.Context, tx repository.Tx, userID string) ([]*model.UserPlan, error) {
	rows, err := queryRows(ctx, r.pool, tx, `SELECT `+userPlanColumns+` FROM user_plans WHERE user_id=$1 ORDER BY created_at DESC;`, userID)
	if err != nil {
		return nil, domain.ErrOperationFailed
	}
	defer rows.Close()
	return collectUserPlans(rows)
}

func (r *userPlanRepo) FindActiveByUser(ctx context.Context, tx repository.Tx, userID string, now time.Time) (*model.UserPlan, error) {
	q := `SELECT ` + userPlanColumns + ` FROM user_plans WHERE user_id=$1 AND status='ACTIVE' AND end_date >= $2 LIMIT 1`
	if _, ok := tx.(pgx.Tx); ok {
		q += " FOR UPDATE"
	}
	row, err := pickRow(ctx, r.pool, tx, q+";", userID, now)
	if err != nil {
		return nil, err
	}
	return scanUserPlan(row)
}

func (r *userPlanRepo) ExpireStale(ctx context.Context, tx repository.Tx, userID string, now time.Time) (int, error) {
	const q = `UPDATE user_plans SET status='EXPIRED' WHERE user_id=$1 AND status='ACTIVE' AND end_date < $2;`
	tag, err := execSQL(ctx, r.pool, tx, q, userID, now)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return 0, err
		}
		return 0, domain.ErrOperationFailed
	}
	return int(tag.RowsAffected()), nil
}

func (r *userPlanRepo) ListExpiredActive(ctx context.Context, tx repository.Tx, now time.Time, limit int) ([]*model.UserPlan, error) {
	if limit <= 0 {
		limit = 500
	}
	const q = `SELECT ` + userPlanColumns + ` FROM user_plans WHERE status='ACTIVE' AND end_date < $1 ORDER BY end_date ASC LIMIT $2;`
	rows, err := queryRows(ctx, r.pool, tx, q, now, limit)
	if err != nil {
		return nil, domain.ErrOperationFailed
	}
	defer rows.Close()
	return collectUserPlans(rows)
}

func (r *userPlanRepo) UpdateStatus(ctx context.Context, tx repository.Tx, id string, status model.UserPlanStatus) error {
	_, err := execSQL(ctx, r.pool, tx, `UPDATE user_plans SET status=$2 WHERE id=$1;`, id, status)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *userPlanRepo) HasOtherActive(ctx context.Context, tx repository.Tx, userID, exceptID string, now time.Time) (bool, error) {
	const q = `SELECT EXISTS(SELECT 1 FROM user_plans WHERE user_id=$1 AND id<>$2 AND status='ACTIVE' AND end_date >= $3);`
	row, err := pickRow(ctx, r.pool, tx, q, userID, exceptID, now)
	if err != nil {
		return false, err
	}
	var exists bool
	if err := row.Scan(&exists); err != nil {
		return false, domain.ErrReadDatabaseRow
	}
	return exists, nil
}

func scanUserPlan(row pgx.Row) (*model.UserPlan, error) {
	up := &model.UserPlan{}
	if err := row.Scan(&up.ID, &up.UserID, &up.PlanID, &up.StartDate, &up.EndDate, &up.Status, &up.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return up, nil
}

func collectUserPlans(rows pgx.Rows) ([]*model.UserPlan, error) {
	var out []*model.UserPlan
	for rows.Next() {
		up := new(model.UserPlan)
		if err := rows.Scan(&up.ID, &up.UserID, &up.PlanID, &up.StartDate, &up.EndDate, &up.Status, &up.CreatedAt); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		out = append(out, up)
	}
	return out, nil
}
