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

var _ repository.AvatarRepository = (*avatarRepo)(nil)

type avatarRepo struct{ pool *pgxpool.Pool }

func NewAvatarRepo(pool *pgxpool.Pool) *avatarRepo {
	return &avatarRepo{pool: pool}
}

const avatarColumns = `id, name, url, price, created_at`

func (r *avatarRepo) Save(ctx context.Context, tx repository.Tx, a *model.Avatar) error {
	const q = `
INSERT INTO avatars (id, name, url, price, created_at)
VALUES ($1,$2,$3,$4,$5)
ON CONFLICT (id) DO UPDATE SET
	name = EXCLUDED.name,
	url = EXCLUDED.url,
	price = EXCLUDED.price;`

	_, err := execSQL(ctx, r.pool, tx, q, a.ID, a.Name, a.URL, a.Price, a.CreatedAt)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *avatarRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Avatar, error) {
	const q = `SELECT ` + avatarColumns + ` FROM avatars WHERE id=$1;`
	row, err := pickRow(ctx, r.pool, tx, q, id)
	if err != nil {
		return nil, err
	}
	return scanAvatar(row)
}

func (r *avatarRepo) List(ctx context.Context, tx repository.Tx) ([]*model.Avatar, error) {
	const q = `SELECT ` + avatarColumns + ` FROM avatars ORDER BY price ASC;`
	rows, err := queryRows(ctx, r.pool, tx, q)
	if err != nil {
		return nil, domain.ErrOperationFailed
	}
	defer rows.Close()

	var out []*model.Avatar
	for rows.Next() {
		a := new(model.Avatar)
		if err := rows.Scan(&a.ID, &a.Name, &a.URL, &a.Price, &a.CreatedAt); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		out = append(out, a)
	}
	return out, nil
}

func scanAvatar(row pgx.Row) (*model.Avatar, error) {
	a := &model.Avatar{}
	if err := row.Scan(&a.ID, &a.Name, &a.URL, &a.Price, &a.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return a, nil
}
