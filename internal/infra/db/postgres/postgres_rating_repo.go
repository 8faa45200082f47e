package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"

	"premium-subscription-backend/internal/domain"
	"premium-subscription-backend/internal/domain/model"
	"premium-subscription-backend/internal/domain/ports/repository"
)

var _ repository.RatingRepository = (*ratingRepo)(nil)

type ratingRepo struct{ pool *pgxpool.Pool }

func NewRatingRepo(pool *pgxpool.Pool) *ratingRepo {
	return &ratingRepo{pool: pool}
}

func (r *ratingRepo) Save(ctx context.Context, tx repository.Tx, rt *model.Rating) error {
	const q = `INSERT INTO ratings (id, user_id, score, created_at) VALUES ($1,$2,$3,$4);`
	_, err := execSQL(ctx, r.pool, tx, q, rt.ID, rt.UserID, rt.Score, rt.CreatedAt)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *ratingRepo) Leaderboard(ctx context.Context, tx repository.Tx, from, to time.Time, limit int) ([]*model.RatingEntry, error) {
	const q = `
SELECT r.user_id, u.username, SUM(r.score) AS total
FROM ratings r
JOIN users u ON u.id = r.user_id
WHERE r.created_at >= $1 AND r.created_at < $2
GROUP BY r.user_id, u.username
ORDER BY total DESC
LIMIT $3;`

	rows, err := queryRows(ctx, r.pool, tx, q, from, to, limit)
	if err != nil {
		return nil, domain.ErrOperationFailed
	}
	defer rows.Close()

	var out []*model.RatingEntry
	for rows.Next() {
		e := new(model.RatingEntry)
		if err := rows.Scan(&e.UserID, &e.Username, &e.Total); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		out = append(out, e)
	}
	return out, nil
}
