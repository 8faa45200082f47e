package repository

import (
	"context"
	"time"

	"premium-subscription-backend/internal/domain/model"
)

type RatingRepository interface {
	Save(ctx context.Context, tx Tx, r *model.Rating) error
	// Leaderboard returns per-user score totals for awards created within
	// [from, to), highest first.
	Leaderboard(ctx context.Context, tx Tx, from, to time.Time, limit int) ([]*model.RatingEntry, error)
}
