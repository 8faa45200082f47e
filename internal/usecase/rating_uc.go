// File: internal/usecase/rating_uc.go
package usecase

import (
	"context"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"premium-subscription-backend/internal/domain"
	"premium-subscription-backend/internal/domain/model"
	"premium-subscription-backend/internal/domain/ports/repository"
)

// Compile-time check
var _ RatingUseCase = (*ratingUC)(nil)

// RatingUseCase records score awards and serves period leaderboards. An award
// also credits the user's coin wallet by the same amount.
type RatingUseCase interface {
	Award(ctx context.Context, userID string, score int64) (*model.Rating, error)
	// Leaderboard returns score totals for "daily", "weekly" or "monthly";
	// period boundaries are UTC instants, no zone shifting.
	Leaderboard(ctx context.Context, period string, limit int) ([]*model.RatingEntry, error)
}

type ratingUC struct {
	ratings repository.RatingRepository
	users   repository.UserRepository
	tm      repository.TransactionManager
	log     *zerolog.Logger
}

func NewRatingUseCase(ratings repository.RatingRepository, users repository.UserRepository, tm repository.TransactionManager, logger *zerolog.Logger) *ratingUC {
	return &ratingUC{ratings: ratings, users: users, tm: tm, log: logger}
}

func (u *ratingUC) Award(ctx context.Context, userID string, score int64) (*model.Rating, error) {
	rating, err := model.NewRating(userID, score)
	if err != nil {
		return nil, err
	}

	// Award row and wallet credit commit together.
	err = u.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		user, err := u.users.FindByID(ctx, tx, userID)
		if err != nil {
			return err
		}
		if err := u.ratings.Save(ctx, tx, rating); err != nil {
			return err
		}
		return u.users.UpdateWallet(ctx, tx, user.ID, user.Coins+score, nil)
	})
	if err != nil {
		return nil, err
	}
	return rating, nil
}

func (u *ratingUC) Leaderboard(ctx context.Context, period string, limit int) ([]*model.RatingEntry, error) {
	if limit <= 0 {
		limit = 10
	}
	now := time.Now().UTC()
	from, ok := periodStart(period, now)
	if !ok {
		return nil, domain.ErrInvalidArgument
	}
	return u.ratings.Leaderboard(ctx, repository.NoTX, from, now, limit)
}

func periodStart(period string, now time.Time) (time.Time, bool) {
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	switch period {
	case "daily":
		return day, true
	case "weekly":
		// Week starts Monday.
		offset := (int(day.Weekday()) + 6) % 7
		return day.AddDate(0, 0, -offset), true
	case "monthly":
		return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC), true
	}
	return time.Time{}, false
}
