package model

import (
	"time"

	"premium-subscription-backend/internal/domain"

	"github.com/google/uuid"
)

// Rating is a single score award. Awards also credit the user's coin wallet.
type Rating struct {
	ID        string
	UserID    string
	Score     int64
	CreatedAt time.Time
}

func NewRating(userID string, score int64) (*Rating, error) {
	if userID == "" || score <= 0 {
		return nil, domain.ErrInvalidArgument
	}
	return &Rating{
		ID:        uuid.NewString(),
		UserID:    userID,
		Score:     score,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// RatingEntry is one leaderboard row: total score per user over a period.
type RatingEntry struct {
	UserID   string
	Username string
	Total    int64
}
