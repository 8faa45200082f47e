package model

import (
	"time"

	"premium-subscription-backend/internal/domain"

	"github.com/google/uuid"
)

// User is the subscriber identity plus its coin wallet. Status is a derived
// field: true iff the user holds an ACTIVE plan whose end date has not passed.
// Its only writers are the reconciler and the expiry sweeper.
type User struct {
	ID              string
	Username        string
	Email           string
	Coins           int64
	Status          bool // premium flag
	PremiumAvatarID *string
	CreatedAt       time.Time
}

func NewUser(id, username, email string) (*User, error) {
	if id == "" {
		id = uuid.NewString()
	}
	if username == "" {
		return nil, domain.ErrInvalidArgument
	}
	return &User{
		ID:        id,
		Username:  username,
		Email:     email,
		CreatedAt: time.Now().UTC(),
	}, nil
}

func (u *User) IsZero() bool { return u == nil || u.ID == "" }
