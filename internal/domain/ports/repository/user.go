package repository

import (
	"context"

	"premium-subscription-backend/internal/domain/model"
)

type UserRepository interface {
	Save(ctx context.Context, tx Tx, u *model.User) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.User, error)
	FindByEmail(ctx context.Context, tx Tx, email string) (*model.User, error)
	List(ctx context.Context, tx Tx, offset, limit int) ([]*model.User, error)
	// UpdateStatus flips the derived premium flag. Callers must recompute it
	// from current UserPlan state, never toggle blindly.
	UpdateStatus(ctx context.Context, tx Tx, id string, premium bool) error
	// UpdateWallet debits/credits coins and optionally sets the premium avatar.
	UpdateWallet(ctx context.Context, tx Tx, id string, coins int64, premiumAvatarID *string) error
}

type AvatarRepository interface {
	Save(ctx context.Context, tx Tx, a *model.Avatar) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.Avatar, error)
	List(ctx context.Context, tx Tx) ([]*model.Avatar, error)
}
