// File: internal/usecase/user_uc.go
package usecase

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"premium-subscription-backend/internal/domain"
	"premium-subscription-backend/internal/domain/model"
	"premium-subscription-backend/internal/domain/ports/repository"
	"premium-subscription-backend/internal/infra/logging"
)

// Compile-time check
var _ UserUseCase = (*userUC)(nil)

// UserUseCase exposes user operations for the admin API, including the
// coin-funded premium avatar purchase.
type UserUseCase interface {
	Register(ctx context.Context, username, email string) (*model.User, error)
	Get(ctx context.Context, id string) (*model.User, error)
	List(ctx context.Context, offset, limit int) ([]*model.User, error)
	// PurchasePremiumAvatar atomically checks the wallet covers the avatar
	// price, debits the coins and sets the avatar reference.
	PurchasePremiumAvatar(ctx context.Context, userID, avatarID string) (*model.User, error)
	ListAvatars(ctx context.Context) ([]*model.Avatar, error)
}

type userUC struct {
	users   repository.UserRepository
	avatars repository.AvatarRepository
	tm      repository.TransactionManager
	log     *zerolog.Logger
}

func NewUserUseCase(users repository.UserRepository, avatars repository.AvatarRepository, tm repository.TransactionManager, logger *zerolog.Logger) *userUC {
	return &userUC{
		users:   users,
		avatars: avatars,
		tm:      tm,
		log:     logger,
	}
}

func (u *userUC) Register(ctx context.Context, username, email string) (*model.User, error) {
	defer logging.TraceDuration(u.log, "UserUC.Register")()

	if email != "" {
		existing, err := u.users.FindByEmail(ctx, repository.NoTX, email)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		if existing != nil {
			return nil, domain.ErrAlreadyExists
		}
	}

	nu, err := model.NewUser("", username, email)
	if err != nil {
		return nil, err
	}
	if err := u.users.Save(ctx, repository.NoTX, nu); err != nil {
		return nil, err
	}
	return nu, nil
}

func (u *userUC) Get(ctx context.Context, id string) (*model.User, error) {
	return u.users.FindByID(ctx, repository.NoTX, id)
}

func (u *userUC) List(ctx context.Context, offset, limit int) ([]*model.User, error) {
	return u.users.List(ctx, repository.NoTX, offset, limit)
}

func (u *userUC) PurchasePremiumAvatar(ctx context.Context, userID, avatarID string) (*model.User, error) {
	defer logging.TraceDuration(u.log, "UserUC.PurchasePremiumAvatar")()

	var out *model.User
	// The read (wallet balance) and write (debit) must be one atomic unit;
	// FindByID locks the user row inside the transaction.
	txOpts := pgx.TxOptions{IsoLevel: pgx.Serializable}
	err := u.tm.WithTx(ctx, txOpts, func(ctx context.Context, tx repository.Tx) error {
		user, err := u.users.FindByID(ctx, tx, userID)
		if err != nil {
			return err
		}
		avatar, err := u.avatars.FindByID(ctx, tx, avatarID)
		if err != nil {
			return err
		}
		if user.Coins < avatar.Price {
			return domain.ErrInsufficientCoins
		}

		remaining := user.Coins - avatar.Price
		if err := u.users.UpdateWallet(ctx, tx, user.ID, remaining, &avatar.ID); err != nil {
			return err
		}
		user.Coins = remaining
		user.PremiumAvatarID = &avatar.ID
		out = user
		return nil
	})
	if err != nil {
		return nil, err
	}

	u.log.Info().Str("user_id", userID).Str("avatar_id", avatarID).Msg("premium avatar purchased")
	return out, nil
}

func (u *userUC) ListAvatars(ctx context.Context) ([]*model.Avatar, error) {
	return u.avatars.List(ctx, repository.NoTX)
}
