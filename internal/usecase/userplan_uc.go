// File: internal/usecase/userplan_uc.go
package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"premium-subscription-backend/internal/domain"
	"premium-subscription-backend/internal/domain/model"
	"premium-subscription-backend/internal/domain/ports/repository"
	"premium-subscription-backend/internal/infra/metrics"
	"premium-subscription-backend/internal/infra/redis"
)

// Compile-time check
var _ UserPlanUseCase = (*userPlanUC)(nil)

// UserPlanUseCase owns the subscription grant lifecycle. Both gateway
// handlers call HandleSuccessfulPayment at settlement; the expiry worker
// calls FinishExpired on its ticks.
type UserPlanUseCase interface {
	// HandleSuccessfulPayment grants the plan to the user: expires stale
	// rows, inserts an ACTIVE UserPlan and flips the premium flag, all in
	// one transaction. Fails with ErrActivePlanExists when the user already
	// holds a live plan.
	HandleSuccessfulPayment(ctx context.Context, userID, planID string) (*model.UserPlan, error)
	FindActive(ctx context.Context, userID string) (*model.UserPlan, error)
	ListByUser(ctx context.Context, userID string) ([]*model.UserPlan, error)
	// Cancel moves a grant to CANCELED and recomputes the owner's premium
	// flag from the remaining rows.
	Cancel(ctx context.Context, userPlanID string) error
	// FinishExpired flips stale ACTIVE rows to EXPIRED, demoting users with
	// no other live plan. Each row runs in its own transaction; one failure
	// does not stop the rest. Returns how many rows it expired.
	FinishExpired(ctx context.Context, limit int) (int, error)
}

type userPlanUC struct {
	txm       repository.TransactionManager
	userPlans repository.UserPlanRepository
	plans     repository.PlanRepository
	users     repository.UserRepository
	locker    redis.Locker
	log       *zerolog.Logger
}

func NewUserPlanUseCase(
	txm repository.TransactionManager,
	userPlans repository.UserPlanRepository,
	plans repository.PlanRepository,
	users repository.UserRepository,
	locker redis.Locker,
	log *zerolog.Logger,
) *userPlanUC {
	l := log.With().Str("component", "userplan_uc").Logger()
	return &userPlanUC{txm: txm, userPlans: userPlans, plans: plans, users: users, locker: locker, log: &l}
}

const grantLockTTL = 10 * time.Second

func (u *userPlanUC) HandleSuccessfulPayment(ctx context.Context, userID, planID string) (*model.UserPlan, error) {
	if userID == "" || planID == "" {
		return nil, domain.ErrInvalidArgument
	}

	// Serialize concurrent grants for the same user before they reach the
	// store transaction. The store's row locks remain the real guard.
	lockKey := "grant:" + userID
	token, err := u.locker.TryLock(ctx, lockKey, grantLockTTL)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := u.locker.Unlock(ctx, lockKey, token); err != nil {
			u.log.Warn().Err(err).Str("user_id", userID).Msg("release grant lock")
		}
	}()

	var granted *model.UserPlan
	err = u.txm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		now := time.Now().UTC()

		active, err := u.userPlans.FindActiveByUser(ctx, tx, userID, now)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return err
		}
		if active != nil {
			return domain.ErrActivePlanExists
		}

		// Self-healing against a sweeper that has not run yet.
		if n, err := u.userPlans.ExpireStale(ctx, tx, userID, now); err != nil {
			return err
		} else if n > 0 {
			u.log.Debug().Int("count", n).Str("user_id", userID).Msg("expired stale plans before grant")
		}

		plan, err := u.plans.FindByID(ctx, tx, planID)
		if err != nil {
			return err
		}

		up, err := model.NewUserPlan(userID, plan, now)
		if err != nil {
			return err
		}
		if err := u.userPlans.Save(ctx, tx, up); err != nil {
			return err
		}
		if err := u.users.UpdateStatus(ctx, tx, userID, true); err != nil {
			return err
		}
		granted = up
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.IncSubscriptionsGranted()
	u.log.Info().Str("user_id", userID).Str("plan_id", planID).
		Time("end_date", granted.EndDate).Msg("subscription granted")
	return granted, nil
}

func (u *userPlanUC) FindActive(ctx context.Context, userID string) (*model.UserPlan, error) {
	return u.userPlans.FindActiveByUser(ctx, repository.NoTX, userID, time.Now().UTC())
}

func (u *userPlanUC) ListByUser(ctx context.Context, userID string) ([]*model.UserPlan, error) {
	return u.userPlans.ListByUser(ctx, repository.NoTX, userID)
}

func (u *userPlanUC) Cancel(ctx context.Context, userPlanID string) error {
	return u.txm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		up, err := u.userPlans.FindByID(ctx, tx, userPlanID)
		if err != nil {
			return err
		}
		if up.Status != model.UserPlanStatusActive {
			return nil
		}
		if err := u.userPlans.UpdateStatus(ctx, tx, up.ID, model.UserPlanStatusCanceled); err != nil {
			return err
		}
		return u.demoteIfNoneActive(ctx, tx, up.UserID, up.ID)
	})
}

func (u *userPlanUC) FinishExpired(ctx context.Context, limit int) (int, error) {
	now := time.Now().UTC()
	stale, err := u.userPlans.ListExpiredActive(ctx, repository.NoTX, now, limit)
	if err != nil {
		return 0, err
	}

	done := 0
	for _, up := range stale {
		err := u.txm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
			if err := u.userPlans.UpdateStatus(ctx, tx, up.ID, model.UserPlanStatusExpired); err != nil {
				return err
			}
			return u.demoteIfNoneActive(ctx, tx, up.UserID, up.ID)
		})
		if err != nil {
			// Isolate and continue: one bad row must not block the rest.
			u.log.Error().Err(err).Str("user_plan_id", up.ID).Str("user_id", up.UserID).
				Msg("expire user plan")
			continue
		}
		done++
	}

	if done > 0 {
		metrics.IncSubscriptionsExpired(done)
	}
	return done, nil
}

// demoteIfNoneActive recomputes the premium flag from current rows: the flag
// stays true only while another live ACTIVE plan exists.
func (u *userPlanUC) demoteIfNoneActive(ctx context.Context, tx repository.Tx, userID, exceptID string) error {
	other, err := u.userPlans.HasOtherActive(ctx, tx, userID, exceptID, time.Now().UTC())
	if err != nil {
		return err
	}
	if other {
		return nil
	}
	return u.users.UpdateStatus(ctx, tx, userID, false)
}
