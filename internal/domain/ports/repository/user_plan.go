package repository

import (
	"context"
	"time"

	"premium-subscription-backend/internal/domain/model"
)

type UserPlanRepository interface {
	Save(ctx context.Context, tx Tx, up *model.UserPlan) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.UserPlan, error)
	ListByUser(ctx context.Context, tx Tx, userID string) ([]*model.UserPlan, error)
	// FindActiveByUser returns the ACTIVE plan with endDate >= now, or
	// ErrNotFound. Locks the row when called inside a transaction.
	FindActiveByUser(ctx context.Context, tx Tx, userID string, now time.Time) (*model.UserPlan, error)
	// ExpireStale flips rows that are still ACTIVE but past their end date to
	// EXPIRED for one user; returns how many it touched.
	ExpireStale(ctx context.Context, tx Tx, userID string, now time.Time) (int, error)
	// ListExpiredActive returns ACTIVE rows with endDate < now across all
	// users, for the sweeper.
	ListExpiredActive(ctx context.Context, tx Tx, now time.Time, limit int) ([]*model.UserPlan, error)
	UpdateStatus(ctx context.Context, tx Tx, id string, status model.UserPlanStatus) error
	// HasOtherActive reports whether the user holds another ACTIVE plan with
	// endDate >= now, excluding the given row.
	HasOtherActive(ctx context.Context, tx Tx, userID, exceptID string, now time.Time) (bool, error)
}
