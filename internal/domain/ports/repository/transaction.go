package repository

import (
	"context"
	"time"

	"premium-subscription-backend/internal/domain/model"
)

// ClickTransactionRepository stores Click's two-phase transactions. Lookups
// mirror the protocol checks: by gateway id, by (user, plan, status), and by
// the prepare token handed out during the prepare step.
type ClickTransactionRepository interface {
	Save(ctx context.Context, tx Tx, t *model.ClickTransaction) error
	FindByClickTransID(ctx context.Context, tx Tx, clickTransID string) (*model.ClickTransaction, error)
	FindByUserPlanStatus(ctx context.Context, tx Tx, userID, planID string, status model.TransactionStatus) (*model.ClickTransaction, error)
	FindByPrepareID(ctx context.Context, tx Tx, userID, planID, prepareID string) (*model.ClickTransaction, error)
	FindPaidByPlanAndPrepareID(ctx context.Context, tx Tx, planID, prepareID string) (*model.ClickTransaction, error)
	UpdateStatus(ctx context.Context, tx Tx, id string, status model.TransactionStatus) error
}

type PaymeTransactionRepository interface {
	Save(ctx context.Context, tx Tx, t *model.PaymeTransaction) error
	FindByPaymeTransID(ctx context.Context, tx Tx, paymeTransID string) (*model.PaymeTransaction, error)
	FindPendingByUserAndPlan(ctx context.Context, tx Tx, userID, planID string) (*model.PaymeTransaction, error)
	// Perform settles a pending transaction: status PAID, state Paid, performAt.
	Perform(ctx context.Context, tx Tx, paymeTransID string, at time.Time) error
	// Cancel moves a transaction to CANCELED with the given fine state and
	// reason code, stamping cancelAt.
	Cancel(ctx context.Context, tx Tx, paymeTransID string, state model.PaymeTransactionState, reason int, at time.Time) error
	ListByCreatedRange(ctx context.Context, tx Tx, from, to time.Time) ([]*model.PaymeTransaction, error)
}
