// File: internal/usecase/payme_uc.go
package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"premium-subscription-backend/internal/domain"
	"premium-subscription-backend/internal/domain/model"
	"premium-subscription-backend/internal/domain/ports/repository"
	"premium-subscription-backend/internal/gateway/payme"
	"premium-subscription-backend/internal/infra/metrics"
)

// Compile-time check
var _ PaymeUseCase = (*paymeUC)(nil)

// PaymeUseCase drives the six Payme JSON-RPC methods. Business failures come
// back inside the Reply as protocol error objects; the error return carries
// store/infra faults only.
type PaymeUseCase interface {
	HandleTransactionMethods(ctx context.Context, req payme.Request) (payme.Reply, error)
	// GenerateLink builds the base64 checkout URL for the plan.
	GenerateLink(ctx context.Context, userID, planID string) (string, error)
}

// PaymeCredentials is the merchant-side configuration the protocol needs.
type PaymeCredentials struct {
	MerchantID string
}

// A pending transaction the gateway never performs is cancelable after this
// window, per the merchant API's 12-hour rule.
const paymeExpiryWindow = 720 * time.Minute

type paymeUC struct {
	creds     PaymeCredentials
	txm       repository.TransactionManager
	paymeTxs  repository.PaymeTransactionRepository
	plans     repository.PlanRepository
	users     repository.UserRepository
	userPlans UserPlanUseCase
	log       *zerolog.Logger
}

func NewPaymeUseCase(
	creds PaymeCredentials,
	txm repository.TransactionManager,
	paymeTxs repository.PaymeTransactionRepository,
	plans repository.PlanRepository,
	users repository.UserRepository,
	userPlans UserPlanUseCase,
	log *zerolog.Logger,
) *paymeUC {
	l := log.With().Str("component", "payme_uc").Logger()
	return &paymeUC{
		creds: creds, txm: txm, paymeTxs: paymeTxs,
		plans: plans, users: users, userPlans: userPlans, log: &l,
	}
}

func (u *paymeUC) HandleTransactionMethods(ctx context.Context, req payme.Request) (payme.Reply, error) {
	switch req.Method {
	case payme.MethodCheckPerformTransaction:
		return u.checkPerformTransaction(ctx, req.Params)
	case payme.MethodCreateTransaction:
		return u.createTransaction(ctx, req.Params)
	case payme.MethodPerformTransaction:
		return u.performTransaction(ctx, req.Params)
	case payme.MethodCancelTransaction:
		return u.cancelTransaction(ctx, req.Params)
	case payme.MethodCheckTransaction:
		return u.checkTransaction(ctx, req.Params)
	case payme.MethodGetStatement:
		return u.getStatement(ctx, req.Params)
	default:
		return payme.Reply{}, domain.ErrInvalidArgument
	}
}

func (u *paymeUC) checkPerformTransaction(ctx context.Context, p payme.Params) (payme.Reply, error) {
	fail, err := u.checkAccount(ctx, repository.NoTX, p, false)
	if err != nil {
		return payme.Reply{}, err
	}
	if fail != nil {
		return payme.Failed(fail, p.ID), nil
	}
	return payme.OK(payme.AllowResult{Allow: true}), nil
}

func (u *paymeUC) createTransaction(ctx context.Context, p payme.Params) (payme.Reply, error) {
	fail, err := u.checkAccount(ctx, repository.NoTX, p, true)
	if err != nil {
		return payme.Reply{}, err
	}
	if fail != nil {
		return payme.Failed(fail, p.ID), nil
	}

	var reply payme.Reply
	err = u.txm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		now := time.Now().UTC()

		// One concurrent attempt per (user, plan): a pending transaction with
		// the same gateway id is a replay, a different id is a conflict.
		pending, err := u.paymeTxs.FindPendingByUserAndPlan(ctx, tx, p.Account.UserID, p.Account.PlanID)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return err
		}
		if pending != nil {
			if pending.PaymeTransID == p.ID {
				reply = payme.OK(createSnapshot(pending))
			} else {
				reply = payme.Failed(payme.ErrTransactionInProcess, p.ID)
			}
			return nil
		}

		existing, err := u.paymeTxs.FindByPaymeTransID(ctx, tx, p.ID)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return err
		}
		if existing != nil {
			if now.Sub(existing.CreatedAt) > paymeExpiryWindow {
				switch existing.Status {
				case model.TransactionStatusPending:
					if err := u.paymeTxs.Cancel(ctx, tx, existing.PaymeTransID, model.PaymeStatePendingCanceled, payme.ReasonTimeout, now); err != nil {
						return err
					}
					reply = payme.Failed(payme.ErrCantDoOperation.WithState(int(model.PaymeStatePendingCanceled), payme.ReasonTimeout), p.ID)
					return nil
				case model.TransactionStatusCanceled:
					// A dead transaction id never comes back as a live one.
					reason := payme.ReasonTimeout
					if existing.Reason != nil {
						reason = *existing.Reason
					}
					reply = payme.Failed(payme.ErrCantDoOperation.WithState(int(existing.State), reason), p.ID)
					return nil
				}
				// PAID rows replay their snapshot regardless of age: the
				// settlement already happened.
			}
			reply = payme.OK(createSnapshot(existing))
			return nil
		}

		// Final authorization gate against plan/user changes since the
		// initial validation.
		fail, err := u.checkAccount(ctx, tx, p, true)
		if err != nil {
			return err
		}
		if fail != nil {
			reply = payme.Failed(fail, p.ID)
			return nil
		}

		t := &model.PaymeTransaction{
			ID:           ulid.Make().String(),
			PaymeTransID: p.ID,
			UserID:       p.Account.UserID,
			PlanID:       p.Account.PlanID,
			Amount:       p.Amount,
			Status:       model.TransactionStatusPending,
			State:        model.PaymeStatePending,
			CreatedAt:    now,
		}
		if err := u.paymeTxs.Save(ctx, tx, t); err != nil {
			return err
		}
		metrics.IncPayment("payme", string(model.TransactionStatusPending))
		reply = payme.OK(createSnapshot(t))
		return nil
	})
	if err != nil {
		return payme.Reply{}, err
	}
	return reply, nil
}

func (u *paymeUC) performTransaction(ctx context.Context, p payme.Params) (payme.Reply, error) {
	var (
		reply   payme.Reply
		settled *model.PaymeTransaction
	)
	err := u.txm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		now := time.Now().UTC()

		t, err := u.paymeTxs.FindByPaymeTransID(ctx, tx, p.ID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				reply = payme.Failed(payme.ErrTransactionNotFound, p.ID)
				return nil
			}
			return err
		}

		switch t.Status {
		case model.TransactionStatusPaid:
			// Idempotent replay: same perform time every call.
			reply = payme.OK(payme.PerformResult{
				Transaction: t.ID,
				State:       int(model.PaymeStatePaid),
				PerformTime: millisOrZero(t.PerformAt),
			})
			return nil
		case model.TransactionStatusPending:
			if now.Sub(t.CreatedAt) > paymeExpiryWindow {
				if err := u.paymeTxs.Cancel(ctx, tx, t.PaymeTransID, model.PaymeStatePendingCanceled, payme.ReasonTimeout, now); err != nil {
					return err
				}
				metrics.IncPayment("payme", string(model.TransactionStatusCanceled))
				reply = payme.Failed(payme.ErrCantDoOperation.WithState(int(model.PaymeStatePendingCanceled), payme.ReasonTimeout), p.ID)
				return nil
			}
			// The irreversible settlement point.
			if err := u.paymeTxs.Perform(ctx, tx, t.PaymeTransID, now); err != nil {
				return err
			}
			settled = t
			reply = payme.OK(payme.PerformResult{
				Transaction: t.ID,
				State:       int(model.PaymeStatePaid),
				PerformTime: now.UnixMilli(),
			})
			return nil
		default:
			reply = payme.Failed(payme.ErrCantDoOperation, p.ID)
			return nil
		}
	})
	if err != nil {
		return payme.Reply{}, err
	}

	if settled != nil {
		metrics.IncPayment("payme", string(model.TransactionStatusPaid))
		metrics.AddPaymentRevenue("payme", settled.Amount/100)

		// The payment is settled; a failed grant is logged and handled
		// out-of-band, never rolled back.
		if _, err := u.userPlans.HandleSuccessfulPayment(ctx, settled.UserID, settled.PlanID); err != nil {
			metrics.IncGrantFailure("payme")
			u.log.Error().Err(err).Str("user_id", settled.UserID).Str("plan_id", settled.PlanID).
				Str("payme_trans_id", settled.PaymeTransID).Msg("grant after payme settlement")
		}
	}
	return reply, nil
}

func (u *paymeUC) cancelTransaction(ctx context.Context, p payme.Params) (payme.Reply, error) {
	reason := 0
	if p.Reason != nil {
		reason = *p.Reason
	}

	var reply payme.Reply
	err := u.txm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		now := time.Now().UTC()

		t, err := u.paymeTxs.FindByPaymeTransID(ctx, tx, p.ID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				reply = payme.Failed(payme.ErrTransactionNotFound, p.ID)
				return nil
			}
			return err
		}

		switch {
		case t.Status == model.TransactionStatusPending:
			if err := u.paymeTxs.Cancel(ctx, tx, t.PaymeTransID, model.PaymeStatePendingCanceled, reason, now); err != nil {
				return err
			}
			metrics.IncPayment("payme", string(model.TransactionStatusCanceled))
			reply = payme.OK(payme.CancelResult{
				Transaction: t.ID,
				State:       int(model.PaymeStatePendingCanceled),
				CancelTime:  now.UnixMilli(),
			})
		case t.State != model.PaymeStatePaid:
			// Already terminal; report the stored snapshot unchanged.
			reply = payme.OK(payme.CancelResult{
				Transaction: t.ID,
				State:       int(t.State),
				CancelTime:  millisOrZero(t.CancelAt),
			})
		default:
			// Cancel after settlement. The granted plan is NOT revoked here.
			if err := u.paymeTxs.Cancel(ctx, tx, t.PaymeTransID, model.PaymeStatePaidCanceled, reason, now); err != nil {
				return err
			}
			metrics.IncPayment("payme", string(model.TransactionStatusCanceled))
			reply = payme.OK(payme.CancelResult{
				Transaction: t.ID,
				State:       int(model.PaymeStatePaidCanceled),
				CancelTime:  now.UnixMilli(),
			})
		}
		return nil
	})
	if err != nil {
		return payme.Reply{}, err
	}
	return reply, nil
}

func (u *paymeUC) checkTransaction(ctx context.Context, p payme.Params) (payme.Reply, error) {
	t, err := u.paymeTxs.FindByPaymeTransID(ctx, repository.NoTX, p.ID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return payme.Failed(payme.ErrTransactionNotFound, p.ID), nil
		}
		return payme.Reply{}, err
	}
	return payme.OK(payme.CheckResult{
		CreateTime:  t.CreatedAt.UnixMilli(),
		PerformTime: millisOrZero(t.PerformAt),
		CancelTime:  millisOrZero(t.CancelAt),
		Transaction: t.ID,
		State:       int(t.State),
		Reason:      t.Reason,
	}), nil
}

func (u *paymeUC) getStatement(ctx context.Context, p payme.Params) (payme.Reply, error) {
	from := time.UnixMilli(p.From).UTC()
	to := time.UnixMilli(p.To).UTC()
	list, err := u.paymeTxs.ListByCreatedRange(ctx, repository.NoTX, from, to)
	if err != nil {
		return payme.Reply{}, err
	}

	out := make([]payme.StatementTransaction, 0, len(list))
	for _, t := range list {
		out = append(out, payme.StatementTransaction{
			ID:     t.PaymeTransID,
			Time:   t.CreatedAt.UnixMilli(),
			Amount: t.Amount,
			Account: payme.Account{
				PlanID: t.PlanID,
				UserID: t.UserID,
			},
			CreateTime:  t.CreatedAt.UnixMilli(),
			PerformTime: millisPtr(t.PerformAt),
			CancelTime:  millisPtr(t.CancelAt),
			Transaction: t.ID,
			State:       int(t.State),
			Reason:      t.Reason,
		})
	}
	return payme.OK(payme.StatementResult{Transactions: out}), nil
}

func (u *paymeUC) GenerateLink(ctx context.Context, userID, planID string) (string, error) {
	if userID == "" || planID == "" {
		return "", domain.ErrInvalidArgument
	}
	plan, err := u.plans.FindByID(ctx, repository.NoTX, planID)
	if err != nil {
		return "", err
	}
	return payme.PaymentLink(payme.LinkParams{
		MerchantID: u.creds.MerchantID,
		PlanID:     planID,
		UserID:     userID,
		Amount:     plan.Price,
	}), nil
}

// checkAccount validates the account identifiers, resolves both records and
// checks the minor-unit amount against the plan price. A nil return with nil
// error means the operation may proceed. distinguish selects the per-field
// not-found errors used by createTransaction over availability's combined one.
func (u *paymeUC) checkAccount(ctx context.Context, tx repository.Tx, p payme.Params, distinguish bool) (*payme.Error, error) {
	if _, err := uuid.Parse(p.Account.PlanID); err != nil {
		return accountNotFound(distinguish, payme.ErrProductNotFound), nil
	}
	if _, err := uuid.Parse(p.Account.UserID); err != nil {
		return accountNotFound(distinguish, payme.ErrUserNotFound), nil
	}

	if _, err := u.users.FindByID(ctx, tx, p.Account.UserID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return accountNotFound(distinguish, payme.ErrUserNotFound), nil
		}
		return nil, err
	}
	plan, err := u.plans.FindByID(ctx, tx, p.Account.PlanID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return accountNotFound(distinguish, payme.ErrProductNotFound), nil
		}
		return nil, err
	}

	if p.Amount != plan.Price*100 {
		return payme.ErrInvalidAmount, nil
	}
	return nil, nil
}

func accountNotFound(distinguish bool, specific *payme.Error) *payme.Error {
	if distinguish {
		return specific
	}
	return payme.ErrProductOrUserNotFound
}

func createSnapshot(t *model.PaymeTransaction) payme.CreateResult {
	return payme.CreateResult{
		Transaction: t.ID,
		State:       int(t.State),
		CreateTime:  t.CreatedAt.UnixMilli(),
	}
}

func millisOrZero(t *time.Time) int64 {
	if t == nil {
		return 0
	}
	return t.UnixMilli()
}

func millisPtr(t *time.Time) *int64 {
	if t == nil {
		return nil
	}
	ms := t.UnixMilli()
	return &ms
}
