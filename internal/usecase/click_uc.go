// File: internal/usecase/click_uc.go
package usecase

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"premium-subscription-backend/internal/domain"
	"premium-subscription-backend/internal/domain/model"
	"premium-subscription-backend/internal/domain/ports/repository"
	"premium-subscription-backend/internal/gateway/click"
	"premium-subscription-backend/internal/infra/metrics"
)

// Compile-time check
var _ ClickUseCase = (*clickUC)(nil)

// ClickUseCase drives the two-phase Click webhook protocol. All business
// failures come back as wire error codes in the response, never as Go errors;
// the error return is reserved for store/infra faults.
type ClickUseCase interface {
	HandleMerchantTransaction(ctx context.Context, req click.Request) (click.Response, error)
	// GenerateLink builds the checkout redirect URL for the plan.
	GenerateLink(ctx context.Context, userID, planID string) (string, error)
}

// ClickCredentials is the merchant-side configuration the protocol needs.
type ClickCredentials struct {
	ServiceID      string
	MerchantID     string
	MerchantUserID string
	Secret         string
	ReturnURL      string
}

type clickUC struct {
	creds     ClickCredentials
	txm       repository.TransactionManager
	clickTxs  repository.ClickTransactionRepository
	plans     repository.PlanRepository
	users     repository.UserRepository
	userPlans UserPlanUseCase
	log       *zerolog.Logger
}

func NewClickUseCase(
	creds ClickCredentials,
	txm repository.TransactionManager,
	clickTxs repository.ClickTransactionRepository,
	plans repository.PlanRepository,
	users repository.UserRepository,
	userPlans UserPlanUseCase,
	log *zerolog.Logger,
) *clickUC {
	l := log.With().Str("component", "click_uc").Logger()
	return &clickUC{
		creds: creds, txm: txm, clickTxs: clickTxs,
		plans: plans, users: users, userPlans: userPlans, log: &l,
	}
}

func (u *clickUC) HandleMerchantTransaction(ctx context.Context, req click.Request) (click.Response, error) {
	switch req.Action {
	case "0":
		return u.prepare(ctx, req)
	case "1":
		return u.complete(ctx, req)
	default:
		return click.Fail(click.ErrActionNotFound, "Action not found"), nil
	}
}

func (u *clickUC) prepare(ctx context.Context, req click.Request) (click.Response, error) {
	if !click.VerifySignature(req, u.creds.Secret) {
		return click.Fail(click.ErrSignFailed, "SIGN CHECK FAILED!"), nil
	}

	userID, planID := req.Param2, req.MerchantTransID
	if userID == "" || planID == "" || req.ClickTransID == "" {
		return click.Fail(click.ErrBadRequest, "Error in request from click"), nil
	}

	if paid, err := u.clickTxs.FindByUserPlanStatus(ctx, repository.NoTX, userID, planID, model.TransactionStatusPaid); err != nil && !errors.Is(err, domain.ErrNotFound) {
		return click.Response{}, err
	} else if paid != nil {
		return click.Fail(click.ErrAlreadyPaid, "Already paid"), nil
	}
	if canceled, err := u.clickTxs.FindByUserPlanStatus(ctx, repository.NoTX, userID, planID, model.TransactionStatusCanceled); err != nil && !errors.Is(err, domain.ErrNotFound) {
		return click.Response{}, err
	} else if canceled != nil {
		return click.Fail(click.ErrTransactionCanceled, "Transaction cancelled"), nil
	}

	_, plan, resp, err := u.resolveUserAndPlan(ctx, userID, planID)
	if err != nil || resp != nil {
		return orEmpty(resp), err
	}

	amount, ok := parseClickAmount(req.Amount)
	if !ok || amount != plan.Price {
		return click.Fail(click.ErrInvalidAmount, "Incorrect parameter amount"), nil
	}

	// Idempotent rejection of a dead gateway transaction id.
	existing, err := u.clickTxs.FindByClickTransID(ctx, repository.NoTX, req.ClickTransID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return click.Response{}, err
	}
	if existing != nil && existing.Status == model.TransactionStatusCanceled {
		return click.Fail(click.ErrTransactionCanceled, "Transaction cancelled"), nil
	}

	now := time.Now().UTC()
	t := &model.ClickTransaction{
		ID:           ulid.Make().String(),
		ClickTransID: req.ClickTransID,
		PrepareID:    strconv.FormatInt(now.Unix(), 10),
		UserID:       userID,
		PlanID:       planID,
		Amount:       amount,
		Status:       model.TransactionStatusPending,
		SignTime:     req.SignTime,
		CreatedDate:  now,
	}
	if err := u.clickTxs.Save(ctx, repository.NoTX, t); err != nil {
		if errors.Is(err, domain.ErrAlreadyExists) {
			// Lost a double-delivery race: hand back the winner's token.
			winner, ferr := u.clickTxs.FindByClickTransID(ctx, repository.NoTX, req.ClickTransID)
			if ferr != nil {
				return click.Response{}, ferr
			}
			t = winner
		} else {
			return click.Response{}, err
		}
	}

	metrics.IncPayment("click", string(model.TransactionStatusPending))
	u.log.Info().Str("click_trans_id", t.ClickTransID).Str("user_id", userID).
		Str("plan_id", planID).Msg("click prepare accepted")

	return click.Response{
		ClickTransID:      t.ClickTransID,
		MerchantTransID:   planID,
		MerchantPrepareID: t.PrepareID,
		Error:             click.ErrSuccess,
		ErrorNote:         "Success",
	}, nil
}

func (u *clickUC) complete(ctx context.Context, req click.Request) (click.Response, error) {
	if !click.VerifySignature(req, u.creds.Secret) {
		return click.Fail(click.ErrSignFailed, "SIGN CHECK FAILED!"), nil
	}

	userID, planID := req.Param2, req.MerchantTransID

	_, plan, failResp, err := u.resolveUserAndPlan(ctx, userID, planID)
	if err != nil || failResp != nil {
		return orEmpty(failResp), err
	}

	var (
		resp     click.Response
		settled  bool
		canceled bool
	)
	err = u.txm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		// "Was prepare called" check: the prepare token must map back to a
		// transaction for this user and plan.
		prepared, err := u.clickTxs.FindByPrepareID(ctx, tx, userID, planID, req.MerchantPrepareID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				resp = click.Fail(click.ErrTransactionNotFound, "Transaction does not exist")
				return nil
			}
			return err
		}

		if paid, err := u.clickTxs.FindPaidByPlanAndPrepareID(ctx, tx, planID, req.MerchantPrepareID); err != nil && !errors.Is(err, domain.ErrNotFound) {
			return err
		} else if paid != nil {
			resp = click.Fail(click.ErrAlreadyPaid, "Already paid")
			return nil
		}

		amount, ok := parseClickAmount(req.Amount)
		if !ok || amount != plan.Price {
			resp = click.Fail(click.ErrInvalidAmount, "Incorrect parameter amount")
			return nil
		}

		current, err := u.clickTxs.FindByClickTransID(ctx, tx, req.ClickTransID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				resp = click.Fail(click.ErrTransactionNotFound, "Transaction does not exist")
				return nil
			}
			return err
		}
		if current.Status == model.TransactionStatusCanceled {
			resp = click.Fail(click.ErrTransactionCanceled, "Transaction cancelled")
			return nil
		}

		if gwErr := req.GatewayError(); gwErr > 0 {
			if err := u.clickTxs.UpdateStatus(ctx, tx, current.ID, model.TransactionStatusCanceled); err != nil {
				return err
			}
			canceled = true
			resp = click.Fail(click.Error(gwErr), "Error in request from click")
			return nil
		}

		if err := u.clickTxs.UpdateStatus(ctx, tx, prepared.ID, model.TransactionStatusPaid); err != nil {
			return err
		}
		settled = true
		resp = click.Response{
			ClickTransID:    req.ClickTransID,
			MerchantTransID: planID,
			Error:           click.ErrSuccess,
			ErrorNote:       "Success",
		}
		return nil
	})
	if err != nil {
		return click.Response{}, err
	}

	if settled {
		metrics.IncPayment("click", string(model.TransactionStatusPaid))
		metrics.AddPaymentRevenue("click", plan.Price)

		// The payment is settled; a failed grant is logged and handled
		// out-of-band, never rolled back.
		if _, err := u.userPlans.HandleSuccessfulPayment(ctx, userID, planID); err != nil {
			metrics.IncGrantFailure("click")
			u.log.Error().Err(err).Str("user_id", userID).Str("plan_id", planID).
				Str("click_trans_id", req.ClickTransID).Msg("grant after click settlement")
		}
	} else if canceled {
		metrics.IncPayment("click", string(model.TransactionStatusCanceled))
	}

	return resp, nil
}

func (u *clickUC) GenerateLink(ctx context.Context, userID, planID string) (string, error) {
	if userID == "" || planID == "" {
		return "", domain.ErrInvalidArgument
	}
	plan, err := u.plans.FindByID(ctx, repository.NoTX, planID)
	if err != nil {
		return "", err
	}
	return click.PaymentLink(click.LinkParams{
		ServiceID:  u.creds.ServiceID,
		MerchantID: u.creds.MerchantID,
		Amount:     plan.Price,
		PlanID:     planID,
		UserID:     userID,
		ReturnURL:  u.creds.ReturnURL,
	}), nil
}

// resolveUserAndPlan loads both referenced records. The protocol reports a
// missing user and a missing plan with the same code.
func (u *clickUC) resolveUserAndPlan(ctx context.Context, userID, planID string) (*model.User, *model.Plan, *click.Response, error) {
	user, err := u.users.FindByID(ctx, repository.NoTX, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			r := click.Fail(click.ErrUserNotFound, "User does not exist")
			return nil, nil, &r, nil
		}
		return nil, nil, nil, err
	}
	plan, err := u.plans.FindByID(ctx, repository.NoTX, planID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			r := click.Fail(click.ErrUserNotFound, "User does not exist")
			return nil, nil, &r, nil
		}
		return nil, nil, nil, err
	}
	return user, plan, nil, nil
}

// parseClickAmount reads the raw amount field, which Click sends as a decimal
// string ("1000" or "1000.00"). Comparison against plan price is whole-unit.
func parseClickAmount(s string) (int64, bool) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return int64(f), true
}

func orEmpty(r *click.Response) click.Response {
	if r == nil {
		return click.Response{}
	}
	return *r
}
