// File: internal/usecase/plan_uc.go
package usecase

import (
	"context"

	"premium-subscription-backend/internal/domain/model"
	"premium-subscription-backend/internal/domain/ports/repository"
)

// Compile-time check
var _ PlanUseCase = (*planUC)(nil)

// PlanUseCase manages subscription plans for the admin API.
type PlanUseCase interface {
	Create(ctx context.Context, name string, price int64, durationDays int) (*model.Plan, error)
	Update(ctx context.Context, plan *model.Plan) error
	Get(ctx context.Context, id string) (*model.Plan, error)
	List(ctx context.Context) ([]*model.Plan, error)
}

type planUC struct {
	plans repository.PlanRepository
}

func NewPlanUseCase(plans repository.PlanRepository) *planUC {
	return &planUC{plans: plans}
}

func (u *planUC) Create(ctx context.Context, name string, price int64, durationDays int) (*model.Plan, error) {
	plan, err := model.NewPlan("", name, price, durationDays)
	if err != nil {
		return nil, err
	}
	if err := u.plans.Save(ctx, repository.NoTX, plan); err != nil {
		return nil, err
	}
	return plan, nil
}

func (u *planUC) Update(ctx context.Context, plan *model.Plan) error {
	return u.plans.Save(ctx, repository.NoTX, plan)
}

func (u *planUC) Get(ctx context.Context, id string) (*model.Plan, error) {
	return u.plans.FindByID(ctx, repository.NoTX, id)
}

func (u *planUC) List(ctx context.Context) ([]*model.Plan, error) {
	return u.plans.List(ctx, repository.NoTX)
}
