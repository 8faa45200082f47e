package model

import (
	"time"

	"premium-subscription-backend/internal/domain"

	"github.com/google/uuid"
)

type UserPlanStatus string

const (
	UserPlanStatusActive   UserPlanStatus = "ACTIVE"
	UserPlanStatusExpired  UserPlanStatus = "EXPIRED"
	UserPlanStatusCanceled UserPlanStatus = "CANCELED"
)

// UserPlan is a granted subscription period. At most one ACTIVE row may exist
// per user at any instant; the reconciler enforces this inside its grant
// transaction. Rows are never physically deleted, only moved through statuses.
type UserPlan struct {
	ID        string
	UserID    string
	PlanID    string
	StartDate time.Time
	EndDate   time.Time
	Status    UserPlanStatus
	CreatedAt time.Time
}

// NewUserPlan builds an ACTIVE grant starting now. End date arithmetic is
// plain UTC instants, no zone shifting.
func NewUserPlan(userID string, plan *Plan, now time.Time) (*UserPlan, error) {
	if userID == "" || plan.IsZero() {
		return nil, domain.ErrInvalidArgument
	}
	start := now.UTC()
	return &UserPlan{
		ID:        uuid.NewString(),
		UserID:    userID,
		PlanID:    plan.ID,
		StartDate: start,
		EndDate:   start.Add(time.Duration(plan.DurationDays) * 24 * time.Hour),
		Status:    UserPlanStatusActive,
		CreatedAt: start,
	}, nil
}

// ActiveAt reports whether the grant is live at t.
func (up *UserPlan) ActiveAt(t time.Time) bool {
	return up != nil && up.Status == UserPlanStatusActive && !up.EndDate.Before(t)
}
