package model

import (
	"time"

	"premium-subscription-backend/internal/domain"

	"github.com/google/uuid"
)

// Plan is a purchasable subscription tier. Price is stored in the smallest
// currency unit (soum). Prices are read at validation time only, so editing a
// plan never rewrites settled transactions.
type Plan struct {
	ID           string
	Name         string
	Price        int64
	DurationDays int
	CreatedAt    time.Time
}

func NewPlan(id, name string, price int64, durationDays int) (*Plan, error) {
	if id == "" {
		id = uuid.NewString()
	}
	if name == "" || price <= 0 || durationDays <= 0 {
		return nil, domain.ErrInvalidArgument
	}
	return &Plan{
		ID:           id,
		Name:         name,
		Price:        price,
		DurationDays: durationDays,
		CreatedAt:    time.Now().UTC(),
	}, nil
}

func (p *Plan) IsZero() bool { return p == nil || p.ID == "" }
