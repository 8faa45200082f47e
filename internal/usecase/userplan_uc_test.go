//go:build !integration

package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"premium-subscription-backend/internal/domain"
	"premium-subscription-backend/internal/domain/model"
	"premium-subscription-backend/internal/usecase"
)

func seedUserAndPlan(t *testing.T, users *memUserRepo, plans *memPlanRepo) (*model.User, *model.Plan) {
	t.Helper()
	user, err := model.NewUser("", "alice", "alice@example.com")
	if err != nil {
		t.Fatalf("new user: %v", err)
	}
	if err := users.Save(context.Background(), nil, user); err != nil {
		t.Fatalf("save user: %v", err)
	}
	plan, err := model.NewPlan("", "Monthly", 49_000, 30)
	if err != nil {
		t.Fatalf("new plan: %v", err)
	}
	if err := plans.Save(context.Background(), nil, plan); err != nil {
		t.Fatalf("save plan: %v", err)
	}
	return user, plan
}

func newUserPlanUC(users *memUserRepo, plans *memPlanRepo, userPlans *memUserPlanRepo, locker *MockLocker) usecase.UserPlanUseCase {
	return usecase.NewUserPlanUseCase(NewMockTxManager(), userPlans, plans, users, locker, newTestLogger())
}

func TestUserPlanUC_HandleSuccessfulPayment(t *testing.T) {
	ctx := context.Background()

	t.Run("grants an active plan and flips the premium flag", func(t *testing.T) {
		users, plans, userPlans := newMemUserRepo(), newMemPlanRepo(), newMemUserPlanRepo()
		user, plan := seedUserAndPlan(t, users, plans)
		uc := newUserPlanUC(users, plans, userPlans, NewMockLocker())

		granted, err := uc.HandleSuccessfulPayment(ctx, user.ID, plan.ID)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if granted.Status != model.UserPlanStatusActive {
			t.Fatalf("status = %s, want ACTIVE", granted.Status)
		}
		wantEnd := granted.StartDate.Add(time.Duration(plan.DurationDays) * 24 * time.Hour)
		if !granted.EndDate.Equal(wantEnd) {
			t.Fatalf("end date = %v, want %v", granted.EndDate, wantEnd)
		}
		got, _ := users.FindByID(ctx, nil, user.ID)
		if !got.Status {
			t.Fatal("user premium flag not set")
		}
	})

	t.Run("rejects a second grant while one is live", func(t *testing.T) {
		users, plans, userPlans := newMemUserRepo(), newMemPlanRepo(), newMemUserPlanRepo()
		user, plan := seedUserAndPlan(t, users, plans)
		uc := newUserPlanUC(users, plans, userPlans, NewMockLocker())

		if _, err := uc.HandleSuccessfulPayment(ctx, user.ID, plan.ID); err != nil {
			t.Fatalf("first grant: %v", err)
		}
		_, err := uc.HandleSuccessfulPayment(ctx, user.ID, plan.ID)
		if !errors.Is(err, domain.ErrActivePlanExists) {
			t.Fatalf("err = %v, want ErrActivePlanExists", err)
		}
		list, _ := userPlans.ListByUser(ctx, nil, user.ID)
		if len(list) != 1 {
			t.Fatalf("user plan rows = %d, want 1", len(list))
		}
	})

	t.Run("expires a stale row before granting", func(t *testing.T) {
		users, plans, userPlans := newMemUserRepo(), newMemPlanRepo(), newMemUserPlanRepo()
		user, plan := seedUserAndPlan(t, users, plans)
		uc := newUserPlanUC(users, plans, userPlans, NewMockLocker())

		// A leftover ACTIVE row with an end date in the past.
		stale, err := model.NewUserPlan(user.ID, plan, time.Now().UTC().Add(-60*24*time.Hour))
		if err != nil {
			t.Fatalf("stale plan: %v", err)
		}
		if err := userPlans.Save(ctx, nil, stale); err != nil {
			t.Fatalf("save stale: %v", err)
		}

		if _, err := uc.HandleSuccessfulPayment(ctx, user.ID, plan.ID); err != nil {
			t.Fatalf("grant: %v", err)
		}
		got, _ := userPlans.FindByID(ctx, nil, stale.ID)
		if got.Status != model.UserPlanStatusExpired {
			t.Fatalf("stale row status = %s, want EXPIRED", got.Status)
		}
	})

	t.Run("fails without writes when the plan is missing", func(t *testing.T) {
		users, plans, userPlans := newMemUserRepo(), newMemPlanRepo(), newMemUserPlanRepo()
		user, _ := seedUserAndPlan(t, users, plans)
		uc := newUserPlanUC(users, plans, userPlans, NewMockLocker())

		_, err := uc.HandleSuccessfulPayment(ctx, user.ID, "missing-plan")
		if !errors.Is(err, domain.ErrNotFound) {
			t.Fatalf("err = %v, want ErrNotFound", err)
		}
		got, _ := users.FindByID(ctx, nil, user.ID)
		if got.Status {
			t.Fatal("premium flag must stay false after a failed grant")
		}
	})

	t.Run("propagates lock contention", func(t *testing.T) {
		users, plans, userPlans := newMemUserRepo(), newMemPlanRepo(), newMemUserPlanRepo()
		user, plan := seedUserAndPlan(t, users, plans)
		locker := NewMockLocker()
		locker.ErrOn["grant:"+user.ID] = domain.ErrGrantLocked
		uc := newUserPlanUC(users, plans, userPlans, locker)

		_, err := uc.HandleSuccessfulPayment(ctx, user.ID, plan.ID)
		if !errors.Is(err, domain.ErrGrantLocked) {
			t.Fatalf("err = %v, want ErrGrantLocked", err)
		}
	})
}

func TestUserPlanUC_FinishExpired(t *testing.T) {
	ctx := context.Background()

	t.Run("expires stale rows and demotes the user", func(t *testing.T) {
		users, plans, userPlans := newMemUserRepo(), newMemPlanRepo(), newMemUserPlanRepo()
		user, plan := seedUserAndPlan(t, users, plans)
		uc := newUserPlanUC(users, plans, userPlans, NewMockLocker())

		stale, _ := model.NewUserPlan(user.ID, plan, time.Now().UTC().Add(-45*24*time.Hour))
		if err := userPlans.Save(ctx, nil, stale); err != nil {
			t.Fatalf("save: %v", err)
		}
		_ = users.UpdateStatus(ctx, nil, user.ID, true)

		n, err := uc.FinishExpired(ctx, 100)
		if err != nil {
			t.Fatalf("finish expired: %v", err)
		}
		if n != 1 {
			t.Fatalf("expired = %d, want 1", n)
		}
		got, _ := userPlans.FindByID(ctx, nil, stale.ID)
		if got.Status != model.UserPlanStatusExpired {
			t.Fatalf("status = %s, want EXPIRED", got.Status)
		}
		u, _ := users.FindByID(ctx, nil, user.ID)
		if u.Status {
			t.Fatal("user must be demoted when no live plan remains")
		}
	})

	t.Run("keeps the premium flag when another live plan exists", func(t *testing.T) {
		users, plans, userPlans := newMemUserRepo(), newMemPlanRepo(), newMemUserPlanRepo()
		user, plan := seedUserAndPlan(t, users, plans)
		uc := newUserPlanUC(users, plans, userPlans, NewMockLocker())

		stale, _ := model.NewUserPlan(user.ID, plan, time.Now().UTC().Add(-45*24*time.Hour))
		live, _ := model.NewUserPlan(user.ID, plan, time.Now().UTC())
		_ = userPlans.Save(ctx, nil, stale)
		_ = userPlans.Save(ctx, nil, live)
		_ = users.UpdateStatus(ctx, nil, user.ID, true)

		if _, err := uc.FinishExpired(ctx, 100); err != nil {
			t.Fatalf("finish expired: %v", err)
		}
		u, _ := users.FindByID(ctx, nil, user.ID)
		if !u.Status {
			t.Fatal("user must stay premium while a live plan exists")
		}
	})

	t.Run("one failing row does not block the rest", func(t *testing.T) {
		users, plans, userPlans := newMemUserRepo(), newMemPlanRepo(), newMemUserPlanRepo()
		user, plan := seedUserAndPlan(t, users, plans)

		// Second user's row is fine; first user's demotion will fail.
		other, _ := model.NewUser("", "bob", "bob@example.com")
		_ = users.Save(ctx, nil, other)
		staleA, _ := model.NewUserPlan(user.ID, plan, time.Now().UTC().Add(-45*24*time.Hour))
		staleB, _ := model.NewUserPlan(other.ID, plan, time.Now().UTC().Add(-45*24*time.Hour))
		_ = userPlans.Save(ctx, nil, staleA)
		_ = userPlans.Save(ctx, nil, staleB)
		// Removing the first user makes its UpdateStatus fail with not-found.
		delete(users.byID, user.ID)

		uc := newUserPlanUC(users, plans, userPlans, NewMockLocker())
		n, err := uc.FinishExpired(ctx, 100)
		if err != nil {
			t.Fatalf("finish expired: %v", err)
		}
		if n != 1 {
			t.Fatalf("expired = %d, want 1 (the healthy row)", n)
		}
	})
}

func TestUserPlanUC_Cancel(t *testing.T) {
	ctx := context.Background()
	users, plans, userPlans := newMemUserRepo(), newMemPlanRepo(), newMemUserPlanRepo()
	user, plan := seedUserAndPlan(t, users, plans)
	uc := newUserPlanUC(users, plans, userPlans, NewMockLocker())

	granted, err := uc.HandleSuccessfulPayment(ctx, user.ID, plan.ID)
	if err != nil {
		t.Fatalf("grant: %v", err)
	}

	if err := uc.Cancel(ctx, granted.ID); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	got, _ := userPlans.FindByID(ctx, nil, granted.ID)
	if got.Status != model.UserPlanStatusCanceled {
		t.Fatalf("status = %s, want CANCELED", got.Status)
	}
	u, _ := users.FindByID(ctx, nil, user.ID)
	if u.Status {
		t.Fatal("user must be demoted after canceling the only plan")
	}
}
