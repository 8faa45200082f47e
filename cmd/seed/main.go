package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"premium-subscription-backend/internal/config"
	"premium-subscription-backend/internal/domain/model"
	"premium-subscription-backend/internal/domain/ports/repository"
	pg "premium-subscription-backend/internal/infra/db/postgres"
	"premium-subscription-backend/internal/usecase"
)

func main() {
	// ---- Config ----
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Connect Postgres
	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, 4)
	if err != nil {
		log.Fatalf("postgres: %v", err)
	}
	defer pool.Close()

	planRepo := pg.NewPlanRepo(pool)
	planUC := usecase.NewPlanUseCase(planRepo)

	// If plans already exist, do nothing
	plans, err := planUC.List(ctx)
	if err != nil {
		log.Fatalf("list plans: %v", err)
	}
	if len(plans) > 0 {
		fmt.Printf("%d plans already present. No changes.\n", len(plans))
		for _, p := range plans {
			fmt.Printf("  - %s (days=%d, price=%d)\n", p.Name, p.DurationDays, p.Price)
		}
		return
	}

	// Seed the plan tiers plus a demo user for testing the payment flow
	seed := []struct {
		Name  string
		Days  int
		Price int64
	}{
		{"Weekly", 7, 15_000},
		{"Monthly", 30, 49_000},
		{"Yearly", 365, 490_000},
	}

	for _, s := range seed {
		p, err := planUC.Create(ctx, s.Name, s.Price, s.Days)
		if err != nil {
			log.Fatalf("create plan %q: %v", s.Name, err)
		}
		fmt.Printf("seeded: %s (id=%s, days=%d, price=%d)\n", p.Name, p.ID, p.DurationDays, p.Price)
	}

	userRepo := pg.NewUserRepo(pool)
	demo, err := model.NewUser("", "demo", "demo@example.com")
	if err != nil {
		log.Fatalf("build demo user: %v", err)
	}
	if err := userRepo.Save(ctx, repository.NoTX, demo); err != nil {
		log.Fatalf("create demo user: %v", err)
	}
	fmt.Printf("seeded: demo user (id=%s)\n", demo.ID)

	fmt.Println("✅ Seeding complete.")
}
