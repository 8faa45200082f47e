// File: cmd/app/main.go
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	"premium-subscription-backend/internal/config"
	"premium-subscription-backend/internal/infra/api"
	pg "premium-subscription-backend/internal/infra/db/postgres"
	"premium-subscription-backend/internal/infra/logging"
	"premium-subscription-backend/internal/infra/metrics"
	red "premium-subscription-backend/internal/infra/redis"
	"premium-subscription-backend/internal/infra/sched"
	"premium-subscription-backend/internal/infra/web"
	"premium-subscription-backend/internal/usecase"
)

var (
	version = "dev"
	commit  = "none"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	if cfg.Runtime.Dev {
		logger.Info().Msg("[DEV MODE] Enabled")
	}

	metrics.MustRegister()
	metrics.SetBuildInfo(version, commit)

	// ---- Postgres ----
	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, cfg.Database.MaxConns)
	if err != nil {
		log.Fatalf("postgres: %v", err)
	}
	defer pool.Close()

	// ---- Redis ----
	redisClient, err := red.NewClient(ctx, &cfg.Redis)
	if err != nil {
		log.Fatalf("redis: %v", err)
	}
	defer redisClient.Close()
	locker := red.NewLocker(redisClient)

	// ---- Repositories ----
	txm := pg.NewTxManager(pool)
	userRepo := pg.NewUserRepo(pool)
	planRepo := pg.NewPlanRepoCacheDecorator(pg.NewPlanRepo(pool), redisClient)
	userPlanRepo := pg.NewUserPlanRepo(pool)
	clickRepo := pg.NewClickTransactionRepo(pool)
	paymeRepo := pg.NewPaymeTransactionRepo(pool)
	avatarRepo := pg.NewAvatarRepo(pool)
	ratingRepo := pg.NewRatingRepo(pool)

	// ---- Use cases ----
	userPlanUC := usecase.NewUserPlanUseCase(txm, userPlanRepo, planRepo, userRepo, locker, logger)
	clickUC := usecase.NewClickUseCase(usecase.ClickCredentials{
		ServiceID:      cfg.Payment.Click.ServiceID,
		MerchantID:     cfg.Payment.Click.MerchantID,
		MerchantUserID: cfg.Payment.Click.MerchantUserID,
		Secret:         cfg.Payment.Click.Secret,
		ReturnURL:      cfg.Payment.Click.ReturnURL,
	}, txm, clickRepo, planRepo, userRepo, userPlanUC, logger)
	paymeUC := usecase.NewPaymeUseCase(usecase.PaymeCredentials{
		MerchantID: cfg.Payment.Payme.MerchantID,
	}, txm, paymeRepo, planRepo, userRepo, userPlanUC, logger)
	planUC := usecase.NewPlanUseCase(planRepo)
	userUC := usecase.NewUserUseCase(userRepo, avatarRepo, txm, logger)
	ratingUC := usecase.NewRatingUseCase(ratingRepo, userRepo, txm, logger)

	// ---- HTTP ----
	paymePass := cfg.Payment.Payme.Password
	if cfg.Runtime.Dev && cfg.Payment.Payme.PasswordTest != "" {
		paymePass = cfg.Payment.Payme.PasswordTest
	}
	apiSrv := api.NewServer(clickUC, paymeUC, cfg.Payment.Payme.Login, paymePass, logger)

	sessions := web.NewSessionManager(web.SessionConfig{
		Secret:     []byte(cfg.Admin.JWTSecret),
		CookieName: cfg.Admin.SessionCookie,
		Secure:     !cfg.Runtime.Dev,
		TTL:        cfg.Admin.SessionTTL,
	})
	webSrv := web.NewServer(sessions, cfg.Admin.Login, cfg.Admin.Password, planUC, userUC, userPlanUC, ratingUC, logger)

	r := chi.NewRouter()
	apiSrv.Register(r)
	webSrv.Register(r)

	handler := api.Chain(r,
		api.TraceID(logger),
		api.RequestLog(logger),
		api.Recover(logger),
		api.Timeout(cfg.Server.Timeout),
	)

	server := &http.Server{Addr: fmt.Sprintf(":%d", cfg.Server.Port), Handler: handler}
	go func() {
		logger.Info().Str("addr", server.Addr).Msg("http server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("http server error")
		}
	}()

	// ---- Expiry worker ----
	worker := sched.NewExpiryWorker(cfg.Scheduler.ExpiryCheckInterval, cfg.Scheduler.ExpiryBatchLimit, userPlanUC, logger)
	go func() { _ = worker.Run(ctx) }()

	// ---- Graceful shutdown ----
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	<-sigc
	logger.Info().Msg("shutdown requested")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http server shutdown")
	}
}
