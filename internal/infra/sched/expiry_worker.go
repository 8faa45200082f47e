package sched

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"premium-subscription-backend/internal/infra/metrics"
	"premium-subscription-backend/internal/usecase"
)

// ExpiryWorker periodically finishes expired user plans via the use case.
// It ticks on a short interval (hourly by default) with a bounded batch, plus
// one unbounded full pass per day to drain any backlog the ticks missed.
type ExpiryWorker struct {
	interval   time.Duration
	batchLimit int
	userPlans  usecase.UserPlanUseCase
	log        *zerolog.Logger
}

func NewExpiryWorker(interval time.Duration, batchLimit int, userPlans usecase.UserPlanUseCase, logger *zerolog.Logger) *ExpiryWorker {
	exprLog := logger.With().Str("component", "ExpiryWorker").Logger()
	return &ExpiryWorker{
		interval:   interval,
		batchLimit: batchLimit,
		userPlans:  userPlans,
		log:        &exprLog,
	}
}

func (w *ExpiryWorker) Run(ctx context.Context) error {
	w.log.Info().Dur("interval", w.interval).Msg("Starting expiry worker")
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	daily := time.NewTicker(24 * time.Hour)
	defer daily.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Stopping expiry worker")
			return ctx.Err()
		case <-ticker.C:
			w.sweep(ctx)
		case <-daily.C:
			w.fullSweep(ctx)
		}
	}
}

func (w *ExpiryWorker) sweep(ctx context.Context) int {
	n, err := w.userPlans.FinishExpired(ctx, w.batchLimit)
	if err != nil {
		metrics.IncExpirySweep("failed")
		w.log.Error().Err(err).Msg("expiry worker error")
		return 0
	}
	metrics.IncExpirySweep("completed")
	if n > 0 {
		w.log.Info().Int("count", n).Msg("expired user plans finished")
	}
	return n
}

// fullSweep drains the whole backlog in batches.
func (w *ExpiryWorker) fullSweep(ctx context.Context) {
	for ctx.Err() == nil {
		if w.sweep(ctx) < w.batchLimit {
			return
		}
	}
}
