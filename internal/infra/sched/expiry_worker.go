package sched

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"investment-platform/internal/usecase"
)

// ExpiryWorker periodically sweeps pending_payment purchases whose M-Pesa
// window lapsed without a confirmation.
type ExpiryWorker struct {
	interval   time.Duration
	purchaseUC usecase.PurchaseUseCase
	log        *zerolog.Logger
}

func NewExpiryWorker(interval time.Duration, purchaseUC usecase.PurchaseUseCase, logger *zerolog.Logger) *ExpiryWorker {
	wlog := logger.With().Str("component", "ExpiryWorker").Logger()
	return &ExpiryWorker{
		interval:   interval,
		purchaseUC: purchaseUC,
		log:        &wlog,
	}
}

func (w *ExpiryWorker) Run(ctx context.Context) error {
	w.log.Info().Msg("Starting expiry worker")
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Stopping expiry worker")
			return ctx.Err()
		case <-ticker.C:
			if _, err := w.purchaseUC.ExpireOverdue(ctx); err != nil {
				w.log.Error().Err(err).Msg("expiry sweep error")
			}
		}
	}
}
