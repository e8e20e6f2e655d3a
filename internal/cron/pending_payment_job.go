package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/mensahkwame/bookmarket-backend/pkg/db/models"
	"github.com/mensahkwame/bookmarket-backend/pkg/enums"
	"github.com/mensahkwame/bookmarket-backend/pkg/logger"
)

const defaultExpiryBatchSize = 100

type pendingBatchReader interface {
	ListPendingBatchesOlderThan(ctx context.Context, cutoff time.Time, limit int) ([]models.OrderBatch, error)
}

type batchExpirer interface {
	ExpireBatch(ctx context.Context, batchID uuid.UUID) error
}

// PendingPaymentJobParams configure the payment expiry job.
type PendingPaymentJobParams struct {
	Logger    *logger.Logger
	Orders    pendingBatchReader
	Payments  batchExpirer
	TTL       time.Duration
	BatchSize int
}

// NewPendingPaymentJob builds the cron job that fails order batches whose
// payment window has lapsed. Cash batches are exempt; they settle on delivery.
func NewPendingPaymentJob(params PendingPaymentJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Orders == nil {
		return nil, fmt.Errorf("orders reader required")
	}
	if params.Payments == nil {
		return nil, fmt.Errorf("payment service required")
	}
	if params.TTL <= 0 {
		return nil, fmt.Errorf("pending payment ttl must be positive")
	}
	batchSize := params.BatchSize
	if batchSize <= 0 {
		batchSize = defaultExpiryBatchSize
	}
	return &pendingPaymentJob{
		logg:      params.Logger,
		orders:    params.Orders,
		payments:  params.Payments,
		ttl:       params.TTL,
		batchSize: batchSize,
		now:       time.Now,
	}, nil
}

type pendingPaymentJob struct {
	logg      *logger.Logger
	orders    pendingBatchReader
	payments  batchExpirer
	ttl       time.Duration
	batchSize int
	now       func() time.Time
}

func (j *pendingPaymentJob) Name() string { return "pending-payment-expiry" }

func (j *pendingPaymentJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-j.ttl)
	batches, err := j.orders.ListPendingBatchesOlderThan(ctx, cutoff, j.batchSize)
	if err != nil {
		return fmt.Errorf("query pending batches: %w", err)
	}

	var errs []error
	expired := 0
	for _, batch := range batches {
		if batch.PaymentMethod == enums.PaymentMethodCash {
			continue
		}
		if err := j.payments.ExpireBatch(ctx, batch.ID); err != nil {
			errs = append(errs, fmt.Errorf("expire batch %s: %w", batch.ID, err))
			continue
		}
		expired++
	}

	logCtx := j.logg.WithFields(ctx, map[string]any{
		"scanned": len(batches),
		"expired": expired,
	})
	j.logg.Info(logCtx, "pending payment expiry loop complete")
	return multierr.Combine(errs...)
}
