package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/marsos-sa/marketplace-backend/internal/orders"
	"github.com/marsos-sa/marketplace-backend/pkg/db/models"
	"github.com/marsos-sa/marketplace-backend/pkg/enums"
	"github.com/marsos-sa/marketplace-backend/pkg/logger"
)

const orderExpiryBatchSize = 200

type overdueOrderReader interface {
	ListOverdue(ctx context.Context, cutoff time.Time, limit int) ([]models.Order, error)
}

type orderTransitioner interface {
	Transition(ctx context.Context, orderID uuid.UUID, target enums.OrderStatus, meta orders.TransitionMeta) error
}

// OrderExpiryJobParams configure the unpaid invoice expiry sweep.
type OrderExpiryJobParams struct {
	Logger    *logger.Logger
	Orders    overdueOrderReader
	Lifecycle orderTransitioner
	BatchSize int
}

// NewOrderExpiryJob expires SADAD orders whose invoices passed their payment
// window without settling.
func NewOrderExpiryJob(params OrderExpiryJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Orders == nil {
		return nil, fmt.Errorf("orders reader required")
	}
	if params.Lifecycle == nil {
		return nil, fmt.Errorf("order lifecycle required")
	}
	batch := params.BatchSize
	if batch <= 0 {
		batch = orderExpiryBatchSize
	}
	return &orderExpiryJob{
		logg:      params.Logger,
		orders:    params.Orders,
		lifecycle: params.Lifecycle,
		batch:     batch,
		now:       time.Now,
	}, nil
}

type orderExpiryJob struct {
	logg      *logger.Logger
	orders    overdueOrderReader
	lifecycle orderTransitioner
	batch     int
	now       func() time.Time
}

func (j *orderExpiryJob) Name() string { return "order-expiry" }

func (j *orderExpiryJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC()
	overdue, err := j.orders.ListOverdue(ctx, cutoff, j.batch)
	if err != nil {
		return fmt.Errorf("list overdue orders: %w", err)
	}

	reason := "invoice expired unpaid"
	var errs error
	expired := 0
	for _, order := range overdue {
		orderCtx := j.logg.WithOrderID(ctx, order.ID.String())
		if err := j.lifecycle.Transition(ctx, order.ID, enums.OrderStatusExpired, orders.TransitionMeta{
			FailureReason: &reason,
		}); err != nil {
			j.logg.Error(orderCtx, "expire order", err)
			errs = multierr.Append(errs, fmt.Errorf("order %s: %w", order.ID, err))
			continue
		}
		expired++
	}

	logCtx := j.logg.WithFields(ctx, map[string]any{
		"cutoff":       cutoff,
		"rows_expired": expired,
		"rows_overdue": len(overdue),
	})
	j.logg.Info(logCtx, "order expiry sweep complete")
	return errs
}
