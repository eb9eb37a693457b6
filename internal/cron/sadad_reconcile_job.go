package cron

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/marsos-sa/marketplace-backend/internal/orders"
	"github.com/marsos-sa/marketplace-backend/pkg/db/models"
	"github.com/marsos-sa/marketplace-backend/pkg/enums"
	pkgerrors "github.com/marsos-sa/marketplace-backend/pkg/errors"
	"github.com/marsos-sa/marketplace-backend/pkg/gopay"
	"github.com/marsos-sa/marketplace-backend/pkg/logger"
)

const sadadReconcileBatchSize = 100

type pendingSadadReader interface {
	ListPendingSadad(ctx context.Context, limit int) ([]models.Order, error)
}

type settlementGateway interface {
	PaymentStatus(ctx context.Context, billNumber string) (*gopay.StatusResult, error)
}

// SadadReconcileJobParams configure the settlement polling sweep.
type SadadReconcileJobParams struct {
	Logger    *logger.Logger
	Orders    pendingSadadReader
	Lifecycle orderTransitioner
	Gateway   settlementGateway
	BatchSize int
}

// NewSadadReconcileJob polls the gateway for unsettled SADAD invoices and
// approves or expires the matching orders. SADAD has no webhook; polling is
// the only settlement signal.
func NewSadadReconcileJob(params SadadReconcileJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Orders == nil {
		return nil, fmt.Errorf("orders reader required")
	}
	if params.Lifecycle == nil {
		return nil, fmt.Errorf("order lifecycle required")
	}
	if params.Gateway == nil {
		return nil, fmt.Errorf("settlement gateway required")
	}
	batch := params.BatchSize
	if batch <= 0 {
		batch = sadadReconcileBatchSize
	}
	return &sadadReconcileJob{
		logg:      params.Logger,
		orders:    params.Orders,
		lifecycle: params.Lifecycle,
		gateway:   params.Gateway,
		batch:     batch,
	}, nil
}

type sadadReconcileJob struct {
	logg      *logger.Logger
	orders    pendingSadadReader
	lifecycle orderTransitioner
	gateway   settlementGateway
	batch     int
}

func (j *sadadReconcileJob) Name() string { return "sadad-reconcile" }

func (j *sadadReconcileJob) Run(ctx context.Context) error {
	pending, err := j.orders.ListPendingSadad(ctx, j.batch)
	if err != nil {
		return fmt.Errorf("list pending sadad orders: %w", err)
	}

	var errs error
	approved, expired := 0, 0
	for _, order := range pending {
		if order.BillNumber == nil {
			continue
		}
		outcome, err := j.reconcile(ctx, order)
		if err != nil {
			j.logg.Error(j.logg.WithOrderID(ctx, order.ID.String()), "reconcile order", err)
			errs = multierr.Append(errs, fmt.Errorf("order %s: %w", order.ID, err))
			continue
		}
		switch outcome {
		case enums.OrderStatusApproved:
			approved++
		case enums.OrderStatusExpired:
			expired++
		}
	}

	logCtx := j.logg.WithFields(ctx, map[string]any{
		"rows_checked":  len(pending),
		"rows_approved": approved,
		"rows_expired":  expired,
	})
	j.logg.Info(logCtx, "sadad reconcile sweep complete")
	return errs
}

// reconcile moves one order through reconciling and settles it from the
// gateway's verdict. A still-pending invoice moves the order back to pending
// so the next sweep picks it up again.
func (j *sadadReconcileJob) reconcile(ctx context.Context, order models.Order) (enums.OrderStatus, error) {
	if err := j.transition(ctx, order.ID, enums.OrderStatusReconciling, nil); err != nil {
		return order.Status, err
	}

	result, err := j.gateway.PaymentStatus(ctx, *order.BillNumber)
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil && typed.Code() == pkgerrors.CodeNotFound {
			// Invoice not settled yet; release the order for the next sweep.
			return enums.OrderStatusPending, j.transition(ctx, order.ID, enums.OrderStatusPending, nil)
		}
		// Leave the order reconciling; a later sweep retries from there.
		return order.Status, err
	}

	switch result.Status {
	case gopay.PaymentStatusApproved:
		return enums.OrderStatusApproved, j.transition(ctx, order.ID, enums.OrderStatusApproved, nil)
	case gopay.PaymentStatusExpired, gopay.PaymentStatusRejected:
		reason := fmt.Sprintf("gateway reported %s", result.Status)
		return enums.OrderStatusExpired, j.transition(ctx, order.ID, enums.OrderStatusExpired, &reason)
	default:
		return enums.OrderStatusPending, j.transition(ctx, order.ID, enums.OrderStatusPending, nil)
	}
}

func (j *sadadReconcileJob) transition(ctx context.Context, orderID uuid.UUID, target enums.OrderStatus, reason *string) error {
	return j.lifecycle.Transition(ctx, orderID, target, orders.TransitionMeta{FailureReason: reason})
}
