package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/marsos-sa/marketplace-backend/pkg/db/models"
	"github.com/marsos-sa/marketplace-backend/pkg/enums"
	pkgerrors "github.com/marsos-sa/marketplace-backend/pkg/errors"
	"github.com/marsos-sa/marketplace-backend/pkg/outbox"
	"github.com/marsos-sa/marketplace-backend/pkg/outbox/payloads"
	"github.com/marsos-sa/marketplace-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	EmitIfNotExists(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// allowedTransitions is the order state machine. A missing entry means the
// state is terminal. Repeating the current status is always a no-op.
var allowedTransitions = map[enums.OrderStatus][]enums.OrderStatus{
	enums.OrderStatusInitiated: {
		enums.OrderStatusAwaitingPayment,
		enums.OrderStatusPending,
		enums.OrderStatusFailed,
		enums.OrderStatusCancelled,
	},
	enums.OrderStatusAwaitingPayment: {
		enums.OrderStatusPaid,
		enums.OrderStatusFailed,
		enums.OrderStatusCancelled,
	},
	enums.OrderStatusPending: {
		enums.OrderStatusReconciling,
		enums.OrderStatusApproved,
		enums.OrderStatusExpired,
		enums.OrderStatusCancelled,
	},
	enums.OrderStatusReconciling: {
		enums.OrderStatusPending,
		enums.OrderStatusApproved,
		enums.OrderStatusExpired,
	},
	enums.OrderStatusPaid: {
		enums.OrderStatusApproved,
	},
}

// AdminDecision is the action an admin can take on an order.
type AdminDecision string

const (
	AdminDecisionApprove AdminDecision = "approve"
	AdminDecisionCancel  AdminDecision = "cancel"
)

// TransitionMeta carries optional fields recorded with a status change.
type TransitionMeta struct {
	ResultCode    *string
	FailureReason *string
	Actor         *outbox.ActorRef
}

// Service defines order lifecycle operations.
type Service interface {
	Get(ctx context.Context, buyerID, orderID uuid.UUID) (*models.Order, error)
	GetSadadByBillNumber(ctx context.Context, buyerID uuid.UUID, billNumber string) (*SadadDetail, error)
	List(ctx context.Context, buyerID uuid.UUID, params pagination.Params, filters Filters) (*List, error)
	Transition(ctx context.Context, orderID uuid.UUID, target enums.OrderStatus, meta TransitionMeta) error
	Decide(ctx context.Context, orderID uuid.UUID, decision AdminDecision, actor *outbox.ActorRef) error
}

type service struct {
	repo          Repository
	tx            txRunner
	outbox        outboxPublisher
	sadadDeadline time.Duration
}

// NewService builds an order service with the required dependencies.
func NewService(repo Repository, tx txRunner, outboxSvc outboxPublisher, sadadDeadline time.Duration) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if outboxSvc == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if sadadDeadline <= 0 {
		return nil, fmt.Errorf("sadad deadline must be positive")
	}
	return &service{
		repo:          repo,
		tx:            tx,
		outbox:        outboxSvc,
		sadadDeadline: sadadDeadline,
	}, nil
}

// Get loads one order restricted to its buyer.
func (s *service) Get(ctx context.Context, buyerID, orderID uuid.UUID) (*models.Order, error) {
	if buyerID == uuid.Nil || orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "buyer id and order id are required")
	}
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	if order.BuyerID != buyerID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return order, nil
}

// GetSadadByBillNumber returns the invoice confirmation view. The displayed
// payment deadline is shorter than the invoice expiry to nudge early payment.
func (s *service) GetSadadByBillNumber(ctx context.Context, buyerID uuid.UUID, billNumber string) (*SadadDetail, error) {
	trimmed := strings.TrimSpace(billNumber)
	if trimmed == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "bill number is required")
	}

	order, err := s.repo.FindByBillNumber(ctx, trimmed)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	if order.BuyerID != buyerID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	if order.BillNumber == nil || order.SadadNumber == nil {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "order has no invoice")
	}

	return &SadadDetail{
		OrderID:         order.ID,
		OrderNumber:     order.OrderNumber,
		Status:          order.Status,
		BillNumber:      *order.BillNumber,
		SadadNumber:     *order.SadadNumber,
		TotalAmount:     order.TotalAmount,
		Currency:        order.Currency,
		PaymentDeadline: order.CreatedAt.Add(s.sadadDeadline),
		ExpiresAt:       order.ExpiresAt,
	}, nil
}

// List returns the buyer's orders newest first.
func (s *service) List(ctx context.Context, buyerID uuid.UUID, params pagination.Params, filters Filters) (*List, error) {
	if buyerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "buyer id is required")
	}
	list, err := s.repo.ListByBuyer(ctx, buyerID, params, filters)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	return list, nil
}

// Transition moves the order to the target status, records the matching
// timestamps, and emits the lifecycle event inside the same transaction.
// Repeating the current status returns nil so retried webhooks and
// reconciliation runs stay idempotent.
func (s *service) Transition(ctx context.Context, orderID uuid.UUID, target enums.OrderStatus, meta TransitionMeta) error {
	if orderID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	if !target.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "unknown order status")
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := repo.FindByID(ctx, orderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
		}

		if order.Status == target {
			return nil
		}
		if !transitionAllowed(order.Status, target) {
			return pkgerrors.New(pkgerrors.CodeStateConflict,
				fmt.Sprintf("cannot move order from %s to %s", order.Status, target))
		}

		now := time.Now().UTC()
		updates := map[string]any{"status": target}
		if meta.ResultCode != nil {
			updates["result_code"] = *meta.ResultCode
		}
		switch target {
		case enums.OrderStatusPaid:
			updates["paid_at"] = now
		case enums.OrderStatusApproved:
			updates["approved_at"] = now
		case enums.OrderStatusFailed, enums.OrderStatusExpired, enums.OrderStatusCancelled:
			if meta.FailureReason != nil {
				updates["failure_reason"] = *meta.FailureReason
			}
		}
		if err := repo.Update(ctx, order.ID, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order status")
		}

		event, ok := lifecycleEvent(order, target, meta, now)
		if !ok {
			return nil
		}
		// Reconciliation sweeps and gateway retries can race the same
		// settlement, so lifecycle events are emitted at most once.
		if err := s.outbox.EmitIfNotExists(ctx, tx, event); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit order event")
		}
		return nil
	})
}

// Decide applies an admin decision on top of the state machine.
func (s *service) Decide(ctx context.Context, orderID uuid.UUID, decision AdminDecision, actor *outbox.ActorRef) error {
	switch decision {
	case AdminDecisionApprove:
		return s.Transition(ctx, orderID, enums.OrderStatusApproved, TransitionMeta{Actor: actor})
	case AdminDecisionCancel:
		reason := "cancelled by admin"
		return s.Transition(ctx, orderID, enums.OrderStatusCancelled, TransitionMeta{
			FailureReason: &reason,
			Actor:         actor,
		})
	default:
		return pkgerrors.New(pkgerrors.CodeValidation, "unknown decision")
	}
}

func transitionAllowed(from, to enums.OrderStatus) bool {
	for _, allowed := range allowedTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

func lifecycleEvent(order *models.Order, target enums.OrderStatus, meta TransitionMeta, at time.Time) (outbox.DomainEvent, bool) {
	base := outbox.DomainEvent{
		AggregateType: enums.AggregateOrder,
		AggregateID:   order.ID,
		Actor:         meta.Actor,
		Version:       1,
		OccurredAt:    at,
	}

	resultCode := ""
	if meta.ResultCode != nil {
		resultCode = *meta.ResultCode
	}

	switch target {
	case enums.OrderStatusPaid:
		base.EventType = enums.EventOrderPaid
		base.Data = payloads.OrderPaidEvent{
			OrderID:     order.ID,
			BuyerID:     order.BuyerID,
			TotalAmount: order.TotalAmount,
			ResultCode:  resultCode,
			PaidAt:      at,
		}
	case enums.OrderStatusFailed:
		reason := ""
		if meta.FailureReason != nil {
			reason = *meta.FailureReason
		}
		base.EventType = enums.EventOrderFailed
		base.Data = payloads.OrderFailedEvent{
			OrderID:    order.ID,
			BuyerID:    order.BuyerID,
			ResultCode: resultCode,
			Reason:     reason,
		}
	case enums.OrderStatusExpired:
		billNumber := ""
		if order.BillNumber != nil {
			billNumber = *order.BillNumber
		}
		base.EventType = enums.EventOrderExpired
		base.Data = payloads.OrderExpiredEvent{
			OrderID:    order.ID,
			BuyerID:    order.BuyerID,
			BillNumber: billNumber,
			ExpiredAt:  at,
		}
	case enums.OrderStatusApproved:
		billNumber := ""
		if order.BillNumber != nil {
			billNumber = *order.BillNumber
		}
		base.EventType = enums.EventOrderApproved
		base.Data = payloads.OrderApprovedEvent{
			OrderID:    order.ID,
			BuyerID:    order.BuyerID,
			BillNumber: billNumber,
			ApprovedAt: at,
		}
	default:
		return outbox.DomainEvent{}, false
	}

	return base, true
}
