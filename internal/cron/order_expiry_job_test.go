package cron

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/marsos-sa/marketplace-backend/internal/orders"
	"github.com/marsos-sa/marketplace-backend/pkg/db/models"
	"github.com/marsos-sa/marketplace-backend/pkg/enums"
	"github.com/marsos-sa/marketplace-backend/pkg/logger"
)

type fakeOverdueReader struct {
	orders []models.Order
	err    error
	cutoff time.Time
}

func (f *fakeOverdueReader) ListOverdue(_ context.Context, cutoff time.Time, _ int) ([]models.Order, error) {
	f.cutoff = cutoff
	return f.orders, f.err
}

type fakeTransitioner struct {
	calls  []transitionCall
	failOn map[uuid.UUID]error
}

type transitionCall struct {
	orderID uuid.UUID
	target  enums.OrderStatus
	meta    orders.TransitionMeta
}

func (f *fakeTransitioner) Transition(_ context.Context, orderID uuid.UUID, target enums.OrderStatus, meta orders.TransitionMeta) error {
	if err, ok := f.failOn[orderID]; ok {
		return err
	}
	f.calls = append(f.calls, transitionCall{orderID: orderID, target: target, meta: meta})
	return nil
}

func TestOrderExpiryJobExpiresOverdueOrders(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	reader := &fakeOverdueReader{orders: []models.Order{
		{ID: uuid.New(), Status: enums.OrderStatusPending},
		{ID: uuid.New(), Status: enums.OrderStatusReconciling},
	}}
	lifecycle := &fakeTransitioner{}

	jobIface, err := NewOrderExpiryJob(OrderExpiryJobParams{
		Logger:    logger.New(logger.Options{ServiceName: "test"}),
		Orders:    reader,
		Lifecycle: lifecycle,
	})
	if err != nil {
		t.Fatalf("NewOrderExpiryJob: %v", err)
	}
	job := jobIface.(*orderExpiryJob)
	job.now = func() time.Time { return now }

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !reader.cutoff.Equal(now) {
		t.Fatalf("cutoff = %s, want %s", reader.cutoff, now)
	}
	if len(lifecycle.calls) != 2 {
		t.Fatalf("transitions = %d, want 2", len(lifecycle.calls))
	}
	for _, call := range lifecycle.calls {
		if call.target != enums.OrderStatusExpired {
			t.Fatalf("target = %s, want expired", call.target)
		}
		if call.meta.FailureReason == nil || *call.meta.FailureReason == "" {
			t.Fatal("expiry must record a failure reason")
		}
	}
}

func TestOrderExpiryJobContinuesPastFailures(t *testing.T) {
	broken := uuid.New()
	healthy := uuid.New()
	reader := &fakeOverdueReader{orders: []models.Order{
		{ID: broken, Status: enums.OrderStatusPending},
		{ID: healthy, Status: enums.OrderStatusPending},
	}}
	lifecycle := &fakeTransitioner{failOn: map[uuid.UUID]error{broken: errors.New("db down")}}

	jobIface, err := NewOrderExpiryJob(OrderExpiryJobParams{
		Logger:    logger.New(logger.Options{ServiceName: "test"}),
		Orders:    reader,
		Lifecycle: lifecycle,
	})
	if err != nil {
		t.Fatalf("NewOrderExpiryJob: %v", err)
	}

	if err := jobIface.Run(context.Background()); err == nil {
		t.Fatal("expected aggregated error")
	}
	if len(lifecycle.calls) != 1 || lifecycle.calls[0].orderID != healthy {
		t.Fatalf("healthy order should still be expired, calls = %+v", lifecycle.calls)
	}
}

func TestOrderExpiryJobPropagatesListErrors(t *testing.T) {
	reader := &fakeOverdueReader{err: errors.New("list failed")}
	jobIface, err := NewOrderExpiryJob(OrderExpiryJobParams{
		Logger:    logger.New(logger.Options{ServiceName: "test"}),
		Orders:    reader,
		Lifecycle: &fakeTransitioner{},
	})
	if err != nil {
		t.Fatalf("NewOrderExpiryJob: %v", err)
	}
	if err := jobIface.Run(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}
