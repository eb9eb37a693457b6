package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/marsos-sa/marketplace-backend/internal/users"
	"github.com/marsos-sa/marketplace-backend/pkg/db/models"
	"github.com/marsos-sa/marketplace-backend/pkg/enums"
	"github.com/marsos-sa/marketplace-backend/pkg/logger"
	"github.com/marsos-sa/marketplace-backend/pkg/outbox"
	"github.com/marsos-sa/marketplace-backend/pkg/outbox/payloads"
	"github.com/marsos-sa/marketplace-backend/pkg/whatsapp"
)

const notificationsConsumerName = "notifications"

type messageSender interface {
	Send(ctx context.Context, msg whatsapp.Message) error
}

type idempotencyChecker interface {
	CheckAndMarkProcessed(ctx context.Context, consumer string, eventID uuid.UUID) (bool, error)
	Delete(ctx context.Context, consumer string, eventID uuid.UUID) error
}

// Consumer dispatches queued WhatsApp notifications while honoring Redis
// idempotency across redeliveries.
type Consumer struct {
	repo    *Repository
	users   *users.Repository
	sender  messageSender
	manager idempotencyChecker
	logg    *logger.Logger
}

// NewConsumer builds the notifications consumer.
func NewConsumer(repo *Repository, userRepo *users.Repository, sender messageSender, manager idempotencyChecker, logg *logger.Logger) (*Consumer, error) {
	if repo == nil {
		return nil, fmt.Errorf("notifications repository required")
	}
	if userRepo == nil {
		return nil, fmt.Errorf("users repository required")
	}
	if sender == nil {
		return nil, fmt.Errorf("whatsapp sender required")
	}
	if manager == nil {
		return nil, fmt.Errorf("idempotency manager required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Consumer{
		repo:    repo,
		users:   userRepo,
		sender:  sender,
		manager: manager,
		logg:    logg,
	}, nil
}

// Process delivers the notification referenced by the event.
func (c *Consumer) Process(ctx context.Context, eventType enums.OutboxEventType, envelope outbox.PayloadEnvelope) error {
	logCtx := c.logg.WithFields(ctx, map[string]any{
		"event_id":   envelope.EventID,
		"event_type": eventType,
	})

	if eventType != enums.EventNotificationRequested {
		c.logg.Info(logCtx, "event not handled by notifications consumer")
		return nil
	}

	if envelope.EventID == "" {
		return fmt.Errorf("event id missing")
	}
	eventID, err := uuid.Parse(envelope.EventID)
	if err != nil {
		return fmt.Errorf("parse event id: %w", err)
	}

	already, err := c.manager.CheckAndMarkProcessed(ctx, notificationsConsumerName, eventID)
	if err != nil {
		return fmt.Errorf("idempotency check: %w", err)
	}
	if already {
		c.logg.Info(logCtx, "event already processed")
		return nil
	}

	var payload payloads.NotificationRequestedEvent
	if err := json.Unmarshal(envelope.Data, &payload); err != nil {
		_ = c.manager.Delete(ctx, notificationsConsumerName, eventID)
		return fmt.Errorf("decode notification payload: %w", err)
	}

	if err := c.deliver(ctx, payload); err != nil {
		c.logg.Error(logCtx, "notification delivery failed", err)
		_ = c.manager.Delete(ctx, notificationsConsumerName, eventID)
		return err
	}

	c.logg.Info(logCtx, "notification delivered")
	return nil
}

func (c *Consumer) deliver(ctx context.Context, payload payloads.NotificationRequestedEvent) error {
	row, err := c.repo.FindByID(ctx, payload.NotificationID)
	if err != nil {
		return fmt.Errorf("load notification: %w", err)
	}
	if row.Status == enums.NotificationStatusSent {
		return nil
	}

	user, err := c.users.FindByID(ctx, row.UserID)
	if err != nil {
		return fmt.Errorf("load user: %w", err)
	}
	if user.Phone == nil || strings.TrimSpace(*user.Phone) == "" {
		// No destination; record and stop retrying.
		return c.repo.MarkFailed(ctx, row.ID, "user has no phone number")
	}

	msg := whatsapp.Message{
		To:       *user.Phone,
		Template: string(row.Kind),
		Params:   templateParams(row),
	}
	if err := c.sender.Send(ctx, msg); err != nil {
		if markErr := c.repo.MarkFailed(ctx, row.ID, err.Error()); markErr != nil {
			return markErr
		}
		return err
	}

	return c.repo.MarkSent(ctx, row.ID, time.Now().UTC())
}

func templateParams(row *models.Notification) []string {
	params := []string{row.Title}
	if row.Message != "" {
		params = append(params, row.Message)
	}
	return params
}
