package notifications

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/marsos-sa/marketplace-backend/pkg/db/models"
	"github.com/marsos-sa/marketplace-backend/pkg/enums"
	pkgerrors "github.com/marsos-sa/marketplace-backend/pkg/errors"
	"github.com/marsos-sa/marketplace-backend/pkg/outbox"
	"github.com/marsos-sa/marketplace-backend/pkg/outbox/payloads"
	"github.com/marsos-sa/marketplace-backend/pkg/types"
)

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// EnqueueInput describes one message to queue for delivery.
type EnqueueInput struct {
	UserID  uuid.UUID
	OrderID *uuid.UUID
	Kind    enums.NotificationKind
	Channel enums.NotificationChannel
	Title   string
	Message string
	Payload *types.JSONMap
}

// Service queues notifications and lists them for in-app display.
type Service interface {
	Enqueue(ctx context.Context, tx *gorm.DB, input EnqueueInput) (*models.Notification, error)
	List(ctx context.Context, userID uuid.UUID, limit int) ([]models.Notification, error)
}

type service struct {
	repo   *Repository
	outbox outboxPublisher
}

// NewService wires notifications dependencies.
func NewService(repo *Repository, publisher outboxPublisher) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("notifications repository required")
	}
	if publisher == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	return &service{repo: repo, outbox: publisher}, nil
}

// Enqueue stores the notification and emits the dispatch request through the
// outbox so delivery survives crashes between commit and publish.
func (s *service) Enqueue(ctx context.Context, tx *gorm.DB, input EnqueueInput) (*models.Notification, error) {
	if input.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	if !input.Kind.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown notification kind")
	}
	if !input.Channel.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown notification channel")
	}

	row := &models.Notification{
		UserID:  input.UserID,
		OrderID: input.OrderID,
		Kind:    input.Kind,
		Channel: input.Channel,
		Status:  enums.NotificationStatusPending,
		Title:   input.Title,
		Message: input.Message,
		Payload: input.Payload,
	}

	repo := s.repo.WithTx(tx)
	created, err := repo.Create(ctx, row)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create notification")
	}

	if input.Channel == enums.NotificationChannelWhatsApp && tx != nil {
		event := outbox.DomainEvent{
			EventType:     enums.EventNotificationRequested,
			AggregateType: enums.AggregateNotification,
			AggregateID:   created.ID,
			Data: payloads.NotificationRequestedEvent{
				NotificationID: created.ID,
				UserID:         created.UserID,
				OrderID:        created.OrderID,
				Kind:           created.Kind,
				Channel:        created.Channel,
			},
			Version: 1,
		}
		if err := s.outbox.Emit(ctx, tx, event); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit notification event")
		}
	}

	return created, nil
}

// List returns a user's notifications for in-app display.
func (s *service) List(ctx context.Context, userID uuid.UUID, limit int) ([]models.Notification, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	rows, err := s.repo.ListByUser(ctx, userID, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list notifications")
	}
	return rows, nil
}
