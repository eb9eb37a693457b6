package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/marsos-sa/marketplace-backend/pkg/enums"
	"github.com/marsos-sa/marketplace-backend/pkg/types"
)

// Notification is a queued buyer/supplier message. WhatsApp rows are
// dispatched by the notifications worker; in-app rows surface directly.
type Notification struct {
	ID        uuid.UUID                 `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID    uuid.UUID                 `gorm:"column:user_id;type:uuid;not null"`
	OrderID   *uuid.UUID                `gorm:"column:order_id;type:uuid"`
	Kind      enums.NotificationKind    `gorm:"column:kind;type:notification_kind;not null"`
	Channel   enums.NotificationChannel `gorm:"column:channel;type:notification_channel;not null"`
	Status    enums.NotificationStatus  `gorm:"column:status;type:notification_status;not null;default:'pending'"`
	Title     string                    `gorm:"column:title;type:text;not null"`
	Message   string                    `gorm:"column:message;type:text;not null"`
	Payload   *types.JSONMap            `gorm:"column:payload;type:jsonb;serializer:json"`
	SentAt    *time.Time                `gorm:"column:sent_at"`
	LastError *string                   `gorm:"column:last_error"`
	CreatedAt time.Time                 `gorm:"column:created_at;autoCreateTime"`
}
