package enums

import "fmt"

// NotificationKind maps to the notification_kind enum in Postgres.
type NotificationKind string

const (
	NotificationKindOrderCreated    NotificationKind = "order_created"
	NotificationKindOrderPaid       NotificationKind = "order_paid"
	NotificationKindOrderFailed     NotificationKind = "order_failed"
	NotificationKindPaymentReminder NotificationKind = "payment_reminder"
)

var validNotificationKinds = []NotificationKind{
	NotificationKindOrderCreated,
	NotificationKindOrderPaid,
	NotificationKindOrderFailed,
	NotificationKindPaymentReminder,
}

// IsValid checks whether the given kind matches the canonical enum.
func (n NotificationKind) IsValid() bool {
	for _, candidate := range validNotificationKinds {
		if candidate == n {
			return true
		}
	}
	return false
}

// ParseNotificationKind converts raw strings into NotificationKind.
func ParseNotificationKind(value string) (NotificationKind, error) {
	for _, candidate := range validNotificationKinds {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid notification kind %q", value)
}

// NotificationChannel maps to the notification_channel enum in Postgres.
type NotificationChannel string

const (
	NotificationChannelWhatsApp NotificationChannel = "whatsapp"
	NotificationChannelInApp    NotificationChannel = "in_app"
)

var validNotificationChannels = []NotificationChannel{
	NotificationChannelWhatsApp,
	NotificationChannelInApp,
}

// IsValid checks whether the given channel matches the canonical enum.
func (n NotificationChannel) IsValid() bool {
	for _, candidate := range validNotificationChannels {
		if candidate == n {
			return true
		}
	}
	return false
}

// NotificationStatus tracks delivery of a queued notification.
type NotificationStatus string

const (
	NotificationStatusPending NotificationStatus = "pending"
	NotificationStatusSent    NotificationStatus = "sent"
	NotificationStatusFailed  NotificationStatus = "failed"
)

var validNotificationStatuses = []NotificationStatus{
	NotificationStatusPending,
	NotificationStatusSent,
	NotificationStatusFailed,
}

// IsValid checks whether the given status matches the canonical enum.
func (n NotificationStatus) IsValid() bool {
	for _, candidate := range validNotificationStatuses {
		if candidate == n {
			return true
		}
	}
	return false
}
