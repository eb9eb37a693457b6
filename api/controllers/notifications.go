package controllers

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/marsos-sa/marketplace-backend/api/responses"
	"github.com/marsos-sa/marketplace-backend/api/validators"
	"github.com/marsos-sa/marketplace-backend/internal/notifications"
	"github.com/marsos-sa/marketplace-backend/pkg/enums"
	"github.com/marsos-sa/marketplace-backend/pkg/logger"
)

type notificationDTO struct {
	ID        uuid.UUID                 `json:"id"`
	OrderID   *uuid.UUID                `json:"orderId,omitempty"`
	Kind      enums.NotificationKind    `json:"kind"`
	Channel   enums.NotificationChannel `json:"channel"`
	Status    enums.NotificationStatus  `json:"status"`
	Title     string                    `json:"title"`
	Message   string                    `json:"message"`
	SentAt    *time.Time                `json:"sentAt,omitempty"`
	CreatedAt time.Time                 `json:"createdAt"`
}

// ListNotifications returns the user's most recent notifications.
func ListNotifications(svc notifications.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := buyerIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", 25, 1, 100)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rows, err := svc.List(r.Context(), userID, limit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		out := make([]notificationDTO, 0, len(rows))
		for _, row := range rows {
			out = append(out, notificationDTO{
				ID:        row.ID,
				OrderID:   row.OrderID,
				Kind:      row.Kind,
				Channel:   row.Channel,
				Status:    row.Status,
				Title:     row.Title,
				Message:   row.Message,
				SentAt:    row.SentAt,
				CreatedAt: row.CreatedAt,
			})
		}

		responses.WriteSuccess(w, map[string]any{"notifications": out})
	}
}
