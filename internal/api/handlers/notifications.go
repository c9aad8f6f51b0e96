package handlers

import (
	"errors"
	"net/http"

	"github.com/dvloznov/family-finance/internal/api/middleware"
	"github.com/dvloznov/family-finance/internal/domain"
	"github.com/dvloznov/family-finance/internal/logger"
	"github.com/dvloznov/family-finance/internal/store"
)

// NotificationsHandler handles in-app notification endpoints.
type NotificationsHandler struct {
	store store.NotificationStore
}

// NewNotificationsHandler creates a new notifications handler.
func NewNotificationsHandler(st store.NotificationStore) *NotificationsHandler {
	return &NotificationsHandler{store: st}
}

// ListNotifications handles GET /api/notifications
func (h *NotificationsHandler) ListNotifications(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	unreadOnly := r.URL.Query().Get("unread") == "true"
	notifications, err := h.store.ListNotifications(ctx, user.ID, unreadOnly)
	if err != nil {
		log := logger.FromContext(ctx)
		log.Error().Err(err).Msg("Failed to list notifications")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to list notifications")
		return
	}
	if notifications == nil {
		notifications = []*domain.Notification{}
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"notifications": notifications,
		"count":         len(notifications),
	})
}

// MarkRead handles POST /api/notifications/{id}/read
func (h *NotificationsHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	id := r.PathValue("id")
	if id == "" {
		middleware.WriteError(w, http.StatusBadRequest, "Notification ID is required")
		return
	}

	err := h.store.MarkNotificationRead(ctx, user.ID, id)
	if errors.Is(err, store.ErrNotFound) {
		middleware.WriteError(w, http.StatusNotFound, "Notification not found")
		return
	}
	if err != nil {
		log := logger.FromContext(ctx)
		log.Error().Err(err).Str("notification_id", id).Msg("Failed to mark notification read")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to mark notification read")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]string{
		"id":     id,
		"status": "read",
	})
}
