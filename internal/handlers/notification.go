package handlers

import (
	"context"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"corpdesk-backend/internal/ctxkeys"
	"corpdesk-backend/internal/database"
	"corpdesk-backend/internal/models"
)

// NotificationHandler handles in-app notification requests.
type NotificationHandler struct {
	db database.Service
}

// NewNotificationHandler creates a new NotificationHandler.
func NewNotificationHandler(db database.Service) *NotificationHandler {
	return &NotificationHandler{db: db}
}

// Notifications are either addressed to a specific user or org-wide
// (user_id IS NULL); both kinds show up in a user's feed.
const notificationScope = "(user_id = $1 OR user_id IS NULL)"

// ── List ───────────────────────────────────────────────────────

// List handles GET /api/notifications
func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, _ := r.Context().Value(ctxkeys.UserID).(string)

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit < 1 || limit > 100 {
		limit = 50
	}
	unreadOnly := r.URL.Query().Get("unread") == "true"

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	pool := h.db.GetPool()

	query := `
		SELECT id, user_id, title, message, type,
			COALESCE(entity_type, ''), COALESCE(entity_id, ''),
			is_read, created_at::text
		FROM notifications
		WHERE ` + notificationScope
	if unreadOnly {
		query += " AND is_read = FALSE"
	}
	query += " ORDER BY created_at DESC LIMIT $2"

	rows, err := pool.Query(ctx, query, userID, limit)
	if err != nil {
		log.Printf("Error fetching notifications: %v", err)
		JSONError(w, http.StatusInternalServerError, "Failed to fetch notifications")
		return
	}
	defer rows.Close()

	notifications := []models.Notification{}
	for rows.Next() {
		var n models.Notification
		if err := rows.Scan(
			&n.ID, &n.UserID, &n.Title, &n.Message, &n.Type,
			&n.EntityType, &n.EntityID, &n.IsRead, &n.CreatedAt,
		); err != nil {
			log.Printf("Error scanning notification: %v", err)
			continue
		}
		notifications = append(notifications, n)
	}

	JSON(w, http.StatusOK, map[string]interface{}{
		"data": notifications,
	})
}

// ── UnreadCount ────────────────────────────────────────────────

// UnreadCount handles GET /api/notifications/count
func (h *NotificationHandler) UnreadCount(w http.ResponseWriter, r *http.Request) {
	userID, _ := r.Context().Value(ctxkeys.UserID).(string)

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var count int
	err := h.db.GetPool().QueryRow(ctx, `
		SELECT COUNT(*) FROM notifications
		WHERE `+notificationScope+` AND is_read = FALSE
	`, userID).Scan(&count)
	if err != nil {
		log.Printf("Error counting notifications: %v", err)
		JSONError(w, http.StatusInternalServerError, "Failed to count notifications")
		return
	}

	JSON(w, http.StatusOK, map[string]int{"count": count})
}

// ── MarkRead ───────────────────────────────────────────────────

// MarkRead handles PATCH /api/notifications/{id}/read
func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		JSONError(w, http.StatusBadRequest, "Notification ID is required")
		return
	}

	userID, _ := r.Context().Value(ctxkeys.UserID).(string)

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	tag, err := h.db.GetPool().Exec(ctx, `
		UPDATE notifications SET is_read = TRUE
		WHERE id = $2 AND `+notificationScope+`
	`, userID, id)
	if err != nil {
		log.Printf("Error marking notification read: %v", err)
		JSONError(w, http.StatusInternalServerError, "Failed to update notification")
		return
	}
	if tag.RowsAffected() == 0 {
		JSONError(w, http.StatusNotFound, "Notification not found")
		return
	}

	JSON(w, http.StatusOK, map[string]string{"message": "Notification marked as read"})
}

// ── MarkAllRead ────────────────────────────────────────────────

// MarkAllRead handles PATCH /api/notifications/read-all
func (h *NotificationHandler) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	userID, _ := r.Context().Value(ctxkeys.UserID).(string)

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	_, err := h.db.GetPool().Exec(ctx, `
		UPDATE notifications SET is_read = TRUE
		WHERE `+notificationScope+` AND is_read = FALSE
	`, userID)
	if err != nil {
		log.Printf("Error marking all notifications read: %v", err)
		JSONError(w, http.StatusInternalServerError, "Failed to update notifications")
		return
	}

	JSON(w, http.StatusOK, map[string]string{"message": "All notifications marked as read"})
}
