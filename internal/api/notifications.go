package api

import (
	"net/http"

	"github.com/erazemk/najdeno/internal/model"
	"github.com/erazemk/najdeno/internal/notify"
)

// NotificationsHandler handles notification endpoints.
type NotificationsHandler struct {
	Notifications *notify.Service
}

// List handles GET /api/notifications.
func (h *NotificationsHandler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.Notifications.ListForUser(r.Context(), GetClaims(r.Context()).UserID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if list == nil {
		list = []model.Notification{}
	}
	jsonResponse(w, http.StatusOK, list)
}

// MarkRead handles PUT /api/notifications/{id}/read.
func (h *NotificationsHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid notification id")
		return
	}

	n, err := h.Notifications.MarkRead(r.Context(), id, GetClaims(r.Context()).UserID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, n)
}

// MarkAllRead handles PUT /api/notifications/mark-all-read.
func (h *NotificationsHandler) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	count, err := h.Notifications.MarkAllRead(r.Context(), GetClaims(r.Context()).UserID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, map[string]int64{"count": count})
}
