package handler

import (
	"net/http"

	"github.com/kiezhub-dev/kiezhub/shared/api"
	"github.com/kiezhub-dev/kiezhub/shared/domain"
	mw "github.com/kiezhub-dev/kiezhub/shared/middleware"
	"github.com/kiezhub-dev/kiezhub/shared/utils"
)

func (h *Handler) ListNotifications(w http.ResponseWriter, r *http.Request) {
	user := mw.GetUserFromContext(r)
	if user == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	filter := domain.NotificationFilter{
		Type: domain.NotificationType(r.URL.Query().Get("type")),
		Page: h.page(r),
	}
	if unread := utils.QueryBool(r, "unread"); unread != nil {
		filter.UnreadOnly = *unread
	}

	notifications, err := h.notifications.Notifications(user.Id, filter)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	out := make([]api.NotificationResponse, 0, len(notifications))
	for _, n := range notifications {
		out = append(out, api.NewNotificationResponse(n))
	}
	utils.WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) NotificationStats(w http.ResponseWriter, r *http.Request) {
	user := mw.GetUserFromContext(r)
	if user == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	stats, err := h.notifications.Stats(user.Id)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, api.NewNotificationStatsResponse(stats))
}

func (h *Handler) MarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	user := mw.GetUserFromContext(r)
	if user == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	id, err := pathId(r, "notification")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.notifications.MarkRead(user.Id, id); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (h *Handler) MarkAllNotificationsRead(w http.ResponseWriter, r *http.Request) {
	user := mw.GetUserFromContext(r)
	if user == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	marked, err := h.notifications.MarkAllRead(user.Id, domain.NotificationType(r.URL.Query().Get("type")))
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, map[string]int{"marked": marked})
}

func (h *Handler) DeleteNotification(w http.ResponseWriter, r *http.Request) {
	user := mw.GetUserFromContext(r)
	if user == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	id, err := pathId(r, "notification")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.notifications.Delete(user.Id, id); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// DeleteReadNotifications clears out everything already read.
func (h *Handler) DeleteReadNotifications(w http.ResponseWriter, r *http.Request) {
	user := mw.GetUserFromContext(r)
	if user == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	deleted, err := h.notifications.DeleteRead(user.Id)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, map[string]int{"deleted": deleted})
}

// Announce is an admin broadcast to every user.
func (h *Handler) Announce(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Message string `json:"message" validate:"required,max=2000"`
	}
	if err := utils.DecodeValidate(r.Body, &body); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	sent, err := h.notifications.Announce(body.Message)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, map[string]int{"recipients": sent})
}
