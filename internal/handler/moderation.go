package handler

import (
	"net/http"

	"github.com/kiezhub-dev/kiezhub/shared/api"
	mw "github.com/kiezhub-dev/kiezhub/shared/middleware"
	"github.com/kiezhub-dev/kiezhub/shared/utils"
)

func (h *Handler) ModerationQueue(w http.ResponseWriter, r *http.Request) {
	items, err := h.moderation.Queue(h.page(r))
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	out := make([]api.ModerationItemResponse, 0, len(items))
	for _, item := range items {
		out = append(out, api.NewModerationItemResponse(item))
	}
	utils.WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) ResolveModeration(w http.ResponseWriter, r *http.Request) {
	admin := mw.GetUserFromContext(r)
	if admin == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	id, err := pathId(r, "item")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var body api.ResolveModerationRequest
	if err := utils.DecodeValidate(r.Body, &body); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	if err := h.moderation.Resolve(id, body.Action, admin); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (h *Handler) CheckUserContent(w http.ResponseWriter, r *http.Request) {
	userId, err := pathId(r, "user")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	report, err := h.moderation.CheckUser(userId)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, api.NewModerationReportResponse(report))
}
