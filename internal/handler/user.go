package handler

import (
	"net/http"

	"github.com/kiezhub-dev/kiezhub/shared/api"
	mw "github.com/kiezhub-dev/kiezhub/shared/middleware"
	"github.com/kiezhub-dev/kiezhub/shared/utils"
)

func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	user := mw.GetUserFromContext(r)
	if user == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	full, err := h.users.User(user.Id)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, api.NewUserPrivate(full))
}

func (h *Handler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	user := mw.GetUserFromContext(r)
	if user == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var body api.UpdateProfileRequest
	if err := utils.DecodeValidate(r.Body, &body); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	updated, err := h.users.UpdateProfile(user.Id, body.ToDomain())
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, api.NewUserPrivate(updated))
}

// GetUser returns the public profile, privacy flags applied. Admins and the
// owner get the full view.
func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathId(r, "user")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	target, err := h.users.User(id)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	viewer := mw.GetUserFromContext(r)
	if viewer != nil && (viewer.Id == target.Id || viewer.Admin) {
		utils.WriteJSON(w, http.StatusOK, api.NewUserPrivate(target))
		return
	}
	utils.WriteJSON(w, http.StatusOK, api.NewUserPublic(target))
}

// ListUsers serves the member directory. Admins get the unredacted view.
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.Users(h.page(r))
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	if viewer := mw.GetUserFromContext(r); viewer != nil && viewer.Admin {
		out := make([]api.UserPrivate, 0, len(users))
		for _, u := range users {
			out = append(out, api.NewUserPrivate(u))
		}
		utils.WriteJSON(w, http.StatusOK, out)
		return
	}

	out := make([]api.UserPublic, 0, len(users))
	for _, u := range users {
		out = append(out, api.NewUserPublic(u))
	}
	utils.WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) MyStats(w http.ResponseWriter, r *http.Request) {
	user := mw.GetUserFromContext(r)
	if user == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	stats, err := h.users.Stats(user.Id)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, api.UserStatsResponse(stats))
}

func (h *Handler) SetUserActive(w http.ResponseWriter, r *http.Request) {
	id, err := pathId(r, "user")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var body struct {
		IsActive *bool `json:"is_active" validate:"required"`
	}
	if err := utils.DecodeValidate(r.Body, &body); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	if err := h.users.SetUserActive(id, *body.IsActive); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}
