package handler

import (
	"net/http"

	"github.com/kiezhub-dev/kiezhub/shared/api"
	"github.com/kiezhub-dev/kiezhub/shared/domain"
	mw "github.com/kiezhub-dev/kiezhub/shared/middleware"
	"github.com/kiezhub-dev/kiezhub/shared/utils"
)

func (h *Handler) CreateEventCategory(w http.ResponseWriter, r *http.Request) {
	var body api.CreateEventCategoryRequest
	if err := utils.DecodeValidate(r.Body, &body); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	category, err := h.events.CreateCategory(body.Name, body.Description)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusCreated, api.NewEventCategoryResponse(category))
}

func (h *Handler) ListEventCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.events.Categories()
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	out := make([]api.EventCategoryResponse, 0, len(categories))
	for _, c := range categories {
		out = append(out, api.NewEventCategoryResponse(c))
	}
	utils.WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) UpdateEventCategory(w http.ResponseWriter, r *http.Request) {
	id, err := pathId(r, "category")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var body api.UpdateEventCategoryRequest
	if err := utils.DecodeValidate(r.Body, &body); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	category, err := h.events.UpdateCategory(id, body.Name, body.Description)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, api.NewEventCategoryResponse(category))
}

func (h *Handler) DeleteEventCategory(w http.ResponseWriter, r *http.Request) {
	id, err := pathId(r, "category")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.events.DeleteCategory(id); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (h *Handler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	user := mw.GetUserFromContext(r)
	if user == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var body api.CreateEventRequest
	if err := utils.DecodeValidate(r.Body, &body); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	event, err := h.events.Create(domain.EventCreationData{
		Title:           body.Title,
		Description:     body.Description,
		StartsAt:        body.StartsAt,
		EndsAt:          body.EndsAt,
		Location:        body.Location,
		MaxParticipants: body.MaxParticipants,
		CreatorId:       user.Id,
		CategoryId:      body.CategoryId,
	})
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusCreated, api.NewEventResponse(event))
}

func (h *Handler) GetEvent(w http.ResponseWriter, r *http.Request) {
	id, err := pathId(r, "event")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	event, err := h.events.Event(id)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, api.NewEventResponse(event))
}

func (h *Handler) ListEvents(w http.ResponseWriter, r *http.Request) {
	filter := domain.EventFilter{
		CategoryId:   int64(utils.QueryInt(r, "category_id", 0)),
		CreatorId:    int64(utils.QueryInt(r, "creator_id", 0)),
		UpcomingOnly: true,
		Page:         h.page(r),
	}
	if upcoming := utils.QueryBool(r, "upcoming"); upcoming != nil {
		filter.UpcomingOnly = *upcoming
	}

	events, err := h.events.Events(filter)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	out := make([]api.EventSummary, 0, len(events))
	for _, e := range events {
		out = append(out, api.NewEventSummary(e))
	}
	utils.WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) UpdateEvent(w http.ResponseWriter, r *http.Request) {
	user := mw.GetUserFromContext(r)
	if user == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	id, err := pathId(r, "event")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var body api.UpdateEventRequest
	if err := utils.DecodeValidate(r.Body, &body); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	event, err := h.events.Update(id, user, domain.EventUpdate{
		Title:           body.Title,
		Description:     body.Description,
		StartsAt:        body.StartsAt,
		EndsAt:          body.EndsAt,
		Location:        body.Location,
		MaxParticipants: body.MaxParticipants,
		CategoryId:      body.CategoryId,
	})
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, api.NewEventResponse(event))
}

func (h *Handler) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	user := mw.GetUserFromContext(r)
	if user == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	id, err := pathId(r, "event")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.events.Delete(id, user); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (h *Handler) JoinEvent(w http.ResponseWriter, r *http.Request) {
	user := mw.GetUserFromContext(r)
	if user == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	id, err := pathId(r, "event")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.events.Join(id, user.Id); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusCreated, api.MessageResponse{Message: "Registered"})
}

func (h *Handler) LeaveEvent(w http.ResponseWriter, r *http.Request) {
	user := mw.GetUserFromContext(r)
	if user == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	id, err := pathId(r, "event")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.events.Leave(id, user.Id); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, api.MessageResponse{Message: "Registration cancelled"})
}

func (h *Handler) ListParticipants(w http.ResponseWriter, r *http.Request) {
	id, err := pathId(r, "event")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	participants, err := h.events.Participants(id)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	out := make([]api.ParticipationResponse, 0, len(participants))
	for _, p := range participants {
		out = append(out, api.NewParticipationResponse(p))
	}
	utils.WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) MyEvents(w http.ResponseWriter, r *http.Request) {
	user := mw.GetUserFromContext(r)
	if user == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	events, err := h.events.JoinedBy(user.Id, h.page(r))
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	out := make([]api.EventSummary, 0, len(events))
	for _, e := range events {
		out = append(out, api.NewEventSummary(e))
	}
	utils.WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) MyEventStats(w http.ResponseWriter, r *http.Request) {
	user := mw.GetUserFromContext(r)
	if user == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	stats, err := h.events.StatsFor(user.Id)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, api.EventStatsResponse(stats))
}

func (h *Handler) MarkAttendance(w http.ResponseWriter, r *http.Request) {
	id, err := pathId(r, "event")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var body api.MarkAttendanceRequest
	if err := utils.DecodeValidate(r.Body, &body); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	marked, err := h.events.MarkAttendance(id, body.UserIds)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, map[string]int{"marked": marked})
}
