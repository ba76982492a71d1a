package handler

import (
	"net/http"

	"github.com/kiezhub-dev/kiezhub/shared/api"
	"github.com/kiezhub-dev/kiezhub/shared/domain"
	mw "github.com/kiezhub-dev/kiezhub/shared/middleware"
	"github.com/kiezhub-dev/kiezhub/shared/utils"
)

func (h *Handler) CreatePoll(w http.ResponseWriter, r *http.Request) {
	user := mw.GetUserFromContext(r)
	if user == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var body api.CreatePollRequest
	if err := utils.DecodeValidate(r.Body, &body); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	poll, err := h.polls.Create(domain.PollCreationData{
		Question: body.Question,
		Type:     domain.PollType(body.Type),
		EndsAt:   body.EndsAt,
		ThreadId: body.ThreadId,
		Options:  body.Options,
	}, user)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusCreated, api.NewPollResponse(poll))
}

func (h *Handler) GetPoll(w http.ResponseWriter, r *http.Request) {
	id, err := pathId(r, "poll")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	poll, err := h.polls.Poll(id, viewerId(r))
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, api.NewPollResponse(poll))
}

func (h *Handler) ListPolls(w http.ResponseWriter, r *http.Request) {
	filter := domain.PollFilter{
		Type:      domain.PollType(r.URL.Query().Get("type")),
		ThreadId:  int64(utils.QueryInt(r, "thread_id", 0)),
		CreatorId: int64(utils.QueryInt(r, "creator_id", 0)),
		Page:      h.page(r),
	}
	if active := utils.QueryBool(r, "active"); active != nil {
		filter.ActiveOnly = *active
	}

	polls, err := h.polls.Polls(filter, viewerId(r))
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	out := make([]api.PollResponse, 0, len(polls))
	for _, p := range polls {
		out = append(out, api.NewPollResponse(p))
	}
	utils.WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) UpdatePoll(w http.ResponseWriter, r *http.Request) {
	user := mw.GetUserFromContext(r)
	if user == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	id, err := pathId(r, "poll")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var body api.UpdatePollRequest
	if err := utils.DecodeValidate(r.Body, &body); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	poll, err := h.polls.Update(id, user, domain.PollUpdate{
		Question: body.Question,
		EndsAt:   body.EndsAt,
		IsActive: body.IsActive,
	})
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, api.NewPollResponse(poll))
}

func (h *Handler) DeletePoll(w http.ResponseWriter, r *http.Request) {
	user := mw.GetUserFromContext(r)
	if user == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	id, err := pathId(r, "poll")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.polls.Delete(id, user); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (h *Handler) Vote(w http.ResponseWriter, r *http.Request) {
	user := mw.GetUserFromContext(r)
	if user == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	id, err := pathId(r, "poll")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var body api.VoteRequest
	if err := utils.DecodeValidate(r.Body, &body); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	poll, err := h.polls.Vote(id, body.OptionId, user.Id)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, api.NewPollResponse(poll))
}

func (h *Handler) RemoveVote(w http.ResponseWriter, r *http.Request) {
	user := mw.GetUserFromContext(r)
	if user == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	id, err := pathId(r, "poll")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	poll, err := h.polls.RemoveVote(id, user.Id)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, api.NewPollResponse(poll))
}

func (h *Handler) PollAnalysis(w http.ResponseWriter, r *http.Request) {
	id, err := pathId(r, "poll")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	analysis, err := h.polls.Analysis(id)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, api.NewPollAnalysisResponse(analysis))
}

func viewerId(r *http.Request) domain.UserId {
	if user := mw.GetUserFromContext(r); user != nil {
		return user.Id
	}
	return 0
}
