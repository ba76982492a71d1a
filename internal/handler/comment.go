package handler

import (
	"net/http"

	"github.com/kiezhub-dev/kiezhub/shared/api"
	"github.com/kiezhub-dev/kiezhub/shared/domain"
	mw "github.com/kiezhub-dev/kiezhub/shared/middleware"
	"github.com/kiezhub-dev/kiezhub/shared/utils"
)

func (h *Handler) CreateComment(w http.ResponseWriter, r *http.Request) {
	user := mw.GetUserFromContext(r)
	if user == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var body api.CreateCommentRequest
	if err := utils.DecodeValidate(r.Body, &body); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	comment, err := h.comments.Create(domain.CommentCreationData{
		Content:   body.Content,
		AuthorId:  user.Id,
		ParentId:  body.ParentId,
		EventId:   body.EventId,
		ServiceId: body.ServiceId,
	})
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusCreated, api.NewCommentResponse(comment))
}

func (h *Handler) GetComment(w http.ResponseWriter, r *http.Request) {
	id, err := pathId(r, "comment")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	comment, err := h.comments.Comment(id)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, api.NewCommentResponse(comment))
}

func (h *Handler) ListComments(w http.ResponseWriter, r *http.Request) {
	filter := domain.CommentFilter{
		EventId:   int64(utils.QueryInt(r, "event_id", 0)),
		ServiceId: int64(utils.QueryInt(r, "service_id", 0)),
		AuthorId:  int64(utils.QueryInt(r, "author_id", 0)),
		Page:      h.page(r),
	}

	comments, err := h.comments.Comments(filter)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	out := make([]api.CommentResponse, 0, len(comments))
	for _, c := range comments {
		out = append(out, api.NewCommentResponse(c))
	}
	utils.WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) UpdateComment(w http.ResponseWriter, r *http.Request) {
	user := mw.GetUserFromContext(r)
	if user == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	id, err := pathId(r, "comment")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var body api.UpdateCommentRequest
	if err := utils.DecodeValidate(r.Body, &body); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	comment, err := h.comments.Update(id, user, body.Content)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, api.NewCommentResponse(comment))
}

func (h *Handler) DeleteComment(w http.ResponseWriter, r *http.Request) {
	user := mw.GetUserFromContext(r)
	if user == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	id, err := pathId(r, "comment")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.comments.Delete(id, user); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}
