package handler

import (
	"net/http"

	"github.com/kiezhub-dev/kiezhub/shared/api"
	"github.com/kiezhub-dev/kiezhub/shared/domain"
	mw "github.com/kiezhub-dev/kiezhub/shared/middleware"
	"github.com/kiezhub-dev/kiezhub/shared/utils"
)

func (h *Handler) CreateForumCategory(w http.ResponseWriter, r *http.Request) {
	var body api.CreateForumCategoryRequest
	if err := utils.DecodeValidate(r.Body, &body); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	category, err := h.forum.CreateCategory(domain.ForumCategory{
		Name:         body.Name,
		Description:  body.Description,
		Color:        body.Color,
		Icon:         body.Icon,
		DisplayOrder: body.DisplayOrder,
	})
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusCreated, api.NewForumCategoryResponse(category))
}

func (h *Handler) ListForumCategories(w http.ResponseWriter, r *http.Request) {
	includeInactive := false
	if user := mw.GetUserFromContext(r); user != nil && user.Admin {
		if v := utils.QueryBool(r, "include_inactive"); v != nil {
			includeInactive = *v
		}
	}

	categories, err := h.forum.Categories(includeInactive)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	out := make([]api.ForumCategoryResponse, 0, len(categories))
	for _, c := range categories {
		out = append(out, api.NewForumCategoryResponse(c))
	}
	utils.WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) UpdateForumCategory(w http.ResponseWriter, r *http.Request) {
	id, err := pathId(r, "category")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var body api.UpdateForumCategoryRequest
	if err := utils.DecodeValidate(r.Body, &body); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	category, err := h.forum.UpdateCategory(id, body.Name, body.Description, body.Color, body.Icon, body.DisplayOrder, body.IsActive)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, api.NewForumCategoryResponse(category))
}

func (h *Handler) DeleteForumCategory(w http.ResponseWriter, r *http.Request) {
	id, err := pathId(r, "category")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.forum.DeleteCategory(id); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (h *Handler) CreateThread(w http.ResponseWriter, r *http.Request) {
	user := mw.GetUserFromContext(r)
	if user == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var body api.CreateThreadRequest
	if err := utils.DecodeValidate(r.Body, &body); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	thread, err := h.forum.CreateThread(domain.ThreadCreationData{
		Title:      body.Title,
		CategoryId: body.CategoryId,
		CreatorId:  user.Id,
	}, body.Content)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusCreated, api.NewThreadResponse(thread))
}

func (h *Handler) GetThread(w http.ResponseWriter, r *http.Request) {
	id, err := pathId(r, "thread")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	thread, err := h.forum.Thread(id)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, api.NewThreadResponse(thread))
}

func (h *Handler) ListThreads(w http.ResponseWriter, r *http.Request) {
	filter := domain.ThreadFilter{
		CategoryId:  int64(utils.QueryInt(r, "category_id", 0)),
		CreatorId:   int64(utils.QueryInt(r, "creator_id", 0)),
		PinnedFirst: true,
		Page:        h.page(r),
	}

	threads, err := h.forum.Threads(filter)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	out := make([]api.ThreadResponse, 0, len(threads))
	for _, t := range threads {
		out = append(out, api.NewThreadResponse(t))
	}
	utils.WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) UpdateThread(w http.ResponseWriter, r *http.Request) {
	user := mw.GetUserFromContext(r)
	if user == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	id, err := pathId(r, "thread")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var body api.UpdateThreadRequest
	if err := utils.DecodeValidate(r.Body, &body); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	thread, err := h.forum.UpdateThread(id, user, domain.ThreadUpdate{
		Title:    body.Title,
		IsPinned: body.IsPinned,
		IsLocked: body.IsLocked,
	})
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, api.NewThreadResponse(thread))
}

func (h *Handler) DeleteThread(w http.ResponseWriter, r *http.Request) {
	user := mw.GetUserFromContext(r)
	if user == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	id, err := pathId(r, "thread")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.forum.DeleteThread(id, user); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (h *Handler) CreatePost(w http.ResponseWriter, r *http.Request) {
	user := mw.GetUserFromContext(r)
	if user == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	threadId, err := pathId(r, "thread")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var body api.CreatePostRequest
	if err := utils.DecodeValidate(r.Body, &body); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	post, err := h.forum.CreatePost(domain.PostCreationData{
		Content:  body.Content,
		ThreadId: threadId,
		AuthorId: user.Id,
	}, user)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusCreated, api.NewPostResponse(post))
}

func (h *Handler) ListPosts(w http.ResponseWriter, r *http.Request) {
	threadId, err := pathId(r, "thread")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	posts, err := h.forum.Posts(threadId, h.page(r))
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	out := make([]api.PostResponse, 0, len(posts))
	for _, p := range posts {
		out = append(out, api.NewPostResponse(p))
	}
	utils.WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) MyPosts(w http.ResponseWriter, r *http.Request) {
	user := mw.GetUserFromContext(r)
	if user == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	posts, err := h.forum.PostsBy(user.Id, h.page(r))
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	out := make([]api.PostResponse, 0, len(posts))
	for _, p := range posts {
		out = append(out, api.NewPostResponse(p))
	}
	utils.WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) UpdatePost(w http.ResponseWriter, r *http.Request) {
	user := mw.GetUserFromContext(r)
	if user == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	id, err := pathId(r, "post")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var body api.UpdatePostRequest
	if err := utils.DecodeValidate(r.Body, &body); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	post, err := h.forum.UpdatePost(id, user, body.Content)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, api.NewPostResponse(post))
}

func (h *Handler) DeletePost(w http.ResponseWriter, r *http.Request) {
	user := mw.GetUserFromContext(r)
	if user == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	id, err := pathId(r, "post")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.forum.DeletePost(id, user); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}
