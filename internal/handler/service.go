package handler

import (
	"net/http"

	"github.com/kiezhub-dev/kiezhub/shared/api"
	"github.com/kiezhub-dev/kiezhub/shared/domain"
	mw "github.com/kiezhub-dev/kiezhub/shared/middleware"
	"github.com/kiezhub-dev/kiezhub/shared/utils"
)

func (h *Handler) CreateService(w http.ResponseWriter, r *http.Request) {
	user := mw.GetUserFromContext(r)
	if user == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var body api.CreateServiceRequest
	if err := utils.DecodeValidate(r.Body, &body); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	svc, err := h.marketplace.Create(domain.ServiceCreationData{
		Title:                  body.Title,
		Description:            body.Description,
		IsOffering:             *body.IsOffering,
		ImageURL:               body.ImageURL,
		MeetingLocations:       body.MeetingLocations,
		PriceType:              body.PriceType,
		PriceAmount:            body.PriceAmount,
		PriceCurrency:          body.PriceCurrency,
		EstimatedDurationHours: body.EstimatedDurationHours,
		ContactMethod:          body.ContactMethod,
		ResponseTimeHours:      body.ResponseTimeHours,
		UserId:                 user.Id,
	})
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusCreated, api.NewServiceResponse(svc))
}

func (h *Handler) GetService(w http.ResponseWriter, r *http.Request) {
	id, err := pathId(r, "service")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var viewerId domain.UserId
	if user := mw.GetUserFromContext(r); user != nil {
		viewerId = user.Id
	}

	svc, err := h.marketplace.Service(id, viewerId)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, api.NewServiceResponse(svc))
}

func (h *Handler) ListServices(w http.ResponseWriter, r *http.Request) {
	search := r.URL.Query().Get("search")
	if search != "" && len(search) < 3 {
		http.Error(w, "Search needs at least 3 characters", http.StatusBadRequest)
		return
	}

	filter := domain.ServiceFilter{
		IsOffering: utils.QueryBool(r, "is_offering"),
		Search:     search,
		UserId:     int64(utils.QueryInt(r, "user_id", 0)),
		Page:       h.page(r),
	}
	// Browsing "what can I get" hides the viewer's own listings.
	if v := utils.QueryBool(r, "exclude_own"); v != nil && *v {
		filter.ExcludeUser = viewerId(r)
	}

	services, err := h.marketplace.Services(filter)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	out := make([]api.ServiceSummary, 0, len(services))
	for _, s := range services {
		out = append(out, api.NewServiceSummary(s))
	}
	utils.WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) UpdateService(w http.ResponseWriter, r *http.Request) {
	user := mw.GetUserFromContext(r)
	if user == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	id, err := pathId(r, "service")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var body api.UpdateServiceRequest
	if err := utils.DecodeValidate(r.Body, &body); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	svc, err := h.marketplace.Update(id, user, domain.ServiceUpdate{
		Title:                  body.Title,
		Description:            body.Description,
		IsOffering:             body.IsOffering,
		ImageURL:               body.ImageURL,
		MeetingLocations:       body.MeetingLocations,
		PriceType:              body.PriceType,
		PriceAmount:            body.PriceAmount,
		PriceCurrency:          body.PriceCurrency,
		EstimatedDurationHours: body.EstimatedDurationHours,
		ContactMethod:          body.ContactMethod,
		ResponseTimeHours:      body.ResponseTimeHours,
	})
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, api.NewServiceResponse(svc))
}

func (h *Handler) DeleteService(w http.ResponseWriter, r *http.Request) {
	user := mw.GetUserFromContext(r)
	if user == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	id, err := pathId(r, "service")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.marketplace.Delete(id, user); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (h *Handler) ExpressInterest(w http.ResponseWriter, r *http.Request) {
	user := mw.GetUserFromContext(r)
	if user == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	id, err := pathId(r, "service")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.marketplace.ExpressInterest(id, user.Id); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, api.MessageResponse{Message: "Interest registered"})
}

func (h *Handler) CompleteService(w http.ResponseWriter, r *http.Request) {
	user := mw.GetUserFromContext(r)
	if user == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	id, err := pathId(r, "service")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.marketplace.Complete(id, user); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, api.MessageResponse{Message: "Listing completed"})
}

func (h *Handler) ServiceStats(w http.ResponseWriter, r *http.Request) {
	var userId domain.UserId
	if user := mw.GetUserFromContext(r); user != nil {
		userId = user.Id
	}

	stats, err := h.marketplace.Stats(userId)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	out := api.ServiceStatsResponse{
		TotalActiveServices: stats.TotalActive,
		ServicesOffered:     stats.ServicesOffered,
		ServicesRequested:   stats.ServicesRequested,
		MarketBalance:       stats.MarketBalance,
	}
	if userId != 0 {
		out.MyServices = &stats.MyServices
		out.MyOfferings = &stats.MyOfferings
		out.MyRequests = &stats.MyRequests
	}
	utils.WriteJSON(w, http.StatusOK, out)
}

// Admin endpoints

func (h *Handler) ListFlaggedServices(w http.ResponseWriter, r *http.Request) {
	services, err := h.marketplace.Flagged(h.page(r))
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	out := make([]api.AdminServiceResponse, 0, len(services))
	for _, s := range services {
		out = append(out, api.NewAdminServiceResponse(s))
	}
	utils.WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) FlagService(w http.ResponseWriter, r *http.Request) {
	id, err := pathId(r, "service")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var body api.FlagServiceRequest
	if err := utils.DecodeValidate(r.Body, &body); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	if err := h.marketplace.Flag(id, body.Reason); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (h *Handler) ReviewService(w http.ResponseWriter, r *http.Request) {
	user := mw.GetUserFromContext(r)
	if user == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	id, err := pathId(r, "service")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var body struct {
		Notes string `json:"notes,omitempty" validate:"max=1000"`
	}
	if err := utils.DecodeValidate(r.Body, &body); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	if err := h.marketplace.Review(id, user.Id, body.Notes); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}
