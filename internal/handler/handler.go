package handler

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/kiezhub-dev/kiezhub/internal/service"
	"github.com/kiezhub-dev/kiezhub/shared/config"
	"github.com/kiezhub-dev/kiezhub/shared/domain"
	"github.com/kiezhub-dev/kiezhub/shared/utils"
)

type Handler struct {
	auth          service.AuthService
	users         service.UserService
	events        service.EventService
	marketplace   service.MarketplaceService
	forum         service.ForumService
	polls         service.PollService
	comments      service.CommentService
	notifications service.NotificationService
	moderation    service.ModerationService
	health        Pinger
	cfg           *config.Config
}

func New(
	auth service.AuthService,
	users service.UserService,
	events service.EventService,
	marketplace service.MarketplaceService,
	forum service.ForumService,
	polls service.PollService,
	comments service.CommentService,
	notifications service.NotificationService,
	moderation service.ModerationService,
	health Pinger,
	cfg *config.Config,
) *Handler {
	return &Handler{
		auth:          auth,
		users:         users,
		events:        events,
		marketplace:   marketplace,
		forum:         forum,
		polls:         polls,
		comments:      comments,
		notifications: notifications,
		moderation:    moderation,
		health:        health,
		cfg:           cfg,
	}
}

// pathId parses an int64 path variable registered on the route.
func pathId(r *http.Request, name string) (int64, error) {
	raw := mux.Vars(r)[name]
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: must be an integer", name)
	}
	return id, nil
}

// page reads offset/limit query params clamped to the configured bounds.
func (h *Handler) page(r *http.Request) domain.Page {
	offset := utils.QueryInt(r, "offset", 0)
	if offset < 0 {
		offset = 0
	}
	limit := utils.QueryInt(r, "limit", h.cfg.Public.DefaultPageSize)
	if limit <= 0 {
		limit = h.cfg.Public.DefaultPageSize
	}
	if limit > h.cfg.Public.MaxPageSize {
		limit = h.cfg.Public.MaxPageSize
	}
	return domain.Page{Offset: offset, Limit: limit}
}
