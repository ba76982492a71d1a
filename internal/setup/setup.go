package setup

import (
	"github.com/jonboulle/clockwork"
	"github.com/kiezhub-dev/kiezhub/internal/handler"
	"github.com/kiezhub-dev/kiezhub/internal/markdown"
	"github.com/kiezhub-dev/kiezhub/internal/service"
	"github.com/kiezhub-dev/kiezhub/internal/storage/pg"
	"github.com/kiezhub-dev/kiezhub/internal/utils/email"
	"github.com/kiezhub-dev/kiezhub/shared/config"
	"github.com/kiezhub-dev/kiezhub/shared/jwt"
	mw "github.com/kiezhub-dev/kiezhub/shared/middleware"
	"github.com/kiezhub-dev/kiezhub/shared/suspension"
)

// Dependencies holds all initialized application components.
type Dependencies struct {
	Storage         *pg.Storage
	Handler         *handler.Handler
	Jwt             jwt.JwtService
	AuthMiddleware  *mw.Auth
	SuspensionCache *suspension.Cache
	Events          *service.Event
	Config          *config.Config
}

// SetupDependencies initializes all dependencies required for the application.
func SetupDependencies(cfg *config.Config) (*Dependencies, error) {
	storage, err := pg.New(cfg)
	if err != nil {
		return nil, err
	}

	clock := clockwork.NewRealClock()
	mailer := email.New(&cfg.Private.Email)
	jwtService := jwt.New(cfg.JwtKey(), cfg.JwtTTL())
	renderer := markdown.New()

	suspensionCache := suspension.NewCache(storage, cfg.JwtTTL())

	auth := service.NewAuth(storage, mailer, jwtService, cfg, clock)
	users := service.NewUser(storage, suspensionCache)
	notifications := service.NewNotification(storage)
	events := service.NewEvent(storage, &cfg.Public, clock, notifications)
	moderation := service.NewModeration(storage, &cfg.Public.Moderation)
	marketplace := service.NewMarketplace(storage, notifications, moderation)
	forum := service.NewForum(storage, renderer, notifications, moderation)
	polls := service.NewPoll(storage, &cfg.Public, clock)
	comments := service.NewComment(storage, renderer, moderation)

	h := handler.New(auth, users, events, marketplace, forum, polls, comments, notifications, moderation, storage, cfg)

	return &Dependencies{
		Storage:         storage,
		Handler:         h,
		Jwt:             jwtService,
		AuthMiddleware:  mw.NewAuth(jwtService, suspensionCache, cfg.Public.SecureCookies),
		SuspensionCache: suspensionCache,
		Events:          events,
		Config:          cfg,
	}, nil
}
