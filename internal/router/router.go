package router

import (
	"net/http"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kiezhub-dev/kiezhub/internal/setup"
	mw "github.com/kiezhub-dev/kiezhub/shared/middleware"
	"github.com/kiezhub-dev/kiezhub/shared/middleware/metrics"
	rl "github.com/kiezhub-dev/kiezhub/shared/middleware/ratelimiter"
)

// New creates and configures the mux router with all the routes.
// IMPORTANT! ratelimiters set with .Use limit requests for all endpoints combined in that subrouter
func New(deps *setup.Dependencies) *mux.Router {
	r := mux.NewRouter()

	r.Use(handlers.CompressHandler)

	r.Use(handlers.CORS(
		handlers.AllowedOrigins(deps.Config.Public.AllowedOrigins),
		handlers.AllowedMethods([]string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}),
		handlers.AllowedHeaders([]string{"Content-Type", "Authorization"}),
		handlers.AllowCredentials(),
	))

	r.Use(mw.SecurityHeaders(deps.Config.Public.SecureCookies))
	r.Use(metrics.Middleware)

	// Wildcard OPTIONS handler to avoid 404s for preflight requests
	r.Methods("OPTIONS").HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	h := deps.Handler
	authMw := deps.AuthMiddleware

	r.HandleFunc("/health", h.Health).Methods("GET")
	r.HandleFunc("/ready", h.Ready).Methods("GET")
	r.Handle("/metrics", promhttp.Handler()).Methods("GET")

	v1 := r.PathPrefix("/v1").Subrouter()

	// Auth routes
	auth := v1.PathPrefix("/auth").Subrouter()

	authRegister := auth.NewRoute().Subrouter()
	authRegister.Use(mw.RateLimit(rl.NewUserRateLimiter(5.0/60, 5, 1*time.Hour), mw.GetIP)) // 5 per minute by IP
	authRegister.HandleFunc("/register", h.Register).Methods("POST")

	authLogin := auth.NewRoute().Subrouter()
	authLogin.Use(mw.RateLimit(rl.NewUserRateLimiter(10.0/60, 10, 1*time.Hour), mw.GetIP)) // 10 per minute by IP
	authLogin.HandleFunc("/login", h.Login).Methods("POST")

	authRefresh := auth.NewRoute().Subrouter()
	authRefresh.Use(mw.RateLimit(rl.NewUserRateLimiter(20.0/60, 20, 1*time.Hour), mw.GetIP)) // 20 per minute by IP
	authRefresh.HandleFunc("/refresh", h.Refresh).Methods("POST")

	// Email-sending endpoints, limited per address and per IP
	authEmail := auth.NewRoute().Subrouter()
	authEmail.Use(mw.RateLimit(rl.NewUserRateLimiter(3.0/3600, 3, 2*time.Hour), mw.GetEmailFromBody)) // 3 per hour by email
	authEmail.Use(mw.RateLimit(rl.NewUserRateLimiter(10.0/3600, 10, 2*time.Hour), mw.GetIP))          // 10 per hour by IP
	authEmail.HandleFunc("/forgot_password", h.ForgotPassword).Methods("POST")

	auth.HandleFunc("/verify_email", h.VerifyEmail).Methods("POST")
	auth.HandleFunc("/reset_password", h.ResetPassword).Methods("POST")
	auth.HandleFunc("/logout", h.Logout).Methods("POST")

	authLoggedIn := auth.NewRoute().Subrouter()
	authLoggedIn.Use(authMw.NeedAuth())
	authLoggedIn.HandleFunc("/logout_all", h.LogoutAll).Methods("POST")
	authLoggedIn.HandleFunc("/resend_verification", h.ResendVerification).Methods("POST")

	// Public browsing, viewer identity picked up when present
	public := v1.NewRoute().Subrouter()
	public.Use(authMw.OptionalAuth())
	public.HandleFunc("/events", h.ListEvents).Methods("GET")
	public.HandleFunc("/events/categories", h.ListEventCategories).Methods("GET")
	public.HandleFunc("/events/{event}", h.GetEvent).Methods("GET")
	public.HandleFunc("/events/{event}/participants", h.ListParticipants).Methods("GET")
	public.HandleFunc("/services", h.ListServices).Methods("GET")
	public.HandleFunc("/services/stats", h.ServiceStats).Methods("GET")
	public.HandleFunc("/services/{service}", h.GetService).Methods("GET")
	public.HandleFunc("/forum/categories", h.ListForumCategories).Methods("GET")
	public.HandleFunc("/forum/threads", h.ListThreads).Methods("GET")
	public.HandleFunc("/forum/threads/{thread}", h.GetThread).Methods("GET")
	public.HandleFunc("/forum/threads/{thread}/posts", h.ListPosts).Methods("GET")
	public.HandleFunc("/polls", h.ListPolls).Methods("GET")
	public.HandleFunc("/polls/{poll}", h.GetPoll).Methods("GET")
	public.HandleFunc("/polls/{poll}/analysis", h.PollAnalysis).Methods("GET")
	public.HandleFunc("/comments", h.ListComments).Methods("GET")
	public.HandleFunc("/comments/{comment}", h.GetComment).Methods("GET")
	public.HandleFunc("/users/{user}", h.GetUser).Methods("GET")

	// Logged-in routes
	loggedIn := v1.NewRoute().Subrouter()
	loggedIn.Use(authMw.NeedAuth())
	loggedIn.Use(mw.RateLimit(rl.NewUserRateLimiter(100, 100, 1*time.Hour), mw.GetUserIDFromContext)) // 100 RPS per user

	loggedIn.HandleFunc("/me", h.Me).Methods("GET")
	loggedIn.HandleFunc("/me", h.UpdateMe).Methods("PATCH")
	loggedIn.HandleFunc("/me/stats", h.MyStats).Methods("GET")
	loggedIn.HandleFunc("/me/events", h.MyEvents).Methods("GET")
	loggedIn.HandleFunc("/me/events/stats", h.MyEventStats).Methods("GET")
	loggedIn.HandleFunc("/me/forum/posts", h.MyPosts).Methods("GET")
	loggedIn.HandleFunc("/users", h.ListUsers).Methods("GET")

	loggedIn.HandleFunc("/events", h.CreateEvent).Methods("POST")
	loggedIn.HandleFunc("/events/{event}", h.UpdateEvent).Methods("PATCH")
	loggedIn.HandleFunc("/events/{event}", h.DeleteEvent).Methods("DELETE")
	loggedIn.HandleFunc("/events/{event}/join", h.JoinEvent).Methods("POST")
	loggedIn.HandleFunc("/events/{event}/leave", h.LeaveEvent).Methods("POST")

	loggedIn.HandleFunc("/services", h.CreateService).Methods("POST")
	loggedIn.HandleFunc("/services/{service}", h.UpdateService).Methods("PATCH")
	loggedIn.HandleFunc("/services/{service}", h.DeleteService).Methods("DELETE")
	loggedIn.HandleFunc("/services/{service}/interest", h.ExpressInterest).Methods("POST")
	loggedIn.HandleFunc("/services/{service}/complete", h.CompleteService).Methods("POST")

	loggedIn.HandleFunc("/forum/threads", h.CreateThread).Methods("POST")
	loggedIn.HandleFunc("/forum/threads/{thread}", h.UpdateThread).Methods("PATCH")
	loggedIn.HandleFunc("/forum/threads/{thread}", h.DeleteThread).Methods("DELETE")
	loggedIn.HandleFunc("/forum/threads/{thread}/posts", h.CreatePost).Methods("POST")
	loggedIn.HandleFunc("/forum/posts/{post}", h.UpdatePost).Methods("PATCH")
	loggedIn.HandleFunc("/forum/posts/{post}", h.DeletePost).Methods("DELETE")

	loggedIn.HandleFunc("/polls", h.CreatePoll).Methods("POST")
	loggedIn.HandleFunc("/polls/{poll}", h.UpdatePoll).Methods("PATCH")
	loggedIn.HandleFunc("/polls/{poll}", h.DeletePoll).Methods("DELETE")
	loggedIn.HandleFunc("/polls/{poll}/vote", h.Vote).Methods("POST")
	loggedIn.HandleFunc("/polls/{poll}/vote", h.RemoveVote).Methods("DELETE")

	loggedIn.HandleFunc("/comments", h.CreateComment).Methods("POST")
	loggedIn.HandleFunc("/comments/{comment}", h.UpdateComment).Methods("PATCH")
	loggedIn.HandleFunc("/comments/{comment}", h.DeleteComment).Methods("DELETE")

	loggedIn.HandleFunc("/notifications", h.ListNotifications).Methods("GET")
	loggedIn.HandleFunc("/notifications/stats", h.NotificationStats).Methods("GET")
	loggedIn.HandleFunc("/notifications/read_all", h.MarkAllNotificationsRead).Methods("POST")
	loggedIn.HandleFunc("/notifications/{notification}/read", h.MarkNotificationRead).Methods("POST")
	loggedIn.HandleFunc("/notifications/{notification}", h.DeleteNotification).Methods("DELETE")
	loggedIn.HandleFunc("/notifications", h.DeleteReadNotifications).Methods("DELETE")

	// Admin routes
	admin := v1.PathPrefix("/admin").Subrouter()
	admin.Use(authMw.AdminOnly())
	admin.HandleFunc("/events/categories", h.CreateEventCategory).Methods("POST")
	admin.HandleFunc("/events/categories/{category}", h.UpdateEventCategory).Methods("PATCH")
	admin.HandleFunc("/events/categories/{category}", h.DeleteEventCategory).Methods("DELETE")
	admin.HandleFunc("/events/{event}/attendance", h.MarkAttendance).Methods("POST")
	admin.HandleFunc("/forum/categories", h.CreateForumCategory).Methods("POST")
	admin.HandleFunc("/forum/categories/{category}", h.UpdateForumCategory).Methods("PATCH")
	admin.HandleFunc("/forum/categories/{category}", h.DeleteForumCategory).Methods("DELETE")
	admin.HandleFunc("/services/flagged", h.ListFlaggedServices).Methods("GET")
	admin.HandleFunc("/services/{service}/flag", h.FlagService).Methods("POST")
	admin.HandleFunc("/services/{service}/review", h.ReviewService).Methods("POST")
	admin.HandleFunc("/users/{user}/active", h.SetUserActive).Methods("PUT")
	admin.HandleFunc("/users/{user}/moderation", h.CheckUserContent).Methods("GET")
	admin.HandleFunc("/moderation/queue", h.ModerationQueue).Methods("GET")
	admin.HandleFunc("/moderation/{item}/resolve", h.ResolveModeration).Methods("POST")
	admin.HandleFunc("/announcements", h.Announce).Methods("POST")

	return r
}
