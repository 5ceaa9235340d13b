package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/AnshRaj112/vikas-backend/internal/config"
	"github.com/AnshRaj112/vikas-backend/internal/handlers"
	"github.com/AnshRaj112/vikas-backend/internal/middleware"
	"github.com/AnshRaj112/vikas-backend/internal/services"
)

// Deps are the services the HTTP layer is built on.
type Deps struct {
	Config   *config.Config
	Log      *zap.Logger
	Students services.StudentStore
	Auth     *services.AuthService
	Tokens   *services.TokenIssuer
	Progress *services.ProgressStore
	Quiz     *services.QuizService
	Relay    *services.Relay
	// Uploader and Redis are optional.
	Uploader services.AvatarUploader
	Redis    *redis.Client
}

// NewRouter wires middleware and every route.
func NewRouter(d Deps) http.Handler {
	cfg := d.Config
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(middleware.RequestLogger(d.Log))
	r.Use(chimw.Recoverer)
	r.Use(middleware.Metrics)
	r.Use(middleware.CORS(cfg.AllowedOrigins))

	// Production: SecurityHeaders → GlobalRateLimit → LoginRateLimit
	if cfg.IsProduction() {
		for _, mw := range middleware.ProductionSecurity(cfg.TrustProxy) {
			r.Use(mw)
		}
	} else {
		r.Use(middleware.SecurityHeaders(false))
	}
	r.Use(middleware.NewRelayRateLimit(cfg.TrustProxy).Middleware)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})
	r.Handle("/metrics", promhttp.Handler())

	SetupRoutes(r, d)

	r.NotFound(handlers.SPA(cfg.StaticDir, cfg.IndexFile).ServeHTTP)
	return r
}

// SetupRoutes registers the API, relay and auth routes on r.
func SetupRoutes(r chi.Router, d Deps) {
	cfg := d.Config
	guard := middleware.SessionGuard(d.Tokens, false)

	authH := handlers.NewAuthHandler(d.Auth, cfg.DefaultAvatar, d.Log)
	profileH := handlers.NewProfileHandler(d.Students, d.Uploader, cfg.DefaultAvatar, d.Log)
	quizH := handlers.NewQuizHandler(d.Quiz, d.Progress, d.Log)
	chatH := handlers.NewChatHandler(d.Relay, cfg.StreamDoneEvent, d.Log)

	// Shared fixed-window limit across instances when Redis is available
	api := r.With()
	if d.Redis != nil {
		api = r.With(middleware.NewRedisRateLimiter(d.Redis, d.Log, cfg.TrustProxy).Middleware)
	}

	// Auth routes
	api.Post("/register", authH.Register)
	api.Post("/login", authH.Login)
	api.Post("/check-username", authH.CheckUsername)
	api.With(guard).Get("/dashboard-data", authH.Dashboard)

	// Student routes
	api.With(guard).Get("/api/profile", profileH.Profile)
	api.With(guard).Post("/api/profile/avatar", profileH.UploadAvatar)
	api.With(guard).Post("/api/videos/watched", profileH.WatchedVideo)

	// Quiz and progress routes
	api.With(guard).Post("/api/quiz/complete", quizH.Complete)
	api.With(guard).Get("/api/quiz/attempts", quizH.Attempts)
	api.Get("/api/leaderboard", quizH.Leaderboard)

	// Chat relay routes; streams may carry the token as ?token= for EventSource
	chat := api
	streams := api
	if cfg.ChatRequireAuth {
		chat = api.With(guard)
		streams = api.With(middleware.SessionGuard(d.Tokens, true))
	}
	chat.Post("/chat", chatH.Chat)
	streams.Get("/chat-stream", chatH.Stream(""))
	streams.Get("/chat-gemini-stream", chatH.Stream(services.ProviderGemini))
	streams.Get("/ws/chat", chatH.ChatWebSocket(handlers.NewUpgrader(cfg.AllowedOrigins)))
}
