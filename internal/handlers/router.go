package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"go.uber.org/zap"

	"finwise/internal/apperr"
	"finwise/internal/httpx"
	mw "finwise/internal/middleware"
	"finwise/internal/models"
)

// RouterConfig collects everything the HTTP surface is built from.
type RouterConfig struct {
	Logger         *zap.Logger
	AuthMW         *mw.AuthMiddleware
	Metrics        *mw.Metrics
	Auth           *AuthHandler
	Users          *UserHandler
	Admin          *AdminHandler
	Questionnaires *QuestionnaireHandler
	Profiles       *FinancialProfileHandler
	Analytics      *AnalyticsHandler
	Health         *HealthHandler
	ClientOrigins  []string
	RequestTimeout time.Duration
	LoginRateLimit int
	Production     bool
}

func NewRouter(c RouterConfig) http.Handler {
	logger := c.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := c.RequestTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(mw.ZapRequestLogger(logger))
	r.Use(mw.ZapRecoverer(logger))
	r.Use(c.Metrics.Middleware)
	r.Use(mw.SecureHeaders(logger, c.Production))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   c.ClientOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link", "Retry-After"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(mw.RequestTimeout(logger, timeout))

	r.Get("/healthz", c.Health.Health)
	r.Method(http.MethodGet, "/metrics", c.Metrics.Handler())

	adminOnly := mw.RequireRoles(logger, models.RoleAdmin)

	r.Route("/api", func(api chi.Router) {
		api.Route("/users", func(ur chi.Router) {
			ur.Post("/signup", c.Auth.Signup)
			ur.With(loginLimiter(c.LoginRateLimit)).Post("/login", c.Auth.Login)
			ur.Post("/logout", c.Auth.Logout)

			ur.Group(func(pr chi.Router) {
				pr.Use(c.AuthMW.RequireAuth)
				pr.Get("/checkAuth", c.Auth.CheckAuth)
				pr.Get("/profile", c.Users.GetMe)
				pr.Put("/profile", c.Users.UpdateMe)
				pr.Put("/profile/photo", c.Users.UploadPhoto)

				pr.Group(func(ar chi.Router) {
					ar.Use(adminOnly)
					ar.Get("/", c.Admin.ListUsers)
					ar.Get("/{userId}", c.Admin.GetUser)
					ar.Delete("/{userId}", c.Admin.DeleteUser)
					ar.Put("/{userId}/block", c.Admin.SetBlocked)
					ar.Put("/{userId}/toggle-block", c.Admin.ToggleBlocked)
					ar.Put("/{userId}/role", c.Admin.SetRole)
					ar.Put("/{userId}/password", c.Admin.ResetPassword)
					ar.Get("/{userId}/activity", c.Admin.Activity)
				})
			})
		})

		api.Route("/questionnaire", func(qr chi.Router) {
			qr.Use(c.AuthMW.RequireAuth)
			qr.Post("/submit", c.Questionnaires.Submit)
			qr.Get("/latest", c.Questionnaires.Latest)
			qr.Get("/user/{userId}", c.Questionnaires.ListByUser)
		})

		api.Route("/profile", func(fp chi.Router) {
			fp.Use(c.AuthMW.RequireAuth)
			fp.Post("/submit", c.Profiles.Submit)
			fp.Get("/latest", c.Profiles.Latest)
		})

		api.Route("/analytics", func(an chi.Router) {
			an.Use(c.AuthMW.RequireAuth)
			an.Get("/user", c.Analytics.UserSummary)
			an.Group(func(ar chi.Router) {
				ar.Use(adminOnly)
				ar.Get("/lifestyle", c.Analytics.Lifestyle)
				ar.Get("/risk-tolerance", c.Analytics.RiskTolerance)
				ar.Get("/statistics", c.Analytics.Statistics)
			})
		})
	})

	return r
}

// loginLimiter throttles login attempts per client IP; limit <= 0 disables it.
func loginLimiter(limit int) func(http.Handler) http.Handler {
	if limit <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	return httprate.Limit(limit, time.Minute,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			httpx.JSON(w, http.StatusTooManyRequests, httpx.ErrorBody{
				Message: "Too many login attempts, try again later.",
				Code:    apperr.CodeRateLimited,
			})
		}),
	)
}
