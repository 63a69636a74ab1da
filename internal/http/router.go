package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/redmonkez12/mybucks/internal/auth"
	"github.com/redmonkez12/mybucks/internal/config"
	"github.com/redmonkez12/mybucks/internal/httputil"
	"github.com/redmonkez12/mybucks/internal/logging"
	"github.com/redmonkez12/mybucks/internal/ratelimit"
	"github.com/redmonkez12/mybucks/internal/transaction"
)

// RouterDeps holds everything NewRouter mounts
type RouterDeps struct {
	Config             *config.Config
	Logger             *logging.Logger
	AuthHandler        *auth.Handler
	AuthMiddleware     *auth.Middleware
	TransactionHandler *transaction.Handler
	Health             *HealthHandler

	// Limiter is nil when Redis is disabled; routes are then unlimited.
	Limiter  *ratelimit.Limiter
	APIRule  ratelimit.Rule
	AuthRule ratelimit.Rule
}

// NewRouter creates and configures the HTTP router
func NewRouter(deps RouterDeps) *chi.Mux {
	cfg := deps.Config
	r := chi.NewRouter()

	// Set before any Route so sub-routers inherit them.
	r.NotFound(handleNotFound)
	r.MethodNotAllowed(handleMethodNotAllowed)

	// CORS - must be first
	if len(cfg.Server.TrustedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   cfg.Server.TrustedOrigins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", transaction.IdempotencyKeyHeader},
			ExposedHeaders:   []string{"X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset", "Retry-After", transaction.IdempotentReplayedHeader},
			AllowCredentials: true,
			MaxAge:           300, // 5 minutes
		}))
	}

	// Global middleware
	r.Use(SecurityHeaders(!cfg.Server.IsDevelopment()))
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logging.RequestLogger(deps.Logger))
	r.Use(middleware.Compress(5))

	// Swagger UI - only in development
	if cfg.Server.IsDevelopment() {
		deps.Logger.Info("swagger UI enabled", "path", "/swagger/*")
		r.Get("/swagger/*", httpSwagger.WrapHandler)
	} else {
		deps.Logger.Info("swagger UI disabled (production mode)")
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(deps.limit(deps.APIRule))

		r.Get("/health", deps.Health.Health)
		r.Get("/test", deps.Health.Test)

		r.Route("/auth", func(r chi.Router) {
			r.Use(deps.limit(deps.AuthRule))
			r.Post("/signup", deps.AuthHandler.Signup)
			r.Post("/login", deps.AuthHandler.Login)
		})

		// Protected routes (require authentication)
		r.Group(func(r chi.Router) {
			r.Use(deps.AuthMiddleware.RequireAuth)
			r.Post("/transaction", deps.TransactionHandler.Create)
			r.Delete("/transaction/{id}", deps.TransactionHandler.Delete)
			r.Get("/transactions", deps.TransactionHandler.List)
			r.Get("/transactions/summary", deps.TransactionHandler.Summary)
		})
	})

	return r
}

func (d RouterDeps) limit(rule ratelimit.Rule) func(http.Handler) http.Handler {
	if d.Limiter == nil || rule.Requests <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	return d.Limiter.Middleware(rule)
}

func handleNotFound(w http.ResponseWriter, r *http.Request) {
	httputil.RespondErrorWithCode(w, "API route not found", httputil.CodeRouteNotFound, http.StatusNotFound)
}

func handleMethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	httputil.RespondErrorWithCode(w, "method not allowed", httputil.CodeMethodNotAllowed, http.StatusMethodNotAllowed)
}
