package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"storefront-auth/internal/config"
	"storefront-auth/internal/handler"
	"storefront-auth/internal/middleware"
	"storefront-auth/internal/model"
)

type Handlers struct {
	Auth *handler.AuthHandler
	User *handler.UserHandler
}

func New(cfg *config.Config, authMiddleware *middleware.AuthMiddleware, h Handlers) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recovery)
	r.Use(middleware.Logging)
	r.Use(middleware.CORS(cfg.CORSOrigins))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Route("/api/v1", func(api chi.Router) {
		api.Route("/auth", func(auth chi.Router) {
			auth.Post("/register", h.Auth.Register)
			auth.Post("/login", h.Auth.Login)
			auth.With(authMiddleware.Authenticate).Delete("/logout", h.Auth.Logout)
			auth.Post("/verify-email", h.Auth.VerifyEmail)
			auth.Post("/forgot-password", h.Auth.ForgotPassword)
			auth.Post("/reset-password", h.Auth.ResetPassword)
		})

		api.Route("/users", func(users chi.Router) {
			users.Use(authMiddleware.Authenticate)
			users.With(authMiddleware.RequireRoles(model.RoleAdmin)).Get("/", h.User.List)
			users.Get("/me", h.User.Me)
			users.Get("/{id}", h.User.Get)
			users.With(authMiddleware.RequireRoles(model.RoleAdmin)).Post("/{id}/revoke-sessions", h.User.RevokeSessions)
		})
	})

	return r
}
