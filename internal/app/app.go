package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"passreset/internal/app/deps"
	"passreset/internal/app/services"
	"passreset/internal/http/handlers/healthz"
	executereset "passreset/internal/http/handlers/password_reset/execute_reset"
	requestreset "passreset/internal/http/handlers/password_reset/request_reset"
	verifytoken "passreset/internal/http/handlers/password_reset/verify_token"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
)

func InitHttpServer(deps *deps.Deps, s *services.Services) *http.Server {
	router := NewRouter(deps.Config.AllowedOrigins, s, map[string]healthz.Check{
		"postgresql": func(ctx context.Context) error { return deps.DB.Ping(ctx) },
		"redis":      func(ctx context.Context) error { return deps.Redis.Ping(ctx).Err() },
		"rabbitmq": func(ctx context.Context) error {
			if deps.Rabbitmq.IsClosed() {
				return errors.New("connection is closed")
			}
			return nil
		},
	})

	address := fmt.Sprintf("0.0.0.0:%d", deps.Config.Port)

	return &http.Server{
		Handler: router,
		Addr:    address,
	}
}

func NewRouter(allowedOrigins []string, s *services.Services, checks map[string]healthz.Check) http.Handler {
	authRouter := chi.NewRouter()
	authRouter.Method(http.MethodPost, "/forgot-password", requestreset.New(s.RequestReset))
	authRouter.Method(http.MethodPost, "/verify-reset-token", verifytoken.New(s.VerifyToken))
	authRouter.Method(http.MethodPost, "/reset-password", executereset.New(s.ExecuteReset))

	router := chi.NewRouter()
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: false,
		MaxAge:           300, // Maximum value not ignored by any of major browsers
	}))
	router.Mount("/auth", authRouter)
	router.Method(http.MethodGet, "/healthz", healthz.New(checks))

	return router
}
