package http

import (
	"log/slog"
	"os"

	"github.com/cmlabs-hris/timeclock-reconciler/internal/handler/http/middleware"
	"github.com/cmlabs-hris/timeclock-reconciler/internal/pkg/jwt"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v3"
	"github.com/go-chi/jwtauth/v5"
)

type RouterOptions struct {
	Env            string
	AllowedOrigins []string
	LogLevel       slog.Level
}

func NewRouter(opts RouterOptions, JWTService jwt.Service, timeclockHandler TimeclockHandler) *chi.Mux {
	r := chi.NewRouter()
	logFormat := httplog.SchemaECS.Concise(opts.Env != "production")
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level:       opts.LogLevel,
		ReplaceAttr: logFormat.ReplaceAttr,
	})).With(
		slog.String("app", "timeclock-reconciler"),
		slog.String("env", opts.Env),
	)

	if len(opts.AllowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   opts.AllowedOrigins,
			AllowCredentials: false,
			AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
			MaxAge:           300,
		}))
	}

	r.Use(httplog.RequestLogger(logger, &httplog.Options{
		Level:  slog.LevelInfo,
		Schema: httplog.SchemaECS,
	}))

	r.Use(chiMiddleware.CleanPath)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/"))

	r.Route("/api/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(jwtauth.Verifier(JWTService.JWTAuth()))
			r.Use(middleware.AuthRequired)
			r.Use(middleware.RequireOperator)

			r.Route("/timeclock", func(r chi.Router) {
				r.Route("/requests", func(r chi.Router) {
					r.Get("/", timeclockHandler.ListRequests)
					r.Post("/requeue-stale", timeclockHandler.RequeueStale)
					r.Get("/{id}", timeclockHandler.GetRequest)
					r.Post("/{id}/requeue", timeclockHandler.RequeueRequest)
				})
				r.Get("/shifts", timeclockHandler.ListShifts)
			})
		})
	})
	return r
}
