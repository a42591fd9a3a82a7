package api

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"

	"entrypass/internal/config"
	"entrypass/internal/http-server/handlers/entries"
	"entrypass/internal/http-server/handlers/errors"
	"entrypass/internal/http-server/handlers/events"
	"entrypass/internal/http-server/handlers/health"
	"entrypass/internal/http-server/handlers/login"
	"entrypass/internal/http-server/middleware/authenticate"
	"entrypass/internal/http-server/middleware/requestlog"
	"entrypass/internal/http-server/middleware/timeout"
	"entrypass/lib/sl"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/render"
)

type Server struct {
	conf       *config.Config
	httpServer *http.Server
	log        *slog.Logger
}

type Handler interface {
	authenticate.Authenticate
	entries.Core
	login.Core
	events.Core
}

// NewRouter wires every route. The event stream sits outside the request
// timeout because it stays open for the life of the client.
func NewRouter(conf *config.Config, log *slog.Logger, handler Handler) http.Handler {
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(requestlog.New(log))
	router.Use(middleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: conf.HTTP.CorsOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}))
	router.Use(render.SetContentType(render.ContentTypeJSON))

	router.NotFound(errors.NotFound(log))
	router.MethodNotAllowed(errors.NotAllowed(log))

	router.Get("/events", events.Stream(log, handler, conf.HTTP.Heartbeat))

	router.Group(func(r chi.Router) {
		r.Use(timeout.Timeout(conf.HTTP.RequestTimeout))

		r.Get("/health", health.Health(log))
		r.Route("/auth", func(a chi.Router) {
			a.Post("/login", login.Login(log, handler))
			a.Post("/refresh", login.Refresh(log, handler))
		})
		r.Route("/entries", func(e chi.Router) {
			e.Use(authenticate.New(log, handler))
			e.Post("/", entries.Issue(log, handler))
			e.Get("/", entries.List(log, handler))
			e.Post("/scan", entries.Scan(log, handler))
			e.Get("/{id}", entries.Get(log, handler))
			e.Get("/{id}/code", entries.Code(log, handler))
			e.Get("/{id}/qr.png", entries.QR(log, handler))
			e.Patch("/{id}/status", entries.SetStatus(log, handler))
		})
	})

	return router
}

func New(conf *config.Config, log *slog.Logger, handler Handler) *Server {
	server := &Server{
		conf: conf,
		log:  log.With(sl.Module("api.server")),
	}

	httpLog := slog.NewLogLogger(log.Handler(), slog.LevelError)
	server.httpServer = &http.Server{
		Handler:      NewRouter(conf, log, handler),
		ErrorLog:     httpLog,
		ReadTimeout:  conf.HTTP.ReadTimeout,
		WriteTimeout: conf.HTTP.WriteTimeout,
		IdleTimeout:  conf.HTTP.IdleTimeout,
	}
	return server
}

// Start blocks serving requests until Shutdown is called.
func (s *Server) Start() error {
	serverAddress := fmt.Sprintf("%s:%s", s.conf.Listen.BindIp, s.conf.Listen.Port)
	listener, err := net.Listen("tcp", serverAddress)
	if err != nil {
		return err
	}

	s.log.Info("starting api server", slog.String("address", serverAddress))

	return s.httpServer.Serve(listener)
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("shutting down api server")
	return s.httpServer.Shutdown(ctx)
}
