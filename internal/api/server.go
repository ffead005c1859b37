// Package api is the HTTP JSON interface of the booking service.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"beautybook/internal/booking"
)

// Pinger reports whether a dependency is ready to serve.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Options struct {
	Port               int
	CORSOrigins        []string
	RateLimitPerMinute int
	RateLimitBurst     int
	ReadTimeout        time.Duration
	WriteTimeout       time.Duration
}

type HTTPServer struct {
	svc    *booking.Service
	ready  Pinger
	logger *zerolog.Logger
	server *http.Server
}

func NewHTTPServer(svc *booking.Service, ready Pinger, opts Options, logger *zerolog.Logger) *HTTPServer {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	if opts.Port == 0 {
		opts.Port = 8080
	}
	l := logger.With().Str("component", "api").Logger()

	s := &HTTPServer{svc: svc, ready: ready, logger: &l}
	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", opts.Port),
		Handler:      s.routes(opts),
		ReadTimeout:  opts.ReadTimeout,
		WriteTimeout: opts.WriteTimeout,
	}
	return s
}

func (s *HTTPServer) Handler() http.Handler {
	return s.server.Handler
}

// Start serves until ctx is cancelled.
func (s *HTTPServer) Start(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(ctxShutdown)
	}()

	s.logger.Info().Str("addr", s.server.Addr).Msg("HTTP API started")
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

func (s *HTTPServer) routes(opts Options) http.Handler {
	r := chi.NewRouter()

	origins := opts.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.recoverer)
	r.Use(s.instrument)
	if opts.RateLimitPerMinute > 0 {
		r.Use(newRateLimiter(opts.RateLimitPerMinute, opts.RateLimitBurst).Limit)
	}

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/treatments", s.handleTreatments)

		r.Route("/professionals", func(r chi.Router) {
			r.Get("/", s.handleProfessionals)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handleProfessional)
				r.Get("/schedule", s.handleEffectiveSchedule)
				r.Put("/schedule", s.handleUpdateSchedule)
				r.Post("/exceptions", s.handleUpsertException)
				r.Delete("/exceptions/{exceptionID}", s.handleDeleteException)
				r.Get("/slots", s.handleSlots)
				r.Get("/appointments", s.handleDayAppointments)
				r.Get("/agenda.xlsx", s.handleAgenda)
			})
		})

		r.Route("/appointments", func(r chi.Router) {
			r.Post("/", s.handleBook)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handleAppointment)
				r.Put("/", s.handleReschedule)
				r.Delete("/", s.handleDelete)
				r.Post("/cancel", s.handleCancel)
				r.Patch("/status", s.handleStatus)
			})
		})
	})

	return r
}
