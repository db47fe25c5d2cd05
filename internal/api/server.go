package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/snarg/voicebridge/internal/config"
	"github.com/snarg/voicebridge/internal/metrics"
)

type Server struct {
	http *http.Server
	log  zerolog.Logger
}

func NewServer(cfg *config.Config, replies ReplySender, media MediaHandler, version string, startTime time.Time, log zerolog.Logger) *Server {
	r := chi.NewRouter()

	// Global middleware
	r.Use(RequestID)
	r.Use(Recoverer)
	r.Use(Logger(log))
	r.Use(metrics.InstrumentHandler)

	health := NewHealthHandler(version, startTime, cfg.TelegramToken != "", cfg.Soniox.Token != "", len(cfg.AllowList))
	r.Get("/api/v1/health", health.ServeHTTP)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	// Webhook route — secret check and rate limit apply here only
	webhook := NewWebhookHandler(replies, media, cfg.AllowList)
	r.Group(func(r chi.Router) {
		r.Use(WebhookSecret(cfg.WebhookSecret))
		r.Use(RateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst))
		r.Post("/webhook", webhook.ServeHTTP)
	})

	return &Server{
		http: &http.Server{
			Addr:         cfg.HTTPAddr,
			Handler:      r,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
			IdleTimeout:  cfg.IdleTimeout,
		},
		log: log,
	}
}

func (s *Server) Start() error {
	s.log.Info().Str("addr", s.http.Addr).Msg("http server starting")
	err := s.http.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("http server shutting down")
	return s.http.Shutdown(ctx)
}
