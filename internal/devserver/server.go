package devserver

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/coffeeclub/coffeeclub-client/pkg/config"
	"github.com/coffeeclub/coffeeclub-client/pkg/logger"
	"github.com/coffeeclub/coffeeclub-client/pkg/metrics"
)

// Server is the in-memory mock of the Coffee Club API, for working on the
// client without a real backend. It speaks the same envelope, auth scheme,
// and full-snapshot cart contract as production.
type Server struct {
	cfg        config.DevServerConfig
	logg       *logger.Logger
	state      *state
	validate   *validator.Validate
	registry   *prometheus.Registry
	reqMetrics *metrics.RequestMetrics
	router     chi.Router
	now        func() time.Time
}

// Option configures optional server behavior.
type Option func(*Server)

// WithNow overrides the clock.
func WithNow(now func() time.Time) Option {
	return func(s *Server) {
		if now != nil {
			s.now = now
		}
	}
}

// New builds the devserver with a seeded menu and empty world.
func New(cfg config.DevServerConfig, logg *logger.Logger, opts ...Option) *Server {
	server := &Server{
		cfg:      cfg,
		logg:     logg,
		validate: validator.New(),
		registry: prometheus.NewRegistry(),
		now:      time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(server)
		}
	}

	server.state = newState(cfg.FreeDrinkThreshold, server.now)
	server.reqMetrics = metrics.NewRequestMetrics(server.registry)
	server.router = server.buildRouter()
	return server
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	r.Use(requestIDMiddleware(s.logg))
	r.Use(corsMiddleware(s.cfg.AllowedOrigins))
	r.Use(loggingMiddleware(s.logg, s.reqMetrics))
	r.Use(recovererMiddleware(s.logg))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeSuccess(w, map[string]string{"status": "ok"})
	})
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))

	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", s.handleRegister)
		r.Post("/login", s.handleLogin)
	})

	r.Group(func(r chi.Router) {
		r.Use(s.authMiddleware)

		r.Get("/menu", s.handleMenu)

		r.Route("/profile", func(r chi.Router) {
			r.Get("/", s.handleGetProfile)
			r.Patch("/", s.handleUpdateProfile)
			r.Patch("/password", s.handleChangePassword)
		})

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", s.handleGetCart)
			r.Delete("/", s.handleClearCart)
			r.Post("/items", s.handleAddCartItem)
			r.Patch("/items/{lineID}", s.handleUpdateCartItem)
			r.Delete("/items/{lineID}", s.handleRemoveCartItem)
		})

		r.Route("/rewards", func(r chi.Router) {
			r.Get("/", s.handleGetRewards)
			r.Post("/refill", s.handleRefill)
		})

		r.Post("/payments/intent", s.handleCreateIntent)
		r.Post("/payments/gift-card", s.handleChargeGiftCard)
		r.Post("/orders/free", s.handleFreeOrder)

		r.Post("/assistant/chat", s.handleAssistantChat)
	})

	return r
}
