package httpapi

import (
	"context"
	"crypto/subtle"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/bnema/kol-credits/internal/adapters/metrics"
	"github.com/bnema/kol-credits/internal/application"
	gorillaHandlers "github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"golang.org/x/time/rate"
)

const (
	requestTimeout   = 5 * time.Second
	visitorIdleAfter = 3 * time.Minute
	cleanupInterval  = time.Minute
)

type Config struct {
	RateLimit      rate.Limit
	Burst          int
	AllowedOrigins []string
	// MetricsUser and MetricsPassword protect /metrics with basic auth when both are set.
	MetricsUser     string
	MetricsPassword string
}

type Services struct {
	Ledger      *application.Ledger
	Meter       *application.Meter
	Permissions *application.Permissions
	Contacts    *application.ContactGate
	Metrics     *metrics.Metrics
	Logger      *slog.Logger
}

// Server exposes the credit ledger and permission policies over HTTP. Identity comes from
// headers set by the upstream gateway.
type Server struct {
	services Services
	limiter  *limiterPool
	logger   *slog.Logger
	handler  http.Handler
}

func New(services Services, cfg Config) *Server {
	if services.Metrics == nil {
		services.Metrics = metrics.New()
	}
	logger := services.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if cfg.RateLimit <= 0 {
		cfg.RateLimit = 5
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 30
	}
	if len(cfg.AllowedOrigins) == 0 {
		cfg.AllowedOrigins = []string{"*"}
	}

	s := &Server{
		services: services,
		limiter:  newLimiterPool(cfg.RateLimit, cfg.Burst, time.Now),
		logger:   logger,
	}
	s.handler = s.routes(cfg)
	return s
}

func (s *Server) Handler() http.Handler {
	return s.handler
}

func (s *Server) routes(cfg Config) http.Handler {
	r := mux.NewRouter()
	r.Use(s.services.Metrics.Middleware)

	r.HandleFunc("/health", s.health).Methods(http.MethodGet)
	var metricsHandler http.Handler = s.services.Metrics.Handler()
	if cfg.MetricsUser != "" && cfg.MetricsPassword != "" {
		metricsHandler = basicAuth(cfg.MetricsUser, cfg.MetricsPassword, metricsHandler)
	}
	r.Handle("/metrics", metricsHandler).Methods(http.MethodGet)

	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(identityMiddleware)
	api.Use(s.rateLimitMiddleware)

	api.HandleFunc("/credits", s.getCredits).Methods(http.MethodGet)
	api.HandleFunc("/credits/consume", s.consume).Methods(http.MethodPost)
	api.HandleFunc("/credits/estimate", s.estimate).Methods(http.MethodGet)
	api.HandleFunc("/credits/packages", s.purchasePackage).Methods(http.MethodPost)

	api.HandleFunc("/permissions/{action}", s.canPerform).Methods(http.MethodGet)
	api.HandleFunc("/search-limit", s.searchLimit).Methods(http.MethodGet)

	api.HandleFunc("/contacts/{type}/{id}", s.canMessage).Methods(http.MethodGet)
	api.HandleFunc("/contacts/{type}/{id}", s.recordMessage).Methods(http.MethodPost)
	api.HandleFunc("/invitations/{kolID}", s.invite).Methods(http.MethodPost)

	cors := gorillaHandlers.CORS(
		gorillaHandlers.AllowedOrigins(cfg.AllowedOrigins),
		gorillaHandlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodOptions}),
		gorillaHandlers.AllowedHeaders([]string{"Content-Type", headerAccountID, headerAuthenticated, headerRole, headerTier}),
		gorillaHandlers.ExposedHeaders([]string{"Content-Length"}),
	)

	return cors(r)
}

// CleanupVisitors drops idle rate limiters until ctx is cancelled.
func (s *Server) CleanupVisitors(ctx context.Context) {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.limiter.cleanup(visitorIdleAfter)
		case <-ctx.Done():
			return
		}
	}
}

func basicAuth(user, password string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUser, gotPassword, ok := r.BasicAuth()
		if !ok ||
			subtle.ConstantTimeCompare([]byte(gotUser), []byte(user)) != 1 ||
			subtle.ConstantTimeCompare([]byte(gotPassword), []byte(password)) != 1 {
			w.Header().Set("WWW-Authenticate", `Basic realm="Metrics"`)
			respondWithError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]string{"status": "healthy", "service": "kol-credits"})
}
