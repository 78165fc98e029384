package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/wonny/limitrade/internal/api/handlers"
	"github.com/wonny/limitrade/pkg/logger"
)

// Handlers bundles every endpoint group the router mounts
type Handlers struct {
	Health       *handlers.HealthHandler
	Score        *handlers.ScoreHandler
	Combinations *handlers.CombinationHandler
	Forecast     *handlers.ForecastHandler
	Scan         *handlers.ScanHandler
	Config       *handlers.ConfigHandler
	Stream       *handlers.Hub
}

// NewRouter creates and configures the HTTP router
// SSOT: routes are declared in this function only
func NewRouter(h Handlers, log *logger.Logger) http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/health", h.Health.Health).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/score", h.Score.Score).Methods(http.MethodPost)
	api.HandleFunc("/combinations", h.Combinations.Find).Methods(http.MethodPost)
	api.HandleFunc("/forecast", h.Forecast.Update).Methods(http.MethodPost)
	api.HandleFunc("/forecast", h.Forecast.Current).Methods(http.MethodGet)
	api.HandleFunc("/scan/latest", h.Scan.Latest).Methods(http.MethodGet)
	api.HandleFunc("/scan/recent", h.Scan.Recent).Methods(http.MethodGet)
	api.HandleFunc("/scan", h.Scan.Trigger).Methods(http.MethodPost)
	api.HandleFunc("/config/profile", h.Config.GetProfile).Methods(http.MethodGet)
	api.HandleFunc("/config/profile", h.Config.PutProfile).Methods(http.MethodPut)

	if h.Stream != nil {
		r.HandleFunc("/ws/scans", h.Stream.Stream).Methods(http.MethodGet)
	}

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	r.Use(loggingMiddleware(log))
	r.Use(recoveryMiddleware(log))

	return r
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// statusRecorder captures the status code for request logging
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// loggingMiddleware logs HTTP requests
func loggingMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// the websocket upgrade needs the raw writer's Hijacker
			if r.URL.Path == "/ws/scans" {
				next.ServeHTTP(w, r)
				return
			}

			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(rec, r)

			log.WithFields(map[string]interface{}{
				"method":   r.Method,
				"path":     r.URL.Path,
				"status":   rec.status,
				"duration": time.Since(start),
			}).Debug("HTTP request")
		})
	}
}

// recoveryMiddleware recovers from panics
func recoveryMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					log.WithFields(map[string]interface{}{
						"error": err,
						"path":  r.URL.Path,
					}).Error("Panic recovered")

					writeError(w, http.StatusInternalServerError, "Internal server error")
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
