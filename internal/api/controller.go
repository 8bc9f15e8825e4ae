// Package api exposes the executor over HTTP.
package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"stakeVault/internal/host"
	"stakeVault/internal/model"
)

type Controller struct {
	exec     *host.Executor
	gatherer prometheus.Gatherer
	validate *validator.Validate
	logger   *zap.Logger
}

// NewController returns a new controller. A nil gatherer serves the default
// prometheus registry.
func NewController(exec *host.Executor, gatherer prometheus.Gatherer, logger *zap.Logger) *Controller {
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Controller{
		exec:     exec,
		gatherer: gatherer,
		validate: validator.New(),
		logger:   logger,
	}
}

// NewRouter returns a new router with all the routes defined in this package.
func (c *Controller) NewRouter() *mux.Router {
	r := mux.NewRouter()
	r.Use(c.logRequests)

	r.HandleFunc("/healthz", c.HandleHealth).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.HandlerFor(c.gatherer, promhttp.HandlerOpts{})).Methods(http.MethodGet)

	v1 := r.PathPrefix("/v1").Subrouter()
	v1.HandleFunc("/instructions", c.HandleSubmit).Methods(http.MethodPost)
	v1.HandleFunc("/pool", c.HandlePool).Methods(http.MethodGet)
	v1.HandleFunc("/positions/{id:[0-9]+}", c.HandlePosition).Methods(http.MethodGet)
	v1.HandleFunc("/owners/{owner}/positions", c.HandleOwnerPositions).Methods(http.MethodGet)
	v1.HandleFunc("/access/{owner}", c.HandleAccess).Methods(http.MethodGet)
	v1.HandleFunc("/audit", c.HandleAudit).Methods(http.MethodGet)
	v1.HandleFunc("/events", c.HandleEvents).Methods(http.MethodGet)

	return r
}

func (c *Controller) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()
		next.ServeHTTP(w, r)
		c.logger.Debug("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Duration("elapsed", time.Since(started)),
		)
	})
}

func writeJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(data)
}

type errorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, errorResponse{Error: message})
}

// writeLedgerError maps a ledger error to its HTTP status.
func writeLedgerError(w http.ResponseWriter, err error) {
	writeJSON(w, statusFor(err), errorResponse{Error: err.Error(), Kind: model.KindOf(err)})
}

func statusFor(err error) int {
	switch model.KindOf(err) {
	case "PositionNotFound", "PoolNotInitialized":
		return http.StatusNotFound
	case "InvalidSignature":
		return http.StatusUnauthorized
	}
	switch model.CategoryOf(err) {
	case model.CategoryValidation:
		return http.StatusBadRequest
	case model.CategoryAuthorization:
		return http.StatusForbidden
	case model.CategoryState:
		return http.StatusConflict
	case model.CategoryArithmetic:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
