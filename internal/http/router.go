// Package httpx adapts the account service to HTTP. It owns request parsing,
// status-code mapping, CORS, rate limiting, and metrics; all business rules
// live below it.
package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/the-auction-games/account-api/internal/repository"
	"github.com/the-auction-games/account-api/internal/service/account"
)

const (
	rateWindowDefault  = time.Minute
	rateLimitValidate  = 12
	rateLimitWrite     = 60
	rateLimitRead      = 240
	healthCheckTimeout = 2 * time.Second
)

// Router wires HTTP endpoints to the account service.
type Router struct {
	mux      *http.ServeMux
	logger   *slog.Logger
	accounts account.Service
	limiter  RateLimiter
	health   func(context.Context) error

	metricsOnce        sync.Once
	metricsInitialized bool
	requestTotal       *prometheus.CounterVec
	requestLatency     *prometheus.HistogramVec
	rateLimitHits      *prometheus.CounterVec
}

// NewRouter assembles routes with dependencies. health reports backend
// reachability for /healthz and may be nil.
func NewRouter(logger *slog.Logger, accountSvc account.Service, limiter RateLimiter, health func(context.Context) error) *Router {
	r := &Router{
		mux:      http.NewServeMux(),
		logger:   logger,
		accounts: accountSvc,
		limiter:  limiter,
		health:   health,
	}
	if r.limiter == nil {
		r.limiter = NewMemoryRateLimiter()
	}
	r.initMetrics()
	r.register()
	return r
}

// ServeHTTP delegates to underlying mux.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

// Close releases background resources.
func (r *Router) Close() {
	if r.limiter != nil {
		r.limiter.Close()
	}
}

func (r *Router) register() {
	r.mux.HandleFunc("/healthz", r.instrument("healthz", r.handleHealthz))
	r.mux.Handle("/metrics", promhttp.Handler())
	r.mux.HandleFunc("/accounts", r.instrument("accounts", r.cors(r.handleAccounts)))
	r.mux.HandleFunc("/accounts/", r.instrument("account", r.cors(r.handleAccountSubroutes)))
}

// instrument records request count and latency per logical route.
func (r *Router) instrument(route string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next(recorder, req)
		r.recordRequestMetrics(req.Method, route, recorder.status, time.Since(start))
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (sr *statusRecorder) WriteHeader(status int) {
	sr.status = status
	sr.ResponseWriter.WriteHeader(status)
}

// cors applies permissive CORS headers and short-circuits preflight requests.
func (r *Router) cors(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if req.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next(w, req)
	}
}

func (r *Router) handleHealthz(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodGet {
		r.methodNotAllowed(w)
		return
	}
	if r.health != nil {
		ctx, cancel := context.WithTimeout(req.Context(), healthCheckTimeout)
		defer cancel()
		if err := r.health(ctx); err != nil {
			r.logger.Warn("health check failed", "error", err)
			writeError(w, http.StatusServiceUnavailable, "state store unreachable")
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (r *Router) handleAccounts(w http.ResponseWriter, req *http.Request) {
	switch req.Method {
	case http.MethodGet:
		r.withRateLimit("accounts", rateLimitRead, rateWindowDefault, r.handleListAccounts)(w, req)
	case http.MethodPost:
		r.withRateLimit("accounts", rateLimitWrite, rateWindowDefault, r.handleCreateAccount)(w, req)
	default:
		r.methodNotAllowed(w)
	}
}

func (r *Router) handleAccountSubroutes(w http.ResponseWriter, req *http.Request) {
	tail := strings.Trim(strings.TrimPrefix(req.URL.Path, "/accounts/"), "/")
	if tail == "" {
		writeError(w, http.StatusNotFound, "account id required")
		return
	}
	if tail == "validate" {
		if req.Method != http.MethodPost {
			r.methodNotAllowed(w)
			return
		}
		r.withRateLimit("validate", rateLimitValidate, rateWindowDefault, r.handleValidate)(w, req)
		return
	}
	if strings.Contains(tail, "/") {
		writeError(w, http.StatusNotFound, "unknown route")
		return
	}

	switch req.Method {
	case http.MethodGet:
		r.withRateLimit("account", rateLimitRead, rateWindowDefault, r.handleGetAccount(tail))(w, req)
	case http.MethodPut:
		r.withRateLimit("account", rateLimitWrite, rateWindowDefault, r.handleUpdateAccount(tail))(w, req)
	case http.MethodDelete:
		r.withRateLimit("account", rateLimitWrite, rateWindowDefault, r.handleDeleteAccount(tail))(w, req)
	default:
		r.methodNotAllowed(w)
	}
}

func (r *Router) handleListAccounts(w http.ResponseWriter, req *http.Request) {
	details, err := r.accounts.List(req.Context())
	if err != nil {
		r.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, details)
}

func (r *Router) handleCreateAccount(w http.ResponseWriter, req *http.Request) {
	var payload account.Model
	if err := json.NewDecoder(req.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if payload.Email == "" || payload.Password == "" {
		writeError(w, http.StatusBadRequest, "email and password are required")
		return
	}
	details, err := r.accounts.Create(req.Context(), payload)
	if err != nil {
		r.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, details)
}

func (r *Router) handleGetAccount(id string) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		details, err := r.accounts.GetByID(req.Context(), id)
		if err != nil {
			r.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, details)
	}
}

func (r *Router) handleUpdateAccount(id string) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		var payload account.Model
		if err := json.NewDecoder(req.Body).Decode(&payload); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		// The path id wins over whatever the body carries.
		payload.ID = id
		if err := r.accounts.Update(req.Context(), payload); err != nil {
			r.writeServiceError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func (r *Router) handleDeleteAccount(id string) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		if err := r.accounts.Delete(req.Context(), id); err != nil {
			r.writeServiceError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func (r *Router) handleValidate(w http.ResponseWriter, req *http.Request) {
	var payload account.Credentials
	if err := json.NewDecoder(req.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	details, err := r.accounts.Validate(req.Context(), payload)
	if err != nil {
		r.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, details)
}

func (r *Router) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		writeError(w, http.StatusNotFound, "account not found")
	case errors.Is(err, account.ErrEmailTaken):
		writeError(w, http.StatusConflict, "email already in use")
	case errors.Is(err, account.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, "invalid credentials")
	default:
		r.logger.Error("request failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func (r *Router) methodNotAllowed(w http.ResponseWriter) {
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
}
