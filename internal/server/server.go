// Package server exposes the analytics pipeline over HTTP. It is pure
// transport: query parsing, request IDs, status mapping and encoding.
// All computation happens in the engine.
package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/contactkeval/option-analytics/internal/chain"
	"github.com/contactkeval/option-analytics/internal/engine"
	"github.com/contactkeval/option-analytics/internal/logger"
)

// Server serves analytics computations over REST.
type Server struct {
	engine        *engine.Engine
	defaultTicker string
}

// New wraps an engine in a Server. defaultTicker is used when a request
// omits the ticker query parameter.
func New(eng *engine.Engine, defaultTicker string) *Server {
	return &Server{engine: eng, defaultTicker: defaultTicker}
}

// Router builds the versioned route table.
func (s *Server) Router() *mux.Router {
	router := mux.NewRouter()
	router.Use(ZstdMiddleware)

	api := router.PathPrefix("/api/v1").Subrouter()
	for _, r := range s.routes() {
		api.HandleFunc(r.Path, r.Handler).Methods(r.Method)
	}
	return router
}

type apiRoute struct {
	Path    string
	Method  string
	Handler http.HandlerFunc
}

func (s *Server) routes() []apiRoute {
	return []apiRoute{
		{
			Path:    "/analytics",
			Method:  "GET",
			Handler: s.GetAnalytics,
		},
		{
			Path:    "/health",
			Method:  "GET",
			Handler: s.Health,
		},
	}
}

// errorEnvelope is the JSON error body returned on any failure.
type errorEnvelope struct {
	Error     string `json:"error"`
	RequestID string `json:"requestId"`
}

// GetAnalytics runs one computation for ?ticker= and answers the full
// CalculationResult as JSON.
func (s *Server) GetAnalytics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	requestID := uuid.NewString()
	w.Header().Set("X-Request-ID", requestID)

	ticker := r.URL.Query().Get("ticker")
	if ticker == "" {
		ticker = s.defaultTicker
	}

	start := time.Now()
	logger.Infof("event=api_request id=%s path=%s ticker=%s", requestID, r.URL.Path, ticker)

	res, err := s.engine.Run(ticker, time.Now().UTC())
	if err != nil {
		status := statusFor(err)
		logger.Errorf("event=api_error id=%s status=%d err=%v", requestID, status, err)
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(errorEnvelope{Error: err.Error(), RequestID: requestID})
		return
	}

	logger.Infof("event=api_response id=%s quotes=%d elapsed=%s",
		requestID, res.TotalQuotes(), time.Since(start))
	_ = json.NewEncoder(w).Encode(res)
}

// Health answers a plain liveness probe.
func (s *Server) Health(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// statusFor maps the engine's error taxonomy onto HTTP statuses: bad
// ticker → 400, missing upstream market input → 502, anything else → 500.
func statusFor(err error) int {
	switch {
	case errors.Is(err, chain.ErrInvalidTicker):
		return http.StatusBadRequest
	case errors.Is(err, engine.ErrInputUnavailable):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
