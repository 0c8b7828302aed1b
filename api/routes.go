// Package api exposes the validation engine over HTTP.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	ov "github.com/openobs/validator"
	"github.com/openobs/validator/engine"
	"github.com/openobs/validator/model"
	"github.com/openobs/validator/service"
)

// Server wires the engine to HTTP handlers.
type Server struct {
	validator *engine.Validator
	log       zerolog.Logger
}

// NewServer creates an HTTP server facade over the validator.
func NewServer(v *engine.Validator, log zerolog.Logger) *Server {
	return &Server{validator: v, log: log}
}

// Router builds the HTTP routes.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.Use(s.logRequest)

	r.HandleFunc("/validate", s.handleValidate).Methods(http.MethodPost)
	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/metrics", s.handleMetrics).Methods(http.MethodGet)

	return r
}

// validateResponse is the wire form of a validation outcome.
type validateResponse struct {
	Valid  bool       `json:"valid"`
	Issues []ov.Issue `json:"issues,omitempty"`
}

// errorResponse is the wire form of a request failure.
type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	var obs model.Observation
	if err := json.NewDecoder(r.Body).Decode(&obs); err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid observation payload: " + err.Error()})
		return
	}

	result, err := s.validator.Validate(r.Context(), &obs)
	if err != nil {
		// A dictionary that cannot explain its own concepts is a server
		// side fault, except when the concept simply is not there.
		status := http.StatusInternalServerError
		if errors.Is(err, service.ErrNotFound) {
			status = http.StatusUnprocessableEntity
		}
		s.log.Error().Err(err).Msg("Validation aborted")
		s.writeJSON(w, status, errorResponse{Error: err.Error()})
		return
	}
	defer result.Release()

	s.writeJSON(w, http.StatusOK, validateResponse{
		Valid:  !result.HasErrors(),
		Issues: append([]ov.Issue(nil), result.Issues...),
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleMetrics(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, s.validator.Metrics().Snapshot())
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.log.Error().Err(err).Msg("Failed to write response")
	}
}

// logRequest logs method, path, and duration for every request.
func (s *Server) logRequest(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.log.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Dur("duration", time.Since(start)).
			Msg("Handled request")
	})
}
