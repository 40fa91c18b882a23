// Package server exposes the synthesis pipeline over HTTP.
//
// The server is a thin shell around synthesis.Runner: one endpoint runs a
// synthesis and stores the outcome, two endpoints replay stored runs. It
// exists for deployments where layout tools talk to a shared service
// instead of shelling out to the CLI.
package server

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/anchorsynth/anchorsynth/pkg/errors"
	"github.com/anchorsynth/anchorsynth/pkg/store"
	"github.com/anchorsynth/anchorsynth/pkg/synthesis"
)

// maxBodyBytes caps request bodies; layout documents are small.
const maxBodyBytes = 16 << 20

// Server handles synthesis API requests.
type Server struct {
	runner *synthesis.Runner
	store  store.Store
	logger *log.Logger
}

// New creates a server. A nil store falls back to in-memory run history.
func New(runner *synthesis.Runner, st store.Store, logger *log.Logger) *Server {
	if st == nil {
		st = store.NewMemoryStore()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Server{runner: runner, store: st, logger: logger}
}

// Handler builds the HTTP routing table.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Post("/api/synthesize", s.handleSynthesize)
	r.Get("/api/runs", s.handleListRuns)
	r.Get("/api/runs/{id}", s.handleGetRun)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return r
}

// synthesizeRequest is the POST body: the input document with an optional
// embedded options object. Unknown fields are ignored so the raw body can
// double as the runner's input.
type synthesizeRequest struct {
	Options synthesis.Options `json:"options"`
}

// synthesizeResponse wraps the output document with the run ID.
type synthesizeResponse struct {
	RunID string `json:"run_id"`
	synthesis.Document
}

func (s *Server) handleSynthesize(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		s.writeError(w, errors.Wrap(errors.ErrCodeInvalidInput, err, "reading request body"))
		return
	}

	var req synthesizeRequest
	if err := json.Unmarshal(body, &req); err != nil {
		s.writeError(w, errors.Wrap(errors.ErrCodeInvalidInput, err, "malformed request"))
		return
	}

	res, err := s.runner.Synthesize(r.Context(), body, req.Options)
	if err != nil && (res == nil || !errors.Is(err, errors.ErrCodeTimeout)) {
		s.writeError(w, err)
		return
	}

	doc := res.Document()
	docData, marshalErr := json.Marshal(doc)
	if marshalErr == nil {
		optsData, _ := json.Marshal(req.Options)
		storeErr := s.store.Put(r.Context(), &store.Run{
			ID:        res.RunID,
			CreatedAt: time.Now(),
			Options:   optsData,
			Input:     body,
			Document:  docData,
		})
		if storeErr != nil {
			s.logger.Warn("storing run failed", "run", res.RunID, "err", storeErr)
		}
	}

	status := http.StatusOK
	if err != nil {
		// Partial result after the global deadline.
		status = http.StatusGatewayTimeout
	}
	s.writeJSON(w, status, synthesizeResponse{RunID: res.RunID, Document: doc})
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	run, err := s.store.Get(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, run)
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	runs, err := s.store.List(r.Context(), 50)
	if err != nil {
		s.writeError(w, err)
		return
	}
	// Drop the input payloads from listings; they can be large.
	for _, run := range runs {
		run.Input = nil
	}
	s.writeJSON(w, http.StatusOK, runs)
}

// errorResponse is the JSON error envelope.
type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch errors.GetCode(err) {
	case errors.ErrCodeInvalidInput, errors.ErrCodeInvalidFormat,
		errors.ErrCodeInvalidOptions, errors.ErrCodeNonIsomorphic:
		status = http.StatusBadRequest
	case errors.ErrCodeNotFound:
		status = http.StatusNotFound
	case errors.ErrCodeTimeout:
		status = http.StatusGatewayTimeout
	}
	s.logger.Debug("request failed", "status", status, "err", err)
	s.writeJSON(w, status, errorResponse{
		Code:    string(errors.GetCode(err)),
		Message: errors.UserMessage(err),
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn("writing response failed", "err", err)
	}
}
