// Package httpapi is the control-plane HTTP surface of spec.md §6:
// registration endpoints for graphs/policies/profiles/pools, run
// submission, event/status lookup, replay, and an operator dashboard.
package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"

	"github.com/overseerhq/overseer/engine"
	"github.com/overseerhq/overseer/journal"
	"github.com/overseerhq/overseer/registry"
	"github.com/overseerhq/overseer/runstore"
)

// Server wires the registry, journal, runner, and run store behind a chi
// router. It holds no state of its own beyond these collaborators.
type Server struct {
	reg    *registry.Registry
	jr     *journal.Journal
	runner *engine.Runner
	store  runstore.Store
	log    *logrus.Entry

	router chi.Router
}

// New builds a Server and mounts every route.
func New(reg *registry.Registry, jr *journal.Journal, runner *engine.Runner, store runstore.Store, log *logrus.Logger) *Server {
	if log == nil {
		log = logrus.StandardLogger()
	}
	s := &Server{
		reg:    reg,
		jr:     jr,
		runner: runner,
		store:  store,
		log:    log.WithField("component", "httpapi"),
	}
	s.router = s.routes()
	return s
}

// ServeHTTP makes Server an http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Post("/policies", s.handleRegisterPolicy)
	r.Post("/profiles", s.handleRegisterProfile)
	r.Post("/pools", s.handleRegisterPool)
	r.Post("/graphs", s.handleRegisterGraph)

	r.Post("/runs", s.handleSubmitRun)
	r.Get("/runs/{id}", s.handleGetRun)
	r.Get("/runs/{id}/events", s.handleGetRunEvents)
	r.Post("/runs/{id}/replay", s.handleReplayRun)

	r.Get("/dashboard", s.handleDashboard)
	return r
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.log.WithField("method", r.Method).WithField("path", r.URL.Path).Debug("request")
		next.ServeHTTP(w, r)
	})
}

// writeJSON writes v as a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps a registration or lookup failure to an HTTP status:
// *registry.ValidationError is a 400, runstore.ErrNotFound a 404, anything
// else a 500.
func writeError(w http.ResponseWriter, err error) {
	var verr *registry.ValidationError
	status := http.StatusInternalServerError
	if errors.As(err, &verr) {
		status = http.StatusBadRequest
	}
	if errors.Is(err, runstore.ErrNotFound) {
		status = http.StatusNotFound
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
