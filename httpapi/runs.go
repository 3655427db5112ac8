package httpapi

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/overseerhq/overseer/registry"
)

type submitRunRequest struct {
	Graph  string         `json:"graph"`
	Inputs map[string]any `json:"inputs"`
}

type submitRunResponse struct {
	RunID  string `json:"run_id"`
	Status string `json:"status"`
}

// handleSubmitRun creates a pending run for the supervisor to pick up on
// its next poll; it does not execute the run inline.
func (s *Server) handleSubmitRun(w http.ResponseWriter, r *http.Request) {
	var req submitRunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if _, ok := s.reg.Graph(req.Graph); !ok {
		writeError(w, &registry.ValidationError{Subject: "graph", Name: req.Graph, Reason: "not registered"})
		return
	}

	run := registry.Run{
		ID:        uuid.NewString(),
		Graph:     req.Graph,
		Inputs:    req.Inputs,
		Status:    registry.StatusPending,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.store.Create(r.Context(), run); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, submitRunResponse{RunID: run.ID, Status: string(run.Status)})
}

// handleGetRun reports a run's current status.
func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	run, err := s.store.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, run)
}

// handleGetRunEvents returns the full event history recorded for a run.
func (s *Server) handleGetRunEvents(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := s.store.Get(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.jr.Read(id))
}

type replayRunRequest struct {
	FromStep string `json:"from_step"`
}

type replayRunResponse struct {
	RunID string `json:"run_id"`
}

// handleReplayRun starts a replay child run from the given step, per
// spec.md §4.7/§9: an absent from_step copies the full parent history and
// re-executes nothing.
func (s *Server) handleReplayRun(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req replayRunRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
			return
		}
	}

	childID, err := s.runner.ReplayFrom(r.Context(), id, req.FromStep)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, replayRunResponse{RunID: childID})
}
