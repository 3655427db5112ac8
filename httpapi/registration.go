package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/overseerhq/overseer/registry"
)

// decode reads a JSON request body into v, writing a 400 and returning
// false on failure.
func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return false
	}
	return true
}

func (s *Server) handleRegisterPolicy(w http.ResponseWriter, r *http.Request) {
	var p registry.Policy
	if !decode(w, r, &p) {
		return
	}
	if err := s.reg.RegisterPolicy(p); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (s *Server) handleRegisterProfile(w http.ResponseWriter, r *http.Request) {
	var p registry.ContextProfile
	if !decode(w, r, &p) {
		return
	}
	if err := s.reg.RegisterContextProfile(p); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (s *Server) handleRegisterPool(w http.ResponseWriter, r *http.Request) {
	var p registry.ProviderPool
	if !decode(w, r, &p) {
		return
	}
	if err := s.reg.RegisterProviderPool(p); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (s *Server) handleRegisterGraph(w http.ResponseWriter, r *http.Request) {
	var g registry.Graph
	if !decode(w, r, &g) {
		return
	}
	if err := s.reg.RegisterGraph(g); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, g)
}
