package httpapi

import (
	"context"
	"html/template"
	"net/http"

	"github.com/overseerhq/overseer/registry"
)

var dashboardTemplate = template.Must(template.New("dashboard").Parse(`<!DOCTYPE html>
<html>
<head><title>overseer dashboard</title></head>
<body>
<h1>Runs</h1>
<table border="1" cellpadding="4">
<tr><th>ID</th><th>Graph</th><th>Status</th><th>Created</th><th>Parent</th></tr>
{{range .Runs}}
<tr>
  <td><a href="/runs/{{.ID}}">{{.ID}}</a></td>
  <td>{{.Graph}}</td>
  <td>{{.Status}}</td>
  <td>{{.CreatedAt}}</td>
  <td>{{.ParentRun}}</td>
</tr>
{{end}}
</table>
</body>
</html>`))

type dashboardView struct {
	Runs []registry.Run
}

// handleDashboard renders an HTML summary of pending runs, per spec.md §6.
// It is a thin operator convenience, not a control path: it shows the
// pending queue the supervisor is about to drain.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	pending, err := s.store.ListPending(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	render(r.Context(), w, dashboardView{Runs: pending})
}

func render(ctx context.Context, w http.ResponseWriter, view dashboardView) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_ = dashboardTemplate.Execute(w, view)
}
