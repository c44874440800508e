package web

import (
	"net/http"

	"github.com/a-h/templ"

	"github.com/JonMunkholm/masterconsole/internal/core"
	"github.com/JonMunkholm/masterconsole/internal/logging"
	"github.com/JonMunkholm/masterconsole/internal/web/templates"
)

// render writes body inside the console layout.
func (s *Server) render(w http.ResponseWriter, r *http.Request, title string, body templ.Component) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	page := templates.Layout(templates.LayoutParams{
		Title:    title,
		Operator: core.OperatorFromContext(r.Context()),
	}, body)
	if err := page.Render(r.Context(), w); err != nil {
		logging.FromContext(r.Context()).Warn("render error", "path", r.URL.Path, "error", err)
	}
}

func (s *Server) handleMenu(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, "Menu", templates.Menu(s.service.Entities()))
}

func (s *Server) handleListEntities(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.service.Entities())
}

func (s *Server) handleImportStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.service.LimiterStatus())
}
