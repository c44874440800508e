package web

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/JonMunkholm/masterconsole/internal/web/templates"
)

// defaultHistoryLimit caps history responses when no limit is given.
const defaultHistoryLimit = 100

func (s *Server) handleHistoryPage(w http.ResponseWriter, r *http.Request) {
	entity := r.URL.Query().Get("entity")
	runs, err := s.service.History(r.Context(), entity, defaultHistoryLimit)
	if err != nil {
		respondError(w, r, err, statusFor(err))
		return
	}
	s.render(w, r, "Import history", templates.History(templates.HistoryParams{
		Entity:   entity,
		Entities: s.service.Entities(),
		Runs:     runs,
	}))
}

func (s *Server) handleHistoryJSON(w http.ResponseWriter, r *http.Request) {
	limit := defaultHistoryLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			respondError(w, r, fmt.Errorf("invalid limit parameter: %q", v), http.StatusBadRequest)
			return
		}
		limit = n
	}

	runs, err := s.service.History(r.Context(), r.URL.Query().Get("entity"), limit)
	if err != nil {
		respondError(w, r, err, statusFor(err))
		return
	}
	writeJSON(w, runs)
}

// handleHistoryExport streams the history as a CSV attachment.
func (s *Server) handleHistoryExport(w http.ResponseWriter, r *http.Request) {
	entity := r.URL.Query().Get("entity")
	name := "import_history"
	if entity != "" {
		name += "_" + entity
	}
	name += "_" + time.Now().Format("20060102") + ".csv"

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	if err := s.service.ExportHistory(r.Context(), w, entity); err != nil {
		respondError(w, r, err, statusFor(err))
	}
}
