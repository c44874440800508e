package web

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/masterconsole/internal/core"
	"github.com/JonMunkholm/masterconsole/internal/docstore"
	"github.com/JonMunkholm/masterconsole/internal/logging"
	"github.com/JonMunkholm/masterconsole/internal/web/templates"
)

// multipartMemory is how much of an upload ParseMultipartForm keeps in memory.
const multipartMemory = 8 << 20

func (s *Server) handleImportPage(w http.ResponseWriter, r *http.Request) {
	sc, err := s.service.Schema(chi.URLParam(r, "entity"))
	if err != nil {
		respondError(w, r, err, statusFor(err))
		return
	}
	s.render(w, r, sc.Label+" import", templates.Import(templates.ImportParams{
		Entity:      sc.Info(),
		LongPolling: s.cfg.Server.LongPolling,
		MaxFileSize: s.cfg.Import.MaxFileSize,
	}))
}

// handleImport accepts a multipart upload in the "file" field and starts the
// run in the background. The response carries the run id to follow.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	entity := chi.URLParam(r, "entity")
	if _, err := s.service.Schema(entity); err != nil {
		respondError(w, r, err, statusFor(err))
		return
	}

	fileName, data, err := s.readUpload(w, r)
	if err != nil {
		respondError(w, r, err, statusFor(err))
		return
	}

	runID, err := s.service.StartImport(r.Context(), entity, fileName, data)
	if err != nil {
		respondError(w, r, err, statusFor(err))
		return
	}

	logging.FromContext(r.Context()).Info("import started",
		"run_id", runID,
		"entity", entity,
		"file", fileName,
		"bytes", len(data),
	)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]string{"run_id": runID})
}

// previewView is the JSON shape of a dry-run parse.
type previewView struct {
	Entity  string       `json:"entity"`
	File    string       `json:"file_name"`
	Skipped int          `json:"skipped"`
	Rows    []previewRow `json:"rows"`
}

type previewRow struct {
	Key string            `json:"key"`
	Doc docstore.Document `json:"doc"`
}

// defaultPreviewLimit caps preview rows when no limit is given.
const defaultPreviewLimit = 20

// handlePreview parses an upload with the entity's schema and returns the
// first documents it would write, without touching the store.
func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	sc, err := s.service.Schema(chi.URLParam(r, "entity"))
	if err != nil {
		respondError(w, r, err, statusFor(err))
		return
	}

	limit := defaultPreviewLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			respondError(w, r, fmt.Errorf("invalid limit parameter: %q", v), http.StatusBadRequest)
			return
		}
		limit = n
	}

	fileName, data, err := s.readUpload(w, r)
	if err != nil {
		respondError(w, r, err, statusFor(err))
		return
	}
	if len(data) == 0 {
		respondError(w, r, core.ErrEmptyFile, http.StatusBadRequest)
		return
	}

	recs, skipped, err := core.Preview(sc, bytes.NewReader(data), limit)
	if err != nil {
		respondError(w, r, err, statusFor(err))
		return
	}

	view := previewView{Entity: sc.Key, File: fileName, Skipped: skipped, Rows: make([]previewRow, len(recs))}
	for i, rec := range recs {
		view.Rows[i] = previewRow{Key: rec.Key, Doc: rec.Doc}
	}
	writeJSON(w, view)
}

// readUpload returns the name and bytes of the "file" form field, capped at
// the configured import size.
func (s *Server) readUpload(w http.ResponseWriter, r *http.Request) (string, []byte, error) {
	if limit := s.cfg.Import.MaxFileSize; limit > 0 {
		// Leave room for the multipart envelope.
		r.Body = http.MaxBytesReader(w, r.Body, limit+1<<20)
	}
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return "", nil, fmt.Errorf("%w: %v", core.ErrFileTooLarge, err)
		}
		return "", nil, core.ErrNoFile
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		return "", nil, core.ErrNoFile
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return "", nil, fmt.Errorf("read upload: %w", err)
	}
	return header.Filename, data, nil
}

// handleImportProgress follows a run. Browsers get a Server-Sent Events
// stream; clients that pass ?after=<seq> or when long polling is configured
// get one JSON snapshot per request.
func (s *Server) handleImportProgress(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "runID")

	if s.cfg.Server.LongPolling || r.URL.Query().Has("after") {
		s.longPollProgress(w, r, runID)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		s.longPollProgress(w, r, runID)
		return
	}

	updates, unsubscribe, err := s.service.SubscribeProgress(runID)
	if err != nil {
		respondError(w, r, err, statusFor(err))
		return
	}
	defer unsubscribe()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case p, ok := <-updates:
			if !ok {
				s.sendComplete(w, runID)
				flusher.Flush()
				return
			}
			if err := sendEvent(w, "progress", p.Seq, p); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

func (s *Server) sendComplete(w io.Writer, runID string) {
	res, ok, err := s.service.LookupResult(runID)
	if err != nil || !ok {
		fmt.Fprint(w, "event: complete\ndata: {}\n\n")
		return
	}
	sendEvent(w, "complete", 0, res)
}

// sendEvent writes one SSE frame. A zero id is omitted.
func sendEvent(w io.Writer, event string, id int, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if id > 0 {
		if _, err := fmt.Fprintf(w, "id: %d\n", id); err != nil {
			return err
		}
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data)
	return err
}

func (s *Server) longPollProgress(w http.ResponseWriter, r *http.Request, runID string) {
	after := -1
	if v := r.URL.Query().Get("after"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			respondError(w, r, fmt.Errorf("invalid after parameter: %q", v), http.StatusBadRequest)
			return
		}
		after = n
	}

	ctx := r.Context()
	if wait := s.cfg.Server.LongPollWait; wait > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, wait)
		defer cancel()
	}

	p, err := s.service.WaitProgress(ctx, runID, after)
	if err != nil {
		respondError(w, r, err, statusFor(err))
		return
	}
	w.Header().Set("Cache-Control", "no-cache")
	writeJSON(w, p)
}

// handleImportResult returns the final result. With ?wait=true it blocks
// until the run finishes; otherwise a running import answers 202 with its
// current progress.
func (s *Server) handleImportResult(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "runID")

	if r.URL.Query().Get("wait") == "true" {
		res, err := s.service.Result(r.Context(), runID)
		if err != nil {
			respondError(w, r, err, statusFor(err))
			return
		}
		writeJSON(w, res)
		return
	}

	res, ok, err := s.service.LookupResult(runID)
	if err != nil {
		respondError(w, r, err, statusFor(err))
		return
	}
	if !ok {
		p, err := s.service.GetProgress(runID)
		if err != nil {
			respondError(w, r, err, statusFor(err))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusAccepted)
		json.NewEncoder(w).Encode(p)
		return
	}
	writeJSON(w, res)
}
