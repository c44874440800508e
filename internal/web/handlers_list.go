package web

import (
	"net/http"
	"sort"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/masterconsole/internal/core"
	"github.com/JonMunkholm/masterconsole/internal/docstore"
	"github.com/JonMunkholm/masterconsole/internal/labels"
	"github.com/JonMunkholm/masterconsole/internal/web/templates"
)

// listView is the JSON shape of a list response.
type listView struct {
	Entity  core.EntityInfo `json:"entity"`
	Columns []string        `json:"columns"`
	Rows    []listRow       `json:"rows"`
}

type listRow struct {
	Key   string   `json:"key"`
	Name  string   `json:"name"`
	Cells []string `json:"cells"`
}

// detailView is the JSON shape of a single document.
type detailView struct {
	Entity core.EntityInfo `json:"entity"`
	Key    string          `json:"key"`
	Name   string          `json:"name"`
	Fields []detailField   `json:"fields"`
}

type detailField struct {
	Path  string `json:"path"`
	Value string `json:"value"`
}

func (s *Server) handleListPage(w http.ResponseWriter, r *http.Request) {
	view, err := s.buildList(r)
	if err != nil {
		respondError(w, r, err, statusFor(err))
		return
	}

	rows := make([]templates.ListRow, len(view.Rows))
	for i, row := range view.Rows {
		rows[i] = templates.ListRow{Key: row.Key, Cells: row.Cells}
	}
	s.render(w, r, view.Entity.Label, templates.List(templates.ListParams{
		Entity:  view.Entity,
		Columns: view.Columns,
		Rows:    rows,
		Search:  r.URL.Query().Get("q"),
	}))
}

func (s *Server) handleListJSON(w http.ResponseWriter, r *http.Request) {
	view, err := s.buildList(r)
	if err != nil {
		respondError(w, r, err, statusFor(err))
		return
	}
	writeJSON(w, view)
}

// buildList renders the entity's columns for every matching document.
func (s *Server) buildList(r *http.Request) (listView, error) {
	entity := chi.URLParam(r, "entity")
	sc, err := s.service.Schema(entity)
	if err != nil {
		return listView{}, err
	}
	items, err := s.service.List(r.Context(), entity, r.URL.Query().Get("q"))
	if err != nil {
		return listView{}, err
	}

	view := listView{
		Entity:  sc.Info(),
		Columns: make([]string, len(sc.Columns)),
		Rows:    make([]listRow, len(items)),
	}
	for i, c := range sc.Columns {
		view.Columns[i] = c.Title
	}
	for i, item := range items {
		cells := make([]string, len(sc.Columns))
		for j, c := range sc.Columns {
			cells[j] = s.cell(sc, item, c)
		}
		view.Rows[i] = listRow{Key: item.Key, Name: item.Name, Cells: cells}
	}
	return view, nil
}

// cell formats one list column. An empty path is the display name.
func (s *Server) cell(sc *core.Schema, item core.Item, c core.Column) string {
	if c.Path == "" {
		return labels.Plain(item.Name)
	}
	v, _ := core.Lookup(item.Doc, c.Path)
	if list, ok := asList(v); ok {
		return joinList(list)
	}
	return s.labels.FormatField(sc.Collection, c.Path, v)
}

func (s *Server) handleDetailPage(w http.ResponseWriter, r *http.Request) {
	view, err := s.buildDetail(r)
	if err != nil {
		respondError(w, r, err, statusFor(err))
		return
	}

	fields := make([]templates.DetailField, len(view.Fields))
	for i, f := range view.Fields {
		fields[i] = templates.DetailField{Path: f.Path, Value: f.Value}
	}
	s.render(w, r, view.Entity.Label+" "+view.Key, templates.Detail(templates.DetailParams{
		Entity: view.Entity,
		Key:    view.Key,
		Name:   view.Name,
		Fields: fields,
	}))
}

func (s *Server) handleDetailJSON(w http.ResponseWriter, r *http.Request) {
	view, err := s.buildDetail(r)
	if err != nil {
		respondError(w, r, err, statusFor(err))
		return
	}
	writeJSON(w, view)
}

func (s *Server) buildDetail(r *http.Request) (detailView, error) {
	entity := chi.URLParam(r, "entity")
	sc, err := s.service.Schema(entity)
	if err != nil {
		return detailView{}, err
	}
	item, err := s.service.Find(r.Context(), entity, chi.URLParam(r, "key"))
	if err != nil {
		return detailView{}, err
	}

	view := detailView{Entity: sc.Info(), Key: item.Key, Name: item.Name}
	flatten("", item.Doc, func(path string, v any) {
		value := s.labels.FormatField(sc.Collection, path, v)
		if list, ok := asList(v); ok {
			value = joinList(list)
		}
		view.Fields = append(view.Fields, detailField{Path: path, Value: value})
	})
	return view, nil
}

// flatten visits every leaf of doc in path order; nested maps are joined
// with ".".
func flatten(prefix string, doc docstore.Document, visit func(path string, v any)) {
	keys := make([]string, 0, len(doc))
	for k := range doc {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		path := k
		if prefix != "" {
			path = prefix + "." + k
		}
		if nested, ok := doc[k].(map[string]any); ok {
			flatten(path, nested, visit)
			continue
		}
		visit(path, doc[k])
	}
}

// asList normalizes the list shapes the backends decode to.
func asList(v any) ([]string, bool) {
	switch x := v.(type) {
	case []string:
		return x, true
	case []any:
		out := make([]string, len(x))
		for i, e := range x {
			out[i] = labels.Plain(e)
		}
		return out, true
	}
	return nil, false
}

func joinList(list []string) string {
	if len(list) == 0 {
		return labels.Empty
	}
	return strings.Join(list, ", ")
}
