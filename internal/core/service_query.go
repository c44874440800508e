package core

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/JonMunkholm/masterconsole/internal/docstore"
)

// Item is one document as shown in a list view.
type Item struct {
	Key  string
	Name string
	Doc  docstore.Document
}

// List returns the documents of entity ordered by its sort field. A non-empty
// search keeps documents whose key, display name or search fields contain it,
// case-insensitively.
func (s *Service) List(ctx context.Context, entity, search string) ([]Item, error) {
	sc, err := s.Schema(entity)
	if err != nil {
		return nil, err
	}

	recs, err := s.store.List(ctx, sc.Collection, sc.SortField)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", sc.Collection, err)
	}

	q := strings.ToLower(strings.TrimSpace(search))
	items := make([]Item, 0, len(recs))
	for _, rec := range recs {
		item := Item{Key: rec.Key, Name: DisplayName(sc, rec.Doc), Doc: rec.Doc}
		if q != "" && !matches(sc, item, q) {
			continue
		}
		items = append(items, item)
	}
	return items, nil
}

// Find returns a single document of entity.
func (s *Service) Find(ctx context.Context, entity, key string) (Item, error) {
	sc, err := s.Schema(entity)
	if err != nil {
		return Item{}, err
	}
	rec, err := s.store.Get(ctx, sc.Collection, key)
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return Item{}, err
		}
		return Item{}, fmt.Errorf("get %s/%s: %w", sc.Collection, key, err)
	}
	return Item{Key: rec.Key, Name: DisplayName(sc, rec.Doc), Doc: rec.Doc}, nil
}

// DisplayName returns the first non-empty display field of doc, or "".
func DisplayName(sc *Schema, doc docstore.Document) string {
	for _, path := range sc.DisplayName {
		if v, ok := Lookup(doc, path); ok {
			if s := strings.TrimSpace(asString(v)); s != "" {
				return s
			}
		}
	}
	return ""
}

// Lookup resolves a dotted path such as "billing.customerName1" in doc.
func Lookup(doc docstore.Document, path string) (any, bool) {
	head, rest, nested := strings.Cut(path, ".")
	v, ok := doc[head]
	if !ok || !nested {
		return v, ok
	}
	m, ok := v.(map[string]any)
	if !ok {
		return nil, false
	}
	return Lookup(m, rest)
}

func matches(sc *Schema, item Item, q string) bool {
	if strings.Contains(strings.ToLower(item.Key), q) {
		return true
	}
	if strings.Contains(strings.ToLower(item.Name), q) {
		return true
	}
	for _, path := range sc.SearchFields {
		v, ok := Lookup(item.Doc, path)
		if ok && strings.Contains(strings.ToLower(asString(v)), q) {
			return true
		}
	}
	return false
}
