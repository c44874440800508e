// Package docstore is the document store the import pipeline writes into and
// the list views read from. Documents are schemaless maps grouped into named
// collections and keyed by a business code.
//
// Every write is a merge-upsert: top-level fields present in the write
// replace stored fields, fields absent from the write are preserved, and a
// missing document is created. There is no delete.
package docstore

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strconv"
	"time"
)

// ErrNotFound is returned by Get when no document has the key.
var ErrNotFound = errors.New("document not found")

// Document is one stored record. Values are string, float64, bool,
// time.Time, nil, []string or []any, or a nested map one level deep.
type Document = map[string]any

// Record pairs a document with its key.
type Record struct {
	Key string
	Doc Document
}

// Store is the contract consumed by the import pipeline and list views.
type Store interface {
	// List returns every document in collection ordered ascending by the
	// string form of orderBy, ties and missing values broken by key.
	List(ctx context.Context, collection, orderBy string) ([]Record, error)

	// Get returns a single document.
	Get(ctx context.Context, collection, key string) (Record, error)

	// Upsert merges doc into the document at key, creating it if needed.
	Upsert(ctx context.Context, collection, key string, doc Document) error

	// Close releases backend resources.
	Close() error
}

// Clone copies doc and its nested maps so callers can't alias stored state.
func Clone(doc Document) Document {
	if doc == nil {
		return nil
	}
	out := make(Document, len(doc))
	for k, v := range doc {
		switch nested := v.(type) {
		case map[string]any:
			out[k] = maps.Clone(nested)
		case []string:
			out[k] = slices.Clone(nested)
		default:
			out[k] = v
		}
	}
	return out
}

// SortKey renders a field value the way every backend compares it.
func SortKey(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	case time.Time:
		return x.UTC().Format(time.RFC3339Nano)
	default:
		return fmt.Sprint(x)
	}
}

func validate(collection, key string) error {
	if collection == "" {
		return errors.New("docstore: collection is required")
	}
	if key == "" {
		return errors.New("docstore: key is required")
	}
	return nil
}
