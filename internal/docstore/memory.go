package docstore

import (
	"context"
	"sort"
	"sync"
)

// Memory is an in-process Store used for development and tests.
type Memory struct {
	mu   sync.RWMutex
	data map[string]map[string]Document

	// failOn, when set, makes Upsert return the error for matching keys.
	failOn func(collection, key string) error
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{data: make(map[string]map[string]Document)}
}

// FailWith installs a hook that can reject individual writes.
func (m *Memory) FailWith(fn func(collection, key string) error) {
	m.mu.Lock()
	m.failOn = fn
	m.mu.Unlock()
}

func (m *Memory) Upsert(ctx context.Context, collection, key string, doc Document) error {
	if err := validate(collection, key); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failOn != nil {
		if err := m.failOn(collection, key); err != nil {
			return err
		}
	}

	coll, ok := m.data[collection]
	if !ok {
		coll = make(map[string]Document)
		m.data[collection] = coll
	}

	existing, ok := coll[key]
	if !ok {
		existing = make(Document, len(doc))
	}
	for k, v := range Clone(doc) {
		existing[k] = v
	}
	coll[key] = existing
	return nil
}

func (m *Memory) Get(ctx context.Context, collection, key string) (Record, error) {
	if err := ctx.Err(); err != nil {
		return Record{}, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	doc, ok := m.data[collection][key]
	if !ok {
		return Record{}, ErrNotFound
	}
	return Record{Key: key, Doc: Clone(doc)}, nil
}

func (m *Memory) List(ctx context.Context, collection, orderBy string) ([]Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	out := make([]Record, 0, len(m.data[collection]))
	for k, doc := range m.data[collection] {
		out = append(out, Record{Key: k, Doc: Clone(doc)})
	}
	m.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		vi, iok := out[i].Doc[orderBy]
		vj, jok := out[j].Doc[orderBy]
		iok = iok && vi != nil
		jok = jok && vj != nil
		if iok != jok {
			return iok
		}
		if si, sj := SortKey(vi), SortKey(vj); si != sj {
			return si < sj
		}
		return out[i].Key < out[j].Key
	})
	return out, nil
}

// Len reports how many documents collection holds.
func (m *Memory) Len(collection string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.data[collection])
}

func (m *Memory) Close() error { return nil }

var _ Store = (*Memory)(nil)
