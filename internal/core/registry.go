package core

import (
	"fmt"
	"sort"
	"sync"
)

var (
	registry   = make(map[string]*Schema)
	registryMu sync.RWMutex
)

// Register adds a schema to the registry.
// Panics if a schema with the same key is already registered or if the
// schema has no code selector or collection.
func Register(s *Schema) {
	registryMu.Lock()
	defer registryMu.Unlock()

	if s.Key == "" || s.Collection == "" {
		panic(fmt.Sprintf("schema %q: key and collection are required", s.Key))
	}
	if s.Code.From.zero() {
		panic(fmt.Sprintf("schema %q: code selector is required", s.Key))
	}
	if _, exists := registry[s.Key]; exists {
		panic(fmt.Sprintf("schema already registered: %s", s.Key))
	}

	if s.Done == "" {
		s.Done = s.Label + "インポート完了"
	}
	if s.SortField == "" {
		s.SortField = s.CodeField
	}

	registry[s.Key] = s
}

// Get returns a schema by key.
// Returns false if not found.
func Get(key string) (*Schema, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	s, ok := registry[key]
	return s, ok
}

// All returns all registered schemas.
// Sorted by menu order then by key for consistent ordering.
func All() []*Schema {
	registryMu.RLock()
	defer registryMu.RUnlock()

	result := make([]*Schema, 0, len(registry))
	for _, s := range registry {
		result = append(result, s)
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].Order != result[j].Order {
			return result[i].Order < result[j].Order
		}
		return result[i].Key < result[j].Key
	})

	return result
}

// Keys returns every registered schema key in menu order.
func Keys() []string {
	all := All()
	keys := make([]string, len(all))
	for i, s := range all {
		keys[i] = s.Key
	}
	return keys
}
