// Package labels renders raw master-data codes as human-readable labels.
// Tables are static and embedded; they are parsed once at startup.
package labels

import (
	_ "embed"
	"fmt"
	"strconv"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed codes.yaml
var codesYAML []byte

// Empty is rendered for nil and empty values.
const Empty = "-"

// Catalog holds code tables and the document fields bound to them.
type Catalog struct {
	Tables map[string]map[string]string `yaml:"tables"`
	Fields map[string]map[string]string `yaml:"fields"`
}

// Parse decodes a catalog from YAML.
func Parse(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse label tables: %w", err)
	}
	for coll, fields := range c.Fields {
		for path, table := range fields {
			if _, ok := c.Tables[table]; !ok {
				return nil, fmt.Errorf("label field %s.%s references unknown table %q", coll, path, table)
			}
		}
	}
	return &c, nil
}

var (
	defaultOnce    sync.Once
	defaultCatalog *Catalog
	defaultErr     error
)

// Default returns the embedded catalog.
func Default() (*Catalog, error) {
	defaultOnce.Do(func() {
		defaultCatalog, defaultErr = Parse(codesYAML)
	})
	return defaultCatalog, defaultErr
}

// MustDefault is Default for package initialization paths.
func MustDefault() *Catalog {
	c, err := Default()
	if err != nil {
		panic(err)
	}
	return c
}

// Lookup returns the label for code in table.
func (c *Catalog) Lookup(table, code string) (string, bool) {
	label, ok := c.Tables[table][code]
	return label, ok
}

// Format renders v as "label(code)" using table. Booleans look up "1" and
// "0". Unknown codes render unchanged; nil and empty values render as Empty.
func (c *Catalog) Format(table string, v any) string {
	code, ok := codeOf(v)
	if !ok {
		return Empty
	}
	if label, found := c.Lookup(table, code); found {
		return label + "(" + code + ")"
	}
	return Plain(v)
}

// TableFor returns the table bound to a document field, if any.
func (c *Catalog) TableFor(collection, path string) (string, bool) {
	table, ok := c.Fields[collection][path]
	return table, ok
}

// FormatField renders a document field, labelling it when bound to a table.
func (c *Catalog) FormatField(collection, path string, v any) string {
	if table, ok := c.TableFor(collection, path); ok {
		return c.Format(table, v)
	}
	return Plain(v)
}

// Plain renders v without a label.
func Plain(v any) string {
	switch x := v.(type) {
	case nil:
		return Empty
	case string:
		if x == "" {
			return Empty
		}
		return x
	case bool:
		if x {
			return "YES"
		}
		return "NO"
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	default:
		s := fmt.Sprint(x)
		if s == "" {
			return Empty
		}
		return s
	}
}

func codeOf(v any) (string, bool) {
	switch x := v.(type) {
	case nil:
		return "", false
	case string:
		return x, x != ""
	case bool:
		if x {
			return "1", true
		}
		return "0", true
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64), true
	default:
		s := fmt.Sprint(x)
		return s, s != ""
	}
}
