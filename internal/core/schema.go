package core

import (
	"regexp"
	"strings"
)

// FieldType controls how a raw cell is coerced before it is stored.
type FieldType int

const (
	// TypeText stores the trimmed cell, or nil when empty.
	TypeText FieldType = iota
	// TypeNumber stores a float64 with "," stripped; empty or invalid is 0.
	TypeNumber
	// TypeNumberOrNull stores a float64, or nil when empty or invalid.
	TypeNumberOrNull
	// TypeBool is true only for "1" or "TRUE" in any case.
	TypeBool
	// TypeDate stores a time.Time, or nil when the cell does not parse.
	TypeDate
	// TypeList stores the non-empty values of several columns, in order.
	TypeList
)

// Layout describes where the header row sits in a file.
type Layout int

const (
	// LayoutHeader has a single header row followed by data rows.
	LayoutHeader Layout = iota
	// LayoutStyleRow carries a row of flag tokens, then a header row, then data.
	LayoutStyleRow
)

func (l Layout) String() string {
	if l == LayoutStyleRow {
		return "style-row"
	}
	return "header"
}

// Selector resolves a column against a header row. A selector may resolve to
// several columns; the first non-empty cell among them is the value.
type Selector struct {
	names    []string
	contains []string
	position int
}

// Col selects columns by exact header name. When more than one name is
// present, the first non-empty value in name order wins.
func Col(names ...string) Selector {
	return Selector{names: names, position: -1}
}

// Contains selects the first column whose header contains every substring.
func Contains(substrs ...string) Selector {
	return Selector{contains: substrs, position: -1}
}

// Position selects a column by zero-based index.
func Position(i int) Selector {
	return Selector{position: i}
}

func (s Selector) zero() bool {
	return len(s.names) == 0 && len(s.contains) == 0 && s.position < 0
}

// resolve returns the column indexes s refers to in header.
func (s Selector) resolve(header []string) []int {
	switch {
	case s.position >= 0:
		if s.position < len(header) {
			return []int{s.position}
		}
		return nil
	case len(s.contains) > 0:
		for i, h := range header {
			if containsAll(h, s.contains) {
				return []int{i}
			}
		}
		return nil
	}

	var idx []int
	for _, name := range s.names {
		for i, h := range header {
			if h == name {
				idx = append(idx, i)
				break
			}
		}
	}
	return idx
}

func containsAll(h string, subs []string) bool {
	for _, sub := range subs {
		if !strings.Contains(h, sub) {
			return false
		}
	}
	return true
}

// Field maps one or more columns to a document field.
type Field struct {
	Name  string
	From  Selector
	Type  FieldType
	Items []Selector // TypeList only
}

// Text returns a trimmed-string field.
func Text(name string, from Selector) Field { return Field{Name: name, From: from, Type: TypeText} }

// Number returns a numeric field that defaults to 0.
func Number(name string, from Selector) Field { return Field{Name: name, From: from, Type: TypeNumber} }

// NumberOrNull returns a numeric field that is nil when absent.
func NumberOrNull(name string, from Selector) Field {
	return Field{Name: name, From: from, Type: TypeNumberOrNull}
}

// Bool returns a boolean field.
func Bool(name string, from Selector) Field { return Field{Name: name, From: from, Type: TypeBool} }

// Date returns a date field.
func Date(name string, from Selector) Field { return Field{Name: name, From: from, Type: TypeDate} }

// List returns a field holding the non-empty values of items.
func List(name string, items ...Selector) Field {
	return Field{Name: name, Type: TypeList, Items: items}
}

// Group nests fields under a single top-level key. A merge-upsert replaces
// the whole group.
type Group struct {
	Name   string
	Fields []Field
}

// TokenSource names where flag tokens come from.
type TokenSource int

const (
	// TokensHeaderDigits takes the leading digits of the column header.
	TokensHeaderDigits TokenSource = iota
	// TokensStyleRow takes the style-row cell above the column.
	TokensStyleRow
)

// FlagRule collects a token for every flag column whose cell is exactly "1".
// Columns already claimed by the code, a field or a group are never flags.
type FlagRule struct {
	Field      string
	Tokens     TokenSource
	FromColumn int
}

// CodeRule locates and normalizes the business code.
type CodeRule struct {
	From    Selector
	PadLeft int
	PadChar byte
}

func (c CodeRule) normalize(code string) string {
	if c.PadLeft > 0 && len(code) < c.PadLeft {
		pad := c.PadChar
		if pad == 0 {
			pad = '0'
		}
		code = strings.Repeat(string(pad), c.PadLeft-len(code)) + code
	}
	return code
}

// IdentityRule creates a sign-in account for each row that carries an email
// and a code long enough to double as the initial password. EmailColumn is
// read from the built document, so the schema must pass it through.
type IdentityRule struct {
	EmailColumn string
	UIDField    string
}

// Schema is the declarative mapping from one CSV layout to one collection.
type Schema struct {
	Key        string // URL and CLI identifier
	Label      string // form title
	Done       string // completion message prefix
	Collection string
	Order      int

	Layout Layout
	Code   CodeRule

	// CodeField, when set, stores the normalized code in the document.
	CodeField string

	// Require lists non-code columns that must be non-empty for a row to be
	// written.
	Require []Selector

	// Passthrough copies every column verbatim under its header name.
	Passthrough bool

	Fields []Field
	Groups []Group
	Flags  *FlagRule

	Identity *IdentityRule

	// List view settings.
	SortField    string
	SearchFields []string
	DisplayName  []string
	Columns      []Column
}

// Column is one list-view column.
type Column struct {
	Title string
	Path  string
}

// Info returns the menu summary of s.
func (s *Schema) Info() EntityInfo {
	return EntityInfo{
		Key:          s.Key,
		Label:        s.Label,
		Collection:   s.Collection,
		Layout:       s.Layout.String(),
		SortField:    s.SortField,
		SearchFields: s.SearchFields,
		CreatesUsers: s.Identity != nil,
	}
}

var headerDigits = regexp.MustCompile(`^(\d+)`)
