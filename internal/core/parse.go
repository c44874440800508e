package core

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

var (
	// ErrInvalidCSV wraps every CSV syntax error.
	ErrInvalidCSV = errors.New("invalid csv")

	// ErrMissingHeaderRows is returned when a style-row file has fewer than
	// three rows.
	ErrMissingHeaderRows = errors.New("missing header rows")
)

// sheet is a parsed file: the header, the optional style row and the data
// rows with blank lines removed.
type sheet struct {
	header []string
	tokens []string
	rows   []row
}

type row struct {
	line  int
	cells []string
}

// cell returns the value at i, or "" when the row is short.
func (r row) cell(i int) string {
	if i < 0 || i >= len(r.cells) {
		return ""
	}
	return r.cells[i]
}

// parseSheet reads data according to layout.
func parseSheet(data []byte, layout Layout) (*sheet, error) {
	records, err := readRecords(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	sh := &sheet{}
	start := 1
	switch layout {
	case LayoutStyleRow:
		if len(records) < 3 {
			return nil, ErrMissingHeaderRows
		}
		sh.tokens = trimAll(records[0].cells)
		sh.header = dedupeHeaders(records[1].cells)
		start = 2
	default:
		if len(records) == 0 {
			return sh, nil
		}
		sh.header = dedupeHeaders(records[0].cells)
	}
	sh.rows = records[start:]
	return sh, nil
}

// readRecords parses CSV leniently: ragged rows and stray quotes are
// accepted, and rows whose cells are all blank are dropped.
func readRecords(r io.Reader) ([]row, error) {
	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	var rows []row
	for {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidCSV, err)
		}
		if blank(rec) {
			continue
		}
		line, _ := reader.FieldPos(0)
		rows = append(rows, row{line: line, cells: rec})
	}
	return rows, nil
}

func blank(rec []string) bool {
	for _, c := range rec {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func trimAll(cells []string) []string {
	out := make([]string, len(cells))
	for i, c := range cells {
		out[i] = strings.TrimSpace(c)
	}
	return out
}

// dedupeHeaders trims header names and suffixes repeats with ".1", ".2" and
// so on, so "INDEX" appearing twice yields "INDEX" and "INDEX.1".
func dedupeHeaders(header []string) []string {
	out := make([]string, len(header))
	seen := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		name := h
		if n, ok := seen[h]; ok {
			for {
				name = h + "." + strconv.Itoa(n)
				n++
				if _, taken := seen[name]; !taken {
					break
				}
			}
			seen[h] = n
		}
		seen[name] = 1
		out[i] = name
	}
	return out
}
