package core

// convert.go provides coercions from raw CSV cells to document values.
//
// Spreadsheet exports are messy:
//   - Thousand separators in prices ("12,000")
//   - Booleans written as 1/0 or TRUE/FALSE
//   - Dates in several layouts (2024/1/5, 2024-01-05, 2024-01-05T09:00:00Z)
//   - Excel formula prefixes (="0012") used to keep leading zeros
//
// Numbers are float64 so every backend round-trips them the same way.

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// numericRegex validates that a string is a valid numeric format after cleanup.
// Matches integers, decimals, and scientific notation.
var numericRegex = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?$`)

// TwoDigitYearPivot defines how 2-digit years are interpreted.
// Years that would result in dates more than this many years in the future
// are assumed to be in the previous century.
var TwoDigitYearPivot = 20

// Date layouts split by year format for proper 2-digit year handling
var (
	twoDigitYearLayouts = []string{
		"1/2/06", "01/02/06",
	}
	fourDigitYearLayouts = []string{
		time.RFC3339, time.RFC3339Nano,
		"2006-01-02T15:04:05", "2006-01-02 15:04:05", "2006/01/02 15:04:05",
		"2006/1/2 15:04", "2006-01-02", "2006-1-2", "2006/01/02", "2006/1/2", "2006.1.2",
		"1/2/2006", "01/02/2006",
		"2006年1月2日",
		"Jan 2, 2006", "2 Jan 2006",
		"20060102",
	}
)

// CleanCell trims whitespace and removes the Excel formula wrapper
// (="...") that spreadsheets use to preserve leading zeros.
func CleanCell(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "=\"") && strings.HasSuffix(s, "\"") && len(s) >= 3 {
		s = s[2 : len(s)-1]
	}
	return s
}

// ParseNumber parses a cell as a number after stripping thousand separators.
// Reports false for empty or non-numeric input.
func ParseNumber(s string) (float64, bool) {
	s = strings.ReplaceAll(CleanCell(s), ",", "")
	if s == "" || !numericRegex.MatchString(s) {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// ParseBool is true for "1" or "TRUE" (any case) and false otherwise.
func ParseBool(s string) bool {
	s = CleanCell(s)
	return s == "1" || strings.EqualFold(s, "true")
}

// ParseDate parses a cell in any supported layout.
// Reports false for empty or unparseable input.
func ParseDate(s string) (time.Time, bool) {
	s = CleanCell(s)
	if s == "" {
		return time.Time{}, false
	}

	// Try 4-digit year layouts first (unambiguous)
	for _, layout := range fourDigitYearLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}

	// Try 2-digit year layouts with pivot year adjustment
	pivotYear := time.Now().Year() + TwoDigitYearPivot
	for _, layout := range twoDigitYearLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			if t.Year() > pivotYear {
				t = t.AddDate(-100, 0, 0)
			}
			return t.UTC(), true
		}
	}

	return time.Time{}, false
}

// coerce converts a raw cell according to typ.
func coerce(typ FieldType, raw string) any {
	switch typ {
	case TypeNumber:
		f, _ := ParseNumber(raw)
		return f
	case TypeNumberOrNull:
		if f, ok := ParseNumber(raw); ok {
			return f
		}
		return nil
	case TypeBool:
		return ParseBool(raw)
	case TypeDate:
		if t, ok := ParseDate(raw); ok {
			return t
		}
		return nil
	default:
		if s := CleanCell(raw); s != "" {
			return s
		}
		return nil
	}
}
