package core

// streaming.go normalizes uploaded bytes to UTF-8 before CSV parsing.
//
// Files come from Excel on Windows more often than not:
//
//   - A UTF-8 BOM (0xEF 0xBB 0xBF) is stripped
//   - Valid UTF-8 passes through unchanged
//   - Anything else is decoded as Shift_JIS, the default Excel CSV encoding
//     on Japanese Windows
//
// Use ReadInput to apply all transforms in the correct order.

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"unicode/utf8"

	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/transform"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ErrFileTooLarge is returned when an input exceeds the configured limit.
var ErrFileTooLarge = errors.New("file too large")

// Encoding names reported by DecodeInput.
const (
	EncodingUTF8     = "utf-8"
	EncodingShiftJIS = "shift_jis"
)

// ReadInput reads at most limit bytes from r and decodes them with
// DecodeInput. A limit of 0 disables the check.
func ReadInput(r io.Reader, limit int64) ([]byte, string, error) {
	if limit > 0 {
		r = io.LimitReader(r, limit+1)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, "", fmt.Errorf("read input: %w", err)
	}
	if limit > 0 && int64(len(data)) > limit {
		return nil, "", fmt.Errorf("%w: limit is %d bytes", ErrFileTooLarge, limit)
	}
	return DecodeInput(data)
}

// DecodeInput strips a BOM and converts data to UTF-8.
func DecodeInput(data []byte) ([]byte, string, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	if utf8.Valid(data) {
		return data, EncodingUTF8, nil
	}

	out, _, err := transform.Bytes(japanese.ShiftJIS.NewDecoder(), data)
	if err != nil {
		return nil, "", fmt.Errorf("invalid encoding: %w", err)
	}
	return bytes.ToValidUTF8(out, []byte("?")), EncodingShiftJIS, nil
}
