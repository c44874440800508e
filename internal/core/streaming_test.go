package core

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/transform"
)

func TestDecodeInput(t *testing.T) {
	sjis, _, err := transform.Bytes(japanese.ShiftJIS.NewEncoder(), []byte("名称コード,名称\nM1,メーカー\n"))
	if err != nil {
		t.Fatalf("encode fixture: %v", err)
	}

	tests := []struct {
		name    string
		input   []byte
		want    string
		wantEnc string
	}{
		{"plain utf-8", []byte("a,b\n"), "a,b\n", EncodingUTF8},
		{"utf-8 with BOM", append([]byte{0xEF, 0xBB, 0xBF}, "名称\n"...), "名称\n", EncodingUTF8},
		{"only BOM", []byte{0xEF, 0xBB, 0xBF}, "", EncodingUTF8},
		{"empty", []byte{}, "", EncodingUTF8},
		{"shift_jis", sjis, "名称コード,名称\nM1,メーカー\n", EncodingShiftJIS},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, enc, err := DecodeInput(tt.input)
			if err != nil {
				t.Fatalf("DecodeInput() error = %v", err)
			}
			if string(got) != tt.want {
				t.Errorf("DecodeInput() = %q, want %q", got, tt.want)
			}
			if enc != tt.wantEnc {
				t.Errorf("DecodeInput() encoding = %q, want %q", enc, tt.wantEnc)
			}
		})
	}
}

func TestReadInput_Limit(t *testing.T) {
	if _, _, err := ReadInput(strings.NewReader("0123456789"), 10); err != nil {
		t.Errorf("ReadInput() at limit error = %v", err)
	}

	_, _, err := ReadInput(bytes.NewReader(make([]byte, 11)), 10)
	if !errors.Is(err, ErrFileTooLarge) {
		t.Errorf("ReadInput() over limit error = %v, want ErrFileTooLarge", err)
	}

	if _, _, err := ReadInput(bytes.NewReader(make([]byte, 1<<16)), 0); err != nil {
		t.Errorf("ReadInput() without limit error = %v", err)
	}
}
