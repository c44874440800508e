package core

import (
	"errors"
	"testing"
	"testing/iotest"

	"github.com/google/go-cmp/cmp"
)

func TestDedupeHeaders(t *testing.T) {
	got := dedupeHeaders([]string{" INDEX ", "名称", "INDEX", "INDEX", "INDEX.1x"})
	want := []string{"INDEX", "名称", "INDEX.1", "INDEX.2", "INDEX.1x"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("dedupeHeaders() mismatch (-want +got):\n%s", diff)
	}
}

func TestParseSheet_Header(t *testing.T) {
	data := []byte("code,name\nA,Alpha\n\n , \nB,Beta,extra\nC\n")

	sh, err := parseSheet(data, LayoutHeader)
	if err != nil {
		t.Fatalf("parseSheet() error = %v", err)
	}
	if diff := cmp.Diff([]string{"code", "name"}, sh.header); diff != "" {
		t.Errorf("header mismatch (-want +got):\n%s", diff)
	}
	if len(sh.rows) != 3 {
		t.Fatalf("rows = %d, want 3 (blank lines dropped)", len(sh.rows))
	}
	if got := sh.rows[2].cell(1); got != "" {
		t.Errorf("short row cell(1) = %q, want empty", got)
	}
	if got := sh.rows[1].cell(2); got != "extra" {
		t.Errorf("ragged row cell(2) = %q, want extra", got)
	}
}

func TestParseSheet_Empty(t *testing.T) {
	sh, err := parseSheet(nil, LayoutHeader)
	if err != nil {
		t.Fatalf("parseSheet() error = %v", err)
	}
	if len(sh.header) != 0 || len(sh.rows) != 0 {
		t.Errorf("parseSheet(empty) = %+v, want no header and no rows", sh)
	}
}

func TestParseSheet_StyleRow(t *testing.T) {
	data := []byte(",,011001,011002\n取付方法コード,名称,A,B\nM1,天井付,1,0\n")

	sh, err := parseSheet(data, LayoutStyleRow)
	if err != nil {
		t.Fatalf("parseSheet() error = %v", err)
	}
	if diff := cmp.Diff([]string{"", "", "011001", "011002"}, sh.tokens); diff != "" {
		t.Errorf("tokens mismatch (-want +got):\n%s", diff)
	}
	if len(sh.rows) != 1 || sh.rows[0].cell(0) != "M1" {
		t.Errorf("rows = %+v, want one data row", sh.rows)
	}
}

func TestParseSheet_StyleRowTooShort(t *testing.T) {
	_, err := parseSheet([]byte(",,011001\nコード,名称,A\n\n"), LayoutStyleRow)
	if !errors.Is(err, ErrMissingHeaderRows) {
		t.Errorf("parseSheet() error = %v, want ErrMissingHeaderRows", err)
	}
}

func TestParseSheet_LazyQuotes(t *testing.T) {
	sh, err := parseSheet([]byte("code,name\nA,He said \"hi\"\n"), LayoutHeader)
	if err != nil {
		t.Fatalf("parseSheet() error = %v", err)
	}
	if got := sh.rows[0].cell(1); got != `He said "hi"` {
		t.Errorf("cell = %q, want bare quotes kept", got)
	}
}

func TestReadRecords_ReaderError(t *testing.T) {
	_, err := readRecords(iotest.ErrReader(errors.New("disk failure")))
	if !errors.Is(err, ErrInvalidCSV) {
		t.Errorf("readRecords() error = %v, want ErrInvalidCSV", err)
	}
}
