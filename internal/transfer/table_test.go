package transfer

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestParseFormat(t *testing.T) {
	if f, err := ParseFormat(""); err != nil || f != FormatCSV {
		t.Fatalf("default should be csv, got %q %v", f, err)
	}
	if f, err := ParseFormat(" XLSX "); err != nil || f != FormatXLSX {
		t.Fatalf("expected xlsx, got %q %v", f, err)
	}
	if _, err := ParseFormat("pdf"); !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("expected unsupported, got %v", err)
	}
}

func TestDecodeCSVNormalisesHeaderAndSkipsBlankLines(t *testing.T) {
	input := "Name, Department\nBandages,Ortho\n,\nGauze\n"
	table, err := Decode(FormatCSV, strings.NewReader(input))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if table.Header[0] != "name" || table.Header[1] != "department" {
		t.Fatalf("header not normalised: %v", table.Header)
	}
	records := table.Records()
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if _, ok := records[1].Get("department"); ok {
		t.Fatalf("short row should not carry department")
	}
	if records[1].Line != 3 {
		t.Fatalf("expected line 3, got %d", records[1].Line)
	}
	if err := table.Require("name", "type"); err == nil || !strings.Contains(err.Error(), "type") {
		t.Fatalf("expected missing type column, got %v", err)
	}
}

func TestDecodeEmptyPayload(t *testing.T) {
	if _, err := Decode(FormatCSV, strings.NewReader("")); err == nil {
		t.Fatalf("expected header error")
	}
}

func TestXLSXRoundTrip(t *testing.T) {
	in := Table{Header: []string{"name", "amount"}, Rows: [][]string{{"Bandages", "10"}, {"Gauze", "3"}}}
	raw, err := Encode(FormatXLSX, "items", in)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	out, err := Decode(FormatXLSX, bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(out.Rows) != 2 || out.Rows[1][0] != "Gauze" || out.Rows[1][1] != "3" {
		t.Fatalf("unexpected rows: %v", out.Rows)
	}
}

func TestCSVEncode(t *testing.T) {
	raw, err := Encode(FormatCSV, "", Table{Header: []string{"name"}, Rows: [][]string{{"Ortho"}, {"A, B"}}})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if string(raw) != "name\nOrtho\n\"A, B\"\n" {
		t.Fatalf("unexpected csv: %q", raw)
	}
}
