package tabular

import (
	"bytes"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/matzehuels/stackreport/pkg/report"
)

func TestBuildXLSX(t *testing.T) {
	rows := []report.Row{
		{"id": "H1", "status": "OK"},
		{"id": "H2", "status": `degraded, "disk"`},
	}
	columns := []report.Column{{Key: "id", Header: "ID"}, {Key: "status", Header: "Status"}}

	data, err := BuildXLSX(rows, columns, "hosts")
	if err != nil {
		t.Fatalf("BuildXLSX() error: %v", err)
	}

	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("OpenReader() error: %v", err)
	}
	defer f.Close()

	got, err := f.GetRows("hosts")
	if err != nil {
		t.Fatalf("GetRows() error: %v", err)
	}
	want := [][]string{{"ID", "Status"}, {"H1", "OK"}, {"H2", `degraded, "disk"`}}
	if len(got) != len(want) {
		t.Fatalf("rows = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if strings.Join(got[i], "|") != strings.Join(want[i], "|") {
			t.Errorf("row %d = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestSheetName(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"", DefaultSheet},
		{"metrics", "metrics"},
		{"a/b:c", "a_b_c"},
		{strings.Repeat("x", 40), strings.Repeat("x", 31)},
	}
	for _, tt := range tests {
		if got := sheetName(tt.in); got != tt.want {
			t.Errorf("sheetName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
