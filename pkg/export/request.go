package export

import (
	"strings"
	"time"

	"github.com/matzehuels/stackreport/pkg/report"
)

// Format is an export artifact type.
type Format string

const (
	FormatCSV      Format = "csv"
	FormatDocument Format = "pdf"
	FormatXLSX     Format = "xlsx"
)

// Ext returns the file extension without the dot.
func (f Format) Ext() string { return string(f) }

// DefaultBasename is used when a request names no file.
const DefaultBasename = "report"

// Formats selects which artifacts to build.
type Formats struct {
	CSV      bool `json:"csv"`
	Document bool `json:"document"`
	XLSX     bool `json:"xlsx"`
}

// List returns the selected formats in a fixed order.
func (f Formats) List() []Format {
	var out []Format
	if f.CSV {
		out = append(out, FormatCSV)
	}
	if f.Document {
		out = append(out, FormatDocument)
	}
	if f.XLSX {
		out = append(out, FormatXLSX)
	}
	return out
}

// Request describes one export. The orchestrator never modifies it.
type Request struct {
	// Rows and Columns feed the flat formats and, when Model is nil, the
	// document's single data table.
	Rows    []report.Row
	Columns []report.Column

	Formats      Formats
	FileBasename string
	Title        string

	// Sheet names the XLSX worksheet.
	Sheet string

	// Model is the full report for the document path. nil renders Rows as
	// a single table.
	Model *report.Model
}

// Filename returns "{basename}-{timestamp}.{ext}" where the timestamp is
// ISO 8601 in UTC with ':' and '.' replaced by '-'.
func Filename(basename string, at time.Time, f Format) string {
	stamp := at.UTC().Format("2006-01-02T15:04:05.000Z")
	stamp = strings.NewReplacer(":", "-", ".", "-").Replace(stamp)
	return basename + "-" + stamp + "." + f.Ext()
}
