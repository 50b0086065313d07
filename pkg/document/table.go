package document

import (
	"github.com/matzehuels/stackreport/pkg/layout"
	"github.com/matzehuels/stackreport/pkg/report"
)

// BuildTable places rows through the engine using the same column
// projection as the CSV and XLSX writers. Long tables continue on new pages
// with the header repeated; no rows produce a single "No data" line.
func BuildTable(e *layout.Engine, rows []report.Row, columns []report.Column) {
	e.PlaceTable(rows, columns)
}
