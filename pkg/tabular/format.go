package tabular

import (
	"fmt"
	"strconv"
	"time"

	"github.com/matzehuels/stackreport/pkg/report"
)

// FormatValue converts a cell value to its text form. nil renders as the
// empty string, times as RFC 3339 and floats without trailing zeros.
func FormatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case time.Time:
		if x.IsZero() {
			return ""
		}
		return x.Format(time.RFC3339)
	case *time.Time:
		if x == nil {
			return ""
		}
		return FormatValue(*x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	case fmt.Stringer:
		return x.String()
	default:
		return fmt.Sprint(x)
	}
}

// Project returns the header labels and the formatted cells of rows in
// column order.
func Project(rows []report.Row, columns []report.Column) (header []string, cells [][]string) {
	header = make([]string, len(columns))
	for i, c := range columns {
		header[i] = c.Header
	}
	cells = make([][]string, len(rows))
	for i, r := range rows {
		line := make([]string, len(columns))
		for j, c := range columns {
			line[j] = FormatValue(r.Value(c.Key))
		}
		cells[i] = line
	}
	return header, cells
}
