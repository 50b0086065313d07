package tabular

import (
	"strings"

	"github.com/matzehuels/stackreport/pkg/report"
)

// Escape quotes s when it contains a comma, a double quote or a line break,
// doubling any inner quotes. Other values are returned unchanged.
func Escape(s string) string {
	if !strings.ContainsAny(s, ",\"\r\n") {
		return s
	}
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// EscapeValue formats v with [FormatValue] and escapes the result.
// nil yields the empty string.
func EscapeValue(v any) string {
	return Escape(FormatValue(v))
}

// BuildCSV renders a header line from the column headers followed by one
// line per row, joined with "\n" and without a trailing newline. The result
// always has len(rows)+1 lines.
func BuildCSV(rows []report.Row, columns []report.Column) []byte {
	header, cells := Project(rows, columns)

	var b strings.Builder
	writeLine(&b, header)
	for _, line := range cells {
		b.WriteByte('\n')
		writeLine(&b, line)
	}
	return []byte(b.String())
}

func writeLine(b *strings.Builder, fields []string) {
	for i, f := range fields {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(Escape(f))
	}
}
