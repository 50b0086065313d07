// Package tabular serializes a row/column projection into flat artifacts.
//
// [BuildCSV] produces UTF-8 comma-separated text with a header line and one
// line per row. Values are quoted only when they contain a comma, a quote or
// a line break, with inner quotes doubled. [BuildXLSX] writes the same
// projection into a single-sheet workbook.
//
// Both functions use [FormatValue] to turn cell values into text, so the
// CSV, the spreadsheet and the table in the PDF document show identical
// strings for the same input.
package tabular
