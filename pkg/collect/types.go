// Package collect builds a [report.Model] from monitoring state.
//
// State is read through small read-only provider interfaces so the collector
// works the same against an in-memory snapshot, a JSON file, or series
// cached in Redis. Each provider reports whether it has data; missing data
// never fails collection, it produces a section with a "No data" note so the
// report keeps a stable structure.
package collect

import (
	"time"

	"github.com/matzehuels/stackreport/pkg/report"
)

// Subject is the monitored entity the report is about.
type Subject struct {
	ID         string        `json:"id"`
	Name       string        `json:"name"`
	Attributes []report.Pair `json:"attributes,omitempty"`
	// Status is drawn as a panel when present.
	Status []report.Pair `json:"status,omitempty"`
}

// Point is one sample.
type Point struct {
	Time  time.Time `json:"time"`
	Value float64   `json:"value"`
}

// Series is a named metric over time. Series sharing a Group are drawn in
// one chart; Compact series go to the overview row instead.
type Series struct {
	Name    string  `json:"name"`
	Unit    string  `json:"unit,omitempty"`
	Group   string  `json:"group,omitempty"`
	Compact bool    `json:"compact,omitempty"`
	Points  []Point `json:"points"`
}

// Table is a tabular metric listing.
type Table struct {
	Heading string          `json:"heading,omitempty"`
	Columns []report.Column `json:"columns"`
	Rows    []report.Row    `json:"rows"`
}

type SubjectProvider interface {
	Subject() (Subject, bool)
}

type TimeRangeProvider interface {
	TimeRange() (report.Timeframe, bool)
}

type SeriesProvider interface {
	Series() ([]Series, bool)
}

type TableProvider interface {
	Table() (Table, bool)
}
