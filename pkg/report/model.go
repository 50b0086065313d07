// Package report defines the normalized report model shared by every export
// path.
//
// A [Model] is built fresh for each export by the collector, consumed by the
// flat (CSV, XLSX) and document (PDF) builders, and discarded after delivery.
// Sections are tagged with a [Kind]; the payload field that is populated must
// match the kind, which [Section.Validate] enforces.
//
// The [Column] projection is shared by all export paths so the artifacts of
// one invocation always agree on which fields appear and in what order.
package report

import (
	"fmt"
	"time"

	"github.com/matzehuels/stackreport/pkg/errors"
)

// Kind identifies the payload shape of a [Section].
type Kind int

const (
	KindKeyValueTable Kind = iota
	KindDataTable
	KindImageBlock
	KindMultiImageRow
)

var kindNames = map[Kind]string{
	KindKeyValueTable: "keyValueTable",
	KindDataTable:     "dataTable",
	KindImageBlock:    "imageBlock",
	KindMultiImageRow: "multiImageRow",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Column is a named field projection: Key selects the value from a [Row],
// Header is the label shown in every artifact.
type Column struct {
	Key    string `json:"key"`
	Header string `json:"header"`
}

// Row is one flat record. Missing keys render as empty cells.
type Row map[string]any

// Value returns the value for key, or nil when the row has none.
func (r Row) Value(key string) any {
	if r == nil {
		return nil
	}
	return r[key]
}

// Pair is one line of a key/value block.
type Pair struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Table is a row/column projection.
type Table struct {
	Columns []Column `json:"columns"`
	Rows    []Row    `json:"rows"`
}

// ImageRef points at a capture target registered with the capture registry.
type ImageRef struct {
	TargetID string `json:"target_id"`
	Caption  string `json:"caption,omitempty"`
}

// Timeframe is the active time-range selection. Both bounds are inclusive;
// a zero bound is open.
type Timeframe struct {
	Label string    `json:"label,omitempty"`
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Contains reports whether t falls within the timeframe, bounds included.
func (tf Timeframe) Contains(t time.Time) bool {
	if !tf.Start.IsZero() && t.Before(tf.Start) {
		return false
	}
	if !tf.End.IsZero() && t.After(tf.End) {
		return false
	}
	return true
}

// String renders the timeframe for headers and footers.
func (tf Timeframe) String() string {
	var span string
	switch {
	case tf.Start.IsZero() && tf.End.IsZero():
		span = "all time"
	case tf.Start.IsZero():
		span = "until " + tf.End.Format(time.RFC3339)
	case tf.End.IsZero():
		span = "since " + tf.Start.Format(time.RFC3339)
	default:
		span = tf.Start.Format(time.RFC3339) + " to " + tf.End.Format(time.RFC3339)
	}
	if tf.Label != "" {
		return tf.Label + " (" + span + ")"
	}
	return span
}

// SystemSectionID is the ID of the system information section, which the
// document path places on the title page.
const SystemSectionID = "system"

// Meta carries report-wide metadata.
type Meta struct {
	Title       string    `json:"title"`
	GeneratedAt time.Time `json:"generated_at"`
	SubjectID   string    `json:"subject_id,omitempty"`
	Timeframe   Timeframe `json:"timeframe"`
}

// Section is one block of the report. Exactly one payload field is used,
// selected by Kind. A section whose data is unavailable keeps its place in
// the report with an empty payload and a Note explaining why.
type Section struct {
	ID      string     `json:"id"`
	Heading string     `json:"heading"`
	Kind    Kind       `json:"kind"`
	Note    string     `json:"note,omitempty"`
	Pairs   []Pair     `json:"pairs,omitempty"`
	Table   *Table     `json:"table,omitempty"`
	Images  []ImageRef `json:"images,omitempty"`
}

// Empty reports whether the section carries no payload.
func (s Section) Empty() bool {
	switch s.Kind {
	case KindKeyValueTable:
		return len(s.Pairs) == 0
	case KindDataTable:
		return s.Table == nil
	default:
		return len(s.Images) == 0
	}
}

// Validate checks that the payload matches Kind.
func (s Section) Validate() error {
	if s.Empty() {
		if s.Note == "" {
			return errors.New(errors.ErrCodeInvalidInput, "section %q (%s) has no payload and no note", s.ID, s.Kind)
		}
	}

	var stray []string
	switch s.Kind {
	case KindKeyValueTable:
		if s.Table != nil {
			stray = append(stray, "table")
		}
		if len(s.Images) > 0 {
			stray = append(stray, "images")
		}
	case KindDataTable:
		if len(s.Pairs) > 0 {
			stray = append(stray, "pairs")
		}
		if len(s.Images) > 0 {
			stray = append(stray, "images")
		}
	case KindImageBlock, KindMultiImageRow:
		if len(s.Pairs) > 0 {
			stray = append(stray, "pairs")
		}
		if s.Table != nil {
			stray = append(stray, "table")
		}
		if s.Kind == KindImageBlock && len(s.Images) > 1 {
			return errors.New(errors.ErrCodeInvalidInput, "section %q: image block holds %d images, want 1", s.ID, len(s.Images))
		}
	default:
		return errors.New(errors.ErrCodeInvalidInput, "section %q: unknown kind %s", s.ID, s.Kind)
	}
	if len(stray) > 0 {
		return errors.New(errors.ErrCodeInvalidInput, "section %q (%s) carries %v payload", s.ID, s.Kind, stray)
	}
	return nil
}

// Model is the normalized report handed to the export builders.
type Model struct {
	Meta     Meta      `json:"meta"`
	Sections []Section `json:"sections"`
}

// Validate checks every section.
func (m *Model) Validate() error {
	if m == nil {
		return errors.New(errors.ErrCodeInvalidInput, "report model is nil")
	}
	for _, s := range m.Sections {
		if err := s.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Section returns the section with the given ID.
func (m *Model) Section(id string) (Section, bool) {
	for _, s := range m.Sections {
		if s.ID == id {
			return s, true
		}
	}
	return Section{}, false
}
