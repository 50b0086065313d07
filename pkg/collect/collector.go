package collect

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/stackreport/pkg/cache"
	"github.com/matzehuels/stackreport/pkg/capture"
	"github.com/matzehuels/stackreport/pkg/capture/chart"
	"github.com/matzehuels/stackreport/pkg/capture/panel"
	"github.com/matzehuels/stackreport/pkg/report"
)

// Section IDs produced by the collector.
const (
	SectionSystem   = report.SystemSectionID
	SectionStatus   = "status"
	SectionOverview = "overview"
	SectionSummary  = "summary"
	SectionMetrics  = "metrics"

	// NoData is the note attached to sections whose data is unavailable.
	NoData = "No data"
)

// ChartSectionID returns the section and target ID of a chart group.
func ChartSectionID(group string) string { return "chart:" + group }

// OverviewTargetID returns the target ID of a compact series in the
// overview row. It never collides with a chart group target.
func OverviewTargetID(series string) string { return "overview:" + series }

// SummaryColumns is the projection of the summary table.
var SummaryColumns = []report.Column{
	{Key: "series", Header: "Series"},
	{Key: "unit", Header: "Unit"},
	{Key: "points", Header: "Points"},
	{Key: "min", Header: "Min"},
	{Key: "max", Header: "Max"},
	{Key: "avg", Header: "Avg"},
	{Key: "last", Header: "Last"},
}

// Collector assembles a report from its providers. Any provider may be nil.
type Collector struct {
	Subjects   SubjectProvider
	TimeRanges TimeRangeProvider
	Series     SeriesProvider
	Tables     TableProvider

	// Title is the report title. Empty uses the subject name.
	Title string

	// Expect lists series names that always get a section, with a
	// "No data" note when absent or empty after filtering.
	Expect []string

	// Targets receives the chart and panel capture targets referenced by
	// the model's image sections. When nil, targets go to a registry private
	// to the call and image sections fall back to their captions.
	Targets *capture.Registry

	ChartWidth  int
	ChartHeight int

	Now    func() time.Time
	Logger *log.Logger
}

type chartGroup struct {
	name   string
	unit   string
	series []Series
}

// Collect reads every provider and returns a validated model. Capture
// targets for image sections are registered in c.Targets.
func (c *Collector) Collect(ctx context.Context) (*report.Model, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	targets := c.Targets
	if targets == nil {
		targets = capture.NewRegistry()
	}
	logger := c.Logger
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	now := time.Now
	if c.Now != nil {
		now = c.Now
	}

	subject, hasSubject := provide(c.Subjects, SubjectProvider.Subject)
	tf, _ := provide(c.TimeRanges, TimeRangeProvider.TimeRange)
	all, _ := provide(c.Series, SeriesProvider.Series)

	m := &report.Model{Meta: report.Meta{
		Title:       c.title(subject),
		GeneratedAt: now(),
		SubjectID:   subject.ID,
		Timeframe:   tf,
	}}

	m.Sections = append(m.Sections, c.systemSection(subject, hasSubject, tf))
	if hasSubject && len(subject.Status) > 0 {
		m.Sections = append(m.Sections, c.statusSection(targets, subject))
	}

	filtered := make([]Series, 0, len(all))
	for _, s := range all {
		s.Points = filterPoints(s.Points, tf)
		filtered = append(filtered, s)
	}

	groups, compact := c.group(filtered)
	for _, g := range groups {
		m.Sections = append(m.Sections, c.chartSection(targets, g))
	}
	if len(compact) > 0 {
		m.Sections = append(m.Sections, c.overviewSection(targets, compact))
	}
	m.Sections = append(m.Sections, summarySection(filtered))

	if t, ok := provide(c.Tables, TableProvider.Table); ok {
		m.Sections = append(m.Sections, metricsSection(t))
	}

	if err := m.Validate(); err != nil {
		return nil, err
	}
	logger.Debug("collected report model",
		"sections", len(m.Sections),
		"series", len(filtered),
		"targets", targets.Len(),
		"timeframe", tf.String())
	return m, nil
}

func provide[P any, T any](p P, get func(P) (T, bool)) (T, bool) {
	var zero T
	if any(p) == nil {
		return zero, false
	}
	return get(p)
}

func (c *Collector) title(s Subject) string {
	switch {
	case c.Title != "":
		return c.Title
	case s.Name != "":
		return s.Name + " report"
	default:
		return "Report"
	}
}

func (c *Collector) systemSection(s Subject, ok bool, tf report.Timeframe) report.Section {
	sec := report.Section{ID: SectionSystem, Heading: "System information", Kind: report.KindKeyValueTable}
	if !ok {
		sec.Note = NoData
		return sec
	}
	if s.Name != "" {
		sec.Pairs = append(sec.Pairs, report.Pair{Key: "Name", Value: s.Name})
	}
	if s.ID != "" {
		sec.Pairs = append(sec.Pairs, report.Pair{Key: "ID", Value: s.ID})
	}
	sec.Pairs = append(sec.Pairs, s.Attributes...)
	sec.Pairs = append(sec.Pairs, report.Pair{Key: "Timeframe", Value: tf.String()})
	return sec
}

func (c *Collector) statusSection(targets *capture.Registry, s Subject) report.Section {
	id := "panel:" + SectionStatus
	p := &panel.Panel{Title: "Status", Rows: s.Status}
	targets.Register(capture.RenderableTarget(id, p).WithCacheKey(contentKey(p)))
	return report.Section{
		ID:      SectionStatus,
		Heading: "Status",
		Kind:    report.KindImageBlock,
		Images:  []report.ImageRef{{TargetID: id, Caption: "Status panel unavailable"}},
	}
}

// group splits series into chart groups, in order of first appearance
// followed by expected names that never appeared, and compact series.
func (c *Collector) group(series []Series) ([]*chartGroup, []Series) {
	var groups []*chartGroup
	byName := map[string]*chartGroup{}
	var compact []Series
	seen := map[string]bool{}

	for _, s := range series {
		if s.Compact {
			compact = append(compact, s)
			seen[s.Name] = true
			continue
		}
		name := s.Group
		if name == "" {
			name = s.Name
		}
		g, ok := byName[name]
		if !ok {
			g = &chartGroup{name: name, unit: s.Unit}
			byName[name] = g
			groups = append(groups, g)
		}
		g.series = append(g.series, s)
		seen[s.Name] = true
	}
	for _, name := range c.Expect {
		if seen[name] || byName[name] != nil {
			continue
		}
		g := &chartGroup{name: name}
		byName[name] = g
		groups = append(groups, g)
	}
	return groups, compact
}

func (c *Collector) chartSection(targets *capture.Registry, g *chartGroup) report.Section {
	id := ChartSectionID(g.name)
	sec := report.Section{ID: id, Heading: g.name, Kind: report.KindImageBlock}

	ts := c.chart(g.name, g.unit, g.series)
	if ts == nil {
		sec.Note = NoData
		return sec
	}
	targets.Register(capture.NativeTarget(id, ts).WithCacheKey(contentKey(ts)))
	sec.Images = []report.ImageRef{{TargetID: id, Caption: g.name + " chart unavailable"}}
	return sec
}

func (c *Collector) overviewSection(targets *capture.Registry, series []Series) report.Section {
	sec := report.Section{ID: SectionOverview, Heading: "Overview", Kind: report.KindMultiImageRow}
	for _, s := range series {
		id := OverviewTargetID(s.Name)
		ts := c.chart(s.Name, s.Unit, []Series{s})
		if ts == nil {
			// No target: the row keeps its column and shows the caption.
			sec.Images = append(sec.Images, report.ImageRef{Caption: s.Name + ": " + NoData})
			continue
		}
		ts.Width, ts.Height = ts.Width/2, ts.Height/2
		targets.Register(capture.NativeTarget(id, ts).WithCacheKey(contentKey(ts)))
		sec.Images = append(sec.Images, report.ImageRef{TargetID: id, Caption: s.Name + " chart unavailable"})
	}
	return sec
}

// chart returns nil when no series has points.
func (c *Collector) chart(title, unit string, series []Series) *chart.TimeSeries {
	ts := &chart.TimeSeries{Title: title, Unit: unit, Width: c.ChartWidth, Height: c.ChartHeight}
	if ts.Width <= 0 {
		ts.Width = chart.DefaultWidth
	}
	if ts.Height <= 0 {
		ts.Height = chart.DefaultHeight
	}
	for _, s := range series {
		if len(s.Points) == 0 {
			continue
		}
		l := chart.Line{Name: s.Name}
		for _, p := range s.Points {
			l.Times = append(l.Times, p.Time)
			l.Values = append(l.Values, p.Value)
		}
		ts.Lines = append(ts.Lines, l)
	}
	if len(ts.Lines) == 0 {
		return nil
	}
	return ts
}

func summarySection(series []Series) report.Section {
	sec := report.Section{ID: SectionSummary, Heading: "Summary", Kind: report.KindDataTable}
	t := &report.Table{Columns: SummaryColumns}
	for _, s := range series {
		row := report.Row{"series": s.Name, "unit": s.Unit, "points": len(s.Points)}
		if st, ok := summarize(s.Points); ok {
			row["min"] = round(st.min)
			row["max"] = round(st.max)
			row["avg"] = round(st.avg)
			row["last"] = round(st.last)
		}
		t.Rows = append(t.Rows, row)
	}
	sec.Table = t
	return sec
}

func metricsSection(t Table) report.Section {
	heading := t.Heading
	if heading == "" {
		heading = "Metrics"
	}
	return report.Section{
		ID:      SectionMetrics,
		Heading: heading,
		Kind:    report.KindDataTable,
		Table:   &report.Table{Columns: t.Columns, Rows: t.Rows},
	}
}

type stats struct {
	min, max, avg, last float64
}

func summarize(points []Point) (stats, bool) {
	if len(points) == 0 {
		return stats{}, false
	}
	st := stats{min: math.Inf(1), max: math.Inf(-1)}
	var sum float64
	var last time.Time
	for i, p := range points {
		st.min = math.Min(st.min, p.Value)
		st.max = math.Max(st.max, p.Value)
		sum += p.Value
		if i == 0 || !p.Time.Before(last) {
			last = p.Time
			st.last = p.Value
		}
	}
	st.avg = sum / float64(len(points))
	return st, true
}

func round(v float64) float64 { return math.Round(v*1000) / 1000 }

// filterPoints keeps points inside tf, bounds included.
func filterPoints(points []Point, tf report.Timeframe) []Point {
	out := make([]Point, 0, len(points))
	for _, p := range points {
		if tf.Contains(p.Time) {
			out = append(out, p)
		}
	}
	return out
}

// contentKey hashes what a capture target will draw.
func contentKey(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return fmt.Sprintf("%T:%s", v, cache.Hash(data))
}
