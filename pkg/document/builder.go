// Package document renders a [report.Model] as a paginated document.
//
// The builder creates one [layout.Engine] and canvas per render, writes a
// title page with the system information block, then places each section.
// Image sections are resolved through the capture registry: the builder
// waits for the target to be registered, captures it, and falls back to the
// section caption as placeholder text when either step fails. Capture
// failures never fail the document.
package document

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/stackreport/pkg/cache"
	"github.com/matzehuels/stackreport/pkg/capture"
	"github.com/matzehuels/stackreport/pkg/errors"
	"github.com/matzehuels/stackreport/pkg/layout"
	"github.com/matzehuels/stackreport/pkg/layout/sink"
	"github.com/matzehuels/stackreport/pkg/report"
)

// DefaultImageMaxHeight bounds a single chart, in points.
const DefaultImageMaxHeight = 260.0

// Capturer produces images of capture targets. [*capture.Service]
// implements it.
type Capturer interface {
	Capture(ctx context.Context, t capture.Target) *capture.Result
}

// Canvas is a layout canvas that can write its finished document.
type Canvas interface {
	layout.Canvas
	io.WriterTo
}

// CanvasFactory creates the canvas for one render.
type CanvasFactory func(cfg layout.Config, meta sink.Meta) Canvas

// PDFCanvas is the default factory.
func PDFCanvas(cfg layout.Config, meta sink.Meta) Canvas {
	return sink.NewPDF(cfg, sink.WithMeta(meta))
}

// OutlineCanvas renders a JSON outline instead of a PDF.
func OutlineCanvas(_ layout.Config, meta sink.Meta) Canvas {
	return sink.NewRecorder(meta)
}

// Options configures a [Builder].
type Options struct {
	Layout    layout.Config
	Capture   Capturer
	Targets   *capture.Registry
	Waiter    capture.Waiter
	NewCanvas CanvasFactory

	// ImageMaxHeight bounds image blocks; image rows get half of it.
	ImageMaxHeight float64

	Logger *log.Logger
}

// Builder renders report models. A Builder holds no per-render state and
// may be used concurrently; each render gets its own engine and canvas.
type Builder struct {
	opts Options
}

// NewBuilder creates a builder, filling unset options with defaults.
func NewBuilder(opts Options) *Builder {
	opts.Layout = opts.Layout.WithDefaults()
	if opts.Logger == nil {
		opts.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	if opts.Capture == nil {
		opts.Capture = capture.New(capture.Options{Logger: opts.Logger})
	}
	if opts.Targets == nil {
		opts.Targets = capture.NewRegistry()
	}
	if opts.Waiter.Attempts <= 0 {
		opts.Waiter = capture.DefaultWaiter()
	}
	if opts.NewCanvas == nil {
		opts.NewCanvas = PDFCanvas
	}
	if opts.ImageMaxHeight <= 0 {
		opts.ImageMaxHeight = DefaultImageMaxHeight
	}
	return &Builder{opts: opts}
}

// DocumentID derives a short identifier from the model content, including
// its GeneratedAt stamp. Equal models always share an ID. Rows holding
// values JSON cannot encode fall back to hashing the metadata alone.
func DocumentID(m *report.Model) string {
	data, err := json.Marshal(m)
	if err != nil {
		data, _ = json.Marshal(m.Meta)
	}
	return cache.Hash(data)[:12]
}

// Render lays out m and returns the encoded document.
func (b *Builder) Render(ctx context.Context, m *report.Model) ([]byte, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	start := time.Now()

	docID := DocumentID(m)
	meta := sink.Meta{
		Title:     m.Meta.Title,
		Subject:   m.Meta.SubjectID,
		Keywords:  []string{docID},
		CreatedAt: m.Meta.GeneratedAt,
	}
	canvas := b.opts.NewCanvas(b.opts.Layout, meta)
	eng := layout.New(canvas, b.opts.Layout)

	rest := b.titlePage(ctx, eng, m, docID)
	for _, s := range rest {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		b.placeSection(ctx, eng, s)
	}
	eng.Finalize(m.Meta.Title, m.Meta.GeneratedAt)

	var buf bytes.Buffer
	if _, err := canvas.WriteTo(&buf); err != nil {
		return nil, errors.Wrap(errors.ErrCodeFormatBuild, err, "write document")
	}
	b.opts.Logger.Debug("rendered document",
		"pages", canvas.PageCount(),
		"bytes", buf.Len(),
		"duration", time.Since(start))
	return buf.Bytes(), nil
}

// titlePage writes the cover and the system block and returns the sections
// left to place.
func (b *Builder) titlePage(ctx context.Context, eng *layout.Engine, m *report.Model, docID string) []report.Section {
	cfg := eng.Config()
	eng.Space(eng.ContentHeight() * 0.2)
	eng.PlaceText(m.Meta.Title, layout.TextStyle{Size: cfg.FontSize * 2.2, Bold: true})
	eng.Space(cfg.LineHeight)

	var info []report.Pair
	add := func(k, v string) {
		if v != "" {
			info = append(info, report.Pair{Key: k, Value: v})
		}
	}
	add("Subject", m.Meta.SubjectID)
	add("Timeframe", m.Meta.Timeframe.String())
	if !m.Meta.GeneratedAt.IsZero() {
		add("Generated", m.Meta.GeneratedAt.Format(time.RFC3339))
	}
	add("Document ID", docID)
	eng.PlaceKeyValues(info)
	eng.Space(cfg.LineHeight * 2)

	var rest []report.Section
	for _, s := range m.Sections {
		if s.ID == report.SystemSectionID {
			b.placeSection(ctx, eng, s)
			continue
		}
		rest = append(rest, s)
	}
	if len(rest) > 0 {
		eng.NewPage()
	}
	return rest
}

func (b *Builder) placeSection(ctx context.Context, eng *layout.Engine, s report.Section) {
	cfg := eng.Config()
	if s.Heading != "" {
		eng.Heading(s.Heading)
	}

	if s.Empty() {
		note := s.Note
		if note == "" {
			note = layout.NoDataText
		}
		eng.PlacePlaceholder(note)
		eng.Space(cfg.LineHeight)
		return
	}

	switch s.Kind {
	case report.KindKeyValueTable:
		eng.PlaceKeyValues(s.Pairs)
	case report.KindDataTable:
		BuildTable(eng, s.Table.Rows, s.Table.Columns)
	case report.KindImageBlock:
		ref := s.Images[0]
		eng.PlaceImage(b.capture(ctx, ref), eng.ContentWidth(), b.opts.ImageMaxHeight, ref.Caption)
	case report.KindMultiImageRow:
		results := make([]*capture.Result, len(s.Images))
		labels := make([]string, len(s.Images))
		for i, ref := range s.Images {
			results[i] = b.capture(ctx, ref)
			labels[i] = ref.Caption
		}
		eng.PlaceImageRow(results, labels, eng.ContentWidth(), b.opts.ImageMaxHeight/2)
	}
	eng.Space(cfg.LineHeight)
}

func (b *Builder) capture(ctx context.Context, ref report.ImageRef) *capture.Result {
	if ref.TargetID == "" {
		return nil
	}
	t, ok := b.opts.Targets.Await(ctx, b.opts.Waiter, ref.TargetID)
	if !ok {
		b.opts.Logger.Warn("capture target not ready", "target", ref.TargetID)
		return nil
	}
	return b.opts.Capture.Capture(ctx, t)
}
