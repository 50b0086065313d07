package document

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/matzehuels/stackreport/pkg/capture"
	"github.com/matzehuels/stackreport/pkg/errors"
	"github.com/matzehuels/stackreport/pkg/layout"
	"github.com/matzehuels/stackreport/pkg/layout/sink"
	"github.com/matzehuels/stackreport/pkg/report"
)

var generatedAt = time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)

func noSleep(ctx context.Context, _ time.Duration) error { return ctx.Err() }

func square(ctx context.Context) (image.Image, error) {
	img := image.NewRGBA(image.Rect(0, 0, 40, 20))
	img.Set(1, 1, color.Black)
	return img, nil
}

func sampleModel() *report.Model {
	return &report.Model{
		Meta: report.Meta{
			Title:       "Weekly report",
			GeneratedAt: generatedAt,
			SubjectID:   "host-1",
		},
		Sections: []report.Section{
			{ID: report.SystemSectionID, Heading: "System information", Kind: report.KindKeyValueTable,
				Pairs: []report.Pair{{Key: "OS", Value: "linux"}}},
			{ID: "status", Heading: "Status", Kind: report.KindImageBlock,
				Images: []report.ImageRef{{TargetID: "panel:status", Caption: "Status unavailable"}}},
			{ID: "overview", Heading: "Overview", Kind: report.KindMultiImageRow,
				Images: []report.ImageRef{
					{TargetID: "panel:status", Caption: "a unavailable"},
					{TargetID: "chart:missing", Caption: "missing unavailable"},
				}},
			{ID: "chart:disk", Heading: "disk", Kind: report.KindImageBlock, Note: "No data"},
			{ID: "metrics", Heading: "Metrics", Kind: report.KindDataTable, Table: &report.Table{
				Columns: []report.Column{{Key: "id", Header: "ID"}, {Key: "status", Header: "Status"}},
				Rows:    []report.Row{{"id": "H1", "status": "OK"}},
			}},
		},
	}
}

func newTestBuilder(targets *capture.Registry, svc Capturer) *Builder {
	return NewBuilder(Options{
		Capture:   svc,
		Targets:   targets,
		Waiter:    capture.Waiter{Attempts: 2, Delay: time.Millisecond, Sleep: noSleep},
		NewCanvas: OutlineCanvas,
	})
}

func decodeOutline(t *testing.T, data []byte) sink.Outline {
	t.Helper()
	var out sink.Outline
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("outline is not JSON: %v", err)
	}
	return out
}

func pageTexts(p sink.Page) []string {
	var out []string
	for _, op := range p.Ops {
		if op.Kind == "cell" {
			out = append(out, op.Text)
		}
	}
	return out
}

func countImages(o sink.Outline) int {
	n := 0
	for _, p := range o.Pages {
		for _, op := range p.Ops {
			if op.Kind == "image" {
				n++
			}
		}
	}
	return n
}

func TestRenderOutline(t *testing.T) {
	targets := capture.NewRegistry()
	targets.Register(capture.RenderableTarget("panel:status", capture.RenderableFunc(square)))

	b := newTestBuilder(targets, nil)
	data, err := b.Render(context.Background(), sampleModel())
	if err != nil {
		t.Fatalf("Render() error: %v", err)
	}
	out := decodeOutline(t, data)

	if len(out.Pages) < 2 {
		t.Fatalf("pages = %d, want title page plus content", len(out.Pages))
	}
	if out.Meta.Title != "Weekly report" || out.Meta.Subject != "host-1" {
		t.Errorf("meta = %+v", out.Meta)
	}

	docID := DocumentID(sampleModel())
	if len(out.Meta.Keywords) != 1 || out.Meta.Keywords[0] != docID {
		t.Errorf("keywords = %v, want [%s]", out.Meta.Keywords, docID)
	}

	cover := strings.Join(pageTexts(out.Pages[0]), "\n")
	for _, want := range []string{"Weekly report", "host-1", docID, "System information", "linux"} {
		if !strings.Contains(cover, want) {
			t.Errorf("title page missing %q", want)
		}
	}
	if strings.Contains(cover, "Metrics") {
		t.Error("content sections should start on a new page")
	}

	var all []string
	for i, p := range out.Pages {
		texts := pageTexts(p)
		all = append(all, texts...)
		footer := layout.FooterText(i+1, len(out.Pages), "Weekly report", generatedAt)
		if !strings.Contains(strings.Join(texts, "\n"), footer) {
			t.Errorf("page %d missing footer %q", i+1, footer)
		}
	}
	body := strings.Join(all, "\n")
	for _, want := range []string{"missing unavailable", "No data", "H1"} {
		if !strings.Contains(body, want) {
			t.Errorf("document missing %q", want)
		}
	}
	if strings.Contains(body, "Status unavailable") {
		t.Error("ready target rendered as placeholder")
	}
	if n := countImages(out); n != 2 {
		t.Errorf("images = %d, want 2", n)
	}
}

func TestRenderIsIdempotent(t *testing.T) {
	targets := capture.NewRegistry()
	targets.Register(capture.RenderableTarget("panel:status", capture.RenderableFunc(square)))
	b := newTestBuilder(targets, nil)

	first, err := b.Render(context.Background(), sampleModel())
	if err != nil {
		t.Fatal(err)
	}
	second, err := b.Render(context.Background(), sampleModel())
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(first, second) {
		t.Error("two renders of the same model differ")
	}
}

func TestDocumentID(t *testing.T) {
	base := DocumentID(sampleModel())
	if len(base) != 12 {
		t.Fatalf("DocumentID = %q, want 12 hex chars", base)
	}
	if got := DocumentID(sampleModel()); got != base {
		t.Errorf("equal models: %q != %q", got, base)
	}

	later := sampleModel()
	later.Meta.GeneratedAt = generatedAt.Add(time.Hour)
	if DocumentID(later) == base {
		t.Error("GeneratedAt change should change the ID")
	}

	edited := sampleModel()
	edited.Sections[0].Pairs[0].Value = "darwin"
	if DocumentID(edited) == base {
		t.Error("content change should change the ID")
	}

	nan := sampleModel()
	nan.Sections[4].Table.Rows[0]["status"] = math.NaN()
	if got := DocumentID(nan); got != DocumentID(nan) || len(got) != 12 {
		t.Errorf("unencodable rows: ID %q not stable", got)
	}
}

func TestRenderHangingCaptureUsesPlaceholder(t *testing.T) {
	block := make(chan struct{})
	defer close(block)

	targets := capture.NewRegistry()
	targets.Register(capture.NativeTarget("panel:status", capture.ExporterFunc(func(context.Context) (capture.ExportedImage, error) {
		<-block
		return capture.ExportedImage{}, nil
	})))
	svc := capture.New(capture.Options{NativeTimeout: 20 * time.Millisecond})
	b := newTestBuilder(targets, svc)

	start := time.Now()
	data, err := b.Render(context.Background(), sampleModel())
	if err != nil {
		t.Fatalf("Render() error: %v", err)
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Errorf("render took %v", elapsed)
	}

	out := decodeOutline(t, data)
	var all []string
	for _, p := range out.Pages {
		all = append(all, pageTexts(p)...)
	}
	body := strings.Join(all, "\n")
	if !strings.Contains(body, "Status unavailable") || !strings.Contains(body, "a unavailable") {
		t.Error("hanging capture did not degrade to placeholder text")
	}
	if n := countImages(out); n != 0 {
		t.Errorf("images = %d, want 0", n)
	}
}

func TestRenderRejectsInvalidModel(t *testing.T) {
	b := newTestBuilder(nil, nil)
	tests := []struct {
		name  string
		model *report.Model
	}{
		{"nil", nil},
		{"bad section", &report.Model{Sections: []report.Section{{ID: "x", Kind: report.KindDataTable}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := b.Render(context.Background(), tt.model)
			if !errors.Is(err, errors.ErrCodeInvalidInput) {
				t.Errorf("err = %v, want INVALID_INPUT", err)
			}
		})
	}
}

func TestRenderPDF(t *testing.T) {
	targets := capture.NewRegistry()
	targets.Register(capture.RenderableTarget("panel:status", capture.RenderableFunc(square)))
	b := NewBuilder(Options{
		Targets: targets,
		Waiter:  capture.Waiter{Attempts: 1, Sleep: noSleep},
	})

	data, err := b.Render(context.Background(), sampleModel())
	if err != nil {
		t.Fatalf("Render() error: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("%PDF-")) {
		t.Error("default canvas did not produce a PDF")
	}
}

func TestBuildTable(t *testing.T) {
	rec := sink.NewRecorder(sink.Meta{})
	eng := layout.New(rec, layout.DefaultConfig())

	BuildTable(eng, nil, []report.Column{{Key: "id", Header: "ID"}})
	if got := rec.Texts(1); len(got) != 1 || got[0] != layout.NoDataText {
		t.Errorf("empty table texts = %q", got)
	}

	rows := make([]report.Row, 100)
	for i := range rows {
		rows[i] = report.Row{"id": i}
	}
	BuildTable(eng, rows, []report.Column{{Key: "id", Header: "ID"}})
	if rec.PageCount() < 2 {
		t.Errorf("100 rows fit on %d page(s)", rec.PageCount())
	}
	if texts := rec.Texts(2); len(texts) == 0 || texts[0] != "ID" {
		t.Errorf("page 2 does not start with the header: %q", texts)
	}
}
