package sink

import (
	"bytes"
	"io"
	"strings"

	"github.com/go-pdf/fpdf"

	"github.com/matzehuels/stackreport/pkg/buildinfo"
	"github.com/matzehuels/stackreport/pkg/errors"
	"github.com/matzehuels/stackreport/pkg/layout"
)

const fontFamily = "Helvetica"

// PDFOption configures a [PDF] canvas.
type PDFOption func(*PDF)

// WithMeta sets the document metadata. CreatedAt is also used as the
// creation and modification date, so equal inputs give equal bytes.
func WithMeta(m Meta) PDFOption { return func(p *PDF) { p.meta = m } }

// WithCompression toggles stream compression (on by default).
func WithCompression(on bool) PDFOption { return func(p *PDF) { p.compress = on } }

// PDF is a [layout.Canvas] backed by fpdf. Units are points.
type PDF struct {
	doc       *fpdf.Fpdf
	meta      Meta
	compress  bool
	translate func(string) string
}

// NewPDF creates an empty PDF sized from cfg.
func NewPDF(cfg layout.Config, opts ...PDFOption) *PDF {
	def := layout.DefaultConfig()
	w, h := cfg.PageWidth, cfg.PageHeight
	if w <= 0 || h <= 0 {
		w, h = def.PageWidth, def.PageHeight
	}

	p := &PDF{compress: true}
	for _, opt := range opts {
		opt(p)
	}

	doc := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "pt",
		Size:           fpdf.SizeType{Wd: w, Ht: h},
	})
	doc.SetMargins(0, 0, 0)
	doc.SetAutoPageBreak(false, 0)
	doc.SetCompression(p.compress)
	doc.SetCatalogSort(true)
	doc.SetCreator(buildinfo.Producer(), true)
	doc.SetTitle(p.meta.Title, true)
	if p.meta.Subject != "" {
		doc.SetSubject(p.meta.Subject, true)
	}
	if p.meta.Author != "" {
		doc.SetAuthor(p.meta.Author, true)
	}
	if len(p.meta.Keywords) > 0 {
		doc.SetKeywords(strings.Join(p.meta.Keywords, " "), true)
	}
	if !p.meta.CreatedAt.IsZero() {
		doc.SetCreationDate(p.meta.CreatedAt)
		doc.SetModificationDate(p.meta.CreatedAt)
	}

	p.doc = doc
	// Core fonts are cp1252; map UTF-8 input onto it.
	p.translate = doc.UnicodeTranslatorFromDescriptor("")
	return p
}

func (p *PDF) AddPage()       { p.doc.AddPage() }
func (p *PDF) SetPage(n int)  { p.doc.SetPage(n) }
func (p *PDF) PageCount() int { return p.doc.PageCount() }

func (p *PDF) DrawCell(c layout.Cell) {
	p.setStyle(c.Style)
	if c.Fill {
		p.doc.SetFillColor(235, 238, 242)
	}
	border := ""
	if c.Border {
		p.doc.SetDrawColor(200, 200, 200)
		p.doc.SetLineWidth(0.5)
		border = "1"
	}
	p.doc.SetXY(c.X, c.Y)
	p.doc.SetCellMargin(4)
	p.doc.CellFormat(c.W, c.H, p.translate(c.Text), border, 0, alignStr(c.Align)+"M", c.Fill, 0, "")
}

func (p *PDF) DrawLine(x1, y1, x2, y2 float64) {
	p.doc.SetDrawColor(180, 180, 180)
	p.doc.SetLineWidth(0.5)
	p.doc.Line(x1, y1, x2, y2)
}

// DrawImage registers PNG data under name and places it. Data fpdf cannot
// decode is reported without poisoning the document.
func (p *PDF) DrawImage(name string, data []byte, x, y, w, h float64) error {
	opts := fpdf.ImageOptions{ImageType: "PNG"}
	p.doc.RegisterImageOptionsReader(name, opts, bytes.NewReader(data))
	if err := p.doc.Error(); err != nil {
		p.doc.ClearError()
		return errors.Wrap(errors.ErrCodeFormatBuild, err, "register image %s", name)
	}
	p.doc.ImageOptions(name, x, y, w, h, false, opts, 0, "")
	return nil
}

func (p *PDF) TextWidth(s string, style layout.TextStyle) float64 {
	p.setStyle(style)
	return p.doc.GetStringWidth(p.translate(s))
}

// WriteTo writes the finished document. Page footers must be drawn first.
func (p *PDF) WriteTo(w io.Writer) (int64, error) {
	if err := p.doc.Error(); err != nil {
		return 0, errors.Wrap(errors.ErrCodeFormatBuild, err, "build pdf")
	}
	cw := &countingWriter{w: w}
	if err := p.doc.Output(cw); err != nil {
		return cw.n, errors.Wrap(errors.ErrCodeFormatBuild, err, "write pdf")
	}
	return cw.n, nil
}

func (p *PDF) setStyle(s layout.TextStyle) {
	style := ""
	if s.Bold {
		style += "B"
	}
	if s.Italic {
		style += "I"
	}
	size := s.Size
	if size <= 0 {
		size = layout.DefaultConfig().FontSize
	}
	p.doc.SetFont(fontFamily, style, size)
	if s.Muted {
		p.doc.SetTextColor(110, 110, 110)
	} else {
		p.doc.SetTextColor(20, 20, 20)
	}
}

func alignStr(a layout.Align) string {
	switch a {
	case layout.AlignCenter:
		return "C"
	case layout.AlignRight:
		return "R"
	default:
		return "L"
	}
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(b []byte) (int, error) {
	n, err := c.w.Write(b)
	c.n += int64(n)
	return n, err
}

var _ layout.Canvas = (*PDF)(nil)
