package sink

import (
	"encoding/json"
	"io"

	"github.com/matzehuels/stackreport/pkg/layout"
)

// Op is one recorded primitive.
type Op struct {
	Kind   string  `json:"kind"` // "cell", "line", or "image"
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	W      float64 `json:"w"`
	H      float64 `json:"h"`
	Text   string  `json:"text,omitempty"`
	Bold   bool    `json:"bold,omitempty"`
	Italic bool    `json:"italic,omitempty"`
	Muted  bool    `json:"muted,omitempty"`
	Border bool    `json:"border,omitempty"`
	Fill   bool    `json:"fill,omitempty"`
	Image  string  `json:"image,omitempty"`
	Bytes  int     `json:"bytes,omitempty"`
}

// Page is the ordered list of primitives drawn on one page.
type Page struct {
	Ops []Op `json:"ops"`
}

// Outline is everything a [Recorder] saw.
type Outline struct {
	Meta  Meta   `json:"meta"`
	Pages []Page `json:"pages"`
}

// Recorder is a [layout.Canvas] that records primitives instead of
// rendering them. Text is measured as half the font size per rune.
type Recorder struct {
	outline Outline
	current int
}

// NewRecorder creates an empty recorder.
func NewRecorder(meta Meta) *Recorder {
	return &Recorder{outline: Outline{Meta: meta}}
}

func (r *Recorder) AddPage() {
	r.outline.Pages = append(r.outline.Pages, Page{Ops: []Op{}})
	r.current = len(r.outline.Pages)
}

func (r *Recorder) SetPage(n int) {
	if n >= 1 && n <= len(r.outline.Pages) {
		r.current = n
	}
}

func (r *Recorder) PageCount() int { return len(r.outline.Pages) }

func (r *Recorder) DrawCell(c layout.Cell) {
	r.add(Op{
		Kind: "cell", X: c.X, Y: c.Y, W: c.W, H: c.H, Text: c.Text,
		Bold: c.Style.Bold, Italic: c.Style.Italic, Muted: c.Style.Muted,
		Border: c.Border, Fill: c.Fill,
	})
}

func (r *Recorder) DrawLine(x1, y1, x2, y2 float64) {
	r.add(Op{Kind: "line", X: x1, Y: y1, W: x2 - x1, H: y2 - y1})
}

func (r *Recorder) DrawImage(name string, data []byte, x, y, w, h float64) error {
	r.add(Op{Kind: "image", X: x, Y: y, W: w, H: h, Image: name, Bytes: len(data)})
	return nil
}

func (r *Recorder) TextWidth(s string, style layout.TextStyle) float64 {
	size := style.Size
	if size <= 0 {
		size = layout.DefaultConfig().FontSize
	}
	return float64(len([]rune(s))) * size * 0.5
}

// Outline returns the recorded document.
func (r *Recorder) Outline() Outline { return r.outline }

// Texts returns the text of every cell on page n (1-based).
func (r *Recorder) Texts(n int) []string {
	if n < 1 || n > len(r.outline.Pages) {
		return nil
	}
	var out []string
	for _, op := range r.outline.Pages[n-1].Ops {
		if op.Kind == "cell" {
			out = append(out, op.Text)
		}
	}
	return out
}

// WriteTo writes the outline as indented JSON.
func (r *Recorder) WriteTo(w io.Writer) (int64, error) {
	data, err := json.MarshalIndent(r.outline, "", "  ")
	if err != nil {
		return 0, err
	}
	n, err := w.Write(data)
	return int64(n), err
}

func (r *Recorder) add(op Op) {
	if r.current == 0 {
		r.AddPage()
	}
	p := &r.outline.Pages[r.current-1]
	p.Ops = append(p.Ops, op)
}

var _ layout.Canvas = (*Recorder)(nil)
