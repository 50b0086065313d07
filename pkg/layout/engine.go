package layout

import (
	"fmt"
	"strings"
	"time"

	"github.com/matzehuels/stackreport/pkg/capture"
	"github.com/matzehuels/stackreport/pkg/report"
	"github.com/matzehuels/stackreport/pkg/tabular"
)

const eps = 1e-9

// NoDataText is written in place of a table that has no rows.
const NoDataText = "No data"

// Cursor is the write position of an engine: the zero-based page index and
// the vertical offset of the next block on that page.
type Cursor struct {
	PageIndex int
	Y         float64
}

// Engine is a page-flow compositor. It places blocks top to bottom,
// breaking to a new page before any block that would cross the content
// bottom. An Engine owns its cursor and canvas for one build and must not be
// shared between goroutines.
type Engine struct {
	cfg    Config
	canvas Canvas
	cursor Cursor
	images int
}

// New starts a build on canvas: the first page is added and the cursor is
// placed at the top margin.
func New(canvas Canvas, cfg Config) *Engine {
	e := &Engine{cfg: cfg.WithDefaults(), canvas: canvas}
	canvas.AddPage()
	e.cursor = Cursor{Y: e.cfg.MarginTop}
	return e
}

// Config returns the effective configuration.
func (e *Engine) Config() Config { return e.cfg }

// Cursor returns the current write position.
func (e *Engine) Cursor() Cursor { return e.cursor }

// ContentWidth is the usable width between the side margins.
func (e *Engine) ContentWidth() float64 {
	return e.cfg.PageWidth - e.cfg.MarginLeft - e.cfg.MarginRight
}

// ContentBottom is the lowest Y a block may reach.
func (e *Engine) ContentBottom() float64 {
	return e.cfg.PageHeight - e.cfg.MarginBottom - e.cfg.FooterHeight
}

// ContentHeight is the usable height of an empty page.
func (e *Engine) ContentHeight() float64 {
	return e.ContentBottom() - e.cfg.MarginTop
}

// Remaining is the space left below the cursor on the current page.
func (e *Engine) Remaining() float64 {
	return e.ContentBottom() - e.cursor.Y
}

// NewPage starts a new page and resets the cursor to the top margin.
func (e *Engine) NewPage() {
	e.canvas.AddPage()
	e.cursor.PageIndex++
	e.cursor.Y = e.cfg.MarginTop
}

// CheckOverflow starts a new page when a block of the given height would
// cross the content bottom, and reports whether it did. A page with nothing
// on it is never broken.
func (e *Engine) CheckOverflow(height float64) bool {
	if e.cursor.Y+height <= e.ContentBottom()+eps {
		return false
	}
	if e.cursor.Y <= e.cfg.MarginTop+eps {
		return false
	}
	e.NewPage()
	return true
}

// Space advances the cursor by h, or to the top of a new page when h does
// not fit.
func (e *Engine) Space(h float64) {
	if e.CheckOverflow(h) {
		return
	}
	e.cursor.Y += h
}

// PlaceText wraps text to the content width and writes it line by line.
// A paragraph that fits on one page is kept together. Returns the number of
// lines written.
func (e *Engine) PlaceText(text string, style TextStyle) int {
	style = e.resolve(style)
	lines := e.wrap(text, e.ContentWidth(), style)
	lh := e.lineHeight(style)

	if total := lh * float64(len(lines)); total <= e.ContentHeight() {
		e.CheckOverflow(total)
	}
	for _, line := range lines {
		e.CheckOverflow(lh)
		e.canvas.DrawCell(Cell{
			X: e.cfg.MarginLeft, Y: e.cursor.Y,
			W: e.ContentWidth(), H: lh,
			Text: line, Style: style,
		})
		e.cursor.Y += lh
	}
	return len(lines)
}

// Heading writes a section heading. The heading moves to the next page
// when fewer than two table rows would fit below it.
func (e *Engine) Heading(text string) {
	style := e.resolve(TextStyle{Size: e.cfg.FontSize * 1.3, Bold: true})
	lines := e.wrap(text, e.ContentWidth(), style)
	need := e.lineHeight(style)*float64(len(lines)) + 2*e.cfg.RowHeight
	if need <= e.ContentHeight() {
		e.CheckOverflow(need)
	}
	e.PlaceText(text, style)
	e.cursor.Y += e.cfg.CellPadding
}

// PlacePlaceholder writes muted italic text standing in for missing content.
func (e *Engine) PlacePlaceholder(text string) {
	e.PlaceText(text, TextStyle{Italic: true, Muted: true})
}

// PlaceTable writes a header row followed by one row per record. When a row
// does not fit, a new page is started and the header is drawn again before
// the row. With no rows or columns a single NoDataText line is written
// instead of an empty table.
func (e *Engine) PlaceTable(rows []report.Row, columns []report.Column) {
	if len(rows) == 0 || len(columns) == 0 {
		e.PlacePlaceholder(NoDataText)
		return
	}

	header, cells := tabular.Project(rows, columns)
	widths := make([]float64, len(columns))
	for i := range widths {
		widths[i] = e.ContentWidth() / float64(len(columns))
	}

	rh := e.cfg.RowHeight
	e.CheckOverflow(2 * rh)
	e.drawRow(header, widths, true)
	for _, line := range cells {
		if e.CheckOverflow(rh) {
			e.drawRow(header, widths, true)
		}
		e.drawRow(line, widths, false)
	}
	e.cursor.Y += e.cfg.CellPadding
}

// PlaceKeyValues writes a two-column block of labelled values.
func (e *Engine) PlaceKeyValues(pairs []report.Pair) {
	if len(pairs) == 0 {
		e.PlacePlaceholder(NoDataText)
		return
	}
	widths := []float64{e.ContentWidth() * 0.35, e.ContentWidth() * 0.65}
	for _, p := range pairs {
		e.CheckOverflow(e.cfg.RowHeight)
		e.drawKeyValue(p, widths)
	}
	e.cursor.Y += e.cfg.CellPadding
}

// FitImage scales a pixel size into a bounding box, preserving the aspect
// ratio and never enlarging: scale = min(maxW/pw, maxH/ph, 1).
func FitImage(pixelWidth, pixelHeight int, maxW, maxH float64) (w, h float64) {
	if pixelWidth <= 0 || pixelHeight <= 0 || maxW <= 0 || maxH <= 0 {
		return 0, 0
	}
	pw, ph := float64(pixelWidth), float64(pixelHeight)
	scale := min(maxW/pw, maxH/ph, 1)
	return pw * scale, ph * scale
}

// PlaceImage places a capture scaled into maxW×maxH. A nil or degenerate
// capture, or one the canvas cannot decode, is replaced by label written as
// placeholder text. The cursor advances by the placed height plus the image
// spacing.
func (e *Engine) PlaceImage(img *capture.Result, maxW, maxH float64, label string) {
	maxW = min(maxW, e.ContentWidth())
	maxH = min(maxH, e.ContentHeight())

	if !img.Valid() {
		e.PlacePlaceholder(label)
		e.Space(e.cfg.ImageSpacing)
		return
	}

	w, h := FitImage(img.PixelWidth, img.PixelHeight, maxW, maxH)
	e.CheckOverflow(h)
	if err := e.canvas.DrawImage(e.nextImageName(), img.Data, e.cfg.MarginLeft, e.cursor.Y, w, h); err != nil {
		e.PlacePlaceholder(label)
		e.Space(e.cfg.ImageSpacing)
		return
	}
	e.cursor.Y += h + e.cfg.ImageSpacing
}

// PlaceImageRow splits totalWidth into len(imgs) equal columns separated by
// the gutter and scales each capture into its column. Degenerate captures,
// and captures the canvas cannot decode, show their label instead. The
// cursor advances by the tallest cell as drawn.
func (e *Engine) PlaceImageRow(imgs []*capture.Result, labels []string, totalWidth, maxH float64) {
	n := len(imgs)
	if n == 0 {
		return
	}
	totalWidth = min(totalWidth, e.ContentWidth())
	maxH = min(maxH, e.ContentHeight())

	colW := (totalWidth - e.cfg.Gutter*float64(n-1)) / float64(n)
	if colW <= 0 {
		colW = totalWidth / float64(n)
	}

	placeholder := e.resolve(TextStyle{Italic: true, Muted: true})
	lh := e.lineHeight(placeholder)
	label := func(i int) string {
		if i < len(labels) {
			return labels[i]
		}
		return ""
	}

	type cell struct {
		w, h  float64
		image bool
		lines []string
	}
	cells := make([]cell, n)
	// Any valid capture may still fail to decode, so reserve room for its
	// label as well.
	reserve := 0.0
	for i, img := range imgs {
		c := &cells[i]
		c.lines = e.wrap(label(i), colW, placeholder)
		if img.Valid() {
			c.image = true
			c.w, c.h = FitImage(img.PixelWidth, img.PixelHeight, colW, maxH)
		}
		reserve = max(reserve, c.h, lh*float64(len(c.lines)))
	}
	reserve = min(reserve, e.ContentHeight())

	e.CheckOverflow(reserve)
	y := e.cursor.Y
	tallest := 0.0
	for i, img := range imgs {
		c := cells[i]
		x := e.cfg.MarginLeft + float64(i)*(colW+e.cfg.Gutter)
		if c.image {
			if err := e.canvas.DrawImage(e.nextImageName(), img.Data, x, y, c.w, c.h); err == nil {
				tallest = max(tallest, c.h)
				continue
			}
		}
		for j, line := range c.lines {
			e.canvas.DrawCell(Cell{X: x, Y: y + float64(j)*lh, W: colW, H: lh, Text: line, Style: placeholder})
		}
		tallest = max(tallest, lh*float64(len(c.lines)))
	}
	e.cursor.Y += tallest + e.cfg.ImageSpacing
}

// FooterText formats the footer stamped on page of total.
func FooterText(page, total int, title string, generatedAt time.Time) string {
	return fmt.Sprintf("Page %d of %d | %s | %s", page, total, title, generatedAt.Format(time.RFC3339))
}

// Finalize writes the footer on every page. Call it once, after the last
// block has been placed.
func (e *Engine) Finalize(title string, generatedAt time.Time) {
	total := e.canvas.PageCount()
	style := e.resolve(TextStyle{Size: e.cfg.FontSize * 0.8, Muted: true})
	y := e.cfg.PageHeight - e.cfg.MarginBottom - e.cfg.FooterHeight
	right := e.cfg.MarginLeft + e.ContentWidth()

	for page := 1; page <= total; page++ {
		e.canvas.SetPage(page)
		e.canvas.DrawLine(e.cfg.MarginLeft, y, right, y)
		e.canvas.DrawCell(Cell{
			X: e.cfg.MarginLeft, Y: y,
			W: e.ContentWidth(), H: e.cfg.FooterHeight,
			Text:  FooterText(page, total, title, generatedAt),
			Style: style, Align: AlignCenter,
		})
	}
	e.canvas.SetPage(total)
}

func (e *Engine) drawRow(fields []string, widths []float64, header bool) {
	style := e.resolve(TextStyle{Bold: header})
	x := e.cfg.MarginLeft
	for i, f := range fields {
		w := widths[i]
		e.canvas.DrawCell(Cell{
			X: x, Y: e.cursor.Y, W: w, H: e.cfg.RowHeight,
			Text:   e.ellipsize(f, w-2*e.cfg.CellPadding, style),
			Style:  style,
			Border: true,
			Fill:   header,
		})
		x += w
	}
	e.cursor.Y += e.cfg.RowHeight
}

func (e *Engine) drawKeyValue(p report.Pair, widths []float64) {
	key := e.resolve(TextStyle{Bold: true})
	val := e.resolve(TextStyle{})
	x := e.cfg.MarginLeft
	e.canvas.DrawCell(Cell{
		X: x, Y: e.cursor.Y, W: widths[0], H: e.cfg.RowHeight,
		Text: e.ellipsize(p.Key, widths[0]-2*e.cfg.CellPadding, key), Style: key,
		Border: true, Fill: true,
	})
	e.canvas.DrawCell(Cell{
		X: x + widths[0], Y: e.cursor.Y, W: widths[1], H: e.cfg.RowHeight,
		Text: e.ellipsize(p.Value, widths[1]-2*e.cfg.CellPadding, val), Style: val,
		Border: true,
	})
	e.cursor.Y += e.cfg.RowHeight
}

func (e *Engine) nextImageName() string {
	e.images++
	return fmt.Sprintf("img-%d-%d", e.cursor.PageIndex, e.images)
}

func (e *Engine) resolve(s TextStyle) TextStyle {
	if s.Size <= 0 {
		s.Size = e.cfg.FontSize
	}
	return s
}

func (e *Engine) lineHeight(s TextStyle) float64 {
	return max(e.cfg.LineHeight, s.Size*1.4)
}

// wrap breaks text into lines no wider than width. Explicit newlines start
// new lines; words wider than a line are split across lines.
func (e *Engine) wrap(text string, width float64, style TextStyle) []string {
	var lines []string
	for _, para := range strings.Split(text, "\n") {
		words := strings.Fields(para)
		if len(words) == 0 {
			lines = append(lines, "")
			continue
		}
		line := ""
		for _, word := range words {
			for _, piece := range e.breakWord(word, width, style) {
				candidate := piece
				if line != "" {
					candidate = line + " " + piece
				}
				if line != "" && e.canvas.TextWidth(candidate, style) > width {
					lines = append(lines, line)
					line = piece
					continue
				}
				line = candidate
			}
		}
		lines = append(lines, line)
	}
	return lines
}

func (e *Engine) breakWord(word string, width float64, style TextStyle) []string {
	if e.canvas.TextWidth(word, style) <= width {
		return []string{word}
	}
	var pieces []string
	var cur []rune
	for _, r := range word {
		if len(cur) > 0 && e.canvas.TextWidth(string(append(cur, r)), style) > width {
			pieces = append(pieces, string(cur))
			cur = cur[:0]
		}
		cur = append(cur, r)
	}
	if len(cur) > 0 {
		pieces = append(pieces, string(cur))
	}
	return pieces
}

// ellipsize shortens s to fit width, marking the cut with "...".
func (e *Engine) ellipsize(s string, width float64, style TextStyle) string {
	if e.canvas.TextWidth(s, style) <= width {
		return s
	}
	r := []rune(s)
	for len(r) > 0 {
		r = r[:len(r)-1]
		if cut := string(r) + "..."; e.canvas.TextWidth(cut, style) <= width {
			return cut
		}
	}
	return ""
}
