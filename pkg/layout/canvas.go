package layout

// Align controls horizontal text placement inside a cell.
type Align int

const (
	AlignLeft Align = iota
	AlignCenter
	AlignRight
)

// TextStyle selects the font used for a text primitive.
type TextStyle struct {
	Size   float64 // points; 0 uses the engine default
	Bold   bool
	Italic bool
	Muted  bool // secondary text (placeholders, footers)
}

// Cell is a text primitive: a box at (X, Y) of size W×H with text placed
// according to Align and vertically centered.
type Cell struct {
	X, Y, W, H float64
	Text       string
	Style      TextStyle
	Align      Align
	Border     bool
	Fill       bool // shaded background, used for table headers
}

// Canvas is the page/text/image primitive sink the engine draws on.
// Coordinates are in points with the origin at the top-left of the page.
// Page numbers are 1-based. Implementations are not safe for concurrent
// use; each build owns its canvas.
type Canvas interface {
	// AddPage appends a page and makes it current.
	AddPage()
	// SetPage makes page n current for later drawing.
	SetPage(n int)
	// PageCount returns the number of pages.
	PageCount() int

	// DrawCell draws a text cell on the current page.
	DrawCell(c Cell)
	// DrawLine draws a thin rule.
	DrawLine(x1, y1, x2, y2 float64)
	// DrawImage places encoded image data (PNG) scaled to w×h.
	// name identifies the image within the document.
	DrawImage(name string, data []byte, x, y, w, h float64) error

	// TextWidth measures s in the given style.
	TextWidth(s string, style TextStyle) float64
}
