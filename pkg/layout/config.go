package layout

// Config holds page geometry and spacing, all in points.
type Config struct {
	PageWidth  float64
	PageHeight float64

	MarginTop    float64
	MarginRight  float64
	MarginBottom float64
	MarginLeft   float64

	// FooterHeight is reserved above the bottom margin for the page footer.
	FooterHeight float64

	FontSize     float64
	LineHeight   float64
	RowHeight    float64
	CellPadding  float64
	ImageSpacing float64
	Gutter       float64 // between cells of an image row
}

// A4 portrait in points.
const (
	A4Width  = 595.28
	A4Height = 841.89
)

// DefaultConfig returns an A4 portrait layout.
func DefaultConfig() Config {
	return Config{
		PageWidth:    A4Width,
		PageHeight:   A4Height,
		MarginTop:    40,
		MarginRight:  40,
		MarginBottom: 40,
		MarginLeft:   40,
		FooterHeight: 20,
		FontSize:     10,
		LineHeight:   14,
		RowHeight:    18,
		CellPadding:  4,
		ImageSpacing: 12,
		Gutter:       12,
	}
}

// WithDefaults returns c with every unset field taken from DefaultConfig.
func (c Config) WithDefaults() Config {
	d := DefaultConfig()
	fill := func(v *float64, def float64) {
		if *v <= 0 {
			*v = def
		}
	}
	fill(&c.PageWidth, d.PageWidth)
	fill(&c.PageHeight, d.PageHeight)
	fill(&c.MarginTop, d.MarginTop)
	fill(&c.MarginRight, d.MarginRight)
	fill(&c.MarginBottom, d.MarginBottom)
	fill(&c.MarginLeft, d.MarginLeft)
	fill(&c.FooterHeight, d.FooterHeight)
	fill(&c.FontSize, d.FontSize)
	fill(&c.LineHeight, d.LineHeight)
	fill(&c.RowHeight, d.RowHeight)
	fill(&c.CellPadding, d.CellPadding)
	fill(&c.ImageSpacing, d.ImageSpacing)
	fill(&c.Gutter, d.Gutter)
	return c
}
