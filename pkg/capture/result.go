package capture

// Source identifies how a capture was produced.
type Source int

const (
	SourceNative Source = iota + 1
	SourceRasterized
)

func (s Source) String() string {
	switch s {
	case SourceNative:
		return "native"
	case SourceRasterized:
		return "rasterized"
	default:
		return "unknown"
	}
}

// Result is a captured image: PNG data and its pixel size.
type Result struct {
	Data        []byte `json:"data"`
	PixelWidth  int    `json:"pixel_width"`
	PixelHeight int    `json:"pixel_height"`
	Source      Source `json:"source"`
}

// Valid reports whether r can be placed. Nil results, empty data, and
// non-positive dimensions are all degenerate.
func (r *Result) Valid() bool {
	return r != nil && len(r.Data) > 0 && r.PixelWidth > 0 && r.PixelHeight > 0
}
