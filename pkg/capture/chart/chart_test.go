package chart

import (
	"bytes"
	"context"
	"image/png"
	"testing"
	"time"
)

func TestTimeSeriesExport(t *testing.T) {
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		lines []Line
	}{
		{"single point", []Line{{Name: "cpu", Times: []time.Time{base}, Values: []float64{42}}}},
		{"many points", []Line{{
			Name:   "cpu",
			Times:  []time.Time{base, base.Add(time.Minute), base.Add(2 * time.Minute)},
			Values: []float64{10, 30, 20},
		}}},
		{"two lines", []Line{
			{Name: "rx", Times: []time.Time{base, base.Add(time.Minute)}, Values: []float64{1, 2}},
			{Name: "tx", Times: []time.Time{base, base.Add(time.Minute)}, Values: []float64{3, 1}},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &TimeSeries{Title: "CPU", Unit: "%", Lines: tt.lines, Width: 320, Height: 160}
			img, err := c.Export(context.Background())
			if err != nil {
				t.Fatalf("Export() error: %v", err)
			}
			if img.Width != 320 || img.Height != 160 {
				t.Errorf("size = %dx%d, want 320x160", img.Width, img.Height)
			}
			cfg, err := png.DecodeConfig(bytes.NewReader(img.Data))
			if err != nil {
				t.Fatalf("output is not a PNG: %v", err)
			}
			if cfg.Width != 320 || cfg.Height != 160 {
				t.Errorf("png size = %dx%d, want 320x160", cfg.Width, cfg.Height)
			}
		})
	}
}

func TestTimeSeriesExportEmpty(t *testing.T) {
	c := &TimeSeries{Title: "empty", Lines: []Line{{Name: "cpu"}}}
	if _, err := c.Export(context.Background()); err == nil {
		t.Error("expected error for a chart without points")
	}
}

func TestTimeSeriesDefaultSize(t *testing.T) {
	w, h := (&TimeSeries{}).size()
	if w != DefaultWidth || h != DefaultHeight {
		t.Errorf("size() = %dx%d", w, h)
	}
}
