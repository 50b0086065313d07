// Package layout composes report blocks onto fixed-size pages.
//
// An [Engine] keeps a cursor (page index and vertical offset) and places
// text, tables, and images top to bottom. Before every block it checks
// whether the block fits above the content bottom and starts a new page if
// not. Tables repeat their header after a page break, images are scaled to
// fit without distortion, and [Engine.Finalize] stamps a
// "Page X of N" footer on every page once the page count is known.
//
// The engine draws through the small [Canvas] interface. The sink package
// provides a PDF canvas and a recording canvas.
//
//	cfg := layout.DefaultConfig()
//	canvas := sink.NewPDF(cfg, sink.WithMeta(sink.Meta{Title: "Weekly report"}))
//	eng := layout.New(canvas, cfg)
//	eng.Heading("Metrics")
//	eng.PlaceTable(rows, columns)
//	eng.Finalize("Weekly report", time.Now())
package layout
