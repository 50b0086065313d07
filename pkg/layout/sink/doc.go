// Package sink provides the canvases a [layout.Engine] draws on.
//
// Two canvases are available:
//
//   - [PDF]: renders pages with go-pdf/fpdf using the core Helvetica font
//   - [Recorder]: records every primitive and writes a JSON outline, for
//     inspection and tests that need a document without binary noise
//
// Both implement [layout.Canvas] and [io.WriterTo]. Canvases are created per
// build and are not safe for concurrent use.
package sink
