// Package capture turns live visual components into static images.
//
// A [Target] is created with the capability it supports, fixed when it is
// registered:
//
//   - [NativeTarget] wraps an [Exporter] that can produce its own encoded
//     image (a chart backend exporting PNG). The export runs inside a
//     bounded wait; a hung exporter yields no image after
//     [Options.NativeTimeout].
//   - [RenderableTarget] wraps a [Renderable] that can draw itself into an
//     [image.Image]. The result is composited at [Options.RasterScale] onto
//     an opaque white background and encoded as PNG.
//
// [Service.Capture] never returns an error. Any failure, including a panic
// inside a collaborator, is logged and reported as a nil [*Result] so the
// caller can degrade to a text placeholder.
//
// Targets that mount late are published through a [Registry] and resolved
// with [WaitFor], which polls a fixed number of times with a fixed delay.
package capture
