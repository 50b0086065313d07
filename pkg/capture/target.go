package capture

import (
	"context"
	"fmt"
	"image"
)

// ExportedImage is the output of a native export. Width and Height may be
// zero when the exporter does not report its size.
type ExportedImage struct {
	Data   []byte
	Width  int
	Height int
}

// Exporter is implemented by components that can encode themselves.
type Exporter interface {
	Export(ctx context.Context) (ExportedImage, error)
}

// Renderable is implemented by components that can only draw themselves.
type Renderable interface {
	Render(ctx context.Context) (image.Image, error)
}

// ExporterFunc adapts a function to [Exporter].
type ExporterFunc func(ctx context.Context) (ExportedImage, error)

func (f ExporterFunc) Export(ctx context.Context) (ExportedImage, error) { return f(ctx) }

// RenderableFunc adapts a function to [Renderable].
type RenderableFunc func(ctx context.Context) (image.Image, error)

func (f RenderableFunc) Render(ctx context.Context) (image.Image, error) { return f(ctx) }

// Target is a capturable component. Exactly one of the exporter and the
// renderable is set, chosen by the constructor.
type Target struct {
	id         string
	source     Source
	exporter   Exporter
	renderable Renderable
	cacheKey   string
}

// NativeTarget registers a component with its own export capability.
func NativeTarget(id string, e Exporter) Target {
	return Target{id: id, source: SourceNative, exporter: e}
}

// RenderableTarget registers a component that must be rasterized.
func RenderableTarget(id string, r Renderable) Target {
	return Target{id: id, source: SourceRasterized, renderable: r}
}

// WithCacheKey returns a copy of t whose captures are memoized under key.
// key must change whenever the rendered content changes.
func (t Target) WithCacheKey(key string) Target {
	t.cacheKey = key
	return t
}

// ID returns the target identifier.
func (t Target) ID() string { return t.id }

// Kind returns the capture path the target takes.
func (t Target) Kind() Source { return t.source }

// CacheKey returns the content key, or "" when captures are not cached.
func (t Target) CacheKey() string { return t.cacheKey }

func (t Target) String() string {
	return fmt.Sprintf("%s(%s)", t.id, t.source)
}
