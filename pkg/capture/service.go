package capture

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	_ "image/png" // DecodeConfig for native exports
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/stackreport/pkg/cache"
	"github.com/matzehuels/stackreport/pkg/errors"
	"github.com/matzehuels/stackreport/pkg/observability"
)

const (
	// DefaultNativeTimeout bounds a native export.
	DefaultNativeTimeout = 5 * time.Second

	// DefaultRasterScale is the pixel ratio used when rasterizing.
	DefaultRasterScale = 2.0

	// DefaultWidth and DefaultHeight are assumed when a native export
	// reports no size and its data has no readable header.
	DefaultWidth  = 800
	DefaultHeight = 400
)

// Options configures a [Service].
type Options struct {
	// NativeTimeout bounds Exporter.Export. Zero uses DefaultNativeTimeout.
	NativeTimeout time.Duration

	// RasterTimeout bounds Renderable.Render. Zero waits without a bound.
	RasterTimeout time.Duration

	// RasterScale multiplies the rendered size. Zero uses DefaultRasterScale.
	RasterScale float64

	// Cache memoizes results of targets that carry a cache key.
	// nil disables caching.
	Cache    cache.Cache
	Keyer    cache.Keyer
	CacheTTL time.Duration

	Logger *log.Logger
}

// Service captures targets. It is safe for concurrent use.
type Service struct {
	opts Options
}

// New creates a capture service. Zero options are filled with defaults.
func New(opts Options) *Service {
	if opts.NativeTimeout <= 0 {
		opts.NativeTimeout = DefaultNativeTimeout
	}
	if opts.RasterScale <= 0 {
		opts.RasterScale = DefaultRasterScale
	}
	if opts.Cache == nil {
		opts.Cache = cache.NewNullCache()
	}
	if opts.Keyer == nil {
		opts.Keyer = cache.NewDefaultKeyer()
	}
	if opts.Logger == nil {
		opts.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return &Service{opts: opts}
}

// Capture produces an image of t. It returns nil when the capture fails for
// any reason, including a timeout or a panic in the target.
func (s *Service) Capture(ctx context.Context, t Target) (res *Result) {
	start := time.Now()
	var err error
	defer func() {
		if r := recover(); r != nil {
			err = errors.New(errors.ErrCodeCapture, "panic: %v", r)
			res = nil
		}
		if err != nil {
			s.opts.Logger.Warn("capture failed", "target", t.ID(), "source", t.Kind(), "error", err)
		}
		observability.Capture().OnCapture(ctx, t.ID(), t.Kind().String(), time.Since(start), err)
	}()

	key := s.cacheKey(t)
	if key != "" {
		if cached, ok := s.lookup(ctx, key); ok {
			return cached
		}
	}

	switch t.Kind() {
	case SourceNative:
		res, err = s.native(ctx, t.exporter)
	case SourceRasterized:
		res, err = s.rasterize(ctx, t.renderable)
	default:
		err = errors.New(errors.ErrCodeCapture, "target %q has no capture capability", t.ID())
	}
	if err == nil && !res.Valid() {
		err = errors.New(errors.ErrCodeCapture, "target %q produced an empty image", t.ID())
	}
	if err != nil {
		res = nil
		return nil
	}

	if key != "" {
		s.store(ctx, key, res)
	}
	s.opts.Logger.Debug("captured", "target", t.ID(), "source", res.Source,
		"width", res.PixelWidth, "height", res.PixelHeight, "duration", time.Since(start))
	return res
}

func (s *Service) native(ctx context.Context, e Exporter) (*Result, error) {
	if e == nil {
		return nil, errors.New(errors.ErrCodeCapture, "nil exporter")
	}
	img, err := Await(ctx, s.opts.NativeTimeout, e.Export)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeCapture, err, "native export")
	}
	if len(img.Data) == 0 {
		return nil, errors.New(errors.ErrCodeCapture, "native export returned no data")
	}

	w, h := img.Width, img.Height
	if w <= 0 || h <= 0 {
		w, h = DefaultWidth, DefaultHeight
		if cfg, _, err := image.DecodeConfig(bytes.NewReader(img.Data)); err == nil && cfg.Width > 0 && cfg.Height > 0 {
			w, h = cfg.Width, cfg.Height
		}
	}
	return &Result{Data: img.Data, PixelWidth: w, PixelHeight: h, Source: SourceNative}, nil
}

func (s *Service) rasterize(ctx context.Context, r Renderable) (*Result, error) {
	if r == nil {
		return nil, errors.New(errors.ErrCodeCapture, "nil renderable")
	}
	src, err := Await(ctx, s.opts.RasterTimeout, r.Render)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeCapture, err, "render")
	}
	data, w, h, err := Rasterize(src, s.opts.RasterScale)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeCapture, err, "rasterize")
	}
	return &Result{Data: data, PixelWidth: w, PixelHeight: h, Source: SourceRasterized}, nil
}

func (s *Service) cacheKey(t Target) string {
	if t.CacheKey() == "" {
		return ""
	}
	opts := cache.CaptureKeyOpts{Source: t.Kind().String()}
	if t.Kind() == SourceRasterized {
		opts.Scale = s.opts.RasterScale
	}
	return s.opts.Keyer.CaptureKey(t.CacheKey(), opts)
}

func (s *Service) lookup(ctx context.Context, key string) (*Result, bool) {
	data, hit, err := s.opts.Cache.Get(ctx, key)
	if err != nil || !hit {
		observability.Cache().OnCacheMiss(ctx, "capture")
		return nil, false
	}
	var res Result
	if err := json.Unmarshal(data, &res); err != nil || !res.Valid() {
		observability.Cache().OnCacheMiss(ctx, "capture")
		return nil, false
	}
	observability.Cache().OnCacheHit(ctx, "capture")
	return &res, true
}

func (s *Service) store(ctx context.Context, key string, res *Result) {
	data, err := json.Marshal(res)
	if err != nil {
		return
	}
	if err := s.opts.Cache.Set(ctx, key, data, s.opts.CacheTTL); err != nil {
		s.opts.Logger.Debug("capture cache write failed", "error", err)
		return
	}
	observability.Cache().OnCacheSet(ctx, "capture", len(data))
}
