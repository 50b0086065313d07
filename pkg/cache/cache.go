// Package cache memoizes expensive capture results between exports.
//
// Rendering a chart or rasterizing a panel is the slowest step of a document
// build. When a capture target carries a content key, the capture service
// stores the finished image here and reuses it for identical content.
//
// Two backends are provided:
//   - [NullCache]: never stores anything (caching disabled)
//   - [FileCache]: JSON entries under a directory, for the CLI
//
// Keys come from a [Keyer] so hosts can scope entries, for example per
// monitored subject with [NewScopedKeyer].
package cache

import (
	"context"
	"time"
)

// Cache is a byte-oriented key/value store with optional expiry.
type Cache interface {
	// Get returns the data for key and whether it was found.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A ttl of 0 never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// CaptureKeyOpts holds the capture settings that change the produced image.
type CaptureKeyOpts struct {
	Source string  `json:"source"`
	Scale  float64 `json:"scale,omitempty"`
	Width  int     `json:"width,omitempty"`
	Height int     `json:"height,omitempty"`
}

// Keyer builds cache keys.
type Keyer interface {
	// CaptureKey returns the key for a capture of content identified by
	// contentKey under opts.
	CaptureKey(contentKey string, opts CaptureKeyOpts) string
}
