package cache

// ScopedKeyer wraps a Keyer with a prefix so that entries of different
// monitored subjects never collide.
//
//	keyer := NewScopedKeyer(NewDefaultKeyer(), "subject:"+subjectID+":")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix.
// If inner is nil a DefaultKeyer is used.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{
		inner:  inner,
		prefix: prefix,
	}
}

// CaptureKey generates a prefixed capture key.
func (k *ScopedKeyer) CaptureKey(contentKey string, opts CaptureKeyOpts) string {
	return k.prefix + k.inner.CaptureKey(contentKey, opts)
}
