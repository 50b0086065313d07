// Package delivery hands finished artifacts to their destination.
//
// Built bytes are first copied into a [Blob] acquired from a [BlobStore],
// passed to a [Sink], and released right after. Callers release blobs with
// defer so the temporary resource is freed on every path:
//
//	blob, err := store.Acquire(ctx, name, data)
//	if err != nil {
//	    return err
//	}
//	defer blob.Release()
//	return sink.Save(ctx, blob, name)
package delivery

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/matzehuels/stackreport/pkg/errors"
)

// Blob is a temporary, read-only copy of an artifact.
type Blob interface {
	Name() string
	Size() int64
	// Reader returns a new reader positioned at the start.
	Reader() (io.ReadSeeker, error)
	// Release frees the blob. It is safe to call more than once.
	Release() error
}

// BlobStore allocates blobs.
type BlobStore interface {
	Acquire(ctx context.Context, name string, data []byte) (Blob, error)
}

// TempStore keeps blobs in temporary files below Dir (os.TempDir when
// empty).
type TempStore struct {
	Dir string
}

func (s TempStore) Acquire(ctx context.Context, name string, data []byte) (Blob, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.CreateTemp(s.Dir, "stackreport-*"+filepath.Ext(name))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeDelivery, err, "create temp blob")
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(f.Name())
		return nil, errors.Wrap(errors.ErrCodeDelivery, err, "write temp blob")
	}
	return &fileBlob{name: name, f: f, size: int64(len(data))}, nil
}

type fileBlob struct {
	name string
	f    *os.File
	size int64
	once sync.Once
	err  error
}

func (b *fileBlob) Name() string { return b.name }
func (b *fileBlob) Size() int64  { return b.size }

func (b *fileBlob) Reader() (io.ReadSeeker, error) {
	return io.NewSectionReader(b.f, 0, b.size), nil
}

// Path returns the backing file.
func (b *fileBlob) Path() string { return b.f.Name() }

func (b *fileBlob) Release() error {
	b.once.Do(func() {
		cerr := b.f.Close()
		rerr := os.Remove(b.f.Name())
		if cerr != nil {
			b.err = cerr
		} else if rerr != nil && !os.IsNotExist(rerr) {
			b.err = rerr
		}
	})
	return b.err
}

// MemoryStore keeps blobs in memory and counts outstanding blobs.
type MemoryStore struct {
	acquired atomic.Int64
	released atomic.Int64
}

func (s *MemoryStore) Acquire(ctx context.Context, name string, data []byte) (Blob, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.acquired.Add(1)
	return &memBlob{name: name, data: bytes.Clone(data), store: s}, nil
}

// Acquired returns how many blobs were handed out.
func (s *MemoryStore) Acquired() int { return int(s.acquired.Load()) }

// Outstanding returns how many blobs have not been released.
func (s *MemoryStore) Outstanding() int { return int(s.acquired.Load() - s.released.Load()) }

type memBlob struct {
	name  string
	data  []byte
	store *MemoryStore
	once  sync.Once
}

func (b *memBlob) Name() string { return b.name }
func (b *memBlob) Size() int64  { return int64(len(b.data)) }

func (b *memBlob) Reader() (io.ReadSeeker, error) { return bytes.NewReader(b.data), nil }

func (b *memBlob) Release() error {
	b.once.Do(func() { b.store.released.Add(1) })
	return nil
}

var (
	_ BlobStore = TempStore{}
	_ BlobStore = (*MemoryStore)(nil)
)
