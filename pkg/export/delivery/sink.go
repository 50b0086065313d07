package delivery

import (
	"bytes"
	"context"
	stderrors "errors"
	"io"
	"mime"
	"os"
	"path"
	"path/filepath"
	"sort"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/matzehuels/stackreport/pkg/errors"
)

// Sink saves a blob under a filename.
type Sink interface {
	Save(ctx context.Context, b Blob, filename string) error
}

// Dir writes files into a local directory.
type Dir struct {
	Path string
}

func (d Dir) Save(ctx context.Context, b Blob, filename string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.MkdirAll(d.Path, 0o755); err != nil {
		return errors.Wrap(errors.ErrCodeDelivery, err, "create output dir")
	}
	r, err := b.Reader()
	if err != nil {
		return errors.Wrap(errors.ErrCodeDelivery, err, "open blob")
	}

	dst := filepath.Join(d.Path, filename)
	tmp, err := os.CreateTemp(d.Path, ".stackreport-*")
	if err != nil {
		return errors.Wrap(errors.ErrCodeDelivery, err, "create %s", filename)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		return errors.Wrap(errors.ErrCodeDelivery, err, "write %s", filename)
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(errors.ErrCodeDelivery, err, "write %s", filename)
	}
	if err := os.Rename(tmp.Name(), dst); err != nil {
		return errors.Wrap(errors.ErrCodeDelivery, err, "save %s", filename)
	}
	return nil
}

// PutObjectAPI is the S3 call used by [S3].
type PutObjectAPI interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Config describes an S3-compatible bucket.
type S3Config struct {
	Endpoint string `toml:"endpoint"`
	Region   string `toml:"region"`
	Key      string `toml:"key"`
	Secret   string `toml:"secret"`
	Bucket   string `toml:"bucket"`
	Prefix   string `toml:"prefix"`
}

// NewS3Client creates a path-style client for cfg.
func NewS3Client(cfg S3Config) (*s3.Client, error) {
	if cfg.Bucket == "" {
		return nil, errors.New(errors.ErrCodeInvalidConfig, "s3 bucket is required")
	}
	if cfg.Key == "" || cfg.Secret == "" {
		return nil, errors.New(errors.ErrCodeInvalidConfig, "s3 key and secret are required")
	}
	region := cfg.Region
	if region == "" {
		region = "auto"
	}
	opts := s3.Options{
		Region:       region,
		Credentials:  credentials.NewStaticCredentialsProvider(cfg.Key, cfg.Secret, ""),
		UsePathStyle: true,
	}
	if cfg.Endpoint != "" {
		opts.BaseEndpoint = aws.String(cfg.Endpoint)
	}
	return s3.New(opts), nil
}

// S3 uploads files to a bucket under Prefix.
type S3 struct {
	Client PutObjectAPI
	Bucket string
	Prefix string
}

func (s S3) Save(ctx context.Context, b Blob, filename string) error {
	r, err := b.Reader()
	if err != nil {
		return errors.Wrap(errors.ErrCodeDelivery, err, "open blob")
	}
	key := path.Join(s.Prefix, filename)
	_, err = s.Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.Bucket),
		Key:           aws.String(key),
		Body:          r,
		ContentLength: aws.Int64(b.Size()),
		ContentType:   aws.String(ContentType(filename)),
	})
	if err != nil {
		if ctx.Err() == nil && retryableUpload(err) {
			err = &TransientError{Err: err}
		}
		return errors.Wrap(errors.ErrCodeDelivery, err, "upload s3://%s/%s", s.Bucket, key)
	}
	return nil
}

// retryableUpload treats throttling, server errors and failures without
// any HTTP response as transient.
func retryableUpload(err error) bool {
	var resp interface{ HTTPStatusCode() int }
	if !stderrors.As(err, &resp) {
		return true
	}
	code := resp.HTTPStatusCode()
	return code == 429 || code >= 500
}

// ContentType returns the media type for a filename's extension.
func ContentType(filename string) string {
	switch filepath.Ext(filename) {
	case ".csv":
		return "text/csv; charset=utf-8"
	case ".pdf":
		return "application/pdf"
	case ".xlsx":
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case ".json":
		return "application/json"
	}
	if t := mime.TypeByExtension(filepath.Ext(filename)); t != "" {
		return t
	}
	return "application/octet-stream"
}

// Memory keeps saved files in memory.
type Memory struct {
	mu    sync.Mutex
	files map[string][]byte
}

func (m *Memory) Save(ctx context.Context, b Blob, filename string) error {
	r, err := b.Reader()
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, r); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.files == nil {
		m.files = make(map[string][]byte)
	}
	m.files[filename] = buf.Bytes()
	return nil
}

// Get returns the saved file.
func (m *Memory) Get(filename string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.files[filename]
	return data, ok
}

// Names returns the saved filenames in sorted order.
func (m *Memory) Names() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	names := make([]string, 0, len(m.files))
	for n := range m.files {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// SinkFunc adapts a function to [Sink].
type SinkFunc func(ctx context.Context, b Blob, filename string) error

func (f SinkFunc) Save(ctx context.Context, b Blob, filename string) error { return f(ctx, b, filename) }

var (
	_ Sink         = Dir{}
	_ Sink         = S3{}
	_ Sink         = (*Memory)(nil)
	_ PutObjectAPI = (*s3.Client)(nil)
)
