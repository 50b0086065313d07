package delivery

import (
	"context"
	"errors"
	"testing"
	"time"

	reperrors "github.com/matzehuels/stackreport/pkg/errors"
)

type statusError struct{ code int }

func (e statusError) Error() string       { return "status error" }
func (e statusError) HTTPStatusCode() int { return e.code }

func TestRetrySucceedsAfterTransientFailures(t *testing.T) {
	store := &MemoryStore{}
	b, _ := store.Acquire(context.Background(), "r.csv", []byte("a,b"))
	defer b.Release()

	mem := &Memory{}
	calls := 0
	flaky := SinkFunc(func(ctx context.Context, b Blob, name string) error {
		calls++
		if calls < 3 {
			return &TransientError{Err: errors.New("503")}
		}
		return mem.Save(ctx, b, name)
	})

	r := Retry{Sink: flaky, Attempts: 3, Delay: time.Millisecond}
	if err := r.Save(context.Background(), b, "r.csv"); err != nil {
		t.Fatalf("Save() error: %v", err)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
	if data, _ := mem.Get("r.csv"); string(data) != "a,b" {
		t.Errorf("saved %q", data)
	}
}

func TestRetryStops(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		wantCalls int
	}{
		{"permanent", errors.New("access denied"), 1},
		{"transient exhausted", &TransientError{Err: errors.New("timeout")}, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			r := Retry{
				Sink: SinkFunc(func(context.Context, Blob, string) error {
					calls++
					return tt.err
				}),
				Attempts: 3,
				Delay:    time.Millisecond,
			}
			if err := r.Save(context.Background(), nil, "x"); err == nil {
				t.Fatal("Save() succeeded")
			}
			if calls != tt.wantCalls {
				t.Errorf("calls = %d, want %d", calls, tt.wantCalls)
			}
		})
	}
}

func TestRetryCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	r := Retry{
		Sink: SinkFunc(func(context.Context, Blob, string) error {
			cancel()
			return &TransientError{Err: errors.New("503")}
		}),
		Attempts: 5,
		Delay:    time.Hour,
	}
	if err := r.Save(ctx, nil, "x"); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestS3UploadErrorsClassified(t *testing.T) {
	store := &MemoryStore{}
	b, _ := store.Acquire(context.Background(), "r.pdf", []byte("%PDF"))
	defer b.Release()

	tests := []struct {
		name      string
		err       error
		transient bool
	}{
		{"throttled", statusError{429}, true},
		{"server", statusError{503}, true},
		{"forbidden", statusError{403}, false},
		{"no response", errors.New("dial tcp: connection refused"), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sink := S3{Client: &fakeS3{err: tt.err}, Bucket: "b"}
			err := sink.Save(context.Background(), b, "r.pdf")
			if !reperrors.Is(err, reperrors.ErrCodeDelivery) {
				t.Fatalf("err = %v, want DELIVERY", err)
			}
			if IsTransient(err) != tt.transient {
				t.Errorf("IsTransient = %v, want %v", !tt.transient, tt.transient)
			}
		})
	}
}
