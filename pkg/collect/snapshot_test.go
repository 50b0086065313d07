package collect

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/redis/go-redis/v9"

	"github.com/matzehuels/stackreport/pkg/errors"
)

func TestLoadSnapshot(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "snap.json")
	data, _ := json.Marshal(sampleSnapshot())
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}

	s, err := LoadSnapshot(path)
	if err != nil {
		t.Fatalf("LoadSnapshot() error: %v", err)
	}
	subj, ok := s.Subject()
	if !ok || subj.Name != "web-01" {
		t.Errorf("Subject() = %+v, %v", subj, ok)
	}
	tf, ok := s.TimeRange()
	if !ok || !tf.Start.Equal(at(1)) {
		t.Errorf("TimeRange() = %+v", tf)
	}
	if series, ok := s.Series(); !ok || len(series) != 5 {
		t.Errorf("Series() = %d, %v", len(series), ok)
	}
}

func TestLoadSnapshotErrors(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.json")
	_ = os.WriteFile(bad, []byte("{"), 0o644)

	tests := []struct {
		name string
		path string
		code errors.Code
	}{
		{"missing", filepath.Join(dir, "nope.json"), errors.ErrCodeNotFound},
		{"malformed", bad, errors.ErrCodeInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadSnapshot(tt.path)
			if !errors.Is(err, tt.code) {
				t.Errorf("err = %v, want %s", err, tt.code)
			}
		})
	}
}

func TestNilSnapshotProviders(t *testing.T) {
	var s *Snapshot
	if _, ok := s.Subject(); ok {
		t.Error("nil snapshot has a subject")
	}
	if _, ok := s.Series(); ok {
		t.Error("nil snapshot has series")
	}
	if _, ok := s.Table(); ok {
		t.Error("nil snapshot has a table")
	}
}

func TestMergeSeries(t *testing.T) {
	s := &Snapshot{SeriesData: []Series{{Name: "cpu"}, {Name: "mem"}}}
	s.MergeSeries([]Series{{Name: "mem", Unit: "MB"}, {Name: "disk"}})

	if len(s.SeriesData) != 3 {
		t.Fatalf("series = %d, want 3", len(s.SeriesData))
	}
	if s.SeriesData[1].Unit != "MB" || s.SeriesData[2].Name != "disk" {
		t.Errorf("merged = %+v", s.SeriesData)
	}
}

type fakeRedis map[string]string

func (f fakeRedis) Get(ctx context.Context, key string) *redis.StringCmd {
	v, ok := f[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func TestLoadRedisSeries(t *testing.T) {
	client := fakeRedis{
		"series:cpu": `{"unit":"%","points":[{"time":"2024-03-01T01:00:00Z","value":12.5}]}`,
		"series:bad": `not json`,
	}

	got, err := LoadRedisSeries(context.Background(), client, "series:", []string{"cpu", "missing"})
	if err != nil {
		t.Fatalf("LoadRedisSeries() error: %v", err)
	}
	if len(got) != 1 || got[0].Name != "cpu" || got[0].Points[0].Value != 12.5 {
		t.Errorf("series = %+v", got)
	}

	if _, err := LoadRedisSeries(context.Background(), client, "series:", []string{"bad"}); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("err = %v, want INVALID_INPUT", err)
	}
}
