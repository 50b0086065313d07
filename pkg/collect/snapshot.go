package collect

import (
	"encoding/json"
	"os"

	"github.com/matzehuels/stackreport/pkg/errors"
	"github.com/matzehuels/stackreport/pkg/report"
)

// Snapshot is an in-memory copy of monitoring state. It implements every
// provider interface.
type Snapshot struct {
	SubjectInfo *Subject          `json:"subject,omitempty"`
	Range       *report.Timeframe `json:"timeframe,omitempty"`
	SeriesData  []Series          `json:"series,omitempty"`
	Metrics     *Table            `json:"metrics,omitempty"`
}

// LoadSnapshot reads a snapshot from a JSON file.
func LoadSnapshot(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeNotFound, err, "snapshot %s", path)
		}
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "read snapshot %s", path)
	}
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "parse snapshot %s", path)
	}
	return &s, nil
}

func (s *Snapshot) Subject() (Subject, bool) {
	if s == nil || s.SubjectInfo == nil {
		return Subject{}, false
	}
	return *s.SubjectInfo, true
}

func (s *Snapshot) TimeRange() (report.Timeframe, bool) {
	if s == nil || s.Range == nil {
		return report.Timeframe{}, false
	}
	return *s.Range, true
}

func (s *Snapshot) Series() ([]Series, bool) {
	if s == nil || len(s.SeriesData) == 0 {
		return nil, false
	}
	return s.SeriesData, true
}

func (s *Snapshot) Table() (Table, bool) {
	if s == nil || s.Metrics == nil {
		return Table{}, false
	}
	return *s.Metrics, true
}

// MergeSeries adds extra series, replacing any with the same name.
func (s *Snapshot) MergeSeries(extra []Series) {
	index := make(map[string]int, len(s.SeriesData))
	for i, sr := range s.SeriesData {
		index[sr.Name] = i
	}
	for _, sr := range extra {
		if i, ok := index[sr.Name]; ok {
			s.SeriesData[i] = sr
			continue
		}
		index[sr.Name] = len(s.SeriesData)
		s.SeriesData = append(s.SeriesData, sr)
	}
}
