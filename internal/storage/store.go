package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/san-kum/drivectl/internal/motion"
	"github.com/san-kum/drivectl/internal/pid"
)

const (
	metadataFile = "metadata.json"
	traceFile    = "trace.csv"
)

var traceHeader = []string{"tick", "elapsed", "measurement", "error", "output", "left", "right", "strikes"}

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID        string               `json:"id"`
	Kind      string               `json:"kind"`
	Preset    string               `json:"preset,omitempty"`
	Timestamp time.Time            `json:"timestamp"`
	Setpoint  float64              `json:"setpoint"`
	Velocity  float64              `json:"velocity"`
	Outcome   string               `json:"outcome"`
	Ticks     int                  `json:"ticks"`
	Elapsed   time.Duration        `json:"elapsed"`
	Final     float64              `json:"final"`
	Settings  motion.Settings      `json:"settings"`
	Gains     map[string]pid.Gains `json:"gains,omitempty"`
	Metrics   map[string]float64   `json:"metrics"`
}

// Save writes one motion run as metadata.json and trace.csv under a new run
// directory and returns its ID.
func (s *Store) Save(preset string, gains map[string]pid.Gains, res motion.Result, metrics map[string]float64) (string, error) {
	now := time.Now().UTC()
	runID := fmt.Sprintf("%s_%s_%s", res.Kind, now.Format("20060102T150405"), uuid.NewString()[:8])
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", errors.Wrap(err, "create run dir")
	}

	meta := RunMetadata{
		ID:        runID,
		Kind:      res.Kind.String(),
		Preset:    preset,
		Timestamp: now,
		Setpoint:  res.Request.Setpoint,
		Velocity:  res.Request.Velocity,
		Outcome:   res.Outcome.String(),
		Ticks:     res.Ticks,
		Elapsed:   res.Elapsed,
		Final:     res.Final,
		Settings:  res.Settings,
		Gains:     gains,
		Metrics:   metrics,
	}

	metaFile, err := os.Create(filepath.Join(runDir, metadataFile))
	if err != nil {
		return "", errors.Wrap(err, "create metadata")
	}
	defer metaFile.Close()

	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return "", errors.Wrap(err, "write metadata")
	}

	csvFile, err := os.Create(filepath.Join(runDir, traceFile))
	if err != nil {
		return "", errors.Wrap(err, "create trace")
	}
	defer csvFile.Close()

	if err := WriteTrace(csvFile, res.Samples); err != nil {
		return "", err
	}
	return runID, nil
}

// WriteTrace writes samples as CSV with a header row.
func WriteTrace(out io.Writer, samples []motion.Sample) error {
	w := csv.NewWriter(out)
	if err := w.Write(traceHeader); err != nil {
		return errors.Wrap(err, "write trace header")
	}
	for _, smp := range samples {
		row := []string{
			strconv.Itoa(smp.Tick),
			strconv.FormatFloat(smp.Elapsed.Seconds(), 'f', 3, 64),
			strconv.FormatFloat(smp.Measurement, 'f', 6, 64),
			strconv.FormatFloat(smp.Error, 'f', 6, 64),
			strconv.FormatFloat(smp.Output, 'f', 6, 64),
			strconv.FormatFloat(smp.Left, 'f', 6, 64),
			strconv.FormatFloat(smp.Right, 'f', 6, 64),
			strconv.Itoa(smp.Strikes),
		}
		if err := w.Write(row); err != nil {
			return errors.Wrap(err, "write trace")
		}
	}
	w.Flush()
	return errors.Wrap(w.Error(), "flush trace")
}

// List returns every readable run, oldest first.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, errors.Wrap(err, "list runs")
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}

	sort.Slice(runs, func(i, j int) bool { return runs[i].Timestamp.Before(runs[j].Timestamp) })
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		return nil, errors.Wrapf(err, "run %s", runID)
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, errors.Wrapf(err, "run %s metadata", runID)
	}
	return &meta, nil
}

// LoadTrace reads the per-tick samples of a run. Rows that do not parse are
// skipped.
func (s *Store) LoadTrace(runID string) ([]motion.Sample, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, traceFile))
	if err != nil {
		return nil, errors.Wrapf(err, "run %s", runID)
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = -1

	records, err := r.ReadAll()
	if err != nil {
		return nil, errors.Wrapf(err, "run %s trace", runID)
	}
	if len(records) < 2 {
		return []motion.Sample{}, nil
	}

	samples := make([]motion.Sample, 0, len(records)-1)
	for _, record := range records[1:] {
		if smp, ok := parseSample(record); ok {
			samples = append(samples, smp)
		}
	}
	return samples, nil
}

func parseSample(record []string) (motion.Sample, bool) {
	if len(record) != len(traceHeader) {
		return motion.Sample{}, false
	}
	tick, err1 := strconv.Atoi(record[0])
	strikes, err2 := strconv.Atoi(record[7])
	if err1 != nil || err2 != nil {
		return motion.Sample{}, false
	}

	vals := make([]float64, 6)
	for i := range vals {
		v, err := strconv.ParseFloat(record[i+1], 64)
		if err != nil {
			return motion.Sample{}, false
		}
		vals[i] = v
	}

	return motion.Sample{
		Tick:        tick,
		Elapsed:     time.Duration(vals[0] * float64(time.Second)).Round(time.Millisecond),
		Measurement: vals[1],
		Error:       vals[2],
		Output:      vals[3],
		Left:        vals[4],
		Right:       vals[5],
		Strikes:     strikes,
	}, true
}
