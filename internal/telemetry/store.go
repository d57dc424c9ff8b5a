package telemetry

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/cjeanneret/ballplate/internal/debug"
)

const (
	metadataFile = "metadata.json"
	cyclesFile   = "cycles.csv"
	armCount     = 3
)

var header = []string{"cycle", "elapsed_s", "mode", "ball_x_cm", "ball_y_cm", "dir_x", "dir_y", "theta_rad", "a0", "a1", "a2"}

// RunMetadata describes one recorded run.
type RunMetadata struct {
	ID        string    `json:"id"`
	Mode      string    `json:"mode"`
	Profile   string    `json:"profile"`
	Timestamp time.Time `json:"timestamp"`
	Cycles    uint64    `json:"cycles"`
	Duration  float64   `json:"duration_s"`
	Outcome   string    `json:"outcome,omitempty"`
}

// Store keeps recorded runs under baseDir, one directory per run.
type Store struct {
	baseDir string
}

func NewStore(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

// Create starts a new run and returns its recorder.
func (s *Store) Create(mode, profile string) (*Recorder, error) {
	if err := s.Init(); err != nil {
		return nil, err
	}
	id := uuid.NewString()
	dir := filepath.Join(s.baseDir, id)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	f, err := os.Create(filepath.Join(dir, cyclesFile))
	if err != nil {
		return nil, err
	}
	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		f.Close()
		return nil, err
	}

	r := &Recorder{
		dir:  dir,
		file: f,
		csv:  w,
		meta: RunMetadata{ID: id, Mode: mode, Profile: profile, Timestamp: time.Now()},
	}
	if err := r.writeMetadata(); err != nil {
		f.Close()
		return nil, err
	}
	debug.Info("Recording run %s to %s", id, dir)
	return r, nil
}

// List returns every readable run, oldest first.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.Load(entry.Name())
		if err != nil {
			debug.Verbose("Skipping %s: %v", entry.Name(), err)
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
		return nil, err
	}
	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("parse metadata of %s: %w", runID, err)
	}
	return &meta, nil
}

// LoadSamples reads back the cycles of a run.
func (s *Store) LoadSamples(runID string) ([]Sample, error) {
	f, err := os.Open(filepath.Join(s.baseDir, runID, cyclesFile))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = len(header)
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read cycles of %s: %w", runID, err)
	}
	if len(records) < 2 {
		return []Sample{}, nil
	}

	samples := make([]Sample, 0, len(records)-1)
	for i, rec := range records[1:] {
		smp, err := parseRow(rec)
		if err != nil {
			return nil, fmt.Errorf("cycles of %s, row %d: %w", runID, i+2, err)
		}
		samples = append(samples, smp)
	}
	return samples, nil
}

func parseRow(rec []string) (Sample, error) {
	cycle, err := strconv.ParseUint(rec[0], 10, 64)
	if err != nil {
		return Sample{}, err
	}
	vals := make([]float64, 0, len(rec)-3)
	for _, field := range append([]string{rec[1]}, rec[3:]...) {
		v, err := strconv.ParseFloat(field, 64)
		if err != nil {
			return Sample{}, err
		}
		vals = append(vals, v)
	}
	return Sample{
		Cycle:   cycle,
		Elapsed: time.Duration(math.Round(vals[0] * float64(time.Second))),
		Mode:    rec[2],
		BallX:   vals[1],
		BallY:   vals[2],
		DirX:    vals[3],
		DirY:    vals[4],
		Theta:   vals[5],
		Angles:  vals[6:],
	}, nil
}

// Recorder appends cycles to a run's CSV. Safe for use from the control
// goroutine only.
type Recorder struct {
	dir  string
	file *os.File
	csv  *csv.Writer
	meta RunMetadata
	err  error
}

func (r *Recorder) ID() string { return r.meta.ID }

// OnCycle appends s. The first write error is kept and reported by Close.
func (r *Recorder) OnCycle(s Sample) {
	if r.err != nil {
		return
	}
	row := []string{
		strconv.FormatUint(s.Cycle, 10),
		strconv.FormatFloat(s.Elapsed.Seconds(), 'f', 6, 64),
		s.Mode,
		strconv.FormatFloat(s.BallX, 'f', 6, 64),
		strconv.FormatFloat(s.BallY, 'f', 6, 64),
		strconv.FormatFloat(s.DirX, 'f', 6, 64),
		strconv.FormatFloat(s.DirY, 'f', 6, 64),
		strconv.FormatFloat(s.Theta, 'f', 6, 64),
	}
	for i := 0; i < armCount; i++ {
		v := 0.0
		if i < len(s.Angles) {
			v = s.Angles[i]
		}
		row = append(row, strconv.FormatFloat(v, 'f', 6, 64))
	}
	if err := r.csv.Write(row); err != nil {
		r.err = err
		return
	}
	r.meta.Cycles = s.Cycle
	r.meta.Duration = s.Elapsed.Seconds()
}

// Close flushes the CSV and rewrites metadata with the run outcome.
func (r *Recorder) Close(outcome string) error {
	r.csv.Flush()
	errs := []error{r.err, r.csv.Error()}
	r.meta.Outcome = outcome
	errs = append(errs, r.writeMetadata(), r.file.Close())
	return errors.Join(errs...)
}

func (r *Recorder) writeMetadata() error {
	f, err := os.Create(filepath.Join(r.dir, metadataFile))
	if err != nil {
		return err
	}
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(r.meta); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
