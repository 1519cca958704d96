package storage

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/san-kum/orbitlab/internal/config"
	"github.com/san-kum/orbitlab/internal/dynamo"
	"github.com/san-kum/orbitlab/internal/sim"
)

const (
	metadataFile = "metadata.json"
	statsFile    = "stats.csv"
	bodiesFile   = "bodies.csv"
)

var statsHeader = []string{"tick", "time", "bodies", "total_mass", "kinetic", "potential", "energy", "px", "py", "angular_momentum"}

var bodiesHeader = []string{"id", "x", "y", "vx", "vy", "mass", "radius", "age"}

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
	ID        string             `json:"id"`
	Scenario  string             `json:"scenario"`
	Timestamp time.Time          `json:"timestamp"`
	Dt        float64            `json:"dt"`
	Duration  float64            `json:"duration"`
	Ticks     int                `json:"ticks"`
	Width     float64            `json:"width"`
	Height    float64            `json:"height"`
	Config    config.ConfigSet   `json:"config"`
	Metrics   map[string]float64 `json:"metrics"`
}

// Run is everything recorded for one scripted run.
type Run struct {
	Meta   RunMetadata
	Stats  []sim.Stats
	Bodies []dynamo.Body
}

// Save writes run under a new directory and returns its ID. An empty
// Meta.ID is derived from the scenario name and timestamp.
func (s *Store) Save(run *Run) (string, error) {
	meta := run.Meta
	if meta.Timestamp.IsZero() {
		meta.Timestamp = time.Now()
	}
	if meta.ID == "" {
		meta.ID = fmt.Sprintf("%s_%d", slug(meta.Scenario), meta.Timestamp.UnixMilli())
	}

	runDir := filepath.Join(s.baseDir, meta.ID)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", fmt.Errorf("create run dir: %w", err)
	}

	if err := writeJSON(filepath.Join(runDir, metadataFile), meta); err != nil {
		return "", err
	}

	rows := make([][]string, 0, len(run.Stats))
	for _, st := range run.Stats {
		rows = append(rows, []string{
			strconv.Itoa(st.Tick),
			formatFloat(st.Time),
			strconv.Itoa(st.Bodies),
			formatFloat(st.TotalMass),
			formatFloat(st.Kinetic),
			formatFloat(st.Potential),
			formatFloat(st.Energy),
			formatFloat(st.Momentum.X),
			formatFloat(st.Momentum.Y),
			formatFloat(st.AngularMomentum),
		})
	}
	if err := writeCSV(filepath.Join(runDir, statsFile), statsHeader, rows); err != nil {
		return "", err
	}

	rows = rows[:0]
	for i := range run.Bodies {
		b := &run.Bodies[i]
		rows = append(rows, []string{
			strconv.FormatUint(b.ID, 10),
			formatFloat(b.Pos.X),
			formatFloat(b.Pos.Y),
			formatFloat(b.V.X),
			formatFloat(b.V.Y),
			formatFloat(b.Mass),
			formatFloat(b.Radius()),
			formatFloat(b.Age),
		})
	}
	if err := writeCSV(filepath.Join(runDir, bodiesFile), bodiesHeader, rows); err != nil {
		return "", err
	}

	return meta.ID, nil
}

// List returns the stored runs, oldest first. Directories without readable
// metadata are skipped.
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
		return nil, fmt.Errorf("load run %s: %w", runID, err)
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("decode run %s: %w", runID, err)
	}
	return &meta, nil
}

// LoadStats reads the per-tick stats of a run. Malformed rows are skipped.
func (s *Store) LoadStats(runID string) ([]sim.Stats, error) {
	records, err := readCSV(filepath.Join(s.baseDir, runID, statsFile))
	if err != nil {
		return nil, err
	}

	out := make([]sim.Stats, 0, len(records))
	for _, r := range records {
		if len(r) < len(statsHeader) {
			continue
		}
		tick, err := strconv.Atoi(r[0])
		if err != nil {
			continue
		}
		bodies, err := strconv.Atoi(r[2])
		if err != nil {
			continue
		}
		f, ok := parseFloats(r[3:])
		if !ok {
			continue
		}
		t, err := strconv.ParseFloat(r[1], 64)
		if err != nil {
			continue
		}
		out = append(out, sim.Stats{
			Tick:            tick,
			Time:            t,
			Bodies:          bodies,
			TotalMass:       f[0],
			Kinetic:         f[1],
			Potential:       f[2],
			Energy:          f[3],
			Momentum:        dynamo.Vec{X: f[4], Y: f[5]},
			AngularMomentum: f[6],
		})
	}
	return out, nil
}

// LoadBodies reads the final body set of a run. Radius is not stored on a
// Body, so RadiusScale is set to reproduce it with RadiusPower 0.
func (s *Store) LoadBodies(runID string) ([]dynamo.Body, error) {
	records, err := readCSV(filepath.Join(s.baseDir, runID, bodiesFile))
	if err != nil {
		return nil, err
	}

	out := make([]dynamo.Body, 0, len(records))
	for _, r := range records {
		if len(r) < len(bodiesHeader) {
			continue
		}
		id, err := strconv.ParseUint(r[0], 10, 64)
		if err != nil {
			continue
		}
		f, ok := parseFloats(r[1:])
		if !ok {
			continue
		}
		b := dynamo.NewBody(dynamo.Vec{X: f[0], Y: f[1]}, dynamo.Vec{X: f[2], Y: f[3]}, f[4], 0, f[5])
		b.ID = id
		b.Age = f[6]
		out = append(out, b)
	}
	return out, nil
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	return nil
}

func writeCSV(path string, header []string, rows [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return err
	}
	if err := w.WriteAll(rows); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	return nil
}

// readCSV returns the data rows of a CSV file, header excluded.
func readCSV(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}
	if len(records) < 2 {
		return nil, nil
	}
	return records[1:], nil
}

func parseFloats(fields []string) ([]float64, bool) {
	out := make([]float64, len(fields))
	for i, s := range fields {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, false
		}
		out[i] = v
	}
	return out, true
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func slug(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return "run"
	}
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '-'
		}
	}, name)
}

// ErrNoRuns is returned by Latest when the store is empty.
var ErrNoRuns = errors.New("storage: no stored runs")

// Latest returns the most recent run.
func (s *Store) Latest() (*RunMetadata, error) {
	runs, err := s.List()
	if err != nil {
		return nil, err
	}
	if len(runs) == 0 {
		return nil, ErrNoRuns
	}
	return &runs[len(runs)-1], nil
}
