package automation

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"runtime"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/orbitlab/internal/config"
	"github.com/san-kum/orbitlab/internal/dynamo"
	"github.com/san-kum/orbitlab/internal/metrics"
	"github.com/san-kum/orbitlab/internal/sim"
	"github.com/san-kum/orbitlab/internal/storage"
)

// ErrInvalidStep is returned for a step that names zero or several actions.
var ErrInvalidStep = errors.New("automation: step must name exactly one action")

// Scenario is a scripted session: an optional starting universe followed
// by pointer gestures and waits, replayed against a simulated clock.
type Scenario struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Width       float64        `yaml:"width"`
	Height      float64        `yaml:"height"`
	Dt          float64        `yaml:"dt"`
	Config      yaml.Node      `yaml:"config"`
	Universe    *sim.Universe  `yaml:"universe"`
	Steps       []ScenarioStep `yaml:"steps"`
}

type Point struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
}

type Wait struct {
	Seconds float64 `yaml:"seconds"`
}

// ScenarioStep is a single action. Press starts a gesture, Drag moves the
// pointer and lets one frame pass, Release and Cancel end the gesture,
// Wait runs frames for the given time and Clear removes every star.
type ScenarioStep struct {
	Press   *Point `yaml:"press"`
	Drag    *Point `yaml:"drag"`
	Release bool   `yaml:"release"`
	Cancel  bool   `yaml:"cancel"`
	Wait    *Wait  `yaml:"wait"`
	Clear   bool   `yaml:"clear"`
}

func (s ScenarioStep) actions() int {
	n := 0
	for _, set := range []bool{s.Press != nil, s.Drag != nil, s.Release, s.Cancel, s.Wait != nil, s.Clear} {
		if set {
			n++
		}
	}
	return n
}

// LoadScenario loads a scenario from a YAML file
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	sc, err := ParseScenario(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return sc, nil
}

// ParseScenario decodes and checks a scenario, filling defaults for the
// canvas size and frame time.
func ParseScenario(data []byte) (*Scenario, error) {
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, err
	}
	if sc.Width <= 0 {
		sc.Width = 800
	}
	if sc.Height <= 0 {
		sc.Height = 600
	}
	if sc.Dt <= 0 || math.IsNaN(sc.Dt) || math.IsInf(sc.Dt, 0) {
		sc.Dt = 1.0 / 60
	}
	for i, step := range sc.Steps {
		if step.actions() != 1 {
			return nil, fmt.Errorf("step %d: %w", i+1, ErrInvalidStep)
		}
		if step.Wait != nil && (!(step.Wait.Seconds >= 0) || math.IsInf(step.Wait.Seconds, 0)) {
			return nil, fmt.Errorf("step %d: wait %g: %w", i+1, step.Wait.Seconds, dynamo.ErrParameterBounds)
		}
	}
	if _, err := sc.ConfigSet(config.DefaultConfig()); err != nil {
		return nil, err
	}
	return &sc, nil
}

// ConfigSet overlays the scenario's config block on base and validates it.
func (sc *Scenario) ConfigSet(base config.ConfigSet) (config.ConfigSet, error) {
	cfg := base
	if sc.Config.Kind != 0 {
		if err := sc.Config.Decode(&cfg); err != nil {
			return base, fmt.Errorf("config: %w", err)
		}
	}
	if err := cfg.Validate(); err != nil {
		return base, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

// simClock is the wall clock seen by a scripted simulation.
type simClock struct{ t time.Time }

func (c *simClock) Now() time.Time { return c.t }

func (c *simClock) advance(seconds float64) {
	c.t = c.t.Add(time.Duration(seconds * float64(time.Second)))
}

type Runner struct {
	Base   config.ConfigSet
	Logger *log.Logger
}

func NewRunner(base config.ConfigSet, logger *log.Logger) *Runner {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Runner{Base: base, Logger: logger}
}

// Run replays sc and returns the recorded run. Stats are sampled once
// before the first step and after every frame. The context is checked
// between frames.
func (r *Runner) Run(ctx context.Context, sc *Scenario) (*storage.Run, error) {
	cfg, err := sc.ConfigSet(r.Base)
	if err != nil {
		return nil, err
	}

	clock := &simClock{t: time.Unix(0, 0).UTC()}
	logger := r.Logger.With("scenario", sc.Name)
	s := sim.New(sc.Width, sc.Height, cfg, sim.WithClock(clock.Now), sim.WithLogger(logger))
	if sc.Universe != nil {
		s.LoadUniverse(*sc.Universe)
	}

	ms := metrics.Standard()
	run := &storage.Run{
		Meta: storage.RunMetadata{
			Scenario: sc.Name,
			Dt:       sc.Dt,
			Width:    sc.Width,
			Height:   sc.Height,
			Config:   cfg,
			Metrics:  make(map[string]float64),
		},
	}

	record := func() {
		st := s.Stats()
		run.Stats = append(run.Stats, st)
		for _, m := range ms {
			m.Observe(st)
		}
	}
	frame := func() error {
		select {
		case <-ctx.Done():
			return fmt.Errorf("%w: %w", dynamo.ErrContextCanceled, ctx.Err())
		default:
		}
		clock.advance(sc.Dt)
		if err := s.Tick(sc.Dt); err != nil {
			logger.Warn("tick failed", "err", err)
		}
		record()
		return nil
	}

	record()
	for i, step := range sc.Steps {
		switch {
		case step.Press != nil:
			s.BeginCreation(step.Press.X, step.Press.Y)
		case step.Drag != nil:
			if err := frame(); err != nil {
				return run, err
			}
			s.UpdateCreation(step.Drag.X, step.Drag.Y)
		case step.Release:
			if b, ok := s.FinishCreation(); ok {
				logger.Debug("released", "step", i+1, "id", b.ID, "mass", b.Mass)
			}
		case step.Cancel:
			s.CancelCreation()
		case step.Wait != nil:
			frames := int(math.Ceil(step.Wait.Seconds/sc.Dt - 1e-9))
			for f := 0; f < frames; f++ {
				if err := frame(); err != nil {
					return run, err
				}
			}
		case step.Clear:
			s.ClearAllBodies()
		}
	}

	for _, m := range ms {
		run.Meta.Metrics[m.Name()] = m.Value()
	}
	final := s.Stats()
	run.Meta.Ticks = final.Tick
	run.Meta.Duration = final.Time
	run.Bodies = s.Bodies()
	return run, nil
}

// RunAll replays scenarios concurrently, one simulation each, and returns
// the runs in input order. The first error cancels the rest.
func (r *Runner) RunAll(ctx context.Context, scenarios []*Scenario) ([]*storage.Run, error) {
	runs := make([]*storage.Run, len(scenarios))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())
	for i, sc := range scenarios {
		g.Go(func() error {
			run, err := r.Run(ctx, sc)
			if err != nil {
				return fmt.Errorf("scenario %q: %w", sc.Name, err)
			}
			runs[i] = run
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return runs, nil
}
