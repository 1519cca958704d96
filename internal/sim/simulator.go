package sim

import (
	"errors"
	"io"
	"math"
	"time"

	"github.com/charmbracelet/log"
	"github.com/san-kum/orbitlab/internal/collision"
	"github.com/san-kum/orbitlab/internal/config"
	"github.com/san-kum/orbitlab/internal/dynamo"
	"github.com/san-kum/orbitlab/internal/integrators"
	"github.com/san-kum/orbitlab/internal/launch"
	"github.com/san-kum/orbitlab/internal/physics"
)

// Simulation owns the body set, the in-progress creation gesture and the
// transient ripples, and advances them one frame per Tick.
//
// It is not safe for concurrent use; callers serialize access.
type Simulation struct {
	cfg    config.ConfigSet
	bounds dynamo.Bounds
	bodies *dynamo.Bodies
	kdk    *integrators.KDK

	gesture *launch.Gesture
	stats   *DebugStats
	ripples []Ripple

	clock  func() time.Time
	epoch  time.Time
	logger *log.Logger

	ticks   int
	simTime float64
}

// Option configures a Simulation.
type Option func(*Simulation)

// WithClock sets the wall clock used for gesture timing and ripples.
func WithClock(now func() time.Time) Option {
	return func(s *Simulation) {
		if now != nil {
			s.clock = now
		}
	}
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *log.Logger) Option {
	return func(s *Simulation) {
		if l != nil {
			s.logger = l
		}
	}
}

// New returns an empty simulation on a width x height domain. cfg is
// normalized first, so any ConfigSet is accepted.
func New(width, height float64, cfg config.ConfigSet, opts ...Option) *Simulation {
	s := &Simulation{
		cfg:    cfg.Normalize(),
		kdk:    integrators.NewKDK(),
		clock:  time.Now,
		logger: log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.epoch = s.clock()
	s.bodies = dynamo.NewBodies(s.cfg.MaxStars)
	s.bounds = dynamo.Bounds{Width: width, Height: height, Wrap: s.cfg.Wraps()}
	return s
}

// now returns seconds since the simulation was created.
func (s *Simulation) now() float64 {
	return s.clock().Sub(s.epoch).Seconds()
}

// Config returns the active ConfigSet.
func (s *Simulation) Config() config.ConfigSet { return s.cfg }

// UpdateConfig swaps the active ConfigSet. It takes effect on the next tick
// and leaves existing bodies untouched.
func (s *Simulation) UpdateConfig(cfg config.ConfigSet) {
	s.cfg = cfg.Normalize()
	s.bounds.Wrap = s.cfg.Wraps()
	s.logger.Debug("config updated", "mode", s.cfg.Mode, "boundary", s.cfg.Boundary, "merging", s.cfg.MergingActive())
}

// Resize updates the wrap domain.
func (s *Simulation) Resize(width, height float64) {
	if !(width > 0) || !(height > 0) || math.IsInf(width, 0) || math.IsInf(height, 0) {
		s.logger.Debug("resize ignored", "width", width, "height", height)
		return
	}
	s.bounds.Width, s.bounds.Height = width, height
}

// Bounds returns the current domain.
func (s *Simulation) Bounds() dynamo.Bounds { return s.bounds }

// BeginCreation starts a gesture at (x, y). It is a no-op when the body
// count has reached MaxStars or the point is not finite. A gesture already
// in progress is replaced.
func (s *Simulation) BeginCreation(x, y float64) {
	if s.bodies.Len() >= s.cfg.MaxStars {
		s.logger.Debug("creation rejected", "reason", "max stars", "count", s.bodies.Len())
		return
	}
	if !dynamo.IsFinite(dynamo.Vec{X: x, Y: y}) {
		return
	}
	s.gesture = launch.Begin(x, y, s.now())
	s.stats = nil
}

// UpdateCreation records a pointer move for the active gesture.
func (s *Simulation) UpdateCreation(x, y float64) {
	if s.gesture == nil {
		return
	}
	s.gesture.Sample(x, y, s.now(), s.cfg.FlickWindow())
	s.stats = &DebugStats{HoldDragSpeed: s.gesture.HoldDragSpeed}
}

// Creating reports whether a gesture is in progress.
func (s *Simulation) Creating() bool { return s.gesture != nil }

// FinishCreation releases the active gesture and adds the resulting star.
// It reports false when no gesture is active, the body count has reached
// MaxStars since the gesture began, or the release point is not finite.
func (s *Simulation) FinishCreation() (dynamo.Body, bool) {
	g := s.gesture
	if g == nil {
		return dynamo.Body{}, false
	}
	s.gesture = nil

	if s.bodies.Len() >= s.cfg.MaxStars {
		s.logger.Debug("creation rejected", "reason", "max stars", "count", s.bodies.Len())
		s.stats = nil
		return dynamo.Body{}, false
	}
	if !dynamo.IsFinite(g.Pos) {
		s.stats = nil
		return dynamo.Body{}, false
	}

	now := s.now()
	mass := launch.ResolveMass(g.HoldDuration(now), s.cfg)
	samples := launch.Window(g.Samples, now, s.cfg.FlickWindow())
	res := launch.ResolveLaunchVelocity(samples, mass, s.cfg, s.bodies.Items(), g.Pos)

	vel := res.Velocity
	if !dynamo.IsFinite(vel) {
		vel = dynamo.Vec{}
	}
	pos := s.bounds.WrapPos(g.Pos)

	b := s.bodies.Add(dynamo.NewBody(pos, vel, mass, s.cfg.RadiusPower, s.cfg.RadiusScale))

	s.ripples = append(s.ripples, Ripple{
		Pos:       pos,
		Born:      now,
		Duration:  s.cfg.RippleDuration,
		MaxRadius: s.cfg.RippleMaxRadius,
	})
	s.stats = &DebugStats{
		HoldDragSpeed:     g.HoldDragSpeed,
		ReleaseFlickSpeed: res.RawSpeed,
		CompressedSpeed:   res.CompressedSpeed,
		FinalLaunchSpeed:  res.FinalSpeed,
		EstimatedVCirc:    res.VCirc,
		EstimatedVEsc:     res.VEsc,
	}

	s.logger.Debug("star created",
		"id", b.ID, "mass", mass, "speed", res.FinalSpeed, "guided", res.Guided)
	return b.Clone(), true
}

// CancelCreation drops the active gesture without creating a star.
func (s *Simulation) CancelCreation() {
	s.gesture = nil
	s.stats = nil
}

// Tick advances the simulation by dt seconds, clamped to MaxDt. Bodies
// that end the step with a non-finite state are removed, and the error
// returned wraps dynamo.ErrInvalidState.
func (s *Simulation) Tick(dt float64) error {
	dt = integrators.ClampDt(dt, s.cfg.MaxDt)
	now := s.now()

	var err error
	if dt > 0 && s.bodies.Len() > 0 {
		err = s.step(dt)
	}
	s.ticks++
	s.pruneRipples(now)

	return err
}

func (s *Simulation) step(dt float64) error {
	items := s.bodies.Items()
	if err := s.kdk.Step(items, s.cfg, s.bounds, dt); err != nil {
		var se *dynamo.SimulationError
		if errors.As(err, &se) {
			se.Tick, se.Time = s.ticks, s.simTime
		}
		return err
	}
	s.simTime += dt

	err := s.dropInvalid()

	items = s.bodies.Items()
	for i := range items {
		items[i].RecordTrail(s.simTime, s.cfg.TrailMinSpeed, s.cfg.TrailFadeTime, s.cfg.TrailLength)
	}

	if s.cfg.MergingActive() {
		s.merge()
	}
	return err
}

func (s *Simulation) dropInvalid() error {
	items := s.bodies.Items()
	keep := items[:0]
	var dropped *dynamo.SimulationError
	for _, b := range items {
		if b.IsValid() {
			keep = append(keep, b)
			continue
		}
		s.logger.Warn("dropping invalid body", "id", b.ID, "tick", s.ticks)
		if dropped == nil {
			dropped = &dynamo.SimulationError{Tick: s.ticks, Time: s.simTime, BodyID: b.ID, Wrapped: dynamo.ErrInvalidState}
		}
	}
	if dropped == nil {
		return nil
	}
	s.bodies.Replace(keep)
	return dropped
}

func (s *Simulation) merge() {
	out, merges := collision.Resolve(s.bodies.Items(), s.cfg, s.bounds)
	if len(merges) == 0 {
		return
	}
	s.bodies.Replace(out)

	first := s.bodies.Len() - len(merges)
	for k, m := range merges {
		child := s.bodies.At(first + k)
		s.logger.Debug("stars merged",
			"a", m.Parents[0], "b", m.Parents[1], "id", child.ID, "mass", child.Mass)
	}
}

func (s *Simulation) pruneRipples(now float64) {
	keep := s.ripples[:0]
	for _, r := range s.ripples {
		if now-r.Born < r.Duration {
			keep = append(keep, r)
		}
	}
	s.ripples = keep
}

// Bodies returns a deep copy of the live body set.
func (s *Simulation) Bodies() []dynamo.Body { return s.bodies.Snapshot() }

// Len returns the number of live bodies.
func (s *Simulation) Len() int { return s.bodies.Len() }

// CreationPreview describes the star the active gesture would create now.
func (s *Simulation) CreationPreview() (Preview, bool) {
	if s.gesture == nil {
		return Preview{}, false
	}
	hold := s.gesture.HoldDuration(s.now())
	mass := launch.ResolveMass(hold, s.cfg)
	return Preview{
		Pos:    s.gesture.Pos,
		Mass:   mass,
		Radius: dynamo.RadiusOf(mass, s.cfg.RadiusPower, s.cfg.RadiusScale),
		Hold:   hold,
	}, true
}

// Ripples returns the live ripples and the time they should be drawn at.
func (s *Simulation) Ripples() ([]Ripple, float64) {
	out := make([]Ripple, len(s.ripples))
	copy(out, s.ripples)
	return out, s.now()
}

// DebugStats returns the launch diagnostics, if any.
func (s *Simulation) DebugStats() (DebugStats, bool) {
	if s.stats == nil {
		return DebugStats{}, false
	}
	return *s.stats, true
}

// ClearAllBodies removes every body, ripple and debug stat. An active
// gesture is kept.
func (s *Simulation) ClearAllBodies() {
	s.bodies.Clear()
	s.ripples = s.ripples[:0]
	s.stats = nil
	s.logger.Debug("bodies cleared")
}

// LoadUniverse replaces the body set with u, rescaled from u's canvas to
// the current bounds. Stars with a non-positive or non-finite mass are
// skipped, and at most MaxStars are loaded.
func (s *Simulation) LoadUniverse(u Universe) int {
	sx, sy := 1.0, 1.0
	if u.Width > 0 && s.bounds.Width > 0 {
		sx = s.bounds.Width / u.Width
	}
	if u.Height > 0 && s.bounds.Height > 0 {
		sy = s.bounds.Height / u.Height
	}

	s.bodies.Clear()
	s.ripples = s.ripples[:0]
	s.stats = nil
	for _, st := range u.Stars {
		if s.bodies.Len() >= s.cfg.MaxStars {
			break
		}
		pos := dynamo.Vec{X: st.X * sx, Y: st.Y * sy}
		vel := dynamo.Vec{X: st.VX, Y: st.VY}
		if !(st.Mass > 0) || math.IsInf(st.Mass, 0) || !dynamo.IsFinite(pos) || !dynamo.IsFinite(vel) {
			continue
		}
		s.bodies.Add(dynamo.NewBody(s.bounds.WrapPos(pos), vel, st.Mass, s.cfg.RadiusPower, s.cfg.RadiusScale))
	}
	s.logger.Debug("universe loaded", "stars", s.bodies.Len())
	return s.bodies.Len()
}

// Time returns the simulated time in seconds.
func (s *Simulation) Time() float64 { return s.simTime }

// Stats summarizes the current body set.
func (s *Simulation) Stats() Stats {
	items := s.bodies.Items()
	ke := physics.KineticEnergy(items)
	pe := physics.PotentialEnergy(items, s.cfg)
	px, py := physics.Momentum(items)
	return Stats{
		Tick:            s.ticks,
		Time:            s.simTime,
		Bodies:          len(items),
		TotalMass:       physics.TotalMass(items),
		Kinetic:         ke,
		Potential:       pe,
		Energy:          ke + pe,
		Momentum:        dynamo.Vec{X: px, Y: py},
		AngularMomentum: physics.AngularMomentum(items),
	}
}
