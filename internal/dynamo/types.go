package dynamo

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// Vec is a 2-D vector in screen units (pixels, pixels/second, ...).
type Vec r2.Vec

func (v Vec) Add(u Vec) Vec { return Vec(r2.Add(r2.Vec(v), r2.Vec(u))) }

func (v Vec) Sub(u Vec) Vec { return Vec(r2.Sub(r2.Vec(v), r2.Vec(u))) }

func (v Vec) Scale(f float64) Vec { return Vec(r2.Scale(f, r2.Vec(v))) }

func (v Vec) Dot(u Vec) float64 { return r2.Dot(r2.Vec(v), r2.Vec(u)) }

// Len returns the Euclidean length of v.
func Len(v Vec) float64 {
	return r2.Norm(r2.Vec(v))
}

// Unit returns v scaled to unit length, or the zero vector when v is zero.
func Unit(v Vec) Vec {
	if v.X == 0 && v.Y == 0 {
		return Vec{}
	}
	return Vec(r2.Unit(r2.Vec(v)))
}

// Perp returns v rotated a quarter turn counter-clockwise.
func Perp(v Vec) Vec {
	return Vec{X: -v.Y, Y: v.X}
}

// IsFinite reports whether both components are neither NaN nor Inf.
func IsFinite(v Vec) bool {
	return !math.IsNaN(v.X) && !math.IsInf(v.X, 0) && !math.IsNaN(v.Y) && !math.IsInf(v.Y, 0)
}

// Bounds is the simulation domain [0,Width) x [0,Height).
type Bounds struct {
	Width, Height float64
	Wrap          bool
}

// WrapPos maps p back into the domain. It is a no-op when wrapping is off
// or the domain is degenerate.
func (b Bounds) WrapPos(p Vec) Vec {
	if !b.Wrap {
		return p
	}
	return Vec{X: wrapCoord(p.X, b.Width), Y: wrapCoord(p.Y, b.Height)}
}

// Delta returns the displacement from a to c, taking the shortest path
// across the edges when wrapping is on (minimum-image convention).
func (b Bounds) Delta(a, c Vec) Vec {
	d := c.Sub(a)
	if !b.Wrap {
		return d
	}
	return Vec{X: minImage(d.X, b.Width), Y: minImage(d.Y, b.Height)}
}

func wrapCoord(x, size float64) float64 {
	if size <= 0 || math.IsNaN(x) || math.IsInf(x, 0) {
		return x
	}
	x = math.Mod(x, size)
	if x < 0 {
		x += size
	}
	// Mod of a tiny negative value can round up to size itself.
	if x >= size {
		x = 0
	}
	return x
}

func minImage(d, size float64) float64 {
	if size <= 0 {
		return d
	}
	half := size / 2
	d = math.Mod(d, size)
	if d > half {
		d -= size
	} else if d < -half {
		d += size
	}
	return d
}

// Phase marks which half of a kick-drift-kick step a body is in.
type Phase uint8

const (
	// PhaseSettled: velocity and position belong to the same full step.
	PhaseSettled Phase = iota
	// PhaseHalfStep: first kick and drift applied, second kick pending.
	PhaseHalfStep
)

func (p Phase) String() string {
	switch p {
	case PhaseSettled:
		return "settled"
	case PhaseHalfStep:
		return "half-step"
	default:
		return "unknown"
	}
}

// TrailPoint is a recent position sample kept for rendering motion trails.
type TrailPoint struct {
	Pos  Vec
	Time float64
}

// Body is a single star.
type Body struct {
	ID uint64

	Pos   Vec
	VHalf Vec // integrator velocity
	V     Vec // synced at full-step boundaries, read by everything else

	Mass        float64
	RadiusPower float64
	RadiusScale float64

	Age   float64
	Trail []TrailPoint
	Phase Phase
}

// NewBody creates a settled body launched with vel.
func NewBody(pos, vel Vec, mass, radiusPower, radiusScale float64) Body {
	return Body{
		Pos:         pos,
		VHalf:       vel,
		V:           vel,
		Mass:        mass,
		RadiusPower: radiusPower,
		RadiusScale: radiusScale,
	}
}

// Radius is derived from mass: Mass^RadiusPower * RadiusScale.
func (b *Body) Radius() float64 {
	return RadiusOf(b.Mass, b.RadiusPower, b.RadiusScale)
}

// RadiusOf returns mass^power * scale.
func RadiusOf(mass, power, scale float64) float64 {
	if mass <= 0 {
		return 0
	}
	return math.Pow(mass, power) * scale
}

// Speed returns the magnitude of the synced velocity.
func (b *Body) Speed() float64 { return Len(b.V) }

// Momentum returns Mass * V.
func (b *Body) Momentum() Vec { return b.V.Scale(b.Mass) }

// KickDrift applies the first half kick and the full drift.
func (b *Body) KickDrift(a Vec, dt float64) error {
	if b.Phase != PhaseSettled {
		return ErrPhaseOrder
	}
	b.VHalf = b.VHalf.Add(a.Scale(dt / 2))
	b.Pos = b.Pos.Add(b.VHalf.Scale(dt))
	b.Phase = PhaseHalfStep
	return nil
}

// Kick applies the second half kick and syncs V.
func (b *Body) Kick(a Vec, dt float64) error {
	if b.Phase != PhaseHalfStep {
		return ErrPhaseOrder
	}
	b.VHalf = b.VHalf.Add(a.Scale(dt / 2))
	b.V = b.VHalf
	b.Phase = PhaseSettled
	return nil
}

// IsValid reports whether position and both velocities are finite.
func (b *Body) IsValid() bool {
	return IsFinite(b.Pos) && IsFinite(b.VHalf) && IsFinite(b.V) &&
		!math.IsNaN(b.Mass) && !math.IsInf(b.Mass, 0)
}

// Clone returns a deep copy, including the trail.
func (b Body) Clone() Body {
	if b.Trail != nil {
		trail := make([]TrailPoint, len(b.Trail))
		copy(trail, b.Trail)
		b.Trail = trail
	}
	return b
}

// RecordTrail appends a trail sample while the body moves faster than
// minSpeed and prunes samples older than fade or beyond maxLen. Slow
// bodies lose their trail.
func (b *Body) RecordTrail(now, minSpeed, fade float64, maxLen int) {
	if Len(b.VHalf) <= minSpeed || maxLen <= 0 {
		b.Trail = b.Trail[:0]
		return
	}
	b.Trail = append(b.Trail, TrailPoint{Pos: b.Pos, Time: now})

	cutoff := now - fade
	keep := 0
	for _, p := range b.Trail {
		if p.Time > cutoff {
			b.Trail[keep] = p
			keep++
		}
	}
	b.Trail = b.Trail[:keep]

	if len(b.Trail) > maxLen {
		b.Trail = append(b.Trail[:0], b.Trail[len(b.Trail)-maxLen:]...)
	}
}
