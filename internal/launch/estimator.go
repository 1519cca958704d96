package launch

import (
	"math"

	"github.com/san-kum/orbitlab/internal/config"
	"github.com/san-kum/orbitlab/internal/dynamo"
	"github.com/san-kum/orbitlab/internal/physics"
)

// Result is a resolved launch velocity plus the intermediate speeds, kept
// for the debug readout.
type Result struct {
	Velocity        dynamo.Vec
	RawSpeed        float64
	CompressedSpeed float64
	FinalSpeed      float64
	VCirc           float64
	VEsc            float64
	Guided          bool
}

// ResolveMass maps a hold duration to a mass with square-root easing:
// t = clamp(hold/holdToMax, 0, 1), m = min + (max-min)·sqrt(t).
func ResolveMass(hold float64, cfg config.ConfigSet) float64 {
	t := 1.0
	if cfg.HoldToMaxSeconds > 0 {
		t = hold / cfg.HoldToMaxSeconds
	}
	if math.IsNaN(t) || t < 0 {
		t = 0
	}
	if t > 1 {
		t = 1
	}
	return cfg.MinMass + (cfg.MaxMass-cfg.MinMass)*math.Sqrt(t)
}

// CompressSpeed maps a raw speed onto [0, vmax): vmax·(1 − e^(−raw/s0)).
// It is monotone and close to linear for raw << s0.
func CompressSpeed(raw, s0, vmax float64) float64 {
	if raw <= 0 || s0 <= 0 || math.IsNaN(raw) {
		return 0
	}
	return -vmax * math.Expm1(-raw/s0)
}

// ResolveLaunchVelocity computes the launch velocity of a star of the given
// mass released at pos. samples should already be limited to the flick
// window; existing is the current body set, used for angular guidance.
//
// Fewer than two samples give no flick velocity. Guidance still applies in
// that case, so a still release next to a heavy star starts on a
// near-circular orbit.
func ResolveLaunchVelocity(samples []Sample, mass float64, cfg config.ConfigSet, existing []dynamo.Body, pos dynamo.Vec) Result {
	var res Result
	var v dynamo.Vec

	if raw, ok := AverageVelocity(samples); ok {
		speed := dynamo.Len(raw)
		if speed > 0 && !math.IsInf(speed, 0) && !math.IsNaN(speed) {
			res.RawSpeed = speed
			res.CompressedSpeed = CompressSpeed(speed, cfg.FlickS0, cfg.FlickVmax)
			dir := raw.Scale(1 / speed)
			v = dir.Scale(res.CompressedSpeed * cfg.LaunchStrength * massResistance(mass, cfg))
		}
	}

	if cfg.AngularGuidanceStrength > 0 {
		v = res.guide(v, pos, existing, cfg)
	}

	res.Velocity = v
	res.FinalSpeed = dynamo.Len(v)
	return res
}

func massResistance(mass float64, cfg config.ConfigSet) float64 {
	if cfg.MaxMass <= 0 {
		return 1
	}
	return math.Max(0, 1-(mass/cfg.MaxMass)*cfg.MassResistanceFactor)
}

// guide applies angular guidance to v, recording v_circ and v_esc on res.
// It returns v unchanged when no body is in range or pos sits exactly on
// the center of mass.
func (res *Result) guide(v, pos dynamo.Vec, existing []dynamo.Body, cfg config.ConfigSet) dynamo.Vec {
	center, total, ok := FindOrbitalCenter(pos, existing, cfg.OrbitalCenterSearchRadius)
	if !ok {
		return v
	}
	r := pos.Sub(center)
	rLen := dynamo.Len(r)
	if rLen == 0 {
		return v
	}

	radial, tangential := Decompose(pos, center, v)
	radial = radial.Scale(1 - cfg.RadialClampFactor)

	res.VCirc = physics.CircularSpeed(cfg.GravityConstant, total, rLen)
	res.VEsc = physics.EscapeSpeed(cfg.GravityConstant, total, rLen)

	current := dynamo.Len(tangential)
	target := current + (res.VCirc-current)*cfg.AngularGuidanceStrength

	tUnit := dynamo.Unit(tangential)
	if tUnit.X == 0 && tUnit.Y == 0 {
		tUnit = dynamo.Perp(dynamo.Unit(r))
	}

	res.Guided = true
	return radial.Add(tUnit.Scale(target))
}

// FindOrbitalCenter finds the nearest body within radius of pos and returns
// the mass-weighted center and total mass of every body within radius.
func FindOrbitalCenter(pos dynamo.Vec, bodies []dynamo.Body, radius float64) (dynamo.Vec, float64, bool) {
	nearest := -1
	nearestDist := math.Inf(1)
	for i := range bodies {
		d := dynamo.Len(bodies[i].Pos.Sub(pos))
		if d < radius && d < nearestDist {
			nearest, nearestDist = i, d
		}
	}
	if nearest < 0 {
		return dynamo.Vec{}, 0, false
	}

	var weighted dynamo.Vec
	total := 0.0
	for i := range bodies {
		if i != nearest && dynamo.Len(bodies[i].Pos.Sub(pos)) >= radius {
			continue
		}
		weighted = weighted.Add(bodies[i].Pos.Scale(bodies[i].Mass))
		total += bodies[i].Mass
	}
	if total <= 0 {
		return dynamo.Vec{}, 0, false
	}
	return weighted.Scale(1 / total), total, true
}

// Decompose splits v into the component along pos−center and the
// remainder. At the center itself everything is tangential.
func Decompose(pos, center, v dynamo.Vec) (radial, tangential dynamo.Vec) {
	r := pos.Sub(center)
	if r.X == 0 && r.Y == 0 {
		return dynamo.Vec{}, v
	}
	u := dynamo.Unit(r)
	radial = u.Scale(v.Dot(u))
	return radial, v.Sub(radial)
}
