package physics

import (
	"math"

	"github.com/san-kum/orbitlab/internal/config"
	"github.com/san-kum/orbitlab/internal/dynamo"
)

// Accelerations computes the gravitational acceleration of every body and
// stores it in out, which is grown or reused as needed and returned.
//
// Each unordered pair is evaluated once with Plummer softening,
// r² = dx² + dy² + ε², and the force is applied to both bodies. When
// cfg.MaxForceMagnitude is positive the pair force is rescaled to that
// magnitude before it is divided by each body's mass, so the clamp keeps
// the pair symmetric and momentum is still conserved.
func Accelerations(bodies []dynamo.Body, cfg config.ConfigSet, out []dynamo.Vec) []dynamo.Vec {
	n := len(bodies)
	if cap(out) < n {
		out = make([]dynamo.Vec, n)
	}
	out = out[:n]
	for i := range out {
		out[i] = dynamo.Vec{}
	}

	g := cfg.GravityConstant
	eps2 := cfg.SofteningEps * cfg.SofteningEps
	maxF := cfg.MaxForceMagnitude

	for i := 0; i < n; i++ {
		bi := &bodies[i]
		if bi.Mass <= 0 {
			continue
		}
		for j := i + 1; j < n; j++ {
			bj := &bodies[j]
			if bj.Mass <= 0 {
				continue
			}

			dx := bj.Pos.X - bi.Pos.X
			dy := bj.Pos.Y - bi.Pos.Y
			r2 := dx*dx + dy*dy + eps2
			if r2 <= 0 {
				continue
			}

			rInv := 1.0 / math.Sqrt(r2)
			r3Inv := rInv * rInv * rInv

			// F on i, pointing from i toward j.
			fx := g * bi.Mass * bj.Mass * r3Inv * dx
			fy := g * bi.Mass * bj.Mass * r3Inv * dy

			if maxF > 0 {
				if fLen := math.Hypot(fx, fy); fLen > maxF {
					s := maxF / fLen
					fx *= s
					fy *= s
				}
			}

			out[i].X += fx / bi.Mass
			out[i].Y += fy / bi.Mass
			out[j].X -= fx / bj.Mass
			out[j].Y -= fy / bj.Mass
		}
	}

	return out
}

// AccelerationAt returns the acceleration a unit test mass would feel at p.
// Force clamping is not applied since it depends on the probe mass.
func AccelerationAt(p dynamo.Vec, bodies []dynamo.Body, cfg config.ConfigSet) dynamo.Vec {
	eps2 := cfg.SofteningEps * cfg.SofteningEps
	var a dynamo.Vec
	for i := range bodies {
		dx := bodies[i].Pos.X - p.X
		dy := bodies[i].Pos.Y - p.Y
		r2 := dx*dx + dy*dy + eps2
		if r2 <= 0 {
			continue
		}
		rInv := 1.0 / math.Sqrt(r2)
		f := cfg.GravityConstant * bodies[i].Mass * rInv * rInv * rInv
		a.X += f * dx
		a.Y += f * dy
	}
	return a
}
