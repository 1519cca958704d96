package physics

import (
	"math"

	"github.com/san-kum/orbitlab/internal/config"
	"github.com/san-kum/orbitlab/internal/dynamo"
)

// KineticEnergy returns Σ ½ m v² using the synced velocities.
func KineticEnergy(bodies []dynamo.Body) float64 {
	ke := 0.0
	for i := range bodies {
		v := bodies[i].V
		ke += 0.5 * bodies[i].Mass * (v.X*v.X + v.Y*v.Y)
	}
	return ke
}

// PotentialEnergy returns the softened pair potential Σ -G mᵢ mⱼ / sqrt(r² + ε²).
func PotentialEnergy(bodies []dynamo.Body, cfg config.ConfigSet) float64 {
	eps2 := cfg.SofteningEps * cfg.SofteningEps
	pe := 0.0
	for i := range bodies {
		for j := i + 1; j < len(bodies); j++ {
			rx := bodies[j].Pos.X - bodies[i].Pos.X
			ry := bodies[j].Pos.Y - bodies[i].Pos.Y
			r := math.Sqrt(rx*rx + ry*ry + eps2)
			if r == 0 {
				continue
			}
			pe -= cfg.GravityConstant * bodies[i].Mass * bodies[j].Mass / r
		}
	}
	return pe
}

// Energy returns kinetic plus potential energy.
func Energy(bodies []dynamo.Body, cfg config.ConfigSet) float64 {
	return KineticEnergy(bodies) + PotentialEnergy(bodies, cfg)
}

func Momentum(bodies []dynamo.Body) (px, py float64) {
	for i := range bodies {
		px += bodies[i].Mass * bodies[i].V.X
		py += bodies[i].Mass * bodies[i].V.Y
	}
	return
}

// AngularMomentum about the origin.
func AngularMomentum(bodies []dynamo.Body) float64 {
	L := 0.0
	for i := range bodies {
		b := &bodies[i]
		L += b.Mass * (b.Pos.X*b.V.Y - b.Pos.Y*b.V.X)
	}
	return L
}

func TotalMass(bodies []dynamo.Body) float64 {
	m := 0.0
	for i := range bodies {
		m += bodies[i].Mass
	}
	return m
}

// CenterOfMass returns the mass-weighted mean position, or false for an
// empty or massless set.
func CenterOfMass(bodies []dynamo.Body) (dynamo.Vec, bool) {
	var c dynamo.Vec
	m := 0.0
	for i := range bodies {
		c = c.Add(bodies[i].Pos.Scale(bodies[i].Mass))
		m += bodies[i].Mass
	}
	if m == 0 {
		return dynamo.Vec{}, false
	}
	return c.Scale(1 / m), true
}

// CircularSpeed is the speed of a circular orbit of radius r around mass m.
func CircularSpeed(g, m, r float64) float64 {
	if r <= 0 || g*m <= 0 {
		return 0
	}
	return math.Sqrt(g * m / r)
}

// EscapeSpeed is sqrt(2) times the circular speed.
func EscapeSpeed(g, m, r float64) float64 {
	return math.Sqrt2 * CircularSpeed(g, m, r)
}
