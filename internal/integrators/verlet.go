package integrators

import (
	"math"

	"github.com/san-kum/orbitlab/internal/config"
	"github.com/san-kum/orbitlab/internal/dynamo"
	"github.com/san-kum/orbitlab/internal/physics"
)

// SpeedCeiling caps |v| (px/s) outside the orbit playground.
const SpeedCeiling = 4000.0

// KDK is a kick-drift-kick (velocity Verlet) stepper with two force
// evaluations per step. It keeps its acceleration buffer between steps.
type KDK struct {
	acc []dynamo.Vec
}

func NewKDK() *KDK {
	return &KDK{}
}

// Step advances bodies in place by dt.
//
// Pass 1 kicks every body by a(t)·dt/2, drifts it by v·dt and applies the
// non-Hamiltonian modifiers (damping, speed clamp, wrap). Pass 2 starts only
// after pass 1 has finished for all bodies, so a(t+dt) sees every updated
// position. Bodies that are not settled are rejected before anything moves.
func (k *KDK) Step(bodies []dynamo.Body, cfg config.ConfigSet, bounds dynamo.Bounds, dt float64) error {
	if dt <= 0 || len(bodies) == 0 {
		return nil
	}
	for i := range bodies {
		if bodies[i].Phase != dynamo.PhaseSettled {
			return &dynamo.SimulationError{BodyID: bodies[i].ID, Wrapped: dynamo.ErrPhaseOrder}
		}
	}

	k.acc = physics.Accelerations(bodies, cfg, k.acc)
	for i := range bodies {
		b := &bodies[i]
		if err := b.KickDrift(k.acc[i], dt); err != nil {
			return &dynamo.SimulationError{BodyID: b.ID, Wrapped: err}
		}
		applyModifiers(b, cfg, bounds)
		b.Age += dt
	}

	k.acc = physics.Accelerations(bodies, cfg, k.acc)
	for i := range bodies {
		b := &bodies[i]
		if err := b.Kick(k.acc[i], dt); err != nil {
			return &dynamo.SimulationError{BodyID: b.ID, Wrapped: err}
		}
		if cfg.SpeedClampActive() {
			b.VHalf = ClampSpeed(b.VHalf, SpeedCeiling)
			b.V = b.VHalf
		}
	}

	return nil
}

func applyModifiers(b *dynamo.Body, cfg config.ConfigSet, bounds dynamo.Bounds) {
	if cfg.DampingActive() {
		b.VHalf = b.VHalf.Scale(1 - cfg.VelocityDamping)
	}
	if cfg.SpeedClampActive() {
		b.VHalf = ClampSpeed(b.VHalf, SpeedCeiling)
	}
	b.Pos = bounds.WrapPos(b.Pos)
}

// ClampSpeed rescales v so that |v| <= ceiling.
func ClampSpeed(v dynamo.Vec, ceiling float64) dynamo.Vec {
	s := dynamo.Len(v)
	if ceiling <= 0 || s <= ceiling {
		return v
	}
	return v.Scale(ceiling / s)
}

// ClampDt bounds a frame delta to [0, maxDt]. NaN and negative deltas
// become 0.
func ClampDt(dt, maxDt float64) float64 {
	if math.IsNaN(dt) || dt < 0 {
		return 0
	}
	if maxDt > 0 && dt > maxDt {
		return maxDt
	}
	return dt
}
