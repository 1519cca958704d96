// Package physics provides the gravitational force field and the
// conserved-quantity diagnostics of the star simulation.
//
//   - [Accelerations]: softened, optionally clamped pairwise gravity
//   - [Energy], [Momentum], [AngularMomentum]: diagnostics over a body set
//   - [CircularSpeed], [EscapeSpeed]: orbital speeds used by launch assist
//
// The force evaluation is O(n²). The simulation targets tens to low hundreds
// of bodies, where the direct sum is both fastest and exact.
//
// # Energy Conservation
//
// With zero damping and no merges, [Energy] drifts only by the integrator's
// bounded error:
//
//	e0 := physics.Energy(bodies, cfg)
//	// ... ticks ...
//	drift := math.Abs(physics.Energy(bodies, cfg)-e0) / math.Abs(e0)
package physics
