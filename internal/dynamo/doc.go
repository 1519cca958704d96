// Package dynamo provides the core state primitives of the star simulation.
//
// The package defines the value types shared by every physics component:
//
//   - [Vec]: 2-D vector (gonum r2) used for positions, velocities and accelerations
//   - [Body]: one star, with its half-step velocity and phase marker
//   - [Bodies]: contiguous, insertion-ordered body store with stable IDs
//   - [Bounds]: the rectangular domain used by wrap-around boundaries
//
// # Integration Phases
//
// A body is advanced twice per tick by the kick-drift-kick integrator. The
// [Phase] field records which half of the step the body is in, so the second
// kick can never be applied before the first:
//
//	b.KickDrift(a, dt)   // PhaseSettled  -> PhaseHalfStep
//	b.Kick(aNew, dt)     // PhaseHalfStep -> PhaseSettled
//
// # Thread Safety
//
// Nothing in this package is safe for concurrent mutation. The simulation
// orchestrator owns the body store and serialises all access to it.
package dynamo
