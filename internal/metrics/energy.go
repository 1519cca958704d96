package metrics

import (
	"math"

	"github.com/san-kum/orbitlab/internal/sim"
)

// Metric accumulates a scalar over the per-tick stats of a run.
type Metric interface {
	Name() string
	Observe(s sim.Stats)
	Value() float64
	Reset()
}

type Energy struct {
	name        string
	samples     int
	totalEnergy float64
}

func NewEnergy() *Energy {
	return &Energy{name: "energy"}
}

func (e *Energy) Name() string { return e.name }

func (e *Energy) Observe(s sim.Stats) {
	e.totalEnergy += s.Energy
	e.samples++
}

func (e *Energy) Value() float64 {
	if e.samples == 0 {
		return 0
	}
	return e.totalEnergy / float64(e.samples)
}

func (e *Energy) Reset() {
	e.totalEnergy = 0
	e.samples = 0
}

// EnergyDrift tracks the largest relative departure from the energy at the
// first sample. Samples where the body count changed since the previous
// one restart the baseline, since creation and merging change the energy
// by design.
type EnergyDrift struct {
	name          string
	initialEnergy float64
	currentEnergy float64
	maxDrift      float64
	bodies        int
	samples       int
}

func NewEnergyDrift() *EnergyDrift {
	return &EnergyDrift{name: "energy_drift"}
}

func (e *EnergyDrift) Name() string { return e.name }

func (e *EnergyDrift) Observe(s sim.Stats) {
	if e.samples == 0 || s.Bodies != e.bodies {
		e.initialEnergy = s.Energy
		e.bodies = s.Bodies
	}

	e.currentEnergy = s.Energy
	e.samples++

	if e.initialEnergy != 0 {
		drift := math.Abs(s.Energy-e.initialEnergy) / math.Abs(e.initialEnergy)
		e.maxDrift = math.Max(e.maxDrift, drift)
	}
}

func (e *EnergyDrift) Value() float64 {
	return e.maxDrift
}

func (e *EnergyDrift) Reset() {
	e.initialEnergy = 0
	e.currentEnergy = 0
	e.maxDrift = 0
	e.bodies = 0
	e.samples = 0
}
