package metrics

import (
	"github.com/san-kum/orbitlab/internal/sim"
)

// Bound is the fraction of samples in which the system was gravitationally
// bound (total energy below zero). Empty samples count as unbound.
type Bound struct {
	name    string
	bound   int
	samples int
}

func NewBound() *Bound {
	return &Bound{name: "bound_fraction"}
}

func (b *Bound) Name() string {
	return b.name
}

func (b *Bound) Observe(s sim.Stats) {
	b.samples++
	if s.Bodies > 1 && s.Energy < 0 {
		b.bound++
	}
}

func (b *Bound) Value() float64 {
	if b.samples == 0 {
		return 0
	}
	return float64(b.bound) / float64(b.samples)
}

func (b *Bound) Reset() {
	b.bound = 0
	b.samples = 0
}

// Standard returns the metrics recorded for every scripted run.
func Standard() []Metric {
	return []Metric{NewEnergy(), NewEnergyDrift(), NewMomentumDrift(), NewBound()}
}
