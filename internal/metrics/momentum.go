package metrics

import (
	"math"

	"github.com/san-kum/orbitlab/internal/dynamo"
	"github.com/san-kum/orbitlab/internal/sim"
)

// massTolerance is the relative change in total mass that counts as a new
// body set. Merges re-add masses in a different order and stay well inside it.
const massTolerance = 1e-9

// MomentumDrift is the largest |p − p0| seen. Merges conserve momentum, so
// only a change of the body set (creation, clear, load) restarts the baseline.
type MomentumDrift struct {
	name     string
	initial  dynamo.Vec
	mass     float64
	bodies   int
	maxDrift float64
	samples  int
}

func (m *MomentumDrift) newBodySet(s sim.Stats) bool {
	if m.samples == 0 || s.Bodies > m.bodies {
		return true
	}
	scale := math.Max(math.Abs(s.TotalMass), math.Abs(m.mass))
	return math.Abs(s.TotalMass-m.mass) > massTolerance*scale
}

func NewMomentumDrift() *MomentumDrift {
	return &MomentumDrift{name: "momentum_drift"}
}

func (m *MomentumDrift) Name() string {
	return m.name
}

func (m *MomentumDrift) Observe(s sim.Stats) {
	if m.newBodySet(s) {
		m.initial = s.Momentum
		m.mass = s.TotalMass
	}
	m.bodies = s.Bodies
	m.samples++
	m.maxDrift = math.Max(m.maxDrift, dynamo.Len(s.Momentum.Sub(m.initial)))
}

func (m *MomentumDrift) Value() float64 {
	return m.maxDrift
}

func (m *MomentumDrift) Reset() {
	m.initial = dynamo.Vec{}
	m.mass = 0
	m.bodies = 0
	m.maxDrift = 0
	m.samples = 0
}
