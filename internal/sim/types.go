package sim

import "github.com/san-kum/orbitlab/internal/dynamo"

// Preview is the star an in-progress gesture would create if released now.
type Preview struct {
	Pos    dynamo.Vec
	Mass   float64
	Radius float64
	Hold   float64
}

// Ripple is a decorative ring emitted where a star was created.
type Ripple struct {
	Pos       dynamo.Vec
	Born      float64
	Duration  float64
	MaxRadius float64
}

// Progress returns how far through its life the ripple is, in [0, 1].
func (r Ripple) Progress(now float64) float64 {
	if r.Duration <= 0 {
		return 1
	}
	p := (now - r.Born) / r.Duration
	if p < 0 {
		return 0
	}
	if p > 1 {
		return 1
	}
	return p
}

// Radius returns the current ring radius.
func (r Ripple) Radius(now float64) float64 {
	return r.MaxRadius * r.Progress(now)
}

// DebugStats are the launch diagnostics of the current or last gesture.
type DebugStats struct {
	HoldDragSpeed     float64
	ReleaseFlickSpeed float64
	CompressedSpeed   float64
	FinalLaunchSpeed  float64
	EstimatedVCirc    float64
	EstimatedVEsc     float64
}

// Stats summarizes the body set for front-ends and run records.
type Stats struct {
	Tick            int        `json:"tick"`
	Time            float64    `json:"time"`
	Bodies          int        `json:"bodies"`
	TotalMass       float64    `json:"total_mass"`
	Kinetic         float64    `json:"kinetic"`
	Potential       float64    `json:"potential"`
	Energy          float64    `json:"energy"`
	Momentum        dynamo.Vec `json:"momentum"`
	AngularMomentum float64    `json:"angular_momentum"`
}

// Universe is a starting body set laid out on a Width x Height canvas.
// Positions are rescaled to the simulation bounds on load.
type Universe struct {
	Width  float64    `yaml:"width" json:"width"`
	Height float64    `yaml:"height" json:"height"`
	Stars  []StarSeed `yaml:"stars" json:"stars"`
}

// StarSeed is one star of a Universe. Velocity is optional.
type StarSeed struct {
	X    float64 `yaml:"x" json:"x"`
	Y    float64 `yaml:"y" json:"y"`
	Mass float64 `yaml:"mass" json:"mass"`
	VX   float64 `yaml:"vx,omitempty" json:"vx,omitempty"`
	VY   float64 `yaml:"vy,omitempty" json:"vy,omitempty"`
}
