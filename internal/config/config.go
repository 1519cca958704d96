package config

import (
	"fmt"
	"math"
	"os"

	"github.com/san-kum/orbitlab/internal/dynamo"
	"gopkg.in/yaml.v3"
)

const (
	DefaultGravityConstant   = 5000.0
	DefaultSofteningEps      = 3.0
	DefaultMaxForceMagnitude = 1000.0
	DefaultMinMass           = 1.0
	DefaultMaxMass           = 10.0
	DefaultHoldToMaxSeconds  = 1.5
	DefaultRadiusPower       = 0.5
	DefaultRadiusScale       = 1.2
	DefaultFlickWindowMs     = 70.0
	DefaultFlickS0           = 400.0
	DefaultFlickVmax         = 1600.0
	DefaultMaxStars          = 60
	DefaultMaxDt             = 0.1
)

// BoundaryMode selects what happens at the edges of the domain.
type BoundaryMode string

const (
	BoundaryWrap BoundaryMode = "wrap"
	BoundaryNone BoundaryMode = "none"
)

// Mode selects the physics rule set.
type Mode string

const (
	// ModeNBody: full rule set, damping, speed clamp and merging as configured.
	ModeNBody Mode = "nbody"
	// ModeOrbitPlayground disables damping, the speed clamp and merging.
	ModeOrbitPlayground Mode = "orbit_playground"
)

// ConfigSet holds every tunable of the simulation. It is a plain value:
// callers build a new one and hand it over, nothing mutates it in place.
type ConfigSet struct {
	GravityConstant   float64 `yaml:"gravity_constant"`
	SofteningEps      float64 `yaml:"softening_eps"`
	MaxForceMagnitude float64 `yaml:"max_force_magnitude"`
	VelocityDamping   float64 `yaml:"velocity_damping"`

	MinMass          float64 `yaml:"min_mass"`
	MaxMass          float64 `yaml:"max_mass"`
	HoldToMaxSeconds float64 `yaml:"hold_to_max_seconds"`
	RadiusPower      float64 `yaml:"radius_power"`
	RadiusScale      float64 `yaml:"radius_scale"`

	FlickWindowMs        float64 `yaml:"flick_window_ms"`
	FlickS0              float64 `yaml:"flick_s0"`
	FlickVmax            float64 `yaml:"flick_vmax"`
	LaunchStrength       float64 `yaml:"launch_strength"`
	MassResistanceFactor float64 `yaml:"mass_resistance_factor"`

	AngularGuidanceStrength   float64 `yaml:"angular_guidance_strength"`
	RadialClampFactor         float64 `yaml:"radial_clamp_factor"`
	OrbitalCenterSearchRadius float64 `yaml:"orbital_center_search_radius"`

	MaxStars      int          `yaml:"max_stars"`
	EnableMerging bool         `yaml:"enable_merging"`
	Boundary      BoundaryMode `yaml:"boundary"`
	Mode          Mode         `yaml:"mode"`
	MaxDt         float64      `yaml:"max_dt"`

	TrailLength   int     `yaml:"trail_length"`
	TrailFadeTime float64 `yaml:"trail_fade_time"`
	TrailMinSpeed float64 `yaml:"trail_min_speed"`

	RippleDuration  float64 `yaml:"ripple_duration"`
	RippleMaxRadius float64 `yaml:"ripple_max_radius"`
}

func DefaultConfig() ConfigSet {
	return ConfigSet{
		GravityConstant:   DefaultGravityConstant,
		SofteningEps:      DefaultSofteningEps,
		MaxForceMagnitude: DefaultMaxForceMagnitude,
		VelocityDamping:   0,

		MinMass:          DefaultMinMass,
		MaxMass:          DefaultMaxMass,
		HoldToMaxSeconds: DefaultHoldToMaxSeconds,
		RadiusPower:      DefaultRadiusPower,
		RadiusScale:      DefaultRadiusScale,

		FlickWindowMs:        DefaultFlickWindowMs,
		FlickS0:              DefaultFlickS0,
		FlickVmax:            DefaultFlickVmax,
		LaunchStrength:       1.0,
		MassResistanceFactor: 0.3,

		AngularGuidanceStrength:   0.6,
		RadialClampFactor:         0.5,
		OrbitalCenterSearchRadius: 300,

		MaxStars:      DefaultMaxStars,
		EnableMerging: true,
		Boundary:      BoundaryWrap,
		Mode:          ModeNBody,
		MaxDt:         DefaultMaxDt,

		TrailLength:   15,
		TrailFadeTime: 0.5,
		TrailMinSpeed: 10,

		RippleDuration:  0.3,
		RippleMaxRadius: 50,
	}
}

// FlickWindow returns the flick window in seconds.
func (c ConfigSet) FlickWindow() float64 { return c.FlickWindowMs / 1000 }

// Wraps reports whether the boundary wraps around.
func (c ConfigSet) Wraps() bool { return c.Boundary == BoundaryWrap }

// Playground reports whether the orbit playground rule set is active.
func (c ConfigSet) Playground() bool { return c.Mode == ModeOrbitPlayground }

// DampingActive reports whether velocity damping applies this tick.
func (c ConfigSet) DampingActive() bool { return c.VelocityDamping > 0 && !c.Playground() }

// SpeedClampActive reports whether the safety speed ceiling applies.
func (c ConfigSet) SpeedClampActive() bool { return !c.Playground() }

// MergingActive reports whether collisions merge bodies.
func (c ConfigSet) MergingActive() bool { return c.EnableMerging && !c.Playground() }

// Validate returns the first violated bound, wrapped in dynamo.ErrParameterBounds.
func (c ConfigSet) Validate() error {
	checks := []struct {
		ok   bool
		name string
		val  float64
	}{
		{finite(c.GravityConstant) && c.GravityConstant >= 0, "gravity_constant", c.GravityConstant},
		{finite(c.SofteningEps) && c.SofteningEps > 0, "softening_eps", c.SofteningEps},
		{finite(c.MaxForceMagnitude) && c.MaxForceMagnitude >= 0, "max_force_magnitude", c.MaxForceMagnitude},
		{c.VelocityDamping >= 0 && c.VelocityDamping < 1, "velocity_damping", c.VelocityDamping},
		{finite(c.MinMass) && c.MinMass > 0, "min_mass", c.MinMass},
		{finite(c.MaxMass) && c.MaxMass >= c.MinMass, "max_mass", c.MaxMass},
		{c.HoldToMaxSeconds >= 0, "hold_to_max_seconds", c.HoldToMaxSeconds},
		{c.RadiusPower >= 0, "radius_power", c.RadiusPower},
		{c.RadiusScale >= 0, "radius_scale", c.RadiusScale},
		{c.FlickWindowMs >= 0, "flick_window_ms", c.FlickWindowMs},
		{c.FlickS0 > 0, "flick_s0", c.FlickS0},
		{c.FlickVmax >= 0, "flick_vmax", c.FlickVmax},
		{c.LaunchStrength >= 0, "launch_strength", c.LaunchStrength},
		{c.MassResistanceFactor >= 0 && c.MassResistanceFactor <= 1, "mass_resistance_factor", c.MassResistanceFactor},
		{c.AngularGuidanceStrength >= 0 && c.AngularGuidanceStrength <= 1, "angular_guidance_strength", c.AngularGuidanceStrength},
		{c.RadialClampFactor >= 0 && c.RadialClampFactor <= 1, "radial_clamp_factor", c.RadialClampFactor},
		{c.OrbitalCenterSearchRadius >= 0, "orbital_center_search_radius", c.OrbitalCenterSearchRadius},
		{c.MaxStars >= 0, "max_stars", float64(c.MaxStars)},
		{c.MaxDt > 0, "max_dt", c.MaxDt},
		{c.TrailLength >= 0, "trail_length", float64(c.TrailLength)},
		{c.TrailFadeTime >= 0, "trail_fade_time", c.TrailFadeTime},
		{c.RippleDuration >= 0, "ripple_duration", c.RippleDuration},
	}
	for _, chk := range checks {
		if !chk.ok {
			return fmt.Errorf("%w: %s = %g", dynamo.ErrParameterBounds, chk.name, chk.val)
		}
	}
	switch c.Boundary {
	case BoundaryWrap, BoundaryNone:
	default:
		return fmt.Errorf("%w: boundary %q", dynamo.ErrParameterBounds, c.Boundary)
	}
	switch c.Mode {
	case ModeNBody, ModeOrbitPlayground:
	default:
		return fmt.Errorf("%w: mode %q", dynamo.ErrParameterBounds, c.Mode)
	}
	return nil
}

// Normalize returns a copy that satisfies Validate. Out-of-range values are
// clamped or replaced by defaults; valid values pass through untouched.
func (c ConfigSet) Normalize() ConfigSet {
	d := DefaultConfig()

	c.GravityConstant = nonNeg(c.GravityConstant, d.GravityConstant)
	if !finite(c.SofteningEps) || c.SofteningEps <= 0 {
		c.SofteningEps = d.SofteningEps
	}
	c.MaxForceMagnitude = nonNeg(c.MaxForceMagnitude, 0)
	c.VelocityDamping = clamp(c.VelocityDamping, 0, 0.999)

	if !finite(c.MinMass) || c.MinMass <= 0 {
		c.MinMass = d.MinMass
	}
	if !finite(c.MaxMass) || c.MaxMass <= 0 {
		c.MaxMass = d.MaxMass
	}
	if c.MaxMass < c.MinMass {
		c.MinMass, c.MaxMass = c.MaxMass, c.MinMass
	}
	c.HoldToMaxSeconds = nonNeg(c.HoldToMaxSeconds, 0)
	c.RadiusPower = nonNeg(c.RadiusPower, d.RadiusPower)
	c.RadiusScale = nonNeg(c.RadiusScale, d.RadiusScale)

	c.FlickWindowMs = nonNeg(c.FlickWindowMs, 0)
	if !finite(c.FlickS0) || c.FlickS0 <= 0 {
		c.FlickS0 = d.FlickS0
	}
	c.FlickVmax = nonNeg(c.FlickVmax, 0)
	c.LaunchStrength = nonNeg(c.LaunchStrength, 0)
	c.MassResistanceFactor = clamp(c.MassResistanceFactor, 0, 1)

	c.AngularGuidanceStrength = clamp(c.AngularGuidanceStrength, 0, 1)
	c.RadialClampFactor = clamp(c.RadialClampFactor, 0, 1)
	c.OrbitalCenterSearchRadius = nonNeg(c.OrbitalCenterSearchRadius, 0)

	if c.MaxStars < 0 {
		c.MaxStars = 0
	}
	if c.Boundary != BoundaryWrap && c.Boundary != BoundaryNone {
		c.Boundary = d.Boundary
	}
	if c.Mode != ModeNBody && c.Mode != ModeOrbitPlayground {
		c.Mode = d.Mode
	}
	if !finite(c.MaxDt) || c.MaxDt <= 0 {
		c.MaxDt = d.MaxDt
	}

	if c.TrailLength < 0 {
		c.TrailLength = 0
	}
	c.TrailFadeTime = nonNeg(c.TrailFadeTime, 0)
	c.TrailMinSpeed = nonNeg(c.TrailMinSpeed, 0)
	c.RippleDuration = nonNeg(c.RippleDuration, 0)
	c.RippleMaxRadius = nonNeg(c.RippleMaxRadius, 0)
	return c
}

// Load reads a YAML file over DefaultConfig, so a file only needs the keys
// it changes.
func Load(path string) (ConfigSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return ConfigSet{}, err
	}
	return Parse(data)
}

// Parse decodes YAML over DefaultConfig and validates the result.
func Parse(data []byte) (ConfigSet, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return ConfigSet{}, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return ConfigSet{}, err
	}
	return cfg, nil
}

func Save(path string, cfg ConfigSet) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func finite(x float64) bool { return !math.IsNaN(x) && !math.IsInf(x, 0) }

func nonNeg(x, fallback float64) float64 {
	if !finite(x) {
		return fallback
	}
	if x < 0 {
		return 0
	}
	return x
}

func clamp(x, lo, hi float64) float64 {
	if math.IsNaN(x) {
		return lo
	}
	return math.Max(lo, math.Min(hi, x))
}
