package config

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/san-kum/orbitlab/internal/dynamo"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
	if cfg.SofteningEps <= 0 {
		t.Error("softening should be positive")
	}
	if cfg.MaxStars != DefaultMaxStars {
		t.Errorf("expected max stars %d, got %d", DefaultMaxStars, cfg.MaxStars)
	}
	if !cfg.Wraps() {
		t.Error("default boundary should wrap")
	}
	if math.Abs(cfg.FlickWindow()-0.07) > 1e-12 {
		t.Errorf("expected flick window 0.07s, got %f", cfg.FlickWindow())
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*ConfigSet)
	}{
		{"zero softening", func(c *ConfigSet) { c.SofteningEps = 0 }},
		{"negative softening", func(c *ConfigSet) { c.SofteningEps = -1 }},
		{"negative G", func(c *ConfigSet) { c.GravityConstant = -1 }},
		{"negative damping", func(c *ConfigSet) { c.VelocityDamping = -0.1 }},
		{"max below min mass", func(c *ConfigSet) { c.MinMass, c.MaxMass = 5, 2 }},
		{"zero min mass", func(c *ConfigSet) { c.MinMass = 0 }},
		{"guidance above one", func(c *ConfigSet) { c.AngularGuidanceStrength = 1.5 }},
		{"negative exponent", func(c *ConfigSet) { c.RadiusPower = -0.5 }},
		{"unknown boundary", func(c *ConfigSet) { c.Boundary = "bounce" }},
		{"unknown mode", func(c *ConfigSet) { c.Mode = "chaos" }},
		{"NaN force cap", func(c *ConfigSet) { c.MaxForceMagnitude = math.NaN() }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !errors.Is(err, dynamo.ErrParameterBounds) {
				t.Errorf("expected ErrParameterBounds, got %v", err)
			}
			if nerr := cfg.Normalize().Validate(); nerr != nil {
				t.Errorf("normalized config still invalid: %v", nerr)
			}
		})
	}
}

func TestNormalize_KeepsValidValues(t *testing.T) {
	cfg := DefaultConfig()
	cfg.GravityConstant = 1234
	cfg.VelocityDamping = 0.01
	cfg.Boundary = BoundaryNone

	if got := cfg.Normalize(); got != cfg {
		t.Errorf("Normalize changed a valid config: %+v", got)
	}
}

func TestNormalize_SwapsMassBounds(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MinMass, cfg.MaxMass = 8, 2

	got := cfg.Normalize()
	if got.MinMass != 2 || got.MaxMass != 8 {
		t.Errorf("expected [2, 8], got [%f, %f]", got.MinMass, got.MaxMass)
	}
}

func TestModeSwitches(t *testing.T) {
	cfg := DefaultConfig()
	cfg.VelocityDamping = 0.01

	if !cfg.DampingActive() || !cfg.SpeedClampActive() || !cfg.MergingActive() {
		t.Error("nbody mode should enable damping, clamp and merging")
	}

	cfg.Mode = ModeOrbitPlayground
	if cfg.DampingActive() || cfg.SpeedClampActive() || cfg.MergingActive() {
		t.Error("orbit playground should disable damping, clamp and merging")
	}
}

func TestParse_OverlaysDefaults(t *testing.T) {
	cfg, err := Parse([]byte("gravity_constant: 800\nboundary: none\n"))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if cfg.GravityConstant != 800 {
		t.Errorf("expected G 800, got %f", cfg.GravityConstant)
	}
	if cfg.Boundary != BoundaryNone {
		t.Errorf("expected boundary none, got %s", cfg.Boundary)
	}
	if cfg.FlickS0 != DefaultFlickS0 {
		t.Errorf("unset key should keep default, got %f", cfg.FlickS0)
	}
}

func TestParse_RejectsInvalid(t *testing.T) {
	if _, err := Parse([]byte("softening_eps: 0\n")); !errors.Is(err, dynamo.ErrParameterBounds) {
		t.Errorf("expected ErrParameterBounds, got %v", err)
	}
	if _, err := Parse([]byte("gravity_constant: [1, 2]\n")); err == nil {
		t.Error("expected decode error")
	}
}

func TestSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	cfg := DefaultConfig()
	cfg.MaxStars = 12
	cfg.Mode = ModeOrbitPlayground

	if err := Save(path, cfg); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if loaded != cfg {
		t.Errorf("loaded config differs:\n got %+v\nwant %+v", loaded, cfg)
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); !os.IsNotExist(err) {
		t.Errorf("expected not-exist error, got %v", err)
	}
}
