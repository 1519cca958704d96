package sim_test

import (
	"math"

	"github.com/google/go-cmp/cmp"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/orbitlab/internal/config"
	"github.com/san-kum/orbitlab/internal/dynamo"
	"github.com/san-kum/orbitlab/internal/sim"
)

const frame = 1.0 / 60

var _ = Describe("Simulation", func() {
	var (
		clock *fakeClock
		cfg   config.ConfigSet
		s     *sim.Simulation
	)

	BeforeEach(func() {
		clock = newFakeClock()
		cfg = config.DefaultConfig()
		s = sim.New(800, 600, cfg, sim.WithClock(clock.Now))
	})

	Describe("creating stars", func() {
		It("grows mass with hold time up to the maximum", func() {
			s.BeginCreation(100, 100)
			clock.Advance(cfg.HoldToMaxSeconds * 2)

			b, ok := s.FinishCreation()
			Expect(ok).To(BeTrue())
			Expect(b.Mass).To(Equal(cfg.MaxMass))
			Expect(b.ID).NotTo(BeZero())
			Expect(s.Len()).To(Equal(1))
		})

		It("gives a zero-duration tap the minimum mass and no velocity", func() {
			s.BeginCreation(100, 100)

			b, ok := s.FinishCreation()
			Expect(ok).To(BeTrue())
			Expect(b.Mass).To(Equal(cfg.MinMass))
			Expect(b.V).To(Equal(dynamo.Vec{}))
			Expect(b.Radius()).To(BeNumerically("~", cfg.RadiusScale, 1e-12))
		})

		It("launches in the direction of the flick", func() {
			s.BeginCreation(100, 100)
			for i := 1; i <= 5; i++ {
				clock.Advance(0.01)
				s.UpdateCreation(100+float64(i)*10, 100)
			}

			stats, ok := s.DebugStats()
			Expect(ok).To(BeTrue())
			Expect(stats.HoldDragSpeed).To(BeNumerically("~", 1000, 1e-6))

			b, ok := s.FinishCreation()
			Expect(ok).To(BeTrue())
			Expect(b.V.X).To(BeNumerically(">", 0))
			Expect(b.V.Y).To(BeNumerically("~", 0, 1e-9))

			stats, ok = s.DebugStats()
			Expect(ok).To(BeTrue())
			Expect(stats.ReleaseFlickSpeed).To(BeNumerically("~", 1000, 1e-6))
			Expect(stats.CompressedSpeed).To(BeNumerically("<", cfg.FlickVmax))
			Expect(stats.FinalLaunchSpeed).To(BeNumerically("~", b.Speed(), 1e-9))
		})

		It("ignores motion older than the flick window", func() {
			s.BeginCreation(100, 100)
			for i := 1; i <= 5; i++ {
				clock.Advance(0.01)
				s.UpdateCreation(100+float64(i)*10, 100)
			}
			clock.Advance(0.5)

			b, ok := s.FinishCreation()
			Expect(ok).To(BeTrue())
			Expect(b.Speed()).To(BeZero())
		})

		It("emits a ripple that expires after its duration", func() {
			s.BeginCreation(50, 60)
			s.FinishCreation()

			ripples, _ := s.Ripples()
			Expect(ripples).To(HaveLen(1))
			Expect(ripples[0].Pos).To(Equal(dynamo.Vec{X: 50, Y: 60}))

			clock.Advance(cfg.RippleDuration / 2)
			Expect(s.Tick(frame)).To(Succeed())
			ripples, now := s.Ripples()
			Expect(ripples).To(HaveLen(1))
			Expect(ripples[0].Radius(now)).To(BeNumerically("~", cfg.RippleMaxRadius/2, 1e-6))

			clock.Advance(cfg.RippleDuration)
			Expect(s.Tick(frame)).To(Succeed())
			ripples, _ = s.Ripples()
			Expect(ripples).To(BeEmpty())
		})

		It("reports false when no gesture is active", func() {
			_, ok := s.FinishCreation()
			Expect(ok).To(BeFalse())

			s.UpdateCreation(10, 10)
			Expect(s.Creating()).To(BeFalse())
			_, ok = s.DebugStats()
			Expect(ok).To(BeFalse())
		})

		It("drops the gesture on cancel", func() {
			s.BeginCreation(100, 100)
			s.UpdateCreation(110, 100)
			s.CancelCreation()

			_, ok := s.FinishCreation()
			Expect(ok).To(BeFalse())
			Expect(s.Len()).To(BeZero())
			_, ok = s.DebugStats()
			Expect(ok).To(BeFalse())
		})

		It("previews the star while the gesture is held", func() {
			_, ok := s.CreationPreview()
			Expect(ok).To(BeFalse())

			s.BeginCreation(100, 100)
			p0, ok := s.CreationPreview()
			Expect(ok).To(BeTrue())
			Expect(p0.Mass).To(Equal(cfg.MinMass))

			clock.Advance(0.5)
			s.UpdateCreation(120, 90)
			p1, _ := s.CreationPreview()
			Expect(p1.Mass).To(BeNumerically(">", p0.Mass))
			Expect(p1.Radius).To(BeNumerically(">", p0.Radius))
			Expect(p1.Pos).To(Equal(dynamo.Vec{X: 120, Y: 90}))
		})

		It("ignores non-finite pointer moves", func() {
			for _, x := range []float64{100, 500} {
				s.BeginCreation(x, 100)
				_, ok := s.FinishCreation()
				Expect(ok).To(BeTrue())
			}

			s.BeginCreation(300, 300)
			s.UpdateCreation(math.Inf(1), 300)
			s.UpdateCreation(300, math.NaN())
			b, ok := s.FinishCreation()
			Expect(ok).To(BeTrue())
			Expect(b.Pos).To(Equal(dynamo.Vec{X: 300, Y: 300}))

			Expect(s.Tick(frame)).To(Succeed())
			Expect(s.Len()).To(Equal(3))
			for _, b := range s.Bodies() {
				Expect(b.IsValid()).To(BeTrue())
			}
		})

		It("guides a still release next to a star onto a near-circular orbit", func() {
			s.LoadUniverse(sim.Universe{Stars: []sim.StarSeed{{X: 400, Y: 300, Mass: 10}}})

			s.BeginCreation(400, 200)
			b, ok := s.FinishCreation()
			Expect(ok).To(BeTrue())

			stats, _ := s.DebugStats()
			vCirc := math.Sqrt(cfg.GravityConstant * 10 / 100)
			Expect(stats.EstimatedVCirc).To(BeNumerically("~", vCirc, 1e-9))
			Expect(stats.EstimatedVEsc).To(BeNumerically("~", math.Sqrt2*vCirc, 1e-9))
			Expect(b.Speed()).To(BeNumerically("~", cfg.AngularGuidanceStrength*vCirc, 1e-9))
		})
	})

	Describe("the max-star ceiling", func() {
		BeforeEach(func() {
			cfg.MaxStars = 2
			s.UpdateConfig(cfg)
			for i := 0; i < 2; i++ {
				s.BeginCreation(float64(100+200*i), 100)
				_, ok := s.FinishCreation()
				Expect(ok).To(BeTrue())
			}
		})

		It("makes creation a no-op", func() {
			s.BeginCreation(300, 300)
			Expect(s.Creating()).To(BeFalse())

			_, ok := s.FinishCreation()
			Expect(ok).To(BeFalse())
			Expect(s.Len()).To(Equal(2))
		})

		It("refuses a release once a universe filled the ceiling mid-gesture", func() {
			s.ClearAllBodies()
			s.BeginCreation(300, 300)
			Expect(s.Creating()).To(BeTrue())

			n := s.LoadUniverse(sim.Universe{Stars: []sim.StarSeed{
				{X: 100, Y: 100, Mass: 1},
				{X: 500, Y: 100, Mass: 1},
			}})
			Expect(n).To(Equal(2))

			_, ok := s.FinishCreation()
			Expect(ok).To(BeFalse())
			Expect(s.Creating()).To(BeFalse())
			Expect(s.Len()).To(Equal(2))
		})

		It("allows creation again once bodies are cleared", func() {
			s.ClearAllBodies()
			Expect(s.Len()).To(BeZero())

			s.BeginCreation(300, 300)
			_, ok := s.FinishCreation()
			Expect(ok).To(BeTrue())
		})
	})

	Describe("ticking", func() {
		It("merges overlapping stars and conserves mass", func() {
			s.LoadUniverse(sim.Universe{Stars: []sim.StarSeed{
				{X: 100, Y: 100, Mass: 4},
				{X: 100.9, Y: 100, Mass: 1},
				{X: 500, Y: 400, Mass: 2},
			}})

			Expect(s.Tick(frame)).To(Succeed())

			bodies := s.Bodies()
			Expect(bodies).To(HaveLen(2))
			merged := bodies[1]
			Expect(merged.Mass).To(Equal(5.0))
			Expect(merged.Pos.X).To(BeNumerically("~", 100.18, 0.1))
			Expect(merged.ID).To(BeNumerically(">", 3))
			Expect(s.Stats().TotalMass).To(Equal(7.0))
		})

		It("does not merge in the orbit playground", func() {
			cfg.Mode = config.ModeOrbitPlayground
			s.UpdateConfig(cfg)
			s.LoadUniverse(sim.Universe{Stars: []sim.StarSeed{
				{X: 100, Y: 100, Mass: 4},
				{X: 100.9, Y: 100, Mass: 1},
			}})

			Expect(s.Tick(frame)).To(Succeed())
			Expect(s.Len()).To(Equal(2))
		})

		It("conserves momentum without wrapping", func() {
			cfg.Boundary = config.BoundaryNone
			cfg.Mode = config.ModeOrbitPlayground
			s.UpdateConfig(cfg)
			s.LoadUniverse(sim.Universe{Stars: []sim.StarSeed{
				{X: 300, Y: 300, Mass: 8, VX: 5},
				{X: 420, Y: 310, Mass: 2, VY: 60},
				{X: 250, Y: 200, Mass: 3, VX: -20, VY: 10},
			}})

			before := s.Stats()
			for i := 0; i < 600; i++ {
				Expect(s.Tick(frame)).To(Succeed())
			}
			after := s.Stats()

			Expect(after.Momentum.X).To(BeNumerically("~", before.Momentum.X, 1e-6))
			Expect(after.Momentum.Y).To(BeNumerically("~", before.Momentum.Y, 1e-6))
			Expect(after.TotalMass).To(Equal(before.TotalMass))
			Expect(after.Time).To(BeNumerically("~", 10, 1e-9))
			Expect(after.Tick).To(Equal(600))
		})

		It("clamps long frames to MaxDt", func() {
			cfg.GravityConstant = 0
			s.UpdateConfig(cfg)
			s.LoadUniverse(sim.Universe{Stars: []sim.StarSeed{{X: 100, Y: 100, Mass: 1, VX: 100}}})

			Expect(s.Tick(5)).To(Succeed())
			Expect(s.Bodies()[0].Pos.X).To(BeNumerically("~", 100+100*cfg.MaxDt, 1e-9))
			Expect(s.Time()).To(BeNumerically("~", cfg.MaxDt, 1e-12))
		})

		It("treats negative and NaN frames as empty", func() {
			s.LoadUniverse(sim.Universe{Stars: []sim.StarSeed{{X: 100, Y: 100, Mass: 1, VX: 100}}})

			Expect(s.Tick(-1)).To(Succeed())
			Expect(s.Tick(math.NaN())).To(Succeed())
			Expect(s.Bodies()[0].Pos.X).To(Equal(100.0))
		})

		It("wraps bodies around the edges", func() {
			cfg.GravityConstant = 0
			s.UpdateConfig(cfg)
			s.LoadUniverse(sim.Universe{Stars: []sim.StarSeed{{X: 799, Y: 100, Mass: 1, VX: 120}}})

			Expect(s.Tick(frame)).To(Succeed())
			Expect(s.Bodies()[0].Pos.X).To(BeNumerically("~", 1, 1e-9))
		})

		It("keeps trails only for fast bodies", func() {
			cfg.GravityConstant = 0
			s.UpdateConfig(cfg)
			s.LoadUniverse(sim.Universe{Stars: []sim.StarSeed{
				{X: 100, Y: 100, Mass: 1, VX: 200},
				{X: 300, Y: 300, Mass: 1, VX: 1},
			}})

			for i := 0; i < 30; i++ {
				Expect(s.Tick(frame)).To(Succeed())
			}
			bodies := s.Bodies()
			Expect(len(bodies[0].Trail)).To(BeNumerically(">", 0))
			Expect(len(bodies[0].Trail)).To(BeNumerically("<=", cfg.TrailLength))
			Expect(bodies[1].Trail).To(BeEmpty())
		})
	})

	Describe("configuration", func() {
		It("normalizes invalid values", func() {
			bad := cfg
			bad.SofteningEps = -1
			bad.MaxStars = -5
			s.UpdateConfig(bad)

			Expect(s.Config().SofteningEps).To(Equal(config.DefaultConfig().SofteningEps))
			Expect(s.Config().MaxStars).To(BeZero())
		})

		It("produces identical ticks after an idempotent config swap", func() {
			universe := sim.Universe{Width: 800, Height: 600, Stars: []sim.StarSeed{
				{X: 200, Y: 200, Mass: 9},
				{X: 260, Y: 210, Mass: 2, VY: 80},
				{X: 600, Y: 420, Mass: 5, VX: -30},
			}}
			other := sim.New(800, 600, cfg, sim.WithClock(clock.Now))

			s.LoadUniverse(universe)
			other.LoadUniverse(universe)
			other.UpdateConfig(cfg)
			other.UpdateConfig(cfg)

			for i := 0; i < 200; i++ {
				Expect(s.Tick(frame)).To(Succeed())
				Expect(other.Tick(frame)).To(Succeed())
			}
			Expect(cmp.Diff(s.Bodies(), other.Bodies())).To(BeEmpty())
		})

		It("does not alter existing bodies when swapped", func() {
			s.LoadUniverse(sim.Universe{Stars: []sim.StarSeed{{X: 10, Y: 10, Mass: 3, VX: 7}}})
			before := s.Bodies()

			cfg.RadiusScale = 5
			cfg.MaxMass = 50
			s.UpdateConfig(cfg)

			Expect(cmp.Diff(before, s.Bodies())).To(BeEmpty())
		})

		It("ignores invalid sizes", func() {
			s.Resize(0, 100)
			s.Resize(math.Inf(1), 100)
			Expect(s.Bounds().Width).To(Equal(800.0))

			s.Resize(1024, 768)
			Expect(s.Bounds().Width).To(Equal(1024.0))
			Expect(s.Bounds().Height).To(Equal(768.0))
		})
	})

	Describe("loading a universe", func() {
		It("rescales stars into the current bounds", func() {
			n := s.LoadUniverse(sim.Universe{Width: 200, Height: 100, Stars: []sim.StarSeed{
				{X: 100, Y: 50, Mass: 3},
				{X: 10, Y: 10, Mass: -1},
				{X: math.NaN(), Y: 10, Mass: 1},
			}})

			Expect(n).To(Equal(1))
			b := s.Bodies()[0]
			Expect(b.Pos).To(Equal(dynamo.Vec{X: 400, Y: 300}))
			Expect(b.Mass).To(Equal(3.0))
		})

		It("stops at the max-star ceiling", func() {
			cfg.MaxStars = 2
			s.UpdateConfig(cfg)
			n := s.LoadUniverse(sim.Universe{Stars: []sim.StarSeed{
				{X: 1, Y: 1, Mass: 1}, {X: 2, Y: 2, Mass: 1}, {X: 3, Y: 3, Mass: 1},
			}})
			Expect(n).To(Equal(2))
		})
	})

	It("returns snapshots that do not alias live state", func() {
		s.LoadUniverse(sim.Universe{Stars: []sim.StarSeed{{X: 10, Y: 10, Mass: 3}}})
		snap := s.Bodies()
		snap[0].Mass = 99
		Expect(s.Bodies()[0].Mass).To(Equal(3.0))
	})
})
