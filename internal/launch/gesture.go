package launch

import (
	"math"

	"github.com/san-kum/orbitlab/internal/dynamo"
)

// Sample is one timestamped pointer position. Time is in seconds.
type Sample struct {
	Pos  dynamo.Vec
	Time float64
}

// Gesture is the state of an in-progress star creation.
type Gesture struct {
	Start   float64
	Pos     dynamo.Vec
	Samples []Sample

	// HoldDragSpeed is the pointer speed over the flick window as of the
	// last sample.
	HoldDragSpeed float64
}

// Begin starts a gesture at (x, y) at time t.
func Begin(x, y, t float64) *Gesture {
	p := dynamo.Vec{X: x, Y: y}
	return &Gesture{
		Start:   t,
		Pos:     p,
		Samples: []Sample{{Pos: p, Time: t}},
	}
}

// Sample records a pointer move and drops samples older than window
// seconds before t. A nil gesture and non-finite input are ignored.
func (g *Gesture) Sample(x, y, t, window float64) {
	if g == nil || !dynamo.IsFinite(dynamo.Vec{X: x, Y: y}) || math.IsNaN(t) || math.IsInf(t, 0) {
		return
	}
	g.Pos = dynamo.Vec{X: x, Y: y}
	g.Samples = append(g.Samples, Sample{Pos: g.Pos, Time: t})
	g.Samples = Window(g.Samples, t, window)

	if v, ok := AverageVelocity(g.Samples); ok {
		g.HoldDragSpeed = dynamo.Len(v)
	}
}

// HoldDuration returns the time since the gesture began, never negative.
func (g *Gesture) HoldDuration(now float64) float64 {
	if g == nil {
		return 0
	}
	return math.Max(0, now-g.Start)
}

// Window keeps the samples with Time > now-window, in place.
func Window(samples []Sample, now, window float64) []Sample {
	cutoff := now - window
	keep := 0
	for _, s := range samples {
		if s.Time > cutoff {
			samples[keep] = s
			keep++
		}
	}
	return samples[:keep]
}

// AverageVelocity returns the mean of the per-segment velocities. Segments
// with no elapsed time add nothing but still count toward the mean. It
// reports false for fewer than two samples or no elapsed time at all.
func AverageVelocity(samples []Sample) (dynamo.Vec, bool) {
	if len(samples) < 2 {
		return dynamo.Vec{}, false
	}

	var sum dynamo.Vec
	total := 0.0
	for i := 1; i < len(samples); i++ {
		dt := samples[i].Time - samples[i-1].Time
		if dt <= 0 {
			continue
		}
		d := samples[i].Pos.Sub(samples[i-1].Pos)
		sum = sum.Add(d.Scale(1 / dt))
		total += dt
	}
	if total <= 0 {
		return dynamo.Vec{}, false
	}
	return sum.Scale(1 / float64(len(samples)-1)), true
}
