// Package collision merges overlapping stars inelastically.
package collision

import (
	"github.com/san-kum/orbitlab/internal/config"
	"github.com/san-kum/orbitlab/internal/dynamo"
)

// Merge records one inelastic merge.
type Merge struct {
	Parents [2]uint64
	Child   dynamo.Body
}

// Overlaps reports whether the smaller body lies entirely inside the larger:
// dist < r_max − r_min.
func Overlaps(a, b *dynamo.Body, bounds dynamo.Bounds) bool {
	ra, rb := a.Radius(), b.Radius()
	rMax, rMin := ra, rb
	if rb > ra {
		rMax, rMin = rb, ra
	}
	return dynamo.Len(bounds.Delta(a.Pos, b.Pos)) < rMax-rMin
}

// Resolve merges overlapping pairs. Pairs are scanned i ascending, j from
// i+1; each body takes part in at most one merge per call and the first
// match for i wins. The result holds the untouched bodies in their original
// order followed by the merged bodies in scan order. Merged bodies carry a
// zero ID and an empty trail.
//
// bodies is not modified. When nothing merges the input slice is returned.
func Resolve(bodies []dynamo.Body, cfg config.ConfigSet, bounds dynamo.Bounds) ([]dynamo.Body, []Merge) {
	if !cfg.MergingActive() || len(bodies) < 2 {
		return bodies, nil
	}

	var merged []bool
	var merges []Merge

	for i := 0; i < len(bodies); i++ {
		if merged != nil && merged[i] {
			continue
		}
		for j := i + 1; j < len(bodies); j++ {
			if merged != nil && merged[j] {
				continue
			}
			if !Overlaps(&bodies[i], &bodies[j], bounds) {
				continue
			}
			if merged == nil {
				merged = make([]bool, len(bodies))
			}
			merged[i], merged[j] = true, true
			merges = append(merges, Merge{
				Parents: [2]uint64{bodies[i].ID, bodies[j].ID},
				Child:   Combine(&bodies[i], &bodies[j], bounds),
			})
			break
		}
	}

	if len(merges) == 0 {
		return bodies, nil
	}

	out := make([]dynamo.Body, 0, len(bodies)-len(merges))
	for i := range bodies {
		if !merged[i] {
			out = append(out, bodies[i])
		}
	}
	for _, m := range merges {
		out = append(out, m.Child)
	}
	return out, merges
}

// Combine returns the inelastic merge of a and b. a is taken to be the
// earlier of the two, so it supplies the shape parameters on equal mass.
func Combine(a, b *dynamo.Body, bounds dynamo.Bounds) dynamo.Body {
	heavy, light := a, b
	if b.Mass > a.Mass {
		heavy, light = b, a
	}

	total := heavy.Mass + light.Mass
	child := dynamo.Body{
		Mass:        total,
		RadiusPower: heavy.RadiusPower,
		RadiusScale: heavy.RadiusScale,
		Phase:       dynamo.PhaseSettled,
	}

	if total > 0 {
		offset := bounds.Delta(heavy.Pos, light.Pos).Scale(light.Mass / total)
		child.Pos = bounds.WrapPos(heavy.Pos.Add(offset))
		child.V = heavy.V.Scale(heavy.Mass).Add(light.V.Scale(light.Mass)).Scale(1 / total)
		child.VHalf = heavy.VHalf.Scale(heavy.Mass).Add(light.VHalf.Scale(light.Mass)).Scale(1 / total)
	} else {
		child.Pos = heavy.Pos
	}
	return child
}
