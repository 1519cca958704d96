package export

import (
	"fmt"
	"math"
	"strings"

	"github.com/san-kum/orbitlab/internal/dynamo"
)

// BodiesToSVG draws the body set on a bounds-sized canvas, scaled by scale.
// Trails are drawn as polylines that break where the body wrapped across
// an edge.
func BodiesToSVG(bodies []dynamo.Body, bounds dynamo.Bounds, scale float64) string {
	if scale <= 0 {
		scale = 1
	}
	width := bounds.Width * scale
	height := bounds.Height * scale

	var sb strings.Builder

	sb.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%.0f" height="%.0f" viewBox="0 0 %.0f %.0f">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
<g fill="none" stroke="#3a6ea5" stroke-width="1">
`, width, height, width, height))

	for i := range bodies {
		for _, seg := range trailSegments(bodies[i].Trail, bounds) {
			if len(seg) < 2 {
				continue
			}
			sb.WriteString(`<path d="M`)
			for j, p := range seg {
				if j > 0 {
					sb.WriteString(" L")
				}
				sb.WriteString(fmt.Sprintf("%.1f,%.1f", p.X*scale, p.Y*scale))
			}
			sb.WriteString("\"/>\n")
		}
	}

	sb.WriteString("</g>\n<g fill=\"#f5e6a8\">\n")
	for i := range bodies {
		b := &bodies[i]
		if !b.IsValid() {
			continue
		}
		r := math.Max(b.Radius()*scale, 0.5)
		sb.WriteString(fmt.Sprintf(`<circle cx="%.1f" cy="%.1f" r="%.1f"/>
`, b.Pos.X*scale, b.Pos.Y*scale, r))
	}

	sb.WriteString("</g>\n</svg>")
	return sb.String()
}

// trailSegments splits a trail wherever consecutive points are more than
// half the domain apart, which only happens across a wrap.
func trailSegments(trail []dynamo.TrailPoint, bounds dynamo.Bounds) [][]dynamo.Vec {
	if len(trail) == 0 {
		return nil
	}
	var segs [][]dynamo.Vec
	cur := []dynamo.Vec{trail[0].Pos}
	for i := 1; i < len(trail); i++ {
		p, q := trail[i-1].Pos, trail[i].Pos
		jump := bounds.Wrap &&
			(math.Abs(q.X-p.X) > bounds.Width/2 || math.Abs(q.Y-p.Y) > bounds.Height/2)
		if jump {
			segs = append(segs, cur)
			cur = nil
		}
		cur = append(cur, q)
	}
	return append(segs, cur)
}

// SeriesToSVG plots ys against xs as a single line, padded by 10% on each
// axis. It returns "" for fewer than two points.
func SeriesToSVG(xs, ys []float64, width, height int, strokeColor string) string {
	n := len(xs)
	if len(ys) < n {
		n = len(ys)
	}
	if n < 2 {
		return ""
	}

	minX, maxX := xs[0], xs[0]
	minY, maxY := ys[0], ys[0]
	for i := 0; i < n; i++ {
		minX, maxX = math.Min(minX, xs[i]), math.Max(maxX, xs[i])
		minY, maxY = math.Min(minY, ys[i]), math.Max(maxY, ys[i])
	}

	rangeX := maxX - minX
	rangeY := maxY - minY
	if rangeX == 0 {
		rangeX = 1
	}
	if rangeY == 0 {
		rangeY = 1
	}
	minX -= rangeX * 0.1
	maxX += rangeX * 0.1
	minY -= rangeY * 0.1
	maxY += rangeY * 0.1
	rangeX = maxX - minX
	rangeY = maxY - minY

	var sb strings.Builder

	sb.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
<path fill="none" stroke="%s" stroke-width="1.5" d="M`,
		width, height, width, height, strokeColor))

	for i := 0; i < n; i++ {
		x := (xs[i] - minX) / rangeX * float64(width)
		y := float64(height) - (ys[i]-minY)/rangeY*float64(height)

		if i == 0 {
			sb.WriteString(fmt.Sprintf("%.1f,%.1f", x, y))
		} else {
			sb.WriteString(fmt.Sprintf(" L%.1f,%.1f", x, y))
		}
	}

	sb.WriteString(`"/>
</svg>`)
	return sb.String()
}
