// Package export renders stored takeoffs for use outside the terminal.
package export

import (
	"fmt"
	"strings"

	"github.com/san-kum/takeoff/internal/phase"
	"github.com/san-kum/takeoff/internal/trajectory"
)

var phaseColors = map[phase.Kind]string{
	phase.GroundRoll: "#00ffff",
	phase.Rotation:   "#ffaa00",
	phase.Transition: "#00ff88",
}

type point struct{ X, Y float64 }

// ProfileSVG draws yVar against xVar with one path per phase. A phase that
// does not carry both variables is drawn with y = 0, so h over x shows the
// runway segment on the ground.
func ProfileSVG(sol *trajectory.Solution, xVar, yVar string, width, height int) (string, error) {
	paths := make(map[phase.Kind][]point, len(sol.Phases))
	var all []point
	for _, ps := range sol.Phases {
		xs := ps.Values[xVar]
		if xVar == "time" {
			xs = ps.Time
		}
		if len(xs) == 0 {
			return "", fmt.Errorf("%s does not record %s", ps.Kind, xVar)
		}
		ys := ps.Values[yVar]
		pts := make([]point, len(xs))
		for i, x := range xs {
			pts[i].X = x
			if ys != nil {
				pts[i].Y = ys[i]
			}
		}
		paths[ps.Kind] = pts
		all = append(all, pts...)
	}
	if len(all) < 2 {
		return "", fmt.Errorf("profile needs at least two nodes, got %d", len(all))
	}

	minX, maxX := all[0].X, all[0].X
	minY, maxY := all[0].Y, all[0].Y
	for _, p := range all {
		minX, maxX = min(minX, p.X), max(maxX, p.X)
		minY, maxY = min(minY, p.Y), max(maxY, p.Y)
	}

	// Add padding
	rangeX := maxX - minX
	rangeY := maxY - minY
	if rangeX == 0 {
		rangeX = 1
	}
	if rangeY == 0 {
		rangeY = 1
	}
	minX -= rangeX * 0.05
	maxX += rangeX * 0.05
	minY -= rangeY * 0.1
	maxY += rangeY * 0.1
	rangeX = maxX - minX
	rangeY = maxY - minY

	var sb strings.Builder
	fmt.Fprintf(&sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
<text x="8" y="16" fill="#666688" font-family="monospace" font-size="12">%s vs %s</text>
`, width, height, width, height, yVar, xVar)

	for _, k := range phase.Kinds() {
		pts := paths[k]
		if len(pts) == 0 {
			continue
		}
		fmt.Fprintf(&sb, `<path id="%s" fill="none" stroke="%s" stroke-width="1.5" d="M`, k, phaseColors[k])
		for i, p := range pts {
			x := (p.X - minX) / rangeX * float64(width)
			y := float64(height) - (p.Y-minY)/rangeY*float64(height)
			if i == 0 {
				fmt.Fprintf(&sb, "%.1f,%.1f", x, y)
			} else {
				fmt.Fprintf(&sb, " L%.1f,%.1f", x, y)
			}
		}
		sb.WriteString("\"/>\n")
	}

	sb.WriteString("</svg>\n")
	return sb.String(), nil
}
