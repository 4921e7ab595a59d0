// Copyright (C) 2022, VigilantDoomer
//
// This file is part of VigilantBSP program.
//
// VigilantBSP is free software: you can redistribute it
// and/or modify it under the terms of GNU General Public License
// as published by the Free Software Foundation, either version 2 of
// the License, or (at your option) any later version.
//
// VigilantBSP is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with VigilantBSP.  If not, see <https://www.gnu.org/licenses/>.

// geometry
package nodebuilder

import (
	"math"

	"github.com/vigilantdoomer/botmap/internal/fixed"
)

// Points closer than this to a partition line are on it, in map units
const DIST_EPSILON = 1.0 / 128.0

// Edge points that round to within this distance are the same vertex
const SNAP_EPSILON = 1.0 / 256.0

// Room left between the outermost vertices and the root cell's sides
const ROOT_MARGIN = 16.0

// Partition that leaves less than this area on either side is no good
const MIN_CELL_AREA = 1.0 / 64.0

type vec struct {
	x, y float64
}

func vecOf(x, y fixed.Fixed) vec {
	return vec{x: x.Float(), y: y.Float()}
}

func (a vec) sub(b vec) vec {
	return vec{a.x - b.x, a.y - b.y}
}

func cross(a, b vec) float64 {
	return a.x*b.y - a.y*b.x
}

func dot(a, b vec) float64 {
	return a.x*b.x + a.y*b.y
}

func lerp(a, b vec, t float64) vec {
	return vec{a.x + (b.x-a.x)*t, a.y + (b.y-a.y)*t}
}

// partLine is an oriented line through two vertices of the input. Node
// records are made from its fixed point form, all splitting uses the float
// one
type partLine struct {
	ox, oy fixed.Fixed
	dx, dy fixed.Fixed
	o, d   vec
	len    float64
}

func newPartLine(x1, y1, x2, y2 fixed.Fixed) partLine {
	p := partLine{
		ox: x1,
		oy: y1,
		dx: x2 - x1,
		dy: y2 - y1,
		o:  vecOf(x1, y1),
	}
	p.d = vecOf(x2, y2).sub(p.o)
	p.len = math.Hypot(p.d.x, p.d.y)
	return p
}

// dist is signed distance of v from the line: negative on the right side,
// positive on the left
func (p *partLine) dist(v vec) float64 {
	return cross(p.d, v.sub(p.o)) / p.len
}

// sideOf classifies signed distance: -1 right, 1 left, 0 on the line
func sideOf(d float64) int {
	if d < -DIST_EPSILON {
		return -1
	}
	if d > DIST_EPSILON {
		return 1
	}
	return 0
}

// polyArea is positive for clockwise polygons
func polyArea(poly []vec) float64 {
	var a float64
	for i := range poly {
		a += cross(poly[i], poly[(i+1)%len(poly)])
	}
	return -a / 2
}

// splitPoly cuts convex clockwise polygon by the line. Both halves stay
// clockwise, points on the line go to both
func splitPoly(poly []vec, p *partLine) ([]vec, []vec) {
	var right, left []vec
	n := len(poly)
	for i := 0; i < n; i++ {
		cur := poly[i]
		next := poly[(i+1)%n]
		dc := p.dist(cur)
		dn := p.dist(next)
		sc := sideOf(dc)
		sn := sideOf(dn)
		if sc <= 0 {
			right = appendPoint(right, cur)
		}
		if sc >= 0 {
			left = appendPoint(left, cur)
		}
		if (sc < 0 && sn > 0) || (sc > 0 && sn < 0) {
			pt := lerp(cur, next, dc/(dc-dn))
			right = appendPoint(right, pt)
			left = appendPoint(left, pt)
		}
	}
	return closePoly(right), closePoly(left)
}

func appendPoint(poly []vec, v vec) []vec {
	if len(poly) > 0 && closeTo(poly[len(poly)-1], v) {
		return poly
	}
	return append(poly, v)
}

func closePoly(poly []vec) []vec {
	for len(poly) > 1 && closeTo(poly[0], poly[len(poly)-1]) {
		poly = poly[:len(poly)-1]
	}
	return poly
}

func closeTo(a, b vec) bool {
	return math.Abs(a.x-b.x) < SNAP_EPSILON && math.Abs(a.y-b.y) < SNAP_EPSILON
}
