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

// locate
package botmap

import (
	"github.com/vigilantdoomer/botmap/internal/fixed"
)

// PointInSubsector returns the subsector the point is in. Points exactly on
// a partition line always go the same way, so that all callers agree
func (m *Map) PointInSubsector(x, y fixed.Fixed) int {
	c := m.Root()
	for !c.IsLeaf() {
		node := &m.Nodes[c.Index()]
		c = node.Child[PointOnSide(x, y, node)]
	}
	return c.Index()
}

// PointOnSide returns 0 if the point is on the right (front) side of the
// node's partition line, 1 if on the left. Exact: no rounding takes place
func PointOnSide(x, y fixed.Fixed, node *Node) int {
	return pointOnLineSide(x, y, node.X, node.Y, node.Dx, node.Dy)
}

func pointOnLineSide(x, y, lx, ly, ldx, ldy fixed.Fixed) int {
	if ldx == 0 {
		if x <= lx {
			return b2i(ldy > 0)
		}
		return b2i(ldy < 0)
	}

	if ldy == 0 {
		if y <= ly {
			return b2i(ldx < 0)
		}
		return b2i(ldx > 0)
	}

	x -= lx
	y -= ly

	// Try to quickly decide by looking at sign bits.
	if (ldy ^ ldx ^ x ^ y) < 0 {
		return b2i((ldy ^ x) < 0) // (left is negative)
	}
	return b2i(fixed.Mul64(y, ldx) >= fixed.Mul64(ldy, x))
}

// BoxOnLineSide tells which side of the line (x,y)+(dx,dy) the box is on:
// 0 for right, 1 for left, -1 if the line crosses it
func BoxOnLineSide(top, bottom, left, right, x, y, dx, dy fixed.Fixed) int {
	var p1, p2 int
	if dy == 0 { // horizontal
		p1 = b2i(top > y)
		p2 = b2i(bottom > y)
		if dx < 0 {
			p1 ^= 1
			p2 ^= 1
		}
	} else if dx == 0 { // vertical
		p1 = b2i(right < x)
		p2 = b2i(left < x)
		if dy < 0 {
			p1 ^= 1
			p2 ^= 1
		}
	} else if (dy ^ dx) >= 0 { // positive slope
		p1 = pointOnLineSide(left, top, x, y, dx, dy)
		p2 = pointOnLineSide(right, bottom, x, y, dx, dy)
	} else { // negative slope
		p1 = pointOnLineSide(right, top, x, y, dx, dy)
		p2 = pointOnLineSide(left, bottom, x, y, dx, dy)
	}

	if p1 == p2 {
		return p1
	}
	return -1
}

func b2i(b bool) int {
	if b {
		return 1
	}
	return 0
}
