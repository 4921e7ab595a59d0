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

// blockmap
package botmap

import (
	"math/bits"

	"github.com/vigilantdoomer/botmap/internal/fixed"
)

// Size of a block of the level's own blockmap, in map units
const MAPBLOCKUNITS = 128

const DEFAULT_BLOCK_UNITS = 128

// LevelBlockmap describes the blockmap of the real level: its origin and how
// many MAPBLOCKUNITS-sized blocks it spans
type LevelBlockmap struct {
	OrgX, OrgY    fixed.Fixed
	Width, Height int
}

// Grid is the bot map's own blockmap. It covers the level blockmap extended
// by half the bot radius plus 8 units on every side, and each block lists
// the segs that pass through it
type Grid struct {
	OrgX, OrgY    fixed.Fixed
	Width, Height int
	BlockUnits    int
	blockSize     fixed.Wide
	segBlocks     [][]int
}

func NewGrid(bounds LevelBlockmap, radius fixed.Fixed, blockUnits int) *Grid {
	if blockUnits <= 0 {
		blockUnits = DEFAULT_BLOCK_UNITS
	}
	extend := fixed.Wide(radius/2 + 8*fixed.FRACUNIT)
	blockSize := fixed.Wide(blockUnits) << fixed.FRACBITS
	mapBlockSize := fixed.Wide(MAPBLOCKUNITS) << fixed.FRACBITS
	g := &Grid{
		OrgX:       fixed.Fixed(fixed.Wide(bounds.OrgX) - extend),
		OrgY:       fixed.Fixed(fixed.Wide(bounds.OrgY) - extend),
		Width:      int((2*extend+fixed.Wide(bounds.Width)*mapBlockSize)/blockSize) + 1,
		Height:     int((2*extend+fixed.Wide(bounds.Height)*mapBlockSize)/blockSize) + 1,
		BlockUnits: blockUnits,
		blockSize:  blockSize,
	}
	g.segBlocks = make([][]int, g.Width*g.Height)
	return g
}

func (g *Grid) NumBlocks() int {
	return len(g.segBlocks)
}

// SegsInBlock returns indices of segs that pass through block b. Read only
func (g *Grid) SegsInBlock(b int) []int {
	return g.segBlocks[b]
}

// AddSeg puts seg into block b. Only for building the map
func (g *Grid) AddSeg(b, seg int) {
	g.segBlocks[b] = append(g.segBlocks[b], seg)
}

// BlockOf returns block coordinates of the point, which can be out of grid.
// Blocks are half-open: a point on a block edge is in the block above/right
func (g *Grid) BlockOf(x, y fixed.Fixed) (int, int) {
	return g.floorBlock(fixed.Wide(x) - fixed.Wide(g.OrgX)),
		g.floorBlock(fixed.Wide(y) - fixed.Wide(g.OrgY))
}

// TouchedBlocks calls fn for every block the line (x1,y1)-(x2,y2) goes
// through, from the block of the starting point to the block of the ending
// point. Walks one block at a time like P_CreateBlockmap by Marisa Heit
// does, but on exact fixed point positions, so that lines crossing a block
// edge by a fraction of a unit are walked right. Consecutive blocks always
// share an edge: a line through a block corner visits one of the two blocks
// beside the corner too
func (g *Grid) TouchedBlocks(x1, y1, x2, y2 fixed.Fixed, fn func(b int)) {
	px := fixed.Wide(x1) - fixed.Wide(g.OrgX)
	py := fixed.Wide(y1) - fixed.Wide(g.OrgY)
	ex := fixed.Wide(x2) - fixed.Wide(g.OrgX)
	ey := fixed.Wide(y2) - fixed.Wide(g.OrgY)
	bx, by := g.floorBlock(px), g.floorBlock(py)
	bxend, byend := g.floorBlock(ex), g.floorBlock(ey)

	adx, ady := ex-px, ey-py
	dx := 1
	if adx < 0 {
		dx = -1
		adx = -adx
	}
	dy := 1
	if ady < 0 {
		dy = -1
		ady = -ady
	}

	// distances along each axis from the start to the next block edge
	xedge := g.edgeDistance(px, bx, dx)
	yedge := g.edgeDistance(py, by, dy)

	// steps bounds malformed input
	tot := g.Width * g.Height
	for steps := 0; steps <= tot; steps++ {
		if bx < 0 || bx >= g.Width || by < 0 || by >= g.Height {
			return
		}
		fn(by*g.Width + bx)

		// If we have reached the last block, exit
		if bx == bxend && by == byend {
			return
		}

		// Cross the edge the line reaches first: x edge at xedge/adx of its
		// length, y edge at yedge/ady. An axis already at its end block
		// isn't crossed again
		if bx != bxend && (by == byend || reachedFirst(xedge, ady, yedge, adx)) {
			bx += dx
			xedge += g.blockSize
		} else {
			by += dy
			yedge += g.blockSize
		}
	}
}

// edgeDistance is how far pos, which is in block b, is from the edge of b in
// the direction dir
func (g *Grid) edgeDistance(pos fixed.Wide, b, dir int) fixed.Wide {
	if dir > 0 {
		return fixed.Wide(b+1)*g.blockSize - pos
	}
	return pos - fixed.Wide(b)*g.blockSize
}

// reachedFirst reports xedge/adx <= yedge/ady, all arguments non-negative.
// Products need up to 66 bits
func reachedFirst(xedge, ady, yedge, adx fixed.Wide) bool {
	xhi, xlo := bits.Mul64(uint64(xedge), uint64(ady))
	yhi, ylo := bits.Mul64(uint64(yedge), uint64(adx))
	return xhi < yhi || (xhi == yhi && xlo <= ylo)
}

// BoxTouchedBlocks calls fn for each block of the rectangle of blocks
// covering the box, row by row. Blocks outside the grid are skipped
func (g *Grid) BoxTouchedBlocks(top, bottom, left, right fixed.Fixed, fn func(b int)) {
	xl := g.floorBlock(fixed.Wide(left) - fixed.Wide(g.OrgX))
	xh := g.floorBlock(fixed.Wide(right) - fixed.Wide(g.OrgX))
	yl := g.floorBlock(fixed.Wide(bottom) - fixed.Wide(g.OrgY))
	yh := g.floorBlock(fixed.Wide(top) - fixed.Wide(g.OrgY))
	if xl < 0 {
		xl = 0
	}
	if yl < 0 {
		yl = 0
	}
	if xh >= g.Width {
		xh = g.Width - 1
	}
	if yh >= g.Height {
		yh = g.Height - 1
	}

	for by := yl; by <= yh; by++ {
		for bx := xl; bx <= xh; bx++ {
			fn(bx + by*g.Width)
		}
	}
}

// floorBlock rounds down, as >> MAPBLOCKSHIFT would
func (g *Grid) floorBlock(d fixed.Wide) int {
	b := d / g.blockSize
	if d%g.blockSize < 0 {
		b--
	}
	return int(b)
}
