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

// picknode
package nodebuilder

// Direct cost value attributed to a partition by a particular undesirable
// impact on something - default value, can be reconfigured
const PICKNODE_FACTOR = 17 // default factor of BSP v5.2.

const INITIAL_BIG_COST = 2147483647

// pickNode is the classic way to pick a partition: partitions are chosen
// based on seg so that there is minimal amount of seg splits and the
// difference in the number of segs on both sides is minimal. Segs lying on
// the same line give the same partition and are tried once. Returns false if
// no partition divides the cell into two usable parts
func (w *work) pickNode(c *cell) (int, []vec, []vec, bool) {
	best := -1
	bestcost := int(INITIAL_BIG_COST)
	var bestRight, bestLeft []vec
	tried := make(map[int]bool)

	for _, part := range c.inner { // Use each Seg as partition
		if tried[part.part] {
			continue
		}
		tried[part.part] = true
		p := &w.parts[part.part]

		cost, prune := w.evalPartition(c, p, bestcost)
		if prune || cost >= bestcost {
			continue
		}
		// Both sides must keep some room, or the partition only shaves
		// slivers that can't become proper subsectors
		right, left := splitPoly(c.poly, p)
		if len(right) < 3 || len(left) < 3 ||
			polyArea(right) < MIN_CELL_AREA || polyArea(left) < MIN_CELL_AREA {
			continue
		}
		// We have a new better choice
		best = part.part
		bestcost = cost
		bestRight = right
		bestLeft = left
	}
	return best, bestRight, bestLeft, best >= 0
}

// evalPartition returns cost of the partition. If prune is true, it produced
// many splits early so that cost exceeds bestcost
func (w *work) evalPartition(c *cell, p *partLine, bestcost int) (int, bool) {
	cost := 0
	rights := 0
	lefts := 0
	for _, check := range c.inner { // Check partition against all Segs
		sa := sideOf(p.dist(check.a))
		sb := sideOf(p.dist(check.b))
		switch {
		case sa == 0 && sb == 0:
			// co-linear, goes to the side it faces
			if dot(check.b.sub(check.a), p.d) > 0 {
				rights++
			} else {
				lefts++
			}
		case sa <= 0 && sb <= 0:
			rights++
		case sa >= 0 && sb >= 0:
			lefts++
		default:
			// Line is split
			cost += w.splitFactor
			if cost > bestcost {
				// This is the heart of my pruning idea
				// it catches bad segs early on. Killough
				return cost, true
			}
			rights++
			lefts++
		}
	}
	diff := rights - lefts
	if diff < 0 {
		diff = -diff
	}
	return cost + diff, false
}
