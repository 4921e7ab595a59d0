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

// Package nodebuilder is a BSP partitioner for bot maps. Unlike a game
// nodebuilder, it divides the whole plane rather than only the insides of
// sectors: every point of the level ends up in exactly one convex subsector,
// void included, and each subsector is bounded by a closed ring of segs.
package nodebuilder

import (
	"fmt"
	"math"
	"sort"

	"github.com/vigilantdoomer/botmap/internal/fixed"
	"github.com/vigilantdoomer/botmap/internal/glbridge"
)

type NodeBuilder struct {
	SplitFactor int
}

// New creates a partitioner. Non-positive split factor means PICKNODE_FACTOR
func New(splitFactor int) *NodeBuilder {
	if splitFactor <= 0 {
		splitFactor = PICKNODE_FACTOR
	}
	return &NodeBuilder{SplitFactor: splitFactor}
}

type inVertex struct {
	x, y fixed.Fixed
}

type inLine struct {
	v1, v2      int
	right, left int
	tag         int
}

// bseg is a seg, or a piece of it, while the tree is being built. It always
// has the region it faces on its right
type bseg struct {
	a, b   vec
	line   int
	isBack bool
	part   int // index into work.parts
}

type cell struct {
	poly  []vec  // convex, clockwise
	inner []bseg // segs inside, not on any side of the cell
	bound []bseg // segs on the sides, facing inside
}

type childRef struct {
	index int
	leaf  bool
}

type nodeOut struct {
	part        int
	right, left childRef
}

// edgeOut is one side (or part of it) of a finished subsector
type edgeOut struct {
	a, b   vec
	line   int // -1 for minisegs
	isBack bool
}

type work struct {
	splitFactor int
	obs         glbridge.Observer

	verts      []inVertex
	numRegions int
	lines      []inLine

	parts  []partLine
	leaves [][]edgeOut
	nodes  []nodeOut

	totalSegs int
	resolved  int
	lostSegs  int
}

func (nb *NodeBuilder) Partition(src glbridge.Source, dst glbridge.Sink,
	obs glbridge.Observer) error {
	if obs == nil {
		obs = glbridge.NopObserver{}
	}
	w := &work{
		splitFactor: nb.SplitFactor,
		obs:         obs,
	}
	if w.splitFactor <= 0 {
		w.splitFactor = PICKNODE_FACTOR
	}

	if err := w.pull(src); err != nil {
		return err
	}
	segs := w.createSegs()
	if len(segs) == 0 {
		return fmt.Errorf("no segs: every line faces void on both sides")
	}
	w.totalSegs = len(segs)

	obs.BeginPhase("Partitioning")
	w.build(w.rootCell(segs))
	obs.EndPhase("Partitioning")
	if w.lostSegs > 0 {
		obs.Diagnostic(fmt.Sprintf("%d seg pieces could not be placed on subsector sides",
			w.lostSegs))
	}

	obs.BeginPhase("Reconstructing subsectors")
	out := w.finish()
	obs.EndPhase("Reconstructing subsectors")
	obs.Diagnostic(fmt.Sprintf("%d nodes, %d subsectors, %d segs, %d vertices",
		len(w.nodes), len(out.leaves), len(out.segs), len(out.verts)))

	return w.push(dst, out)
}

func (w *work) pull(src glbridge.Source) error {
	for {
		x, y, ok := src.NextVertex()
		if !ok {
			break
		}
		w.verts = append(w.verts, inVertex{x: x, y: y})
	}
	for {
		_, _, ok := src.NextRegion()
		if !ok {
			break
		}
		w.numRegions++
	}
	for {
		idx, ok := src.NextRegionIndex()
		if !ok {
			break
		}
		if idx < 0 || idx >= w.numRegions {
			return fmt.Errorf("region index %d out of range (%d regions)", idx,
				w.numRegions)
		}
	}
	for {
		ld, ok := src.NextLine()
		if !ok {
			break
		}
		i := len(w.lines)
		if ld.V1 < 0 || ld.V1 >= len(w.verts) || ld.V2 < 0 || ld.V2 >= len(w.verts) {
			return fmt.Errorf("line %d references missing vertex", i)
		}
		for _, r := range [2]int{ld.Right, ld.Left} {
			if r < -1 || r >= w.numRegions {
				return fmt.Errorf("line %d references missing region %d", i, r)
			}
		}
		if w.verts[ld.V1] == w.verts[ld.V2] {
			return fmt.Errorf("line %d has zero length", i)
		}
		w.lines = append(w.lines, inLine{
			v1:    ld.V1,
			v2:    ld.V2,
			right: ld.Right,
			left:  ld.Left,
			tag:   ld.Tag,
		})
	}
	return nil
}

// createSegs makes a seg for each side of a line that has a region: the
// front one runs along the line, the back one against it
func (w *work) createSegs() []bseg {
	var segs []bseg
	for i, ln := range w.lines {
		v1 := w.verts[ln.v1]
		v2 := w.verts[ln.v2]
		if ln.right >= 0 {
			segs = append(segs, bseg{
				a:    vecOf(v1.x, v1.y),
				b:    vecOf(v2.x, v2.y),
				line: i,
				part: w.addPart(v1, v2),
			})
		}
		if ln.left >= 0 {
			segs = append(segs, bseg{
				a:      vecOf(v2.x, v2.y),
				b:      vecOf(v1.x, v1.y),
				line:   i,
				isBack: true,
				part:   w.addPart(v2, v1),
			})
		}
	}
	return segs
}

func (w *work) addPart(v1, v2 inVertex) int {
	w.parts = append(w.parts, newPartLine(v1.x, v1.y, v2.x, v2.y))
	return len(w.parts) - 1
}

// rootCell is the bounding box of the level with some margin, it holds all
// segs inside
func (w *work) rootCell(segs []bseg) *cell {
	minx, miny := math.Inf(1), math.Inf(1)
	maxx, maxy := math.Inf(-1), math.Inf(-1)
	for _, v := range w.verts {
		p := vecOf(v.x, v.y)
		minx = math.Min(minx, p.x)
		miny = math.Min(miny, p.y)
		maxx = math.Max(maxx, p.x)
		maxy = math.Max(maxy, p.y)
	}
	minx -= ROOT_MARGIN
	miny -= ROOT_MARGIN
	maxx += ROOT_MARGIN
	maxy += ROOT_MARGIN
	return &cell{
		poly: []vec{
			{minx, miny},
			{minx, maxy},
			{maxx, maxy},
			{maxx, miny},
		},
		inner: segs,
	}
}

// build divides cell until no seg is left inside. Nodes are numbered so that
// children precede their parent, which leaves the root last
func (w *work) build(c *cell) childRef {
	if len(c.inner) == 0 {
		return childRef{index: w.addLeaf(c), leaf: true}
	}
	best, rpoly, lpoly, ok := w.pickNode(c)
	if !ok {
		// Nothing divides this cell usefully. Whatever is inside can only be
		// fitted to the sides of it
		w.obs.Diagnostic(fmt.Sprintf("cell with %d segs inside can't be divided",
			len(c.inner)))
		c.bound = append(c.bound, c.inner...)
		c.inner = nil
		return childRef{index: w.addLeaf(c), leaf: true}
	}
	right, left := w.divide(c, &w.parts[best], rpoly, lpoly)
	rc := w.build(right)
	lc := w.build(left)
	w.nodes = append(w.nodes, nodeOut{part: best, right: rc, left: lc})
	return childRef{index: len(w.nodes) - 1}
}

func (w *work) divide(c *cell, p *partLine, rpoly, lpoly []vec) (*cell, *cell) {
	right := &cell{poly: rpoly}
	left := &cell{poly: lpoly}
	for _, s := range c.inner {
		w.divideSeg(s, p, &right.inner, &left.inner, &right.bound, &left.bound)
	}
	for _, s := range c.bound {
		w.divideSeg(s, p, &right.bound, &left.bound, &right.bound, &left.bound)
	}
	w.obs.Progress(min(w.resolved, w.totalSegs), w.totalSegs)
	return right, left
}

// divideSeg sends seg to the side it is on, splitting it if the partition
// crosses it. Segs on the partition line become sides of the cell they face
func (w *work) divideSeg(s bseg, p *partLine, rights, lefts, onRight, onLeft *[]bseg) {
	da := p.dist(s.a)
	db := p.dist(s.b)
	sa := sideOf(da)
	sb := sideOf(db)
	switch {
	case sa == 0 && sb == 0:
		if dot(s.b.sub(s.a), p.d) > 0 {
			*onRight = append(*onRight, s)
		} else {
			*onLeft = append(*onLeft, s)
		}
		w.resolved++
	case sa <= 0 && sb <= 0:
		*rights = append(*rights, s)
	case sa >= 0 && sb >= 0:
		*lefts = append(*lefts, s)
	default:
		mid := lerp(s.a, s.b, da/(da-db))
		first, second := s, s
		first.b = mid
		second.a = mid
		if sa < 0 {
			*rights = append(*rights, first)
			*lefts = append(*lefts, second)
		} else {
			*lefts = append(*lefts, first)
			*rights = append(*rights, second)
		}
	}
}

func (w *work) addLeaf(c *cell) int {
	w.leaves = append(w.leaves, w.leafEdges(c))
	return len(w.leaves) - 1
}

type edgeMark struct {
	t  float64
	pt vec
}

type edgeCover struct {
	ta, tb float64
	line   int
	isBack bool
}

// leafEdges walks the sides of the cell clockwise. A side is cut where segs
// lying on it begin and end; pieces under a seg take its line, the rest are
// minisegs
func (w *work) leafEdges(c *cell) []edgeOut {
	poly := c.poly
	n := len(poly)
	used := make([]bool, len(c.bound))
	var res []edgeOut
	for i := 0; i < n; i++ {
		p := poly[i]
		q := poly[(i+1)%n]
		e := q.sub(p)
		l2 := dot(e, e)
		if l2 == 0 {
			continue
		}
		l := math.Sqrt(l2)

		marks := []edgeMark{{0, p}, {1, q}}
		var covers []edgeCover
		for j, s := range c.bound {
			if used[j] {
				continue
			}
			if math.Abs(cross(e, s.a.sub(p)))/l > 2*DIST_EPSILON ||
				math.Abs(cross(e, s.b.sub(p)))/l > 2*DIST_EPSILON {
				continue
			}
			if dot(s.b.sub(s.a), e) <= 0 {
				continue
			}
			ta := dot(s.a.sub(p), e) / l2
			tb := dot(s.b.sub(p), e) / l2
			if tb*l <= DIST_EPSILON || (1-ta)*l <= DIST_EPSILON {
				continue
			}
			used[j] = true
			covers = append(covers, edgeCover{ta, tb, s.line, s.isBack})
			if ta > 0 {
				marks = append(marks, edgeMark{ta, s.a})
			}
			if tb < 1 {
				marks = append(marks, edgeMark{tb, s.b})
			}
		}
		sort.SliceStable(marks, func(a, b int) bool {
			return marks[a].t < marks[b].t
		})

		// drop marks that are too close to the previous one; the ends of
		// the side are kept, they are shared with the next side
		pts := []edgeMark{marks[0]}
		for _, m := range marks[1:] {
			if m.t >= 1 {
				continue
			}
			if (m.t-pts[len(pts)-1].t)*l < DIST_EPSILON || (1-m.t)*l < DIST_EPSILON {
				continue
			}
			pts = append(pts, m)
		}
		pts = append(pts, edgeMark{1, q})

		for k := 0; k+1 < len(pts); k++ {
			tm := (pts[k].t + pts[k+1].t) / 2
			out := edgeOut{a: pts[k].pt, b: pts[k+1].pt, line: -1}
			for _, cv := range covers {
				if cv.ta <= tm && tm <= cv.tb {
					out.line = cv.line
					out.isBack = cv.isBack
					break
				}
			}
			res = append(res, out)
		}
	}
	for _, ok := range used {
		if !ok {
			w.lostSegs++
		}
	}
	return res
}
