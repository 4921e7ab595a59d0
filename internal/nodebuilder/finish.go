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

// finish.go turns subsector outlines into the final vertex, seg, line and
// subsector arrays
package nodebuilder

import (
	"fmt"
	"math"
	"sort"

	"github.com/vigilantdoomer/botmap/internal/fixed"
	"github.com/vigilantdoomer/botmap/internal/glbridge"
)

// Size of buckets used to find vertices lying on subsector sides, in map
// units
const TJUNC_BUCKET_UNITS = 64

type outSeg struct {
	v1, v2  int
	line    int
	isBack  bool
	partner int
}

type outLeaf struct {
	first, count int
}

type output struct {
	verts  []inVertex
	segs   []outSeg
	lines  []inLine
	leaves []outLeaf
}

// vertexReg hands out vertex indices. Input vertices come first and keep
// their indices, new ones are snapped to whatever existing vertex is close
// enough
type vertexReg struct {
	verts   []inVertex
	byPos   map[inVertex]int
	buckets map[[2]int][]int
}

func newVertexReg(input []inVertex) *vertexReg {
	r := &vertexReg{
		byPos:   make(map[inVertex]int),
		buckets: make(map[[2]int][]int),
	}
	for _, v := range input {
		r.verts = append(r.verts, v)
		idx := len(r.verts) - 1
		if _, ok := r.byPos[v]; !ok {
			r.byPos[v] = idx
			r.bucketAdd(idx)
		}
	}
	return r
}

func unitBucket(x, y fixed.Fixed) [2]int {
	return [2]int{x.Int(), y.Int()}
}

func (r *vertexReg) bucketAdd(idx int) {
	b := unitBucket(r.verts[idx].x, r.verts[idx].y)
	r.buckets[b] = append(r.buckets[b], idx)
}

func (r *vertexReg) snap(p vec) int {
	v := inVertex{x: fixed.FromFloat(p.x), y: fixed.FromFloat(p.y)}
	if idx, ok := r.byPos[v]; ok {
		return idx
	}
	b := unitBucket(v.x, v.y)
	best := -1
	bestDist := math.Inf(1)
	for bx := b[0] - 1; bx <= b[0]+1; bx++ {
		for by := b[1] - 1; by <= b[1]+1; by++ {
			for _, idx := range r.buckets[[2]int{bx, by}] {
				o := r.verts[idx]
				d := math.Hypot(o.x.Float()-p.x, o.y.Float()-p.y)
				if d <= SNAP_EPSILON && d < bestDist {
					best = idx
					bestDist = d
				}
			}
		}
	}
	if best >= 0 {
		return best
	}
	r.verts = append(r.verts, v)
	idx := len(r.verts) - 1
	r.byPos[v] = idx
	r.bucketAdd(idx)
	return idx
}

type ring struct {
	ids   []int
	attrs []edgeOut // line and side of the edge starting at ids[k]
}

func (w *work) finish() *output {
	reg := newVertexReg(w.verts)

	rings := make([]ring, len(w.leaves))
	for i, edges := range w.leaves {
		var rg ring
		for _, e := range edges {
			rg.ids = append(rg.ids, reg.snap(e.a))
			rg.attrs = append(rg.attrs, e)
		}
		rings[i] = dropZeroEdges(rg)
	}

	w.fixTJunctions(reg, rings)

	out := &output{
		verts: reg.verts,
		lines: append([]inLine(nil), w.lines...),
	}
	for _, rg := range rings {
		leaf := outLeaf{first: len(out.segs), count: len(rg.ids)}
		for k := range rg.ids {
			out.segs = append(out.segs, outSeg{
				v1:      rg.ids[k],
				v2:      rg.ids[(k+1)%len(rg.ids)],
				line:    rg.attrs[k].line,
				isBack:  rg.attrs[k].isBack,
				partner: -1,
			})
		}
		out.leaves = append(out.leaves, leaf)
	}

	w.matchPartners(out)
	w.addRegionMarkers(out)
	return out
}

// dropZeroEdges removes edges whose ends snapped to the same vertex
func dropZeroEdges(rg ring) ring {
	for changed := true; changed && len(rg.ids) > 1; {
		changed = false
		for k := 0; k < len(rg.ids); k++ {
			if rg.ids[k] == rg.ids[(k+1)%len(rg.ids)] {
				rg.ids = append(rg.ids[:k], rg.ids[k+1:]...)
				rg.attrs = append(rg.attrs[:k], rg.attrs[k+1:]...)
				changed = true
				break
			}
		}
	}
	return rg
}

func tjBucket(v inVertex) [2]int {
	return [2]int{
		int(math.Floor(v.x.Float() / TJUNC_BUCKET_UNITS)),
		int(math.Floor(v.y.Float() / TJUNC_BUCKET_UNITS)),
	}
}

// fixTJunctions cuts subsector sides at vertices of other subsectors lying
// on them, so that both sides of every boundary are made of the same pieces
func (w *work) fixTJunctions(reg *vertexReg, rings []ring) {
	used := make(map[int]bool)
	buckets := make(map[[2]int][]int)
	for _, rg := range rings {
		for _, id := range rg.ids {
			if used[id] {
				continue
			}
			used[id] = true
			b := tjBucket(reg.verts[id])
			buckets[b] = append(buckets[b], id)
		}
	}

	type cut struct {
		t  float64
		id int
	}
	for ri := range rings {
		rg := &rings[ri]
		var ids []int
		var attrs []edgeOut
		n := len(rg.ids)
		for k := 0; k < n; k++ {
			ia := rg.ids[k]
			ib := rg.ids[(k+1)%n]
			a := vecOf(reg.verts[ia].x, reg.verts[ia].y)
			b := vecOf(reg.verts[ib].x, reg.verts[ib].y)
			e := b.sub(a)
			l2 := dot(e, e)
			l := math.Sqrt(l2)

			lo := tjBucket(inVertex{fixed.FromFloat(math.Min(a.x, b.x)),
				fixed.FromFloat(math.Min(a.y, b.y))})
			hi := tjBucket(inVertex{fixed.FromFloat(math.Max(a.x, b.x)),
				fixed.FromFloat(math.Max(a.y, b.y))})
			var cuts []cut
			for bx := lo[0] - 1; bx <= hi[0]+1; bx++ {
				for by := lo[1] - 1; by <= hi[1]+1; by++ {
					for _, id := range buckets[[2]int{bx, by}] {
						if id == ia || id == ib {
							continue
						}
						c := vecOf(reg.verts[id].x, reg.verts[id].y)
						t := dot(c.sub(a), e) / l2
						if t*l <= SNAP_EPSILON || (1-t)*l <= SNAP_EPSILON {
							continue
						}
						if math.Abs(cross(e, c.sub(a)))/l > DIST_EPSILON {
							continue
						}
						cuts = append(cuts, cut{t, id})
					}
				}
			}
			sort.Slice(cuts, func(i, j int) bool { return cuts[i].t < cuts[j].t })

			ids = append(ids, ia)
			attrs = append(attrs, rg.attrs[k])
			for _, ct := range cuts {
				if ids[len(ids)-1] == ct.id {
					continue
				}
				ids = append(ids, ct.id)
				attrs = append(attrs, rg.attrs[k])
			}
		}
		rg.ids = ids
		rg.attrs = attrs
	}
}

// matchPartners pairs segs running between the same vertices in opposite
// directions: two minisegs, or both sides of the same line
func (w *work) matchPartners(out *output) {
	byEnds := make(map[[2]int]int, len(out.segs))
	dups := 0
	for i, sg := range out.segs {
		key := [2]int{sg.v1, sg.v2}
		if _, ok := byEnds[key]; ok {
			dups++
			continue
		}
		byEnds[key] = i
	}
	if dups > 0 {
		w.obs.Diagnostic(fmt.Sprintf("%d segs overlap others", dups))
	}
	for i := range out.segs {
		sg := &out.segs[i]
		if sg.partner >= 0 {
			continue
		}
		j, ok := byEnds[[2]int{sg.v2, sg.v1}]
		if !ok || j == i || out.segs[j].partner >= 0 {
			continue
		}
		other := &out.segs[j]
		mini := sg.line < 0 && other.line < 0
		sameLine := sg.line >= 0 && sg.line == other.line && sg.isBack != other.isBack
		if mini || sameLine {
			sg.partner = j
			other.partner = i
		}
	}
}

// addRegionMarkers gives a region to subsectors that only have minisegs.
// The region spreads from subsectors that have real segs across minisegs,
// which always lie in open space. Such subsector gets a line of its own on
// the first seg, with the region on both sides; subsectors the region never
// reaches are void
func (w *work) addRegionMarkers(out *output) {
	region := make([]int, len(out.leaves))
	owner := make([]int, len(out.segs))
	var queue []int
	for li, leaf := range out.leaves {
		region[li] = -1
		for i := leaf.first; i < leaf.first+leaf.count; i++ {
			owner[i] = li
		}
		for i := leaf.first; i < leaf.first+leaf.count; i++ {
			sg := &out.segs[i]
			if sg.line < 0 {
				continue
			}
			ln := &out.lines[sg.line]
			if sg.isBack {
				region[li] = ln.left
			} else {
				region[li] = ln.right
			}
			break
		}
		if region[li] >= 0 {
			queue = append(queue, li)
		}
	}

	for len(queue) > 0 {
		li := queue[0]
		queue = queue[1:]
		leaf := out.leaves[li]
		for i := leaf.first; i < leaf.first+leaf.count; i++ {
			sg := &out.segs[i]
			if sg.line >= 0 || sg.partner < 0 {
				continue
			}
			other := owner[sg.partner]
			if region[other] >= 0 {
				continue
			}
			region[other] = region[li]
			queue = append(queue, other)
		}
	}

	markers := 0
	for li, leaf := range out.leaves {
		if region[li] < 0 {
			continue
		}
		hasLine := false
		for i := leaf.first; i < leaf.first+leaf.count; i++ {
			if out.segs[i].line >= 0 {
				hasLine = true
				break
			}
		}
		if hasLine {
			continue
		}
		sg := &out.segs[leaf.first]
		out.lines = append(out.lines, inLine{
			v1:    sg.v1,
			v2:    sg.v2,
			right: region[li],
			left:  region[li],
			tag:   -1,
		})
		sg.line = len(out.lines) - 1
		sg.isBack = false
		markers++
	}
	if markers > 0 {
		w.obs.Diagnostic(fmt.Sprintf("%d subsectors without walls got region markers",
			markers))
	}
}

func (w *work) push(dst glbridge.Sink, out *output) error {
	if err := dst.CreateVertexArray(len(out.verts)); err != nil {
		return err
	}
	for i, v := range out.verts {
		if err := dst.PutVertex(v.x, v.y, i); err != nil {
			return err
		}
	}

	if err := dst.CreateSegArray(len(out.segs)); err != nil {
		return err
	}
	for i, sg := range out.segs {
		err := dst.PutSeg(glbridge.SegRecord{
			V1:      sg.v1,
			V2:      sg.v2,
			IsBack:  sg.isBack,
			Line:    sg.line,
			Partner: sg.partner,
			Index:   i,
		})
		if err != nil {
			return err
		}
	}

	if err := dst.CreateLineArray(len(out.lines)); err != nil {
		return err
	}
	for i, ln := range out.lines {
		err := dst.PutLine(glbridge.LineRecord{
			V1:    ln.v1,
			V2:    ln.v2,
			Right: ln.right,
			Left:  ln.left,
			Index: i,
			Tag:   ln.tag,
		})
		if err != nil {
			return err
		}
	}

	if err := dst.CreateLeafArray(len(out.leaves)); err != nil {
		return err
	}
	for i, leaf := range out.leaves {
		if err := dst.PutLeaf(leaf.first, leaf.count, i); err != nil {
			return err
		}
	}

	if err := dst.CreateNodeArray(len(w.nodes)); err != nil {
		return err
	}
	for i, nd := range w.nodes {
		p := &w.parts[nd.part]
		err := dst.PutNode(glbridge.NodeRecord{
			X:           p.ox,
			Y:           p.oy,
			Dx:          p.dx,
			Dy:          p.dy,
			Right:       nd.right.index,
			Left:        nd.left.index,
			RightIsLeaf: nd.right.leaf,
			LeftIsLeaf:  nd.left.leaf,
			Index:       i,
		})
		if err != nil {
			return err
		}
	}
	return nil
}
