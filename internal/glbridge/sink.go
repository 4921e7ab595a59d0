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

// sink
package glbridge

import (
	"fmt"

	"github.com/vigilantdoomer/botmap/internal/botmap"
	"github.com/vigilantdoomer/botmap/internal/fixed"
)

// MapSink fills botmap.Map from partitioner output, cross-linking segs,
// subsectors and metasectors, and records everything to the cache stream.
// The first error it returns sticks: every later call fails with it too
type MapSink struct {
	m       *botmap.Map
	regions Regions
	cache   *CacheStream

	numMetas int
	// segs that named a partner with higher index, waiting for that partner
	// to name them back
	forward map[int]int

	putVerts  []bool
	putSegs   []bool
	putLines  []bool
	putLeaves []bool
	putNodes  []bool

	err error
}

// NewMapSink creates sink that populates m. Cache may be nil, then nothing
// is recorded
func NewMapSink(m *botmap.Map, regions Regions, cache *CacheStream) *MapSink {
	return &MapSink{
		m:        m,
		regions:  regions,
		cache:    cache,
		numMetas: -1,
		forward:  make(map[int]int),
	}
}

func (s *MapSink) fail(err error) error {
	if s.err == nil {
		s.err = err
	}
	return err
}

// Err returns the error that stopped the sink, if any
func (s *MapSink) Err() error {
	return s.err
}

func badIndex(what string, idx, n int) error {
	return fmt.Errorf("%w: %s %d (have %d)", ErrBadIndex, what, idx, n)
}

func markPut(put []bool, what string, idx int) error {
	if idx < 0 || idx >= len(put) {
		return badIndex(what, idx, len(put))
	}
	if put[idx] {
		return fmt.Errorf("%w: %s %d put twice", ErrBadIndex, what, idx)
	}
	put[idx] = true
	return nil
}

// The regions are complete once the partitioner starts pushing
func (s *MapSink) resolveRegions() error {
	if s.numMetas >= 0 {
		return nil
	}
	n, ok := s.regions.NumMetaSectors()
	if !ok {
		return fmt.Errorf("%w: output pushed before all regions were read",
			ErrPartitioner)
	}
	s.m.MetaSectors = make([]botmap.MetaSector, n)
	for i := 0; i < n; i++ {
		ms, ok := s.regions.MetaSectorRef(i)
		if !ok {
			return badIndex("region", i, n)
		}
		s.m.MetaSectors[i] = ms
	}
	s.numMetas = n
	return nil
}

func (s *MapSink) CreateVertexArray(n int) error {
	if s.err != nil {
		return s.err
	}
	if n < 0 {
		return s.fail(badIndex("vertex count", n, 0))
	}
	if err := s.resolveRegions(); err != nil {
		return s.fail(err)
	}
	s.m.Vertices = make([]botmap.Vertex, n)
	s.putVerts = make([]bool, n)
	s.cache.Section("vertices")
	s.cache.WriteIndex(n)
	return nil
}

func (s *MapSink) PutVertex(x, y fixed.Fixed, index int) error {
	if s.err != nil {
		return s.err
	}
	if err := markPut(s.putVerts, "vertex", index); err != nil {
		return s.fail(err)
	}
	s.m.Vertices[index] = botmap.Vertex{X: x, Y: y}
	s.cache.WriteFixed(x)
	s.cache.WriteFixed(y)
	return nil
}

func (s *MapSink) CreateSegArray(n int) error {
	if s.err != nil {
		return s.err
	}
	if n < 0 {
		return s.fail(badIndex("seg count", n, 0))
	}
	s.m.Segs = make([]botmap.Seg, n)
	for i := range s.m.Segs {
		s.m.Segs[i].Partner = botmap.NoSeg
		s.m.Segs[i].Owner = botmap.NoLeaf
		s.m.Segs[i].Line = botmap.NoLine
	}
	s.putSegs = make([]bool, n)
	s.cache.Section("segs")
	s.cache.WriteIndex(n)
	return nil
}

func (s *MapSink) PutSeg(rec SegRecord) error {
	if s.err != nil {
		return s.err
	}
	nverts := len(s.m.Vertices)
	nsegs := len(s.m.Segs)
	if err := markPut(s.putSegs, "seg", rec.Index); err != nil {
		return s.fail(err)
	}
	if rec.V1 < 0 || rec.V1 >= nverts {
		return s.fail(badIndex("seg vertex", rec.V1, nverts))
	}
	if rec.V2 < 0 || rec.V2 >= nverts {
		return s.fail(badIndex("seg vertex", rec.V2, nverts))
	}
	if rec.Partner < -1 || rec.Partner >= nsegs {
		return s.fail(badIndex("partner seg", rec.Partner, nsegs))
	}
	if rec.Line < -1 {
		return s.fail(badIndex("seg line", rec.Line, 0))
	}

	sg := &s.m.Segs[rec.Index]
	v1 := s.m.Vertices[rec.V1]
	v2 := s.m.Vertices[rec.V2]
	sg.V1 = rec.V1
	sg.V2 = rec.V2
	sg.Dx = v2.X - v1.X
	sg.Dy = v2.Y - v1.Y
	sg.IsBack = rec.IsBack
	sg.Line = rec.Line

	if err := s.linkPartner(rec); err != nil {
		return s.fail(err)
	}

	// mid-point
	sg.Mid.X = fixed.Fixed((fixed.Wide(v1.X) + fixed.Wide(v2.X)) >> 1)
	sg.Mid.Y = fixed.Fixed((fixed.Wide(v1.Y) + fixed.Wide(v2.Y)) >> 1)

	// put into blockmap
	s.m.Grid.TouchedBlocks(v1.X, v1.Y, v2.X, v2.Y, func(b int) {
		s.m.Grid.AddSeg(b, rec.Index)
		sg.Blocks = append(sg.Blocks, b)
	})

	// Bounding box
	if v1.X < v2.X {
		sg.BBox[botmap.BOXLEFT] = v1.X
		sg.BBox[botmap.BOXRIGHT] = v2.X
	} else {
		sg.BBox[botmap.BOXLEFT] = v2.X
		sg.BBox[botmap.BOXRIGHT] = v1.X
	}
	if v1.Y < v2.Y {
		sg.BBox[botmap.BOXBOTTOM] = v1.Y
		sg.BBox[botmap.BOXTOP] = v2.Y
	} else {
		sg.BBox[botmap.BOXBOTTOM] = v2.Y
		sg.BBox[botmap.BOXTOP] = v1.Y
	}

	s.cache.WriteIndex(rec.V1)
	s.cache.WriteIndex(rec.V2)
	s.cache.WriteBool(rec.IsBack)
	s.cache.WriteIndex(rec.Line)
	s.cache.WriteIndex(rec.Partner)
	return nil
}

// Partners are linked when the second of the pair arrives. The first one, if
// it named its partner ahead of time, must be named back
func (s *MapSink) linkPartner(rec SegRecord) error {
	part := rec.Partner
	switch {
	case part < 0:
		return nil
	case part == rec.Index:
		return fmt.Errorf("%w: seg %d is its own partner", ErrPartnerOrder, part)
	case part > rec.Index:
		s.forward[rec.Index] = part
		return nil
	}
	if !s.putSegs[part] {
		return fmt.Errorf("%w: seg %d names seg %d which wasn't put",
			ErrPartnerOrder, rec.Index, part)
	}
	if want, ok := s.forward[part]; ok {
		if want != rec.Index {
			return fmt.Errorf("%w: seg %d names seg %d, which named seg %d",
				ErrPartnerOrder, rec.Index, part, want)
		}
		delete(s.forward, part)
	}
	other := &s.m.Segs[part]
	if other.Partner != botmap.NoSeg {
		return fmt.Errorf("%w: seg %d already partnered with seg %d",
			ErrPartnerOrder, part, other.Partner)
	}
	other.Partner = rec.Index
	s.m.Segs[rec.Index].Partner = part
	return nil
}

func (s *MapSink) CreateLineArray(n int) error {
	if s.err != nil {
		return s.err
	}
	if n < 0 {
		return s.fail(badIndex("line count", n, 0))
	}
	// all segs are in by now, so forward partner references are final, and
	// the line indices they hold can be checked
	if len(s.forward) > 0 {
		idx := -1
		for i := range s.forward {
			if idx < 0 || i < idx {
				idx = i
			}
		}
		return s.fail(fmt.Errorf("%w: seg %d names seg %d, which never named it back",
			ErrPartnerOrder, idx, s.forward[idx]))
	}
	for i := range s.m.Segs {
		if s.m.Segs[i].Line >= n {
			return s.fail(badIndex("seg line", s.m.Segs[i].Line, n))
		}
	}
	s.m.Lines = make([]botmap.Line, n)
	s.putLines = make([]bool, n)
	s.cache.Section("lines")
	s.cache.WriteIndex(n)
	return nil
}

func (s *MapSink) PutLine(rec LineRecord) error {
	if s.err != nil {
		return s.err
	}
	nverts := len(s.m.Vertices)
	if err := markPut(s.putLines, "line", rec.Index); err != nil {
		return s.fail(err)
	}
	if rec.V1 < 0 || rec.V1 >= nverts {
		return s.fail(badIndex("line vertex", rec.V1, nverts))
	}
	if rec.V2 < 0 || rec.V2 >= nverts {
		return s.fail(badIndex("line vertex", rec.V2, nverts))
	}
	for _, r := range [2]int{rec.Right, rec.Left} {
		if r < -1 || r >= s.numMetas {
			return s.fail(badIndex("line region", r, s.numMetas))
		}
	}

	ln := &s.m.Lines[rec.Index]
	ln.V1 = rec.V1
	ln.V2 = rec.V2
	ln.MetaSec[0] = regionOrNull(rec.Right)
	ln.MetaSec[1] = regionOrNull(rec.Left)
	ln.SpecLine = botmap.NoSpecLine
	if rec.Tag >= 0 {
		ln.SpecLine = rec.Tag
	}

	s.cache.WriteIndex(rec.V1)
	s.cache.WriteIndex(rec.V2)
	s.cache.WriteIndex(rec.Right)
	s.cache.WriteIndex(rec.Left)
	return nil
}

func regionOrNull(r int) int {
	if r < 0 {
		return botmap.NullMetaSector
	}
	return r
}

func (s *MapSink) CreateLeafArray(n int) error {
	if s.err != nil {
		return s.err
	}
	if n < 0 {
		return s.fail(badIndex("subsector count", n, 0))
	}
	s.m.Subsectors = make([]botmap.Subsector, n)
	s.putLeaves = make([]bool, n)
	s.cache.Section("subsectors")
	s.cache.WriteIndex(n)
	return nil
}

func (s *MapSink) PutLeaf(first, count, index int) error {
	if s.err != nil {
		return s.err
	}
	nsegs := len(s.m.Segs)
	if err := markPut(s.putLeaves, "subsector", index); err != nil {
		return s.fail(err)
	}
	if first < 0 || count < 1 || first+count > nsegs {
		return s.fail(fmt.Errorf("%w: subsector %d segs %d..%d (have %d)",
			ErrBadIndex, index, first, first+count-1, nsegs))
	}

	ss := &s.m.Subsectors[index]
	ss.FirstSeg = first
	ss.NumSegs = count
	ss.MetaSec = botmap.NullMetaSector
	msecSet := false

	var A, Cx, Cy float64
	for i := first; i < first+count; i++ {
		sg := &s.m.Segs[i]
		if sg.Owner != botmap.NoLeaf {
			return s.fail(fmt.Errorf("%w: seg %d claimed by subsectors %d and %d",
				ErrBadIndex, i, sg.Owner, index))
		}
		// set the owner reference from this seg to this subsector
		sg.Owner = index

		// Set the neighbours. A subsector is linked with the other one when
		// the latter of the two gets put
		if sg.Partner != botmap.NoSeg {
			other := s.m.Segs[sg.Partner].Owner
			if other != botmap.NoLeaf && other != index && !hasNeigh(ss, other) {
				ss.Neighs = append(ss.Neighs, botmap.Neigh{Leaf: other, Seg: i})
				oss := &s.m.Subsectors[other]
				oss.Neighs = append(oss.Neighs, botmap.Neigh{Leaf: index,
					Seg: sg.Partner})
			}
		}

		// set the metasector if not set already
		if !msecSet && sg.Line != botmap.NoLine {
			if sg.IsBack {
				ss.MetaSec = s.m.Lines[sg.Line].MetaSec[1]
			} else {
				ss.MetaSec = s.m.Lines[sg.Line].MetaSec[0]
			}
			msecSet = true
		}

		v1 := s.m.Vertices[sg.V1]
		v2 := s.m.Vertices[sg.V2]
		x0, y0 := v1.X.Float(), v1.Y.Float()
		x1, y1 := v2.X.Float(), v2.Y.Float()
		tmp := x0*y1 - x1*y0
		A += tmp
		Cx += tmp * (x0 + x1)
		Cy += tmp * (y0 + y1)
	}
	A /= 2
	// segs go clockwise, which makes the signed area negative
	if -A <= 0 {
		return s.fail(fmt.Errorf("%w: subsector %d has area %g", ErrDegenerateLeaf,
			index, -A))
	}
	Cx /= A * 6
	Cy /= A * 6
	ss.Mid.X = fixed.FromFloat(Cx)
	ss.Mid.Y = fixed.FromFloat(Cy)

	s.cache.WriteIndex(first)
	s.cache.WriteIndex(count)
	return nil
}

func hasNeigh(ss *botmap.Subsector, leaf int) bool {
	for _, n := range ss.Neighs {
		if n.Leaf == leaf {
			return true
		}
	}
	return false
}

func (s *MapSink) CreateNodeArray(n int) error {
	if s.err != nil {
		return s.err
	}
	if n < 0 {
		return s.fail(badIndex("node count", n, 0))
	}
	s.m.Nodes = make([]botmap.Node, n)
	s.putNodes = make([]bool, n)
	s.cache.Section("nodes")
	s.cache.WriteIndex(n)
	return nil
}

func (s *MapSink) PutNode(rec NodeRecord) error {
	if s.err != nil {
		return s.err
	}
	if err := markPut(s.putNodes, "node", rec.Index); err != nil {
		return s.fail(err)
	}
	right, err := s.child(rec.Right, rec.RightIsLeaf)
	if err != nil {
		return s.fail(err)
	}
	left, err := s.child(rec.Left, rec.LeftIsLeaf)
	if err != nil {
		return s.fail(err)
	}
	s.m.Nodes[rec.Index] = botmap.Node{
		X:     rec.X,
		Y:     rec.Y,
		Dx:    rec.Dx,
		Dy:    rec.Dy,
		Child: [2]botmap.Child{right, left},
	}

	s.cache.WriteFixed(rec.X)
	s.cache.WriteFixed(rec.Y)
	s.cache.WriteFixed(rec.Dx)
	s.cache.WriteFixed(rec.Dy)
	s.cache.WriteIndex(rec.Right)
	s.cache.WriteIndex(rec.Left)
	s.cache.WriteBool(rec.RightIsLeaf)
	s.cache.WriteBool(rec.LeftIsLeaf)
	return nil
}

func (s *MapSink) child(idx int, isLeaf bool) (botmap.Child, error) {
	if isLeaf {
		if idx < 0 || idx >= len(s.m.Subsectors) {
			return botmap.Child{}, badIndex("child subsector", idx, len(s.m.Subsectors))
		}
		return botmap.LeafChild(idx), nil
	}
	if idx < 0 || idx >= len(s.m.Nodes) {
		return botmap.Child{}, badIndex("child node", idx, len(s.m.Nodes))
	}
	return botmap.NodeChild(idx), nil
}

// Finish checks that everything announced was put. A map with missing parts
// has zero values where they should be, which can't be allowed to be used
func (s *MapSink) Finish() error {
	if s.err != nil {
		return s.err
	}
	if s.putVerts == nil || s.putSegs == nil || s.putLines == nil ||
		s.putLeaves == nil || s.putNodes == nil {
		return s.fail(fmt.Errorf("%w: partitioner output is incomplete", ErrPartitioner))
	}
	for _, arr := range []struct {
		what string
		put  []bool
	}{
		{"vertex", s.putVerts},
		{"seg", s.putSegs},
		{"line", s.putLines},
		{"subsector", s.putLeaves},
		{"node", s.putNodes},
	} {
		for i, ok := range arr.put {
			if !ok {
				return s.fail(fmt.Errorf("%w: %s %d never put", ErrBadIndex, arr.what, i))
			}
		}
	}
	return nil
}
