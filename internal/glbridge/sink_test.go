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

// sink_test.go
package glbridge

import (
	"bytes"
	"errors"
	"io"
	"testing"

	"github.com/vigilantdoomer/botmap/internal/botmap"
	"github.com/vigilantdoomer/botmap/internal/fixed"
	"github.com/vigilantdoomer/botmap/internal/level"
)

// scriptPartitioner reads everything from the source, then pushes whatever
// the script says
type scriptPartitioner struct {
	script func(dst Sink) error
}

func (p *scriptPartitioner) Partition(src Source, dst Sink, obs Observer) error {
	for {
		if _, _, ok := src.NextVertex(); !ok {
			break
		}
	}
	for {
		if _, _, ok := src.NextRegion(); !ok {
			break
		}
	}
	for {
		if _, ok := src.NextRegionIndex(); !ok {
			break
		}
	}
	for {
		if _, ok := src.NextLine(); !ok {
			break
		}
	}
	return p.script(dst)
}

func fx(i int) fixed.Fixed {
	return fixed.FromInt(i)
}

// twoRooms: two 64x64 squares side by side, regions 0 and 1, with a
// two-sided line between them
//
//	1----4----5
//	|    |    |
//	0----3----2   (vertex 3 at x=64, vertex 2 at x=128)
func twoRooms() *level.TempMap {
	return &level.TempMap{
		Name:   "TWOROOMS",
		Radius: fx(16),
		Vertices: []level.Vertex{
			{X: fx(0), Y: fx(0)}, {X: fx(0), Y: fx(64)}, {X: fx(128), Y: fx(0)},
			{X: fx(64), Y: fx(0)}, {X: fx(64), Y: fx(64)}, {X: fx(128), Y: fx(64)},
		},
		MetaSectors: []level.MetaSector{
			{Floor: fx(0), Ceiling: fx(128)},
			{Floor: fx(8), Ceiling: fx(128)},
		},
		Lines: []level.Line{
			{V1: 0, V2: 1, Right: 0, Left: -1, Tag: -1},
			{V1: 1, V2: 4, Right: 0, Left: -1, Tag: -1},
			{V1: 4, V2: 5, Right: 1, Left: -1, Tag: -1},
			{V1: 5, V2: 2, Right: 1, Left: -1, Tag: -1},
			{V1: 2, V2: 3, Right: 1, Left: -1, Tag: -1},
			{V1: 3, V2: 0, Right: 0, Left: -1, Tag: 7},
			{V1: 3, V2: 4, Right: 1, Left: 0, Tag: -1},
		},
		Blockmap: botmap.LevelBlockmap{Width: 2, Height: 1},
	}
}

// pushTwoRooms is what a partitioner would produce for twoRooms: one node
// along the middle line, a subsector on each side of it
func pushTwoRooms(dst Sink, partnerOf func(i int) int) error {
	steps := []func() error{
		func() error { return dst.CreateVertexArray(6) },
	}
	verts := [][2]int{{0, 0}, {0, 64}, {128, 0}, {64, 0}, {64, 64}, {128, 64}}
	for i, v := range verts {
		i, v := i, v
		steps = append(steps, func() error { return dst.PutVertex(fx(v[0]), fx(v[1]), i) })
	}
	segs := []SegRecord{
		// right subsector: x in 64..128
		{V1: 3, V2: 4, Line: 6, Partner: 6},
		{V1: 4, V2: 5, Line: 2, Partner: -1},
		{V1: 5, V2: 2, Line: 3, Partner: -1},
		{V1: 2, V2: 3, Line: 4, Partner: -1},
		// left subsector: x in 0..64
		{V1: 0, V2: 1, Line: 0, Partner: -1},
		{V1: 1, V2: 4, Line: 1, Partner: -1},
		{V1: 4, V2: 3, Line: 6, IsBack: true, Partner: 0},
		{V1: 3, V2: 0, Line: 5, Partner: -1},
	}
	steps = append(steps, func() error { return dst.CreateSegArray(len(segs)) })
	for i, sg := range segs {
		sg := sg
		sg.Index = i
		if partnerOf != nil {
			sg.Partner = partnerOf(i)
		}
		steps = append(steps, func() error { return dst.PutSeg(sg) })
	}
	lines := []LineRecord{
		{V1: 0, V2: 1, Right: 0, Left: -1, Tag: -1},
		{V1: 1, V2: 4, Right: 0, Left: -1, Tag: -1},
		{V1: 4, V2: 5, Right: 1, Left: -1, Tag: -1},
		{V1: 5, V2: 2, Right: 1, Left: -1, Tag: -1},
		{V1: 2, V2: 3, Right: 1, Left: -1, Tag: -1},
		{V1: 3, V2: 0, Right: 0, Left: -1, Tag: 7},
		{V1: 3, V2: 4, Right: 1, Left: 0, Tag: -1},
	}
	steps = append(steps, func() error { return dst.CreateLineArray(len(lines)) })
	for i, ln := range lines {
		ln := ln
		ln.Index = i
		steps = append(steps, func() error { return dst.PutLine(ln) })
	}
	steps = append(steps,
		func() error { return dst.CreateLeafArray(2) },
		func() error { return dst.PutLeaf(0, 4, 0) },
		func() error { return dst.PutLeaf(4, 4, 1) },
		func() error { return dst.CreateNodeArray(1) },
		func() error {
			return dst.PutNode(NodeRecord{X: fx(64), Y: fx(0), Dx: 0, Dy: fx(64),
				Right: 0, Left: 1, RightIsLeaf: true, LeftIsLeaf: true})
		},
	)
	for _, step := range steps {
		if err := step(); err != nil {
			return err
		}
	}
	return nil
}

func buildTwoRooms(t *testing.T, cache *bytes.Buffer, opts CacheOptions) *botmap.Map {
	p := &scriptPartitioner{script: func(dst Sink) error {
		return pushTwoRooms(dst, nil)
	}}
	var w io.Writer
	if cache != nil {
		w = cache
	}
	m, err := Build(twoRooms(), p, w, Options{Cache: opts})
	if err != nil {
		t.Fatalf("Build failed: %s", err.Error())
	}
	return m
}

func TestSinkCrossLinks(t *testing.T) {
	m := buildTwoRooms(t, nil, CacheOptions{})
	if m.Segs[0].Partner != 6 || m.Segs[6].Partner != 0 {
		t.Errorf("partners not linked: %d, %d", m.Segs[0].Partner, m.Segs[6].Partner)
	}
	for i := 1; i < len(m.Segs); i++ {
		if i != 6 && m.Segs[i].Partner != botmap.NoSeg {
			t.Errorf("seg %d got partner %d", i, m.Segs[i].Partner)
		}
	}
	for i, sg := range m.Segs {
		want := 0
		if i >= 4 {
			want = 1
		}
		if sg.Owner != want {
			t.Errorf("seg %d owned by %d, want %d", i, sg.Owner, want)
		}
	}

	ss0 := m.Subsectors[0]
	ss1 := m.Subsectors[1]
	if ss0.MetaSec != 1 || ss1.MetaSec != 0 {
		t.Errorf("metasectors: %d, %d, want 1, 0", ss0.MetaSec, ss1.MetaSec)
	}
	if len(ss0.Neighs) != 1 || ss0.Neighs[0] != (botmap.Neigh{Leaf: 1, Seg: 0}) {
		t.Errorf("neighbours of subsector 0: %v", ss0.Neighs)
	}
	if len(ss1.Neighs) != 1 || ss1.Neighs[0] != (botmap.Neigh{Leaf: 0, Seg: 6}) {
		t.Errorf("neighbours of subsector 1: %v", ss1.Neighs)
	}

	if ss0.Mid != (botmap.Vertex{X: fx(96), Y: fx(32)}) {
		t.Errorf("centroid of subsector 0 is (%s, %s), want (96, 32)",
			ss0.Mid.X, ss0.Mid.Y)
	}
	if ss1.Mid != (botmap.Vertex{X: fx(32), Y: fx(32)}) {
		t.Errorf("centroid of subsector 1 is (%s, %s), want (32, 32)",
			ss1.Mid.X, ss1.Mid.Y)
	}

	sg := m.Segs[2] // (128,64) -> (128,0)
	if sg.Dx != 0 || sg.Dy != -fx(64) {
		t.Errorf("seg 2 direction (%s, %s)", sg.Dx, sg.Dy)
	}
	if sg.Mid != (botmap.Vertex{X: fx(128), Y: fx(32)}) {
		t.Errorf("seg 2 mid-point (%s, %s)", sg.Mid.X, sg.Mid.Y)
	}
	if sg.BBox != [4]fixed.Fixed{fx(64), fx(0), fx(128), fx(128)} {
		t.Errorf("seg 2 bbox %v", sg.BBox)
	}
	if len(sg.Blocks) == 0 {
		t.Errorf("seg 2 not in the grid")
	}
	for _, b := range sg.Blocks {
		found := false
		for _, s := range m.Grid.SegsInBlock(b) {
			if s == 2 {
				found = true
			}
		}
		if !found {
			t.Errorf("block %d doesn't list seg 2", b)
		}
	}

	if m.Lines[5].SpecLine != 7 {
		t.Errorf("line 5 special line %d, want 7", m.Lines[5].SpecLine)
	}
	if m.Lines[0].SpecLine != botmap.NoSpecLine {
		t.Errorf("line 0 special line %d, want none", m.Lines[0].SpecLine)
	}
	if m.Lines[6].MetaSec != [2]int{1, 0} {
		t.Errorf("line 6 metasectors %v", m.Lines[6].MetaSec)
	}

	if m.PointInSubsector(fx(100), fx(10)) != 0 {
		t.Errorf("point (100, 10) not in subsector 0")
	}
	if m.PointInSubsector(fx(10), fx(50)) != 1 {
		t.Errorf("point (10, 50) not in subsector 1")
	}
}

func TestSinkForwardPartnerMustBeAnswered(t *testing.T) {
	// seg 0 names seg 6, but seg 6 names nobody
	p := &scriptPartitioner{script: func(dst Sink) error {
		return pushTwoRooms(dst, func(i int) int {
			if i == 0 {
				return 6
			}
			return -1
		})
	}}
	_, err := Build(twoRooms(), p, nil, Options{})
	if !errors.Is(err, ErrPartnerOrder) {
		t.Errorf("expected ErrPartnerOrder, got %v", err)
	}
}

func TestSinkPartnerMismatch(t *testing.T) {
	// seg 0 names seg 7, seg 6 names seg 0
	p := &scriptPartitioner{script: func(dst Sink) error {
		return pushTwoRooms(dst, func(i int) int {
			switch i {
			case 0:
				return 7
			case 6:
				return 0
			}
			return -1
		})
	}}
	_, err := Build(twoRooms(), p, nil, Options{})
	if !errors.Is(err, ErrPartnerOrder) {
		t.Errorf("expected ErrPartnerOrder, got %v", err)
	}
}

func TestSinkBackwardOnlyPartner(t *testing.T) {
	// only the later seg names the earlier one, that is enough
	p := &scriptPartitioner{script: func(dst Sink) error {
		return pushTwoRooms(dst, func(i int) int {
			if i == 6 {
				return 0
			}
			return -1
		})
	}}
	m, err := Build(twoRooms(), p, nil, Options{})
	if err != nil {
		t.Fatalf("Build failed: %s", err.Error())
	}
	if m.Segs[0].Partner != 6 || m.Segs[6].Partner != 0 {
		t.Errorf("partners not linked")
	}
}

func TestSinkRejectsBadIndices(t *testing.T) {
	m := botmap.NewMap(botmap.Params{Radius: fx(16),
		Bounds: botmap.LevelBlockmap{Width: 1, Height: 1}})
	sink := NewMapSink(m, StaticRegions{{Floor: 0, Ceiling: fx(64)}}, nil)
	if err := sink.CreateVertexArray(2); err != nil {
		t.Fatalf("CreateVertexArray: %s", err.Error())
	}
	if err := sink.PutVertex(0, 0, 2); !errors.Is(err, ErrBadIndex) {
		t.Errorf("expected ErrBadIndex, got %v", err)
	}
	// first error sticks
	if err := sink.PutVertex(0, 0, 0); !errors.Is(err, ErrBadIndex) {
		t.Errorf("expected sticky ErrBadIndex, got %v", err)
	}

	sink = NewMapSink(botmap.NewMap(botmap.Params{
		Bounds: botmap.LevelBlockmap{Width: 1, Height: 1}}),
		StaticRegions{{Floor: 0, Ceiling: fx(64)}}, nil)
	sink.CreateVertexArray(2)
	sink.PutVertex(0, 0, 0)
	sink.PutVertex(fx(64), 0, 1)
	sink.CreateSegArray(1)
	err := sink.PutSeg(SegRecord{V1: 0, V2: 5, Line: -1, Partner: -1})
	if !errors.Is(err, ErrBadIndex) {
		t.Errorf("expected ErrBadIndex for missing vertex, got %v", err)
	}
}

func TestSinkDegenerateLeaf(t *testing.T) {
	m := botmap.NewMap(botmap.Params{
		Bounds: botmap.LevelBlockmap{Width: 1, Height: 1}})
	sink := NewMapSink(m, StaticRegions{{Floor: 0, Ceiling: fx(64)}}, nil)
	steps := []error{
		sink.CreateVertexArray(3),
		sink.PutVertex(0, 0, 0),
		sink.PutVertex(fx(32), 0, 1),
		sink.PutVertex(fx(64), 0, 2),
		sink.CreateSegArray(3),
		sink.PutSeg(SegRecord{V1: 0, V2: 1, Line: -1, Partner: -1, Index: 0}),
		sink.PutSeg(SegRecord{V1: 1, V2: 2, Line: -1, Partner: -1, Index: 1}),
		sink.PutSeg(SegRecord{V1: 2, V2: 0, Line: -1, Partner: -1, Index: 2}),
		sink.CreateLineArray(0),
		sink.CreateLeafArray(1),
	}
	for i, err := range steps {
		if err != nil {
			t.Fatalf("step %d failed: %s", i, err.Error())
		}
	}
	if err := sink.PutLeaf(0, 3, 0); !errors.Is(err, ErrDegenerateLeaf) {
		t.Errorf("expected ErrDegenerateLeaf, got %v", err)
	}
}

func TestSinkCounterClockwiseLeaf(t *testing.T) {
	m := botmap.NewMap(botmap.Params{
		Bounds: botmap.LevelBlockmap{Width: 1, Height: 1}})
	sink := NewMapSink(m, StaticRegions{{Floor: 0, Ceiling: fx(64)}}, nil)
	sink.CreateVertexArray(3)
	sink.PutVertex(0, 0, 0)
	sink.PutVertex(fx(64), 0, 1)
	sink.PutVertex(0, fx(64), 2)
	sink.CreateSegArray(3)
	sink.PutSeg(SegRecord{V1: 0, V2: 1, Line: -1, Partner: -1, Index: 0})
	sink.PutSeg(SegRecord{V1: 1, V2: 2, Line: -1, Partner: -1, Index: 1})
	sink.PutSeg(SegRecord{V1: 2, V2: 0, Line: -1, Partner: -1, Index: 2})
	sink.CreateLineArray(0)
	sink.CreateLeafArray(1)
	if err := sink.PutLeaf(0, 3, 0); !errors.Is(err, ErrDegenerateLeaf) {
		t.Errorf("expected ErrDegenerateLeaf, got %v", err)
	}
}

func TestBuildReportsUnreachableLeaf(t *testing.T) {
	// node points at the same subsector twice
	bad := &scriptPartitioner{script: func(dst Sink) error {
		return pushTwoRooms(&nodeRewriter{Sink: dst}, nil)
	}}
	_, err := Build(twoRooms(), bad, nil, Options{})
	if !errors.Is(err, ErrUnreachableLeaf) {
		t.Errorf("expected ErrUnreachableLeaf, got %v", err)
	}
}

// nodeRewriter makes both children of every node the first subsector
type nodeRewriter struct {
	Sink
}

func (n *nodeRewriter) PutNode(rec NodeRecord) error {
	rec.Left = rec.Right
	rec.LeftIsLeaf = rec.RightIsLeaf
	return n.Sink.PutNode(rec)
}

func TestBuildWrapsPartitionerFailure(t *testing.T) {
	boom := errors.New("out of vertices")
	p := &scriptPartitioner{script: func(dst Sink) error {
		return boom
	}}
	_, err := Build(twoRooms(), p, nil, Options{})
	if !errors.Is(err, ErrPartitioner) || !errors.Is(err, boom) {
		t.Errorf("expected ErrPartitioner wrapping the cause, got %v", err)
	}
}

func TestBuildIncompleteOutput(t *testing.T) {
	p := &scriptPartitioner{script: func(dst Sink) error {
		dst.CreateVertexArray(1)
		return nil
	}}
	_, err := Build(twoRooms(), p, nil, Options{})
	if err == nil {
		t.Errorf("incomplete output was accepted")
	}
}
