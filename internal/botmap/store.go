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

// Package botmap holds the bot helper map: an equivalent of the real level in
// which an actor with zero width fits into the same space as an actor with
// width does on the real level. The map is a BSP tree of convex subsectors,
// plus a grid of segs for proximity queries, and bookkeeping of which
// subsectors things and special lines are found in.
package botmap

import (
	"github.com/vigilantdoomer/botmap/internal/fixed"
)

// Sentinels for "no such object" in index fields
const (
	NoSeg          = -1
	NoLine         = -1
	NoLeaf         = -1
	NoSpecLine     = -1
	NullMetaSector = -1
)

// Bounding box sides, in the order used by m_bbox
const (
	BOXTOP = iota
	BOXBOTTOM
	BOXLEFT
	BOXRIGHT
)

type Vertex struct {
	X fixed.Fixed
	Y fixed.Fixed
}

// Seg is a directed boundary segment of a subsector. The subsector is on the
// right side of it
type Seg struct {
	V1, V2  int // indices into Map.Vertices
	Dx, Dy  fixed.Fixed
	IsBack  bool // seg runs against the direction of its line
	Line    int  // NoLine for segs along partition lines (minisegs)
	Partner int  // seg on the other side of the same boundary, or NoSeg
	Owner   int  // subsector, NoLeaf until the subsector is put
	Mid     Vertex
	BBox    [4]fixed.Fixed
	Blocks  []int // grid cells the seg was inserted into
}

type Line struct {
	V1, V2 int
	// [0] is the metasector on the right (front) side, [1] on the left (back)
	MetaSec  [2]int
	SpecLine int // gameplay line this one was derived from, if it is special
}

// Neigh is one adjacency of a subsector: Seg belongs to the subsector that
// owns this Neigh, Leaf is on the other side of it
type Neigh struct {
	Leaf int
	Seg  int
}

type Subsector struct {
	FirstSeg int
	NumSegs  int
	Mid      Vertex // centroid
	MetaSec  int
	Neighs   []Neigh
}

// Child of a node is either another node or a subsector
type Child struct {
	index int
	leaf  bool
}

func NodeChild(index int) Child {
	return Child{index: index}
}

func LeafChild(index int) Child {
	return Child{index: index, leaf: true}
}

func (c Child) IsLeaf() bool {
	return c.leaf
}

func (c Child) Index() int {
	return c.index
}

type Node struct {
	X, Y   fixed.Fixed
	Dx, Dy fixed.Fixed
	// [0] is right side, [1] is left side, just as PointOnSide returns
	Child [2]Child
}

// MetaSector is a merged height region. Floor/ceiling of the void
// metasector are MAXINT/MININT
type MetaSector struct {
	Floor   fixed.Fixed
	Ceiling fixed.Fixed
}

var VoidMetaSector = MetaSector{
	Floor:   fixed.MAXINT,
	Ceiling: fixed.MININT,
}

func (ms MetaSector) IsVoid() bool {
	return ms.Floor == fixed.MAXINT || ms.Ceiling == fixed.MININT
}

// Map is the whole bot map of the level session. Build code (glbridge) fills
// the arrays once, everything after that reads them
type Map struct {
	Vertices    []Vertex
	Segs        []Seg
	Lines       []Line
	Subsectors  []Subsector
	Nodes       []Node
	MetaSectors []MetaSector

	Radius fixed.Fixed // bot radius the geometry was inflated with
	// passability limits
	MaxStep fixed.Fixed

	Grid *Grid

	occ *Occupancy
}

// Params are what the level session gives to the new map
type Params struct {
	Radius    fixed.Fixed
	MaxStep   *fixed.Fixed // nil means DEFAULT_MAX_STEP, zero forbids step ups
	CellUnits int
	Bounds    LevelBlockmap
}

const DEFAULT_MAX_STEP = 24 * fixed.FRACUNIT

func NewMap(p Params) *Map {
	m := &Map{
		Radius:  p.Radius,
		MaxStep: DEFAULT_MAX_STEP,
	}
	if p.MaxStep != nil {
		m.MaxStep = *p.MaxStep
	}
	m.Grid = NewGrid(p.Bounds, p.Radius, p.CellUnits)
	m.occ = newOccupancy()
	return m
}

// MetaSectorOf returns metasector of the subsector, which is VoidMetaSector
// if none was assigned
func (m *Map) MetaSectorOf(leaf int) MetaSector {
	idx := m.Subsectors[leaf].MetaSec
	if idx == NullMetaSector {
		return VoidMetaSector
	}
	return m.MetaSectors[idx]
}

// LeafSegs returns segs of the subsector, in order
func (m *Map) LeafSegs(leaf int) []Seg {
	ss := &m.Subsectors[leaf]
	return m.Segs[ss.FirstSeg : ss.FirstSeg+ss.NumSegs]
}

// Root is where PointInSubsector starts its descent
func (m *Map) Root() Child {
	if len(m.Nodes) == 0 {
		return LeafChild(0)
	}
	return NodeChild(len(m.Nodes) - 1)
}

// Occupancy gives read access to thing and line membership
func (m *Map) Occupancy() *Occupancy {
	return m.occ
}
