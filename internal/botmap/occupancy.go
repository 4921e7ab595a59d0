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

// occupancy
package botmap

import (
	"sort"

	"github.com/vigilantdoomer/botmap/internal/fixed"
	"github.com/zyedidia/generic/mapset"
)

type ThingID int

type ThingFlags uint32

const (
	MF_SHOOTABLE ThingFlags = 1 << iota
	MF_NOBLOCKMAP
	MF_PLAYER
)

// Thing is a mobile entity of the host simulation, as the bot map sees it.
// The simulation owns things, here they are only referred to by ID
type Thing struct {
	ID     ThingID
	X, Y   fixed.Fixed
	Radius fixed.Fixed
	Health int
	Flags  ThingFlags
}

func (t *Thing) IsLivingMonster() bool {
	return t.Flags&MF_PLAYER == 0 && t.Flags&MF_SHOOTABLE != 0 &&
		t.Flags&MF_NOBLOCKMAP == 0 && t.Health > 0
}

// Occupancy keeps both directions of "what is in which subsector" in step:
// no method updates one side without the other
type Occupancy struct {
	thingLeaves map[ThingID]mapset.Set[int]
	leafThings  map[int]mapset.Set[ThingID]
	lineLeaves  map[int]mapset.Set[int]
	leafLines   map[int]mapset.Set[int]
}

func newOccupancy() *Occupancy {
	return &Occupancy{
		thingLeaves: make(map[ThingID]mapset.Set[int]),
		leafThings:  make(map[int]mapset.Set[ThingID]),
		lineLeaves:  make(map[int]mapset.Set[int]),
		leafLines:   make(map[int]mapset.Set[int]),
	}
}

func (o *Occupancy) linkThing(id ThingID, leaf int) {
	leaves, ok := o.thingLeaves[id]
	if !ok {
		leaves = mapset.New[int]()
		o.thingLeaves[id] = leaves
	}
	leaves.Put(leaf)
	things, ok := o.leafThings[leaf]
	if !ok {
		things = mapset.New[ThingID]()
		o.leafThings[leaf] = things
	}
	things.Put(id)
}

func (o *Occupancy) unlinkThing(id ThingID) {
	leaves, ok := o.thingLeaves[id]
	if !ok {
		return
	}
	leaves.Each(func(leaf int) {
		if things, ok := o.leafThings[leaf]; ok {
			things.Remove(id)
			if things.Size() == 0 {
				delete(o.leafThings, leaf)
			}
		}
	})
	delete(o.thingLeaves, id)
}

func (o *Occupancy) linkLine(line, leaf int) {
	leaves, ok := o.lineLeaves[line]
	if !ok {
		leaves = mapset.New[int]()
		o.lineLeaves[line] = leaves
	}
	leaves.Put(leaf)
	lines, ok := o.leafLines[leaf]
	if !ok {
		lines = mapset.New[int]()
		o.leafLines[leaf] = lines
	}
	lines.Put(line)
}

func (o *Occupancy) unlinkLine(line int) {
	leaves, ok := o.lineLeaves[line]
	if !ok {
		return
	}
	leaves.Each(func(leaf int) {
		if lines, ok := o.leafLines[leaf]; ok {
			lines.Remove(line)
			if lines.Size() == 0 {
				delete(o.leafLines, leaf)
			}
		}
	})
	delete(o.lineLeaves, line)
}

// ThingsIn returns things occupying subsector, sorted by ID
func (o *Occupancy) ThingsIn(leaf int) []ThingID {
	things, ok := o.leafThings[leaf]
	if !ok {
		return nil
	}
	res := make([]ThingID, 0, things.Size())
	things.Each(func(id ThingID) {
		res = append(res, id)
	})
	sort.Slice(res, func(i, j int) bool { return res[i] < res[j] })
	return res
}

// LeavesOf returns subsectors the thing occupies, sorted
func (o *Occupancy) LeavesOf(id ThingID) []int {
	return sortedInts(o.thingLeaves[id])
}

// LinesIn returns special lines that can be activated from subsector, sorted
func (o *Occupancy) LinesIn(leaf int) []int {
	return sortedInts(o.leafLines[leaf])
}

// LeavesOfLine returns subsectors special line can be activated from, sorted
func (o *Occupancy) LeavesOfLine(line int) []int {
	return sortedInts(o.lineLeaves[line])
}

func (o *Occupancy) HasThing(leaf int, id ThingID) bool {
	things, ok := o.leafThings[leaf]
	return ok && things.Has(id)
}

func sortedInts(set mapset.Set[int]) []int {
	if set.Size() == 0 {
		return nil
	}
	res := make([]int, 0, set.Size())
	set.Each(func(i int) {
		res = append(res, i)
	})
	sort.Ints(res)
	return res
}

// SetThingPosition registers the thing in every subsector its box (inflated
// by the bot radius) overlaps. Whatever was registered for the thing before
// is dropped first
func (m *Map) SetThingPosition(thing *Thing) {
	m.occ.unlinkThing(thing.ID)

	rad := thing.Radius + m.Radius

	top := thing.Y + rad
	bottom := thing.Y - rad
	left := thing.X - rad
	right := thing.X + rad

	foundlines := false
	m.Grid.BoxTouchedBlocks(top, bottom, left, right, func(b int) {
		// Iterate through all segs in the caught block
		for _, sgi := range m.Grid.SegsInBlock(b) {
			sg := &m.Segs[sgi]
			if sg.Owner == NoLeaf {
				continue
			}
			if right <= sg.BBox[BOXLEFT] || left >= sg.BBox[BOXRIGHT] ||
				top <= sg.BBox[BOXBOTTOM] || bottom >= sg.BBox[BOXTOP] {
				continue
			}
			v := &m.Vertices[sg.V1]
			if BoxOnLineSide(top, bottom, left, right, v.X, v.Y,
				sg.Dx, sg.Dy) == -1 {
				// if seg crosses thing bbox, add it
				m.occ.linkThing(thing.ID, sg.Owner)
				foundlines = true
			}
		}
	})

	if !foundlines {
		// not found any intersections, now it's time to set the pointInSubsector
		m.occ.linkThing(thing.ID, m.PointInSubsector(thing.X, thing.Y))
	}
}

// UnsetThingPosition forgets where the thing was. Unknown things are fine
func (m *Map) UnsetThingPosition(id ThingID) {
	m.occ.unlinkThing(id)
}

// SetMobjPositions makes sure all things of the level are registered on the
// bot map
func (m *Map) SetMobjPositions(things []Thing) {
	for i := range things {
		m.SetThingPosition(&things[i])
	}
}

// LivingMonsters lists things that are worth hunting
func LivingMonsters(things []Thing) []ThingID {
	var res []ThingID
	for i := range things {
		if things[i].IsLivingMonster() {
			res = append(res, things[i].ID)
		}
	}
	return res
}
