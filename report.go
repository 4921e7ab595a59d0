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
// report
package main

import (
	"github.com/vigilantdoomer/botmap/internal/botmap"
	"github.com/vigilantdoomer/botmap/internal/fixed"
	"github.com/vigilantdoomer/botmap/internal/level"
	"github.com/vigilantdoomer/botmap/internal/logger"
)

type mapReport struct {
	vertices, segs, lines, subsectors, nodes int
	voids                                   int
	cells                                   int
	height                                  fixed.Fixed
	// neighbour links, counted once per direction
	links, passable int
	things          int
	monsters        []monsterPlace
	specLines       []specLinePlace
}

type monsterPlace struct {
	id     botmap.ThingID
	leaves []int
}

type specLinePlace struct {
	id     int
	leaves []int // empty if bot can't trigger the line
}

// summarize expects things and special lines already placed on the map
func summarize(m *botmap.Map, lvl *level.Level, height fixed.Fixed) *mapReport {
	r := &mapReport{
		vertices:   len(m.Vertices),
		segs:       len(m.Segs),
		lines:      len(m.Lines),
		subsectors: len(m.Subsectors),
		nodes:      len(m.Nodes),
		cells:      m.Grid.NumBlocks(),
		height:     height,
		things:     len(lvl.Things),
	}
	for i := range m.Subsectors {
		if m.Subsectors[i].MetaSec == botmap.NullMetaSector {
			r.voids++
		}
		for _, n := range m.Subsectors[i].Neighs {
			r.links++
			if m.CanPass(i, n.Leaf, height) {
				r.passable++
			}
		}
	}
	occ := m.Occupancy()
	for _, id := range botmap.LivingMonsters(lvl.Things) {
		r.monsters = append(r.monsters, monsterPlace{id: id, leaves: occ.LeavesOf(id)})
	}
	for i := range lvl.SpecLines {
		id := lvl.SpecLines[i].ID
		r.specLines = append(r.specLines, specLinePlace{id: id,
			leaves: occ.LeavesOfLine(id)})
	}
	return r
}

func (r *mapReport) print() {
	log := logger.Log
	log.Printf("Bot map: %d vertices, %d segs, %d lines, %d subsectors (%d void), %d nodes\n",
		r.vertices, r.segs, r.lines, r.subsectors, r.voids, r.nodes)
	log.Printf("Grid: %d cells\n", r.cells)
	log.Printf("Bot of height %s can pass %d of %d neighbour links\n", r.height,
		r.passable, r.links)
	log.Printf("Things: %d, living monsters: %d\n", r.things, len(r.monsters))
	for _, mp := range r.monsters {
		log.Verbose(1, "  monster %d touches subsectors %v\n", mp.id, mp.leaves)
	}
	for _, sp := range r.specLines {
		if len(sp.leaves) == 0 {
			log.Verbose(1, "  special line %d can't be triggered by bot\n", sp.id)
			continue
		}
		log.Verbose(1, "  special line %d is triggered from subsector %v\n", sp.id,
			sp.leaves)
	}
}
