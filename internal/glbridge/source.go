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

// source
package glbridge

import (
	"github.com/vigilantdoomer/botmap/internal/botmap"
	"github.com/vigilantdoomer/botmap/internal/fixed"
	"github.com/vigilantdoomer/botmap/internal/level"
)

// Regions tells the sink what region indices of the partitioner output
// stand for
type Regions interface {
	NumMetaSectors() (int, bool)
	MetaSectorRef(i int) (botmap.MetaSector, bool)
}

// StaticRegions is Regions known in advance, as when replaying a cache
type StaticRegions []botmap.MetaSector

func (r StaticRegions) NumMetaSectors() (int, bool) {
	return len(r), true
}

func (r StaticRegions) MetaSectorRef(i int) (botmap.MetaSector, bool) {
	if i < 0 || i >= len(r) {
		return botmap.MetaSector{}, false
	}
	return r[i], true
}

// RegionsOf lists metasectors of the temp map in order
func RegionsOf(tm *level.TempMap) StaticRegions {
	res := make(StaticRegions, len(tm.MetaSectors))
	for i, ms := range tm.MetaSectors {
		res[i] = botmap.MetaSector{Floor: ms.Floor, Ceiling: ms.Ceiling}
	}
	return res
}

// TempMapSource feeds the temp bot map to the partitioner. It is good for one
// build only: cursors never rewind
type TempMapSource struct {
	tm *level.TempMap

	vertIndex  int
	msecIndex  int
	msecIndex2 int
	lineIndex  int

	// dense indices handed out so far, in the order of emission
	vertRefs []int
	msecRefs []int
	// -1 until the region cursor has been exhausted
	numMetas int
}

func NewTempMapSource(tm *level.TempMap) *TempMapSource {
	return &TempMapSource{
		tm:       tm,
		numMetas: -1,
	}
}

func (s *TempMapSource) NextVertex() (fixed.Fixed, fixed.Fixed, bool) {
	if s.vertIndex >= len(s.tm.Vertices) {
		return 0, 0, false
	}
	v := s.tm.Vertices[s.vertIndex]
	s.vertRefs = append(s.vertRefs, s.vertIndex)
	s.vertIndex++
	return v.X, v.Y, true
}

// NextRegion returns heights truncated to whole units. The partitioner only
// needs them for reference, the bot map takes real heights from the temp map
func (s *TempMapSource) NextRegion() (int, int, bool) {
	if s.msecIndex >= len(s.tm.MetaSectors) {
		s.numMetas = len(s.msecRefs)
		return 0, 0, false
	}
	ms := s.tm.MetaSectors[s.msecIndex]
	s.msecRefs = append(s.msecRefs, s.msecIndex)
	s.msecIndex++
	return ms.Floor.Int(), ms.Ceiling.Int(), true
}

// NextRegionIndex gives out one "sidedef" per metasector, each referring to
// its metasector
func (s *TempMapSource) NextRegionIndex() (int, bool) {
	if s.msecIndex2 >= len(s.tm.MetaSectors) {
		return 0, false
	}
	idx := s.msecIndex2
	s.msecIndex2++
	return idx, true
}

func (s *TempMapSource) NextLine() (LineDef, bool) {
	if s.lineIndex >= len(s.tm.Lines) {
		return LineDef{}, false
	}
	ln := s.tm.Lines[s.lineIndex]
	s.lineIndex++
	return LineDef{
		V1:    ln.V1,
		V2:    ln.V2,
		Right: ln.Right,
		Left:  ln.Left,
		Tag:   ln.Tag,
	}, true
}

// NumMetaSectors is the metasector count, known once the partitioner has
// read all regions. Until then it reports false
func (s *TempMapSource) NumMetaSectors() (int, bool) {
	return s.numMetas, s.numMetas >= 0
}

// MetaSectorRef maps dense region index back to the temp map metasector
func (s *TempMapSource) MetaSectorRef(i int) (botmap.MetaSector, bool) {
	if i < 0 || i >= len(s.msecRefs) {
		return botmap.MetaSector{}, false
	}
	ms := s.tm.MetaSectors[s.msecRefs[i]]
	return botmap.MetaSector{Floor: ms.Floor, Ceiling: ms.Ceiling}, true
}

// NumVertices is the count of vertices pulled so far
func (s *TempMapSource) NumVertices() int {
	return len(s.vertRefs)
}
