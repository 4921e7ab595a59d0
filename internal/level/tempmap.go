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

// Package level is what the host gives to the bot map builder: geometry
// already inflated by the bot radius (the "temp" bot map), plus the parts of
// the real level the bot map keeps track of - special lines and things.
package level

import (
	"encoding/binary"
	"fmt"
	"math"
	"strconv"

	"github.com/cespare/xxhash/v2"
	"github.com/vigilantdoomer/botmap/internal/botmap"
	"github.com/vigilantdoomer/botmap/internal/fixed"
)

const NO_REGION = -1

const NO_TAG = -1

type Vertex struct {
	X, Y fixed.Fixed
}

// Line of inflated geometry. Right and Left are indices into
// TempMap.MetaSectors, or NO_REGION where the side faces the void. Tag is the
// index of the special line (in Level.SpecLines) this one was made from, or
// NO_TAG
type Line struct {
	V1, V2 int
	Right  int
	Left   int
	Tag    int
}

type MetaSector struct {
	Floor   fixed.Fixed
	Ceiling fixed.Fixed
}

// TempMap is the transient bot map: what the inflation step produced
type TempMap struct {
	Name        string
	Radius      fixed.Fixed
	Blockmap    botmap.LevelBlockmap
	Vertices    []Vertex
	MetaSectors []MetaSector
	Lines       []Line
}

// Level is everything the host supplies for one level session
type Level struct {
	Temp      *TempMap
	SpecLines []botmap.SpecLine
	Things    []botmap.Thing
}

// Validate checks all indices, so that nodebuilder can trust them
func (tm *TempMap) Validate() error {
	if len(tm.Vertices) == 0 || len(tm.Lines) == 0 {
		return fmt.Errorf("level %s: no geometry", tm.Name)
	}
	for i, ln := range tm.Lines {
		if ln.V1 < 0 || ln.V1 >= len(tm.Vertices) || ln.V2 < 0 ||
			ln.V2 >= len(tm.Vertices) {
			return fmt.Errorf("level %s: line %d references missing vertex", tm.Name, i)
		}
		if ln.V1 == ln.V2 || tm.Vertices[ln.V1] == tm.Vertices[ln.V2] {
			return fmt.Errorf("level %s: line %d has zero length", tm.Name, i)
		}
		for _, r := range [2]int{ln.Right, ln.Left} {
			if r != NO_REGION && (r < 0 || r >= len(tm.MetaSectors)) {
				return fmt.Errorf("level %s: line %d references missing metasector %d",
					tm.Name, i, r)
			}
		}
		if ln.Right == NO_REGION && ln.Left == NO_REGION {
			return fmt.Errorf("level %s: line %d faces void on both sides", tm.Name, i)
		}
	}
	return nil
}

// ComputeBlockmap derives the level blockmap the same way P_CreateBlockmap
// does: origin at the lowest coordinates, whole 128-unit blocks up to the
// highest ones
func (tm *TempMap) ComputeBlockmap() botmap.LevelBlockmap {
	Xmax := math.MinInt32
	Ymax := math.MinInt32
	Xmin := math.MaxInt32
	Ymin := math.MaxInt32
	for _, v := range tm.Vertices {
		x := v.X.Int()
		y := v.Y.Int()
		if x < Xmin {
			Xmin = x
		}
		if x > Xmax {
			Xmax = x
		}
		if y < Ymin {
			Ymin = y
		}
		if y > Ymax {
			Ymax = y
		}
	}
	return botmap.LevelBlockmap{
		OrgX:   fixed.FromInt(Xmin),
		OrgY:   fixed.FromInt(Ymin),
		Width:  (Xmax-Xmin)/botmap.MAPBLOCKUNITS + 1,
		Height: (Ymax-Ymin)/botmap.MAPBLOCKUNITS + 1,
	}
}

// Digest identifies geometry and radius, so the cache file produced from them
// can be told apart from caches of other levels
func (tm *TempMap) Digest() string {
	h := xxhash.New()
	put := func(v int32) {
		var b [4]byte
		binary.LittleEndian.PutUint32(b[:], uint32(v))
		h.Write(b[:])
	}
	put(int32(tm.Radius))
	put(int32(len(tm.Vertices)))
	for _, v := range tm.Vertices {
		put(int32(v.X))
		put(int32(v.Y))
	}
	put(int32(len(tm.MetaSectors)))
	for _, ms := range tm.MetaSectors {
		put(int32(ms.Floor))
		put(int32(ms.Ceiling))
	}
	put(int32(len(tm.Lines)))
	for _, ln := range tm.Lines {
		put(int32(ln.V1))
		put(int32(ln.V2))
		put(int32(ln.Right))
		put(int32(ln.Left))
		put(int32(ln.Tag))
	}
	return strconv.FormatUint(h.Sum64(), 16)
}

// CacheFileName is the name the bot map cache of this geometry is stored under
func (tm *TempMap) CacheFileName() string {
	return "botmap-" + tm.Digest() + ".cache"
}
