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

// Package glbridge connects the bot map to a BSP partitioner. The partitioner
// pulls inflated geometry from a Source and pushes its output - vertices,
// segs, lines, subsectors and nodes - into a Sink. The sink shipped here
// builds the botmap.Map out of that output and records every value into the
// cache stream as it goes.
package glbridge

import (
	"time"

	"github.com/vigilantdoomer/botmap/internal/fixed"
	"github.com/vigilantdoomer/botmap/internal/logger"
)

// LineDef is a line as the partitioner sees it. Right and Left are region
// indices, Tag identifies the special line, -1 meaning none for any of them
type LineDef struct {
	V1, V2 int
	Right  int
	Left   int
	Tag    int
}

// Source is the pull side. Each call advances a cursor, ok is false once the
// sequence is exhausted
type Source interface {
	NextVertex() (x, y fixed.Fixed, ok bool)
	// heights in whole map units
	NextRegion() (floor, ceil int, ok bool)
	NextRegionIndex() (int, bool)
	NextLine() (LineDef, bool)
}

type SegRecord struct {
	V1, V2  int
	IsBack  bool
	Line    int // -1 for minisegs
	Partner int // -1 if none
	Index   int
}

type LineRecord struct {
	V1, V2 int
	Right  int
	Left   int
	Index  int
	Tag    int
}

type NodeRecord struct {
	X, Y        fixed.Fixed
	Dx, Dy      fixed.Fixed
	Right, Left int
	RightIsLeaf bool
	LeftIsLeaf  bool
	Index       int
}

// Sink is the push side. Partitioner must announce a count with the Create
// call before putting the items of that kind. Any error returned aborts the
// build
type Sink interface {
	CreateVertexArray(n int) error
	PutVertex(x, y fixed.Fixed, index int) error
	CreateSegArray(n int) error
	PutSeg(rec SegRecord) error
	CreateLineArray(n int) error
	PutLine(rec LineRecord) error
	CreateLeafArray(n int) error
	PutLeaf(first, count, index int) error
	CreateNodeArray(n int) error
	PutNode(rec NodeRecord) error
}

// Partitioner builds BSP from whatever src gives and reports results to dst.
// Returning an error means fatal failure
type Partitioner interface {
	Partition(src Source, dst Sink, obs Observer) error
}

// Observer receives progress and diagnostics of the build. Nothing the
// observer does affects the result
type Observer interface {
	BeginPhase(name string)
	EndPhase(name string)
	Progress(done, total int)
	Diagnostic(msg string)
}

type NopObserver struct{}

func (NopObserver) BeginPhase(string) {}
func (NopObserver) EndPhase(string)   {}
func (NopObserver) Progress(int, int) {}
func (NopObserver) Diagnostic(string) {}

// LogObserver reports phases and their timing to the program log, at the
// given verbosity level
type LogObserver struct {
	Level  int
	starts map[string]time.Time
}

func NewLogObserver(level int) *LogObserver {
	return &LogObserver{
		Level:  level,
		starts: make(map[string]time.Time),
	}
}

func (o *LogObserver) BeginPhase(name string) {
	o.starts[name] = time.Now()
	logger.Log.Verbose(o.Level, "%s...\n", name)
}

func (o *LogObserver) EndPhase(name string) {
	start, ok := o.starts[name]
	if !ok {
		return
	}
	delete(o.starts, name)
	logger.Log.Verbose(o.Level, "%s took %s\n", name, time.Since(start))
}

func (o *LogObserver) Progress(done, total int) {
	logger.Log.Verbose(o.Level+1, "  %d/%d\n", done, total)
}

func (o *LogObserver) Diagnostic(msg string) {
	logger.Log.Verbose(o.Level, "%s\n", msg)
}
