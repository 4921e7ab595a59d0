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

// build
package glbridge

import (
	"fmt"
	"io"
	"reflect"

	"github.com/vigilantdoomer/botmap/internal/botmap"
	"github.com/vigilantdoomer/botmap/internal/fixed"
	"github.com/vigilantdoomer/botmap/internal/level"
	"github.com/vigilantdoomer/botmap/internal/logger"
)

type Options struct {
	MaxStep   *fixed.Fixed // nil means botmap.DEFAULT_MAX_STEP
	CellUnits int          // zero means botmap.DEFAULT_BLOCK_UNITS
	Cache     CacheOptions
	Observer  Observer // nil means NopObserver
}

func (o *Options) params(tm *level.TempMap) botmap.Params {
	return botmap.Params{
		Radius:    tm.Radius,
		MaxStep:   o.MaxStep,
		CellUnits: o.CellUnits,
		Bounds:    tm.Blockmap,
	}
}

// Build makes the bot map of the temp map with the help of partitioner. If
// cache is not nil, the cache stream is written to it. On error, no map is
// returned: whatever got built is unusable
func Build(tm *level.TempMap, partitioner Partitioner, cache io.Writer,
	opts Options) (*botmap.Map, error) {
	obs := opts.Observer
	if obs == nil {
		obs = NopObserver{}
	}
	m := botmap.NewMap(opts.params(tm))

	var stream *CacheStream
	if cache != nil {
		var err error
		stream, err = NewCacheStream(cache, opts.Cache)
		if err != nil {
			return nil, err
		}
	}

	src := NewTempMapSource(tm)
	sink := NewMapSink(m, src, stream)

	obs.BeginPhase("Building bot map")
	err := partitioner.Partition(src, sink, obs)
	obs.EndPhase("Building bot map")
	if err == nil {
		err = sink.Finish()
	} else if sink.Err() == nil {
		// failure of the partitioner itself, rather than of its output
		err = fmt.Errorf("%w: %w", ErrPartitioner, err)
	}
	if err == nil {
		err = Validate(m)
	}

	written, errCache := stream.Close()
	if err != nil {
		return nil, fmt.Errorf("bot map of %s: %w", tm.Name, err)
	}
	if errCache != nil {
		return nil, fmt.Errorf("bot map of %s: %w", tm.Name, errCache)
	}
	if stream != nil {
		logger.Log.Verbose(1, "Bot map cache stream: %d bytes\n", written)
	}
	return m, nil
}

// Validate checks what can't be checked while the map is built: that every
// subsector can be reached from the root, and that every seg belongs to some
// subsector
func Validate(m *botmap.Map) error {
	if len(m.Subsectors) == 0 {
		return fmt.Errorf("%w: there are no subsectors", ErrUnreachableLeaf)
	}
	for i := range m.Segs {
		if m.Segs[i].Owner == botmap.NoLeaf {
			return fmt.Errorf("%w: seg %d", ErrUnownedSeg, i)
		}
	}

	reached := make([]bool, len(m.Subsectors))
	visited := make([]bool, len(m.Nodes))
	stack := []botmap.Child{m.Root()}
	for len(stack) > 0 {
		c := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if c.IsLeaf() {
			reached[c.Index()] = true
			continue
		}
		if visited[c.Index()] {
			return fmt.Errorf("%w: node %d is reached twice", ErrUnreachableLeaf,
				c.Index())
		}
		visited[c.Index()] = true
		node := &m.Nodes[c.Index()]
		stack = append(stack, node.Child[0], node.Child[1])
	}
	for i, ok := range reached {
		if !ok {
			return fmt.Errorf("%w: subsector %d", ErrUnreachableLeaf, i)
		}
	}
	return nil
}

// Reload builds a map of tm from a cache stream instead of partitioning. Used
// to verify a freshly written cache
func Reload(r io.Reader, tm *level.TempMap, opts Options) (*botmap.Map, error) {
	m := botmap.NewMap(opts.params(tm))
	sink := NewMapSink(m, RegionsOf(tm), nil)
	if err := Replay(r, sink); err != nil {
		return nil, err
	}
	if err := sink.Finish(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorruptCache, err)
	}
	if err := Validate(m); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorruptCache, err)
	}
	return m, nil
}

// SameGeometry reports the first difference between what two maps were
// built into, or nil. Special line associations are not compared, the cache
// doesn't keep them
func SameGeometry(a, b *botmap.Map) error {
	if !reflect.DeepEqual(a.Vertices, b.Vertices) {
		return fmt.Errorf("vertices differ")
	}
	if !reflect.DeepEqual(a.Segs, b.Segs) {
		return fmt.Errorf("segs differ")
	}
	if len(a.Lines) != len(b.Lines) {
		return fmt.Errorf("line count differs: %d vs %d", len(a.Lines), len(b.Lines))
	}
	for i := range a.Lines {
		la, lb := a.Lines[i], b.Lines[i]
		if la.V1 != lb.V1 || la.V2 != lb.V2 || la.MetaSec != lb.MetaSec {
			return fmt.Errorf("line %d differs", i)
		}
	}
	if !reflect.DeepEqual(a.Subsectors, b.Subsectors) {
		return fmt.Errorf("subsectors differ")
	}
	if !reflect.DeepEqual(a.Nodes, b.Nodes) {
		return fmt.Errorf("nodes differ")
	}
	return nil
}
