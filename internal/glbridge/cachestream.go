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

// cachestream.go implements the bot map cache stream, optionally compressed.
// Layout is the same regardless of compression: all values little endian,
// each array is its u32 count followed by the records.
//
//	vertex: x s32, y s32
//	seg:    v1 u32, v2 u32, isBack u8, line u32, partner u32
//	line:   v1 u32, v2 u32, right u32, left u32
//	leaf:   firstSeg u32, count u32
//	node:   x s32, y s32, dx s32, dy s32, right u32, left u32,
//	        rightIsLeaf u8, leftIsLeaf u8
//
// "None" indices (-1) are stored as 0xFFFFFFFF.
package glbridge

import (
	"encoding/binary"
	"io"

	"github.com/klauspost/compress/zstd"
	"github.com/vigilantdoomer/botmap/internal/fixed"
)

// Once this much is pending, it is handed to the write bus
const CACHE_FLUSH_SIZE = 64 * 1024

// Sizes of records, in bytes
const (
	VERTEX_RECORD_SIZE = 8
	SEG_RECORD_SIZE    = 17
	LINE_RECORD_SIZE   = 16
	LEAF_RECORD_SIZE   = 8
	NODE_RECORD_SIZE   = 26
)

type CacheOptions struct {
	Compress bool
	Level    int // zstd level, 1 (fastest) to 4 (best), 0 is the default
}

// CacheStream serializes values in the order they are written. Writes never
// fail by themselves, errors of the destination come from Close
type CacheStream struct {
	pending    []byte
	section    string
	bus        *WriteBusControl
	compressor *zstd.Encoder
}

func NewCacheStream(dst io.Writer, opts CacheOptions) (*CacheStream, error) {
	c := &CacheStream{
		pending: make([]byte, 0, CACHE_FLUSH_SIZE),
	}
	if opts.Compress {
		level := zstd.EncoderLevel(opts.Level)
		if opts.Level == 0 {
			level = zstd.SpeedDefault
		}
		enc, err := zstd.NewWriter(dst, zstd.WithEncoderLevel(level))
		if err != nil {
			return nil, err
		}
		c.compressor = enc
		dst = enc
	}
	c.bus = StartWriteBus(dst)
	return c, nil
}

// Section names the data written from now on, for error messages
func (c *CacheStream) Section(name string) {
	if c == nil {
		return
	}
	c.flush()
	c.section = name
}

func (c *CacheStream) WriteUint32(v uint32) {
	if c == nil {
		return
	}
	c.pending = binary.LittleEndian.AppendUint32(c.pending, v)
	c.maybeFlush()
}

func (c *CacheStream) WriteSint32(v int32) {
	c.WriteUint32(uint32(v))
}

func (c *CacheStream) WriteIndex(v int) {
	c.WriteUint32(uint32(int32(v)))
}

func (c *CacheStream) WriteFixed(v fixed.Fixed) {
	c.WriteUint32(uint32(v))
}

func (c *CacheStream) WriteUint8(v uint8) {
	if c == nil {
		return
	}
	c.pending = append(c.pending, v)
	c.maybeFlush()
}

func (c *CacheStream) WriteBool(v bool) {
	if v {
		c.WriteUint8(1)
	} else {
		c.WriteUint8(0)
	}
}

func (c *CacheStream) maybeFlush() {
	if len(c.pending) >= CACHE_FLUSH_SIZE {
		c.flush()
	}
}

func (c *CacheStream) flush() {
	if len(c.pending) == 0 {
		return
	}
	c.bus.WriteSection(c.pending, c.section)
	c.pending = make([]byte, 0, CACHE_FLUSH_SIZE)
}

// Close writes out everything still pending, and finishes compression. It
// returns number of bytes handed to destination (before compression, if it
// was used) and the first error encountered. Must be called exactly once
func (c *CacheStream) Close() (int64, error) {
	if c == nil {
		return 0, nil
	}
	c.flush()
	written, err := c.bus.Shutdown()
	if c.compressor != nil {
		errClose := c.compressor.Close()
		if err == nil {
			err = errClose
		}
		c.compressor = nil
	}
	return written, err
}
