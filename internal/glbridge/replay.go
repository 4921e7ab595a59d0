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

// replay
package glbridge

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"
	"github.com/vigilantdoomer/botmap/internal/fixed"
)

// Counts above this can't be real, the stream is garbage
const MAX_CACHE_COUNT = 1 << 24

var zstdMagic = []byte{0x28, 0xB5, 0x2F, 0xFD}

// cacheReader reads little endian values. The first failure is kept, and
// every read after it returns zero
type cacheReader struct {
	r   *bufio.Reader
	buf [4]byte
	err error
}

func (cr *cacheReader) read(n int) []byte {
	if cr.err != nil {
		return nil
	}
	if _, err := io.ReadFull(cr.r, cr.buf[:n]); err != nil {
		cr.err = err
		return nil
	}
	return cr.buf[:n]
}

func (cr *cacheReader) u32() uint32 {
	b := cr.read(4)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint32(b)
}

func (cr *cacheReader) index() int {
	return int(int32(cr.u32()))
}

func (cr *cacheReader) coord() fixed.Fixed {
	return fixed.Fixed(int32(cr.u32()))
}

func (cr *cacheReader) flag() bool {
	b := cr.read(1)
	return b != nil && b[0] != 0
}

func (cr *cacheReader) count(what string) (int, error) {
	n := cr.u32()
	if cr.err != nil {
		return 0, cr.fail(what + " count")
	}
	if n > MAX_CACHE_COUNT {
		return 0, fmt.Errorf("%w: %s count %d", ErrCorruptCache, what, n)
	}
	return int(n), nil
}

func (cr *cacheReader) fail(what string) error {
	if errors.Is(cr.err, io.EOF) || errors.Is(cr.err, io.ErrUnexpectedEOF) {
		return fmt.Errorf("%w: stream ends inside %s", ErrCorruptCache, what)
	}
	return fmt.Errorf("%w: reading %s: %w", ErrCorruptCache, what, cr.err)
}

// Replay reads the cache stream back and makes the same calls to sink the
// partitioner made when the stream was recorded. Compressed streams are
// recognized on their own. Line tags are not part of the stream, lines are
// replayed without any
func Replay(r io.Reader, sink Sink) error {
	br := bufio.NewReader(r)
	head, _ := br.Peek(len(zstdMagic))
	if bytes.Equal(head, zstdMagic) {
		dec, err := zstd.NewReader(br)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrCorruptCache, err)
		}
		defer dec.Close()
		br = bufio.NewReader(dec)
	}
	cr := &cacheReader{r: br}

	wrap := func(err error) error {
		if errors.Is(err, ErrCorruptCache) {
			return err
		}
		return fmt.Errorf("%w: %w", ErrCorruptCache, err)
	}

	n, err := cr.count("vertex")
	if err != nil {
		return err
	}
	if err := sink.CreateVertexArray(n); err != nil {
		return wrap(err)
	}
	for i := 0; i < n; i++ {
		x := cr.coord()
		y := cr.coord()
		if cr.err != nil {
			return cr.fail("vertices")
		}
		if err := sink.PutVertex(x, y, i); err != nil {
			return wrap(err)
		}
	}

	if n, err = cr.count("seg"); err != nil {
		return err
	}
	if err := sink.CreateSegArray(n); err != nil {
		return wrap(err)
	}
	for i := 0; i < n; i++ {
		rec := SegRecord{Index: i}
		rec.V1 = cr.index()
		rec.V2 = cr.index()
		rec.IsBack = cr.flag()
		rec.Line = cr.index()
		rec.Partner = cr.index()
		if cr.err != nil {
			return cr.fail("segs")
		}
		if err := sink.PutSeg(rec); err != nil {
			return wrap(err)
		}
	}

	if n, err = cr.count("line"); err != nil {
		return err
	}
	if err := sink.CreateLineArray(n); err != nil {
		return wrap(err)
	}
	for i := 0; i < n; i++ {
		rec := LineRecord{Index: i, Tag: -1}
		rec.V1 = cr.index()
		rec.V2 = cr.index()
		rec.Right = cr.index()
		rec.Left = cr.index()
		if cr.err != nil {
			return cr.fail("lines")
		}
		if err := sink.PutLine(rec); err != nil {
			return wrap(err)
		}
	}

	if n, err = cr.count("subsector"); err != nil {
		return err
	}
	if err := sink.CreateLeafArray(n); err != nil {
		return wrap(err)
	}
	for i := 0; i < n; i++ {
		first := cr.index()
		count := cr.index()
		if cr.err != nil {
			return cr.fail("subsectors")
		}
		if err := sink.PutLeaf(first, count, i); err != nil {
			return wrap(err)
		}
	}

	if n, err = cr.count("node"); err != nil {
		return err
	}
	if err := sink.CreateNodeArray(n); err != nil {
		return wrap(err)
	}
	for i := 0; i < n; i++ {
		rec := NodeRecord{Index: i}
		rec.X = cr.coord()
		rec.Y = cr.coord()
		rec.Dx = cr.coord()
		rec.Dy = cr.coord()
		rec.Right = cr.index()
		rec.Left = cr.index()
		rec.RightIsLeaf = cr.flag()
		rec.LeftIsLeaf = cr.flag()
		if cr.err != nil {
			return cr.fail("nodes")
		}
		if err := sink.PutNode(rec); err != nil {
			return wrap(err)
		}
	}

	if _, err := br.ReadByte(); err == nil {
		return fmt.Errorf("%w: trailing data after nodes", ErrCorruptCache)
	} else if err != io.EOF {
		return fmt.Errorf("%w: %w", ErrCorruptCache, err)
	}
	return nil
}
