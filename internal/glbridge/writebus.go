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

// Bus for organized writes to destination of the cache stream
package glbridge

import (
	"fmt"
	"io"

	"github.com/vigilantdoomer/botmap/internal/logger"
)

type WriteBusRequest struct {
	data    []byte
	section string
}

type WriteBus struct {
	dst     io.Writer
	written int64
	err     error
}

type WriteBusControl struct {
	bus      *WriteBus
	ch       chan<- WriteBusRequest
	finisher <-chan bool
}

// StartWriteBus starts the goroutine that writes everything sent to it to
// dst, in the order it was sent
func StartWriteBus(dst io.Writer) *WriteBusControl {
	bus := &WriteBus{
		dst: dst,
	}
	ch := make(chan WriteBusRequest)
	finisher := make(chan bool)
	go bus.WriteBusLoop(ch, finisher)
	return &WriteBusControl{
		bus:      bus,
		ch:       ch,
		finisher: finisher,
	}
}

func (b *WriteBus) WriteBusLoop(ch <-chan WriteBusRequest, chFinish chan<- bool) {
	for req := range ch {
		if b.err != nil {
			// keep draining so that senders don't block, the first error is
			// what Shutdown reports
			continue
		}
		n, err := b.dst.Write(req.data)
		b.written += int64(n)
		if err != nil {
			b.err = fmt.Errorf("writing %s to bot map cache: %w", req.section, err)
			logger.Log.Error("%s\n", b.err.Error())
		}
	}
	chFinish <- true
}

// WriteSection queues data. The slice must not be modified afterwards
func (c *WriteBusControl) WriteSection(data []byte, section string) {
	c.ch <- WriteBusRequest{
		data:    data,
		section: section,
	}
}

// Shutdown waits for all queued writes to finish and reports how many bytes
// got written and the first error, if any
func (c *WriteBusControl) Shutdown() (int64, error) {
	close(c.ch)
	<-c.finisher
	return c.bus.written, c.bus.err
}
