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

// speclines
package botmap

import (
	"math"

	"github.com/vigilantdoomer/botmap/internal/fixed"
)

// How a special line is activated
type Trigger int

const (
	TRIGGER_NONE   Trigger = iota
	TRIGGER_WALK           // W1, WR: crossing the line
	TRIGGER_SWITCH         // S1, SR: pressing use on it
	TRIGGER_DOOR           // DR: pressing use on a manual door
)

// SpecLine is a line of the real level that carries a special. ID is
// whatever the host uses to refer to the line
type SpecLine struct {
	ID      int
	X1, Y1  fixed.Fixed
	X2, Y2  fixed.Fixed
	Trigger Trigger
}

// ActivationPoint returns where the bot should be to trigger the line, and
// false if the line isn't one the bot can trigger
func (m *Map) ActivationPoint(line *SpecLine) (fixed.Fixed, fixed.Fixed, bool) {
	midx := fixed.Fixed((fixed.Wide(line.X1) + fixed.Wide(line.X2)) / 2)
	midy := fixed.Fixed((fixed.Wide(line.Y1) + fixed.Wide(line.Y2)) / 2)
	switch line.Trigger {
	case TRIGGER_WALK:
		return midx, midy, true
	case TRIGGER_SWITCH, TRIGGER_DOOR:
		// Must stand in front of it: step away from the middle, to the right
		// side of the line, by the bot's size
		botsize := 4 * m.Radius / 2
		dx := line.X2.Float() - line.X1.Float()
		dy := line.Y2.Float() - line.Y1.Float()
		length := math.Hypot(dx, dy)
		if length == 0 {
			return midx, midy, true
		}
		midx += fixed.FromFloat(botsize.Float() * dy / length)
		midy += fixed.FromFloat(-botsize.Float() * dx / length)
		return midx, midy, true
	}
	return 0, 0, false
}

// SetSpecLinePositions records all special lines on the bot map: each is
// linked with the subsector its activation point is in
func (m *Map) SetSpecLinePositions(lines []SpecLine) {
	for i := range lines {
		x, y, ok := m.ActivationPoint(&lines[i])
		if !ok {
			continue
		}
		m.occ.linkLine(lines[i].ID, m.PointInSubsector(x, y))
	}
}

// UnsetLinePositions removes all line-subsector references of the line. Used
// by goal management once the line has done its job
func (m *Map) UnsetLinePositions(id int) {
	m.occ.unlinkLine(id)
}
