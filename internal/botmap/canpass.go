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

package botmap

import (
	"github.com/vigilantdoomer/botmap/internal/fixed"
)

// CanPass returns true if one of the given height can pass from s1's
// metasector to s2's
func (m *Map) CanPass(s1, s2 int, height fixed.Fixed) bool {
	ms1idx := m.Subsectors[s1].MetaSec
	ms2idx := m.Subsectors[s2].MetaSec
	if ms1idx == ms2idx {
		return true
	}

	ms1 := m.MetaSectorOf(s1)
	ms2 := m.MetaSectorOf(s2)
	flh1, clh1 := fixed.Wide(ms1.Floor), fixed.Wide(ms1.Ceiling)
	flh2, clh2 := fixed.Wide(ms2.Floor), fixed.Wide(ms2.Ceiling)
	h := fixed.Wide(height)

	if ms2.IsVoid() {
		return false
	}
	if flh2-flh1 > fixed.Wide(m.MaxStep) {
		return false
	}
	if clh2-flh1 < h {
		return false
	}
	if clh2-flh2 < h {
		return false
	}
	if clh1-flh2 < h {
		return false
	}

	return true
}
