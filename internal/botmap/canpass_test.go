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

// canpass_test
package botmap

import (
	"testing"

	"github.com/vigilantdoomer/botmap/internal/fixed"
)

func heightsMap() *Map {
	m := NewMap(Params{Radius: fx(16), Bounds: LevelBlockmap{Width: 1, Height: 1}})
	m.MetaSectors = []MetaSector{
		{Floor: fx(0), Ceiling: fx(128)},
		{Floor: fx(24), Ceiling: fx(128)},
		{Floor: fx(25), Ceiling: fx(128)},
		{Floor: fx(-100), Ceiling: fx(128)},
		{Floor: fx(0), Ceiling: fx(40)},
		{Floor: fx(20), Ceiling: fx(200)},
	}
	msecs := []int{0, 1, 2, 3, 4, NullMetaSector, 0, 5}
	m.Subsectors = make([]Subsector, len(msecs))
	for i, ms := range msecs {
		m.Subsectors[i].MetaSec = ms
	}
	return m
}

func TestCanPass(t *testing.T) {
	m := heightsMap()
	for _, c := range []struct {
		name   string
		s1, s2 int
		height int
		want   bool
	}{
		{"same subsector", 4, 4, 1000, true},
		{"same metasector", 0, 6, 1000, true},
		{"step up to max", 0, 1, 56, true},
		{"step up too high", 0, 2, 56, false},
		{"step down", 1, 0, 56, true},
		{"drop down", 0, 3, 56, true},
		{"climb out of pit", 3, 0, 56, false},
		{"low ceiling", 0, 4, 56, false},
		{"low ceiling, small bot", 0, 4, 40, true},
		{"into void", 0, 5, 56, false},
		{"out of void", 5, 0, 56, false},
		{"opening too narrow", 0, 7, 120, false},
		{"opening wide enough", 0, 7, 100, true},
	} {
		if got := m.CanPass(c.s1, c.s2, fx(c.height)); got != c.want {
			t.Errorf("%s: CanPass(%d, %d, %d) = %v", c.name, c.s1, c.s2, c.height, got)
		}
	}

	m.MaxStep = fx(30)
	if !m.CanPass(0, 2, fx(56)) {
		t.Errorf("step of 25 refused with max step 30")
	}
}

func TestMetaSectorOf(t *testing.T) {
	m := heightsMap()
	if m.MetaSectorOf(5) != VoidMetaSector || !m.MetaSectorOf(5).IsVoid() {
		t.Errorf("subsector without metasector isn't void")
	}
	if m.MetaSectorOf(1).IsVoid() || m.MetaSectorOf(1).Floor != fx(24) {
		t.Errorf("metasector of subsector 1: %+v", m.MetaSectorOf(1))
	}
}

func TestNewMapMaxStep(t *testing.T) {
	bounds := LevelBlockmap{Width: 1, Height: 1}
	if m := NewMap(Params{Bounds: bounds}); m.MaxStep != DEFAULT_MAX_STEP {
		t.Errorf("unset max step is %s, want %s", m.MaxStep,
			fixed.Fixed(DEFAULT_MAX_STEP))
	}
	zero := fixed.Fixed(0)
	m := NewMap(Params{Bounds: bounds, MaxStep: &zero})
	if m.MaxStep != 0 {
		t.Fatalf("max step 0 became %s", m.MaxStep)
	}
	m.MetaSectors = []MetaSector{
		{Floor: 0, Ceiling: fx(128)},
		{Floor: fx(16), Ceiling: fx(128)},
	}
	m.Subsectors = []Subsector{{MetaSec: 0}, {MetaSec: 1}}
	if m.CanPass(0, 1, fx(56)) {
		t.Errorf("stepped up 16 units with max step 0")
	}
	if !m.CanPass(1, 0, fx(56)) {
		t.Errorf("can't step down with max step 0")
	}
}
