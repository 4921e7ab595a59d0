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

// load
package level

import (
	"fmt"
	"os"

	"github.com/vigilantdoomer/botmap/internal/botmap"
	"github.com/vigilantdoomer/botmap/internal/fixed"
	"gopkg.in/yaml.v3"
)

// Level file layout. Coordinates and heights are in map units, fractions
// allowed. Example:
//
//	name: MAP01
//	vertices: [[0, 0], [0, 256], [256, 256], [256, 0]]
//	metasectors: [{floor: 0, ceiling: 128}]
//	lines:
//	  - {v1: 0, v2: 1, right: 0}
//	speclines:
//	  - {id: 7, v1: [0, 0], v2: [0, 64], trigger: switch}
//	things:
//	  - {id: 1, x: 64, y: 64, radius: 20, health: 60, flags: [shootable]}
type levelFile struct {
	Name        string         `yaml:"name"`
	Blockmap    *blockmapFile  `yaml:"blockmap"`
	Vertices    [][2]float64   `yaml:"vertices"`
	MetaSectors []metaSecFile  `yaml:"metasectors"`
	Lines       []lineFile     `yaml:"lines"`
	SpecLines   []specLineFile `yaml:"speclines"`
	Things      []thingFile    `yaml:"things"`
}

type blockmapFile struct {
	OrgX   float64 `yaml:"org_x"`
	OrgY   float64 `yaml:"org_y"`
	Width  int     `yaml:"width"`
	Height int     `yaml:"height"`
}

type metaSecFile struct {
	Floor   float64 `yaml:"floor"`
	Ceiling float64 `yaml:"ceiling"`
}

// Right defaults to the first metasector, left and tag default to none
type lineFile struct {
	V1    int  `yaml:"v1"`
	V2    int  `yaml:"v2"`
	Right *int `yaml:"right"`
	Left  *int `yaml:"left"`
	Tag   *int `yaml:"tag"`
}

type specLineFile struct {
	ID      int        `yaml:"id"`
	V1      [2]float64 `yaml:"v1"`
	V2      [2]float64 `yaml:"v2"`
	Trigger string     `yaml:"trigger"`
}

type thingFile struct {
	ID     int      `yaml:"id"`
	X      float64  `yaml:"x"`
	Y      float64  `yaml:"y"`
	Radius float64  `yaml:"radius"`
	Health int      `yaml:"health"`
	Flags  []string `yaml:"flags"`
}

var triggerNames = map[string]botmap.Trigger{
	"":       botmap.TRIGGER_NONE,
	"none":   botmap.TRIGGER_NONE,
	"walk":   botmap.TRIGGER_WALK,
	"switch": botmap.TRIGGER_SWITCH,
	"door":   botmap.TRIGGER_DOOR,
}

var flagNames = map[string]botmap.ThingFlags{
	"shootable":  botmap.MF_SHOOTABLE,
	"noblockmap": botmap.MF_NOBLOCKMAP,
	"player":     botmap.MF_PLAYER,
}

// Load reads level file. Radius is the one geometry was inflated with
func Load(path string, radius fixed.Fixed) (*Level, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	lvl, err := Parse(raw, radius)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return lvl, nil
}

func Parse(raw []byte, radius fixed.Fixed) (*Level, error) {
	var lf levelFile
	if err := yaml.Unmarshal(raw, &lf); err != nil {
		return nil, err
	}
	tm := &TempMap{
		Name:   lf.Name,
		Radius: radius,
	}
	for _, v := range lf.Vertices {
		tm.Vertices = append(tm.Vertices, Vertex{
			X: fixed.FromFloat(v[0]),
			Y: fixed.FromFloat(v[1]),
		})
	}
	for _, ms := range lf.MetaSectors {
		tm.MetaSectors = append(tm.MetaSectors, MetaSector{
			Floor:   fixed.FromFloat(ms.Floor),
			Ceiling: fixed.FromFloat(ms.Ceiling),
		})
	}
	for _, ln := range lf.Lines {
		tm.Lines = append(tm.Lines, Line{
			V1:    ln.V1,
			V2:    ln.V2,
			Right: intOr(ln.Right, 0),
			Left:  intOr(ln.Left, NO_REGION),
			Tag:   intOr(ln.Tag, NO_TAG),
		})
	}
	if err := tm.Validate(); err != nil {
		return nil, err
	}
	if lf.Blockmap != nil {
		tm.Blockmap = botmap.LevelBlockmap{
			OrgX:   fixed.FromFloat(lf.Blockmap.OrgX),
			OrgY:   fixed.FromFloat(lf.Blockmap.OrgY),
			Width:  lf.Blockmap.Width,
			Height: lf.Blockmap.Height,
		}
	} else {
		tm.Blockmap = tm.ComputeBlockmap()
	}

	lvl := &Level{Temp: tm}
	for _, sl := range lf.SpecLines {
		trig, ok := triggerNames[sl.Trigger]
		if !ok {
			return nil, fmt.Errorf("special line %d: unknown trigger %q", sl.ID, sl.Trigger)
		}
		lvl.SpecLines = append(lvl.SpecLines, botmap.SpecLine{
			ID:      sl.ID,
			X1:      fixed.FromFloat(sl.V1[0]),
			Y1:      fixed.FromFloat(sl.V1[1]),
			X2:      fixed.FromFloat(sl.V2[0]),
			Y2:      fixed.FromFloat(sl.V2[1]),
			Trigger: trig,
		})
	}
	for _, th := range lf.Things {
		var flags botmap.ThingFlags
		for _, name := range th.Flags {
			f, ok := flagNames[name]
			if !ok {
				return nil, fmt.Errorf("thing %d: unknown flag %q", th.ID, name)
			}
			flags |= f
		}
		lvl.Things = append(lvl.Things, botmap.Thing{
			ID:     botmap.ThingID(th.ID),
			X:      fixed.FromFloat(th.X),
			Y:      fixed.FromFloat(th.Y),
			Radius: fixed.FromFloat(th.Radius),
			Health: th.Health,
			Flags:  flags,
		})
	}
	return lvl, nil
}

func intOr(p *int, def int) int {
	if p == nil {
		return def
	}
	return *p
}
