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

package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

const VERSION = "0.1a"

/*
agent:
	radius    Collision radius of the bot, map units (default 16). Geometry
	          fed to the nodebuilder is expected to be inflated by it already
	height    Vertical size of the bot, map units (default 56)
	max_step  Highest floor rise the bot can walk up, map units (default 24)

grid:
	cell_units  Side of a grid cell, map units (default 128)

nodes:
	split_factor  Seg split cost for partition selection (default 17)

cache:
	dir       Where botmap-<digest>.cache files go (default: current dir)
	compress  Wrap cache stream into zstd (default: false)
	level     zstd encoder level 1..4 (default 2)

log:
	verbosity    0 = normal, 1..3 more and more output
	file         Also append log to this file
	max_size_mb  Rotate log file after this size
*/

type AgentConfig struct {
	Radius  int `yaml:"radius"`
	Height  int `yaml:"height"`
	MaxStep int `yaml:"max_step"`
}

type GridConfig struct {
	CellUnits int `yaml:"cell_units"`
}

type NodesConfig struct {
	SplitFactor int `yaml:"split_factor"`
}

type CacheConfig struct {
	Dir      string `yaml:"dir"`
	Compress bool   `yaml:"compress"`
	Level    int    `yaml:"level"`
}

type LogConfig struct {
	Verbosity int    `yaml:"verbosity"`
	File      string `yaml:"file"`
	MaxSizeMB int    `yaml:"max_size_mb"`
}

type ProgramConfig struct {
	Agent AgentConfig `yaml:"agent"`
	Grid  GridConfig  `yaml:"grid"`
	Nodes NodesConfig `yaml:"nodes"`
	Cache CacheConfig `yaml:"cache"`
	Log   LogConfig   `yaml:"log"`
}

func Default() *ProgramConfig {
	return &ProgramConfig{
		Agent: AgentConfig{
			Radius:  16,
			Height:  56,
			MaxStep: 24,
		},
		Grid: GridConfig{
			CellUnits: 128,
		},
		Nodes: NodesConfig{
			SplitFactor: 17, // default factor of BSP v5.2
		},
		Cache: CacheConfig{
			Dir:   ".",
			Level: 2,
		},
		Log: LogConfig{
			MaxSizeMB: 16,
		},
	}
}

// Load reads yaml file on top of defaults, so that the file only needs to
// mention what it changes
func Load(path string) (*ProgramConfig, error) {
	c := Default()
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(raw, c); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

func (c *ProgramConfig) Validate() error {
	if c.Agent.Radius <= 0 {
		return fmt.Errorf("agent.radius must be positive, got %d", c.Agent.Radius)
	}
	if c.Agent.Height <= 0 {
		return fmt.Errorf("agent.height must be positive, got %d", c.Agent.Height)
	}
	if c.Agent.MaxStep < 0 {
		return fmt.Errorf("agent.max_step can't be negative, got %d", c.Agent.MaxStep)
	}
	if c.Grid.CellUnits <= 0 {
		return fmt.Errorf("grid.cell_units must be positive, got %d", c.Grid.CellUnits)
	}
	if c.Nodes.SplitFactor <= 0 {
		return fmt.Errorf("nodes.split_factor must be positive, got %d", c.Nodes.SplitFactor)
	}
	if c.Cache.Level < 1 || c.Cache.Level > 4 {
		return fmt.Errorf("cache.level must be within 1..4, got %d", c.Cache.Level)
	}
	return nil
}
