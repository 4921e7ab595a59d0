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
package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/vigilantdoomer/botmap/internal/config"
	"github.com/vigilantdoomer/botmap/internal/fixed"
	"github.com/vigilantdoomer/botmap/internal/glbridge"
	"github.com/vigilantdoomer/botmap/internal/level"
	"github.com/vigilantdoomer/botmap/internal/nodebuilder"
)

// A room with a raised platform in the middle
const platformYAML = `
name: PLATFORM
vertices: [[0, 0], [0, 256], [256, 256], [256, 0],
           [96, 96], [96, 160], [160, 160], [160, 96]]
metasectors:
  - {floor: 0, ceiling: 128}
  - {floor: 16, ceiling: 128}
lines:
  - {v1: 0, v2: 1}
  - {v1: 1, v2: 2}
  - {v1: 2, v2: 3}
  - {v1: 3, v2: 0}
  - {v1: 4, v2: 5, right: 1, left: 0}
  - {v1: 5, v2: 6, right: 1, left: 0}
  - {v1: 6, v2: 7, right: 1, left: 0}
  - {v1: 7, v2: 4, right: 1, left: 0}
speclines:
  - {id: 1, v1: [0, 256], v2: [256, 256], trigger: switch}
  - {id: 2, v1: [0, 0], v2: [0, 256]}
things:
  - {id: 1, x: 200, y: 200, radius: 20, health: 60, flags: [shootable]}
  - {id: 2, x: 32, y: 32, radius: 16, health: 100, flags: [shootable, player]}
`

func writeLevel(t *testing.T) string {
	path := filepath.Join(t.TempDir(), "platform.yaml")
	if err := os.WriteFile(path, []byte(platformYAML), 0644); err != nil {
		t.Fatalf("writing level file: %s", err.Error())
	}
	return path
}

func dirEntries(t *testing.T, dir string) []string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("reading %s: %s", dir, err.Error())
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func TestFileControlSuccess(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "cache")
	fc := FileControl{}
	f, err := fc.OpenCacheFile(dir, "botmap-test.cache")
	if err != nil {
		t.Fatalf("OpenCacheFile failed: %s", err.Error())
	}
	if _, err := f.Write([]byte("botmap")); err != nil {
		t.Fatalf("write failed: %s", err.Error())
	}
	if !fc.Success() {
		t.Fatalf("Success returned false")
	}
	fc.Shutdown()

	names := dirEntries(t, dir)
	if len(names) != 1 || names[0] != "botmap-test.cache" {
		t.Fatalf("cache directory holds %v", names)
	}
	raw, _ := os.ReadFile(fc.CacheFileName())
	if string(raw) != "botmap" {
		t.Errorf("cache file holds %q", raw)
	}
}

func TestFileControlReplacesOldCache(t *testing.T) {
	dir := t.TempDir()
	name := filepath.Join(dir, "botmap-test.cache")
	if err := os.WriteFile(name, []byte("stale"), 0644); err != nil {
		t.Fatalf("writing old cache: %s", err.Error())
	}
	fc := FileControl{}
	f, err := fc.OpenCacheFile(dir, "botmap-test.cache")
	if err != nil {
		t.Fatalf("OpenCacheFile failed: %s", err.Error())
	}
	f.Write([]byte("fresh"))
	if !fc.Success() {
		t.Fatalf("Success returned false")
	}
	fc.Shutdown()
	raw, _ := os.ReadFile(name)
	if string(raw) != "fresh" {
		t.Errorf("cache file holds %q", raw)
	}
}

func TestFileControlShutdownRemovesTemp(t *testing.T) {
	dir := t.TempDir()
	fc := FileControl{}
	f, err := fc.OpenCacheFile(dir, "botmap-test.cache")
	if err != nil {
		t.Fatalf("OpenCacheFile failed: %s", err.Error())
	}
	f.Write([]byte("half"))
	fc.Shutdown()
	if names := dirEntries(t, dir); len(names) != 0 {
		t.Errorf("files left after failed run: %v", names)
	}
	// nothing was opened at all
	empty := FileControl{}
	empty.Shutdown()
}

func TestProgramConfigFlags(t *testing.T) {
	flags := new(cmdFlags)
	cmd := flags.command()
	err := cmd.ParseFlags([]string{"--cache-dir", "/tmp/bots", "--compress",
		"-vv", "--radius", "20", "--height", "40"})
	if err != nil {
		t.Fatalf("ParseFlags failed: %s", err.Error())
	}
	cfg, err := flags.programConfig(cmd)
	if err != nil {
		t.Fatalf("programConfig failed: %s", err.Error())
	}
	if cfg.Cache.Dir != "/tmp/bots" || !cfg.Cache.Compress {
		t.Errorf("cache config %+v", cfg.Cache)
	}
	if cfg.Log.Verbosity != 2 {
		t.Errorf("verbosity %d, want 2", cfg.Log.Verbosity)
	}
	if cfg.Agent.Radius != 20 || cfg.Agent.Height != 40 || cfg.Agent.MaxStep != 24 {
		t.Errorf("agent config %+v", cfg.Agent)
	}
}

func TestProgramConfigFileAndFlags(t *testing.T) {
	path := filepath.Join(t.TempDir(), "botmap.yaml")
	text := "agent: {radius: 24, max_step: 16}\ncache: {dir: /var/bots, level: 3}\n"
	if err := os.WriteFile(path, []byte(text), 0644); err != nil {
		t.Fatalf("writing config: %s", err.Error())
	}
	flags := new(cmdFlags)
	cmd := flags.command()
	if err := cmd.ParseFlags([]string{"--config", path, "--radius", "32"}); err != nil {
		t.Fatalf("ParseFlags failed: %s", err.Error())
	}
	cfg, err := flags.programConfig(cmd)
	if err != nil {
		t.Fatalf("programConfig failed: %s", err.Error())
	}
	// flags win over the file, the file wins over defaults
	if cfg.Agent.Radius != 32 || cfg.Agent.MaxStep != 16 || cfg.Agent.Height != 56 {
		t.Errorf("agent config %+v", cfg.Agent)
	}
	if cfg.Cache.Dir != "/var/bots" || cfg.Cache.Level != 3 || cfg.Cache.Compress {
		t.Errorf("cache config %+v", cfg.Cache)
	}

	flags = new(cmdFlags)
	cmd = flags.command()
	cmd.ParseFlags([]string{"--radius", "-5"})
	if _, err := flags.programConfig(cmd); err == nil {
		t.Errorf("negative radius accepted")
	}
}

func TestRunWritesVerifiedCache(t *testing.T) {
	levelPath := writeLevel(t)
	lvl, err := level.Load(levelPath, fixed.FromInt(16))
	if err != nil {
		t.Fatalf("Load failed: %s", err.Error())
	}
	for _, compress := range []bool{false, true} {
		dir := t.TempDir()
		args := []string{"--cache-dir", dir, "--verify", levelPath}
		if compress {
			args = append([]string{"--compress"}, args...)
		}
		cmd := newRootCommand()
		cmd.SetArgs(args)
		if err := cmd.Execute(); err != nil {
			t.Fatalf("compress=%v: botmap failed: %s", compress, err.Error())
		}
		names := dirEntries(t, dir)
		if len(names) != 1 || names[0] != lvl.Temp.CacheFileName() {
			t.Fatalf("compress=%v: cache directory holds %v, want %s", compress,
				names, lvl.Temp.CacheFileName())
		}
		raw, err := os.ReadFile(filepath.Join(dir, names[0]))
		if err != nil {
			t.Fatalf("reading cache: %s", err.Error())
		}
		isZstd := bytes.HasPrefix(raw, []byte{0x28, 0xB5, 0x2F, 0xFD})
		if isZstd != compress {
			t.Errorf("compress=%v: zstd frame %v", compress, isZstd)
		}
		if _, err := glbridge.Reload(bytes.NewReader(raw), lvl.Temp,
			glbridge.Options{}); err != nil {
			t.Errorf("compress=%v: cache doesn't reload: %s", compress, err.Error())
		}
	}
}

func TestRunFailures(t *testing.T) {
	dir := t.TempDir()
	cmd := newRootCommand()
	cmd.SetArgs([]string{"--cache-dir", dir, filepath.Join(dir, "missing.yaml")})
	if err := cmd.Execute(); err == nil {
		t.Errorf("missing level file was accepted")
	}
	if names := dirEntries(t, dir); len(names) != 0 {
		t.Errorf("files left after failed run: %v", names)
	}

	cmd = newRootCommand()
	cmd.SetArgs([]string{})
	if err := cmd.Execute(); err == nil {
		t.Errorf("no level file given, yet no error")
	}

	// cache directory can't be created where a file is
	blocker := filepath.Join(dir, "file")
	os.WriteFile(blocker, nil, 0644)
	cmd = newRootCommand()
	cmd.SetArgs([]string{"--cache-dir", blocker, writeLevel(t)})
	if err := cmd.Execute(); err == nil {
		t.Errorf("cache was supposedly written under a plain file")
	}
}

func TestSummarize(t *testing.T) {
	lvl, err := level.Load(writeLevel(t), fixed.FromInt(16))
	if err != nil {
		t.Fatalf("Load failed: %s", err.Error())
	}
	m, err := glbridge.Build(lvl.Temp, nodebuilder.New(17), nil, glbridge.Options{})
	if err != nil {
		t.Fatalf("Build failed: %s", err.Error())
	}
	m.SetMobjPositions(lvl.Things)
	m.SetSpecLinePositions(lvl.SpecLines)

	r := summarize(m, lvl, fixed.FromInt(56))
	if r.subsectors != len(m.Subsectors) || r.nodes != len(m.Nodes) {
		t.Errorf("counts %+v", r)
	}
	if r.voids == 0 {
		t.Errorf("no void subsectors around the room")
	}
	if r.links == 0 || r.links%2 != 0 {
		t.Errorf("%d neighbour links, want a positive even number", r.links)
	}
	// links into the void are never passable
	if r.passable == 0 || r.passable >= r.links {
		t.Errorf("%d of %d links passable", r.passable, r.links)
	}
	if len(r.monsters) != 1 || r.monsters[0].id != 1 || len(r.monsters[0].leaves) == 0 {
		t.Errorf("monsters %+v", r.monsters)
	}
	if len(r.specLines) != 2 || len(r.specLines[0].leaves) != 1 ||
		len(r.specLines[1].leaves) != 0 {
		t.Errorf("special lines %+v", r.specLines)
	}

	// too tall to stand on the platform: fewer links remain
	tall := summarize(m, lvl, fixed.FromInt(120))
	if tall.passable >= r.passable {
		t.Errorf("height 120 passes %d links, height 56 passes %d", tall.passable,
			r.passable)
	}
	r.print()
}

func TestMaxStepFromConfig(t *testing.T) {
	lvl, err := level.Load(writeLevel(t), fixed.FromInt(16))
	if err != nil {
		t.Fatalf("Load failed: %s", err.Error())
	}
	path := filepath.Join(t.TempDir(), "botmap.yaml")
	for _, c := range []struct {
		text string
		want bool
	}{
		{"agent: {height: 56}\n", true},
		{"agent: {max_step: 0}\n", false},
		{"agent: {max_step: 8}\n", false},
		{"agent: {max_step: 16}\n", true},
	} {
		if err := os.WriteFile(path, []byte(c.text), 0644); err != nil {
			t.Fatalf("writing config: %s", err.Error())
		}
		cfg, err := config.Load(path)
		if err != nil {
			t.Fatalf("%q: Load failed: %s", c.text, err.Error())
		}
		opts := buildOptions(cfg)
		opts.Observer = nil
		m, err := glbridge.Build(lvl.Temp, nodebuilder.New(17), nil, opts)
		if err != nil {
			t.Fatalf("%q: Build failed: %s", c.text, err.Error())
		}
		// platform is 16 units above the floor
		room := m.PointInSubsector(fixed.FromInt(32), fixed.FromInt(32))
		platform := m.PointInSubsector(fixed.FromInt(128), fixed.FromInt(128))
		if got := m.CanPass(room, platform, fixed.FromInt(56)); got != c.want {
			t.Errorf("%q: stepping onto the platform is %v, want %v", c.text, got,
				c.want)
		}
		if !m.CanPass(platform, room, fixed.FromInt(56)) {
			t.Errorf("%q: can't step down from the platform", c.text)
		}
	}
}
