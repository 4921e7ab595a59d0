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
	"bufio"
	"fmt"
	"os"
	"time"

	"github.com/vigilantdoomer/botmap/internal/botmap"
	"github.com/vigilantdoomer/botmap/internal/config"
	"github.com/vigilantdoomer/botmap/internal/fixed"
	"github.com/vigilantdoomer/botmap/internal/glbridge"
	"github.com/vigilantdoomer/botmap/internal/level"
	"github.com/vigilantdoomer/botmap/internal/logger"
	"github.com/vigilantdoomer/botmap/internal/nodebuilder"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		logger.Log.Error("%s\n", err.Error())
		logger.Log.Close()
		os.Exit(1)
	}
	logger.Log.Close()
}

// run builds the bot map of the level file, writes its cache and places
// things and special lines on it
func run(cfg *config.ProgramConfig, levelFileName string, verify bool) error {
	timeStart := time.Now()
	logger.Configure(logger.Options{
		Verbosity: cfg.Log.Verbosity,
		FileName:  cfg.Log.File,
		MaxSizeMB: cfg.Log.MaxSizeMB,
	})
	logger.Log.Printf("VigilantBSP botmap %s\n", config.VERSION)

	lvl, err := level.Load(levelFileName, fixed.FromInt(cfg.Agent.Radius))
	if err != nil {
		return err
	}
	tm := lvl.Temp
	logger.Log.Printf("Level %s: %d vertices, %d lines, %d metasectors\n",
		tm.Name, len(tm.Vertices), len(tm.Lines), len(tm.MetaSectors))

	fileControl := FileControl{}
	defer fileControl.Shutdown()
	fout, err := fileControl.OpenCacheFile(cfg.Cache.Dir, tm.CacheFileName())
	if err != nil {
		return fmt.Errorf("couldn't create cache file: %w", err)
	}

	opts := buildOptions(cfg)
	w := bufio.NewWriter(fout)
	m, err := glbridge.Build(tm, nodebuilder.New(cfg.Nodes.SplitFactor), w, opts)
	if err != nil {
		return err
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("writing cache file: %w", err)
	}
	if !fileControl.Success() {
		return fmt.Errorf("cache file %s was not written", fileControl.CacheFileName())
	}
	logger.Log.Printf("Written cache file %s\n", fileControl.CacheFileName())

	if verify {
		if err := verifyCache(&fileControl, tm, opts, m); err != nil {
			return err
		}
	}

	m.SetMobjPositions(lvl.Things)
	m.SetSpecLinePositions(lvl.SpecLines)
	summarize(m, lvl, fixed.FromInt(cfg.Agent.Height)).print()

	logger.Log.Printf("%s completed in %s\n", tm.Name, time.Since(timeStart))
	return nil
}

// buildOptions carries configuration over to the map builder
func buildOptions(cfg *config.ProgramConfig) glbridge.Options {
	maxStep := fixed.FromInt(cfg.Agent.MaxStep)
	return glbridge.Options{
		MaxStep:   &maxStep,
		CellUnits: cfg.Grid.CellUnits,
		Cache: glbridge.CacheOptions{
			Compress: cfg.Cache.Compress,
			Level:    cfg.Cache.Level,
		},
		Observer: glbridge.NewLogObserver(1),
	}
}

// verifyCache reads the cache file just written and checks that it builds
// the same map
func verifyCache(fileControl *FileControl, tm *level.TempMap, opts glbridge.Options,
	built *botmap.Map) error {
	f, err := fileControl.OpenInputFile(fileControl.CacheFileName())
	if err != nil {
		return err
	}
	defer fileControl.CloseInputFile()
	opts.Observer = nil
	reloaded, err := glbridge.Reload(bufio.NewReader(f), tm, opts)
	if err != nil {
		return fmt.Errorf("%s: %w", fileControl.CacheFileName(), err)
	}
	if err := glbridge.SameGeometry(built, reloaded); err != nil {
		return fmt.Errorf("%s doesn't reproduce the built map: %w",
			fileControl.CacheFileName(), err)
	}
	logger.Log.Printf("Cache file verified\n")
	return nil
}
