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
	"github.com/spf13/cobra"
	"github.com/vigilantdoomer/botmap/internal/config"
)

// Values of command line flags. Flags left unset don't override the
// configuration file
type cmdFlags struct {
	configFile string
	cacheDir   string
	compress   bool
	verbosity  int
	logFile    string
	radius     int
	height     int
	verify     bool
}

func newRootCommand() *cobra.Command {
	return new(cmdFlags).command()
}

func (flags *cmdFlags) command() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "botmap [flags] LEVEL.yaml",
		Short:         "Builds bot navigation map of a level and writes its cache file",
		Version:       config.VERSION,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.programConfig(cmd)
			if err != nil {
				return err
			}
			return run(cfg, args[0], flags.verify)
		},
	}
	f := cmd.Flags()
	f.StringVar(&flags.configFile, "config", "", "yaml file with program configuration")
	f.StringVar(&flags.cacheDir, "cache-dir", "", "directory for the cache file (cache.dir)")
	f.BoolVar(&flags.compress, "compress", false, "compress the cache file with zstd (cache.compress)")
	f.CountVarP(&flags.verbosity, "verbose", "v", "more output, repeat for even more (log.verbosity)")
	f.StringVar(&flags.logFile, "log-file", "", "also append the log to this file (log.file)")
	f.IntVar(&flags.radius, "radius", 0, "bot radius in map units (agent.radius)")
	f.IntVar(&flags.height, "height", 0, "bot height in map units (agent.height)")
	f.BoolVar(&flags.verify, "verify", false, "read the written cache back and compare it with the built map")
	return cmd
}

// programConfig loads configuration file, if any, and applies flags the user
// has set on top of it
func (flags *cmdFlags) programConfig(cmd *cobra.Command) (*config.ProgramConfig, error) {
	cfg := config.Default()
	if flags.configFile != "" {
		var err error
		cfg, err = config.Load(flags.configFile)
		if err != nil {
			return nil, err
		}
	}
	f := cmd.Flags()
	if f.Changed("cache-dir") {
		cfg.Cache.Dir = flags.cacheDir
	}
	if f.Changed("compress") {
		cfg.Cache.Compress = flags.compress
	}
	if f.Changed("verbose") {
		cfg.Log.Verbosity = flags.verbosity
	}
	if f.Changed("log-file") {
		cfg.Log.File = flags.logFile
	}
	if f.Changed("radius") {
		cfg.Agent.Radius = flags.radius
	}
	if f.Changed("height") {
		cfg.Agent.Height = flags.height
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
