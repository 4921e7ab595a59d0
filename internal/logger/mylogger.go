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

// Central log (stdout/stderr, optionally a rotated file) of the program
package logger

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

type MyLogger struct {
	sugar *zap.SugaredLogger
	// errors go to stderr even when the regular output is redirected into file
	errs *zap.SugaredLogger
	// Verbose() messages above this level are discarded
	verbosity int
	file      *lumberjack.Logger
	// Mutex orders writes to stdout/stderr, as well as Sync call
	mu sync.Mutex
}

// Options controls where the log goes. Zero value logs to stdout/stderr only
type Options struct {
	Verbosity int
	// if non-empty, everything written to stdout is also appended here, with
	// rotation once MaxSizeMB is reached
	FileName   string
	MaxSizeMB  int
	MaxBackups int
}

func CreateLogger(opts Options) *MyLogger {
	log := &MyLogger{verbosity: opts.Verbosity}
	enc := zapcore.NewConsoleEncoder(zapcore.EncoderConfig{
		MessageKey:     "msg",
		SkipLineEnding: true, // messages carry their own line endings
	})
	outSync := zapcore.Lock(os.Stdout)
	if opts.FileName != "" {
		log.file = &lumberjack.Logger{
			Filename:   opts.FileName,
			MaxSize:    opts.MaxSizeMB,
			MaxBackups: opts.MaxBackups,
		}
		outSync = zapcore.NewMultiWriteSyncer(outSync, zapcore.AddSync(log.file))
	}
	log.sugar = zap.New(zapcore.NewCore(enc, outSync, zapcore.DebugLevel)).Sugar()
	log.errs = zap.New(zapcore.NewCore(enc, zapcore.Lock(os.Stderr),
		zapcore.DebugLevel)).Sugar()
	return log
}

var Log = CreateLogger(Options{})

// Configure replaces the central log. Must be called before any goroutine
// that might be logging is started
func Configure(opts Options) {
	Log.Close()
	Log = CreateLogger(opts)
}

func (log *MyLogger) Verbosity() int {
	return log.verbosity
}

// Your generic printf to let user see things
func (log *MyLogger) Printf(s string, a ...interface{}) {
	log.mu.Lock()
	defer log.mu.Unlock()
	log.sugar.Infof(s, a...)
}

// As generic as printf, but writes to stderr instead of stdout
// Does NOT interrupt execution of the program
func (log *MyLogger) Error(s string, a ...interface{}) {
	log.mu.Lock()
	defer log.mu.Unlock()
	log.errs.Errorf(s, a...)
}

// Stuff users might want to see but only when they can really bother to spend
// time reading it
func (log *MyLogger) Verbose(verbosityLevel int, s string, a ...interface{}) {
	if verbosityLevel <= log.verbosity {
		log.mu.Lock()
		defer log.mu.Unlock()
		log.sugar.Debugf(s, a...)
	}
}

// Panicking is not a good thing, but at least we can now use formatted printing
// for it
func (log *MyLogger) Panic(s string, a ...interface{}) {
	log.mu.Lock()
	defer log.mu.Unlock()
	msg := fmt.Sprintf(s, a...)
	log.errs.Error(strings.TrimRight(msg, "\n") + "\n")
	panic(msg)
}

// Sync is used to wait until all messages are written to the output
func (log *MyLogger) Sync() {
	log.mu.Lock()
	defer log.mu.Unlock()
	log.sugar.Sync()
	log.errs.Sync()
}

func (log *MyLogger) Close() {
	log.Sync()
	if log.file != nil {
		log.file.Close()
		log.file = nil
	}
}
