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
	"os"
	"path/filepath"

	"github.com/vigilantdoomer/botmap/internal/logger"
)

// Controls lifetime of the cache file. The cache is written into a temporary
// file in the same directory, which replaces the cache file on success and is
// deleted otherwise, so that a broken cache is never left under the real name
type FileControl struct {
	success       bool
	fin           *os.File
	fout          *os.File
	inputFileName string
	tmpFileName   string
	cacheFileName string
}

func (fc *FileControl) CacheFileName() string {
	return fc.cacheFileName
}

// OpenCacheFile creates the temporary file the cache named name is written
// to. Directory is created if missing
func (fc *FileControl) OpenCacheFile(dir, name string) (*os.File, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	var err error
	fc.fout, err = os.CreateTemp(dir, "tmp")
	if err != nil {
		fc.fout = nil
		return nil, err
	}
	fc.tmpFileName = fc.fout.Name()
	fc.cacheFileName = filepath.Join(dir, name)
	return fc.fout, nil
}

func (fc *FileControl) OpenInputFile(inputFileName string) (*os.File, error) {
	fc.inputFileName = inputFileName
	var err error
	fc.fin, err = os.Open(inputFileName)
	if err != nil {
		fc.fin = nil
	}
	return fc.fin, err
}

func (fc *FileControl) CloseInputFile() {
	if fc.fin == nil {
		return
	}
	err := fc.fin.Close()
	if err != nil {
		logger.Log.Error("Couldn't close input file '%s': %s\n", fc.inputFileName,
			err.Error())
	}
	fc.fin = nil
}

// Success closes the temporary file and moves it over the cache file. Returns
// false if that failed, temporary file is then removed by Shutdown
func (fc *FileControl) Success() bool {
	if fc.fout == nil {
		logger.Log.Panic("Sanity check failed: descriptor invalid.\n")
	}
	errFout := fc.fout.Close()
	fc.fout = nil
	if errFout != nil {
		logger.Log.Error("Closing cache file (after it was almost ready) returned error: %s.\n",
			errFout.Error())
		return false
	}
	err := os.Rename(fc.tmpFileName, fc.cacheFileName)
	if err != nil {
		logger.Log.Error("Couldn't move temporary file into '%s': %s.\n",
			fc.cacheFileName, err.Error())
		return false
	}
	fc.success = true
	return true
}

// Ensures we close all files when program exits. Temporary file is getting
// deleted at this moment, unless it has become the cache file
func (fc *FileControl) Shutdown() {
	fc.CloseInputFile()
	if fc.success || fc.tmpFileName == "" {
		return
	}
	if fc.fout != nil {
		errFout := fc.fout.Close()
		fc.fout = nil
		if errFout != nil {
			logger.Log.Error("Couldn't delete temporary file '%s' because failed to close it already: %s\n",
				fc.tmpFileName, errFout.Error())
			return
		}
	}
	err := os.Remove(fc.tmpFileName)
	if err != nil {
		logger.Log.Error("Got error when trying to delete a temporary file '%s': %s\n",
			fc.tmpFileName, err.Error())
	}
	fc.tmpFileName = ""
}
