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

package glbridge

import "errors"

var (
	// A seg names a later seg as its partner, and that seg never names it
	// back, or partners disagree
	ErrPartnerOrder = errors.New("partner seg reference not answered")
	// Index out of range of an array, or put before its array was created
	ErrBadIndex = errors.New("index out of range")
	// Subsector polygon has zero or negative area
	ErrDegenerateLeaf = errors.New("degenerate subsector")
	ErrCorruptCache   = errors.New("corrupt bot map cache stream")
	// Some subsector can't be reached from the root node
	ErrUnreachableLeaf = errors.New("subsector unreachable from root")
	// Some seg is not part of any subsector
	ErrUnownedSeg  = errors.New("seg belongs to no subsector")
	ErrPartitioner = errors.New("partitioner failed")
)
