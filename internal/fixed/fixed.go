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

// Package fixed implements the 16.16 fixed point numbers that all bot map
// coordinates and heights are expressed in.
package fixed

import (
	"math"
	"strconv"
)

const FRACBITS = 16

const FRACUNIT Fixed = 1 << FRACBITS

const FIXED16DOT16_MULTIPLIER = 65536.0

const (
	MAXINT Fixed = math.MaxInt32
	MININT Fixed = math.MinInt32
)

// Fixed is a signed 16.16 fixed point value
type Fixed int32

// Wide is what products of two Fixed values are held in, so that nothing
// overflows
type Wide int64

// FromInt converts whole map units to fixed point
func FromInt(i int) Fixed {
	return Fixed(i << FRACBITS)
}

// FromFloat rounds to the nearest representable value
func FromFloat(f float64) Fixed {
	return Fixed(math.Round(f * FIXED16DOT16_MULTIPLIER))
}

func (f Fixed) Float() float64 {
	return float64(f) / FIXED16DOT16_MULTIPLIER
}

// Int truncates toward negative infinity, as >> FRACBITS does
func (f Fixed) Int() int {
	return int(f >> FRACBITS)
}

func (f Fixed) Abs() Fixed {
	if f < 0 {
		return -f
	}
	return f
}

// Mul is the classic FixedMul
func Mul(a, b Fixed) Fixed {
	return Fixed((Wide(a) * Wide(b)) >> FRACBITS)
}

// Mul64 returns the full product without shifting it back, for comparisons
// that must be exact
func Mul64(a, b Fixed) Wide {
	return Wide(a) * Wide(b)
}

func Div(a, b Fixed) Fixed {
	if (a.Abs() >> 14) >= b.Abs() {
		if (a ^ b) < 0 {
			return MININT
		}
		return MAXINT
	}
	return Fixed((Wide(a) << FRACBITS) / Wide(b))
}

func (f Fixed) String() string {
	if f&(FRACUNIT-1) == 0 {
		return strconv.Itoa(f.Int())
	}
	return strconv.FormatFloat(f.Float(), 'f', -1, 64)
}
