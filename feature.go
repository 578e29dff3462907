/* SPDX-License-Identifier: Apache-2.0
 *
 * Copyright 2023 Damian Peckett <damian@peckett>.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 * http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package qcow2

import (
	"fmt"
	mathbits "math/bits"
	"strings"
)

// FeatureKind names which of the three 64-bit feature bitmasks a FeatureSet
// represents.
type FeatureKind int

const (
	FeatureKindIncompatible FeatureKind = iota
	FeatureKindCompatible
	FeatureKindAutoclear
)

func (k FeatureKind) String() string {
	switch k {
	case FeatureKindIncompatible:
		return "incompatible"
	case FeatureKindCompatible:
		return "compatible"
	case FeatureKindAutoclear:
		return "autoclear"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

var incompatibleFeatureNames = []string{"dirty", "corrupt"}
var compatibleFeatureNames = []string{"lazy refcounts"}
var autoclearFeatureNames = []string{"bitmaps"}

const (
	incompatibleDirtyBit   = 1 << 0
	incompatibleCorruptBit = 1 << 1
)

// FeatureSet is a 64-bit bitmask tagged by kind, with a built-in static name
// list for the low bits that the format defines.
type FeatureSet struct {
	bits  uint64
	kind  FeatureKind
	names []string
}

func newFeatureSet(kind FeatureKind, names []string) FeatureSet {
	return FeatureSet{kind: kind, names: names}
}

// set overwrites the raw bitmask.
func (f *FeatureSet) set(bits uint64) {
	f.bits = bits
}

// Bits returns the raw 64-bit mask.
func (f FeatureSet) Bits() uint64 {
	return f.bits
}

// Kind returns which feature bitmask this is.
func (f FeatureSet) Kind() FeatureKind {
	return f.kind
}

// Enabled reports whether a specific bit is set.
func (f FeatureSet) Enabled(bit uint64) bool {
	return f.bits&bit != 0
}

// unknown returns the subset of bits at positions at or beyond the static
// name table.
func (f FeatureSet) unknown() FeatureSet {
	known := uint64(len(f.names))
	var mask uint64
	if known < 64 {
		mask = (uint64(1) << known) - 1
	} else {
		mask = ^uint64(0)
	}
	return FeatureSet{kind: f.kind, names: f.names, bits: f.bits &^ mask}
}

// ensureKnown fails with UnsupportedFeature iff any bit outside the static
// name table is set, rendering the unknown bits via table.
func (f FeatureSet) ensureKnown(table *FeatureNameTable) error {
	unknown := f.unknown()
	if unknown.bits == 0 {
		return nil
	}
	return errUnsupportedFeature(unknown.String(table))
}

// String renders the feature set as a pipe-separated human string, walking
// set bits from LSB to MSB. Bits within the static name table use the
// static name; bits beyond it are looked up in table, falling back to
// "bit N of KIND".
func (f FeatureSet) String(table *FeatureNameTable) string {
	var b strings.Builder
	bits := f.bits
	pos := uint(0)
	first := true
	for bits != 0 {
		trailing := mathbits.TrailingZeros64(bits)
		if trailing > 0 {
			bits >>= trailing
			pos += uint(trailing)
			continue
		}
		if !first {
			b.WriteString(" | ")
		}
		first = false
		if int(pos) < len(f.names) {
			b.WriteString(f.names[pos])
		} else {
			b.WriteString(table.name(f.kind, uint8(pos)))
		}
		bits >>= 1
		pos++
	}
	return b.String()
}
