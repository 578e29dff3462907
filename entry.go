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

const (
	l1CowBit      uint64 = 1 << 63
	l1ReservedHi  uint64 = 0x7F << 56
	l1ReservedLo  uint64 = 0x1FF
	l1PosMask     uint64 = ((uint64(1) << 47) - 1) << 9
	l1Reserved           = l1ReservedHi | l1ReservedLo
)

// l1Entry is a raw 64-bit L1 table entry.
type l1Entry uint64

// offset returns the byte offset of the L2 table this entry addresses, or
// zero if the entry is unallocated.
func (e l1Entry) offset() uint64 {
	return uint64(e) & l1PosMask
}

// used reports whether this L1 entry addresses an L2 table.
func (e l1Entry) used() bool {
	return e.offset() != 0
}

// cow reports the copy-on-write flag (bit 63). Unused by a read-only
// implementation but preserved for fidelity with the on-disk format.
func (e l1Entry) cow() bool {
	return uint64(e)&l1CowBit != 0
}

// validate rejects any L1 entry with a reserved bit set.
func (e l1Entry) validate() error {
	if uint64(e)&l1Reserved != 0 {
		return errFileFormat("reserved bit used in L1 entry")
	}
	return nil
}

const (
	l2CowBit        uint64 = 1 << 63
	l2CompressedBit uint64 = 1 << 62
	l2ZeroBit       uint64 = 1 << 0
	l2ReservedHi    uint64 = 0x7F << 56
	l2ReservedLo    uint64 = 0x1FE
	l2PosMask       uint64 = ((uint64(1) << 47) - 1) << 9
	l2Reserved             = l2ReservedHi | l2ReservedLo
)

// l2Entry is a raw 64-bit L2 table entry.
type l2Entry uint64

// cow reports the copy-on-write flag (bit 63).
func (e l2Entry) cow() bool {
	return uint64(e)&l2CowBit != 0
}

// compressed reports whether this entry describes a compressed cluster.
func (e l2Entry) compressed() bool {
	return uint64(e)&l2CompressedBit != 0
}

// zero reports the all-zero flag (bit 0), only meaningful when !compressed().
func (e l2Entry) zero() bool {
	return uint64(e)&l2ZeroBit != 0
}

// offset returns the standard cluster's byte offset, or zero if unallocated.
// Only meaningful when !compressed().
func (e l2Entry) offset() uint64 {
	return uint64(e) & l2PosMask
}

// used reports whether this standard L2 entry addresses an allocated cluster.
func (e l2Entry) used() bool {
	return e.offset() != 0
}

// validateStandard rejects a non-compressed L2 entry with a reserved bit set.
func (e l2Entry) validateStandard() error {
	if uint64(e)&l2Reserved != 0 {
		return errFileFormat("reserved bit used in L2 entry")
	}
	return nil
}

// compressedDescriptor returns the compressed cluster's starting host offset
// and the number of 512-byte sectors its compressed data spans, per the
// cluster_bits-dependent split documented for compressed L2 entries.
func (e l2Entry) compressedDescriptor(clusterBits uint32) (hostOffset, sectors uint64) {
	x := uint(62 - clusterBits)
	masked := uint64(e) &^ (l2CowBit | l2CompressedBit)
	posMask := (uint64(1) << x) - 1
	hostOffset = masked & posMask
	sectors = masked >> x
	return hostOffset, sectors
}
