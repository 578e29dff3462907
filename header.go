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
	"encoding/binary"
	"io"
)

const (
	magic            uint32 = 0x514649fb
	supportedVersion uint32 = 3

	// commonHeaderLen is the fixed 72-byte prefix shared by all versions.
	commonHeaderLen = 72
	// v3SuffixLen is the fixed portion of the version-3 suffix, before any
	// header_length-declared padding or extensions.
	v3SuffixLen = 32
)

// commonWire is the on-disk layout of the fixed 72-byte common header.
type commonWire struct {
	Magic                 uint32
	Version               uint32
	BackingFileOffset     uint64
	BackingFileSize       uint32
	ClusterBits           uint32
	Size                  uint64
	CryptMethod           uint32
	L1Size                uint32
	L1TableOffset         uint64
	RefcountTableOffset   uint64
	RefcountTableClusters uint32
	NbSnapshots           uint32
	SnapshotsOffset       uint64
}

// v3Wire is the on-disk layout of the fixed portion of the version-3 suffix.
type v3Wire struct {
	Incompatible  uint64
	Compatible    uint64
	Autoclear     uint64
	RefcountOrder uint32
	HeaderLength  uint32
}

// Header is the fully parsed and validated qcow2 v3 header.
type Header struct {
	commonWire

	Incompatible FeatureSet
	Compatible   FeatureSet
	Autoclear    FeatureSet

	RefcountOrder uint32
	HeaderLength  uint32

	FeatureNameTable  *FeatureNameTable
	UnknownExtensions []*unknownExtension

	BackingFileName string
}

// ClusterSize returns 1 << cluster_bits.
func (h *Header) ClusterSize() uint64 {
	return uint64(1) << h.ClusterBits
}

// GuestSize returns the virtual disk size in bytes.
func (h *Header) GuestSize() uint64 {
	return h.Size
}

// l2EntriesPerTable returns how many entries fit in one L2 cluster.
func (h *Header) l2EntriesPerTable() uint64 {
	return h.ClusterSize() / 8
}

// maxVirtualBlocks returns how many clusters the guest can address.
func (h *Header) maxVirtualBlocks() uint64 {
	return divCeil(h.Size, h.ClusterSize())
}

// l1Entries returns how many entries the L1 table must have.
func (h *Header) l1Entries() uint64 {
	return divCeil(h.maxVirtualBlocks(), h.l2EntriesPerTable())
}

// guestOffsetInfo splits a guest offset into its L1 index, L2 index, and
// byte offset within the addressed cluster.
func (h *Header) guestOffsetInfo(pos uint64) (l1Idx, l2Idx, blockOffset uint64) {
	blockIdx, blockOffset := divRem(pos, h.ClusterSize())
	l1Idx, l2Idx = divRem(blockIdx, h.l2EntriesPerTable())
	return l1Idx, l2Idx, blockOffset
}

// validateCommon enforces the static invariants that only depend on the
// fixed 72-byte header.
func (h *Header) validateCommon() error {
	if h.Magic != magic {
		return errFileType()
	}
	if h.Version != supportedVersion {
		return errVersion(h.Version)
	}
	if h.ClusterBits < 9 || h.ClusterBits > 22 {
		return errFileFormat("bad cluster_bits %d", h.ClusterBits)
	}
	if h.CryptMethod != 0 {
		return errUnsupportedFeature("encryption")
	}
	if uint64(h.L1Size) != h.l1Entries() {
		return errFileFormat("bad L1 entry count")
	}
	if !isMultipleOf(h.L1TableOffset, h.ClusterSize()) {
		return errFileFormat("bad L1 offset")
	}
	if !isMultipleOf(h.RefcountTableOffset, h.ClusterSize()) {
		return errFileFormat("bad refcount offset")
	}
	if !isMultipleOf(h.SnapshotsOffset, h.ClusterSize()) {
		return errFileFormat("bad snapshots offset")
	}
	return nil
}

// readHeader parses and fully validates a qcow2 v3 header from src.
func readHeader(src io.ReaderAt) (*Header, error) {
	sr := io.NewSectionReader(src, 0, 1<<62)

	h := &Header{
		Incompatible: newFeatureSet(FeatureKindIncompatible, incompatibleFeatureNames),
		Compatible:   newFeatureSet(FeatureKindCompatible, compatibleFeatureNames),
		Autoclear:    newFeatureSet(FeatureKindAutoclear, autoclearFeatureNames),
	}

	var common commonWire
	if err := binary.Read(sr, binary.BigEndian, &common); err != nil {
		return nil, errIo(err)
	}
	h.commonWire = common
	pos := uint64(commonHeaderLen)

	if err := h.validateCommon(); err != nil {
		return nil, err
	}

	var v3 v3Wire
	if err := binary.Read(sr, binary.BigEndian, &v3); err != nil {
		return nil, errIo(err)
	}
	pos += v3SuffixLen
	h.Incompatible.set(v3.Incompatible)
	h.Compatible.set(v3.Compatible)
	h.Autoclear.set(v3.Autoclear)
	h.RefcountOrder = v3.RefcountOrder
	h.HeaderLength = v3.HeaderLength

	// A declared header_length larger than what we've consumed so far is
	// padding for fields this implementation doesn't know about yet; skip
	// to it before reading extensions. See DESIGN.md for the forward
	// compatibility rationale.
	if uint64(h.HeaderLength) > pos {
		skip := uint64(h.HeaderLength) - pos
		if _, err := io.CopyN(io.Discard, sr, int64(skip)); err != nil {
			return nil, errIo(err)
		}
		pos = uint64(h.HeaderLength)
	}
	actualLength := pos

	ext := newExtensionReader(sr, pos, h.ClusterSize())
	if err := ext.readAll(); err != nil {
		return nil, err
	}
	pos = ext.pos
	h.FeatureNameTable = ext.featureNameTable
	h.UnknownExtensions = ext.unknown

	if h.BackingFileOffset != 0 {
		if h.BackingFileOffset != pos {
			return nil, errFileFormat("backing file offset not consistent with extensions")
		}
		name := make([]byte, h.BackingFileSize)
		if _, err := io.ReadFull(sr, name); err != nil {
			return nil, errIo(err)
		}
		h.BackingFileName = string(name)
		pos += uint64(h.BackingFileSize)
	}

	if h.Incompatible.Enabled(incompatibleCorruptBit) {
		return nil, errUnsupportedFeature("corrupt bit")
	}
	if err := h.Incompatible.ensureKnown(h.FeatureNameTable); err != nil {
		return nil, err
	}
	if h.RefcountOrder > 6 {
		return nil, errFileFormat("bad refcount_order %d", h.RefcountOrder)
	}
	if uint64(h.HeaderLength) != actualLength {
		return nil, errFileFormat("header is %d bytes, file claims %d", actualLength, h.HeaderLength)
	}
	if pos > h.ClusterSize() {
		return nil, errFileFormat("complete header too big for first cluster")
	}

	return h, nil
}
