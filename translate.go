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

// clusterStatus classifies what a guest offset resolves to.
type clusterStatus int

const (
	clusterEmpty clusterStatus = iota
	clusterStandard
	clusterCompressed
)

// clusterDescriptor is the result of translating one guest offset.
type clusterDescriptor struct {
	status clusterStatus

	// hostOffset is the allocated cluster's byte offset for clusterStandard,
	// or the compressed data's starting byte offset for clusterCompressed.
	hostOffset uint64
	// sectors is the number of 512-byte sectors the compressed data spans.
	// Only meaningful for clusterCompressed.
	sectors uint64
}

// translator maps guest byte offsets to host cluster descriptors by walking
// the L1/L2 table structure, using an in-memory L1 table and a cached L2
// table lookup.
type translator struct {
	hdr     *Header
	src     io.ReaderAt
	l1      []l1Entry
	l2Cache *l2TableCache
}

func newTranslator(src io.ReaderAt, hdr *Header) (*translator, error) {
	l1, err := readL1Table(src, hdr)
	if err != nil {
		return nil, err
	}
	return &translator{
		hdr:     hdr,
		src:     src,
		l1:      l1,
		l2Cache: newL2TableCache(src, hdr.l2EntriesPerTable()),
	}, nil
}

// readL1Table reads the whole L1 table into memory once; it is small enough
// (one entry per clusterSize*clusterSize/8 bytes of guest address space,
// 512MiB at a 64KiB cluster size) that per-lookup caching would buy nothing.
func readL1Table(src io.ReaderAt, hdr *Header) ([]l1Entry, error) {
	buf := make([]byte, uint64(hdr.L1Size)*8)
	if hdr.L1Size > 0 {
		if _, err := src.ReadAt(buf, int64(hdr.L1TableOffset)); err != nil {
			return nil, errIo(err)
		}
	}

	entries := make([]l1Entry, hdr.L1Size)
	for i := range entries {
		entries[i] = l1Entry(binary.BigEndian.Uint64(buf[i*8 : i*8+8]))
		if err := entries[i].validate(); err != nil {
			return nil, err
		}
	}
	return entries, nil
}

// lookup resolves a guest byte offset to a cluster descriptor and the byte
// offset within that cluster.
func (t *translator) lookup(pos uint64) (clusterDescriptor, uint64, error) {
	l1Idx, l2Idx, blockOffset := t.hdr.guestOffsetInfo(pos)

	if l1Idx >= uint64(len(t.l1)) {
		return clusterDescriptor{}, 0, errInternal("L1 index %d out of range", l1Idx)
	}
	l1e := t.l1[l1Idx]
	if !l1e.used() {
		return clusterDescriptor{status: clusterEmpty}, blockOffset, nil
	}

	l2table, err := t.l2Cache.get(l1e.offset())
	if err != nil {
		return clusterDescriptor{}, 0, err
	}
	if l2Idx >= uint64(len(l2table)) {
		return clusterDescriptor{}, 0, errInternal("L2 index %d out of range", l2Idx)
	}
	l2e := l2table[l2Idx]

	if l2e.compressed() {
		hostOffset, sectors := l2e.compressedDescriptor(t.hdr.ClusterBits)
		return clusterDescriptor{status: clusterCompressed, hostOffset: hostOffset, sectors: sectors}, blockOffset, nil
	}

	if err := l2e.validateStandard(); err != nil {
		return clusterDescriptor{}, 0, err
	}
	if l2e.zero() || !l2e.used() {
		return clusterDescriptor{status: clusterEmpty}, blockOffset, nil
	}
	return clusterDescriptor{status: clusterStandard, hostOffset: l2e.offset()}, blockOffset, nil
}
