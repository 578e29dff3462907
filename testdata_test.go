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

import "encoding/binary"

// testClusterBits/testClusterSize keep synthetic fixtures small: 512-byte
// clusters with 64 entries per L1/L2 table.
const (
	testClusterBits = 9
	testClusterSize = 1 << testClusterBits
)

// testHeaderFields mirrors the on-disk v3 header fields with defaults that
// pass every static invariant for a tiny, single-L2-table image; tests
// mutate individual fields to exercise specific error paths.
type testHeaderFields struct {
	magic                 uint32
	version               uint32
	backingFileOffset     uint64
	backingFileSize       uint32
	clusterBits           uint32
	size                  uint64
	cryptMethod           uint32
	l1Size                uint32
	l1TableOffset         uint64
	refcountTableOffset   uint64
	refcountTableClusters uint32
	nbSnapshots           uint32
	snapshotsOffset       uint64
	incompatible          uint64
	compatible            uint64
	autoclear             uint64
	refcountOrder         uint32
	headerLength          uint32
}

// newValidHeaderFields returns a header describing an image with one L1
// entry pointing at one L2 table, sized to hold exactly guestClusters data
// clusters. Cluster 0 holds the header, cluster 1 the L1 table, cluster 2
// the L2 table, and data starts at cluster 3.
func newValidHeaderFields(guestClusters uint64) testHeaderFields {
	size := guestClusters * testClusterSize
	return testHeaderFields{
		magic:               magic,
		version:             supportedVersion,
		clusterBits:         testClusterBits,
		size:                size,
		cryptMethod:         0,
		l1Size:              1,
		l1TableOffset:       1 * testClusterSize,
		refcountTableOffset: 0,
		snapshotsOffset:     0,
		refcountOrder:       4,
		headerLength:        104,
	}
}

// encode renders the 104-byte fixed header (common + v3 suffix), matching
// commonWire/v3Wire's field order exactly.
func (f testHeaderFields) encode() []byte {
	buf := make([]byte, 104)
	be := binary.BigEndian
	be.PutUint32(buf[0:4], f.magic)
	be.PutUint32(buf[4:8], f.version)
	be.PutUint64(buf[8:16], f.backingFileOffset)
	be.PutUint32(buf[16:20], f.backingFileSize)
	be.PutUint32(buf[20:24], f.clusterBits)
	be.PutUint64(buf[24:32], f.size)
	be.PutUint32(buf[32:36], f.cryptMethod)
	be.PutUint32(buf[36:40], f.l1Size)
	be.PutUint64(buf[40:48], f.l1TableOffset)
	be.PutUint64(buf[48:56], f.refcountTableOffset)
	be.PutUint32(buf[56:60], f.refcountTableClusters)
	be.PutUint32(buf[60:64], f.nbSnapshots)
	be.PutUint64(buf[64:72], f.snapshotsOffset)
	be.PutUint64(buf[72:80], f.incompatible)
	be.PutUint64(buf[80:88], f.compatible)
	be.PutUint64(buf[88:96], f.autoclear)
	be.PutUint32(buf[96:100], f.refcountOrder)
	be.PutUint32(buf[100:104], f.headerLength)
	return buf
}

// extensionTerminator is the 8-byte (code=0, length=0) record that ends the
// extension list.
func extensionTerminator() []byte {
	return make([]byte, 8)
}

// featureNameTableExtension frames a feature-name-table extension with the
// given 48-byte records, including the code/length prefix and padding.
func featureNameTableExtension(records ...[]byte) []byte {
	var payload []byte
	for _, r := range records {
		payload = append(payload, r...)
	}
	buf := make([]byte, 8)
	binary.BigEndian.PutUint32(buf[0:4], extCodeFeatureNameTable)
	binary.BigEndian.PutUint32(buf[4:8], uint32(len(payload)))
	buf = append(buf, payload...)
	pad := paddingToMultiple(uint64(len(payload)), 8)
	buf = append(buf, make([]byte, pad)...)
	return buf
}

// featureNameRecord builds one 48-byte feature-name-table record.
func featureNameRecord(kind FeatureKind, bit uint8, name string) []byte {
	rec := make([]byte, 48)
	rec[0] = byte(kind)
	rec[1] = bit
	copy(rec[2:], name)
	return rec
}

// testImage assembles a complete byte buffer for a tiny single-L2-table
// image: header at cluster 0, L1 table at cluster 1, L2 table at cluster 2,
// data clusters from cluster 3 onward. dataClusters[i] is the raw content
// of guest cluster i (nil clusters are left unallocated in the L2 table).
func testImage(f testHeaderFields, extensions []byte, dataClusters [][]byte) []byte {
	header := f.encode()
	header = append(header, extensions...)

	img := make([]byte, testClusterSize) // cluster 0: header
	copy(img, header)

	l1 := make([]byte, testClusterSize) // cluster 1: L1 table
	binary.BigEndian.PutUint64(l1[0:8], 2*testClusterSize)
	img = append(img, l1...)

	l2 := make([]byte, testClusterSize) // cluster 2: L2 table
	dataStart := uint64(3)
	for i, data := range dataClusters {
		if data == nil {
			continue
		}
		clusterIdx := dataStart + uint64(i)
		binary.BigEndian.PutUint64(l2[i*8:i*8+8], clusterIdx*testClusterSize)
	}
	img = append(img, l2...)

	for _, data := range dataClusters {
		cluster := make([]byte, testClusterSize)
		copy(cluster, data)
		img = append(img, cluster...)
	}

	return img
}
