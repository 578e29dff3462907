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

import "io"

// Reader is a read-only view over a single qcow2 image's guest address
// space. It implements io.ReaderAt and is safe for concurrent use: the only
// shared mutable state is the L2 table cache, which guards itself.
type Reader struct {
	src io.ReaderAt
	hdr *Header
	tr  *translator
}

func newReader(src io.ReaderAt, hdr *Header, tr *translator) *Reader {
	return &Reader{src: src, hdr: hdr, tr: tr}
}

// Size returns the virtual disk size in bytes.
func (r *Reader) Size() int64 {
	return int64(r.hdr.GuestSize())
}

// ReadAt implements io.ReaderAt over the guest address space. Unallocated
// and explicitly zeroed clusters are synthesized as zero bytes. Reads that
// land on a compressed cluster fail with an UnsupportedFeature error; any
// bytes already filled for a prior cluster in the same call remain valid,
// per io.ReaderAt's short-read contract.
func (r *Reader) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 {
		return 0, errInternal("negative offset %d", off)
	}
	if len(p) == 0 {
		return 0, nil
	}

	guestSize := r.hdr.GuestSize()
	if uint64(off) >= guestSize {
		return 0, io.EOF
	}

	end := uint64(off) + uint64(len(p))
	truncated := false
	if end > guestSize {
		end = guestSize
		truncated = true
	}

	clusterSize := r.hdr.ClusterSize()
	pos := uint64(off)
	total := 0

	for pos < end {
		desc, blockOffset, err := r.tr.lookup(pos)
		if err != nil {
			return total, err
		}

		avail := clusterSize - blockOffset
		remain := end - pos
		n := avail
		if remain < n {
			n = remain
		}
		dst := p[total : total+int(n)]

		switch desc.status {
		case clusterEmpty:
			if _, err := io.ReadFull(zeroReader{}, dst); err != nil {
				return total, errIo(err)
			}
		case clusterStandard:
			hostPos := int64(desc.hostOffset + blockOffset)
			if _, err := io.ReadFull(newOffsetReader(r.src, hostPos), dst); err != nil {
				return total, errIo(err)
			}
		case clusterCompressed:
			return total, errUnsupportedFeature("compressed blocks")
		default:
			return total, errInternal("unknown cluster status %d", int(desc.status))
		}

		total += int(n)
		pos += n
	}

	if truncated {
		return total, io.EOF
	}
	return total, nil
}
