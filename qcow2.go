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

// Package qcow2 provides read-only access to qcow2 version 3 virtual disk
// images: header parsing and validation, L1/L2 address translation with a
// bounded L2 table cache, and an io.ReaderAt over the guest address space.
//
// Write support, encryption, snapshots and backing-file chains, and
// compressed-cluster decompression are all out of scope; images using them
// are either rejected outright or, where the format allows, read as far as
// their structure permits.
package qcow2

import "os"

// Image is an open, validated qcow2 image.
type Image struct {
	f      *os.File
	hdr    *Header
	reader *Reader
}

// Open parses and validates the qcow2 header at path and prepares the image
// for reading. The file is always opened read-only.
func Open(path string) (*Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errIo(err)
	}

	hdr, err := readHeader(f)
	if err != nil {
		_ = f.Close()
		return nil, err
	}

	tr, err := newTranslator(f, hdr)
	if err != nil {
		_ = f.Close()
		return nil, err
	}

	return &Image{
		f:      f,
		hdr:    hdr,
		reader: newReader(f, hdr, tr),
	}, nil
}

// Close releases the underlying file descriptor.
func (i *Image) Close() error {
	return i.f.Close()
}

// Reader returns an io.ReaderAt over the image's guest address space.
func (i *Image) Reader() *Reader {
	return i.reader
}

// Header returns the parsed header, for callers that need the raw fields
// (e.g. to render a diagnostic dump).
func (i *Image) Header() *Header {
	return i.hdr
}

// ClusterSize returns the image's cluster size in bytes.
func (i *Image) ClusterSize() int64 {
	return int64(i.hdr.ClusterSize())
}

// GuestSize returns the virtual disk size in bytes.
func (i *Image) GuestSize() int64 {
	return int64(i.hdr.GuestSize())
}
