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

// zeroReader is an io.Reader that always fills p with zero bytes, used to
// satisfy reads against unallocated or explicitly zeroed clusters without
// a branch at every call site.
type zeroReader struct{}

func (zeroReader) Read(p []byte) (int, error) {
	for i := range p {
		p[i] = 0
	}
	return len(p), nil
}

// offsetReader is an io.Reader positioned at a fixed offset into an
// io.ReaderAt, advancing its own position on every Read.
type offsetReader struct {
	r      io.ReaderAt
	offset int64
}

func newOffsetReader(r io.ReaderAt, offset int64) *offsetReader {
	return &offsetReader{r: r, offset: offset}
}

func (o *offsetReader) Read(p []byte) (int, error) {
	n, err := o.r.ReadAt(p, o.offset)
	o.offset += int64(n)
	return n, err
}
