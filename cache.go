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

	"github.com/goburrow/cache"
)

// maxCachedL2Tables bounds how many decoded L2 tables are kept resident.
// Each entry costs entriesPerTable*8 bytes, so at a 64KiB cluster size
// (8192 entries/table) this caps the cache around 2MiB.
const maxCachedL2Tables = 32

// l2TableCache loads and caches decoded L2 tables by their byte offset in
// the backing source, evicting the least recently used table when full. It
// is safe for concurrent use: goburrow/cache guards its own state, but the
// loader runs outside that lock, so two concurrent misses on the same offset
// may both read the table and the later insert wins (the contents are
// identical either way).
type l2TableCache struct {
	src             io.ReaderAt
	entriesPerTable uint64
	cache           cache.LoadingCache
}

func newL2TableCache(src io.ReaderAt, entriesPerTable uint64) *l2TableCache {
	c := &l2TableCache{
		src:             src,
		entriesPerTable: entriesPerTable,
	}
	c.cache = cache.NewLoadingCache(c.load,
		cache.WithMaximumSize(maxCachedL2Tables),
		cache.WithPolicy("lru"))
	return c
}

func (c *l2TableCache) load(k cache.Key) (cache.Value, error) {
	offset := k.(uint64)

	buf := make([]byte, c.entriesPerTable*8)
	if _, err := c.src.ReadAt(buf, int64(offset)); err != nil {
		return nil, errIo(err)
	}

	entries := make([]l2Entry, c.entriesPerTable)
	for i := range entries {
		entries[i] = l2Entry(binary.BigEndian.Uint64(buf[i*8 : i*8+8]))
	}
	return entries, nil
}

// get returns the decoded L2 table stored at offset, loading and caching it
// on first access.
func (c *l2TableCache) get(offset uint64) ([]l2Entry, error) {
	v, err := c.cache.Get(offset)
	if err != nil {
		return nil, err
	}
	return v.([]l2Entry), nil
}
