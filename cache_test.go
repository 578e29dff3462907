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
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestL2TableCacheLoadsAndCaches(t *testing.T) {
	entriesPerTable := uint64(testClusterSize / 8)

	buf := make([]byte, testClusterSize*2)
	binary.BigEndian.PutUint64(buf[testClusterSize:testClusterSize+8], 0xdeadbeef)
	src := bytes.NewReader(buf)

	c := newL2TableCache(src, entriesPerTable)

	table, err := c.get(testClusterSize)
	require.NoError(t, err)
	require.Len(t, table, int(entriesPerTable))
	assert.EqualValues(t, 0xdeadbeef, table[0])

	// Overwrite the table on the source: a second get for the same offset
	// must return the cached table, not re-read the changed bytes.
	binary.BigEndian.PutUint64(buf[testClusterSize:testClusterSize+8], 0x1)
	again, err := c.get(testClusterSize)
	require.NoError(t, err)
	assert.Equal(t, table, again)
}

func TestL2TableCacheDistinctOffsets(t *testing.T) {
	entriesPerTable := uint64(testClusterSize / 8)

	buf := make([]byte, testClusterSize*3)
	binary.BigEndian.PutUint64(buf[0:8], 1)
	binary.BigEndian.PutUint64(buf[testClusterSize*2:testClusterSize*2+8], 2)
	src := bytes.NewReader(buf)

	c := newL2TableCache(src, entriesPerTable)

	a, err := c.get(0)
	require.NoError(t, err)
	b, err := c.get(testClusterSize * 2)
	require.NoError(t, err)

	assert.EqualValues(t, 1, a[0])
	assert.EqualValues(t, 2, b[0])
}
