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
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDivCeil(t *testing.T) {
	cases := []struct {
		a, b, want uint64
	}{
		{0, 8, 0},
		{1, 8, 1},
		{8, 8, 1},
		{9, 8, 2},
		{64, 8, 8},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, divCeil(c.a, c.b))
	}
}

func TestIsMultipleOf(t *testing.T) {
	assert.True(t, isMultipleOf(0, 512))
	assert.True(t, isMultipleOf(1024, 512))
	assert.False(t, isMultipleOf(513, 512))
}

func TestPaddingToMultiple(t *testing.T) {
	assert.EqualValues(t, 0, paddingToMultiple(16, 8))
	assert.EqualValues(t, 6, paddingToMultiple(50, 8))
	assert.EqualValues(t, 1, paddingToMultiple(7, 8))
}
