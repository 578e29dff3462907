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

// divRem divides a by b and returns the quotient and remainder. b must be
// nonzero; callers never pass zero.
func divRem(a, b uint64) (uint64, uint64) {
	return a / b, a % b
}

// divCeil divides a by b, rounding up.
func divCeil(a, b uint64) uint64 {
	q, r := divRem(a, b)
	if r == 0 {
		return q
	}
	return q + 1
}

// isMultipleOf reports whether a is an exact multiple of b.
func isMultipleOf(a, b uint64) bool {
	return a%b == 0
}

// paddingToMultiple returns how many bytes must be added to a to reach the
// next multiple of b (zero if a is already a multiple).
func paddingToMultiple(a, b uint64) uint64 {
	r := a % b
	if r == 0 {
		return 0
	}
	return b - r
}
