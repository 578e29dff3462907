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
	"fmt"
	"strings"
)

// String renders a multi-line human-readable summary of the header, in the
// spirit of a qemu-img info dump: size, cluster layout, and every feature
// bit and extension this library understood or preserved opaquely.
func (h *Header) String() string {
	var b strings.Builder

	fmt.Fprintf(&b, "qcow2 version %d\n", h.Version)
	fmt.Fprintf(&b, "  virtual size: %d bytes\n", h.Size)
	fmt.Fprintf(&b, "  cluster_bits: %d (%d bytes)\n", h.ClusterBits, h.ClusterSize())
	fmt.Fprintf(&b, "  l1_size: %d\n", h.L1Size)
	fmt.Fprintf(&b, "  refcount_order: %d\n", h.RefcountOrder)
	fmt.Fprintf(&b, "  header_length: %d\n", h.HeaderLength)

	if incompat := h.Incompatible.String(h.FeatureNameTable); incompat != "" {
		fmt.Fprintf(&b, "  incompatible features: %s\n", incompat)
	}
	if compat := h.Compatible.String(h.FeatureNameTable); compat != "" {
		fmt.Fprintf(&b, "  compatible features: %s\n", compat)
	}
	if autoclear := h.Autoclear.String(h.FeatureNameTable); autoclear != "" {
		fmt.Fprintf(&b, "  autoclear features: %s\n", autoclear)
	}
	if h.BackingFileName != "" {
		fmt.Fprintf(&b, "  backing file: %s\n", h.BackingFileName)
	}
	for _, u := range h.UnknownExtensions {
		fmt.Fprintf(&b, "  unknown extension: %#x (%d bytes, preserved opaquely)\n", u.Code(), len(u.payload))
	}

	return b.String()
}
