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

// Command qcow2-dump prints a human-readable summary of one or more qcow2
// images' headers.
package main

import (
	"fmt"
	"log"
	"os"

	"github.com/nullbyte-labs/qcow2ro"
)

func main() {
	args := os.Args[1:]
	if len(args) == 0 {
		fmt.Println("Usage: qcow2-dump QCOW2 [...]")
		return
	}

	for _, path := range args {
		img, err := qcow2.Open(path)
		if err != nil {
			log.Fatalf("Error reading qcow2 `%s': %v", path, err)
		}

		fmt.Printf("%s:\n%s\n", path, img.Header())

		if err := img.Close(); err != nil {
			log.Fatalf("Error closing `%s': %v", path, err)
		}
	}
}
