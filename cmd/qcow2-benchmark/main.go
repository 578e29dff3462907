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

// Command qcow2-benchmark measures random-offset read throughput against a
// qcow2 image and, as a side effect, checks that re-reading the same block
// always yields identical bytes.
package main

import (
	"fmt"
	"hash/crc32"
	"io"
	"log"
	"os"
	"sync"
	"time"

	"github.com/nullbyte-labs/qcow2ro"
	"github.com/silverisntgold/randshiro"
)

const blockSize = 4096    // 4KB block size.
const totalBlocks = 10000 // Total number of blocks to read.
const queueDepth = 20     // Concurrent readers.

type block struct {
	offset int64
}

func main() {
	if len(os.Args) != 2 {
		fmt.Println("Usage: qcow2-benchmark QCOW2")
		os.Exit(1)
	}

	img, err := qcow2.Open(os.Args[1])
	if err != nil {
		log.Fatal(err)
	}
	defer img.Close()

	imageSize := img.GuestSize()
	if imageSize < blockSize {
		log.Fatalf("image too small to benchmark: %d bytes", imageSize)
	}

	rng := randshiro.New128pp()

	var blocks []block
	for i := 0; i < totalBlocks; i++ {
		for {
			offset := int64(rng.Uint64() % uint64(imageSize-blockSize+1))
			b := block{offset: offset}
			if !overlapsAny(b, blocks) {
				blocks = append(blocks, b)
				break
			}
		}
	}

	var wg sync.WaitGroup
	jobCh := make(chan block)

	for i := 0; i < queueDepth; i++ {
		go worker(&wg, jobCh, img.Reader())
	}

	start := time.Now()

	for _, b := range blocks {
		wg.Add(1)
		jobCh <- b
	}
	close(jobCh)
	wg.Wait()

	elapsed := time.Since(start)

	// Each block is read twice: once to measure, once to confirm the
	// second read is byte-identical to the first.
	iops := float64(2*len(blocks)) / elapsed.Seconds()
	throughput := iops * float64(blockSize) / (1024 * 1024) // MB/s

	log.Printf("IOPS: %.2f, Throughput: %.2f MB/s\n", iops, throughput)
}

func worker(jobsDone *sync.WaitGroup, jobCh <-chan block, r io.ReaderAt) {
	for b := range jobCh {
		first := make([]byte, blockSize)
		if _, err := r.ReadAt(first, b.offset); err != nil {
			log.Fatal(err)
		}
		firstCRC := crc32.ChecksumIEEE(first)

		second := make([]byte, blockSize)
		if _, err := r.ReadAt(second, b.offset); err != nil {
			log.Fatal(err)
		}
		if crc := crc32.ChecksumIEEE(second); crc != firstCRC {
			log.Fatalf("CRC mismatch at offset %d: %x != %x\n", b.offset, crc, firstCRC)
		}

		jobsDone.Done()
	}
}

func overlapsAny(b block, blocks []block) bool {
	for _, other := range blocks {
		if overlap(b.offset, blockSize, other.offset, blockSize) {
			return true
		}
	}
	return false
}

func overlap(a, asize, b, bsize int64) bool {
	return a < b+bsize && b < a+asize
}
