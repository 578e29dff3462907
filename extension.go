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
	"fmt"
	"io"
)

const (
	// extCodeEnd terminates the extension list.
	extCodeEnd uint32 = 0x00000000
	// extCodeFeatureNameTable is the only known extension this library
	// understands; everything else is kept opaque.
	extCodeFeatureNameTable uint32 = 0x6803f857
)

// Extension is a typed header extension. Known codes get a typed Extension
// implementation; everything else becomes an unknownExtension.
type Extension interface {
	// Code returns the extension's 32-bit type code.
	Code() uint32
	// Read consumes exactly the extension's declared payload from r.
	Read(r io.Reader, length uint32) error
}

// unknownExtension retains an unrecognized extension verbatim.
type unknownExtension struct {
	code    uint32
	payload []byte
}

func (u *unknownExtension) Code() uint32 { return u.code }

func (u *unknownExtension) Read(r io.Reader, length uint32) error {
	u.payload = make([]byte, length)
	if _, err := io.ReadFull(r, u.payload); err != nil {
		return errIo(err)
	}
	return nil
}

// featureNameEntry is one 48-byte record of a feature-name-table extension.
type featureNameEntry struct {
	kind FeatureKind
	bit  uint8
	name string
}

// FeatureNameTable is the optional in-file labeling of feature bits beyond
// the format's built-in static names, used solely for diagnostics.
type FeatureNameTable struct {
	entries []featureNameEntry
}

func (t *FeatureNameTable) Code() uint32 { return extCodeFeatureNameTable }

// name looks up a human label for (kind, bit), falling back to the literal
// "bit N of KIND" when no entry matches.
func (t *FeatureNameTable) name(kind FeatureKind, bit uint8) string {
	if t != nil {
		for _, e := range t.entries {
			if e.kind == kind && e.bit == bit {
				return e.name
			}
		}
	}
	return fmt.Sprintf("bit %d of %s", bit, kind)
}

const featureNameRecordLen = 48

func (t *FeatureNameTable) Read(r io.Reader, length uint32) error {
	if length%featureNameRecordLen != 0 {
		return errFileFormat("feature name table length %d not a multiple of %d", length, featureNameRecordLen)
	}
	n := int(length) / featureNameRecordLen
	buf := make([]byte, length)
	if _, err := io.ReadFull(r, buf); err != nil {
		return errIo(err)
	}
	for i := 0; i < n; i++ {
		rec := buf[i*featureNameRecordLen : (i+1)*featureNameRecordLen]
		kind := rec[0]
		bit := rec[1]
		if kind >= 3 {
			return errFileFormat("unknown feature kind %d in feature name table", kind)
		}
		if bit > 63 {
			return errFileFormat("bit number %d too high in feature name table", bit)
		}
		nameBytes := rec[2:featureNameRecordLen]
		if nul := bytes.IndexByte(nameBytes, 0); nul >= 0 {
			nameBytes = nameBytes[:nul]
		}
		for _, c := range nameBytes {
			if c >= 0x80 {
				return errFileFormat("unsafe characters in feature name table")
			}
		}
		t.entries = append(t.entries, featureNameEntry{
			kind: FeatureKind(kind),
			bit:  bit,
			name: string(nameBytes),
		})
	}
	return nil
}

// extensionReader frames the (code, length, payload, padding) sequence
// within the header's first cluster and dispatches known codes.
type extensionReader struct {
	r           io.Reader
	pos         uint64
	clusterSize uint64
	seen        map[uint32]bool

	featureNameTable *FeatureNameTable
	unknown          []*unknownExtension
}

func newExtensionReader(r io.Reader, startPos, clusterSize uint64) *extensionReader {
	return &extensionReader{
		r:                r,
		pos:              startPos,
		clusterSize:      clusterSize,
		seen:             make(map[uint32]bool),
		featureNameTable: &FeatureNameTable{},
	}
}

func (e *extensionReader) readU32() (uint32, error) {
	var buf [4]byte
	if _, err := io.ReadFull(e.r, buf[:]); err != nil {
		return 0, errIo(err)
	}
	e.pos += 4
	return binary.BigEndian.Uint32(buf[:]), nil
}

// readAll consumes extensions until the terminating zero-code record.
func (e *extensionReader) readAll() error {
	for {
		code, err := e.readU32()
		if err != nil {
			return err
		}
		length, err := e.readU32()
		if err != nil {
			return err
		}
		if code == extCodeEnd {
			return nil
		}

		if e.pos+uint64(length) > e.clusterSize {
			return errFileFormat("complete header too big for first cluster")
		}
		if e.seen[code] {
			return errFileFormat("duplicate header extension %#x", code)
		}
		e.seen[code] = true

		var ext Extension
		switch code {
		case extCodeFeatureNameTable:
			ext = e.featureNameTable
		default:
			u := &unknownExtension{code: code}
			e.unknown = append(e.unknown, u)
			ext = u
		}

		limited := io.LimitReader(e.r, int64(length))
		if err := ext.Read(limited, length); err != nil {
			return err
		}
		if remaining, _ := io.Copy(io.Discard, limited); remaining > 0 {
			return errFileFormat("%d bytes left after reading extension %#x", remaining, code)
		}
		e.pos += uint64(length)

		pad := paddingToMultiple(uint64(length), 8)
		if pad > 0 {
			if _, err := io.CopyN(io.Discard, e.r, int64(pad)); err != nil {
				return errIo(err)
			}
			e.pos += pad
		}
	}
}
