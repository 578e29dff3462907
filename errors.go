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

import "fmt"

// Kind classifies an Error into the taxonomy the library promises callers.
type Kind int

const (
	// KindIo wraps a failure from the positioned backing source.
	KindIo Kind = iota
	// KindFileType means the magic number did not match.
	KindFileType
	// KindVersion means the file claims an unsupported version.
	KindVersion
	// KindUnsupportedFeature means a recognized but unimplemented feature was found.
	KindUnsupportedFeature
	// KindFileFormat means a structural violation of the on-disk format.
	KindFileFormat
	// KindInternal means an invariant of the library itself was violated.
	KindInternal
)

func (k Kind) String() string {
	switch k {
	case KindIo:
		return "io"
	case KindFileType:
		return "file type"
	case KindVersion:
		return "version"
	case KindUnsupportedFeature:
		return "unsupported feature"
	case KindFileFormat:
		return "file format"
	case KindInternal:
		return "internal"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Error is the error type returned by the operations in this package, except
// that Reader.ReadAt reports the end of the guest image with a bare io.EOF.
// Use errors.As to recover it, and Kind to classify it.
type Error struct {
	kind    Kind
	version uint32
	msg     string
	err     error
}

func (e *Error) Error() string {
	switch e.kind {
	case KindFileType:
		return "not a qcow2 image"
	case KindVersion:
		return fmt.Sprintf("unsupported qcow2 version %d", e.version)
	case KindUnsupportedFeature:
		return fmt.Sprintf("unsupported feature: %s", e.msg)
	case KindFileFormat:
		return e.msg
	case KindInternal:
		return fmt.Sprintf("internal error: %s", e.msg)
	case KindIo:
		if e.err != nil {
			return e.err.Error()
		}
		return "i/o error"
	default:
		return e.msg
	}
}

func (e *Error) Unwrap() error {
	return e.err
}

// Kind reports which taxonomy bucket the error falls into.
func (e *Error) Kind() Kind {
	return e.kind
}

// Version reports the version number that caused a KindVersion error.
func (e *Error) Version() uint32 {
	return e.version
}

func errIo(err error) error {
	if err == nil {
		return nil
	}
	return &Error{kind: KindIo, err: err}
}

func errFileType() error {
	return &Error{kind: KindFileType}
}

func errVersion(v uint32) error {
	return &Error{kind: KindVersion, version: v}
}

func errUnsupportedFeature(label string) error {
	return &Error{kind: KindUnsupportedFeature, msg: label}
}

func errFileFormat(format string, args ...interface{}) error {
	return &Error{kind: KindFileFormat, msg: fmt.Sprintf(format, args...)}
}

func errInternal(format string, args ...interface{}) error {
	return &Error{kind: KindInternal, msg: fmt.Sprintf(format, args...)}
}
