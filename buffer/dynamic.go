// Copyright (c) 2026 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package buffer implements append-only machine-code buffers.
package buffer

import (
	"encoding/binary"

	"github.com/pkg/errors"
)

// Dynamic is a variable-capacity buffer.  The default value is a valid empty
// buffer.
type Dynamic struct {
	buf []byte
}

// NewDynamic buffer.  The slice must be empty.
func NewDynamic(b []byte) *Dynamic {
	if len(b) != 0 {
		panic(errors.New("slice must be empty"))
	}
	return &Dynamic{b}
}

// Len doesn't panic.
func (d *Dynamic) Len() int {
	return len(d.buf)
}

// Bytes doesn't panic.
func (d *Dynamic) Bytes() []byte {
	return d.buf
}

// PutByte doesn't panic unless out of memory.
func (d *Dynamic) PutByte(value byte) {
	d.Extend(1)[0] = value
}

// PutBytes doesn't panic unless out of memory.
func (d *Dynamic) PutBytes(values []byte) {
	copy(d.Extend(len(values)), values)
}

// PutUint16 appends a little-endian 16-bit word.
func (d *Dynamic) PutUint16(i uint16) {
	binary.LittleEndian.PutUint16(d.Extend(2), i)
}

// PutUint32 appends a little-endian 32-bit word.
func (d *Dynamic) PutUint32(i uint32) {
	binary.LittleEndian.PutUint32(d.Extend(4), i)
}

// PutUint64 appends a little-endian 64-bit word.
func (d *Dynamic) PutUint64(i uint64) {
	binary.LittleEndian.PutUint64(d.Extend(8), i)
}

// PutInt32 appends a little-endian signed 32-bit word.
func (d *Dynamic) PutInt32(i int32) {
	d.PutUint32(uint32(i))
}

// PutInt64 appends a little-endian signed 64-bit word.
func (d *Dynamic) PutInt64(i int64) {
	d.PutUint64(uint64(i))
}

// PatchByte overwrites one byte.  The offset must be within the current
// length; a write past the end is a caller bug.
func (d *Dynamic) PatchByte(offset int, value byte) {
	if offset < 0 || offset >= len(d.buf) {
		panic(errors.Errorf("patch offset %d outside buffer of %d bytes", offset, len(d.buf)))
	}
	d.buf[offset] = value
}

// PatchUint32 overwrites four bytes with a little-endian 32-bit word.  The
// whole target range must be within the current length.
func (d *Dynamic) PatchUint32(offset int, value uint32) {
	if offset < 0 || offset+4 > len(d.buf) {
		panic(errors.Errorf("patch offset %d outside buffer of %d bytes", offset, len(d.buf)))
	}
	binary.LittleEndian.PutUint32(d.buf[offset:], value)
}

// Extend doesn't panic unless out of memory.
func (d *Dynamic) Extend(addLen int) []byte {
	offset := len(d.buf)

	if size := offset + addLen; size <= cap(d.buf) {
		if size < offset { // Check for overflow
			panic(errors.New("buffer size out of range"))
		}

		d.buf = d.buf[:size]
	} else {
		d.grow(addLen)
	}

	return d.buf[offset:]
}

func (d *Dynamic) grow(addLen int) {
	newLen := len(d.buf) + addLen

	newCap := cap(d.buf)*2 + addLen
	if newCap < cap(d.buf) { // Handle overflow
		newCap = newLen
	}

	newBuf := make([]byte, newLen, newCap)
	copy(newBuf, d.buf)
	d.buf = newBuf
}
