// Copyright (c) 2026 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package buffer

import (
	"encoding/binary"

	"github.com/pkg/errors"
)

// Fixed is a fixed-capacity buffer, for emitting into preallocated or mapped
// memory.  The slice must be empty; its capacity bounds the buffer.
type Fixed struct {
	b []byte
}

func NewFixed(b []byte) *Fixed {
	if len(b) != 0 {
		panic(errors.New("slice must be empty"))
	}
	return &Fixed{b}
}

func (f *Fixed) Len() int          { return len(f.b) }
func (f *Fixed) Bytes() []byte     { return f.b }
func (f *Fixed) PutByte(b byte)    { f.Extend(1)[0] = b }
func (f *Fixed) PutBytes(b []byte) { copy(f.Extend(len(b)), b) }

func (f *Fixed) PutUint32(i uint32) {
	binary.LittleEndian.PutUint32(f.Extend(4), i)
}

// Extend panics if the capacity is exceeded.
func (f *Fixed) Extend(n int) []byte {
	offset := len(f.b)
	if offset+n > cap(f.b) {
		panic(errors.Errorf("fixed buffer capacity %d exceeded", cap(f.b)))
	}
	f.b = f.b[:offset+n]
	return f.b[offset:]
}
