// Copyright (c) 2026 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package buffer

import (
	"bytes"
	"testing"
)

func TestDynamicPut(t *testing.T) {
	d := NewDynamic(nil)
	d.PutByte(1)
	d.PutUint16(0x0302)
	d.PutUint32(0x07060504)
	d.PutUint64(0x0f0e0d0c0b0a0908)
	d.PutInt32(-1)
	d.PutInt64(-2)
	d.PutBytes([]byte{0x10, 0x11})

	expect := []byte{
		1,
		2, 3,
		4, 5, 6, 7,
		8, 9, 10, 11, 12, 13, 14, 15,
		0xff, 0xff, 0xff, 0xff,
		0xfe, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff,
		0x10, 0x11,
	}
	if !bytes.Equal(d.Bytes(), expect) {
		t.Errorf("% x <> % x", d.Bytes(), expect)
	}
	if d.Len() != len(expect) {
		t.Errorf("Len() = %d", d.Len())
	}
}

func TestDynamicPatch(t *testing.T) {
	d := NewDynamic(nil)
	d.PutUint32(0xffffffff)
	d.PatchUint32(0, 0x04030201)
	d.PatchByte(3, 0xaa)

	if !bytes.Equal(d.Bytes(), []byte{1, 2, 3, 0xaa}) {
		t.Errorf("% x", d.Bytes())
	}
}

func TestDynamicPatchOutOfRange(t *testing.T) {
	d := NewDynamic(nil)
	d.PutUint32(0)

	for _, f := range []func(){
		func() { d.PatchByte(4, 0) },
		func() { d.PatchByte(-1, 0) },
		func() { d.PatchUint32(1, 0) },
		func() { d.PatchUint32(-1, 0) },
	} {
		func() {
			defer func() {
				if recover() == nil {
					t.Error("expected panic")
				}
			}()
			f()
		}()
	}
}

func TestFixed(t *testing.T) {
	f := NewFixed(make([]byte, 0, 4))
	f.PutByte(1)
	f.PutBytes([]byte{2, 3})

	if !bytes.Equal(f.Bytes(), []byte{1, 2, 3}) {
		t.Errorf("% x", f.Bytes())
	}

	defer func() {
		if recover() == nil {
			t.Error("expected panic")
		}
	}()
	f.PutUint32(0)
}
