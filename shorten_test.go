// Copyright (c) 2026 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package emit

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/arch/x86/x86asm"

	"gate.computer/emit/reg"
)

func TestFinalizeScenarios(t *testing.T) {
	t.Run("jmp over nops", func(t *testing.T) {
		a := NewAssembler()
		l := a.NewLabel()
		a.JmpLabel(l)
		for i := 0; i < 3; i++ {
			a.Nop()
		}
		a.DefineLabel(l)
		a.Ret()

		text, err := a.Finalize()
		require.NoError(t, err)
		assert.Equal(t, "EB 03 90 90 90 C3", HexString(text))
	})

	t.Run("jmp out of short range", func(t *testing.T) {
		a := NewAssembler()
		l := a.NewLabel()
		a.JmpLabel(l)
		for i := 0; i < 200; i++ {
			a.Nop()
		}
		a.DefineLabel(l)
		a.Ret()

		text, err := a.Finalize()
		require.NoError(t, err)
		require.Equal(t, 206, len(text))
		assert.Equal(t, "E9 C8 00 00 00", HexString(text[:5]))
		assert.Equal(t, byte(0x90), text[5])
		assert.Equal(t, byte(0xc3), text[205])
	})

	t.Run("conditional skip", func(t *testing.T) {
		a := NewAssembler()
		a.Cmp(reg.RAX, reg.RBX)
		l := a.NewLabel()
		a.JgLabel(l)
		a.Mov(reg.RAX, reg.RBX)
		a.DefineLabel(l)
		a.Ret()

		text, err := a.Finalize()
		require.NoError(t, err)
		assert.Equal(t, "48 39 D8 7F 03 48 89 D8 C3", HexString(text))
	})

	t.Run("call to next instruction", func(t *testing.T) {
		a := NewAssembler()
		l := a.NewLabel()
		a.CallLabel(l)
		a.DefineLabel(l)
		a.Ret()

		text, err := a.Finalize()
		require.NoError(t, err)
		assert.Equal(t, "E8 00 00 00 00 C3", HexString(text))
	})

	t.Run("jmp to next instruction", func(t *testing.T) {
		a := NewAssembler()
		l := a.NewLabel()
		a.JmpLabel(l)
		a.DefineLabel(l)
		a.Ret()

		text, err := a.Finalize()
		require.NoError(t, err)
		assert.Equal(t, "EB 00 C3", HexString(text))
	})
}

func TestShortenBoundaries(t *testing.T) {
	t.Run("forward 127 shortens", func(t *testing.T) {
		a := NewAssembler()
		l := a.NewLabel()
		a.JmpLabel(l)
		a.NopN(127)
		a.DefineLabel(l)
		a.Ret()

		text, err := a.Finalize()
		require.NoError(t, err)
		require.Equal(t, 130, len(text))
		assert.Equal(t, "EB 7F", HexString(text[:2]))
	})

	t.Run("forward 128 stays long", func(t *testing.T) {
		a := NewAssembler()
		l := a.NewLabel()
		a.JmpLabel(l)
		a.NopN(128)
		a.DefineLabel(l)
		a.Ret()

		text, err := a.Finalize()
		require.NoError(t, err)
		require.Equal(t, 134, len(text))
		assert.Equal(t, "E9 80 00 00 00", HexString(text[:5]))
	})

	t.Run("backward -128 shortens", func(t *testing.T) {
		a := NewAssembler()
		l := a.NewLabel()
		a.DefineLabel(l)
		a.NopN(126)
		a.JmpLabel(l)

		text, err := a.Finalize()
		require.NoError(t, err)
		require.Equal(t, 128, len(text))
		assert.Equal(t, "EB 80", HexString(text[126:]))
	})

	t.Run("backward -129 stays long", func(t *testing.T) {
		a := NewAssembler()
		l := a.NewLabel()
		a.DefineLabel(l)
		a.NopN(127)
		a.JmpLabel(l)

		text, err := a.Finalize()
		require.NoError(t, err)
		require.Equal(t, 132, len(text))
		assert.Equal(t, "E9 7C FF FF FF", HexString(text[127:]))
	})
}

func TestCallNeverShortens(t *testing.T) {
	a := NewAssembler()
	l := a.NewLabel()
	a.CallLabel(l)
	a.NopN(3)
	a.DefineLabel(l)
	a.Ret()

	text, err := a.Finalize()
	require.NoError(t, err)
	assert.Equal(t, "E8 03 00 00 00 90 90 90 C3", HexString(text))

	for _, b := range a.Branches() {
		if b.Kind == Call {
			assert.Equal(t, uint8(5), b.Length)
		}
	}
}

// TestShortenCascade: the first jump only fits in short range after the
// second one has been shortened, so a fixed point needs more than one pass.
func TestShortenCascade(t *testing.T) {
	a := NewAssembler()
	l := a.NewLabel()
	a.JmpLabel(l)
	a.JmpLabel(l)
	a.NopN(125)
	a.DefineLabel(l)
	a.Ret()

	text, err := a.Finalize()
	require.NoError(t, err)
	require.Equal(t, 2+2+125+1, len(text))
	assert.Equal(t, "EB 7F EB 7D", HexString(text[:4]))
}

func TestShortenMonotone(t *testing.T) {
	a := NewAssembler()
	var labels []Label
	for i := 0; i < 8; i++ {
		l := a.NewLabel()
		labels = append(labels, l)
		a.JmpLabel(l)
		a.NopN(i * 30)
	}
	for _, l := range labels {
		a.DefineLabel(l)
	}
	a.Ret()

	before := a.Len()
	require.NoError(t, a.Shorten())
	after := a.Len()
	assert.LessOrEqual(t, after, before)
}

// checkText verifies the universal post-resolution properties: every
// displacement encodes target-(site+length), every shortenable in-range
// branch is 2 bytes, and every label offset is an instruction boundary.
func checkText(t *testing.T, a *Assembler, text []byte) {
	t.Helper()

	labels := a.Labels()

	for _, b := range a.Branches() {
		target, defined := labels[b.Target]
		require.True(t, defined)

		var disp int32
		switch b.Length {
		case 2:
			disp = int32(int8(text[b.Site+1]))
		case 5, 6:
			disp = int32(binary.LittleEndian.Uint32(text[b.RelocOffset() : b.RelocOffset()+4]))
		default:
			t.Fatalf("branch length %d", b.Length)
		}
		assert.Equal(t, target-(b.Site+int32(b.Length)), disp, "%s at offset %d", b.Kind, b.Site)

		if b.Kind.shortens() && disp >= -0x80 && disp < 0x80 {
			assert.Equal(t, uint8(2), b.Length, "%s at offset %d not shortened", b.Kind, b.Site)
		}
	}

	boundaries := map[int32]bool{int32(len(text)): true}
	for offset := 0; offset < len(text); {
		boundaries[int32(offset)] = true
		insn, err := x86asm.Decode(text[offset:], 64)
		require.NoError(t, err, "offset %d", offset)
		offset += insn.Len
	}

	for l, offset := range labels {
		assert.True(t, boundaries[offset], "label %d offset %d inside an instruction", l, offset)
	}
}

func TestLabelOffsetsAfterShortening(t *testing.T) {
	a := NewAssembler()
	top := a.NewLabel()
	mid := a.NewLabel()
	end := a.NewLabel()

	a.DefineLabel(top)
	a.Cmp(reg.RAX, reg.RBX)
	a.JeLabel(end)
	a.JgLabel(mid)
	a.Sub(reg.RAX, reg.RCX)
	a.JmpLabel(top)
	a.DefineLabel(mid)
	a.NopN(40)
	a.Add(reg.RAX, reg.RCX)
	a.JneLabel(top)
	a.DefineLabel(end)
	a.Ret()

	text, err := a.Finalize()
	require.NoError(t, err)
	checkText(t, a, text)
}

var fuzzKinds = [...]Kind{Call, Jmp, Je, Jne, Jg, Jl, Jge, Jle, Ja, Jb, Jae, Jbe}

func FuzzAssemble(f *testing.F) {
	f.Add([]byte{})
	f.Add([]byte{0x05, 0x41, 0x8f, 0xff, 0x00})
	f.Add([]byte{0x50, 0x90, 0x50, 0x90, 0x90, 0x50})

	f.Fuzz(func(t *testing.T, data []byte) {
		a := NewAssembler()
		start := a.NewLabel()
		end := a.NewLabel()
		a.DefineLabel(start)

		for _, b := range data {
			switch {
			case b < 0x40:
				a.NopN(int(b & 15))
			case b < 0x80:
				a.Branch(fuzzKinds[b%uint8(len(fuzzKinds))], end)
			case b < 0xc0:
				a.Branch(fuzzKinds[b%uint8(len(fuzzKinds))], start)
			default:
				a.Mov(reg.RAX, reg.RBX)
			}
		}

		a.DefineLabel(end)
		a.Ret()

		text, err := a.Finalize()
		require.NoError(t, err)
		checkText(t, a, text)
	})
}
