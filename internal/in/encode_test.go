// Copyright (c) 2026 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package in

import (
	"testing"

	"github.com/bnagy/gapstone"

	"gate.computer/emit/buffer"
	"gate.computer/emit/internal/code"
	"gate.computer/emit/reg"
)

var testEngine gapstone.Engine

func init() {
	engine, err := gapstone.New(gapstone.CS_ARCH_X86, gapstone.CS_MODE_64)
	if err != nil {
		panic(err)
	}

	testEngine = engine
}

// testEncode verifies an encoding through the disassembler.  An empty
// expectOpStr only checks the mnemonic.
func testEncode(t *testing.T, expectMnemonic, expectOpStr string, encodeInsn func(*code.Buf)) {
	t.Helper()

	text := code.Buf{Buffer: buffer.NewDynamic(nil)}
	encodeInsn(&text)

	insns, err := testEngine.Disasm(text.Bytes(), 0, 0)
	if err != nil {
		t.Errorf("expect %s %s: %v", expectMnemonic, expectOpStr, err)
		return
	}

	insn := insns[0]

	if insn.Mnemonic != expectMnemonic || (expectOpStr != "" && insn.OpStr != expectOpStr) {
		t.Errorf("%s %s <> %s %s", expectMnemonic, expectOpStr, insn.Mnemonic, insn.OpStr)
	}
	if int(insn.Size) != len(text.Bytes()) {
		t.Errorf("%s: decoded %d of %d bytes", expectMnemonic, insn.Size, len(text.Bytes()))
	}
}

func TestEncodeInteger(t *testing.T) {
	testEncode(t, "mov", "rax, rbx", func(text *code.Buf) { RM(0x89).RegReg(text, reg.RBX, reg.RAX) })
	testEncode(t, "mov", "r8, r9", func(text *code.Buf) { RM(0x89).RegReg(text, reg.R9, reg.R8) })
	testEncode(t, "add", "rax, rbx", func(text *code.Buf) { RM(0x01).RegReg(text, reg.RBX, reg.RAX) })
	testEncode(t, "xchg", "rsi, rdi", func(text *code.Buf) { RM(0x87).RegReg(text, reg.RDI, reg.RSI) })
	testEncode(t, "imul", "rax, rbx", func(text *code.Buf) { RM2(0x0faf).RegReg(text, reg.RAX, reg.RBX) })
	testEncode(t, "mul", "rcx", func(text *code.Buf) { M(0xf7<<8 | 4<<3).Reg(text, reg.RCX) })
	testEncode(t, "not", "rsi", func(text *code.Buf) { M(0xf7<<8 | 2<<3).Reg(text, reg.RSI) })
	testEncode(t, "inc", "rax", func(text *code.Buf) { M(0xff<<8 | 0<<3).Reg(text, reg.RAX) })
	testEncode(t, "shl", "rax, 1", func(text *code.Buf) { Mshift(4 << 3).RegOne(text, reg.RAX) })
	testEncode(t, "shl", "rax, 5", func(text *code.Buf) { Mshift(4 << 3).RegImm8(text, reg.RAX, 5) })
	testEncode(t, "bt", "rax, 3", func(text *code.Buf) { Mbit(4 << 3).RegImm8(text, reg.RAX, 3) })
	testEncode(t, "cmpxchg", "rax, rbx", func(text *code.Buf) { RM2(0x0fb1).RegReg(text, reg.RBX, reg.RAX) })
	testEncode(t, "xadd", "rax, rbx", func(text *code.Buf) { RM2(0x0fc1).RegReg(text, reg.RBX, reg.RAX) })
	testEncode(t, "push", "r8", func(text *code.Buf) { O(0x50).Reg(text, reg.R8) })
	testEncode(t, "pop", "r15", func(text *code.Buf) { O(0x58).Reg(text, reg.R15) })
	testEncode(t, "movabs", "", func(text *code.Buf) { OI(0xb8).RegImm64(text, reg.RAX, 42) })
}

func TestEncodeMisc(t *testing.T) {
	testEncode(t, "ret", "", func(text *code.Buf) { NP(0xc3).Simple(text) })
	testEncode(t, "nop", "", func(text *code.Buf) { NP(0x90).Simple(text) })
	testEncode(t, "syscall", "", func(text *code.Buf) { NP2(0x0f05).Simple(text) })
	testEncode(t, "pause", "", func(text *code.Buf) { NP2(0xf390).Simple(text) })
	testEncode(t, "mfence", "", func(text *code.Buf) { NP3(0x0faef0).Simple(text) })
	testEncode(t, "sfence", "", func(text *code.Buf) { NP3(0x0faef8).Simple(text) })
	testEncode(t, "lfence", "", func(text *code.Buf) { NP3(0x0faee8).Simple(text) })
	testEncode(t, "jmp", "rax", func(text *code.Buf) { M(0xff<<8 | 4<<3).OneSizeReg(text, reg.RAX) })
	testEncode(t, "int", "", func(text *code.Buf) { I(0xcd).Imm8(text, 0x80) })
}

func TestEncodeFloat(t *testing.T) {
	testEncode(t, "movss", "xmm1, xmm2", func(text *code.Buf) { RMxmm(0xf3<<8 | 0x10).RegReg(text, reg.XMM1, reg.XMM2) })
	testEncode(t, "addsd", "xmm0, xmm1", func(text *code.Buf) { RMxmm(0xf2<<8 | 0x58).RegReg(text, reg.XMM0, reg.XMM1) })
	testEncode(t, "sqrtsd", "xmm8, xmm9", func(text *code.Buf) { RMxmm(0xf2<<8 | 0x51).RegReg(text, reg.XMM8, reg.XMM9) })
	testEncode(t, "comiss", "xmm3, xmm4", func(text *code.Buf) { RMxmm(0x00<<8 | 0x2f).RegReg(text, reg.XMM3, reg.XMM4) })
	testEncode(t, "cvtss2sd", "xmm0, xmm1", func(text *code.Buf) { RMxmm(0xf3<<8 | 0x5a).RegReg(text, reg.XMM0, reg.XMM1) })
	testEncode(t, "cvtsi2sd", "xmm0, rax", func(text *code.Buf) { RMcvt(0xf2<<8 | 0x2a).XmmReg(text, reg.XMM0, reg.RAX) })
	testEncode(t, "cvtsd2si", "rax, xmm1", func(text *code.Buf) { RMcvt(0xf2<<8 | 0x2d).RegXmm(text, reg.RAX, reg.XMM1) })
	testEncode(t, "fld", "", func(text *code.Buf) { F87(0xd9<<8 | 0xc0).St(text, reg.ST3) })
	testEncode(t, "fsin", "", func(text *code.Buf) { NP2(0xd9fe).Simple(text) })
}
