// Copyright (c) 2026 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package in implements x86-64 instruction encoding.  Each exported type is
// an opcode shape; its methods append one complete instruction.
package in

import (
	"encoding/binary"

	"gate.computer/emit/internal/code"
	"gate.computer/emit/reg"
)

func bit(condition bool) uint8 {
	if condition {
		return 1
	}
	return 0
}

// Intel-recommended multi-byte NOP sequences.
var nops = [10][9]byte{
	1: {0x90},
	2: {0x66, 0x90},
	3: {0x0f, 0x1f, 0x00},
	4: {0x0f, 0x1f, 0x40, 0x00},
	5: {0x0f, 0x1f, 0x44, 0x00, 0x00},
	6: {0x66, 0x0f, 0x1f, 0x44, 0x00, 0x00},
	7: {0x0f, 0x1f, 0x80, 0x00, 0x00, 0x00, 0x00},
	8: {0x0f, 0x1f, 0x84, 0x00, 0x00, 0x00, 0x00, 0x00},
	9: {0x66, 0x0f, 0x1f, 0x84, 0x00, 0x00, 0x00, 0x00, 0x00},
}

// Nop emits n bytes of padding, using 9-byte NOPs followed by a smaller
// remainder.
func Nop(text *code.Buf, n int) {
	for n > 9 {
		copy(text.Extend(9), nops[9][:])
		n -= 9
	}
	if n > 0 {
		copy(text.Extend(n), nops[n][:n])
	}
}

type output struct {
	buf    [16]byte
	offset uint8
}

func (o *output) len() int { return int(o.offset) }

func (o *output) copy(target []byte) {
	copy(target, o.buf[:o.offset])
	debugInsn(target)
}

func (o *output) byte(b byte) {
	o.buf[o.offset] = b
	o.offset++
}

func (o *output) byteIf(b byte, condition bool) {
	o.buf[o.offset] = b
	o.offset += bit(condition)
}

// word appends the two bytes of a big-endian word.
func (o *output) word(w uint16) {
	binary.BigEndian.PutUint16(o.buf[o.offset:], w)
	o.offset += 2
}

func (o *output) rex(wrxb rexWRXB) {
	o.buf[o.offset] = Rex | byte(wrxb)
	o.offset++
}

func (o *output) rexIf(wrxb rexWRXB) {
	o.buf[o.offset] = Rex | byte(wrxb)
	o.offset += bit(wrxb != 0)
}

func (o *output) mod(mod Mod, ro ModRO, rm ModRM) {
	o.buf[o.offset] = byte(mod) | byte(ro) | byte(rm)
	o.offset++
}

func (o *output) sib(s Scale, i Index, b Base) {
	o.buf[o.offset] = byte(s) | byte(i) | byte(b)
	o.offset++
}

func (o *output) int8(val int8) {
	o.buf[o.offset] = uint8(val)
	o.offset++
}

func (o *output) int32(val int32) {
	binary.LittleEndian.PutUint32(o.buf[o.offset:], uint32(val))
	o.offset += 4
}

func (o *output) int64(val int64) {
	binary.LittleEndian.PutUint64(o.buf[o.offset:], uint64(val))
	o.offset += 8
}

// NP: one fixed byte, no operands.

type NP byte

func (op NP) Simple(text *code.Buf) {
	text.PutByte(byte(op))
}

// NP2: two fixed bytes, no operands.

type NP2 uint16

func (op NP2) Simple(text *code.Buf) {
	var o output
	o.word(uint16(op))
	o.copy(text.Extend(o.len()))
}

// NP3: three fixed bytes, no operands.

type NP3 uint32

func (op NP3) Simple(text *code.Buf) {
	var o output
	o.byte(byte(op >> 16))
	o.word(uint16(op))
	o.copy(text.Extend(o.len()))
}

// O: register index encoded in the low opcode bits.

type O byte

func (op O) Reg(text *code.Buf, r reg.R) {
	var o output
	o.rexIf(regRexB(r))
	o.byte(byte(op) + byte(r&7))
	o.copy(text.Extend(o.len()))
}

// OI: register in the low opcode bits, followed by a 64-bit immediate.

type OI byte

func (op OI) RegImm64(text *code.Buf, r reg.R, val int64) {
	var o output
	o.rex(RexW | regRexB(r))
	o.byte(byte(op) + byte(r&7))
	o.int64(val)
	o.copy(text.Extend(o.len()))
}

// I: one fixed byte followed by an 8-bit immediate.

type I byte

func (op I) Imm8(text *code.Buf, val uint8) {
	var o output
	o.byte(byte(op))
	o.byte(val)
	o.copy(text.Extend(o.len()))
}

// M: opcode byte and ModRO byte; single full-width register operand.

type M uint16

func (op M) Reg(text *code.Buf, r reg.R) {
	var o output
	o.rexIf(RexW | regRexB(r))
	o.byte(byte(op >> 8))
	o.mod(ModReg, ModRO(op), regRM(r))
	o.copy(text.Extend(o.len()))
}

// OneSizeReg omits RexW (indirect JMP).
func (op M) OneSizeReg(text *code.Buf, r reg.R) {
	var o output
	o.rexIf(regRexB(r))
	o.byte(byte(op >> 8))
	o.mod(ModReg, ModRO(op), regRM(r))
	o.copy(text.Extend(o.len()))
}

// M2: optional legacy prefix, two opcode bytes and ModRO byte; single
// register operand without RexW.

type M2 uint32

func (op M2) OneSizeReg(text *code.Buf, r reg.R) {
	var o output
	o.byteIf(byte(op>>24), byte(op>>24) != 0)
	o.rexIf(regRexB(r))
	o.byte(byte(op >> 16))
	o.byte(byte(op >> 8))
	o.mod(ModReg, ModRO(op), regRM(r))
	o.copy(text.Extend(o.len()))
}

// RM (MR): two register operands.

type RM byte    // opcode byte
type RM2 uint16 // two opcode bytes

func (op RM) RegReg(text *code.Buf, r, r2 reg.R) {
	var o output
	o.rexIf(RexW | regRexR(r) | regRexB(r2))
	o.byte(byte(op))
	o.mod(ModReg, regRO(r), regRM(r2))
	o.copy(text.Extend(o.len()))
}

func (op RM2) RegReg(text *code.Buf, r, r2 reg.R) {
	var o output
	o.rexIf(RexW | regRexR(r) | regRexB(r2))
	o.word(uint16(op))
	o.mod(ModReg, regRO(r), regRM(r2))
	o.copy(text.Extend(o.len()))
}

// MI: opcode byte and ModRO byte; register operand and 32-bit immediate.
// The immediate is always 32 bits wide, which keeps instruction lengths
// independent of operand values.

type MI uint16

func (op MI) RegImm32(text *code.Buf, r reg.R, val int32) {
	var o output
	o.rexIf(RexW | regRexB(r))
	o.byte(byte(op >> 8))
	o.mod(ModReg, ModRO(op), regRM(r))
	o.int32(val)
	o.copy(text.Extend(o.len()))
}

// Mshift: ModRO byte of a shift/rotate operation.  The one-form opcode is
// used for counts of exactly 1, the imm8 form for everything else.

type Mshift byte

func (op Mshift) RegOne(text *code.Buf, r reg.R) {
	var o output
	o.rexIf(RexW | regRexB(r))
	o.byte(0xd1)
	o.mod(ModReg, ModRO(op), regRM(r))
	o.copy(text.Extend(o.len()))
}

func (op Mshift) RegImm8(text *code.Buf, r reg.R, count uint8) {
	var o output
	o.rexIf(RexW | regRexB(r))
	o.byte(0xc1)
	o.mod(ModReg, ModRO(op), regRM(r))
	o.byte(count)
	o.copy(text.Extend(o.len()))
}

// Mbit: ModRO byte of a 0F BA bit-test operation with an 8-bit bit index.

type Mbit byte

func (op Mbit) RegImm8(text *code.Buf, r reg.R, index uint8) {
	var o output
	o.rexIf(RexW | regRexB(r))
	o.word(0x0fba)
	o.mod(ModReg, ModRO(op), regRM(r))
	o.byte(index)
	o.copy(text.Extend(o.len()))
}

// D: relative branches.

type Db byte    // opcode byte, 8-bit displacement
type Dd byte    // opcode byte, 32-bit displacement
type D2d uint16 // two opcode bytes, 32-bit displacement

func (op Db) Disp8(text *code.Buf, disp int8) {
	var o output
	o.byte(byte(op))
	o.int8(disp)
	o.copy(text.Extend(o.len()))
}

func (op Dd) Disp32(text *code.Buf, disp int32) {
	var o output
	o.byte(byte(op))
	o.int32(disp)
	o.copy(text.Extend(o.len()))
}

func (op D2d) Disp32(text *code.Buf, disp int32) {
	var o output
	o.word(uint16(op))
	o.int32(disp)
	o.copy(text.Extend(o.len()))
}

func (op Dd) Stub32(text *code.Buf) {
	const insnSize = 5
	op.Disp32(text, -insnSize) // infinite loop as placeholder
}

func (op D2d) Stub32(text *code.Buf) {
	const insnSize = 6
	op.Disp32(text, -insnSize) // infinite loop as placeholder
}

// RMxmm: optional scalar prefix, 0F and an opcode byte; two SSE register
// operands.

type RMxmm uint32 // prefix byte (0 = none) and second opcode byte

func (op RMxmm) RegReg(text *code.Buf, x, x2 reg.X) {
	var o output
	o.byteIf(byte(op>>8), byte(op>>8) != 0)
	o.rexIf(xmmRexR(x) | xmmRexB(x2))
	o.byte(0x0f)
	o.byte(byte(op))
	o.mod(ModReg, xmmRO(x), xmmRM(x2))
	o.copy(text.Extend(o.len()))
}

// RMcvt: scalar prefix, 0F and an opcode byte; conversion between an SSE
// register and a 64-bit general-purpose register (RexW mandatory).

type RMcvt uint32 // prefix byte and second opcode byte

func (op RMcvt) XmmReg(text *code.Buf, x reg.X, r reg.R) {
	var o output
	o.byte(byte(op >> 8))
	o.rex(RexW | xmmRexR(x) | regRexB(r))
	o.byte(0x0f)
	o.byte(byte(op))
	o.mod(ModReg, xmmRO(x), regRM(r))
	o.copy(text.Extend(o.len()))
}

func (op RMcvt) RegXmm(text *code.Buf, r reg.R, x reg.X) {
	var o output
	o.byte(byte(op >> 8))
	o.rex(RexW | regRexR(r) | xmmRexB(x))
	o.byte(0x0f)
	o.byte(byte(op))
	o.mod(ModReg, regRO(r), xmmRM(x))
	o.copy(text.Extend(o.len()))
}

// F87: x87 opcode byte and mode-11 base byte; stack register operand.

type F87 uint16

func (op F87) St(text *code.Buf, st reg.St) {
	var o output
	o.byte(byte(op >> 8))
	o.byte(byte(op) + byte(st&7))
	o.copy(text.Extend(o.len()))
}
