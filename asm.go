// Copyright (c) 2026 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package emit

import (
	"github.com/pkg/errors"

	"gate.computer/emit/buffer"
	"gate.computer/emit/internal/code"
	"gate.computer/emit/internal/in"
	"gate.computer/emit/reg"
)

var (
	insnRet     = in.NP(0xc3)
	insnNop     = in.NP(0x90)
	insnSyscall = in.NP2(0x0f05)
	insnPause   = in.NP2(0xf390)
	insnMfence  = in.NP3(0x0faef0)
	insnSfence  = in.NP3(0x0faef8)
	insnLfence  = in.NP3(0x0faee8)

	insnPush = in.O(0x50)
	insnPop  = in.O(0x58)

	insnInt = in.I(0xcd)

	insnMovImm64 = in.OI(0xb8)
	insnMovImm32 = in.MI(0xc7<<8 | 0<<3)

	insnMov  = in.RM(0x89)
	insnAdd  = in.RM(0x01)
	insnSub  = in.RM(0x29)
	insnAnd  = in.RM(0x21)
	insnOr   = in.RM(0x09)
	insnXor  = in.RM(0x31)
	insnCmp  = in.RM(0x39)
	insnTest = in.RM(0x85)
	insnXchg = in.RM(0x87)

	insnImul = in.RM2(0x0faf)
	insnBsf  = in.RM2(0x0fbc)
	insnBsr  = in.RM2(0x0fbd)

	insnCmpxchg = in.RM2(0x0fb1)
	insnXadd    = in.RM2(0x0fc1)

	insnAddImm = in.MI(0x81<<8 | 0<<3)
	insnOrImm  = in.MI(0x81<<8 | 1<<3)
	insnAndImm = in.MI(0x81<<8 | 4<<3)
	insnSubImm = in.MI(0x81<<8 | 5<<3)
	insnXorImm = in.MI(0x81<<8 | 6<<3)
	insnCmpImm = in.MI(0x81<<8 | 7<<3)

	insnNot  = in.M(0xf7<<8 | 2<<3)
	insnNeg  = in.M(0xf7<<8 | 3<<3)
	insnMul  = in.M(0xf7<<8 | 4<<3)
	insnDiv  = in.M(0xf7<<8 | 6<<3)
	insnIdiv = in.M(0xf7<<8 | 7<<3)
	insnInc  = in.M(0xff<<8 | 0<<3)
	insnDec  = in.M(0xff<<8 | 1<<3)

	insnJmpReg = in.M(0xff<<8 | 4<<3)

	insnRol = in.Mshift(0 << 3)
	insnRor = in.Mshift(1 << 3)
	insnRcl = in.Mshift(2 << 3)
	insnRcr = in.Mshift(3 << 3)
	insnShl = in.Mshift(4 << 3)
	insnShr = in.Mshift(5 << 3)
	insnSal = in.Mshift(6 << 3)
	insnSar = in.Mshift(7 << 3)

	insnBt  = in.Mbit(4 << 3)
	insnBts = in.Mbit(5 << 3)
	insnBtr = in.Mbit(6 << 3)
	insnBtc = in.Mbit(7 << 3)

	insnCmpxchg8b = in.M2(0x000fc7<<8 | 1<<3)

	insnClflush    = in.M2(0x000fae<<8 | 7<<3)
	insnClflushopt = in.M2(0x660fae<<8 | 7<<3)

	insnPrefetchnta = in.M2(0x000f18<<8 | 0<<3)
	insnPrefetcht0  = in.M2(0x000f18<<8 | 1<<3)
	insnPrefetcht1  = in.M2(0x000f18<<8 | 2<<3)
	insnPrefetcht2  = in.M2(0x000f18<<8 | 3<<3)
)

const lockPrefix = byte(0xf0)

// Assembler accumulates encoded instructions in an append-only buffer,
// together with the label table and the pending branch list.  The zero
// value is not usable; call NewAssembler.
//
// An Assembler is an exclusive resource: concurrent use must be serialized
// by the caller.
type Assembler struct {
	text     code.Buf
	dyn      *buffer.Dynamic
	labels   []int32 // Indexed by Label; -1 while undefined.
	branches []Branch
}

func NewAssembler() *Assembler {
	a := new(Assembler)
	a.dyn = buffer.NewDynamic(nil)
	a.text = code.Buf{Buffer: a.dyn}
	return a
}

// Bytes of machine code emitted so far.  The slice is valid until the next
// emit operation.
func (a *Assembler) Bytes() []byte {
	return a.dyn.Bytes()
}

func (a *Assembler) Len() int {
	return a.dyn.Len()
}

// HexString formats the current machine code as uppercase two-digit hex
// pairs separated by single spaces.
func (a *Assembler) HexString() string {
	return HexString(a.Bytes())
}

// Raw appends bytes verbatim.
func (a *Assembler) Raw(b []byte) {
	a.dyn.PutBytes(b)
	a.text.Addr += int32(len(b))
}

func (a *Assembler) Mov(d, s reg.R)  { insnMov.RegReg(&a.text, s, d) }
func (a *Assembler) Add(d, s reg.R)  { insnAdd.RegReg(&a.text, s, d) }
func (a *Assembler) Sub(d, s reg.R)  { insnSub.RegReg(&a.text, s, d) }
func (a *Assembler) And(d, s reg.R)  { insnAnd.RegReg(&a.text, s, d) }
func (a *Assembler) Or(d, s reg.R)   { insnOr.RegReg(&a.text, s, d) }
func (a *Assembler) Xor(d, s reg.R)  { insnXor.RegReg(&a.text, s, d) }
func (a *Assembler) Cmp(d, s reg.R)  { insnCmp.RegReg(&a.text, s, d) }
func (a *Assembler) Test(d, s reg.R) { insnTest.RegReg(&a.text, s, d) }
func (a *Assembler) Xchg(d, s reg.R) { insnXchg.RegReg(&a.text, s, d) }

func (a *Assembler) Imul(d, s reg.R) { insnImul.RegReg(&a.text, d, s) }
func (a *Assembler) Bsf(d, s reg.R)  { insnBsf.RegReg(&a.text, d, s) }
func (a *Assembler) Bsr(d, s reg.R)  { insnBsr.RegReg(&a.text, d, s) }

// Cmpxchg compares RAX with d; on match s is stored in d.
func (a *Assembler) Cmpxchg(d, s reg.R) { insnCmpxchg.RegReg(&a.text, s, d) }
func (a *Assembler) Xadd(d, s reg.R)    { insnXadd.RegReg(&a.text, s, d) }
func (a *Assembler) Cmpxchg8b(r reg.R)  { insnCmpxchg8b.OneSizeReg(&a.text, r) }

func (a *Assembler) MovImm64(r reg.R, val int64) { insnMovImm64.RegImm64(&a.text, r, val) }

// MovImm32 sign-extends a 32-bit immediate to 64 bits.
func (a *Assembler) MovImm32(r reg.R, val int32) { insnMovImm32.RegImm32(&a.text, r, val) }

func (a *Assembler) AddImm(r reg.R, val int32) { insnAddImm.RegImm32(&a.text, r, val) }
func (a *Assembler) OrImm(r reg.R, val int32)  { insnOrImm.RegImm32(&a.text, r, val) }
func (a *Assembler) AndImm(r reg.R, val int32) { insnAndImm.RegImm32(&a.text, r, val) }
func (a *Assembler) SubImm(r reg.R, val int32) { insnSubImm.RegImm32(&a.text, r, val) }
func (a *Assembler) XorImm(r reg.R, val int32) { insnXorImm.RegImm32(&a.text, r, val) }
func (a *Assembler) CmpImm(r reg.R, val int32) { insnCmpImm.RegImm32(&a.text, r, val) }

func (a *Assembler) Mul(r reg.R)  { insnMul.Reg(&a.text, r) }
func (a *Assembler) Div(r reg.R)  { insnDiv.Reg(&a.text, r) }
func (a *Assembler) Idiv(r reg.R) { insnIdiv.Reg(&a.text, r) }
func (a *Assembler) Neg(r reg.R)  { insnNeg.Reg(&a.text, r) }
func (a *Assembler) Not(r reg.R)  { insnNot.Reg(&a.text, r) }
func (a *Assembler) Inc(r reg.R)  { insnInc.Reg(&a.text, r) }
func (a *Assembler) Dec(r reg.R)  { insnDec.Reg(&a.text, r) }

func (a *Assembler) Shl(r reg.R, count uint8) { a.shift(insnShl, r, count) }
func (a *Assembler) Shr(r reg.R, count uint8) { a.shift(insnShr, r, count) }
func (a *Assembler) Sal(r reg.R, count uint8) { a.shift(insnSal, r, count) }
func (a *Assembler) Sar(r reg.R, count uint8) { a.shift(insnSar, r, count) }
func (a *Assembler) Rol(r reg.R, count uint8) { a.shift(insnRol, r, count) }
func (a *Assembler) Ror(r reg.R, count uint8) { a.shift(insnRor, r, count) }
func (a *Assembler) Rcl(r reg.R, count uint8) { a.shift(insnRcl, r, count) }
func (a *Assembler) Rcr(r reg.R, count uint8) { a.shift(insnRcr, r, count) }

func (a *Assembler) shift(op in.Mshift, r reg.R, count uint8) {
	if count > 63 {
		panic(errors.Errorf("shift count %d out of range", count))
	}
	if count == 1 {
		op.RegOne(&a.text, r)
	} else {
		op.RegImm8(&a.text, r, count)
	}
}

func (a *Assembler) Bt(r reg.R, index uint8)  { insnBt.RegImm8(&a.text, r, index) }
func (a *Assembler) Bts(r reg.R, index uint8) { insnBts.RegImm8(&a.text, r, index) }
func (a *Assembler) Btr(r reg.R, index uint8) { insnBtr.RegImm8(&a.text, r, index) }
func (a *Assembler) Btc(r reg.R, index uint8) { insnBtc.RegImm8(&a.text, r, index) }

func (a *Assembler) Push(r reg.R) { insnPush.Reg(&a.text, r) }
func (a *Assembler) Pop(r reg.R)  { insnPop.Reg(&a.text, r) }

func (a *Assembler) Int(vector uint8) { insnInt.Imm8(&a.text, vector) }

func (a *Assembler) Syscall() { insnSyscall.Simple(&a.text) }
func (a *Assembler) Ret()     { insnRet.Simple(&a.text) }
func (a *Assembler) Nop()     { insnNop.Simple(&a.text) }
func (a *Assembler) Pause()   { insnPause.Simple(&a.text) }

// NopN emits n bytes of padding using the recommended multi-byte NOP
// sequences.
func (a *Assembler) NopN(n int) {
	if n < 0 {
		panic(errors.Errorf("negative padding length %d", n))
	}
	in.Nop(&a.text, n)
}

func (a *Assembler) Mfence() { insnMfence.Simple(&a.text) }
func (a *Assembler) Sfence() { insnSfence.Simple(&a.text) }
func (a *Assembler) Lfence() { insnLfence.Simple(&a.text) }

func (a *Assembler) Clflush(r reg.R)    { insnClflush.OneSizeReg(&a.text, r) }
func (a *Assembler) Clflushopt(r reg.R) { insnClflushopt.OneSizeReg(&a.text, r) }

func (a *Assembler) Prefetcht0(r reg.R)  { insnPrefetcht0.OneSizeReg(&a.text, r) }
func (a *Assembler) Prefetcht1(r reg.R)  { insnPrefetcht1.OneSizeReg(&a.text, r) }
func (a *Assembler) Prefetcht2(r reg.R)  { insnPrefetcht2.OneSizeReg(&a.text, r) }
func (a *Assembler) Prefetchnta(r reg.R) { insnPrefetchnta.OneSizeReg(&a.text, r) }

// JmpReg branches indirectly through a register.  It never enters the
// pending branch list.
func (a *Assembler) JmpReg(r reg.R) { insnJmpReg.OneSizeReg(&a.text, r) }
