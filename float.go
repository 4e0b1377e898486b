// Copyright (c) 2026 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package emit

import (
	"gate.computer/emit/internal/in"
	"gate.computer/emit/reg"
)

const (
	prefixSS = 0xf3
	prefixSD = 0xf2
	prefix66 = 0x66
)

var (
	insnMovss  = in.RMxmm(prefixSS<<8 | 0x10)
	insnMovsd  = in.RMxmm(prefixSD<<8 | 0x10)
	insnAddss  = in.RMxmm(prefixSS<<8 | 0x58)
	insnAddsd  = in.RMxmm(prefixSD<<8 | 0x58)
	insnSubss  = in.RMxmm(prefixSS<<8 | 0x5c)
	insnSubsd  = in.RMxmm(prefixSD<<8 | 0x5c)
	insnMulss  = in.RMxmm(prefixSS<<8 | 0x59)
	insnMulsd  = in.RMxmm(prefixSD<<8 | 0x59)
	insnDivss  = in.RMxmm(prefixSS<<8 | 0x5e)
	insnDivsd  = in.RMxmm(prefixSD<<8 | 0x5e)
	insnSqrtss = in.RMxmm(prefixSS<<8 | 0x51)
	insnSqrtsd = in.RMxmm(prefixSD<<8 | 0x51)

	insnComiss = in.RMxmm(0x00<<8 | 0x2f)
	insnComisd = in.RMxmm(prefix66<<8 | 0x2f)

	insnCvtss2sd = in.RMxmm(prefixSS<<8 | 0x5a)
	insnCvtsd2ss = in.RMxmm(prefixSD<<8 | 0x5a)

	insnCvtsi2ss = in.RMcvt(prefixSS<<8 | 0x2a)
	insnCvtsi2sd = in.RMcvt(prefixSD<<8 | 0x2a)
	insnCvtss2si = in.RMcvt(prefixSS<<8 | 0x2d)
	insnCvtsd2si = in.RMcvt(prefixSD<<8 | 0x2d)
)

func (a *Assembler) Movss(d, s reg.X)  { insnMovss.RegReg(&a.text, d, s) }
func (a *Assembler) Movsd(d, s reg.X)  { insnMovsd.RegReg(&a.text, d, s) }
func (a *Assembler) Addss(d, s reg.X)  { insnAddss.RegReg(&a.text, d, s) }
func (a *Assembler) Addsd(d, s reg.X)  { insnAddsd.RegReg(&a.text, d, s) }
func (a *Assembler) Subss(d, s reg.X)  { insnSubss.RegReg(&a.text, d, s) }
func (a *Assembler) Subsd(d, s reg.X)  { insnSubsd.RegReg(&a.text, d, s) }
func (a *Assembler) Mulss(d, s reg.X)  { insnMulss.RegReg(&a.text, d, s) }
func (a *Assembler) Mulsd(d, s reg.X)  { insnMulsd.RegReg(&a.text, d, s) }
func (a *Assembler) Divss(d, s reg.X)  { insnDivss.RegReg(&a.text, d, s) }
func (a *Assembler) Divsd(d, s reg.X)  { insnDivsd.RegReg(&a.text, d, s) }
func (a *Assembler) Sqrtss(d, s reg.X) { insnSqrtss.RegReg(&a.text, d, s) }
func (a *Assembler) Sqrtsd(d, s reg.X) { insnSqrtsd.RegReg(&a.text, d, s) }

func (a *Assembler) Comiss(d, s reg.X) { insnComiss.RegReg(&a.text, d, s) }
func (a *Assembler) Comisd(d, s reg.X) { insnComisd.RegReg(&a.text, d, s) }

func (a *Assembler) Cvtss2sd(d, s reg.X) { insnCvtss2sd.RegReg(&a.text, d, s) }
func (a *Assembler) Cvtsd2ss(d, s reg.X) { insnCvtsd2ss.RegReg(&a.text, d, s) }

// Cvtsi2ss converts a signed 64-bit integer to single precision.
func (a *Assembler) Cvtsi2ss(d reg.X, s reg.R) { insnCvtsi2ss.XmmReg(&a.text, d, s) }

// Cvtsi2sd converts a signed 64-bit integer to double precision.
func (a *Assembler) Cvtsi2sd(d reg.X, s reg.R) { insnCvtsi2sd.XmmReg(&a.text, d, s) }

// Cvtss2si converts single precision to a signed 64-bit integer.
func (a *Assembler) Cvtss2si(d reg.R, s reg.X) { insnCvtss2si.RegXmm(&a.text, d, s) }

// Cvtsd2si converts double precision to a signed 64-bit integer.
func (a *Assembler) Cvtsd2si(d reg.R, s reg.X) { insnCvtsd2si.RegXmm(&a.text, d, s) }
