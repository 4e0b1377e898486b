// Copyright (c) 2026 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package emit

import (
	"gate.computer/emit/internal/in"
	"gate.computer/emit/reg"
)

var (
	insnFld   = in.F87(0xd9<<8 | 0xc0)
	insnFst   = in.F87(0xdd<<8 | 0xd0)
	insnFstp  = in.F87(0xdd<<8 | 0xd8)
	insnFadd  = in.F87(0xd8<<8 | 0xc0)
	insnFsub  = in.F87(0xd8<<8 | 0xe0)
	insnFmul  = in.F87(0xd8<<8 | 0xc8)
	insnFdiv  = in.F87(0xd8<<8 | 0xf0)
	insnFcom  = in.F87(0xd8<<8 | 0xd0)
	insnFcomp = in.F87(0xd8<<8 | 0xd8)

	insnFsin  = in.NP2(0xd9fe)
	insnFcos  = in.NP2(0xd9ff)
	insnFsqrt = in.NP2(0xd9fa)
	insnFabs  = in.NP2(0xd9e1)
	insnFchs  = in.NP2(0xd9e0)
)

func (a *Assembler) Fld(st reg.St)   { insnFld.St(&a.text, st) }
func (a *Assembler) Fst(st reg.St)   { insnFst.St(&a.text, st) }
func (a *Assembler) Fstp(st reg.St)  { insnFstp.St(&a.text, st) }
func (a *Assembler) Fadd(st reg.St)  { insnFadd.St(&a.text, st) }
func (a *Assembler) Fsub(st reg.St)  { insnFsub.St(&a.text, st) }
func (a *Assembler) Fmul(st reg.St)  { insnFmul.St(&a.text, st) }
func (a *Assembler) Fdiv(st reg.St)  { insnFdiv.St(&a.text, st) }
func (a *Assembler) Fcom(st reg.St)  { insnFcom.St(&a.text, st) }
func (a *Assembler) Fcomp(st reg.St) { insnFcomp.St(&a.text, st) }

func (a *Assembler) Fsin()  { insnFsin.Simple(&a.text) }
func (a *Assembler) Fcos()  { insnFcos.Simple(&a.text) }
func (a *Assembler) Fsqrt() { insnFsqrt.Simple(&a.text) }
func (a *Assembler) Fabs()  { insnFabs.Simple(&a.text) }
func (a *Assembler) Fchs()  { insnFchs.Simple(&a.text) }
