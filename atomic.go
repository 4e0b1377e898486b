// Copyright (c) 2026 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package emit

import (
	"gate.computer/emit/reg"
)

// Each atomic variant is the LOCK prefix followed by the base encoding.

func (a *Assembler) lock() { a.text.PutByte(lockPrefix) }

func (a *Assembler) LockAdd(d, s reg.R) { a.lock(); a.Add(d, s) }
func (a *Assembler) LockSub(d, s reg.R) { a.lock(); a.Sub(d, s) }
func (a *Assembler) LockAnd(d, s reg.R) { a.lock(); a.And(d, s) }
func (a *Assembler) LockOr(d, s reg.R)  { a.lock(); a.Or(d, s) }
func (a *Assembler) LockXor(d, s reg.R) { a.lock(); a.Xor(d, s) }

func (a *Assembler) LockInc(r reg.R) { a.lock(); a.Inc(r) }
func (a *Assembler) LockDec(r reg.R) { a.lock(); a.Dec(r) }
func (a *Assembler) LockNeg(r reg.R) { a.lock(); a.Neg(r) }
func (a *Assembler) LockNot(r reg.R) { a.lock(); a.Not(r) }

func (a *Assembler) LockCmpxchg(d, s reg.R) { a.lock(); a.Cmpxchg(d, s) }
func (a *Assembler) LockXadd(d, s reg.R)    { a.lock(); a.Xadd(d, s) }
func (a *Assembler) LockCmpxchg8b(r reg.R)  { a.lock(); a.Cmpxchg8b(r) }

func (a *Assembler) LockBts(r reg.R, i uint8) { a.lock(); a.Bts(r, i) }
func (a *Assembler) LockBtr(r reg.R, i uint8) { a.lock(); a.Btr(r, i) }
func (a *Assembler) LockBtc(r reg.R, i uint8) { a.lock(); a.Btc(r, i) }
