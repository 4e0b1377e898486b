// Copyright (c) 2026 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package reg defines the x86-64 register value types.
package reg

import (
	"fmt"
)

// R is a general-purpose 64-bit register.  The numeric value is the
// instruction encoding index; values 8..15 require a REX extension bit.
type R byte

const (
	RAX = R(0)
	RCX = R(1)
	RDX = R(2)
	RBX = R(3)
	RSP = R(4)
	RBP = R(5)
	RSI = R(6)
	RDI = R(7)
	R8  = R(8)
	R9  = R(9)
	R10 = R(10)
	R11 = R(11)
	R12 = R(12)
	R13 = R(13)
	R14 = R(14)
	R15 = R(15)
)

var gprStrings = [16]string{
	"rax", "rcx", "rdx", "rbx", "rsp", "rbp", "rsi", "rdi",
	"r8", "r9", "r10", "r11", "r12", "r13", "r14", "r15",
}

func (r R) String() string {
	if int(r) < len(gprStrings) {
		return gprStrings[r]
	}
	return fmt.Sprintf("r%d?", byte(r))
}

// X is an SSE register.  Indices 8..15 require a REX extension bit.
type X byte

const (
	XMM0  = X(0)
	XMM1  = X(1)
	XMM2  = X(2)
	XMM3  = X(3)
	XMM4  = X(4)
	XMM5  = X(5)
	XMM6  = X(6)
	XMM7  = X(7)
	XMM8  = X(8)
	XMM9  = X(9)
	XMM10 = X(10)
	XMM11 = X(11)
	XMM12 = X(12)
	XMM13 = X(13)
	XMM14 = X(14)
	XMM15 = X(15)
)

func (x X) String() string {
	return fmt.Sprintf("xmm%d", byte(x))
}

// St is an x87 stack register ST(0)..ST(7).  No REX bit is ever needed.
type St byte

const (
	ST0 = St(0)
	ST1 = St(1)
	ST2 = St(2)
	ST3 = St(3)
	ST4 = St(4)
	ST5 = St(5)
	ST6 = St(6)
	ST7 = St(7)
)

func (st St) String() string {
	return fmt.Sprintf("st(%d)", byte(st))
}
