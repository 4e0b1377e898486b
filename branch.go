// Copyright (c) 2026 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package emit

import (
	"runtime"

	"github.com/pkg/errors"
	"golang.org/x/xerrors"

	"gate.computer/emit/buffer"
	"gate.computer/emit/internal/code"
	"gate.computer/emit/internal/in"
)

// Kind of a relative branch instruction.
type Kind uint8

const (
	Call = Kind(iota)
	Jmp
	Je
	Jne
	Jg
	Jl
	Jge
	Jle
	Ja
	Jb
	Jae
	Jbe

	numKinds
)

// shortOpcodes holds the one-byte short forms; CALL has none.
var shortOpcodes = [numKinds]byte{
	Call: 0,
	Jmp:  0xeb,
	Je:   0x74,
	Jne:  0x75,
	Jg:   0x7f,
	Jl:   0x7c,
	Jge:  0x7d,
	Jle:  0x7e,
	Ja:   0x77,
	Jb:   0x72,
	Jae:  0x73,
	Jbe:  0x76,
}

// longOpcodes holds the 32-bit displacement forms.  CALL and JMP are single
// bytes; the conditional forms have a 0F prefix byte.
var longOpcodes = [numKinds]uint16{
	Call: 0x00e8,
	Jmp:  0x00e9,
	Je:   0x0f84,
	Jne:  0x0f85,
	Jg:   0x0f8f,
	Jl:   0x0f8c,
	Jge:  0x0f8d,
	Jle:  0x0f8e,
	Ja:   0x0f87,
	Jb:   0x0f82,
	Jae:  0x0f83,
	Jbe:  0x0f86,
}

var kindStrings = [numKinds]string{
	"call", "jmp", "je", "jne", "jg", "jl", "jge", "jle", "ja", "jb", "jae", "jbe",
}

func (k Kind) String() string {
	if int(k) < len(kindStrings) {
		return kindStrings[k]
	}
	return "<invalid branch kind>"
}

// longLen of the 32-bit displacement encoding: 5 bytes for CALL/JMP, 6 for
// the conditional forms.
func (k Kind) longLen() uint8 {
	if longOpcodes[k] < 0x100 {
		return 5
	}
	return 6
}

// shortens reports whether the kind has a 2-byte form.
func (k Kind) shortens() bool {
	return shortOpcodes[k] != 0
}

// Label identifies a branch destination within one Assembler.
type Label int32

const undefined = int32(-1)

// Branch records one pending branch site.  Site is the offset of the first
// opcode byte; Length is the current encoded length (5 or 6 bytes in long
// form, 2 after shortening).
type Branch struct {
	Site   int32
	Target Label
	Kind   Kind
	Length uint8
}

// RelocOffset is the offset of the displacement field, where an object-file
// emitter places a R_X86_64_PC32 relocation (addend -4) for an external
// target.
func (b Branch) RelocOffset() int32 {
	return b.Site + int32(b.Length) - 4
}

// NewLabel allocates a label without modifying the byte stream.
func (a *Assembler) NewLabel() Label {
	l := Label(len(a.labels))
	a.labels = append(a.labels, undefined)
	return l
}

// DefineLabel binds a label to the current position.  Defining a label twice
// is a caller bug.
func (a *Assembler) DefineLabel(l Label) {
	if a.labels[l] != undefined {
		panic(errors.Errorf("label %d defined twice", l))
	}
	a.labels[l] = a.text.Addr
}

// Labels returns a snapshot of the defined labels and their offsets.
func (a *Assembler) Labels() map[Label]int32 {
	m := make(map[Label]int32, len(a.labels))
	for l, offset := range a.labels {
		if offset != undefined {
			m[Label(l)] = offset
		}
	}
	return m
}

// Branches returns a snapshot of the pending branch list in emission order.
func (a *Assembler) Branches() []Branch {
	return append([]Branch{}, a.branches...)
}

func (a *Assembler) branch(k Kind, target Label) {
	site := a.text.Addr
	if op := longOpcodes[k]; op < 0x100 {
		in.Dd(op).Stub32(&a.text)
	} else {
		in.D2d(op).Stub32(&a.text)
	}
	a.branches = append(a.branches, Branch{site, target, k, k.longLen()})
}

// Branch emits a label-target branch of the given kind in long form and
// records it as pending.
func (a *Assembler) Branch(k Kind, target Label) {
	if int(k) >= int(numKinds) {
		panic(errors.Errorf("invalid branch kind %d", k))
	}
	a.branch(k, target)
}

func (a *Assembler) CallLabel(l Label) { a.branch(Call, l) }
func (a *Assembler) JmpLabel(l Label)  { a.branch(Jmp, l) }
func (a *Assembler) JeLabel(l Label)   { a.branch(Je, l) }
func (a *Assembler) JneLabel(l Label)  { a.branch(Jne, l) }
func (a *Assembler) JgLabel(l Label)   { a.branch(Jg, l) }
func (a *Assembler) JlLabel(l Label)   { a.branch(Jl, l) }
func (a *Assembler) JgeLabel(l Label)  { a.branch(Jge, l) }
func (a *Assembler) JleLabel(l Label)  { a.branch(Jle, l) }
func (a *Assembler) JaLabel(l Label)   { a.branch(Ja, l) }
func (a *Assembler) JbLabel(l Label)   { a.branch(Jb, l) }
func (a *Assembler) JaeLabel(l Label)  { a.branch(Jae, l) }
func (a *Assembler) JbeLabel(l Label)  { a.branch(Jbe, l) }

// CallRel and JmpRel write a 32-bit displacement verbatim.  They are
// low-level escape hatches: the displacement is not tracked, resolved or
// shortened.
func (a *Assembler) CallRel(disp int32) { in.Dd(0xe8).Disp32(&a.text, disp) }
func (a *Assembler) JmpRel(disp int32)  { in.Dd(0xe9).Disp32(&a.text, disp) }

// ResolveAll patches the displacement of every pending branch.  It fails if
// any referenced label is undefined.  Resolving again without moving any
// label is idempotent.
func (a *Assembler) ResolveAll() error {
	for _, b := range a.branches {
		target := a.labels[b.Target]
		if target == undefined {
			return xerrors.Errorf("branch at offset %d: label %d is undefined", b.Site, b.Target)
		}

		disp := target - (b.Site + int32(b.Length))
		if b.Length == 2 {
			if disp < -0x80 || disp >= 0x80 {
				panic(errors.Errorf("short branch at offset %d with displacement %d", b.Site, disp))
			}
			a.dyn.PatchByte(int(b.Site)+1, uint8(int8(disp)))
		} else {
			a.dyn.PatchUint32(int(b.Site)+int(b.Length)-4, uint32(disp))
		}
	}
	return nil
}

// shortenCap is the minimum bound on the fixed-point iteration.  Termination
// is guaranteed by monotonicity (passes only shrink); the cap exists to turn
// a logic bug into a loud failure instead of an endless loop.  A cascade can
// need up to one pass per pending branch, so the effective limit is
// max(shortenCap, number of branches + 1).
const shortenCap = 10

// Shorten iteratively rewrites pending branches into their 2-byte forms
// where the displacement fits in a signed byte, shifting trailing code down
// and recomputing until a fixed point.  CALL never shortens.  All labels
// referenced by pending branches must be defined.  Displacements are left
// fully resolved.
func (a *Assembler) Shorten() error {
	if err := a.ResolveAll(); err != nil {
		return err
	}

	limit := len(a.branches) + 1
	if limit < shortenCap {
		limit = shortenCap
	}

	for i := 0; ; i++ {
		if i == limit {
			return xerrors.New("branch shortening did not reach a fixed point")
		}
		if !a.shortenPass() {
			break
		}
	}

	return a.ResolveAll()
}

// shortenPass rewrites the byte stream once, reporting whether any branch
// changed size.
func (a *Assembler) shortenPass() bool {
	var (
		input   = a.dyn.Bytes()
		out     = buffer.NewDynamic(nil)
		text    = code.Buf{Buffer: out}
		changed = false
		cursor  = int32(0)
	)

	for i := range a.branches {
		b := &a.branches[i]

		copy(text.Extend(int(b.Site-cursor)), input[cursor:b.Site])

		target := a.labels[b.Target]
		newSite := text.Addr

		if sd := shortDistance(b, target); b.Kind.shortens() && sd >= -0x80 && sd < 0x80 {
			if b.Kind == Call {
				panic(errors.New("call classified as shortenable"))
			}
			if b.Length != 2 {
				changed = true
			}
			text.PutByte(shortOpcodes[b.Kind])
			text.PutByte(uint8(int8(sd)))
			cursor = b.Site + int32(b.Length)
			b.Site = newSite
			b.Length = 2
		} else {
			if b.Length == 2 {
				panic(errors.Errorf("short %s at offset %d reverted to long form", b.Kind, b.Site))
			}
			disp := target - (b.Site + int32(b.Kind.longLen()))
			if op := longOpcodes[b.Kind]; op < 0x100 {
				text.PutByte(byte(op))
			} else {
				text.PutByte(byte(op >> 8))
				text.PutByte(byte(op))
			}
			text.PutUint32(uint32(disp))
			cursor = b.Site + int32(b.Length)
			b.Site = newSite
			b.Length = b.Kind.longLen()
		}
	}

	copy(text.Extend(len(input)-int(cursor)), input[cursor:])

	if !changed {
		return false
	}

	a.remapLabels(input)
	a.dyn = out
	a.text = code.Buf{Buffer: out, Addr: int32(out.Len())}
	return true
}

// shortDistance is the displacement the branch would have in 2-byte form.
// For a forward branch the target moves together with the branch's own
// tail, so the distance equals the gap beyond the current long encoding;
// for a backward branch the target is already fixed.
func shortDistance(b *Branch, target int32) int32 {
	if target >= b.Site+int32(b.Length) {
		return target - (b.Site + int32(b.Length))
	}
	return target - (b.Site + 2)
}

// remapLabels shifts defined label offsets down by the bytes removed before
// them.  Branch sites passed to this function are already remapped; the old
// sites are recovered from the input length bookkeeping.
func (a *Assembler) remapLabels(oldText []byte) {
	// Walk branches and labels in offset order, accumulating the shrink.
	// Branches are in site order by construction.
	for l, offset := range a.labels {
		if offset == undefined {
			continue
		}
		shrink := int32(0)
		for i := range a.branches {
			b := &a.branches[i]
			oldSite := b.Site + shrink // Site was rewritten; undo the shift so far.
			if oldSite >= offset {
				break
			}
			oldLen := oldEncodedLen(oldText, oldSite)
			shrink += oldLen - int32(b.Length)
		}
		a.labels[l] = offset - shrink
	}
}

// oldEncodedLen decodes the length of a branch encoding in the pre-pass
// byte stream.
func oldEncodedLen(text []byte, site int32) int32 {
	switch op := text[site]; {
	case op == 0xe8 || op == 0xe9:
		return 5
	case op == 0x0f:
		return 6
	default:
		return 2
	}
}

// Finalize resolves every pending branch, shortens what fits, and returns
// the final machine code.  Panics carrying error values (caller bugs caught
// by the engine) are converted to returned errors; runtime errors and other
// panics propagate.
func (a *Assembler) Finalize() (text []byte, err error) {
	defer func() {
		if x := recover(); x != nil {
			e, ok := x.(error)
			if !ok {
				panic(x)
			}
			if _, isRuntime := e.(runtime.Error); isRuntime {
				panic(x)
			}
			err = xerrors.Errorf("emit: %w", e)
		}
	}()

	if err := a.Shorten(); err != nil {
		return nil, err
	}
	return a.Bytes(), nil
}
