// Copyright (c) 2026 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package emit assembles x86-64 instructions into a growing byte buffer.
//
// Branch targets are symbolic: NewLabel allocates an identifier, DefineLabel
// binds it to the current position, and the label-target branch methods
// reserve a 32-bit displacement which ResolveAll patches once all positions
// are known.  Shorten rewrites branches into their 2-byte forms where the
// displacement fits in a signed byte.  Finalize runs both and returns the
// machine code.
//
// The encoder is deterministic: integer instructions always use 64-bit
// operand size, and immediate arithmetic always uses the 32-bit immediate
// form, so the length of an arithmetic instruction does not depend on its
// immediate value.  Shifts and rotates by exactly 1 use the shorter
// one-operand form, and registers 8..15 may add a REX byte.  Only the
// branch shortening pass changes layout.
//
// An Assembler is not safe for concurrent use.
package emit
