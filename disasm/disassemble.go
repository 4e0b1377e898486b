// Copyright (c) 2026 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package disasm prints emitted machine code using the Capstone engine.
package disasm

import (
	"fmt"
	"io"
	"sort"

	"github.com/bnagy/gapstone"
)

// Fprint disassembles text and writes an annotated listing.  Known label
// offsets are printed as "name:" lines before the instruction they precede.
func Fprint(w io.Writer, text []byte, labels map[string]int32) (err error) {
	engine, err := gapstone.New(gapstone.CS_ARCH_X86, gapstone.CS_MODE_64)
	if err != nil {
		return
	}
	defer engine.Close()

	targets := map[uint][]string{}
	for name, offset := range labels {
		targets[uint(offset)] = append(targets[uint(offset)], name)
	}
	for _, names := range targets {
		sort.Strings(names)
	}

	insns, err := engine.Disasm(text, 0, 0)
	if err != nil {
		return
	}

	for _, insn := range insns {
		for _, name := range targets[insn.Address] {
			if _, err = fmt.Fprintf(w, "%s:\n", name); err != nil {
				return
			}
		}

		hex := ""
		for i, b := range insn.Bytes {
			if i > 0 {
				hex += " "
			}
			hex += fmt.Sprintf("%02x", b)
		}

		_, err = fmt.Fprintf(w, "%6x:\t%-24s\t%s\t%s\n", insn.Address, hex, insn.Mnemonic, insn.OpStr)
		if err != nil {
			return
		}
	}

	return
}
