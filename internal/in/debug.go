// Copyright (c) 2026 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

//go:build indebug

package in

import (
	"fmt"

	"github.com/bnagy/gapstone"
)

var debugEngine gapstone.Engine

func init() {
	engine, err := gapstone.New(gapstone.CS_ARCH_X86, gapstone.CS_MODE_64)
	if err != nil {
		panic(err)
	}

	debugEngine = engine
}

func debugInsn(data []byte) {
	hex := ""
	for i, b := range data {
		if i > 0 {
			hex += " "
		}
		hex += fmt.Sprintf("%02x", b)
	}

	insns, err := debugEngine.Disasm(data, 0, 0)
	if err != nil || len(insns) == 0 {
		print(fmt.Sprintf("indebug: ??????? ; %s\n", hex))
		return
	}

	prefix := "indebug"

	for _, insn := range insns {
		print(fmt.Sprintf("%7s: %-10s %-25s ; %s\n", prefix, insn.Mnemonic, insn.OpStr, hex))
		prefix = ""
		hex = ""
	}
}
