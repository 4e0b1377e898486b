// Copyright (c) 2026 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Program emitobj assembles a demo function and writes it out as a
// relocatable object, a raw binary or a hex dump.
package main

import (
	"debug/elf"
	"flag"
	"fmt"
	"log"
	"os"

	"gate.computer/emit"
	"gate.computer/emit/disasm"
	objelf "gate.computer/emit/obj/elf"
	"gate.computer/emit/reg"
)

var (
	output = flag.String("o", "", "write a relocatable object file")
	raw    = flag.String("raw", "", "write the raw machine code")
	dump   = flag.Bool("dump", false, "disassemble to stdout")
)

func main() {
	log.SetFlags(0)
	flag.Parse()

	a := emit.NewAssembler()

	// sum(rdi) -> rax: add the integers 1..rdi.
	loop := a.NewLabel()
	done := a.NewLabel()

	a.Xor(reg.RAX, reg.RAX)
	a.DefineLabel(loop)
	a.CmpImm(reg.RDI, 0)
	a.JleLabel(done)
	a.Add(reg.RAX, reg.RDI)
	a.SubImm(reg.RDI, 1)
	a.JmpLabel(loop)
	a.DefineLabel(done)
	a.Ret()

	text, err := a.Finalize()
	if err != nil {
		log.Fatal(err)
	}

	fmt.Println(a.HexString())

	if *dump {
		labels := map[string]int32{}
		for l, offset := range a.Labels() {
			labels[fmt.Sprintf("L%d", l)] = offset
		}
		if err := disasm.Fprint(os.Stdout, text, labels); err != nil {
			log.Fatal(err)
		}
	}

	if *raw != "" {
		if err := os.WriteFile(*raw, text, 0o644); err != nil {
			log.Fatal(err)
		}
	}

	if *output != "" {
		f, err := os.Create(*output)
		if err != nil {
			log.Fatal(err)
		}

		obj := &objelf.File{
			Text: text,
			Symbols: []objelf.Symbol{
				{
					Name:        "sum",
					SectionName: ".text",
					Value:       0,
					Size:        uint64(len(text)),
					Binding:     elf.STB_GLOBAL,
					Type:        elf.STT_FUNC,
				},
			},
		}

		if _, err := obj.WriteTo(f); err != nil {
			log.Fatal(err)
		}
		if err := f.Close(); err != nil {
			log.Fatal(err)
		}
	}
}
