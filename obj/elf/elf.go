// Copyright (c) 2026 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package elf serializes machine code into a relocatable ELF-64 object.
package elf

import (
	"bytes"
	"debug/elf"
	"encoding/binary"
	"io"

	"github.com/pkg/errors"
)

const (
	ehdrSize = 64
	shdrSize = 64
	symSize  = 24
	relaSize = 24
)

// Symbol table entry.  An empty SectionName makes the symbol undefined
// (SHN_UNDEF), which is how external call targets are declared.
type Symbol struct {
	Name        string
	SectionName string // ".text", ".data", ".bss", ".tdata", ".tbss" or ""
	Value       uint64 // Offset within the section.
	Size        uint64
	Binding     elf.SymBind
	Type        elf.SymType
}

// Rela is a relocation against .text.
type Rela struct {
	Offset uint64 // Offset of the patched field within .text.
	Symbol string
	Type   elf.R_X86_64
	Addend int64
}

// File describes one relocatable object.  Only Text is mandatory.
type File struct {
	Text      []byte
	TextAlign uint64 // Defaults to 16.
	Data      []byte
	DataAlign uint64 // Defaults to 8.
	BssSize   uint64
	TData     []byte
	TBssSize  uint64
	Symbols   []Symbol
	RelaText  []Rela
}

type strtab struct {
	buf     []byte
	offsets map[string]uint32
}

// newStrtab starts with the leading null byte so that offset 0 means
// "no name".
func newStrtab() *strtab {
	return &strtab{buf: []byte{0}, offsets: map[string]uint32{"": 0}}
}

func (t *strtab) add(s string) uint32 {
	if offset, found := t.offsets[s]; found {
		return offset
	}
	offset := uint32(len(t.buf))
	t.buf = append(t.buf, s...)
	t.buf = append(t.buf, 0)
	t.offsets[s] = offset
	return offset
}

type section struct {
	name      string
	shtype    elf.SectionType
	flags     elf.SectionFlag
	data      []byte
	size      uint64 // Used instead of len(data) for SHT_NOBITS.
	link      uint32
	info      uint32
	addralign uint64
	entsize   uint64
	offset    uint64
}

func (f *File) hasTLS() bool {
	return len(f.TData) != 0 || f.TBssSize != 0
}

// WriteTo writes a relocatable ELF64 little-endian x86-64 object.
func (f *File) WriteTo(w io.Writer) (n int64, err error) {
	var b bytes.Buffer
	if err = f.writeTo(&b); err != nil {
		return
	}
	m, err := w.Write(b.Bytes())
	n = int64(m)
	return
}

func (f *File) writeTo(b *bytes.Buffer) error {
	textAlign := f.TextAlign
	if textAlign == 0 {
		textAlign = 16
	}
	dataAlign := f.DataAlign
	if dataAlign == 0 {
		dataAlign = 8
	}

	names := newStrtab()
	syms := newStrtab()

	sections := []*section{
		{}, // SHN_UNDEF
		{name: ".text", shtype: elf.SHT_PROGBITS, flags: elf.SHF_ALLOC | elf.SHF_EXECINSTR, data: f.Text, addralign: textAlign},
		{name: ".data", shtype: elf.SHT_PROGBITS, flags: elf.SHF_ALLOC | elf.SHF_WRITE, data: f.Data, addralign: dataAlign},
		{name: ".bss", shtype: elf.SHT_NOBITS, flags: elf.SHF_ALLOC | elf.SHF_WRITE, size: f.BssSize, addralign: dataAlign},
	}
	sectionIndex := map[string]uint16{
		".text": 1,
		".data": 2,
		".bss":  3,
	}

	if f.hasTLS() {
		sectionIndex[".tdata"] = uint16(len(sections))
		sections = append(sections, &section{name: ".tdata", shtype: elf.SHT_PROGBITS, flags: elf.SHF_ALLOC | elf.SHF_WRITE | elf.SHF_TLS, data: f.TData, addralign: dataAlign})
		sectionIndex[".tbss"] = uint16(len(sections))
		sections = append(sections, &section{name: ".tbss", shtype: elf.SHT_NOBITS, flags: elf.SHF_ALLOC | elf.SHF_WRITE | elf.SHF_TLS, size: f.TBssSize, addralign: dataAlign})
	}

	// Symbol table: null entry, section symbols, locals, then globals.
	symtab := new(bytes.Buffer)
	symIndex := map[string]uint32{}
	count := uint32(0)

	putSym := func(name uint32, info byte, shndx uint16, value, size uint64) {
		writeBinaryArray(symtab, []interface{}{
			name,    // st_name
			info,    // st_info
			byte(0), // st_other
			shndx,   // st_shndx
			value,   // st_value
			size,    // st_size
		})
		count++
	}

	putSym(0, 0, uint16(elf.SHN_UNDEF), 0, 0)

	sectionSym := map[string]uint32{}
	for _, name := range []string{".text", ".data", ".bss", ".tdata", ".tbss"} {
		if shndx, found := sectionIndex[name]; found {
			sectionSym[name] = count
			putSym(0, symInfo(elf.STB_LOCAL, elf.STT_SECTION), shndx, 0, 0)
		}
	}

	emitSyms := func(local bool) error {
		for _, sym := range f.Symbols {
			if (sym.Binding == elf.STB_LOCAL) != local {
				continue
			}
			shndx := uint16(elf.SHN_UNDEF)
			if sym.SectionName != "" {
				var found bool
				shndx, found = sectionIndex[sym.SectionName]
				if !found {
					return errors.Errorf("symbol %q references unknown section %q", sym.Name, sym.SectionName)
				}
			}
			if _, dup := symIndex[sym.Name]; dup {
				return errors.Errorf("symbol %q defined twice", sym.Name)
			}
			symIndex[sym.Name] = count
			putSym(syms.add(sym.Name), symInfo(sym.Binding, sym.Type), shndx, sym.Value, sym.Size)
		}
		return nil
	}

	if err := emitSyms(true); err != nil {
		return err
	}
	firstGlobal := count
	if err := emitSyms(false); err != nil {
		return err
	}

	// Relocations.
	rela := new(bytes.Buffer)
	for _, r := range f.RelaText {
		index, found := symIndex[r.Symbol]
		if !found {
			index, found = sectionSym[r.Symbol]
		}
		if !found {
			return errors.Errorf("relocation at offset %d references unknown symbol %q", r.Offset, r.Symbol)
		}
		writeBinaryArray(rela, []interface{}{
			r.Offset, // r_offset
			uint64(index)<<32 | uint64(r.Type)&0xffffffff, // r_info
			r.Addend, // r_addend
		})
	}

	symtabIndex := uint16(len(sections))
	strtabIndex := symtabIndex + 1
	shstrtabIndex := symtabIndex + 2

	sections = append(sections,
		&section{name: ".symtab", shtype: elf.SHT_SYMTAB, data: symtab.Bytes(), link: uint32(strtabIndex), info: firstGlobal, addralign: 8, entsize: symSize},
		&section{name: ".strtab", shtype: elf.SHT_STRTAB, data: syms.buf, addralign: 1},
		&section{name: ".shstrtab", shtype: elf.SHT_STRTAB, addralign: 1}, // Data filled in below.
		&section{name: ".rela.text", shtype: elf.SHT_RELA, flags: elf.SHF_INFO_LINK, data: rela.Bytes(), link: uint32(symtabIndex), info: 1, addralign: 8, entsize: relaSize},
	)

	// Section name offsets must be known before .shstrtab content is final,
	// so intern every name first.
	nameOffsets := make([]uint32, len(sections))
	for i, s := range sections {
		nameOffsets[i] = names.add(s.name)
	}
	sections[shstrtabIndex].data = names.buf

	// Lay out section data after the file header.
	offset := uint64(ehdrSize)
	for _, s := range sections[1:] {
		offset = roundSize(offset, s.addralign)
		s.offset = offset
		if s.shtype != elf.SHT_NOBITS {
			offset += uint64(len(s.data))
		}
	}
	shoff := roundSize(offset, 8)

	// File header.
	binary.Write(b, binary.LittleEndian, elf.Header64{
		Ident: [elf.EI_NIDENT]byte{
			0:              0x7f,
			1:              'E',
			2:              'L',
			3:              'F',
			elf.EI_CLASS:   byte(elf.ELFCLASS64),
			elf.EI_DATA:    byte(elf.ELFDATA2LSB),
			elf.EI_VERSION: 1,
		},
		Type:      uint16(elf.ET_REL),
		Machine:   uint16(elf.EM_X86_64),
		Version:   1,
		Entry:     0,
		Phoff:     0,
		Shoff:     shoff,
		Ehsize:    ehdrSize,
		Phentsize: 0,
		Phnum:     0,
		Shentsize: shdrSize,
		Shnum:     uint16(len(sections)),
		Shstrndx:  shstrtabIndex,
	})

	// Section data.
	for _, s := range sections[1:] {
		pad(b, int(s.offset)-b.Len())
		if s.shtype != elf.SHT_NOBITS {
			b.Write(s.data)
		}
	}

	// Section header table.
	pad(b, int(shoff)-b.Len())
	for i, s := range sections {
		size := s.size
		if s.shtype != elf.SHT_NOBITS {
			size = uint64(len(s.data))
		}
		writeBinaryArray(b, []interface{}{
			nameOffsets[i],   // sh_name
			uint32(s.shtype), // sh_type
			uint64(s.flags),  // sh_flags
			uint64(0),        // sh_addr
			s.offset,         // sh_offset
			size,             // sh_size
			s.link,           // sh_link
			s.info,           // sh_info
			s.addralign,      // sh_addralign
			s.entsize,        // sh_entsize
		})
	}

	return nil
}

func symInfo(binding elf.SymBind, t elf.SymType) byte {
	return byte(binding)<<4 | byte(t)&0xf
}

func writeBinaryArray(b *bytes.Buffer, fields []interface{}) {
	for _, x := range fields {
		binary.Write(b, binary.LittleEndian, x)
	}
}

func pad(b *bytes.Buffer, n int) {
	for i := 0; i < n; i++ {
		b.WriteByte(0)
	}
}

func roundSize(value, alignment uint64) uint64 {
	if alignment == 0 {
		alignment = 1
	}
	return (value + alignment - 1) &^ (alignment - 1)
}
