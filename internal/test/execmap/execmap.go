// Copyright (c) 2026 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

//go:build linux && amd64

// Package execmap places finalized machine code in executable memory, the
// way a JIT host would consume the emitter's output.
package execmap

import (
	"golang.org/x/sys/unix"
)

// Mapping is an anonymous memory mapping holding machine code.
type Mapping struct {
	mem []byte
}

// New copies text into a fresh mapping and makes it executable (and no
// longer writable).
func New(text []byte) (*Mapping, error) {
	size := (len(text) + unix.Getpagesize() - 1) &^ (unix.Getpagesize() - 1)
	if size == 0 {
		size = unix.Getpagesize()
	}

	mem, err := unix.Mmap(-1, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_PRIVATE|unix.MAP_ANONYMOUS)
	if err != nil {
		return nil, err
	}

	copy(mem, text)

	if err := unix.Mprotect(mem, unix.PROT_READ|unix.PROT_EXEC); err != nil {
		unix.Munmap(mem)
		return nil, err
	}

	return &Mapping{mem}, nil
}

// Bytes of the mapped region.
func (m *Mapping) Bytes() []byte {
	return m.mem
}

func (m *Mapping) Close() error {
	mem := m.mem
	m.mem = nil
	return unix.Munmap(mem)
}
