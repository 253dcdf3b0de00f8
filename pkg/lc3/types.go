// Copyright (C) 2021  Antonio Lassandro

// This program is free software: you can redistribute it and/or modify it
// under the terms of the GNU General Public License as published by the Free
// Software Foundation, either version 3 of the License, or (at your option)
// any later version.

// This program is distributed in the hope that it will be useful, but WITHOUT
// ANY WARRANTY; without even the implied warranty of MERCHANTABILITY or
// FITNESS FOR A PARTICULAR PURPOSE.  See the GNU General Public License for
// more details.

// You should have received a copy of the GNU General Public License along
// with this program.  If not, see <http://www.gnu.org/licenses/>.

// Package lc3 implements the LC-3 fetch-decode-execute engine: memory,
// registers, condition flags, instruction decoding and the six terminal
// trap service routines. It holds no knowledge of files, terminals or
// process arguments; those are wired in by callers (see cmd/lc3vm).
package lc3

import (
	"bufio"
	"io"
)

// Registers holds the eight general-purpose registers plus PC and the
// condition register.
type Registers struct {
	R    [NumRegisters]uint16
	PC   uint16
	Cond uint16
}

// Memory is the full 65,536-word address space.
type Memory [1 << 16]uint16

// KeyboardSource drives the KBSR/KBDR memory-mapped gate (see Read). Ready
// must never block; it reports whether a byte is available without
// consuming it from the underlying channel. ReadByte consumes one byte and
// must not block once Ready has reported true.
type KeyboardSource interface {
	Ready() bool
	ReadByte() (byte, error)
}

// VM is the owning aggregate: memory, registers, and the device handles
// that back the trap routines and the keyboard gate. Memory and registers
// are exclusively owned by the VM's own execution loop; there is no
// internal concurrency.
type VM struct {
	Mem      Memory
	Reg      Registers
	Keyboard KeyboardSource
	Input    io.Reader
	Output   *bufio.Writer

	running bool
}

// New returns a VM with PC set to the LC-3 user-program origin, Cond set to
// ZRO, and all other state zeroed. keyboard may be nil, in which case KBSR reads always
// report "not ready". input and output back the trap service routines;
// output is flushed after every visible trap, per the trap contract.
func New(keyboard KeyboardSource, input io.Reader, output *bufio.Writer) *VM {
	vm := &VM{
		Keyboard: keyboard,
		Input:    input,
		Output:   output,
	}
	vm.Reg.PC = PCStart
	vm.Reg.Cond = FlagZRO
	return vm
}
