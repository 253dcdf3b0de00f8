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

package lc3

import (
	"io"

	"github.com/pkg/errors"
)

// execTRAP dispatches on the low 8 bits of a TRAP instruction. Traps never
// update condition flags. An unrecognized trap code is a no-op, per spec.
func execTRAP(vm *VM, instr uint16) error {
	switch instr & 0xFF {
	case TrapGETC:
		return trapGETC(vm)
	case TrapOUT:
		return trapOUT(vm)
	case TrapPUTS:
		return trapPUTS(vm)
	case TrapIN:
		return trapIN(vm)
	case TrapPUTSP:
		return trapPUTSP(vm)
	case TrapHALT:
		return trapHALT(vm)
	default:
		return nil
	}
}

// trapGETC: read one byte from input (blocking); zero-extend into R0.
func trapGETC(vm *VM) error {
	var b [1]byte
	if _, err := io.ReadFull(vm.Input, b[:]); err != nil {
		return errors.Wrap(err, "GETC: reading input")
	}

	vm.Reg.R[0] = uint16(b[0])
	return nil
}

// trapOUT: write the low 8 bits of R0 as one character; flush.
//
// The source this machine is modeled on masked this with 0x8 and indexed
// reg[R_R0 & 0x8] instead of reg[R_R0]; both are defects corrected here.
func trapOUT(vm *VM) error {
	if err := vm.Output.WriteByte(byte(vm.Reg.R[0] & 0xFF)); err != nil {
		return errors.Wrap(err, "OUT: writing output")
	}

	return errors.Wrap(vm.Output.Flush(), "OUT: flushing output")
}

// trapPUTS: starting at R0, write words as characters until a zero word.
//
// The source this machine is modeled on masked each character with 0x8
// instead of 0xFF; corrected here.
func trapPUTS(vm *VM) error {
	addr := vm.Reg.R[0]

	for {
		word := vm.Read(addr)
		if word == 0 {
			break
		}

		if err := vm.Output.WriteByte(byte(word & 0xFF)); err != nil {
			return errors.Wrap(err, "PUTS: writing output")
		}

		addr++
	}

	return errors.Wrap(vm.Output.Flush(), "PUTS: flushing output")
}

// trapIN: prompt, read one byte (blocking), echo it, zero-extend into R0.
func trapIN(vm *VM) error {
	if _, err := vm.Output.WriteString("Enter a character: "); err != nil {
		return errors.Wrap(err, "IN: writing prompt")
	}

	if err := vm.Output.Flush(); err != nil {
		return errors.Wrap(err, "IN: flushing prompt")
	}

	var b [1]byte
	if _, err := io.ReadFull(vm.Input, b[:]); err != nil {
		return errors.Wrap(err, "IN: reading input")
	}

	if err := vm.Output.WriteByte(b[0]); err != nil {
		return errors.Wrap(err, "IN: echoing input")
	}

	vm.Reg.R[0] = uint16(b[0])
	return errors.Wrap(vm.Output.Flush(), "IN: flushing echo")
}

// trapPUTSP: starting at R0, write words as packed byte pairs (low byte
// first, then high byte if non-zero) until a zero word.
//
// The source this machine is modeled on masked each byte with 0x8 instead
// of 0xFF; corrected here.
func trapPUTSP(vm *VM) error {
	addr := vm.Reg.R[0]

	for {
		word := vm.Read(addr)
		if word == 0 {
			break
		}

		if err := vm.Output.WriteByte(byte(word & 0xFF)); err != nil {
			return errors.Wrap(err, "PUTSP: writing low byte")
		}

		if hi := byte(word >> 8); hi != 0 {
			if err := vm.Output.WriteByte(hi); err != nil {
				return errors.Wrap(err, "PUTSP: writing high byte")
			}
		}

		addr++
	}

	return errors.Wrap(vm.Output.Flush(), "PUTSP: flushing output")
}

// trapHALT: write "HALT\n", flush, and signal the execution loop to stop.
func trapHALT(vm *VM) error {
	if _, err := vm.Output.WriteString("HALT\n"); err != nil {
		return errors.Wrap(err, "HALT: writing message")
	}

	if err := vm.Output.Flush(); err != nil {
		return errors.Wrap(err, "HALT: flushing output")
	}

	vm.running = false
	return nil
}
