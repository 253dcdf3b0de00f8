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
	"github.com/pkg/errors"
)

// Read routes every memory access through the gate described in §4.4: a
// read of KBSR polls the keyboard source and mutates KBSR/KBDR as a side
// effect before returning the (possibly just-updated) value at addr.
func (vm *VM) Read(addr uint16) uint16 {
	if addr == KBSR {
		ready := vm.Keyboard != nil && vm.Keyboard.Ready()

		if ready {
			b, err := vm.Keyboard.ReadByte()
			if err == nil {
				vm.Mem[KBSR] = 1 << 15
				vm.Mem[KBDR] = uint16(b)
			} else {
				vm.Mem[KBSR] = 0
			}
		} else {
			vm.Mem[KBSR] = 0
		}
	}

	return vm.Mem[addr]
}

// Write is an unconditional store; KBSR/KBDR accept writes with no special
// behavior.
func (vm *VM) Write(addr uint16, value uint16) {
	vm.Mem[addr] = value
}

// updateFlags sets Cond to exactly one of NEG/ZRO/POS based on the value
// currently in R[r].
func (vm *VM) updateFlags(r uint16) {
	v := vm.Reg.R[r]

	switch {
	case v == 0:
		vm.Reg.Cond = FlagZRO
	case v>>15 == 1:
		vm.Reg.Cond = FlagNEG
	default:
		vm.Reg.Cond = FlagPOS
	}
}

// Step fetches, decodes and executes exactly one instruction. It returns a
// non-nil error on a fatal abort (undefined opcode, PC overflow) or on an
// I/O failure surfaced by a trap routine. A normal HALT is not an error: it
// clears the running flag and returns nil.
func (vm *VM) Step() error {
	if vm.Reg.PC == 0xFFFF {
		vm.running = false
		return errors.New("program counter overflow: PC reached 0xFFFF")
	}

	instr := vm.Read(vm.Reg.PC)
	vm.Reg.PC++

	op := instr >> 12

	handler, ok := opcodeHandlers[op]
	if !ok {
		vm.running = false
		return errors.Errorf("undefined opcode 0x%X at 0x%04X", op, vm.Reg.PC-1)
	}

	return handler(vm, instr)
}

// Run drives Step until a handler clears the running flag or an error is
// returned. There is no preemption and no internal concurrency: one
// instruction fully retires before the next begins.
func (vm *VM) Run() error {
	vm.running = true

	for vm.running {
		if err := vm.Step(); err != nil {
			return err
		}
	}

	return nil
}
