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

	"github.com/mserrano/lc3vm/pkg/encoding"
)

// opcodeHandler executes one decoded instruction. PC has already been
// advanced past the fetched word by the time a handler runs.
type opcodeHandler func(vm *VM, instr uint16) error

// opcodeHandlers is the sum-type dispatch table: one entry per opcode,
// including the two that are undefined in user mode (RTI, RES), which both
// route to abort. TRAP routes to the trap dispatcher in trap.go.
var opcodeHandlers = map[uint16]opcodeHandler{
	OpBR:   execBR,
	OpADD:  execADD,
	OpLD:   execLD,
	OpST:   execST,
	OpJSR:  execJSR,
	OpAND:  execAND,
	OpLDR:  execLDR,
	OpSTR:  execSTR,
	OpRTI:  execUndefined,
	OpNOT:  execNOT,
	OpLDI:  execLDI,
	OpSTI:  execSTI,
	OpJMP:  execJMP,
	OpRES:  execUndefined,
	OpLEA:  execLEA,
	OpTRAP: execTRAP,
}

// execBR: BR. flags n,z,p are bits 11,10,9; branch if any requested flag is
// currently set. flags==0 naturally falls out as a no-op since Cond always
// has exactly one bit set and 0&Cond is always 0.
func execBR(vm *VM, instr uint16) error {
	flags := (instr >> 9) & 0x7

	if flags&vm.Reg.Cond != 0 {
		vm.Reg.PC += encoding.SignExtend(instr&0x1FF, 9)
	}

	return nil
}

// execADD: ADD. Register or immediate addition, modular 16-bit.
func execADD(vm *VM, instr uint16) error {
	dr := (instr >> 9) & 0x7
	sr1 := (instr >> 6) & 0x7

	if (instr>>5)&0x1 == 1 {
		imm5 := encoding.SignExtend(instr&0x1F, 5)
		vm.Reg.R[dr] = vm.Reg.R[sr1] + imm5
	} else {
		sr2 := instr & 0x7
		vm.Reg.R[dr] = vm.Reg.R[sr1] + vm.Reg.R[sr2]
	}

	vm.updateFlags(dr)
	return nil
}

// execLD: LD. Load from PC-relative address.
func execLD(vm *VM, instr uint16) error {
	dr := (instr >> 9) & 0x7
	addr := vm.Reg.PC + encoding.SignExtend(instr&0x1FF, 9)

	vm.Reg.R[dr] = vm.Read(addr)
	vm.updateFlags(dr)
	return nil
}

// execST: ST. Store to PC-relative address. No flag update.
func execST(vm *VM, instr uint16) error {
	sr := (instr >> 9) & 0x7
	addr := vm.Reg.PC + encoding.SignExtend(instr&0x1FF, 9)

	vm.Write(addr, vm.Reg.R[sr])
	return nil
}

// execJSR: JSR/JSRR. R7 always receives the return address, even when the
// destination is reached via BaseR.
func execJSR(vm *VM, instr uint16) error {
	vm.Reg.R[7] = vm.Reg.PC

	if (instr>>11)&0x1 == 1 {
		vm.Reg.PC += encoding.SignExtend(instr&0x7FF, 11)
	} else {
		baseR := (instr >> 6) & 0x7
		vm.Reg.PC = vm.Reg.R[baseR]
	}

	return nil
}

// execAND: AND. Register or immediate bitwise AND.
func execAND(vm *VM, instr uint16) error {
	dr := (instr >> 9) & 0x7
	sr1 := (instr >> 6) & 0x7

	if (instr>>5)&0x1 == 1 {
		imm5 := encoding.SignExtend(instr&0x1F, 5)
		vm.Reg.R[dr] = vm.Reg.R[sr1] & imm5
	} else {
		sr2 := instr & 0x7
		vm.Reg.R[dr] = vm.Reg.R[sr1] & vm.Reg.R[sr2]
	}

	vm.updateFlags(dr)
	return nil
}

// execLDR: LDR. Load from BaseR + offset6.
func execLDR(vm *VM, instr uint16) error {
	dr := (instr >> 9) & 0x7
	baseR := (instr >> 6) & 0x7
	addr := vm.Reg.R[baseR] + encoding.SignExtend(instr&0x3F, 6)

	vm.Reg.R[dr] = vm.Read(addr)
	vm.updateFlags(dr)
	return nil
}

// execSTR: STR. Store to BaseR + offset6. No flag update.
func execSTR(vm *VM, instr uint16) error {
	sr := (instr >> 9) & 0x7
	baseR := (instr >> 6) & 0x7
	addr := vm.Reg.R[baseR] + encoding.SignExtend(instr&0x3F, 6)

	vm.Write(addr, vm.Reg.R[sr])
	return nil
}

// execNOT: NOT. Bitwise complement.
func execNOT(vm *VM, instr uint16) error {
	dr := (instr >> 9) & 0x7
	sr := (instr >> 6) & 0x7

	vm.Reg.R[dr] = ^vm.Reg.R[sr]
	vm.updateFlags(dr)
	return nil
}

// execLDI: LDI. Load indirect.
func execLDI(vm *VM, instr uint16) error {
	dr := (instr >> 9) & 0x7
	addr := vm.Reg.PC + encoding.SignExtend(instr&0x1FF, 9)

	vm.Reg.R[dr] = vm.Read(vm.Read(addr))
	vm.updateFlags(dr)
	return nil
}

// execSTI: STI. Store indirect. No flag update.
func execSTI(vm *VM, instr uint16) error {
	sr := (instr >> 9) & 0x7
	addr := vm.Reg.PC + encoding.SignExtend(instr&0x1FF, 9)

	vm.Write(vm.Read(addr), vm.Reg.R[sr])
	return nil
}

// execJMP: JMP. RET is the special case BaseR=7; no separate handling is
// needed since R7 is an ordinary general-purpose register here.
func execJMP(vm *VM, instr uint16) error {
	baseR := (instr >> 6) & 0x7
	vm.Reg.PC = vm.Reg.R[baseR]
	return nil
}

// execLEA: LEA. Load effective address.
func execLEA(vm *VM, instr uint16) error {
	dr := (instr >> 9) & 0x7
	vm.Reg.R[dr] = vm.Reg.PC + encoding.SignExtend(instr&0x1FF, 9)

	vm.updateFlags(dr)
	return nil
}

// execUndefined handles RTI and RES, both undefined in user mode.
func execUndefined(vm *VM, instr uint16) error {
	vm.running = false
	return errors.Errorf("undefined operation executed in user mode: opcode 0x%X", instr>>12)
}
