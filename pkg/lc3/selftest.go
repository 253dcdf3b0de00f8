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
	"bufio"
	"bytes"
	"strings"

	"github.com/pkg/errors"
)

// scenario is one curated self-check, compiled into the binary so the CLI's
// --test flag can run it without a `go test` toolchain. Each scenario
// mirrors one of the concrete scenarios named in spec §8.
type scenario struct {
	name  string
	setup func(vm *VM)
	steps int
	check func(vm *VM, stdout string) error
}

var scenarios = []scenario{
	{
		name: "ADD register",
		setup: func(vm *VM) {
			vm.Mem[PCStart] = 0x1042 // ADD R0, R1, R2
			vm.Reg.R[1] = 1
			vm.Reg.R[2] = 2
		},
		steps: 1,
		check: func(vm *VM, _ string) error {
			return expect(vm, 0, 3, FlagPOS, PCStart+1)
		},
	},
	{
		name: "ADD immediate",
		setup: func(vm *VM) {
			vm.Mem[PCStart] = 0x1062 // ADD R0, R1, #2
			vm.Reg.R[1] = 1
		},
		steps: 1,
		check: func(vm *VM, _ string) error {
			return expect(vm, 0, 3, FlagPOS, PCStart+1)
		},
	},
	{
		name: "AND register",
		setup: func(vm *VM) {
			vm.Mem[PCStart] = 0x5042
			vm.Reg.R[1] = 0xFF
			vm.Reg.R[2] = 0xF0
		},
		steps: 1,
		check: func(vm *VM, _ string) error {
			return expect(vm, 0, 0xF0, FlagPOS, PCStart+1)
		},
	},
	{
		name: "AND immediate",
		setup: func(vm *VM) {
			vm.Mem[PCStart] = 0x506F
			vm.Reg.R[1] = 0xFF
		},
		steps: 1,
		check: func(vm *VM, _ string) error {
			return expect(vm, 0, 0x0F, FlagPOS, PCStart+1)
		},
	},
	{
		name: "NOT",
		setup: func(vm *VM) {
			vm.Mem[PCStart] = 0x907F // NOT R0, R1
			vm.Reg.R[1] = 0x000F
		},
		steps: 1,
		check: func(vm *VM, _ string) error {
			return expect(vm, 0, 0xFFF0, FlagNEG, PCStart+1)
		},
	},
	{
		name: "LDI chain",
		setup: func(vm *VM) {
			vm.Mem[PCStart] = 0xA001 // LDI R0, #1
			vm.Mem[PCStart+2] = 0x4000
			vm.Mem[0x4000] = 0x1234
		},
		steps: 1,
		check: func(vm *VM, _ string) error {
			return expect(vm, 0, 0x1234, FlagPOS, PCStart+1)
		},
	},
	{
		name: "HALT",
		setup: func(vm *VM) {
			vm.Mem[PCStart] = 0xF025
		},
		steps: 1,
		check: func(vm *VM, stdout string) error {
			if !strings.Contains(stdout, "HALT\n") {
				return errors.Errorf("stdout %q does not contain %q", stdout, "HALT\n")
			}
			return nil
		},
	},
}

func expect(vm *VM, reg, value, cond, pc uint16) error {
	if vm.Reg.R[reg] != value {
		return errors.Errorf("R%d = %#04x, want %#04x", reg, vm.Reg.R[reg], value)
	}
	if vm.Reg.Cond != cond {
		return errors.Errorf("COND = %#03b, want %#03b", vm.Reg.Cond, cond)
	}
	if vm.Reg.PC != pc {
		return errors.Errorf("PC = %#04x, want %#04x", vm.Reg.PC, pc)
	}
	return nil
}

// SelfTest runs every curated scenario against an independent VM and
// returns one error per scenario that failed. A nil/empty result means
// every scenario passed.
func SelfTest() []error {
	var failures []error

	for _, sc := range scenarios {
		var stdout bytes.Buffer
		w := bufio.NewWriter(&stdout)
		vm := New(nil, strings.NewReader(""), w)

		sc.setup(vm)

		for i := 0; i < sc.steps; i++ {
			if err := vm.Step(); err != nil {
				failures = append(failures, errors.Wrapf(err, "scenario %q", sc.name))
				break
			}
		}

		w.Flush()

		if err := sc.check(vm, stdout.String()); err != nil {
			failures = append(failures, errors.Wrapf(err, "scenario %q", sc.name))
		}
	}

	return failures
}
