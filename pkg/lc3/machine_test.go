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

package lc3_test

import (
	"bufio"
	"bytes"
	"strings"
	"testing"

	"github.com/mserrano/lc3vm/pkg/lc3"
)

type testMachineState struct {
	R    [8]uint16
	PC   uint16
	Cond uint16
}

type testCase struct {
	Name   string
	Steps  int
	Setup  func(vm *lc3.VM)
	Output testMachineState
}

func newTestVM() (*lc3.VM, *bytes.Buffer) {
	var out bytes.Buffer
	vm := lc3.New(nil, strings.NewReader(""), bufio.NewWriter(&out))
	return vm, &out
}

func runCase(t *testing.T, tc testCase) {
	t.Run(tc.Name, func(t *testing.T) {
		vm, _ := newTestVM()
		tc.Setup(vm)

		for i := 0; i < tc.Steps; i++ {
			if err := vm.Step(); err != nil {
				t.Fatalf("Step() returned error: %v", err)
			}
		}

		if vm.Reg.R != tc.Output.R {
			t.Errorf("R = %#04x, want %#04x", vm.Reg.R, tc.Output.R)
		}
		if vm.Reg.PC != tc.Output.PC {
			t.Errorf("PC = %#04x, want %#04x", vm.Reg.PC, tc.Output.PC)
		}
		if vm.Reg.Cond != tc.Output.Cond {
			t.Errorf("Cond = %#03b, want %#03b", vm.Reg.Cond, tc.Output.Cond)
		}
	})
}

func TestOpcodes(t *testing.T) {
	cases := []testCase{
		{
			Name: "ADD register",
			Setup: func(vm *lc3.VM) {
				vm.Mem[lc3.PCStart] = 0x1042
				vm.Reg.R[1] = 1
				vm.Reg.R[2] = 2
			},
			Steps:  1,
			Output: testMachineState{R: [8]uint16{0: 3, 1: 1, 2: 2}, PC: lc3.PCStart + 1, Cond: lc3.FlagPOS},
		},
		{
			Name: "ADD immediate",
			Setup: func(vm *lc3.VM) {
				vm.Mem[lc3.PCStart] = 0x1062
				vm.Reg.R[1] = 1
			},
			Steps:  1,
			Output: testMachineState{R: [8]uint16{0: 3, 1: 1}, PC: lc3.PCStart + 1, Cond: lc3.FlagPOS},
		},
		{
			Name: "ADD overflow wraps modularly",
			Setup: func(vm *lc3.VM) {
				vm.Mem[lc3.PCStart] = 0x1042
				vm.Reg.R[1] = 0xFFFF
				vm.Reg.R[2] = 1
			},
			Steps:  1,
			Output: testMachineState{R: [8]uint16{0: 0, 1: 0xFFFF, 2: 1}, PC: lc3.PCStart + 1, Cond: lc3.FlagZRO},
		},
		{
			Name: "AND register",
			Setup: func(vm *lc3.VM) {
				vm.Mem[lc3.PCStart] = 0x5042
				vm.Reg.R[1] = 0xFF
				vm.Reg.R[2] = 0xF0
			},
			Steps:  1,
			Output: testMachineState{R: [8]uint16{0: 0xF0, 1: 0xFF, 2: 0xF0}, PC: lc3.PCStart + 1, Cond: lc3.FlagPOS},
		},
		{
			Name: "AND immediate",
			Setup: func(vm *lc3.VM) {
				vm.Mem[lc3.PCStart] = 0x506F
				vm.Reg.R[1] = 0xFF
			},
			Steps:  1,
			Output: testMachineState{R: [8]uint16{0: 0x0F, 1: 0xFF}, PC: lc3.PCStart + 1, Cond: lc3.FlagPOS},
		},
		{
			Name: "NOT",
			Setup: func(vm *lc3.VM) {
				vm.Mem[lc3.PCStart] = 0x907F
				vm.Reg.R[1] = 0x000F
			},
			Steps:  1,
			Output: testMachineState{R: [8]uint16{0: 0xFFF0, 1: 0x000F}, PC: lc3.PCStart + 1, Cond: lc3.FlagNEG},
		},
		{
			Name: "BR taken on matching flag",
			Setup: func(vm *lc3.VM) {
				vm.Mem[lc3.PCStart] = 0x1020   // ADD R0, R0, #0 -> sets Cond=ZRO
				vm.Mem[lc3.PCStart+1] = 0x0402 // BRz #2
			},
			Steps:  2,
			Output: testMachineState{PC: lc3.PCStart + 4, Cond: lc3.FlagZRO},
		},
		{
			Name: "BR not taken on non-matching flag",
			Setup: func(vm *lc3.VM) {
				vm.Mem[lc3.PCStart] = 0x1021   // ADD R0, R0, #1 -> sets Cond=POS
				vm.Mem[lc3.PCStart+1] = 0x0402 // BRz #2 (not taken)
			},
			Steps:  2,
			Output: testMachineState{R: [8]uint16{0: 1}, PC: lc3.PCStart + 2, Cond: lc3.FlagPOS},
		},
		{
			Name: "BR with all flags clear is a no-op",
			Setup: func(vm *lc3.VM) {
				vm.Mem[lc3.PCStart] = 0x0042 // BR (n=z=p=0) #0x42
			},
			Steps:  1,
			Output: testMachineState{PC: lc3.PCStart + 1, Cond: lc3.FlagZRO},
		},
		{
			Name: "LD",
			Setup: func(vm *lc3.VM) {
				vm.Mem[lc3.PCStart] = 0x2001 // LD R0, #1
				vm.Mem[lc3.PCStart+2] = 0x00AB
			},
			Steps:  1,
			Output: testMachineState{R: [8]uint16{0: 0x00AB}, PC: lc3.PCStart + 1, Cond: lc3.FlagPOS},
		},
		{
			Name: "ST",
			Setup: func(vm *lc3.VM) {
				vm.Mem[lc3.PCStart] = 0x3001 // ST R0, #1
				vm.Reg.R[0] = 0x00CD
			},
			Steps:  1,
			Output: testMachineState{R: [8]uint16{0: 0x00CD}, PC: lc3.PCStart + 1, Cond: lc3.FlagZRO},
		},
		{
			Name: "JSR to offset saves R7",
			Setup: func(vm *lc3.VM) {
				vm.Mem[lc3.PCStart] = 0x4810 // JSR #0x10
			},
			Steps:  1,
			Output: testMachineState{R: [8]uint16{7: lc3.PCStart + 1}, PC: lc3.PCStart + 1 + 0x10, Cond: lc3.FlagZRO},
		},
		{
			Name: "JSRR via BaseR saves R7 even when reached by register",
			Setup: func(vm *lc3.VM) {
				vm.Mem[lc3.PCStart] = 0x40C0 // JSRR R3
				vm.Reg.R[3] = 0x5000
			},
			Steps:  1,
			Output: testMachineState{R: [8]uint16{3: 0x5000, 7: lc3.PCStart + 1}, PC: 0x5000, Cond: lc3.FlagZRO},
		},
		{
			Name: "LDR",
			Setup: func(vm *lc3.VM) {
				vm.Mem[lc3.PCStart] = 0x6041 // LDR R0, R1, #1
				vm.Reg.R[1] = 0x4000
				vm.Mem[0x4001] = 0x1111
			},
			Steps:  1,
			Output: testMachineState{R: [8]uint16{0: 0x1111, 1: 0x4000}, PC: lc3.PCStart + 1, Cond: lc3.FlagPOS},
		},
		{
			Name: "STR",
			Setup: func(vm *lc3.VM) {
				vm.Mem[lc3.PCStart] = 0x7041 // STR R0, R1, #1
				vm.Reg.R[0] = 0x2222
				vm.Reg.R[1] = 0x4000
			},
			Steps:  1,
			Output: testMachineState{R: [8]uint16{0: 0x2222, 1: 0x4000}, PC: lc3.PCStart + 1, Cond: lc3.FlagZRO},
		},
		{
			Name: "LDI chain",
			Setup: func(vm *lc3.VM) {
				vm.Mem[lc3.PCStart] = 0xA001
				vm.Mem[lc3.PCStart+2] = 0x4000
				vm.Mem[0x4000] = 0x1234
			},
			Steps:  1,
			Output: testMachineState{R: [8]uint16{0: 0x1234}, PC: lc3.PCStart + 1, Cond: lc3.FlagPOS},
		},
		{
			Name: "STI",
			Setup: func(vm *lc3.VM) {
				vm.Mem[lc3.PCStart] = 0xB001 // STI R0, #1
				vm.Mem[lc3.PCStart+2] = 0x4000
				vm.Reg.R[0] = 0x9999
			},
			Steps:  1,
			Output: testMachineState{R: [8]uint16{0: 0x9999}, PC: lc3.PCStart + 1, Cond: lc3.FlagZRO},
		},
		{
			Name: "JMP including RET special case",
			Setup: func(vm *lc3.VM) {
				vm.Mem[lc3.PCStart] = 0xC1C0 // JMP R7
				vm.Reg.R[7] = 0x5050
			},
			Steps:  1,
			Output: testMachineState{R: [8]uint16{7: 0x5050}, PC: 0x5050, Cond: lc3.FlagZRO},
		},
		{
			Name: "LEA",
			Setup: func(vm *lc3.VM) {
				vm.Mem[lc3.PCStart] = 0xE005 // LEA R0, #5
			},
			Steps:  1,
			Output: testMachineState{R: [8]uint16{0: lc3.PCStart + 1 + 5}, PC: lc3.PCStart + 1, Cond: lc3.FlagPOS},
		},
	}

	for _, tc := range cases {
		runCase(t, tc)
	}
}

func TestSTIWritesThroughIndirection(t *testing.T) {
	vm, _ := newTestVM()
	vm.Mem[lc3.PCStart] = 0xB001 // STI R0, #1
	vm.Mem[lc3.PCStart+2] = 0x4000
	vm.Reg.R[0] = 0x9999

	if err := vm.Step(); err != nil {
		t.Fatalf("Step() returned error: %v", err)
	}

	if got := vm.Read(0x4000); got != 0x9999 {
		t.Errorf("mem[0x4000] = %#04x, want 0x9999", got)
	}
}

func TestRTIAborts(t *testing.T) {
	vm, _ := newTestVM()
	vm.Mem[lc3.PCStart] = 0x8000 // RTI

	if err := vm.Step(); err == nil {
		t.Fatal("Step() on RTI returned nil error, want abort")
	}
}

func TestRESAborts(t *testing.T) {
	vm, _ := newTestVM()
	vm.Mem[lc3.PCStart] = 0xD000 // RES

	if err := vm.Step(); err == nil {
		t.Fatal("Step() on RES returned nil error, want abort")
	}
}

func TestPCOverflowAborts(t *testing.T) {
	vm, _ := newTestVM()
	vm.Reg.PC = 0xFFFF

	err := vm.Step()
	if err == nil {
		t.Fatal("Step() at PC=0xFFFF returned nil error, want overflow abort")
	}
}

func TestRunUntilHalt(t *testing.T) {
	vm, out := newTestVM()
	vm.Mem[lc3.PCStart] = 0xF025 // HALT

	if err := vm.Run(); err != nil {
		t.Fatalf("Run() returned error: %v", err)
	}

	if !strings.Contains(out.String(), "HALT\n") {
		t.Errorf("stdout %q does not contain HALT message", out.String())
	}
}

func TestKBSRGateDrivesKBDR(t *testing.T) {
	vm, _ := newTestVM()
	vm.Keyboard = &fakeKeyboard{bytes: []byte{'Q'}}

	status := vm.Read(lc3.KBSR)
	if status&0x8000 == 0 {
		t.Fatal("KBSR did not report ready after a byte became available")
	}
	if got := vm.Read(lc3.KBDR); got != uint16('Q') {
		t.Errorf("KBDR = %#04x, want %#04x", got, 'Q')
	}
}

func TestKBSRGateReportsNotReady(t *testing.T) {
	vm, _ := newTestVM()
	vm.Keyboard = &fakeKeyboard{}

	if status := vm.Read(lc3.KBSR); status != 0 {
		t.Errorf("KBSR = %#04x, want 0 when no input is pending", status)
	}
}

type fakeKeyboard struct {
	bytes []byte
}

func (f *fakeKeyboard) Ready() bool {
	return len(f.bytes) > 0
}

func (f *fakeKeyboard) ReadByte() (byte, error) {
	b := f.bytes[0]
	f.bytes = f.bytes[1:]
	return b, nil
}
