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

package main

import (
	"bufio"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/mserrano/lc3vm/pkg/image"
	"github.com/mserrano/lc3vm/pkg/keyboard"
	"github.com/mserrano/lc3vm/pkg/lc3"
	"github.com/mserrano/lc3vm/pkg/term"
)

var testvar bool

const usage = "lc3vm --test | lc3vm <image>..."

func init() {
	exe, _ := os.Executable()
	log.SetFlags(0)
	log.SetPrefix(fmt.Sprintf("%s: ", filepath.Base(exe)))
	log.SetOutput(os.Stderr)
}

func init() {
	flag.BoolVar(&testvar, "test", false, "Runs the built-in self-check suite and exits")
	flag.Parse()
}

// sigintExitCode is the implementation-defined nonzero exit code for a
// SIGINT-driven exit (spec.md calls this "-2"); OS process exit codes are
// an unsigned byte, so -2 mod 256 is used.
const sigintExitCode = 254

func lc3vm() int {
	if testvar {
		return runSelfTest()
	}

	args := flag.Args()
	if len(args) < 1 {
		log.Println(usage)
		return 2
	}

	vm := lc3.New(keyboard.New(int(os.Stdin.Fd())), os.Stdin, bufio.NewWriter(os.Stdout))

	for _, path := range args {
		if err := loadImage(vm, path); err != nil {
			log.Println(errors.Wrap(err, "loading image"))
			return 1
		}
	}

	state, err := term.Enter(int(os.Stdin.Fd()))
	if err != nil {
		log.Println(errors.Wrap(err, "entering raw terminal mode"))
		return 1
	}
	defer state.Restore()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt)
	go func() {
		<-sig
		state.Restore()
		os.Exit(sigintExitCode)
	}()

	if err := vm.Run(); err != nil {
		log.Println(err)
		return 1
	}

	return 0
}

func loadImage(vm *lc3.VM, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	return image.Load(&vm.Mem, f)
}

func runSelfTest() int {
	failures := lc3.SelfTest()

	if len(failures) == 0 {
		fmt.Println("PASS")
		return 0
	}

	for _, err := range failures {
		fmt.Println(err)
	}
	fmt.Printf("FAIL (%d scenario(s) failed)\n", len(failures))
	return 1
}

func main() {
	os.Exit(lc3vm())
}
