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

// Package keyboard provides the real, OS-backed implementation of
// lc3.KeyboardSource: a zero-timeout readiness check on a file descriptor,
// so the execution loop's memory-access gate never blocks on a KBSR read.
package keyboard

import (
	"io"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

// Stdin implements lc3.KeyboardSource over a raw file descriptor, normally
// os.Stdin.Fd() once the terminal has been put into raw mode.
type Stdin struct {
	fd int
}

// New returns a KeyboardSource polling fd for readiness.
func New(fd int) *Stdin {
	return &Stdin{fd: fd}
}

// Ready reports whether a read on fd would return data immediately,
// using a zero-timeout select so it can never block the execution loop.
func (s *Stdin) Ready() bool {
	fdSet := &unix.FdSet{}
	fdSet.Bits[s.fd/64] |= 1 << (uint(s.fd) % 64)

	timeout := unix.Timeval{}

	n, err := unix.Select(s.fd+1, fdSet, nil, nil, &timeout)
	return err == nil && n > 0
}

// ReadByte consumes one byte. Callers must only call it after Ready has
// reported true; it does not itself avoid blocking.
func (s *Stdin) ReadByte() (byte, error) {
	var buf [1]byte

	n, err := unix.Read(s.fd, buf[:])
	if err != nil {
		return 0, errors.Wrap(err, "reading from keyboard fd")
	}
	if n == 0 {
		return 0, io.EOF
	}

	return buf[0], nil
}
