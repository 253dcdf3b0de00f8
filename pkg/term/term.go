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

// Package term puts the controlling terminal into raw (non-canonical,
// no-echo) mode so GETC/IN see byte-at-a-time input, and restores it on
// every exit path. This is an external collaborator: the core engine
// knows nothing about terminal modes.
package term

import (
	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

// State holds the terminal attributes captured before entering raw mode,
// so Restore can put them back.
type State struct {
	fd       int
	original unix.Termios
}

// Enter saves the current attributes of fd and switches it to raw mode:
// no canonical line buffering, no echo. VMIN/VTIME are left at VMIN=1,
// VTIME=0 (a genuine blocking single-byte read) rather than 0/0, since the
// latter makes the tty driver return (0, nil) whenever nothing is typed
// and GETC/IN need a real blocking read (spec.md §5); the non-blocking
// keyboard poll (pkg/keyboard) uses its own zero-timeout select and is
// unaffected by VMIN/VTIME. ISIG is left set so a Ctrl-C still raises
// SIGINT for the handler in cmd/lc3vm to catch.
func Enter(fd int) (*State, error) {
	original, err := unix.IoctlGetTermios(fd, unix.TCGETS)
	if err != nil {
		return nil, errors.Wrap(err, "reading terminal attributes")
	}

	raw := *original
	raw.Iflag &^= unix.BRKINT | unix.ICRNL | unix.INPCK | unix.ISTRIP | unix.IXON
	raw.Lflag &^= unix.ECHO | unix.ICANON | unix.IEXTEN
	raw.Cflag |= unix.CS8
	raw.Cc[unix.VMIN] = 1
	raw.Cc[unix.VTIME] = 0

	if err := unix.IoctlSetTermios(fd, unix.TCSETS, &raw); err != nil {
		return nil, errors.Wrap(err, "entering raw mode")
	}

	return &State{fd: fd, original: *original}, nil
}

// Restore puts the terminal back into the mode it was in before Enter. It
// is the scoped resource release: callers must invoke it on every exit
// path, including fatal aborts and signal-driven interrupts.
func (s *State) Restore() error {
	if s == nil {
		return nil
	}
	return errors.Wrap(unix.IoctlSetTermios(s.fd, unix.TCSETS, &s.original), "restoring terminal attributes")
}
