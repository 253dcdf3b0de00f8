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

// Package image loads LC-3 object images: a big-endian origin word followed
// by a big-endian word stream, placed consecutively starting at that
// origin. This is an external collaborator to the core engine — it
// produces the initial memory contents the engine then executes.
package image

import (
	"encoding/binary"
	"io"

	"github.com/pkg/errors"

	"github.com/mserrano/lc3vm/pkg/lc3"
)

// Load reads one image from r and overlays it onto mem starting at the
// origin encoded in the image's first word. The file ends at EOF; there is
// no length header. Loading multiple images into the same Memory, one
// after another, layers them: later images overwrite earlier contents at
// overlapping addresses.
func Load(mem *lc3.Memory, r io.Reader) error {
	var originBuf [2]byte
	if _, err := io.ReadFull(r, originBuf[:]); err != nil {
		return errors.Wrap(err, "reading image origin")
	}

	addr := binary.BigEndian.Uint16(originBuf[:])

	word := make([]byte, 2)
	for {
		_, err := io.ReadFull(r, word)
		if err == io.EOF {
			return nil
		}
		if err == io.ErrUnexpectedEOF {
			return errors.New("image file ends mid-word")
		}
		if err != nil {
			return errors.Wrap(err, "reading image word")
		}

		mem[addr] = binary.BigEndian.Uint16(word)
		addr++
	}
}
