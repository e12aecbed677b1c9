// Copyright 2024 The mecs-go Authors
// This file is part of mecs-go.
//
// mecs-go is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// mecs-go is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with mecs-go. If not, see <http://www.gnu.org/licenses/>.

package scheduler

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// errMalformedSymbols is returned when a symbol file's record framing runs
// past the end of the buffer.
var errMalformedSymbols = errors.New("scheduler: malformed symbol file")

// DecodeSymbolFile parses the §6 symbol file format: a sequence of
// {u32 crushed-name, u32 string-length, bytes} records in network byte
// order. Unknown crushed names outside this table render as
// "<unknown> 0xXXXX" at the interpreter, so a missing or empty symbol file
// is not itself an error. Exported so a host (cmd/mecs) can decode a symbol
// file itself for a single-interpreter run that never touches a Scheduler.
func DecodeSymbolFile(data []byte) (map[uint32]string, error) {
	out := make(map[uint32]string)
	pos := 0
	for pos < len(data) {
		if pos+8 > len(data) {
			return nil, fmt.Errorf("%w: truncated record header at offset %d", errMalformedSymbols, pos)
		}
		name := binary.BigEndian.Uint32(data[pos : pos+4])
		length := binary.BigEndian.Uint32(data[pos+4 : pos+8])
		pos += 8
		if pos+int(length) > len(data) {
			return nil, fmt.Errorf("%w: record for %#x overruns buffer", errMalformedSymbols, name)
		}
		out[name] = string(data[pos : pos+int(length)])
		pos += int(length)
	}
	return out, nil
}
