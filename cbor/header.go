// Copyright 2026 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package cbor

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Header is the initial item of every encoded value: a 3-bit major type and the
// unsigned "extra" argument (a value, a length, a tag number or a simple value)
type Header struct {
	Major uint8
	Extra uint64
}

func (h Header) String() string {
	return fmt.Sprintf("major %d, extra %d", h.Major, h.Extra)
}

// HeaderSize returns the number of bytes the minimal encoding of extra occupies, including the initial byte
func HeaderSize(extra uint64) int {
	switch {
	case extra <= uint64(CborMaxUintSimple):
		return 1
	case extra <= math.MaxUint8:
		return 2
	case extra <= math.MaxUint16:
		return 3
	case extra <= math.MaxUint32:
		return 5
	default:
		return 9
	}
}

// AppendHeader appends the minimal-width encoding of the header to dst
func AppendHeader(dst []byte, major uint8, extra uint64) []byte {
	lead := major << 5
	switch {
	case extra <= uint64(CborMaxUintSimple):
		return append(dst, lead|uint8(extra))
	case extra <= math.MaxUint8:
		return append(dst, lead|CborInfoUint8, uint8(extra))
	case extra <= math.MaxUint16:
		dst = append(dst, lead|CborInfoUint16)
		return binary.BigEndian.AppendUint16(dst, uint16(extra))
	case extra <= math.MaxUint32:
		dst = append(dst, lead|CborInfoUint32)
		return binary.BigEndian.AppendUint32(dst, uint32(extra))
	default:
		dst = append(dst, lead|CborInfoUint64)
		return binary.BigEndian.AppendUint64(dst, extra)
	}
}
