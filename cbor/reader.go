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
	"math"
	"math/big"
	"unicode/utf8"
)

// Reader decodes values from an immutable byte slice using an explicit cursor.
// Byte slices returned by the reader alias the input and must not be modified
type Reader struct {
	data []byte
	pos  int
}

// NewReader returns a Reader positioned at the start of data
func NewReader(data []byte) *Reader {
	return &Reader{data: data}
}

// Offset returns the current cursor position
func (r *Reader) Offset() int {
	return r.pos
}

// Remaining returns the number of unread bytes
func (r *Reader) Remaining() int {
	return len(r.data) - r.pos
}

// Done returns true once every byte has been consumed
func (r *Reader) Done() bool {
	return r.pos >= len(r.data)
}

// Seek moves the cursor to an offset previously returned by Offset. It is used to back out of a
// composite value whose inner read failed
func (r *Reader) Seek(offset int) {
	if offset < 0 || offset > len(r.data) {
		panic("cbor: seek offset out of range")
	}
	r.pos = offset
}

func (r *Reader) readByte() (byte, error) {
	if r.pos >= len(r.data) {
		return 0, NewFormatError(r.pos, "unexpected end of data")
	}
	b := r.data[r.pos]
	r.pos++
	return b, nil
}

// read consumes n bytes and returns them without copying
func (r *Reader) read(n uint64) ([]byte, error) {
	if n > uint64(r.Remaining()) {
		return nil, NewFormatError(
			r.pos,
			"need %d bytes, only %d remaining",
			n,
			r.Remaining(),
		)
	}
	start := r.pos
	end := start + int(n)
	r.pos = end
	// Cap the slice so appends by the caller can't clobber the input
	return r.data[start:end:end], nil
}

// ReadHeader reads the next header. Any of the inline, 1, 2, 4 or 8 byte widths is accepted
func (r *Reader) ReadHeader() (Header, error) {
	start := r.pos
	b, err := r.readByte()
	if err != nil {
		return Header{}, err
	}
	h := Header{Major: b >> 5}
	info := b & CborInfoMask
	var size uint64
	switch {
	case info <= CborMaxUintSimple:
		h.Extra = uint64(info)
		return h, nil
	case info == CborInfoUint8:
		size = 1
	case info == CborInfoUint16:
		size = 2
	case info == CborInfoUint32:
		size = 4
	case info == CborInfoUint64:
		size = 8
	default:
		r.pos = start
		return Header{}, NewFormatError(start, "invalid length selector %d", info)
	}
	buf, err := r.read(size)
	if err != nil {
		r.pos = start
		return Header{}, err
	}
	switch size {
	case 1:
		h.Extra = uint64(buf[0])
	case 2:
		h.Extra = uint64(binary.BigEndian.Uint16(buf))
	case 4:
		h.Extra = uint64(binary.BigEndian.Uint32(buf))
	default:
		h.Extra = binary.BigEndian.Uint64(buf)
	}
	return h, nil
}

// PeekHeader returns the next header without consuming it
func (r *Reader) PeekHeader() (Header, error) {
	start := r.pos
	h, err := r.ReadHeader()
	r.pos = start
	return h, err
}

// PeekMajor returns the major type of the next value without consuming it
func (r *Reader) PeekMajor() (uint8, error) {
	if r.Done() {
		return 0, NewFormatError(r.pos, "unexpected end of data")
	}
	return r.data[r.pos] >> 5, nil
}

func (r *Reader) readExpected(major uint8) (uint64, error) {
	start := r.pos
	h, err := r.ReadHeader()
	if err != nil {
		return 0, err
	}
	if h.Major != major {
		r.pos = start
		return 0, NewFormatError(
			start,
			"expected major type %d, found %d",
			major,
			h.Major,
		)
	}
	return h.Extra, nil
}

// ReadBoolean reads a simple value of true or false
func (r *Reader) ReadBoolean() (bool, error) {
	start := r.pos
	extra, err := r.readExpected(MajorSimple)
	if err != nil {
		return false, err
	}
	switch extra {
	case uint64(SimpleFalse):
		return false, nil
	case uint64(SimpleTrue):
		return true, nil
	}
	r.pos = start
	return false, NewFormatError(start, "invalid boolean value %d", extra)
}

// ReadNumber reads an unsigned (major 0) or negative (major 1) integer
func (r *Reader) ReadNumber() (int64, error) {
	start := r.pos
	h, err := r.ReadHeader()
	if err != nil {
		return 0, err
	}
	switch {
	case h.Major == MajorUnsigned && h.Extra <= math.MaxInt64:
		return int64(h.Extra), nil
	case h.Major == MajorNegative && h.Extra <= math.MaxInt64:
		return -int64(h.Extra) - 1, nil
	}
	r.pos = start
	if h.Major == MajorUnsigned || h.Major == MajorNegative {
		return 0, NewFormatError(start, "integer overflows int64")
	}
	return 0, NewFormatError(start, "expected integer, found major type %d", h.Major)
}

// ReadUint reads an unsigned integer (major 0) over its full 64-bit range
func (r *Reader) ReadUint() (uint64, error) {
	return r.readExpected(MajorUnsigned)
}

// ReadBigInt reads a byte string holding a sign byte followed by a big-endian magnitude.
// An empty byte string is zero
func (r *Reader) ReadBigInt() (*big.Int, error) {
	buf, err := r.ReadBytes()
	if err != nil {
		return nil, err
	}
	ret := new(big.Int)
	if len(buf) == 0 {
		return ret, nil
	}
	ret.SetBytes(buf[1:])
	if buf[0] != 0 {
		ret.Neg(ret)
	}
	return ret, nil
}

// ReadBytes reads a byte string
func (r *Reader) ReadBytes() ([]byte, error) {
	start := r.pos
	length, err := r.readExpected(MajorBytes)
	if err != nil {
		return nil, err
	}
	buf, err := r.read(length)
	if err != nil {
		r.pos = start
		return nil, err
	}
	return buf, nil
}

// ReadString reads a UTF-8 text string
func (r *Reader) ReadString() (string, error) {
	start := r.pos
	length, err := r.readExpected(MajorText)
	if err != nil {
		return "", err
	}
	buf, err := r.read(length)
	if err != nil {
		r.pos = start
		return "", err
	}
	if !utf8.Valid(buf) {
		r.pos = start
		return "", NewFormatError(start, "text string is not valid UTF-8")
	}
	return string(buf), nil
}

// ReadArrayLength reads an array header and returns the element count
func (r *Reader) ReadArrayLength() (int, error) {
	start := r.pos
	length, err := r.readExpected(MajorArray)
	if err != nil {
		return 0, err
	}
	// Every element takes at least one byte
	if length > uint64(r.Remaining()) {
		r.pos = start
		return 0, NewFormatError(start, "array length %d exceeds remaining data", length)
	}
	return int(length), nil
}

// ReadMapLength reads a map header and returns the number of key/value pairs
func (r *Reader) ReadMapLength() (int, error) {
	start := r.pos
	length, err := r.readExpected(MajorMap)
	if err != nil {
		return 0, err
	}
	if length > uint64(r.Remaining())/2 {
		r.pos = start
		return 0, NewFormatError(start, "map length %d exceeds remaining data", length)
	}
	return int(length), nil
}

// ReadTag reads a tag header and checks that it carries the expected tag number
func (r *Reader) ReadTag(expected uint64) error {
	start := r.pos
	num, err := r.readExpected(MajorTag)
	if err != nil {
		return err
	}
	if num != expected {
		r.pos = start
		return NewFormatError(start, "expected tag %d, found %d", expected, num)
	}
	return nil
}

// ReadNull consumes the next byte only if it is an encoded null and reports whether it did
func (r *Reader) ReadNull() bool {
	if r.pos < len(r.data) && r.data[r.pos] == CborNull {
		r.pos++
		return true
	}
	return false
}

// ReadRaw consumes one complete data item and returns its encoded bytes
func (r *Reader) ReadRaw() (RawMessage, error) {
	start := r.pos
	if err := r.skip(0); err != nil {
		r.pos = start
		return nil, err
	}
	return RawMessage(r.data[start:r.pos:r.pos]), nil
}

// Nesting deeper than this is rejected when skipping items
const maxSkipDepth = 256

func (r *Reader) skip(depth int) error {
	if depth > maxSkipDepth {
		return NewFormatError(r.pos, "nesting exceeds %d levels", maxSkipDepth)
	}
	h, err := r.ReadHeader()
	if err != nil {
		return err
	}
	switch h.Major {
	case MajorBytes, MajorText:
		_, err = r.read(h.Extra)
		return err
	case MajorArray, MajorMap:
		count := h.Extra
		if h.Major == MajorMap {
			if count > math.MaxUint64/2 {
				return NewFormatError(r.pos, "map length %d too large", count)
			}
			count *= 2
		}
		if count > uint64(r.Remaining()) {
			return NewFormatError(r.pos, "container length %d exceeds remaining data", h.Extra)
		}
		for i := uint64(0); i < count; i++ {
			if err := r.skip(depth + 1); err != nil {
				return err
			}
		}
		return nil
	case MajorTag:
		return r.skip(depth + 1)
	}
	return nil
}
