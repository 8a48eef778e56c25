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

// Package bitfield implements the RLE+ run-length encoding of sets of non-negative integers.
//
// A bitfield is stored as alternating runs of cleared and set bits, always starting with a
// cleared run. The encoded form packs bits least significant first: a 2-bit version (0), a
// flag that is set when the first bit is set, then one block per run. A run of 1 is the single
// bit 1; runs of 2 to 15 are the bits 0 1 followed by the length in 4 bits; longer runs are the
// bits 0 0 followed by the length as an unsigned varint in 8-bit groups.
package bitfield

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/blinklabs-io/actorstate/cbor"
	"github.com/multiformats/go-varint"
)

const rleVersion = 0

var ErrInvalidBitField = errors.New("invalid bitfield")

// Range is an inclusive span of set bits
type Range struct {
	From uint64
	To   uint64
}

func (r Range) Len() uint64 {
	return r.To - r.From + 1
}

// BitField is an immutable set of non-negative integers in run-length form. The zero value
// is the empty set
type BitField struct {
	// Alternating cleared/set run lengths starting with a cleared run. Only the first
	// run may be zero
	runs []uint64
}

// New returns an empty BitField
func New() BitField {
	return BitField{}
}

// FromIndex returns a BitField with the single bit idx set
func FromIndex(idx uint64) BitField {
	return BitField{runs: []uint64{idx, 1}}
}

// FromIndices returns a BitField with every listed bit set. The input does not need to be
// sorted and may contain duplicates
func FromIndices(indices []uint64) BitField {
	if len(indices) == 0 {
		return BitField{}
	}
	sorted := slices.Clone(indices)
	slices.Sort(sorted)
	sorted = slices.Compact(sorted)
	runs := []uint64{sorted[0]}
	runLen := uint64(1)
	last := sorted[0]
	for _, idx := range sorted[1:] {
		if idx == last+1 {
			runLen++
		} else {
			runs = append(runs, runLen, idx-last-1)
			runLen = 1
		}
		last = idx
	}
	runs = append(runs, runLen)
	return BitField{runs: runs}
}

// FromRanges returns a BitField from inclusive ranges, which may overlap or touch and need
// not be sorted
func FromRanges(ranges []Range) (BitField, error) {
	sorted := slices.Clone(ranges)
	slices.SortFunc(sorted, func(a, b Range) int {
		switch {
		case a.From < b.From:
			return -1
		case a.From > b.From:
			return 1
		}
		return 0
	})
	var runs []uint64
	var next uint64
	var prevTo uint64
	for i, r := range sorted {
		if r.To < r.From {
			return BitField{}, fmt.Errorf("%w: range %d-%d is reversed", ErrInvalidBitField, r.From, r.To)
		}
		if r.To == math.MaxUint64 {
			return BitField{}, fmt.Errorf("%w: range end overflows", ErrInvalidBitField)
		}
		if i > 0 && r.From <= prevTo+1 {
			// Overlapping or adjacent ranges extend the last set run
			if r.To > prevTo {
				runs[len(runs)-1] += r.To - prevTo
				prevTo = r.To
				next = r.To + 1
			}
			continue
		}
		runs = append(runs, r.From-next, r.Len())
		prevTo = r.To
		next = r.To + 1
	}
	return BitField{runs: runs}, nil
}

// FromRuns returns a BitField from alternating cleared/set run lengths. Only the first run
// may be zero
func FromRuns(runs []uint64) (BitField, error) {
	if err := validateRuns(runs); err != nil {
		return BitField{}, err
	}
	return BitField{runs: slices.Clone(runs)}, nil
}

func validateRuns(runs []uint64) error {
	var total uint64
	for i, run := range runs {
		if run == 0 && i > 0 {
			return fmt.Errorf("%w: zero-length run at position %d", ErrInvalidBitField, i)
		}
		if total > math.MaxUint64-run {
			return fmt.Errorf("%w: runs exceed 64-bit index space", ErrInvalidBitField)
		}
		total += run
	}
	return nil
}

// Runs returns a copy of the run lengths, starting with a cleared run
func (b BitField) Runs() []uint64 {
	return slices.Clone(b.runs)
}

// Ranges returns the set bits as inclusive ranges in ascending order
func (b BitField) Ranges() []Range {
	var ret []Range
	var offset uint64
	for i, run := range b.runs {
		if i%2 == 1 {
			ret = append(ret, Range{From: offset, To: offset + run - 1})
		}
		offset += run
	}
	return ret
}

// Count returns the number of set bits
func (b BitField) Count() uint64 {
	var ret uint64
	for i := 1; i < len(b.runs); i += 2 {
		ret += b.runs[i]
	}
	return ret
}

func (b BitField) IsEmpty() bool {
	return b.Count() == 0
}

// Has returns true if bit idx is set
func (b BitField) Has(idx uint64) bool {
	var offset uint64
	for i, run := range b.runs {
		if idx < offset+run {
			return i%2 == 1
		}
		offset += run
	}
	return false
}

// Indices returns every set bit in ascending order
func (b BitField) Indices() []uint64 {
	ret := make([]uint64, 0, b.Count())
	for _, r := range b.Ranges() {
		for idx := r.From; ; idx++ {
			ret = append(ret, idx)
			if idx == r.To {
				break
			}
		}
	}
	return ret
}

// Equal returns true if both bitfields hold the same set
func (b BitField) Equal(other BitField) bool {
	return slices.Equal(b.Ranges(), other.Ranges())
}

func (b BitField) String() string {
	ranges := b.Ranges()
	parts := make([]string, 0, len(ranges))
	for _, r := range ranges {
		if r.From == r.To {
			parts = append(parts, strconv.FormatUint(r.From, 10))
		} else {
			parts = append(parts, fmt.Sprintf("%d-%d", r.From, r.To))
		}
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// Decode parses the RLE+ encoded form. An empty input is the empty set
func Decode(data []byte) (BitField, error) {
	if len(data) == 0 {
		return BitField{}, nil
	}
	r := &bitReader{data: data}
	version, err := r.read(2)
	if err != nil {
		return BitField{}, err
	}
	if version != rleVersion {
		return BitField{}, fmt.Errorf("%w: unsupported version %d", ErrInvalidBitField, version)
	}
	startSet, err := r.read(1)
	if err != nil {
		return BitField{}, err
	}
	var runs []uint64
	if startSet == 1 {
		runs = append(runs, 0)
	}
	var total uint64
	for !r.finished() {
		run, err := r.readRun()
		if err != nil {
			return BitField{}, err
		}
		if run == 0 {
			return BitField{}, fmt.Errorf("%w: zero-length run at position %d", ErrInvalidBitField, len(runs))
		}
		if total > math.MaxUint64-run {
			return BitField{}, fmt.Errorf("%w: runs exceed 64-bit index space", ErrInvalidBitField)
		}
		total += run
		runs = append(runs, run)
	}
	return BitField{runs: runs}, nil
}

// Bytes returns the RLE+ encoded form. The empty set encodes as no bytes
func (b BitField) Bytes() []byte {
	if len(b.runs) == 0 {
		return []byte{}
	}
	w := &bitWriter{}
	w.write(rleVersion, 2)
	runs := b.runs
	if runs[0] == 0 {
		w.write(1, 1)
		runs = runs[1:]
	} else {
		w.write(0, 1)
	}
	for _, run := range runs {
		w.writeRun(run)
	}
	return w.finish()
}

// DecodeBitField reads a byte string holding an RLE+ bitfield
func DecodeBitField(r *cbor.Reader) (BitField, error) {
	start := r.Offset()
	data, err := r.ReadBytes()
	if err != nil {
		return BitField{}, err
	}
	ret, err := Decode(data)
	if err != nil {
		r.Seek(start)
		return BitField{}, cbor.WrapFormatError(start, "bitfield", err)
	}
	return ret, nil
}

// EncodeTo writes the bitfield as a byte string
func (b BitField) EncodeTo(w *cbor.Writer) {
	w.WriteBytes(b.Bytes())
}

func (b BitField) MarshalCBOR() ([]byte, error) {
	w := cbor.NewWriter()
	b.EncodeTo(w)
	return w.Bytes(), nil
}

func (b *BitField) UnmarshalCBOR(data []byte) error {
	tmp, err := DecodeBitField(cbor.NewReader(data))
	if err != nil {
		return err
	}
	*b = tmp
	return nil
}

// bitReader consumes bits least significant first
type bitReader struct {
	data []byte
	pos  int
	off  uint
}

// finished returns true when no bytes remain, or the last byte has only zero bits left
func (r *bitReader) finished() bool {
	remaining := len(r.data) - r.pos
	return remaining == 0 || (remaining == 1 && r.data[r.pos]>>r.off == 0)
}

func (r *bitReader) read(n uint) (byte, error) {
	if r.pos >= len(r.data) {
		return 0, fmt.Errorf("%w: unexpected end of data", ErrInvalidBitField)
	}
	ret := uint16(r.data[r.pos]) >> r.off
	total := r.off + n
	if total > 8 {
		if r.pos+1 >= len(r.data) {
			return 0, fmt.Errorf("%w: unexpected end of data", ErrInvalidBitField)
		}
		ret |= uint16(r.data[r.pos+1]) << (8 - r.off)
	}
	if total >= 8 {
		r.pos++
	}
	r.off = total & 7
	return byte(ret & (1<<n - 1)), nil
}

func (r *bitReader) readRun() (uint64, error) {
	single, err := r.read(1)
	if err != nil {
		return 0, err
	}
	if single == 1 {
		return 1, nil
	}
	short, err := r.read(1)
	if err != nil {
		return 0, err
	}
	if short == 1 {
		n, err := r.read(4)
		return uint64(n), err
	}
	buf := make([]byte, 0, varint.MaxLenUvarint63)
	for {
		group, err := r.read(8)
		if err != nil {
			return 0, err
		}
		buf = append(buf, group)
		if group < 0x80 {
			break
		}
		if len(buf) == varint.MaxLenUvarint63 {
			return 0, fmt.Errorf("%w: run length varint too long", ErrInvalidBitField)
		}
	}
	n, _, err := varint.FromUvarint(buf)
	if err != nil {
		return 0, fmt.Errorf("%w: run length: %w", ErrInvalidBitField, err)
	}
	return n, nil
}

// bitWriter packs bits least significant first
type bitWriter struct {
	buf    []byte
	bits   uint16
	bitCap uint
}

func (w *bitWriter) write(val byte, n uint) {
	w.bits |= uint16(val) << w.bitCap
	w.bitCap += n
	if w.bitCap >= 8 {
		w.buf = append(w.buf, byte(w.bits))
		w.bits >>= 8
		w.bitCap -= 8
	}
}

func (w *bitWriter) writeRun(run uint64) {
	switch {
	case run == 1:
		w.write(1, 1)
	case run < 16:
		w.write(2, 2)
		w.write(byte(run), 4)
	default:
		w.write(0, 2)
		for _, group := range varint.ToUvarint(run) {
			w.write(group, 8)
		}
	}
}

// finish flushes the pending bits. A final byte is always written, which terminates the
// stream when it carries no partial run
func (w *bitWriter) finish() []byte {
	return append(w.buf, byte(w.bits))
}
