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

// Package bitmap translates trie node bitmaps into compacted slot positions
package bitmap

import (
	"math/big"
	"slices"

	"github.com/bits-and-blooms/bitset"
)

// Bitmap is a read-only set of bit positions backed by a bitset
type Bitmap struct {
	bs *bitset.BitSet
}

// FromLittleEndian builds a bitmap where bit i is data[i/8] & (1 << (i%8))
func FromLittleEndian(data []byte) Bitmap {
	words := make([]uint64, (len(data)+7)/8)
	for i, b := range data {
		words[i/8] |= uint64(b) << (8 * (i % 8))
	}
	return Bitmap{
		bs: bitset.FromWithLength(uint(len(data))*8, words),
	}
}

// FromBigEndian builds a bitmap from the big-endian bytes of an unsigned integer, where bit i
// is the bit of value 2^i
func FromBigEndian(data []byte) Bitmap {
	tmp := slices.Clone(data)
	slices.Reverse(tmp)
	return FromLittleEndian(tmp)
}

// Has returns true if bit i is set
func (b Bitmap) Has(i uint) bool {
	return b.bs.Test(i)
}

// Index returns the number of set bits below i, which is the slot of bit i in a compacted array
func (b Bitmap) Index(i uint) int {
	if i == 0 {
		return 0
	}
	return int(b.bs.Rank(i - 1))
}

// Count returns the number of set bits
func (b Bitmap) Count() int {
	return int(b.bs.Count())
}

// Len returns the number of addressable bits
func (b Bitmap) Len() uint {
	return b.bs.Len()
}

// Indices returns the set bits in ascending order
func (b Bitmap) Indices() []uint {
	ret := make([]uint, 0, b.Count())
	for i, ok := b.bs.NextSet(0); ok; i, ok = b.bs.NextSet(i + 1) {
		ret = append(ret, i)
	}
	return ret
}

// Int returns the bitmap as an unsigned integer
func (b Bitmap) Int() *big.Int {
	ret := new(big.Int)
	for _, i := range b.Indices() {
		ret.SetBit(ret, int(i), 1)
	}
	return ret
}
