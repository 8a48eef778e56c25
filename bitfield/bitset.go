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

package bitfield

import (
	"github.com/bits-and-blooms/bitset"
)

// FromBitSet returns a BitField holding the set bits of bs
func FromBitSet(bs *bitset.BitSet) BitField {
	if bs == nil {
		return BitField{}
	}
	var runs []uint64
	var next uint
	for {
		start, ok := bs.NextSet(next)
		if !ok {
			break
		}
		end, ok := bs.NextClear(start)
		if !ok {
			end = bs.Len()
		}
		runs = append(runs, uint64(start-next), uint64(end-start))
		next = end
	}
	return BitField{runs: runs}
}

// BitSet returns the bitfield as an uncompressed bitset
func (b BitField) BitSet() *bitset.BitSet {
	ranges := b.Ranges()
	if len(ranges) == 0 {
		return bitset.New(0)
	}
	ret := bitset.New(uint(ranges[len(ranges)-1].To + 1))
	for _, r := range ranges {
		for idx := r.From; ; idx++ {
			ret.Set(uint(idx))
			if idx == r.To {
				break
			}
		}
	}
	return ret
}
