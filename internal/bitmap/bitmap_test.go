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

package bitmap

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLittleEndian(t *testing.T) {
	// Bits 0, 3, 9 and 15
	b := FromLittleEndian([]byte{0x09, 0x82})
	assert.Equal(t, uint(16), b.Len())
	assert.Equal(t, 4, b.Count())
	assert.Equal(t, []uint{0, 3, 9, 15}, b.Indices())
	testDefs := []struct {
		bit   uint
		has   bool
		index int
	}{
		{bit: 0, has: true, index: 0},
		{bit: 1, has: false, index: 1},
		{bit: 3, has: true, index: 1},
		{bit: 9, has: true, index: 2},
		{bit: 15, has: true, index: 3},
		{bit: 16, has: false, index: 4},
		{bit: 100, has: false, index: 4},
	}
	for _, testDef := range testDefs {
		assert.Equal(t, testDef.has, b.Has(testDef.bit), "bit %d", testDef.bit)
		assert.Equal(t, testDef.index, b.Index(testDef.bit), "bit %d", testDef.bit)
	}
}

func TestBigEndian(t *testing.T) {
	// 0x0102 has bits 1 and 8 set
	b := FromBigEndian([]byte{0x01, 0x02})
	assert.Equal(t, []uint{1, 8}, b.Indices())
	assert.Equal(t, int64(0x0102), b.Int().Int64())
	assert.Equal(t, 1, b.Index(8))
}

func TestWide(t *testing.T) {
	data := make([]byte, 32)
	data[0] = 0x01
	data[31] = 0x80
	b := FromLittleEndian(data)
	assert.Equal(t, []uint{0, 255}, b.Indices())
	assert.Equal(t, 1, b.Index(255))
	empty := FromLittleEndian(nil)
	assert.Equal(t, 0, empty.Count())
	assert.False(t, empty.Has(0))
	assert.Equal(t, 0, empty.Index(5))
}
