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

package cbor_test

import (
	"encoding/hex"
	"errors"
	"math"
	"math/big"
	"testing"

	"github.com/blinklabs-io/actorstate/cbor"
	"github.com/blinklabs-io/actorstate/internal/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var headerExtras = []uint64{
	0,
	23,
	24,
	255,
	256,
	65535,
	65536,
	math.MaxUint32,
	math.MaxUint32 + 1,
	math.MaxUint64,
}

func TestHeaderRoundTrip(t *testing.T) {
	for major := uint8(0); major <= 7; major++ {
		for _, extra := range headerExtras {
			w := cbor.NewWriter()
			w.WriteHeader(major, extra)
			if w.Len() != cbor.HeaderSize(extra) {
				t.Fatalf(
					"header (%d, %d) encoded to %d bytes, wanted %d",
					major,
					extra,
					w.Len(),
					cbor.HeaderSize(extra),
				)
			}
			r := cbor.NewReader(w.Bytes())
			h, err := r.ReadHeader()
			if err != nil {
				t.Fatalf("failed to read header (%d, %d): %s", major, extra, err)
			}
			if h.Major != major || h.Extra != extra {
				t.Fatalf(
					"header did not round trip\n  got: %s\n  wanted: major %d, extra %d",
					h,
					major,
					extra,
				)
			}
			if !r.Done() {
				t.Fatalf("reader has %d bytes left over", r.Remaining())
			}
		}
	}
}

func TestHeaderMatchesLibraryEncoding(t *testing.T) {
	for _, extra := range headerExtras {
		expected, err := cbor.Encode(extra)
		require.NoError(t, err)
		assert.Equal(
			t,
			hex.EncodeToString(expected),
			hex.EncodeToString(cbor.AppendHeader(nil, cbor.MajorUnsigned, extra)),
		)
	}
}

func TestReadHeaderAcceptsWideEncodings(t *testing.T) {
	testDefs := []struct {
		cborHex string
		extra   uint64
	}{
		{cborHex: "1800", extra: 0},
		{cborHex: "190001", extra: 1},
		{cborHex: "1a00000017", extra: 23},
		{cborHex: "1b0000000000000100", extra: 256},
	}
	for _, testDef := range testDefs {
		h, err := cbor.NewReader(test.DecodeHexString(testDef.cborHex)).ReadHeader()
		require.NoError(t, err)
		assert.Equal(t, cbor.MajorUnsigned, h.Major)
		assert.Equal(t, testDef.extra, h.Extra)
	}
}

func TestReadHeaderErrors(t *testing.T) {
	for _, cborHex := range []string{
		// Reserved length selectors
		"1c", "1d", "1e", "1f",
		// Truncated extra
		"19", "1901", "1a000000",
		// Empty
		"",
	} {
		_, err := cbor.NewReader(test.DecodeHexString(cborHex)).ReadHeader()
		if !errors.Is(err, cbor.ErrFormat) {
			t.Fatalf("expected format error for %q, got: %v", cborHex, err)
		}
	}
}

func TestReadBoolean(t *testing.T) {
	v, err := cbor.NewReader([]byte{0xf5}).ReadBoolean()
	require.NoError(t, err)
	assert.True(t, v)
	v, err = cbor.NewReader([]byte{0xf4}).ReadBoolean()
	require.NoError(t, err)
	assert.False(t, v)
	_, err = cbor.NewReader([]byte{0xf6}).ReadBoolean()
	assert.ErrorIs(t, err, cbor.ErrFormat)
	_, err = cbor.NewReader([]byte{0x01}).ReadBoolean()
	assert.ErrorIs(t, err, cbor.ErrFormat)
}

func TestReadNumber(t *testing.T) {
	testDefs := []struct {
		cborHex string
		value   int64
	}{
		{cborHex: "00", value: 0},
		{cborHex: "17", value: 23},
		{cborHex: "1818", value: 24},
		{cborHex: "1903e8", value: 1000},
		{cborHex: "20", value: -1},
		{cborHex: "3863", value: -100},
		{cborHex: "1b7fffffffffffffff", value: math.MaxInt64},
		{cborHex: "3b7fffffffffffffff", value: math.MinInt64},
	}
	for _, testDef := range testDefs {
		v, err := cbor.NewReader(test.DecodeHexString(testDef.cborHex)).ReadNumber()
		require.NoError(t, err, testDef.cborHex)
		assert.Equal(t, testDef.value, v)
		w := cbor.NewWriter()
		w.WriteNumber(testDef.value)
		assert.Equal(t, testDef.cborHex, hex.EncodeToString(w.Bytes()))
	}
	for _, cborHex := range []string{"1bffffffffffffffff", "3b8000000000000000", "40", "f5"} {
		_, err := cbor.NewReader(test.DecodeHexString(cborHex)).ReadNumber()
		assert.ErrorIs(t, err, cbor.ErrFormat, cborHex)
	}
}

func TestReadUintFullRange(t *testing.T) {
	v, err := cbor.NewReader(test.DecodeHexString("1bffffffffffffffff")).ReadUint()
	require.NoError(t, err)
	assert.Equal(t, uint64(math.MaxUint64), v)
}

func TestBigInt(t *testing.T) {
	huge, _ := new(big.Int).SetString("1180591620717411303424", 10) // 2^70
	testDefs := []struct {
		value   *big.Int
		cborHex string
	}{
		{value: big.NewInt(0), cborHex: "40"},
		{value: big.NewInt(1), cborHex: "420001"},
		{value: big.NewInt(-1), cborHex: "420101"},
		{value: big.NewInt(255), cborHex: "4200ff"},
		{value: big.NewInt(256), cborHex: "43000100"},
		{value: big.NewInt(-4096), cborHex: "43011000"},
		{value: huge, cborHex: "4a00400000000000000000"},
		{value: new(big.Int).Neg(huge), cborHex: "4a01400000000000000000"},
	}
	for _, testDef := range testDefs {
		w := cbor.NewWriter()
		w.WriteBigInt(testDef.value)
		assert.Equal(t, testDef.cborHex, hex.EncodeToString(w.Bytes()))
		v, err := cbor.NewReader(w.Bytes()).ReadBigInt()
		require.NoError(t, err)
		assert.Equal(t, testDef.value.String(), v.String())
	}
}

func TestStrings(t *testing.T) {
	w := cbor.NewWriter()
	w.WriteString("é")
	w.WriteBytes([]byte{0xde, 0xad})
	assert.Equal(t, "62c3a942dead", hex.EncodeToString(w.Bytes()))
	r := cbor.NewReader(w.Bytes())
	s, err := r.ReadString()
	require.NoError(t, err)
	assert.Equal(t, "é", s)
	b, err := r.ReadBytes()
	require.NoError(t, err)
	assert.Equal(t, []byte{0xde, 0xad}, b)
	assert.True(t, r.Done())
	// Invalid UTF-8
	_, err = cbor.NewReader(test.DecodeHexString("62c328")).ReadString()
	assert.ErrorIs(t, err, cbor.ErrFormat)
	// Length past end of data
	_, err = cbor.NewReader(test.DecodeHexString("4501")).ReadBytes()
	assert.ErrorIs(t, err, cbor.ErrFormat)
	// Wrong major type
	_, err = cbor.NewReader(test.DecodeHexString("6161")).ReadBytes()
	assert.ErrorIs(t, err, cbor.ErrFormat)
}

func TestReadNull(t *testing.T) {
	r := cbor.NewReader([]byte{0xf6, 0x01})
	assert.True(t, r.ReadNull())
	assert.Equal(t, 1, r.Offset())
	assert.False(t, r.ReadNull())
	assert.Equal(t, 1, r.Offset())
	v, err := r.ReadNumber()
	require.NoError(t, err)
	assert.Equal(t, int64(1), v)
	assert.False(t, r.ReadNull())
}

func TestReadArrayAndMapLength(t *testing.T) {
	r := cbor.NewReader(test.DecodeHexString("83010203"))
	n, err := r.ReadArrayLength()
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	_, err = cbor.NewReader(test.DecodeHexString("8501")).ReadArrayLength()
	assert.ErrorIs(t, err, cbor.ErrFormat)
	n, err = cbor.NewReader(test.DecodeHexString("a1613082")).ReadMapLength()
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	_, err = cbor.NewReader(test.DecodeHexString("a2613082")).ReadMapLength()
	assert.ErrorIs(t, err, cbor.ErrFormat)
}

func TestReadTag(t *testing.T) {
	r := cbor.NewReader(test.DecodeHexString("d82a40"))
	require.NoError(t, r.ReadTag(cbor.CborTagCid))
	_, err := r.ReadBytes()
	require.NoError(t, err)
	err = cbor.NewReader(test.DecodeHexString("d82b40")).ReadTag(cbor.CborTagCid)
	assert.ErrorIs(t, err, cbor.ErrFormat)
}

func TestReadRaw(t *testing.T) {
	data := test.DecodeHexString("8301820203a1616140f6")
	r := cbor.NewReader(data)
	raw, err := r.ReadRaw()
	require.NoError(t, err)
	assert.Equal(t, data[:9], []byte(raw))
	assert.True(t, r.ReadNull())
	assert.True(t, r.Done())
	// Truncated container
	_, err = cbor.NewReader(test.DecodeHexString("830102")).ReadRaw()
	assert.ErrorIs(t, err, cbor.ErrFormat)
}

func TestDiagnose(t *testing.T) {
	diag, err := cbor.Diagnose(test.DecodeHexString("8301d82a420001f5"))
	require.NoError(t, err)
	assert.Equal(t, "[1, 42(h'0001'), true]", diag)
}

func TestDecodeBytesRead(t *testing.T) {
	var dest []any
	n, err := cbor.Decode(test.DecodeHexString("8101820102"), &dest)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, []any{int64(1)}, dest)
}
