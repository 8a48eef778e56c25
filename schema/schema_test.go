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

package schema_test

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"math"
	"math/big"
	"testing"

	"github.com/blinklabs-io/actorstate/amt"
	"github.com/blinklabs-io/actorstate/bitfield"
	"github.com/blinklabs-io/actorstate/cbor"
	"github.com/blinklabs-io/actorstate/hamt"
	"github.com/blinklabs-io/actorstate/internal/test"
	"github.com/blinklabs-io/actorstate/schema"
	"github.com/blinklabs-io/actorstate/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustParseAddress(t *testing.T, s string) types.Address {
	t.Helper()
	addr, err := types.ParseAddress(s)
	require.NoError(t, err)
	return addr
}

type primitiveTestDef struct {
	name    string
	schema  schema.Schema
	value   any
	cborHex string
}

func TestPrimitiveRoundTrip(t *testing.T) {
	contentId, err := types.ParseContentId("bafyreigevguazbfuncac56zvlzfup44zobva5vzbysmnxelwsncjorohva")
	require.NoError(t, err)
	testDefs := []primitiveTestDef{
		{
			name:    "Address",
			schema:  schema.Address,
			value:   mustParseAddress(t, "f01234"),
			cborHex: "4300d209",
		},
		{
			name:    "UndefinedAddress",
			schema:  schema.Address,
			value:   types.Address{},
			cborHex: "40",
		},
		{
			name:    "BigInt",
			schema:  schema.BigInt,
			value:   big.NewInt(1000),
			cborHex: "430003e8",
		},
		{
			name:    "NegativeBigInt",
			schema:  schema.BigInt,
			value:   big.NewInt(-1),
			cborHex: "420101",
		},
		{
			name:    "ZeroBigInt",
			schema:  schema.BigInt,
			value:   new(big.Int),
			cborHex: "40",
		},
		{
			name:    "Bitset",
			schema:  schema.Bitset,
			value:   bitfield.FromIndex(0),
			cborHex: "410c",
		},
		{
			name:    "Boolean",
			schema:  schema.Boolean,
			value:   true,
			cborHex: "f5",
		},
		{
			name:    "Bytes",
			schema:  schema.Bytes,
			value:   []byte{1, 2, 3},
			cborHex: "43010203",
		},
		{
			name:    "ContentId",
			schema:  schema.ContentId,
			value:   contentId,
			cborHex: "d82a58250001711220c4a9a80c84b468802efb355e4b47f399706a0ed721c498db917693449745c7a8",
		},
		{
			name:    "Number",
			schema:  schema.Number,
			value:   int64(500),
			cborHex: "1901f4",
		},
		{
			name:    "NegativeNumber",
			schema:  schema.Number,
			value:   int64(-1),
			cborHex: "20",
		},
		{
			name:    "Signature",
			schema:  schema.Signature,
			value:   types.Signature{Type: types.SigTypeBLS, Data: []byte{0xde, 0xad, 0xbe, 0xef}},
			cborHex: "4502deadbeef",
		},
		{
			name:    "String",
			schema:  schema.String,
			value:   "hi",
			cborHex: "626869",
		},
	}
	for _, testDef := range testDefs {
		t.Run(testDef.name, func(t *testing.T) {
			data, err := schema.Encode(testDef.value, testDef.schema)
			require.NoError(t, err)
			assert.Equal(t, testDef.cborHex, hex.EncodeToString(data))
			decoded, err := schema.Decode(data, testDef.schema)
			require.NoError(t, err)
			if expected, ok := testDef.value.(*big.Int); ok {
				actual, ok := decoded.(*big.Int)
				require.True(t, ok, "decoded %T", decoded)
				assert.Equal(t, 0, expected.Cmp(actual))
				return
			}
			assert.Equal(t, testDef.value, decoded)
		})
	}
}

func TestEncodeIntegerTypes(t *testing.T) {
	for _, value := range []any{5, int8(5), int32(5), uint16(5), uint64(5)} {
		data, err := schema.Encode(value, schema.Number)
		require.NoError(t, err)
		assert.Equal(t, []byte{0x05}, data)
	}
	data, err := schema.Encode(uint64(1<<63), schema.Number)
	require.NoError(t, err)
	assert.Equal(t, "1b8000000000000000", hex.EncodeToString(data))
	data, err = schema.Encode(7, schema.BigInt)
	require.NoError(t, err)
	assert.Equal(t, "420007", hex.EncodeToString(data))
}

func TestNumberFullRange(t *testing.T) {
	minusTwoPow63 := new(big.Int).Neg(new(big.Int).Lsh(big.NewInt(1), 63))
	belowMinInt64 := new(big.Int).Sub(minusTwoPow63, big.NewInt(1))
	minusTwoPow64 := new(big.Int).Neg(new(big.Int).Lsh(big.NewInt(1), 64))
	testDefs := []struct {
		value   any
		cborHex string
	}{
		{value: uint64(1) << 63, cborHex: "1b8000000000000000"},
		{value: uint64(math.MaxUint64), cborHex: "1bffffffffffffffff"},
		{value: int64(math.MaxInt64), cborHex: "1b7fffffffffffffff"},
		{value: int64(math.MinInt64), cborHex: "3b7fffffffffffffff"},
		{value: belowMinInt64, cborHex: "3b8000000000000000"},
		{value: minusTwoPow64, cborHex: "3bffffffffffffffff"},
	}
	for _, testDef := range testDefs {
		data, err := schema.Encode(testDef.value, schema.Number)
		require.NoError(t, err)
		assert.Equal(t, testDef.cborHex, hex.EncodeToString(data))
		decoded, err := schema.Decode(data, schema.Number)
		require.NoError(t, err)
		if expected, ok := testDef.value.(*big.Int); ok {
			actual, ok := decoded.(*big.Int)
			require.True(t, ok, "decoded %T", decoded)
			assert.Equal(t, 0, expected.Cmp(actual), "got %s", actual)
			continue
		}
		assert.Equal(t, testDef.value, decoded)
	}
	// In-range big integers encode like plain integers
	data, err := schema.Encode(big.NewInt(-1), schema.Number)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x20}, data)
	// Values beyond the header range do not fit
	for _, value := range []*big.Int{
		new(big.Int).Lsh(big.NewInt(1), 64),
		new(big.Int).Sub(minusTwoPow64, big.NewInt(1)),
	} {
		_, err := schema.Encode(value, schema.Number)
		assert.ErrorIs(t, err, schema.ErrSchemaMismatch)
	}
}

func TestOptional(t *testing.T) {
	opt := schema.Optional{Inner: schema.Number}
	data, err := schema.Encode(nil, opt)
	require.NoError(t, err)
	assert.Equal(t, []byte{cbor.CborNull}, data)
	decoded, err := schema.Decode(data, opt)
	require.NoError(t, err)
	assert.Nil(t, decoded)

	data, err = schema.Encode(int64(3), opt)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x03}, data)
	decoded, err = schema.Decode(data, opt)
	require.NoError(t, err)
	assert.Equal(t, int64(3), decoded)

	var addr *types.Address
	data, err = schema.Encode(addr, schema.Optional{Inner: schema.Address})
	require.NoError(t, err)
	assert.Equal(t, []byte{cbor.CborNull}, data)
}

func TestList(t *testing.T) {
	list := schema.List{Elem: schema.String}
	testDefs := []struct {
		value   []any
		cborHex string
	}{
		{value: []any{}, cborHex: "80"},
		{value: []any{"a"}, cborHex: "816161"},
		{value: []any{"a", "b", "c"}, cborHex: "83616161626163"},
	}
	for _, testDef := range testDefs {
		data, err := schema.Encode(testDef.value, list)
		require.NoError(t, err)
		assert.Equal(t, testDef.cborHex, hex.EncodeToString(data))
		decoded, err := schema.Decode(data, list)
		require.NoError(t, err)
		assert.Equal(t, testDef.value, decoded)
	}
	// Typed slices encode the same way
	data, err := schema.Encode([]string{"a", "b", "c"}, list)
	require.NoError(t, err)
	assert.Equal(t, "83616161626163", hex.EncodeToString(data))
}

func TestListOfOptional(t *testing.T) {
	list := schema.List{Elem: schema.Optional{Inner: schema.Number}}
	data, err := schema.Encode([]any{int64(1), nil, int64(-2)}, list)
	require.NoError(t, err)
	assert.Equal(t, "8301f621", hex.EncodeToString(data))
	decoded, err := schema.Decode(data, list)
	require.NoError(t, err)
	assert.Equal(t, []any{int64(1), nil, int64(-2)}, decoded)
}

var minerInfoSchema = schema.NewStruct(
	schema.Field{Name: "owner", Schema: schema.Address},
	schema.Field{Name: "peerId", Schema: schema.Optional{Inner: schema.Bytes}},
	schema.Field{Name: "sectors", Schema: schema.Bitset},
	schema.Field{
		Name: "pending",
		Schema: schema.List{
			Elem: schema.NewStruct(
				schema.Field{Name: "epoch", Schema: schema.Number},
				schema.Field{Name: "power", Schema: schema.BigInt},
			),
		},
	},
)

func TestStructRoundTrip(t *testing.T) {
	owner := mustParseAddress(t, "f01234")
	record := schema.NewRecord().
		Set("owner", owner).
		Set("peerId", nil).
		Set("sectors", bitfield.FromIndices([]uint64{1, 2, 3, 7})).
		Set("pending", []any{
			schema.NewRecord().Set("epoch", int64(10)).Set("power", big.NewInt(1000)),
		})
	data, err := schema.Encode(record, minerInfoSchema)
	require.NoError(t, err)
	decoded, err := schema.Decode(data, minerInfoSchema)
	require.NoError(t, err)
	out, ok := decoded.(*schema.Record)
	require.True(t, ok, "decoded %T", decoded)
	assert.Equal(t, []string{"owner", "peerId", "sectors", "pending"}, out.Names())
	value, ok := out.Get("owner")
	require.True(t, ok)
	assert.True(t, owner.Equal(value.(types.Address)))
	value, ok = out.Get("peerId")
	require.True(t, ok)
	assert.Nil(t, value)
	value, _ = out.Get("sectors")
	assert.Equal(t, []uint64{1, 2, 3, 7}, value.(bitfield.BitField).Indices())
	value, _ = out.Get("pending")
	pending := value.([]any)
	require.Len(t, pending, 1)
	epoch, _ := pending[0].(*schema.Record).Get("epoch")
	assert.Equal(t, int64(10), epoch)

	// Re-encoding the decoded record reproduces the bytes
	again, err := schema.Encode(out, minerInfoSchema)
	require.NoError(t, err)
	assert.Equal(t, data, again)

	// So does a plain map
	again, err = schema.Encode(out.Map(), minerInfoSchema)
	require.NoError(t, err)
	assert.Equal(t, data, again)
}

func TestStructLengthMismatch(t *testing.T) {
	s := schema.NewStruct(
		schema.Field{Name: "a", Schema: schema.Number},
		schema.Field{Name: "b", Schema: schema.Number},
		schema.Field{Name: "c", Schema: schema.Number},
	)
	r := cbor.NewReader(test.DecodeHexString("820102"))
	_, err := schema.DecodeFrom(r, s)
	require.Error(t, err)
	assert.ErrorIs(t, err, schema.ErrSchemaMismatch)
	assert.ErrorIs(t, err, cbor.ErrFormat)
	var mismatch schema.SchemaMismatchError
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, "$", mismatch.Path)
	assert.Contains(t, mismatch.Msg, "[1, 2]")
	assert.Equal(t, 0, r.Offset())
}

func TestDecodeErrors(t *testing.T) {
	testDefs := []struct {
		name    string
		schema  schema.Schema
		cborHex string
		path    string
	}{
		{
			name:    "WrongMajorType",
			schema:  schema.String,
			cborHex: "05",
		},
		{
			name:    "Truncated",
			schema:  schema.List{Elem: schema.Number},
			cborHex: "8201",
		},
		{
			name:    "NestedStructMismatch",
			schema:  minerInfoSchema,
			cborHex: "844300d209f640818101",
			path:    "$.pending[0]",
		},
		{
			name:    "MissingSchema",
			schema:  nil,
			cborHex: "01",
			path:    "$",
		},
	}
	for _, testDef := range testDefs {
		t.Run(testDef.name, func(t *testing.T) {
			r := cbor.NewReader(test.DecodeHexString(testDef.cborHex))
			_, err := schema.DecodeFrom(r, testDef.schema)
			require.Error(t, err)
			assert.Equal(t, 0, r.Offset())
			if testDef.path == "" {
				assert.ErrorIs(t, err, cbor.ErrFormat)
				return
			}
			var mismatch schema.SchemaMismatchError
			require.ErrorAs(t, err, &mismatch)
			assert.Equal(t, testDef.path, mismatch.Path)
		})
	}
}

func TestEncodeMismatch(t *testing.T) {
	testDefs := []struct {
		name   string
		value  any
		schema schema.Schema
		path   string
	}{
		{
			name:   "WrongGoType",
			value:  "f01234",
			schema: schema.Address,
			path:   "$",
		},
		{
			name:   "ListElement",
			value:  []any{"a", 1},
			schema: schema.List{Elem: schema.String},
			path:   "$[1]",
		},
		{
			name:   "MissingField",
			value:  schema.NewRecord().Set("a", int64(1)).Set("c", int64(2)),
			schema: schema.NewStruct(schema.Field{Name: "a", Schema: schema.Number}, schema.Field{Name: "b", Schema: schema.Number}),
			path:   "$",
		},
		{
			name:   "FieldCount",
			value:  map[string]any{"a": int64(1)},
			schema: schema.NewStruct(schema.Field{Name: "a", Schema: schema.Number}, schema.Field{Name: "b", Schema: schema.Number}),
			path:   "$",
		},
		{
			name:   "FieldValue",
			value:  map[string]any{"a": true},
			schema: schema.NewStruct(schema.Field{Name: "a", Schema: schema.Number}),
			path:   "$.a",
		},
		{
			name:   "EmptySignature",
			value:  types.Signature{Type: types.SigTypeSecp256k1},
			schema: schema.Signature,
			path:   "$",
		},
	}
	for _, testDef := range testDefs {
		t.Run(testDef.name, func(t *testing.T) {
			w := cbor.NewWriter()
			w.WriteNumber(1)
			err := schema.EncodeTo(w, testDef.value, testDef.schema)
			require.Error(t, err)
			assert.ErrorIs(t, err, schema.ErrSchemaMismatch)
			var mismatch schema.SchemaMismatchError
			require.ErrorAs(t, err, &mismatch)
			assert.Equal(t, testDef.path, mismatch.Path)
			// Nothing past the first item was written
			assert.Equal(t, []byte{0x01}, w.Bytes())
		})
	}
}

func TestEncodeTrieUnsupported(t *testing.T) {
	for _, s := range []schema.Schema{
		schema.AMTRef{Elem: schema.Number},
		schema.HAMTRef{Key: hamt.KeyKindAddress, Value: schema.Number},
		schema.NewStruct(schema.Field{Name: "sectors", Schema: schema.AMTRef{Elem: schema.Number}}),
	} {
		_, err := schema.Encode(map[string]any{"sectors": nil}, s)
		require.Error(t, err)
		assert.ErrorIs(t, err, schema.ErrUnsupported)
		assert.ErrorIs(t, err, schema.ErrSchemaMismatch)
	}
}

func TestDecodeAMT(t *testing.T) {
	// [height 0, count 2, [bitmap 0b101, [], [1, 2]]]
	s := schema.NewStruct(
		schema.Field{Name: "name", Schema: schema.String},
		schema.Field{Name: "values", Schema: schema.AMTRef{Elem: schema.Number}},
	)
	data := test.DecodeHexString("8261618300028341058082010" + "2")
	decoded, err := schema.Decode(data, s)
	require.NoError(t, err)
	value, _ := decoded.(*schema.Record).Get("values")
	trie, ok := value.(*amt.AMT[any])
	require.True(t, ok, "decoded %T", value)
	assert.Equal(t, uint64(2), trie.Count())
	got, found, err := trie.Get(context.Background(), 2, nil)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, int64(2), got)
	_, found, err = trie.Get(context.Background(), 1, nil)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestDecodeHAMT(t *testing.T) {
	// [bitmap, [{"1": [[h'07', "seven"]]}]]
	digest := sha256.Sum256([]byte{7})
	slot := uint(digest[0] >> 3)
	w := cbor.NewWriter()
	w.WriteArrayLength(2)
	w.WriteBytes(new(big.Int).SetBit(new(big.Int), int(slot), 1).Bytes())
	w.WriteArrayLength(1)
	w.WriteMapLength(1)
	w.WriteString("1")
	w.WriteArrayLength(1)
	w.WriteArrayLength(2)
	w.WriteBytes([]byte{7})
	w.WriteString("seven")

	s := schema.HAMTRef{Key: hamt.KeyKindNumber, Value: schema.String}
	decoded, err := schema.Decode(w.Bytes(), s)
	require.NoError(t, err)
	trie, ok := decoded.(*hamt.HAMT[uint64, any])
	require.True(t, ok, "decoded %T", decoded)
	got, found, err := trie.Get(context.Background(), 7, nil)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "seven", got)

	// Values that do not fit the value schema fail once reached
	bad := schema.HAMTRef{Key: hamt.KeyKindNumber, Value: schema.Number}
	_, err = schema.Decode(w.Bytes(), bad)
	assert.ErrorIs(t, err, cbor.ErrFormat)

	// The array pointer layout is selected by version
	v3 := cbor.NewWriter()
	v3.WriteArrayLength(2)
	v3.WriteBytes(new(big.Int).SetBit(new(big.Int), int(slot), 1).Bytes())
	v3.WriteArrayLength(1)
	v3.WriteArrayLength(1)
	v3.WriteArrayLength(2)
	v3.WriteBytes([]byte{7})
	v3.WriteString("seven")
	decoded, err = schema.Decode(v3.Bytes(), schema.HAMTRef{Key: hamt.KeyKindNumber, Value: schema.String, Version: hamt.Version3})
	require.NoError(t, err)
	got, found, err = decoded.(*hamt.HAMT[uint64, any]).Get(context.Background(), 7, nil)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "seven", got)
	_, err = schema.Decode(v3.Bytes(), s)
	assert.ErrorIs(t, err, cbor.ErrFormat)
}

func TestDecodeHAMTLoader(t *testing.T) {
	loaderErr := errors.New("offline")
	loader := types.LoaderFunc(func(context.Context, types.ContentId) ([]byte, error) {
		return nil, loaderErr
	})
	id := types.NewContentId([]byte{0x01, 0x71, 0x00, 0x00})
	w := cbor.NewWriter()
	w.WriteArrayLength(2)
	// Every slot of a one-bit-wide root points at the same child
	w.WriteBytes([]byte{0x03})
	w.WriteArrayLength(2)
	for range 2 {
		w.WriteMapLength(1)
		w.WriteString("0")
		id.EncodeTo(w)
	}
	s := schema.HAMTRef{Key: hamt.KeyKindAddress, Value: schema.Number, BitWidth: 1}
	decoded, err := schema.Decode(w.Bytes(), s)
	require.NoError(t, err)
	trie := decoded.(*hamt.HAMT[types.Address, any])
	assert.Equal(t, uint(1), trie.BitWidth())
	_, _, err = trie.Get(context.Background(), mustParseAddress(t, "f01234"), loader)
	assert.Same(t, loaderErr, err)
}

func TestValidate(t *testing.T) {
	require.NoError(t, schema.Validate(minerInfoSchema))
	require.NoError(t, schema.Validate(schema.HAMTRef{Key: hamt.KeyKindContentId, Value: schema.AMTRef{Elem: schema.Bytes}}))
	testDefs := []struct {
		schema schema.Schema
		path   string
	}{
		{schema: nil, path: "$"},
		{schema: schema.Primitive{Kind: 42}, path: "$"},
		{schema: schema.List{}, path: "$[]"},
		{schema: schema.NewStruct(schema.Field{Name: "a", Schema: schema.Number}, schema.Field{Name: "a", Schema: schema.String}), path: "$"},
		{schema: schema.NewStruct(schema.Field{Name: "a", Schema: schema.Optional{}}), path: "$.a"},
		{schema: schema.AMTRef{Elem: schema.Number, Version: 7}, path: "$"},
		{schema: schema.HAMTRef{Key: 9, Value: schema.Number}, path: "$"},
		{schema: schema.HAMTRef{Value: schema.List{}}, path: "${}[]"},
	}
	for _, testDef := range testDefs {
		err := schema.Validate(testDef.schema)
		require.Error(t, err, "schema %v", testDef.schema)
		var mismatch schema.SchemaMismatchError
		require.ErrorAs(t, err, &mismatch)
		assert.Equal(t, testDef.path, mismatch.Path, "schema %v", testDef.schema)
	}
}

func TestSchemaString(t *testing.T) {
	s := schema.NewStruct(
		schema.Field{Name: "owner", Schema: schema.Address},
		schema.Field{Name: "balances", Schema: schema.HAMTRef{Key: hamt.KeyKindAddress, Value: schema.BigInt}},
		schema.Field{Name: "epochs", Schema: schema.AMTRef{Elem: schema.Optional{Inner: schema.List{Elem: schema.Number}}}},
	)
	assert.Equal(
		t,
		"struct{owner: address, balances: hamt<address, bigint>, epochs: amt<optional<list<number>>>}",
		s.String(),
	)
	for _, name := range []string{"address", "bigint", "bitset", "boolean", "bytes", "contentId", "number", "signature", "string"} {
		kind, err := schema.ParseKind(name)
		require.NoError(t, err)
		assert.Equal(t, name, kind.String())
	}
	_, err := schema.ParseKind("float")
	assert.Error(t, err)
}

type testPowerEntry struct {
	cbor.StructAsArray
	Epoch int64
	Label string
	Flags []bool
}

func TestStructAsArrayInterop(t *testing.T) {
	s := schema.NewStruct(
		schema.Field{Name: "epoch", Schema: schema.Number},
		schema.Field{Name: "label", Schema: schema.String},
		schema.Field{Name: "flags", Schema: schema.List{Elem: schema.Boolean}},
	)
	data, err := cbor.Encode(&testPowerEntry{Epoch: -5, Label: "x", Flags: []bool{true, false}})
	require.NoError(t, err)
	decoded, err := schema.Decode(data, s)
	require.NoError(t, err)
	record := decoded.(*schema.Record)
	assert.Equal(t, []any{int64(-5), "x", []any{true, false}}, record.Values())

	again, err := schema.Encode(record, s)
	require.NoError(t, err)
	var out testPowerEntry
	_, err = cbor.Decode(again, &out)
	require.NoError(t, err)
	assert.Equal(t, int64(-5), out.Epoch)
	assert.Equal(t, "x", out.Label)
	assert.Equal(t, []bool{true, false}, out.Flags)
}

func TestDecodeFunc(t *testing.T) {
	decode := schema.DecodeFunc(schema.List{Elem: schema.Number})
	r := cbor.NewReader(test.DecodeHexString("820102f5"))
	value, err := decode(r)
	require.NoError(t, err)
	assert.Equal(t, []any{int64(1), int64(2)}, value)
	assert.Equal(t, 3, r.Offset())

	w := cbor.NewWriter()
	require.NoError(t, schema.EncodeFunc(schema.List{Elem: schema.Number})(w, value))
	assert.Equal(t, "820102", hex.EncodeToString(w.Bytes()))
}
