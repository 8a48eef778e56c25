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

package schema

import (
	"bytes"
	"fmt"
	"math"
	"math/big"

	"github.com/blinklabs-io/actorstate/amt"
	"github.com/blinklabs-io/actorstate/bitfield"
	"github.com/blinklabs-io/actorstate/cbor"
	"github.com/blinklabs-io/actorstate/hamt"
	"github.com/blinklabs-io/actorstate/types"
)

// Longest diagnostic notation included in a mismatch message
const maxDiagLength = 80

// Decode decodes the value at the start of data according to s. Bytes after the value are ignored
func Decode(data []byte, s Schema) (any, error) {
	return DecodeFrom(cbor.NewReader(data), s)
}

// DecodeFrom decodes one value from r according to s. On error the reader is left where it started
func DecodeFrom(r *cbor.Reader, s Schema) (any, error) {
	start := r.Offset()
	ret, err := decode(r, s, "$")
	if err != nil {
		r.Seek(start)
		return nil, err
	}
	return ret, nil
}

// DecodeFunc returns a cbor.DecodeFunc that decodes values according to s
func DecodeFunc(s Schema) cbor.DecodeFunc[any] {
	return elemDecoder(s, "$")
}

func elemDecoder(s Schema, path string) cbor.DecodeFunc[any] {
	return func(r *cbor.Reader) (any, error) {
		return decode(r, s, path)
	}
}

func decode(r *cbor.Reader, s Schema, path string) (any, error) {
	switch s := s.(type) {
	case Primitive:
		return decodePrimitive(r, s.Kind, path)
	case Optional:
		if r.ReadNull() {
			return nil, nil
		}
		return decode(r, s.Inner, path)
	case List:
		count, err := r.ReadArrayLength()
		if err != nil {
			return nil, err
		}
		ret := make([]any, 0, count)
		for i := range count {
			item, err := decode(r, s.Elem, fmt.Sprintf("%s[%d]", path, i))
			if err != nil {
				return nil, err
			}
			ret = append(ret, item)
		}
		return ret, nil
	case Struct:
		return decodeStruct(r, s, path)
	case AMTRef:
		return amt.Decode(r, s.Version, elemDecoder(s.Elem, path+"[]"))
	case HAMTRef:
		return decodeHAMT(r, s, path)
	case nil:
		return nil, newMismatch(path, "missing schema")
	default:
		return nil, newMismatch(path, "unknown schema type %T", s)
	}
}

func decodePrimitive(r *cbor.Reader, kind Kind, path string) (any, error) {
	switch kind {
	case KindAddress:
		return types.DecodeAddress(r)
	case KindBigInt:
		return r.ReadBigInt()
	case KindBitset:
		return bitfield.DecodeBitField(r)
	case KindBoolean:
		return r.ReadBoolean()
	case KindBytes:
		data, err := r.ReadBytes()
		if err != nil {
			return nil, err
		}
		return bytes.Clone(data), nil
	case KindContentId:
		return types.DecodeContentId(r)
	case KindNumber:
		return decodeNumber(r)
	case KindSignature:
		return types.DecodeSignature(r)
	case KindString:
		return r.ReadString()
	default:
		return nil, newMismatch(path, "unknown primitive kind %d", kind)
	}
}

// decodeNumber returns int64 when the value fits, otherwise uint64 for large unsigned values and
// *big.Int for negative values below math.MinInt64
func decodeNumber(r *cbor.Reader) (any, error) {
	start := r.Offset()
	h, err := r.ReadHeader()
	if err != nil {
		return nil, err
	}
	switch h.Major {
	case cbor.MajorUnsigned:
		if h.Extra <= math.MaxInt64 {
			return int64(h.Extra), nil
		}
		return h.Extra, nil
	case cbor.MajorNegative:
		if h.Extra <= math.MaxInt64 {
			return -int64(h.Extra) - 1, nil
		}
		ret := new(big.Int).SetUint64(h.Extra)
		return ret.Neg(ret).Sub(ret, big.NewInt(1)), nil
	}
	r.Seek(start)
	return nil, cbor.NewFormatError(start, "expected integer, found major type %d", h.Major)
}

func decodeStruct(r *cbor.Reader, s Struct, path string) (*Record, error) {
	start := r.Offset()
	count, err := r.ReadArrayLength()
	if err != nil {
		return nil, err
	}
	if count != len(s.Fields) {
		return nil, wrapMismatch(
			path,
			fmt.Sprintf("struct has %d fields but data holds %d: %s", len(s.Fields), count, diagnoseAt(r, start)),
			cbor.NewFormatError(start, "array length %d", count),
		)
	}
	ret := &Record{
		names:  make([]string, 0, count),
		values: make([]any, 0, count),
	}
	for _, f := range s.Fields {
		value, err := decode(r, f.Schema, path+"."+f.Name)
		if err != nil {
			return nil, err
		}
		ret.names = append(ret.names, f.Name)
		ret.values = append(ret.values, value)
	}
	return ret, nil
}

func decodeHAMT(r *cbor.Reader, s HAMTRef, path string) (any, error) {
	var opts []hamt.OptionFunc
	if s.Version != 0 {
		opts = append(opts, hamt.WithVersion(s.Version))
	}
	if s.BitWidth != 0 {
		opts = append(opts, hamt.WithBitWidth(s.BitWidth))
	}
	elem := elemDecoder(s.Value, path+"{}")
	switch s.Key {
	case hamt.KeyKindAddress:
		return hamt.Decode(r, hamt.AddressKeys, elem, opts...)
	case hamt.KeyKindContentId:
		return hamt.Decode(r, hamt.ContentIdKeys, elem, opts...)
	case hamt.KeyKindNumber:
		return hamt.Decode(r, hamt.NumberKeys, elem, opts...)
	default:
		return nil, newMismatch(path, "unknown HAMT key kind %d", s.Key)
	}
}

// diagnoseAt renders the data item at offset in diagnostic notation for error messages
func diagnoseAt(r *cbor.Reader, offset int) string {
	cur := r.Offset()
	defer r.Seek(cur)
	r.Seek(offset)
	raw, err := r.ReadRaw()
	if err != nil {
		return "<malformed>"
	}
	diag, err := cbor.Diagnose(raw)
	if err != nil {
		return "<malformed>"
	}
	if len(diag) > maxDiagLength {
		diag = diag[:maxDiagLength] + "..."
	}
	return diag
}
