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
	"fmt"
	"math/big"
	"reflect"

	"github.com/blinklabs-io/actorstate/bitfield"
	"github.com/blinklabs-io/actorstate/cbor"
	"github.com/blinklabs-io/actorstate/types"
)

// Encode returns the encoding of v according to s
func Encode(v any, s Schema) ([]byte, error) {
	w := cbor.NewWriter()
	if err := encode(w, v, s, "$"); err != nil {
		return nil, err
	}
	return w.Bytes(), nil
}

// EncodeTo appends the encoding of v according to s to w. Nothing is written on error
func EncodeTo(w *cbor.Writer, v any, s Schema) error {
	scratch := cbor.NewWriter()
	if err := encode(scratch, v, s, "$"); err != nil {
		return err
	}
	w.WriteRaw(scratch.Bytes())
	return nil
}

// EncodeFunc returns a cbor.EncodeFunc that encodes values according to s
func EncodeFunc(s Schema) cbor.EncodeFunc[any] {
	return func(w *cbor.Writer, v any) error {
		return EncodeTo(w, v, s)
	}
}

func encode(w *cbor.Writer, v any, s Schema, path string) error {
	switch s := s.(type) {
	case Primitive:
		return encodePrimitive(w, v, s.Kind, path)
	case Optional:
		if isNil(v) {
			w.WriteNull()
			return nil
		}
		return encode(w, v, s.Inner, path)
	case List:
		return encodeList(w, v, s, path)
	case Struct:
		return encodeStruct(w, v, s, path)
	case AMTRef, HAMTRef:
		return wrapMismatch(path, "cannot encode "+s.String(), ErrUnsupported)
	case nil:
		return newMismatch(path, "missing schema")
	default:
		return newMismatch(path, "unknown schema type %T", s)
	}
}

func encodePrimitive(w *cbor.Writer, v any, kind Kind, path string) error {
	switch kind {
	case KindAddress:
		switch v := v.(type) {
		case types.Address:
			return encodeAddress(w, v)
		case *types.Address:
			if v != nil {
				return encodeAddress(w, *v)
			}
		}
	case KindBigInt:
		switch v := v.(type) {
		case *big.Int:
			if v != nil {
				w.WriteBigInt(v)
				return nil
			}
		case big.Int:
			w.WriteBigInt(&v)
			return nil
		default:
			if n, ok := toInt64(v); ok {
				w.WriteBigInt(big.NewInt(n))
				return nil
			}
			if n, ok := v.(uint64); ok {
				w.WriteBigInt(new(big.Int).SetUint64(n))
				return nil
			}
		}
	case KindBitset:
		switch v := v.(type) {
		case bitfield.BitField:
			v.EncodeTo(w)
			return nil
		case *bitfield.BitField:
			if v != nil {
				v.EncodeTo(w)
				return nil
			}
		}
	case KindBoolean:
		if b, ok := v.(bool); ok {
			w.WriteBoolean(b)
			return nil
		}
	case KindBytes:
		if b, ok := v.([]byte); ok {
			w.WriteBytes(b)
			return nil
		}
	case KindContentId:
		switch v := v.(type) {
		case types.ContentId:
			return encodeContentId(w, v, path)
		case *types.ContentId:
			if v != nil {
				return encodeContentId(w, *v, path)
			}
		}
	case KindNumber:
		if n, ok := toInt64(v); ok {
			w.WriteNumber(n)
			return nil
		}
		switch n := v.(type) {
		case uint64:
			w.WriteUint(n)
			return nil
		case uint:
			w.WriteUint(uint64(n))
			return nil
		case *big.Int:
			if n != nil {
				return encodeBigNumber(w, n, path)
			}
		}
	case KindSignature:
		switch v := v.(type) {
		case types.Signature:
			return encodeSignature(w, v, path)
		case *types.Signature:
			if v != nil {
				return encodeSignature(w, *v, path)
			}
		}
	case KindString:
		if str, ok := v.(string); ok {
			w.WriteString(str)
			return nil
		}
	default:
		return newMismatch(path, "unknown primitive kind %d", kind)
	}
	return newMismatch(path, "cannot encode %T as %s", v, kind)
}

// encodeBigNumber writes n as a major 0 or major 1 integer. Values outside [-2^64, 2^64-1] do not fit a header
func encodeBigNumber(w *cbor.Writer, n *big.Int, path string) error {
	if n.Sign() >= 0 {
		if !n.IsUint64() {
			return newMismatch(path, "number %s out of range", n)
		}
		w.WriteUint(n.Uint64())
		return nil
	}
	// Major 1 carries -1-n
	extra := new(big.Int).Neg(n)
	extra.Sub(extra, big.NewInt(1))
	if !extra.IsUint64() {
		return newMismatch(path, "number %s out of range", n)
	}
	w.WriteHeader(cbor.MajorNegative, extra.Uint64())
	return nil
}

// encodeAddress writes the binary form. The undefined address is an empty byte string, as it decodes
func encodeAddress(w *cbor.Writer, addr types.Address) error {
	addr.EncodeTo(w)
	return nil
}

func encodeContentId(w *cbor.Writer, id types.ContentId, path string) error {
	if !id.Defined() {
		return newMismatch(path, "cannot encode undefined content identifier")
	}
	id.EncodeTo(w)
	return nil
}

func encodeSignature(w *cbor.Writer, sig types.Signature, path string) error {
	if len(sig.Data) == 0 {
		return wrapMismatch(path, "cannot encode signature", types.ErrInvalidSignature)
	}
	sig.EncodeTo(w)
	return nil
}

func encodeList(w *cbor.Writer, v any, s List, path string) error {
	if items, ok := v.([]any); ok {
		w.WriteArrayLength(len(items))
		for i, item := range items {
			if err := encode(w, item, s.Elem, fmt.Sprintf("%s[%d]", path, i)); err != nil {
				return err
			}
		}
		return nil
	}
	// Typed slices such as []int64 or []types.Address
	rv := reflect.ValueOf(v)
	if !rv.IsValid() || rv.Kind() != reflect.Slice || rv.Type().Elem().Kind() == reflect.Uint8 {
		return newMismatch(path, "cannot encode %T as %s", v, s)
	}
	w.WriteArrayLength(rv.Len())
	for i := range rv.Len() {
		if err := encode(w, rv.Index(i).Interface(), s.Elem, fmt.Sprintf("%s[%d]", path, i)); err != nil {
			return err
		}
	}
	return nil
}

func encodeStruct(w *cbor.Writer, v any, s Struct, path string) error {
	var lookup func(name string) (any, bool)
	var count int
	switch v := v.(type) {
	case *Record:
		if v == nil {
			return newMismatch(path, "cannot encode nil record")
		}
		lookup, count = v.Get, v.Len()
	case Record:
		lookup, count = v.Get, v.Len()
	case map[string]any:
		lookup = func(name string) (any, bool) {
			ret, ok := v[name]
			return ret, ok
		}
		count = len(v)
	default:
		return newMismatch(path, "cannot encode %T as struct", v)
	}
	if count != len(s.Fields) {
		return newMismatch(path, "struct has %d fields but value holds %d", len(s.Fields), count)
	}
	w.WriteArrayLength(len(s.Fields))
	for _, f := range s.Fields {
		value, ok := lookup(f.Name)
		if !ok {
			return newMismatch(path, "missing field %q", f.Name)
		}
		if err := encode(w, value, f.Schema, path+"."+f.Name); err != nil {
			return err
		}
	}
	return nil
}

func toInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int8:
		return int64(n), true
	case int16:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case uint8:
		return int64(n), true
	case uint16:
		return int64(n), true
	case uint32:
		return int64(n), true
	case uint:
		if uint64(n) <= 1<<63-1 {
			return int64(n), true
		}
	}
	return 0, false
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface:
		return rv.IsNil()
	}
	return false
}
