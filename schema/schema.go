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

// Package schema decodes and encodes structured actor state by walking a schema alongside the
// cursor codec.
//
// A Schema is a closed union: Primitive, Optional, List, Struct, AMTRef and HAMTRef. Decoded
// values use these Go types:
//
//	address    types.Address
//	bigint     *big.Int
//	bitset     bitfield.BitField
//	boolean    bool
//	bytes      []byte
//	contentId  types.ContentId
//	number     int64, or uint64 above math.MaxInt64 and *big.Int below math.MinInt64
//	signature  types.Signature
//	string     string
//	Optional   nil when absent, otherwise the inner value
//	List       []any
//	Struct     *Record
//	AMTRef     *amt.AMT[any]
//	HAMTRef    *hamt.HAMT[types.Address, any], *hamt.HAMT[types.ContentId, any] or *hamt.HAMT[uint64, any]
//
// Tries are read-only views: their root node is decoded in place and child nodes are fetched
// later through a loader. Encoding a trie is not supported.
package schema

import (
	"fmt"
	"strings"

	"github.com/blinklabs-io/actorstate/amt"
	"github.com/blinklabs-io/actorstate/hamt"
)

// Schema describes the layout of an encoded value
type Schema interface {
	fmt.Stringer
	isSchema()
}

// Kind identifies a primitive value type
type Kind uint8

const (
	KindAddress Kind = iota + 1
	KindBigInt
	KindBitset
	KindBoolean
	KindBytes
	KindContentId
	KindNumber
	KindSignature
	KindString
)

var kindNames = map[Kind]string{
	KindAddress:   "address",
	KindBigInt:    "bigint",
	KindBitset:    "bitset",
	KindBoolean:   "boolean",
	KindBytes:     "bytes",
	KindContentId: "contentId",
	KindNumber:    "number",
	KindSignature: "signature",
	KindString:    "string",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("unknown(%d)", uint8(k))
}

// ParseKind returns the Kind for its text name
func ParseKind(s string) (Kind, error) {
	for kind, name := range kindNames {
		if name == s {
			return kind, nil
		}
	}
	return 0, fmt.Errorf("unknown primitive kind %q", s)
}

// Primitive is a leaf value
type Primitive struct {
	Kind Kind
}

// Optional is either null or a value of Inner
type Optional struct {
	Inner Schema
}

// List is an array of values of Elem
type List struct {
	Elem Schema
}

// Field is a named member of a Struct
type Field struct {
	Name   string
	Schema Schema
}

// Struct is an array holding exactly one value per field, in field order
type Struct struct {
	Fields []Field
}

// AMTRef is an array mapped trie root with values of Elem
type AMTRef struct {
	Elem    Schema
	Version amt.Version
}

// HAMTRef is a hash array mapped trie root. A zero Version or BitWidth selects the hamt package default
type HAMTRef struct {
	Key      hamt.KeyKind
	Value    Schema
	Version  hamt.Version
	BitWidth uint
}

func (Primitive) isSchema() {}
func (Optional) isSchema()  {}
func (List) isSchema()      {}
func (Struct) isSchema()    {}
func (AMTRef) isSchema()    {}
func (HAMTRef) isSchema()   {}

func (p Primitive) String() string {
	return p.Kind.String()
}

func (o Optional) String() string {
	return fmt.Sprintf("optional<%s>", schemaString(o.Inner))
}

func (l List) String() string {
	return fmt.Sprintf("list<%s>", schemaString(l.Elem))
}

func (s Struct) String() string {
	parts := make([]string, 0, len(s.Fields))
	for _, f := range s.Fields {
		parts = append(parts, f.Name+": "+schemaString(f.Schema))
	}
	return "struct{" + strings.Join(parts, ", ") + "}"
}

func (a AMTRef) String() string {
	return fmt.Sprintf("amt<%s>", schemaString(a.Elem))
}

func (h HAMTRef) String() string {
	return fmt.Sprintf("hamt<%s, %s>", h.Key, schemaString(h.Value))
}

func schemaString(s Schema) string {
	if s == nil {
		return "<nil>"
	}
	return s.String()
}

// Convenience values for each primitive kind
var (
	Address   = Primitive{Kind: KindAddress}
	BigInt    = Primitive{Kind: KindBigInt}
	Bitset    = Primitive{Kind: KindBitset}
	Boolean   = Primitive{Kind: KindBoolean}
	Bytes     = Primitive{Kind: KindBytes}
	ContentId = Primitive{Kind: KindContentId}
	Number    = Primitive{Kind: KindNumber}
	Signature = Primitive{Kind: KindSignature}
	String    = Primitive{Kind: KindString}
)

// NewStruct returns a Struct with the given fields in order
func NewStruct(fields ...Field) Struct {
	return Struct{Fields: fields}
}

// Validate checks that s and every schema nested in it is well formed: known kinds, no
// missing inner schemas and unique struct field names
func Validate(s Schema) error {
	return validate(s, "$")
}

func validate(s Schema, path string) error {
	switch s := s.(type) {
	case Primitive:
		if _, ok := kindNames[s.Kind]; !ok {
			return newMismatch(path, "unknown primitive kind %d", s.Kind)
		}
	case Optional:
		return validate(s.Inner, path)
	case List:
		return validate(s.Elem, path+"[]")
	case Struct:
		seen := make(map[string]struct{}, len(s.Fields))
		for _, f := range s.Fields {
			if _, ok := seen[f.Name]; ok {
				return newMismatch(path, "duplicate field %q", f.Name)
			}
			seen[f.Name] = struct{}{}
			if err := validate(f.Schema, path+"."+f.Name); err != nil {
				return err
			}
		}
	case AMTRef:
		if s.Version != amt.VersionLegacy && s.Version != amt.Version3 {
			return newMismatch(path, "unsupported AMT version %d", s.Version)
		}
		return validate(s.Elem, path+"[]")
	case HAMTRef:
		switch s.Key {
		case hamt.KeyKindAddress, hamt.KeyKindContentId, hamt.KeyKindNumber:
		default:
			return newMismatch(path, "unknown HAMT key kind %d", s.Key)
		}
		return validate(s.Value, path+"{}")
	case nil:
		return newMismatch(path, "missing schema")
	default:
		return newMismatch(path, "unknown schema type %T", s)
	}
	return nil
}
