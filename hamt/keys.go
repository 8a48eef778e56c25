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

package hamt

import (
	"encoding/binary"
	"fmt"
	"strconv"

	"github.com/blinklabs-io/actorstate/cbor"
	"github.com/blinklabs-io/actorstate/types"
)

// KeyCodec describes how keys of type K are read from a bucket, serialized for hashing and compared
type KeyCodec[K any] interface {
	Decode(r *cbor.Reader) (K, error)
	// Bytes returns the byte form that is hashed to place the key in the trie
	Bytes(key K) []byte
	Equal(a, b K) bool
	// String returns the text form used as the key of Map
	String(key K) string
}

// KeyKind names the built-in key codecs
type KeyKind uint8

const (
	KeyKindAddress KeyKind = iota
	KeyKindContentId
	KeyKindNumber
)

func (k KeyKind) String() string {
	switch k {
	case KeyKindAddress:
		return "address"
	case KeyKindContentId:
		return "cid"
	case KeyKindNumber:
		return "number"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(k))
	}
}

// ParseKeyKind returns the KeyKind for its text name
func ParseKeyKind(s string) (KeyKind, error) {
	switch s {
	case "address":
		return KeyKindAddress, nil
	case "cid", "contentId":
		return KeyKindContentId, nil
	case "number":
		return KeyKindNumber, nil
	default:
		return 0, fmt.Errorf("unknown HAMT key kind %q", s)
	}
}

// AddressKeys hashes an address as its protocol byte followed by its payload
var AddressKeys KeyCodec[types.Address] = addressKeys{}

type addressKeys struct{}

func (addressKeys) Decode(r *cbor.Reader) (types.Address, error) {
	return types.DecodeAddress(r)
}

func (addressKeys) Bytes(key types.Address) []byte {
	return key.Bytes()
}

func (addressKeys) Equal(a, b types.Address) bool {
	return a.Equal(b)
}

func (addressKeys) String(key types.Address) string {
	return key.String()
}

// ContentIdKeys hashes a content identifier as the identity multibase marker followed by its bytes
var ContentIdKeys KeyCodec[types.ContentId] = contentIdKeys{}

type contentIdKeys struct{}

func (contentIdKeys) Decode(r *cbor.Reader) (types.ContentId, error) {
	return types.DecodeContentId(r)
}

func (contentIdKeys) Bytes(key types.ContentId) []byte {
	data := key.Bytes()
	ret := make([]byte, 0, 1+len(data))
	ret = append(ret, cbor.CidMultibaseIdentity)
	return append(ret, data...)
}

func (contentIdKeys) Equal(a, b types.ContentId) bool {
	return a.Equal(b)
}

func (contentIdKeys) String(key types.ContentId) string {
	return key.String()
}

// NumberKeys stores and hashes a number as its minimal big-endian bytes. Zero is a single zero byte
var NumberKeys KeyCodec[uint64] = numberKeys{}

type numberKeys struct{}

func (numberKeys) Decode(r *cbor.Reader) (uint64, error) {
	start := r.Offset()
	data, err := r.ReadBytes()
	if err != nil {
		return 0, err
	}
	if len(data) == 0 || len(data) > 8 {
		r.Seek(start)
		return 0, cbor.NewFormatError(start, "number key has %d bytes", len(data))
	}
	var tmp [8]byte
	copy(tmp[8-len(data):], data)
	return binary.BigEndian.Uint64(tmp[:]), nil
}

func (numberKeys) Bytes(key uint64) []byte {
	var tmp [8]byte
	binary.BigEndian.PutUint64(tmp[:], key)
	i := 0
	for i < 7 && tmp[i] == 0 {
		i++
	}
	return tmp[i:]
}

func (numberKeys) Equal(a, b uint64) bool {
	return a == b
}

func (numberKeys) String(key uint64) string {
	return strconv.FormatUint(key, 10)
}
